package geometry

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-spatial/proj"
	"github.com/go-spatial/proj/core"
	_ "github.com/go-spatial/proj/operations"
	"github.com/go-spatial/proj/support"
)

// Supported coordinate reference systems
const (
	CRSGeographic  = "EPSG:4326"
	CRSWebMercator = "EPSG:3857"
)

// Projection converts between geographic coordinates (lon, lat in degrees) and a projected CRS
type Projection interface {
	// Forward projects lon/lat to x/y
	Forward(lon, lat float64) (x, y float64, err error)
	// Inverse returns lon/lat of x/y
	Inverse(x, y float64) (lon, lat float64, err error)
	// Code is the EPSG code of the projection (EPSG:XXXX)
	Code() string
}

// NormalizeCRS returns the canonical form of a CRS code (upper case, EPSG: prefix)
func NormalizeCRS(crs string) string {
	crs = strings.ToUpper(strings.TrimSpace(crs))
	if _, err := strconv.Atoi(crs); err == nil {
		return "EPSG:" + crs
	}
	return crs
}

// NewProjection returns the projection of the CRS
// Supported: EPSG:4326, EPSG:3857 and the WGS84 UTM zones EPSG:32601-32660 (north) and EPSG:32701-32760 (south)
func NewProjection(crs string) (Projection, error) {
	crs = NormalizeCRS(crs)
	switch crs {
	case CRSGeographic:
		return geographic{}, nil
	case CRSWebMercator:
		return webMercator{}, nil
	}
	code, err := strconv.Atoi(strings.TrimPrefix(crs, "EPSG:"))
	if err != nil || !strings.HasPrefix(crs, "EPSG:") {
		return nil, fmt.Errorf("unsupported crs: %s", crs)
	}
	var zone int
	var south bool
	switch {
	case code > 32600 && code <= 32660:
		zone = code - 32600
	case code > 32700 && code <= 32760:
		zone, south = code-32700, true
	default:
		return nil, fmt.Errorf("unsupported crs: %s", crs)
	}
	p, err := NewUTM(zone, south)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// UTMCode returns the EPSG code of the WGS84 UTM zone
func UTMCode(zone int, south bool) string {
	if south {
		return fmt.Sprintf("EPSG:327%02d", zone)
	}
	return fmt.Sprintf("EPSG:326%02d", zone)
}

// UTMZoneOf returns the UTM zone containing the longitude
func UTMZoneOf(lon float64) int {
	zone := int(math.Floor((lon+180)/6)) + 1
	if zone > 60 {
		zone = 60
	}
	if zone < 1 {
		zone = 1
	}
	return zone
}

type geographic struct{}

func (geographic) Forward(lon, lat float64) (float64, float64, error) { return lon, lat, nil }
func (geographic) Inverse(x, y float64) (float64, float64, error)     { return x, y, nil }
func (geographic) Code() string                                        { return CRSGeographic }

type webMercator struct{}

func (webMercator) Forward(lon, lat float64) (float64, float64, error) {
	xy, err := proj.Convert(proj.EPSG3857, []float64{lon, lat})
	if err != nil {
		return 0, 0, fmt.Errorf("webMercator.Forward: %w", err)
	}
	return xy[0], xy[1], nil
}

func (webMercator) Inverse(x, y float64) (float64, float64, error) {
	ll, err := proj.Inverse(proj.EPSG3857, []float64{x, y})
	if err != nil {
		return 0, 0, fmt.Errorf("webMercator.Inverse: %w", err)
	}
	return ll[0], ll[1], nil
}

func (webMercator) Code() string { return CRSWebMercator }

// UTM is the transverse mercator projection of a WGS84 UTM zone
type UTM struct {
	Zone  int
	South bool

	op core.IConvertLPToXY
}

// NewUTM creates the projection of the zone (1..60)
func NewUTM(zone int, south bool) (*UTM, error) {
	def := fmt.Sprintf("+proj=utm +zone=%d +ellps=WGS84", zone)
	if south {
		def += " +south"
	}
	ps, err := support.NewProjString(def)
	if err != nil {
		return nil, fmt.Errorf("NewUTM.NewProjString: %w", err)
	}
	_, opx, err := core.NewSystem(ps)
	if err != nil {
		return nil, fmt.Errorf("NewUTM.NewSystem: %w", err)
	}
	op, ok := opx.(core.IConvertLPToXY)
	if !ok {
		return nil, fmt.Errorf("NewUTM: %s is not a conversion", def)
	}
	return &UTM{Zone: zone, South: south, op: op}, nil
}

// Code implements Projection
func (p *UTM) Code() string {
	return UTMCode(p.Zone, p.South)
}

// Forward implements Projection
func (p *UTM) Forward(lon, lat float64) (float64, float64, error) {
	xy, err := p.op.Forward(&core.CoordLP{Lam: support.DDToR(lon), Phi: support.DDToR(lat)})
	if err != nil {
		return 0, 0, fmt.Errorf("UTM.Forward: %w", err)
	}
	return xy.X, xy.Y, nil
}

// Inverse implements Projection
func (p *UTM) Inverse(x, y float64) (float64, float64, error) {
	lp, err := p.op.Inverse(&core.CoordXY{X: x, Y: y})
	if err != nil {
		return 0, 0, fmt.Errorf("UTM.Inverse: %w", err)
	}
	return support.RToDD(lp.Lam), support.RToDD(lp.Phi), nil
}
