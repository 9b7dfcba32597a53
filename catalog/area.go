package catalog

import (
	"fmt"

	"github.com/airbusgeo/geocube-sampler/grid"
	"github.com/airbusgeo/geocube-sampler/service"
	"github.com/airbusgeo/geocube-sampler/service/geometry"
	"github.com/go-spatial/geom"
)

// DefaultRegionName is the name of an area given by bounds or by a geometry
const DefaultRegionName = "aoi"

// Area is the resolved area of interest
type Area struct {
	Name       string          `json:"name"`               // Used in the output names
	GridKey    string          `json:"grid_key,omitempty"` // Canonical grid-zone designator
	Region     geometry.Region `json:"region"`             // Geographic coordinates
	WorkingCRS string          `json:"working_crs"`        // Metric CRS of the sample regions (UTM zone), default CRS of the exports
}

// ResolveArea resolves the area from the grid key or the bounds (see grid.Resolve)
// If name is empty, the canonical grid key is used, or DefaultRegionName.
// The working CRS is the UTM zone of the grid key (or of the center of the bounds).
// crs is the CRS of the exports, if any: it is only checked, the sample regions are always built in the working CRS.
func ResolveArea(bounds *geometry.Bounds, gridKey, name, crs string) (Area, error) {
	if gridKey != "" {
		k, err := grid.ParseKey(gridKey)
		if err != nil {
			return Area{}, err
		}
		gridKey = k.String()
	}
	region, projected, err := grid.ResolveWithCRS(bounds, gridKey, "")
	if err != nil {
		return Area{}, err
	}
	if err := checkCRS(crs); err != nil {
		return Area{}, err
	}
	return newArea(name, gridKey, region, projected.CRS), nil
}

// AreaFromGeoJSON resolves the area from a GeoJSON geometry, feature or feature collection (in geographic coordinates)
// A single polygon is used as is, other geometries are replaced by their bounding box.
func AreaFromGeoJSON(data []byte, name, crs string) (Area, error) {
	g, err := service.UnmarshalGeometry(data)
	if err != nil {
		return Area{}, service.Errorf(service.ErrInvalidBounds, "AreaFromGeoJSON: %w", err)
	}
	var region geometry.Region
	switch g := g.(type) {
	case geom.Polygon:
		region = geometry.Region{CRS: geometry.CRSGeographic, Ring: g[0]}
	case geom.MultiPolygon:
		if len(g) == 1 {
			region = geometry.Region{CRS: geometry.CRSGeographic, Ring: g[0][0]}
			break
		}
		fallthrough
	default:
		ext, err := geom.NewExtentFromGeometry(g)
		if err != nil {
			return Area{}, service.Errorf(service.ErrInvalidBounds, "AreaFromGeoJSON: %w", err)
		}
		region = geometry.NewRectangle(geometry.CRSGeographic, ext.MinX(), ext.MinY(), ext.MaxX(), ext.MaxY())
	}
	if len(region.Ring) > 0 && region.Ring[0] != region.Ring[len(region.Ring)-1] {
		region.Ring = append(region.Ring, region.Ring[0])
	}
	if err := region.Validate(); err != nil {
		return Area{}, err
	}
	b, err := region.Bounds()
	if err != nil {
		return Area{}, service.Errorf(service.ErrInvalidBounds, "%w", err)
	}
	workingCRS, err := grid.WorkingCRS("", b)
	if err != nil {
		return Area{}, err
	}
	if err := checkCRS(crs); err != nil {
		return Area{}, err
	}
	return newArea(name, "", region, workingCRS), nil
}

// checkCRS returns an error if the crs of the exports is not supported
func checkCRS(crs string) error {
	if crs == "" {
		return nil
	}
	if _, err := geometry.NewProjection(crs); err != nil {
		return service.Errorf(service.ErrInvalidBounds, "%w", err)
	}
	return nil
}

func newArea(name, gridKey string, region geometry.Region, crs string) Area {
	if name == "" {
		name = gridKey
	}
	if name == "" {
		name = DefaultRegionName
	}
	return Area{Name: name, GridKey: gridKey, Region: region, WorkingCRS: crs}
}

func (a Area) String() string {
	return fmt.Sprintf("%s (%s)", a.Name, a.WorkingCRS)
}
