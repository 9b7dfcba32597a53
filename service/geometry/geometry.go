package geometry

import (
	"fmt"
	"math"
	"runtime"

	"github.com/airbusgeo/geocube-sampler/service"
	"github.com/go-spatial/geom"
	"github.com/go-spatial/geom/encoding/geojson"
	geomwkt "github.com/go-spatial/geom/encoding/wkt"
	"github.com/paulsmith/gogeos/geos"
)

// Number of segments each edge is split into before reprojection
const densifySteps = 16

// Bounds is a rectangle in geographic coordinates (degrees)
type Bounds struct {
	MinLon float64 `json:"min_lon"`
	MinLat float64 `json:"min_lat"`
	MaxLon float64 `json:"max_lon"`
	MaxLat float64 `json:"max_lat"`
}

// BoundsFromSlice reads [left, bottom, right, top] (lon/lat)
func BoundsFromSlice(b []float64) (Bounds, error) {
	if len(b) != 4 {
		return Bounds{}, service.Errorf(service.ErrInvalidBounds, "expecting 4 values (left bottom right top), got %d", len(b))
	}
	bounds := Bounds{MinLon: b[0], MinLat: b[1], MaxLon: b[2], MaxLat: b[3]}
	return bounds, bounds.Validate()
}

// Validate checks that min < max and that the coordinates are valid lon/lat
func (b Bounds) Validate() error {
	for _, v := range []float64{b.MinLon, b.MinLat, b.MaxLon, b.MaxLat} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return service.Errorf(service.ErrInvalidBounds, "%v: not a number", b)
		}
	}
	if b.MinLat >= b.MaxLat {
		return service.Errorf(service.ErrInvalidBounds, "min-lat (%v) must be lower than max-lat (%v)", b.MinLat, b.MaxLat)
	}
	if b.MinLon >= b.MaxLon {
		return service.Errorf(service.ErrInvalidBounds, "min-lon (%v) must be lower than max-lon (%v)", b.MinLon, b.MaxLon)
	}
	if b.MinLon < -180 || b.MaxLon > 180 || b.MinLat < -90 || b.MaxLat > 90 {
		return service.Errorf(service.ErrInvalidBounds, "%v: out of the lon/lat range", b)
	}
	return nil
}

// Center returns the center of the bounds
func (b Bounds) Center() (lon, lat float64) {
	return (b.MinLon + b.MaxLon) / 2, (b.MinLat + b.MaxLat) / 2
}

// Region returns the rectangle in geographic coordinates
func (b Bounds) Region() Region {
	return NewRectangle(CRSGeographic, b.MinLon, b.MinLat, b.MaxLon, b.MaxLat)
}

func (b Bounds) String() string {
	return fmt.Sprintf("[%g %g %g %g]", b.MinLon, b.MinLat, b.MaxLon, b.MaxLat)
}

// Region is a closed polygon in a coordinate reference system
type Region struct {
	CRS  string       `json:"crs"`
	Ring [][2]float64 `json:"ring"` // Closed ring: first and last points are equal
}

// NewRectangle creates a rectangular region (counter-clockwise)
func NewRectangle(crs string, minX, minY, maxX, maxY float64) Region {
	return Region{
		CRS: NormalizeCRS(crs),
		Ring: [][2]float64{
			{minX, minY},
			{maxX, minY},
			{maxX, maxY},
			{minX, maxY},
			{minX, minY},
		},
	}
}

// Extent returns the bounding box of the region in its own CRS
func (r Region) Extent() geom.Extent {
	if len(r.Ring) == 0 {
		return geom.Extent{}
	}
	return *geom.NewExtent(r.Ring...)
}

// Bounds returns the bounding box of the region in geographic coordinates
func (r Region) Bounds() (Bounds, error) {
	g, err := r.Reproject(CRSGeographic)
	if err != nil {
		return Bounds{}, err
	}
	e := g.Extent()
	return Bounds{MinLon: e.MinX(), MinLat: e.MinY(), MaxLon: e.MaxX(), MaxLat: e.MaxY()}, nil
}

// Polygon returns the region as a geom.Polygon
func (r Region) Polygon() geom.Polygon {
	ring := make([][2]float64, len(r.Ring))
	copy(ring, r.Ring)
	return geom.Polygon{ring}
}

// WKT returns the well-known-text representation of the region (without CRS)
func (r Region) WKT() string {
	return geomwkt.MustEncode(r.Polygon())
}

// GeoJSON returns the region as a GeoJSON geometry
// GeoJSON being geographic, the region is reprojected to EPSG:4326
func (r Region) GeoJSON() (geojson.Geometry, error) {
	g, err := r.Reproject(CRSGeographic)
	if err != nil {
		return geojson.Geometry{}, err
	}
	return geojson.Geometry{Geometry: g.Polygon()}, nil
}

// Reproject returns the region in the given CRS
// Edges are densified, so that the reprojected polygon follows the curved edges
func (r Region) Reproject(crs string) (Region, error) {
	crs = NormalizeCRS(crs)
	if crs == NormalizeCRS(r.CRS) {
		return r, nil
	}
	from, err := NewProjection(r.CRS)
	if err != nil {
		return Region{}, fmt.Errorf("Reproject.%w", err)
	}
	to, err := NewProjection(crs)
	if err != nil {
		return Region{}, fmt.Errorf("Reproject.%w", err)
	}

	ring := make([][2]float64, 0, (len(r.Ring)-1)*densifySteps+1)
	for i := 0; i+1 < len(r.Ring); i++ {
		p0, p1 := r.Ring[i], r.Ring[i+1]
		for s := 0; s < densifySteps; s++ {
			t := float64(s) / densifySteps
			x, y := p0[0]+t*(p1[0]-p0[0]), p0[1]+t*(p1[1]-p0[1])
			lon, lat, err := from.Inverse(x, y)
			if err != nil {
				return Region{}, fmt.Errorf("Reproject.%w", err)
			}
			if x, y, err = to.Forward(lon, lat); err != nil {
				return Region{}, fmt.Errorf("Reproject.%w", err)
			}
			ring = append(ring, [2]float64{x, y})
		}
	}
	if len(ring) > 0 {
		ring = append(ring, ring[0])
	}
	return Region{CRS: crs, Ring: ring}, nil
}

// Validate checks that the region is a valid, non-empty polygon
// and that geographic coordinates are in the lon/lat range
func (r Region) Validate() error {
	if len(r.Ring) < 4 || r.Ring[0] != r.Ring[len(r.Ring)-1] {
		return service.Errorf(service.ErrInvalidBounds, "region must be a closed ring of at least 4 points")
	}
	if _, err := NewProjection(r.CRS); err != nil {
		return service.Errorf(service.ErrInvalidBounds, "%w", err)
	}
	if NormalizeCRS(r.CRS) == CRSGeographic {
		for _, p := range r.Ring {
			if p[0] < -180 || p[0] > 180 || p[1] < -90 || p[1] > 90 {
				return service.Errorf(service.ErrInvalidBounds, "point %v out of the lon/lat range", p)
			}
		}
	}
	g, err := geos.FromWKT(r.WKT())
	if err != nil {
		return service.Errorf(service.ErrInvalidBounds, "FromWKT: %w", err)
	}
	defer runtime.KeepAlive(g)
	valid, err := g.IsValid()
	if err != nil {
		return service.Errorf(service.ErrInvalidBounds, "IsValid: %w", err)
	}
	if !valid {
		return service.Errorf(service.ErrInvalidBounds, "self-intersecting region")
	}
	area, err := g.Area()
	if err != nil {
		return service.Errorf(service.ErrInvalidBounds, "Area: %w", err)
	}
	if area <= 0 {
		return service.Errorf(service.ErrInvalidBounds, "empty region")
	}
	return nil
}

// Intersects returns true if the region intersects the geometry (WKT in the CRS of the region)
func (r Region) Intersects(wkt string) (bool, error) {
	g, err := geos.FromWKT(r.WKT())
	if err != nil {
		return false, fmt.Errorf("Intersects.FromWKT: %w", err)
	}
	other, err := geos.FromWKT(wkt)
	if err != nil {
		return false, fmt.Errorf("Intersects.FromWKT: %w", err)
	}
	intersect, err := g.Prepare().Intersects(other)
	if err != nil {
		return false, fmt.Errorf("Intersects: %w", err)
	}
	runtime.KeepAlive(g)
	return intersect, nil
}
