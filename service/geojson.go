package service

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-spatial/geom"
	"github.com/go-spatial/geom/encoding/geojson"
)

// UnmarshalGeometry decodes a GeoJSON geometry, feature or feature collection.
// The features of a collection are merged into a MultiPolygon when they are all polygonal, into a Collection otherwise.
func UnmarshalGeometry(data []byte) (geom.Geometry, error) {
	var g geojson.Geometry
	if err := g.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("UnmarshalGeometry: %w", err)
	}
	var res geom.Geometry
	switch geo := g.Geometry.(type) {
	case geojson.FeatureCollection:
		var geometries []geom.Geometry
		for _, f := range geo.Features {
			if f.Geometry.Geometry != nil {
				geometries = append(geometries, f.Geometry.Geometry)
			}
		}
		res = mergeGeometries(geometries)
	case geojson.Feature:
		res = geo.Geometry.Geometry
	default:
		res = geo
	}
	if res == nil {
		return nil, fmt.Errorf("UnmarshalGeometry: no geometry found")
	}
	return res, nil
}

func mergeGeometries(geometries []geom.Geometry) geom.Geometry {
	if len(geometries) == 0 {
		return nil
	}
	var mp geom.MultiPolygon
	for _, g := range geometries {
		switch g := g.(type) {
		case geom.Polygon:
			mp = append(mp, g.LinearRings())
		case geom.MultiPolygon:
			mp = append(mp, g.Polygons()...)
		default:
			return geom.Collection(geometries)
		}
	}
	return mp
}

// ToJSON writes v in workingdir/filename. The directory is created if needed.
// Nothing is written if workingdir is empty.
func ToJSON(v interface{}, workingdir, filename string) error {
	if workingdir == "" {
		return nil
	}
	vb, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("toJSON.Marshal: %w", err)
	}
	if err := os.MkdirAll(workingdir, 0755); err != nil {
		return fmt.Errorf("toJSON.MkdirAll: %w", err)
	}
	if err := os.WriteFile(filepath.Join(workingdir, filename), vb, 0644); err != nil {
		return fmt.Errorf("toJSON.WriteFile: %w", err)
	}
	return nil
}
