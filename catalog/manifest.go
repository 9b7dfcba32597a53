package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/airbusgeo/geocube-sampler/service"
	"github.com/go-spatial/geom/encoding/geojson"
)

// FeatureCollection returns the regions of the jobs and of the skipped samples as GeoJSON features (geographic coordinates)
func (p *Plan) FeatureCollection() (geojson.FeatureCollection, error) {
	fc := geojson.FeatureCollection{Features: make([]geojson.Feature, 0, len(p.Jobs)+len(p.Skipped))}
	for _, job := range p.Jobs {
		g, err := job.Region.GeoJSON()
		if err != nil {
			return fc, fmt.Errorf("FeatureCollection.%w", err)
		}
		props := map[string]interface{}{
			"index":      job.Index,
			"name":       job.FileName(),
			"request_id": job.RequestID,
			"crs":        job.Filter.CRS,
			"status":     "planned",
		}
		if job.Scene != nil {
			props["scene"] = job.Scene.ID
			props["date"] = job.Scene.Date.Format("2006-01-02")
			props["cloud_cover"] = job.Scene.CloudCover
		}
		if job.Mosaic != nil {
			props["center"] = []float64{job.Mosaic.Lon, job.Mosaic.Lat}
			props["composite_seed"] = job.CompositeSeed
		}
		fc.Features = append(fc.Features, geojson.Feature{Geometry: g, Properties: props})
	}
	for _, s := range p.Skipped {
		g, err := s.Mosaic.Region.GeoJSON()
		if err != nil {
			return fc, fmt.Errorf("FeatureCollection.%w", err)
		}
		fc.Features = append(fc.Features, geojson.Feature{Geometry: g, Properties: map[string]interface{}{
			"index":  s.Mosaic.Index,
			"center": []float64{s.Mosaic.Lon, s.Mosaic.Lat},
			"status": "skipped",
			"reason": s.Reason,
		}})
	}
	return fc, nil
}

// WriteManifest writes the GeoJSON manifest of the plan in workingdir/filename
func (p *Plan) WriteManifest(workingdir, filename string) error {
	fc, err := p.FeatureCollection()
	if err != nil {
		return fmt.Errorf("WriteManifest.%w", err)
	}
	if err := service.ToJSON(fc, workingdir, filename); err != nil {
		return fmt.Errorf("WriteManifest.%w", err)
	}
	return nil
}

// MarshalManifest returns the GeoJSON manifest of the plan
func (p *Plan) MarshalManifest() ([]byte, error) {
	fc, err := p.FeatureCollection()
	if err != nil {
		return nil, fmt.Errorf("MarshalManifest.%w", err)
	}
	return json.Marshal(fc)
}
