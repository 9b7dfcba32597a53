package entities

import (
	"fmt"
	"time"

	"github.com/airbusgeo/geocube-sampler/common"
	"github.com/airbusgeo/geocube-sampler/service/geometry"
	"github.com/google/uuid"
)

// Scene is an image of the catalog
type Scene struct {
	ID          string            `json:"id"` // Full id, with the collection (e.g. LANDSAT/LC08/C02/T1_TOA/LC08_017040_20220115)
	Date        time.Time         `json:"date"`
	CloudCover  float64           `json:"cloud_cover"`
	GeometryWKT string            `json:"wkt"` // Footprint, in geographic coordinates
	Properties  map[string]string `json:"properties,omitempty"`
}

// FilterSpec holds the validated parameters of the catalog queries and of the rasters
type FilterSpec struct {
	Sensor        common.Sensor `json:"sensor"`
	Start         time.Time     `json:"start"`
	End           time.Time     `json:"end"` // Inclusive (last day of the range)
	CloudCoverMin float64       `json:"cloud_cover_min"`
	CloudCoverMax float64       `json:"cloud_cover_max"`
	Bands         []string      `json:"bands"`
	Scale         float64       `json:"scale"` // Spatial resolution in meters
	CRS           string        `json:"crs,omitempty"`
	MaxImages     int           `json:"max_images"`
	Format        common.Format `json:"format"`
}

// EndExclusive returns the day following End
func (f FilterSpec) EndExclusive() time.Time {
	return f.End.AddDate(0, 0, 1)
}

// MosaicRequest is a sample region generated around a random center
type MosaicRequest struct {
	Index  int             `json:"index"` // Draw index
	Lon    float64         `json:"lon"`
	Lat    float64         `json:"lat"`
	Region geometry.Region `json:"region"` // Working CRS
}

// Mode of the plan
type Mode string

const (
	ModeDirect Mode = "direct"
	ModeMosaic Mode = "mosaic"
)

// Destination of an export job
type Destination struct {
	URI   string `json:"uri"`   // Local directory, gs:// or s3:// uri (direct mode)
	Cloud bool   `json:"cloud"` // URI is a folder of the service export storage (mosaic mode)
}

// ExportJob is a fully resolved request for one image
type ExportJob struct {
	Index         int             `json:"index"`
	RequestID     string          `json:"request_id"`
	Name          string          `json:"name"` // Output name, without extension
	Region        geometry.Region `json:"region"`
	Filter        FilterSpec      `json:"filter"`
	Destination   Destination     `json:"destination"`
	Scene         *Scene          `json:"scene,omitempty"`          // Direct mode
	Mosaic        *MosaicRequest  `json:"mosaic,omitempty"`         // Mosaic mode
	CompositeSeed int64           `json:"composite_seed,omitempty"` // Mosaic mode: seed of the random ordering of the scenes
}

// Mode returns the mode of the job
func (j ExportJob) Mode() Mode {
	if j.Mosaic != nil {
		return ModeMosaic
	}
	return ModeDirect
}

// FileName returns the name of the output file
func (j ExportJob) FileName() string {
	return j.Name + j.Filter.Format.Extension()
}

var requestNamespace = uuid.MustParse("6c1e2f3a-6f0d-4b3e-9a4f-5d8c2b7e1a90")

// RequestID returns a deterministic id of the index-th request of a run
// key is the image id (direct mode) or the seed (mosaic mode)
func RequestID(mode Mode, region, key string, index int) string {
	return uuid.NewSHA1(requestNamespace, []byte(fmt.Sprintf("%s/%s/%s/%d", mode, region, key, index))).String()
}

// SkippedSample is a mosaic sample without any image
type SkippedSample struct {
	Mosaic MosaicRequest `json:"mosaic"`
	Reason string        `json:"reason"`
}
