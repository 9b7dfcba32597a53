package catalog

import (
	"encoding/json"

	"github.com/airbusgeo/geocube-sampler/catalog/entities"
	"github.com/airbusgeo/geocube-sampler/service"
	"github.com/airbusgeo/geocube-sampler/service/geometry"
)

// PlanRequest is the raw request of one invocation
type PlanRequest struct {
	Filter
	Bounds           []float64       `json:"bounds,omitempty"`   // left, bottom, right, top (lon/lat)
	GridKey          string          `json:"grid_key,omitempty"` // Precedence over bounds
	AOI              json.RawMessage `json:"aoi,omitempty"`      // GeoJSON, precedence over grid key and bounds
	Region           string          `json:"region,omitempty"`   // Name of the region in the output names
	CustomMosaics    bool            `json:"custom_mosaics"`
	HorizontalBuffer float64         `json:"horizontal_buffer"`
	VerticalBuffer   float64         `json:"vertical_buffer"`
	Seed             *int64          `json:"seed,omitempty"`
}

// NewPlanRequest returns a request initialized with the defaults
func (d Defaults) NewPlanRequest() PlanRequest {
	return PlanRequest{
		Filter:           d.Filter(),
		HorizontalBuffer: d.HorizontalBuffer,
		VerticalBuffer:   d.VerticalBuffer,
	}
}

// Resolve validates the request and returns the area, the filter and the mosaic configuration (nil in direct mode)
func (r PlanRequest) Resolve() (Area, entities.FilterSpec, *MosaicConfig, error) {
	filter, err := r.Filter.Spec()
	if err != nil {
		return Area{}, filter, nil, err
	}

	var area Area
	switch {
	case len(r.AOI) > 0:
		area, err = AreaFromGeoJSON(r.AOI, r.Region, filter.CRS)
	case r.GridKey != "" || len(r.Bounds) == 0:
		area, err = ResolveArea(nil, r.GridKey, r.Region, filter.CRS)
	default:
		var b geometry.Bounds
		if b, err = geometry.BoundsFromSlice(r.Bounds); err == nil {
			area, err = ResolveArea(&b, "", r.Region, filter.CRS)
		}
	}
	if err != nil {
		return Area{}, filter, nil, err
	}

	if !r.CustomMosaics {
		return area, filter, nil, nil
	}
	if !(r.HorizontalBuffer > 0) || !(r.VerticalBuffer > 0) {
		return Area{}, filter, nil, service.Errorf(service.ErrInvalidSampleParameters, "buffers must be positive (got %v, %v)", r.HorizontalBuffer, r.VerticalBuffer)
	}
	return area, filter, &MosaicConfig{HorizontalBuffer: r.HorizontalBuffer, VerticalBuffer: r.VerticalBuffer, Seed: r.Seed}, nil
}
