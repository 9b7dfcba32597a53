// Package sampler draws random sample regions (mosaics) inside a parent region
package sampler

import (
	"fmt"
	"math"

	"github.com/airbusgeo/geocube-sampler/catalog/entities"
	"github.com/airbusgeo/geocube-sampler/service"
	"github.com/airbusgeo/geocube-sampler/service/geometry"
)

// Sequence is a lazy, finite and non-restartable sequence of MosaicRequest
type Sequence struct {
	bounds geometry.Bounds
	hb, vb float64
	count  int
	src    Source
	proj   geometry.Projection
	next   int
	err    error
}

// Sample returns a sequence of count sample regions.
// Each center is drawn uniformly in the geographic bounding box of the parent (two draws from src: longitude then latitude).
// The sample region is the rectangle of 2*hb x 2*vb meters around the center, in the working crs.
// If crs is empty, the UTM zone of the center of the parent is used.
// The sample regions are not clipped to the parent: only the centers are inside its bounding box.
func Sample(parent geometry.Region, hb, vb float64, count int, src Source, crs string) (*Sequence, error) {
	if count <= 0 {
		return nil, service.Errorf(service.ErrInvalidSampleParameters, "count must be positive (got %d)", count)
	}
	if !(hb > 0) || !(vb > 0) || math.IsInf(hb, 0) || math.IsInf(vb, 0) {
		return nil, service.Errorf(service.ErrInvalidSampleParameters, "buffers must be positive (got %v, %v)", hb, vb)
	}
	if src == nil {
		return nil, service.Errorf(service.ErrInvalidSampleParameters, "missing source")
	}
	bounds, err := parent.Bounds()
	if err != nil {
		return nil, service.Errorf(service.ErrInvalidBounds, "%w", err)
	}
	if err := bounds.Validate(); err != nil {
		return nil, err
	}
	if crs == "" {
		lon, lat := bounds.Center()
		crs = geometry.UTMCode(geometry.UTMZoneOf(lon), lat < 0)
	}
	proj, err := geometry.NewProjection(crs)
	if err != nil {
		return nil, service.Errorf(service.ErrInvalidSampleParameters, "%w", err)
	}
	if proj.Code() == geometry.CRSGeographic {
		return nil, service.Errorf(service.ErrInvalidSampleParameters, "working crs must be metric (got %s)", crs)
	}
	return &Sequence{
		bounds: bounds,
		hb:     hb,
		vb:     vb,
		count:  count,
		src:    src,
		proj:   proj,
	}, nil
}

// Next returns the next sample region, or false when the sequence is exhausted
func (s *Sequence) Next() (entities.MosaicRequest, bool) {
	if s.next >= s.count || s.err != nil {
		return entities.MosaicRequest{}, false
	}
	u, v := s.src.Next(), s.src.Next()
	lon := s.bounds.MinLon + u*(s.bounds.MaxLon-s.bounds.MinLon)
	lat := s.bounds.MinLat + v*(s.bounds.MaxLat-s.bounds.MinLat)

	x, y, err := s.proj.Forward(lon, lat)
	if err != nil {
		s.err = service.Errorf(service.ErrInvalidSampleParameters, "sample %d: %w", s.next, err)
		return entities.MosaicRequest{}, false
	}
	m := entities.MosaicRequest{
		Index:  s.next,
		Lon:    lon,
		Lat:    lat,
		Region: geometry.NewRectangle(s.proj.Code(), x-s.hb, y-s.vb, x+s.hb, y+s.vb),
	}
	s.next++
	return m, true
}

// Err returns the error that stopped the sequence, if any
func (s *Sequence) Err() error {
	return s.err
}

// Len returns the total number of items of the sequence
func (s *Sequence) Len() int {
	return s.count
}

// Remaining returns the number of items not yet returned
func (s *Sequence) Remaining() int {
	return s.count - s.next
}

// Collect returns the remaining items of the sequence
func (s *Sequence) Collect() []entities.MosaicRequest {
	res := make([]entities.MosaicRequest, 0, s.Remaining())
	for m, ok := s.Next(); ok; m, ok = s.Next() {
		res = append(res, m)
	}
	return res
}

func (s *Sequence) String() string {
	return fmt.Sprintf("%d samples of %gx%gm in %s (%s)", s.count, 2*s.hb, 2*s.vb, s.bounds, s.proj.Code())
}
