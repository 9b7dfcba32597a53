package catalog

import (
	"fmt"
	"math"
	"strings"

	"github.com/airbusgeo/geocube-sampler/catalog/entities"
	"github.com/airbusgeo/geocube-sampler/common"
	"github.com/airbusgeo/geocube-sampler/service"
	"github.com/airbusgeo/geocube-sampler/service/geometry"
)

// Defaults are the parameters used when they are not given by the user
type Defaults struct {
	Bounds           geometry.Bounds
	StartDate        string
	EndDate          string
	Scale            float64
	MaxImages        int
	Sensor           string
	OutPath          string
	Format           string
	CloudCoverMin    float64
	CloudCoverMax    float64
	Bands            []string
	VerticalBuffer   float64
	HorizontalBuffer float64
}

// DefaultConfig returns the default parameters
func DefaultConfig() Defaults {
	return Defaults{
		Bounds:           geometry.Bounds{MinLon: -84, MinLat: 24, MaxLon: -78, MaxLat: 32},
		StartDate:        "2022",
		EndDate:          "2023",
		Scale:            328,
		MaxImages:        10,
		Sensor:           common.SensorL8.String(),
		OutPath:          "landsat_images",
		Format:           common.FormatGeoTIFF.String(),
		CloudCoverMin:    0,
		CloudCoverMax:    30,
		Bands:            append([]string{}, common.DefaultBands...),
		VerticalBuffer:   318816,
		HorizontalBuffer: 425088,
	}
}

// Filter returns the default filter
func (d Defaults) Filter() Filter {
	return Filter{
		Sensor:        d.Sensor,
		StartDate:     d.StartDate,
		EndDate:       d.EndDate,
		CloudCoverMin: d.CloudCoverMin,
		CloudCoverMax: d.CloudCoverMax,
		Bands:         append([]string{}, d.Bands...),
		Scale:         d.Scale,
		MaxImages:     d.MaxImages,
		Format:        d.Format,
	}
}

// Filter holds the raw filter parameters, as given by the user
type Filter struct {
	Sensor        string   `json:"sensor"`
	StartDate     string   `json:"idate"`
	EndDate       string   `json:"fdate"`
	CloudCoverMin float64  `json:"cloud_cover_min"`
	CloudCoverMax float64  `json:"cloud_cover_max"`
	Bands         []string `json:"bands"`
	Scale         float64  `json:"scale"`
	CRS           string   `json:"crs"`
	MaxImages     int      `json:"maxims"`
	Format        string   `json:"format"`
}

// Spec validates and normalizes the filter
func (f Filter) Spec() (entities.FilterSpec, error) {
	sensor, err := common.SensorString(strings.TrimSpace(f.Sensor))
	if err != nil {
		return entities.FilterSpec{}, service.Errorf(service.ErrInvalidFilterSpec, "unknown sensor %q (expecting one of %v)", f.Sensor, common.SensorStrings())
	}
	format, err := common.ParseFormat(f.Format)
	if err != nil {
		return entities.FilterSpec{}, service.Errorf(service.ErrInvalidFilterSpec, "unknown format %q (expecting one of %v)", f.Format, common.FormatStrings())
	}
	dates, err := ParseDateRange(f.StartDate, f.EndDate)
	if err != nil {
		return entities.FilterSpec{}, err
	}
	bands := make([]string, 0, len(f.Bands))
	for _, b := range f.Bands {
		for _, b := range strings.Split(b, ",") {
			if b = strings.ToUpper(strings.TrimSpace(b)); b != "" {
				bands = append(bands, b)
			}
		}
	}
	spec := entities.FilterSpec{
		Sensor:        sensor,
		Start:         dates.Start,
		End:           dates.End,
		CloudCoverMin: f.CloudCoverMin,
		CloudCoverMax: f.CloudCoverMax,
		Bands:         bands,
		Scale:         f.Scale,
		MaxImages:     f.MaxImages,
		Format:        format,
	}
	if f.CRS != "" {
		spec.CRS = geometry.NormalizeCRS(f.CRS)
	}
	return spec, ValidateFilterSpec(spec)
}

// ValidateFilterSpec checks the invariants of the FilterSpec
func ValidateFilterSpec(f entities.FilterSpec) error {
	if !f.Sensor.IsASensor() {
		return service.Errorf(service.ErrInvalidFilterSpec, "unknown sensor %v", f.Sensor)
	}
	if !f.Format.IsAFormat() {
		return service.Errorf(service.ErrInvalidFilterSpec, "unknown format %v", f.Format)
	}
	if f.Start.IsZero() || f.End.IsZero() || f.End.Before(f.Start) {
		return service.Errorf(service.ErrInvalidFilterSpec, "invalid date range %s/%s", f.Start.Format("2006-01-02"), f.End.Format("2006-01-02"))
	}
	for _, cc := range []float64{f.CloudCoverMin, f.CloudCoverMax} {
		if math.IsNaN(cc) || cc < 0 || cc > 100 {
			return service.Errorf(service.ErrInvalidFilterSpec, "cloud cover must be between 0 and 100 (got %v)", cc)
		}
	}
	if f.CloudCoverMin > f.CloudCoverMax {
		return service.Errorf(service.ErrInvalidFilterSpec, "cloud-cover-min (%v) must be lower than cloud-cover-max (%v)", f.CloudCoverMin, f.CloudCoverMax)
	}
	if len(f.Bands) == 0 {
		return service.Errorf(service.ErrInvalidFilterSpec, "at least one band is required")
	}
	valid := service.NewStringSet(f.Sensor.Bands()...)
	for _, b := range f.Bands {
		if !valid.Exists(b) {
			return service.Errorf(service.ErrInvalidFilterSpec, "unknown band %s for sensor %s (expecting one of %v)", b, f.Sensor, f.Sensor.Bands())
		}
	}
	if !(f.Scale > 0) || math.IsInf(f.Scale, 0) {
		return service.Errorf(service.ErrInvalidFilterSpec, "scale must be positive (got %v)", f.Scale)
	}
	if f.MaxImages <= 0 {
		return service.Errorf(service.ErrInvalidFilterSpec, "max images must be positive (got %d)", f.MaxImages)
	}
	if f.CRS != "" {
		if _, err := geometry.NewProjection(f.CRS); err != nil {
			return service.Errorf(service.ErrInvalidFilterSpec, "%w", err)
		}
	}
	return nil
}

// Describe returns a one-line description of the filter
func Describe(f entities.FilterSpec) string {
	return fmt.Sprintf("%s %s/%s cloud cover [%g, %g[ bands %s scale %gm",
		f.Sensor, f.Start.Format("2006-01-02"), f.End.Format("2006-01-02"),
		f.CloudCoverMin, f.CloudCoverMax, strings.Join(f.Bands, ","), f.Scale)
}
