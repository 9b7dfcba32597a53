package catalog

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sort"
	"time"

	"github.com/airbusgeo/geocube-sampler/catalog/entities"
	"github.com/airbusgeo/geocube-sampler/common"
	"github.com/airbusgeo/geocube-sampler/interface/imagery"
	"github.com/airbusgeo/geocube-sampler/sampler"
	"github.com/airbusgeo/geocube-sampler/service"
	"github.com/airbusgeo/geocube-sampler/service/log"
	"go.uber.org/zap"
)

// MosaicConfig configures the mosaic mode
type MosaicConfig struct {
	HorizontalBuffer float64 `json:"horizontal_buffer"` // Half width of the sample regions (meters)
	VerticalBuffer   float64 `json:"vertical_buffer"`   // Half height of the sample regions (meters)
	Seed             *int64  `json:"seed,omitempty"`    // If nil, a seed is generated and returned in the Plan
	// Source of the draws. If nil, a Generator is created from Seed.
	Source sampler.Source `json:"-"`
}

// Plan is the ordered list of jobs of one invocation
type Plan struct {
	Mode      entities.Mode            `json:"mode"`
	Seed      int64                    `json:"seed"` // Mosaic mode
	Area      Area                     `json:"area"`
	Filter    entities.FilterSpec      `json:"filter"`
	Requested int                      `json:"requested"`
	Jobs      []entities.ExportJob     `json:"jobs"`
	Skipped   []entities.SkippedSample `json:"skipped,omitempty"`
}

// Shortfall returns the number of requested images that will not be produced
func (p *Plan) Shortfall() int {
	return p.Requested - len(p.Jobs)
}

// Planner composes the area, the filter and the sampler into export jobs
type Planner struct {
	Service imagery.Service
	OutPath string // Local directory (direct mode), or folder of the export storage (mosaic mode)
}

// Plan returns the jobs, at most filter.MaxImages.
// If mosaic is nil, one job is created for each image of the catalog intersecting the area (direct mode),
// otherwise one job is created for each sample region with at least one image (mosaic mode).
// Input validation errors are returned before any call to the service.
func (p *Planner) Plan(ctx context.Context, area Area, filter entities.FilterSpec, mosaic *MosaicConfig) (*Plan, error) {
	if err := ValidateFilterSpec(filter); err != nil {
		return nil, err
	}
	if err := area.Region.Validate(); err != nil {
		return nil, err
	}
	if mosaic != nil && (!(mosaic.HorizontalBuffer > 0) || !(mosaic.VerticalBuffer > 0)) {
		return nil, service.Errorf(service.ErrInvalidSampleParameters, "buffers must be positive (got %v, %v)", mosaic.HorizontalBuffer, mosaic.VerticalBuffer)
	}
	if p.Service == nil {
		return nil, fmt.Errorf("Plan: imagery service is not defined")
	}
	if filter.CRS == "" {
		filter.CRS = area.WorkingCRS
	}

	plan := &Plan{
		Mode:      entities.ModeDirect,
		Area:      area,
		Filter:    filter,
		Requested: filter.MaxImages,
	}
	ctx = log.With(ctx, "area", area.Name)
	var err error
	if mosaic == nil {
		err = p.planDirect(ctx, plan)
	} else {
		plan.Mode = entities.ModeMosaic
		err = p.planMosaic(ctx, plan, *mosaic)
	}
	if err != nil {
		return nil, fmt.Errorf("Plan.%w", err)
	}
	if len(plan.Jobs) > filter.MaxImages {
		plan.Jobs = plan.Jobs[:filter.MaxImages]
	}
	plannedJobs.WithLabelValues(string(plan.Mode)).Add(float64(len(plan.Jobs)))
	skippedSamples.Add(float64(len(plan.Skipped)))
	log.Logger(ctx).Sugar().Infof("%d %s jobs planned (%d requested)", len(plan.Jobs), plan.Mode, plan.Requested)
	return plan, nil
}

func (p *Planner) planDirect(ctx context.Context, plan *Plan) error {
	filter := plan.Filter
	log.Logger(ctx).Sugar().Debugf("Search images %s", Describe(filter))
	// No limit: the images outside the region are removed afterwards
	scenes, err := p.Service.QueryCatalog(ctx, imagery.NewQuery(filter, plan.Area.Region, 0))
	if err != nil {
		return service.Errorf(service.ErrCatalogQueryFailed, "planDirect.QueryCatalog: %w", service.AuthError(err))
	}

	// The catalog filters by bounds: remove the images outside the region
	kept := make([]entities.Scene, 0, len(scenes))
	for _, s := range scenes {
		if s.GeometryWKT != "" {
			intersect, err := plan.Area.Region.Intersects(s.GeometryWKT)
			if err != nil {
				log.Logger(ctx).Sugar().Warnf("planDirect: %s: %v", s.ID, err)
				continue
			}
			if !intersect {
				log.Logger(ctx).Sugar().Debugf("planDirect: %s does not intersect the area", s.ID)
				continue
			}
		}
		kept = append(kept, s)
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Date.Before(kept[j].Date) })
	if len(kept) > filter.MaxImages {
		kept = kept[:filter.MaxImages]
	}

	for i := range kept {
		scene := kept[i]
		plan.Jobs = append(plan.Jobs, entities.ExportJob{
			Index:       i,
			RequestID:   entities.RequestID(entities.ModeDirect, plan.Area.Name, scene.ID, i),
			Name:        common.OutputName(common.SceneNameTemplate, filter.Sensor, plan.Area.Name, i, scene.Date),
			Region:      plan.Area.Region,
			Filter:      filter,
			Destination: entities.Destination{URI: p.OutPath},
			Scene:       &scene,
		})
	}
	if len(kept) < filter.MaxImages {
		log.Logger(ctx).Sugar().Infof("only %d images found (%d requested)", len(kept), filter.MaxImages)
	}
	return nil
}

func (p *Planner) planMosaic(ctx context.Context, plan *Plan, cfg MosaicConfig) error {
	filter := plan.Filter
	src := cfg.Source
	if src == nil {
		gen := sampler.NewGenerator(cfg.Seed)
		plan.Seed = gen.Seed()
		src = gen
	} else if cfg.Seed != nil {
		plan.Seed = *cfg.Seed
	}
	log.Logger(ctx).Info("mosaic sampling", zap.Int64("seed", plan.Seed), zap.String("crs", filter.CRS))

	seq, err := sampler.Sample(plan.Area.Region, cfg.HorizontalBuffer, cfg.VerticalBuffer, filter.MaxImages, src, plan.Area.WorkingCRS)
	if err != nil {
		return fmt.Errorf("planMosaic.%w", err)
	}

	for m, ok := seq.Next(); ok; m, ok = seq.Next() {
		mosaic := m
		scenes, err := p.Service.QueryCatalog(ctx, imagery.NewQuery(filter, mosaic.Region, 1))
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			err = service.Errorf(service.ErrCatalogQueryFailed, "%w", service.AuthError(err))
			log.Logger(ctx).Sugar().Warnf("sample %d skipped: %v", mosaic.Index, err)
			plan.Skipped = append(plan.Skipped, entities.SkippedSample{Mosaic: mosaic, Reason: err.Error()})
			if errors.Is(err, service.ErrAuthenticationRequired) {
				log.Logger(ctx).Warn("the credentials are probably missing or expired")
			}
			continue
		}
		if len(scenes) == 0 {
			log.Logger(ctx).Sugar().Infof("sample %d skipped: no image matching the filters", mosaic.Index)
			plan.Skipped = append(plan.Skipped, entities.SkippedSample{Mosaic: mosaic, Reason: "no image matching the filters"})
			continue
		}
		plan.Jobs = append(plan.Jobs, entities.ExportJob{
			Index:         mosaic.Index,
			RequestID:     entities.RequestID(entities.ModeMosaic, plan.Area.Name, fmt.Sprint(plan.Seed), mosaic.Index),
			Name:          common.OutputName(common.MosaicNameTemplate, filter.Sensor, plan.Area.Name, mosaic.Index, time.Time{}),
			Region:        mosaic.Region,
			Filter:        filter,
			Destination:   entities.Destination{URI: p.OutPath, Cloud: true},
			Mosaic:        &mosaic,
			CompositeSeed: CompositeSeed(plan.Seed, mosaic.Index),
		})
	}
	if err := seq.Err(); err != nil {
		return fmt.Errorf("planMosaic.%w", err)
	}
	if len(plan.Skipped) > 0 {
		log.Logger(ctx).Sugar().Warnf("%d samples skipped out of %d", len(plan.Skipped), filter.MaxImages)
	}
	return nil
}

// CompositeSeed returns the seed of the random ordering of the images of the index-th mosaic
func CompositeSeed(seed int64, index int) int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d/%d", seed, index)
	return int64(h.Sum64() % sampler.MaxAutoSeed)
}
