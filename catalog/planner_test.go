package catalog_test

import (
	"fmt"
	"time"

	"github.com/airbusgeo/geocube-sampler/catalog"
	"github.com/airbusgeo/geocube-sampler/catalog/entities"
	"github.com/airbusgeo/geocube-sampler/interface/imagery"
	"github.com/airbusgeo/geocube-sampler/service"
	"github.com/airbusgeo/geocube-sampler/service/geometry"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"google.golang.org/api/googleapi"
)

func scene(id string, date time.Time, wkt string) entities.Scene {
	return entities.Scene{ID: "LANDSAT/LC08/C02/T1_TOA/" + id, Date: date, CloudCover: 10, GeometryWKT: wkt}
}

var _ = Describe("Planner", func() {
	var (
		svc     *MokeService
		planner *catalog.Planner
		area    catalog.Area
		filter  entities.FilterSpec
		err     error
	)

	BeforeEach(func() {
		svc = &MokeService{}
		planner = &catalog.Planner{Service: svc, OutPath: "landsat_images"}
		area, err = catalog.ResolveArea(nil, "17R", "", "")
		Expect(err).NotTo(HaveOccurred())
		f := catalog.DefaultConfig().Filter()
		f.MaxImages = 3
		filter, err = f.Spec()
		Expect(err).NotTo(HaveOccurred())
	})

	Context("with an invalid filter", func() {
		It("should fail before any call to the service", func() {
			filter.CloudCoverMin, filter.CloudCoverMax = 50, 30
			_, err := planner.Plan(ctx, area, filter, nil)
			Expect(err).To(MatchError(service.ErrInvalidFilterSpec))
			_, err = planner.Plan(ctx, area, filter, &catalog.MosaicConfig{HorizontalBuffer: 1000, VerticalBuffer: 1000})
			Expect(err).To(MatchError(service.ErrInvalidFilterSpec))
			Expect(svc.Queries()).To(BeEmpty())
		})
	})

	Context("with invalid buffers", func() {
		It("should fail before any call to the service", func() {
			_, err := planner.Plan(ctx, area, filter, &catalog.MosaicConfig{HorizontalBuffer: 0, VerticalBuffer: 1000})
			Expect(err).To(MatchError(service.ErrInvalidSampleParameters))
			Expect(svc.Queries()).To(BeEmpty())
		})
	})

	Context("in direct mode", func() {
		BeforeEach(func() {
			svc.Scenes = func(i int, q imagery.Query) ([]entities.Scene, error) {
				return []entities.Scene{
					scene("LC08_016040_20230110", time.Date(2023, 1, 10, 16, 0, 0, 0, time.UTC), "POLYGON((-81 26,-80 26,-80 27,-81 27,-81 26))"),
					scene("LC08_017040_20220115", time.Date(2022, 1, 15, 16, 0, 0, 0, time.UTC), "POLYGON((-82 26,-81 26,-81 27,-82 27,-82 26))"),
					scene("LC08_001001_20220101", time.Date(2022, 1, 1, 16, 0, 0, 0, time.UTC), "POLYGON((10 10,11 10,11 11,10 11,10 10))"),
					scene("LC08_017041_20220115", time.Date(2022, 1, 15, 16, 0, 0, 0, time.UTC), "POLYGON((-82 24,-81 24,-81 25,-82 25,-82 24))"),
					scene("LC08_017039_20220601", time.Date(2022, 6, 1, 16, 0, 0, 0, time.UTC), ""),
				}, nil
			}
		})

		It("should query the catalog once with the filters", func() {
			_, err := planner.Plan(ctx, area, filter, nil)
			Expect(err).NotTo(HaveOccurred())
			queries := svc.Queries()
			Expect(queries).To(HaveLen(1))
			q := queries[0]
			Expect(q.Collection).To(Equal("LANDSAT/LC08/C02/T1_TOA"))
			Expect(q.CloudProperty).To(Equal("CLOUD_COVER"))
			Expect(q.Start).To(Equal(time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)))
			Expect(q.End).To(Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
			Expect(q.Limit).To(Equal(0))
		})

		It("should return at most maxImages jobs, sorted by date, intersecting the area", func() {
			plan, err := planner.Plan(ctx, area, filter, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(plan.Mode).To(Equal(entities.ModeDirect))
			Expect(plan.Jobs).To(HaveLen(3))
			Expect(plan.Shortfall()).To(Equal(0))
			names := []string{}
			for i, job := range plan.Jobs {
				Expect(job.Index).To(Equal(i))
				Expect(job.Mode()).To(Equal(entities.ModeDirect))
				Expect(job.Destination.URI).To(Equal("landsat_images"))
				Expect(job.Filter.CRS).To(Equal("EPSG:32617"))
				if job.Scene.GeometryWKT != "" {
					Expect(area.Region.Intersects(job.Scene.GeometryWKT)).To(BeTrue())
				}
				if i > 0 {
					Expect(job.Scene.Date.Before(plan.Jobs[i-1].Scene.Date)).To(BeFalse())
				}
				names = append(names, job.FileName())
			}
			// stable sort: same date keeps the catalog order
			Expect(names).To(Equal([]string{
				"l8_17R_20220115_00000.tif",
				"l8_17R_20220115_00001.tif",
				"l8_17R_20220601_00002.tif",
			}))
			Expect(plan.Jobs[0].Scene.ID).To(HaveSuffix("LC08_017040_20220115"))
		})

		It("should fill the plan when the earliest images are outside the region", func() {
			svc.Scenes = func(i int, q imagery.Query) ([]entities.Scene, error) {
				scenes := []entities.Scene{
					scene("LC08_001001_20220101", time.Date(2022, 1, 1, 16, 0, 0, 0, time.UTC), "POLYGON((10 10,11 10,11 11,10 11,10 10))"),
					scene("LC08_001002_20220102", time.Date(2022, 1, 2, 16, 0, 0, 0, time.UTC), "POLYGON((10 10,11 10,11 11,10 11,10 10))"),
				}
				for d := 10; d < 15; d++ {
					scenes = append(scenes, scene(fmt.Sprintf("LC08_017040_202201%02d", d), time.Date(2022, 1, d, 16, 0, 0, 0, time.UTC), "POLYGON((-82 26,-81 26,-81 27,-82 27,-82 26))"))
				}
				if q.Limit > 0 && len(scenes) > q.Limit {
					scenes = scenes[:q.Limit]
				}
				return scenes, nil
			}
			plan, err := planner.Plan(ctx, area, filter, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(plan.Jobs).To(HaveLen(3))
			Expect(plan.Shortfall()).To(Equal(0))
			Expect(plan.Jobs[0].Scene.ID).To(HaveSuffix("LC08_017040_20220110"))
		})

		It("should report the shortfall", func() {
			filter.MaxImages = 10
			plan, err := planner.Plan(ctx, area, filter, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(plan.Jobs).To(HaveLen(4))
			Expect(plan.Shortfall()).To(Equal(6))
		})

		It("should keep the crs override", func() {
			filter.CRS = "EPSG:3857"
			plan, err := planner.Plan(ctx, area, filter, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(plan.Jobs[0].Filter.CRS).To(Equal("EPSG:3857"))
		})

		It("should fail if the catalog query fails", func() {
			svc.Scenes = func(i int, q imagery.Query) ([]entities.Scene, error) {
				return nil, &googleapi.Error{Code: 401}
			}
			_, err := planner.Plan(ctx, area, filter, nil)
			Expect(err).To(MatchError(service.ErrCatalogQueryFailed))
			Expect(err).To(MatchError(service.ErrAuthenticationRequired))
		})
	})

	Context("in mosaic mode", func() {
		var mosaic catalog.MosaicConfig
		seed := int64(42)

		BeforeEach(func() {
			mosaic = catalog.MosaicConfig{HorizontalBuffer: 425088, VerticalBuffer: 318816, Seed: &seed}
			svc.Scenes = func(i int, q imagery.Query) ([]entities.Scene, error) {
				return []entities.Scene{scene(fmt.Sprintf("LC08_0170%d_20220115", i), time.Date(2022, 1, 15, 0, 0, 0, 0, time.UTC), "")}, nil
			}
		})

		It("should return one job per sample", func() {
			plan, err := planner.Plan(ctx, area, filter, &mosaic)
			Expect(err).NotTo(HaveOccurred())
			Expect(plan.Mode).To(Equal(entities.ModeMosaic))
			Expect(plan.Seed).To(Equal(seed))
			Expect(plan.Jobs).To(HaveLen(3))
			Expect(plan.Skipped).To(BeEmpty())
			queries := svc.Queries()
			Expect(queries).To(HaveLen(3))
			for i, job := range plan.Jobs {
				Expect(queries[i].Limit).To(Equal(1))
				Expect(queries[i].Region).To(Equal(job.Region))
				Expect(job.Index).To(Equal(i))
				Expect(job.Mode()).To(Equal(entities.ModeMosaic))
				Expect(job.Destination.Cloud).To(BeTrue())
				Expect(job.Region.CRS).To(Equal("EPSG:32617"))
				Expect(job.Name).To(Equal(fmt.Sprintf("l8_17R_%05d", i)))
				Expect(job.CompositeSeed).To(Equal(catalog.CompositeSeed(seed, i)))
				Expect(job.Mosaic.Lon).To(BeNumerically(">=", -84))
				Expect(job.Mosaic.Lon).To(BeNumerically("<", -78))
				Expect(job.Mosaic.Lat).To(BeNumerically(">=", 24))
				Expect(job.Mosaic.Lat).To(BeNumerically("<", 32))
				ext := job.Region.Extent()
				Expect(ext.XSpan()).To(BeNumerically("~", 2*425088, 1e-3))
				Expect(ext.YSpan()).To(BeNumerically("~", 2*318816, 1e-3))
			}
		})

		It("should be reproducible", func() {
			plan1, err := planner.Plan(ctx, area, filter, &mosaic)
			Expect(err).NotTo(HaveOccurred())
			plan2, err := planner.Plan(ctx, area, filter, &mosaic)
			Expect(err).NotTo(HaveOccurred())
			Expect(plan2.Jobs).To(Equal(plan1.Jobs))

			other := int64(43)
			mosaic.Seed = &other
			plan3, err := planner.Plan(ctx, area, filter, &mosaic)
			Expect(err).NotTo(HaveOccurred())
			Expect(plan3.Jobs[0].Region).NotTo(Equal(plan1.Jobs[0].Region))
		})

		It("should generate and return a seed", func() {
			mosaic.Seed = nil
			plan, err := planner.Plan(ctx, area, filter, &mosaic)
			Expect(err).NotTo(HaveOccurred())
			Expect(plan.Seed).To(BeNumerically(">=", 0))
			Expect(plan.Seed).To(BeNumerically("<", 100000))

			s := plan.Seed
			mosaic.Seed = &s
			plan2, err := planner.Plan(ctx, area, filter, &mosaic)
			Expect(err).NotTo(HaveOccurred())
			Expect(plan2.Jobs).To(Equal(plan.Jobs))
		})

		It("should skip the samples without image", func() {
			svc.Scenes = func(i int, q imagery.Query) ([]entities.Scene, error) {
				switch i {
				case 0:
					return nil, nil
				case 1:
					return nil, &googleapi.Error{Code: 403}
				}
				return []entities.Scene{scene("LC08_017040_20220115", time.Date(2022, 1, 15, 0, 0, 0, 0, time.UTC), "")}, nil
			}
			plan, err := planner.Plan(ctx, area, filter, &mosaic)
			Expect(err).NotTo(HaveOccurred())
			Expect(plan.Jobs).To(HaveLen(1))
			Expect(plan.Jobs[0].Index).To(Equal(2))
			Expect(plan.Jobs[0].Name).To(Equal("l8_17R_00002"))
			Expect(plan.Skipped).To(HaveLen(2))
			Expect(plan.Skipped[0].Mosaic.Index).To(Equal(0))
			Expect(plan.Skipped[0].Reason).To(Equal("no image matching the filters"))
			Expect(plan.Skipped[1].Reason).To(ContainSubstring("authentication required"))
			Expect(plan.Shortfall()).To(Equal(2))
		})

		It("should use the injected source", func() {
			mosaic.Source = &fixedSource{values: []float64{0.5, 0.5}}
			plan, err := planner.Plan(ctx, area, filter, &mosaic)
			Expect(err).NotTo(HaveOccurred())
			Expect(plan.Jobs).To(HaveLen(3))
			for _, job := range plan.Jobs {
				Expect(job.Mosaic.Lon).To(BeNumerically("~", -81, 1e-9))
				Expect(job.Mosaic.Lat).To(BeNumerically("~", 28, 1e-9))
			}
		})

		It("should build the samples in the working crs whatever the crs of the exports", func() {
			for _, crs := range []string{"EPSG:4326", "EPSG:3857"} {
				area, err := catalog.ResolveArea(nil, "17R", "", crs)
				Expect(err).NotTo(HaveOccurred())
				Expect(area.WorkingCRS).To(Equal("EPSG:32617"))
				filter.CRS = crs
				plan, err := planner.Plan(ctx, area, filter, &mosaic)
				Expect(err).NotTo(HaveOccurred())
				Expect(plan.Jobs).To(HaveLen(3))
				for _, job := range plan.Jobs {
					Expect(job.Filter.CRS).To(Equal(crs))
					Expect(job.Region.CRS).To(Equal("EPSG:32617"))
					ext := job.Region.Extent()
					Expect(ext.XSpan()).To(BeNumerically("~", 2*425088, 1e-3))
					Expect(ext.YSpan()).To(BeNumerically("~", 2*318816, 1e-3))
				}
			}
		})

		It("should write the manifest", func() {
			plan, err := planner.Plan(ctx, area, filter, &mosaic)
			Expect(err).NotTo(HaveOccurred())
			fc, err := plan.FeatureCollection()
			Expect(err).NotTo(HaveOccurred())
			Expect(fc.Features).To(HaveLen(3))
			Expect(fc.Features[1].Properties["name"]).To(Equal("l8_17R_00001.tif"))
			Expect(fc.Features[1].Properties["status"]).To(Equal("planned"))
		})
	})

	Context("with a custom region", func() {
		It("should name the outputs after the region", func() {
			b := geometry.Bounds{MinLon: -82, MinLat: 26, MaxLon: -80, MaxLat: 28}
			area, err := catalog.ResolveArea(&b, "", "", "")
			Expect(err).NotTo(HaveOccurred())
			svc.Scenes = func(i int, q imagery.Query) ([]entities.Scene, error) {
				return []entities.Scene{scene("LC08_017040_20220115", time.Date(2022, 1, 15, 0, 0, 0, 0, time.UTC), "")}, nil
			}
			plan, err := planner.Plan(ctx, area, filter, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(plan.Jobs[0].Name).To(Equal("l8_aoi_20220115_00000"))
		})
	})
})

// fixedSource repeats the values
type fixedSource struct {
	values []float64
	i      int
}

func (s *fixedSource) Next() float64 {
	v := s.values[s.i%len(s.values)]
	s.i++
	return v
}
