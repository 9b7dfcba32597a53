package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/airbusgeo/geocube-sampler/catalog"
	"github.com/airbusgeo/geocube-sampler/catalog/entities"
	"github.com/airbusgeo/geocube-sampler/common"
	"github.com/airbusgeo/geocube-sampler/dispatcher"
	"github.com/airbusgeo/geocube-sampler/interface/imagery/earthengine"
	"github.com/airbusgeo/geocube-sampler/service"
	"github.com/airbusgeo/geocube-sampler/service/log"
	"github.com/airbusgeo/geocube/interface/messaging"
	"github.com/airbusgeo/geocube/interface/messaging/pgqueue"
	"github.com/airbusgeo/geocube/interface/messaging/pubsub"
	"github.com/ilyakaznacheev/cleanenv"
	"go.uber.org/zap"
)

// envConfig is read from the environment
type envConfig struct {
	Project         string        `env:"EEDL_PROJECT" env-required:"true" env-description:"cloud project registered for Earth Engine"`
	Endpoint        string        `env:"EEDL_ENDPOINT" env-default:"https://earthengine.googleapis.com" env-description:"url of the Earth Engine API"`
	HTTPRetries     int           `env:"EEDL_HTTP_RETRIES" env-default:"3" env-description:"number of retries of the requests to the API in case of temporary failure"`
	DownloadTimeout time.Duration `env:"EEDL_DOWNLOAD_TIMEOUT" env-default:"10m" env-description:"timeout of a raster download"`

	PsProject       string `env:"EEDL_PS_PROJECT" env-description:"pubsub project of the event topic"`
	EventQueue      string `env:"EEDL_EVENT_QUEUE" env-description:"name of the queue for job events (pgqueue or pubsub topic)"`
	PgqDbConnection string `env:"EEDL_PGQ_CONNECTION" env-description:"enable pgq messaging system with a connection to the database"`

	Development bool `env:"EEDL_DEVELOPMENT" env-description:"development logger (debug level, console encoding)"`

	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" env-description:"s3 output (optional, default credential chain otherwise)"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	AWSRegion          string `env:"AWS_REGION"`
}

type config struct {
	Env envConfig

	Request  catalog.PlanRequest
	OutPath  string
	AOIFile  string
	Manifest string

	WorkingDir   string
	Workers      int
	SkipExisting bool
	Wait         bool
	PollInterval time.Duration
	DryRun       bool
}

func newAppConfig() (*config, error) {
	defaults := catalog.DefaultConfig()
	config := config{Request: defaults.NewPlanRequest()}
	r := &config.Request

	// Area
	bounds := flag.String("bounds", "", "area of interest: left,bottom,right,top in degrees (default: Florida)")
	flag.StringVar(&r.GridKey, "grid-key", "", "grid-zone designator (e.g. 17R). Precedence over bounds")
	flag.StringVar(&config.AOIFile, "aoi", "", "GeoJSON file of the area of interest. Precedence over grid-key and bounds")
	flag.StringVar(&r.Region, "region", "", "name of the region in the output names (default: the grid key, or aoi)")

	// Filter
	flag.StringVar(&r.StartDate, "idate", defaults.StartDate, "start date: YYYY, YYYY-MM or YYYY-MM-DD (inclusive)")
	flag.StringVar(&r.EndDate, "fdate", defaults.EndDate, "end date: YYYY, YYYY-MM or YYYY-MM-DD (inclusive, up to the end of the period)")
	flag.StringVar(&r.Sensor, "sensor", defaults.Sensor, "satellite family: l8, l9 or s2")
	flag.Float64Var(&r.CloudCoverMin, "cloud-cover-min", defaults.CloudCoverMin, "minimum cloud cover percentage (inclusive)")
	flag.Float64Var(&r.CloudCoverMax, "cloud-cover-max", defaults.CloudCoverMax, "maximum cloud cover percentage (exclusive)")
	bands := flag.String("bands", "", "comma-separated bands (default: B4,B3,B2)")
	flag.Float64Var(&r.Scale, "scale", defaults.Scale, "spatial resolution in meters")
	flag.StringVar(&r.CRS, "crs", "", "crs of the outputs (default: UTM zone of the area)")
	flag.IntVar(&r.MaxImages, "maxims", defaults.MaxImages, "maximum number of images")
	flag.StringVar(&r.Format, "format", defaults.Format, "format of the outputs: GEO_TIFF or PNG")

	// Mosaics
	flag.BoolVar(&r.CustomMosaics, "custom-mosaics", false, "export mosaics of random sample regions instead of the images of the catalog")
	flag.Float64Var(&r.HorizontalBuffer, "horizontal-buffer", defaults.HorizontalBuffer, "half width of the sample regions in meters")
	flag.Float64Var(&r.VerticalBuffer, "vertical-buffer", defaults.VerticalBuffer, "half height of the sample regions in meters")
	seed := flag.String("seed", "", "seed of the sampling (default: random, logged to reproduce the run)")

	// Outputs
	flag.StringVar(&config.OutPath, "outpath", defaults.OutPath, "output directory (local, gs:// or s3://) in direct mode, export folder in mosaic mode")
	flag.StringVar(&config.Manifest, "manifest", "", "file to write the GeoJSON manifest of the plan (optional)")

	// Dispatch
	flag.StringVar(&config.WorkingDir, "workdir", "", "working directory of the downloads (default: system temp dir)")
	flag.IntVar(&config.Workers, "workers", 1, "number of jobs dispatched in parallel")
	flag.BoolVar(&config.SkipExisting, "skip-existing", false, "skip the jobs whose output already exists")
	flag.BoolVar(&config.Wait, "wait", false, "wait for the end of the mosaic exports")
	flag.DurationVar(&config.PollInterval, "poll-interval", 30*time.Second, "polling period of the export status (with -wait)")
	flag.BoolVar(&config.DryRun, "dry-run", false, "plan only: nothing is dispatched")

	flag.Parse()

	if err := cleanenv.ReadEnv(&config.Env); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}

	var err error
	if *bounds != "" {
		if r.Bounds, err = parseFloats(*bounds); err != nil {
			return nil, service.Errorf(service.ErrInvalidBounds, "-bounds: %w", err)
		}
	}
	if *bands != "" {
		r.Bands = parseList(*bands)
	}
	if *seed != "" {
		if r.Seed, err = parseSeed(*seed); err != nil {
			return nil, service.Errorf(service.ErrInvalidSampleParameters, "-seed: %w", err)
		}
	}
	if config.AOIFile != "" {
		if r.AOI, err = os.ReadFile(config.AOIFile); err != nil {
			return nil, fmt.Errorf("-aoi: %w", err)
		}
	}
	if config.OutPath == "" {
		return nil, fmt.Errorf("missing outpath config flag")
	}
	return &config, nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	err := run(ctx)
	if err != nil {
		log.Fatal("error", zap.Error(err))
	}
}

func run(ctx context.Context) error {
	config, err := newAppConfig()
	if err != nil {
		return err
	}
	if config.Env.Development {
		if l, err := zap.NewDevelopment(); err == nil {
			log.SetDefault(l)
		}
	}

	// Input validation: before any call to the service
	area, filter, mosaic, err := config.Request.Resolve()
	if err != nil {
		return err
	}
	log.Logger(ctx).Sugar().Infof("area: %s, %s", area, catalog.Describe(filter))

	client, err := earthengine.New(ctx, config.Env.Project,
		earthengine.WithEndpoint(config.Env.Endpoint),
		earthengine.WithRetries(config.Env.HTTPRetries))
	if err != nil {
		return fmt.Errorf("earthengine: %w", err)
	}

	planner := catalog.Planner{Service: client, OutPath: config.OutPath}
	plan, err := planner.Plan(ctx, area, filter, mosaic)
	if err != nil {
		return err
	}
	if plan.Mode == entities.ModeMosaic {
		log.Logger(ctx).Sugar().Infof("seed: %d (use -seed %d to reproduce the run)", plan.Seed, plan.Seed)
	}
	if config.Manifest != "" {
		if err := plan.WriteManifest(filepath.Dir(config.Manifest), filepath.Base(config.Manifest)); err != nil {
			return err
		}
		log.Logger(ctx).Sugar().Infof("manifest written to %s", config.Manifest)
	}
	if config.DryRun {
		for _, job := range plan.Jobs {
			log.Logger(ctx).Sugar().Infof("[%d] %s (%s)", job.Index, job.Name, job.Mode())
		}
		logShortfall(ctx, plan)
		return nil
	}

	eventPublisher, stop, err := newEventPublisher(ctx, config.Env)
	if err != nil {
		return err
	}
	defer stop()

	d := dispatcher.Dispatcher{
		Service:      client,
		Publisher:    eventPublisher,
		Workers:      config.Workers,
		Timeout:      config.Env.DownloadTimeout,
		SkipExisting: config.SkipExisting,
		WorkDir:      config.WorkingDir,
		PollInterval: config.PollInterval,
	}
	if plan.Mode == entities.ModeDirect {
		if d.Storage, err = service.NewStorage(ctx, config.OutPath, service.S3Options{
			AccessKeyID:     config.Env.AWSAccessKeyID,
			SecretAccessKey: config.Env.AWSSecretAccessKey,
			Region:          config.Env.AWSRegion,
		}); err != nil {
			return fmt.Errorf("storage %s: %w", config.OutPath, err)
		}
	}

	outcomes := d.DispatchAll(ctx, plan.Jobs)
	summary := dispatcher.Summarize(outcomes)
	log.Logger(ctx).Sugar().Infof("summary: %s", summary)
	logShortfall(ctx, plan)

	if config.Wait && summary[common.StatusSCHEDULED] > 0 {
		if _, err := d.Wait(ctx, outcomes); err != nil {
			return fmt.Errorf("exports: %w", err)
		}
		log.Logger(ctx).Info("all exports succeeded")
	}

	if len(outcomes) > 0 && summary[common.StatusFAILED] == len(outcomes) {
		var errs error
		for _, o := range outcomes {
			errs = service.MergeErrors(true, errs, o.Err)
		}
		if errors.Is(errs, service.ErrAuthenticationRequired) {
			log.Logger(ctx).Warn("the credentials are probably missing or expired (gcloud auth application-default login)")
		}
		return fmt.Errorf("all jobs failed: %w", errs)
	}
	return nil
}

func logShortfall(ctx context.Context, plan *catalog.Plan) {
	if shortfall := plan.Shortfall(); shortfall > 0 {
		log.Logger(ctx).Sugar().Warnf("%d images requested, %d planned: %d missing", plan.Requested, len(plan.Jobs), shortfall)
	}
	for _, s := range plan.Skipped {
		log.Logger(ctx).Sugar().Warnf("sample %d (%.4f, %.4f) skipped: %s", s.Mosaic.Index, s.Mosaic.Lon, s.Mosaic.Lat, s.Reason)
	}
}

// newEventPublisher returns the publisher of the job events, or nil if no event queue is configured
func newEventPublisher(ctx context.Context, env envConfig) (messaging.Publisher, func(), error) {
	stop := func() {}
	if env.EventQueue == "" {
		return nil, stop, nil
	}
	if env.PgqDbConnection != "" {
		_, w, err := pgqueue.SqlConnect(ctx, env.PgqDbConnection)
		if err != nil {
			return nil, stop, fmt.Errorf("MessagingService: %w", err)
		}
		log.Logger(ctx).Sugar().Infof("pushing events on pgqueue:%s", env.EventQueue)
		return pgqueue.NewPublisher(w, env.EventQueue, pgqueue.WithMaxRetries(5)), stop, nil
	}
	log.Logger(ctx).Sugar().Infof("pushing events on pubsub:%s/%s", env.PsProject, env.EventQueue)
	eventTopic, err := pubsub.NewPublisher(ctx, env.PsProject, env.EventQueue, pubsub.WithMaxRetries(5))
	if err != nil {
		return nil, stop, fmt.Errorf("pubsub.NewPublisher: %w", err)
	}
	return eventTopic, func() { eventTopic.Stop() }, nil
}
