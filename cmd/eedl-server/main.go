package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/airbusgeo/geocube-sampler/catalog"
	"github.com/airbusgeo/geocube-sampler/interface/imagery/earthengine"
	"github.com/airbusgeo/geocube-sampler/service/log"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type envConfig struct {
	Project     string `env:"EEDL_PROJECT" env-required:"true" env-description:"cloud project registered for Earth Engine"`
	Endpoint    string `env:"EEDL_ENDPOINT" env-default:"https://earthengine.googleapis.com" env-description:"url of the Earth Engine API"`
	HTTPRetries int    `env:"EEDL_HTTP_RETRIES" env-default:"3" env-description:"number of retries of the requests to the API in case of temporary failure"`
}

type config struct {
	Env     envConfig
	Addr    string
	OutPath string
}

func newAppConfig() (*config, error) {
	config := config{}
	flag.StringVar(&config.Addr, "addr", ":8080", "listening address of the server")
	flag.StringVar(&config.OutPath, "outpath", catalog.DefaultConfig().OutPath, "destination of the planned jobs")
	flag.Parse()

	if err := cleanenv.ReadEnv(&config.Env); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
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

	client, err := earthengine.New(ctx, config.Env.Project,
		earthengine.WithEndpoint(config.Env.Endpoint),
		earthengine.WithRetries(config.Env.HTTPRetries))
	if err != nil {
		return fmt.Errorf("earthengine: %w", err)
	}
	srv := catalog.Server{
		Planner:  &catalog.Planner{Service: client, OutPath: config.OutPath},
		Defaults: catalog.DefaultConfig(),
	}

	// HTTP Server
	r := mux.NewRouter()
	srv.AddHandler(r)
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	headersOk := handlers.AllowedHeaders([]string{"*"})
	originsOk := handlers.AllowedOrigins([]string{"*"})
	methodsOk := handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"})
	s := http.Server{
		Addr:    config.Addr,
		Handler: handlers.CombinedLoggingHandler(os.Stdout, handlers.CORS(originsOk, headersOk, methodsOk)(r)),
	}

	go func() {
		log.Logger(ctx).Sugar().Infof("listening on %s", config.Addr)
		if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Logger(ctx).Fatal("eedl-server.ListenAndServe", zap.Error(err))
		}
	}()

	<-ctx.Done()
	sctx, cncl := context.WithTimeout(context.Background(), 30*time.Second)
	defer cncl()
	return s.Shutdown(sctx)
}
