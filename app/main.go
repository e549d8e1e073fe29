package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/chadn/cmf-server/internal/config"
	"github.com/chadn/cmf-server/internal/geocoder"
	"github.com/chadn/cmf-server/internal/graceful"
	"github.com/chadn/cmf-server/internal/httputil"
	"github.com/chadn/cmf-server/internal/orchestrator"
	"github.com/chadn/cmf-server/internal/repositories"
	"github.com/chadn/cmf-server/internal/sources"
	"github.com/chadn/cmf-server/internal/sources/fbics"
	"github.com/chadn/cmf-server/internal/sources/foopee"
	"github.com/chadn/cmf-server/internal/sources/gcal"
	"github.com/chadn/cmf-server/internal/sources/gsheets"
	"github.com/chadn/cmf-server/internal/sources/mobilize"
	"github.com/chadn/cmf-server/internal/sources/nineteenhz"
	"github.com/chadn/cmf-server/internal/sources/plura"
	"github.com/chadn/cmf-server/internal/transport/httpServer"
	"github.com/chadn/cmf-server/internal/transport/httpServer/handlers"
	"github.com/chadn/cmf-server/internal/transport/httpServer/routers"
	"github.com/chadn/cmf-server/internal/utils/logger/handlers/slogpretty"
	"github.com/chadn/cmf-server/internal/utils/logger/sl"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

var Version = "0.1"

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info(
		"starting cmf server",
		slog.String("env", cfg.Env),
		slog.String("version", Version),
	)

	var cache httputil.Cache
	var repositoryService *repositories.Repository
	if cfg.DB.Enabled {
		var err error
		repositoryService, err = repositories.New(log, cfg)
		if err != nil {
			log.Error("cannot connect repository, running without cache", sl.Err(err))
		} else {
			cache = repositoryService
		}
	}

	httpClient := httputil.NewClient(log, cache)

	// One explicit, ordered factory list; registration order decides
	// prefix lookup precedence.
	registry := sources.NewRegistry(log)
	factories := []sources.Factory{
		func() (sources.Handler, error) { return gcal.New(log, cfg.Google.APIKey) },
		func() (sources.Handler, error) {
			return gsheets.New(log, cfg.Google.APIKey, cfg.Google.SheetTab, cfg.Google.SheetHeaderRow)
		},
		func() (sources.Handler, error) { return fbics.New(log, httpClient), nil },
		func() (sources.Handler, error) { return mobilize.New(log, httpClient, cfg.Sources.MobilizeBaseURL), nil },
		func() (sources.Handler, error) { return nineteenhz.New(log, httpClient, cfg.Sources.NineteenHz), nil },
		func() (sources.Handler, error) { return foopee.New(log, httpClient, cfg.Sources.FoopeeBaseURL), nil },
		func() (sources.Handler, error) { return plura.New(log, httpClient, cfg.Sources.PluraGraphQLURL), nil },
	}
	for _, f := range factories {
		if err := registry.RegisterFactory(f); err != nil {
			log.Error("factory registration failed", sl.Err(err))
		}
	}
	registry.Initialize()

	resolverService := geocoder.NewResolver(log, nil)
	orchestratorService := orchestrator.New(log, cfg, registry, resolverService)

	eventHandler := handlers.NewEventHandler(log, registry, resolverService, orchestratorService)
	router := routers.NewRouter(log, eventHandler, cfg.HttpServer.Secret)
	httpSrv := httpServer.NewHttpServer(log, router, cfg)

	maxSecond := 15 * time.Second
	ops := map[string]graceful.Operation{
		"Orchestrator service": func(ctx context.Context) error {
			return orchestratorService.Shutdown(ctx)
		},
		"HTTP server": func(ctx context.Context) error {
			return httpSrv.Shutdown(ctx)
		},
	}
	if repositoryService != nil {
		ops["Repository service"] = func(ctx context.Context) error {
			return repositoryService.Shutdown(ctx)
		}
	}
	waitShutdown := graceful.GracefulShutdown(context.Background(), maxSecond, ops, log)

	if err := orchestratorService.Start(); err != nil {
		log.Error("orchestrator start failed", sl.Err(err))
	}
	go httpSrv.Listen()

	<-waitShutdown
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog(slog.LevelDebug)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = setupPrettySlog(slog.LevelInfo)
	default: // If env config is invalid, set prod settings by default due to security
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}

func setupPrettySlog(level slog.Level) *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: level,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
