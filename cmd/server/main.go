package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/vanshika/kintrace/internal/config"
	"github.com/vanshika/kintrace/internal/graph"
	"github.com/vanshika/kintrace/internal/logging"
	"github.com/vanshika/kintrace/internal/metrics"
	"github.com/vanshika/kintrace/internal/repository"
	"github.com/vanshika/kintrace/internal/server"
	"github.com/vanshika/kintrace/internal/service"
	"github.com/vanshika/kintrace/internal/telemetry"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging, os.Stdout)

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Tracing, os.Stdout)
	if err != nil {
		logger.Error("failed to set up tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("flushing spans failed", "error", err)
		}
	}()

	graphClient, err := buildGraphClient(ctx, cfg)
	if err != nil {
		logger.Error("failed to create graph client", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := graphClient.Close(context.Background()); err != nil {
			logger.Warn("closing graph client failed", "error", err)
		}
	}()

	recorder := metrics.New()
	repo := repository.New(graphClient)
	familyService := service.NewFamilyService(repo, service.Options{
		CacheTTL:      cfg.Analysis.CacheTTL,
		LoadTimeout:   cfg.Graph.QueryTimeout,
		BatchWorkers:  cfg.Analysis.BatchWorkers,
		MaxBatchPairs: cfg.Analysis.MaxBatchPairs,
		Logger:        logger.With("component", "family-service"),
		Metrics:       recorder,
		Tracer:        telemetry.Tracer(),
	})
	apiHandlers := server.NewAPIHandlers(logger, familyService)

	var metricsHandler http.Handler
	if cfg.HTTP.MetricsEnabled {
		metricsHandler = recorder.Handler()
	}

	router := server.NewRouter(logger, server.RouterDependencies{
		Health:           server.StoreHealthService{Store: repo},
		API:              apiHandlers,
		Metrics:          metricsHandler,
		RequestTimeout:   cfg.HTTP.RequestTimeout,
		AllowedOrigins:   parseAllowedOrigins(cfg.HTTP.AllowedOriginsCSV),
		AllowCredentials: true,
	})

	srv := server.New(logger, cfg.HTTP, router)

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(runCtx); err != nil {
		logger.Error("server stopped unexpectedly", "error", err)
	}
}

func buildGraphClient(ctx context.Context, cfg config.Config) (graph.Client, error) {
	if cfg.Graph.URI == "" {
		return nil, graph.ErrMissingURI
	}
	return graph.NewNeo4jClient(ctx, graph.Options{
		URI:            cfg.Graph.URI,
		Database:       cfg.Graph.Database,
		Username:       cfg.Graph.Username,
		Password:       cfg.Graph.Password,
		MaxConnections: cfg.Graph.MaxConnections,
		QueryTimeout:   cfg.Graph.QueryTimeout,
	})
}

func parseAllowedOrigins(csv string) []string {
	var origins []string
	for _, part := range strings.Split(csv, ",") {
		if origin := strings.TrimSpace(part); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

