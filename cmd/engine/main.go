package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/couchcryptid/terra-climate-extremes/internal/adapter/fixture"
	"github.com/couchcryptid/terra-climate-extremes/internal/adapter/httpapi"
	kafkaadapter "github.com/couchcryptid/terra-climate-extremes/internal/adapter/kafka"
	"github.com/couchcryptid/terra-climate-extremes/internal/config"
	"github.com/couchcryptid/terra-climate-extremes/internal/observability"
	"github.com/couchcryptid/terra-climate-extremes/internal/pipeline"
	"github.com/couchcryptid/terra-climate-extremes/internal/region"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	regions := make([]region.Region, 0, len(cfg.Regions))
	for _, ref := range cfg.Regions {
		reg, err := region.Load(ref.Name, ref.Path)
		if err != nil {
			logger.Error("failed to load region", "region", ref.Name, "path", ref.Path, "error", err)
			os.Exit(1)
		}
		regions = append(regions, reg)
	}

	store := fixture.NewStore(cfg.DataDir, fixture.DefaultVariables(), logger)
	resolver := region.NewResolver(cfg.MaskCacheSize)

	// Pick the artifact sink (feature-flagged via KAFKA_ENABLED).
	var sink pipeline.ArtifactSink
	var kafkaWriter *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		kafkaWriter = kafkaadapter.NewWriter(cfg, logger)
		sink = kafkaWriter
		logger.Info("kafka sink enabled", "topic", cfg.KafkaSinkTopic)
	} else {
		sink = fixture.NewSink(filepath.Join(cfg.DataDir, "reports"), logger)
		logger.Info("kafka sink disabled, writing reports to disk")
	}

	engine := pipeline.New(store, resolver, sink, regions, cfg, logger, metrics)

	srv := httpapi.NewServer(cfg.HTTPAddr, engine, engine, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Run the analysis; the service keeps serving status and metrics until
	// it is signalled.
	go func() {
		if err := engine.Run(ctx); err != nil {
			logger.Error("run error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaWriter != nil {
		if err := kafkaWriter.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
