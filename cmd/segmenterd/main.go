package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthgrpc "google.golang.org/grpc/health/grpc_health_v1"

	segmentationv1 "github.com/leo-paz/hyprnote-sub001/api/segmentationv1"

	"github.com/leo-paz/hyprnote-sub001/internal/config"
	"github.com/leo-paz/hyprnote-sub001/internal/export"
	"github.com/leo-paz/hyprnote-sub001/internal/server"
	"github.com/leo-paz/hyprnote-sub001/internal/telemetry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Loader{}.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("starting segmenter",
		"listen_addr", cfg.ListenAddr,
		"max_gap_ms", cfg.MaxGapMS,
		"export_enabled", cfg.Export.Enabled,
	)

	recorder := telemetry.NewRecorder(logger)

	var uploader server.TranscriptUploader
	if cfg.Export.Enabled {
		client, err := export.NewClient(ctx, cfg.Export.Region)
		if err != nil {
			logger.Error("failed to initialise S3 client", "error", err)
			os.Exit(1)
		}
		uploader = export.NewUploader(client, cfg.Export.Bucket, cfg.Export.Prefix, logger)
		logger.Info("transcript export enabled",
			"bucket", cfg.Export.Bucket,
			"region", cfg.Export.Region,
			"prefix", cfg.Export.Prefix,
		)
	}

	lis, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		logger.Error("failed to bind listener", "error", err)
		os.Exit(1)
	}
	defer lis.Close()

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthgrpc.RegisterHealthServer(grpcServer, healthServer)

	serviceName := segmentationv1.ServiceName
	healthServer.SetServingStatus("", healthgrpc.HealthCheckResponse_NOT_SERVING)
	healthServer.SetServingStatus(serviceName, healthgrpc.HealthCheckResponse_NOT_SERVING)

	segmentationv1.RegisterSegmentationServiceServer(grpcServer, server.New(cfg, logger, recorder, uploader))

	healthServer.SetServingStatus("", healthgrpc.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(serviceName, healthgrpc.HealthCheckResponse_SERVING)

	go func() {
		<-ctx.Done()
		logger.Info("shutdown requested, stopping gRPC server")
		healthServer.SetServingStatus(serviceName, healthgrpc.HealthCheckResponse_NOT_SERVING)
		healthServer.SetServingStatus("", healthgrpc.HealthCheckResponse_NOT_SERVING)

		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()

		select {
		case <-stopped:
		case <-time.After(5 * time.Second):
			logger.Warn("graceful stop timed out, forcing stop")
			grpcServer.Stop()
		}
	}()

	if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		logger.Error("gRPC server terminated with error", "error", err)
		os.Exit(1)
	}

	if snapshot := recorder.Snapshot(); snapshot.TotalStreams > 0 {
		logger.Info("telemetry totals",
			"total_streams", snapshot.TotalStreams,
			"total_frames", snapshot.TotalFrames,
			"total_segments", snapshot.TotalSegments,
			"total_gap_splits", snapshot.TotalGapSplits,
			"total_key_splits", snapshot.TotalKeySplits,
			"total_interleave_splits", snapshot.TotalInterleaveSplits,
			"total_flushes", snapshot.TotalFlushes,
			"total_exports", snapshot.TotalExports,
		)
	}

	logger.Info("segmenter stopped")
}

func newLogger(level string) *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	return slog.New(handler)
}

func parseLevel(value string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
