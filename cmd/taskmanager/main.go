// Command taskmanager is the per-node process that loads the cluster
// config, registers itself with metadata storage, and serves the
// Prometheus metrics endpoint other task managers and the coordinator
// scrape and fan out against.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yorkart/rlink-go/pkg/cluster"
	"github.com/yorkart/rlink-go/pkg/metrics"
)

func main() {
	configPath := flag.String("config", "cluster.yaml", "path to the cluster config file")
	metricsAddr := flag.String("metrics-addr", ":9090", "address to serve /metrics on")
	taskManagerID := flag.String("id", "", "this task manager's ID")
	flag.Parse()

	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("taskmanager: build logger: %v", err)
	}
	defer zapLogger.Sync() //nolint:errcheck
	logger := zapLogger.Sugar()

	cfg, err := cluster.LoadConfig(*configPath)
	if err != nil {
		logger.Fatalw("loading cluster config failed", "error", err)
	}

	mode, err := cluster.ParseMetadataStorageMode(cfg.MetadataStorageMode)
	if err != nil {
		logger.Fatalw("invalid metadata storage mode", "error", err)
	}
	storage, err := cluster.NewMetadataStorage(mode, logger)
	if err != nil {
		logger.Fatalw("constructing metadata storage failed", "error", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cluster.LoopUntilSuccess(ctx, 2*time.Second, logger, func() error {
		return storage.UpdateTaskStatus(*taskManagerID, cfg.TaskManagerBindIP, cluster.TaskManagerStatusRegistered, *metricsAddr)
	}); err != nil {
		logger.Fatalw("registering task manager failed", "error", err)
	}

	logger.Infow("task manager ready", "metricsAddr", *metricsAddr, "workDir", cfg.TaskManagerWorkDir)

	if err := metrics.Serve(*metricsAddr); err != nil {
		logger.Fatalw("metrics server exited", "error", err)
	}
}
