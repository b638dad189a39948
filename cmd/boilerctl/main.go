package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"boilerctl/internal/config"
	"boilerctl/internal/logging"
)

func main() {
	var configPath string
	var summarizePath string
	flag.StringVar(&configPath, "config", "./boilerctl.yaml", "Path to YAML config")
	flag.StringVar(&summarizePath, "summarize", "", "Summarize a recorded diagnostic CSV and exit")
	flag.Parse()

	if summarizePath != "" {
		s, err := summarizeFile(summarizePath)
		if err != nil {
			log.Fatalf("summarize failed: %v", err)
		}
		fmt.Print(s.String())
		return
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(cfg, logger)
	if err != nil {
		logger.Fatal("init failed", zap.Error(err))
	}

	logger.Info("boilerctl starting",
		zap.String("config", configPath),
		zap.String("sensor", cfg.Sensor.Kind),
		zap.Duration("tick", cfg.Control.TickInterval))
	if err := a.svc.Start(ctx); err != nil {
		_ = a.svc.Close()
		logger.Fatal("control loop start failed", zap.Error(err))
	}

	<-ctx.Done()
	logger.Info("boilerctl stopping")
	if err := a.svc.Close(); err != nil {
		logger.Warn("release failed", zap.Error(err))
	}
}
