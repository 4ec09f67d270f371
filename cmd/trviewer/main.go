// Package main is the entry point for the Trinity model viewer service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/trinity-viewer/internal/assets"
	"github.com/Faultbox/trinity-viewer/internal/config"
	"github.com/Faultbox/trinity-viewer/internal/logger"
	"github.com/Faultbox/trinity-viewer/internal/server"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Trinity Viewer ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	var cache *assets.Cache
	if cfg.Assets.Cache {
		cache = assets.NewCache()
	}
	mgr := assets.NewManager(cache)
	defer mgr.Close()

	for _, root := range cfg.Assets.Roots {
		if err := mgr.AddDir(root); err != nil {
			logger.Error("failed to open asset root", zap.String("root", root), zap.Error(err))
			os.Exit(1)
		}
		logger.Info("asset root added", zap.String("root", root))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(server.OptionsFromConfig(cfg, mgr))
	if err := srv.ListenAndServe(ctx); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("server stopped normally")
}
