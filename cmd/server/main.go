package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pingmatch/ping/internal/app"
	"github.com/pingmatch/ping/internal/blob"
	"github.com/pingmatch/ping/internal/cache"
	"github.com/pingmatch/ping/internal/config"
	"github.com/pingmatch/ping/internal/db"
	"github.com/pingmatch/ping/internal/logger"
	"github.com/pingmatch/ping/internal/server"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	store, err := blob.NewStore(cfg)
	if err != nil {
		log.Error("failed to init blob store", "err", err)
		return
	}

	appCtx := app.New(cfg, database, redisCache, log)

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	srv := server.New(cfg, log, server.NewRouter(appCtx, store))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("http server failed", "err", err)
		}
	case sig := <-stop:
		log.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("shutdown failed", "err", err)
		}
	}
}
