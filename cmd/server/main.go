package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/vidhub/platform-api/internal/api"
	mongodb "github.com/vidhub/platform-api/internal/infrastructure/db/mongo"
	redisdb "github.com/vidhub/platform-api/internal/infrastructure/db/redis"
	"github.com/vidhub/platform-api/internal/infrastructure/queue"
	"github.com/vidhub/platform-api/internal/infrastructure/storage"
	"github.com/vidhub/platform-api/internal/pkg/config"
	"github.com/vidhub/platform-api/pkg/logger"
)

// @title        vidhub platform API
// @version      1.0
// @description  Account, session, and social-graph backend.
//
// @securityDefinitions.apikey BearerAuth
// @in   header
// @name Authorization
func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(shutdownCtx)
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer rdb.Close()

	media, err := storage.NewMediaStore(storage.Config{
		Endpoint:      cfg.Media.Endpoint,
		AccessKey:     cfg.Media.AccessKey,
		SecretKey:     cfg.Media.SecretKey,
		Bucket:        cfg.Media.Bucket,
		UseSSL:        cfg.Media.UseSSL,
		PublicBaseURL: cfg.Media.PublicBaseURL,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("media store init failed")
	}
	if err := media.EnsureBucket(ctx); err != nil {
		log.Fatal().Err(err).Msg("media bucket check failed")
	}

	userRepo := mongodb.NewUserRepository(db)
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("index creation failed")
	}

	dispatcher := queue.NewHistoryDispatcher(cfg.HistoryWorkers, userRepo, log)
	dispatcher.Start(ctx)

	e := api.NewRouter(db, rdb, media, dispatcher, cfg, log)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server started")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
