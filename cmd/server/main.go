package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "cv-studio/internal/adapter/http"
	repo "cv-studio/internal/adapter/repository"
	"cv-studio/internal/config"
	"cv-studio/internal/infrastructure/migration"
	"cv-studio/internal/logging"
	"cv-studio/internal/usecase"
	"cv-studio/pkg/i18n"
	infra "cv-studio/pkg/infrastructure"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// profileBackend is what the server needs from a store: the editing
// lifecycle plus the purge used by the janitor.
type profileBackend interface {
	usecase.ProfileStore
	usecase.DraftPurger
}

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// infra setup
	var store profileBackend
	switch cfg.StoreDriver {
	case config.StoreSQLite:
		s, err := repo.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			logger.Fatal("sqlite store", zap.Error(err))
		}
		defer s.Close()
		store = s
		logger.Info("using sqlite store", zap.String("path", cfg.SQLitePath))
	default:
		pool, err := infra.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("postgres", zap.Error(err))
		}
		defer pool.Close()
		if err := migration.RunMigrations(ctx, pool, logger); err != nil {
			logger.Fatal("migrations", zap.Error(err))
		}
		store = repo.NewProfileRepo(pool)
		logger.Info("using postgres store")
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = infra.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			// drafts still reach the profile store without the local copy
			logger.Warn("redis not available, draft cache disabled", zap.Error(err))
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}
	cache := repo.NewDraftCache(rdb, cfg.DraftTTL)

	catalog := i18n.Default()
	if cfg.LabelsServiceURL != "" {
		syncCtx, syncCancel := context.WithTimeout(ctx, 30*time.Second)
		if err := catalog.Sync(syncCtx, i18n.NewRemoteLabels(cfg.LabelsServiceURL), catalog.Languages()); err != nil {
			logger.Warn("label sync failed, using embedded labels", zap.Error(err))
		}
		syncCancel()
	}

	editor := usecase.NewEditor(store, cache, logger,
		usecase.WithWindow(cfg.AutosaveWindow),
		usecase.WithRetry(cfg.AutosaveAttempts, cfg.AutosaveBackoff),
	)

	janitor := usecase.NewJanitor(store, cfg.DraftPurgeSpec, cfg.DraftMaxAge, logger)
	if err := janitor.Start(); err != nil {
		logger.Fatal("draft purge", zap.Error(err))
	}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	h := httpadapter.NewHandler(editor, store, infra.NewChromedpRenderer(cfg.ChromePath), catalog, cfg.DefaultLanguage, logger)
	h.RegisterRoutes(app.Group("/api/v1"))

	go func() {
		logger.Info("listening", zap.String("port", cfg.Port))
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	janitor.Stop(shutdownCtx)
	if err := editor.Shutdown(shutdownCtx); err != nil {
		logger.Warn("flushing drafts", zap.Error(err))
	}
	logger.Info("stopped")
}
