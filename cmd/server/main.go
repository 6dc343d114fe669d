package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jirapulse/internal/api"
	"jirapulse/internal/common"
	"jirapulse/internal/config"
	"jirapulse/internal/constants"
	"jirapulse/internal/db"
	"jirapulse/internal/db/repositories"
	"jirapulse/internal/jobs"
	"jirapulse/internal/logging"
	"jirapulse/internal/routes"
	"jirapulse/internal/services"
	syncengine "jirapulse/internal/sync"
)

func main() {
	upSince := time.Now()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	if err := logging.Init(cfg.AppEnv); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logging.Close()

	dsn := config.PostgresDSN()
	if err := db.InitPostgres(dsn); err != nil {
		logging.Fatal("failed to connect to postgres", "error", err.Error())
	}
	if err := db.EnsureIssueTable(db.DB); err != nil {
		logging.Fatal("failed to prepare issues table", "error", err.Error())
	}
	gormDB, err := db.InitPostgresORM(dsn)
	if err != nil {
		logging.Fatal("failed to initialize ORM", "error", err.Error())
	}

	var cache common.CacheService
	if cfg.RedisAddr != "" {
		if redisCache := common.NewRedisCacheService(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB); redisCache != nil {
			cache = redisCache
		}
	}
	if cache == nil {
		cache = common.NewMemoryCacheService()
	}

	configRepo := repositories.NewConfigRepository(gormDB)
	historyRepo := repositories.NewSyncHistoryRepository(gormDB)
	schemaRepo := repositories.NewSchemaRepository(db.DB, constants.IssueTable)
	issueRepo := repositories.NewIssueRepository(db.DB)

	mappingSvc := services.NewMappingService(configRepo, syncengine.NewSchemaSynchronizer(schemaRepo), cache)
	if err := mappingSvc.EnsureDefault(context.Background()); err != nil {
		logging.Fatal("failed to seed field mapping configuration", "error", err.Error())
	}

	syncSvc := services.NewSyncService(cfg, historyRepo, mappingSvc, issueRepo, cache)

	scheduler, err := jobs.StartScheduler(cfg.SyncSchedule, syncSvc)
	if err != nil {
		logging.Fatal("failed to start scheduler", "error", err.Error())
	}

	handler := routes.RegisterRoutes(cfg,
		api.NewSyncHandlers(syncSvc),
		api.NewConfigHandlers(mappingSvc),
		api.NewAdminHandlers(issueRepo),
		upSince,
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logging.Info("server listening", "port", cfg.Port, "env", cfg.AppEnv)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatal("server failed", "error", err.Error())
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logging.Info("shutting down")
	if scheduler != nil {
		scheduler.Stop()
	}
	if _, err := syncSvc.Stop(); err == nil {
		logging.Info("requested stop of active sync")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logging.Error("graceful shutdown failed", "error", err.Error())
	}
}
