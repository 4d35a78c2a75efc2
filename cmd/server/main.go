package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gramsuvidha/internal/announcement"
	"gramsuvidha/internal/audit"
	"gramsuvidha/internal/budget"
	"gramsuvidha/internal/document"
	"gramsuvidha/internal/grievance"
	"gramsuvidha/internal/identity"
	"gramsuvidha/internal/identity/lockout"
	"gramsuvidha/internal/identity/token"
	"gramsuvidha/internal/platform/blob"
	"gramsuvidha/internal/platform/config"
	"gramsuvidha/internal/platform/httpserver"
	"gramsuvidha/internal/platform/logger"
	"gramsuvidha/internal/platform/metrics"
	"gramsuvidha/internal/platform/redis"
	"gramsuvidha/internal/project"
	"gramsuvidha/internal/storage"
	transport "gramsuvidha/internal/transport/http"
	"gramsuvidha/internal/village"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log := logger.New()
	cfg := config.FromEnv()

	db, err := storage.Open(cfg.DatabaseURL)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := storage.EnsureSchema(ctx, db); err != nil {
		log.Error("schema bootstrap failed", "error", err)
		os.Exit(1)
	}

	// Redis is optional: without it the login lockout falls back to an
	// in-process store.
	var lockoutStore lockout.Store = lockout.NewMemoryStore()
	redisClient, err := redis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		lockoutStore = lockout.NewRedisStore(redisClient.Client)
		log.Info("login lockout backed by redis")
	}

	blobStore, err := blob.NewLocalStore(cfg.UploadDir)
	if err != nil {
		log.Error("upload dir setup failed", "error", err)
		os.Exit(1)
	}

	auditor := audit.NewPublisher(audit.NewPostgresStore(db), log)
	tokens := token.NewService(cfg.JWTSigningKey, "gramsuvidha")
	lockouts := lockout.New(lockoutStore, lockout.DefaultConfig(), log)
	httpMetrics := metrics.New()

	villageService := village.NewService(village.NewPostgresStore(db), auditor, log)
	identityService := identity.NewService(identity.NewPostgresStore(db), villageService,
		tokens, lockouts, auditor, log, cfg.TokenTTL)
	budgetService := budget.NewService(budget.NewPostgresStore(db), auditor, budget.NewMetrics(), log)
	grievanceService := grievance.NewService(grievance.NewPostgresStore(db), auditor, log)
	projectService := project.NewService(project.NewPostgresStore(db), log)
	announcementService := announcement.NewService(announcement.NewPostgresStore(db), log)
	documentService := document.NewService(document.NewPostgresStore(db), blobStore, auditor, log)

	router := transport.New(transport.Handlers{
		Identity:     identity.NewHandler(identityService, log),
		Village:      village.NewHandler(villageService, log),
		Budget:       budget.NewHandler(budgetService, log),
		Grievance:    grievance.NewHandler(grievanceService, log),
		Project:      project.NewHandler(projectService, log),
		Announcement: announcement.NewHandler(announcementService, log),
		Document:     document.NewHandler(documentService, cfg.MaxUploadBytes, log),
	}, transport.Deps{
		TokenValidator: tokens,
		CallerLoader:   identityService,
		Metrics:        httpMetrics,
		Logger:         log,
	})

	server := httpserver.New(cfg.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		log.Error("server failed", "error", err)
		os.Exit(1)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
