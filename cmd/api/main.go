package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/freelanceflow/api/internal/app/migrate"
	httpx "github.com/freelanceflow/api/internal/http"
	"github.com/freelanceflow/api/internal/repository/postgres"
	"github.com/freelanceflow/api/internal/service/activity"
	"github.com/freelanceflow/api/internal/service/auth"
	"github.com/freelanceflow/api/internal/service/client"
	"github.com/freelanceflow/api/internal/service/invoice"
	"github.com/freelanceflow/api/internal/service/project"
	"github.com/freelanceflow/api/internal/service/timeentry"
	"github.com/freelanceflow/api/internal/ws"
	"github.com/freelanceflow/api/pkg/config"
	"github.com/freelanceflow/api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log := logger.New("api", slog.LevelInfo)

	cfg, err := config.LoadAPIConfig()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("connect database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	runner, err := migrate.New(pool, cfg.DatabaseURL, cfg.MigrationsDir, log)
	if err != nil {
		log.Error("init migration runner", "error", err)
		os.Exit(1)
	}
	if err := runner.Ping(ctx); err != nil {
		log.Error("database unreachable", "error", err)
		os.Exit(1)
	}
	if err := runner.Ensure(ctx); err != nil {
		log.Error("apply migrations", "error", err)
		os.Exit(1)
	}

	repo := postgres.New(pool)
	hub := ws.NewHub()
	feed := activity.New(hub, log)

	authSvc := auth.New(repo, log, cfg)
	clientSvc := client.New(repo, repo, repo, repo, feed, log)
	projectSvc := project.New(repo, repo, feed, log)
	invoiceSvc := invoice.New(repo, repo, feed, log)
	timeSvc := timeentry.New(repo, repo, feed, log)

	var limiter httpx.RateLimiter
	if cfg.RateLimitRedisAddr != "" {
		limiter, err = httpx.NewRedisRateLimiter(cfg.RateLimitRedisAddr, cfg.RateLimitRedisPass, cfg.RateLimitRedisDB, log)
		if err != nil {
			log.Error("connect redis rate limiter", "error", err)
			os.Exit(1)
		}
		log.Info("rate limiting backed by redis", "addr", cfg.RateLimitRedisAddr)
	} else {
		limiter = httpx.NewMemoryRateLimiter()
	}

	router := httpx.NewRouter(log, cfg, authSvc, clientSvc, projectSvc, invoiceSvc, timeSvc, feed, limiter, pool.Ping)
	defer router.Close()

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("api listening", "addr", cfg.Addr, "environment", cfg.Environment)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
