// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Dobalito HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Build the session token issuer and SMS sender.
//  7. Start the verification code engine and its cleanup loop.
//  8. Wire HTTP handlers.
//  9. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dobalito/api/internal/api"
	"github.com/dobalito/api/internal/core/category"
	"github.com/dobalito/api/internal/core/task"
	"github.com/dobalito/api/internal/phone"
	"github.com/dobalito/api/internal/platform/config"
	"github.com/dobalito/api/internal/platform/constants"
	"github.com/dobalito/api/internal/platform/migration"
	pgstore "github.com/dobalito/api/internal/platform/postgres"
	redisstore "github.com/dobalito/api/internal/platform/redis"
	"github.com/dobalito/api/internal/platform/sec"
	"github.com/dobalito/api/internal/sms"
	"github.com/dobalito/api/internal/users/account"
	"github.com/dobalito/api/internal/users/auth"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("[Dobalito] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("sms_provider", cfg.SMSProvider),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// Lives as long as the process; cancelled on shutdown to stop background loops.
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing_postgres_pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing_redis_client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis_close_error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Tokens & SMS ───────────────────────────────────────────────────
	tokens, err := sec.NewTokenIssuer(sec.TokenConfig{
		Secret: []byte(cfg.SessionSecret),
		TTL:    cfg.TokenTTL,
		Issuer: constants.AuthIssuer,
	})
	must(log, err, "initialize token issuer")

	sender, err := sms.NewSender(cfg, log)
	must(log, err, "initialize sms sender")

	// ── 7. Verification Codes ─────────────────────────────────────────────
	codeEngine := phone.NewEngine(phone.NewPostgresStore(pool), phone.NewRedisLocker(rdb), log)
	go codeEngine.RunCleanup(appCtx, cfg.CodeCleanupInterval)

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func(ctx context.Context) error {
			return pgstore.Ping(ctx, pool)
		},
		CheckCache: func(ctx context.Context) error {
			return redisstore.Ping(ctx, rdb)
		},
	}, log)

	authService := auth.NewService(
		auth.NewUserRepository(pool),
		codeEngine,
		sender,
		tokens,
		log,
		auth.WithCodeEcho(cfg.OTPEchoCode && cfg.IsDevelopment()),
		auth.WithRevocation(auth.NewRevocationStore(rdb)),
	)

	categoryService := category.NewService(category.NewPostgresRepository(pool), log)

	avatars, err := account.NewLocalAvatarStorage(filepath.Join(cfg.UploadDir, "avatars"))
	must(log, err, "prepare avatar storage")
	accountService := account.NewService(account.NewAccountRepository(pool), avatars, categoryService, log)

	taskService := task.NewService(task.NewPostgresRepository(pool), categoryService, log)

	// ── 9. HTTP Server ────────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth: auth.NewHandler(authService, auth.CookieConfig{
			Name:   cfg.SessionCookieName,
			Secure: cfg.CookieSecure,
		}),
		Account:  account.NewHandler(accountService),
		Category: category.NewHandler(categoryService),
		Task:     task.NewHandler(taskService),
	}

	server := api.NewServer(appCtx, cfg, log, authService, handlers)

	// ── 10. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_error", slog.Any("error", err))
	}

	appCancel()

	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting_down_server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown_error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server_stopped_cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned
// and handled explicitly.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
