package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/holocron/holocron/internal/app"
	"github.com/holocron/holocron/internal/observability"
	"github.com/holocron/holocron/internal/platform/cache"
	"github.com/holocron/holocron/internal/platform/db"
	"github.com/holocron/holocron/internal/rbac"
	"github.com/holocron/holocron/internal/roles"
	"github.com/holocron/holocron/internal/users"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	slog.SetDefault(logger)

	dsn := cfg.DatabaseURL()
	if cfg.DBAutoMigrate {
		if err := db.Migrate(dsn, logger); err != nil {
			logger.Error("apply migrations", slog.Any("error", err))
			os.Exit(1)
		}
	}

	dbpool, err := db.New(ctx, dsn, cfg.DBMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Warn("redis unavailable, read cache disabled", slog.Any("error", err))
		} else {
			defer func() {
				if err := redisClient.Close(); err != nil {
					logger.Warn("redis close", slog.Any("error", err))
				}
			}()
		}
	}
	rbacCache := cache.NewCache(redisClient, "holocron:rbac", cfg.CacheTTL, logger)

	metrics := observability.NewMetrics()

	usersService := users.NewService(users.NewRepository(dbpool), rbacCache, logger)
	rolesService := roles.NewService(roles.NewRepository(dbpool), rbacCache, logger)
	rbacService := rbac.NewService(rbac.NewRepository(dbpool), rbacCache, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		DB:                 dbpool,
		UsersHandler:       users.NewHandler(logger, usersService),
		RolesHandler:       roles.NewHandler(logger, rolesService),
		AssignmentsHandler: rbac.NewAssignmentsHandler(logger, rbacService),
		PermissionsHandler: rbac.NewPermissionsHandler(logger, rbacService),
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("version", cfg.AppVersion))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
