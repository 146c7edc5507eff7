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

	"bookstore/internal/auth"
	"bookstore/internal/authors"
	"bookstore/internal/books"
	"bookstore/internal/config"
	"bookstore/internal/database"
	"bookstore/internal/httpapi"
	"bookstore/internal/users"
	"bookstore/pkg/logger"
	"bookstore/pkg/metrics"
	"bookstore/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

const healthTimeout = 2 * time.Second

func main() {
	// A missing .env is fine; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn(".env not loaded", "err", err)
	}

	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log, logCloser := logger.New(cfg.App.Env, cfg.Log.File)
	defer logCloser.Close()
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(rootCtx, stop, cfg, log); err != nil {
		log.Error("api exited", "err", err)
		_ = logCloser.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, stop context.CancelFunc, cfg config.Config, log *slog.Logger) error {
	tokens, err := auth.NewManager(cfg.Auth.JWTSecret)
	if err != nil {
		return err
	}

	db, err := utils.OpenPostgres(ctx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(ctx, db, log); err != nil {
		return err
	}

	checks := map[string]httpapi.Check{
		"postgres": func(ctx context.Context) error { return utils.HealthCheck(ctx, db, healthTimeout) },
	}

	var fleet auth.SlotLimiter
	if cfg.RedisEnabled() {
		rdb, err := utils.OpenRedis(ctx, utils.RedisConfig{Addr: cfg.RedisAddr()})
		if err != nil {
			return err
		}
		defer rdb.Close()

		checks["redis"] = func(ctx context.Context) error { return utils.PingRedis(ctx, rdb, healthTimeout) }
		if cfg.Auth.HashFleetLimit > 0 {
			fleet = auth.NewRedisSlots(rdb, cfg.Auth.HashFleetLimit)
		}
	}

	hasher, err := auth.NewPasswordHasher(cfg.Auth.BcryptCost, cfg.Auth.HashWorkers, fleet)
	if err != nil {
		return err
	}

	m := metrics.New()
	authorSvc := authors.NewService(authors.NewPostgresRepository(db))

	r := newRouter(log, cfg.App.CORSOrigins, m)
	registerRoutes(r, routeDeps{
		handlers: httpapi.Handlers{
			Users:    users.NewService(users.NewPostgresRepository(db), hasher, tokens),
			Authors:  authorSvc,
			Books:    books.NewService(books.NewPostgresRepository(db), authorSvc),
			Outcomes: m,
		},
		gate:    auth.RequireToken(tokens, m),
		health:  httpapi.Health{Checks: checks, Timeout: healthTimeout},
		metrics: m.Handler(),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "redis", cfg.RedisEnabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
