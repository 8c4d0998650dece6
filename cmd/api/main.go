package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bookstore/internal/book"
	"bookstore/internal/config"
	"bookstore/internal/ingest"
	"bookstore/internal/platform/cache"
	"bookstore/internal/platform/googlebooks"
	"bookstore/internal/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

func main() {
	config.LoadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}
	logger.Init(cfg.App.Environment, cfg.App.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, cleanup := mustBuildDeps(ctx, cfg)
	defer cleanup()

	router, err := newRouter(d)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot build router")
	}

	httpServer := &http.Server{
		Addr:         cfg.App.Addr,
		Handler:      withMiddleware(ctx, cfg.HTTP, cfg.App.Environment == "production", router),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown")
		}
	}()

	log.Info().Str("addr", cfg.App.Addr).Str("store", cfg.Database.Store).Msg("starting server")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server error")
	}
	log.Info().Msg("server stopped")
}

func mustBuildDeps(ctx context.Context, cfg *config.Config) (deps, func()) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var volumeCache googlebooks.Cache
	var checks []func(context.Context) error
	if cfg.Redis.Addr != "" {
		redisCache := cache.NewRedis(cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB), "googlebooks:", cfg.Redis.TTL)
		if err := redisCache.HealthCheck(ctx); err != nil {
			log.Warn().Err(err).Msg("redis unavailable, volume cache disabled")
			_ = redisCache.Close()
		} else {
			volumeCache = redisCache
			closers = append(closers, func() { _ = redisCache.Close() })
			log.Info().Str("addr", cfg.Redis.Addr).Msg("volume cache enabled")
		}
	}

	d := deps{
		source: googlebooks.NewClient(googlebooks.Config{
			BaseURL:    cfg.GoogleBooks.BaseURL,
			UserAgent:  cfg.GoogleBooks.UserAgent,
			RPS:        cfg.GoogleBooks.RPS,
			MaxRetries: cfg.GoogleBooks.MaxRetries,
			MaxPages:   cfg.GoogleBooks.MaxPages,
		}, volumeCache),
		version: cfg.App.Version,
	}

	switch cfg.Database.Store {
	case config.StoreMemory:
		d.books = book.NewMemoryRepo()
		d.runs = ingest.NewMemoryRepo()
	default:
		dbPool := mustOpenDB(ctx, cfg.Database.DSN)
		closers = append(closers, dbPool.Close)
		d.books = book.NewPostgresRepo(dbPool, cfg.Database.Timeout)
		d.runs = ingest.NewPostgresRepo(dbPool, cfg.Database.Timeout)
		checks = append(checks, dbPool.Ping)
	}

	d.ready = func(ctx context.Context) error {
		for _, check := range checks {
			if err := check(ctx); err != nil {
				return err
			}
		}
		return nil
	}
	return d, cleanup
}

func mustOpenDB(ctx context.Context, dsn string) *pgxpool.Pool {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot create db pool")
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		log.Fatal().Err(err).Str("dsn", redactDSN(dsn)).Msg("cannot ping database")
	}
	log.Info().Msg("database connection OK")
	return pool
}

func redactDSN(dsn string) string {
	const marker = "://"
	start := strings.Index(dsn, marker)
	if start < 0 {
		return dsn
	}
	start += len(marker)
	end := strings.Index(dsn[start:], "@")
	if end < 0 {
		return dsn
	}
	return dsn[:start] + "***" + dsn[start+end:]
}
