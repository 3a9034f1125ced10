package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/freeflow/safecollab-api/internal/config"
	"github.com/freeflow/safecollab-api/internal/database"
	"github.com/freeflow/safecollab-api/internal/handler"
	"github.com/freeflow/safecollab-api/internal/logger"
	"github.com/freeflow/safecollab-api/internal/middleware"
	"github.com/freeflow/safecollab-api/internal/router"
)

func main() {
	dotenvErr := config.LoadDotEnv() // .env must be in place before Load reads the environment
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if dotenvErr != nil {
		log.Fatal().Err(dotenvErr).Msg("load .env")
	}

	db, err := database.Open(cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}

	var rdb *redis.Client
	rlCfg := config.LoadRateLimitConfig()
	if rlCfg.Enabled {
		rdb = config.NewRedisClient(config.LoadRedisConfig())
		if rdb == nil {
			log.Warn().Msg("redis unreachable, rate limiting disabled")
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := middleware.NewMetrics(reg)

	e := newServer(log, db, rdb, rlCfg, metrics)
	router.RegisterMetrics(e, reg)

	runErr := run(e, cfg, log)
	if runErr != nil {
		log.Error().Err(runErr).Msg("server failed")
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if err := db.Close(); err != nil {
		log.Error().Err(err).Msg("close database")
	}
	if runErr != nil {
		os.Exit(1)
	}
}

// newServer builds the echo instance with middleware and the API routes.
func newServer(log zerolog.Logger, db *database.DB, rdb *redis.Client, rlCfg config.RateLimitConfig, metrics *middleware.Metrics) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.NewErrorHandler(log)

	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(metrics.Middleware())
	e.Use(middleware.NewTokenBucket(rlCfg, rdb, log))

	router.RegisterRoutes(e, handler.NewHealthHandler(db))
	return e
}

// run serves until the listener fails or SIGINT/SIGTERM arrives, then shuts
// down gracefully.
func run(e *echo.Echo, cfg config.Config, log zerolog.Logger) error {
	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		return err
	}
	log.Info().Msg("server stopped gracefully")
	return nil
}
