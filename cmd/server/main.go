package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/dharmasatrya/weekendfares/internal/cache"
	"github.com/dharmasatrya/weekendfares/internal/config"
	"github.com/dharmasatrya/weekendfares/internal/handler"
	"github.com/dharmasatrya/weekendfares/internal/report"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if err := run(logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("server exited properly")
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load(os.Getenv("FLIGHTWATCH_CONFIG"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.Logging.Format == "json" {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store cache.ReportStore
	if cfg.Redis.Enabled {
		opts := cfg.RedisOptions()
		client, err := cache.NewRedisClient(opts)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer client.Close()
		store = cache.NewRedisReportStore(client)
		logger.Info("serving latest report from redis", "host", opts.Host, "port", opts.Port)
	} else {
		store = seedMemoryStore(ctx, cfg.Output.Dir, logger)
	}

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())

	reports := handler.NewReportHandler(store)
	plans := handler.NewPlanHandler(cfg.Quota.RunsPerMonth, cfg.Quota.MonthlyLimit)

	api := e.Group("/api/v1")
	api.GET("/reports/latest", reports.Latest)
	api.GET("/reports/latest/top", reports.Top)
	api.GET("/reports/latest/destinations", reports.Destinations)
	api.POST("/plans", plans.Create)
	e.GET("/health", handler.HealthHandler)

	address := ":" + cfg.Server.Port
	logger.Info("starting flightwatch server", "address", address)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := e.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// seedMemoryStore serves the newest JSON report from dir when Redis is off.
func seedMemoryStore(ctx context.Context, dir string, logger *slog.Logger) *cache.MemoryReportStore {
	store := cache.NewMemoryReportStore()

	path, err := report.FindLatest(dir)
	if err != nil {
		logger.Warn("redis disabled and no report file found", "dir", dir, "error", err)
		return store
	}
	rep, err := report.Load(path)
	if err != nil {
		logger.Warn("failed to load report file", "path", path, "error", err)
		return store
	}
	_ = store.SaveLatest(ctx, rep)
	logger.Info("serving report from file", "path", path, "run_id", rep.Metadata.RunID)
	return store
}
