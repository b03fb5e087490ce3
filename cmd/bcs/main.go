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

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/bcs-estimating/internal/app"
	"github.com/odyssey-erp/bcs-estimating/internal/catalog"
	"github.com/odyssey-erp/bcs-estimating/internal/estimates"
	"github.com/odyssey-erp/bcs-estimating/internal/observability"
	"github.com/odyssey-erp/bcs-estimating/internal/platform/cache"
	"github.com/odyssey-erp/bcs-estimating/internal/platform/db"
	"github.com/odyssey-erp/bcs-estimating/internal/pricingrules"
	"github.com/odyssey-erp/bcs-estimating/internal/shared"
	"github.com/odyssey-erp/bcs-estimating/jobs"
	"github.com/odyssey-erp/bcs-estimating/report"
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

	pool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Warn("redis unavailable, pricing rules will be read uncached", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	catalogService := catalog.NewService(catalog.NewRepository(pool), logger)

	ruleRepo := pricingrules.NewRepository(pool)
	ruleCache := cache.NewVersioned(redisClient, "bcs:pricing-rule", cfg.RuleCacheTTL)
	resolver := pricingrules.NewResolver(ruleRepo, ruleCache, cfg.DefaultPricingRuleID, logger)
	ruleService := pricingrules.NewService(ruleRepo, resolver, logger)

	estimateService := estimates.NewService(estimates.NewRepository(pool), catalogService, resolver, logger)

	pdfClient := report.NewClient(cfg.GotenbergURL)
	docOpts, err := cfg.DocumentOptions()
	if err != nil {
		logger.Error("document options", slog.Any("error", err))
		os.Exit(1)
	}
	renderer, err := estimates.NewRenderer(pdfClient, docOpts)
	if err != nil {
		logger.Error("init estimate renderer", slog.Any("error", err))
		os.Exit(1)
	}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		Metrics:             metrics,
		CatalogHandler:      catalog.NewHandler(logger, catalogService),
		PricingRulesHandler: pricingrules.NewHandler(logger, ruleService),
		EstimatesHandler:    estimates.NewHandler(logger, estimateService, renderer).WithIdempotency(shared.NewIdempotencyStore(pool)),
		ReportHandler:       report.NewHandler(pdfClient, logger),
		JobHandler:          jobs.NewHandler(inspector, jobClient, logger),
		Readiness: map[string]app.Pinger{
			"postgres": pool,
			"redis": app.PingFunc(func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			}),
		},
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
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
