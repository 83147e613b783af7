package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/analytics"
	"fintrack/internal/cache"
	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/services"

	"golang.org/x/sync/errgroup"
)

const reportCacheSize = 32

func main() {
	importSeed := flag.Bool("seed", false, "import the seed file into an empty SQLite database")
	flag.Parse()

	cfg, logger := cli.Bootstrap(log.ComponentApp)

	ctx, cancel := cli.ShutdownContext(logger)
	defer cancel()

	result := cli.InitBackend(ctx, logger, cfg, *importSeed)

	// Events are optional: without a broker the API still serves the ledger.
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, ledger events disabled", log.FieldError, err.Error())
		} else {
			publisher = client
			logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange)
		}
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	ledger := services.NewLedgerService(result.Store, publisher, logger)
	defer func() {
		if err := ledger.Close(); err != nil {
			logger.Error("Failed to close ledger", log.FieldError, err.Error())
		}
	}()

	engine := analytics.New(analytics.WithMoneyFormatter(
		analytics.NewMoneyFormatter(cfg.LanguageTag(), cfg.CurrencyLabel)))

	caches := cache.NewManager()
	defer caches.Stop()
	var reports cache.Cache[analytics.Report]
	if cfg.AnalyticsCacheTTL > 0 {
		lru := cache.NewLRUCache[analytics.Report](reportCacheSize, cfg.AnalyticsCacheTTL)
		caches.Register(lru)
		caches.StartCleanup(cfg.AnalyticsCacheTTL)
		reports = lru
	}

	advisor := services.NewAdvisorService(result.Store, ledger, engine, reports, logger)
	ledger.OnChange(advisor.Invalidate)

	srv := apphttp.NewServer(":"+cfg.Port, ledger, advisor, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
	})
	srv.MaxHeaderBytes = 1 << 16 // 64KB
	srv.Start()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting fintrack server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			log.FieldOperation, log.OpStartup)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		logger.Info("Shutting down server", log.FieldOperation, log.OpShutdown)
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
