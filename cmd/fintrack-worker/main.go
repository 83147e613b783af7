package main

import (
	"context"
	"errors"
	"os"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/analytics"
	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/log"
	"fintrack/internal/sheets"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/worker"

	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentWorker)
	logger.Info("Starting fintrack-worker", log.FieldOperation, log.OpStartup)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required to consume ledger events")
		os.Exit(1)
	}
	if cfg.DataBackend == backend.MemoryBackend.String() {
		logger.Warn("Memory backend is process-local; the worker only sees the seed data")
	}

	ctx, cancel := cli.ShutdownContext(logger)
	defer cancel()

	result := cli.InitBackend(ctx, logger, cfg, false)
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Failed to close data store", log.FieldError, err.Error())
		}
	}()

	// Google Sheets export is optional
	var exporter sheets.TransactionExporter
	if cfg.SheetsEnabled() {
		client, err := gsheet.New(ctx, gsheet.Options{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err.Error())
			os.Exit(1)
		}
		exporter = client
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err.Error())
		os.Exit(1)
	}
	defer amqpClient.Close()

	engine := analytics.New(analytics.WithMoneyFormatter(
		analytics.NewMoneyFormatter(cfg.LanguageTag(), cfg.CurrencyLabel)))
	alerts := worker.NewAlertWorker(result.Store, engine, exporter, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.Consume(gctx, alerts.HandleEvent)
	})
	g.Go(func() error {
		return sweepLoop(gctx, logger, alerts, cfg.WorkerSweepInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped", log.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete", log.FieldOperation, log.OpShutdown)
}

// sweepLoop re-checks every budget at startup and then on each tick, so
// alerts missed while the worker was down are still raised.
func sweepLoop(ctx context.Context, logger *log.Logger, alerts *worker.AlertWorker, interval time.Duration) error {
	sweep := func() {
		usages, err := alerts.Sweep(ctx)
		if err != nil {
			logger.Error("Budget sweep failed", log.FieldError, err.Error(), log.FieldOperation, log.OpSweep)
			return
		}
		logger.Debug("Budget sweep completed", "alerts", len(usages), log.FieldOperation, log.OpSweep)
	}

	sweep()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			sweep()
		}
	}
}
