package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"fintrack/internal/analytics"
	"fintrack/internal/cli"
	"fintrack/internal/log"
	"fintrack/internal/report"
	"fintrack/internal/services"
)

func main() {
	asJSON := flag.Bool("json", false, "print the report as JSON instead of a styled summary")
	flag.Parse()

	cfg, logger := cli.Bootstrap(log.ComponentReport)
	ctx := context.Background()

	result := cli.InitBackend(ctx, logger, cfg, false)
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Failed to close data store", log.FieldError, err.Error())
		}
	}()

	money := analytics.NewMoneyFormatter(cfg.LanguageTag(), cfg.CurrencyLabel)
	engine := analytics.New(analytics.WithMoneyFormatter(money))
	advisor := services.NewAdvisorService(result.Store, nil, engine, nil, logger)

	r, err := advisor.Report(ctx)
	if err != nil {
		logger.Error("Failed to build report", log.FieldError, err.Error(), log.FieldOperation, log.OpAnalyze)
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r); err != nil {
			logger.Error("Failed to encode report", log.FieldError, err.Error())
			os.Exit(1)
		}
		return
	}
	fmt.Println(report.New(money).Render(r))
}
