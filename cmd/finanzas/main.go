package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"finanzas/internal/backend"
	"finanzas/internal/cache"
	"finanzas/internal/cli"
	"finanzas/internal/core"
	"finanzas/internal/extract"
	apphttp "finanzas/internal/http"
	applog "finanzas/internal/log"
	"finanzas/internal/seed"
	"finanzas/internal/services"
	gsheet "finanzas/internal/sheets/google"
)

func main() {
	logger, cfg := cli.Bootstrap(applog.ComponentApp)
	ctx := context.Background()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		cli.Fatal(logger.Logger, "Invalid backend configuration", err)
	}
	be, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		cli.Fatal(logger.Logger, "Failed to create backend", err, "backend", cfg.DataBackend)
	}

	defaults, err := seed.Load(cfg.SeedFile)
	if err != nil {
		cli.Fatal(logger.Logger, "Failed to load seed defaults", err, "path", cfg.SeedFile)
	}

	transfers := services.NewTransferCoordinator(be.Store, be.Publisher, services.TransferConfig{
		Attempts:  cfg.TransferRetryAttempts,
		BaseDelay: cfg.TransferRetryBase,
	})
	deps := apphttp.Deps{
		Transactions:    services.NewTransactionService(be.Store, transfers, be.Publisher),
		Transfers:       transfers,
		Installments:    services.NewInstallmentService(be.Store, be.Publisher, core.FromUnits(int64(cfg.InstallmentRoundingUnit))),
		Budgets:         services.NewBudgetService(be.Store),
		Categories:      services.NewCategoryService(be.Store),
		Goals:           services.NewGoalService(be.Store),
		Dashboard:       services.NewDashboardService(be.Store),
		Seeder:          services.NewSeeder(be.Store, defaults),
		DefaultUserID:   cfg.DefaultUserID,
		RequestTimeout:  cfg.RequestTimeout,
		WritesPerMinute: cfg.WritesPerMinute,
		Logger:          logger.WithComponent(applog.ComponentHTTP),
	}

	janitor := cache.NewJanitor()
	if cfg.ExtractionEnabled() {
		gemini, drafts, err := extract.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.ExtractCacheSize, cfg.ExtractCacheTTL)
		if err != nil {
			cli.Fatal(logger.Logger, "Failed to initialize extraction client", err, "model", cfg.GeminiModel)
		}
		deps.Extractor = gemini
		janitor.Register(drafts)
		logger.Info("Receipt and voice extraction enabled", "model", cfg.GeminiModel)
	} else {
		logger.Info("Extraction disabled - no GEMINI_API_KEY provided")
	}

	if cfg.SheetsEnabled() {
		exporter, err := gsheet.NewExporter(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleExportSheet)
		if err != nil {
			cli.Fatal(logger.Logger, "Failed to initialize Google Sheets exporter", err)
		}
		deps.Sheets = exporter
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	srv := apphttp.NewServer(":"+cfg.Port, deps)
	srv.ReadTimeout = 30 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	runCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		if err := be.Close(); err != nil {
			logger.Error("Backend cleanup error", applog.FieldError, err)
		}
	})
	go janitor.Run(runCtx, 10*time.Minute)

	logger.Info("Starting finanzas server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"amqp", be.Publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		cli.Fatal(logger.Logger, "Server error", err, "port", cfg.Port)
	}

	cli.WaitForShutdown(runCtx, done)
}
