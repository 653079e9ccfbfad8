package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/backend"
	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	"fintrack/internal/services"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/smsparser"
	"fintrack/internal/storage"
	"fintrack/internal/store"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, "fintrack")

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize blob backend", "error", err, "backend", cfg.BlobBackend)
		os.Exit(1)
	}
	defer func() {
		if result.Cleanup == nil {
			return
		}
		if err := result.Cleanup(); err != nil {
			logger.Warn("Blob backend cleanup failed", "error", err)
		}
	}()

	st := store.New(store.Empty())

	persisterCfg := services.DefaultPersisterConfig()
	persisterCfg.Key = cfg.StateKey
	persisterCfg.Debounce = cfg.SaveDebounce
	persister := services.NewPersister(result.Backend, st, persisterCfg)
	persister.Restore(ctx)

	inbox := services.NewInbox(100)
	notifiers := services.MultiNotifier{inbox}

	var amqpClient *amqp.Client
	if cfg.AMQPEnabled() {
		amqpClient, err = amqp.NewClient(amqp.Config{
			URL:                    cfg.AMQPURL,
			ExchangeName:           cfg.AMQPExchange,
			SMSQueue:               cfg.SMSQueue,
			NotificationRoutingKey: cfg.NotificationRoutingKey,
		})
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		notifiers = append(notifiers, worker.NewAMQPNotifier(amqpClient))
		logger.Info("AMQP enabled", "exchange", cfg.AMQPExchange, "sms_queue", cfg.SMSQueue)
	} else {
		notifiers = append(notifiers, services.LogNotifier{})
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	parser := smsparser.New(time.Now)
	ingestor := services.NewIngestor(st, parser, smsparser.NewSenderFilter(cfg.SMSSenderAllowlist), notifiers)
	alerts := services.NewBudgetAlerts(st, notifiers, services.AlertsConfig{Schedule: cfg.BudgetCheckSchedule})

	var exporter *services.LedgerExporter
	if cfg.SheetsEnabled() {
		sheetsClient, err := gsheet.New(ctx, gsheet.Options{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			LedgerSheet:     cfg.GoogleLedgerSheet,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		exporter = services.NewLedgerExporter(sheetsClient, st, services.DefaultExporterConfig())
		logger.Info("Ledger export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleLedgerSheet)
	} else {
		logger.Info("Ledger export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	deps := apphttp.Deps{
		Store:              st,
		Ingestor:           ingestor,
		Inbox:              inbox,
		Persister:          persister,
		Exporter:           exporter,
		Logger:             logger,
		StateKey:           cfg.StateKey,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}
	if repo, ok := result.Backend.(*storage.SQLiteRepository); ok {
		deps.History = repo
	}
	if pinger, ok := result.Backend.(backend.Pinger); ok {
		deps.Pinger = pinger
	}
	srv := apphttp.NewServer(":"+cfg.Port, deps)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Detached from the signal so saves continue while the server drains.
	if err := persister.Start(context.WithoutCancel(ctx)); err != nil {
		logger.Error("Failed to start persister", "error", err)
		os.Exit(1)
	}
	if err := alerts.Start(ctx); err != nil {
		logger.Error("Failed to start budget alerts", "error", err)
		os.Exit(1)
	}
	if exporter != nil {
		if err := exporter.Start(ctx); err != nil {
			logger.Error("Failed to start ledger exporter", "error", err)
			os.Exit(1)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting fintrack server", "port", cfg.Port, "backend", cfg.BlobBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if amqpClient != nil {
		smsWorker := worker.NewSmsWorker(ingestor, amqpClient)
		g.Go(func() error {
			if err := smsWorker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if exporter != nil {
			if err := exporter.Stop(shutdownCtx); err != nil {
				logger.Error("Ledger exporter stop error", "error", err)
			}
		}
		if err := alerts.Stop(shutdownCtx); err != nil {
			logger.Error("Budget alerts stop error", "error", err)
		}
		// Last, so the final save includes changes made while draining.
		if err := persister.Stop(shutdownCtx); err != nil {
			logger.Error("Persister stop error", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("fintrack stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("fintrack stopped gracefully")
}
