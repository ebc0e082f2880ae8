package main

import (
	"context"
	"errors"
	"os"
	"time"

	"ledger/internal/cli"
	"ledger/internal/log"
	"ledger/internal/services"
	"ledger/internal/worker"

	"github.com/robfig/cron/v3"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	publisher := cli.InitGridPublisher(logger, cfg)

	// No view cache: the worker must never publish a grid older than the change it handles.
	ledger := services.NewLedgerService(repo, nil, nil)
	syncWorker := worker.NewGridSyncWorker(ledger, publisher)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.SheetsSyncSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := syncWorker.ResyncCurrentYear(ctx); err != nil {
			logger.Error("Scheduled resync failed", "error", err)
		}
	}); err != nil {
		logger.Error("Invalid sync schedule", "error", err, "schedule", cfg.SheetsSyncSchedule)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		select {
		case <-scheduler.Stop().Done():
		case <-shutdownCtx.Done():
		}
	})

	logger.Info("Starting ledger worker", "schedule", cfg.SheetsSyncSchedule)
	if err := syncWorker.ResyncCurrentYear(ctx); err != nil {
		logger.Error("Startup resync failed", "error", err)
	}
	scheduler.Start()

	if amqpClient := cli.InitAMQP(logger, cfg); amqpClient != nil {
		defer amqpClient.Close()
		go func() {
			err := amqpClient.ConsumeLedgerChanged(ctx, syncWorker.HandleLedgerChanged)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", "error", err)
			}
		}()
	} else {
		logger.Info("Running on schedule only - no change events without AMQP")
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
