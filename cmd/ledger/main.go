package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"ledger/internal/cache"
	"ledger/internal/cli"
	apphttp "ledger/internal/http"
	"ledger/internal/log"
	"ledger/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// Change events are optional; the ledger works without a broker.
	var publisher services.EventPublisher
	if amqpClient := cli.InitAMQP(logger, cfg); amqpClient != nil {
		defer amqpClient.Close()
		publisher = amqpClient
	}

	views := cache.NewYearViews(cfg.GridCacheSize, cfg.GridCacheTTL)
	cacheManager := cache.NewManager()
	cacheManager.Register(views)
	cacheManager.StartCleanup(cfg.GridCacheTTL)

	ledger := services.NewLedgerService(repo, publisher, views)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:              ":" + cfg.Port,
		Ledger:            ledger,
		Tools:             repo,
		Health:            repo,
		Views:             views,
		Logger:            logger,
		CurrencySymbol:    cfg.CurrencySymbol,
		RequestsPerMinute: cfg.RateLimitPerMinute,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cacheManager.Stop()
	})

	logger.Info("Starting ledger server",
		"port", cfg.Port,
		"db", cfg.SQLiteDBPath,
		"amqp", cfg.AMQPEnabled())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
