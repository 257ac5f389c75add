package main

import (
	"context"
	"log/slog"
	"os"

	"spendwise/internal/cli"
	"spendwise/internal/log"
	"spendwise/internal/services"
)

func main() {
	cli.LoadEnvFile()

	boot := slog.New(slog.NewTextHandler(os.Stdout, nil))
	cfg := cli.LoadAndValidateConfig(boot)
	logger := cli.SetupLogger(cfg, log.ComponentBilling)

	logger.Info("Starting billing-worker")

	b, err := cli.OpenBackend(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to open data backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer b.Cleanup()

	amqpClient, err := cli.ConnectEvents(cfg, logger.WithComponent(log.ComponentAMQP).Logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	var events services.EventPublisher
	if amqpClient != nil {
		defer amqpClient.Close()
		events = amqpClient
	}

	store := services.NewStore(b.Store)
	opts := []services.Option{services.WithLogger(logger.Logger)}
	txs := services.NewTransactionService(store, events, opts...)
	processor := services.NewBillingProcessor(store, txs, services.BillingConfig{
		Interval: cfg.BillingInterval,
	}, opts...)

	ctx, done := cli.GracefulShutdown(logger.Logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := processor.Stop(ctx); err != nil {
			logger.Error("Error stopping billing processor", "error", err)
		}
	})

	logger.Info("Billing processor configured",
		"interval", cfg.BillingInterval,
		"backend", cfg.DataBackend)

	if err := processor.Start(ctx); err != nil {
		logger.Error("Failed to start billing processor", "error", err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Billing worker stopped")
}
