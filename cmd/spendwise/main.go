package main

import (
	"context"
	"log/slog"
	"os"

	"spendwise/internal/cli"
	apphttp "spendwise/internal/http"
	"spendwise/internal/log"
	"spendwise/internal/market"
	"spendwise/internal/services"
)

func main() {
	cli.LoadEnvFile()

	boot := slog.New(slog.NewTextHandler(os.Stdout, nil))
	cfg := cli.LoadAndValidateConfig(boot)
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	ctx := context.Background()

	b, err := cli.OpenBackend(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open data backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer b.Cleanup()

	verifier, err := cli.NewVerifier(ctx, cfg, b)
	if err != nil {
		logger.Error("Failed to initialize token verifier", "error", err, "auth_mode", cfg.AuthMode)
		os.Exit(1)
	}

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

	rates := market.New(market.Config{
		FiatURL:   cfg.MarketFiatURL,
		CryptoURL: cfg.MarketCryptoURL,
		Timeout:   cfg.MarketTimeout,
		CacheTTL:  cfg.MarketCacheTTL,
	})

	store := services.NewStore(b.Store)
	svcs := apphttp.NewServices(store, events, rates,
		services.WithLogger(logger.Logger))

	checks := map[string]apphttp.ReadyCheck{}
	if b.Ping != nil {
		checks["store"] = apphttp.ReadyCheck(b.Ping)
	}

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               cfg.Addr(),
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		AllowedOrigins:     cfg.CORSAllowedOrigins,
		TrustedProxies:     cfg.TrustedProxies,
		ViewCacheTTL:       cfg.ViewCacheTTL,
	}, apphttp.Deps{
		Services: svcs,
		Store:    store,
		Verifier: verifier,
		Logger:   logger,
		Checks:   checks,
	})

	shutdownCtx, done := cli.GracefulShutdown(logger.Logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})

	logger.Info("Starting spendwise server",
		"addr", cfg.Addr(),
		"backend", cfg.DataBackend,
		"auth_mode", cfg.AuthMode,
		"events", amqpClient != nil)
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("Server error", "error", err, "addr", cfg.Addr())
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
