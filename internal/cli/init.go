// Package cli provides common CLI initialization utilities.
// This package consolidates repeated initialization patterns across
// cmd/spendwise, cmd/spendwise-worker and cmd/billing-worker.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"spendwise/internal/amqp"
	"spendwise/internal/auth"
	"spendwise/internal/backend"
	"spendwise/internal/config"
	"spendwise/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT
// and installs it as the slog default.
func SetupLogger(cfg *config.Config, component string) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Format:    log.Format(cfg.LogFormat),
		Component: component,
		Output:    os.Stdout,
	})
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *slog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// Backend is an opened document store plus the factory that opened it,
// kept so the Firebase verifier reuses the same app.
type Backend struct {
	*backend.Result
	Factory *backend.DefaultFactory
	Config  backend.Config
}

// OpenBackend opens the document store selected by DATA_BACKEND.
func OpenBackend(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Backend, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	factory := backend.NewFactory(logger.WithComponent(log.ComponentStorage).Logger)
	res, err := factory.CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, err
	}
	return &Backend{Result: res, Factory: factory, Config: bcfg}, nil
}

// NewVerifier returns the token verifier for AUTH_MODE.
func NewVerifier(ctx context.Context, cfg *config.Config, b *Backend) (auth.Verifier, error) {
	switch cfg.AuthMode {
	case config.AuthNone:
		return auth.StaticVerifier{ID: auth.Identity{UID: cfg.DevUserID}}, nil
	case config.AuthJWT:
		return auth.NewJWTVerifier(cfg.JWTSecret, cfg.JWTIssuer)
	case config.AuthFirebase:
		app, err := b.Factory.FirebaseApp(ctx, backend.FirebaseConfig(cfg))
		if err != nil {
			return nil, fmt.Errorf("firebase app: %w", err)
		}
		return auth.NewFirebaseVerifier(ctx, app)
	default:
		return nil, fmt.Errorf("unsupported auth mode: %s", cfg.AuthMode)
	}
}

// ConnectEvents connects the transaction event publisher. It returns nil
// when AMQP_URL is empty, or when the broker is unreachable and
// AMQP_REQUIRED is false.
func ConnectEvents(cfg *config.Config, logger *slog.Logger) (*amqp.Client, error) {
	if cfg.AMQPURL == "" {
		logger.Info("AMQP disabled - transaction events will not be published")
		return nil, nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		if cfg.AMQPRequired {
			return nil, fmt.Errorf("amqp: %w", err)
		}
		logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		return nil, nil
	}
	logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client, nil
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *slog.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}

		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup ran.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
