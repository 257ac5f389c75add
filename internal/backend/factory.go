package backend

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	firebase "firebase.google.com/go/v4"

	"spendwise/internal/docstore"
	"spendwise/internal/docstore/firestore"
	"spendwise/internal/docstore/memory"
	"spendwise/internal/docstore/mongo"
	"spendwise/internal/firebaseapp"
	"spendwise/internal/storage"
)

// DefaultFactory implements the Factory interface. The Firebase app it
// opens for Firestore is shared with FirebaseApp callers.
type DefaultFactory struct {
	logger *slog.Logger

	appOnce sync.Once
	app     *firebase.App
	appErr  error
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) *DefaultFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

var _ Factory = (*DefaultFactory)(nil)

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLite:
		return f.createSQLiteBackend(config)
	case Firestore:
		return f.createFirestoreBackend(ctx, config)
	case Mongo:
		return f.createMongoBackend(ctx, config)
	case Memory:
		return f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// FirebaseApp returns the Firebase app for cfg, creating it once.
func (f *DefaultFactory) FirebaseApp(ctx context.Context, cfg firebaseapp.Config) (*firebase.App, error) {
	f.appOnce.Do(func() {
		f.app, f.appErr = firebaseapp.New(ctx, cfg)
	})
	return f.app, f.appErr
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &Result{
		Store:   docstore.Live(repo),
		Ping:    repo.Ping,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createFirestoreBackend(ctx context.Context, config Config) (*Result, error) {
	app, err := f.FirebaseApp(ctx, config.Firebase)
	if err != nil {
		return nil, err
	}
	store, err := firestore.New(ctx, app)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firestore backend: %w", err)
	}

	f.logger.Info("Initialized Firestore backend", "project_id", config.Firebase.ProjectID)

	return &Result{
		Store:   store,
		Cleanup: store.Close,
	}, nil
}

func (f *DefaultFactory) createMongoBackend(ctx context.Context, config Config) (*Result, error) {
	store, err := mongo.Connect(ctx, config.MongoURI, config.MongoDatabase)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Mongo backend: %w", err)
	}

	f.logger.Info("Initialized Mongo backend", "database", config.MongoDatabase)

	return &Result{
		Store:   docstore.Live(store),
		Ping:    store.Ping,
		Cleanup: store.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend() (*Result, error) {
	store := memory.New()

	f.logger.Info("Initialized memory backend")

	return &Result{
		Store:   docstore.Live(store),
		Cleanup: store.Close,
	}, nil
}
