// Package backend opens the document store selected by configuration.
package backend

import (
	"context"

	"spendwise/internal/docstore"
	"spendwise/internal/firebaseapp"
)

// CleanupFunc releases the resources of a backend.
type CleanupFunc func() error

// PingFunc reports whether the backend can serve requests.
type PingFunc func(ctx context.Context) error

// Result is an opened store. Store always supports live queries: backends
// without native change streams are wrapped with docstore.Live.
type Result struct {
	Store   docstore.Store
	Ping    PingFunc
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type Type

	// SQLite specific
	SQLiteDBPath string

	// Mongo specific
	MongoURI      string
	MongoDatabase string

	// Firestore specific
	Firebase firebaseapp.Config
}

// Type names a document backend.
type Type string

const (
	Memory    Type = "memory"
	SQLite    Type = "sqlite"
	Firestore Type = "firestore"
	Mongo     Type = "mongo"
)

// String implements fmt.Stringer
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is valid
func (t Type) IsValid() bool {
	switch t {
	case Memory, SQLite, Firestore, Mongo:
		return true
	default:
		return false
	}
}
