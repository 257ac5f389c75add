// Package docstore is the owner-scoped document backend of the ledger.
//
// Records are stored as JSON documents grouped in named collections.
// Every document belongs to exactly one owner and every read except Scan
// is scoped to it.
package docstore

import (
	"context"
	"errors"
	"slices"
	"time"
)

// Collection names.
const (
	Transactions  = "transactions"
	Planned       = "planned_transactions"
	Budgets       = "budgets"
	Subscriptions = "subscriptions"
	Assets        = "investments"
	Settings      = "user_settings"
)

// Collections lists every collection, in the order they are served live.
var Collections = []string{Transactions, Planned, Budgets, Subscriptions, Assets, Settings}

var (
	ErrNotFound          = errors.New("document not found")
	ErrMissingOwner      = errors.New("document owner is required")
	ErrMissingID         = errors.New("document id is required")
	ErrUnknownCollection = errors.New("unknown collection")
	ErrClosed            = errors.New("store is closed")
)

// Document is one stored record. Data is the JSON encoding of the record.
type Document struct {
	ID        string
	Owner     string
	Data      []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Backend is the document storage port.
type Backend interface {
	// Query returns every document of owner in collection, oldest first.
	Query(ctx context.Context, collection, owner string) ([]Document, error)
	Get(ctx context.Context, collection, owner, id string) (Document, error)
	// Add stores a new document under a generated id.
	Add(ctx context.Context, collection, owner string, data []byte) (string, error)
	// Set creates or replaces the document with the given id.
	Set(ctx context.Context, collection, owner, id string, data []byte) error
	// Update merges top-level fields into an existing document.
	Update(ctx context.Context, collection, owner, id string, fields map[string]any) error
	Delete(ctx context.Context, collection, owner, id string) error
	// Scan returns the documents of every owner. Only background
	// workers use it.
	Scan(ctx context.Context, collection string) ([]Document, error)
	Close() error
}

// Watcher streams snapshots of an owner's collection. The first snapshot
// is sent right away, then one after every change. The channel is closed
// when ctx is done.
type Watcher interface {
	Watch(ctx context.Context, collection, owner string) (<-chan []Document, error)
}

// Store is a Backend with live queries.
type Store interface {
	Backend
	Watcher
}

// KnownCollection reports whether name is one of Collections.
func KnownCollection(name string) bool {
	return slices.Contains(Collections, name)
}

// CheckKey validates the owner and id of a single-document call.
func CheckKey(owner, id string) error {
	if owner == "" {
		return ErrMissingOwner
	}
	if id == "" {
		return ErrMissingID
	}
	return nil
}
