// Package services holds the use cases of the ledger. Each service works
// on typed collections of one document backend and is scoped to the
// owner passed in by the caller.
package services

import (
	"log/slog"
	"time"

	"spendwise/internal/core"
	"spendwise/internal/docstore"
)

// Store bundles the typed collections of a backend.
type Store struct {
	Transactions  *docstore.Collection[core.Transaction, *core.Transaction]
	Planned       *docstore.Collection[core.PlannedTransaction, *core.PlannedTransaction]
	Budgets       *docstore.Collection[core.Budget, *core.Budget]
	Subscriptions *docstore.Collection[core.Subscription, *core.Subscription]
	Assets        *docstore.Collection[core.Asset, *core.Asset]
	Settings      *docstore.Collection[core.UserSettings, *core.UserSettings]

	backend docstore.Backend
}

func NewStore(b docstore.Backend) *Store {
	return &Store{
		Transactions:  docstore.NewCollection[core.Transaction](b, docstore.Transactions),
		Planned:       docstore.NewCollection[core.PlannedTransaction](b, docstore.Planned),
		Budgets:       docstore.NewCollection[core.Budget](b, docstore.Budgets),
		Subscriptions: docstore.NewCollection[core.Subscription](b, docstore.Subscriptions),
		Assets:        docstore.NewCollection[core.Asset](b, docstore.Assets),
		Settings:      docstore.NewCollection[core.UserSettings](b, docstore.Settings),
		backend:       b,
	}
}

// Backend returns the underlying document backend.
func (s *Store) Backend() docstore.Backend { return s.backend }

func (s *Store) Close() error { return s.backend.Close() }

// Option configures a service.
type Option func(*options)

type options struct {
	now    func() time.Time
	logger *slog.Logger
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ensureOwner rejects calls without an authenticated owner.
func ensureOwner(owner string) error {
	if owner == "" {
		return docstore.ErrMissingOwner
	}
	return nil
}
