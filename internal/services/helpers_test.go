package services

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"spendwise/internal/amqp"
	"spendwise/internal/core"
	"spendwise/internal/docstore/memory"
)

var testNow = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

type fakePublisher struct {
	mu     sync.Mutex
	events []*amqp.TransactionEvent
	err    error
}

func (f *fakePublisher) PublishTransactionEvent(_ context.Context, ev *amqp.TransactionEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

func (f *fakePublisher) types() []amqp.EventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]amqp.EventType, len(f.events))
	for i, ev := range f.events {
		out[i] = ev.Type
	}
	return out
}

// failingStore rejects adds whose JSON contains marker.
type failingStore struct {
	*memory.Store
	marker []byte
}

var errInjected = errors.New("injected failure")

func (f *failingStore) Add(ctx context.Context, collection, owner string, data []byte) (string, error) {
	if bytes.Contains(data, f.marker) {
		return "", errInjected
	}
	return f.Store.Add(ctx, collection, owner, data)
}

type fixture struct {
	store         *Store
	events        *fakePublisher
	transactions  *TransactionService
	planner       *PlannerService
	subscriptions *SubscriptionService
	budgets       *BudgetService
	settings      *SettingsService
	reports       *ReportService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, NewStore(memory.New(memory.WithClock(fixedClock))))
}

func newFixtureWith(t *testing.T, store *Store) *fixture {
	t.Helper()
	t.Cleanup(func() { _ = store.Close() })
	events := &fakePublisher{}
	clock := WithClock(fixedClock)
	txs := NewTransactionService(store, events, clock)
	return &fixture{
		store:         store,
		events:        events,
		transactions:  txs,
		planner:       NewPlannerService(store, txs, clock),
		subscriptions: NewSubscriptionService(store, txs, clock),
		budgets:       NewBudgetService(store, clock),
		settings:      NewSettingsService(store, clock),
		reports:       NewReportService(store, clock),
	}
}

func expense(title string, cents int64, category string, date core.Date) core.Transaction {
	return core.Transaction{
		Title:    title,
		Amount:   core.Cents(cents),
		Type:     core.Expense,
		Category: category,
		Date:     date,
	}
}

func income(title string, cents int64, date core.Date) core.Transaction {
	return core.Transaction{Title: title, Amount: core.Cents(cents), Type: core.Income, Date: date}
}

func mustCreate(t *testing.T, f *fixture, owner string, tx core.Transaction) core.Transaction {
	t.Helper()
	saved, err := f.transactions.Create(context.Background(), owner, tx)
	if err != nil {
		t.Fatalf("Create(%s) error = %v", tx.Title, err)
	}
	return saved
}
