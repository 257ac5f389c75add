package services

import (
	"context"
	"errors"
	"sort"
	"testing"

	"spendwise/internal/core"
	"spendwise/internal/docstore/memory"
	"spendwise/internal/schedule"
)

func plannedDraft() core.PlannedTransaction {
	return core.PlannedTransaction{
		Title:  "Rent",
		Amount: core.Cents(1500000),
		Type:   core.Expense,
		Date:   core.NewDate(2025, 1, 31),
	}
}

func byDate(items []core.PlannedTransaction) []core.PlannedTransaction {
	sort.Slice(items, func(i, j int) bool { return items[i].Date.Before(items[j].Date.Time) })
	return items
}

func TestCreateSeriesMonthly(t *testing.T) {
	f := newFixture(t)
	got, err := f.planner.CreateSeries(context.Background(), "u1", SeriesRequest{
		Draft:      plannedDraft(),
		Recurrence: schedule.Monthly,
		Count:      3,
	})
	if err != nil {
		t.Fatalf("CreateSeries() error = %v", err)
	}
	got = byDate(got)
	want := []struct {
		title string
		date  string
	}{
		{"Rent (1/3)", "2025-01-31"},
		{"Rent (2/3)", "2025-02-28"},
		{"Rent (3/3)", "2025-03-31"},
	}
	if len(got) != len(want) {
		t.Fatalf("CreateSeries() len = %d, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Title != w.title || got[i].Date.String() != w.date {
			t.Errorf("entry %d = %q %s, want %q %s", i, got[i].Title, got[i].Date, w.title, w.date)
		}
		if got[i].ID == "" || got[i].IsCompleted {
			t.Errorf("entry %d id=%q completed=%v", i, got[i].ID, got[i].IsCompleted)
		}
	}
}

func TestCreateSeriesSingle(t *testing.T) {
	f := newFixture(t)
	draft := plannedDraft()
	draft.IsCompleted = true
	got, err := f.planner.CreateSeries(context.Background(), "u1", SeriesRequest{Draft: draft, Recurrence: schedule.None})
	if err != nil {
		t.Fatalf("CreateSeries() error = %v", err)
	}
	if len(got) != 1 || got[0].Title != "Rent" || got[0].IsCompleted {
		t.Errorf("CreateSeries() = %+v", got)
	}
}

func TestCreateSeriesRejects(t *testing.T) {
	tests := []struct {
		name string
		req  SeriesRequest
	}{
		{"missing date", SeriesRequest{Draft: core.PlannedTransaction{Title: "x", Amount: core.Cents(1), Type: core.Expense}}},
		{"count too large", SeriesRequest{Draft: plannedDraft(), Recurrence: schedule.Weekly, Count: schedule.MaxOccurrences + 1}},
		{"unknown recurrence", SeriesRequest{Draft: plannedDraft(), Recurrence: "daily"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if _, err := f.planner.CreateSeries(context.Background(), "u1", tt.req); !errors.Is(err, ErrInvalid) {
				t.Errorf("CreateSeries() error = %v, want %v", err, ErrInvalid)
			}
		})
	}
}

func TestCreateSeriesPartialFailure(t *testing.T) {
	backend := &failingStore{Store: memory.New(), marker: []byte("(2/3)")}
	f := newFixtureWith(t, NewStore(backend))

	got, err := f.planner.CreateSeries(context.Background(), "u1", SeriesRequest{
		Draft:      plannedDraft(),
		Recurrence: schedule.Weekly,
		Count:      3,
	})
	if !errors.Is(err, errInjected) {
		t.Fatalf("CreateSeries() error = %v, want %v", err, errInjected)
	}
	if len(got) != 2 {
		t.Errorf("CreateSeries() stored %d, want 2", len(got))
	}
	stored, _ := f.planner.List(context.Background(), "u1")
	if len(stored) != 2 {
		t.Errorf("List() = %d entries, want 2", len(stored))
	}
}

func TestCompletePlanned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.planner.CreateSeries(ctx, "u1", SeriesRequest{Draft: plannedDraft()})
	if err != nil {
		t.Fatalf("CreateSeries() error = %v", err)
	}
	id := created[0].ID

	tx, err := f.planner.Complete(ctx, "u1", id)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if tx.PaymentMethod != core.Cash || tx.Title != "Rent" || tx.Date.String() != "2025-01-31" {
		t.Errorf("Complete() transaction = %+v", tx)
	}

	p, err := f.store.Planned.Get(ctx, "u1", id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !p.IsCompleted || p.TransactionID != tx.ID {
		t.Errorf("planned after complete = completed %v, transaction %q", p.IsCompleted, p.TransactionID)
	}

	if _, err := f.planner.Complete(ctx, "u1", id); !errors.Is(err, ErrAlreadyCompleted) || !errors.Is(err, ErrConflict) {
		t.Errorf("second Complete() error = %v, want %v", err, ErrAlreadyCompleted)
	}
	txs, _ := f.transactions.List(ctx, "u1")
	if len(txs) != 1 {
		t.Errorf("transactions = %d, want 1", len(txs))
	}
}
