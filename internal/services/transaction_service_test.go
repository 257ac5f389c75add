package services

import (
	"context"
	"errors"
	"testing"

	"spendwise/internal/amqp"
	"spendwise/internal/core"
	"spendwise/internal/docstore"
)

func TestTransactionCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tx := expense("  Groceries ", 4550, "Market", core.NewDate(2025, 3, 2))
	tx.CardName = "Bonus"
	saved, err := f.transactions.Create(ctx, "u1", tx)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if saved.ID == "" || saved.Owner != "u1" {
		t.Errorf("Create() identity = %q/%q", saved.ID, saved.Owner)
	}
	if saved.Title != "Groceries" {
		t.Errorf("Title = %q, want %q", saved.Title, "Groceries")
	}
	if saved.PaymentMethod != core.Cash {
		t.Errorf("PaymentMethod = %v, want %v", saved.PaymentMethod, core.Cash)
	}
	if saved.CardName != "" {
		t.Errorf("CardName = %q, want empty for cash", saved.CardName)
	}
	if !saved.CreatedAt.Equal(testNow) {
		t.Errorf("CreatedAt = %v, want %v", saved.CreatedAt, testNow)
	}

	list, err := f.transactions.List(ctx, "u1")
	if err != nil || len(list) != 1 {
		t.Fatalf("List() = %v, %v", list, err)
	}
	if other, _ := f.transactions.List(ctx, "u2"); len(other) != 0 {
		t.Errorf("List(u2) = %v, want empty", other)
	}
	if got := f.events.types(); len(got) != 1 || got[0] != amqp.TransactionCreated {
		t.Errorf("events = %v, want [created]", got)
	}
}

func TestTransactionCreateRejects(t *testing.T) {
	tests := []struct {
		name string
		tx   core.Transaction
		want error
	}{
		{"empty title", expense(" ", 100, "", core.Date{}), core.ErrEmptyTitle},
		{"zero amount", expense("x", 0, "", core.Date{}), core.ErrInvalidAmount},
		{"bad type", core.Transaction{Title: "x", Amount: core.Cents(1), Type: "transfer"}, core.ErrInvalidType},
		{"bad payment", core.Transaction{Title: "x", Amount: core.Cents(1), Type: core.Income, PaymentMethod: "cheque"}, core.ErrInvalidPayment},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.transactions.Create(context.Background(), "u1", tt.tx)
			if !errors.Is(err, ErrInvalid) || !errors.Is(err, tt.want) {
				t.Errorf("Create() error = %v, want %v", err, tt.want)
			}
			if n := len(f.events.types()); n != 0 {
				t.Errorf("published %d events for a rejected create", n)
			}
		})
	}
}

func TestTransactionCreateRequiresOwner(t *testing.T) {
	f := newFixture(t)
	_, err := f.transactions.Create(context.Background(), "", expense("x", 1, "", core.Date{}))
	if !errors.Is(err, docstore.ErrMissingOwner) {
		t.Errorf("Create() error = %v, want %v", err, docstore.ErrMissingOwner)
	}
}

func TestTransactionPublishFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.events.err = errors.New("broker down")
	if _, err := f.transactions.Create(context.Background(), "u1", expense("x", 100, "", core.Date{})); err != nil {
		t.Fatalf("Create() error = %v, want nil", err)
	}
	list, _ := f.transactions.List(context.Background(), "u1")
	if len(list) != 1 {
		t.Errorf("stored %d transactions, want 1", len(list))
	}
}

func TestTransactionDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	saved := mustCreate(t, f, "u1", expense("x", 100, "", core.Date{}))

	if err := f.transactions.Delete(ctx, "u2", saved.ID); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("Delete() by other owner error = %v, want %v", err, docstore.ErrNotFound)
	}
	if err := f.transactions.Delete(ctx, "u1", saved.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	got := f.events.types()
	if len(got) != 2 || got[1] != amqp.TransactionDeleted {
		t.Errorf("events = %v, want [created deleted]", got)
	}
}
