package services

import (
	"context"
	"fmt"
	"strings"

	"spendwise/internal/amqp"
	"spendwise/internal/core"
)

// EventPublisher announces transaction changes to other processes.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, ev *amqp.TransactionEvent) error
}

// TransactionService stores transactions and publishes their events.
type TransactionService struct {
	store  *Store
	events EventPublisher
	opts   options
}

// NewTransactionService creates the service. events may be nil, in which
// case nothing is published.
func NewTransactionService(store *Store, events EventPublisher, opts ...Option) *TransactionService {
	return &TransactionService{store: store, events: events, opts: buildOptions(opts)}
}

func (s *TransactionService) List(ctx context.Context, owner string) ([]core.Transaction, error) {
	return s.store.Transactions.List(ctx, owner)
}

// Create validates tx, saves it, then publishes a created event. A
// failed publish is logged and does not fail the call.
func (s *TransactionService) Create(ctx context.Context, owner string, tx core.Transaction) (core.Transaction, error) {
	if err := ensureOwner(owner); err != nil {
		return tx, err
	}
	tx.Title = strings.TrimSpace(tx.Title)
	tx.Category = strings.TrimSpace(tx.Category)
	if tx.PaymentMethod == "" {
		tx.PaymentMethod = core.Cash
	}
	if tx.PaymentMethod != core.CreditCard {
		tx.CardName = ""
	}
	if err := tx.Validate(); err != nil {
		return tx, invalid(err)
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = s.opts.now().UTC()
	}

	saved, err := s.store.Transactions.Add(ctx, owner, tx)
	if err != nil {
		return tx, fmt.Errorf("save transaction: %w", err)
	}
	s.publish(ctx, amqp.NewCreatedEvent(saved))
	return saved, nil
}

// Delete removes the transaction and publishes a deleted event.
func (s *TransactionService) Delete(ctx context.Context, owner, id string) error {
	if err := s.store.Transactions.Delete(ctx, owner, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.publish(ctx, amqp.NewDeletedEvent(owner, id))
	return nil
}

func (s *TransactionService) publish(ctx context.Context, ev *amqp.TransactionEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishTransactionEvent(ctx, ev); err != nil {
		s.opts.logger.ErrorContext(ctx, "Failed to publish transaction event",
			"type", ev.Type,
			"transaction_id", ev.TransactionID,
			"error", err)
	}
}
