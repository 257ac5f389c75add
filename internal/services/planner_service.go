package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"spendwise/internal/core"
	"spendwise/internal/schedule"
)

// maxConcurrentCreates bounds the writes of one planned series.
const maxConcurrentCreates = 4

// SeriesRequest asks for a draft repeated count times.
type SeriesRequest struct {
	Draft      core.PlannedTransaction
	Recurrence schedule.Recurrence
	Count      int
}

// PlannerService manages planned transactions.
type PlannerService struct {
	store        *Store
	transactions *TransactionService
	opts         options
}

func NewPlannerService(store *Store, transactions *TransactionService, opts ...Option) *PlannerService {
	return &PlannerService{store: store, transactions: transactions, opts: buildOptions(opts)}
}

func (s *PlannerService) List(ctx context.Context, owner string) ([]core.PlannedTransaction, error) {
	return s.store.Planned.List(ctx, owner)
}

// CreateSeries expands req into its entries and stores each one on its
// own. Creates are independent: when some fail, the entries that were
// stored are returned together with the joined errors.
func (s *PlannerService) CreateSeries(ctx context.Context, owner string, req SeriesRequest) ([]core.PlannedTransaction, error) {
	if err := ensureOwner(owner); err != nil {
		return nil, err
	}
	draft := req.Draft
	draft.Title = strings.TrimSpace(draft.Title)
	draft.IsCompleted = false
	draft.TransactionID = ""
	if err := draft.Validate(); err != nil {
		return nil, invalid(err)
	}
	entries, err := schedule.ExpandSeries(draft, req.Recurrence, req.Count)
	if err != nil {
		return nil, invalid(err)
	}

	now := s.opts.now().UTC()
	saved := make([]core.PlannedTransaction, len(entries))
	errs := make([]error, len(entries))
	var g errgroup.Group
	g.SetLimit(maxConcurrentCreates)
	for i, entry := range entries {
		entry.CreatedAt = now
		g.Go(func() error {
			saved[i], errs[i] = s.store.Planned.Add(ctx, owner, entry)
			return nil
		})
	}
	_ = g.Wait()

	out := make([]core.PlannedTransaction, 0, len(entries))
	for i := range entries {
		if errs[i] == nil {
			out = append(out, saved[i])
		}
	}
	if err := errors.Join(errs...); err != nil {
		s.opts.logger.WarnContext(ctx, "Planned series partially stored",
			"requested", len(entries), "stored", len(out), "error", err)
		return out, fmt.Errorf("create planned series: %w", err)
	}
	return out, nil
}

// Complete realizes a pending planned transaction: the spawned
// transaction is stored first, then the item is marked completed.
func (s *PlannerService) Complete(ctx context.Context, owner, id string) (core.Transaction, error) {
	p, err := s.store.Planned.Get(ctx, owner, id)
	if err != nil {
		return core.Transaction{}, err
	}
	if p.IsCompleted {
		return core.Transaction{}, ErrAlreadyCompleted
	}
	tx, err := s.transactions.Create(ctx, owner, p.Realize(s.opts.now().UTC()))
	if err != nil {
		return core.Transaction{}, err
	}
	fields := map[string]any{"isCompleted": true, "transactionId": tx.ID}
	if err := s.store.Planned.Update(ctx, owner, id, fields); err != nil {
		return tx, fmt.Errorf("mark planned completed: %w", err)
	}
	return tx, nil
}

func (s *PlannerService) Delete(ctx context.Context, owner, id string) error {
	return s.store.Planned.Delete(ctx, owner, id)
}
