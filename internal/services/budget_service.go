package services

import (
	"context"
	"strings"

	"spendwise/internal/analytics"
	"spendwise/internal/core"
)

// BudgetService manages the single budget per owner and category.
type BudgetService struct {
	store *Store
	opts  options
}

func NewBudgetService(store *Store, opts ...Option) *BudgetService {
	return &BudgetService{store: store, opts: buildOptions(opts)}
}

func (s *BudgetService) List(ctx context.Context, owner string) ([]core.Budget, error) {
	return s.store.Budgets.List(ctx, owner)
}

// Set creates or replaces the budget of category. The last write wins.
func (s *BudgetService) Set(ctx context.Context, owner, category string, limit core.Money) (core.Budget, error) {
	if err := ensureOwner(owner); err != nil {
		return core.Budget{}, err
	}
	b := core.Budget{
		Category:  strings.TrimSpace(category),
		Limit:     limit,
		UpdatedAt: s.opts.now().UTC(),
	}
	if err := b.Validate(); err != nil {
		return b, invalid(err)
	}
	return s.store.Budgets.Set(ctx, owner, core.BudgetID(owner, b.Category), b)
}

func (s *BudgetService) Delete(ctx context.Context, owner, id string) error {
	return s.store.Budgets.Delete(ctx, owner, id)
}

// Status evaluates the budgets of owner against the spend of month.
func (s *BudgetService) Status(ctx context.Context, owner, month string) (analytics.BudgetOverview, error) {
	var (
		budgets []core.Budget
		txs     []core.Transaction
	)
	err := loadAll(ctx,
		func(ctx context.Context) (err error) {
			budgets, err = s.store.Budgets.List(ctx, owner)
			return err
		},
		func(ctx context.Context) (err error) {
			txs, err = s.store.Transactions.List(ctx, owner)
			return err
		},
	)
	if err != nil {
		return analytics.BudgetOverview{}, err
	}
	return analytics.EvaluateBudgets(budgets, txs, month), nil
}
