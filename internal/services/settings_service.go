package services

import (
	"context"
	"errors"
	"fmt"

	"spendwise/internal/core"
	"spendwise/internal/docstore"
)

// SettingsService reads and upserts the settings document of an owner,
// whose id is the owner itself.
type SettingsService struct {
	store *Store
	opts  options
}

func NewSettingsService(store *Store, opts ...Option) *SettingsService {
	return &SettingsService{store: store, opts: buildOptions(opts)}
}

// Get returns the stored settings, or the defaults when none were saved.
func (s *SettingsService) Get(ctx context.Context, owner string) (core.UserSettings, error) {
	if err := ensureOwner(owner); err != nil {
		return core.UserSettings{}, err
	}
	st, err := s.store.Settings.Get(ctx, owner, owner)
	if errors.Is(err, docstore.ErrNotFound) {
		return core.DefaultSettings(owner), nil
	}
	if err != nil {
		return st, err
	}
	return st, nil
}

// Update replaces the editable preferences. Market rates are only
// written by SaveRates and are kept.
func (s *SettingsService) Update(ctx context.Context, owner string, in core.UserSettings) (core.UserSettings, error) {
	if err := in.Validate(); err != nil {
		return in, invalid(err)
	}
	return s.modify(ctx, owner, func(st *core.UserSettings) error {
		rates := st.MarketRates
		*st = in
		st.MarketRates = rates
		if st.ExpenseCategories == nil {
			st.ExpenseCategories = []string{}
		}
		if st.IncomeCategories == nil {
			st.IncomeCategories = []string{}
		}
		if st.CreditCards == nil {
			st.CreditCards = []string{}
		}
		return nil
	})
}

func (s *SettingsService) AddCategory(ctx context.Context, owner string, kind core.TransactionType, name string) (core.UserSettings, error) {
	return s.modify(ctx, owner, func(st *core.UserSettings) error { return st.AddCategory(kind, name) })
}

func (s *SettingsService) RemoveCategory(ctx context.Context, owner string, kind core.TransactionType, name string) (core.UserSettings, error) {
	return s.modify(ctx, owner, func(st *core.UserSettings) error { return st.RemoveCategory(kind, name) })
}

func (s *SettingsService) AddCard(ctx context.Context, owner, name string) (core.UserSettings, error) {
	return s.modify(ctx, owner, func(st *core.UserSettings) error { return st.AddCard(name) })
}

func (s *SettingsService) RemoveCard(ctx context.Context, owner, name string) (core.UserSettings, error) {
	return s.modify(ctx, owner, func(st *core.UserSettings) error { return st.RemoveCard(name) })
}

// SaveRates stores market rates, fetched or entered by hand, into the
// owner's settings.
func (s *SettingsService) SaveRates(ctx context.Context, owner string, rates core.MarketRates) error {
	if err := rates.Validate(); err != nil {
		return invalid(err)
	}
	_, err := s.modify(ctx, owner, func(st *core.UserSettings) error {
		st.MarketRates = rates
		return nil
	})
	return err
}

func (s *SettingsService) modify(ctx context.Context, owner string, fn func(*core.UserSettings) error) (core.UserSettings, error) {
	st, err := s.Get(ctx, owner)
	if err != nil {
		return st, err
	}
	if err := fn(&st); err != nil {
		return st, settingsError(err)
	}
	st.UpdatedAt = s.opts.now().UTC()
	return s.store.Settings.Set(ctx, owner, owner, st)
}

func settingsError(err error) error {
	switch {
	case errors.Is(err, core.ErrDuplicateEntry):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	case errors.Is(err, core.ErrUnknownEntry):
		return fmt.Errorf("%w: %w", docstore.ErrNotFound, err)
	}
	return invalid(err)
}
