package services

import (
	"context"
	"fmt"
	"strings"

	"spendwise/internal/analytics"
	"spendwise/internal/core"
)

// RateSource fetches market rates expressed in base. Rates may answer
// from a cache; Refresh always goes upstream.
type RateSource interface {
	Rates(ctx context.Context, base string) (core.MarketRates, error)
	Refresh(ctx context.Context, base string) (core.MarketRates, error)
}

// PortfolioService manages assets and values them with the market rates
// kept in the owner's settings.
type PortfolioService struct {
	store    *Store
	settings *SettingsService
	rates    RateSource
	opts     options
}

func NewPortfolioService(store *Store, settings *SettingsService, rates RateSource, opts ...Option) *PortfolioService {
	return &PortfolioService{store: store, settings: settings, rates: rates, opts: buildOptions(opts)}
}

func (s *PortfolioService) List(ctx context.Context, owner string) ([]core.Asset, error) {
	return s.store.Assets.List(ctx, owner)
}

func (s *PortfolioService) Create(ctx context.Context, owner string, a core.Asset) (core.Asset, error) {
	if err := ensureOwner(owner); err != nil {
		return a, err
	}
	a.Name = strings.TrimSpace(a.Name)
	if err := a.Validate(); err != nil {
		return a, invalid(err)
	}
	a.CreatedAt = s.opts.now().UTC()
	return s.store.Assets.Add(ctx, owner, a)
}

// Update replaces an existing asset, keeping its creation time.
func (s *PortfolioService) Update(ctx context.Context, owner, id string, a core.Asset) (core.Asset, error) {
	a.Name = strings.TrimSpace(a.Name)
	if err := a.Validate(); err != nil {
		return a, invalid(err)
	}
	cur, err := s.store.Assets.Get(ctx, owner, id)
	if err != nil {
		return a, err
	}
	a.CreatedAt = cur.CreatedAt
	return s.store.Assets.Set(ctx, owner, id, a)
}

func (s *PortfolioService) Delete(ctx context.Context, owner, id string) error {
	return s.store.Assets.Delete(ctx, owner, id)
}

// RefreshRates fetches rates in the owner's currency and stores them in
// the owner's settings. Unless force is set, rates fetched recently for any
// owner are reused. When the fetch fails the stored rates are returned
// unchanged along with the error.
func (s *PortfolioService) RefreshRates(ctx context.Context, owner string, force bool) (core.MarketRates, error) {
	st, err := s.settings.Get(ctx, owner)
	if err != nil {
		return core.MarketRates{}, err
	}
	if s.rates == nil {
		return st.MarketRates, fmt.Errorf("refresh market rates: no rate source configured")
	}
	fetch := s.rates.Rates
	if force {
		fetch = s.rates.Refresh
	}
	rates, err := fetch(ctx, st.Currency)
	if err != nil {
		s.opts.logger.WarnContext(ctx, "Market refresh failed, keeping stored rates",
			"currency", st.Currency, "updated_at", st.MarketRates.UpdatedAt, "error", err)
		return st.MarketRates, fmt.Errorf("refresh market rates: %w", err)
	}
	if err := s.settings.SaveRates(ctx, owner, rates); err != nil {
		return rates, fmt.Errorf("save market rates: %w", err)
	}
	return rates, nil
}

// SetRates stores rates entered by hand, stamped with the current time.
func (s *PortfolioService) SetRates(ctx context.Context, owner string, rates core.MarketRates) (core.MarketRates, error) {
	if err := ensureOwner(owner); err != nil {
		return rates, err
	}
	rates.UpdatedAt = s.opts.now().UTC()
	if err := s.settings.SaveRates(ctx, owner, rates); err != nil {
		return rates, err
	}
	return rates, nil
}

// Portfolio values every asset of owner with the stored rates.
func (s *PortfolioService) Portfolio(ctx context.Context, owner string) (analytics.Portfolio, error) {
	var (
		assets []core.Asset
		st     core.UserSettings
	)
	err := loadAll(ctx,
		func(ctx context.Context) (err error) {
			assets, err = s.store.Assets.List(ctx, owner)
			return err
		},
		func(ctx context.Context) (err error) {
			st, err = s.settings.Get(ctx, owner)
			return err
		},
	)
	if err != nil {
		return analytics.Portfolio{}, err
	}
	return analytics.Valuate(assets, st.MarketRates), nil
}
