package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"spendwise/internal/core"
	"spendwise/internal/market"
)

type fakeRates struct {
	rates     core.MarketRates
	err       error
	cached    int
	refreshed int
	base      string
}

func (f *fakeRates) Rates(_ context.Context, base string) (core.MarketRates, error) {
	f.cached++
	f.base = base
	return f.rates, f.err
}

func (f *fakeRates) Refresh(_ context.Context, base string) (core.MarketRates, error) {
	f.refreshed++
	f.base = base
	return f.rates, f.err
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestRefreshRates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	source := &fakeRates{rates: core.MarketRates{Gold: d("2768.98"), USD: d("32.5"), EUR: d("35.3261"), UpdatedAt: testNow}}
	portfolio := NewPortfolioService(f.store, f.settings, source, WithClock(fixedClock))

	got, err := portfolio.RefreshRates(ctx, "u1", false)
	if err != nil {
		t.Fatalf("RefreshRates() error = %v", err)
	}
	if source.cached != 1 || source.refreshed != 0 || source.base != core.DefaultCurrency {
		t.Errorf("source calls = %d cached, %d refreshed, base %q", source.cached, source.refreshed, source.base)
	}
	if !got.Gold.Equal(d("2768.98")) {
		t.Errorf("Gold = %v, want 2768.98", got.Gold)
	}
	st, _ := f.settings.Get(ctx, "u1")
	if !st.MarketRates.USD.Equal(d("32.5")) {
		t.Errorf("stored USD = %v, want 32.5", st.MarketRates.USD)
	}

	source.err = errors.New("upstream down")
	source.rates = core.MarketRates{}
	stale, err := portfolio.RefreshRates(ctx, "u1", false)
	if err == nil {
		t.Fatal("RefreshRates() error = nil, want failure")
	}
	if !stale.EUR.Equal(d("35.3261")) {
		t.Errorf("stale EUR = %v, want 35.3261", stale.EUR)
	}
	st, _ = f.settings.Get(ctx, "u1")
	if !st.MarketRates.Gold.Equal(d("2768.98")) {
		t.Errorf("stored Gold after failure = %v, want 2768.98", st.MarketRates.Gold)
	}
}

func TestPortfolioValuation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	portfolio := NewPortfolioService(f.store, f.settings, nil, WithClock(fixedClock))
	if err := f.settings.SaveRates(ctx, "u1", core.MarketRates{USD: d("30")}); err != nil {
		t.Fatalf("SaveRates() error = %v", err)
	}

	assets := []core.Asset{
		{Type: core.USD, Name: "Dollars", Amount: d("100"), AvgCost: d("25")},
		{Type: core.Stock, Name: "ACME", Amount: d("10"), AvgCost: d("50"), CurrentPrice: d("40")},
	}
	for _, a := range assets {
		if _, err := portfolio.Create(ctx, "u1", a); err != nil {
			t.Fatalf("Create(%s) error = %v", a.Name, err)
		}
	}

	p, err := portfolio.Portfolio(ctx, "u1")
	if err != nil {
		t.Fatalf("Portfolio() error = %v", err)
	}
	if !p.TotalValue.Equal(d("3400")) || !p.TotalCost.Equal(d("3000")) || !p.TotalProfit.Equal(d("400")) {
		t.Errorf("Portfolio() totals = %v/%v/%v, want 3400/3000/400", p.TotalValue, p.TotalCost, p.TotalProfit)
	}

	if _, err := portfolio.RefreshRates(ctx, "u1", false); err == nil {
		t.Error("RefreshRates() without a source succeeded")
	}
}

func TestUpdateAsset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	portfolio := NewPortfolioService(f.store, f.settings, nil, WithClock(fixedClock))
	a, err := portfolio.Create(ctx, "u1", core.Asset{Type: core.Gold, Name: "Coins", Amount: d("5"), AvgCost: d("2000")})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	a.Amount = d("7")
	got, err := portfolio.Update(ctx, "u1", a.ID, a)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !got.Amount.Equal(d("7")) || !got.CreatedAt.Equal(testNow) {
		t.Errorf("Update() = amount %v, created %v", got.Amount, got.CreatedAt)
	}

	a.Amount = decimal.Zero
	if _, err := portfolio.Update(ctx, "u1", a.ID, a); !errors.Is(err, core.ErrInvalidQuantity) {
		t.Errorf("Update(zero amount) error = %v, want %v", err, core.ErrInvalidQuantity)
	}
}

func TestRefreshRatesForceUsesOwnerCurrency(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st := core.DefaultSettings("u1")
	st.Currency = "USD"
	if _, err := f.settings.Update(ctx, "u1", st); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	source := &fakeRates{rates: core.MarketRates{USD: d("1"), UpdatedAt: testNow}}
	portfolio := NewPortfolioService(f.store, f.settings, source, WithClock(fixedClock))

	if _, err := portfolio.RefreshRates(ctx, "u1", true); err != nil {
		t.Fatalf("RefreshRates() error = %v", err)
	}
	if source.refreshed != 1 || source.cached != 0 {
		t.Errorf("source calls = %d cached, %d refreshed, want a forced refresh", source.cached, source.refreshed)
	}
	if source.base != "USD" {
		t.Errorf("base = %q, want USD", source.base)
	}
}

func TestRefreshRatesSharesFetchAcrossOwners(t *testing.T) {
	var hits int32
	mux := http.NewServeMux()
	mux.HandleFunc("/fiat", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(`{"result":"success","rates":{"USD":1,"TRY":32.5,"EUR":0.92}}`))
	})
	mux.HandleFunc("/crypto", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"pax-gold":{"usd":2650}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	f := newFixture(t)
	ctx := context.Background()
	client := market.New(market.Config{FiatURL: srv.URL + "/fiat", CryptoURL: srv.URL + "/crypto", CacheTTL: time.Minute})
	portfolio := NewPortfolioService(f.store, f.settings, client, WithClock(fixedClock))

	for _, owner := range []string{"u1", "u2"} {
		rates, err := portfolio.RefreshRates(ctx, owner, false)
		if err != nil {
			t.Fatalf("RefreshRates(%s) error = %v", owner, err)
		}
		if !rates.USD.Equal(d("32.5")) {
			t.Errorf("RefreshRates(%s) USD = %v, want 32.5", owner, rates.USD)
		}
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Errorf("upstream hits = %d, want 1 for two owners", n)
	}

	if _, err := portfolio.RefreshRates(ctx, "u1", true); err != nil {
		t.Fatalf("forced RefreshRates() error = %v", err)
	}
	if n := atomic.LoadInt32(&hits); n != 2 {
		t.Errorf("upstream hits = %d, want 2 after a forced refresh", n)
	}
}

func TestSetRatesValuesHoldings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	portfolio := NewPortfolioService(f.store, f.settings, nil, WithClock(fixedClock))
	if _, err := portfolio.Create(ctx, "u1", core.Asset{Type: core.Gold, Name: "Coins", Amount: d("10"), AvgCost: d("2000")}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := portfolio.SetRates(ctx, "u1", core.MarketRates{Gold: d("2500"), USD: d("34")})
	if err != nil {
		t.Fatalf("SetRates() error = %v", err)
	}
	if !got.UpdatedAt.Equal(testNow) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, testNow)
	}

	p, err := portfolio.Portfolio(ctx, "u1")
	if err != nil {
		t.Fatalf("Portfolio() error = %v", err)
	}
	if !p.TotalValue.Equal(d("25000")) || !p.TotalProfit.Equal(d("5000")) {
		t.Errorf("Portfolio() value/profit = %v/%v, want 25000/5000", p.TotalValue, p.TotalProfit)
	}

	if _, err := portfolio.SetRates(ctx, "u1", core.MarketRates{Gold: d("-1")}); !errors.Is(err, ErrInvalid) {
		t.Errorf("SetRates(negative) error = %v, want %v", err, ErrInvalid)
	}
	st, _ := f.settings.Get(ctx, "u1")
	if !st.MarketRates.Gold.Equal(d("2500")) {
		t.Errorf("stored Gold after rejected update = %v, want 2500", st.MarketRates.Gold)
	}
}
