package analytics

import (
	"testing"

	"github.com/shopspring/decimal"

	"spendwise/internal/core"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestPriceOf(t *testing.T) {
	rates := core.MarketRates{Gold: dec("2500"), USD: dec("32.5"), EUR: dec("35.1")}
	tests := []struct {
		name  string
		asset core.Asset
		want  string
	}{
		{"gold uses market rate", core.Asset{Type: core.Gold, AvgCost: dec("2000"), CurrentPrice: dec("1")}, "2500"},
		{"usd uses market rate", core.Asset{Type: core.USD, AvgCost: dec("30")}, "32.5"},
		{"cash is one", core.Asset{Type: core.CashAsset, AvgCost: dec("7")}, "1"},
		{"stock uses current price", core.Asset{Type: core.Stock, AvgCost: dec("100"), CurrentPrice: dec("120")}, "120"},
		{"crypto falls back to cost", core.Asset{Type: core.Crypto, AvgCost: dec("100")}, "100"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PriceOf(tt.asset, rates)
			if !got.Equal(dec(tt.want)) {
				t.Errorf("PriceOf() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestValuate(t *testing.T) {
	rates := core.MarketRates{Gold: dec("2500")}
	assets := []core.Asset{
		{Type: core.Gold, Name: "Gram", Amount: dec("10"), AvgCost: dec("2000")},
		{Type: core.Stock, Name: "THYAO", Amount: dec("2"), AvgCost: dec("100")},
	}
	got := Valuate(assets, rates)
	if len(got.Holdings) != 2 {
		t.Fatalf("expected 2 holdings, got %d", len(got.Holdings))
	}
	h := got.Holdings[0]
	if !h.Value.Equal(dec("25000")) || !h.Profit.Equal(dec("5000")) || !h.ProfitPercent.Equal(dec("25")) {
		t.Errorf("unexpected gold holding %+v", h)
	}
	if !got.TotalValue.Equal(dec("25200")) || !got.TotalCost.Equal(dec("20200")) {
		t.Errorf("unexpected totals value=%s cost=%s", got.TotalValue, got.TotalCost)
	}
	if !got.TotalProfit.Equal(dec("5000")) {
		t.Errorf("TotalProfit = %s, want 5000", got.TotalProfit)
	}
	if !got.TotalProfitRate.Equal(dec("24.75")) {
		t.Errorf("TotalProfitRate = %s, want 24.75", got.TotalProfitRate)
	}
}

func TestValuateEmpty(t *testing.T) {
	got := Valuate(nil, core.MarketRates{})
	if !got.TotalValue.IsZero() || !got.TotalProfitRate.IsZero() {
		t.Fatalf("expected zero portfolio, got %+v", got)
	}
}
