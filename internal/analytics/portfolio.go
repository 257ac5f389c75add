package analytics

import (
	"github.com/shopspring/decimal"

	"spendwise/internal/core"
)

var hundred = decimal.NewFromInt(100)

// Holding is one asset marked to its current price.
type Holding struct {
	Asset         core.Asset      `json:"asset"`
	Price         decimal.Decimal `json:"price"`
	Value         decimal.Decimal `json:"value"`
	Cost          decimal.Decimal `json:"cost"`
	Profit        decimal.Decimal `json:"profit"`
	ProfitPercent decimal.Decimal `json:"profitPercent"`
}

// Portfolio is the valuation of all holdings of an owner.
type Portfolio struct {
	Holdings        []Holding        `json:"holdings"`
	Rates           core.MarketRates `json:"rates"`
	TotalValue      decimal.Decimal  `json:"totalValue"`
	TotalCost       decimal.Decimal  `json:"totalCost"`
	TotalProfit     decimal.Decimal  `json:"totalProfit"`
	TotalProfitRate decimal.Decimal  `json:"totalProfitRate"`
}

// PriceOf is the unit price used to value an asset: the shared market
// rate for gold, usd and eur, 1 for cash, and otherwise the asset's
// current price falling back to its average cost.
func PriceOf(a core.Asset, rates core.MarketRates) decimal.Decimal {
	if rate, ok := rates.RateFor(a.Type); ok {
		return rate
	}
	if a.CurrentPrice.IsPositive() {
		return a.CurrentPrice
	}
	return a.AvgCost
}

// Value marks one asset to market.
func Value(a core.Asset, rates core.MarketRates) Holding {
	price := PriceOf(a, rates)
	value := a.Amount.Mul(price)
	cost := a.Amount.Mul(a.AvgCost)
	profit := value.Sub(cost)
	return Holding{
		Asset:         a,
		Price:         price,
		Value:         value.Round(2),
		Cost:          cost.Round(2),
		Profit:        profit.Round(2),
		ProfitPercent: ratePercent(profit, cost),
	}
}

// Valuate marks every asset and totals the portfolio.
func Valuate(assets []core.Asset, rates core.MarketRates) Portfolio {
	p := Portfolio{
		Holdings:    make([]Holding, 0, len(assets)),
		Rates:       rates,
		TotalValue:  decimal.Zero,
		TotalCost:   decimal.Zero,
		TotalProfit: decimal.Zero,
	}
	for _, a := range assets {
		h := Value(a, rates)
		p.Holdings = append(p.Holdings, h)
		p.TotalValue = p.TotalValue.Add(h.Value)
		p.TotalCost = p.TotalCost.Add(h.Cost)
	}
	p.TotalProfit = p.TotalValue.Sub(p.TotalCost)
	p.TotalProfitRate = ratePercent(p.TotalProfit, p.TotalCost)
	return p
}

// ratePercent is part/whole*100 rounded to two places, zero when whole
// is not positive.
func ratePercent(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred).Round(2)
}
