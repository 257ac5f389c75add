package analytics

import (
	"sort"
	"time"

	"spendwise/internal/core"
)

var (
	// AnomalyMinAmount is the spend a grown category must exceed.
	AnomalyMinAmount = core.Cents(50000)
	// NewCategoryMinAmount is the spend a category absent last month must exceed.
	NewCategoryMinAmount = core.Cents(100000)
)

// Anomaly is a category whose spend jumped compared to last month.
type Anomaly struct {
	Category string     `json:"category"`
	Amount   core.Money `json:"amount"`
	Previous core.Money `json:"previous"`
	Increase float64    `json:"increase"`
}

// DetectAnomalies compares this month's category spend with last month's.
func DetectAnomalies(txs []core.Transaction, now time.Time) []Anomaly {
	cur, prev := currentAndPreviousMonth(now)
	return CompareCategories(
		expenseByCategory(FilterByMonth(txs, cur)),
		expenseByCategory(FilterByMonth(txs, prev)),
	)
}

// CompareCategories flags categories that grew more than 1.5x and above
// AnomalyMinAmount, and new categories above NewCategoryMinAmount (reported
// as a 100% increase). Largest increase first.
func CompareCategories(current, previous map[string]core.Money) []Anomaly {
	out := []Anomaly{}
	for category, amount := range current {
		last := previous[category]
		switch {
		case last.Cents > 0:
			if amount.Cents*2 > last.Cents*3 && amount.Cents > AnomalyMinAmount.Cents {
				out = append(out, Anomaly{
					Category: category,
					Amount:   amount,
					Previous: last,
					Increase: float64(amount.Cents-last.Cents) * 100 / float64(last.Cents),
				})
			}
		case amount.Cents > NewCategoryMinAmount.Cents:
			out = append(out, Anomaly{Category: category, Amount: amount, Increase: 100})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Increase != out[j].Increase {
			return out[i].Increase > out[j].Increase
		}
		return out[i].Category < out[j].Category
	})
	return out
}

func currentAndPreviousMonth(now time.Time) (string, string) {
	y, m := now.Year(), int(now.Month())
	py, pm := core.PreviousMonth(y, m)
	return core.MonthKey(y, m), core.MonthKey(py, pm)
}
