package analytics

import (
	"fmt"
	"time"

	"spendwise/internal/core"
)

// DefaultTrendMonths is the window used when none is requested.
const DefaultTrendMonths = 6

// TrendBucket is one calendar month of the trend chart.
type TrendBucket struct {
	Key         string     `json:"key"`
	Label       string     `json:"label"`
	Income      core.Money `json:"income"`
	ExpenseCash core.Money `json:"expenseCash"`
	ExpenseCard core.Money `json:"expenseCard"`
}

// TrendEnd returns the last month of a trend anchored on year: the
// current month for the current year, December otherwise.
func TrendEnd(year int, now time.Time) (int, int) {
	if year == now.Year() {
		return year, int(now.Month())
	}
	return year, 12
}

// BuildTrend returns months consecutive buckets ending at TrendEnd,
// oldest first. Credit-card expenses go to ExpenseCard, every other
// expense to ExpenseCash. Months without data stay zero.
func BuildTrend(txs []core.Transaction, year, months int, now time.Time) []TrendBucket {
	if months <= 0 {
		months = DefaultTrendMonths
	}
	endYear, endMonth := TrendEnd(year, now)

	buckets := make([]TrendBucket, months)
	index := make(map[string]int, months)
	y, m := endYear, endMonth
	for i := months - 1; i >= 0; i-- {
		key := core.MonthKey(y, m)
		buckets[i] = TrendBucket{Key: key, Label: monthLabel(y, m)}
		index[key] = i
		y, m = core.PreviousMonth(y, m)
	}

	for _, tx := range txs {
		date := tx.EffectiveDate()
		if date.IsEmpty() {
			continue
		}
		i, ok := index[date.MonthKey()]
		if !ok {
			continue
		}
		b := &buckets[i]
		switch {
		case tx.IsIncome():
			b.Income = b.Income.Add(tx.Amount)
		case tx.PaymentMethod == core.CreditCard:
			b.ExpenseCard = b.ExpenseCard.Add(tx.Amount)
		default:
			b.ExpenseCash = b.ExpenseCash.Add(tx.Amount)
		}
	}
	return buckets
}

func monthLabel(year, month int) string {
	return fmt.Sprintf("%s %d", time.Month(month).String()[:3], year)
}
