// Package analytics holds the pure reductions behind every report: month
// summaries, budget status, trends, insights, the health score and
// portfolio valuation. Nothing here performs I/O.
package analytics

import (
	"sort"

	"spendwise/internal/core"
)

// CategoryShare is the expense total of one category and its share of
// all expenses in the period.
type CategoryShare struct {
	Category   string     `json:"category"`
	Amount     core.Money `json:"amount"`
	Percentage float64    `json:"percentage"`
}

// Totals is the income and expense sum of a set of transactions.
type Totals struct {
	Income  core.Money `json:"totalIncome"`
	Expense core.Money `json:"totalExpense"`
	Balance core.Money `json:"balance"`
}

// MonthSummary is the dashboard view of one month.
type MonthSummary struct {
	Month string `json:"month"`
	Totals
	Categories []CategoryShare `json:"categories"`
	Count      int             `json:"count"`
}

// FilterByMonth keeps transactions whose date key starts with month
// (YYYY-MM). CreatedAt stands in for a missing date.
func FilterByMonth(txs []core.Transaction, month string) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.InMonth(month) {
			out = append(out, tx)
		}
	}
	return out
}

// Sum computes income, expense and balance. Balance is always
// Income - Expense.
func Sum(txs []core.Transaction) Totals {
	var t Totals
	for _, tx := range txs {
		switch tx.Type {
		case core.Income:
			t.Income = t.Income.Add(tx.Amount)
		case core.Expense:
			t.Expense = t.Expense.Add(tx.Amount)
		}
	}
	t.Balance = t.Income.Sub(t.Expense)
	return t
}

// GlobalBalance is the all-time balance.
func GlobalBalance(txs []core.Transaction) core.Money {
	return Sum(txs).Balance
}

// Summarize builds the month summary of month (YYYY-MM).
func Summarize(txs []core.Transaction, month string) MonthSummary {
	inMonth := FilterByMonth(txs, month)
	totals := Sum(inMonth)
	return MonthSummary{
		Month:      month,
		Totals:     totals,
		Categories: CategoryBreakdown(inMonth),
		Count:      len(inMonth),
	}
}

// CategoryBreakdown sums expenses per category, largest first. Income is
// ignored. Ties are ordered by category name.
func CategoryBreakdown(txs []core.Transaction) []CategoryShare {
	sums := expenseByCategory(txs)
	var total core.Money
	for _, amount := range sums {
		total = total.Add(amount)
	}

	out := make([]CategoryShare, 0, len(sums))
	for category, amount := range sums {
		out = append(out, CategoryShare{
			Category:   category,
			Amount:     amount,
			Percentage: core.Percent(amount, total),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Category < out[j].Category
	})
	return out
}

func expenseByCategory(txs []core.Transaction) map[string]core.Money {
	sums := make(map[string]core.Money)
	for _, tx := range txs {
		if !tx.IsExpense() {
			continue
		}
		c := tx.CategoryOrDefault()
		sums[c] = sums[c].Add(tx.Amount)
	}
	return sums
}

func expenseTotal(txs []core.Transaction) core.Money {
	var total core.Money
	for _, tx := range txs {
		if tx.IsExpense() {
			total = total.Add(tx.Amount)
		}
	}
	return total
}
