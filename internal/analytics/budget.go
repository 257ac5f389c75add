package analytics

import "spendwise/internal/core"

type BudgetStatus string

const (
	Safe      BudgetStatus = "safe"
	Attention BudgetStatus = "attention"
	Exceeded  BudgetStatus = "exceeded"
)

// BudgetReport is the evaluation of one category budget.
type BudgetReport struct {
	Category   string       `json:"category"`
	Limit      core.Money   `json:"limit"`
	Spent      core.Money   `json:"spent"`
	Remaining  core.Money   `json:"remaining"`
	Percentage float64      `json:"percentage"`
	Status     BudgetStatus `json:"status"`
}

// BudgetOverview aggregates the budgeted categories only.
type BudgetOverview struct {
	Month           string         `json:"month"`
	Items           []BudgetReport `json:"items"`
	TotalBudget     core.Money     `json:"totalBudget"`
	TotalSpent      core.Money     `json:"totalSpent"`
	TotalRemaining  core.Money     `json:"totalRemaining"`
	TotalPercentage float64        `json:"totalPercentage"`
}

// StatusFor classifies spend against a positive limit:
// below 75% is safe, from 75% up to the limit needs attention, and at or
// above the limit it is exceeded.
func StatusFor(spent, limit core.Money) BudgetStatus {
	switch {
	case spent.Cents >= limit.Cents:
		return Exceeded
	case spent.Cents*4 >= limit.Cents*3:
		return Attention
	default:
		return Safe
	}
}

// EvaluateBudget compares a category's spend with its limit.
func EvaluateBudget(category string, limit, spent core.Money) BudgetReport {
	return BudgetReport{
		Category:   category,
		Limit:      limit,
		Spent:      spent,
		Remaining:  limit.Sub(spent),
		Percentage: core.Percent(spent, limit),
		Status:     StatusFor(spent, limit),
	}
}

// EvaluateBudgets checks every budget with a positive limit against the
// month's expenses, keeping the order of budgets.
func EvaluateBudgets(budgets []core.Budget, txs []core.Transaction, month string) BudgetOverview {
	spend := expenseByCategory(FilterByMonth(txs, month))

	overview := BudgetOverview{Month: month, Items: []BudgetReport{}}
	for _, b := range budgets {
		if b.Limit.Cents <= 0 {
			continue
		}
		spent := spend[b.Category]
		overview.Items = append(overview.Items, EvaluateBudget(b.Category, b.Limit, spent))
		overview.TotalBudget = overview.TotalBudget.Add(b.Limit)
		overview.TotalSpent = overview.TotalSpent.Add(spent)
	}
	overview.TotalRemaining = overview.TotalBudget.Sub(overview.TotalSpent)
	overview.TotalPercentage = core.Percent(overview.TotalSpent, overview.TotalBudget)
	return overview
}
