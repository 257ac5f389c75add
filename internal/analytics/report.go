package analytics

import (
	"fmt"
	"math"
	"time"

	"spendwise/internal/core"
)

type Direction string

const (
	Up     Direction = "up"
	Down   Direction = "down"
	Flat   Direction = "flat"
	NoData Direction = "no_data"
)

// MonthComparison sets the current month against the previous one.
type MonthComparison struct {
	CurrentMonth  string    `json:"currentMonth"`
	PreviousMonth string    `json:"previousMonth"`
	Current       Totals    `json:"current"`
	Previous      Totals    `json:"previous"`
	ExpenseChange float64   `json:"expenseChange"`
	Direction     Direction `json:"direction"`
}

// SpendingSplit divides expenses into needs and wants.
type SpendingSplit struct {
	Needs        core.Money `json:"needs"`
	Wants        core.Money `json:"wants"`
	NeedsPercent float64    `json:"needsPercent"`
	WantsPercent float64    `json:"wantsPercent"`
}

// ReportAnalysis is the narrative report of the current month.
type ReportAnalysis struct {
	Comparison            MonthComparison `json:"comparison"`
	Narrative             string          `json:"narrative"`
	Anomalies             []Anomaly       `json:"anomalies"`
	Split                 SpendingSplit   `json:"split"`
	MonthlySaving         core.Money      `json:"monthlySaving"`
	ProjectedYearlySaving core.Money      `json:"projectedYearlySaving"`
	Health                HealthScore     `json:"health"`
}

// SplitNeedsWants classifies expenses with core.IsNeed.
func SplitNeedsWants(txs []core.Transaction) SpendingSplit {
	var s SpendingSplit
	for _, tx := range txs {
		if !tx.IsExpense() {
			continue
		}
		if core.IsNeed(tx.CategoryOrDefault()) {
			s.Needs = s.Needs.Add(tx.Amount)
		} else {
			s.Wants = s.Wants.Add(tx.Amount)
		}
	}
	total := s.Needs.Add(s.Wants)
	s.NeedsPercent = core.Percent(s.Needs, total)
	s.WantsPercent = core.Percent(s.Wants, total)
	return s
}

// Compare builds the month-over-month comparison for now.
func Compare(txs []core.Transaction, now time.Time) MonthComparison {
	cur, prev := currentAndPreviousMonth(now)
	c := MonthComparison{
		CurrentMonth:  cur,
		PreviousMonth: prev,
		Current:       Sum(FilterByMonth(txs, cur)),
		Previous:      Sum(FilterByMonth(txs, prev)),
	}
	switch {
	case c.Previous.Expense.Cents == 0:
		c.Direction = NoData
	case c.Current.Expense.Cents > c.Previous.Expense.Cents:
		c.Direction = Up
	case c.Current.Expense.Cents < c.Previous.Expense.Cents:
		c.Direction = Down
	default:
		c.Direction = Flat
	}
	if c.Previous.Expense.Cents > 0 {
		diff := c.Current.Expense.Cents - c.Previous.Expense.Cents
		c.ExpenseChange = float64(diff) * 100 / float64(c.Previous.Expense.Cents)
	}
	return c
}

// Analyze builds the full report of the month containing now.
func Analyze(txs []core.Transaction, now time.Time) ReportAnalysis {
	cmp := Compare(txs, now)
	saving := cmp.Current.Balance
	return ReportAnalysis{
		Comparison:            cmp,
		Narrative:             narrate(cmp),
		Anomalies:             DetectAnomalies(txs, now),
		Split:                 SplitNeedsWants(FilterByMonth(txs, cmp.CurrentMonth)),
		MonthlySaving:         saving,
		ProjectedYearlySaving: core.Cents(saving.Cents * 12),
		Health:                Health(txs, now),
	}
}

func narrate(c MonthComparison) string {
	change := math.Abs(c.ExpenseChange)
	switch c.Direction {
	case Up:
		return fmt.Sprintf("Your spending is up %.0f%% compared to last month.", change)
	case Down:
		return fmt.Sprintf("Your spending is down %.0f%% compared to last month.", change)
	case Flat:
		return "Your spending is the same as last month."
	}
	if c.Current.Expense.Cents > 0 {
		return "No expenses were recorded last month to compare with."
	}
	return "Not enough data to compare with last month yet."
}
