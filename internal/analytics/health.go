package analytics

import (
	"math"
	"time"

	"spendwise/internal/core"
)

const (
	// MinTransactionsForScore is the history needed before scoring.
	MinTransactionsForScore = 5
	// InsufficientDataScore is reported until then.
	InsufficientDataScore = 60

	baseScore       = 50
	maxBalanceBonus = 20
)

// HealthScore is the 0-100 financial health heuristic of a month.
type HealthScore struct {
	Score            int     `json:"score"`
	SavingsRate      float64 `json:"savingsRate"`
	NeedsPercent     float64 `json:"needsPercent"`
	WantsPercent     float64 `json:"wantsPercent"`
	Overspending     bool    `json:"overspending"`
	InsufficientData bool    `json:"insufficientData"`
}

// Health scores the current month of now. The whole history counts
// toward the minimum transaction count.
func Health(txs []core.Transaction, now time.Time) HealthScore {
	cur, _ := currentAndPreviousMonth(now)
	month := FilterByMonth(txs, cur)
	totals := Sum(month)
	split := SplitNeedsWants(month)
	return ScoreHealth(totals.Income, totals.Expense, split.Needs, len(txs))
}

// ScoreHealth applies the scoring rules:
//
//	start at 50
//	savings rate >= 20%: +30, >= 10%: +15, > 0: +5
//	up to +20 as needs% approaches 50
//	+10 when expenses do not exceed income, else -20
//
// The result is clamped to [0, 100], and is 60 when fewer than
// MinTransactionsForScore transactions exist.
func ScoreHealth(income, expense, needs core.Money, count int) HealthScore {
	h := HealthScore{
		SavingsRate:  savingsRate(income, expense),
		NeedsPercent: core.Percent(needs, expense),
		Overspending: expense.Cents > income.Cents,
	}
	if expense.Cents > 0 {
		h.WantsPercent = 100 - h.NeedsPercent
	}
	if count < MinTransactionsForScore {
		h.Score = InsufficientDataScore
		h.InsufficientData = true
		return h
	}

	score := baseScore
	switch {
	case h.SavingsRate >= 20:
		score += 30
	case h.SavingsRate >= 10:
		score += 15
	case h.SavingsRate > 0:
		score += 5
	}
	if expense.Cents > 0 {
		closeness := 1 - math.Abs(h.NeedsPercent-50)/50
		score += int(math.Round(maxBalanceBonus * math.Max(0, closeness)))
	}
	if h.Overspending {
		score -= 20
	} else {
		score += 10
	}
	h.Score = min(100, max(0, score))
	return h
}

func savingsRate(income, expense core.Money) float64 {
	if income.Cents <= 0 {
		return 0
	}
	return float64(income.Cents-expense.Cents) * 100 / float64(income.Cents)
}
