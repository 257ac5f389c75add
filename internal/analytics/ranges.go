package analytics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"spendwise/internal/core"
)

// Range is a reporting window ending now.
type Range string

const (
	OneMonth    Range = "1M"
	ThreeMonths Range = "3M"
	SixMonths   Range = "6M"
	OneYear     Range = "1Y"
	AllTime     Range = "ALL"
)

// TopCategoryCount is the number of categories listed in range reports.
const TopCategoryCount = 6

var rangeMonths = map[Range]int{
	OneMonth:    1,
	ThreeMonths: 3,
	SixMonths:   6,
	OneYear:     12,
	AllTime:     0,
}

// ParseRange reads a range, defaulting to six months.
func ParseRange(s string) (Range, error) {
	r := Range(strings.ToUpper(strings.TrimSpace(s)))
	if r == "" {
		return SixMonths, nil
	}
	if _, ok := rangeMonths[r]; !ok {
		return "", fmt.Errorf("unknown range %q", s)
	}
	return r, nil
}

// Start is the first day included in the range, empty for AllTime.
func (r Range) Start(now time.Time) core.Date {
	n := rangeMonths[r]
	if n == 0 {
		return core.Date{}
	}
	return core.DateOf(now).AddMonths(-n)
}

// MonthTotals is one month of a range report.
type MonthTotals struct {
	Month   string     `json:"month"`
	Income  core.Money `json:"income"`
	Expense core.Money `json:"expense"`
}

// CardShare is the credit-card spend of one card.
type CardShare struct {
	Card       string     `json:"card"`
	Amount     core.Money `json:"amount"`
	Percentage float64    `json:"percentage"`
}

// RangeReport is the reports page of a time range.
type RangeReport struct {
	Range Range     `json:"range"`
	From  core.Date `json:"from"`
	Totals
	SavingsRate   float64         `json:"savingsRate"`
	Monthly       []MonthTotals   `json:"monthly"`
	TopCategories []CategoryShare `json:"topCategories"`
	Cards         []CardShare     `json:"cards"`
}

// BuildRangeReport summarizes the transactions dated on or after the
// range start.
func BuildRangeReport(txs []core.Transaction, r Range, now time.Time) RangeReport {
	from := r.Start(now)
	inRange := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		d := tx.EffectiveDate()
		if d.IsEmpty() || (!from.IsEmpty() && d.Before(from.Time)) {
			continue
		}
		inRange = append(inRange, tx)
	}

	totals := Sum(inRange)
	top := CategoryBreakdown(inRange)
	if len(top) > TopCategoryCount {
		top = top[:TopCategoryCount]
	}
	return RangeReport{
		Range:         r,
		From:          from,
		Totals:        totals,
		SavingsRate:   savingsRate(totals.Income, totals.Expense),
		Monthly:       monthlyTotals(inRange),
		TopCategories: top,
		Cards:         CardBreakdown(inRange),
	}
}

func monthlyTotals(txs []core.Transaction) []MonthTotals {
	byMonth := make(map[string]*MonthTotals)
	for _, tx := range txs {
		key := tx.EffectiveDate().MonthKey()
		m, ok := byMonth[key]
		if !ok {
			m = &MonthTotals{Month: key}
			byMonth[key] = m
		}
		switch tx.Type {
		case core.Income:
			m.Income = m.Income.Add(tx.Amount)
		case core.Expense:
			m.Expense = m.Expense.Add(tx.Amount)
		}
	}
	out := make([]MonthTotals, 0, len(byMonth))
	for _, m := range byMonth {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// CardBreakdown splits credit-card expenses by card name, largest first.
func CardBreakdown(txs []core.Transaction) []CardShare {
	sums := make(map[string]core.Money)
	var total core.Money
	for _, tx := range txs {
		if !tx.IsExpense() || tx.PaymentMethod != core.CreditCard {
			continue
		}
		card := strings.TrimSpace(tx.CardName)
		if card == "" {
			card = core.DefaultCardName
		}
		sums[card] = sums[card].Add(tx.Amount)
		total = total.Add(tx.Amount)
	}
	out := make([]CardShare, 0, len(sums))
	for card, amount := range sums {
		out = append(out, CardShare{Card: card, Amount: amount, Percentage: core.Percent(amount, total)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Card < out[j].Card
	})
	return out
}
