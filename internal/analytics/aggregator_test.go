package analytics

import (
	"math"
	"testing"
	"time"

	"spendwise/internal/core"
)

func TestSummarize(t *testing.T) {
	txs := []core.Transaction{
		income(1000000, "2025-03-01"),
		expense("Market", 60000, "2025-03-05"),
		expense("Konut", 300000, "2025-03-02"),
		expense("", 40000, "2025-03-09"),
		expense("Market", 99900, "2025-02-27"),
		{Title: "undated", Amount: core.Cents(10000), Type: core.Expense, Category: "Market", CreatedAt: time.Date(2025, 3, 20, 8, 0, 0, 0, time.UTC)},
	}

	got := Summarize(txs, "2025-03")
	if got.Count != 5 {
		t.Fatalf("expected 5 transactions in month, got %d", got.Count)
	}
	if got.Income.Cents != 1000000 || got.Expense.Cents != 410000 || got.Balance.Cents != 590000 {
		t.Fatalf("unexpected totals %+v", got.Totals)
	}

	want := []struct {
		category string
		cents    int64
	}{
		{"Konut", 300000},
		{"Market", 70000},
		{core.DefaultCategory, 40000},
	}
	if len(got.Categories) != len(want) {
		t.Fatalf("expected %d categories, got %+v", len(want), got.Categories)
	}
	for i, w := range want {
		c := got.Categories[i]
		if c.Category != w.category || c.Amount.Cents != w.cents {
			t.Errorf("category %d = %s %d, want %s %d", i, c.Category, c.Amount.Cents, w.category, w.cents)
		}
	}
}

func TestBalanceIdentity(t *testing.T) {
	sets := [][]core.Transaction{
		nil,
		{income(100, "2025-01-01")},
		{expense("Market", 250, "2025-01-01")},
		{income(100, "2025-01-01"), expense("Market", 250, "2025-01-02"), income(75, "2025-02-01")},
	}
	for i, txs := range sets {
		s := Sum(txs)
		if s.Income.Cents-s.Expense.Cents != s.Balance.Cents {
			t.Errorf("set %d: income-expense != balance (%+v)", i, s)
		}
	}
}

func TestCategoryPercentagesSumTo100(t *testing.T) {
	txs := []core.Transaction{
		expense("Market", 33333, "2025-03-01"),
		expense("Fatura", 33333, "2025-03-01"),
		expense("Giyim", 33334, "2025-03-01"),
		income(5000, "2025-03-01"),
	}
	var sum float64
	for _, c := range CategoryBreakdown(txs) {
		sum += c.Percentage
	}
	if math.Abs(sum-100) > 1e-9 {
		t.Fatalf("percentages sum to %v, want 100", sum)
	}
	if len(CategoryBreakdown([]core.Transaction{income(100, "2025-03-01")})) != 0 {
		t.Fatalf("income must not produce categories")
	}
}

func TestGlobalBalanceSpansAllMonths(t *testing.T) {
	txs := []core.Transaction{
		income(500000, "2024-11-01"),
		expense("Market", 100000, "2025-03-01"),
	}
	if got := GlobalBalance(txs); got.Cents != 400000 {
		t.Fatalf("expected 4000.00, got %s", got)
	}
}
