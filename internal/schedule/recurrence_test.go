package schedule

import (
	"errors"
	"testing"

	"spendwise/internal/core"
)

func draft() core.PlannedTransaction {
	return core.PlannedTransaction{
		Owner:  "u1",
		Title:  "Rent",
		Amount: core.Cents(500000),
		Type:   core.Expense,
		Date:   core.NewDate(2025, 1, 15),
	}
}

func TestExpandSeries(t *testing.T) {
	tests := []struct {
		name       string
		recurrence Recurrence
		count      int
		wantDates  []string
		wantTitles []string
	}{
		{
			name:       "monthly three",
			recurrence: Monthly,
			count:      3,
			wantDates:  []string{"2025-01-15", "2025-02-15", "2025-03-15"},
			wantTitles: []string{"Rent (1/3)", "Rent (2/3)", "Rent (3/3)"},
		},
		{
			name:       "weekly two",
			recurrence: Weekly,
			count:      2,
			wantDates:  []string{"2025-01-15", "2025-01-22"},
			wantTitles: []string{"Rent (1/2)", "Rent (2/2)"},
		},
		{
			name:       "single",
			recurrence: None,
			count:      5,
			wantDates:  []string{"2025-01-15"},
			wantTitles: []string{"Rent"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandSeries(draft(), tt.recurrence, tt.count)
			if err != nil {
				t.Fatalf("ExpandSeries() error = %v", err)
			}
			if len(got) != len(tt.wantDates) {
				t.Fatalf("ExpandSeries() len = %d, want %d", len(got), len(tt.wantDates))
			}
			for i, p := range got {
				if p.Date.String() != tt.wantDates[i] || p.Title != tt.wantTitles[i] {
					t.Errorf("entry %d = %s %q, want %s %q", i, p.Date, p.Title, tt.wantDates[i], tt.wantTitles[i])
				}
				if p.IsCompleted {
					t.Errorf("entry %d must start pending", i)
				}
			}
		})
	}
}

func TestExpandSeriesDefaultsAndLimits(t *testing.T) {
	got, err := ExpandSeries(draft(), Monthly, 0)
	if err != nil || len(got) != DefaultOccurrences {
		t.Fatalf("expected %d entries, got %d (err=%v)", DefaultOccurrences, len(got), err)
	}
	if got[11].Date.String() != "2025-12-15" {
		t.Fatalf("unexpected last date %s", got[11].Date)
	}
	if _, err := ExpandSeries(draft(), Monthly, -1); !errors.Is(err, ErrInvalidOccurrences) {
		t.Fatalf("expected range error, got %v", err)
	}
	if _, err := ExpandSeries(draft(), Monthly, MaxOccurrences+1); !errors.Is(err, ErrInvalidOccurrences) {
		t.Fatalf("expected range error, got %v", err)
	}
	if _, err := ExpandSeries(draft(), "daily", 2); err == nil {
		t.Fatalf("expected unknown recurrence error")
	}
}

func TestMonthlyStepperClampsEndOfMonth(t *testing.T) {
	start := core.NewDate(2025, 1, 31)
	want := []string{"2025-01-31", "2025-02-28", "2025-03-31", "2025-04-30"}
	for i, w := range want {
		if got := (MonthlyStepper{}).Step(start, i).String(); got != w {
			t.Errorf("Step(%d) = %s, want %s", i, got, w)
		}
	}
}
