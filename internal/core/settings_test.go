package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings("u1")
	if err := s.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	if s.Theme != ThemeSystem || s.Currency != "TRY" || s.FiscalStartDay != 1 || s.DefaultPaymentMethod != Cash {
		t.Fatalf("unexpected defaults %+v", s)
	}
	if !s.EnableBudgetAlerts || !s.EnableSubscriptionAlerts {
		t.Fatalf("alerts must default on")
	}
	s.ExpenseCategories[0] = "changed"
	if DefaultExpenseCategories[0] != "Market" {
		t.Fatalf("defaults must be copied")
	}
}

func TestSettingsCategories(t *testing.T) {
	s := DefaultSettings("u1")
	if err := s.AddCategory(Expense, "  Pets "); err != nil {
		t.Fatalf("add: %v", err)
	}
	if s.ExpenseCategories[len(s.ExpenseCategories)-1] != "Pets" {
		t.Fatalf("expected trimmed category appended")
	}
	if err := s.AddCategory(Expense, "Pets"); !errors.Is(err, ErrDuplicateEntry) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if err := s.AddCategory(Income, "   "); !errors.Is(err, ErrEmptyCategory) {
		t.Fatalf("expected empty error, got %v", err)
	}
	if err := s.AddCategory(Expense, "Food/Drink"); !errors.Is(err, ErrSlashInName) {
		t.Fatalf("expected slash error, got %v", err)
	}
	if err := s.AddCategory("transfer", "x"); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("expected type error, got %v", err)
	}
	if err := s.RemoveCategory(Expense, "Pets"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := s.RemoveCategory(Expense, "Pets"); !errors.Is(err, ErrUnknownEntry) {
		t.Fatalf("expected unknown error, got %v", err)
	}
}

func TestSettingsCards(t *testing.T) {
	s := DefaultSettings("u1")
	if err := s.AddCard("Bonus"); err != nil {
		t.Fatalf("add card: %v", err)
	}
	if err := s.AddCard("Bonus"); !errors.Is(err, ErrDuplicateEntry) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	if err := s.AddCard("Visa/Gold"); !errors.Is(err, ErrSlashInName) {
		t.Fatalf("expected slash error, got %v", err)
	}
	if err := s.RemoveCard("Bonus"); err != nil || len(s.CreditCards) != 0 {
		t.Fatalf("remove card: %v %v", err, s.CreditCards)
	}
}

func TestMarketRatesRateFor(t *testing.T) {
	r := MarketRates{Gold: decimal.NewFromInt(3000), USD: decimal.RequireFromString("34.5"), EUR: decimal.RequireFromString("37.25")}
	cases := []struct {
		typ  AssetType
		want string
		ok   bool
	}{
		{Gold, "3000", true},
		{USD, "34.5", true},
		{EUR, "37.25", true},
		{CashAsset, "1", true},
		{Stock, "0", false},
	}
	for _, tc := range cases {
		got, ok := r.RateFor(tc.typ)
		if ok != tc.ok || got.String() != tc.want {
			t.Errorf("%s: expected %s/%v, got %s/%v", tc.typ, tc.want, tc.ok, got, ok)
		}
	}
}

func TestSettingsValidateRejectsSlashNames(t *testing.T) {
	s := DefaultSettings("u1")
	s.IncomeCategories = append(s.IncomeCategories, "Rent/Lease")
	if err := s.Validate(); !errors.Is(err, ErrSlashInName) {
		t.Fatalf("expected slash error, got %v", err)
	}
}

func TestMarketRatesValidate(t *testing.T) {
	cases := []struct {
		name  string
		rates MarketRates
		want  error
	}{
		{"zero", MarketRates{}, nil},
		{"positive", MarketRates{Gold: decimal.NewFromInt(2500), USD: decimal.NewFromInt(34)}, nil},
		{"negative gold", MarketRates{Gold: decimal.NewFromInt(-1)}, ErrNegativeRate},
		{"negative eur", MarketRates{EUR: decimal.RequireFromString("-0.01")}, ErrNegativeRate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.rates.Validate(); !errors.Is(err, tc.want) {
				t.Errorf("Validate() = %v, want %v", err, tc.want)
			}
		})
	}
}
