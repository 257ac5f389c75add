package core

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	ThemeSystem = "system"
	ThemeLight  = "light"
	ThemeDark   = "dark"

	DefaultCurrency = "TRY"
)

var (
	ErrDuplicateEntry  = errors.New("entry already exists")
	ErrUnknownEntry    = errors.New("entry does not exist")
	ErrInvalidTheme    = errors.New("invalid theme")
	ErrInvalidDay      = errors.New("fiscal start day must be between 1 and 31")
	ErrInvalidCurrency = errors.New("invalid currency code")
	ErrNegativeRate    = errors.New("market rate must not be negative")
	ErrSlashInName     = errors.New("name must not contain '/'")
)

// MarketRates are the shared unit prices, in the user's currency, of the
// asset types that have one.
type MarketRates struct {
	Gold      decimal.Decimal `json:"gold"`
	USD       decimal.Decimal `json:"usd"`
	EUR       decimal.Decimal `json:"eur"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Validate rejects negative rates. A zero rate means unknown.
func (r MarketRates) Validate() error {
	if r.Gold.IsNegative() || r.USD.IsNegative() || r.EUR.IsNegative() {
		return ErrNegativeRate
	}
	return nil
}

// RateFor returns the market rate of an asset type. Cash is always 1.
func (r MarketRates) RateFor(t AssetType) (decimal.Decimal, bool) {
	switch t {
	case Gold:
		return r.Gold, true
	case USD:
		return r.USD, true
	case EUR:
		return r.EUR, true
	case CashAsset:
		return decimal.NewFromInt(1), true
	}
	return decimal.Zero, false
}

// UserSettings is the single preferences document of an owner.
type UserSettings struct {
	ID                       string        `json:"id"`
	Owner                    string        `json:"owner"`
	ExpenseCategories        []string      `json:"expenseCategories"`
	IncomeCategories         []string      `json:"incomeCategories"`
	CreditCards              []string      `json:"creditCards"`
	Theme                    string        `json:"theme"`
	Currency                 string        `json:"currency"`
	FiscalStartDay           int           `json:"fiscalStartDay"`
	DefaultPaymentMethod     PaymentMethod `json:"defaultPaymentMethod"`
	EnableBudgetAlerts       bool          `json:"enableBudgetAlerts"`
	EnableSubscriptionAlerts bool          `json:"enableSubscriptionAlerts"`
	MarketRates              MarketRates   `json:"marketRates"`
	UpdatedAt                time.Time     `json:"updatedAt"`
}

// DefaultSettings returns the settings of an owner that never saved any.
func DefaultSettings(owner string) UserSettings {
	return UserSettings{
		ID:                       owner,
		Owner:                    owner,
		ExpenseCategories:        slices.Clone(DefaultExpenseCategories),
		IncomeCategories:         slices.Clone(DefaultIncomeCategories),
		CreditCards:              []string{},
		Theme:                    ThemeSystem,
		Currency:                 DefaultCurrency,
		FiscalStartDay:           1,
		DefaultPaymentMethod:     Cash,
		EnableBudgetAlerts:       true,
		EnableSubscriptionAlerts: true,
	}
}

func (s *UserSettings) Identify(id, owner string) { s.ID, s.Owner = id, owner }

func (s UserSettings) Validate() error {
	switch s.Theme {
	case ThemeSystem, ThemeLight, ThemeDark:
	default:
		return ErrInvalidTheme
	}
	if len(s.Currency) != 3 {
		return ErrInvalidCurrency
	}
	if s.FiscalStartDay < 1 || s.FiscalStartDay > 31 {
		return ErrInvalidDay
	}
	if !s.DefaultPaymentMethod.IsValid() {
		return ErrInvalidPayment
	}
	for _, list := range [][]string{s.ExpenseCategories, s.IncomeCategories, s.CreditCards} {
		if slices.ContainsFunc(list, hasSlash) {
			return ErrSlashInName
		}
	}
	return nil
}

func (s *UserSettings) categories(kind TransactionType) (*[]string, error) {
	switch kind {
	case Expense:
		return &s.ExpenseCategories, nil
	case Income:
		return &s.IncomeCategories, nil
	}
	return nil, ErrInvalidType
}

// AddCategory appends a trimmed, non-empty category that is not yet listed.
func (s *UserSettings) AddCategory(kind TransactionType, name string) error {
	list, err := s.categories(kind)
	if err != nil {
		return err
	}
	return addEntry(list, name, ErrEmptyCategory)
}

// RemoveCategory drops a category from the list of its kind.
func (s *UserSettings) RemoveCategory(kind TransactionType, name string) error {
	list, err := s.categories(kind)
	if err != nil {
		return err
	}
	return removeEntry(list, name)
}

func (s *UserSettings) AddCard(name string) error {
	return addEntry(&s.CreditCards, name, ErrEmptyTitle)
}

func (s *UserSettings) RemoveCard(name string) error {
	return removeEntry(&s.CreditCards, name)
}

func addEntry(list *[]string, name string, emptyErr error) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return emptyErr
	}
	// Names end up in document ids and URL paths.
	if hasSlash(name) {
		return ErrSlashInName
	}
	if slices.Contains(*list, name) {
		return ErrDuplicateEntry
	}
	*list = append(*list, name)
	return nil
}

func removeEntry(list *[]string, name string) error {
	name = strings.TrimSpace(name)
	i := slices.Index(*list, name)
	if i < 0 {
		return ErrUnknownEntry
	}
	*list = slices.Delete(*list, i, i+1)
	return nil
}

func hasSlash(name string) bool { return strings.Contains(name, "/") }
