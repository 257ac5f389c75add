package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"

	Cash       PaymentMethod = "cash"
	CreditCard PaymentMethod = "credit_card"

	MonthlyCycle BillingCycle = "monthly"
	YearlyCycle  BillingCycle = "yearly"

	Active   SubscriptionStatus = "active"
	Inactive SubscriptionStatus = "inactive"

	Gold      AssetType = "gold"
	USD       AssetType = "usd"
	EUR       AssetType = "eur"
	Stock     AssetType = "stock"
	Crypto    AssetType = "crypto"
	CashAsset AssetType = "cash"
	Other     AssetType = "other"
)

// MaxTitleLength bounds free-text titles and names.
const MaxTitleLength = 200

// DefaultSubscriptionColor is used when a custom subscription has no color.
const DefaultSubscriptionColor = "#6366f1"

type (
	TransactionType    string
	PaymentMethod      string
	BillingCycle       string
	SubscriptionStatus string
	AssetType          string

	// Transaction is a realized income or expense. It is never edited
	// after creation, only deleted.
	Transaction struct {
		ID             string          `json:"id"`
		Owner          string          `json:"owner"`
		Title          string          `json:"title"`
		Amount         Money           `json:"amount"`
		Type           TransactionType `json:"type"`
		Category       string          `json:"category"`
		PaymentMethod  PaymentMethod   `json:"paymentMethod"`
		CardName       string          `json:"cardName,omitempty"`
		Date           Date            `json:"date"`
		SubscriptionID string          `json:"subscriptionId,omitempty"`
		CreatedAt      time.Time       `json:"createdAt"`
	}

	// PlannedTransaction is a scheduled draft. Completing it spawns a
	// Transaction and flips IsCompleted; nothing else changes it.
	PlannedTransaction struct {
		ID            string          `json:"id"`
		Owner         string          `json:"owner"`
		Title         string          `json:"title"`
		Amount        Money           `json:"amount"`
		Type          TransactionType `json:"type"`
		Category      string          `json:"category"`
		PaymentMethod PaymentMethod   `json:"paymentMethod"`
		CardName      string          `json:"cardName,omitempty"`
		Date          Date            `json:"date"`
		IsCompleted   bool            `json:"isCompleted"`
		TransactionID string          `json:"transactionId,omitempty"`
		CreatedAt     time.Time       `json:"createdAt"`
	}

	// Budget is a monthly spending limit for one category.
	Budget struct {
		ID        string    `json:"id"`
		Owner     string    `json:"owner"`
		Category  string    `json:"category"`
		Limit     Money     `json:"limit"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	Subscription struct {
		ID         string             `json:"id"`
		Owner      string             `json:"owner"`
		ServiceID  string             `json:"serviceId,omitempty"`
		Name       string             `json:"name"`
		Price      Money              `json:"price"`
		BillingDay int                `json:"billingDay"`
		Cycle      BillingCycle       `json:"cycle"`
		Status     SubscriptionStatus `json:"status"`
		Color      string             `json:"color"`
		CreatedAt  time.Time          `json:"createdAt"`
	}

	// Asset is an investment holding. CurrentPrice is only consulted for
	// types without a shared market rate.
	Asset struct {
		ID           string          `json:"id"`
		Owner        string          `json:"owner"`
		Type         AssetType       `json:"type"`
		Name         string          `json:"name"`
		Amount       decimal.Decimal `json:"amount"`
		AvgCost      decimal.Decimal `json:"avgCost"`
		CurrentPrice decimal.Decimal `json:"currentPrice"`
		CreatedAt    time.Time       `json:"createdAt"`
	}
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrEmptyTitle        = errors.New("empty title")
	ErrTitleTooLong      = errors.New("title too long (max 200 characters)")
	ErrInvalidType       = errors.New("invalid transaction type")
	ErrInvalidPayment    = errors.New("invalid payment method")
	ErrEmptyCategory     = errors.New("empty category")
	ErrInvalidLimit      = errors.New("budget limit must not be negative")
	ErrInvalidBillingDay = errors.New("billing day must be between 1 and 31")
	ErrInvalidCycle      = errors.New("invalid billing cycle")
	ErrInvalidStatus     = errors.New("invalid subscription status")
	ErrInvalidAssetType  = errors.New("invalid asset type")
	ErrInvalidQuantity   = errors.New("asset amount must be positive")
	ErrNegativePrice     = errors.New("asset price must not be negative")
	ErrMissingOwner      = errors.New("missing owner")
)

func (t TransactionType) IsValid() bool { return t == Income || t == Expense }

func (p PaymentMethod) IsValid() bool { return p == Cash || p == CreditCard }

func (c BillingCycle) IsValid() bool { return c == MonthlyCycle || c == YearlyCycle }

func (s SubscriptionStatus) IsValid() bool { return s == Active || s == Inactive }

func (a AssetType) IsValid() bool {
	switch a {
	case Gold, USD, EUR, Stock, Crypto, CashAsset, Other:
		return true
	}
	return false
}

// HasMarketRate reports whether holdings of this type are valued with
// a shared market rate rather than a per-asset price.
func (a AssetType) HasMarketRate() bool {
	return a == Gold || a == USD || a == EUR
}

func validateTitle(s string) error {
	if strings.TrimSpace(s) == "" {
		return ErrEmptyTitle
	}
	if len(s) > MaxTitleLength {
		return ErrTitleTooLong
	}
	return nil
}

// Identify sets the storage identity of the record.
func (t *Transaction) Identify(id, owner string) { t.ID, t.Owner = id, owner }

// Validate checks required fields. The date may be empty; DateKey then
// falls back to CreatedAt.
func (t Transaction) Validate() error {
	if err := validateTitle(t.Title); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if !t.Type.IsValid() {
		return ErrInvalidType
	}
	if t.PaymentMethod != "" && !t.PaymentMethod.IsValid() {
		return ErrInvalidPayment
	}
	return nil
}

// EffectiveDate is Date, or CreatedAt truncated to a UTC date when Date
// is empty.
func (t Transaction) EffectiveDate() Date {
	if !t.Date.IsEmpty() {
		return t.Date
	}
	if t.CreatedAt.IsZero() {
		return Date{}
	}
	return DateOf(t.CreatedAt.UTC())
}

// DateKey is the YYYY-MM-DD string used for month prefix matching.
func (t Transaction) DateKey() string {
	return t.EffectiveDate().String()
}

// InMonth reports whether the transaction falls in the YYYY-MM month.
func (t Transaction) InMonth(month string) bool {
	key := t.DateKey()
	return key != "" && strings.HasPrefix(key, month)
}

func (t Transaction) IsIncome() bool  { return t.Type == Income }
func (t Transaction) IsExpense() bool { return t.Type == Expense }

// CategoryOrDefault returns the category, or DefaultCategory when blank.
func (t Transaction) CategoryOrDefault() string {
	if c := strings.TrimSpace(t.Category); c != "" {
		return c
	}
	return DefaultCategory
}

func (p *PlannedTransaction) Identify(id, owner string) { p.ID, p.Owner = id, owner }

func (p PlannedTransaction) Validate() error {
	if err := validateTitle(p.Title); err != nil {
		return err
	}
	if err := p.Amount.Validate(); err != nil {
		return err
	}
	if !p.Type.IsValid() {
		return ErrInvalidType
	}
	if p.PaymentMethod != "" && !p.PaymentMethod.IsValid() {
		return ErrInvalidPayment
	}
	return p.Date.Validate()
}

// Realize builds the transaction produced by completing the draft.
// Payment method defaults to cash.
func (p PlannedTransaction) Realize(now time.Time) Transaction {
	method := p.PaymentMethod
	if method == "" {
		method = Cash
	}
	return Transaction{
		Owner:         p.Owner,
		Title:         p.Title,
		Amount:        p.Amount,
		Type:          p.Type,
		Category:      p.Category,
		PaymentMethod: method,
		CardName:      p.CardName,
		Date:          p.Date,
		CreatedAt:     now,
	}
}

// DaysRemaining is the number of days from today until the planned date.
func (p PlannedTransaction) DaysRemaining(today Date) int {
	return today.DaysUntil(p.Date)
}

func (b *Budget) Identify(id, owner string) { b.ID, b.Owner = id, owner }

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if hasSlash(b.Category) {
		return ErrSlashInName
	}
	if b.Limit.IsNegative() {
		return ErrInvalidLimit
	}
	return nil
}

// BudgetID is the document id of the single budget per owner and category.
func BudgetID(owner, category string) string {
	return owner + "_" + strings.TrimSpace(category)
}

func (s *Subscription) Identify(id, owner string) { s.ID, s.Owner = id, owner }

func (s Subscription) Validate() error {
	if err := validateTitle(s.Name); err != nil {
		return err
	}
	if err := s.Price.Validate(); err != nil {
		return err
	}
	if s.BillingDay < 1 || s.BillingDay > 31 {
		return ErrInvalidBillingDay
	}
	if !s.Cycle.IsValid() {
		return ErrInvalidCycle
	}
	if !s.Status.IsValid() {
		return ErrInvalidStatus
	}
	return nil
}

func (s Subscription) IsActive() bool { return s.Status == Active }

// Toggle flips the subscription between active and inactive.
func (s *Subscription) Toggle() {
	if s.Status == Active {
		s.Status = Inactive
		return
	}
	s.Status = Active
}

// PaymentTitle is the title of the expense recording one payment.
func (s Subscription) PaymentTitle() string {
	return s.Name + " subscription"
}

func (a *Asset) Identify(id, owner string) { a.ID, a.Owner = id, owner }

func (a Asset) Validate() error {
	if !a.Type.IsValid() {
		return ErrInvalidAssetType
	}
	if err := validateTitle(a.Name); err != nil {
		return err
	}
	if !a.Amount.IsPositive() {
		return ErrInvalidQuantity
	}
	if a.AvgCost.IsNegative() || a.CurrentPrice.IsNegative() {
		return ErrNegativePrice
	}
	return nil
}
