package services

import (
	"context"
	"strings"
	"time"

	"spendwise/internal/core"
	"spendwise/internal/schedule"
)

// SubscriptionService manages subscriptions and records their payments.
type SubscriptionService struct {
	store        *Store
	transactions *TransactionService
	opts         options
}

func NewSubscriptionService(store *Store, transactions *TransactionService, opts ...Option) *SubscriptionService {
	return &SubscriptionService{store: store, transactions: transactions, opts: buildOptions(opts)}
}

func (s *SubscriptionService) List(ctx context.Context, owner string) ([]core.Subscription, error) {
	return s.store.Subscriptions.List(ctx, owner)
}

// Upcoming lists the active subscriptions by next billing date.
func (s *SubscriptionService) Upcoming(ctx context.Context, owner string) ([]schedule.Upcoming, error) {
	subs, err := s.List(ctx, owner)
	if err != nil {
		return nil, err
	}
	return schedule.UpcomingBillings(subs, core.DateOf(s.opts.now())), nil
}

// Create stores a new subscription. Status defaults to active and color
// to DefaultSubscriptionColor.
func (s *SubscriptionService) Create(ctx context.Context, owner string, sub core.Subscription) (core.Subscription, error) {
	if err := ensureOwner(owner); err != nil {
		return sub, err
	}
	sub.Name = strings.TrimSpace(sub.Name)
	if sub.Status == "" {
		sub.Status = core.Active
	}
	if sub.Cycle == "" {
		sub.Cycle = core.MonthlyCycle
	}
	if strings.TrimSpace(sub.Color) == "" {
		sub.Color = core.DefaultSubscriptionColor
	}
	if err := sub.Validate(); err != nil {
		return sub, invalid(err)
	}
	sub.CreatedAt = s.opts.now().UTC()
	return s.store.Subscriptions.Add(ctx, owner, sub)
}

// Toggle flips a subscription between active and inactive.
func (s *SubscriptionService) Toggle(ctx context.Context, owner, id string) (core.Subscription, error) {
	sub, err := s.store.Subscriptions.Get(ctx, owner, id)
	if err != nil {
		return sub, err
	}
	sub.Toggle()
	if err := s.store.Subscriptions.Update(ctx, owner, id, map[string]any{"status": sub.Status}); err != nil {
		return sub, err
	}
	return sub, nil
}

func (s *SubscriptionService) Delete(ctx context.Context, owner, id string) error {
	return s.store.Subscriptions.Delete(ctx, owner, id)
}

// Pay records this month's payment of a subscription as a credit-card
// expense. A second payment in the same month is rejected.
func (s *SubscriptionService) Pay(ctx context.Context, owner, id string) (core.Transaction, error) {
	sub, err := s.store.Subscriptions.Get(ctx, owner, id)
	if err != nil {
		return core.Transaction{}, err
	}
	txs, err := s.store.Transactions.List(ctx, owner)
	if err != nil {
		return core.Transaction{}, err
	}
	now := s.opts.now().UTC()
	if paidInMonth(txs, sub.ID, core.DateOf(now).MonthKey()) {
		return core.Transaction{}, ErrAlreadyPaid
	}
	return s.transactions.Create(ctx, owner, subscriptionPayment(sub, now))
}

// subscriptionPayment is the expense recording one payment of sub.
func subscriptionPayment(sub core.Subscription, now time.Time) core.Transaction {
	return core.Transaction{
		Owner:          sub.Owner,
		Title:          sub.PaymentTitle(),
		Amount:         sub.Price,
		Type:           core.Expense,
		Category:       core.SubscriptionCategory,
		PaymentMethod:  core.CreditCard,
		Date:           core.DateOf(now),
		SubscriptionID: sub.ID,
		CreatedAt:      now,
	}
}

func paidInMonth(txs []core.Transaction, subID, month string) bool {
	for _, tx := range txs {
		if tx.SubscriptionID == subID && tx.InMonth(month) {
			return true
		}
	}
	return false
}

// lastPayment returns the latest payment date of a subscription, or an
// empty date.
func lastPayment(txs []core.Transaction, subID string) core.Date {
	var last core.Date
	for _, tx := range txs {
		if tx.SubscriptionID != subID {
			continue
		}
		if d := tx.EffectiveDate(); last.IsEmpty() || d.After(last.Time) {
			last = d
		}
	}
	return last
}
