// Package schedule holds the calendar strategies of the ledger: billing
// cycles of subscriptions and recurrence steps of planned series.
//
// Both are registries of small strategy types keyed by their enum value,
// so a new cycle or recurrence is added by registering one type.
package schedule

import (
	"fmt"
	"sort"

	"spendwise/internal/core"
)

// Cycle is the billing strategy of a subscription cycle.
type Cycle interface {
	// NextBilling returns the first billing date on or after today.
	NextBilling(sub core.Subscription, today core.Date) core.Date

	// IsDue reports whether the billing of today's period has been reached
	// and not yet paid. lastPaid is empty when the subscription was never paid.
	IsDue(sub core.Subscription, lastPaid, today core.Date) bool

	// MonthlyCost spreads the price over one month.
	MonthlyCost(price core.Money) core.Money
}

// MonthlyCycle bills on the billing day of every month, clamped to the
// month's length.
type MonthlyCycle struct{}

func (MonthlyCycle) NextBilling(sub core.Subscription, today core.Date) core.Date {
	billing := core.ClampedDate(today.Year(), today.Month(), sub.BillingDay)
	if today.Day() > billing.Day() {
		next := core.NewDate(today.Year(), today.Month()+1, 1)
		return core.ClampedDate(next.Year(), next.Month(), sub.BillingDay)
	}
	return billing
}

func (MonthlyCycle) IsDue(sub core.Subscription, lastPaid, today core.Date) bool {
	if !lastPaid.IsEmpty() && lastPaid.MonthKey() == today.MonthKey() {
		return false
	}
	billing := core.ClampedDate(today.Year(), today.Month(), sub.BillingDay)
	if startedAfter(sub, billing) {
		return false
	}
	return today.Day() >= billing.Day()
}

func (MonthlyCycle) MonthlyCost(price core.Money) core.Money {
	return price
}

// YearlyCycle bills once a year in the month the subscription was created.
type YearlyCycle struct{}

func (YearlyCycle) NextBilling(sub core.Subscription, today core.Date) core.Date {
	month := anchorMonth(sub, today)
	billing := core.ClampedDate(today.Year(), month, sub.BillingDay)
	if billing.Before(today.Time) {
		return core.ClampedDate(today.Year()+1, month, sub.BillingDay)
	}
	return billing
}

func (YearlyCycle) IsDue(sub core.Subscription, lastPaid, today core.Date) bool {
	if !lastPaid.IsEmpty() && lastPaid.Year() == today.Year() {
		return false
	}
	month := anchorMonth(sub, today)
	billing := core.ClampedDate(today.Year(), month, sub.BillingDay)
	if startedAfter(sub, billing) {
		return false
	}
	return !today.Before(billing.Time)
}

func (YearlyCycle) MonthlyCost(price core.Money) core.Money {
	return price.MulRatio(1, 12)
}

func anchorMonth(sub core.Subscription, today core.Date) int {
	if sub.CreatedAt.IsZero() {
		return today.Month()
	}
	return int(sub.CreatedAt.UTC().Month())
}

// startedAfter reports whether the subscription was created after the
// given billing date, which then belongs to no period of it.
func startedAfter(sub core.Subscription, billing core.Date) bool {
	if sub.CreatedAt.IsZero() {
		return false
	}
	return core.DateOf(sub.CreatedAt.UTC()).After(billing.Time)
}

var cycles = map[core.BillingCycle]Cycle{
	core.MonthlyCycle: MonthlyCycle{},
	core.YearlyCycle:  YearlyCycle{},
}

// CycleFor returns the strategy of a billing cycle.
func CycleFor(c core.BillingCycle) (Cycle, error) {
	s, ok := cycles[c]
	if !ok {
		return nil, fmt.Errorf("unknown billing cycle: %s", c)
	}
	return s, nil
}

// RegisterCycle adds or replaces the strategy of a billing cycle.
func RegisterCycle(c core.BillingCycle, s Cycle) {
	cycles[c] = s
}

// NextBilling is the next billing date of sub, or an empty date when its
// cycle is unknown.
func NextBilling(sub core.Subscription, today core.Date) core.Date {
	c, err := CycleFor(sub.Cycle)
	if err != nil {
		return core.Date{}
	}
	return c.NextBilling(sub, today)
}

// MonthlyCost totals the monthly cost of the active subscriptions.
func MonthlyCost(subs []core.Subscription) core.Money {
	var total core.Money
	for _, s := range subs {
		if !s.IsActive() {
			continue
		}
		c, err := CycleFor(s.Cycle)
		if err != nil {
			continue
		}
		total = total.Add(c.MonthlyCost(s.Price))
	}
	return total
}

// Upcoming is a subscription with its derived next billing date.
type Upcoming struct {
	Subscription core.Subscription `json:"subscription"`
	NextBilling  core.Date         `json:"nextBilling"`
	DaysLeft     int               `json:"daysLeft"`
}

// UpcomingBillings lists the active subscriptions by next billing date.
func UpcomingBillings(subs []core.Subscription, today core.Date) []Upcoming {
	out := make([]Upcoming, 0, len(subs))
	for _, s := range subs {
		if !s.IsActive() {
			continue
		}
		next := NextBilling(s, today)
		if next.IsEmpty() {
			continue
		}
		out = append(out, Upcoming{Subscription: s, NextBilling: next, DaysLeft: today.DaysUntil(next)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].NextBilling.Before(out[j].NextBilling.Time)
	})
	return out
}
