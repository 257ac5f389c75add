package analytics

import (
	"fmt"
	"sort"
	"time"

	"spendwise/internal/core"
	"spendwise/internal/schedule"
)

type DueState string

const (
	Overdue  DueState = "overdue"
	DueToday DueState = "today"
	Tomorrow DueState = "tomorrow"
	Upcoming DueState = "upcoming"
)

// DefaultUpcomingLimit caps the planned items shown on the dashboard.
const DefaultUpcomingLimit = 5

// PlannedItem is a pending planned transaction with its due label.
type PlannedItem struct {
	Planned  core.PlannedTransaction `json:"planned"`
	DaysLeft int                     `json:"daysLeft"`
	State    DueState                `json:"state"`
	Label    string                  `json:"label"`
}

// Dashboard is the landing view of one month.
type Dashboard struct {
	Summary           MonthSummary        `json:"summary"`
	GlobalBalance     core.Money          `json:"globalBalance"`
	Planned           []PlannedItem       `json:"planned"`
	Subscriptions     []schedule.Upcoming `json:"subscriptions"`
	SubscriptionsCost core.Money          `json:"subscriptionsCost"`
}

// DueLabel describes how far away a date is.
func DueLabel(days int) (DueState, string) {
	switch {
	case days < 0:
		return Overdue, "overdue"
	case days == 0:
		return DueToday, "today"
	case days == 1:
		return Tomorrow, "tomorrow"
	}
	return Upcoming, fmt.Sprintf("%d days", days)
}

// PendingPlanned lists not completed items by date, at most limit of
// them when limit is positive.
func PendingPlanned(planned []core.PlannedTransaction, today core.Date, limit int) []PlannedItem {
	pending := make([]core.PlannedTransaction, 0, len(planned))
	for _, p := range planned {
		if !p.IsCompleted {
			pending = append(pending, p)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool { return pending[i].Date.Before(pending[j].Date.Time) })
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}

	out := make([]PlannedItem, 0, len(pending))
	for _, p := range pending {
		days := p.DaysRemaining(today)
		state, label := DueLabel(days)
		out = append(out, PlannedItem{Planned: p, DaysLeft: days, State: state, Label: label})
	}
	return out
}

// BuildDashboard assembles the month summary, the all-time balance and
// what is coming up next.
func BuildDashboard(txs []core.Transaction, planned []core.PlannedTransaction, subs []core.Subscription, month string, now time.Time) Dashboard {
	today := core.DateOf(now)
	return Dashboard{
		Summary:           Summarize(txs, month),
		GlobalBalance:     GlobalBalance(txs),
		Planned:           PendingPlanned(planned, today, DefaultUpcomingLimit),
		Subscriptions:     schedule.UpcomingBillings(subs, today),
		SubscriptionsCost: schedule.MonthlyCost(subs),
	}
}
