package analytics

import (
	"fmt"
	"time"

	"spendwise/internal/core"
	"spendwise/internal/schedule"
)

type InsightKind string

const (
	Warning InsightKind = "warning"
	Danger  InsightKind = "danger"
	Success InsightKind = "success"
	Info    InsightKind = "info"
)

// InvestmentThreshold is the all-time surplus above which saving into
// investments is suggested.
var InvestmentThreshold = core.Cents(100000)

const (
	minSubscriptionsForTip = 3
	budgetWarnPercent      = 90
	cardSharePercent       = 70
)

// Insight is one advisory message.
type Insight struct {
	ID         string      `json:"id"`
	Kind       InsightKind `json:"type"`
	Title      string      `json:"title"`
	Message    string      `json:"message"`
	ActionLink string      `json:"actionLink"`
}

// InsightInput is the data the rules look at.
type InsightInput struct {
	Transactions  []core.Transaction
	Subscriptions []core.Subscription
	Budgets       []core.Budget
	Now           time.Time
}

// Insights evaluates every rule independently and concatenates their
// output in rule order. A single "all good" tip is returned when no rule
// fires.
func Insights(in InsightInput) []Insight {
	cur, _ := currentAndPreviousMonth(in.Now)
	month := FilterByMonth(in.Transactions, cur)

	var out []Insight
	out = append(out, subscriptionInsights(in.Subscriptions)...)
	out = append(out, budgetInsights(in.Budgets, month)...)
	out = append(out, surplusInsights(in.Transactions)...)
	out = append(out, cardInsights(month)...)
	out = append(out, anomalyInsights(DetectAnomalies(in.Transactions, in.Now))...)

	if len(out) == 0 {
		out = append(out, Insight{
			ID:         "all_good",
			Kind:       Info,
			Title:      "All good",
			Message:    "Your finances look balanced. Keep it up!",
			ActionLink: "/reports",
		})
	}
	return out
}

func subscriptionInsights(subs []core.Subscription) []Insight {
	active := 0
	for _, s := range subs {
		if s.IsActive() {
			active++
		}
	}
	if active < minSubscriptionsForTip {
		return nil
	}
	msg := fmt.Sprintf("You have %d active subscriptions costing %s per month. Consider cancelling the ones you do not use.",
		active, schedule.MonthlyCost(subs))
	return []Insight{{
		ID:         "subs_overload",
		Kind:       Warning,
		Title:      "Subscription check",
		Message:    msg,
		ActionLink: "/subscriptions",
	}}
}

func budgetInsights(budgets []core.Budget, month []core.Transaction) []Insight {
	spend := expenseByCategory(month)
	var out []Insight
	for _, b := range budgets {
		if b.Limit.Cents <= 0 {
			continue
		}
		spent := spend[b.Category]
		if spent.Cents*100 <= b.Limit.Cents*budgetWarnPercent {
			continue
		}
		out = append(out, Insight{
			ID:         "budget_" + b.Category,
			Kind:       Danger,
			Title:      b.Category + " limit",
			Message:    fmt.Sprintf("You have used %.0f%% of your %s budget.", core.Percent(spent, b.Limit), b.Category),
			ActionLink: "/budget",
		})
	}
	return out
}

func surplusInsights(all []core.Transaction) []Insight {
	if GlobalBalance(all).Cents <= InvestmentThreshold.Cents {
		return nil
	}
	return []Insight{{
		ID:         "invest_opportunity",
		Kind:       Success,
		Title:      "Investment opportunity",
		Message:    "Your income is outpacing your expenses. Consider putting the surplus into your portfolio.",
		ActionLink: "/investments",
	}}
}

func cardInsights(month []core.Transaction) []Insight {
	var card, total core.Money
	for _, tx := range month {
		if !tx.IsExpense() {
			continue
		}
		total = total.Add(tx.Amount)
		if tx.PaymentMethod == core.CreditCard {
			card = card.Add(tx.Amount)
		}
	}
	if total.Cents == 0 || card.Cents*100 <= total.Cents*cardSharePercent {
		return nil
	}
	return []Insight{{
		ID:         "cc_warning",
		Kind:       Warning,
		Title:      "High credit card usage",
		Message:    fmt.Sprintf("%.0f%% of this month's spending went on credit cards. Keep an eye on your cash flow.", core.Percent(card, total)),
		ActionLink: "/reports",
	}}
}

func anomalyInsights(anomalies []Anomaly) []Insight {
	out := make([]Insight, 0, len(anomalies))
	for _, a := range anomalies {
		msg := fmt.Sprintf("Spending on %s is up %.0f%% on last month (%s vs %s).", a.Category, a.Increase, a.Amount, a.Previous)
		if a.Previous.IsZero() {
			msg = fmt.Sprintf("New spending of %s on %s this month.", a.Amount, a.Category)
		}
		out = append(out, Insight{
			ID:         "anomaly_" + a.Category,
			Kind:       Warning,
			Title:      "Unusual spending: " + a.Category,
			Message:    msg,
			ActionLink: "/reports",
		})
	}
	return out
}
