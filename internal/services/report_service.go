package services

import (
	"context"
	"io"
	"sort"

	"spendwise/internal/analytics"
	"spendwise/internal/core"
	"spendwise/internal/export"
)

// ReportService builds the read-only views of an owner's ledger.
type ReportService struct {
	store *Store
	opts  options
}

func NewReportService(store *Store, opts ...Option) *ReportService {
	return &ReportService{store: store, opts: buildOptions(opts)}
}

// ledger is the subset of an owner's collections a view needs.
type ledger struct {
	transactions  []core.Transaction
	planned       []core.PlannedTransaction
	subscriptions []core.Subscription
	budgets       []core.Budget
}

type need uint8

const (
	needTransactions need = 1 << iota
	needPlanned
	needSubscriptions
	needBudgets
)

func (s *ReportService) load(ctx context.Context, owner string, what need) (ledger, error) {
	if err := ensureOwner(owner); err != nil {
		return ledger{}, err
	}
	var (
		l     ledger
		loads []func(context.Context) error
	)
	if what&needTransactions != 0 {
		loads = append(loads, func(ctx context.Context) (err error) {
			l.transactions, err = s.store.Transactions.List(ctx, owner)
			return err
		})
	}
	if what&needPlanned != 0 {
		loads = append(loads, func(ctx context.Context) (err error) {
			l.planned, err = s.store.Planned.List(ctx, owner)
			return err
		})
	}
	if what&needSubscriptions != 0 {
		loads = append(loads, func(ctx context.Context) (err error) {
			l.subscriptions, err = s.store.Subscriptions.List(ctx, owner)
			return err
		})
	}
	if what&needBudgets != 0 {
		loads = append(loads, func(ctx context.Context) (err error) {
			l.budgets, err = s.store.Budgets.List(ctx, owner)
			return err
		})
	}
	return l, loadAll(ctx, loads...)
}

// CurrentMonth is the YYYY-MM key of the service clock.
func (s *ReportService) CurrentMonth() string {
	return core.DateOf(s.opts.now()).MonthKey()
}

func (s *ReportService) Summary(ctx context.Context, owner, month string) (analytics.MonthSummary, error) {
	l, err := s.load(ctx, owner, needTransactions)
	if err != nil {
		return analytics.MonthSummary{}, err
	}
	return analytics.Summarize(l.transactions, month), nil
}

func (s *ReportService) Dashboard(ctx context.Context, owner, month string) (analytics.Dashboard, error) {
	l, err := s.load(ctx, owner, needTransactions|needPlanned|needSubscriptions)
	if err != nil {
		return analytics.Dashboard{}, err
	}
	return analytics.BuildDashboard(l.transactions, l.planned, l.subscriptions, month, s.opts.now()), nil
}

func (s *ReportService) Trend(ctx context.Context, owner string, year, months int) ([]analytics.TrendBucket, error) {
	l, err := s.load(ctx, owner, needTransactions)
	if err != nil {
		return nil, err
	}
	return analytics.BuildTrend(l.transactions, year, months, s.opts.now()), nil
}

func (s *ReportService) Insights(ctx context.Context, owner string) ([]analytics.Insight, error) {
	l, err := s.load(ctx, owner, needTransactions|needSubscriptions|needBudgets)
	if err != nil {
		return nil, err
	}
	return analytics.Insights(analytics.InsightInput{
		Transactions:  l.transactions,
		Subscriptions: l.subscriptions,
		Budgets:       l.budgets,
		Now:           s.opts.now(),
	}), nil
}

func (s *ReportService) Report(ctx context.Context, owner string) (analytics.ReportAnalysis, error) {
	l, err := s.load(ctx, owner, needTransactions)
	if err != nil {
		return analytics.ReportAnalysis{}, err
	}
	return analytics.Analyze(l.transactions, s.opts.now()), nil
}

func (s *ReportService) Health(ctx context.Context, owner string) (analytics.HealthScore, error) {
	l, err := s.load(ctx, owner, needTransactions)
	if err != nil {
		return analytics.HealthScore{}, err
	}
	return analytics.Health(l.transactions, s.opts.now()), nil
}

func (s *ReportService) Range(ctx context.Context, owner string, r analytics.Range) (analytics.RangeReport, error) {
	l, err := s.load(ctx, owner, needTransactions)
	if err != nil {
		return analytics.RangeReport{}, err
	}
	return analytics.BuildRangeReport(l.transactions, r, s.opts.now()), nil
}

// Export writes the CSV of month's transactions, oldest first.
func (s *ReportService) Export(ctx context.Context, w io.Writer, owner, month string) error {
	l, err := s.load(ctx, owner, needTransactions)
	if err != nil {
		return err
	}
	txs := analytics.FilterByMonth(l.transactions, month)
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].DateKey() < txs[j].DateKey() })
	return export.WriteCSV(w, txs)
}
