package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"spendwise/internal/core"
	"spendwise/internal/schedule"
)

// BillingConfig holds the settings of the billing processor.
type BillingConfig struct {
	// Interval is how often due subscriptions are checked (default: 1h).
	Interval time.Duration
}

func DefaultBillingConfig() BillingConfig {
	return BillingConfig{Interval: time.Hour}
}

// BillingProcessor records the due payments of active subscriptions
// across all owners.
type BillingProcessor struct {
	store        *Store
	transactions *TransactionService
	config       BillingConfig
	opts         options

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewBillingProcessor(store *Store, transactions *TransactionService, config BillingConfig, opts ...Option) *BillingProcessor {
	if config.Interval <= 0 {
		config.Interval = DefaultBillingConfig().Interval
	}
	return &BillingProcessor{
		store:        store,
		transactions: transactions,
		config:       config,
		opts:         buildOptions(opts),
	}
}

// ProcessDue pays every active subscription whose billing date of the
// current period has been reached and that has no payment in it yet.
// It returns the number of payments recorded.
func (p *BillingProcessor) ProcessDue(ctx context.Context) (int, error) {
	if p.store == nil || p.transactions == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}
	subs, err := p.store.Subscriptions.Scan(ctx)
	if err != nil {
		return 0, fmt.Errorf("scan subscriptions: %w", err)
	}

	now := p.opts.now().UTC()
	today := core.DateOf(now)
	logger := p.opts.logger
	logger.InfoContext(ctx, "Processing subscription billing",
		"subscriptions", len(subs),
		"processing_date", today.String())

	history := make(map[string][]core.Transaction)
	processed := 0
	for _, sub := range subs {
		if ctx.Err() != nil {
			return processed, ctx.Err()
		}
		if !sub.IsActive() {
			continue
		}
		cycle, err := schedule.CycleFor(sub.Cycle)
		if err != nil {
			logger.ErrorContext(ctx, "Skipping subscription", "subscription_id", sub.ID, "error", err)
			continue
		}

		txs, ok := history[sub.Owner]
		if !ok {
			txs, err = p.store.Transactions.List(ctx, sub.Owner)
			if err != nil {
				logger.ErrorContext(ctx, "Failed to load transactions",
					"owner", sub.Owner, "error", err)
				continue
			}
			history[sub.Owner] = txs
		}

		if !cycle.IsDue(sub, lastPayment(txs, sub.ID), today) || paidInMonth(txs, sub.ID, today.MonthKey()) {
			continue
		}

		tx, err := p.transactions.Create(ctx, sub.Owner, subscriptionPayment(sub, now))
		if err != nil {
			logger.ErrorContext(ctx, "Failed to record subscription payment",
				"subscription_id", sub.ID,
				"name", sub.Name,
				"error", err)
			continue
		}
		history[sub.Owner] = append(txs, tx)
		processed++
		logger.InfoContext(ctx, "Recorded subscription payment",
			"subscription_id", sub.ID,
			"transaction_id", tx.ID,
			"amount_cents", tx.Amount.Cents,
			"cycle", sub.Cycle)
	}

	logger.InfoContext(ctx, "Subscription billing complete", "processed", processed)
	return processed, nil
}

// Start runs ProcessDue now and then on every interval until Stop is
// called or ctx is done.
func (p *BillingProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("billing processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	go p.runLoop(ctx, stopCh, doneCh)
	p.opts.logger.InfoContext(ctx, "Billing processor started", "interval", p.config.Interval)
	return nil
}

// Stop signals the loop and waits for the current run to finish.
func (p *BillingProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.running = false
	p.mu.Unlock()

	close(stopCh)
	select {
	case <-doneCh:
		p.opts.logger.InfoContext(ctx, "Billing processor stopped")
		return nil
	case <-ctx.Done():
		p.opts.logger.WarnContext(ctx, "Billing processor stop timed out")
		return ctx.Err()
	}
}

func (p *BillingProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *BillingProcessor) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	p.runOnce(ctx)
	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.runOnce(ctx)
		}
	}
}

func (p *BillingProcessor) runOnce(ctx context.Context) {
	if _, err := p.ProcessDue(ctx); err != nil {
		p.opts.logger.ErrorContext(ctx, "Subscription billing failed", "error", err)
	}
}
