// Package worker consumes transaction events outside the API process.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"spendwise/internal/amqp"
	"spendwise/internal/sheets"
)

// MirrorWorker replays transaction events onto a spreadsheet mirror.
type MirrorWorker struct {
	mirror sheets.MirrorWriter
	logger *slog.Logger
}

func NewMirrorWorker(mirror sheets.MirrorWriter, logger *slog.Logger) *MirrorWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &MirrorWorker{mirror: mirror, logger: logger}
}

// HandleEvent appends the row of a created transaction or removes the
// row of a deleted one. A returned error makes the consumer requeue.
func (w *MirrorWorker) HandleEvent(ctx context.Context, ev *amqp.TransactionEvent) error {
	if w.mirror == nil {
		w.logger.WarnContext(ctx, "No mirror configured, dropping event",
			"type", ev.Type, "transaction_id", ev.TransactionID)
		return nil
	}

	switch ev.Type {
	case amqp.TransactionCreated:
		tx := *ev.Transaction
		if tx.ID == "" {
			tx.ID = ev.TransactionID
		}
		if err := w.mirror.AppendTransaction(ctx, tx); err != nil {
			return fmt.Errorf("append transaction %s: %w", ev.TransactionID, err)
		}
		w.logger.InfoContext(ctx, "Mirrored transaction",
			"transaction_id", ev.TransactionID,
			"owner", ev.Owner,
			"amount_cents", tx.Amount.Cents,
			"timestamp", ev.Timestamp)
	case amqp.TransactionDeleted:
		if err := w.mirror.DeleteTransaction(ctx, ev.TransactionID); err != nil {
			return fmt.Errorf("delete transaction %s: %w", ev.TransactionID, err)
		}
		w.logger.InfoContext(ctx, "Removed mirrored transaction",
			"transaction_id", ev.TransactionID,
			"owner", ev.Owner,
			"timestamp", ev.Timestamp)
	default:
		w.logger.WarnContext(ctx, "Ignoring unknown event", "type", ev.Type)
	}
	return nil
}
