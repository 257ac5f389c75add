// Package sheets defines the spreadsheet mirror of an owner's transactions.
package sheets

import (
	"context"

	"spendwise/internal/core"
)

// MirrorWriter keeps one spreadsheet row per transaction, keyed by its id.
type MirrorWriter interface {
	AppendTransaction(ctx context.Context, tx core.Transaction) error
	// DeleteTransaction removes the row of id. A missing row is not an error.
	DeleteTransaction(ctx context.Context, id string) error
}
