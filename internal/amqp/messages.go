package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"spendwise/internal/core"
)

type EventType string

const (
	TransactionCreated EventType = "transaction.created"
	TransactionDeleted EventType = "transaction.deleted"
)

// TransactionEvent announces a ledger change. Created events carry the
// full transaction so consumers never read the owner's store.
type TransactionEvent struct {
	Type          EventType         `json:"type"`
	Owner         string            `json:"owner"`
	TransactionID string            `json:"transactionId"`
	Transaction   *core.Transaction `json:"transaction,omitempty"`
	Timestamp     time.Time         `json:"timestamp"`
}

func NewCreatedEvent(tx core.Transaction) *TransactionEvent {
	return &TransactionEvent{
		Type:          TransactionCreated,
		Owner:         tx.Owner,
		TransactionID: tx.ID,
		Transaction:   &tx,
		Timestamp:     time.Now().UTC(),
	}
}

func NewDeletedEvent(owner, id string) *TransactionEvent {
	return &TransactionEvent{
		Type:          TransactionDeleted,
		Owner:         owner,
		TransactionID: id,
		Timestamp:     time.Now().UTC(),
	}
}

func (m *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionEventFromJSON decodes and checks an event body.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var msg TransactionEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Type {
	case TransactionCreated:
		if msg.Transaction == nil {
			return nil, fmt.Errorf("created event %s has no transaction", msg.TransactionID)
		}
	case TransactionDeleted:
	default:
		return nil, fmt.Errorf("unknown event type %q", msg.Type)
	}
	if msg.Owner == "" || msg.TransactionID == "" {
		return nil, fmt.Errorf("event is missing owner or transaction id")
	}
	return &msg, nil
}
