package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kinds of ledger entities a change message can refer to.
const (
	KindRecurringItem = "recurring_item"
	KindRecord        = "record"
	KindPaymentMethod = "payment_method"
	KindLinkedAccount = "linked_account"
	KindResync        = "resync"
)

// Operations carried by a change message.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// LedgerChangedMessage tells consumers that the ledger of Year changed.
// It carries no amounts; consumers reload what they need from the database.
type LedgerChangedMessage struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Op        string    `json:"op"`
	EntityID  string    `json:"entity_id"`
	Year      int       `json:"year"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerChangedMessage creates a message with a fresh ID.
func NewLedgerChangedMessage(kind, op, entityID string, year int) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		ID:        uuid.NewString(),
		Kind:      kind,
		Op:        op,
		EntityID:  entityID,
		Year:      year,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangedMessageFromJSON decodes and sanity checks a message body.
func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Year < 1 {
		return nil, fmt.Errorf("message %s: invalid year %d", msg.ID, msg.Year)
	}
	return &msg, nil
}
