package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Drift kinds name the partial write that left two records out of sync.
const (
	DriftTransferGoalWrite = "transfer_goal_write"
	DriftTransferReversal  = "transfer_reversal"
	DriftInstallmentLink   = "installment_link"
)

// Ledger event kinds.
const (
	EventTransactionCreated = "transaction.created"
	EventTransactionDeleted = "transaction.deleted"
	EventTransferCompleted  = "transfer.completed"
	EventPaymentRecorded    = "installment.payment_recorded"
)

// DriftAlert reports an accepted partial failure to an operator. It is never
// retried automatically; the consumer only surfaces it.
type DriftAlert struct {
	ID            string    `json:"id"`
	Kind          string    `json:"kind"`
	UserID        string    `json:"user_id"`
	TransactionID string    `json:"transaction_id,omitempty"`
	GoalID        string    `json:"goal_id,omitempty"`
	InstallmentID string    `json:"installment_id,omitempty"`
	PaymentID     string    `json:"payment_id,omitempty"`
	AmountCents   int64     `json:"amount_cents"`
	Error         string    `json:"error"`
	Timestamp     time.Time `json:"timestamp"`
}

// LedgerEvent is a lightweight notification of a completed mutation.
type LedgerEvent struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	UserID      string    `json:"user_id"`
	EntityID    string    `json:"entity_id"`
	AmountCents int64     `json:"amount_cents,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewDriftAlert stamps an alert with a fresh id and the current time.
func NewDriftAlert(kind, userID string, cause error) *DriftAlert {
	a := &DriftAlert{
		ID:        uuid.NewString(),
		Kind:      kind,
		UserID:    userID,
		Timestamp: time.Now(),
	}
	if cause != nil {
		a.Error = cause.Error()
	}
	return a
}

// NewLedgerEvent stamps an event with a fresh id and the current time.
func NewLedgerEvent(kind, userID, entityID string, amountCents int64) *LedgerEvent {
	return &LedgerEvent{
		ID:          uuid.NewString(),
		Kind:        kind,
		UserID:      userID,
		EntityID:    entityID,
		AmountCents: amountCents,
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the alert to JSON bytes
func (m *DriftAlert) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// DriftAlertFromJSON creates an alert from JSON bytes
func DriftAlertFromJSON(data []byte) (*DriftAlert, error) {
	var msg DriftAlert
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ToJSON converts the event to JSON bytes
func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventFromJSON creates an event from JSON bytes
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
