// Package worker consumes consistency-drift alerts and surfaces them to an
// operator.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finanzas/internal/amqp"
	"finanzas/internal/cache"
	"finanzas/internal/core"
	applog "finanzas/internal/log"
	"finanzas/internal/metrics"
)

// Dispositions recorded for every consumed alert.
const (
	DispositionReported  = "reported"
	DispositionDuplicate = "duplicate"
	DispositionRejected  = "rejected"
)

var ErrMalformedAlert = errors.New("malformed drift alert")

// DriftWorker logs each alert once. Redeliveries after a reconnect are
// recognized by alert id and dropped.
type DriftWorker struct {
	logger *applog.Logger
	seen   *cache.LRU[time.Time]
}

func NewDriftWorker(logger *applog.Logger, seenSize int, seenTTL time.Duration) *DriftWorker {
	if seenSize <= 0 {
		seenSize = 1000
	}
	return &DriftWorker{
		logger: logger.WithComponent(applog.ComponentWorker),
		seen:   cache.NewLRU[time.Time](seenSize, seenTTL),
	}
}

// Seen exposes the dedupe cache so a janitor can sweep it.
func (w *DriftWorker) Seen() cache.Cleaner { return w.seen }

// HandleDriftAlert is the amqp consumer callback. A malformed alert is
// acknowledged and dropped rather than requeued forever.
func (w *DriftWorker) HandleDriftAlert(alert *amqp.DriftAlert) error {
	ctx := context.Background()

	if err := validate(alert); err != nil {
		metrics.DriftAlertsReceived.WithLabelValues(kindLabel(alert), DispositionRejected).Inc()
		w.logger.WarnContext(ctx, "Dropping drift alert", applog.FieldError, err)
		return nil
	}
	if _, dup := w.seen.Get(alert.ID); dup {
		metrics.DriftAlertsReceived.WithLabelValues(alert.Kind, DispositionDuplicate).Inc()
		w.logger.DebugContext(ctx, "Duplicate drift alert", "id", alert.ID)
		return nil
	}
	w.seen.Set(alert.ID, alert.Timestamp)

	metrics.DriftAlertsReceived.WithLabelValues(alert.Kind, DispositionReported).Inc()
	w.logger.ErrorContext(ctx, "Ledger drift needs manual repair",
		"id", alert.ID,
		"kind", alert.Kind,
		applog.FieldUserID, alert.UserID,
		applog.FieldTransactionID, alert.TransactionID,
		applog.FieldGoalID, alert.GoalID,
		applog.FieldInstallmentID, alert.InstallmentID,
		"payment_id", alert.PaymentID,
		"amount", core.Money{Cents: alert.AmountCents}.String(),
		"cause", alert.Error,
		"repair", RepairHint(alert),
		"reported_at", alert.Timestamp)
	return nil
}

// RepairHint describes the manual fix for an alert.
func RepairHint(a *amqp.DriftAlert) string {
	amount := core.Money{Cents: a.AmountCents}
	switch a.Kind {
	case amqp.DriftTransferGoalWrite:
		return fmt.Sprintf("add %s to goal %s; transaction %s is marked provisional", amount, a.GoalID, a.TransactionID)
	case amqp.DriftTransferReversal:
		return fmt.Sprintf("subtract %s from goal %s; transaction %s was deleted", amount, a.GoalID, a.TransactionID)
	case amqp.DriftInstallmentLink:
		if a.TransactionID == "" {
			return fmt.Sprintf("create the expense for payment %s of installment %s", a.PaymentID, a.InstallmentID)
		}
		return fmt.Sprintf("link transaction %s to payment %s", a.TransactionID, a.PaymentID)
	default:
		return "inspect the records named in this alert"
	}
}

func validate(a *amqp.DriftAlert) error {
	switch {
	case a == nil:
		return fmt.Errorf("%w: empty", ErrMalformedAlert)
	case a.ID == "":
		return fmt.Errorf("%w: missing id", ErrMalformedAlert)
	case a.Kind == "":
		return fmt.Errorf("%w: missing kind", ErrMalformedAlert)
	case a.UserID == "":
		return fmt.Errorf("%w: missing user", ErrMalformedAlert)
	}
	return nil
}

func kindLabel(a *amqp.DriftAlert) string {
	if a == nil || a.Kind == "" {
		return "unknown"
	}
	return a.Kind
}
