package services

import (
	"context"
	"log/slog"

	"finanzas/internal/amqp"
	"finanzas/internal/metrics"
)

// Publisher is implemented by amqp.Client. A nil Publisher disables both
// drift alerts and ledger events.
type Publisher interface {
	PublishDrift(ctx context.Context, alert *amqp.DriftAlert) error
	PublishLedgerEvent(ctx context.Context, ev *amqp.LedgerEvent) error
}

// reportDrift flags a partial write to an operator. It logs in every case
// and never fails the caller.
func reportDrift(ctx context.Context, p Publisher, alert *amqp.DriftAlert) {
	metrics.DriftAlerts.WithLabelValues(alert.Kind).Inc()

	slog.ErrorContext(ctx, "Consistency drift detected",
		"kind", alert.Kind,
		"user_id", alert.UserID,
		"transaction_id", alert.TransactionID,
		"goal_id", alert.GoalID,
		"installment_id", alert.InstallmentID,
		"amount_cents", alert.AmountCents,
		"error", alert.Error)

	if p == nil {
		slog.WarnContext(ctx, "AMQP client not available, drift alert only logged", "id", alert.ID)
		return
	}
	if err := p.PublishDrift(ctx, alert); err != nil {
		slog.ErrorContext(ctx, "Failed to publish drift alert",
			"id", alert.ID, "error", err)
	}
}

// publishEvent sends a ledger event best-effort.
func publishEvent(ctx context.Context, p Publisher, ev *amqp.LedgerEvent) {
	if p == nil {
		return
	}
	if err := p.PublishLedgerEvent(ctx, ev); err != nil {
		slog.WarnContext(ctx, "Failed to publish ledger event",
			"kind", ev.Kind, "entity_id", ev.EntityID, "error", err)
	}
}
