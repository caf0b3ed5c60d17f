package services

import (
	"context"
	"fmt"
	"log/slog"

	"finanzas/internal/amqp"
	"finanzas/internal/core"
	"finanzas/internal/metrics"
	"finanzas/internal/ports"
)

// PaymentResult describes a recorded installment payment. LinkErr is set when
// the payment was stored but its expense transaction could not be created or
// linked; the payment itself stands.
type PaymentResult struct {
	Installment core.Installment        `json:"installment"`
	Payment     core.InstallmentPayment `json:"payment"`
	Transaction *core.Transaction       `json:"transaction,omitempty"`
	LinkErr     error                   `json:"-"`
}

type InstallmentService struct {
	store     ports.Store
	publisher Publisher
	unit      core.Money
}

// NewInstallmentService rounds monthly amounts up to a multiple of unit.
func NewInstallmentService(store ports.Store, publisher Publisher, unit core.Money) *InstallmentService {
	if unit.Cents <= 0 {
		unit = core.FromUnits(1)
	}
	return &InstallmentService{store: store, publisher: publisher, unit: unit}
}

func (s *InstallmentService) List(ctx context.Context, userID string) ([]core.Installment, error) {
	list, err := s.store.ListInstallments(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list installments: %w", err)
	}
	return list, nil
}

func (s *InstallmentService) Create(ctx context.Context, userID string, in core.Installment) ([]core.Installment, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	in.ID = ""
	in.Payments = nil
	in = in.WithDefaults(s.unit)

	created, err := s.store.CreateInstallment(ctx, userID, in)
	if err != nil {
		return nil, fmt.Errorf("save installment: %w", err)
	}
	slog.InfoContext(ctx, "Installment created",
		"id", created.ID,
		"total_cents", created.TotalDebt.Cents,
		"installments", created.TotalInstallments,
		"monthly_cents", created.MonthlyAmount.Cents)

	return s.List(ctx, userID)
}

// Update rewrites the plan and recomputes the monthly amount. Payments
// already recorded are kept.
func (s *InstallmentService) Update(ctx context.Context, userID string, in core.Installment) ([]core.Installment, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	existing, err := s.find(ctx, userID, in.ID)
	if err != nil {
		return nil, err
	}
	in.Payments = existing.Payments
	if in.NextDueDate.IsZero() {
		in.NextDueDate = existing.NextDueDate
	}
	in = in.WithDefaults(s.unit)

	if err := s.store.UpdateInstallment(ctx, userID, in); err != nil {
		return nil, fmt.Errorf("update installment: %w", err)
	}
	return s.List(ctx, userID)
}

// Delete removes the plan and its payment history. Expense transactions
// created for past payments stay in the ledger.
func (s *InstallmentService) Delete(ctx context.Context, userID, id string) ([]core.Installment, error) {
	if err := s.store.DeleteInstallment(ctx, userID, id); err != nil {
		return nil, fmt.Errorf("delete installment: %w", err)
	}
	return s.List(ctx, userID)
}

// RecordPayment stores a payment and advances the next due date by one
// calendar month. When createTransaction is set it then records the matching
// expense and links it to the payment; a failure there is reported in
// PaymentResult.LinkErr and as drift, never rolling back the payment.
func (s *InstallmentService) RecordPayment(ctx context.Context, userID, id string, amount core.Money, date core.Date, createTransaction bool) (PaymentResult, error) {
	if err := amount.Validate(); err != nil {
		return PaymentResult{}, err
	}
	if err := date.Validate(); err != nil {
		return PaymentResult{}, err
	}
	in, err := s.find(ctx, userID, id)
	if err != nil {
		return PaymentResult{}, err
	}

	nextDue := in.NextDueDate
	if nextDue.IsZero() {
		nextDue = in.StartDate
	}
	nextDue = nextDue.AddMonth()

	payment, err := s.store.AddPayment(ctx, userID, id, core.InstallmentPayment{Amount: amount, Date: date}, nextDue)
	if err != nil {
		return PaymentResult{}, fmt.Errorf("record payment: %w", err)
	}
	in.Payments = append(in.Payments, payment)
	in.NextDueDate = nextDue

	slog.InfoContext(ctx, "Installment payment recorded",
		"installment_id", id,
		"payment_id", payment.ID,
		"amount_cents", amount.Cents,
		"paid", in.PaidCount(),
		"total", in.TotalInstallments,
		"next_due", nextDue)
	publishEvent(ctx, s.publisher, amqp.NewLedgerEvent(amqp.EventPaymentRecorded, userID, payment.ID, amount.Cents))

	result := PaymentResult{Installment: in, Payment: payment}
	if !createTransaction {
		metrics.InstallmentPayments.WithLabelValues("none").Inc()
		return result, nil
	}

	tx, linkErr := s.linkTransaction(ctx, userID, in, payment)
	if linkErr != nil {
		alert := amqp.NewDriftAlert(amqp.DriftInstallmentLink, userID, linkErr)
		alert.InstallmentID = id
		alert.PaymentID = payment.ID
		alert.AmountCents = amount.Cents
		if tx != nil {
			alert.TransactionID = tx.ID
		}
		reportDrift(ctx, s.publisher, alert)
		metrics.InstallmentPayments.WithLabelValues("failed").Inc()
		result.LinkErr = linkErr
		result.Transaction = tx
		return result, nil
	}

	metrics.InstallmentPayments.WithLabelValues("linked").Inc()
	result.Transaction = tx
	result.Payment.TransactionID = tx.ID
	result.Installment.Payments[len(result.Installment.Payments)-1].TransactionID = tx.ID
	return result, nil
}

func (s *InstallmentService) linkTransaction(ctx context.Context, userID string, in core.Installment, p core.InstallmentPayment) (*core.Transaction, error) {
	tx := core.Transaction{
		Amount:        p.Amount,
		Category:      in.PaymentCategory(),
		Description:   fmt.Sprintf("Pago cuota: %s (%d/%d)", in.Name, in.PaidCount(), in.TotalInstallments),
		Date:          p.Date,
		Type:          core.Expense,
		Method:        core.MethodManual,
		PaymentMethod: core.PaymentTransfer,
		InstallmentID: in.ID,
	}
	created, err := s.store.CreateTransaction(ctx, userID, tx)
	if err != nil {
		return nil, fmt.Errorf("create payment transaction: %w", err)
	}
	if err := s.store.LinkPaymentTransaction(ctx, userID, p.ID, created.ID); err != nil {
		return &created, fmt.Errorf("link payment transaction: %w", err)
	}
	return &created, nil
}

// MonthlyCommitment sums the monthly amount of every unsettled installment.
func (s *InstallmentService) MonthlyCommitment(ctx context.Context, userID string) (core.Money, error) {
	list, err := s.List(ctx, userID)
	if err != nil {
		return core.Money{}, err
	}
	return core.TotalMonthlyCommitment(list), nil
}

func (s *InstallmentService) find(ctx context.Context, userID, id string) (core.Installment, error) {
	list, err := s.store.ListInstallments(ctx, userID)
	if err != nil {
		return core.Installment{}, fmt.Errorf("list installments: %w", err)
	}
	for _, in := range list {
		if in.ID == id {
			return in, nil
		}
	}
	return core.Installment{}, fmt.Errorf("installment %s: %w", id, core.ErrNotFound)
}
