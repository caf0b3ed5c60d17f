package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"finanzas/internal/amqp"
	"finanzas/internal/core"
	"finanzas/internal/extract"
	"finanzas/internal/ports"
)

// TransactionService validates and persists ledger entries. Every mutation
// returns the full re-read list so callers never patch local state.
type TransactionService struct {
	store     ports.Store
	transfers *TransferCoordinator
	publisher Publisher
}

func NewTransactionService(store ports.Store, transfers *TransferCoordinator, publisher Publisher) *TransactionService {
	return &TransactionService{
		store:     store,
		transfers: transfers,
		publisher: publisher,
	}
}

func (s *TransactionService) List(ctx context.Context, userID string) ([]core.Transaction, error) {
	txs, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// Create stores a manually entered transaction.
func (s *TransactionService) Create(ctx context.Context, userID string, tx core.Transaction) ([]core.Transaction, error) {
	tx.ID = ""
	tx.LinkedGoalID = ""
	tx.Provisional = false
	tx = tx.Normalize()
	if err := tx.Validate(); err != nil {
		return nil, err
	}

	created, err := s.store.CreateTransaction(ctx, userID, tx)
	if err != nil {
		return nil, fmt.Errorf("save transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction created",
		"id", created.ID,
		"type", created.Type,
		"method", created.Method,
		"amount_cents", created.Amount.Cents)
	publishEvent(ctx, s.publisher, amqp.NewLedgerEvent(amqp.EventTransactionCreated, userID, created.ID, created.Amount.Cents))

	return s.List(ctx, userID)
}

// CreateFromDraft stores an extracted receipt or voice draft after the same
// validation as manual input.
func (s *TransactionService) CreateFromDraft(ctx context.Context, userID string, d extract.Draft) ([]core.Transaction, error) {
	tx, err := d.Transaction()
	if err != nil {
		return nil, err
	}
	if tx.Method != core.MethodOCR && tx.Method != core.MethodVoice {
		return nil, fmt.Errorf("draft method %q: %w", tx.Method, core.ErrInvalidMethod)
	}
	return s.Create(ctx, userID, tx)
}

// Update replaces the editable fields of an existing transaction. Transfer
// links and installment links are kept from the stored record. Changing the
// amount of a completed transfer moves the goal balance by the difference.
func (s *TransactionService) Update(ctx context.Context, userID string, tx core.Transaction) ([]core.Transaction, error) {
	tx = tx.Normalize()
	if err := tx.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.find(ctx, userID, tx.ID)
	if err != nil {
		return nil, err
	}
	tx.LinkedGoalID = existing.LinkedGoalID
	tx.Provisional = existing.Provisional
	tx.InstallmentID = existing.InstallmentID

	if err := s.store.UpdateTransaction(ctx, userID, tx); err != nil {
		return nil, fmt.Errorf("update transaction: %w", err)
	}

	if delta := tx.Amount.Sub(existing.Amount); delta.Cents != 0 && existing.IsTransfer() && !existing.Provisional {
		s.adjustTransferGoal(ctx, userID, existing, delta)
	}

	return s.List(ctx, userID)
}

func (s *TransactionService) adjustTransferGoal(ctx context.Context, userID string, tx core.Transaction, delta core.Money) {
	goals, err := s.store.ListGoals(ctx, userID)
	if err == nil {
		var goal *core.SavingsGoal
		goal, err = resolveTransferGoal(goals, tx)
		if goal == nil && err == nil {
			return
		}
		if goal != nil {
			_, err = s.store.AdjustGoalBalance(ctx, userID, goal.ID, delta)
		}
	}
	if err != nil {
		alert := amqp.NewDriftAlert(amqp.DriftTransferGoalWrite, userID, err)
		alert.TransactionID = tx.ID
		alert.GoalID = tx.LinkedGoalID
		alert.AmountCents = delta.Cents
		reportDrift(ctx, s.publisher, alert)
	}
}

// Delete removes a transaction, reversing its goal increment first when it is
// a transfer. A failed reversal leaves everything untouched.
func (s *TransactionService) Delete(ctx context.Context, userID, id string) ([]core.Transaction, error) {
	tx, err := s.find(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	goal, removed, err := s.transfers.reverse(ctx, userID, tx)
	if err != nil {
		return nil, fmt.Errorf("reverse transfer: %w", err)
	}

	if err := s.store.DeleteTransaction(ctx, userID, id); err != nil {
		s.transfers.restore(ctx, userID, goal, removed, tx, err)
		return nil, fmt.Errorf("delete transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id, "transfer", tx.IsTransfer())
	publishEvent(ctx, s.publisher, amqp.NewLedgerEvent(amqp.EventTransactionDeleted, userID, id, tx.Amount.Cents))

	return s.List(ctx, userID)
}

func (s *TransactionService) find(ctx context.Context, userID, id string) (core.Transaction, error) {
	if id == "" {
		return core.Transaction{}, fmt.Errorf("transaction id: %w", core.ErrNotFound)
	}
	txs, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("list transactions: %w", err)
	}
	for _, tx := range txs {
		if tx.ID == id {
			return tx, nil
		}
	}
	return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
}

// IsConflict reports errors the HTTP layer maps to 409.
func IsConflict(err error) bool {
	return errors.Is(err, core.ErrDuplicateCategory) ||
		errors.Is(err, core.ErrDuplicateGoalName) ||
		errors.Is(err, core.ErrDefaultCategory) ||
		errors.Is(err, core.ErrAmbiguousGoal)
}
