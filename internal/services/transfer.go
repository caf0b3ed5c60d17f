package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"finanzas/internal/amqp"
	"finanzas/internal/core"
	"finanzas/internal/metrics"
	"finanzas/internal/ports"
)

// ErrTransferIncomplete means the transfer transaction was stored but the goal
// balance could not be incremented; the transaction was marked provisional.
var ErrTransferIncomplete = errors.New("transfer recorded but goal balance not updated")

type (
	TransferConfig struct {
		// Attempts is the number of goal-balance writes tried on the sequential path.
		Attempts  int
		BaseDelay time.Duration
	}

	TransferResult struct {
		Transaction core.Transaction `json:"transaction"`
		Goal        core.SavingsGoal `json:"goal"`
		Provisional bool             `json:"provisional"`
	}

	// TransferCoordinator moves money from general funds into a savings goal
	// and reverses such moves when the transfer transaction is deleted.
	TransferCoordinator struct {
		store     ports.Store
		publisher Publisher
		cfg       TransferConfig
		sleep     func(context.Context, time.Duration) error
	}
)

func DefaultTransferConfig() TransferConfig {
	return TransferConfig{Attempts: 3, BaseDelay: 200 * time.Millisecond}
}

func NewTransferCoordinator(store ports.Store, publisher Publisher, cfg TransferConfig) *TransferCoordinator {
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	return &TransferCoordinator{
		store:     store,
		publisher: publisher,
		cfg:       cfg,
		sleep:     sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Transfer records an expense tagged as a transfer to goalID dated on now's
// day, and increments the goal by amount. The available-balance check is the
// caller's responsibility.
func (c *TransferCoordinator) Transfer(ctx context.Context, userID, goalID string, amount core.Money, now time.Time) (TransferResult, error) {
	if err := amount.Validate(); err != nil {
		return TransferResult{}, err
	}

	goals, err := c.store.ListGoals(ctx, userID)
	if err != nil {
		return TransferResult{}, fmt.Errorf("list goals: %w", err)
	}
	goal, ok := findGoal(goals, goalID)
	if !ok {
		return TransferResult{}, fmt.Errorf("goal %s: %w", goalID, core.ErrNotFound)
	}

	tx := core.Transaction{
		Amount:        amount,
		Category:      core.SavingsCategory,
		Description:   core.TransferDescription(goal.Name),
		Date:          core.DateOf(now),
		Type:          core.Expense,
		Method:        core.MethodManual,
		PaymentMethod: core.PaymentTransfer,
		LinkedGoalID:  goal.ID,
	}

	var result TransferResult
	if atomic, ok := c.store.(ports.AtomicTransferer); ok {
		result, err = c.transferAtomic(ctx, atomic, userID, tx)
	} else {
		result, err = c.transferSequential(ctx, userID, tx)
	}
	if result.Transaction.ID != "" {
		publishEvent(ctx, c.publisher, amqp.NewLedgerEvent(amqp.EventTransferCompleted, userID, result.Transaction.ID, amount.Cents))
	}
	return result, err
}

func (c *TransferCoordinator) transferAtomic(ctx context.Context, store ports.AtomicTransferer, userID string, tx core.Transaction) (TransferResult, error) {
	created, goal, err := store.CreateTransfer(ctx, userID, tx)
	if err != nil {
		metrics.Transfers.WithLabelValues(metrics.PathAtomic, "failed").Inc()
		return TransferResult{}, fmt.Errorf("create transfer: %w", err)
	}
	metrics.Transfers.WithLabelValues(metrics.PathAtomic, "ok").Inc()
	return TransferResult{Transaction: created, Goal: goal}, nil
}

// transferSequential writes the transaction first and only then the goal, so
// a failure in between under-counts the goal rather than double-counting it.
func (c *TransferCoordinator) transferSequential(ctx context.Context, userID string, tx core.Transaction) (TransferResult, error) {
	created, err := c.store.CreateTransaction(ctx, userID, tx)
	if err != nil {
		metrics.Transfers.WithLabelValues(metrics.PathSequential, "failed").Inc()
		return TransferResult{}, fmt.Errorf("create transfer transaction: %w", err)
	}

	var goalErr error
	for attempt := 0; attempt < c.cfg.Attempts; attempt++ {
		if attempt > 0 {
			metrics.TransferRetries.Inc()
			if err := c.sleep(ctx, c.cfg.BaseDelay<<(attempt-1)); err != nil {
				goalErr = errors.Join(goalErr, err)
				break
			}
		}
		goal, err := c.store.AdjustGoalBalance(ctx, userID, tx.LinkedGoalID, tx.Amount)
		if err == nil {
			metrics.Transfers.WithLabelValues(metrics.PathSequential, "ok").Inc()
			return TransferResult{Transaction: created, Goal: goal}, nil
		}
		goalErr = err
		slog.WarnContext(ctx, "Goal balance write failed",
			"goal_id", tx.LinkedGoalID,
			"attempt", attempt+1,
			"error", err)
	}

	// Compensate by marking the transaction provisional so reversal skips it.
	created.Provisional = true
	if err := c.store.UpdateTransaction(ctx, userID, created); err != nil {
		created.Provisional = false
		goalErr = errors.Join(goalErr, fmt.Errorf("mark provisional: %w", err))
	}

	alert := amqp.NewDriftAlert(amqp.DriftTransferGoalWrite, userID, goalErr)
	alert.TransactionID = created.ID
	alert.GoalID = tx.LinkedGoalID
	alert.AmountCents = tx.Amount.Cents
	reportDrift(ctx, c.publisher, alert)

	metrics.Transfers.WithLabelValues(metrics.PathSequential, "provisional").Inc()
	return TransferResult{Transaction: created, Provisional: true},
		fmt.Errorf("%w: %w", ErrTransferIncomplete, goalErr)
}

// ReverseTransfer undoes the goal increment of a transfer transaction. It
// returns the updated goal, or nil when there is nothing to reverse: the
// transaction is not a transfer, it is provisional, or its goal is gone.
func (c *TransferCoordinator) ReverseTransfer(ctx context.Context, userID string, tx core.Transaction) (*core.SavingsGoal, error) {
	goal, _, err := c.reverse(ctx, userID, tx)
	return goal, err
}

// reverse also returns how much was actually removed, which is less than the
// transaction amount when the goal balance was floored at zero.
func (c *TransferCoordinator) reverse(ctx context.Context, userID string, tx core.Transaction) (*core.SavingsGoal, core.Money, error) {
	if !tx.IsTransfer() || tx.Provisional {
		return nil, core.Money{}, nil
	}

	goals, err := c.store.ListGoals(ctx, userID)
	if err != nil {
		return nil, core.Money{}, fmt.Errorf("list goals: %w", err)
	}

	target, err := resolveTransferGoal(goals, tx)
	if err != nil || target == nil {
		return nil, core.Money{}, err
	}

	updated, err := c.store.AdjustGoalBalance(ctx, userID, target.ID, core.Money{Cents: -tx.Amount.Cents})
	if err != nil {
		return nil, core.Money{}, fmt.Errorf("decrement goal: %w", err)
	}
	removed := target.CurrentAmount.Sub(updated.CurrentAmount)

	slog.InfoContext(ctx, "Transfer reversed",
		"transaction_id", tx.ID,
		"goal_id", updated.ID,
		"removed_cents", removed.Cents)

	return &updated, removed, nil
}

// restore puts back an amount removed by reverse after a failed delete.
func (c *TransferCoordinator) restore(ctx context.Context, userID string, goal *core.SavingsGoal, amount core.Money, tx core.Transaction, cause error) {
	if goal == nil || amount.Cents == 0 {
		return
	}
	if _, err := c.store.AdjustGoalBalance(ctx, userID, goal.ID, amount); err != nil {
		alert := amqp.NewDriftAlert(amqp.DriftTransferReversal, userID, errors.Join(cause, err))
		alert.TransactionID = tx.ID
		alert.GoalID = goal.ID
		alert.AmountCents = amount.Cents
		reportDrift(ctx, c.publisher, alert)
	}
}

// resolveTransferGoal finds the goal of a transfer by explicit link, or by
// exact unique name for legacy records. A missing goal yields nil.
func resolveTransferGoal(goals []core.SavingsGoal, tx core.Transaction) (*core.SavingsGoal, error) {
	if tx.LinkedGoalID != "" {
		g, ok := findGoal(goals, tx.LinkedGoalID)
		if !ok {
			return nil, nil
		}
		return &g, nil
	}

	name, ok := tx.LegacyTransferGoal()
	if !ok {
		return nil, nil
	}
	var match *core.SavingsGoal
	for i := range goals {
		if goals[i].Name != name {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("goal %q: %w", name, core.ErrAmbiguousGoal)
		}
		match = &goals[i]
	}
	return match, nil
}

func findGoal(goals []core.SavingsGoal, id string) (core.SavingsGoal, bool) {
	for _, g := range goals {
		if g.ID == id {
			return g, true
		}
	}
	return core.SavingsGoal{}, false
}
