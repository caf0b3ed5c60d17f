package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"finanzas/internal/amqp"
	"finanzas/internal/core"
	"finanzas/internal/storage/memory"
)

func newCoordinator(store *faultyStore, pub Publisher, attempts int) *TransferCoordinator {
	c := NewTransferCoordinator(store, pub, TransferConfig{Attempts: attempts, BaseDelay: time.Millisecond})
	c.sleep = noSleep
	return c
}

func TestTransferSequential(t *testing.T) {
	ctx := context.Background()
	store := newFaultyStore()
	goal := mustGoal(t, store, "Vacaciones", 850)
	pub := &recordingPublisher{}

	res, err := newCoordinator(store, pub, 3).Transfer(ctx, user, goal.ID, core.FromUnits(150), testNow)
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if res.Provisional {
		t.Error("transfer should not be provisional")
	}
	if res.Goal.CurrentAmount != core.FromUnits(1000) {
		t.Errorf("goal balance = %v, want 1000", res.Goal.CurrentAmount)
	}

	tx := res.Transaction
	if tx.Category != core.SavingsCategory || tx.Description != "Transferencia a: Vacaciones" {
		t.Errorf("category/description = %q/%q", tx.Category, tx.Description)
	}
	if tx.Type != core.Expense || tx.PaymentMethod != core.PaymentTransfer || tx.Method != core.MethodManual {
		t.Errorf("type/payment/method = %s/%s/%s", tx.Type, tx.PaymentMethod, tx.Method)
	}
	if tx.Date != core.NewDate(2024, 12, 18) || tx.LinkedGoalID != goal.ID {
		t.Errorf("date/link = %s/%s", tx.Date, tx.LinkedGoalID)
	}
	if len(pub.drifts) != 0 {
		t.Errorf("drift alerts = %d, want 0", len(pub.drifts))
	}
	if len(pub.events) != 1 || pub.events[0].Kind != amqp.EventTransferCompleted {
		t.Errorf("events = %+v", pub.events)
	}
}

func TestTransferRetriesGoalWrite(t *testing.T) {
	ctx := context.Background()
	store := newFaultyStore()
	goal := mustGoal(t, store, "Vacaciones", 0)
	store.adjustFailures = 2

	var delays []time.Duration
	c := NewTransferCoordinator(store, nil, TransferConfig{Attempts: 3, BaseDelay: 100 * time.Millisecond})
	c.sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	res, err := c.Transfer(ctx, user, goal.ID, core.FromUnits(10), testNow)
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if res.Goal.CurrentAmount != core.FromUnits(10) {
		t.Errorf("goal balance = %v, want 10", res.Goal.CurrentAmount)
	}
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}
	if len(delays) != len(want) || delays[0] != want[0] || delays[1] != want[1] {
		t.Errorf("delays = %v, want %v", delays, want)
	}
}

func TestTransferGoalWriteFailsMarksProvisional(t *testing.T) {
	ctx := context.Background()
	store := newFaultyStore()
	goal := mustGoal(t, store, "Vacaciones", 100)
	store.adjustFailures = -1
	pub := &recordingPublisher{}

	res, err := newCoordinator(store, pub, 3).Transfer(ctx, user, goal.ID, core.FromUnits(50), testNow)
	if !errors.Is(err, ErrTransferIncomplete) || !errors.Is(err, errStore) {
		t.Fatalf("Transfer error = %v, want ErrTransferIncomplete wrapping the store error", err)
	}
	if !res.Provisional || !res.Transaction.Provisional {
		t.Error("result should be provisional")
	}

	txs, _ := store.ListTransactions(ctx, user)
	if len(txs) != 1 || !txs[0].Provisional {
		t.Fatalf("stored transactions = %+v, want one provisional transfer", txs)
	}
	store.adjustFailures = 0
	if got := goalBalance(t, store, goal.ID); got != core.FromUnits(100) {
		t.Errorf("goal balance = %v, want unchanged 100", got)
	}

	if len(pub.drifts) != 1 {
		t.Fatalf("drift alerts = %d, want 1", len(pub.drifts))
	}
	a := pub.drifts[0]
	if a.Kind != amqp.DriftTransferGoalWrite || a.TransactionID != res.Transaction.ID || a.GoalID != goal.ID || a.AmountCents != 5000 {
		t.Errorf("drift alert = %+v", a)
	}
}

func TestTransferAtomicPath(t *testing.T) {
	ctx := context.Background()
	store := &atomicStore{Store: memory.New()}
	goal := mustGoal(t, store, "Nuevo Coche", 4500)

	c := NewTransferCoordinator(store, nil, DefaultTransferConfig())
	res, err := c.Transfer(ctx, user, goal.ID, core.FromUnits(500), testNow)
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if store.calls != 1 {
		t.Errorf("CreateTransfer calls = %d, want 1", store.calls)
	}
	if res.Goal.CurrentAmount != core.FromUnits(5000) {
		t.Errorf("goal balance = %v, want 5000", res.Goal.CurrentAmount)
	}
}

func TestTransferValidation(t *testing.T) {
	ctx := context.Background()
	store := newFaultyStore()
	goal := mustGoal(t, store, "Vacaciones", 0)
	c := newCoordinator(store, nil, 1)

	tests := []struct {
		name    string
		goalID  string
		amount  core.Money
		wantErr error
	}{
		{"zero amount", goal.ID, core.Money{}, core.ErrInvalidAmount},
		{"negative amount", goal.ID, core.Money{Cents: -100}, core.ErrInvalidAmount},
		{"unknown goal", "missing", core.FromUnits(1), core.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := c.Transfer(ctx, user, tt.goalID, tt.amount, testNow); !errors.Is(err, tt.wantErr) {
				t.Errorf("Transfer error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	txs, _ := store.ListTransactions(ctx, user)
	if len(txs) != 0 {
		t.Errorf("transactions written = %d, want 0", len(txs))
	}
}

func TestReverseTransfer(t *testing.T) {
	ctx := context.Background()

	t.Run("floors at zero", func(t *testing.T) {
		store := newFaultyStore()
		goal := mustGoal(t, store, "Vacaciones", 30)
		c := newCoordinator(store, nil, 1)

		tx := core.Transaction{ID: "t1", Amount: core.FromUnits(50), LinkedGoalID: goal.ID}
		g, err := c.ReverseTransfer(ctx, user, tx)
		if err != nil {
			t.Fatalf("ReverseTransfer: %v", err)
		}
		if g == nil || g.CurrentAmount.Cents != 0 {
			t.Errorf("goal = %+v, want balance 0", g)
		}
	})

	t.Run("legacy name lookup", func(t *testing.T) {
		store := newFaultyStore()
		goal := mustGoal(t, store, "Vacaciones", 300)
		c := newCoordinator(store, nil, 1)

		tx := core.Transaction{
			ID:          "t1",
			Amount:      core.FromUnits(100),
			Category:    core.SavingsCategory,
			Description: "Transferencia a: Vacaciones",
		}
		if _, err := c.ReverseTransfer(ctx, user, tx); err != nil {
			t.Fatalf("ReverseTransfer: %v", err)
		}
		if got := goalBalance(t, store, goal.ID); got != core.FromUnits(200) {
			t.Errorf("goal balance = %v, want 200", got)
		}
	})

	t.Run("ambiguous legacy name", func(t *testing.T) {
		store := newFaultyStore()
		mustGoal(t, store, "Vacaciones", 300)
		mustGoal(t, store, "Vacaciones", 300)
		c := newCoordinator(store, nil, 1)

		tx := core.Transaction{Amount: core.FromUnits(100), Category: core.SavingsCategory, Description: "Transferencia a: Vacaciones"}
		if _, err := c.ReverseTransfer(ctx, user, tx); !errors.Is(err, core.ErrAmbiguousGoal) {
			t.Errorf("ReverseTransfer error = %v, want ErrAmbiguousGoal", err)
		}
	})

	noops := []struct {
		name string
		tx   core.Transaction
	}{
		{"not a transfer", core.Transaction{Amount: core.FromUnits(5), Category: "Comida"}},
		{"provisional", core.Transaction{Amount: core.FromUnits(5), LinkedGoalID: "g", Provisional: true}},
		{"orphaned link", core.Transaction{Amount: core.FromUnits(5), LinkedGoalID: "deleted"}},
		{"orphaned legacy name", core.Transaction{Amount: core.FromUnits(5), Category: core.SavingsCategory, Description: "Transferencia a: Moto"}},
	}
	for _, tt := range noops {
		t.Run(tt.name, func(t *testing.T) {
			store := newFaultyStore()
			goal := mustGoal(t, store, "Vacaciones", 300)
			c := newCoordinator(store, nil, 1)

			g, err := c.ReverseTransfer(ctx, user, tt.tx)
			if err != nil || g != nil {
				t.Errorf("ReverseTransfer = %+v, %v; want nil, nil", g, err)
			}
			if got := goalBalance(t, store, goal.ID); got != core.FromUnits(300) {
				t.Errorf("goal balance = %v, want 300", got)
			}
		})
	}
}
