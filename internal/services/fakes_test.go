package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"finanzas/internal/amqp"
	"finanzas/internal/core"
	"finanzas/internal/storage/memory"
)

const user = "user-1"

var errStore = errors.New("store unavailable")

// faultyStore wraps the memory store and fails selected writes.
type faultyStore struct {
	*memory.Store

	// adjustFailures is the number of AdjustGoalBalance calls left to fail;
	// negative fails every call.
	adjustFailures int
	deleteTxErr    error
	createTxErr    error
	linkErr        error
	updateTxErr    error
}

func newFaultyStore() *faultyStore {
	return &faultyStore{Store: memory.New()}
}

func (f *faultyStore) AdjustGoalBalance(ctx context.Context, userID, goalID string, delta core.Money) (core.SavingsGoal, error) {
	if f.adjustFailures != 0 {
		if f.adjustFailures > 0 {
			f.adjustFailures--
		}
		return core.SavingsGoal{}, errStore
	}
	return f.Store.AdjustGoalBalance(ctx, userID, goalID, delta)
}

func (f *faultyStore) DeleteTransaction(ctx context.Context, userID, id string) error {
	if f.deleteTxErr != nil {
		return f.deleteTxErr
	}
	return f.Store.DeleteTransaction(ctx, userID, id)
}

func (f *faultyStore) CreateTransaction(ctx context.Context, userID string, tx core.Transaction) (core.Transaction, error) {
	if f.createTxErr != nil {
		return core.Transaction{}, f.createTxErr
	}
	return f.Store.CreateTransaction(ctx, userID, tx)
}

func (f *faultyStore) UpdateTransaction(ctx context.Context, userID string, tx core.Transaction) error {
	if f.updateTxErr != nil {
		return f.updateTxErr
	}
	return f.Store.UpdateTransaction(ctx, userID, tx)
}

func (f *faultyStore) LinkPaymentTransaction(ctx context.Context, userID, paymentID, txID string) error {
	if f.linkErr != nil {
		return f.linkErr
	}
	return f.Store.LinkPaymentTransaction(ctx, userID, paymentID, txID)
}

// atomicStore adds a single-unit transfer to the memory store.
type atomicStore struct {
	*memory.Store
	calls int
}

func (a *atomicStore) CreateTransfer(ctx context.Context, userID string, tx core.Transaction) (core.Transaction, core.SavingsGoal, error) {
	a.calls++
	created, err := a.Store.CreateTransaction(ctx, userID, tx)
	if err != nil {
		return core.Transaction{}, core.SavingsGoal{}, err
	}
	goal, err := a.Store.AdjustGoalBalance(ctx, userID, tx.LinkedGoalID, tx.Amount)
	if err != nil {
		return core.Transaction{}, core.SavingsGoal{}, err
	}
	return created, goal, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	drifts []*amqp.DriftAlert
	events []*amqp.LedgerEvent
}

func (p *recordingPublisher) PublishDrift(_ context.Context, a *amqp.DriftAlert) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.drifts = append(p.drifts, a)
	return nil
}

func (p *recordingPublisher) PublishLedgerEvent(_ context.Context, ev *amqp.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func noSleep(context.Context, time.Duration) error { return nil }

var testNow = time.Date(2024, 12, 18, 15, 0, 0, 0, time.UTC)

func mustGoal(t *testing.T, s interface {
	CreateGoal(context.Context, string, core.SavingsGoal) (core.SavingsGoal, error)
}, name string, current int64) core.SavingsGoal {
	t.Helper()
	g, err := s.CreateGoal(context.Background(), user, core.SavingsGoal{
		Name:          name,
		TargetAmount:  core.FromUnits(5000),
		CurrentAmount: core.FromUnits(current),
	})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}
	return g
}

func goalBalance(t *testing.T, s interface {
	ListGoals(context.Context, string) ([]core.SavingsGoal, error)
}, id string) core.Money {
	t.Helper()
	goals, err := s.ListGoals(context.Background(), user)
	if err != nil {
		t.Fatalf("list goals: %v", err)
	}
	for _, g := range goals {
		if g.ID == id {
			return g.CurrentAmount
		}
	}
	t.Fatalf("goal %s not found", id)
	return core.Money{}
}
