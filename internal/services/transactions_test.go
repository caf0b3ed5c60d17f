package services

import (
	"context"
	"errors"
	"testing"

	"finanzas/internal/amqp"
	"finanzas/internal/core"
	"finanzas/internal/extract"
)

func newTransactionService(store *faultyStore, pub Publisher) *TransactionService {
	return NewTransactionService(store, newCoordinator(store, pub, 1), pub)
}

func TestTransactionServiceCreate(t *testing.T) {
	ctx := context.Background()
	store := newFaultyStore()
	pub := &recordingPublisher{}
	svc := newTransactionService(store, pub)

	list, err := svc.Create(ctx, user, core.Transaction{
		Amount:      core.FromUnits(25),
		Category:    "  Comida ",
		Description: "Mercado",
		Date:        core.NewDate(2024, 12, 18),
		Type:        core.Expense,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("list = %d, want 1", len(list))
	}
	got := list[0]
	if got.ID == "" || got.Category != "Comida" || got.Method != core.MethodManual || got.PaymentMethod != core.PaymentCash {
		t.Errorf("stored = %+v", got)
	}
	if len(pub.events) != 1 || pub.events[0].Kind != amqp.EventTransactionCreated {
		t.Errorf("events = %+v", pub.events)
	}

	invalid := []struct {
		name    string
		tx      core.Transaction
		wantErr error
	}{
		{"zero amount", core.Transaction{Category: "Comida", Date: core.NewDate(2024, 12, 1), Type: core.Expense}, core.ErrInvalidAmount},
		{"no category", core.Transaction{Amount: core.FromUnits(1), Date: core.NewDate(2024, 12, 1), Type: core.Expense}, core.ErrEmptyCategory},
		{"bad type", core.Transaction{Amount: core.FromUnits(1), Category: "Comida", Date: core.NewDate(2024, 12, 1), Type: "gift"}, core.ErrInvalidType},
		{"no date", core.Transaction{Amount: core.FromUnits(1), Category: "Comida", Type: core.Expense}, core.ErrInvalidDate},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, user, tt.tx); !errors.Is(err, tt.wantErr) {
				t.Errorf("Create error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTransactionServiceCreateFromDraft(t *testing.T) {
	ctx := context.Background()
	svc := newTransactionService(newFaultyStore(), nil)

	list, err := svc.CreateFromDraft(ctx, user, extract.Draft{
		Kind:     extract.KindReceipt,
		Amount:   core.FromUnits(12),
		Category: "Comida",
		Date:     core.NewDate(2024, 12, 2),
		Type:     core.Expense,
	})
	if err != nil {
		t.Fatalf("CreateFromDraft: %v", err)
	}
	if list[0].Method != core.MethodOCR {
		t.Errorf("method = %s, want ocr", list[0].Method)
	}

	if _, err := svc.CreateFromDraft(ctx, user, extract.Draft{Kind: extract.KindVoice, Category: "Comida", Date: core.NewDate(2024, 12, 2)}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("draft without amount error = %v, want ErrInvalidAmount", err)
	}
}

func TestTransactionServiceUpdateKeepsLinks(t *testing.T) {
	ctx := context.Background()
	store := newFaultyStore()
	goal := mustGoal(t, store, "Vacaciones", 0)
	svc := newTransactionService(store, nil)

	res, err := svc.transfers.Transfer(ctx, user, goal.ID, core.FromUnits(100), testNow)
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}

	edited := res.Transaction
	edited.LinkedGoalID = ""
	edited.Amount = core.FromUnits(80)
	list, err := svc.Update(ctx, user, edited)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if list[0].LinkedGoalID != goal.ID {
		t.Error("update dropped the goal link")
	}
	if got := goalBalance(t, store, goal.ID); got != core.FromUnits(80) {
		t.Errorf("goal balance = %v, want 80", got)
	}

	edited.ID = "missing"
	if _, err := svc.Update(ctx, user, edited); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Update missing error = %v, want ErrNotFound", err)
	}
}

func TestTransactionServiceDeleteTransfer(t *testing.T) {
	ctx := context.Background()
	store := newFaultyStore()
	goal := mustGoal(t, store, "Vacaciones", 850)
	pub := &recordingPublisher{}
	svc := newTransactionService(store, pub)

	res, err := svc.transfers.Transfer(ctx, user, goal.ID, core.FromUnits(150), testNow)
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}

	list, err := svc.Delete(ctx, user, res.Transaction.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("list = %d, want 0", len(list))
	}
	if got := goalBalance(t, store, goal.ID); got != core.FromUnits(850) {
		t.Errorf("goal balance = %v, want 850", got)
	}

	if _, err := svc.Delete(ctx, user, res.Transaction.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second Delete error = %v, want ErrNotFound", err)
	}
}

func TestTransactionServiceDeleteFailureRestoresGoal(t *testing.T) {
	ctx := context.Background()
	store := newFaultyStore()
	goal := mustGoal(t, store, "Vacaciones", 20)
	pub := &recordingPublisher{}
	svc := newTransactionService(store, pub)

	// A transfer larger than the balance: reversal only removes what is there.
	tx, err := store.CreateTransaction(ctx, user, core.Transaction{
		Amount:       core.FromUnits(50),
		Category:     core.SavingsCategory,
		Description:  core.TransferDescription("Vacaciones"),
		Date:         core.NewDate(2024, 12, 1),
		Type:         core.Expense,
		LinkedGoalID: goal.ID,
	})
	if err != nil {
		t.Fatal(err)
	}

	store.deleteTxErr = errStore
	if _, err := svc.Delete(ctx, user, tx.ID); !errors.Is(err, errStore) {
		t.Fatalf("Delete error = %v, want store error", err)
	}
	if got := goalBalance(t, store, goal.ID); got != core.FromUnits(20) {
		t.Errorf("goal balance = %v, want restored 20", got)
	}
	if len(pub.drifts) != 0 {
		t.Errorf("drift alerts = %d, want 0", len(pub.drifts))
	}
	txs, _ := store.ListTransactions(ctx, user)
	if len(txs) != 1 {
		t.Errorf("transactions = %d, want 1", len(txs))
	}
}

func TestTransactionServiceDeleteAmbiguousKeepsTransaction(t *testing.T) {
	ctx := context.Background()
	store := newFaultyStore()
	mustGoal(t, store, "Vacaciones", 100)
	mustGoal(t, store, "Vacaciones", 100)
	svc := newTransactionService(store, nil)

	tx, err := store.CreateTransaction(ctx, user, core.Transaction{
		Amount:      core.FromUnits(10),
		Category:    core.SavingsCategory,
		Description: "Transferencia a: Vacaciones",
		Date:        core.NewDate(2024, 12, 1),
		Type:        core.Expense,
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = svc.Delete(ctx, user, tx.ID)
	if !errors.Is(err, core.ErrAmbiguousGoal) {
		t.Fatalf("Delete error = %v, want ErrAmbiguousGoal", err)
	}
	if !IsConflict(err) {
		t.Error("ambiguous goal should be reported as a conflict")
	}
	txs, _ := store.ListTransactions(ctx, user)
	if len(txs) != 1 {
		t.Errorf("transactions = %d, want 1", len(txs))
	}
}
