package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"finanzas/internal/core"
)

func TestUsersAreIsolated(t *testing.T) {
	s := New()
	ctx := context.Background()

	created, err := s.CreateTransaction(ctx, "ana", core.Transaction{Amount: core.FromUnits(5), Category: "Comida", Type: core.Expense, Date: core.NewDate(2024, 1, 1)})
	if err != nil || created.ID == "" {
		t.Fatalf("CreateTransaction = %+v, %v", created, err)
	}
	if txs, _ := s.ListTransactions(ctx, "luis"); len(txs) != 0 {
		t.Errorf("luis sees %d transactions", len(txs))
	}
	if err := s.DeleteTransaction(ctx, "luis", created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("cross-user delete err = %v", err)
	}
}

func TestListReturnsCopies(t *testing.T) {
	s := New()
	ctx := context.Background()

	in, _ := s.CreateInstallment(ctx, "ana", core.Installment{Name: "Moto", TotalDebt: core.FromUnits(10), TotalInstallments: 1})
	if _, err := s.AddPayment(ctx, "ana", in.ID, core.InstallmentPayment{Amount: core.FromUnits(10)}, core.NewDate(2024, 2, 1)); err != nil {
		t.Fatal(err)
	}

	list, _ := s.ListInstallments(ctx, "ana")
	list[0].Payments[0].TransactionID = "mutated"
	list[0].Name = "mutated"

	again, _ := s.ListInstallments(ctx, "ana")
	if again[0].Payments[0].TransactionID != "" || again[0].Name != "Moto" {
		t.Errorf("store was mutated through a listed value: %+v", again[0])
	}
}

func TestAdjustGoalBalance(t *testing.T) {
	s := New()
	ctx := context.Background()
	g, _ := s.CreateGoal(ctx, "ana", core.SavingsGoal{Name: "Viaje", TargetAmount: core.FromUnits(100), CurrentAmount: core.FromUnits(30)})

	tests := []struct {
		name  string
		delta core.Money
		want  core.Money
	}{
		{"increment", core.FromUnits(20), core.FromUnits(50)},
		{"decrement", core.FromUnits(-10), core.FromUnits(40)},
		{"floors at zero", core.FromUnits(-100), core.Money{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.AdjustGoalBalance(ctx, "ana", g.ID, tt.delta)
			if err != nil {
				t.Fatalf("AdjustGoalBalance: %v", err)
			}
			if got.CurrentAmount != tt.want {
				t.Errorf("CurrentAmount = %v, want %v", got.CurrentAmount, tt.want)
			}
		})
	}
}

func TestSaveBudgetUpserts(t *testing.T) {
	s := New()
	ctx := context.Background()
	b := core.Budget{CategoryID: "c1", CategoryName: "Comida", Amount: core.FromUnits(100), MonthYear: "2024-12"}

	first, _ := s.SaveBudget(ctx, "ana", b)
	b.Amount = core.FromUnits(200)
	second, _ := s.SaveBudget(ctx, "ana", b)
	b.MonthYear = "2025-01"
	third, _ := s.SaveBudget(ctx, "ana", b)

	if first.ID != second.ID || third.ID == first.ID {
		t.Errorf("ids = %s, %s, %s", first.ID, second.ID, third.ID)
	}
	list, _ := s.ListBudgets(ctx, "ana")
	if len(list) != 2 || list[0].Amount != core.FromUnits(200) {
		t.Errorf("budgets = %+v", list)
	}
}

func TestUpdateInstallmentKeepsPayments(t *testing.T) {
	s := New()
	ctx := context.Background()
	in, _ := s.CreateInstallment(ctx, "ana", core.Installment{Name: "Nevera", TotalDebt: core.FromUnits(600), TotalInstallments: 6})
	p, _ := s.AddPayment(ctx, "ana", in.ID, core.InstallmentPayment{Amount: core.FromUnits(100)}, core.NewDate(2024, 3, 1))
	if err := s.LinkPaymentTransaction(ctx, "ana", p.ID, "tx-9"); err != nil {
		t.Fatal(err)
	}

	in.Name = "Nevera grande"
	in.Payments = nil
	if err := s.UpdateInstallment(ctx, "ana", in); err != nil {
		t.Fatal(err)
	}
	list, _ := s.ListInstallments(ctx, "ana")
	if list[0].Name != "Nevera grande" || len(list[0].Payments) != 1 || list[0].Payments[0].TransactionID != "tx-9" {
		t.Errorf("installment = %+v", list[0])
	}
	if err := s.LinkPaymentTransaction(ctx, "ana", "nope", "tx"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("link missing payment err = %v", err)
	}
}

func TestConcurrentWrites(t *testing.T) {
	s := New()
	ctx := context.Background()
	g, _ := s.CreateGoal(ctx, "ana", core.SavingsGoal{Name: "Fondo", TargetAmount: core.FromUnits(1000)})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.AdjustGoalBalance(ctx, "ana", g.ID, core.FromUnits(1))
		}()
	}
	wg.Wait()

	goals, _ := s.ListGoals(ctx, "ana")
	if goals[0].CurrentAmount != core.FromUnits(50) {
		t.Errorf("CurrentAmount = %v, want 50", goals[0].CurrentAmount)
	}
}
