// Package ports declares the persistence collaborator the services depend on.
package ports

import (
	"context"

	"finanzas/internal/core"
)

// Ports for outbound adapters. Every method is scoped to an opaque user id.
type (
	TransactionStore interface {
		ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error)
		// CreateTransaction assigns the id and returns the stored record.
		CreateTransaction(ctx context.Context, userID string, tx core.Transaction) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, userID string, tx core.Transaction) error
		DeleteTransaction(ctx context.Context, userID, id string) error
	}

	GoalStore interface {
		ListGoals(ctx context.Context, userID string) ([]core.SavingsGoal, error)
		CreateGoal(ctx context.Context, userID string, g core.SavingsGoal) (core.SavingsGoal, error)
		UpdateGoal(ctx context.Context, userID string, g core.SavingsGoal) error
		DeleteGoal(ctx context.Context, userID, id string) error
		// AdjustGoalBalance adds delta to the goal's current amount, flooring the
		// result at zero, and returns the updated goal.
		AdjustGoalBalance(ctx context.Context, userID, goalID string, delta core.Money) (core.SavingsGoal, error)
	}

	CategoryStore interface {
		ListCategories(ctx context.Context, userID string) ([]core.Category, error)
		CreateCategory(ctx context.Context, userID string, c core.Category) (core.Category, error)
		DeleteCategory(ctx context.Context, userID, id string) error
	}

	BudgetStore interface {
		ListBudgets(ctx context.Context, userID string) ([]core.Budget, error)
		// SaveBudget inserts or, when a budget exists for the same category
		// and month, replaces its amount.
		SaveBudget(ctx context.Context, userID string, b core.Budget) (core.Budget, error)
		DeleteBudget(ctx context.Context, userID, id string) error
	}

	InstallmentStore interface {
		ListInstallments(ctx context.Context, userID string) ([]core.Installment, error)
		CreateInstallment(ctx context.Context, userID string, in core.Installment) (core.Installment, error)
		// UpdateInstallment writes every field except the payment history.
		UpdateInstallment(ctx context.Context, userID string, in core.Installment) error
		// DeleteInstallment removes the debt and its payments.
		DeleteInstallment(ctx context.Context, userID, id string) error
		// AddPayment appends a payment and moves the next due date in one write.
		AddPayment(ctx context.Context, userID, installmentID string, p core.InstallmentPayment, nextDue core.Date) (core.InstallmentPayment, error)
		LinkPaymentTransaction(ctx context.Context, userID, paymentID, transactionID string) error
	}

	// Store is the full persistence collaborator.
	Store interface {
		TransactionStore
		GoalStore
		CategoryStore
		BudgetStore
		InstallmentStore
	}

	// AtomicTransferer is implemented by stores that can write a transfer
	// transaction and the goal increment in a single unit.
	AtomicTransferer interface {
		CreateTransfer(ctx context.Context, userID string, tx core.Transaction) (core.Transaction, core.SavingsGoal, error)
	}
)
