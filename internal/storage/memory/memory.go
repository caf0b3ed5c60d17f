// Package memory is an in-process store used by tests and DATA_BACKEND=memory.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"finanzas/internal/core"
)

type (
	Store struct {
		mu    sync.Mutex
		users map[string]*userData
	}

	userData struct {
		txs          []core.Transaction
		goals        []core.SavingsGoal
		cats         []core.Category
		budgets      []core.Budget
		installments []core.Installment
	}
)

func New() *Store {
	return &Store{users: make(map[string]*userData)}
}

func newID() string {
	return uuid.NewString()
}

// user returns the data of userID, creating it on first use. Callers hold mu.
func (s *Store) user(userID string) *userData {
	u, ok := s.users[userID]
	if !ok {
		u = &userData{}
		s.users[userID] = u
	}
	return u
}

func (s *Store) ListTransactions(_ context.Context, userID string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction{}, s.user(userID).txs...), nil
}

func (s *Store) CreateTransaction(_ context.Context, userID string, tx core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx.ID = newID()
	u := s.user(userID)
	u.txs = append(u.txs, tx)
	return tx, nil
}

func (s *Store) UpdateTransaction(_ context.Context, userID string, tx core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(userID)
	for i := range u.txs {
		if u.txs[i].ID == tx.ID {
			u.txs[i] = tx
			return nil
		}
	}
	return fmt.Errorf("transaction %s: %w", tx.ID, core.ErrNotFound)
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(userID)
	for i := range u.txs {
		if u.txs[i].ID == id {
			u.txs = append(u.txs[:i], u.txs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
}

func (s *Store) ListGoals(_ context.Context, userID string) ([]core.SavingsGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.SavingsGoal{}, s.user(userID).goals...), nil
}

func (s *Store) CreateGoal(_ context.Context, userID string, g core.SavingsGoal) (core.SavingsGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g.ID = newID()
	u := s.user(userID)
	u.goals = append(u.goals, g)
	return g, nil
}

func (s *Store) UpdateGoal(_ context.Context, userID string, g core.SavingsGoal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(userID)
	for i := range u.goals {
		if u.goals[i].ID == g.ID {
			u.goals[i] = g
			return nil
		}
	}
	return fmt.Errorf("goal %s: %w", g.ID, core.ErrNotFound)
}

func (s *Store) DeleteGoal(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(userID)
	for i := range u.goals {
		if u.goals[i].ID == id {
			u.goals = append(u.goals[:i], u.goals[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("goal %s: %w", id, core.ErrNotFound)
}

func (s *Store) AdjustGoalBalance(_ context.Context, userID, goalID string, delta core.Money) (core.SavingsGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(userID)
	for i := range u.goals {
		if u.goals[i].ID == goalID {
			u.goals[i].CurrentAmount = u.goals[i].CurrentAmount.Add(delta).FloorZero()
			return u.goals[i], nil
		}
	}
	return core.SavingsGoal{}, fmt.Errorf("goal %s: %w", goalID, core.ErrNotFound)
}

func (s *Store) ListCategories(_ context.Context, userID string) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Category{}, s.user(userID).cats...), nil
}

func (s *Store) CreateCategory(_ context.Context, userID string, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(userID)
	for _, existing := range u.cats {
		if existing.Name == c.Name && existing.Type == c.Type {
			return core.Category{}, core.ErrDuplicateCategory
		}
	}
	c.ID = newID()
	u.cats = append(u.cats, c)
	return c, nil
}

func (s *Store) DeleteCategory(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(userID)
	for i := range u.cats {
		if u.cats[i].ID == id {
			u.cats = append(u.cats[:i], u.cats[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("category %s: %w", id, core.ErrNotFound)
}

func (s *Store) ListBudgets(_ context.Context, userID string) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Budget{}, s.user(userID).budgets...), nil
}

func (s *Store) SaveBudget(_ context.Context, userID string, b core.Budget) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(userID)
	for i := range u.budgets {
		if u.budgets[i].CategoryID == b.CategoryID && u.budgets[i].MonthYear == b.MonthYear {
			u.budgets[i].Amount = b.Amount
			u.budgets[i].CategoryName = b.CategoryName
			return u.budgets[i], nil
		}
	}
	b.ID = newID()
	u.budgets = append(u.budgets, b)
	return b, nil
}

func (s *Store) DeleteBudget(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(userID)
	for i := range u.budgets {
		if u.budgets[i].ID == id {
			u.budgets = append(u.budgets[:i], u.budgets[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("budget %s: %w", id, core.ErrNotFound)
}

func copyInstallment(in core.Installment) core.Installment {
	in.Payments = append([]core.InstallmentPayment{}, in.Payments...)
	return in
}

func (s *Store) ListInstallments(_ context.Context, userID string) ([]core.Installment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(userID)
	out := make([]core.Installment, len(u.installments))
	for i, in := range u.installments {
		out[i] = copyInstallment(in)
	}
	return out, nil
}

func (s *Store) CreateInstallment(_ context.Context, userID string, in core.Installment) (core.Installment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in = copyInstallment(in)
	in.ID = newID()
	for i := range in.Payments {
		in.Payments[i].ID = newID()
	}
	u := s.user(userID)
	u.installments = append(u.installments, in)
	return copyInstallment(in), nil
}

func (s *Store) UpdateInstallment(_ context.Context, userID string, in core.Installment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(userID)
	for i := range u.installments {
		if u.installments[i].ID == in.ID {
			in.Payments = u.installments[i].Payments
			u.installments[i] = in
			return nil
		}
	}
	return fmt.Errorf("installment %s: %w", in.ID, core.ErrNotFound)
}

func (s *Store) DeleteInstallment(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(userID)
	for i := range u.installments {
		if u.installments[i].ID == id {
			u.installments = append(u.installments[:i], u.installments[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("installment %s: %w", id, core.ErrNotFound)
}

func (s *Store) AddPayment(_ context.Context, userID, installmentID string, p core.InstallmentPayment, nextDue core.Date) (core.InstallmentPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(userID)
	for i := range u.installments {
		if u.installments[i].ID == installmentID {
			p.ID = newID()
			u.installments[i].Payments = append(u.installments[i].Payments, p)
			u.installments[i].NextDueDate = nextDue
			return p, nil
		}
	}
	return core.InstallmentPayment{}, fmt.Errorf("installment %s: %w", installmentID, core.ErrNotFound)
}

func (s *Store) LinkPaymentTransaction(_ context.Context, userID, paymentID, transactionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(userID)
	for i := range u.installments {
		for j := range u.installments[i].Payments {
			if u.installments[i].Payments[j].ID == paymentID {
				u.installments[i].Payments[j].TransactionID = transactionID
				return nil
			}
		}
	}
	return fmt.Errorf("payment %s: %w", paymentID, core.ErrNotFound)
}
