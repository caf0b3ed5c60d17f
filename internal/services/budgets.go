package services

import (
	"context"
	"fmt"
	"strings"

	"finanzas/internal/analytics"
	"finanzas/internal/core"
	"finanzas/internal/ports"
)

type BudgetService struct {
	store ports.Store
}

func NewBudgetService(store ports.Store) *BudgetService {
	return &BudgetService{store: store}
}

// ForMonth lists the budgets set for month.
func (s *BudgetService) ForMonth(ctx context.Context, userID string, month core.MonthYear) ([]core.Budget, error) {
	all, err := s.store.ListBudgets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	out := make([]core.Budget, 0, len(all))
	for _, b := range all {
		if b.MonthYear == month {
			out = append(out, b)
		}
	}
	return out, nil
}

// Save creates the budget, or replaces the amount of the one already set for
// the same category and month. The category name is filled from the
// category list when omitted.
func (s *BudgetService) Save(ctx context.Context, userID string, b core.Budget) ([]core.Budget, error) {
	b.CategoryName = strings.TrimSpace(b.CategoryName)
	if b.CategoryName == "" && b.CategoryID != "" {
		cats, err := s.store.ListCategories(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("list categories: %w", err)
		}
		for _, c := range cats {
			if c.ID == b.CategoryID {
				b.CategoryName = c.Name
				break
			}
		}
		if b.CategoryName == "" {
			return nil, fmt.Errorf("category %s: %w", b.CategoryID, core.ErrNotFound)
		}
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.store.SaveBudget(ctx, userID, b); err != nil {
		return nil, fmt.Errorf("save budget: %w", err)
	}
	return s.ForMonth(ctx, userID, b.MonthYear)
}

// Delete removes a budget and returns the remaining budgets of its month.
func (s *BudgetService) Delete(ctx context.Context, userID, id string) ([]core.Budget, error) {
	all, err := s.store.ListBudgets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	var month core.MonthYear
	for _, b := range all {
		if b.ID == id {
			month = b.MonthYear
			break
		}
	}
	if month == "" {
		return nil, fmt.Errorf("budget %s: %w", id, core.ErrNotFound)
	}

	if err := s.store.DeleteBudget(ctx, userID, id); err != nil {
		return nil, fmt.Errorf("delete budget: %w", err)
	}
	return s.ForMonth(ctx, userID, month)
}

// Status evaluates the month's budgets against the month's expenses.
func (s *BudgetService) Status(ctx context.Context, userID string, month core.MonthYear) ([]analytics.BudgetStatus, error) {
	budgets, err := s.ForMonth(ctx, userID, month)
	if err != nil {
		return nil, err
	}
	txs, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return analytics.EvaluateBudgets(budgets, txs, month), nil
}
