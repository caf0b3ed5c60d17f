package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"finanzas/internal/core"
	"finanzas/internal/ports"
)

type CategoryService struct {
	store ports.Store
}

func NewCategoryService(store ports.Store) *CategoryService {
	return &CategoryService{store: store}
}

func (s *CategoryService) List(ctx context.Context, userID string) ([]core.Category, error) {
	cats, err := s.store.ListCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

// Create adds a user category. Names are unique per transaction type,
// compared case-insensitively.
func (s *CategoryService) Create(ctx context.Context, userID string, c core.Category) ([]core.Category, error) {
	c.ID = ""
	c.IsDefault = false
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return nil, err
	}

	cats, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, existing := range cats {
		if existing.Type == c.Type && strings.EqualFold(existing.Name, c.Name) {
			return nil, fmt.Errorf("category %q: %w", c.Name, core.ErrDuplicateCategory)
		}
	}

	if _, err := s.store.CreateCategory(ctx, userID, c); err != nil {
		return nil, fmt.Errorf("save category: %w", err)
	}
	return s.List(ctx, userID)
}

// Delete removes a user category. Default categories are refused.
func (s *CategoryService) Delete(ctx context.Context, userID, id string) ([]core.Category, error) {
	cats, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	found := false
	for _, c := range cats {
		if c.ID != id {
			continue
		}
		if c.IsDefault {
			return nil, fmt.Errorf("category %q: %w", c.Name, core.ErrDefaultCategory)
		}
		found = true
		break
	}
	if !found {
		return nil, fmt.Errorf("category %s: %w", id, core.ErrNotFound)
	}

	if err := s.store.DeleteCategory(ctx, userID, id); err != nil {
		return nil, fmt.Errorf("delete category: %w", err)
	}
	return s.List(ctx, userID)
}

type GoalService struct {
	store ports.Store
}

func NewGoalService(store ports.Store) *GoalService {
	return &GoalService{store: store}
}

func (s *GoalService) List(ctx context.Context, userID string) ([]core.SavingsGoal, error) {
	goals, err := s.store.ListGoals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return goals, nil
}

func (s *GoalService) Create(ctx context.Context, userID string, g core.SavingsGoal) ([]core.SavingsGoal, error) {
	g.ID = ""
	g.Name = strings.TrimSpace(g.Name)
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkUniqueName(ctx, userID, g); err != nil {
		return nil, err
	}

	created, err := s.store.CreateGoal(ctx, userID, g)
	if err != nil {
		return nil, fmt.Errorf("save goal: %w", err)
	}
	slog.InfoContext(ctx, "Savings goal created", "id", created.ID, "name", created.Name)
	return s.List(ctx, userID)
}

// Update rewrites name, target and color. The balance only moves through
// transfers, so the stored CurrentAmount is kept.
func (s *GoalService) Update(ctx context.Context, userID string, g core.SavingsGoal) ([]core.SavingsGoal, error) {
	g.Name = strings.TrimSpace(g.Name)
	goals, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	existing, ok := findGoal(goals, g.ID)
	if !ok {
		return nil, fmt.Errorf("goal %s: %w", g.ID, core.ErrNotFound)
	}
	g.CurrentAmount = existing.CurrentAmount
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkUniqueName(ctx, userID, g); err != nil {
		return nil, err
	}

	if err := s.store.UpdateGoal(ctx, userID, g); err != nil {
		return nil, fmt.Errorf("update goal: %w", err)
	}
	return s.List(ctx, userID)
}

// Delete removes a goal. Transfers that reference it become orphaned and are
// ignored by later reversals.
func (s *GoalService) Delete(ctx context.Context, userID, id string) ([]core.SavingsGoal, error) {
	if err := s.store.DeleteGoal(ctx, userID, id); err != nil {
		return nil, fmt.Errorf("delete goal: %w", err)
	}
	return s.List(ctx, userID)
}

func (s *GoalService) checkUniqueName(ctx context.Context, userID string, g core.SavingsGoal) error {
	goals, err := s.List(ctx, userID)
	if err != nil {
		return err
	}
	for _, existing := range goals {
		if existing.ID != g.ID && existing.Name == g.Name {
			return fmt.Errorf("goal %q: %w", g.Name, core.ErrDuplicateGoalName)
		}
	}
	return nil
}
