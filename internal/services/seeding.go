package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"finanzas/internal/ports"
	"finanzas/internal/seed"
)

// Seeder creates the default categories and savings goals the first time a
// user is seen. Users that already own categories are left alone.
type Seeder struct {
	store    ports.Store
	defaults seed.Defaults

	mu   sync.Mutex
	done sync.Map // user id -> struct{}
}

func NewSeeder(store ports.Store, defaults seed.Defaults) *Seeder {
	return &Seeder{store: store, defaults: defaults}
}

func (s *Seeder) Ensure(ctx context.Context, userID string) error {
	if _, ok := s.done.Load(userID); ok {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.done.Load(userID); ok {
		return nil
	}

	cats, err := s.store.ListCategories(ctx, userID)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	if len(cats) > 0 {
		s.done.Store(userID, struct{}{})
		return nil
	}

	for _, c := range s.defaults.Categories {
		if _, err := s.store.CreateCategory(ctx, userID, c); err != nil {
			return fmt.Errorf("seed category %s: %w", c.Name, err)
		}
	}

	goals, err := s.store.ListGoals(ctx, userID)
	if err != nil {
		return fmt.Errorf("list goals: %w", err)
	}
	if len(goals) == 0 {
		for _, g := range s.defaults.Goals {
			if _, err := s.store.CreateGoal(ctx, userID, g); err != nil {
				return fmt.Errorf("seed goal %s: %w", g.Name, err)
			}
		}
	}

	slog.InfoContext(ctx, "Seeded defaults for new user",
		"user_id", userID,
		"categories", len(s.defaults.Categories),
		"goals", len(s.defaults.Goals))
	s.done.Store(userID, struct{}{})
	return nil
}
