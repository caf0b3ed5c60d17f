package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"finanzas/internal/analytics"
	"finanzas/internal/core"
	"finanzas/internal/ports"
)

// DashboardService feeds the read-only analytics views from the store.
type DashboardService struct {
	store ports.Store
}

func NewDashboardService(store ports.Store) *DashboardService {
	return &DashboardService{store: store}
}

// DashboardQuery selects the period, the list filters and the chart mode.
// Any date bounds in Criteria are replaced by the resolved period.
type DashboardQuery struct {
	Period   analytics.PeriodSelector
	Criteria analytics.FilterCriteria
	Mode     core.TransactionType
}

// DashboardView is the headline view plus the filtered transaction list.
type DashboardView struct {
	analytics.Dashboard
	Range        analytics.DateRange `json:"range"`
	Transactions []core.Transaction  `json:"transactions"`
}

func (s *DashboardService) Dashboard(ctx context.Context, userID string, now time.Time, q DashboardQuery) (DashboardView, error) {
	var (
		txs   []core.Transaction
		goals []core.SavingsGoal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if txs, err = s.store.ListTransactions(gctx, userID); err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if goals, err = s.store.ListGoals(gctx, userID); err != nil {
			return fmt.Errorf("list goals: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return DashboardView{}, err
	}

	r := analytics.ResolvePeriod(now, q.Period)
	filtered := analytics.Filter(txs, q.Criteria.WithRange(r))

	return DashboardView{
		Dashboard:    analytics.BuildDashboard(txs, filtered, goals, now, q.Mode),
		Range:        r,
		Transactions: filtered,
	}, nil
}

// Transactions applies criteria to the full history.
func (s *DashboardService) Transactions(ctx context.Context, userID string, c analytics.FilterCriteria) ([]core.Transaction, error) {
	txs, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return analytics.Filter(txs, c), nil
}

func (s *DashboardService) Report(ctx context.Context, userID string, month core.MonthYear) (analytics.Report, error) {
	txs, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		return analytics.Report{}, fmt.Errorf("list transactions: %w", err)
	}
	return analytics.MonthlyReport(txs, month), nil
}

// AvailableBalance is the all-time income minus expense.
func (s *DashboardService) AvailableBalance(ctx context.Context, userID string) (core.Money, error) {
	txs, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		return core.Money{}, fmt.Errorf("list transactions: %w", err)
	}
	return analytics.AllTimeBalance(txs), nil
}
