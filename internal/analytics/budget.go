package analytics

import (
	"sort"

	"finanzas/internal/core"
)

const (
	SeverityNormal   Severity = "normal"
	SeverityCaution  Severity = "caution"
	SeverityWarning  Severity = "warning"
	SeverityExceeded Severity = "exceeded"
)

type (
	Severity string

	// BudgetStatus is the utilization of one budget in its month. Percent is
	// uncapped; CappedPercent is bounded to 100 for progress bars.
	BudgetStatus struct {
		Budget        core.Budget `json:"budget"`
		Category      string      `json:"category"`
		Limit         core.Money  `json:"limit"`
		Spent         core.Money  `json:"spent"`
		Percent       float64     `json:"percent"`
		CappedPercent float64     `json:"cappedPercent"`
		Severity      Severity    `json:"severity"`
	}
)

// SeverityFor classifies a utilization percentage. The tiers are fixed:
// below 50 normal, below 80 caution, below 100 warning, otherwise exceeded.
func SeverityFor(percent float64) Severity {
	switch {
	case percent >= 100:
		return SeverityExceeded
	case percent >= 80:
		return SeverityWarning
	case percent >= 50:
		return SeverityCaution
	default:
		return SeverityNormal
	}
}

// EvaluateBudgets reports the month's budgets against expenses of the same
// category name dated in that month, most utilized first.
func EvaluateBudgets(budgets []core.Budget, txs []core.Transaction, month core.MonthYear) []BudgetStatus {
	spent := make(map[string]core.Money)
	for _, tx := range txs {
		if tx.Type == core.Expense && month.Contains(tx.Date) {
			spent[tx.Category] = spent[tx.Category].Add(tx.Amount)
		}
	}

	out := make([]BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		if b.MonthYear != month {
			continue
		}
		s := spent[b.CategoryName]
		var pct float64
		if b.Amount.Cents > 0 {
			pct = float64(s.Cents) * 100 / float64(b.Amount.Cents)
		}
		capped := pct
		if capped > 100 {
			capped = 100
		}
		out = append(out, BudgetStatus{
			Budget:        b,
			Category:      b.CategoryName,
			Limit:         b.Amount,
			Spent:         s,
			Percent:       pct,
			CappedPercent: capped,
			Severity:      SeverityFor(pct),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Percent > out[j].Percent })
	return out
}
