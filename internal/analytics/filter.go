package analytics

import (
	"sort"
	"strings"

	"finanzas/internal/core"
)

const (
	SortDateDesc   SortOrder = "date_desc"
	SortAmountAsc  SortOrder = "amount_asc"
	SortAmountDesc SortOrder = "amount_desc"
)

type (
	SortOrder string

	// FilterCriteria narrows a transaction set. Zero values impose no constraint.
	FilterCriteria struct {
		StartDate  core.Date
		EndDate    core.Date
		Category   string
		Type       core.TransactionType
		SearchText string
		Sort       SortOrder
	}
)

// ParseSortOrder maps a query value to a sort order; unknown values sort by date.
func ParseSortOrder(s string) SortOrder {
	switch SortOrder(s) {
	case SortAmountAsc:
		return SortAmountAsc
	case SortAmountDesc:
		return SortAmountDesc
	}
	return SortDateDesc
}

// WithRange returns a copy of c bounded by r.
func (c FilterCriteria) WithRange(r DateRange) FilterCriteria {
	c.StartDate = r.Start
	c.EndDate = r.End
	return c
}

// Filter returns the transactions matching c in a newly allocated slice.
// Date bounds are inclusive. SearchText matches description or category,
// case-insensitively. The sort is stable and replaces the date order entirely
// when an amount order is selected.
func Filter(txs []core.Transaction, c FilterCriteria) []core.Transaction {
	needle := strings.ToLower(strings.TrimSpace(c.SearchText))
	span := DateRange{Start: c.StartDate, End: c.EndDate}

	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if !span.Contains(t.Date) {
			continue
		}
		if c.Category != "" && t.Category != c.Category {
			continue
		}
		if c.Type != "" && t.Type != c.Type {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(t.Description), needle) &&
			!strings.Contains(strings.ToLower(t.Category), needle) {
			continue
		}
		out = append(out, t)
	}

	switch c.Sort {
	case SortAmountAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Amount.Cents < out[j].Amount.Cents })
	case SortAmountDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Amount.Cents > out[j].Amount.Cents })
	default:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	}
	return out
}

// InMonth keeps the transactions dated inside m, preserving input order.
func InMonth(txs []core.Transaction, m core.MonthYear) []core.Transaction {
	out := make([]core.Transaction, 0)
	for _, t := range txs {
		if m.Contains(t.Date) {
			out = append(out, t)
		}
	}
	return out
}
