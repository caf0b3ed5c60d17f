// Package analytics derives dashboards, reports and budget status from raw
// transaction sets. Every function is pure: inputs are never mutated and the
// current date is always passed in by the caller.
package analytics

import (
	"time"

	"finanzas/internal/core"
)

const (
	CurrentMonth PeriodKind = "current_month"
	PrevMonth    PeriodKind = "prev_month"
	Custom       PeriodKind = "custom"
)

type (
	PeriodKind string

	// PeriodSelector names a period. Start and End are read only for Custom.
	PeriodSelector struct {
		Kind  PeriodKind
		Start core.Date
		End   core.Date
	}

	// DateRange is an inclusive [Start, End] bound. Either side may be zero
	// for a custom range, meaning unbounded.
	DateRange struct {
		Start core.Date `json:"start"`
		End   core.Date `json:"end"`
	}
)

// ParsePeriodKind maps a query value to a kind; unknown values fall back to CurrentMonth.
func ParsePeriodKind(s string) PeriodKind {
	switch PeriodKind(s) {
	case PrevMonth:
		return PrevMonth
	case Custom:
		return Custom
	}
	return CurrentMonth
}

// ResolvePeriod turns a selector into a concrete range relative to now.
// Custom ranges pass through unchanged, even when Start is after End.
func ResolvePeriod(now time.Time, sel PeriodSelector) DateRange {
	switch sel.Kind {
	case Custom:
		return DateRange{Start: sel.Start, End: sel.End}
	case PrevMonth:
		return MonthRange(core.MonthYearOf(now).Prev())
	default:
		return MonthRange(core.MonthYearOf(now))
	}
}

// MonthRange spans the first through the last calendar day of m.
func MonthRange(m core.MonthYear) DateRange {
	first, last := m.Bounds()
	return DateRange{Start: first, End: last}
}

func (r DateRange) StartISO() string { return r.Start.String() }
func (r DateRange) EndISO() string   { return r.End.String() }

// Contains reports whether d falls inside the range; zero bounds are open.
func (r DateRange) Contains(d core.Date) bool {
	if !r.Start.IsZero() && d.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && d.After(r.End) {
		return false
	}
	return true
}
