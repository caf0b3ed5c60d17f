// Package http serves the finanzas JSON API.
//
// This file turns query strings into analytics selectors and filter criteria.
package http

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"finanzas/internal/analytics"
	"finanzas/internal/core"
)

// ParseCriteria reads the list filters: from, to, category, type, q, sort.
// Blank parameters impose no constraint.
func ParseCriteria(query url.Values) (analytics.FilterCriteria, error) {
	c := analytics.FilterCriteria{
		Category:   sanitizeInput(query.Get("category")),
		SearchText: sanitizeInput(query.Get("q")),
		Sort:       analytics.ParseSortOrder(strings.TrimSpace(query.Get("sort"))),
	}

	var err error
	if c.StartDate, err = optionalDate(query, "from"); err != nil {
		return c, err
	}
	if c.EndDate, err = optionalDate(query, "to"); err != nil {
		return c, err
	}

	if v := strings.TrimSpace(query.Get("type")); v != "" {
		t := core.TransactionType(v)
		if !t.Valid() {
			return c, fmt.Errorf("%w: %q", core.ErrInvalidType, v)
		}
		c.Type = t
	}
	return c, nil
}

// ParsePeriod reads period (current_month, prev_month, custom) and, for a
// custom period, from and to.
func ParsePeriod(query url.Values) (analytics.PeriodSelector, error) {
	sel := analytics.PeriodSelector{Kind: analytics.ParsePeriodKind(strings.TrimSpace(query.Get("period")))}
	if sel.Kind != analytics.Custom {
		return sel, nil
	}
	var err error
	if sel.Start, err = optionalDate(query, "from"); err != nil {
		return sel, err
	}
	if sel.End, err = optionalDate(query, "to"); err != nil {
		return sel, err
	}
	return sel, nil
}

// ParseMode reads the chart mode; anything but income means expense.
func ParseMode(query url.Values) core.TransactionType {
	if core.TransactionType(strings.TrimSpace(query.Get("mode"))) == core.Income {
		return core.Income
	}
	return core.Expense
}

// ParseMonth reads a YYYY-MM parameter, defaulting to the month of now.
func ParseMonth(query url.Values, key string, now time.Time) (core.MonthYear, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return core.MonthYearOf(now), nil
	}
	return core.ParseMonthYear(v)
}

func optionalDate(query url.Values, key string) (core.Date, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
