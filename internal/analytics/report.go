package analytics

import (
	"time"

	"finanzas/internal/core"
)

type (
	// Report is the month view: totals against the previous month, ranked
	// categories, a per-day spend map and a trailing overview.
	Report struct {
		MonthYear     core.MonthYear           `json:"monthYear"`
		Title         string                   `json:"title"`
		Current       core.Totals              `json:"current"`
		Previous      core.Totals              `json:"previous"`
		Trends        Trends                   `json:"trends"`
		TopExpenses   []core.CategoryAmount    `json:"topExpenses"`
		TopIncome     []core.CategoryAmount    `json:"topIncome"`
		DailySpend    []DaySpend               `json:"dailySpend"`
		MaxDailySpend core.Money               `json:"maxDailySpend"`
		Overview      []core.MonthBucket       `json:"overview"`
		TxCount       int                      `json:"txCount"`
		MethodCounts  map[core.EntryMethod]int `json:"methodCounts"`
	}

	// Dashboard is the headline view. AvailableBalance and Trends come from
	// the complete history; everything else reflects the filtered set.
	Dashboard struct {
		AvailableBalance core.Money            `json:"availableBalance"`
		TotalSavings     core.Money            `json:"totalSavings"`
		Period           core.Totals           `json:"period"`
		Trends           Trends                `json:"trends"`
		ExpenseByCat     []core.CategoryAmount `json:"expenseByCategory"`
		IncomeByCat      []core.CategoryAmount `json:"incomeByCategory"`
		Series           []DailyPoint          `json:"series"`
		Mode             core.TransactionType  `json:"mode"`
	}
)

// MonthlyReport builds the report for month from the complete history.
func MonthlyReport(all []core.Transaction, month core.MonthYear) Report {
	cur := InMonth(all, month)
	curTotals := Totals(cur)
	prevTotals := Totals(InMonth(all, month.Prev()))
	daily, peak := DailySpend(cur)

	counts := map[core.EntryMethod]int{
		core.MethodManual: 0,
		core.MethodOCR:    0,
		core.MethodVoice:  0,
	}
	for _, tx := range cur {
		if tx.Method.Valid() {
			counts[tx.Method]++
		}
	}

	return Report{
		MonthYear: month,
		Title:     MonthTitle(month),
		Current:   curTotals,
		Previous:  prevTotals,
		Trends: Trends{
			Income:  Trend(curTotals.Income, prevTotals.Income),
			Expense: Trend(curTotals.Expense, prevTotals.Expense),
		},
		TopExpenses:   TopCategories(cur, core.Expense, TopN),
		TopIncome:     TopCategories(cur, core.Income, TopN),
		DailySpend:    daily,
		MaxDailySpend: peak,
		Overview:      MonthlySeries(all, month, ReportMonths),
		TxCount:       len(cur),
		MethodCounts:  counts,
	}
}

// BuildDashboard assembles the headline view. all must be the unfiltered
// history and filtered the set produced by Filter for the active period.
// Modes other than income chart expenses.
func BuildDashboard(all, filtered []core.Transaction, goals []core.SavingsGoal, now time.Time, mode core.TransactionType) Dashboard {
	if mode != core.Income {
		mode = core.Expense
	}
	return Dashboard{
		AvailableBalance: AllTimeBalance(all),
		TotalSavings:     TotalSavings(goals),
		Period:           Totals(filtered),
		Trends:           MonthOverMonth(all, now),
		ExpenseByCat:     ByCategory(filtered, core.Expense),
		IncomeByCat:      ByCategory(filtered, core.Income),
		Series:           DailySeries(filtered, mode),
		Mode:             mode,
	}
}
