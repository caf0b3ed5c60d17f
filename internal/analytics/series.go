package analytics

import (
	"fmt"
	"sort"

	"finanzas/internal/core"
)

// ReportMonths is the number of trailing months in the report overview.
const ReportMonths = 6

var (
	dayMonthLabels   = [12]string{"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sept", "oct", "nov", "dic"}
	monthShortLabels = [12]string{"Ene", "Feb", "Mar", "Abr", "May", "Jun", "Jul", "Ago", "Sep", "Oct", "Nov", "Dic"}
	monthLongLabels  = [12]string{"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio", "Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre"}
)

type (
	// DailyPoint is one day of the dashboard area chart.
	DailyPoint struct {
		Date         core.Date  `json:"date"`
		Label        string     `json:"label"`
		DailyIncome  core.Money `json:"dailyIncome"`
		DailyExpense core.Money `json:"dailyExpense"`
		Cumulative   core.Money `json:"cumulative"`
	}

	// DaySpend is the expense total of one day of the month.
	DaySpend struct {
		Day    int        `json:"day"`
		Amount core.Money `json:"amount"`
	}
)

// DayLabel renders a short Spanish date such as "18 dic".
func DayLabel(d core.Date) string {
	return fmt.Sprintf("%02d %s", d.Day(), dayMonthLabels[d.Time.Month()-1])
}

// MonthLabel renders the short month name ("Ene".."Dic").
func MonthLabel(m core.MonthYear) string {
	if m.Month() < 1 {
		return ""
	}
	return monthShortLabels[m.Month()-1]
}

// MonthTitle renders "Enero 2025".
func MonthTitle(m core.MonthYear) string {
	if m.Month() < 1 {
		return ""
	}
	return fmt.Sprintf("%s %d", monthLongLabels[m.Month()-1], m.Year())
}

// DailySeries buckets transactions by calendar day and emits one point per
// day present in the input, ascending. Cumulative accumulates only the
// selected mode, starting from zero; income and expense are never netted.
func DailySeries(txs []core.Transaction, mode core.TransactionType) []DailyPoint {
	buckets := make(map[string]*DailyPoint)
	for _, tx := range txs {
		if tx.Date.IsZero() {
			continue
		}
		key := tx.Date.String()
		p, ok := buckets[key]
		if !ok {
			p = &DailyPoint{Date: core.DateOf(tx.Date.Time)}
			buckets[key] = p
		}
		switch tx.Type {
		case core.Income:
			p.DailyIncome = p.DailyIncome.Add(tx.Amount)
		case core.Expense:
			p.DailyExpense = p.DailyExpense.Add(tx.Amount)
		}
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]DailyPoint, 0, len(keys))
	var running core.Money
	for _, k := range keys {
		p := *buckets[k]
		if mode == core.Income {
			running = running.Add(p.DailyIncome)
		} else {
			running = running.Add(p.DailyExpense)
		}
		p.Cumulative = running
		p.Label = DayLabel(p.Date)
		out = append(out, p)
	}
	return out
}

// MonthlySeries returns n consecutive months ending at anchor, oldest first,
// each with its own income and expense totals.
func MonthlySeries(txs []core.Transaction, anchor core.MonthYear, n int) []core.MonthBucket {
	if n < 1 {
		return []core.MonthBucket{}
	}
	out := make([]core.MonthBucket, n)
	index := make(map[core.MonthYear]int, n)
	for i := 0; i < n; i++ {
		m := anchor.AddMonths(i - n + 1)
		out[i] = core.MonthBucket{MonthYear: m, Label: MonthLabel(m)}
		index[m] = i
	}
	for _, tx := range txs {
		i, ok := index[tx.Date.MonthYear()]
		if !ok || tx.Date.IsZero() {
			continue
		}
		switch tx.Type {
		case core.Income:
			out[i].Income = out[i].Income.Add(tx.Amount)
		case core.Expense:
			out[i].Expense = out[i].Expense.Add(tx.Amount)
		}
	}
	return out
}

// DailySpend sums expenses by day of month, ascending by day, and returns the
// largest daily total, never below one currency unit so it can scale bars.
func DailySpend(txs []core.Transaction) ([]DaySpend, core.Money) {
	byDay := make(map[int]core.Money)
	for _, tx := range txs {
		if tx.Type != core.Expense || tx.Date.IsZero() {
			continue
		}
		byDay[tx.Date.Day()] = byDay[tx.Date.Day()].Add(tx.Amount)
	}

	out := make([]DaySpend, 0, len(byDay))
	peak := core.FromUnits(1)
	for day, amount := range byDay {
		out = append(out, DaySpend{Day: day, Amount: amount})
		if amount.Cents > peak.Cents {
			peak = amount
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out, peak
}
