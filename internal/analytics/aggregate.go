package analytics

import (
	"math"
	"sort"
	"time"

	"finanzas/internal/core"
)

// TopN is the number of categories shown in ranked breakdowns.
const TopN = 6

// Trends holds month-over-month percentage changes.
type Trends struct {
	Income  int `json:"income"`
	Expense int `json:"expense"`
}

// Totals sums the set by type. Net is always Income - Expense.
func Totals(txs []core.Transaction) core.Totals {
	var t core.Totals
	for _, tx := range txs {
		switch tx.Type {
		case core.Income:
			t.Income = t.Income.Add(tx.Amount)
		case core.Expense:
			t.Expense = t.Expense.Add(tx.Amount)
		}
	}
	t.Net = t.Income.Sub(t.Expense)
	return t
}

// AllTimeBalance is the headline available balance. Callers must pass the
// complete history, never a period-filtered subset.
func AllTimeBalance(all []core.Transaction) core.Money {
	return Totals(all).Net
}

// ByCategory groups amounts of the given type by category name, in order of
// first occurrence.
func ByCategory(txs []core.Transaction, typ core.TransactionType) []core.CategoryAmount {
	index := make(map[string]int)
	out := make([]core.CategoryAmount, 0)
	for _, tx := range txs {
		if tx.Type != typ {
			continue
		}
		i, ok := index[tx.Category]
		if !ok {
			i = len(out)
			index[tx.Category] = i
			out = append(out, core.CategoryAmount{Name: tx.Category})
		}
		out[i].Amount = out[i].Amount.Add(tx.Amount)
	}
	return out
}

// TopCategories ranks ByCategory by amount, largest first, keeping at most n.
// Each entry carries its rounded share of the type total.
func TopCategories(txs []core.Transaction, typ core.TransactionType, n int) []core.CategoryAmount {
	cats := ByCategory(txs, typ)
	var total int64
	for _, c := range cats {
		total += c.Amount.Cents
	}
	sort.SliceStable(cats, func(i, j int) bool { return cats[i].Amount.Cents > cats[j].Amount.Cents })
	if n >= 0 && len(cats) > n {
		cats = cats[:n]
	}
	for i := range cats {
		if total > 0 {
			cats[i].Percent = roundHalfUp(float64(cats[i].Amount.Cents) * 100 / float64(total))
		}
	}
	return cats
}

// Trend is the rounded percentage change from previous to current. A zero
// previous value yields 100 when current is positive and 0 otherwise.
func Trend(current, previous core.Money) int {
	if previous.Cents > 0 {
		return roundHalfUp(float64(current.Cents-previous.Cents) * 100 / float64(previous.Cents))
	}
	if current.Cents > 0 {
		return 100
	}
	return 0
}

// MonthOverMonth compares now's calendar month against the one before it.
// It must be fed the unfiltered set.
func MonthOverMonth(all []core.Transaction, now time.Time) Trends {
	month := core.MonthYearOf(now)
	cur := Totals(InMonth(all, month))
	prev := Totals(InMonth(all, month.Prev()))
	return Trends{
		Income:  Trend(cur.Income, prev.Income),
		Expense: Trend(cur.Expense, prev.Expense),
	}
}

// TotalSavings sums the current balance of every goal.
func TotalSavings(goals []core.SavingsGoal) core.Money {
	var total core.Money
	for _, g := range goals {
		total = total.Add(g.CurrentAmount)
	}
	return total
}

// roundHalfUp rounds to the nearest integer, ties toward positive infinity.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
