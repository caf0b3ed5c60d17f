package analytics

import (
	"reflect"
	"testing"
	"time"

	"finanzas/internal/core"
)

func tx(id string, date string, typ core.TransactionType, units int64, category, desc string) core.Transaction {
	d, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return core.Transaction{
		ID:          id,
		Date:        d,
		Type:        typ,
		Amount:      core.FromUnits(units),
		Category:    category,
		Description: desc,
		Method:      core.MethodManual,
	}
}

func sample() []core.Transaction {
	return []core.Transaction{
		tx("1", "2024-12-18", core.Expense, 100, "Comida", "Almuerzo"),
		tx("2", "2024-12-01", core.Income, 3000, "Salario", "Nómina"),
		tx("3", "2024-11-20", core.Expense, 40, "Transporte", "Taxi"),
		tx("4", "2024-12-18", core.Expense, 25, "Comida", "Café con pan"),
		tx("5", "2024-11-05", core.Income, 2000, "Salario", "Nómina"),
		tx("6", "2024-12-31", core.Expense, 60, "Ocio", "Cine"),
	}
}

func ids(txs []core.Transaction) []string {
	out := make([]string, len(txs))
	for i, t := range txs {
		out[i] = t.ID
	}
	return out
}

func TestResolvePeriod(t *testing.T) {
	cases := []struct {
		name       string
		now        time.Time
		sel        PeriodSelector
		start, end string
	}{
		{"current month", time.Date(2024, 2, 10, 15, 0, 0, 0, time.UTC), PeriodSelector{Kind: CurrentMonth}, "2024-02-01", "2024-02-29"},
		{"previous month", time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), PeriodSelector{Kind: PrevMonth}, "2024-02-01", "2024-02-29"},
		{"previous month across year", time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC), PeriodSelector{Kind: PrevMonth}, "2024-12-01", "2024-12-31"},
		{"custom passes through reversed bounds", time.Now(), PeriodSelector{Kind: Custom, Start: core.NewDate(2024, 5, 9), End: core.NewDate(2024, 5, 1)}, "2024-05-09", "2024-05-01"},
		{"unknown kind", time.Date(2024, 7, 4, 0, 0, 0, 0, time.UTC), PeriodSelector{Kind: ParsePeriodKind("last_year")}, "2024-07-01", "2024-07-31"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := ResolvePeriod(tc.now, tc.sel)
			if r.StartISO() != tc.start || r.EndISO() != tc.end {
				t.Fatalf("got %s..%s, want %s..%s", r.StartISO(), r.EndISO(), tc.start, tc.end)
			}
		})
	}
}

func TestFilter(t *testing.T) {
	all := sample()
	cases := []struct {
		name string
		c    FilterCriteria
		want []string
	}{
		{"no criteria sorts by date desc", FilterCriteria{}, []string{"6", "1", "4", "2", "3", "5"}},
		{"inclusive date bounds", FilterCriteria{StartDate: core.NewDate(2024, 12, 1), EndDate: core.NewDate(2024, 12, 18)}, []string{"1", "4", "2"}},
		{"category exact", FilterCriteria{Category: "Comida"}, []string{"1", "4"}},
		{"type", FilterCriteria{Type: core.Income}, []string{"2", "5"}},
		{"search description", FilterCriteria{SearchText: "CAFÉ"}, []string{"4"}},
		{"search category", FilterCriteria{SearchText: "transp"}, []string{"3"}},
		{"amount asc", FilterCriteria{Type: core.Expense, Sort: SortAmountAsc}, []string{"4", "3", "6", "1"}},
		{"amount desc", FilterCriteria{Sort: SortAmountDesc}, []string{"2", "5", "1", "6", "3", "4"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ids(Filter(all, tc.c)); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFilterIsIdempotentAndPure(t *testing.T) {
	all := sample()
	before := ids(all)
	c := FilterCriteria{StartDate: core.NewDate(2024, 12, 1), SearchText: "n", Sort: SortAmountAsc}
	once := Filter(all, c)
	twice := Filter(once, c)
	if !reflect.DeepEqual(ids(once), ids(twice)) {
		t.Fatalf("filter not idempotent: %v vs %v", ids(once), ids(twice))
	}
	if !reflect.DeepEqual(ids(all), before) {
		t.Fatalf("input was reordered")
	}
}

func TestTotalsNet(t *testing.T) {
	sets := [][]core.Transaction{nil, sample(), Filter(sample(), FilterCriteria{Type: core.Expense})}
	for i, set := range sets {
		tot := Totals(set)
		if tot.Income.Sub(tot.Expense) != tot.Net {
			t.Fatalf("set %d: income-expense != net (%+v)", i, tot)
		}
	}
	tot := Totals(sample())
	if tot.Income != core.FromUnits(5000) || tot.Expense != core.FromUnits(225) {
		t.Fatalf("totals = %+v", tot)
	}
}

func TestAllTimeBalanceIgnoresPeriod(t *testing.T) {
	all := sample()
	now := time.Date(2024, 12, 20, 0, 0, 0, 0, time.UTC)
	filtered := Filter(all, FilterCriteria{}.WithRange(ResolvePeriod(now, PeriodSelector{Kind: CurrentMonth})))
	d := BuildDashboard(all, filtered, nil, now, core.Expense)
	if d.AvailableBalance != core.FromUnits(4775) {
		t.Fatalf("available balance = %s, want 4775", d.AvailableBalance)
	}
	if d.Period.Net != core.FromUnits(2815) {
		t.Fatalf("period net = %s, want 2815", d.Period.Net)
	}
}

func TestByCategoryKeepsFirstOccurrence(t *testing.T) {
	txs := []core.Transaction{
		tx("1", "2024-01-01", core.Expense, 10, "B", ""),
		tx("2", "2024-01-02", core.Expense, 50, "A", ""),
		tx("3", "2024-01-03", core.Expense, 5, "B", ""),
		tx("4", "2024-01-03", core.Income, 5, "C", ""),
	}
	got := ByCategory(txs, core.Expense)
	want := []core.CategoryAmount{{Name: "B", Amount: core.FromUnits(15)}, {Name: "A", Amount: core.FromUnits(50)}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v", got)
	}
}

func TestTopCategories(t *testing.T) {
	var txs []core.Transaction
	for i, c := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		txs = append(txs, tx(c, "2024-01-01", core.Expense, int64(10*(i+1)), c, ""))
	}
	top := TopCategories(txs, core.Expense, TopN)
	if len(top) != 6 {
		t.Fatalf("len = %d", len(top))
	}
	if top[0].Name != "g" || top[5].Name != "b" {
		t.Fatalf("order = %+v", top)
	}
	// 70 of 280
	if top[0].Percent != 25 {
		t.Fatalf("percent = %d", top[0].Percent)
	}
}

func TestTrend(t *testing.T) {
	cases := []struct {
		cur, prev int64
		want      int
	}{
		{0, 0, 0},
		{50, 0, 100},
		{150, 100, 50},
		{50, 100, -50},
		{1, 3, -67},
		{2, 8, -75},
	}
	for _, tc := range cases {
		if got := Trend(core.FromUnits(tc.cur), core.FromUnits(tc.prev)); got != tc.want {
			t.Errorf("Trend(%d, %d) = %d, want %d", tc.cur, tc.prev, got, tc.want)
		}
	}
	// ties round toward positive infinity
	if got := Trend(core.Money{Cents: 1005}, core.FromUnits(10)); got != 1 {
		t.Errorf("0.5%% change rounded to %d", got)
	}
	if got := Trend(core.Money{Cents: 995}, core.FromUnits(10)); got != 0 {
		t.Errorf("-0.5%% change rounded to %d", got)
	}
}

func TestMonthOverMonth(t *testing.T) {
	now := time.Date(2024, 12, 5, 0, 0, 0, 0, time.UTC)
	got := MonthOverMonth(sample(), now)
	// income 3000 vs 2000, expense 185 vs 40
	if got.Income != 50 || got.Expense != 363 {
		t.Fatalf("trends = %+v", got)
	}
}

func TestDailySeriesCumulative(t *testing.T) {
	txs := []core.Transaction{
		tx("2", "2024-01-03", core.Expense, 50, "x", ""),
		tx("1", "2024-01-01", core.Expense, 100, "x", ""),
		tx("3", "2024-01-01", core.Income, 999, "y", ""),
	}
	got := DailySeries(txs, core.Expense)
	if len(got) != 2 {
		t.Fatalf("expected 2 buckets without a synthetic gap, got %d", len(got))
	}
	if got[0].Date.String() != "2024-01-01" || got[0].Cumulative != core.FromUnits(100) {
		t.Fatalf("first bucket = %+v", got[0])
	}
	if got[1].Date.String() != "2024-01-03" || got[1].Cumulative != core.FromUnits(150) {
		t.Fatalf("second bucket = %+v", got[1])
	}
	if got[0].DailyIncome != core.FromUnits(999) {
		t.Fatalf("daily income must still be reported, got %s", got[0].DailyIncome)
	}

	inc := DailySeries(txs, core.Income)
	if inc[1].Cumulative != core.FromUnits(999) {
		t.Fatalf("income mode accumulates income only, got %s", inc[1].Cumulative)
	}
}

func TestDayLabel(t *testing.T) {
	if got := DayLabel(core.NewDate(2024, 12, 18)); got != "18 dic" {
		t.Fatalf("got %q", got)
	}
	if got := DayLabel(core.NewDate(2024, 1, 5)); got != "05 ene" {
		t.Fatalf("got %q", got)
	}
}

func TestMonthlySeriesAcrossYear(t *testing.T) {
	got := MonthlySeries(sample(), "2025-02", ReportMonths)
	var labels []string
	for _, b := range got {
		labels = append(labels, b.Label)
	}
	want := []string{"Sep", "Oct", "Nov", "Dic", "Ene", "Feb"}
	if !reflect.DeepEqual(labels, want) {
		t.Fatalf("labels = %v", labels)
	}
	if got[2].Income != core.FromUnits(2000) || got[3].Expense != core.FromUnits(185) {
		t.Fatalf("buckets = %+v", got)
	}
}

func TestDailySpend(t *testing.T) {
	days, peak := DailySpend(sample())
	want := []DaySpend{
		{Day: 18, Amount: core.FromUnits(125)},
		{Day: 20, Amount: core.FromUnits(40)},
		{Day: 31, Amount: core.FromUnits(60)},
	}
	if !reflect.DeepEqual(days, want) {
		t.Fatalf("days = %+v", days)
	}
	if peak != core.FromUnits(125) {
		t.Fatalf("peak = %s", peak)
	}
	_, empty := DailySpend(nil)
	if empty != core.FromUnits(1) {
		t.Fatalf("empty peak = %s, want 1", empty)
	}
}

func TestMonthlyReport(t *testing.T) {
	all := append(sample(), core.Transaction{
		ID: "7", Date: core.NewDate(2024, 12, 2), Type: core.Expense, Amount: core.FromUnits(15),
		Category: "Comida", Method: core.MethodOCR,
	})
	r := MonthlyReport(all, "2024-12")
	if r.Title != "Diciembre 2024" {
		t.Fatalf("title = %q", r.Title)
	}
	if r.Current.Expense != core.FromUnits(200) || r.Previous.Expense != core.FromUnits(40) {
		t.Fatalf("totals = %+v / %+v", r.Current, r.Previous)
	}
	if r.Trends.Expense != 400 || r.Trends.Income != 50 {
		t.Fatalf("trends = %+v", r.Trends)
	}
	if r.TopExpenses[0].Name != "Comida" || r.TopExpenses[0].Percent != 70 {
		t.Fatalf("top = %+v", r.TopExpenses)
	}
	if r.TxCount != 5 || r.MethodCounts[core.MethodOCR] != 1 || r.MethodCounts[core.MethodManual] != 4 {
		t.Fatalf("counts = %d %+v", r.TxCount, r.MethodCounts)
	}
	if len(r.Overview) != ReportMonths || r.Overview[5].MonthYear != "2024-12" {
		t.Fatalf("overview = %+v", r.Overview)
	}
}

func TestSeverityBoundaries(t *testing.T) {
	cases := []struct {
		pct  float64
		want Severity
	}{
		{0, SeverityNormal},
		{49.99, SeverityNormal},
		{50, SeverityCaution},
		{79.9, SeverityCaution},
		{80, SeverityWarning},
		{99.99, SeverityWarning},
		{100, SeverityExceeded},
		{180, SeverityExceeded},
	}
	for _, tc := range cases {
		if got := SeverityFor(tc.pct); got != tc.want {
			t.Errorf("SeverityFor(%v) = %s, want %s", tc.pct, got, tc.want)
		}
	}
}

func TestEvaluateBudgets(t *testing.T) {
	budgets := []core.Budget{
		{ID: "b1", CategoryName: "Comida", Amount: core.FromUnits(250), MonthYear: "2024-12"},
		{ID: "b2", CategoryName: "Ocio", Amount: core.FromUnits(40), MonthYear: "2024-12"},
		{ID: "b3", CategoryName: "Transporte", Amount: core.FromUnits(80), MonthYear: "2024-12"},
		{ID: "b4", CategoryName: "Comida", Amount: core.FromUnits(10), MonthYear: "2024-11"},
		{ID: "b5", CategoryName: "Salud", MonthYear: "2024-12"},
	}
	got := EvaluateBudgets(budgets, sample(), "2024-12")
	if len(got) != 4 {
		t.Fatalf("expected only December budgets, got %d", len(got))
	}
	if got[0].Budget.ID != "b2" || got[0].Percent != 150 || got[0].CappedPercent != 100 || got[0].Severity != SeverityExceeded {
		t.Fatalf("first = %+v", got[0])
	}
	if got[1].Budget.ID != "b1" || got[1].Percent != 50 || got[1].Severity != SeverityCaution {
		t.Fatalf("second = %+v", got[1])
	}
	// November taxi does not count against December transport
	for _, s := range got[2:] {
		if s.Spent.Cents != 0 || s.Percent != 0 || s.Severity != SeverityNormal {
			t.Fatalf("unexpected spend %+v", s)
		}
	}
}
