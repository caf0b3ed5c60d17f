package core

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name    string `json:"name"`
	Amount  Money  `json:"amount"`
	Percent int    `json:"percent,omitempty"` // share of the type total, 0-100
}

// Totals is the income/expense reduction of a transaction set.
type Totals struct {
	Income  Money `json:"income"`
	Expense Money `json:"expense"`
	Net     Money `json:"net"`
}

// MonthBucket is one calendar month of an income/expense comparison.
type MonthBucket struct {
	MonthYear MonthYear `json:"monthYear"`
	Label     string    `json:"label"`
	Income    Money     `json:"income"`
	Expense   Money     `json:"expense"`
}
