package core

import "strings"

const (
	InstallmentActive  InstallmentStatus = "active"
	InstallmentSettled InstallmentStatus = "settled"
)

type (
	InstallmentStatus string

	InstallmentPayment struct {
		ID     string `json:"id"`
		Amount Money  `json:"amount"`
		Date   Date   `json:"date"`

		// TransactionID references the linked expense, empty when none was created.
		TransactionID string `json:"transactionId,omitempty"`
	}

	Installment struct {
		ID                string               `json:"id"`
		Name              string               `json:"name"`
		Category          string               `json:"category,omitempty"`
		TotalDebt         Money                `json:"totalDebt"`
		TotalInstallments int                  `json:"totalInstallments"`
		MonthlyAmount     Money                `json:"monthlyAmount"`
		Source            string               `json:"source"`
		StartDate         Date                 `json:"startDate"`
		NextDueDate       Date                 `json:"nextDueDate"`
		Payments          []InstallmentPayment `json:"payments"`
	}
)

// MonthlyInstallment divides the debt into n equal dues, rounding each due up
// to a multiple of unit. A zero or negative unit means one whole currency unit.
//
//	MonthlyInstallment(1000000 units, 3, 1 unit)    -> 333334 units
//	MonthlyInstallment(1000000 units, 3, 1000 units) -> 334000 units
func MonthlyInstallment(totalDebt Money, n int, unit Money) Money {
	if n < 1 || totalDebt.Cents <= 0 {
		return Money{}
	}
	if unit.Cents <= 0 {
		unit = FromUnits(1)
	}
	per := ceilDiv(totalDebt.Cents, int64(n))
	return Money{Cents: ceilDiv(per, unit.Cents) * unit.Cents}
}

func ceilDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 {
		q++
	}
	return q
}

// Validate checks the user-supplied fields. MonthlyAmount is derived and not checked.
func (in Installment) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrEmptyName
	}
	if err := in.TotalDebt.Validate(); err != nil {
		return err
	}
	if in.TotalInstallments < 1 {
		return ErrInvalidInstallments
	}
	if err := in.StartDate.Validate(); err != nil {
		return err
	}
	return nil
}

// WithDefaults fills the source, next due date and monthly amount.
func (in Installment) WithDefaults(unit Money) Installment {
	in.Name = strings.TrimSpace(in.Name)
	in.Source = strings.TrimSpace(in.Source)
	if in.Source == "" {
		in.Source = DefaultInstallmentSource
	}
	if in.NextDueDate.IsZero() {
		in.NextDueDate = in.StartDate
	}
	in.MonthlyAmount = MonthlyInstallment(in.TotalDebt, in.TotalInstallments, unit)
	if in.Payments == nil {
		in.Payments = []InstallmentPayment{}
	}
	return in
}

func (in Installment) TotalPaid() Money {
	var total Money
	for _, p := range in.Payments {
		total = total.Add(p.Amount)
	}
	return total
}

func (in Installment) PaidCount() int {
	return len(in.Payments)
}

// RemainingDebt is negative when the debt was overpaid.
func (in Installment) RemainingDebt() Money {
	return in.TotalDebt.Sub(in.TotalPaid())
}

// DisplayRemaining is RemainingDebt floored at zero.
func (in Installment) DisplayRemaining() Money {
	return in.RemainingDebt().FloorZero()
}

// IsFullyPaid is true once either the payment count or the paid amount covers the debt.
func (in Installment) IsFullyPaid() bool {
	return in.PaidCount() >= in.TotalInstallments || in.RemainingDebt().Cents <= 0
}

func (in Installment) Status() InstallmentStatus {
	if in.IsFullyPaid() {
		return InstallmentSettled
	}
	return InstallmentActive
}

// ProgressPercent is the rounded share of dues paid, capped at 100.
func (in Installment) ProgressPercent() int {
	if in.TotalInstallments < 1 {
		return 0
	}
	p := (in.PaidCount()*200 + in.TotalInstallments) / (in.TotalInstallments * 2)
	if p > 100 {
		p = 100
	}
	return p
}

// PaymentCategory is the category of the expense linked to a payment.
func (in Installment) PaymentCategory() string {
	if c := strings.TrimSpace(in.Category); c != "" {
		return c
	}
	return InstallmentCategory
}

// TotalMonthlyCommitment sums the monthly amount of every unsettled installment.
func TotalMonthlyCommitment(installments []Installment) Money {
	var total Money
	for _, in := range installments {
		if !in.IsFullyPaid() {
			total = total.Add(in.MonthlyAmount)
		}
	}
	return total
}
