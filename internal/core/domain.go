package core

import (
	"errors"
	"strings"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	MethodManual EntryMethod = "manual"
	MethodOCR    EntryMethod = "ocr"
	MethodVoice  EntryMethod = "voice"
)

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentTransfer PaymentMethod = "transfer"
)

const (
	// SavingsCategory is the category name carried by every transfer to a savings goal.
	SavingsCategory = "Ahorro"
	// TransferPrefix prefixes the description of a transfer; the goal name follows it.
	TransferPrefix = "Transferencia a: "
	// InstallmentCategory is used for installment payments when the debt has no category.
	InstallmentCategory = "Cuotas"
	// DefaultInstallmentSource is stored when an installment is saved without a source.
	DefaultInstallmentSource = "Sin especificar"
)

type (
	TransactionType string
	EntryMethod     string
	PaymentMethod   string

	Transaction struct {
		ID            string          `json:"id"`
		Amount        Money           `json:"amount"`
		Category      string          `json:"category"`
		Description   string          `json:"description"`
		Date          Date            `json:"date"`
		Type          TransactionType `json:"type"`
		Method        EntryMethod     `json:"method"`
		PaymentMethod PaymentMethod   `json:"paymentMethod,omitempty"`

		// LinkedGoalID is set on transfers to a savings goal.
		LinkedGoalID string `json:"linkedGoalId,omitempty"`
		// Provisional marks a transfer whose goal balance was never incremented.
		Provisional bool `json:"provisional,omitempty"`
		// InstallmentID is set on expenses created from an installment payment.
		InstallmentID string `json:"installmentId,omitempty"`
	}

	SavingsGoal struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		TargetAmount  Money  `json:"targetAmount"`
		CurrentAmount Money  `json:"currentAmount"`
		Color         string `json:"color"`
	}

	Category struct {
		ID        string          `json:"id"`
		Name      string          `json:"name"`
		Icon      string          `json:"icon"`
		Type      TransactionType `json:"type"`
		IsDefault bool            `json:"isDefault"`
	}

	Budget struct {
		ID           string    `json:"id"`
		CategoryID   string    `json:"categoryId"`
		CategoryName string    `json:"categoryName"`
		Amount       Money     `json:"amount"`
		MonthYear    MonthYear `json:"monthYear"`
	}
)

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrEmptyCategory       = errors.New("empty category")
	ErrInvalidType         = errors.New("invalid transaction type")
	ErrInvalidMethod       = errors.New("invalid entry method")
	ErrInvalidPayment      = errors.New("invalid payment method")
	ErrInvalidDate         = errors.New("invalid date")
	ErrEmptyName           = errors.New("empty name")
	ErrInvalidTarget       = errors.New("invalid target amount")
	ErrInvalidInstallments = errors.New("total installments must be at least 1")
	ErrInvalidMonthYear    = errors.New("invalid month, expected YYYY-MM")
	ErrDescriptionTooLong  = errors.New("description too long (max 200 characters)")

	ErrNotFound            = errors.New("not found")
	ErrDefaultCategory     = errors.New("default categories cannot be deleted")
	ErrDuplicateCategory   = errors.New("category already exists for this type")
	ErrDuplicateGoalName   = errors.New("a savings goal with this name already exists")
	ErrAmbiguousGoal       = errors.New("more than one savings goal matches the transfer")
	ErrInsufficientBalance = errors.New("amount exceeds available balance")
)

// IsValidation reports whether err is caught before any write is attempted.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidAmount, ErrEmptyCategory, ErrInvalidType, ErrInvalidMethod,
		ErrInvalidPayment, ErrInvalidDate, ErrEmptyName, ErrInvalidTarget,
		ErrInvalidInstallments, ErrInvalidMonthYear, ErrDescriptionTooLong,
		ErrInsufficientBalance,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (m EntryMethod) Valid() bool {
	switch m {
	case MethodManual, MethodOCR, MethodVoice:
		return true
	}
	return false
}

func (p PaymentMethod) Valid() bool {
	return p == PaymentCash || p == PaymentTransfer
}

// Validate checks the required fields of a transaction. Method and payment
// method may be empty; Normalize fills them in.
func (t Transaction) Validate() error {
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(t.Description) > 200 {
		return ErrDescriptionTooLong
	}
	if t.Method != "" && !t.Method.Valid() {
		return ErrInvalidMethod
	}
	if t.PaymentMethod != "" && !t.PaymentMethod.Valid() {
		return ErrInvalidPayment
	}
	return nil
}

// Normalize trims text fields and applies defaults for the optional tags.
func (t Transaction) Normalize() Transaction {
	t.Category = strings.TrimSpace(t.Category)
	t.Description = strings.TrimSpace(t.Description)
	if t.Method == "" {
		t.Method = MethodManual
	}
	if t.PaymentMethod == "" {
		t.PaymentMethod = PaymentCash
	}
	return t
}

// IsTransfer reports whether the transaction moved money into a savings goal,
// either through the explicit link or the legacy description convention.
func (t Transaction) IsTransfer() bool {
	if t.LinkedGoalID != "" {
		return true
	}
	_, ok := t.LegacyTransferGoal()
	return ok
}

// LegacyTransferGoal extracts the goal name from a transfer recorded before
// transactions carried an explicit goal link.
func (t Transaction) LegacyTransferGoal() (string, bool) {
	if t.Category != SavingsCategory || !strings.HasPrefix(t.Description, TransferPrefix) {
		return "", false
	}
	name := strings.TrimPrefix(t.Description, TransferPrefix)
	if name == "" {
		return "", false
	}
	return name, true
}

// TransferDescription is the description written on a transfer to the named goal.
func TransferDescription(goalName string) string {
	return TransferPrefix + goalName
}

func (g SavingsGoal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if g.TargetAmount.Cents <= 0 {
		return ErrInvalidTarget
	}
	if g.CurrentAmount.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Progress is current/target as a rounded percentage, capped at 100.
func (g SavingsGoal) Progress() int {
	if g.TargetAmount.Cents <= 0 || g.CurrentAmount.Cents <= 0 {
		return 0
	}
	p := (g.CurrentAmount.Cents*200 + g.TargetAmount.Cents) / (g.TargetAmount.Cents * 2)
	if p > 100 {
		return 100
	}
	return int(p)
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if !c.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.CategoryID) == "" || strings.TrimSpace(b.CategoryName) == "" {
		return ErrEmptyCategory
	}
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if _, err := ParseMonthYear(string(b.MonthYear)); err != nil {
		return err
	}
	return nil
}
