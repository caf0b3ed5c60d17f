package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"finanzas/internal/core"
)

func (r *SQLiteRepository) ListInstallments(ctx context.Context, userID string) ([]core.Installment, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, category, total_debt_cents, total_installments,
		monthly_cents, source, start_date, next_due_date
		FROM installments WHERE user_id = ? ORDER BY rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("list installments: %w", err)
	}
	defer rows.Close()

	out := make([]core.Installment, 0)
	index := make(map[string]int)
	for rows.Next() {
		var (
			in          core.Installment
			start, next string
		)
		if err := rows.Scan(&in.ID, &in.Name, &in.Category, &in.TotalDebt.Cents, &in.TotalInstallments,
			&in.MonthlyAmount.Cents, &in.Source, &start, &next); err != nil {
			return nil, fmt.Errorf("scan installment: %w", err)
		}
		if in.StartDate, err = core.ParseDate(start); err != nil {
			return nil, fmt.Errorf("installment %s: %w", in.ID, err)
		}
		if in.NextDueDate, err = core.ParseDate(next); err != nil {
			return nil, fmt.Errorf("installment %s: %w", in.ID, err)
		}
		in.Payments = []core.InstallmentPayment{}
		index[in.ID] = len(out)
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	payments, err := r.db.QueryContext(ctx, `SELECT id, installment_id, amount_cents, date, transaction_id
		FROM installment_payments WHERE user_id = ? ORDER BY rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("list installment payments: %w", err)
	}
	defer payments.Close()

	for payments.Next() {
		var (
			p             core.InstallmentPayment
			installmentID string
			date          string
			txID          sql.NullString
		)
		if err := payments.Scan(&p.ID, &installmentID, &p.Amount.Cents, &date, &txID); err != nil {
			return nil, fmt.Errorf("scan installment payment: %w", err)
		}
		if p.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("payment %s: %w", p.ID, err)
		}
		p.TransactionID = txID.String
		if i, ok := index[installmentID]; ok {
			out[i].Payments = append(out[i].Payments, p)
		}
	}
	return out, payments.Err()
}

func (r *SQLiteRepository) CreateInstallment(ctx context.Context, userID string, in core.Installment) (core.Installment, error) {
	in.ID = uuid.NewString()
	_, err := r.db.ExecContext(ctx, `INSERT INTO installments (id, user_id, name, category, total_debt_cents,
		total_installments, monthly_cents, source, start_date, next_due_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, userID, in.Name, in.Category, in.TotalDebt.Cents, in.TotalInstallments,
		in.MonthlyAmount.Cents, in.Source, in.StartDate.String(), in.NextDueDate.String())
	if err != nil {
		return core.Installment{}, fmt.Errorf("insert installment: %w", err)
	}
	if in.Payments == nil {
		in.Payments = []core.InstallmentPayment{}
	}

	slog.InfoContext(ctx, "Installment saved to SQLite",
		"id", in.ID,
		"total_installments", in.TotalInstallments,
		"monthly_cents", in.MonthlyAmount.Cents)

	return in, nil
}

func (r *SQLiteRepository) UpdateInstallment(ctx context.Context, userID string, in core.Installment) error {
	res, err := r.db.ExecContext(ctx, `UPDATE installments SET name = ?, category = ?, total_debt_cents = ?,
		total_installments = ?, monthly_cents = ?, source = ?, start_date = ?, next_due_date = ?
		WHERE id = ? AND user_id = ?`,
		in.Name, in.Category, in.TotalDebt.Cents, in.TotalInstallments, in.MonthlyAmount.Cents,
		in.Source, in.StartDate.String(), in.NextDueDate.String(), in.ID, userID)
	if err != nil {
		return fmt.Errorf("update installment: %w", err)
	}
	return checkAffected(res, "installment", in.ID)
}

// DeleteInstallment removes the debt and its payment history. Linked
// transactions are left untouched.
func (r *SQLiteRepository) DeleteInstallment(ctx context.Context, userID, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete installment: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM installment_payments WHERE installment_id = ? AND user_id = ?`, id, userID); err != nil {
		return rollbackErr(tx, fmt.Errorf("delete installment payments: %w", err))
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM installments WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return rollbackErr(tx, fmt.Errorf("delete installment: %w", err))
	}
	if err := checkAffected(res, "installment", id); err != nil {
		return rollbackErr(tx, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete installment: %w", err)
	}
	return nil
}

// AddPayment appends the payment and advances the due date atomically.
func (r *SQLiteRepository) AddPayment(ctx context.Context, userID, installmentID string, p core.InstallmentPayment, nextDue core.Date) (core.InstallmentPayment, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.InstallmentPayment{}, fmt.Errorf("begin add payment: %w", err)
	}
	res, err := tx.ExecContext(ctx, `UPDATE installments SET next_due_date = ? WHERE id = ? AND user_id = ?`,
		nextDue.String(), installmentID, userID)
	if err != nil {
		return core.InstallmentPayment{}, rollbackErr(tx, fmt.Errorf("advance due date: %w", err))
	}
	if err := checkAffected(res, "installment", installmentID); err != nil {
		return core.InstallmentPayment{}, rollbackErr(tx, err)
	}

	p.ID = uuid.NewString()
	if _, err := tx.ExecContext(ctx, `INSERT INTO installment_payments (id, user_id, installment_id, amount_cents, date, transaction_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, userID, installmentID, p.Amount.Cents, p.Date.String(), nullString(p.TransactionID)); err != nil {
		return core.InstallmentPayment{}, rollbackErr(tx, fmt.Errorf("insert payment: %w", err))
	}
	if err := tx.Commit(); err != nil {
		return core.InstallmentPayment{}, fmt.Errorf("commit add payment: %w", err)
	}
	return p, nil
}

func (r *SQLiteRepository) LinkPaymentTransaction(ctx context.Context, userID, paymentID, transactionID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE installment_payments SET transaction_id = ? WHERE id = ? AND user_id = ?`,
		transactionID, paymentID, userID)
	if err != nil {
		return fmt.Errorf("link payment transaction: %w", err)
	}
	return checkAffected(res, "payment", paymentID)
}
