package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"finanzas/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository implements ports.Store and ports.AtomicTransferer.
type SQLiteRepository struct {
	db *sql.DB
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection serializes writers and keeps transactions simple.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func checkAffected(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, core.ErrNotFound)
	}
	return nil
}

const transactionColumns = `id, amount_cents, category, description, date, type, method, payment_method,
	linked_goal_id, provisional, installment_id`

func scanTransaction(rows *sql.Rows) (core.Transaction, error) {
	var (
		tx          core.Transaction
		date        string
		linked      sql.NullString
		installment sql.NullString
		provisional int
	)
	if err := rows.Scan(&tx.ID, &tx.Amount.Cents, &tx.Category, &tx.Description, &date,
		&tx.Type, &tx.Method, &tx.PaymentMethod, &linked, &provisional, &installment); err != nil {
		return core.Transaction{}, err
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", tx.ID, err)
	}
	tx.Date = d
	tx.LinkedGoalID = linked.String
	tx.InstallmentID = installment.String
	tx.Provisional = provisional != 0
	return tx, nil
}

// ListTransactions returns the user's transactions in insertion order.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = ? ORDER BY rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := make([]core.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func insertTransaction(ctx context.Context, q queryer, userID string, tx core.Transaction) (core.Transaction, error) {
	tx.ID = uuid.NewString()
	_, err := q.ExecContext(ctx, `INSERT INTO transactions (id, user_id, amount_cents, category, description,
		date, type, method, payment_method, linked_goal_id, provisional, installment_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, userID, tx.Amount.Cents, tx.Category, tx.Description, tx.Date.String(),
		string(tx.Type), string(tx.Method), string(tx.PaymentMethod),
		nullString(tx.LinkedGoalID), boolToInt(tx.Provisional), nullString(tx.InstallmentID))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	return tx, nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, userID string, tx core.Transaction) (core.Transaction, error) {
	created, err := insertTransaction(ctx, r.db, userID, tx)
	if err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", created.ID,
		"type", created.Type,
		"amount_cents", created.Amount.Cents,
		"date", created.Date.String())

	return created, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, userID string, tx core.Transaction) error {
	res, err := r.db.ExecContext(ctx, `UPDATE transactions SET amount_cents = ?, category = ?, description = ?,
		date = ?, type = ?, method = ?, payment_method = ?, linked_goal_id = ?, provisional = ?, installment_id = ?
		WHERE id = ? AND user_id = ?`,
		tx.Amount.Cents, tx.Category, tx.Description, tx.Date.String(), string(tx.Type),
		string(tx.Method), string(tx.PaymentMethod), nullString(tx.LinkedGoalID),
		boolToInt(tx.Provisional), nullString(tx.InstallmentID), tx.ID, userID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return checkAffected(res, "transaction", tx.ID)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return checkAffected(res, "transaction", id)
}

const goalColumns = `id, name, target_cents, current_cents, color`

func scanGoal(row interface{ Scan(...any) error }) (core.SavingsGoal, error) {
	var g core.SavingsGoal
	err := row.Scan(&g.ID, &g.Name, &g.TargetAmount.Cents, &g.CurrentAmount.Cents, &g.Color)
	return g, err
}

func (r *SQLiteRepository) ListGoals(ctx context.Context, userID string) ([]core.SavingsGoal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+goalColumns+` FROM savings_goals WHERE user_id = ? ORDER BY rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	out := make([]core.SavingsGoal, 0)
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateGoal(ctx context.Context, userID string, g core.SavingsGoal) (core.SavingsGoal, error) {
	g.ID = uuid.NewString()
	_, err := r.db.ExecContext(ctx, `INSERT INTO savings_goals (id, user_id, name, target_cents, current_cents, color)
		VALUES (?, ?, ?, ?, ?, ?)`,
		g.ID, userID, g.Name, g.TargetAmount.Cents, g.CurrentAmount.Cents, g.Color)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("insert goal: %w", err)
	}
	return g, nil
}

func (r *SQLiteRepository) UpdateGoal(ctx context.Context, userID string, g core.SavingsGoal) error {
	res, err := r.db.ExecContext(ctx, `UPDATE savings_goals SET name = ?, target_cents = ?, current_cents = ?, color = ?
		WHERE id = ? AND user_id = ?`,
		g.Name, g.TargetAmount.Cents, g.CurrentAmount.Cents, g.Color, g.ID, userID)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	return checkAffected(res, "goal", g.ID)
}

func (r *SQLiteRepository) DeleteGoal(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM savings_goals WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return checkAffected(res, "goal", id)
}

func adjustGoal(ctx context.Context, q queryer, userID, goalID string, delta core.Money) (core.SavingsGoal, error) {
	res, err := q.ExecContext(ctx, `UPDATE savings_goals SET current_cents = MAX(current_cents + ?, 0)
		WHERE id = ? AND user_id = ?`, delta.Cents, goalID, userID)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("adjust goal balance: %w", err)
	}
	if err := checkAffected(res, "goal", goalID); err != nil {
		return core.SavingsGoal{}, err
	}
	g, err := scanGoal(q.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM savings_goals WHERE id = ? AND user_id = ?`, goalID, userID))
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("read goal: %w", err)
	}
	return g, nil
}

func (r *SQLiteRepository) AdjustGoalBalance(ctx context.Context, userID, goalID string, delta core.Money) (core.SavingsGoal, error) {
	return adjustGoal(ctx, r.db, userID, goalID, delta)
}

// CreateTransfer writes the transfer transaction and increments its linked
// goal inside one database transaction.
func (r *SQLiteRepository) CreateTransfer(ctx context.Context, userID string, tx core.Transaction) (core.Transaction, core.SavingsGoal, error) {
	if tx.LinkedGoalID == "" {
		return core.Transaction{}, core.SavingsGoal{}, fmt.Errorf("transfer without goal: %w", core.ErrNotFound)
	}

	dbtx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Transaction{}, core.SavingsGoal{}, fmt.Errorf("begin transfer: %w", err)
	}
	defer dbtx.Rollback()

	created, err := insertTransaction(ctx, dbtx, userID, tx)
	if err != nil {
		return core.Transaction{}, core.SavingsGoal{}, err
	}
	goal, err := adjustGoal(ctx, dbtx, userID, tx.LinkedGoalID, tx.Amount)
	if err != nil {
		return core.Transaction{}, core.SavingsGoal{}, err
	}
	if err := dbtx.Commit(); err != nil {
		return core.Transaction{}, core.SavingsGoal{}, fmt.Errorf("commit transfer: %w", err)
	}

	slog.InfoContext(ctx, "Transfer committed",
		"transaction_id", created.ID,
		"goal_id", goal.ID,
		"amount_cents", created.Amount.Cents)

	return created, goal, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, icon, type, is_default FROM categories WHERE user_id = ? ORDER BY rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := make([]core.Category, 0)
	for rows.Next() {
		var (
			c         core.Category
			isDefault int
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.Type, &isDefault); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.IsDefault = isDefault != 0
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, userID string, c core.Category) (core.Category, error) {
	c.ID = uuid.NewString()
	_, err := r.db.ExecContext(ctx, `INSERT INTO categories (id, user_id, name, icon, type, is_default)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, userID, c.Name, c.Icon, string(c.Type), boolToInt(c.IsDefault))
	if isUniqueViolation(err) {
		return core.Category{}, core.ErrDuplicateCategory
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return checkAffected(res, "category", id)
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, category_id, category_name, amount_cents, month_year
		FROM budgets WHERE user_id = ? ORDER BY rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	out := make([]core.Budget, 0)
	for rows.Next() {
		var b core.Budget
		if err := rows.Scan(&b.ID, &b.CategoryID, &b.CategoryName, &b.Amount.Cents, &b.MonthYear); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// SaveBudget upserts on (category, month) so a second save replaces the amount.
func (r *SQLiteRepository) SaveBudget(ctx context.Context, userID string, b core.Budget) (core.Budget, error) {
	err := r.db.QueryRowContext(ctx, `INSERT INTO budgets (id, user_id, category_id, category_name, amount_cents, month_year)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, category_id, month_year)
		DO UPDATE SET amount_cents = excluded.amount_cents, category_name = excluded.category_name
		RETURNING id`,
		uuid.NewString(), userID, b.CategoryID, b.CategoryName, b.Amount.Cents, string(b.MonthYear)).Scan(&b.ID)
	if err != nil {
		return core.Budget{}, fmt.Errorf("save budget: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return checkAffected(res, "budget", id)
}

// rollbackErr joins a rollback failure onto err.
func rollbackErr(tx *sql.Tx, err error) error {
	if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
		return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
	}
	return err
}
