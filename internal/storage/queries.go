package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Row types mirror the table layout; conversion to domain types happens in
// the repository.

type transactionRow struct {
	ID                 string
	UserID             string
	Type               string
	Amount             string
	Currency           string
	CategoryID         sql.NullString
	CategoryName       string
	MerchantName       string
	Description        string
	Date               string
	ReceiptID          string
	IsRecurring        bool
	RecurringFrequency sql.NullString
	RecurringInterval  sql.NullInt64
	RecurringEndDate   sql.NullString
	CreatedAt          string
	UpdatedAt          string
}

type itemRow struct {
	TransactionID string
	Position      int
	Name          string
	Quantity      string
	UnitPrice     string
	TotalPrice    string
}

type categoryRow struct {
	ID        string
	UserID    string
	Name      string
	Icon      string
	Color     string
	Type      string
	CreatedAt string
}

type settingsRow struct {
	UserID          string
	DefaultCurrency string
	Theme           string
	BudgetAlerts    bool
	MonthlyBudget   sql.NullString
	ScannerAPIKey   string
	UpdatedAt       string
}

const transactionColumns = `id, user_id, type, amount, currency, category_id, category_name,
	merchant_name, description, date, receipt_id, is_recurring, recurring_frequency,
	recurring_interval, recurring_end_date, created_at, updated_at`

const insertTransaction = `INSERT INTO transactions (` + transactionColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertTransaction(ctx context.Context, r transactionRow) error {
	_, err := q.db.ExecContext(ctx, insertTransaction,
		r.ID, r.UserID, r.Type, r.Amount, r.Currency, r.CategoryID, r.CategoryName,
		r.MerchantName, r.Description, r.Date, r.ReceiptID, r.IsRecurring, r.RecurringFrequency,
		r.RecurringInterval, r.RecurringEndDate, r.CreatedAt, r.UpdatedAt)
	return err
}

const updateTransaction = `UPDATE transactions SET
	type = ?, amount = ?, currency = ?, category_id = ?, category_name = ?, merchant_name = ?,
	description = ?, date = ?, receipt_id = ?, is_recurring = ?, recurring_frequency = ?,
	recurring_interval = ?, recurring_end_date = ?, updated_at = ?
WHERE id = ? AND user_id = ?`

func (q *Queries) UpdateTransaction(ctx context.Context, r transactionRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateTransaction,
		r.Type, r.Amount, r.Currency, r.CategoryID, r.CategoryName, r.MerchantName,
		r.Description, r.Date, r.ReceiptID, r.IsRecurring, r.RecurringFrequency,
		r.RecurringInterval, r.RecurringEndDate, r.UpdatedAt, r.ID, r.UserID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) DeleteTransaction(ctx context.Context, userID, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) GetTransaction(ctx context.Context, userID, id string) (transactionRow, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	return scanTransaction(row)
}

// transactionQuery is a WHERE clause plus its arguments.
type transactionQuery struct {
	where  []string
	args   []any
	limit  int
	offset int
}

func (q *Queries) ListTransactions(ctx context.Context, tq transactionQuery) ([]transactionRow, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions`
	if len(tq.where) > 0 {
		query += ` WHERE ` + strings.Join(tq.where, ` AND `)
	}
	query += ` ORDER BY date DESC, id ASC`

	args := tq.args
	limit := tq.limit
	if limit <= 0 {
		limit = -1
	}
	query += ` LIMIT ? OFFSET ?`
	args = append(args, limit, tq.offset)

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []transactionRow
	for rows.Next() {
		r, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (q *Queries) DistinctUserIDs(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM transactions ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (transactionRow, error) {
	var r transactionRow
	err := s.Scan(&r.ID, &r.UserID, &r.Type, &r.Amount, &r.Currency, &r.CategoryID, &r.CategoryName,
		&r.MerchantName, &r.Description, &r.Date, &r.ReceiptID, &r.IsRecurring, &r.RecurringFrequency,
		&r.RecurringInterval, &r.RecurringEndDate, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func (q *Queries) InsertItem(ctx context.Context, r itemRow) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO transaction_items (transaction_id, position, name, quantity, unit_price, total_price)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.TransactionID, r.Position, r.Name, r.Quantity, r.UnitPrice, r.TotalPrice)
	return err
}

func (q *Queries) InsertTag(ctx context.Context, transactionID, tag string) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO transaction_tags (transaction_id, tag) VALUES (?, ?)`, transactionID, tag)
	return err
}

// DeleteDetails removes the items and tags of a transaction.
func (q *Queries) DeleteDetails(ctx context.Context, transactionID string) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM transaction_items WHERE transaction_id = ?`, transactionID); err != nil {
		return fmt.Errorf("delete items: %w", err)
	}
	if _, err := q.db.ExecContext(ctx, `DELETE FROM transaction_tags WHERE transaction_id = ?`, transactionID); err != nil {
		return fmt.Errorf("delete tags: %w", err)
	}
	return nil
}

func (q *Queries) ItemsFor(ctx context.Context, ids []string) ([]itemRow, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT transaction_id, position, name, quantity, unit_price, total_price
		FROM transaction_items WHERE transaction_id IN (`+placeholders(len(ids))+`)
		ORDER BY transaction_id, position`, stringArgs(ids)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []itemRow
	for rows.Next() {
		var r itemRow
		if err := rows.Scan(&r.TransactionID, &r.Position, &r.Name, &r.Quantity, &r.UnitPrice, &r.TotalPrice); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// TagsFor returns tags keyed by transaction id, each list sorted.
func (q *Queries) TagsFor(ctx context.Context, ids []string) (map[string][]string, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT transaction_id, tag FROM transaction_tags
		WHERE transaction_id IN (`+placeholders(len(ids))+`) ORDER BY transaction_id, tag`, stringArgs(ids)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var id, tag string
		if err := rows.Scan(&id, &tag); err != nil {
			return nil, err
		}
		out[id] = append(out[id], tag)
	}
	return out, rows.Err()
}

func (q *Queries) InsertCategory(ctx context.Context, r categoryRow) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO categories (id, user_id, name, icon, color, type, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.Name, r.Icon, r.Color, r.Type, r.CreatedAt)
	return err
}

func (q *Queries) ListCategories(ctx context.Context, userID string) ([]categoryRow, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, user_id, name, icon, color, type, created_at FROM categories
		WHERE user_id = ? ORDER BY type, name, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []categoryRow
	for rows.Next() {
		var r categoryRow
		if err := rows.Scan(&r.ID, &r.UserID, &r.Name, &r.Icon, &r.Color, &r.Type, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (q *Queries) GetCategory(ctx context.Context, userID, id string) (categoryRow, error) {
	var r categoryRow
	err := q.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, icon, color, type, created_at FROM categories WHERE id = ? AND user_id = ?`,
		id, userID).Scan(&r.ID, &r.UserID, &r.Name, &r.Icon, &r.Color, &r.Type, &r.CreatedAt)
	return r, err
}

func (q *Queries) DeleteCategory(ctx context.Context, userID, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) GetSettings(ctx context.Context, userID string) (settingsRow, error) {
	var r settingsRow
	err := q.db.QueryRowContext(ctx,
		`SELECT user_id, default_currency, theme, budget_alerts, monthly_budget, scanner_api_key, updated_at
		FROM settings WHERE user_id = ?`, userID).
		Scan(&r.UserID, &r.DefaultCurrency, &r.Theme, &r.BudgetAlerts, &r.MonthlyBudget, &r.ScannerAPIKey, &r.UpdatedAt)
	return r, err
}

func (q *Queries) UpsertSettings(ctx context.Context, r settingsRow) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO settings (user_id, default_currency, theme, budget_alerts, monthly_budget, scanner_api_key, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			default_currency = excluded.default_currency,
			theme = excluded.theme,
			budget_alerts = excluded.budget_alerts,
			monthly_budget = excluded.monthly_budget,
			scanner_api_key = excluded.scanner_api_key,
			updated_at = excluded.updated_at`,
		r.UserID, r.DefaultCurrency, r.Theme, r.BudgetAlerts, r.MonthlyBudget, r.ScannerAPIKey, r.UpdatedAt)
	return err
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func stringArgs(ss []string) []any {
	args := make([]any, len(ss))
	for i, s := range ss {
		args[i] = s
	}
	return args
}
