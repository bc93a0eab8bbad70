package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"tracker/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a record does not exist for the given user.
var ErrNotFound = errors.New("not found")

// timeLayout is fixed-width so that stored timestamps order lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Keep IN (...) lists well under SQLite's bound-parameter limit.
const detailChunk = 500

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) inTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// CreateTransaction stores t with its items and tags. The caller assigns the id.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) error {
	err := r.inTx(ctx, func(q *Queries) error {
		if err := q.InsertTransaction(ctx, toTransactionRow(t)); err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		return insertDetails(ctx, q, t)
	})
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"user_id", t.UserID,
		"type", t.Type,
		"amount", t.Amount.String(),
		"recurring", t.IsRecurring)
	return nil
}

// UpdateTransaction replaces the stored transaction, items and tags.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	err := r.inTx(ctx, func(q *Queries) error {
		n, err := q.UpdateTransaction(ctx, toTransactionRow(t))
		if err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}
		if n == 0 {
			return ErrNotFound
		}
		if err := q.DeleteDetails(ctx, t.ID); err != nil {
			return err
		}
		return insertDetails(ctx, q, t)
	})
	if err != nil {
		return fmt.Errorf("update transaction %s: %w", t.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id string) error {
	err := r.inTx(ctx, func(q *Queries) error {
		n, err := q.DeleteTransaction(ctx, userID, id)
		if err != nil {
			return fmt.Errorf("delete transaction: %w", err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return q.DeleteDetails(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	slog.InfoContext(ctx, "Transaction deleted", "id", id, "user_id", userID)
	return nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, userID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
	}
	txns, err := r.hydrate(ctx, []transactionRow{row})
	if err != nil {
		return core.Transaction{}, err
	}
	return txns[0], nil
}

// ListTransactions returns a user's transactions newest first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string, f core.TransactionFilter) ([]core.Transaction, error) {
	tq := transactionQuery{
		where:  []string{"user_id = ?"},
		args:   []any{userID},
		limit:  f.Limit,
		offset: f.Skip,
	}
	if f.Type != "" {
		tq.where = append(tq.where, "type = ?")
		tq.args = append(tq.args, string(f.Type))
	}
	if f.CategoryID != "" {
		tq.where = append(tq.where, "category_id = ?")
		tq.args = append(tq.args, f.CategoryID)
	}
	if f.Start != nil {
		tq.where = append(tq.where, "date >= ?")
		tq.args = append(tq.args, formatTime(*f.Start))
	}
	if f.End != nil {
		tq.where = append(tq.where, "date <= ?")
		tq.args = append(tq.args, formatTime(*f.End))
	}

	rows, err := r.queries.ListTransactions(ctx, tq)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return r.hydrate(ctx, rows)
}

// TransactionsInRange returns every transaction of userID dated within rng.
func (r *SQLiteRepository) TransactionsInRange(ctx context.Context, userID string, rng core.PeriodRange) ([]core.Transaction, error) {
	return r.ListTransactions(ctx, userID, core.TransactionFilter{Start: &rng.Start, End: &rng.End})
}

// NotificationCandidates returns every recurring transaction of userID plus
// one-off transactions dated within [from, to].
func (r *SQLiteRepository) NotificationCandidates(ctx context.Context, userID string, from, to time.Time) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx, transactionQuery{
		where: []string{"user_id = ?", "(is_recurring = 1 OR (date >= ? AND date <= ?))"},
		args:  []any{userID, formatTime(from), formatTime(to)},
	})
	if err != nil {
		return nil, fmt.Errorf("list notification candidates: %w", err)
	}
	return r.hydrate(ctx, rows)
}

// UserIDs lists every user owning at least one transaction.
func (r *SQLiteRepository) UserIDs(ctx context.Context) ([]string, error) {
	ids, err := r.queries.DistinctUserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list user ids: %w", err)
	}
	return ids, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	rows, err := r.queries.ListCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]core.Category, len(rows))
	for i, row := range rows {
		out[i] = fromCategoryRow(row)
	}
	return out, nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, userID, id string) (core.Category, error) {
	row, err := r.queries.GetCategory(ctx, userID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("get category %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %s: %w", id, err)
	}
	return fromCategoryRow(row), nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) error {
	err := r.queries.InsertCategory(ctx, categoryRow{
		ID:        c.ID,
		UserID:    c.UserID,
		Name:      c.Name,
		Icon:      c.Icon,
		Color:     c.Color,
		Type:      string(c.Type),
		CreatedAt: formatTime(r.now()),
	})
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	slog.InfoContext(ctx, "Category created", "id", c.ID, "user_id", c.UserID, "name", c.Name)
	return nil
}

// DeleteCategory removes the category. Transactions keep their category id
// and fall back to the uncategorized label in analytics.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, userID, id string) error {
	n, err := r.queries.DeleteCategory(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete category %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetSettings returns the stored settings, or the defaults when the user has
// never saved any.
func (r *SQLiteRepository) GetSettings(ctx context.Context, userID string) (core.Settings, error) {
	row, err := r.queries.GetSettings(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.DefaultSettings(userID), nil
	}
	if err != nil {
		return core.Settings{}, fmt.Errorf("get settings: %w", err)
	}

	s := core.Settings{
		UserID:          row.UserID,
		DefaultCurrency: row.DefaultCurrency,
		Theme:           row.Theme,
		BudgetAlerts:    row.BudgetAlerts,
		ScannerAPIKey:   row.ScannerAPIKey,
		UpdatedAt:       parseTime(row.UpdatedAt),
	}
	if row.MonthlyBudget.Valid {
		m, err := parseMoney(row.MonthlyBudget.String)
		if err != nil {
			return core.Settings{}, fmt.Errorf("get settings: monthly budget: %w", err)
		}
		s.MonthlyBudget = &m
	}
	return s, nil
}

func (r *SQLiteRepository) UpsertSettings(ctx context.Context, s core.Settings) error {
	row := settingsRow{
		UserID:          s.UserID,
		DefaultCurrency: s.DefaultCurrency,
		Theme:           s.Theme,
		BudgetAlerts:    s.BudgetAlerts,
		ScannerAPIKey:   s.ScannerAPIKey,
		UpdatedAt:       formatTime(s.UpdatedAt),
	}
	if s.MonthlyBudget != nil {
		row.MonthlyBudget = sql.NullString{String: s.MonthlyBudget.Amount.String(), Valid: true}
	}
	if err := r.queries.UpsertSettings(ctx, row); err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}

// hydrate converts rows to domain transactions and attaches items and tags.
func (r *SQLiteRepository) hydrate(ctx context.Context, rows []transactionRow) ([]core.Transaction, error) {
	out := make([]core.Transaction, 0, len(rows))
	index := make(map[string]int, len(rows))
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		t, err := fromTransactionRow(row)
		if err != nil {
			slog.WarnContext(ctx, "Skipping unreadable transaction row", "id", row.ID, "error", err)
			continue
		}
		index[t.ID] = len(out)
		ids = append(ids, t.ID)
		out = append(out, t)
	}

	for start := 0; start < len(ids); start += detailChunk {
		chunk := ids[start:min(start+detailChunk, len(ids))]

		items, err := r.queries.ItemsFor(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("load transaction items: %w", err)
		}
		for _, it := range items {
			item, err := fromItemRow(it)
			if err != nil {
				slog.WarnContext(ctx, "Skipping unreadable transaction item",
					"transaction_id", it.TransactionID, "position", it.Position, "error", err)
				continue
			}
			i := index[it.TransactionID]
			out[i].Items = append(out[i].Items, item)
		}

		tags, err := r.queries.TagsFor(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("load transaction tags: %w", err)
		}
		for id, tt := range tags {
			out[index[id]].Tags = tt
		}
	}
	return out, nil
}

func insertDetails(ctx context.Context, q *Queries, t core.Transaction) error {
	for i, it := range t.Items {
		err := q.InsertItem(ctx, itemRow{
			TransactionID: t.ID,
			Position:      i,
			Name:          it.Name,
			Quantity:      it.Quantity.Amount.String(),
			UnitPrice:     it.UnitPrice.Amount.String(),
			TotalPrice:    it.TotalPrice.Amount.String(),
		})
		if err != nil {
			return fmt.Errorf("insert item %d: %w", i, err)
		}
	}
	for _, tag := range t.Tags {
		if err := q.InsertTag(ctx, t.ID, tag); err != nil {
			return fmt.Errorf("insert tag %q: %w", tag, err)
		}
	}
	return nil
}

func toTransactionRow(t core.Transaction) transactionRow {
	row := transactionRow{
		ID:           t.ID,
		UserID:       t.UserID,
		Type:         string(t.Type),
		Amount:       t.Amount.Amount.String(),
		Currency:     t.Currency,
		CategoryID:   sql.NullString{String: t.CategoryID, Valid: t.CategoryID != ""},
		CategoryName: t.CategoryName,
		MerchantName: t.MerchantName,
		Description:  t.Description,
		Date:         formatTime(t.Date),
		ReceiptID:    t.ReceiptID,
		IsRecurring:  t.IsRecurring,
		CreatedAt:    formatTime(t.CreatedAt),
		UpdatedAt:    formatTime(t.UpdatedAt),
	}
	if t.IsRecurring && t.Recurrence != nil {
		row.RecurringFrequency = sql.NullString{String: string(t.Recurrence.Frequency), Valid: true}
		row.RecurringInterval = sql.NullInt64{Int64: int64(t.Recurrence.Interval), Valid: true}
		if t.Recurrence.EndDate != nil {
			row.RecurringEndDate = sql.NullString{String: t.Recurrence.EndDate.ISO(), Valid: true}
		}
	}
	return row
}

// fromTransactionRow keeps an unknown stored frequency as-is so the
// occurrence calculator can skip the rule instead of failing the whole read.
func fromTransactionRow(row transactionRow) (core.Transaction, error) {
	amount, err := parseMoney(row.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("amount: %w", err)
	}
	t := core.Transaction{
		ID:           row.ID,
		UserID:       row.UserID,
		Type:         core.TransactionType(row.Type),
		Amount:       amount,
		Currency:     row.Currency,
		CategoryID:   row.CategoryID.String,
		CategoryName: row.CategoryName,
		MerchantName: row.MerchantName,
		Description:  row.Description,
		Date:         parseTime(row.Date),
		ReceiptID:    row.ReceiptID,
		IsRecurring:  row.IsRecurring,
		CreatedAt:    parseTime(row.CreatedAt),
		UpdatedAt:    parseTime(row.UpdatedAt),
	}
	if row.IsRecurring && row.RecurringFrequency.Valid {
		rule := &core.RecurrenceRule{
			Frequency: core.Frequency(row.RecurringFrequency.String),
			Interval:  1,
		}
		if row.RecurringInterval.Valid {
			rule.Interval = int(row.RecurringInterval.Int64)
		}
		if row.RecurringEndDate.Valid {
			end, err := core.ParseDate(row.RecurringEndDate.String)
			if err != nil {
				return core.Transaction{}, fmt.Errorf("recurring end date: %w", err)
			}
			rule.EndDate = &end
		}
		t.Recurrence = rule
	}
	return t, nil
}

func fromItemRow(row itemRow) (core.TransactionItem, error) {
	qty, err := parseMoney(row.Quantity)
	if err != nil {
		return core.TransactionItem{}, err
	}
	unit, err := parseMoney(row.UnitPrice)
	if err != nil {
		return core.TransactionItem{}, err
	}
	total, err := parseMoney(row.TotalPrice)
	if err != nil {
		return core.TransactionItem{}, err
	}
	return core.TransactionItem{Name: row.Name, Quantity: qty, UnitPrice: unit, TotalPrice: total}, nil
}

func fromCategoryRow(row categoryRow) core.Category {
	return core.Category{
		ID:     row.ID,
		UserID: row.UserID,
		Name:   row.Name,
		Icon:   row.Icon,
		Color:  row.Color,
		Type:   core.TransactionType(row.Type),
	}
}

func parseMoney(s string) (core.Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return core.Money{}, err
	}
	return core.NewMoney(d), nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if t, err := time.Parse(timeLayout, s); err == nil {
		return t.UTC()
	}
	if t, err := core.ParseTimestamp(s); err == nil {
		return t
	}
	return time.Time{}
}
