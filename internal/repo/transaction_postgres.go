package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rogerio-castellano/business-ledger/internal/models"
)

type PostgresTransactionRepository struct {
	db *sql.DB
}

func NewPostgresTransactionRepository(db *sql.DB) *PostgresTransactionRepository {
	return &PostgresTransactionRepository{db: db}
}

const defaultTransactionLimit = 100

// Create inserts the transaction row and its item snapshots in a single
// database transaction, so a partially written sale can never be observed.
func (r *PostgresTransactionRepository) Create(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO transactions (type, amount, date, description, payment_method, category, reference, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	err = tx.QueryRowContext(ctx, query,
		t.Type, t.Amount, t.Date, nullString(t.Description), nullString(string(t.PaymentMethod)),
		nullString(t.Category), nullString(t.Reference), t.UserID, t.CreatedAt, t.UpdatedAt,
	).Scan(&t.ID)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	itemQuery := `INSERT INTO transaction_items (transaction_id, product_id, name, quantity, price, unreconciled)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	for i := range t.Items {
		it := &t.Items[i]
		if err := tx.QueryRowContext(ctx, itemQuery,
			t.ID, it.ProductID, it.Name, it.Quantity, it.Price, it.Unreconciled,
		).Scan(&it.ID); err != nil {
			return models.Transaction{}, fmt.Errorf("insert transaction item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return models.Transaction{}, fmt.Errorf("commit transaction: %w", err)
	}
	return t, nil
}

func (r *PostgresTransactionRepository) GetByID(id int) (models.Transaction, error) {
	query := `SELECT id, type, amount, date, COALESCE(description, ''), COALESCE(payment_method, ''), COALESCE(category, ''), COALESCE(reference, ''), user_id
		FROM transactions WHERE id = $1`
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	t, err := scanTransaction(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Transaction{}, ErrTransactionNotFound
	}
	if err != nil {
		return models.Transaction{}, err
	}
	t.Items, err = r.loadItems(ctx, t.ID)
	return t, err
}

func scanTransaction(row interface{ Scan(...any) error }) (models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(&t.ID, &t.Type, &t.Amount, &t.Date, &t.Description, &t.PaymentMethod, &t.Category, &t.Reference, &t.UserID)
	return t, err
}

// Find returns transactions matching the filter, newest first, capped at
// defaultTransactionLimit unless the filter asks for less.
func (r *PostgresTransactionRepository) Find(f TransactionFilter) ([]models.Transaction, int, error) {
	whereClause, args := transactionFilterConditions(f)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	var total int
	countQuery := "SELECT COUNT(*) FROM transactions" + whereClause
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	query := `SELECT id, type, amount, date, COALESCE(description, ''), COALESCE(payment_method, ''), COALESCE(category, ''), COALESCE(reference, ''), user_id
		FROM transactions` + whereClause + ` ORDER BY date DESC`

	argIdx := len(args) + 1
	limit := defaultTransactionLimit
	if f.Limit != nil && *f.Limit > 0 {
		limit = min(*f.Limit, defaultTransactionLimit)
	}
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, limit)
	argIdx++
	if f.Offset != nil && *f.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, *f.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range transactions {
		items, err := r.loadItems(ctx, transactions[i].ID)
		if err != nil {
			return nil, 0, err
		}
		transactions[i].Items = items
	}
	return transactions, total, nil
}

func transactionFilterConditions(f TransactionFilter) (string, []any) {
	whereClause := ""
	args := []any{}
	argIdx := 1

	add := func(cond string, v any) {
		if whereClause == "" {
			whereClause = " WHERE "
		} else {
			whereClause += " AND "
		}
		whereClause += fmt.Sprintf(cond, argIdx)
		args = append(args, v)
		argIdx++
	}

	if f.Type != "" {
		add("type = $%d", f.Type)
	}
	if f.Since != nil {
		add("date >= $%d", *f.Since)
	}
	if f.Until != nil {
		add("date <= $%d", *f.Until)
	}
	return whereClause, args
}

func (r *PostgresTransactionRepository) loadItems(ctx context.Context, transactionID int) ([]models.TransactionItem, error) {
	query := `SELECT id, product_id, name, quantity, price, unreconciled FROM transaction_items WHERE transaction_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("query transaction items: %w", err)
	}
	defer rows.Close()

	var items []models.TransactionItem
	for rows.Next() {
		var it models.TransactionItem
		if err := rows.Scan(&it.ID, &it.ProductID, &it.Name, &it.Quantity, &it.Price, &it.Unreconciled); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *PostgresTransactionRepository) Stats(since time.Time) (Stats, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	stats := Stats{Breakdown: []TypeTotal{}}

	rows, err := r.db.QueryContext(ctx, `SELECT type, COALESCE(SUM(amount), 0) FROM transactions GROUP BY type ORDER BY type`)
	if err != nil {
		return Stats{}, fmt.Errorf("query breakdown: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var tt TypeTotal
		if err := rows.Scan(&tt.Type, &tt.Total); err != nil {
			return Stats{}, err
		}
		stats.Breakdown = append(stats.Breakdown, tt)
	}
	if err := rows.Err(); err != nil {
		return Stats{}, err
	}

	dailyQuery := `SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE type = $1 AND date >= $2`
	if err := r.db.QueryRowContext(ctx, dailyQuery, models.TypeSale, since).Scan(&stats.DailySales); err != nil {
		return Stats{}, fmt.Errorf("sum daily sales: %w", err)
	}
	if err := r.db.QueryRowContext(ctx, dailyQuery, models.TypeIncome, since).Scan(&stats.DailyIncome); err != nil {
		return Stats{}, fmt.Errorf("sum daily income: %w", err)
	}
	return stats, nil
}
