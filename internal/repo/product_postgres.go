package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	models "github.com/rogerio-castellano/business-ledger/internal/models"
)

type PostgresProductRepository struct {
	db *sql.DB
}

func NewPostgresProductRepository(db *sql.DB) *PostgresProductRepository {
	return &PostgresProductRepository{db: db}
}

const productColumns = `id, name, COALESCE(sku, ''), price, COALESCE(cost, 0), quantity, COALESCE(category, ''), threshold, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.Name, &p.SKU, &p.Price, &p.Cost, &p.Quantity, &p.Category, &p.Threshold, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *PostgresProductRepository) Create(p models.Product) (models.Product, error) {
	query := `INSERT INTO products (name, sku, price, cost, quantity, category, threshold, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err := r.db.QueryRowContext(ctx, query,
		p.Name, nullString(p.SKU), p.Price, p.Cost, p.Quantity, nullString(p.Category), p.Threshold, p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil && strings.Contains(err.Error(), "unique constraint") {
		return models.Product{}, ErrDuplicatedValueUnique
	}
	return p, err
}

func (r *PostgresProductRepository) GetAll() ([]models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY id`
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *PostgresProductRepository) GetByID(id int) (models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Product{}, ErrProductNotFound
	}
	return p, err
}

func (r *PostgresProductRepository) GetByName(name string) (models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE name = $1`
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Product{}, ErrProductNotFound
	}
	return p, err
}

func (r *PostgresProductRepository) GetBySKU(sku string) (models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE sku = $1`
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, sku))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Product{}, ErrProductNotFound
	}
	return p, err
}

func (r *PostgresProductRepository) Update(p models.Product) (models.Product, error) {
	query := `UPDATE products SET name = $1, sku = $2, price = $3, cost = $4, quantity = $5, category = $6, threshold = $7, updated_at = $8 WHERE id = $9`
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx, query,
		p.Name, nullString(p.SKU), p.Price, p.Cost, p.Quantity, nullString(p.Category), p.Threshold, p.UpdatedAt, p.ID)
	if err != nil {
		if strings.Contains(err.Error(), "unique constraint") {
			return models.Product{}, ErrDuplicatedValueUnique
		}
		return models.Product{}, err
	}
	rowsAffected, _ := res.RowsAffected()
	if rowsAffected == 0 {
		return models.Product{}, ErrProductNotFound
	}
	return p, nil
}

// Delete removes the product only. Historical transactions keep their item
// snapshots, so a dangling product reference is tolerated.
func (r *PostgresProductRepository) Delete(id int) error {
	query := `DELETE FROM products WHERE id = $1`
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rowsAffected, _ := res.RowsAffected()
	if rowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *PostgresProductRepository) Filter(f ProductFilter) ([]models.Product, int, error) {
	conditions, args, argIdx := productFilterConditions(f)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	var totalCount int
	countQuery := "SELECT COUNT(*) FROM products WHERE 1=1" + conditions
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE 1=1` + conditions + ` ORDER BY id`
	if f.Limit != nil && *f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, *f.Limit)
		argIdx++
	}
	if f.Offset != nil && *f.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, *f.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	return products, totalCount, rows.Err()
}

func productFilterConditions(f ProductFilter) (string, []any, int) {
	query := ""
	argIdx := 1
	args := []any{}

	if f.Name != "" {
		query += fmt.Sprintf(" AND name ILIKE $%d", argIdx)
		args = append(args, "%"+f.Name+"%")
		argIdx++
	}
	if f.Category != "" {
		query += fmt.Sprintf(" AND category = $%d", argIdx)
		args = append(args, f.Category)
		argIdx++
	}
	if f.MinPrice != nil {
		query += fmt.Sprintf(" AND price >= $%d", argIdx)
		args = append(args, *f.MinPrice)
		argIdx++
	}
	if f.MaxPrice != nil {
		query += fmt.Sprintf(" AND price <= $%d", argIdx)
		args = append(args, *f.MaxPrice)
		argIdx++
	}
	if f.MinQty != nil {
		query += fmt.Sprintf(" AND quantity >= $%d", argIdx)
		args = append(args, *f.MinQty)
		argIdx++
	}
	if f.MaxQty != nil {
		query += fmt.Sprintf(" AND quantity <= $%d", argIdx)
		args = append(args, *f.MaxQty)
		argIdx++
	}

	return query, args, argIdx
}

// DecrementStock is the conditional decrement the sale path relies on: the
// quantity check and the write happen in a single statement, so two racing
// sales cannot both pass the availability check and drive the stock negative.
func (r *PostgresProductRepository) DecrementStock(ctx context.Context, id, qty int) (models.Product, error) {
	query := `
		UPDATE products
		SET quantity = quantity - $1, updated_at = $2
		WHERE id = $3 AND quantity >= $1
		RETURNING ` + productColumns
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, qty, time.Now().UTC(), id))
	if errors.Is(err, sql.ErrNoRows) {
		// Either the product does not exist or the stock does not cover the
		// request. A follow-up read tells the two apart.
		current, getErr := r.GetByID(id)
		if getErr != nil {
			return models.Product{}, getErr
		}
		return current, ErrInsufficientStock
	}
	return p, err
}

func (r *PostgresProductRepository) AdjustQuantity(ctx context.Context, id, delta int) (models.Product, error) {
	query := `
		UPDATE products
		SET quantity = quantity + $1, updated_at = $2
		WHERE id = $3 AND quantity + $1 >= 0
		RETURNING ` + productColumns
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, delta, time.Now().UTC(), id))
	if errors.Is(err, sql.ErrNoRows) {
		if _, getErr := r.GetByID(id); getErr != nil {
			return models.Product{}, getErr
		}
		return models.Product{}, ErrInvalidQuantityChange
	}
	return p, err
}
