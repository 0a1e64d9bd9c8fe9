// ABOUTME: Product catalog persistence on SQLiteStore
// ABOUTME: SKU uniqueness is enforced by the schema and surfaced as ErrDuplicateSKU

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const productColumns = `id, sku, name, description, price_cents, stock, active, created_at, updated_at`

// CreateProduct inserts a new product.
func (s *SQLiteStore) CreateProduct(ctx context.Context, p *Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		p.ID,
		p.SKU,
		p.Name,
		p.Description,
		p.PriceCents,
		p.Stock,
		boolToInt(p.Active),
		formatTime(p.CreatedAt),
		formatTime(p.UpdatedAt),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateSKU
		}
		return fmt.Errorf("inserting product: %w", err)
	}

	s.logger.Debug("created product", "id", p.ID, "sku", p.SKU)
	return nil
}

// GetProduct retrieves a product by ID.
func (s *SQLiteStore) GetProduct(ctx context.Context, id string) (*Product, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying product: %w", err)
	}
	return p, nil
}

// ListProducts returns products, newest first.
func (s *SQLiteStore) ListProducts(ctx context.Context, limit int) ([]*Product, error) {
	limit = clampLimit(limit, 100, 1000)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY created_at DESC, sku LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// UpdateProduct overwrites the mutable fields of an existing product.
func (s *SQLiteStore) UpdateProduct(ctx context.Context, p *Product) error {
	query := `
		UPDATE products
		SET sku = ?, name = ?, description = ?, price_cents = ?, stock = ?, active = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		p.SKU,
		p.Name,
		p.Description,
		p.PriceCents,
		p.Stock,
		boolToInt(p.Active),
		formatTime(p.UpdatedAt),
		p.ID,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateSKU
		}
		return fmt.Errorf("updating product: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteProduct removes a product.
func (s *SQLiteStore) DeleteProduct(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "products", id)
}

// CountProducts returns the number of products.
func (s *SQLiteStore) CountProducts(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting products: %w", err)
	}
	return count, nil
}

func scanProduct(row rowScanner) (*Product, error) {
	var p Product
	var active int
	var createdAt, updatedAt string

	err := row.Scan(
		&p.ID,
		&p.SKU,
		&p.Name,
		&p.Description,
		&p.PriceCents,
		&p.Stock,
		&active,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Active = active != 0
	if err := parseTimes(createdAt, &p.CreatedAt, updatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// deleteByID removes one row from table, reporting ErrNotFound when nothing matched.
// table is always a package constant.
func (s *SQLiteStore) deleteByID(ctx context.Context, table, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting from %s: %w", table, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	s.logger.Info("deleted record", "table", table, "id", id)
	return nil
}
