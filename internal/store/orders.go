// ABOUTME: Order persistence on SQLiteStore
// ABOUTME: Orders are created by the storefront; the back office lists, re-statuses, and deletes them

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const orderColumns = `id, number, customer_email, total_cents, status, created_at, updated_at`

// CreateOrder inserts a new order.
func (s *SQLiteStore) CreateOrder(ctx context.Context, o *Order) error {
	if !o.Status.Valid() {
		return ErrInvalidStatus
	}

	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		o.ID,
		o.Number,
		o.CustomerEmail,
		o.TotalCents,
		string(o.Status),
		formatTime(o.CreatedAt),
		formatTime(o.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}
	return nil
}

// GetOrder retrieves an order by ID.
func (s *SQLiteStore) GetOrder(ctx context.Context, id string) (*Order, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying order: %w", err)
	}
	return o, nil
}

// ListOrders returns orders matching filter, newest first.
func (s *SQLiteStore) ListOrders(ctx context.Context, filter OrderFilter) ([]*Order, error) {
	var conditions []string
	var args []any

	if filter.Status != nil {
		if !filter.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		conditions = append(conditions, "status = ?")
		args = append(args, string(*filter.Status))
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, number DESC LIMIT ?"
	args = append(args, clampLimit(filter.Limit, 100, 1000))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying orders: %w", err)
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// UpdateOrderStatus moves an order to status.
func (s *SQLiteStore) UpdateOrderStatus(ctx context.Context, id string, status OrderStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("updating order status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	s.logger.Info("order status changed", "id", id, "status", status)
	return nil
}

// DeleteOrder removes an order.
func (s *SQLiteStore) DeleteOrder(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "orders", id)
}

// CountOrders counts orders, optionally restricted to one status.
func (s *SQLiteStore) CountOrders(ctx context.Context, status *OrderStatus) (int, error) {
	query := `SELECT COUNT(*) FROM orders`
	var args []any
	if status != nil {
		query += ` WHERE status = ?`
		args = append(args, string(*status))
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting orders: %w", err)
	}
	return count, nil
}

func scanOrder(row rowScanner) (*Order, error) {
	var o Order
	var status, createdAt, updatedAt string

	err := row.Scan(
		&o.ID,
		&o.Number,
		&o.CustomerEmail,
		&o.TotalCents,
		&status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	o.Status = OrderStatus(status)
	if err := parseTimes(createdAt, &o.CreatedAt, updatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}
