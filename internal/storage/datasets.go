package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/runger/rfmseg/internal/dataset"
)

// ImportTables replaces the stored raw tables with the given snapshot in a
// single transaction, so a failed import never leaves mixed generations
// behind.
func (s *SQLiteStore) ImportTables(ctx context.Context, tables *dataset.Tables) (*ImportCounts, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin import: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"payments", "orders", "customers"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return nil, fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for _, c := range tables.Customers {
		_, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO customers (customer_id, customer_unique_id)
			VALUES (?, ?)
		`, c.ID, c.UniqueID)
		if err != nil {
			return nil, fmt.Errorf("failed to insert customer %s: %w", c.ID, err)
		}
	}

	for _, o := range tables.Orders {
		_, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO orders (order_id, customer_id, order_status, purchased_at_unix_ms)
			VALUES (?, ?, ?, ?)
		`, o.ID, o.CustomerID, o.Status, o.PurchasedAt.UnixMilli())
		if err != nil {
			return nil, fmt.Errorf("failed to insert order %s: %w", o.ID, err)
		}
	}

	for _, p := range tables.Payments {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO payments (order_id, payment_value) VALUES (?, ?)
		`, p.OrderID, p.Value)
		if err != nil {
			return nil, fmt.Errorf("failed to insert payment for order %s: %w", p.OrderID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit import: %w", err)
	}

	return &ImportCounts{
		Customers: len(tables.Customers),
		Orders:    len(tables.Orders),
		Payments:  len(tables.Payments),
	}, nil
}

// LoadTables reads the stored raw tables back into memory for a pipeline
// run.
func (s *SQLiteStore) LoadTables(ctx context.Context) (*dataset.Tables, error) {
	tables := &dataset.Tables{}

	rows, err := s.db.QueryContext(ctx, `
		SELECT customer_id, customer_unique_id FROM customers
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c dataset.Customer
		if err := rows.Scan(&c.ID, &c.UniqueID); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		tables.Customers = append(tables.Customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read customers: %w", err)
	}

	orderRows, err := s.db.QueryContext(ctx, `
		SELECT order_id, customer_id, order_status, purchased_at_unix_ms FROM orders
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer orderRows.Close()
	for orderRows.Next() {
		var o dataset.Order
		var purchasedMs int64
		if err := orderRows.Scan(&o.ID, &o.CustomerID, &o.Status, &purchasedMs); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		o.PurchasedAt = time.UnixMilli(purchasedMs).UTC()
		tables.Orders = append(tables.Orders, o)
	}
	if err := orderRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read orders: %w", err)
	}

	paymentRows, err := s.db.QueryContext(ctx, `
		SELECT order_id, payment_value FROM payments
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer paymentRows.Close()
	for paymentRows.Next() {
		var p dataset.Payment
		if err := paymentRows.Scan(&p.OrderID, &p.Value); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		tables.Payments = append(tables.Payments, p)
	}
	if err := paymentRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read payments: %w", err)
	}

	return tables, nil
}
