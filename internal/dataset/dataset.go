// Package dataset loads the raw e-commerce tables (customers, orders,
// payments) from CSV files into typed records. Schema validation is
// fail-fast: a missing column or an unparsable value aborts the load
// before any aggregation happens downstream.
package dataset

import (
	"fmt"
	"time"
)

// Customer is one row of the customers table.
type Customer struct {
	ID       string // customer_id, the per-order key
	UniqueID string // customer_unique_id, stable across orders
}

// Order is one row of the orders table.
type Order struct {
	ID          string // order_id
	CustomerID  string // customer_id
	Status      string // order_status
	PurchasedAt time.Time
}

// Payment is one row of the payments table. An order may have several
// payment rows (installments, split payment methods).
type Payment struct {
	OrderID string
	Value   float64
}

// Tables bundles the three raw inputs of one analysis run.
type Tables struct {
	Customers []Customer
	Orders    []Order
	Payments  []Payment
}

// SchemaError reports a required column missing from an input table, or a
// value in that column that could not be parsed.
type SchemaError struct {
	Table  string
	Column string
	Line   int // 0 when the problem is the header itself
	Err    error
}

func (e *SchemaError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("table %s, column %s, line %d: %v", e.Table, e.Column, e.Line, e.Err)
	}
	return fmt.Sprintf("table %s, column %s: %v", e.Table, e.Column, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}
