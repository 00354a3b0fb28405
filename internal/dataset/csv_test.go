package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestLoadCustomers(t *testing.T) {
	t.Parallel()

	path := writeCSV(t, "customers.csv",
		"customer_id,customer_unique_id,customer_city\nc1,u1,porto\nc2,u2,rio\n")

	customers, err := LoadCustomers(path)
	if err != nil {
		t.Fatalf("LoadCustomers() error = %v", err)
	}
	if len(customers) != 2 {
		t.Fatalf("got %d customers, want 2", len(customers))
	}
	if customers[0].ID != "c1" || customers[0].UniqueID != "u1" {
		t.Errorf("unexpected first customer: %+v", customers[0])
	}
}

func TestLoadCustomers_MissingColumn(t *testing.T) {
	t.Parallel()

	path := writeCSV(t, "customers.csv", "customer_id,customer_city\nc1,porto\n")

	_, err := LoadCustomers(path)
	if err == nil {
		t.Fatal("LoadCustomers() expected error for missing column")
	}

	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %T: %v", err, err)
	}
	if schemaErr.Table != "customers" || schemaErr.Column != "customer_unique_id" {
		t.Errorf("SchemaError = %+v, want customers/customer_unique_id", schemaErr)
	}
}

func TestLoadOrders(t *testing.T) {
	t.Parallel()

	path := writeCSV(t, "orders.csv",
		"order_id,customer_id,order_status,order_purchase_timestamp\n"+
			"o1,c1,delivered,2024-03-01 10:30:00\n"+
			"o2,c2,shipped,2024-03-02T08:00:00Z\n")

	orders, err := LoadOrders(path)
	if err != nil {
		t.Fatalf("LoadOrders() error = %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("got %d orders, want 2", len(orders))
	}

	want := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	if !orders[0].PurchasedAt.Equal(want) {
		t.Errorf("PurchasedAt = %v, want %v", orders[0].PurchasedAt, want)
	}
	if orders[1].Status != "shipped" {
		t.Errorf("Status = %q, want shipped", orders[1].Status)
	}
}

func TestLoadOrders_BadTimestamp(t *testing.T) {
	t.Parallel()

	path := writeCSV(t, "orders.csv",
		"order_id,customer_id,order_status,order_purchase_timestamp\n"+
			"o1,c1,delivered,yesterday\n")

	_, err := LoadOrders(path)
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if schemaErr.Column != "order_purchase_timestamp" || schemaErr.Line != 2 {
		t.Errorf("SchemaError = %+v, want order_purchase_timestamp line 2", schemaErr)
	}
}

func TestLoadPayments(t *testing.T) {
	t.Parallel()

	path := writeCSV(t, "payments.csv",
		"order_id,payment_sequential,payment_value\no1,1,99.90\no1,2,50.10\n")

	payments, err := LoadPayments(path)
	if err != nil {
		t.Fatalf("LoadPayments() error = %v", err)
	}
	if len(payments) != 2 {
		t.Fatalf("got %d payments, want 2", len(payments))
	}
	if payments[0].Value != 99.90 {
		t.Errorf("Value = %v, want 99.90", payments[0].Value)
	}
}

func TestLoadPayments_BadValue(t *testing.T) {
	t.Parallel()

	path := writeCSV(t, "payments.csv", "order_id,payment_value\no1,free\n")

	_, err := LoadPayments(path)
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if schemaErr.Table != "payments" || schemaErr.Column != "payment_value" {
		t.Errorf("SchemaError = %+v, want payments/payment_value", schemaErr)
	}
}

func TestLoadTables(t *testing.T) {
	t.Parallel()

	customers := writeCSV(t, "customers.csv", "customer_id,customer_unique_id\nc1,u1\n")
	orders := writeCSV(t, "orders.csv",
		"order_id,customer_id,order_status,order_purchase_timestamp\no1,c1,delivered,2024-01-01 00:00:00\n")
	payments := writeCSV(t, "payments.csv", "order_id,payment_value\no1,10.0\n")

	tables, err := LoadTables(customers, orders, payments)
	if err != nil {
		t.Fatalf("LoadTables() error = %v", err)
	}
	if len(tables.Customers) != 1 || len(tables.Orders) != 1 || len(tables.Payments) != 1 {
		t.Errorf("unexpected table sizes: %d/%d/%d",
			len(tables.Customers), len(tables.Orders), len(tables.Payments))
	}
}
