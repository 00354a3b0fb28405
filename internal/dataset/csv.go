package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

var errMissingColumn = errors.New("required column not found")

// Timestamp layouts accepted in order_purchase_timestamp, tried in order.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// header maps column names to indices and reports missing columns as
// SchemaErrors against the named table.
type header struct {
	table string
	index map[string]int
}

func newHeader(table string, cols []string) header {
	idx := make(map[string]int, len(cols))
	for i, c := range cols {
		idx[c] = i
	}
	return header{table: table, index: idx}
}

func (h header) col(name string) (int, error) {
	i, ok := h.index[name]
	if !ok {
		return 0, &SchemaError{Table: h.table, Column: name, Err: errMissingColumn}
	}
	return i, nil
}

// readTable streams a CSV file and hands each data row to parse along with
// its 1-based line number (header is line 1).
func readTable(path, table string, parse func(h header, row []string, line int) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s dataset: %w", table, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.ReuseRecord = true

	cols, err := r.Read()
	if err != nil {
		return fmt.Errorf("failed to read %s header: %w", table, err)
	}
	h := newHeader(table, cols)

	line := 1
	for {
		row, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read %s row: %w", table, err)
		}
		line++
		if err := parse(h, row, line); err != nil {
			return err
		}
	}
}

// LoadCustomers reads the customers table.
// Required columns: customer_id, customer_unique_id.
func LoadCustomers(path string) ([]Customer, error) {
	var out []Customer
	err := readTable(path, "customers", func(h header, row []string, line int) error {
		id, err := h.col("customer_id")
		if err != nil {
			return err
		}
		uid, err := h.col("customer_unique_id")
		if err != nil {
			return err
		}
		out = append(out, Customer{ID: row[id], UniqueID: row[uid]})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LoadOrders reads the orders table.
// Required columns: order_id, customer_id, order_status, order_purchase_timestamp.
func LoadOrders(path string) ([]Order, error) {
	var out []Order
	err := readTable(path, "orders", func(h header, row []string, line int) error {
		id, err := h.col("order_id")
		if err != nil {
			return err
		}
		cid, err := h.col("customer_id")
		if err != nil {
			return err
		}
		status, err := h.col("order_status")
		if err != nil {
			return err
		}
		ts, err := h.col("order_purchase_timestamp")
		if err != nil {
			return err
		}
		purchased, err := parseTimestamp(row[ts])
		if err != nil {
			return &SchemaError{Table: "orders", Column: "order_purchase_timestamp", Line: line, Err: err}
		}
		out = append(out, Order{
			ID:          row[id],
			CustomerID:  row[cid],
			Status:      row[status],
			PurchasedAt: purchased,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LoadPayments reads the payments table.
// Required columns: order_id, payment_value.
func LoadPayments(path string) ([]Payment, error) {
	var out []Payment
	err := readTable(path, "payments", func(h header, row []string, line int) error {
		id, err := h.col("order_id")
		if err != nil {
			return err
		}
		val, err := h.col("payment_value")
		if err != nil {
			return err
		}
		v, err := strconv.ParseFloat(row[val], 64)
		if err != nil {
			return &SchemaError{Table: "payments", Column: "payment_value", Line: line, Err: err}
		}
		out = append(out, Payment{OrderID: row[id], Value: v})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LoadTables reads all three raw tables.
func LoadTables(customersPath, ordersPath, paymentsPath string) (*Tables, error) {
	customers, err := LoadCustomers(customersPath)
	if err != nil {
		return nil, err
	}
	orders, err := LoadOrders(ordersPath)
	if err != nil {
		return nil, err
	}
	payments, err := LoadPayments(paymentsPath)
	if err != nil {
		return nil, err
	}
	return &Tables{Customers: customers, Orders: orders, Payments: payments}, nil
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
