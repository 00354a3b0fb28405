package rfm

import (
	"errors"
	"testing"
	"time"

	"github.com/runger/rfmseg/internal/dataset"
)

func ts(day int) time.Time {
	return time.Date(2024, 6, day, 12, 0, 0, 0, time.UTC)
}

// Scenario: three customers, five orders. u1 has two delivered orders worth
// $300 across three payment rows, u2 has one delivered order of $50, u3 only
// has a non-delivered order.
func scenarioTables() *dataset.Tables {
	return &dataset.Tables{
		Customers: []dataset.Customer{
			{ID: "c1a", UniqueID: "u1"},
			{ID: "c1b", UniqueID: "u1"},
			{ID: "c2", UniqueID: "u2"},
			{ID: "c3", UniqueID: "u3"},
		},
		Orders: []dataset.Order{
			{ID: "o1", CustomerID: "c1a", Status: "delivered", PurchasedAt: ts(1)},
			{ID: "o2", CustomerID: "c1b", Status: "delivered", PurchasedAt: ts(10)},
			{ID: "o3", CustomerID: "c2", Status: "delivered", PurchasedAt: ts(5)},
			{ID: "o4", CustomerID: "c3", Status: "canceled", PurchasedAt: ts(20)},
			{ID: "o5", CustomerID: "c3", Status: "invoiced", PurchasedAt: ts(2)},
		},
		Payments: []dataset.Payment{
			{OrderID: "o1", Value: 100},
			{OrderID: "o1", Value: 80},
			{OrderID: "o2", Value: 120},
			{OrderID: "o3", Value: 50},
			{OrderID: "o4", Value: 999}, // never qualifies
		},
	}
}

func TestExtract_Scenario(t *testing.T) {
	t.Parallel()

	records, err := Extract(scenarioTables(), Options{})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("got %d records, want 2 (u3 has no delivered orders)", len(records))
	}

	// Sorted by monetary descending: u1 ($300) before u2 ($50).
	if records[0].CustomerID != "u1" || records[1].CustomerID != "u2" {
		t.Fatalf("unexpected order: %s, %s", records[0].CustomerID, records[1].CustomerID)
	}

	u1, u2 := records[0], records[1]
	if u1.Frequency != 2 {
		t.Errorf("u1 frequency = %d, want 2 (distinct orders, not payment rows)", u1.Frequency)
	}
	if u1.Monetary != 300 {
		t.Errorf("u1 monetary = %v, want 300 (all payment rows summed)", u1.Monetary)
	}
	if u2.Frequency != 1 || u2.Monetary != 50 {
		t.Errorf("u2 = %+v, want frequency 1 monetary 50", u2)
	}
}

func TestExtract_RecencyAgainstGlobalMax(t *testing.T) {
	t.Parallel()

	// Reference date is the latest purchase over ALL orders, including the
	// canceled order on day 20.
	records, err := Extract(scenarioTables(), Options{})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	for _, r := range records {
		if r.Recency < 0 {
			t.Errorf("%s recency = %d, want >= 0", r.CustomerID, r.Recency)
		}
	}

	// u1 last delivered on day 10, global max day 20 -> recency 10.
	if records[0].Recency != 10 {
		t.Errorf("u1 recency = %d, want 10", records[0].Recency)
	}
	// u2 last delivered on day 5 -> recency 15.
	if records[1].Recency != 15 {
		t.Errorf("u2 recency = %d, want 15", records[1].Recency)
	}
}

func TestExtract_SameDayPurchaseIsRecencyZero(t *testing.T) {
	t.Parallel()

	tables := &dataset.Tables{
		Customers: []dataset.Customer{{ID: "c1", UniqueID: "u1"}},
		Orders: []dataset.Order{
			{ID: "o1", CustomerID: "c1", Status: "delivered",
				PurchasedAt: time.Date(2024, 6, 1, 23, 59, 0, 0, time.UTC)},
		},
		Payments: []dataset.Payment{{OrderID: "o1", Value: 10}},
	}

	records, err := Extract(tables, Options{})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if records[0].Recency != 0 {
		t.Errorf("recency = %d, want 0", records[0].Recency)
	}
}

func TestExtract_CustomStatusFilter(t *testing.T) {
	t.Parallel()

	records, err := Extract(scenarioTables(), Options{StatusFilter: "canceled"})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(records) != 1 || records[0].CustomerID != "u3" {
		t.Fatalf("records = %+v, want only u3", records)
	}
}

func TestExtract_DropsNonPositiveMonetary(t *testing.T) {
	t.Parallel()

	tables := &dataset.Tables{
		Customers: []dataset.Customer{
			{ID: "c1", UniqueID: "u1"},
			{ID: "c2", UniqueID: "u2"},
		},
		Orders: []dataset.Order{
			{ID: "o1", CustomerID: "c1", Status: "delivered", PurchasedAt: ts(1)},
			{ID: "o2", CustomerID: "c2", Status: "delivered", PurchasedAt: ts(2)},
		},
		Payments: []dataset.Payment{
			{OrderID: "o1", Value: 20},
			{OrderID: "o2", Value: 15},
			{OrderID: "o2", Value: -15}, // refund zeroes the order out
		},
	}

	records, err := Extract(tables, Options{})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(records) != 1 || records[0].CustomerID != "u1" {
		t.Fatalf("records = %+v, want only u1", records)
	}
}

func TestExtract_NoQualifyingOrders(t *testing.T) {
	t.Parallel()

	tables := &dataset.Tables{
		Customers: []dataset.Customer{{ID: "c1", UniqueID: "u1"}},
		Orders: []dataset.Order{
			{ID: "o1", CustomerID: "c1", Status: "canceled", PurchasedAt: ts(1)},
		},
		Payments: []dataset.Payment{{OrderID: "o1", Value: 10}},
	}

	_, err := Extract(tables, Options{})
	if !errors.Is(err, ErrNoQualifyingOrders) {
		t.Fatalf("err = %v, want ErrNoQualifyingOrders", err)
	}
}

func TestExtract_EmptyOrders(t *testing.T) {
	t.Parallel()

	_, err := Extract(&dataset.Tables{}, Options{})
	if !errors.Is(err, ErrNoQualifyingOrders) {
		t.Fatalf("err = %v, want ErrNoQualifyingOrders", err)
	}
}

func TestDaysBetween(t *testing.T) {
	t.Parallel()

	a := time.Date(2024, 6, 1, 23, 0, 0, 0, time.UTC)
	b := time.Date(2024, 6, 3, 1, 0, 0, 0, time.UTC)
	if got := daysBetween(a, b); got != 2 {
		t.Errorf("daysBetween = %d, want 2 (calendar dates, not 24h periods)", got)
	}
}
