// Package rfm computes per-customer Recency-Frequency-Monetary metrics from
// the raw transactional tables.
//
// Recency is measured against a single reference date: the latest purchase
// timestamp across the entire orders table, computed once per run and shared
// by every customer. Frequency counts distinct qualifying orders. Monetary
// sums every payment row of those orders, including split and installment
// payments.
package rfm

import (
	"errors"
	"sort"
	"time"

	"github.com/runger/rfmseg/internal/dataset"
)

// DefaultStatusFilter is the order status that qualifies an order for the
// metrics.
const DefaultStatusFilter = "delivered"

// ErrNoQualifyingOrders is returned when no order survives the status
// filter (or the orders table is empty), so no metrics can be computed.
var ErrNoQualifyingOrders = errors.New("no qualifying orders after status filter")

// Record holds the three metrics for one customer.
type Record struct {
	CustomerID string  `json:"customer_id"`
	Recency    int     `json:"recency"`   // days since last qualifying purchase, >= 0
	Frequency  int     `json:"frequency"` // distinct qualifying orders, >= 1
	Monetary   float64 `json:"monetary"`  // total payment value, > 0
}

// Options configures the extraction.
type Options struct {
	// StatusFilter is the order status that qualifies an order.
	// Empty means DefaultStatusFilter.
	StatusFilter string
}

// Extract aggregates the raw tables into one Record per customer unique id.
//
// Customers without a qualifying order are absent from the result, as are
// customers whose qualifying payments sum to zero or less. The result is
// sorted by monetary value descending (customer id ascending on ties, so
// the order is stable across runs).
func Extract(tables *dataset.Tables, opts Options) ([]Record, error) {
	status := opts.StatusFilter
	if status == "" {
		status = DefaultStatusFilter
	}

	// Reference date: max purchase timestamp over ALL orders, before any
	// status filtering.
	var refDate time.Time
	for _, o := range tables.Orders {
		if o.PurchasedAt.After(refDate) {
			refDate = o.PurchasedAt
		}
	}
	if refDate.IsZero() {
		return nil, ErrNoQualifyingOrders
	}

	// customer_id -> customer_unique_id
	uniqueID := make(map[string]string, len(tables.Customers))
	for _, c := range tables.Customers {
		uniqueID[c.ID] = c.UniqueID
	}

	// order_id -> total payment value (an order may have many payment rows)
	orderTotal := make(map[string]float64, len(tables.Payments))
	for _, p := range tables.Payments {
		orderTotal[p.OrderID] += p.Value
	}

	type group struct {
		lastPurchase time.Time
		orders       map[string]struct{}
		monetary     float64
	}
	groups := make(map[string]*group)

	for _, o := range tables.Orders {
		if o.Status != status {
			continue
		}
		uid, ok := uniqueID[o.CustomerID]
		if !ok {
			// Orphan order with no customer row; the join drops it.
			continue
		}
		g := groups[uid]
		if g == nil {
			g = &group{orders: make(map[string]struct{})}
			groups[uid] = g
		}
		if _, seen := g.orders[o.ID]; !seen {
			g.orders[o.ID] = struct{}{}
			g.monetary += orderTotal[o.ID]
		}
		if o.PurchasedAt.After(g.lastPurchase) {
			g.lastPurchase = o.PurchasedAt
		}
	}

	if len(groups) == 0 {
		return nil, ErrNoQualifyingOrders
	}

	records := make([]Record, 0, len(groups))
	for uid, g := range groups {
		if g.monetary <= 0 {
			continue
		}
		records = append(records, Record{
			CustomerID: uid,
			Recency:    daysBetween(g.lastPurchase, refDate),
			Frequency:  len(g.orders),
			Monetary:   g.monetary,
		})
	}
	if len(records) == 0 {
		return nil, ErrNoQualifyingOrders
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].Monetary != records[j].Monetary {
			return records[i].Monetary > records[j].Monetary
		}
		return records[i].CustomerID < records[j].CustomerID
	})

	return records, nil
}

// daysBetween returns the whole days from a to b, comparing UTC calendar
// dates so two purchases on the same day yield 0 regardless of time of day.
func daysBetween(a, b time.Time) int {
	a = truncateToDay(a.UTC())
	b = truncateToDay(b.UTC())
	return int(b.Sub(a).Hours() / 24)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
