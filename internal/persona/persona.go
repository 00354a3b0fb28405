// Package persona maps cluster-level RFM aggregates to business personas.
//
// Assignment is an ordered decision list: rules are evaluated in a strict
// sequence and the first match wins. The final rule is unconditional, so
// every cluster receives exactly one persona. The thresholds are fixed
// business constants tuned to one dataset's scale and currency; they are a
// policy table callers may swap out, not derived values.
package persona

import (
	"sort"

	"github.com/runger/rfmseg/internal/rfm"
)

// Persona is one of the fixed segment labels.
type Persona string

const (
	LoyalCustomers          Persona = "Loyal Customers"
	HibernatingHighSpenders Persona = "Hibernating High Spenders"
	NewCustomers            Persona = "New Customers"
	AtRiskLowSpenders       Persona = "At-Risk Low Spenders"
)

// All lists every persona, in rule order.
var All = []Persona{
	LoyalCustomers,
	HibernatingHighSpenders,
	NewCustomers,
	AtRiskLowSpenders,
}

// ClusterSummary aggregates one cluster's members.
type ClusterSummary struct {
	Cluster       int     `json:"cluster"`
	Size          int     `json:"size"`
	MeanRecency   float64 `json:"mean_recency"`
	MeanFrequency float64 `json:"mean_frequency"`
	MeanMonetary  float64 `json:"mean_monetary"`
	Persona       Persona `json:"persona"`
}

// Thresholds is the policy table behind the decision list.
type Thresholds struct {
	LoyalMinFrequency     float64 `yaml:"loyal_min_frequency"`
	HighSpendMinMonetary  float64 `yaml:"high_spend_min_monetary"`
	HibernatingMinRecency float64 `yaml:"hibernating_min_recency"`
	NewMaxRecency         float64 `yaml:"new_max_recency"`
}

// DefaultThresholds returns the fixed business constants.
func DefaultThresholds() Thresholds {
	return Thresholds{
		LoyalMinFrequency:     1.5,
		HighSpendMinMonetary:  200,
		HibernatingMinRecency: 250,
		NewMaxRecency:         150,
	}
}

// Rule is one (predicate, label) pair of the decision list.
type Rule struct {
	Label Persona
	Match func(s ClusterSummary) bool
}

// Rules builds the ordered decision list for the given thresholds.
// Order carries the semantics; do not reorder.
func Rules(t Thresholds) []Rule {
	return []Rule{
		{
			Label: LoyalCustomers,
			Match: func(s ClusterSummary) bool {
				return s.MeanFrequency > t.LoyalMinFrequency && s.MeanMonetary > t.HighSpendMinMonetary
			},
		},
		{
			Label: HibernatingHighSpenders,
			Match: func(s ClusterSummary) bool {
				return s.MeanRecency > t.HibernatingMinRecency && s.MeanMonetary > t.HighSpendMinMonetary
			},
		},
		{
			Label: NewCustomers,
			Match: func(s ClusterSummary) bool {
				return s.MeanRecency < t.NewMaxRecency
			},
		},
		{
			// Unconditional catch-all; always matches if reached.
			Label: AtRiskLowSpenders,
			Match: func(ClusterSummary) bool { return true },
		},
	}
}

// Assign walks the decision list and returns the first matching label.
func Assign(s ClusterSummary, rules []Rule) Persona {
	for _, r := range rules {
		if r.Match(s) {
			return r.Label
		}
	}
	// Unreachable with Rules(): the last rule is unconditional.
	return AtRiskLowSpenders
}

// Summarize aggregates per-customer records and their cluster assignments
// into one summary row per cluster, ordered by cluster id. assignments[i]
// is the 1-based cluster id of records[i].
func Summarize(records []rfm.Record, assignments []int) []ClusterSummary {
	byCluster := make(map[int]*ClusterSummary)
	for i, r := range records {
		c := assignments[i]
		s := byCluster[c]
		if s == nil {
			s = &ClusterSummary{Cluster: c}
			byCluster[c] = s
		}
		s.Size++
		s.MeanRecency += float64(r.Recency)
		s.MeanFrequency += float64(r.Frequency)
		s.MeanMonetary += r.Monetary
	}

	summaries := make([]ClusterSummary, 0, len(byCluster))
	for _, s := range byCluster {
		n := float64(s.Size)
		s.MeanRecency /= n
		s.MeanFrequency /= n
		s.MeanMonetary /= n
		summaries = append(summaries, *s)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Cluster < summaries[j].Cluster
	})
	return summaries
}

// Label assigns a persona to every summary row in place.
func Label(summaries []ClusterSummary, t Thresholds) {
	rules := Rules(t)
	for i := range summaries {
		summaries[i].Persona = Assign(summaries[i], rules)
	}
}
