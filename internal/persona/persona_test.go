package persona

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runger/rfmseg/internal/rfm"
)

func TestAssign_RuleBranches(t *testing.T) {
	t.Parallel()

	rules := Rules(DefaultThresholds())

	tests := []struct {
		name    string
		summary ClusterSummary
		want    Persona
	}{
		{
			name:    "frequent big spender",
			summary: ClusterSummary{MeanFrequency: 2, MeanMonetary: 300, MeanRecency: 400},
			want:    LoyalCustomers,
		},
		{
			name:    "dormant big spender",
			summary: ClusterSummary{MeanFrequency: 1, MeanMonetary: 250, MeanRecency: 300},
			want:    HibernatingHighSpenders,
		},
		{
			name:    "recent low spender",
			summary: ClusterSummary{MeanFrequency: 1, MeanMonetary: 80, MeanRecency: 50},
			want:    NewCustomers,
		},
		{
			name:    "dormant low spender falls through",
			summary: ClusterSummary{MeanFrequency: 1, MeanMonetary: 50, MeanRecency: 300},
			want:    AtRiskLowSpenders,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Assign(tt.summary, rules))
		})
	}
}

func TestAssign_FirstMatchWins(t *testing.T) {
	t.Parallel()

	// Matches rule 1 (loyal) AND rule 2 (hibernating): recency 300 with
	// monetary 300 and frequency 2. Rule order must decide.
	s := ClusterSummary{MeanFrequency: 2, MeanMonetary: 300, MeanRecency: 300}
	assert.Equal(t, LoyalCustomers, Assign(s, Rules(DefaultThresholds())))
}

func TestAssign_ThresholdBoundariesAreExclusive(t *testing.T) {
	t.Parallel()

	rules := Rules(DefaultThresholds())

	// Exactly at the thresholds: 1.5 frequency and 200 monetary do NOT
	// qualify as loyal; recency exactly 150 is not "new".
	edge := ClusterSummary{MeanFrequency: 1.5, MeanMonetary: 200, MeanRecency: 150}
	assert.Equal(t, AtRiskLowSpenders, Assign(edge, rules))
}

func TestRules_LastRuleUnconditional(t *testing.T) {
	t.Parallel()

	rules := Rules(DefaultThresholds())
	require.NotEmpty(t, rules)
	last := rules[len(rules)-1]
	assert.Equal(t, AtRiskLowSpenders, last.Label)
	assert.True(t, last.Match(ClusterSummary{}))
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	records := []rfm.Record{
		{CustomerID: "a", Recency: 10, Frequency: 2, Monetary: 100},
		{CustomerID: "b", Recency: 30, Frequency: 4, Monetary: 300},
		{CustomerID: "c", Recency: 200, Frequency: 1, Monetary: 40},
	}
	assignments := []int{1, 1, 2}

	summaries := Summarize(records, assignments)
	require.Len(t, summaries, 2)

	assert.Equal(t, 1, summaries[0].Cluster)
	assert.Equal(t, 2, summaries[0].Size)
	assert.InDelta(t, 20, summaries[0].MeanRecency, 1e-9)
	assert.InDelta(t, 3, summaries[0].MeanFrequency, 1e-9)
	assert.InDelta(t, 200, summaries[0].MeanMonetary, 1e-9)

	assert.Equal(t, 2, summaries[1].Cluster)
	assert.Equal(t, 1, summaries[1].Size)
}

func TestLabel_EveryClusterGetsExactlyOnePersona(t *testing.T) {
	t.Parallel()

	summaries := []ClusterSummary{
		{Cluster: 1, MeanFrequency: 3, MeanMonetary: 500, MeanRecency: 40},
		{Cluster: 2, MeanFrequency: 1, MeanMonetary: 30, MeanRecency: 400},
		{Cluster: 3, MeanFrequency: 1, MeanMonetary: 90, MeanRecency: 20},
		{Cluster: 4, MeanFrequency: 1.2, MeanMonetary: 260, MeanRecency: 280},
	}

	Label(summaries, DefaultThresholds())

	want := []Persona{LoyalCustomers, AtRiskLowSpenders, NewCustomers, HibernatingHighSpenders}
	for i, s := range summaries {
		assert.Equalf(t, want[i], s.Persona, "cluster %d", s.Cluster)
		assert.Contains(t, All, s.Persona)
	}
}
