// Package pipeline wires the analysis stages together: extract RFM metrics,
// prepare features, segment, and label personas.
//
// Every stage runs in memory on an immutable snapshot of the previous
// stage's output. Nothing is persisted or exported here; a failed stage
// aborts the run with a stage-labelled error and no partial result.
package pipeline

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/runger/rfmseg/internal/dataset"
	"github.com/runger/rfmseg/internal/feature"
	"github.com/runger/rfmseg/internal/kmeans"
	"github.com/runger/rfmseg/internal/persona"
	"github.com/runger/rfmseg/internal/rfm"
)

// Options carries the operator-supplied run parameters.
type Options struct {
	StatusFilter  string
	K             int
	Restarts      int
	MaxIterations int
	Seed          int64
	Thresholds    persona.Thresholds
}

// Row is one line of the output table, the contract every downstream
// consumer (report, export, dashboard) reads.
type Row struct {
	CustomerID string          `json:"customer_id"`
	Recency    int             `json:"recency"`
	Frequency  int             `json:"frequency"`
	Monetary   float64         `json:"monetary"`
	Cluster    int             `json:"cluster"`
	Persona    persona.Persona `json:"persona"`
}

// Outcome is the complete, internally consistent result of one run.
type Outcome struct {
	Rows      []Row
	Summaries []persona.ClusterSummary
	WSS       float64
	Converged bool
}

// Run executes the full pipeline over the raw tables.
func Run(logger *slog.Logger, tables *dataset.Tables, opts Options) (*Outcome, error) {
	records, err := rfm.Extract(tables, rfm.Options{StatusFilter: opts.StatusFilter})
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	logger.Info("metrics extracted", "customers", len(records))

	matrix, _, err := feature.Prepare(records)
	if err != nil {
		return nil, fmt.Errorf("prepare: %w", err)
	}

	if distinct := kmeans.Distinct(matrix); opts.K > distinct {
		return nil, fmt.Errorf("segment: %w: k=%d, distinct customers=%d",
			kmeans.ErrBadK, opts.K, distinct)
	}

	result, err := kmeans.Run(matrix, kmeans.Options{
		K:             opts.K,
		Restarts:      opts.Restarts,
		MaxIterations: opts.MaxIterations,
		Seed:          opts.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("segment: %w", err)
	}
	if !result.Converged {
		logger.Warn("no restart converged, using best-effort result",
			"k", opts.K, "wss", result.WSS)
	}
	logger.Info("segmentation finished",
		"k", opts.K, "wss", result.WSS, "restart", result.Restart, "converged", result.Converged)

	assignments := relabelByMonetary(records, result.Assignments)

	summaries := persona.Summarize(records, assignments)
	persona.Label(summaries, opts.Thresholds)

	byCluster := make(map[int]persona.Persona, len(summaries))
	for _, s := range summaries {
		byCluster[s.Cluster] = s.Persona
	}

	rows := make([]Row, len(records))
	for i, r := range records {
		rows[i] = Row{
			CustomerID: r.CustomerID,
			Recency:    r.Recency,
			Frequency:  r.Frequency,
			Monetary:   r.Monetary,
			Cluster:    assignments[i],
			Persona:    byCluster[assignments[i]],
		}
	}

	return &Outcome{
		Rows:      rows,
		Summaries: summaries,
		WSS:       result.WSS,
		Converged: result.Converged,
	}, nil
}

// relabelByMonetary renumbers cluster ids so cluster 1 has the highest mean
// monetary value. Raw K-Means ids depend on which restart won; renumbering
// keeps re-runs with the same seed readable side by side. The ids still
// carry no meaning beyond the attached persona.
func relabelByMonetary(records []rfm.Record, assignments []int) []int {
	type agg struct {
		id    int
		sum   float64
		count int
	}
	aggs := make(map[int]*agg)
	for i, a := range assignments {
		g := aggs[a]
		if g == nil {
			g = &agg{id: a}
			aggs[a] = g
		}
		g.sum += records[i].Monetary
		g.count++
	}

	ordered := make([]*agg, 0, len(aggs))
	for _, g := range aggs {
		ordered = append(ordered, g)
	}
	sort.Slice(ordered, func(i, j int) bool {
		mi := ordered[i].sum / float64(ordered[i].count)
		mj := ordered[j].sum / float64(ordered[j].count)
		if mi != mj {
			return mi > mj
		}
		return ordered[i].id < ordered[j].id
	})

	remap := make(map[int]int, len(ordered))
	for rank, g := range ordered {
		remap[g.id] = rank + 1
	}

	out := make([]int, len(assignments))
	for i, a := range assignments {
		out[i] = remap[a]
	}
	return out
}
