package storage

import (
	"context"

	"github.com/runger/rfmseg/internal/dataset"
	"github.com/runger/rfmseg/internal/persona"
	"github.com/runger/rfmseg/internal/pipeline"
)

// Store defines the interface for all storage operations.
type Store interface {
	// Raw datasets
	ImportTables(ctx context.Context, tables *dataset.Tables) (*ImportCounts, error)
	LoadTables(ctx context.Context) (*dataset.Tables, error)

	// Analysis runs
	SaveRun(ctx context.Context, run *Run, rows []pipeline.Row) error
	GetRun(ctx context.Context, runID string) (*Run, error)
	LatestRun(ctx context.Context) (*Run, error)
	QuerySegments(ctx context.Context, runID string) ([]pipeline.Row, error)
	ClusterSummaries(ctx context.Context, runID string) ([]persona.ClusterSummary, error)

	// Lifecycle
	Close() error
}

// ImportCounts reports how many rows an import wrote per table.
type ImportCounts struct {
	Customers int
	Orders    int
	Payments  int
}

// Run is one persisted analysis run.
type Run struct {
	RunID            string
	StartedAtUnixMs  int64
	FinishedAtUnixMs int64
	StatusFilter     string
	K                int
	Restarts         int
	Seed             int64
	Customers        int
	WSS              float64
	Converged        bool
}
