package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/runger/rfmseg/internal/export"
	"github.com/runger/rfmseg/internal/log"
	"github.com/runger/rfmseg/internal/pipeline"
	"github.com/runger/rfmseg/internal/storage"
)

var runFlags struct {
	k        int
	restarts int
	maxIter  int
	seed     int64
	status   string
	noExport bool
}

var runCmd = &cobra.Command{
	Use:     "run",
	Short:   "Segment customers and persist the result",
	GroupID: groupAnalysis,
	Long: `Run the full segmentation pipeline over the imported tables:
extract RFM metrics, standardize features, cluster with K-Means and
label each cluster with a persona.

The result is stored as a new analysis run and exported to the
configured reports directory. Flags override the configured values.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	runCmd.Flags().IntVar(&runFlags.k, "k", 0, "cluster count (default from config)")
	runCmd.Flags().IntVar(&runFlags.restarts, "restarts", 0, "random restarts (default from config)")
	runCmd.Flags().IntVar(&runFlags.maxIter, "max-iterations", 0, "Lloyd iteration cap (default from config)")
	runCmd.Flags().Int64Var(&runFlags.seed, "seed", 0, "random seed (default from config)")
	runCmd.Flags().StringVar(&runFlags.status, "status", "", "qualifying order status (default from config)")
	runCmd.Flags().BoolVar(&runFlags.noExport, "no-export", false, "skip writing report files")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := newLogger(cfg)

	opts := pipeline.Options{
		StatusFilter:  cfg.Data.StatusFilter,
		K:             cfg.Cluster.K,
		Restarts:      cfg.Cluster.Restarts,
		MaxIterations: cfg.Cluster.MaxIterations,
		Seed:          cfg.Cluster.Seed,
		Thresholds:    cfg.Persona,
	}
	if runFlags.k > 0 {
		opts.K = runFlags.k
	}
	if runFlags.restarts > 0 {
		opts.Restarts = runFlags.restarts
	}
	if runFlags.maxIter > 0 {
		opts.MaxIterations = runFlags.maxIter
	}
	if cmd.Flags().Changed("seed") {
		opts.Seed = runFlags.seed
	}
	if runFlags.status != "" {
		opts.StatusFilter = runFlags.status
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	tables, err := store.LoadTables(cmd.Context())
	if err != nil {
		return err
	}
	if len(tables.Customers) == 0 {
		return errors.New("no imported data; run 'rfmseg load' first")
	}

	runID := storage.NewRunID()
	log.LogRunStart(logger, log.RunInfo{
		RunID:        runID,
		StatusFilter: opts.StatusFilter,
		K:            opts.K,
		Restarts:     opts.Restarts,
		Seed:         opts.Seed,
		StorePath:    cfg.StorePath(),
	})

	started := time.Now()
	outcome, err := pipeline.Run(logger, tables, opts)
	if err != nil {
		return err
	}
	finished := time.Now()

	run := &storage.Run{
		RunID:            runID,
		StartedAtUnixMs:  started.UnixMilli(),
		FinishedAtUnixMs: finished.UnixMilli(),
		StatusFilter:     opts.StatusFilter,
		K:                opts.K,
		Restarts:         opts.Restarts,
		Seed:             opts.Seed,
		Customers:        len(outcome.Rows),
		WSS:              outcome.WSS,
		Converged:        outcome.Converged,
	}
	if err := store.SaveRun(cmd.Context(), run, outcome.Rows); err != nil {
		return err
	}

	fmt.Printf("%sRun %s%s\n", colorBold, runID, colorReset)
	fmt.Printf("  customers: %d\n", len(outcome.Rows))
	fmt.Printf("  k:         %d\n", opts.K)
	fmt.Printf("  wss:       %.4f\n", outcome.WSS)
	if !outcome.Converged {
		fmt.Printf("  %swarning: best restart did not converge within %d iterations%s\n",
			colorYellow, opts.MaxIterations, colorReset)
	}
	printSummaries(outcome.Summaries)

	if runFlags.noExport {
		return nil
	}
	paths, err := export.Write(cfg.Export.Dir, cfg.Export.Format, outcome.Rows, finished)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Printf("Wrote %s\n", p)
	}
	return nil
}
