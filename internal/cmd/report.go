package cmd

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/runger/rfmseg/internal/persona"
)

const personaColWidth = 28

var reportFlags struct {
	segments bool
	limit    int
}

var reportCmd = &cobra.Command{
	Use:     "report [run-id]",
	Short:   "Show a stored analysis run",
	GroupID: groupAnalysis,
	Long: `Show the cluster summary of a stored analysis run.

Without an argument the most recent run is shown. Pass a run id to
inspect an older run. With --segments the per-customer table is printed
as well, ordered by monetary value descending.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().BoolVar(&reportFlags.segments, "segments", false, "also print per-customer rows")
	reportCmd.Flags().IntVar(&reportFlags.limit, "limit", 20, "max per-customer rows to print (0 = all)")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	run, err := store.LatestRun(ctx)
	if len(args) == 1 {
		run, err = store.GetRun(ctx, args[0])
	}
	if err != nil {
		return err
	}

	finished := time.UnixMilli(run.FinishedAtUnixMs).UTC()
	fmt.Printf("%sRun %s%s\n", colorBold, run.RunID, colorReset)
	fmt.Printf("  finished:  %s\n", finished.Format(time.RFC3339))
	fmt.Printf("  status:    %s\n", run.StatusFilter)
	fmt.Printf("  customers: %d\n", run.Customers)
	fmt.Printf("  k:         %d\n", run.K)
	fmt.Printf("  seed:      %d\n", run.Seed)
	fmt.Printf("  wss:       %.4f\n", run.WSS)
	if !run.Converged {
		fmt.Printf("  %swarning: run did not converge%s\n", colorYellow, colorReset)
	}

	summaries, err := store.ClusterSummaries(ctx, run.RunID)
	if err != nil {
		return err
	}
	printSummaries(summaries)

	if !reportFlags.segments {
		return nil
	}

	rows, err := store.QuerySegments(ctx, run.RunID)
	if err != nil {
		return err
	}
	limit := reportFlags.limit
	if limit <= 0 || limit > len(rows) {
		limit = len(rows)
	}

	fmt.Println()
	fmt.Printf("%s%-34s %8s %5s %10s %8s  %s%s\n",
		colorDim, "customer", "recency", "freq", "monetary", "cluster", "persona", colorReset)
	for _, r := range rows[:limit] {
		fmt.Printf("%-34s %8d %5d %10.2f %8d  %s\n",
			runewidth.Truncate(r.CustomerID, 34, "…"),
			r.Recency, r.Frequency, r.Monetary, r.Cluster,
			runewidth.Truncate(string(r.Persona), personaColWidth, "…"))
	}
	if limit < len(rows) {
		fmt.Printf("%s... %d more rows%s\n", colorDim, len(rows)-limit, colorReset)
	}
	return nil
}

var (
	summaryHeaderStyle = lipgloss.NewStyle().Bold(true)
	summaryCellStyle   = lipgloss.NewStyle().PaddingRight(2)
)

// printSummaries renders the per-cluster summary table.
func printSummaries(summaries []persona.ClusterSummary) {
	fmt.Println()
	header := fmt.Sprintf("%-8s %6s %9s %6s %10s  %s",
		"cluster", "size", "recency", "freq", "monetary", "persona")
	fmt.Println(summaryHeaderStyle.Render(header))
	for _, s := range summaries {
		line := fmt.Sprintf("%-8d %6d %9.1f %6.2f %10.2f  %s",
			s.Cluster, s.Size, s.MeanRecency, s.MeanFrequency, s.MeanMonetary,
			runewidth.Truncate(string(s.Persona), personaColWidth, "…"))
		fmt.Println(summaryCellStyle.Render(line))
	}
}
