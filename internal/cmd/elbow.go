package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/runger/rfmseg/internal/config"
	"github.com/runger/rfmseg/internal/elbowtui"
	"github.com/runger/rfmseg/internal/feature"
	"github.com/runger/rfmseg/internal/kmeans"
	"github.com/runger/rfmseg/internal/rfm"
)

var elbowFlags struct {
	kmin     int
	kmax     int
	restarts int
	seed     int64
	workers  int
	pick     bool
}

var elbowCmd = &cobra.Command{
	Use:     "elbow",
	Short:   "Sweep cluster counts and chart the WSS curve",
	GroupID: groupAnalysis,
	Long: `Sweep the configured cluster count range, computing the within-cluster
sum of squares for each k over the imported data.

Prints the curve with a suggested elbow. With --pick an interactive
chart opens instead; the chosen k is saved to the config file.`,
	Args: cobra.NoArgs,
	RunE: runElbow,
}

func init() {
	elbowCmd.Flags().IntVar(&elbowFlags.kmin, "kmin", 0, "lowest k to try (default from config)")
	elbowCmd.Flags().IntVar(&elbowFlags.kmax, "kmax", 0, "highest k to try (default from config)")
	elbowCmd.Flags().IntVar(&elbowFlags.restarts, "restarts", 0, "random restarts per k (default from config)")
	elbowCmd.Flags().Int64Var(&elbowFlags.seed, "seed", 0, "random seed (default from config)")
	elbowCmd.Flags().IntVar(&elbowFlags.workers, "workers", 0, "parallel workers (0 = GOMAXPROCS)")
	elbowCmd.Flags().BoolVar(&elbowFlags.pick, "pick", false, "pick k interactively and save it")
	rootCmd.AddCommand(elbowCmd)
}

func runElbow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := newLogger(cfg)

	opts := kmeans.SweepOptions{
		KMin:          cfg.Cluster.KMin,
		KMax:          cfg.Cluster.KMax,
		Restarts:      cfg.Cluster.Restarts,
		MaxIterations: cfg.Cluster.MaxIterations,
		Seed:          cfg.Cluster.Seed,
		Workers:       cfg.Cluster.SweepWorkers,
	}
	if elbowFlags.kmin > 0 {
		opts.KMin = elbowFlags.kmin
	}
	if elbowFlags.kmax > 0 {
		opts.KMax = elbowFlags.kmax
	}
	if elbowFlags.restarts > 0 {
		opts.Restarts = elbowFlags.restarts
	}
	if cmd.Flags().Changed("seed") {
		opts.Seed = elbowFlags.seed
	}
	if elbowFlags.workers > 0 {
		opts.Workers = elbowFlags.workers
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

	records, err := rfm.Extract(tables, rfm.Options{StatusFilter: cfg.Data.StatusFilter})
	if err != nil {
		return err
	}
	points, _, err := feature.Prepare(records)
	if err != nil {
		return err
	}
	logger.Info("sweeping cluster counts",
		"customers", len(points), "kmin", opts.KMin, "kmax", opts.KMax)

	sweep := func(ctx context.Context) ([]kmeans.SweepPoint, error) {
		return kmeans.Sweep(ctx, points, opts)
	}

	if elbowFlags.pick {
		return pickElbow(cfg, sweep)
	}

	curve, err := sweep(cmd.Context())
	if err != nil {
		return err
	}
	printCurve(curve)
	return nil
}

// pickElbow runs the interactive chart and saves the chosen k.
func pickElbow(cfg *config.Config, sweep elbowtui.SweepFunc) error {
	lipgloss.SetColorProfile(termenv.ColorProfile())

	p := tea.NewProgram(elbowtui.NewModel(sweep))
	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("failed to run elbow picker: %w", err)
	}

	m, ok := finalModel.(elbowtui.Model)
	if !ok {
		return errors.New("unexpected model type from elbow picker")
	}

	k, chosen := m.Result()
	if !chosen {
		fmt.Printf("%sNo k chosen, config unchanged%s\n", colorDim, colorReset)
		return nil
	}

	cfg.Cluster.K = k
	if err := cfg.Save(); err != nil {
		return err
	}
	fmt.Printf("%scluster.k%s = %d\n", colorCyan, colorReset, k)
	fmt.Printf("Saved to: %s\n", config.DefaultPaths().ConfigFile())
	return nil
}

// printCurve renders the WSS curve as a plain bar chart.
func printCurve(curve []kmeans.SweepPoint) {
	suggested := kmeans.SuggestElbow(curve)

	maxWSS := 0.0
	for _, p := range curve {
		if p.WSS > maxWSS {
			maxWSS = p.WSS
		}
	}

	const barWidth = 40
	for _, p := range curve {
		n := 1
		if maxWSS > 0 {
			if scaled := int(p.WSS / maxWSS * barWidth); scaled > n {
				n = scaled
			}
		}
		marker := ""
		if p.K == suggested {
			marker = colorYellow + " <- suggested" + colorReset
		}
		if !p.Converged {
			marker += colorDim + " (not converged)" + colorReset
		}
		fmt.Printf("k=%-2d %s%s%s %.2f%s\n",
			p.K, colorCyan, strings.Repeat("#", n), colorReset, p.WSS, marker)
	}
	if suggested > 0 {
		fmt.Printf("\nSuggested k: %d (run 'rfmseg elbow --pick' to choose interactively)\n", suggested)
	}
}
