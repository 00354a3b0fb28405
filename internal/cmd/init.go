package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/runger/rfmseg/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:     "init",
	Short:   "Write the default configuration file",
	GroupID: groupSetup,
	Long: `Write the default configuration to the XDG config directory.

The file records the CSV input paths, clustering parameters, persona
thresholds and export settings. Refuses to overwrite an existing file
unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	paths := config.DefaultPaths()
	path := paths.ConfigFile()

	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
	}

	cfg := config.DefaultConfig()
	if err := cfg.SaveToFile(path); err != nil {
		return err
	}

	fmt.Printf("%sWrote%s %s\n", colorGreen, colorReset, path)
	fmt.Printf("Analysis store: %s\n", cfg.StorePath())
	return nil
}
