package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runger/rfmseg/internal/dataset"
)

var loadFlags struct {
	customers string
	orders    string
	payments  string
}

var loadCmd = &cobra.Command{
	Use:     "load",
	Short:   "Import the raw CSV tables into the analysis store",
	GroupID: groupAnalysis,
	Long: `Import the customers, orders and payments CSV files into the
local analysis store, replacing any previously imported snapshot.

File paths default to the configured data.*_csv values.`,
	Args: cobra.NoArgs,
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().StringVar(&loadFlags.customers, "customers", "", "customers CSV path")
	loadCmd.Flags().StringVar(&loadFlags.orders, "orders", "", "orders CSV path")
	loadCmd.Flags().StringVar(&loadFlags.payments, "payments", "", "payments CSV path")
	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := newLogger(cfg)

	customersPath := cfg.Data.CustomersCSV
	if loadFlags.customers != "" {
		customersPath = loadFlags.customers
	}
	ordersPath := cfg.Data.OrdersCSV
	if loadFlags.orders != "" {
		ordersPath = loadFlags.orders
	}
	paymentsPath := cfg.Data.PaymentsCSV
	if loadFlags.payments != "" {
		paymentsPath = loadFlags.payments
	}

	tables, err := dataset.LoadTables(customersPath, ordersPath, paymentsPath)
	if err != nil {
		return err
	}
	logger.Info("csv tables parsed",
		"customers", len(tables.Customers),
		"orders", len(tables.Orders),
		"payments", len(tables.Payments),
	)

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	counts, err := store.ImportTables(cmd.Context(), tables)
	if err != nil {
		return err
	}

	fmt.Printf("%sImported%s %d customers, %d orders, %d payments\n",
		colorGreen, colorReset, counts.Customers, counts.Orders, counts.Payments)
	fmt.Printf("Store: %s\n", cfg.StorePath())
	return nil
}
