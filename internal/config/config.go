package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/runger/rfmseg/internal/persona"
)

// Config represents the rfmseg configuration.
type Config struct {
	Data    DataConfig         `yaml:"data"`
	Cluster ClusterConfig      `yaml:"cluster"`
	Persona persona.Thresholds `yaml:"persona"`
	Export  ExportConfig       `yaml:"export"`
	Log     LogConfig          `yaml:"log"`
}

// DataConfig holds input and store settings.
type DataConfig struct {
	CustomersCSV string `yaml:"customers_csv"` // customers table
	OrdersCSV    string `yaml:"orders_csv"`    // orders table
	PaymentsCSV  string `yaml:"payments_csv"`  // payments table
	StorePath    string `yaml:"store_path"`    // SQLite analysis store (empty = default)
	StatusFilter string `yaml:"status_filter"` // qualifying order status
}

// ClusterConfig holds segmentation settings.
type ClusterConfig struct {
	K             int   `yaml:"k"`              // chosen cluster count
	KMin          int   `yaml:"k_min"`          // elbow sweep lower bound
	KMax          int   `yaml:"k_max"`          // elbow sweep upper bound
	Restarts      int   `yaml:"restarts"`       // random restarts per k
	MaxIterations int   `yaml:"max_iterations"` // Lloyd iteration cap
	Seed          int64 `yaml:"seed"`           // top-level random seed
	SweepWorkers  int   `yaml:"sweep_workers"`  // elbow parallelism (0 = GOMAXPROCS)
}

// ExportConfig holds output settings.
type ExportConfig struct {
	Dir    string `yaml:"dir"`    // reports directory
	Format string `yaml:"format"` // csv, json, or both
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			CustomersCSV: "data/customers.csv",
			OrdersCSV:    "data/orders.csv",
			PaymentsCSV:  "data/payments.csv",
			StorePath:    "", // Use default from paths
			StatusFilter: "delivered",
		},
		Cluster: ClusterConfig{
			K:             4,
			KMin:          1,
			KMax:          10,
			Restarts:      25,
			MaxIterations: 100,
			Seed:          42, // fixed for reproducibility
			SweepWorkers:  0,
		},
		Persona: persona.DefaultThresholds(),
		Export: ExportConfig{
			Dir:    "reports",
			Format: "csv",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the default path.
func Load() (*Config, error) {
	paths := DefaultPaths()
	return LoadFromFile(paths.ConfigFile())
}

// LoadFromFile loads configuration from the specified file.
// If the file doesn't exist, returns default configuration.
// Environment variable overrides are applied after file loading.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.ApplyEnvOverrides()
			return cfg, nil // Return defaults if file doesn't exist
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Save saves the configuration to the default path.
func (c *Config) Save() error {
	paths := DefaultPaths()
	return c.SaveToFile(paths.ConfigFile())
}

// SaveToFile saves the configuration to the specified file.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// StorePath resolves the analysis store path, falling back to the default
// data directory when unset.
func (c *Config) StorePath() string {
	if c.Data.StorePath != "" {
		return c.Data.StorePath
	}
	return DefaultPaths().StoreFile()
}

// ApplyEnvOverrides applies environment variable overrides.
// RFMSEG_STORE_PATH overrides data.store_path; RFMSEG_SEED overrides
// cluster.seed when it parses as an integer.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("RFMSEG_STORE_PATH"); v != "" {
		c.Data.StorePath = v
	}
	if v := os.Getenv("RFMSEG_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Cluster.Seed = seed
		}
	}
	if v := os.Getenv("RFMSEG_LOG_LEVEL"); v != "" && isValidLogLevel(v) {
		c.Log.Level = v
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Data.StatusFilter == "" {
		return errors.New("data.status_filter must not be empty")
	}
	if c.Cluster.K < 1 {
		return fmt.Errorf("cluster.k must be at least 1, got %d", c.Cluster.K)
	}
	if c.Cluster.KMin < 1 {
		return fmt.Errorf("cluster.k_min must be at least 1, got %d", c.Cluster.KMin)
	}
	if c.Cluster.KMax < c.Cluster.KMin {
		return fmt.Errorf("cluster.k_max (%d) must be >= cluster.k_min (%d)",
			c.Cluster.KMax, c.Cluster.KMin)
	}
	if c.Cluster.Restarts < 1 {
		return fmt.Errorf("cluster.restarts must be at least 1, got %d", c.Cluster.Restarts)
	}
	if c.Cluster.MaxIterations < 1 {
		return fmt.Errorf("cluster.max_iterations must be at least 1, got %d", c.Cluster.MaxIterations)
	}
	if !isValidExportFormat(c.Export.Format) {
		return fmt.Errorf("export.format must be csv, json, or both, got %q", c.Export.Format)
	}
	if !isValidLogLevel(c.Log.Level) {
		return fmt.Errorf("log.level must be debug, info, warn, or error, got %q", c.Log.Level)
	}
	return nil
}

// Get retrieves a configuration value by dot-separated key.
// For example: "cluster.k" or "data.status_filter".
func (c *Config) Get(key string) (string, error) {
	parts := strings.Split(key, ".")
	if len(parts) != 2 {
		return "", errors.New("key must be in format 'section.key'")
	}

	section, field := parts[0], parts[1]

	switch section {
	case "data":
		return c.getDataField(field)
	case "cluster":
		return c.getClusterField(field)
	case "persona":
		return c.getPersonaField(field)
	case "export":
		return c.getExportField(field)
	case "log":
		return c.getLogField(field)
	default:
		return "", fmt.Errorf("unknown section: %s", section)
	}
}

// Set sets a configuration value by dot-separated key.
func (c *Config) Set(key, value string) error {
	parts := strings.Split(key, ".")
	if len(parts) != 2 {
		return errors.New("key must be in format 'section.key'")
	}

	section, field := parts[0], parts[1]

	switch section {
	case "data":
		return c.setDataField(field, value)
	case "cluster":
		return c.setClusterField(field, value)
	case "persona":
		return c.setPersonaField(field, value)
	case "export":
		return c.setExportField(field, value)
	case "log":
		return c.setLogField(field, value)
	default:
		return fmt.Errorf("unknown section: %s", section)
	}
}

func (c *Config) getDataField(field string) (string, error) {
	switch field {
	case "customers_csv":
		return c.Data.CustomersCSV, nil
	case "orders_csv":
		return c.Data.OrdersCSV, nil
	case "payments_csv":
		return c.Data.PaymentsCSV, nil
	case "store_path":
		return c.Data.StorePath, nil
	case "status_filter":
		return c.Data.StatusFilter, nil
	default:
		return "", fmt.Errorf("unknown field: data.%s", field)
	}
}

func (c *Config) setDataField(field, value string) error {
	switch field {
	case "customers_csv":
		c.Data.CustomersCSV = value
	case "orders_csv":
		c.Data.OrdersCSV = value
	case "payments_csv":
		c.Data.PaymentsCSV = value
	case "store_path":
		c.Data.StorePath = value
	case "status_filter":
		if value == "" {
			return errors.New("status_filter must not be empty")
		}
		c.Data.StatusFilter = value
	default:
		return fmt.Errorf("unknown field: data.%s", field)
	}
	return nil
}

func (c *Config) getClusterField(field string) (string, error) {
	switch field {
	case "k":
		return strconv.Itoa(c.Cluster.K), nil
	case "k_min":
		return strconv.Itoa(c.Cluster.KMin), nil
	case "k_max":
		return strconv.Itoa(c.Cluster.KMax), nil
	case "restarts":
		return strconv.Itoa(c.Cluster.Restarts), nil
	case "max_iterations":
		return strconv.Itoa(c.Cluster.MaxIterations), nil
	case "seed":
		return strconv.FormatInt(c.Cluster.Seed, 10), nil
	case "sweep_workers":
		return strconv.Itoa(c.Cluster.SweepWorkers), nil
	default:
		return "", fmt.Errorf("unknown field: cluster.%s", field)
	}
}

func (c *Config) setClusterField(field, value string) error {
	switch field {
	case "seed":
		seed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer value: %s", value)
		}
		c.Cluster.Seed = seed
		return nil
	case "k", "k_min", "k_max", "restarts", "max_iterations", "sweep_workers":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value: %s", value)
		}
		switch field {
		case "k":
			c.Cluster.K = n
		case "k_min":
			c.Cluster.KMin = n
		case "k_max":
			c.Cluster.KMax = n
		case "restarts":
			c.Cluster.Restarts = n
		case "max_iterations":
			c.Cluster.MaxIterations = n
		case "sweep_workers":
			c.Cluster.SweepWorkers = n
		}
		return c.Validate()
	default:
		return fmt.Errorf("unknown field: cluster.%s", field)
	}
}

func (c *Config) getPersonaField(field string) (string, error) {
	switch field {
	case "loyal_min_frequency":
		return formatFloat(c.Persona.LoyalMinFrequency), nil
	case "high_spend_min_monetary":
		return formatFloat(c.Persona.HighSpendMinMonetary), nil
	case "hibernating_min_recency":
		return formatFloat(c.Persona.HibernatingMinRecency), nil
	case "new_max_recency":
		return formatFloat(c.Persona.NewMaxRecency), nil
	default:
		return "", fmt.Errorf("unknown field: persona.%s", field)
	}
}

func (c *Config) setPersonaField(field, value string) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid float value: %s", value)
	}
	switch field {
	case "loyal_min_frequency":
		c.Persona.LoyalMinFrequency = f
	case "high_spend_min_monetary":
		c.Persona.HighSpendMinMonetary = f
	case "hibernating_min_recency":
		c.Persona.HibernatingMinRecency = f
	case "new_max_recency":
		c.Persona.NewMaxRecency = f
	default:
		return fmt.Errorf("unknown field: persona.%s", field)
	}
	return nil
}

func (c *Config) getExportField(field string) (string, error) {
	switch field {
	case "dir":
		return c.Export.Dir, nil
	case "format":
		return c.Export.Format, nil
	default:
		return "", fmt.Errorf("unknown field: export.%s", field)
	}
}

func (c *Config) setExportField(field, value string) error {
	switch field {
	case "dir":
		c.Export.Dir = value
	case "format":
		if !isValidExportFormat(value) {
			return fmt.Errorf("format must be csv, json, or both, got %q", value)
		}
		c.Export.Format = value
	default:
		return fmt.Errorf("unknown field: export.%s", field)
	}
	return nil
}

func (c *Config) getLogField(field string) (string, error) {
	switch field {
	case "level":
		return c.Log.Level, nil
	default:
		return "", fmt.Errorf("unknown field: log.%s", field)
	}
}

func (c *Config) setLogField(field, value string) error {
	switch field {
	case "level":
		if !isValidLogLevel(value) {
			return fmt.Errorf("level must be debug, info, warn, or error, got %q", value)
		}
		c.Log.Level = value
	default:
		return fmt.Errorf("unknown field: log.%s", field)
	}
	return nil
}

// ListKeys returns every settable configuration key.
func ListKeys() []string {
	return []string{
		"data.customers_csv",
		"data.orders_csv",
		"data.payments_csv",
		"data.store_path",
		"data.status_filter",
		"cluster.k",
		"cluster.k_min",
		"cluster.k_max",
		"cluster.restarts",
		"cluster.max_iterations",
		"cluster.seed",
		"cluster.sweep_workers",
		"persona.loyal_min_frequency",
		"persona.high_spend_min_monetary",
		"persona.hibernating_min_recency",
		"persona.new_max_recency",
		"export.dir",
		"export.format",
		"log.level",
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}

func isValidExportFormat(format string) bool {
	switch format {
	case "csv", "json", "both":
		return true
	}
	return false
}
