package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	oscarodin "github.com/samar-hassan/django-oscar-odin"
	"github.com/samar-hassan/django-oscar-odin/internal/config"
	"github.com/samar-hassan/django-oscar-odin/internal/logger"
	"github.com/samar-hassan/django-oscar-odin/query"
)

// Version information (set via ldflags at build time)
var (
	Version = "0.0.1-dev"
	Commit  = "unknown"
)

// CLI flags that override config file values
var (
	cfgFile   string
	logLevel  string
	logFormat string
	dsn       string
	batchSize int
)

var rootCmd = &cobra.Command{
	Use:   "oscarodin",
	Short: "Catalogue import and export for django-oscar databases",
	Long: `Imports product feeds into the catalogue tables of a django-oscar
database and exports the catalogue back out.

Features:
  - CSV and XLSX product feeds, including Automagic exports
  - Existing rows matched by natural key and updated in place
  - Bulk lookups and inserts in one transaction per import
  - CSV, XLSX and JSON exports`,
	Version:      Version,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "oscarodin.yaml",
		"Path to configuration file")

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, text)")

	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", "",
		"Override database connection string")
	rootCmd.PersistentFlags().IntVar(&batchSize, "batch-size", 0,
		"Override lookup batch size (keys per lookup statement)")
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// CLIOverrides contains flag values that override config file settings
type CLIOverrides struct {
	LogLevel  string
	LogFormat string
	DSN       string
	BatchSize int
}

// GetCLIOverrides returns the CLI flag override values
func GetCLIOverrides() CLIOverrides {
	return CLIOverrides{
		LogLevel:  logLevel,
		LogFormat: logFormat,
		DSN:       dsn,
		BatchSize: batchSize,
	}
}

// loadConfig reads the config file and applies the CLI overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	overrides := GetCLIOverrides()
	cfg.ApplyOverrides(overrides.LogLevel, overrides.LogFormat, overrides.DSN, overrides.BatchSize)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setup loads the configuration and builds the logger of a command
func setup() (*config.Config, *logger.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, log, nil
}

// connectionProps translates the database settings. Zero pool settings keep
// the database/sql defaults.
func connectionProps(cfg *config.DatabaseConfig) oscarodin.ConnectionProps {
	props := oscarodin.ConnectionProps{
		ConnString: cfg.DSN,
		Driver:     cfg.Driver,
	}
	if cfg.ServiceName != "" {
		props.ServiceName = &cfg.ServiceName
	}
	if cfg.MaxOpenConns > 0 {
		props.MaxOpenConns = &cfg.MaxOpenConns
	}
	if cfg.MaxIdleConns > 0 {
		props.MaxIdleConns = &cfg.MaxIdleConns
	}
	if cfg.MaxIdleTime > 0 {
		props.MaxIdleTime = &cfg.MaxIdleTime
	}
	if cfg.MaxLifeTime > 0 {
		props.MaxLifeTime = &cfg.MaxLifeTime
	}
	return props
}

// openORM connects to the configured database. Callers close the connection
// with oscarodin.CloseConnection.
func openORM(cfg *config.Config, log *logger.Logger) (*oscarodin.PersistenceORM, error) {
	dialect, err := query.DialectFor(cfg.Database.Driver)
	if err != nil {
		return nil, err
	}
	if err := oscarodin.NewConnection(connectionProps(&cfg.Database)); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return oscarodin.New(
		oscarodin.WithDialect(dialect),
		oscarodin.WithBatchSize(cfg.Import.LookupBatchSize),
		oscarodin.WithLogger(log.Zap()),
	), nil
}
