// Package config provides configuration structures and loading for the
// oscarodin command.
package config

// Config represents the complete application configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	Import   ImportConfig   `yaml:"import" mapstructure:"import"`
	Export   ExportConfig   `yaml:"export" mapstructure:"export"`
	Logging  LoggingConfig  `yaml:"logging" mapstructure:"logging"`
}

// DatabaseConfig describes the catalogue database.
type DatabaseConfig struct {
	Driver       string `yaml:"driver" mapstructure:"driver"` // postgres or mysql
	DSN          string `yaml:"dsn" mapstructure:"dsn"`
	ServiceName  string `yaml:"service_name" mapstructure:"service_name"` // enables dd-trace when set
	MaxOpenConns int    `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	MaxIdleTime  int    `yaml:"max_idle_time" mapstructure:"max_idle_time"` // seconds
	MaxLifeTime  int    `yaml:"max_life_time" mapstructure:"max_life_time"` // seconds
}

// ImportConfig holds the settings of a catalogue import.
type ImportConfig struct {
	Format          string   `yaml:"format" mapstructure:"format"` // product or automagic
	LookupBatchSize int      `yaml:"lookup_batch_size" mapstructure:"lookup_batch_size"`
	FieldsToUpdate  []string `yaml:"fields_to_update" mapstructure:"fields_to_update"`
	ProductClass    string   `yaml:"product_class" mapstructure:"product_class"`
	Partner         string   `yaml:"partner" mapstructure:"partner"` // stock records of automagic rows
	Clean           bool     `yaml:"clean" mapstructure:"clean"`
}

// ExportConfig holds the settings of a catalogue export.
type ExportConfig struct {
	Format string `yaml:"format" mapstructure:"format"` // csv or json
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:       "postgres",
			MaxOpenConns: 10,
			MaxIdleConns: 5,
		},
		Import: ImportConfig{
			Format:          "product",
			LookupBatchSize: 500,
			ProductClass:    "default",
			Clean:           true,
		},
		Export: ExportConfig{
			Format: "csv",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// ApplyOverrides applies CLI flag overrides. Only non-empty values are applied.
func (c *Config) ApplyOverrides(logLevel, logFormat, dsn string, batchSize int) {
	if logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFormat != "" {
		c.Logging.Format = logFormat
	}
	if dsn != "" {
		c.Database.DSN = dsn
	}
	if batchSize > 0 {
		c.Import.LookupBatchSize = batchSize
	}
}
