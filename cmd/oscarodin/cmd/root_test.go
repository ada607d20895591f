package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/MakeNowJust/heredoc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samar-hassan/django-oscar-odin/internal/config"
)

// resetFlags restores every flag variable when the test ends
func resetFlags(t *testing.T) {
	t.Helper()
	origCfgFile, origLogLevel, origLogFormat, origDSN, origBatchSize := cfgFile, logLevel, logFormat, dsn, batchSize
	origImportFile, origImportFormat, origImportPartner, origImportFields := importFile, importFormat, importPartner, importFields
	origExportOut, origExportFormat, origExportUPCs := exportOut, exportFormat, exportUPCs
	origValidateFile := validateFile
	t.Cleanup(func() {
		cfgFile, logLevel, logFormat, dsn, batchSize = origCfgFile, origLogLevel, origLogFormat, origDSN, origBatchSize
		importFile, importFormat, importPartner, importFields = origImportFile, origImportFormat, origImportPartner, origImportFields
		exportOut, exportFormat, exportUPCs = origExportOut, origExportFormat, origExportUPCs
		validateFile = origValidateFile
	})
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "oscarodin.yaml")
	require.NoError(t, os.WriteFile(path, []byte(heredoc.Doc(content)), 0644))
	return path
}

func TestGetCLIOverrides(t *testing.T) {
	resetFlags(t)

	tests := []struct {
		name      string
		logLevel  string
		logFormat string
		dsn       string
		batchSize int
		want      CLIOverrides
	}{
		{
			name: "empty overrides",
			want: CLIOverrides{},
		},
		{
			name:      "all overrides set",
			logLevel:  "debug",
			logFormat: "json",
			dsn:       "postgres://localhost/oscar",
			batchSize: 100,
			want: CLIOverrides{
				LogLevel:  "debug",
				LogFormat: "json",
				DSN:       "postgres://localhost/oscar",
				BatchSize: 100,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logLevel = tt.logLevel
			logFormat = tt.logFormat
			dsn = tt.dsn
			batchSize = tt.batchSize

			assert.Equal(t, tt.want, GetCLIOverrides())
		})
	}
}

func TestRootCommandStructure(t *testing.T) {
	assert.NotNil(t, rootCmd)
	assert.Equal(t, "oscarodin", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.Equal(t, Version, rootCmd.Version)
}

func TestRootCommandPersistentFlags(t *testing.T) {
	flags := rootCmd.PersistentFlags()

	tests := []struct {
		name      string
		shorthand string
		defValue  string
	}{
		{"config", "c", "oscarodin.yaml"},
		{"log-level", "", ""},
		{"log-format", "", ""},
		{"dsn", "", ""},
		{"batch-size", "", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := flags.Lookup(tt.name)
			require.NotNil(t, flag)
			assert.Equal(t, tt.shorthand, flag.Shorthand)
			assert.Equal(t, tt.defValue, flag.DefValue)
		})
	}
}

func TestSubcommandsAreAddedToRoot(t *testing.T) {
	names := map[string]bool{}
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}
	for _, name := range []string{"import", "export", "validate", "version"} {
		assert.True(t, names[name], "%s command should be added to root command", name)
	}
}

func TestLoadConfig(t *testing.T) {
	resetFlags(t)

	t.Run("applies overrides", func(t *testing.T) {
		cfgFile = writeConfig(t, `
			database:
			  dsn: postgres://localhost/oscar
		`)
		logLevel = "debug"
		batchSize = 25

		cfg, err := loadConfig()
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.Equal(t, 25, cfg.Import.LookupBatchSize)
	})

	t.Run("rejects invalid config", func(t *testing.T) {
		cfgFile = writeConfig(t, `
			database:
			  driver: oracle
		`)
		logLevel = ""
		batchSize = 0
		dsn = ""

		_, err := loadConfig()
		var validationErrors config.ValidationErrors
		require.ErrorAs(t, err, &validationErrors)
		assert.Len(t, validationErrors, 2)
	})

	t.Run("dsn flag satisfies validation", func(t *testing.T) {
		cfgFile = writeConfig(t, `
			logging:
			  format: json
		`)
		dsn = "postgres://other/oscar"

		cfg, err := loadConfig()
		require.NoError(t, err)
		assert.Equal(t, "postgres://other/oscar", cfg.Database.DSN)
	})

	t.Run("reports missing files", func(t *testing.T) {
		cfgFile = filepath.Join(t.TempDir(), "missing.yaml")

		_, err := loadConfig()
		assert.ErrorContains(t, err, "failed to load config")
	})
}

func TestConnectionProps(t *testing.T) {
	cfg := config.DefaultConfig().Database
	cfg.DSN = "postgres://localhost/oscar"
	cfg.MaxIdleConns = 0
	cfg.MaxLifeTime = 300

	props := connectionProps(&cfg)
	assert.Equal(t, "postgres://localhost/oscar", props.ConnString)
	assert.Equal(t, "postgres", props.Driver)
	assert.Nil(t, props.ServiceName)
	assert.Nil(t, props.MaxIdleConns)
	assert.Nil(t, props.MaxIdleTime)
	require.NotNil(t, props.MaxOpenConns)
	assert.Equal(t, 10, *props.MaxOpenConns)
	require.NotNil(t, props.MaxLifeTime)
	assert.Equal(t, 300, *props.MaxLifeTime)

	cfg.ServiceName = "catalogue-import"
	props = connectionProps(&cfg)
	require.NotNil(t, props.ServiceName)
	assert.Equal(t, "catalogue-import", *props.ServiceName)
}
