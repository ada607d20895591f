package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samar-hassan/django-oscar-odin/internal/config"
)

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"debug", "debug"},
		{"info", "info"},
		{"", "info"},
		{"warn", "warn"},
		{"error", "error"},
		{"unknown", "info"},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, parseLevel(tc.input).String())
		})
	}
}

func TestNew(t *testing.T) {
	testCases := []struct {
		description string
		cfg         *config.LoggingConfig
	}{
		{"json to stdout", &config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"}},
		{"text to stderr", &config.LoggingConfig{Level: "debug", Format: "text", Output: "stderr"}},
		{"defaults", &config.LoggingConfig{}},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			logger, err := New(tc.cfg)
			require.NoError(t, err)
			assert.NotNil(t, logger.Zap())
		})
	}
}

func TestFileOutput(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "import.log")
	logger, err := New(&config.LoggingConfig{Level: "info", Format: "json", Output: logPath})
	require.NoError(t, err)

	logger.WithRun("run-1").WithFile("products.csv").Zap().Info("imported products")
	require.NoError(t, logger.Sync())

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"msg":"imported products"`)
	assert.Contains(t, string(content), `"run_id":"run-1"`)
	assert.Contains(t, string(content), `"file":"products.csv"`)
}

func TestUnwritableOutput(t *testing.T) {
	_, err := New(&config.LoggingConfig{Output: filepath.Join(t.TempDir(), "missing", "import.log")})
	assert.Error(t, err)
}

func TestNewDefault(t *testing.T) {
	logger := NewDefault()
	require.NotNil(t, logger)
	assert.True(t, logger.Zap().Core().Enabled(parseLevel("info")))
	assert.False(t, logger.Zap().Core().Enabled(parseLevel("debug")))
}
