package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thermal-printer/internal/config"
)

func TestNewLoggerFileOutput(t *testing.T) {
	output := filepath.Join(t.TempDir(), "logs", "printer.log")

	logger, err := NewLogger(&config.LoggingConfig{
		Level:      "debug",
		Format:     "json",
		Output:     output,
		MaxSize:    1,
		MaxBackups: 1,
	})
	require.NoError(t, err)

	NewPrinterLogger(logger, "/dev/ttyAMA0").LogConnection("open", nil)
	require.NoError(t, CloseLogger(logger))

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"port":"/dev/ttyAMA0"`)
	assert.Contains(t, string(data), `"action":"open"`)
}

func TestNewLoggerInvalidLevel(t *testing.T) {
	_, err := NewLogger(&config.LoggingConfig{Level: "loud", Output: "stdout"})
	assert.Error(t, err)
}
