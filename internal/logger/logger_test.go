package logger_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facturas/internal/logger"
)

func TestSetupWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "facturas.log")
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	require.NoError(t, logger.Setup(logger.LogConfig{
		Level:  "debug",
		Format: "json",
		Output: path,
	}))

	l := logger.WithFile("batch", "a.pdf")
	l.Debug().Msg("Extracted")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"batch"`)
	assert.Contains(t, string(data), `"file":"a.pdf"`)
	assert.Contains(t, string(data), `"message":"Extracted"`)
}

func TestSetupRejectsUnknownLevel(t *testing.T) {
	err := logger.Setup(logger.LogConfig{Level: "loud", Output: "stderr"})
	assert.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	cfg := logger.DefaultConfig()
	assert.Equal(t, "stderr", cfg.Output)
	assert.Equal(t, "info", cfg.Level)
}
