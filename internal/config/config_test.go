package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facturas/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "vision", cfg.TranscriptSource)
	assert.Equal(t, 8, cfg.BatchWorkers)
	assert.Equal(t, 300*time.Second, cfg.OCRTimeout)
	assert.Equal(t, "us", cfg.GoogleCloudLocation)
	assert.Equal(t, "Facturas", cfg.GoogleSheetWorksheet)

	lc := cfg.GetLoggerConfig()
	assert.Equal(t, "info", lc.Level)
	assert.Equal(t, "stderr", lc.Output)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("TRANSCRIPT_SOURCE", "PDFText")
	t.Setenv("BATCH_WORKERS", "3")
	t.Setenv("OCR_TIMEOUT_SECONDS", "45")
	t.Setenv("PATTERNS_FILE", "/etc/facturas/patterns.yaml")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "acme")
	t.Setenv("DOCUMENT_AI_PROCESSOR_ID", "abc123")
	t.Setenv("LOG_FORMAT", "JSON")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "pdftext", cfg.TranscriptSource)
	assert.Equal(t, 3, cfg.BatchWorkers)
	assert.Equal(t, 45*time.Second, cfg.OCRTimeout)
	assert.Equal(t, "/etc/facturas/patterns.yaml", cfg.PatternsFile)
	assert.Equal(t, "json", cfg.LogFormat)

	dai := cfg.GetDocumentAIConfig()
	assert.Equal(t, "projects/acme/locations/us/processors/abc123", dai.ProcessorName())
	assert.Equal(t, 45*time.Second, dai.Timeout)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"TRANSCRIPT_SOURCE", "tesseract"},
		{"BATCH_WORKERS", "0"},
		{"BATCH_WORKERS", "500"},
		{"OCR_TIMEOUT_SECONDS", "-1"},
		{"LOG_FORMAT", "xml"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}
