package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"facturas/internal/logger"
	"facturas/internal/ocr"
)

// MaxBatchWorkers caps the batch worker pool.
const MaxBatchWorkers = 64

type Config struct {
	// Extraction
	PatternsFile     string
	TranscriptSource string

	// Batch processing
	BatchWorkers int
	OCRTimeout   time.Duration

	// Google Cloud Configuration
	GoogleCloudProject         string
	GoogleCloudLocation        string
	DocumentAIProcessorID      string
	DocumentAIProcessorVersion string

	// Google Sheets Configuration
	GoogleSheetURL       string
	GoogleSheetWorksheet string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

var defaults = map[string]interface{}{
	"PATTERNS_FILE":                 "",
	"TRANSCRIPT_SOURCE":             ocr.SourceVision,
	"BATCH_WORKERS":                 8,
	"OCR_TIMEOUT_SECONDS":           300,
	"GOOGLE_CLOUD_PROJECT":          "",
	"GOOGLE_CLOUD_LOCATION":         "us",
	"DOCUMENT_AI_PROCESSOR_ID":      "",
	"DOCUMENT_AI_PROCESSOR_VERSION": "",
	"GOOGLE_SHEET_URL":              "",
	"GOOGLE_SHEET_WORKSHEET":        "Facturas",
	"LOG_LEVEL":                     "info",
	"LOG_FORMAT":                    "console",
	"LOG_TIME_FORMAT":               time.RFC3339,
	"LOG_OUTPUT":                    "stderr",
}

// Load reads the configuration from the environment. Call godotenv.Load first
// to pick up a .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	config := &Config{
		PatternsFile:               v.GetString("PATTERNS_FILE"),
		TranscriptSource:           strings.ToLower(v.GetString("TRANSCRIPT_SOURCE")),
		BatchWorkers:               v.GetInt("BATCH_WORKERS"),
		OCRTimeout:                 time.Duration(v.GetInt("OCR_TIMEOUT_SECONDS")) * time.Second,
		GoogleCloudProject:         v.GetString("GOOGLE_CLOUD_PROJECT"),
		GoogleCloudLocation:        v.GetString("GOOGLE_CLOUD_LOCATION"),
		DocumentAIProcessorID:      v.GetString("DOCUMENT_AI_PROCESSOR_ID"),
		DocumentAIProcessorVersion: v.GetString("DOCUMENT_AI_PROCESSOR_VERSION"),
		GoogleSheetURL:             v.GetString("GOOGLE_SHEET_URL"),
		GoogleSheetWorksheet:       v.GetString("GOOGLE_SHEET_WORKSHEET"),
		LogLevel:                   v.GetString("LOG_LEVEL"),
		LogFormat:                  strings.ToLower(v.GetString("LOG_FORMAT")),
		LogTimeFormat:              v.GetString("LOG_TIME_FORMAT"),
		LogOutput:                  v.GetString("LOG_OUTPUT"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// validate checks ranges and enums. Credentials and service settings are
// checked by the component that needs them.
func (c *Config) validate() error {
	switch c.TranscriptSource {
	case ocr.SourceVision, ocr.SourceDocumentAI, ocr.SourcePDFText:
	default:
		return fmt.Errorf("TRANSCRIPT_SOURCE must be one of vision, documentai, pdftext (got %q)", c.TranscriptSource)
	}
	if c.BatchWorkers < 1 || c.BatchWorkers > MaxBatchWorkers {
		return fmt.Errorf("BATCH_WORKERS must be between 1 and %d (got %d)", MaxBatchWorkers, c.BatchWorkers)
	}
	if c.OCRTimeout <= 0 {
		return fmt.Errorf("OCR_TIMEOUT_SECONDS must be positive")
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console (got %q)", c.LogFormat)
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

// GetDocumentAIConfig returns the Document AI processor settings.
func (c *Config) GetDocumentAIConfig() ocr.DocumentAIConfig {
	return ocr.DocumentAIConfig{
		ProjectID:        c.GoogleCloudProject,
		Location:         c.GoogleCloudLocation,
		ProcessorID:      c.DocumentAIProcessorID,
		ProcessorVersion: c.DocumentAIProcessorVersion,
		Timeout:          c.OCRTimeout,
	}
}
