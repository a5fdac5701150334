package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"facturas/internal/config"
	"facturas/internal/invoice"
	"facturas/internal/logger"
)

var version = "1.0.0"

var (
	appConfig    *config.Config
	appConfigErr error
)

var rootCmd = &cobra.Command{
	Use:   "facturas",
	Short: "Facturas - turn OCR transcripts of AFIP invoices into structured data",
	Long: `Facturas reads Argentine (AFIP) invoices and tickets and extracts their
fiscal identity, parties, amounts and line items.

Plain-text transcripts (.txt) are extracted directly. PDFs and images are
first transcribed with Google Cloud Vision, Document AI, or the embedded
PDF text layer.

Extraction rules live in a YAML pattern table; see "facturas patterns".`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("Facturas CLI executed")

		_ = cmd.Help()
	},
}

// SetConfig hands the loaded configuration, or its load error, to the commands.
func SetConfig(cfg *config.Config, err error) {
	appConfig = cfg
	appConfigErr = err
}

// loadedConfig returns the configuration, failing if it did not load.
func loadedConfig() (*config.Config, error) {
	if appConfigErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", appConfigErr)
	}
	if appConfig == nil {
		return config.Load()
	}
	return appConfig, nil
}

// loadExtractor builds an extractor from --patterns, then PATTERNS_FILE, then the defaults.
func loadExtractor(cmd *cobra.Command) (*invoice.Extractor, error) {
	log := logger.WithComponent("patterns")

	path, _ := cmd.Flags().GetString("patterns")
	if path == "" && appConfig != nil {
		path = appConfig.PatternsFile
	}

	patterns, err := invoice.LoadPatterns(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load patterns: %w", err)
	}

	if path != "" {
		log.Info().Str("file", path).Int("fields", len(patterns.Fields())).Msg("Loaded pattern overlay")
	}
	return invoice.NewExtractor(patterns), nil
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("patterns", "", "YAML pattern overlay (default: PATTERNS_FILE, then built-in patterns)")
}
