package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"facturas/internal/invoice"
	"facturas/internal/logger"
)

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Print the built-in pattern table or check an overlay",
	Long: `Print the built-in YAML pattern table used for extraction.

The output is a valid overlay: copy it, edit the fields that need different
patterns, delete the rest, and pass it with --patterns or PATTERNS_FILE.
A field present in the overlay replaces that field's whole cascade.

With --check, the overlay is compiled against the defaults and a summary of
the resulting table is printed.`,
	Example: `  # Start a custom pattern table
  facturas patterns > my-patterns.yaml

  # Validate it
  facturas patterns --check my-patterns.yaml`,
	Args: cobra.NoArgs,
	RunE: runPatterns,
}

func init() {
	rootCmd.AddCommand(patternsCmd)

	patternsCmd.Flags().String("check", "", "Compile this overlay and print a summary")
}

func runPatterns(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("patterns")

	checkPath, _ := cmd.Flags().GetString("check")
	if checkPath == "" {
		_, err := os.Stdout.Write(invoice.DefaultPatternsYAML())
		return err
	}

	patterns, err := invoice.LoadPatterns(checkPath)
	if err != nil {
		log.Error().Err(err).Str("file", checkPath).Msg("Pattern overlay is invalid")
		return err
	}

	fmt.Printf("%s: OK\n", checkPath)
	for _, field := range patterns.Fields() {
		fmt.Printf("  %-26s %d variant(s)\n", field, patterns.Cascade(field).Len())
	}
	fmt.Printf("  noise keywords: %s\n", strings.Join(patterns.NoiseKeywords(), ", "))
	return nil
}
