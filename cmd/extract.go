package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"facturas/internal/invoice"
	"facturas/internal/logger"
	"facturas/pkg/models"
)

var extractCmd = &cobra.Command{
	Use:   "extract [transcript-file|-]",
	Short: "Extract a structured invoice from an OCR transcript",
	Long: `Extract the fiscal identity, parties, amounts and line items of an AFIP
invoice from a plain-text OCR transcript.

Reads the file named on the command line, or standard input when the argument
is "-" or missing. Fields that cannot be found are reported as absent, never
as zero. Output is JSON unless --text is given.`,
	Example: `  # Extract a transcript to JSON on stdout
  facturas extract factura.txt

  # Include which pattern variant matched each field
  facturas extract factura.txt --report

  # Human readable summary from a pipe
  cat factura.txt | facturas extract --text

  # Use a custom pattern table
  facturas extract factura.txt --patterns my-patterns.yaml -o factura.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

// ExtractOutput represents the JSON output structure of the extract command
type ExtractOutput struct {
	File     string                   `json:"file,omitempty"`
	Invoice  *models.ExtractedInvoice `json:"invoice"`
	Missing  []string                 `json:"missing_fields,omitempty"`
	Warnings []string                 `json:"warnings,omitempty"`
	Report   *invoice.Report          `json:"report,omitempty"`
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	extractCmd.Flags().Bool("report", false, "Include the extraction report in the JSON output")
	extractCmd.Flags().Bool("text", false, "Print a human readable summary instead of JSON")
}

func runExtract(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("extract")

	outputPath, _ := cmd.Flags().GetString("output")
	withReport, _ := cmd.Flags().GetBool("report")
	textOutput, _ := cmd.Flags().GetBool("text")

	input := "-"
	if len(args) == 1 {
		input = args[0]
	}

	transcript, err := readTranscript(input, cmd.InOrStdin())
	if err != nil {
		return err
	}

	extractor, err := loadExtractor(cmd)
	if err != nil {
		return err
	}

	log.Info().
		Str("file", input).
		Int("bytes", len(transcript)).
		Msg("Extracting invoice from transcript")

	inv, rep, err := extractor.ExtractWithReport(transcript)
	if err != nil {
		return describeError(err)
	}

	name := ""
	if input != "-" {
		name = filepath.Base(input)
	}
	out := ExtractOutput{
		File:     name,
		Invoice:  inv,
		Missing:  rep.Missing(extractor.Patterns()),
		Warnings: rep.Warnings,
	}
	if withReport {
		out.Report = rep
	}

	log.Info().
		Str("invoice_type", string(inv.InvoiceType)).
		Int("line_items", len(inv.LineItems)).
		Int("missing", len(out.Missing)).
		Int("warnings", len(out.Warnings)).
		Msg("Extraction completed")

	if textOutput {
		var sb strings.Builder
		printInvoice(&sb, &models.ProcessedDocument{
			File:     name,
			Source:   "text",
			Invoice:  inv,
			Missing:  out.Missing,
			Warnings: out.Warnings,
		})
		return writeOutput(outputPath, []byte(sb.String()), log)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to create JSON output: %w", err)
	}
	return writeOutput(outputPath, append(data, '\n'), log)
}

// readTranscript reads a transcript file, or stdin for "-".
func readTranscript(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read standard input: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("transcript file not found: %s", path)
		}
		return "", fmt.Errorf("failed to read transcript: %w", err)
	}
	return string(data), nil
}
