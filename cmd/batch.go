package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"facturas/internal/export"
	"facturas/internal/logger"
	"facturas/internal/metrics"
	"facturas/internal/ocr"
	"facturas/internal/sheets"
	"facturas/pkg/models"
	"facturas/pkg/services"
)

var batchCmd = &cobra.Command{
	Use:   "batch [folder-path]",
	Short: "Extract every invoice in a folder and export the results",
	Long: `Process every transcript (.txt), PDF and image in a folder, in parallel.

Transcripts are extracted directly; other documents are transcribed first
with the configured transcript source. One failing document never stops the
batch: its error is recorded in the results.

Results can be written to an Excel workbook (--xlsx), a JSON file (--json),
and appended to a Google Sheet (--sheet, uses GOOGLE_SHEET_URL). Batch
statistics can be written as a Prometheus textfile (--metrics-file).

Optional environment variables:
  BATCH_WORKERS - Number of parallel workers (default: 8)
  OCR_TIMEOUT_SECONDS - Timeout per document (default: 300)
  GOOGLE_SHEET_URL, GOOGLE_SHEET_WORKSHEET - Google Sheet export target`,
	Example: `  # Extract a folder of transcripts into a workbook
  facturas batch ./transcripts --xlsx facturas.xlsx

  # Scan PDFs with Document AI and append them to the Google Sheet
  facturas batch ./facturas --source documentai --sheet

  # Write JSON and node_exporter metrics
  facturas batch ./facturas --json results.json --metrics-file /var/lib/node_exporter/facturas.prom`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

// WorkerJob represents a document processing job
type WorkerJob struct {
	FilePath string
	Index    int
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().Int("workers", 0, "Number of parallel workers (default: BATCH_WORKERS)")
	batchCmd.Flags().String("source", "", "Transcript source for non-text documents: vision, documentai, pdftext")
	batchCmd.Flags().String("xlsx", "", "Write results to this Excel workbook")
	batchCmd.Flags().String("json", "", "Write results to this JSON file")
	batchCmd.Flags().Bool("sheet", false, "Append results to the Google Sheet at GOOGLE_SHEET_URL")
	batchCmd.Flags().String("worksheet", "", "Worksheet name (default: GOOGLE_SHEET_WORKSHEET)")
	batchCmd.Flags().String("metrics-file", "", "Write batch metrics in Prometheus text format to this file")
	batchCmd.Flags().Bool("verbose", false, "Show detailed processing information")
}

func runBatch(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("batch")

	cfg, err := loadedConfig()
	if err != nil {
		return err
	}

	folderPath := args[0]
	numWorkers, _ := cmd.Flags().GetInt("workers")
	sourceKind, _ := cmd.Flags().GetString("source")
	xlsxPath, _ := cmd.Flags().GetString("xlsx")
	jsonPath, _ := cmd.Flags().GetString("json")
	toSheet, _ := cmd.Flags().GetBool("sheet")
	worksheet, _ := cmd.Flags().GetString("worksheet")
	metricsFile, _ := cmd.Flags().GetString("metrics-file")
	verbose, _ := cmd.Flags().GetBool("verbose")

	if numWorkers <= 0 {
		numWorkers = cfg.BatchWorkers
	}
	if sourceKind == "" {
		sourceKind = cfg.TranscriptSource
	}
	if worksheet == "" {
		worksheet = cfg.GoogleSheetWorksheet
	}
	if toSheet && cfg.GoogleSheetURL == "" {
		return fmt.Errorf("GOOGLE_SHEET_URL environment variable is required for --sheet")
	}

	folderInfo, err := os.Stat(folderPath)
	if err != nil {
		return fmt.Errorf("folder not found: %s", folderPath)
	}
	if !folderInfo.IsDir() {
		return fmt.Errorf("path is not a directory: %s", folderPath)
	}

	log.Info().
		Str("folder", folderPath).
		Str("source", sourceKind).
		Int("workers", numWorkers).
		Bool("sheet", toSheet).
		Msg("Starting batch processing")

	files, err := findDocuments(folderPath)
	if err != nil {
		return fmt.Errorf("failed to find documents: %w", err)
	}

	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("                         FACTURAS BATCH")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Carpeta: %s\n", folderPath)
	fmt.Printf("Fuente: %s\n", sourceKind)

	if len(files) == 0 {
		fmt.Println("No se encontraron documentos en la carpeta.")
		return nil
	}

	ctx, cancel := createContextWithTimeout(cfg.OCRTimeout*time.Duration(len(files)), log)
	defer cancel()

	extractor, err := loadExtractor(cmd)
	if err != nil {
		return err
	}

	var source ocr.TranscriptSource
	if needsTranscriptSource(files) {
		source, err = openTranscriptSource(ctx, sourceKind, cfg, log)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := source.Close(); closeErr != nil {
				log.Warn().Err(closeErr).Msg("Failed to close transcript source")
			}
		}()
	}

	batchMetrics := metrics.NewBatchMetrics(sourceKind)
	processor := services.NewProcessor(extractor, source, batchMetrics)

	fmt.Printf("Procesando %d documentos con %d workers en paralelo...\n\n", len(files), numWorkers)

	results := processDocumentsInParallel(ctx, files, processor, numWorkers, cfg.OCRTimeout, os.Stdout, log, verbose)

	counts := countStatuses(results)
	fmt.Println()
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println("                 RESULTADO")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("Correctos: %d\n", counts[statusSuccess])
	if counts[statusWarning] > 0 {
		fmt.Printf("Con advertencias: %d\n", counts[statusWarning])
	}
	if counts[statusError] > 0 {
		fmt.Printf("Errores: %d\n", counts[statusError])
	}
	fmt.Println()

	if err := exportResults(results, xlsxPath, jsonPath, log); err != nil {
		return err
	}

	if toSheet {
		fmt.Println("Escribiendo resultados en Google Sheet...")

		sheetsService, err := sheets.NewSheetsService(ctx, cfg.GoogleSheetURL)
		if err != nil {
			return fmt.Errorf("failed to create Google Sheets service: %w", err)
		}
		if err := sheetsService.WriteResults(ctx, results, worksheet); err != nil {
			return fmt.Errorf("failed to write to Google Sheet: %w", err)
		}

		fmt.Printf("Hoja: %s\n", worksheet)
		fmt.Printf("Filas agregadas: %d\n", len(results))
		fmt.Printf("URL: %s\n", cfg.GoogleSheetURL)
	}

	if metricsFile != "" {
		if err := batchMetrics.WriteTextfile(metricsFile); err != nil {
			return fmt.Errorf("failed to write metrics file: %w", err)
		}
		log.Info().Str("metrics_file", metricsFile).Msg("Batch metrics written")
	}

	fmt.Println(strings.Repeat("=", 80))

	log.Info().
		Int("total", len(files)).
		Int("success", counts[statusSuccess]).
		Int("warnings", counts[statusWarning]).
		Int("errors", counts[statusError]).
		Msg("Batch processing completed")

	return nil
}

// exportResults writes the optional workbook and JSON outputs.
func exportResults(results []*models.ProcessedDocument, xlsxPath, jsonPath string, log zerolog.Logger) error {
	if xlsxPath != "" {
		f, err := os.Create(xlsxPath)
		if err != nil {
			return fmt.Errorf("failed to create workbook: %w", err)
		}
		if err := export.WriteXLSX(f, results); err != nil {
			_ = f.Close()
			return fmt.Errorf("failed to write workbook: %w", err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to close workbook: %w", err)
		}
		log.Info().Str("xlsx", xlsxPath).Int("rows", len(results)).Msg("Workbook written")
		fmt.Printf("Excel: %s\n", xlsxPath)
	}

	if jsonPath != "" {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to create JSON output: %w", err)
		}
		if err := writeOutput(jsonPath, append(data, '\n'), log); err != nil {
			return err
		}
		fmt.Printf("JSON: %s\n", jsonPath)
	}

	return nil
}

// findDocuments finds every transcript, PDF and image in the folder, in lexical order
func findDocuments(folderPath string) ([]string, error) {
	var files []string

	err := filepath.Walk(folderPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if services.IsTranscript(path) {
			files = append(files, path)
			return nil
		}
		if _, ok := ocr.MimeTypeFor(path); ok {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}

func needsTranscriptSource(files []string) bool {
	for _, f := range files {
		if !services.IsTranscript(f) {
			return true
		}
	}
	return false
}

// processDocumentsInParallel processes documents using a worker pool pattern.
// Results keep the order of files.
func processDocumentsInParallel(ctx context.Context, files []string, processor services.DocumentService, numWorkers int, perDocument time.Duration, out io.Writer, log zerolog.Logger, verbose bool) []*models.ProcessedDocument {
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	jobs := make(chan WorkerJob, len(files))
	results := make([]*models.ProcessedDocument, len(files))

	var processedCount int
	var mu sync.Mutex

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			for job := range jobs {
				log.Debug().
					Int("worker", workerID).
					Str("file", job.FilePath).
					Int("index", job.Index+1).
					Msg("Worker processing document")

				docCtx, cancel := context.WithTimeout(ctx, perDocument)
				doc := processor.ProcessFile(docCtx, job.FilePath)
				cancel()

				results[job.Index] = doc

				mu.Lock()
				processedCount++
				fmt.Fprintf(out, "[%d/%d] %s - %s", processedCount, len(files), doc.File, getStatusEmoji(documentStatus(doc)))
				switch {
				case doc.Failed():
					fmt.Fprintf(out, " (%s)", doc.Error)
				case doc.Invoice.TotalAmount.Valid:
					fmt.Fprintf(out, " (%s, %s)", doc.Invoice.Title(), money(doc.Invoice.TotalAmount.Decimal))
				default:
					fmt.Fprintf(out, " (%s)", doc.Invoice.Title())
				}
				fmt.Fprintln(out)
				mu.Unlock()

				if verbose && !doc.Failed() {
					log.Info().
						Str("file", doc.File).
						Str("invoice", doc.Invoice.Title()).
						Strs("missing", doc.Missing).
						Strs("warnings", doc.Warnings).
						Msg("Document processed")
				}
			}
		}(w)
	}

	for i, f := range files {
		jobs <- WorkerJob{FilePath: f, Index: i}
	}
	close(jobs)

	wg.Wait()

	return results
}

const (
	statusSuccess = "success"
	statusWarning = "warning"
	statusError   = "error"
)

// documentStatus is "error" without an invoice, "warning" with consistency warnings.
func documentStatus(doc *models.ProcessedDocument) string {
	switch {
	case doc.Failed():
		return statusError
	case len(doc.Warnings) > 0:
		return statusWarning
	default:
		return statusSuccess
	}
}

func countStatuses(results []*models.ProcessedDocument) map[string]int {
	counts := make(map[string]int)
	for _, doc := range results {
		counts[documentStatus(doc)]++
	}
	return counts
}

// getStatusEmoji returns an emoji for the processing status
func getStatusEmoji(status string) string {
	switch status {
	case statusSuccess:
		return "✅"
	case statusWarning:
		return "⚠️"
	case statusError:
		return "❌"
	default:
		return "❓"
	}
}
