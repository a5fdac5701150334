package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"facturas/internal/logger"
	"facturas/internal/ocr"
	"facturas/pkg/services"
)

var scanCmd = &cobra.Command{
	Use:   "scan [document]",
	Short: "Transcribe a PDF or image invoice and extract it",
	Long: `Transcribe an invoice document and extract a structured invoice from the text.

Transcript sources:
  vision      Google Cloud Vision document text detection (default)
  documentai  Google Document AI OCR processor
  pdftext     Embedded text layer of digitally generated PDFs, no cloud calls

Cloud sources support PDFs up to 5 pages and 20MB, and JPEG, PNG, GIF,
TIFF and WEBP images.

Required environment variables for cloud sources:
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string
  GOOGLE_CLOUD_PROJECT, DOCUMENT_AI_PROCESSOR_ID - for documentai only`,
	Example: `  # Scan an invoice photo with Cloud Vision
  facturas scan ticket.jpg

  # Read a digital PDF without cloud calls and keep the transcript
  facturas scan factura.pdf --source pdftext --transcript-out factura.txt

  # Human readable summary with a longer timeout
  facturas scan factura.pdf --text --timeout 600`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	scanCmd.Flags().String("source", "", "Transcript source: vision, documentai, pdftext (default: TRANSCRIPT_SOURCE)")
	scanCmd.Flags().String("transcript-out", "", "Also write the transcript to this file")
	scanCmd.Flags().Int("timeout", 0, "Processing timeout in seconds (default: OCR_TIMEOUT_SECONDS)")
	scanCmd.Flags().Bool("text", false, "Print a human readable summary instead of JSON")
}

func runScan(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("scan")

	cfg, err := loadedConfig()
	if err != nil {
		return err
	}

	outputPath, _ := cmd.Flags().GetString("output")
	sourceKind, _ := cmd.Flags().GetString("source")
	transcriptOut, _ := cmd.Flags().GetString("transcript-out")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")
	textOutput, _ := cmd.Flags().GetBool("text")

	docPath := args[0]
	timeout := cfg.OCRTimeout
	if timeoutSecs > 0 {
		timeout = time.Duration(timeoutSecs) * time.Second
	}

	log.Info().
		Str("file", docPath).
		Str("source", sourceKind).
		Dur("timeout", timeout).
		Msg("Starting document scan")

	if _, err := validateDocumentFile(docPath, log); err != nil {
		return err
	}

	extractor, err := loadExtractor(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := createContextWithTimeout(timeout, log)
	defer cancel()

	var source ocr.TranscriptSource
	if !services.IsTranscript(docPath) {
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

	processor := services.NewProcessor(extractor, source, nil)

	startTime := time.Now()
	transcript, usedSource, err := processor.Transcribe(ctx, docPath)
	if err != nil {
		log.Error().Err(err).Msg("Transcription failed")
		return describeError(err)
	}

	log.Info().
		Str("source", usedSource).
		Int("text_length", len(transcript)).
		Dur("duration", time.Since(startTime)).
		Msg("Transcription completed")

	if transcriptOut != "" {
		if err := writeOutput(transcriptOut, []byte(transcript), log); err != nil {
			return err
		}
	}

	doc := processor.ProcessTranscript(filepath.Base(docPath), usedSource, transcript)
	if doc.Failed() {
		return fmt.Errorf("%s: %s", doc.File, doc.Error)
	}

	if textOutput {
		var sb strings.Builder
		printInvoice(&sb, doc)
		return writeOutput(outputPath, []byte(sb.String()), log)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to create JSON output: %w", err)
	}
	return writeOutput(outputPath, append(data, '\n'), log)
}

// validateDocumentFile checks that the file exists, is a regular file, and fits the size limit
func validateDocumentFile(path string, log zerolog.Logger) (os.FileInfo, error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Error().Str("file", path).Msg("Document not found")
			return nil, fmt.Errorf("document not found: %s", path)
		}
		if os.IsPermission(err) {
			log.Error().Str("file", path).Msg("Permission denied accessing document")
			return nil, fmt.Errorf("permission denied accessing document: %s", path)
		}
		return nil, fmt.Errorf("error accessing document: %w", err)
	}

	if !fileInfo.Mode().IsRegular() {
		return nil, fmt.Errorf("path is not a regular file: %s", path)
	}

	if fileInfo.Size() == 0 {
		return nil, fmt.Errorf("document is empty: %s", path)
	}

	if fileInfo.Size() > ocr.MaxFileSizeBytes {
		log.Error().
			Str("file", path).
			Int64("size", fileInfo.Size()).
			Int64("max_size", ocr.MaxFileSizeBytes).
			Msg("Document exceeds maximum size limit")
		return nil, fmt.Errorf("document too large (%d bytes). Maximum size is %d bytes (20MB)",
			fileInfo.Size(), ocr.MaxFileSizeBytes)
	}

	return fileInfo, nil
}
