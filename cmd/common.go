package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"facturas/internal/config"
	"facturas/internal/invoice"
	"facturas/internal/ocr"
	"facturas/pkg/models"
)

// createContextWithTimeout creates a context with timeout and signal handling
func createContextWithTimeout(timeout time.Duration, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling processing")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// openTranscriptSource creates the configured source, checking credentials for the cloud ones.
func openTranscriptSource(ctx context.Context, kind string, cfg *config.Config, log zerolog.Logger) (ocr.TranscriptSource, error) {
	if kind == "" {
		kind = cfg.TranscriptSource
	}
	kind = strings.ToLower(kind)

	if kind == ocr.SourceVision || kind == ocr.SourceDocumentAI {
		hasCredentials := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "" || os.Getenv("GOOGLE_CREDENTIALS") != ""
		if !hasCredentials {
			log.Error().Str("source", kind).Msg("Google Cloud credentials not configured")
			return nil, fmt.Errorf("Google Cloud credentials not configured. Please set one of:\n\n" +
				"1. Export GOOGLE_APPLICATION_CREDENTIALS with path to service account JSON:\n" +
				"   export GOOGLE_APPLICATION_CREDENTIALS=/path/to/service-account-key.json\n\n" +
				"2. Export GOOGLE_CREDENTIALS with inline JSON\n\n" +
				"3. Or use --source pdftext for PDFs that carry a text layer")
		}
	}

	source, err := ocr.NewSource(ctx, kind, cfg.GetDocumentAIConfig())
	if err != nil {
		log.Error().Err(err).Str("source", kind).Msg("Failed to create transcript source")
		return nil, describeError(err)
	}

	log.Debug().Str("source", kind).Msg("Transcript source created")
	return source, nil
}

// describeError turns transcription and extraction failures into actionable messages.
func describeError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("processing timed out. Try increasing --timeout or OCR_TIMEOUT_SECONDS")
	case errors.Is(err, context.Canceled), errors.Is(err, ocr.ErrContextCanceled):
		return fmt.Errorf("processing was canceled")
	case errors.Is(err, ocr.ErrFileTooLarge):
		return fmt.Errorf("document is too large (maximum %d MB). Try compressing or splitting the file", ocr.MaxFileSizeBytes>>20)
	case errors.Is(err, ocr.ErrTooManyPages):
		return fmt.Errorf("document has too many pages (maximum %d). Try splitting it", ocr.MaxPagesSync)
	case errors.Is(err, ocr.ErrInvalidPDF):
		return fmt.Errorf("invalid or corrupted PDF file. Please check the file integrity")
	case errors.Is(err, ocr.ErrUnsupportedFormat):
		return fmt.Errorf("unsupported document format. Use .txt transcripts, PDFs or images")
	case errors.Is(err, ocr.ErrEmptyDocument):
		return fmt.Errorf("no readable text found in the document. A scanned PDF needs --source vision or documentai")
	case errors.Is(err, ocr.ErrMissingCredentials), errors.Is(err, ocr.ErrInvalidCredentials):
		return fmt.Errorf("Google Cloud authentication failed. Check GOOGLE_APPLICATION_CREDENTIALS: %w", err)
	case errors.Is(err, ocr.ErrQuotaExceeded):
		return fmt.Errorf("Google Cloud quota exceeded. Check your project quotas in the Google Cloud Console")
	case errors.Is(err, ocr.ErrInvalidConfiguration):
		return fmt.Errorf("transcript source is misconfigured: %w", err)
	case errors.Is(err, invoice.ErrExtractionAborted):
		return fmt.Errorf("the transcript is empty, nothing to extract")
	default:
		return err
	}
}

// writeOutput writes data to path, or to stdout when path is empty or "-".
func writeOutput(path string, data []byte, log zerolog.Logger) error {
	if path == "" || path == "-" {
		if _, err := os.Stdout.Write(data); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Error().Err(err).Str("output_file", path).Msg("Failed to write output file")
		return fmt.Errorf("failed to write output file: %w", err)
	}
	log.Info().Str("output_file", path).Int("bytes", len(data)).Msg("Output written to file")
	return nil
}

var printer = message.NewPrinter(language.MustParse("es-AR"))

// money formats an amount the way it is printed on Argentine invoices.
func money(d decimal.Decimal) string {
	return printer.Sprintf("$ %.2f", d.InexactFloat64())
}

func nullMoney(d decimal.NullDecimal) string {
	if !d.Valid {
		return "-"
	}
	return money(d.Decimal)
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

// printInvoice writes a human readable summary of a processed document.
func printInvoice(w io.Writer, doc *models.ProcessedDocument) {
	fmt.Fprintln(w, strings.Repeat("=", 60))
	if doc.Failed() {
		fmt.Fprintf(w, "%s: %s\n", doc.File, doc.Error)
		fmt.Fprintln(w, strings.Repeat("=", 60))
		return
	}

	inv := doc.Invoice
	fmt.Fprintf(w, "%s\n", inv.Title())
	fmt.Fprintln(w, strings.Repeat("=", 60))
	if doc.File != "" {
		fmt.Fprintf(w, "Archivo:            %s (%s)\n", doc.File, doc.Source)
	}
	fmt.Fprintf(w, "Fecha:              %s\n", orDash(inv.IssueDate))
	copyType := "-"
	if inv.CopyType != nil {
		copyType = string(*inv.CopyType)
	}
	fmt.Fprintf(w, "Copia:              %s\n", copyType)
	fmt.Fprintf(w, "Emisor:             %s (CUIT %s)\n", orDash(inv.IssuerLegalName), orDash(inv.IssuerTaxID))
	fmt.Fprintf(w, "Receptor:           %s (CUIT %s)\n", orDash(inv.BuyerLegalName), orDash(inv.BuyerTaxID))
	fmt.Fprintf(w, "Condición de venta: %s\n", orDash(inv.SaleCondition))
	fmt.Fprintf(w, "Condición IVA:      %s\n", orDash(inv.VATCondition))
	fmt.Fprintln(w)

	if len(inv.LineItems) > 0 {
		fmt.Fprintln(w, "Ítems:")
		for _, item := range inv.LineItems {
			unit := ""
			if item.UnitOfMeasure != nil {
				unit = " " + *item.UnitOfMeasure
			}
			fmt.Fprintf(w, "  %s%s x %s @ %s = %s\n",
				item.Quantity.String(), unit, item.Description, money(item.UnitPrice), money(item.Subtotal))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Subtotal:           %s\n", nullMoney(inv.Subtotal))
	fmt.Fprintf(w, "IVA:                %s\n", nullMoney(inv.VATAmount))
	fmt.Fprintf(w, "Percepción IIBB:    %s\n", nullMoney(inv.GrossIncomePerception))
	fmt.Fprintf(w, "Otros tributos:     %s\n", nullMoney(inv.OtherTaxes))
	fmt.Fprintf(w, "Total:              %s\n", nullMoney(inv.TotalAmount))

	if len(doc.Missing) > 0 {
		fmt.Fprintf(w, "\nNo encontrados: %s\n", strings.Join(doc.Missing, ", "))
	}
	for _, warning := range doc.Warnings {
		fmt.Fprintf(w, "⚠️  %s\n", warning)
	}
	fmt.Fprintln(w, strings.Repeat("=", 60))
}
