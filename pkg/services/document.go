package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"facturas/internal/invoice"
	"facturas/internal/logger"
	"facturas/internal/metrics"
	"facturas/internal/ocr"
	"facturas/pkg/models"
)

// SourceText marks documents read as plain-text transcripts.
const SourceText = "text"

// ErrNoTranscriptSource is returned for a non-text document when no TranscriptSource is configured.
var ErrNoTranscriptSource = errors.New("no transcript source configured")

// DocumentService defines the interface for turning files into structured invoices
type DocumentService interface {
	// Transcribe returns the plain-text transcript of a file and the source that produced it.
	Transcribe(ctx context.Context, path string) (string, string, error)

	// ProcessTranscript extracts an invoice from an already available transcript.
	ProcessTranscript(name, source, transcript string) *models.ProcessedDocument

	// ProcessFile transcribes and extracts a single file. Failures are recorded on the result.
	ProcessFile(ctx context.Context, path string) *models.ProcessedDocument
}

// Processor implements DocumentService. The transcript source and the metrics are optional.
type Processor struct {
	extractor *invoice.Extractor
	source    ocr.TranscriptSource
	metrics   *metrics.BatchMetrics
	log       zerolog.Logger
}

var _ DocumentService = (*Processor)(nil)

// NewProcessor creates a document processor.
func NewProcessor(extractor *invoice.Extractor, source ocr.TranscriptSource, m *metrics.BatchMetrics) *Processor {
	return &Processor{
		extractor: extractor,
		source:    source,
		metrics:   m,
		log:       logger.WithComponent("processor"),
	}
}

// IsTranscript reports whether path is read as a plain-text transcript.
func IsTranscript(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".txt")
}

// Transcribe reads .txt files as they are and sends anything else to the transcript source.
func (p *Processor) Transcribe(ctx context.Context, path string) (string, string, error) {
	if IsTranscript(path) {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", SourceText, fmt.Errorf("failed to read transcript: %w", err)
		}
		return string(data), SourceText, nil
	}

	mimeType, ok := ocr.MimeTypeFor(path)
	if !ok {
		return "", "", fmt.Errorf("%s: %w", filepath.Ext(path), ocr.ErrUnsupportedFormat)
	}
	if p.source == nil {
		return "", "", ErrNoTranscriptSource
	}

	f, err := os.Open(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to open document: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			p.log.Warn().Err(closeErr).Str("file", path).Msg("Failed to close document")
		}
	}()

	result, err := p.source.Transcribe(ctx, f, mimeType)
	if err != nil {
		return "", "", err
	}
	return result.Text, result.Source, nil
}

// ProcessTranscript extracts an invoice from transcript and records missing fields and warnings.
func (p *Processor) ProcessTranscript(name, source, transcript string) *models.ProcessedDocument {
	doc := &models.ProcessedDocument{File: name, Source: source}

	start := time.Now()
	inv, rep, err := p.extractor.ExtractWithReport(transcript)
	p.observeStage(metrics.StageExtract, time.Since(start))
	if err != nil {
		doc.Error = err.Error()
		return doc
	}

	doc.Invoice = inv
	doc.Missing = rep.Missing(p.extractor.Patterns())
	doc.Warnings = rep.Warnings

	if p.metrics != nil {
		p.metrics.ObserveInvoice(string(inv.InvoiceType), doc.Missing, len(doc.Warnings), len(inv.LineItems))
	}
	return doc
}

// ProcessFile runs one file through transcription and extraction.
func (p *Processor) ProcessFile(ctx context.Context, path string) *models.ProcessedDocument {
	log := logger.WithFile("processor", path)
	name := filepath.Base(path)

	if p.metrics != nil {
		p.metrics.StartDocument()
	}

	start := time.Now()
	text, source, err := p.Transcribe(ctx, path)
	p.observeStage(metrics.StageTranscribe, time.Since(start))

	var doc *models.ProcessedDocument
	if err != nil {
		log.Error().Err(err).Msg("Transcription failed")
		if source == "" {
			source = "none"
		}
		doc = &models.ProcessedDocument{File: name, Source: source, Error: err.Error()}
	} else {
		doc = p.ProcessTranscript(name, source, text)
	}

	if p.metrics != nil {
		var failure error
		if doc.Failed() {
			failure = errors.New(doc.Error)
		}
		p.metrics.FinishDocument(doc.Source, failure)
	}

	log.Debug().
		Str("source", doc.Source).
		Bool("failed", doc.Failed()).
		Int("missing", len(doc.Missing)).
		Int("warnings", len(doc.Warnings)).
		Msg("Document processed")
	return doc
}

func (p *Processor) observeStage(stage string, d time.Duration) {
	if p.metrics != nil {
		p.metrics.ObserveStage(stage, d)
	}
}
