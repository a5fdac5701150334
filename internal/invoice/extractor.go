package invoice

import (
	"strings"

	"github.com/rs/zerolog"

	"facturas/internal/logger"
	"facturas/pkg/models"
)

var _ InvoiceExtractor = (*Extractor)(nil)

// Extractor implements InvoiceExtractor over a compiled pattern table.
type Extractor struct {
	patterns   *Patterns
	classifier *Classifier
	fields     *FieldExtractor
	items      *LineItemParser
	log        zerolog.Logger
}

// NewExtractor creates an extractor. The pattern table must not be modified afterwards.
func NewExtractor(p *Patterns) *Extractor {
	log := logger.WithComponent("extraction")
	return &Extractor{
		patterns:   p,
		classifier: NewClassifier(p),
		fields:     NewFieldExtractor(p, log),
		items:      NewLineItemParser(p),
		log:        log,
	}
}

// NewDefaultExtractor creates an extractor over the embedded default patterns.
func NewDefaultExtractor() (*Extractor, error) {
	p, err := DefaultPatterns()
	if err != nil {
		return nil, err
	}
	return NewExtractor(p), nil
}

// Patterns returns the pattern table the extractor was built with.
func (e *Extractor) Patterns() *Patterns {
	return e.patterns
}

// Extract builds a structured invoice from an OCR transcript.
func (e *Extractor) Extract(transcript string) (*models.ExtractedInvoice, error) {
	inv, _, err := e.ExtractWithReport(transcript)
	return inv, err
}

// ExtractWithReport builds a structured invoice and reports how each part was found.
func (e *Extractor) ExtractWithReport(transcript string) (*models.ExtractedInvoice, *Report, error) {
	const op = "ExtractWithReport"

	if strings.TrimSpace(transcript) == "" {
		return nil, nil, NewExtractionError(op, ErrExtractionAborted, "no text to extract from")
	}

	text := CleanTranscript(transcript)
	rep := &Report{Matches: make(map[string]int)}
	inv := &models.ExtractedInvoice{}

	inv.InvoiceType = e.classifier.Classify(text)
	e.fields.Fill(text, inv, rep)
	inv.LineItems, rep.Lines = e.items.Parse(text)
	rep.Warnings = CheckConsistency(inv)

	e.log.Debug().
		Str("invoice_type", string(inv.InvoiceType)).
		Int("fields", len(rep.Matches)).
		Int("line_items", len(inv.LineItems)).
		Int("warnings", len(rep.Warnings)).
		Msg("Transcript extracted")

	return inv, rep, nil
}
