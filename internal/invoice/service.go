// Package invoice turns the plain-text OCR transcript of an Argentine (AFIP)
// invoice into a structured models.ExtractedInvoice.
//
// Extraction is a pure function of the transcript and a pattern table:
//   - every field is located by a cascade of regular expressions, tried in order,
//     first match wins (see patterns.yaml for the defaults);
//   - monetary figures go through Normalize, which resolves "1.234,56" vs "1,234.56";
//   - the fiscal type (A, B, C) comes from the header lines, then from keywords;
//   - line items are rebuilt row by row from a single structured row pattern.
//
// Pattern tables are YAML and can be replaced without rebuilding:
//
//	p, err := invoice.LoadPatterns("my-patterns.yaml")
//	ex := invoice.NewExtractor(p)
//
// A missing field is reported as absent (nil pointer or invalid NullDecimal),
// never as an error. The only error an extraction returns is ErrExtractionAborted,
// for an empty or whitespace-only transcript.
//
// An Extractor holds no mutable state and may be shared by many goroutines.
package invoice

import (
	"facturas/pkg/models"
)

// InvoiceExtractor defines the interface for transcript extraction.
type InvoiceExtractor interface {
	// Extract builds a structured invoice from an OCR transcript.
	Extract(transcript string) (*models.ExtractedInvoice, error)

	// ExtractWithReport also returns which variant matched each field, the fields whose
	// amounts failed to parse, line statistics and consistency warnings.
	ExtractWithReport(transcript string) (*models.ExtractedInvoice, *Report, error)
}

// Report describes how an extraction went.
type Report struct {
	// Matches maps each found field to the index of the cascade variant that matched.
	Matches map[string]int `json:"matches"`

	// NormalizationFailures lists monetary fields that matched but did not parse and were recorded as zero.
	NormalizationFailures []string `json:"normalization_failures,omitempty"`

	// Lines summarizes line-item parsing.
	Lines LineStats `json:"lines"`

	// Warnings are consistency findings; see CheckConsistency.
	Warnings []string `json:"warnings,omitempty"`
}

// Missing returns the recognized fields that were not found, sorted by field name.
func (r *Report) Missing(p *Patterns) []string {
	var missing []string
	for _, field := range p.Fields() {
		if field == FieldPointOfSale || field == FieldInvoiceNumber {
			if _, ok := r.Matches[FieldPointOfSaleAndNumber]; ok {
				continue
			}
		}
		if field == FieldPointOfSaleAndNumber {
			continue
		}
		if _, ok := r.Matches[field]; !ok {
			missing = append(missing, field)
		}
	}
	return missing
}
