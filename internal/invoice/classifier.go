package invoice

import (
	"strings"

	"facturas/pkg/models"
)

// headerLines is how many leading lines may carry the printed type marker.
const headerLines = 3

// Classifier determines the fiscal category (A, B, C) of a transcript.
type Classifier struct {
	patterns *Patterns
}

// NewClassifier creates a classifier over a compiled pattern table.
func NewClassifier(p *Patterns) *Classifier {
	return &Classifier{patterns: p}
}

// Classify inspects the header lines first and falls back to a keyword scan.
// It returns InvoiceTypeUnknown when neither stage finds a signal.
func (c *Classifier) Classify(text string) models.InvoiceType {
	if t, ok := c.fromHeader(text); ok {
		return t
	}
	if t, ok := c.fromKeywords(text); ok {
		return t
	}
	return models.InvoiceTypeUnknown
}

func (c *Classifier) fromHeader(text string) (models.InvoiceType, bool) {
	lines := splitLines(text)
	if len(lines) > headerLines {
		lines = lines[:headerLines]
	}
	for _, line := range lines {
		for _, re := range c.patterns.header {
			m := re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			t := models.InvoiceType(strings.ToUpper(strings.TrimSpace(m[1])))
			if t.Valid() && t != models.InvoiceTypeUnknown {
				return t, true
			}
		}
	}
	return "", false
}

func (c *Classifier) fromKeywords(text string) (models.InvoiceType, bool) {
	folded := fold(text)
	for _, t := range classifierOrder {
		for _, re := range c.patterns.keywords[t] {
			if re.MatchString(folded) {
				return t, true
			}
		}
	}
	return "", false
}
