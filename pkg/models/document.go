package models

// ProcessedDocument is the outcome of running one file through transcription and extraction.
type ProcessedDocument struct {
	File     string            `json:"file"`
	Source   string            `json:"source"` // transcript source, "text" for plain transcripts
	Invoice  *ExtractedInvoice `json:"invoice,omitempty"`
	Missing  []string          `json:"missing_fields,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// Failed reports whether the document produced no invoice.
func (d *ProcessedDocument) Failed() bool {
	return d.Invoice == nil
}
