package ocr

import (
	"bytes"
	"context"
	"io"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
)

// PDFTextSource reads the embedded text layer of a digitally generated PDF.
// Scanned PDFs carry no text layer and yield ErrEmptyDocument.
type PDFTextSource struct{}

// NewPDFTextSource creates a text-layer source.
func NewPDFTextSource() *PDFTextSource {
	return &PDFTextSource{}
}

// Transcribe rebuilds the text row by row, words of a row joined by single spaces.
func (s *PDFTextSource) Transcribe(ctx context.Context, r io.Reader, mimeType string) (*OCRResult, error) {
	const op = "Transcribe"
	startTime := time.Now()

	if mimeType != MimePDF {
		return nil, NewOCRError(op, ErrUnsupportedFormat, "text layer needs a PDF, got "+mimeType)
	}
	data, err := readDocument(op, r, mimeType)
	if err != nil {
		return nil, err
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, NewOCRError(op, ErrInvalidPDF, err.Error())
	}

	var text strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, handleOCRError(op, err)
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return nil, NewOCRError(op, ErrInvalidPDF, err.Error())
		}
		for _, row := range rows {
			words := make([]string, 0, len(row.Content))
			for _, word := range row.Content {
				if w := strings.TrimSpace(word.S); w != "" {
					words = append(words, w)
				}
			}
			if len(words) > 0 {
				text.WriteString(strings.Join(words, " "))
				text.WriteByte('\n')
			}
		}
		text.WriteByte('\n')
	}

	if strings.TrimSpace(text.String()) == "" {
		return nil, NewOCRError(op, ErrEmptyDocument, "PDF has no text layer")
	}

	processedAt := time.Now()
	return &OCRResult{
		Text:               strings.TrimSpace(text.String()),
		PageCount:          numPages,
		Source:             SourcePDFText,
		ProcessedAt:        processedAt,
		ProcessingDuration: processedAt.Sub(startTime),
	}, nil
}

// Close is a no-op; the source holds no connection.
func (s *PDFTextSource) Close() error {
	return nil
}
