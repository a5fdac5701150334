// Package ocr turns scanned or photographed invoices into plain-text transcripts.
//
// Three sources implement TranscriptSource:
//   - GoogleVisionOCRService: Google Cloud Vision document text detection,
//     PDFs (up to 5 pages) and images (PNG, JPEG, TIFF, GIF, WebP);
//   - DocumentAIOCRService: a Google Document AI OCR processor;
//   - PDFTextSource: the embedded text layer of digitally generated PDFs,
//     read locally with no network access.
//
// Cloud sources read their credentials from the environment:
//   - GOOGLE_APPLICATION_CREDENTIALS: Path to service account JSON file, OR
//   - GOOGLE_CREDENTIALS: Inline JSON credentials string
//   - GOOGLE_CLOUD_PROJECT: Google Cloud project ID (Document AI)
//
// Documents are sent inline (no Cloud Storage upload) and are limited to 20MB.
package ocr

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
)

const (
	// MaxFileSizeBytes is the maximum file size for synchronous processing (20MB)
	MaxFileSizeBytes = 20 * 1024 * 1024

	// MaxPagesSync is the maximum number of pages for synchronous processing
	MaxPagesSync = 5
)

// Supported MIME types.
const (
	MimePDF  = "application/pdf"
	MimePNG  = "image/png"
	MimeJPEG = "image/jpeg"
	MimeTIFF = "image/tiff"
	MimeGIF  = "image/gif"
	MimeWebP = "image/webp"
	MimeText = "text/plain"
)

// Source names accepted by NewSource.
const (
	SourceVision     = "vision"
	SourceDocumentAI = "documentai"
	SourcePDFText    = "pdftext"
)

// TranscriptSource produces a plain-text transcript from a document.
type TranscriptSource interface {
	// Transcribe reads a whole document and returns its text with metadata.
	Transcribe(ctx context.Context, r io.Reader, mimeType string) (*OCRResult, error)

	// Close releases the client connection, if any.
	Close() error
}

// OCRResult contains the results of OCR processing with metadata.
type OCRResult struct {
	// Text is the extracted text content from all pages, concatenated in reading order.
	Text string `json:"text"`

	// PageCount is the number of pages that were processed.
	PageCount int `json:"page_count"`

	// Confidence is the average confidence score across all detected text (0.0 to 1.0).
	// Zero when the source reports none.
	Confidence float32 `json:"confidence"`

	// Source names the TranscriptSource that produced the text.
	Source string `json:"source"`

	// ProcessedAt is the timestamp when the OCR processing completed.
	ProcessedAt time.Time `json:"processed_at"`

	// LanguageCodes contains the detected languages in the document.
	LanguageCodes []string `json:"language_codes,omitempty"`

	// ProcessingDuration is how long the OCR processing took.
	ProcessingDuration time.Duration `json:"processing_duration"`
}

var extensionMimeTypes = map[string]string{
	".pdf":  MimePDF,
	".png":  MimePNG,
	".jpg":  MimeJPEG,
	".jpeg": MimeJPEG,
	".tif":  MimeTIFF,
	".tiff": MimeTIFF,
	".gif":  MimeGIF,
	".webp": MimeWebP,
	".txt":  MimeText,
}

// MimeTypeFor returns the MIME type of a document from its file extension.
func MimeTypeFor(path string) (string, bool) {
	mt, ok := extensionMimeTypes[strings.ToLower(filepath.Ext(path))]
	return mt, ok
}

// IsImage reports whether mimeType is an image format Vision accepts.
func IsImage(mimeType string) bool {
	return strings.HasPrefix(mimeType, "image/")
}

// readDocument reads a document fully and validates its size and, for PDFs, its header.
func readDocument(op string, r io.Reader, mimeType string) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxFileSizeBytes+1))
	if err != nil {
		return nil, WrapOCRError(op, err, "failed to read document")
	}
	if len(data) > MaxFileSizeBytes {
		return nil, WrapOCRError(op, ErrFileTooLarge, fmt.Sprintf("more than %d bytes", MaxFileSizeBytes))
	}
	if len(data) == 0 {
		return nil, WrapOCRError(op, ErrEmptyDocument, "zero bytes")
	}

	switch {
	case mimeType == MimePDF:
		if len(data) < 4 || string(data[:4]) != "%PDF" {
			return nil, WrapOCRError(op, ErrInvalidPDF, "missing PDF header")
		}
	case IsImage(mimeType):
	default:
		return nil, WrapOCRError(op, ErrUnsupportedFormat, mimeType)
	}
	return data, nil
}

// NewSource creates the transcript source named by kind.
func NewSource(ctx context.Context, kind string, cfg DocumentAIConfig) (TranscriptSource, error) {
	const op = "NewSource"

	switch strings.ToLower(kind) {
	case SourceVision, "":
		src, err := NewGoogleVisionOCRService(ctx)
		if err != nil {
			return nil, err
		}
		return src, nil
	case SourceDocumentAI:
		src, err := NewDocumentAIOCRService(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return src, nil
	case SourcePDFText:
		return NewPDFTextSource(), nil
	default:
		return nil, NewOCRError(op, ErrUnsupportedSource, kind)
	}
}
