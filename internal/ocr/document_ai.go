package ocr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"facturas/internal/logger"
)

// DocumentAIConfig selects the Document AI OCR processor.
type DocumentAIConfig struct {
	ProjectID        string
	Location         string // "us", "eu", or a region
	ProcessorID      string
	ProcessorVersion string // optional
	Timeout          time.Duration
}

// ProcessorName returns the full resource name of the configured processor (or version).
func (c DocumentAIConfig) ProcessorName() string {
	name := fmt.Sprintf("projects/%s/locations/%s/processors/%s", c.ProjectID, c.location(), c.ProcessorID)
	if c.ProcessorVersion != "" {
		name += "/processorVersions/" + c.ProcessorVersion
	}
	return name
}

// Endpoint returns the regional API endpoint, or "" for the default "us" endpoint.
func (c DocumentAIConfig) Endpoint() string {
	if loc := c.location(); loc != "us" {
		return fmt.Sprintf("%s-documentai.googleapis.com:443", loc)
	}
	return ""
}

func (c DocumentAIConfig) location() string {
	if c.Location == "" {
		return "us"
	}
	return c.Location
}

// Validate checks that the processor can be addressed.
func (c DocumentAIConfig) Validate() error {
	const op = "DocumentAIConfig.Validate"

	if c.ProjectID == "" {
		return NewOCRError(op, ErrInvalidConfiguration, "GOOGLE_CLOUD_PROJECT is required")
	}
	if c.ProcessorID == "" {
		return NewOCRError(op, ErrInvalidConfiguration, "DOCUMENT_AI_PROCESSOR_ID is required")
	}
	return nil
}

// DocumentAIOCRService implements TranscriptSource with a Document AI OCR processor.
type DocumentAIOCRService struct {
	client *documentai.DocumentProcessorClient
	config DocumentAIConfig
	log    zerolog.Logger
}

// NewDocumentAIOCRService creates a Document AI client for the configured location.
// Credentials come from GOOGLE_CREDENTIALS or GOOGLE_APPLICATION_CREDENTIALS.
func NewDocumentAIOCRService(ctx context.Context, config DocumentAIConfig) (*DocumentAIOCRService, error) {
	const op = "NewDocumentAIOCRService"

	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}

	var clientOptions []option.ClientOption
	if endpoint := config.Endpoint(); endpoint != "" {
		clientOptions = append(clientOptions, option.WithEndpoint(endpoint))
	}
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		clientOptions = append(clientOptions, option.WithCredentialsJSON([]byte(credJSON)))
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		clientOptions = append(clientOptions, option.WithCredentialsFile(credFile))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, clientOptions...)
	if err != nil {
		if len(clientOptions) == 0 {
			return nil, WrapOCRError(op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, WrapOCRError(op, err, fmt.Sprintf("failed to create Document AI client for location: %s", config.location()))
	}

	return &DocumentAIOCRService{
		client: client,
		config: config,
		log:    logger.WithComponent("document-ai"),
	}, nil
}

// Transcribe sends the document to the OCR processor and returns Document.Text.
func (p *DocumentAIOCRService) Transcribe(ctx context.Context, r io.Reader, mimeType string) (*OCRResult, error) {
	const op = "Transcribe"
	startTime := time.Now()

	data, err := readDocument(op, r, mimeType)
	if err != nil {
		return nil, err
	}

	processCtx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	resp, err := p.client.ProcessDocument(processCtx, &documentaipb.ProcessRequest{
		Name: p.config.ProcessorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  data,
				MimeType: mimeType,
			},
		},
	})
	if err != nil {
		return nil, handleOCRError(op, err)
	}
	if resp.Document == nil {
		return nil, WrapOCRError(op, ErrOCRFailed, "no document in response")
	}

	result, err := documentText(resp.Document)
	if err != nil {
		return nil, WrapOCRError(op, err, p.config.ProcessorName())
	}
	result.Source = SourceDocumentAI
	result.ProcessedAt = time.Now()
	result.ProcessingDuration = result.ProcessedAt.Sub(startTime)

	p.log.Debug().
		Int("pages", result.PageCount).
		Float32("confidence", result.Confidence).
		Dur("duration", result.ProcessingDuration).
		Msg("Document AI transcript ready")

	return result, nil
}

// documentText reads the transcript and page-level layout confidence from a processed document.
func documentText(doc *documentaipb.Document) (*OCRResult, error) {
	if strings.TrimSpace(doc.Text) == "" {
		return nil, ErrEmptyDocument
	}

	var confidenceSum float32
	var confidenceCount int
	languageSet := make(map[string]bool)
	for _, page := range doc.Pages {
		if page.Layout != nil && page.Layout.Confidence > 0 {
			confidenceSum += page.Layout.Confidence
			confidenceCount++
		}
		for _, lang := range page.DetectedLanguages {
			if lang.LanguageCode != "" {
				languageSet[lang.LanguageCode] = true
			}
		}
	}

	result := &OCRResult{
		Text:      doc.Text,
		PageCount: len(doc.Pages),
	}
	if confidenceCount > 0 {
		result.Confidence = confidenceSum / float32(confidenceCount)
	}
	for lang := range languageSet {
		result.LanguageCodes = append(result.LanguageCodes, lang)
	}
	sort.Strings(result.LanguageCodes)
	return result, nil
}

// handleOCRError maps backend and context failures onto the package sentinels.
func handleOCRError(op string, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return WrapOCRError(op, context.DeadlineExceeded, "processing timeout")
	case errors.Is(err, context.Canceled):
		return WrapOCRError(op, ErrContextCanceled, "processing was canceled")
	}

	switch status.Code(err) {
	case codes.PermissionDenied, codes.Unauthenticated:
		return NewOCRError(op, ErrInvalidCredentials, status.Convert(err).Message())
	case codes.ResourceExhausted:
		return NewOCRError(op, ErrQuotaExceeded, status.Convert(err).Message())
	case codes.InvalidArgument:
		return NewOCRError(op, ErrUnsupportedFormat, "document format not supported or corrupted")
	case codes.NotFound:
		return NewOCRError(op, ErrInvalidConfiguration, "processor not found")
	case codes.DeadlineExceeded:
		return NewOCRError(op, context.DeadlineExceeded, "processing timeout")
	case codes.Canceled:
		return NewOCRError(op, ErrContextCanceled, "processing was canceled")
	default:
		return NewOCRError(op, ErrOCRFailed, err.Error())
	}
}

// Close closes the underlying Document AI client.
func (p *DocumentAIOCRService) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}
