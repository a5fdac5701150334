package ocr

import (
	"context"
	"strings"
	"testing"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestMimeTypeFor(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"factura.pdf", MimePDF},
		{"ticket.JPG", MimeJPEG},
		{"photo.jpeg", MimeJPEG},
		{"screenshot.png", MimePNG},
		{"scan.tiff", MimeTIFF},
		{"scanned.tif", MimeTIFF},
		{"animation.gif", MimeGIF},
		{"archive/x.webp", MimeWebP},
		{"notes/ocr.txt", MimeText},
		{"nested/dir.a.pdf", MimePDF},
	}
	for _, tt := range tests {
		got, ok := MimeTypeFor(tt.path)
		assert.True(t, ok, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}

	_, ok := MimeTypeFor("invoice.docx")
	assert.False(t, ok)
}

func TestReadDocument(t *testing.T) {
	_, err := readDocument("test", strings.NewReader("hello"), MimePDF)
	assert.ErrorIs(t, err, ErrInvalidPDF)

	_, err = readDocument("test", strings.NewReader(""), MimePNG)
	assert.ErrorIs(t, err, ErrEmptyDocument)

	_, err = readDocument("test", strings.NewReader("data"), "application/zip")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	big := strings.NewReader(strings.Repeat("x", MaxFileSizeBytes+1))
	_, err = readDocument("test", big, MimePNG)
	assert.ErrorIs(t, err, ErrFileTooLarge)

	data, err := readDocument("test", strings.NewReader("%PDF-1.7"), MimePDF)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(data))
}

func TestCollectVisionText(t *testing.T) {
	pages := []*visionpb.AnnotateImageResponse{
		{FullTextAnnotation: &visionpb.TextAnnotation{
			Text: "FACTURA\nTotal: 100,00",
			Pages: []*visionpb.Page{{
				Confidence: 0.9,
				Property: &visionpb.TextAnnotation_TextProperty{
					DetectedLanguages: []*visionpb.TextAnnotation_DetectedLanguage{{LanguageCode: "es"}},
				},
			}},
		}},
		{},
		{FullTextAnnotation: &visionpb.TextAnnotation{
			Text:  "CAE: 12345678901234",
			Pages: []*visionpb.Page{{Confidence: 0.7}},
		}},
	}

	result, err := collectVisionText(pages)
	require.NoError(t, err)
	assert.Equal(t, "FACTURA\nTotal: 100,00\n\nCAE: 12345678901234", result.Text)
	assert.Equal(t, 3, result.PageCount)
	assert.InDelta(t, 0.8, result.Confidence, 0.001)
	assert.Equal(t, []string{"es"}, result.LanguageCodes)
}

func TestCollectVisionTextErrors(t *testing.T) {
	_, err := collectVisionText(nil)
	assert.ErrorIs(t, err, ErrEmptyDocument)

	_, err = collectVisionText([]*visionpb.AnnotateImageResponse{{}})
	assert.ErrorIs(t, err, ErrEmptyDocument)

	tooMany := make([]*visionpb.AnnotateImageResponse, MaxPagesSync+1)
	_, err = collectVisionText(tooMany)
	assert.ErrorIs(t, err, ErrTooManyPages)
}

func TestDocumentText(t *testing.T) {
	doc := &documentaipb.Document{
		Text: "FACTURA B\nTotal: 50,00",
		Pages: []*documentaipb.Document_Page{
			{
				Layout:            &documentaipb.Document_Page_Layout{Confidence: 0.95},
				DetectedLanguages: []*documentaipb.Document_Page_DetectedLanguage{{LanguageCode: "es"}},
			},
		},
	}

	result, err := documentText(doc)
	require.NoError(t, err)
	assert.Equal(t, doc.Text, result.Text)
	assert.Equal(t, 1, result.PageCount)
	assert.InDelta(t, 0.95, result.Confidence, 0.001)
	assert.Equal(t, []string{"es"}, result.LanguageCodes)

	_, err = documentText(&documentaipb.Document{Text: "  "})
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestDocumentAIConfig(t *testing.T) {
	cfg := DocumentAIConfig{ProjectID: "acme", ProcessorID: "abc123"}
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "projects/acme/locations/us/processors/abc123", cfg.ProcessorName())
	assert.Empty(t, cfg.Endpoint())

	cfg.Location = "eu"
	cfg.ProcessorVersion = "pretrained-ocr-v2.0-2023-06-02"
	assert.Equal(t, "projects/acme/locations/eu/processors/abc123/processorVersions/pretrained-ocr-v2.0-2023-06-02", cfg.ProcessorName())
	assert.Equal(t, "eu-documentai.googleapis.com:443", cfg.Endpoint())

	assert.ErrorIs(t, DocumentAIConfig{ProcessorID: "abc"}.Validate(), ErrInvalidConfiguration)
	assert.ErrorIs(t, DocumentAIConfig{ProjectID: "acme"}.Validate(), ErrInvalidConfiguration)
}

func TestHandleOCRError(t *testing.T) {
	tests := []struct {
		err  error
		want error
	}{
		{status.Error(codes.PermissionDenied, "denied"), ErrInvalidCredentials},
		{status.Error(codes.ResourceExhausted, "quota"), ErrQuotaExceeded},
		{status.Error(codes.InvalidArgument, "bad"), ErrUnsupportedFormat},
		{status.Error(codes.NotFound, "gone"), ErrInvalidConfiguration},
		{status.Error(codes.Canceled, "stop"), ErrContextCanceled},
		{context.Canceled, ErrContextCanceled},
		{context.DeadlineExceeded, context.DeadlineExceeded},
		{status.Error(codes.Internal, "boom"), ErrOCRFailed},
	}

	for _, tt := range tests {
		assert.ErrorIs(t, handleOCRError("Transcribe", tt.err), tt.want, tt.err.Error())
	}
}

func TestNewSourceUnknown(t *testing.T) {
	_, err := NewSource(context.Background(), "tesseract", DocumentAIConfig{})
	assert.ErrorIs(t, err, ErrUnsupportedSource)

	src, err := NewSource(context.Background(), SourcePDFText, DocumentAIConfig{})
	require.NoError(t, err)
	assert.IsType(t, &PDFTextSource{}, src)
	assert.NoError(t, src.Close())
}

func TestPDFTextSourceRejects(t *testing.T) {
	src := NewPDFTextSource()

	_, err := src.Transcribe(context.Background(), strings.NewReader("%PDF-1.4"), MimePNG)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = src.Transcribe(context.Background(), strings.NewReader("not a pdf"), MimePDF)
	assert.ErrorIs(t, err, ErrInvalidPDF)

	_, err = src.Transcribe(context.Background(), strings.NewReader("%PDF-1.4 truncated"), MimePDF)
	assert.ErrorIs(t, err, ErrInvalidPDF)
}
