package sheets

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"facturas/pkg/models"
)

func TestExtractSpreadsheetID(t *testing.T) {
	id, err := extractSpreadsheetID("https://docs.google.com/spreadsheets/d/1AbC-dEf_123/edit#gid=0")
	require.NoError(t, err)
	assert.Equal(t, "1AbC-dEf_123", id)

	_, err = extractSpreadsheetID("https://example.com/not-a-sheet")
	assert.Error(t, err)
}

func TestRows(t *testing.T) {
	at := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
	docs := []*models.ProcessedDocument{
		{File: "a.txt", Invoice: &models.ExtractedInvoice{InvoiceType: models.InvoiceTypeB}},
		{File: "b.pdf", Error: "boom"},
	}

	rows := Rows(docs, at)
	require.Len(t, rows, 2)
	require.Len(t, rows[0], len(Headers))
	assert.Equal(t, "a.txt", rows[0][0])
	assert.Equal(t, "B", rows[0][1])
	assert.Equal(t, "15/03/2024 09:30:00", rows[0][len(Headers)-1])
	assert.Equal(t, "boom", rows[1][len(Headers)-2])
	assert.Equal(t, "U", lastColumn())
}

// fakeSheets answers the handful of Sheets API calls WriteResults makes.
type fakeSheets struct {
	mu       sync.Mutex
	calls    []string
	appended string
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/spreadsheets/sheet123"):
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"spreadsheetId": "sheet123",
			"sheets": []map[string]interface{}{
				{"properties": map[string]interface{}{"title": "Facturas", "sheetId": 7}},
			},
		})
	case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/values/"):
		_, _ = io.WriteString(w, `{"values": []}`)
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":append"):
		body, _ := io.ReadAll(r.Body)
		f.appended = string(body)
		_, _ = io.WriteString(w, `{}`)
	default:
		_, _ = io.WriteString(w, `{}`)
	}
}

func TestWriteResults(t *testing.T) {
	fake := &fakeSheets{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	ctx := context.Background()
	svc, err := NewSheetsServiceWithOptions(ctx, "sheet123",
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	docs := []*models.ProcessedDocument{
		{File: "factura_a.txt", Invoice: &models.ExtractedInvoice{InvoiceType: models.InvoiceTypeA}},
	}
	require.NoError(t, svc.WriteResults(ctx, docs, "Facturas"))

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Contains(t, fake.appended, "factura_a.txt")
	assert.Contains(t, fake.appended, "02/01/2024 03:04:05")

	var methods []string
	for _, c := range fake.calls {
		methods = append(methods, strings.SplitN(c, " ", 2)[0])
	}
	// spreadsheet, header read, header write, header format, append
	assert.Equal(t, []string{"GET", "GET", "PUT", "POST", "POST"}, methods)
}
