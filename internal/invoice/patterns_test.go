package invoice_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facturas/internal/invoice"
)

func TestDefaultPatterns(t *testing.T) {
	p := mustPatterns(t)

	fields := p.Fields()
	assert.Contains(t, fields, invoice.FieldTotalAmount)
	assert.Contains(t, fields, invoice.FieldPointOfSaleAndNumber)
	assert.Len(t, fields, 15)
	assert.IsIncreasing(t, fields)

	assert.Contains(t, p.NoiseKeywords(), "descripcion")
	assert.NotNil(t, p.Cascade(invoice.FieldTaxID))
	assert.Nil(t, p.Cascade("cae"))
}

func TestParsePatternsOverlay(t *testing.T) {
	overlay := []byte(`
fields:
  total_amount:
    variants:
      - 'A PAGAR[ \t]*(\d[\d.,]*)'
`)
	p, err := invoice.ParsePatterns(overlay)
	require.NoError(t, err)

	assert.Equal(t, 1, p.Cascade(invoice.FieldTotalAmount).Len())
	assert.Equal(t, mustPatterns(t).Cascade(invoice.FieldSubtotal).Len(), p.Cascade(invoice.FieldSubtotal).Len())

	ex := invoice.NewExtractor(p)
	inv, err := ex.Extract("Importe Total: 99,00\nA pagar 120,00")
	require.NoError(t, err)
	assertAmount(t, "120", inv.TotalAmount)
}

func TestParsePatternsEmptyOverlay(t *testing.T) {
	p, err := invoice.ParsePatterns(nil)
	require.NoError(t, err)
	assert.Equal(t, mustPatterns(t).Fields(), p.Fields())
}

func TestParsePatternsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "unknown field",
			yaml: "fields:\n  cae:\n    variants: ['CAE:\\s*(\\d+)']\n",
		},
		{
			name: "unknown top-level key",
			yaml: "extra: true\n",
		},
		{
			name: "broken regular expression",
			yaml: "fields:\n  total_amount:\n    variants: ['Total: (\\d+']\n",
		},
		{
			name: "wrong group count",
			yaml: "fields:\n  point_of_sale_and_number:\n    groups: 1\n    variants: ['(\\d{4})-(\\d{8})']\n",
		},
		{
			name: "variant captures too few groups",
			yaml: "fields:\n  point_of_sale_and_number:\n    variants: ['(\\d{4})-\\d{8}']\n",
		},
		{
			name: "unknown invoice type",
			yaml: "invoice_type:\n  keywords:\n    E: ['factura e']\n",
		},
		{
			name: "row without subtotal group",
			yaml: "line_items:\n  row: '^(?P<qty>\\d+) (?P<desc>.+) (?P<price>\\d+,\\d{2})$'\n",
		},
		{
			name: "not yaml",
			yaml: "fields: [unterminated",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := invoice.ParsePatterns([]byte(tt.yaml))
			assert.ErrorIs(t, err, invoice.ErrInvalidPatterns)
		})
	}
}

func TestLoadPatterns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.yaml")
	require.NoError(t, os.WriteFile(path, []byte("line_items:\n  noise: [Envio]\n"), 0o600))

	p, err := invoice.LoadPatterns(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"envio"}, p.NoiseKeywords())

	items, _ := invoice.NewLineItemParser(p).Parse("1 Envío a domicilio 500,00 500,00")
	assert.Empty(t, items)
}

func TestLoadPatternsDefaults(t *testing.T) {
	p, err := invoice.LoadPatterns("")
	require.NoError(t, err)
	assert.Equal(t, mustPatterns(t).Fields(), p.Fields())
}

func TestLoadPatternsMissingFile(t *testing.T) {
	_, err := invoice.LoadPatterns(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDefaultPatternsYAMLRoundTrip(t *testing.T) {
	p, err := invoice.ParsePatterns(invoice.DefaultPatternsYAML())
	require.NoError(t, err)
	assert.Equal(t, mustPatterns(t).Fields(), p.Fields())
}
