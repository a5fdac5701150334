package invoice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facturas/internal/invoice"
)

func TestCascadeFirstMatchWins(t *testing.T) {
	text := "Fecha de Emisión: 15/03/2024\nVencimiento: 30/03/2024"

	c, err := invoice.NewCascade("issue_date", 1, []string{
		`Emisi[oó]n:\s*(\d{2}/\d{2}/\d{4})`,
		`Vencimiento:\s*(\d{2}/\d{2}/\d{4})`,
	})
	require.NoError(t, err)

	m, ok := c.Find(text)
	require.True(t, ok)
	assert.Equal(t, 0, m.Variant)
	assert.Equal(t, "15/03/2024", m.Value())
}

func TestCascadeLaterVariantOnly(t *testing.T) {
	text := "TOTAL A PAGAR 1.500,00"
	p1 := `Importe\s+Total:\s*(\d[\d.,]*)`
	p2 := `total a pagar\s*(\d[\d.,]*)`

	both, err := invoice.NewCascade("total", 1, []string{p1, p2})
	require.NoError(t, err)
	alone, err := invoice.NewCascade("total", 1, []string{p2})
	require.NoError(t, err)

	got, ok := both.Find(text)
	require.True(t, ok)
	want, ok := alone.Find(text)
	require.True(t, ok)

	assert.Equal(t, want.Groups, got.Groups)
	assert.Equal(t, 1, got.Variant)
	assert.Equal(t, "1.500,00", got.Value())
}

func TestCascadeNoMatchIsAbsent(t *testing.T) {
	c, err := invoice.NewCascade("cae", 1, []string{`CAE:\s*(\d{14})`})
	require.NoError(t, err)

	_, ok := c.Find("Factura sin CAE impreso")
	assert.False(t, ok)
}

func TestCascadeRequiresAllGroups(t *testing.T) {
	text := "Comp. Nro: 00001234\nRef 0003/00001234"

	c, err := invoice.NewCascade("pos_number", 2, []string{
		`Comp\.?\s*Nro:?\s*(?:(\d{4})-)?(\d{8})`,
		`(\d{4})/(\d{8})`,
	})
	require.NoError(t, err)

	m, ok := c.Find(text)
	require.True(t, ok)
	assert.Equal(t, 1, m.Variant)
	assert.Equal(t, []string{"0003", "00001234"}, m.Groups)
}

func TestCascadeFindAll(t *testing.T) {
	text := "CUIT: 30-71234567-1\nCliente CUIT: 20-12345678-6\n"

	c, err := invoice.NewCascade("tax_id", 1, []string{
		`CUIT:\s*(\d{2}-\d{8}-\d)`,
		`(\d{11})`,
	})
	require.NoError(t, err)

	matches := c.FindAll(text)
	require.Len(t, matches, 2)
	assert.Equal(t, "30-71234567-1", matches[0].Value())
	assert.Equal(t, "20-12345678-6", matches[1].Value())
	assert.Less(t, matches[0].Start, matches[1].Start)
}

func TestCascadeFindAllAcrossVariants(t *testing.T) {
	text := "CUIT: 30-71234567-1\nCliente: Juan\n20-12345678-6\n"

	c, err := invoice.NewCascade("tax_id", 1, []string{
		`CUIT:\s*(\d{2}-\d{8}-\d)`,
		`\b(\d{2}-\d{8}-\d)\b`,
	})
	require.NoError(t, err)

	matches := c.FindAll(text)
	require.Len(t, matches, 2, "the labeled CUIT is reported once")
	assert.Equal(t, 0, matches[0].Variant)
	assert.Equal(t, "30-71234567-1", matches[0].Value())
	assert.Equal(t, 1, matches[1].Variant)
	assert.Equal(t, "20-12345678-6", matches[1].Value())
}

func TestCascadeFindAllOrdersByPosition(t *testing.T) {
	text := "20-12345678-6 emitido por CUIT: 30-71234567-1"

	c, err := invoice.NewCascade("tax_id", 1, []string{
		`CUIT:\s*(\d{2}-\d{8}-\d)`,
		`\b(\d{2}-\d{8}-\d)\b`,
	})
	require.NoError(t, err)

	matches := c.FindAll(text)
	require.Len(t, matches, 2)
	assert.Equal(t, "20-12345678-6", matches[0].Value())
	assert.Equal(t, "30-71234567-1", matches[1].Value())
}

func TestCascadeLaterCompleteMatchOfSameVariant(t *testing.T) {
	text := "Comp. Nro: 00001234\nComp. Nro: 0003-00001234\nRef 0009/00000001"

	c, err := invoice.NewCascade("pos_number", 2, []string{
		`Comp\.?\s*Nro:?\s*(?:(\d{4})-)?(\d{8})`,
		`(\d{4})/(\d{8})`,
	})
	require.NoError(t, err)

	m, ok := c.Find(text)
	require.True(t, ok)
	assert.Equal(t, 0, m.Variant)
	assert.Equal(t, []string{"0003", "00001234"}, m.Groups)
}

func TestNewCascadeInvalid(t *testing.T) {
	_, err := invoice.NewCascade("broken", 1, []string{`(unclosed`})
	assert.ErrorIs(t, err, invoice.ErrInvalidPatterns)

	_, err = invoice.NewCascade("pos_number", 2, []string{`(\d{4})-\d{8}`})
	assert.ErrorIs(t, err, invoice.ErrInvalidPatterns)
}

func TestCascadeIsCaseInsensitive(t *testing.T) {
	c, err := invoice.NewCascade("copy_type", 1, []string{`\b(original|duplicado)\b`})
	require.NoError(t, err)

	m, ok := c.Find("DUPLICADO")
	require.True(t, ok)
	assert.Equal(t, "DUPLICADO", m.Value())
}
