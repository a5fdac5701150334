package export_test

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"facturas/internal/export"
	"facturas/pkg/models"
)

func sampleDocuments() []*models.ProcessedDocument {
	original := models.CopyOriginal
	inv := &models.ExtractedInvoice{
		PointOfSale:     models.StringPtr("0003"),
		InvoiceNumber:   models.StringPtr("00001234"),
		IssueDate:       models.StringPtr("15/03/2024"),
		CopyType:        &original,
		IssuerTaxID:     models.StringPtr("30-71234567-1"),
		IssuerLegalName: models.StringPtr("ACME S.R.L."),
		InvoiceType:     models.InvoiceTypeA,
		Subtotal:        decimal.NewNullDecimal(decimal.RequireFromString("250")),
		VATAmount:       decimal.NewNullDecimal(decimal.RequireFromString("52.5")),
		TotalAmount:     decimal.NewNullDecimal(decimal.RequireFromString("302.5")),
		LineItems: []models.LineItem{
			{
				Quantity:    decimal.RequireFromString("2"),
				Description: "Widget Pro",
				UnitPrice:   decimal.RequireFromString("100"),
				Subtotal:    decimal.RequireFromString("200"),
			},
			{
				Quantity:      decimal.RequireFromString("2.5"),
				Description:   "Harina 000",
				UnitOfMeasure: models.StringPtr("kg"),
				UnitPrice:     decimal.RequireFromString("20"),
				Subtotal:      decimal.RequireFromString("50"),
			},
		},
	}

	return []*models.ProcessedDocument{
		{File: "factura_a.txt", Source: "text", Invoice: inv, Warnings: []string{"check one", "check two"}},
		{File: "blurry.jpg", Source: "vision", Error: "ocr: Transcribe failed: document contains no readable text"},
	}
}

func TestInvoiceRow(t *testing.T) {
	docs := sampleDocuments()

	row := export.InvoiceRow(docs[0])
	require.Len(t, row, len(export.InvoiceHeaders))
	assert.Equal(t, "factura_a.txt", row[0])
	assert.Equal(t, "A", row[1])
	assert.Equal(t, "original", row[5])
	assert.Equal(t, "", row[8], "absent buyer stays empty")
	assert.Equal(t, 250.0, row[12])
	assert.Equal(t, "", row[14], "absent perception stays empty")
	assert.Equal(t, 302.5, row[16])
	assert.Equal(t, 2, row[17])
	assert.Equal(t, "check one; check two", row[18])

	failed := export.InvoiceRow(docs[1])
	assert.Equal(t, "blurry.jpg", failed[0])
	assert.Equal(t, "", failed[1])
	assert.Contains(t, failed[19], "no readable text")
	assert.Nil(t, export.ItemRows(docs[1]))
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteXLSX(&buf, sampleDocuments()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{export.InvoicesSheet, export.ItemsSheet}, f.GetSheetList())

	rows, err := f.GetRows(export.InvoicesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, export.InvoiceHeaders, rows[0])
	assert.Equal(t, "factura_a.txt", rows[1][0])
	assert.Equal(t, "0003", rows[1][2])
	assert.Equal(t, "302.5", rows[1][16])
	assert.Equal(t, "blurry.jpg", rows[2][0])

	items, err := f.GetRows(export.ItemsSheet)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, export.ItemHeaders, items[0])
	assert.Equal(t, []string{"factura_a.txt", "2", "Widget Pro", "", "100", "0", "0", "200"}, items[1])
	assert.Equal(t, "kg", items[2][3])
	assert.Equal(t, "2.5", items[2][1])

	total, err := f.GetCellValue(export.InvoicesSheet, "Q2")
	require.NoError(t, err)
	assert.Equal(t, "302.5", total)
}
