package export

import (
	"strings"

	"github.com/shopspring/decimal"

	"facturas/pkg/models"
)

// InvoiceHeaders are the columns of the invoices sheet, one row per processed file.
var InvoiceHeaders = []string{
	"Archivo",
	"Tipo",
	"Punto de Venta",
	"Número",
	"Fecha",
	"Copia",
	"CUIT Emisor",
	"Razón Social Emisor",
	"CUIT Receptor",
	"Razón Social Receptor",
	"Condición de Venta",
	"Condición IVA",
	"Subtotal",
	"IVA",
	"Percepción IIBB",
	"Otros Tributos",
	"Total",
	"Ítems",
	"Advertencias",
	"Error",
}

// ItemHeaders are the columns of the line-items sheet.
var ItemHeaders = []string{
	"Archivo",
	"Cantidad",
	"Descripción",
	"Unidad",
	"Precio Unitario",
	"Bonificación %",
	"Bonificación",
	"Subtotal",
}

// InvoiceRow flattens a processed document into InvoiceHeaders order.
// Amounts are float64 so spreadsheets store them as numbers; absent values are "".
func InvoiceRow(doc *models.ProcessedDocument) []interface{} {
	row := make([]interface{}, len(InvoiceHeaders))
	for i := range row {
		row[i] = ""
	}
	row[0] = doc.File
	row[19] = doc.Error

	inv := doc.Invoice
	if inv == nil {
		return row
	}

	row[1] = string(inv.InvoiceType)
	row[2] = models.Value(inv.PointOfSale)
	row[3] = models.Value(inv.InvoiceNumber)
	row[4] = models.Value(inv.IssueDate)
	if inv.CopyType != nil {
		row[5] = string(*inv.CopyType)
	}
	row[6] = models.Value(inv.IssuerTaxID)
	row[7] = models.Value(inv.IssuerLegalName)
	row[8] = models.Value(inv.BuyerTaxID)
	row[9] = models.Value(inv.BuyerLegalName)
	row[10] = models.Value(inv.SaleCondition)
	row[11] = models.Value(inv.VATCondition)
	row[12] = nullAmount(inv.Subtotal)
	row[13] = nullAmount(inv.VATAmount)
	row[14] = nullAmount(inv.GrossIncomePerception)
	row[15] = nullAmount(inv.OtherTaxes)
	row[16] = nullAmount(inv.TotalAmount)
	row[17] = len(inv.LineItems)
	row[18] = strings.Join(doc.Warnings, "; ")
	return row
}

// ItemRows flattens the line items of a processed document into ItemHeaders order.
func ItemRows(doc *models.ProcessedDocument) [][]interface{} {
	if doc.Invoice == nil {
		return nil
	}
	rows := make([][]interface{}, 0, len(doc.Invoice.LineItems))
	for _, item := range doc.Invoice.LineItems {
		rows = append(rows, []interface{}{
			doc.File,
			item.Quantity.InexactFloat64(),
			item.Description,
			models.Value(item.UnitOfMeasure),
			item.UnitPrice.InexactFloat64(),
			item.DiscountPercent.InexactFloat64(),
			item.DiscountAmount.InexactFloat64(),
			item.Subtotal.InexactFloat64(),
		})
	}
	return rows
}

func nullAmount(d decimal.NullDecimal) interface{} {
	if !d.Valid {
		return ""
	}
	return d.Decimal.InexactFloat64()
}
