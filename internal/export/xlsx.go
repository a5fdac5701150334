// Package export writes batch results to spreadsheet formats.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"facturas/pkg/models"
)

// Sheet names of the workbook.
const (
	InvoicesSheet = "Facturas"
	ItemsSheet    = "Items"
)

// WriteXLSX writes one workbook with an invoices sheet and a line-items sheet.
func WriteXLSX(w io.Writer, docs []*models.ProcessedDocument) error {
	f := excelize.NewFile()
	defer f.Close()

	// The default workbook starts with "Sheet1"; rename it rather than leave it empty.
	if err := f.SetSheetName(f.GetSheetName(0), InvoicesSheet); err != nil {
		return fmt.Errorf("xlsx rename sheet: %w", err)
	}
	if _, err := f.NewSheet(ItemsSheet); err != nil {
		return fmt.Errorf("xlsx new sheet: %w", err)
	}

	invoiceRows := make([][]interface{}, 0, len(docs))
	var itemRows [][]interface{}
	for _, doc := range docs {
		invoiceRows = append(invoiceRows, InvoiceRow(doc))
		itemRows = append(itemRows, ItemRows(doc)...)
	}

	if err := writeSheet(f, InvoicesSheet, InvoiceHeaders, invoiceRows); err != nil {
		return err
	}
	if err := writeSheet(f, ItemsSheet, ItemHeaders, itemRows); err != nil {
		return err
	}

	_ = f.SetColWidth(InvoicesSheet, "A", "A", 32) // file
	_ = f.SetColWidth(InvoicesSheet, "G", "J", 24) // parties
	_ = f.SetColWidth(InvoicesSheet, "M", "Q", 14) // amounts
	_ = f.SetColWidth(InvoicesSheet, "S", "T", 48) // warnings, error
	_ = f.SetColWidth(ItemsSheet, "A", "A", 32)
	_ = f.SetColWidth(ItemsSheet, "C", "C", 40)

	f.SetActiveSheet(0)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]interface{}) error {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("xlsx header %s!%s: %w", sheet, cell, err)
		}
	}
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("xlsx cell %s!%s: %w", sheet, cell, err)
			}
		}
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("xlsx freeze header %s: %w", sheet, err)
	}
	return nil
}
