package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// InvoiceType is the AFIP fiscal category of an invoice.
type InvoiceType string

const (
	InvoiceTypeA       InvoiceType = "A"
	InvoiceTypeB       InvoiceType = "B"
	InvoiceTypeC       InvoiceType = "C"
	InvoiceTypeUnknown InvoiceType = "unknown"
)

// Valid reports whether t belongs to the closed set of invoice types.
func (t InvoiceType) Valid() bool {
	switch t {
	case InvoiceTypeA, InvoiceTypeB, InvoiceTypeC, InvoiceTypeUnknown:
		return true
	}
	return false
}

// CopyType tells whether the physical document is the original or a duplicate.
type CopyType string

const (
	CopyOriginal  CopyType = "original"
	CopyDuplicate CopyType = "duplicate"
)

// ParseCopyType maps the printed copy marker ("ORIGINAL", "DUPLICADO") to a CopyType.
func ParseCopyType(s string) (CopyType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "original":
		return CopyOriginal, true
	case "duplicado", "duplicate":
		return CopyDuplicate, true
	}
	return "", false
}

// ExtractedInvoice is the structured record built from one OCR transcript.
// Pointer fields are nil and monetary fields are invalid NullDecimals when the
// value was not found; a found zero stays distinguishable from "absent".
type ExtractedInvoice struct {
	// Identity
	PointOfSale   *string   `json:"point_of_sale"`  // Punto de venta, digits as printed
	InvoiceNumber *string   `json:"invoice_number"` // Comprobante number, digits as printed
	IssueDate     *string   `json:"issue_date"`     // Source format, not parsed
	CopyType      *CopyType `json:"copy_type"`

	// Parties
	IssuerTaxID     *string `json:"issuer_tax_id"` // CUIT, NN-NNNNNNNN-N
	IssuerLegalName *string `json:"issuer_legal_name"`
	BuyerTaxID      *string `json:"buyer_tax_id"`
	BuyerLegalName  *string `json:"buyer_legal_name"`

	// Classification
	InvoiceType InvoiceType `json:"invoice_type"`

	// Fiscal terms, free text as printed
	SaleCondition *string `json:"sale_condition"`
	VATCondition  *string `json:"vat_condition"`

	// Monetary
	Subtotal              decimal.NullDecimal `json:"subtotal"`                // Importe neto gravado / subtotal
	VATAmount             decimal.NullDecimal `json:"vat_amount"`              // IVA
	GrossIncomePerception decimal.NullDecimal `json:"gross_income_perception"` // Percepción IIBB
	OtherTaxes            decimal.NullDecimal `json:"other_taxes"`             // Otros tributos
	TotalAmount           decimal.NullDecimal `json:"total_amount"`

	LineItems []LineItem `json:"line_items"`
}

// LineItem is one purchased-product row reconstructed from the transcript.
type LineItem struct {
	Quantity        decimal.Decimal `json:"quantity"`
	Description     string          `json:"description"`
	UnitOfMeasure   *string         `json:"unit_of_measure"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	Subtotal        decimal.Decimal `json:"subtotal"`
}

// Title renders the display name used for an invoice record, e.g. "Factura A 0003-00001234".
func (inv *ExtractedInvoice) Title() string {
	pos, number := "?", "?"
	if inv.PointOfSale != nil {
		pos = padDigits(*inv.PointOfSale, 4)
	}
	if inv.InvoiceNumber != nil {
		number = padDigits(*inv.InvoiceNumber, 8)
	}
	return fmt.Sprintf("Factura %s %s-%s", inv.InvoiceType, pos, number)
}

// LineItemsTotal sums the subtotals of all line items.
func (inv *ExtractedInvoice) LineItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range inv.LineItems {
		total = total.Add(item.Subtotal)
	}
	return total
}

func padDigits(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// Value dereferences an optional string, returning "" when absent.
func Value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
