package invoice_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"facturas/internal/invoice"
	"facturas/pkg/models"
)

func amount(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func TestCheckConsistency(t *testing.T) {
	valid := models.StringPtr("30-71234567-1")

	tests := []struct {
		name     string
		inv      models.ExtractedInvoice
		warnings []string
	}{
		{
			name: "consistent invoice",
			inv: models.ExtractedInvoice{
				InvoiceType: models.InvoiceTypeA,
				IssuerTaxID: valid,
				Subtotal:    amount("100"),
				VATAmount:   amount("21"),
				TotalAmount: amount("121.01"),
				LineItems:   []models.LineItem{{Subtotal: decimal.RequireFromString("100")}},
			},
			warnings: []string{},
		},
		{
			name: "total mismatch",
			inv: models.ExtractedInvoice{
				InvoiceType: models.InvoiceTypeB,
				Subtotal:    amount("100"),
				TotalAmount: amount("150"),
			},
			warnings: []string{"Amount calculation mismatch: subtotal + taxes = 100.00, but total = 150.00 (difference: 50.00)"},
		},
		{
			name: "missing total",
			inv: models.ExtractedInvoice{
				InvoiceType: models.InvoiceTypeB,
				Subtotal:    amount("100"),
				VATAmount:   amount("21"),
			},
			warnings: []string{"Total not found; components add up to 121.00"},
		},
		{
			name: "line items match total",
			inv: models.ExtractedInvoice{
				InvoiceType: models.InvoiceTypeC,
				TotalAmount: amount("450"),
				LineItems: []models.LineItem{
					{Subtotal: decimal.RequireFromString("300")},
					{Subtotal: decimal.RequireFromString("150")},
				},
			},
			warnings: []string{},
		},
		{
			name: "line items match nothing",
			inv: models.ExtractedInvoice{
				InvoiceType: models.InvoiceTypeC,
				TotalAmount: amount("500"),
				LineItems:   []models.LineItem{{Subtotal: decimal.RequireFromString("450")}},
			},
			warnings: []string{"Line items add up to 450.00, matching neither subtotal nor total"},
		},
		{
			name: "invalid CUIT check digit",
			inv: models.ExtractedInvoice{
				InvoiceType: models.InvoiceTypeUnknown,
				IssuerTaxID: valid,
				BuyerTaxID:  models.StringPtr("27-23456789-0"),
			},
			warnings: []string{"CUIT 27-23456789-0 has an invalid check digit"},
		},
		{
			name: "type A without VAT",
			inv: models.ExtractedInvoice{
				InvoiceType: models.InvoiceTypeA,
				TotalAmount: amount("100"),
			},
			warnings: []string{"Invoice type A without a discriminated VAT amount"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := tt.inv
			assert.Equal(t, tt.warnings, invoice.CheckConsistency(&inv))
		})
	}
}

func TestValidTaxID(t *testing.T) {
	assert.True(t, invoice.ValidTaxID("30-71234567-1"))
	assert.True(t, invoice.ValidTaxID("20123456786"))
	assert.False(t, invoice.ValidTaxID("27-23456789-0"))
	assert.False(t, invoice.ValidTaxID("20-1234567-6"))
	assert.False(t, invoice.ValidTaxID(""))
}
