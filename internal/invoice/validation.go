package invoice

import (
	"fmt"

	"github.com/shopspring/decimal"

	"facturas/pkg/models"
)

// amountTolerance absorbs rounding on printed totals (2 cents).
var amountTolerance = decimal.New(2, -2)

// CheckConsistency cross-checks the extracted figures and returns human-readable
// warnings. It never modifies the invoice; callers decide what to do with them.
func CheckConsistency(inv *models.ExtractedInvoice) []string {
	warnings := []string{}

	warnings = append(warnings, checkTotals(inv)...)
	warnings = append(warnings, checkLineItems(inv)...)

	for _, id := range []*string{inv.IssuerTaxID, inv.BuyerTaxID} {
		if id != nil && !ValidTaxID(*id) {
			warnings = append(warnings, fmt.Sprintf("CUIT %s has an invalid check digit", *id))
		}
	}

	if inv.InvoiceType == models.InvoiceTypeA && !inv.VATAmount.Valid {
		warnings = append(warnings, "Invoice type A without a discriminated VAT amount")
	}

	return warnings
}

// checkTotals verifies subtotal + VAT + perceptions + other taxes against the total.
func checkTotals(inv *models.ExtractedInvoice) []string {
	var warnings []string

	if !inv.Subtotal.Valid {
		return warnings
	}

	calculated := inv.Subtotal.Decimal.
		Add(orZero(inv.VATAmount)).
		Add(orZero(inv.GrossIncomePerception)).
		Add(orZero(inv.OtherTaxes))

	if !inv.TotalAmount.Valid {
		if inv.VATAmount.Valid {
			warnings = append(warnings, fmt.Sprintf("Total not found; components add up to %s", calculated.StringFixed(2)))
		}
		return warnings
	}

	difference := calculated.Sub(inv.TotalAmount.Decimal).Abs()
	if difference.GreaterThan(amountTolerance) {
		warnings = append(warnings, fmt.Sprintf(
			"Amount calculation mismatch: subtotal + taxes = %s, but total = %s (difference: %s)",
			calculated.StringFixed(2),
			inv.TotalAmount.Decimal.StringFixed(2),
			difference.StringFixed(2)))
	}
	return warnings
}

// checkLineItems verifies that the line subtotals add up to the subtotal or the total.
func checkLineItems(inv *models.ExtractedInvoice) []string {
	if len(inv.LineItems) == 0 {
		return nil
	}

	sum := inv.LineItemsTotal()
	for _, ref := range []decimal.NullDecimal{inv.Subtotal, inv.TotalAmount} {
		if ref.Valid && sum.Sub(ref.Decimal).Abs().LessThanOrEqual(amountTolerance) {
			return nil
		}
	}
	if !inv.Subtotal.Valid && !inv.TotalAmount.Valid {
		return nil
	}
	return []string{fmt.Sprintf("Line items add up to %s, matching neither subtotal nor total", sum.StringFixed(2))}
}

func orZero(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}
