package invoice

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"facturas/pkg/models"
)

// FieldExtractor drives the cascade of every recognized field and post-processes
// the captured values into the invoice record.
type FieldExtractor struct {
	patterns *Patterns
	log      zerolog.Logger
}

// NewFieldExtractor creates a field extractor over a compiled pattern table.
func NewFieldExtractor(p *Patterns, log zerolog.Logger) *FieldExtractor {
	return &FieldExtractor{patterns: p, log: log}
}

// Fill populates the identity, party, fiscal-term and monetary fields of inv.
// Missing fields stay absent; a monetary figure that fails to parse is recorded as zero.
func (fe *FieldExtractor) Fill(text string, inv *models.ExtractedInvoice, rep *Report) {
	fe.fillIdentity(text, inv, rep)
	fe.fillParties(text, inv, rep)

	inv.SaleCondition = fe.freeText(text, FieldSaleCondition, rep)
	inv.VATCondition = fe.freeText(text, FieldVATCondition, rep)

	inv.Subtotal = fe.amount(text, FieldSubtotal, rep)
	inv.VATAmount = fe.amount(text, FieldVATAmount, rep)
	inv.GrossIncomePerception = fe.amount(text, FieldGrossIncomePerception, rep)
	inv.OtherTaxes = fe.amount(text, FieldOtherTaxes, rep)
	inv.TotalAmount = fe.amount(text, FieldTotalAmount, rep)
}

func (fe *FieldExtractor) fillIdentity(text string, inv *models.ExtractedInvoice, rep *Report) {
	if m, ok := fe.find(text, FieldPointOfSaleAndNumber, rep); ok {
		inv.PointOfSale = models.StringPtr(m.Groups[0])
		inv.InvoiceNumber = models.StringPtr(m.Groups[1])
	} else {
		if m, ok := fe.find(text, FieldPointOfSale, rep); ok {
			inv.PointOfSale = models.StringPtr(m.Value())
		}
		if m, ok := fe.find(text, FieldInvoiceNumber, rep); ok {
			inv.InvoiceNumber = models.StringPtr(m.Value())
		}
	}

	if m, ok := fe.find(text, FieldIssueDate, rep); ok {
		inv.IssueDate = models.StringPtr(m.Value())
	}
	if m, ok := fe.find(text, FieldCopyType, rep); ok {
		if ct, ok := models.ParseCopyType(m.Value()); ok {
			inv.CopyType = &ct
		}
	}
}

// fillParties assigns tax IDs by position: the first one found is the issuer's,
// the next distinct one the buyer's.
func (fe *FieldExtractor) fillParties(text string, inv *models.ExtractedInvoice, rep *Report) {
	matches := fe.patterns.Cascade(FieldTaxID).FindAll(text)
	if len(matches) > 0 {
		rep.Matches[FieldTaxID] = matches[0].Variant
		issuer := canonicalTaxID(matches[0].Value())
		inv.IssuerTaxID = models.StringPtr(issuer)
		for _, m := range matches[1:] {
			if id := canonicalTaxID(m.Value()); id != issuer {
				inv.BuyerTaxID = models.StringPtr(id)
				break
			}
		}
	}

	inv.IssuerLegalName = fe.freeText(text, FieldIssuerLegalName, rep)
	inv.BuyerLegalName = fe.freeText(text, FieldBuyerLegalName, rep)
}

func (fe *FieldExtractor) find(text, field string, rep *Report) (Match, bool) {
	m, ok := fe.patterns.Cascade(field).Find(text)
	if !ok {
		fe.log.Debug().Str("field", field).Msg("Field not found")
		return Match{}, false
	}
	fe.log.Debug().
		Str("field", field).
		Int("variant", m.Variant).
		Strs("groups", m.Groups).
		Msg("Field matched")
	rep.Matches[field] = m.Variant
	return m, true
}

func (fe *FieldExtractor) freeText(text, field string, rep *Report) *string {
	m, ok := fe.find(text, field, rep)
	if !ok {
		return nil
	}
	value := m.Value()
	if i := strings.IndexAny(value, "\r\n"); i >= 0 {
		value = value[:i]
	}
	value = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(value), ":|-"))
	if value == "" {
		return nil
	}
	return models.StringPtr(value)
}

func (fe *FieldExtractor) amount(text, field string, rep *Report) decimal.NullDecimal {
	m, ok := fe.find(text, field, rep)
	if !ok {
		return decimal.NullDecimal{}
	}
	d, err := Normalize(m.Value())
	if err != nil {
		fe.log.Debug().Err(err).Str("field", field).Msg("Amount recorded as zero")
		rep.NormalizationFailures = append(rep.NormalizationFailures, field)
		return decimal.NewNullDecimal(decimal.Zero)
	}
	return decimal.NewNullDecimal(d)
}

// canonicalTaxID formats an 11-digit CUIT as NN-NNNNNNNN-N.
func canonicalTaxID(raw string) string {
	digits := onlyDigits(raw)
	if len(digits) != 11 {
		return strings.TrimSpace(raw)
	}
	return digits[:2] + "-" + digits[2:10] + "-" + digits[10:]
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidTaxID reports whether an 11-digit CUIT carries a correct mod-11 check digit.
func ValidTaxID(cuit string) bool {
	digits := onlyDigits(cuit)
	if len(digits) != 11 {
		return false
	}
	weights := [10]int{5, 4, 3, 2, 7, 6, 5, 4, 3, 2}
	sum := 0
	for i, w := range weights {
		sum += int(digits[i]-'0') * w
	}
	check := 11 - sum%11
	switch check {
	case 11:
		check = 0
	case 10:
		check = 9
	}
	return int(digits[10]-'0') == check
}
