package invoice

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"facturas/pkg/models"
)

// Field keys of the pattern table.
const (
	FieldPointOfSaleAndNumber  = "point_of_sale_and_number"
	FieldPointOfSale           = "point_of_sale"
	FieldInvoiceNumber         = "invoice_number"
	FieldIssueDate             = "issue_date"
	FieldCopyType              = "copy_type"
	FieldTaxID                 = "tax_id"
	FieldIssuerLegalName       = "issuer_legal_name"
	FieldBuyerLegalName        = "buyer_legal_name"
	FieldSaleCondition         = "sale_condition"
	FieldVATCondition          = "vat_condition"
	FieldSubtotal              = "subtotal"
	FieldVATAmount             = "vat_amount"
	FieldGrossIncomePerception = "gross_income_perception"
	FieldOtherTaxes            = "other_taxes"
	FieldTotalAmount           = "total_amount"
)

// fieldGroups lists every recognized field with the number of groups its variants must capture.
var fieldGroups = map[string]int{
	FieldPointOfSaleAndNumber:  2,
	FieldPointOfSale:           1,
	FieldInvoiceNumber:         1,
	FieldIssueDate:             1,
	FieldCopyType:              1,
	FieldTaxID:                 1,
	FieldIssuerLegalName:       1,
	FieldBuyerLegalName:        1,
	FieldSaleCondition:         1,
	FieldVATCondition:          1,
	FieldSubtotal:              1,
	FieldVATAmount:             1,
	FieldGrossIncomePerception: 1,
	FieldOtherTaxes:            1,
	FieldTotalAmount:           1,
}

// Named groups of the line-item row pattern.
const (
	groupLine     = "line"
	groupQty      = "qty"
	groupDesc     = "desc"
	groupUnit     = "unit"
	groupPrice    = "price"
	groupDiscPct  = "disc_pct"
	groupDiscAmt  = "disc_amt"
	groupSubtotal = "subtotal"
)

var requiredRowGroups = []string{groupQty, groupDesc, groupPrice, groupSubtotal}

var classifierOrder = []models.InvoiceType{models.InvoiceTypeA, models.InvoiceTypeB, models.InvoiceTypeC}

//go:embed patterns.yaml
var defaultPatternsYAML []byte

// PatternFile is the YAML layout of a pattern table.
type PatternFile struct {
	Fields      map[string]FieldPatterns `yaml:"fields"`
	InvoiceType InvoiceTypePatterns      `yaml:"invoice_type"`
	LineItems   LineItemPatterns         `yaml:"line_items"`
}

// FieldPatterns is the cascade of one field.
type FieldPatterns struct {
	Groups   int      `yaml:"groups,omitempty"`
	Variants []string `yaml:"variants"`
}

// InvoiceTypePatterns drives the invoice-type classifier.
type InvoiceTypePatterns struct {
	Header   []string            `yaml:"header"`
	Keywords map[string][]string `yaml:"keywords"`
}

// LineItemPatterns drives the line-item parser.
type LineItemPatterns struct {
	Row   string   `yaml:"row"`
	Noise []string `yaml:"noise"`
}

// Patterns is a compiled, read-only pattern table. It is safe to share across goroutines.
type Patterns struct {
	fields   map[string]*Cascade
	header   []*regexp.Regexp
	keywords map[models.InvoiceType][]*regexp.Regexp
	row      *regexp.Regexp
	noise    []string
}

// DefaultPatternsYAML returns the embedded default pattern table.
func DefaultPatternsYAML() []byte {
	out := make([]byte, len(defaultPatternsYAML))
	copy(out, defaultPatternsYAML)
	return out
}

// DefaultPatterns compiles the embedded pattern table.
func DefaultPatterns() (*Patterns, error) {
	const op = "DefaultPatterns"

	base, err := decodePatternFile(defaultPatternsYAML)
	if err != nil {
		return nil, WrapExtractionError(op, err, "embedded table")
	}
	return compilePatterns(base)
}

// LoadPatterns reads a YAML pattern file and overlays it on the defaults.
// An empty path returns the defaults.
func LoadPatterns(path string) (*Patterns, error) {
	const op = "LoadPatterns"

	if path == "" {
		return DefaultPatterns()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewExtractionError(op, err, fmt.Sprintf("read %s", path))
	}
	p, err := ParsePatterns(data)
	if err != nil {
		return nil, WrapExtractionError(op, err, path)
	}
	return p, nil
}

// ParsePatterns overlays a YAML pattern table on the defaults and compiles the result.
// A field listed in data replaces that field's whole cascade; header, keyword
// sets, row and noise replace their defaults when non-empty.
func ParsePatterns(data []byte) (*Patterns, error) {
	const op = "ParsePatterns"

	base, err := decodePatternFile(defaultPatternsYAML)
	if err != nil {
		return nil, WrapExtractionError(op, err, "embedded table")
	}
	overlay, err := decodePatternFile(data)
	if err != nil {
		return nil, WrapExtractionError(op, err, "")
	}

	for field, fp := range overlay.Fields {
		base.Fields[field] = fp
	}
	if len(overlay.InvoiceType.Header) > 0 {
		base.InvoiceType.Header = overlay.InvoiceType.Header
	}
	for letter, kws := range overlay.InvoiceType.Keywords {
		if len(kws) > 0 {
			base.InvoiceType.Keywords[letter] = kws
		}
	}
	if overlay.LineItems.Row != "" {
		base.LineItems.Row = overlay.LineItems.Row
	}
	if len(overlay.LineItems.Noise) > 0 {
		base.LineItems.Noise = overlay.LineItems.Noise
	}

	return compilePatterns(base)
}

func decodePatternFile(data []byte) (*PatternFile, error) {
	const op = "decodePatternFile"

	pf := &PatternFile{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(pf); err != nil && !errors.Is(err, io.EOF) {
		return nil, NewExtractionError(op, ErrInvalidPatterns, err.Error())
	}
	if pf.Fields == nil {
		pf.Fields = map[string]FieldPatterns{}
	}
	if pf.InvoiceType.Keywords == nil {
		pf.InvoiceType.Keywords = map[string][]string{}
	}
	return pf, nil
}

func compilePatterns(pf *PatternFile) (*Patterns, error) {
	const op = "compilePatterns"

	p := &Patterns{
		fields:   make(map[string]*Cascade, len(fieldGroups)),
		keywords: make(map[models.InvoiceType][]*regexp.Regexp, len(classifierOrder)),
	}

	for field, fp := range pf.Fields {
		groups, known := fieldGroups[field]
		if !known {
			return nil, NewExtractionError(op, ErrInvalidPatterns, fmt.Sprintf("unknown field %q", field))
		}
		if fp.Groups != 0 && fp.Groups != groups {
			return nil, NewExtractionError(op, ErrInvalidPatterns,
				fmt.Sprintf("field %q captures %d groups, not %d", field, groups, fp.Groups))
		}
		c, err := NewCascade(field, groups, fp.Variants)
		if err != nil {
			return nil, err
		}
		p.fields[field] = c
	}

	for i, h := range pf.InvoiceType.Header {
		re, err := regexp.Compile("(?i)" + h)
		if err != nil {
			return nil, NewExtractionError(op, ErrInvalidPatterns, fmt.Sprintf("header %d: %v", i, err))
		}
		if re.NumSubexp() < 1 {
			return nil, NewExtractionError(op, ErrInvalidPatterns, fmt.Sprintf("header %d captures no letter", i))
		}
		p.header = append(p.header, re)
	}

	for letter, kws := range pf.InvoiceType.Keywords {
		t := models.InvoiceType(strings.ToUpper(letter))
		if t == models.InvoiceTypeUnknown || !t.Valid() {
			return nil, NewExtractionError(op, ErrInvalidPatterns, fmt.Sprintf("unknown invoice type %q", letter))
		}
		for i, kw := range kws {
			re, err := regexp.Compile("(?i)" + kw)
			if err != nil {
				return nil, NewExtractionError(op, ErrInvalidPatterns, fmt.Sprintf("keyword %s/%d: %v", letter, i, err))
			}
			p.keywords[t] = append(p.keywords[t], re)
		}
	}

	if pf.LineItems.Row == "" {
		return nil, NewExtractionError(op, ErrInvalidPatterns, "line_items.row is empty")
	}
	row, err := regexp.Compile("(?i)" + pf.LineItems.Row)
	if err != nil {
		return nil, NewExtractionError(op, ErrInvalidPatterns, fmt.Sprintf("line_items.row: %v", err))
	}
	names := row.SubexpNames()
	for _, g := range requiredRowGroups {
		if !containsString(names, g) {
			return nil, NewExtractionError(op, ErrInvalidPatterns, fmt.Sprintf("line_items.row lacks group %q", g))
		}
	}
	p.row = row

	for _, n := range pf.LineItems.Noise {
		if n = fold(strings.TrimSpace(n)); n != "" {
			p.noise = append(p.noise, n)
		}
	}

	return p, nil
}

// Cascade returns the compiled cascade of a field, or nil when the table has none.
func (p *Patterns) Cascade(field string) *Cascade {
	return p.fields[field]
}

// Fields returns the field keys present in the table, sorted.
func (p *Patterns) Fields() []string {
	keys := make([]string, 0, len(p.fields))
	for k := range p.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// NoiseKeywords returns the folded line-item noise keywords.
func (p *Patterns) NoiseKeywords() []string {
	return append([]string(nil), p.noise...)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
