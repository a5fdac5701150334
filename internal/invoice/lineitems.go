package invoice

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"facturas/pkg/models"
)

var (
	reBareNumber = regexp.MustCompile(`^\d+(?:[.,]\d+)?$`)

	hundred       = decimal.NewFromInt(100)
	amountEpsilon = decimal.New(1, -2)
)

// LineStats counts what happened to each transcript line during line-item parsing.
type LineStats struct {
	Lines     int `json:"lines"`     // non-blank lines scanned
	Noise     int `json:"noise"`     // totals and column-header lines
	Unmatched int `json:"unmatched"` // lines the row pattern rejected
	Dropped   int `json:"dropped"`   // matched rows whose quantity or subtotal did not parse
	Items     int `json:"items"`
}

// LineItemParser rebuilds the purchased-items table from a transcript.
type LineItemParser struct {
	patterns *Patterns
	groups   map[string][]int
}

// NewLineItemParser creates a parser over a compiled pattern table.
func NewLineItemParser(p *Patterns) *LineItemParser {
	groups := make(map[string][]int)
	for i, name := range p.row.SubexpNames() {
		if name != "" {
			groups[name] = append(groups[name], i)
		}
	}
	return &LineItemParser{patterns: p, groups: groups}
}

// Parse returns the line items in transcript order. It never fails: a
// transcript without item rows yields an empty slice.
func (lp *LineItemParser) Parse(text string) ([]models.LineItem, LineStats) {
	items := []models.LineItem{}
	var stats LineStats

	for _, line := range splitLines(text) {
		stats.Lines++
		if lp.isNoise(line) {
			stats.Noise++
			continue
		}
		m := lp.patterns.row.FindStringSubmatch(line)
		if m == nil {
			stats.Unmatched++
			continue
		}
		item, ok := lp.buildItem(m)
		if !ok {
			stats.Dropped++
			continue
		}
		items = append(items, item)
	}

	stats.Items = len(items)
	return items, stats
}

// ParseLine parses a single line, reporting false for noise, unmatched or dropped rows.
func (lp *LineItemParser) ParseLine(line string) (models.LineItem, bool) {
	line = strings.TrimSpace(line)
	if line == "" || lp.isNoise(line) {
		return models.LineItem{}, false
	}
	m := lp.patterns.row.FindStringSubmatch(line)
	if m == nil {
		return models.LineItem{}, false
	}
	return lp.buildItem(m)
}

func (lp *LineItemParser) isNoise(line string) bool {
	folded := fold(line)
	for _, kw := range lp.patterns.noise {
		if strings.Contains(folded, kw) {
			return true
		}
	}
	return false
}

func (lp *LineItemParser) buildItem(m []string) (models.LineItem, bool) {
	qty, err := Normalize(lp.group(m, groupQty))
	if err != nil {
		return models.LineItem{}, false
	}
	subtotal, err := Normalize(lp.group(m, groupSubtotal))
	if err != nil {
		return models.LineItem{}, false
	}
	desc := strings.TrimSpace(lp.group(m, groupDesc))
	if desc == "" {
		return models.LineItem{}, false
	}

	item := models.LineItem{
		Quantity:        qty,
		Description:     desc,
		UnitPrice:       lp.optional(m, groupPrice),
		DiscountPercent: lp.optional(m, groupDiscPct),
		DiscountAmount:  lp.optional(m, groupDiscAmt),
		Subtotal:        subtotal,
	}
	if unit := strings.TrimSpace(lp.group(m, groupUnit)); unit != "" {
		item.UnitOfMeasure = models.StringPtr(unit)
	}

	// Quantity printed after the description: the leading number was a code or
	// row number and the real quantity is the description's last token.
	if !reconciles(item) {
		if q, rest, ok := trailingQuantity(item.Description); ok {
			item.Quantity = q
			item.Description = rest
		}
	}

	return item, true
}

// group returns the first non-empty capture among the groups sharing name.
func (lp *LineItemParser) group(m []string, name string) string {
	for _, i := range lp.groups[name] {
		if i < len(m) && m[i] != "" {
			return m[i]
		}
	}
	return ""
}

func (lp *LineItemParser) optional(m []string, name string) decimal.Decimal {
	raw := lp.group(m, name)
	if raw == "" {
		return decimal.Zero
	}
	d, _ := NormalizeOrZero(raw)
	return d
}

// reconciles reports whether quantity x unit price, less the discount, gives the subtotal.
func reconciles(item models.LineItem) bool {
	gross := item.Quantity.Mul(item.UnitPrice)
	if gross.Sub(item.DiscountAmount).Sub(item.Subtotal).Abs().LessThanOrEqual(amountEpsilon) {
		return true
	}
	if !item.DiscountPercent.IsZero() {
		net := gross.Mul(hundred.Sub(item.DiscountPercent)).Div(hundred)
		return net.Sub(item.Subtotal).Abs().LessThanOrEqual(amountEpsilon)
	}
	return false
}

// trailingQuantity splits a description ending in a bare, non-zero number.
func trailingQuantity(desc string) (decimal.Decimal, string, bool) {
	tokens := strings.Fields(desc)
	if len(tokens) < 2 {
		return decimal.Zero, desc, false
	}
	last := tokens[len(tokens)-1]
	if !reBareNumber.MatchString(last) {
		return decimal.Zero, desc, false
	}
	q, err := Normalize(last)
	if err != nil || q.IsZero() {
		return decimal.Zero, desc, false
	}
	return q, strings.Join(tokens[:len(tokens)-1], " "), true
}
