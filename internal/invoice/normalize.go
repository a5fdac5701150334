package invoice

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Normalize turns a raw numeric substring captured from a transcript into a decimal.
//
// Anything that is not a digit, '.' or ',' is dropped first. When both separators
// occur, the one appearing later is the decimal separator and every occurrence of
// the other is removed. A lone ',' is a decimal comma and a lone '.' a decimal point.
//
//	Normalize("1.234,56")    // 1234.56
//	Normalize("1,234.56")    // 1234.56
//	Normalize("$ 1.000,00")  // 1000
//	Normalize(",50")         // 0.5
//
// Normalizing the canonical string of a result yields the same value.
func Normalize(raw string) (decimal.Decimal, error) {
	const op = "Normalize"

	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}
	// A trailing separator is punctuation, a leading one is a decimal point (".5").
	s := strings.TrimRight(b.String(), ".,")
	if s == "" {
		return decimal.Zero, NewExtractionError(op, ErrNormalizationFailed, fmt.Sprintf("no digits in %q", raw))
	}

	lastDot := strings.LastIndexByte(s, '.')
	lastComma := strings.LastIndexByte(s, ',')
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		s = strings.ReplaceAll(s, ",", ".")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, NewExtractionError(op, ErrNormalizationFailed, fmt.Sprintf("cannot parse %q", raw))
	}
	return d, nil
}

// NormalizeOrZero is Normalize with the failure folded into a zero value and a false flag.
func NormalizeOrZero(raw string) (decimal.Decimal, bool) {
	d, err := Normalize(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
