package invoice

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Cascade is the ordered list of pattern variants for one field.
// Variants are tried most specific first; for Find the first one that matches
// wins and later variants are never consulted.
type Cascade struct {
	field    string
	groups   int
	variants []*regexp.Regexp
}

// Match is the outcome of a successful cascade lookup.
type Match struct {
	Field   string
	Variant int      // index of the variant that matched
	Groups  []string // the first N capture groups, trimmed
	Start   int
	End     int
}

// Value returns the first captured group.
func (m Match) Value() string {
	if len(m.Groups) == 0 {
		return ""
	}
	return m.Groups[0]
}

// NewCascade compiles patterns case-insensitively. groups is the number of
// capture groups a variant must fill to count as a match.
func NewCascade(field string, groups int, patterns []string) (*Cascade, error) {
	const op = "NewCascade"

	if groups < 1 {
		groups = 1
	}
	c := &Cascade{field: field, groups: groups}
	for i, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, NewExtractionError(op, ErrInvalidPatterns, fmt.Sprintf("%s variant %d: %v", field, i, err))
		}
		if re.NumSubexp() < groups {
			return nil, NewExtractionError(op, ErrInvalidPatterns,
				fmt.Sprintf("%s variant %d has %d capture groups, need %d", field, i, re.NumSubexp(), groups))
		}
		c.variants = append(c.variants, re)
	}
	return c, nil
}

// Field returns the field name the cascade was built for.
func (c *Cascade) Field() string {
	return c.field
}

// Len returns the number of variants.
func (c *Cascade) Len() int {
	return len(c.variants)
}

// Find returns the first match, in variant order, that fills all required groups.
// Within a variant matches are tried left to right, so a match leaving a required
// group empty is skipped in favor of a later complete one before the next variant.
func (c *Cascade) Find(text string) (Match, bool) {
	if c == nil {
		return Match{}, false
	}
	for i, re := range c.variants {
		for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
			if m, ok := c.build(i, text, loc); ok {
				return m, true
			}
		}
	}
	return Match{}, false
}

// FindAll returns the complete matches of every variant, in transcript order.
// Variants are applied in order and a match overlapping one already taken by an
// earlier variant is dropped, so each span of text is reported once.
func (c *Cascade) FindAll(text string) []Match {
	if c == nil {
		return nil
	}
	var matches []Match
	for i, re := range c.variants {
		for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
			m, ok := c.build(i, text, loc)
			if !ok || overlapsAny(matches, m) {
				continue
			}
			matches = append(matches, m)
		}
	}
	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Start < matches[b].Start
	})
	return matches
}

func overlapsAny(taken []Match, m Match) bool {
	for _, t := range taken {
		if m.Start < t.End && t.Start < m.End {
			return true
		}
	}
	return false
}

func (c *Cascade) build(variant int, text string, loc []int) (Match, bool) {
	m := Match{
		Field:   c.field,
		Variant: variant,
		Groups:  make([]string, 0, c.groups),
		Start:   loc[0],
		End:     loc[1],
	}
	for g := 1; g <= c.groups; g++ {
		start, end := loc[2*g], loc[2*g+1]
		if start < 0 {
			return Match{}, false
		}
		value := strings.TrimSpace(text[start:end])
		if value == "" {
			return Match{}, false
		}
		m.Groups = append(m.Groups, value)
	}
	return m, true
}
