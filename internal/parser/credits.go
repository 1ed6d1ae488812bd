package parser

import (
	"regexp"
	"strconv"
	"strings"
)

var leadingNumber = regexp.MustCompile(`^\d+(?:\.\d+)?|^\.\d+`)

// ParseCreditHours interprets credit-hour text. A range "a-b" resolves to
// the larger bound; a single number resolves to itself; anything else is
// nil. Trailing words ("3 Credit Hours") are ignored.
func ParseCreditHours(text string) *float64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if !strings.Contains(text, "-") {
		return parseLeading(text)
	}

	var best *float64
	for _, part := range strings.Split(text, "-") {
		v := parseLeading(part)
		if v == nil {
			return nil
		}
		if best == nil || *v > *best {
			best = v
		}
	}
	return best
}

func parseLeading(s string) *float64 {
	m := leadingNumber.FindString(strings.TrimSpace(s))
	if m == "" {
		return nil
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return nil
	}
	return &v
}
