package financials

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// separators are stripped from numeric strings before parsing: grouping
// commas, currency and percent signs, and every kind of space.
var separators = strings.NewReplacer(
	",", "",
	"$", "",
	"%", "",
	" ", "",
	"\u00a0", "",
	"\u202f", "",
)

// ParseLenient converts a scraped value to a number. Strings may carry
// thousands separators, a currency sign, a percent sign or accounting
// parentheses for negatives. Anything unparseable yields (0, false).
func ParseLenient(v any) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case Ratio:
		return float64(n), true
	case json.Number:
		return parseNumericString(n.String())
	case string:
		return parseNumericString(n)
	default:
		return 0, false
	}
}

func parseNumericString(s string) (float64, bool) {
	// Separators go first so "$(1,000)" reads as an accounting negative.
	s = strings.TrimSpace(separators.Replace(s))
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	if s == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	if negative {
		d = d.Neg()
	}
	f, _ := d.Float64()
	return f, true
}
