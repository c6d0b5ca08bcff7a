package financials

import (
	"encoding/json"
	"testing"
)

func TestParseLenient(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		want   float64
		wantOK bool
	}{
		{"plain integer string", "12", 12, true},
		{"thousands separators", "1,234,567", 1234567, true},
		{"decimal with separators", "1,234.56", 1234.56, true},
		{"percent", "12.5%", 12.5, true},
		{"currency", "$30.01", 30.01, true},
		{"negative", "-4,000", -4000, true},
		{"accounting negative", "(1,500)", -1500, true},
		{"accounting negative with currency", "$(1,000)", -1000, true},
		{"accounting negative padded", "( 2.5 )", -2.5, true},
		{"empty parentheses", "()", 0, false},
		{"surrounding spaces", "  42 ", 42, true},
		{"non-breaking space", "1 000", 1000, true},
		{"float64", 3.25, 3.25, true},
		{"int", 7, 7, true},
		{"json number", json.Number("9.5"), 9.5, true},
		{"empty", "", 0, false},
		{"dash", "-", 0, false},
		{"not available", "N/A", 0, false},
		{"nil", nil, 0, false},
		{"bool", true, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseLenient(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseLenient(%#v) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
