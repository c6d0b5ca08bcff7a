package financials

import (
	"fmt"
	"math"
	"strconv"

	"github.com/use-agent/finscrape/models"
)

// Field names read or written by Derive.
const (
	FieldROE      = "ROE"
	FieldGoodwill = "Goodwill"
	FieldEquity   = "Total Stockholders Equity"
	FieldROIC     = "ROIC %"
	FieldWACC     = "WACC %"

	FieldGoodwillToEquity = "Goodwill / Total Equity"
	FieldROICvsWACC       = "ROIC > WACC"
)

// hiddenFields stay addressable in Derived.Fields but are left out of
// Derived.Presentation; they only feed the computed fields.
var hiddenFields = map[string]struct{}{
	FieldWACC:     {},
	FieldROIC:     {},
	FieldGoodwill: {},
}

// Derived is a raw record augmented with computed valuation fields.
type Derived struct {
	// Fields holds every raw field except ROE, followed by the computed fields.
	Fields *Record

	// Issues lists a DataShapeError for each required field that was absent
	// from the raw record. Absent fields are computed as 0.
	Issues []error
}

// Derive computes "Goodwill / Total Equity" and "ROIC > WACC" for one raw
// record. It never fails: absent or unparseable inputs count as 0, and a
// zero equity yields an unguarded IEEE-754 division result.
//
// Derive must be applied exactly once per raw record; feeding its output
// back in recomputes from fields it has already replaced.
func Derive(raw *Record) *Derived {
	out := raw.Clone()
	out.Delete(FieldROE)

	d := &Derived{Fields: out}

	goodwill := d.number(raw, FieldGoodwill)
	equity := d.number(raw, FieldEquity)
	out.Set(FieldGoodwillToEquity, Ratio(roundHalfUp(goodwill/equity, 2)))

	roic := d.number(raw, FieldROIC)
	wacc := d.number(raw, FieldWACC)
	op := "<"
	if roic > wacc {
		op = ">"
	}
	out.Set(FieldROICvsWACC, fmt.Sprintf("%s %s %s", displayValue(raw, FieldROIC), op, displayValue(raw, FieldWACC)))

	return d
}

// Presentation returns the fields meant for listing, in record order.
func (d *Derived) Presentation() *Record {
	p := NewRecord()
	for _, f := range d.Fields.Fields() {
		if _, hidden := hiddenFields[f.Name]; hidden {
			continue
		}
		p.Set(f.Name, f.Value)
	}
	return p
}

// Get returns a field by name, hidden fields included.
func (d *Derived) Get(key string) (any, bool) {
	return d.Fields.Get(key)
}

func (d *Derived) number(raw *Record, key string) float64 {
	v, ok := raw.Get(key)
	if !ok {
		d.Issues = append(d.Issues, models.NewDataShapeError(key))
		return 0
	}
	f, _ := ParseLenient(v)
	return f
}

// displayValue renders a raw value the way the source page showed it.
func displayValue(raw *Record, key string) string {
	v, ok := raw.Get(key)
	if !ok || v == nil {
		return "0"
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// roundHalfUp rounds to the given number of decimals, halves toward +Inf.
// Non-finite inputs pass through unchanged.
func roundHalfUp(x float64, decimals int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	scale := math.Pow(10, float64(decimals))
	return math.Floor(x*scale+0.5) / scale
}
