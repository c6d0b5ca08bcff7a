// Package financials holds scraped financial records and the derived
// valuation metrics computed from them.
package financials

import (
	"encoding/json"
	"math"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Record maps field names to scraped values in the order the source page
// listed them. Values are strings or float64s; anything else is tolerated
// and treated as non-numeric.
type Record struct {
	fields *orderedmap.OrderedMap[string, any]
}

// Field is one name/value pair of a Record.
type Field struct {
	Name  string
	Value any
}

// NewRecord returns an empty record.
func NewRecord() *Record {
	return &Record{fields: orderedmap.New[string, any]()}
}

// RecordOf builds a record from pairs, keeping their order.
func RecordOf(pairs ...Field) *Record {
	r := NewRecord()
	for _, p := range pairs {
		r.Set(p.Name, p.Value)
	}
	return r
}

// Set stores a value. An existing key keeps its position.
func (r *Record) Set(key string, value any) {
	r.fields.Set(key, value)
}

// Get returns the value stored under key.
func (r *Record) Get(key string) (any, bool) {
	return r.fields.Get(key)
}

// Has reports whether key is present, even with an empty value.
func (r *Record) Has(key string) bool {
	_, ok := r.fields.Get(key)
	return ok
}

// Delete removes key and reports whether it was present.
func (r *Record) Delete(key string) bool {
	_, ok := r.fields.Delete(key)
	return ok
}

// Len returns the number of fields.
func (r *Record) Len() int {
	return r.fields.Len()
}

// Keys returns the field names in record order.
func (r *Record) Keys() []string {
	keys := make([]string, 0, r.fields.Len())
	for p := r.fields.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	return keys
}

// Fields returns the name/value pairs in record order.
func (r *Record) Fields() []Field {
	out := make([]Field, 0, r.fields.Len())
	for p := r.fields.Oldest(); p != nil; p = p.Next() {
		out = append(out, Field{Name: p.Key, Value: p.Value})
	}
	return out
}

// Clone returns a shallow copy that can be modified independently.
func (r *Record) Clone() *Record {
	c := NewRecord()
	for p := r.fields.Oldest(); p != nil; p = p.Next() {
		c.fields.Set(p.Key, p.Value)
	}
	return c
}

// MarshalJSON encodes the record as a JSON object in record order.
func (r *Record) MarshalJSON() ([]byte, error) {
	return r.fields.MarshalJSON()
}

// UnmarshalJSON decodes a JSON object, keeping the key order of the input.
func (r *Record) UnmarshalJSON(data []byte) error {
	if r.fields == nil {
		r.fields = orderedmap.New[string, any]()
	}
	return r.fields.UnmarshalJSON(data)
}

// Ratio is a computed ratio. Division by zero is not guarded, so a Ratio
// may be +Inf, -Inf or NaN; those encode as the JSON strings "Infinity",
// "-Infinity" and "NaN" since JSON numbers cannot carry them.
type Ratio float64

func (q Ratio) MarshalJSON() ([]byte, error) {
	f := float64(q)
	switch {
	case math.IsNaN(f):
		return []byte(`"NaN"`), nil
	case math.IsInf(f, 1):
		return []byte(`"Infinity"`), nil
	case math.IsInf(f, -1):
		return []byte(`"-Infinity"`), nil
	}
	return json.Marshal(f)
}
