package financials

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/use-agent/finscrape/models"
)

func sampleRecord() *Record {
	return RecordOf(
		Field{"Goodwill", "1,000"},
		Field{"Total Stockholders Equity", "2,000"},
		Field{"ROIC %", "12"},
		Field{"WACC %", "9"},
		Field{"ROE", "5"},
	)
}

func TestDerive_EndToEnd(t *testing.T) {
	d := Derive(sampleRecord())

	if d.Fields.Has(FieldROE) {
		t.Error("derived record still contains ROE")
	}
	ratio, _ := d.Get(FieldGoodwillToEquity)
	if ratio != Ratio(0.5) {
		t.Errorf("%s = %v, want 0.5", FieldGoodwillToEquity, ratio)
	}
	cmp, _ := d.Get(FieldROICvsWACC)
	if cmp != "12 > 9" {
		t.Errorf("%s = %q, want %q", FieldROICvsWACC, cmp, "12 > 9")
	}
	if len(d.Issues) != 0 {
		t.Errorf("unexpected issues: %v", d.Issues)
	}
}

func TestDerive_DoesNotModifyInput(t *testing.T) {
	raw := sampleRecord()
	Derive(raw)
	if !raw.Has(FieldROE) || raw.Has(FieldGoodwillToEquity) {
		t.Errorf("raw record modified: %v", raw.Keys())
	}
}

func TestDerive_NeverContainsROE(t *testing.T) {
	records := []*Record{
		NewRecord(),
		RecordOf(Field{"ROE", "5"}),
		RecordOf(Field{"ROE", nil}, Field{"ROE (10y Median)", "14"}),
	}
	for i, r := range records {
		d := Derive(r)
		if d.Fields.Has(FieldROE) {
			t.Errorf("record %d: derived contains ROE", i)
		}
		if i == 2 && !d.Fields.Has("ROE (10y Median)") {
			t.Errorf("record %d: ROE (10y Median) dropped", i)
		}
	}
}

func TestDerive_GoodwillRatio(t *testing.T) {
	tests := []struct {
		goodwill, equity string
		want             float64
	}{
		{"1,000", "2,000", 0.5},
		{"1", "3", 0.33},
		{"2", "3", 0.67},
		{"12,345,678", "1,000,000", 12.35},
		{"0", "5,000", 0},
		{"abc", "5,000", 0},
		{"-1,000", "4,000", -0.25},
	}

	for _, tt := range tests {
		t.Run(tt.goodwill+"/"+tt.equity, func(t *testing.T) {
			d := Derive(RecordOf(
				Field{FieldGoodwill, tt.goodwill},
				Field{FieldEquity, tt.equity},
				Field{FieldROIC, "1"},
				Field{FieldWACC, "1"},
			))
			got, _ := d.Get(FieldGoodwillToEquity)
			if got != Ratio(tt.want) {
				t.Errorf("ratio = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDerive_ZeroEquity(t *testing.T) {
	tests := []struct {
		name     string
		goodwill string
		check    func(float64) bool
		wantJSON string
	}{
		{"positive goodwill", "1,000", func(f float64) bool { return math.IsInf(f, 1) }, `"Infinity"`},
		{"negative goodwill", "-10", func(f float64) bool { return math.IsInf(f, -1) }, `"-Infinity"`},
		{"zero goodwill", "0", math.IsNaN, `"NaN"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Derive(RecordOf(
				Field{FieldGoodwill, tt.goodwill},
				Field{FieldEquity, "0"},
				Field{FieldROIC, "1"},
				Field{FieldWACC, "1"},
			))
			v, _ := d.Get(FieldGoodwillToEquity)
			ratio, ok := v.(Ratio)
			if !ok {
				t.Fatalf("ratio has type %T, want Ratio", v)
			}
			if !tt.check(float64(ratio)) {
				t.Errorf("ratio = %v", float64(ratio))
			}
			b, err := json.Marshal(d.Fields)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if !strings.Contains(string(b), `"Goodwill / Total Equity":`+tt.wantJSON) {
				t.Errorf("json = %s, want ratio encoded as %s", b, tt.wantJSON)
			}
		})
	}
}

func TestDerive_ROICComparison(t *testing.T) {
	tests := []struct {
		roic, wacc any
		want       string
	}{
		{"12", "9", "12 > 9"},
		{"9", "12", "9 < 12"},
		{"10", "10", "10 < 10"},
		{"10.0", "10", "10.0 < 10"},
		{"1,200", "900", "1,200 > 900"},
		{15.5, 7.25, "15.5 > 7.25"},
		{"n/a", "3", "n/a < 3"},
		{"-2", "n/a", "-2 < n/a"},
	}

	for _, tt := range tests {
		d := Derive(RecordOf(
			Field{FieldGoodwill, "0"},
			Field{FieldEquity, "1"},
			Field{FieldROIC, tt.roic},
			Field{FieldWACC, tt.wacc},
		))
		got, _ := d.Get(FieldROICvsWACC)
		if got != tt.want {
			t.Errorf("ROIC %v vs WACC %v = %q, want %q", tt.roic, tt.wacc, got, tt.want)
		}
	}
}

func TestDerive_MissingFieldsAreIssues(t *testing.T) {
	d := Derive(RecordOf(Field{FieldGoodwill, "0"}, Field{FieldROIC, "4"}))

	if len(d.Issues) != 2 {
		t.Fatalf("issues = %v, want 2 (equity, wacc)", d.Issues)
	}
	for _, err := range d.Issues {
		if !models.HasCode(err, models.ErrCodeDataShape) {
			t.Errorf("issue %v is not a data shape error", err)
		}
	}
	if !strings.Contains(d.Issues[0].Error(), FieldEquity) {
		t.Errorf("first issue = %v, want mention of %q", d.Issues[0], FieldEquity)
	}
	got, _ := d.Get(FieldROICvsWACC)
	if got != "4 > 0" {
		t.Errorf("comparison = %q, want %q", got, "4 > 0")
	}
}

func TestDerive_PresentationOrder(t *testing.T) {
	raw := RecordOf(
		Field{"Market Cap", "3,000"},
		Field{FieldGoodwill, "1,000"},
		Field{"ROE", "5"},
		Field{FieldEquity, "2,000"},
		Field{FieldROIC, "12"},
		Field{"PE Ratio (10y Median)", "18"},
		Field{FieldWACC, "9"},
	)
	d := Derive(raw)

	want := []string{
		"Market Cap",
		FieldEquity,
		"PE Ratio (10y Median)",
		FieldGoodwillToEquity,
		FieldROICvsWACC,
	}
	got := d.Presentation().Keys()
	if len(got) != len(want) {
		t.Fatalf("presentation keys = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("presentation[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	for _, hidden := range []string{FieldGoodwill, FieldROIC, FieldWACC} {
		if _, ok := d.Get(hidden); !ok {
			t.Errorf("hidden field %q not addressable", hidden)
		}
	}
}

func TestDerive_PassesThroughUnusedFields(t *testing.T) {
	raw := RecordOf(
		Field{"Shares Outstanding (Diluted Average)", "15,408"},
		Field{"Dividend Payout Ratio", "0.15"},
		Field{FieldGoodwill, "0"},
		Field{FieldEquity, "100"},
	)
	d := Derive(raw)

	pres := d.Presentation()
	for _, key := range []string{"Shares Outstanding (Diluted Average)", "Dividend Payout Ratio"} {
		want, _ := raw.Get(key)
		if got, ok := pres.Get(key); !ok || got != want {
			t.Errorf("%s = %v (present %v), want %v unchanged", key, got, ok, want)
		}
	}
}
