package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"
	"github.com/use-agent/finscrape/financials"
)

type deriveCmd struct {
	all bool
}

func (*deriveCmd) Name() string     { return "derive" }
func (*deriveCmd) Synopsis() string { return "compute the derived valuation fields of a raw record" }
func (*deriveCmd) Usage() string {
	return `finctl derive [-all] <record.json | ->

  Reads a raw record (a JSON object of field names to values) and prints
  it with "Goodwill / Total Equity" and "ROIC > WACC" added, in record
  order. Missing inputs are reported on stderr and counted as 0.
`
}

func (c *deriveCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.all, "all", false, "Also print the hidden input fields (WACC %, ROIC %, Goodwill).")
}

func (c *deriveCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "derive: expected exactly one record file")
		return subcommands.ExitUsageError
	}

	raw, err := readRecord(f.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	d := financials.Derive(raw)
	for _, issue := range d.Issues {
		fmt.Fprintln(os.Stderr, "warning:", issue)
	}

	out := d.Presentation()
	if c.all {
		out = d.Fields
	}
	printRecord(os.Stdout, out)
	return subcommands.ExitSuccess
}

func readRecord(name string) (*financials.Record, error) {
	var r io.Reader = os.Stdin
	if name != "-" {
		fh, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		defer fh.Close()
		r = fh
	}

	rec := financials.NewRecord()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("%s: not a JSON object: %w", name, err)
	}
	return rec, nil
}

// printRecord writes one "name: value" line per field.
func printRecord(w io.Writer, rec *financials.Record) {
	width := 0
	for _, k := range rec.Keys() {
		width = max(width, len(k))
	}
	for _, f := range rec.Fields() {
		v := f.Value
		if q, ok := v.(financials.Ratio); ok {
			b, _ := q.MarshalJSON()
			v = string(b)
		}
		fmt.Fprintf(w, "%-*s  %v\n", width, f.Name, v)
	}
}
