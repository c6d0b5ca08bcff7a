package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"
	"github.com/use-agent/finscrape/config"
	"github.com/use-agent/finscrape/ticker"
)

type matchCmd struct {
	tickers string
}

func (*matchCmd) Name() string     { return "match" }
func (*matchCmd) Synopsis() string { return "find a symbol in the ticker registry" }
func (*matchCmd) Usage() string {
	return `finctl match [-tickers <file>] <symbol>

  Looks the symbol up in a ticker list file, or in the registry at
  FINSCRAPE_TICKERS_URL when -tickers is not given.
`
}

func (c *matchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.tickers, "tickers", "", "JSON file with the ticker list.")
}

func (c *matchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "match: expected exactly one symbol")
		return subcommands.ExitUsageError
	}
	symbol := f.Arg(0)

	list, err := c.load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	m, err := ticker.Match(list, symbol)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	s := ticker.Summarize(m)
	fmt.Printf("%s  %s\n", s.Symbol, s.Name)
	fmt.Printf("sector      %s / %s\n", s.Sector, s.Industry)
	fmt.Printf("country     %s\n", s.Country)
	fmt.Printf("ipo year    %s\n", s.IPOYear)
	fmt.Printf("market cap  %s%s\n", s.MarketCap, marker(s.MarketCapHealthy))
	fmt.Printf("last sale   %s%s\n", s.LastSale, marker(s.PriceHealthy))
	return subcommands.ExitSuccess
}

func (c *matchCmd) load(ctx context.Context) ([]ticker.Metadata, error) {
	if c.tickers == "" {
		reg := ticker.NewRegistry(config.Load().Registry)
		defer reg.Close()
		ctx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		return reg.List(ctx)
	}

	data, err := os.ReadFile(c.tickers)
	if err != nil {
		return nil, err
	}
	var list []ticker.Metadata
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("%s: %w", c.tickers, err)
	}
	return list, nil
}

func marker(ok bool) string {
	if ok {
		return "  ✓"
	}
	return "  ✗"
}
