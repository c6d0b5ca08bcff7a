package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/subcommands"
	"github.com/use-agent/finscrape/config"
	"github.com/use-agent/finscrape/financials"
	"github.com/use-agent/finscrape/scraper"
)

type scrapeCmd struct {
	kind    string
	symbol  bool
	derive  bool
	timeout time.Duration
}

func (*scrapeCmd) Name() string     { return "scrape" }
func (*scrapeCmd) Synopsis() string { return "scrape one page into a raw record" }
func (*scrapeCmd) Usage() string {
	return `finctl scrape [-kind financials|pettm|statement] [-symbol] [-derive] <path | symbol>

  Launches a browser (or attaches to FINSCRAPE_CDP_URL), provisions a
  page for the path on the host serving the kind, and prints the
  label/value rows found on it.
`
}

func (c *scrapeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.kind, "kind", "financials", "Page kind: financials, pettm or statement.")
	f.BoolVar(&c.symbol, "symbol", false, "Treat the argument as a symbol and build the path from the configured template.")
	f.BoolVar(&c.derive, "derive", false, "Print the derived record instead of the raw one.")
	f.DurationVar(&c.timeout, "timeout", 60*time.Second, "Overall deadline.")
}

func (c *scrapeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "scrape: expected exactly one path")
		return subcommands.ExitUsageError
	}
	kind, err := scraper.ParseKind(c.kind)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}

	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	cm := scraper.DefaultCountermeasures(cfg.Scraper.BlockAds)
	var session *scraper.Session
	if cfg.Browser.ControlURL != "" {
		session, err = scraper.Connect(cfg.Browser.ControlURL, cm)
	} else {
		session, err = scraper.Launch(cfg.Browser, cm)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	sc, err := scraper.New(session, cfg.Browser, cfg.Scraper, cfg.Sources)
	if err != nil {
		_ = session.Close()
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer sc.Close()

	path := f.Arg(0)
	if c.symbol {
		if path, err = sc.PathFor(kind, path); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitUsageError
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	rec, err := sc.Fetch(ctx, kind, path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	if c.derive {
		d := financials.Derive(rec)
		for _, issue := range d.Issues {
			fmt.Fprintln(os.Stderr, "warning:", issue)
		}
		rec = d.Presentation()
	}
	printRecord(os.Stdout, rec)
	return subcommands.ExitSuccess
}
