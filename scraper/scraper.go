package scraper

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/andybalholm/cascadia"
	"github.com/use-agent/finscrape/config"
	"github.com/use-agent/finscrape/financials"
	"github.com/use-agent/finscrape/models"
)

// Scraper fetches financial records through provisioned pages of one
// Session. It is safe for concurrent use; at most MaxPages pages are open
// at a time.
type Scraper struct {
	session     *Session
	provisioner *Provisioner
	rows        cascadia.Matcher
	slots       chan struct{}
	maxPages    int
	activePages atomic.Int32
	startTime   time.Time
}

// New creates a Scraper over an existing session.
func New(session *Session, bc config.BrowserConfig, sc config.ScraperConfig, src config.SourceConfig) (*Scraper, error) {
	rows, err := CompileRowSelector(sc.RowSelector)
	if err != nil {
		return nil, err
	}
	maxPages := bc.MaxPages
	if maxPages <= 0 {
		maxPages = 1
	}
	slog.Info("scraper ready", "maxPages", maxPages, "rowSelector", sc.RowSelector)

	return &Scraper{
		session:     session,
		provisioner: NewProvisioner(sc, src),
		rows:        rows,
		slots:       make(chan struct{}, maxPages),
		maxPages:    maxPages,
		startTime:   time.Now(),
	}, nil
}

// Fetch provisions a page for (kind, relPath), extracts its label/value
// rows and releases the page.
func (s *Scraper) Fetch(ctx context.Context, kind Kind, relPath string) (*financials.Record, error) {
	select {
	case s.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, categorizeError(ctx.Err(), "waiting for a free page")
	}
	defer func() { <-s.slots }()

	s.activePages.Add(1)
	defer s.activePages.Add(-1)

	start := time.Now()
	pc, err := s.provisioner.Provision(ctx, s.session, kind, relPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := pc.Close(); err != nil {
			slog.Warn("page close failed", "url", pc.URL, "error", err)
		}
	}()

	html, err := pc.HTML(ctx)
	if err != nil {
		return nil, err
	}

	rec, err := ExtractFields(html, s.rows)
	if err != nil {
		return nil, err
	}

	slog.Info("page scraped",
		"kind", kind.String(),
		"url", pc.URL,
		"fields", rec.Len(),
		"elapsed", time.Since(start),
	)
	return rec, nil
}

// PathFor returns the host-relative path of symbol's page of kind.
func (s *Scraper) PathFor(kind Kind, symbol string) (string, error) {
	return s.provisioner.Router().PathFor(kind, symbol)
}

// Stats returns a snapshot of page usage.
func (s *Scraper) Stats() models.PoolStats {
	return models.PoolStats{
		MaxPages:    s.maxPages,
		ActivePages: int(s.activePages.Load()),
	}
}

// Uptime reports how long the scraper has been running.
func (s *Scraper) Uptime() time.Duration {
	return time.Since(s.startTime)
}

// Close closes the underlying session.
func (s *Scraper) Close() error {
	slog.Info("scraper shutting down")
	return s.session.Close()
}
