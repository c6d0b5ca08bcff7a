package ticker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/use-agent/finscrape/cache"
	"github.com/use-agent/finscrape/config"
	"github.com/use-agent/finscrape/models"
	"golang.org/x/time/rate"
)

const (
	registryUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
	registryCacheKey  = "tickers"
	maxRegistryBody   = 32 << 20
)

// Registry fetches the ticker list from an upstream JSON endpoint and keeps
// it for a TTL. It is safe for concurrent use.
type Registry struct {
	url         string
	client      *http.Client
	limiter     *rate.Limiter
	cache       *cache.Cache[[]Metadata]
	ttl         time.Duration
	retryDelays []time.Duration
}

// NewRegistry creates a Registry for cfg.URL.
func NewRegistry(cfg config.RegistryConfig) *Registry {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	return &Registry{
		url:         cfg.URL,
		client:      newChromeClient(30 * time.Second),
		limiter:     rate.NewLimiter(rate.Limit(rps), 1),
		cache:       cache.New[[]Metadata](1, cfg.TTL),
		ttl:         cfg.TTL,
		retryDelays: []time.Duration{0, 1 * time.Second, 5 * time.Second},
	}
}

// Lookup returns the registry entry for symbol. See Match.
func (r *Registry) Lookup(ctx context.Context, symbol string) (Metadata, error) {
	tickers, err := r.List(ctx)
	if err != nil {
		return Metadata{}, err
	}
	return Match(tickers, symbol)
}

// List returns the full ticker list, from cache when fresh.
func (r *Registry) List(ctx context.Context) ([]Metadata, error) {
	if r.url == "" {
		return nil, models.NewScrapeError(models.ErrCodeUpstream, "ticker registry URL not configured", nil)
	}
	if tickers, ok := r.cache.Get(registryCacheKey, r.ttl); ok {
		return tickers, nil
	}

	var lastErr error
	for attempt, delay := range r.retryDelays {
		if delay > 0 {
			select {
			case <-ctx.Done():
				return nil, models.NewScrapeError(models.ErrCodeUpstream, "ticker registry fetch canceled", ctx.Err())
			case <-time.After(delay):
			}
		}
		tickers, err := r.fetch(ctx)
		if err == nil {
			r.cache.Set(registryCacheKey, tickers)
			slog.Info("ticker registry loaded", "count", len(tickers), "attempt", attempt+1)
			return tickers, nil
		}
		lastErr = err
		slog.Warn("ticker registry fetch failed",
			"url", r.url,
			"attempt", attempt+1,
			"error", err,
		)
	}
	return nil, models.NewScrapeError(models.ErrCodeUpstream, "ticker registry unavailable", lastErr)
}

// Close stops the registry's cache janitor.
func (r *Registry) Close() {
	r.cache.Stop()
}

func (r *Registry) fetch(ctx context.Context) ([]Metadata, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return nil, fmt.Errorf("registry: build request: %w", err)
	}
	req.Header.Set("User-Agent", registryUserAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("registry: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("registry: HTTP %d for %s", resp.StatusCode, r.url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRegistryBody))
	if err != nil {
		return nil, fmt.Errorf("registry: read body: %w", err)
	}
	return decodeTickers(body)
}

// decodeTickers accepts either a bare JSON array of rows or the screener
// envelope {"data": {"rows": [...]}}.
func decodeTickers(body []byte) ([]Metadata, error) {
	var rows []Metadata
	if err := json.Unmarshal(body, &rows); err == nil {
		return rows, nil
	}

	var envelope struct {
		Data struct {
			Rows []Metadata `json:"rows"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("registry: decode: %w", err)
	}
	if envelope.Data.Rows == nil {
		return nil, fmt.Errorf("registry: response has no ticker rows")
	}
	return envelope.Data.Rows, nil
}
