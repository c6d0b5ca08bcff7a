package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Scraper   ScraperConfig
	Sources   SourceConfig
	Registry  RegistryConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Store     StoreConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxPages caps the number of concurrently provisioned pages.
	MaxPages int // default: 10

	// DefaultProxy is the proxy URL for all browser traffic.
	DefaultProxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// ControlURL attaches to an already running browser instead of launching one.
	ControlURL string
}

// ScraperConfig controls page provisioning and extraction.
type ScraperConfig struct {
	// NavigationTimeout bounds provisioning a page, from opening the tab
	// until DOMContentLoaded.
	NavigationTimeout time.Duration // default: 30s

	// MaxTimeout is the maximum allowed timeout from the client.
	MaxTimeout time.Duration // default: 120s

	// BlockedResourceTypes lists resource types aborted by the request filter.
	// default: ["Image", "Stylesheet", "Font"]
	BlockedResourceTypes []string

	// BlockAds aborts requests to known ad and tracker hosts.
	BlockAds bool // default: true

	// ViewportWidth and ViewportHeight are the base viewport before jitter.
	ViewportWidth  int // default: 1920
	ViewportHeight int // default: 3000

	// ViewportJitter is the exclusive upper bound of the random pixels added
	// to each viewport dimension.
	ViewportJitter int // default: 100

	// RowSelector matches the label/value rows of a financial data table.
	RowSelector string // default: "table tr"
}

// SourceConfig holds the upstream hosts pages are routed to.
type SourceConfig struct {
	// FundamentalsHost serves financials and P/E TTM pages.
	FundamentalsHost string // env GURUFOCUS

	// StatementsHost serves every other page.
	StatementsHost string // env MACROTRENDS

	// FinancialsPath and PETTMPath are fmt templates taking the symbol.
	FinancialsPath string // default: "stock/%s/financials"
	PETTMPath      string // default: "term/pettm/%s"
}

// RegistryConfig controls the ticker registry client.
type RegistryConfig struct {
	// URL serves the ticker list as JSON. Empty disables ticker joins.
	URL string

	// TTL is how long a fetched ticker list is reused.
	TTL time.Duration // default: 48h

	// RequestsPerSecond paces upstream registry calls.
	RequestsPerSecond float64 // default: 1
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per API key.
	Burst int // default: 10
}

// CacheConfig controls the scrape result cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached records.
	MaxEntries int // default: 1000

	// DefaultMaxAge applies to GET endpoints without a max_age query.
	DefaultMaxAge time.Duration // default: 2h
}

// StoreConfig controls the expense store.
type StoreConfig struct {
	// DatabaseURL is a Postgres DSN. Empty selects the in-memory store.
	DatabaseURL string
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("FINSCRAPE_HOST", "0.0.0.0"),
			Port: envIntOr("FINSCRAPE_PORT", 8080),
			Mode: envOr("FINSCRAPE_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:     envBoolOr("FINSCRAPE_HEADLESS", true),
			MaxPages:     envIntOr("FINSCRAPE_MAX_PAGES", 10),
			DefaultProxy: os.Getenv("FINSCRAPE_PROXY"),
			NoSandbox:    envBoolOr("FINSCRAPE_NO_SANDBOX", false),
			BrowserBin:   os.Getenv("FINSCRAPE_BROWSER_BIN"),
			ControlURL:   os.Getenv("FINSCRAPE_CDP_URL"),
		},
		Scraper: ScraperConfig{
			NavigationTimeout: envDurationOr("FINSCRAPE_NAV_TIMEOUT", 30*time.Second),
			MaxTimeout:        envDurationOr("FINSCRAPE_MAX_TIMEOUT", 120*time.Second),
			BlockedResourceTypes: envSliceOr("FINSCRAPE_BLOCKED_RESOURCES", []string{
				"Image", "Stylesheet", "Font",
			}),
			BlockAds:       envBoolOr("FINSCRAPE_BLOCK_ADS", true),
			ViewportWidth:  envIntOr("FINSCRAPE_VIEWPORT_WIDTH", 1920),
			ViewportHeight: envIntOr("FINSCRAPE_VIEWPORT_HEIGHT", 3000),
			ViewportJitter: envIntOr("FINSCRAPE_VIEWPORT_JITTER", 100),
			RowSelector:    envOr("FINSCRAPE_ROW_SELECTOR", "table tr"),
		},
		Sources: SourceConfig{
			FundamentalsHost: envOr("GURUFOCUS", "https://www.gurufocus.com/"),
			StatementsHost:   envOr("MACROTRENDS", "https://www.macrotrends.net/"),
			FinancialsPath:   envOr("FINSCRAPE_FINANCIALS_PATH", "stock/%s/financials"),
			PETTMPath:        envOr("FINSCRAPE_PETTM_PATH", "term/pettm/%s"),
		},
		Registry: RegistryConfig{
			URL:               os.Getenv("FINSCRAPE_TICKERS_URL"),
			TTL:               envDurationOr("FINSCRAPE_TICKERS_TTL", 48*time.Hour),
			RequestsPerSecond: envFloatOr("FINSCRAPE_TICKERS_RPS", 1.0),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("FINSCRAPE_AUTH_ENABLED", true),
			APIKeys: envSliceOr("FINSCRAPE_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("FINSCRAPE_RATE_RPS", 5.0),
			Burst:             envIntOr("FINSCRAPE_RATE_BURST", 10),
		},
		Cache: CacheConfig{
			MaxEntries:    envIntOr("CACHE_MAX_ENTRIES", 1000),
			DefaultMaxAge: envDurationOr("CACHE_DEFAULT_MAX_AGE", 2*time.Hour),
		},
		Store: StoreConfig{
			DatabaseURL: os.Getenv("DATABASE_URL"),
		},
		Log: LogConfig{
			Level:  envOr("FINSCRAPE_LOG_LEVEL", "info"),
			Format: envOr("FINSCRAPE_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
