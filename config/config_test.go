package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Scraper.NavigationTimeout != 30*time.Second {
		t.Errorf("NavigationTimeout = %v, want 30s", cfg.Scraper.NavigationTimeout)
	}
	if cfg.Scraper.ViewportWidth != 1920 || cfg.Scraper.ViewportHeight != 3000 {
		t.Errorf("viewport = %dx%d, want 1920x3000", cfg.Scraper.ViewportWidth, cfg.Scraper.ViewportHeight)
	}
	want := []string{"Image", "Stylesheet", "Font"}
	if len(cfg.Scraper.BlockedResourceTypes) != len(want) {
		t.Fatalf("BlockedResourceTypes = %v, want %v", cfg.Scraper.BlockedResourceTypes, want)
	}
	for i := range want {
		if cfg.Scraper.BlockedResourceTypes[i] != want[i] {
			t.Errorf("BlockedResourceTypes[%d] = %q, want %q", i, cfg.Scraper.BlockedResourceTypes[i], want[i])
		}
	}
	if cfg.Sources.PETTMPath != "term/pettm/%s" {
		t.Errorf("PETTMPath = %q", cfg.Sources.PETTMPath)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GURUFOCUS", "https://fundamentals.test/")
	t.Setenv("MACROTRENDS", "https://statements.test/")
	t.Setenv("FINSCRAPE_NAV_TIMEOUT", "5s")
	t.Setenv("FINSCRAPE_BLOCKED_RESOURCES", "Image, Media ,")
	t.Setenv("FINSCRAPE_PORT", "not-a-number")

	cfg := Load()

	if cfg.Sources.FundamentalsHost != "https://fundamentals.test/" {
		t.Errorf("FundamentalsHost = %q", cfg.Sources.FundamentalsHost)
	}
	if cfg.Sources.StatementsHost != "https://statements.test/" {
		t.Errorf("StatementsHost = %q", cfg.Sources.StatementsHost)
	}
	if cfg.Scraper.NavigationTimeout != 5*time.Second {
		t.Errorf("NavigationTimeout = %v, want 5s", cfg.Scraper.NavigationTimeout)
	}
	if got := cfg.Scraper.BlockedResourceTypes; len(got) != 2 || got[0] != "Image" || got[1] != "Media" {
		t.Errorf("BlockedResourceTypes = %v, want [Image Media]", got)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d, want fallback 8080", cfg.Server.Port)
	}
}
