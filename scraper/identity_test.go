package scraper

import (
	"strings"
	"testing"

	"github.com/use-agent/finscrape/config"
)

func TestIdentityRandomizer_Bounds(t *testing.T) {
	cfg := config.ScraperConfig{ViewportWidth: 1920, ViewportHeight: 3000, ViewportJitter: 100}
	g := NewIdentityRandomizer(cfg, 42)

	for i := 0; i < 500; i++ {
		id := g.Next()
		if id.Width < 1920 || id.Width >= 2020 {
			t.Fatalf("Width = %d, want [1920, 2020)", id.Width)
		}
		if id.Height < 3000 || id.Height >= 3100 {
			t.Fatalf("Height = %d, want [3000, 3100)", id.Height)
		}
		if !strings.HasPrefix(id.UserAgent, "Mozilla/5.0 (") || strings.Contains(id.UserAgent, "%") {
			t.Fatalf("malformed user agent %q", id.UserAgent)
		}
		if strings.Contains(id.UserAgent, "Mobile") {
			t.Fatalf("mobile user agent %q", id.UserAgent)
		}
	}
}

func TestIdentityRandomizer_PlatformMatchesAgent(t *testing.T) {
	g := NewIdentityRandomizer(config.ScraperConfig{ViewportWidth: 800, ViewportHeight: 600, ViewportJitter: 10}, 7)

	for i := 0; i < 200; i++ {
		id := g.Next()
		switch id.Platform {
		case "Win32":
			if !strings.Contains(id.UserAgent, "Windows NT") {
				t.Errorf("platform %q with agent %q", id.Platform, id.UserAgent)
			}
		case "MacIntel":
			if !strings.Contains(id.UserAgent, "Macintosh") {
				t.Errorf("platform %q with agent %q", id.Platform, id.UserAgent)
			}
		case "Linux x86_64":
			if !strings.Contains(id.UserAgent, "Linux") {
				t.Errorf("platform %q with agent %q", id.Platform, id.UserAgent)
			}
		default:
			t.Errorf("unexpected platform %q", id.Platform)
		}
	}
}

func TestIdentityRandomizer_Varies(t *testing.T) {
	g := NewIdentityRandomizer(config.ScraperConfig{ViewportWidth: 1920, ViewportHeight: 3000, ViewportJitter: 100}, 1)

	seen := make(map[Identity]struct{})
	for i := 0; i < 50; i++ {
		seen[g.Next()] = struct{}{}
	}
	if len(seen) < 40 {
		t.Errorf("only %d distinct identities out of 50", len(seen))
	}
}

func TestIdentityRandomizer_NoJitter(t *testing.T) {
	g := NewIdentityRandomizer(config.ScraperConfig{ViewportWidth: 1280, ViewportHeight: 720}, 3)
	id := g.Next()
	if id.Width != 1280 || id.Height != 720 {
		t.Errorf("viewport = %dx%d, want 1280x720", id.Width, id.Height)
	}
}
