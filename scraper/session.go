package scraper

import (
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/use-agent/finscrape/config"
	"github.com/use-agent/finscrape/models"
)

// Session is one browser instance with its countermeasure bundle applied.
// Pages are provisioned from it concurrently; a Session is never shared
// across processes.
type Session struct {
	browser *rod.Browser
	cm      Countermeasures
	owned   bool
}

// Launch starts a local Chromium with the countermeasure flags set and
// connects to it. The browser process is killed by Close.
func Launch(bc config.BrowserConfig, cm Countermeasures) (*Session, error) {
	l := launcher.New().
		Headless(bc.Headless).
		NoSandbox(bc.NoSandbox)

	if bc.BrowserBin != "" {
		l = l.Bin(bc.BrowserBin)
	}
	if bc.DefaultProxy != "" {
		l = l.Proxy(bc.DefaultProxy)
	}
	applyFlags(l)

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeConnection, "failed to launch browser", err)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	s, err := connect(controlURL, cm)
	if err != nil {
		return nil, err
	}
	s.owned = true
	return s, nil
}

// Connect attaches to an already running browser over its DevTools URL.
// Launch flags cannot be applied to a foreign process, so only the
// per-page part of cm takes effect. Close disconnects without killing it.
func Connect(controlURL string, cm Countermeasures) (*Session, error) {
	s, err := connect(controlURL, cm)
	if err != nil {
		return nil, err
	}
	slog.Info("attached to browser", "controlURL", controlURL)
	return s, nil
}

func connect(controlURL string, cm Countermeasures) (*Session, error) {
	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeConnection, "failed to connect to browser", err)
	}
	return &Session{browser: browser, cm: cm}, nil
}

// Close releases the browser.
func (s *Session) Close() error {
	if s.owned {
		slog.Info("closing browser")
	}
	// rod.Browser.Close kills a launched browser and drops the
	// connection to an attached one.
	return s.browser.Close()
}
