package scraper

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"
)

// Countermeasures is the anti-detection bundle of a Session. Launch flags
// are applied once to the browser process; the rest is replayed onto every
// page before it is exposed to a caller.
type Countermeasures struct {
	script   string
	blockAds bool
}

// DefaultCountermeasures returns the stealth patches plus optional
// ad and tracker suppression.
func DefaultCountermeasures(blockAds bool) Countermeasures {
	return Countermeasures{script: stealth.JS, blockAds: blockAds}
}

// BlocksURL reports whether rawURL targets a known ad or tracking host.
func (c Countermeasures) BlocksURL(rawURL string) bool {
	if !c.blockAds {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return isAdDomain(u.Hostname())
}

// applyFlags hides the automation markers Chromium exposes by default.
func applyFlags(l *launcher.Launcher) {
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))
}

// patch installs the stealth script and a search-engine referer on a
// fresh page. Both are best effort: a page without them still loads.
func (c Countermeasures) patch(page *rod.Page, target string) {
	if c.script != "" {
		if _, err := page.EvalOnNewDocument(c.script); err != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", err)
		}
	}

	u, err := url.Parse(target)
	if err != nil {
		return
	}
	err = proto.NetworkSetExtraHTTPHeaders{Headers: proto.NetworkHeaders{
		"Referer": gson.New("https://www.google.com/search?q=" + url.QueryEscape(u.Hostname())),
	}}.Call(page)
	if err != nil {
		slog.Debug("referer header not set", "error", err)
	}
}

var adDomains = map[string]struct{}{
	"doubleclick.net":               {},
	"googlesyndication.com":         {},
	"googleadservices.com":          {},
	"google-analytics.com":          {},
	"googletagmanager.com":          {},
	"googletagservices.com":         {},
	"facebook.net":                  {},
	"adnxs.com":                     {},
	"adsrvr.org":                    {},
	"amazon-adsystem.com":           {},
	"criteo.com":                    {},
	"criteo.net":                    {},
	"outbrain.com":                  {},
	"taboola.com":                   {},
	"moatads.com":                   {},
	"pubmatic.com":                  {},
	"rubiconproject.com":            {},
	"scorecardresearch.com":         {},
	"quantserve.com":                {},
	"hotjar.com":                    {},
	"mixpanel.com":                  {},
	"segment.io":                    {},
	"chartbeat.com":                 {},
	"media.net":                     {},
	"openx.net":                     {},
	"casalemedia.com":               {},
	"demdex.net":                    {},
	"krxd.net":                      {},
	"bluekai.com":                   {},
	"sharethis.com":                 {},
	"consensu.org":                  {},
	"cdn.confiant-integrations.net": {},
	"adthrive.com":                  {},
	"lijit.com":                     {},
	"sovrn.com":                     {},
}

// isAdDomain matches host or any of its parent domains.
func isAdDomain(host string) bool {
	host = strings.ToLower(host)
	for host != "" {
		if _, ok := adDomains[host]; ok {
			return true
		}
		idx := strings.IndexByte(host, '.')
		if idx < 0 {
			break
		}
		host = host[idx+1:]
	}
	return false
}
