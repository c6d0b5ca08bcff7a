package scraper

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/use-agent/finscrape/config"
)

// Identity is the browser fingerprint presented by one provisioned page.
type Identity struct {
	UserAgent string
	Platform  string // navigator.platform, consistent with UserAgent
	Width     int
	Height    int
}

type uaTemplate struct {
	format   string
	platform string
	edge     bool
}

// Only Chromium-family desktop agents: the engine underneath is Chromium,
// and a Firefox or mobile agent would contradict the JS-visible features.
var uaTemplates = []uaTemplate{
	{"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%d.0.0.0 Safari/537.36", "Win32", false},
	{"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%d.0.0.0 Safari/537.36", "MacIntel", false},
	{"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%d.0.0.0 Safari/537.36", "Linux x86_64", false},
	{"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%d.0.0.0 Safari/537.36 Edg/%d.0.0.0", "Win32", true},
}

var chromeMajors = []int{128, 129, 130, 131, 132, 133, 134}

// IdentityRandomizer hands out a fresh random Identity per page.
// It is safe for concurrent use.
type IdentityRandomizer struct {
	mu     sync.Mutex
	rng    *rand.Rand
	width  int
	height int
	jitter int
}

// NewIdentityRandomizer creates a randomizer around the configured base
// viewport. A zero seed seeds from the clock.
func NewIdentityRandomizer(cfg config.ScraperConfig, seed uint64) *IdentityRandomizer {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &IdentityRandomizer{
		rng:    rand.New(rand.NewPCG(seed, seed>>1|1)),
		width:  cfg.ViewportWidth,
		height: cfg.ViewportHeight,
		jitter: cfg.ViewportJitter,
	}
}

// Next returns a random user agent and the base viewport plus
// [0, jitter) pixels on each axis.
func (g *IdentityRandomizer) Next() Identity {
	g.mu.Lock()
	defer g.mu.Unlock()

	tpl := uaTemplates[g.rng.IntN(len(uaTemplates))]
	major := chromeMajors[g.rng.IntN(len(chromeMajors))]

	ua := fmt.Sprintf(tpl.format, major)
	if tpl.edge {
		ua = fmt.Sprintf(tpl.format, major, major)
	}

	return Identity{
		UserAgent: ua,
		Platform:  tpl.platform,
		Width:     g.width + g.offset(),
		Height:    g.height + g.offset(),
	}
}

func (g *IdentityRandomizer) offset() int {
	if g.jitter <= 0 {
		return 0
	}
	return g.rng.IntN(g.jitter)
}
