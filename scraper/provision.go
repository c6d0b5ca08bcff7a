package scraper

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/finscrape/config"
	"github.com/use-agent/finscrape/models"
)

// PageContext is a page that has finished navigating to its target with
// identity, countermeasures and filtering applied. The caller owns it and
// must Close it.
type PageContext struct {
	Page     *rod.Page
	Identity Identity
	Kind     Kind
	URL      string

	router  *rod.HijackRouter
	release context.CancelFunc
	once    sync.Once
	err     error
}

// closeTimeout bounds tab teardown so a wedged browser cannot pin a slot.
const closeTimeout = 5 * time.Second

// HTML returns the rendered document.
func (pc *PageContext) HTML(ctx context.Context) (string, error) {
	html, err := pc.Page.Context(ctx).HTML()
	if err != nil {
		return "", categorizeError(err, "failed to extract page HTML")
	}
	return html, nil
}

// Close stops request filtering and closes the tab. It is idempotent.
func (pc *PageContext) Close() error {
	pc.once.Do(func() {
		if pc.router != nil {
			if err := pc.router.Stop(); err != nil {
				slog.Debug("request filter stop failed", "error", err)
			}
		}
		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		pc.err = pc.Page.Context(ctx).Close()
		if pc.release != nil {
			pc.release()
		}
	})
	return pc.err
}

// Provisioner turns a (kind, path) request into a navigated PageContext.
type Provisioner struct {
	identities *IdentityRandomizer
	filter     ResourceFilter
	router     Router
	timeout    time.Duration
}

// NewProvisioner wires the per-page pipeline from configuration.
func NewProvisioner(sc config.ScraperConfig, src config.SourceConfig) *Provisioner {
	timeout := sc.NavigationTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Provisioner{
		identities: NewIdentityRandomizer(sc, 0),
		filter:     NewResourceFilter(sc.BlockedResourceTypes),
		router:     NewRouter(src),
		timeout:    timeout,
	}
}

// Router exposes the URL router so callers can build per-symbol paths.
func (p *Provisioner) Router() Router { return p.router }

// Provision opens a page on s and drives it to relPath on the host serving
// kind. On return the main document has fired DOMContentLoaded. The steps
// run in a fixed order:
//
//  1. tab opened and countermeasures patched
//  2. identity (viewport, touch off, user agent)
//  3. navigation intent registered
//  4. request filter mounted
//  5. navigation issued
//  6. wait for the intent
//
// The whole call, tab creation included, is bounded by the navigation
// timeout. The intent must exist before Navigate or a fast load is missed
// and the wait hangs until timeout.
func (p *Provisioner) Provision(ctx context.Context, s *Session, kind Kind, relPath string) (*PageContext, error) {
	// Resolve first so a bad request never opens a tab.
	target, err := p.router.Resolve(kind, relPath)
	if err != nil {
		return nil, err
	}

	navCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	// The tab and its request filter live until Close, past navCtx. Until
	// the page is ready, navCtx ending tears that lifetime down too.
	lifeCtx, release := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(navCtx, release)

	page, err := s.browser.Context(lifeCtx).Page(proto.TargetCreateTarget{})
	if err != nil {
		stop()
		release()
		return nil, setupError(navCtx, err, "failed to open page")
	}

	pc := &PageContext{Page: page, Kind: kind, URL: target, release: release}
	ready := false
	defer func() {
		if !ready {
			_ = pc.Close()
		}
	}()

	np := page.Context(navCtx)
	s.cm.patch(np, target)

	pc.Identity = p.identities.Next()
	if err := applyIdentity(np, pc.Identity); err != nil {
		return nil, setupError(navCtx, err, "failed to apply page identity")
	}

	// Page.domContentEventFired is emitted for the main frame only.
	wait := np.WaitEvent(&proto.PageDomContentEventFired{})

	pc.router, err = p.filter.mount(page, s.cm)
	if err != nil {
		return nil, setupError(navCtx, err, "failed to install request filter")
	}

	if err := np.Navigate(target); err != nil {
		return nil, categorizeError(err, "navigation to "+target+" failed")
	}

	wait()
	if err := navCtx.Err(); err != nil {
		return nil, categorizeError(err, "navigation to "+target+" did not reach DOMContentLoaded")
	}
	if !stop() {
		// navCtx ended between the event and here; lifeCtx is already gone.
		return nil, categorizeError(navCtx.Err(), "navigation to "+target+" timed out")
	}

	slog.Debug("page provisioned",
		"kind", kind.String(),
		"url", target,
		"width", pc.Identity.Width,
		"height", pc.Identity.Height,
	)
	ready = true
	return pc, nil
}

// setupError reports a failure before navigation. A spent navigation
// budget is a timeout; anything else means the browser is unreachable.
func setupError(navCtx context.Context, err error, msg string) *models.ScrapeError {
	if ctxErr := navCtx.Err(); ctxErr != nil {
		return categorizeError(ctxErr, msg)
	}
	var se *models.ScrapeError
	if errors.As(err, &se) {
		return se
	}
	return models.NewScrapeError(models.ErrCodeConnection, msg, err)
}

func applyIdentity(page *rod.Page, id Identity) error {
	err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             id.Width,
		Height:            id.Height,
		DeviceScaleFactor: 1,
		Mobile:            false,
		ScreenOrientation: &proto.EmulationScreenOrientation{
			Type:  proto.EmulationScreenOrientationTypeLandscapePrimary,
			Angle: 90,
		},
	})
	if err != nil {
		return err
	}
	if err := (proto.EmulationSetTouchEmulationEnabled{Enabled: false}).Call(page); err != nil {
		return err
	}
	return page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      id.UserAgent,
		AcceptLanguage: "en-US,en;q=0.9",
		Platform:       id.Platform,
	})
}

// categorizeError wraps raw errors into typed ScrapeErrors so the API layer
// can map them to HTTP status codes.
func categorizeError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}
