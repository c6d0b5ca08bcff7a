package scraper

import (
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/finscrape/models"
)

var resourceTypes = map[string]proto.NetworkResourceType{
	"Image":      proto.NetworkResourceTypeImage,
	"Stylesheet": proto.NetworkResourceTypeStylesheet,
	"Font":       proto.NetworkResourceTypeFont,
	"Media":      proto.NetworkResourceTypeMedia,
	"Script":     proto.NetworkResourceTypeScript,
}

// ResourceFilter aborts subresource requests that a table scrape never
// needs. Documents, scripts and XHR stay allowed unless configured
// otherwise, so client-rendered tables still populate.
type ResourceFilter struct {
	blocked map[proto.NetworkResourceType]struct{}
}

// NewResourceFilter builds a filter from config names such as "Image".
// Unknown names are ignored.
func NewResourceFilter(names []string) ResourceFilter {
	blocked := make(map[proto.NetworkResourceType]struct{}, len(names))
	for _, name := range names {
		if rt, ok := resourceTypes[name]; ok {
			blocked[rt] = struct{}{}
		}
	}
	return ResourceFilter{blocked: blocked}
}

// Blocks reports whether requests of type rt are aborted.
func (f ResourceFilter) Blocks(rt proto.NetworkResourceType) bool {
	_, ok := f.blocked[rt]
	return ok
}

// allow is the combined per-request verdict of the filter and the
// session's ad suppression.
func (f ResourceFilter) allow(cm Countermeasures, rt proto.NetworkResourceType, rawURL string) bool {
	return !f.Blocks(rt) && !cm.BlocksURL(rawURL)
}

// mount installs the interceptor on page. The returned router must be
// stopped when the page is released; it is nil when nothing is filtered.
func (f ResourceFilter) mount(page *rod.Page, cm Countermeasures) (*rod.HijackRouter, error) {
	if len(f.blocked) == 0 && !cm.blockAds {
		return nil, nil
	}

	router := page.HijackRequests()
	err := router.Add("*", "", func(h *rod.Hijack) {
		if !f.allow(cm, h.Request.Type(), h.Request.URL().String()) {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeConnection, "failed to install request filter", err)
	}

	// Run blocks until Stop.
	go router.Run()
	return router, nil
}
