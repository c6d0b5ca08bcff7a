package models

// ScrapeRequest is the payload for POST /api/v1/scrape.
type ScrapeRequest struct {
	// Kind selects the upstream source: "financials" and "pettm" pages live on
	// the fundamentals host, "statement" pages on the statements host.
	Kind string `json:"kind" binding:"required,oneof=financials pettm statement"`

	// Path is the page path relative to the selected base host. Required.
	Path string `json:"path" binding:"required"`

	// Timeout is the maximum duration in seconds for provisioning and
	// extraction. Default: 30. Max: 120.
	Timeout int `json:"timeout,omitempty" binding:"omitempty,min=1,max=120"`

	// MaxAge allows a cached result younger than MaxAge milliseconds to be
	// returned instead of scraping again. 0 disables the cache.
	MaxAge int `json:"max_age,omitempty" binding:"omitempty,min=0"`
}

// Defaults applies default values to unset fields.
func (r *ScrapeRequest) Defaults() {
	if r.Timeout == 0 {
		r.Timeout = 30
	}
}
