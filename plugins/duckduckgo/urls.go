package duckduckgo

import "net/url"

const (
	DefaultAPIBase  = "https://api.duckduckgo.com/"
	DefaultSiteBase = "https://duckduckgo.com/"
)

// URLBuilder builds instant answer API and browser URLs. The zero value
// targets the public DuckDuckGo endpoints.
type URLBuilder struct {
	APIBase  string
	SiteBase string
}

func (b URLBuilder) apiBase() string {
	if b.APIBase == "" {
		return DefaultAPIBase
	}
	return b.APIBase
}

func (b URLBuilder) siteBase() string {
	if b.SiteBase == "" {
		return DefaultSiteBase
	}
	return b.SiteBase
}

// Build returns the API URL for text. QR queries keep HTML in the answer
// because the image arrives as an <img> tag.
func (b URLBuilder) Build(text string, qr bool) string {
	if qr {
		return b.apiBase() + "?q=qrcode+" + url.QueryEscape(text) + "&format=json"
	}
	return b.apiBase() + "?q=" + url.QueryEscape(text) + "&format=json&no_html=1"
}

// Web returns the browser search URL for text
func (b URLBuilder) Web(text string) string {
	return b.siteBase() + "?q=" + url.QueryEscape(text)
}
