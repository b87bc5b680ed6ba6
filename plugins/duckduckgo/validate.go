package duckduckgo

import (
	"strings"

	"ddgplugin/search"
)

const (
	DefaultSearchTag = "duck"
	DefaultQRTag     = "qrcode"
)

// Validator decides what to do with a query
type Validator struct {
	SearchTag string
	QRTag     string
}

// Validate trims text and maps the tag onto an action. Untagged queries are
// normal searches; unknown tags reject the query outright.
func (v Validator) Validate(text, tag string) (search.Action, string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return search.ActionReject, ""
	}

	searchTag, qrTag := v.SearchTag, v.QRTag
	if searchTag == "" {
		searchTag = DefaultSearchTag
	}
	if qrTag == "" {
		qrTag = DefaultQRTag
	}

	switch strings.TrimSpace(tag) {
	case "", searchTag:
		return search.ActionNormal, text
	case qrTag:
		return search.ActionQrCode, text
	default:
		return search.ActionReject, ""
	}
}

// Validate checks a query against the default tags
func Validate(text, tag string) (search.Action, string) {
	return Validator{}.Validate(text, tag)
}
