package models

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

// ResultKind tells the host which facet of an instant answer a record came from
type ResultKind int

const (
	KindAnswer ResultKind = iota
	KindDefinition
	KindAbstract
	KindQrCode
	KindSearchResult
)

var kindNames = map[ResultKind]string{
	KindAnswer:       "Answer",
	KindDefinition:   "Definition",
	KindAbstract:     "Abstract",
	KindQrCode:       "QrCode",
	KindSearchResult: "SearchResult",
}

func (k ResultKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ResultKind(%d)", int(k))
}

// ParseResultKind is the inverse of String
func ParseResultKind(s string) (ResultKind, error) {
	for k, name := range kindNames {
		if strings.EqualFold(name, s) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown result kind %q", s)
}

func (k ResultKind) MarshalText() ([]byte, error) {
	name, ok := kindNames[k]
	if !ok {
		return nil, fmt.Errorf("unknown result kind %d", int(k))
	}
	return []byte(name), nil
}

func (k *ResultKind) UnmarshalText(text []byte) error {
	parsed, err := ParseResultKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ResultRecord is the uniform result handed to the launcher
type ResultRecord struct {
	Info         string     // Text shown to the user, never empty once emitted
	Label        string     // Short kind label ("Define", "Links", a topic group name...)
	SourceURL    string     // Link for the record; empty only for instant answers
	SearchedText string     // Query text the record was derived from
	Kind         ResultKind
	Score        float64
	IsPinned     bool
	Image        []byte // Raw QR image bytes, QrCode records only
}

// HasImage reports whether the record carries a decodable preview
func (r *ResultRecord) HasImage() bool {
	return len(r.Image) > 0
}

// Identity returns the compact identity used to rehydrate the record later
func (r *ResultRecord) Identity() Identity {
	return Identity{
		SearchedText: r.SearchedText,
		Kind:         r.Kind,
		Info:         r.Info,
		Label:        r.Label,
		SourceURL:    r.SourceURL,
		Score:        r.Score,
	}
}

// ErrInvalidIdentity is returned for tokens that do not decode to an identity
var ErrInvalidIdentity = errors.New("invalid result identity")

// Identity is everything needed to rebuild a record without rerunning the search.
// Image bytes are deliberately not part of it; QR records are re-fetched instead.
type Identity struct {
	SearchedText string     `json:"searched_text"`
	Kind         ResultKind `json:"kind"`
	Info         string     `json:"info,omitempty"`
	Label        string     `json:"label,omitempty"`
	SourceURL    string     `json:"source_url,omitempty"`
	Score        float64    `json:"score,omitempty"`
}

var identityJSON = sonic.Config{SortMapKeys: true}.Froze()

// Encode renders the identity as an opaque, URL-safe token
func (id Identity) Encode() (string, error) {
	raw, err := identityJSON.Marshal(id)
	if err != nil {
		return "", fmt.Errorf("marshal identity: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// DecodeIdentity parses a token produced by Identity.Encode
func DecodeIdentity(token string) (Identity, error) {
	var id Identity
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(token))
	if err != nil {
		return id, fmt.Errorf("%w: %v", ErrInvalidIdentity, err)
	}
	if err := identityJSON.Unmarshal(raw, &id); err != nil {
		return id, fmt.Errorf("%w: %v", ErrInvalidIdentity, err)
	}
	if strings.TrimSpace(id.SearchedText) == "" {
		return id, fmt.Errorf("%w: missing searched text", ErrInvalidIdentity)
	}
	return id, nil
}

// Record turns the identity back into a record, without image
func (id Identity) Record() ResultRecord {
	return ResultRecord{
		Info:         id.Info,
		Label:        id.Label,
		SourceURL:    id.SourceURL,
		SearchedText: id.SearchedText,
		Kind:         id.Kind,
		Score:        id.Score,
	}
}
