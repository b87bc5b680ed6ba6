package duckduckgo

import (
	"context"
	"iter"

	"ddgplugin/action"
	"ddgplugin/logs"
	"ddgplugin/metrics"
	"ddgplugin/models"
	"ddgplugin/search"
)

const (
	PluginName = "DuckDuckGo Instant Answers"
	resultIcon = "\uF78B"
)

func init() {
	search.RegisterPlugin(PluginName, func(settings *models.Settings) (search.Plugin, error) {
		return New(settings)
	})
}

// Plugin implements search.Plugin on top of the DuckDuckGo Instant Answer API.
// It holds no mutable state and can serve concurrent queries.
type Plugin struct {
	urls      URLBuilder
	validator Validator
	fetcher   Fetcher
	info      search.PluginInfo
}

var _ search.Plugin = (*Plugin)(nil)

// New builds the plugin from settings, falling back to defaults when nil
func New(settings *models.Settings) (*Plugin, error) {
	if settings == nil {
		settings = models.DefaultSettings()
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return NewWithFetcher(settings, NewClient(settings.UserAgent, settings.Timeout())), nil
}

// NewWithFetcher builds the plugin around a custom fetcher
func NewWithFetcher(settings *models.Settings, fetcher Fetcher) *Plugin {
	if settings == nil {
		settings = models.DefaultSettings()
	}
	validator := Validator{SearchTag: settings.SearchTag, QRTag: settings.QRTag}
	return &Plugin{
		urls:      URLBuilder{APIBase: settings.APIEndpoint, SiteBase: settings.SiteURL},
		validator: validator,
		fetcher:   fetcher,
		info: search.PluginInfo{
			Name:        PluginName,
			Description: "Show DuckDuckGo Instant Answers",
			IconGlyph:   resultIcon,
			Tags: []search.Tag{
				{Name: nonEmpty(validator.SearchTag, DefaultSearchTag), Description: "Show DuckDuckGo Instant Answers", IconGlyph: resultIcon},
				{Name: nonEmpty(validator.QRTag, DefaultQRTag), Description: "Display QR Code of Images", IconGlyph: "\uED14"},
			},
			Operations:          action.AllOperations,
			MinimumSearchLength: 1,
			SearchTagOnly:       false,
		},
	}
}

func (p *Plugin) Info() search.PluginInfo { return p.info }

// URLs exposes the plugin's URL builder, used by the host for fallbacks
func (p *Plugin) URLs() URLBuilder { return p.urls }

// Search validates the query, fetches once and streams the derived records.
// Nothing is yielded once ctx is done.
func (p *Plugin) Search(ctx context.Context, q search.Query) iter.Seq2[models.ResultRecord, error] {
	return func(yield func(models.ResultRecord, error) bool) {
		ctx := logs.WithNewLogID(ctx)

		act, text := p.validator.Validate(q.Text, q.Tag)
		metrics.Queries.WithLabelValues(act.String()).Inc()
		logs.CtxDebug(ctx, "query %q tag %q -> %s", q.Text, q.Tag, act)

		emit := func(rec models.ResultRecord) bool {
			if ctx.Err() != nil {
				return false
			}
			metrics.Results.WithLabelValues(rec.Kind.String()).Inc()
			return yield(rec, nil)
		}

		switch act {
		case search.ActionQrCode:
			rec, err := p.searchQR(ctx, text)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				logs.CtxError(ctx, "qr extraction for %q failed: %v", text, err)
				yield(models.ResultRecord{}, err)
				return
			}
			if rec != nil {
				emit(*rec)
			}

		case search.ActionNormal:
			api := p.fetcher.Fetch(ctx, p.urls.Build(text, false))
			if api == nil || ctx.Err() != nil {
				return
			}
			count := 0
			for rec := range NewFactory(api, text, p.urls).All() {
				if !emit(rec) {
					return
				}
				count++
			}
			logs.CtxDebug(ctx, "emitted %d records for %q", count, text)
		}
	}
}

// searchQR returns the QR record for text, or nil when the API has none
func (p *Plugin) searchQR(ctx context.Context, text string) (*models.ResultRecord, error) {
	api := p.fetcher.Fetch(ctx, p.urls.Build(text, true))
	if api == nil {
		return nil, nil
	}
	qr, err := ExtractQR(api)
	if err != nil || qr == nil {
		return nil, err
	}
	return &models.ResultRecord{
		Info:         text,
		Label:        labelQR,
		SourceURL:    p.urls.Web(qrAnswerType + " " + text),
		SearchedText: text,
		Kind:         models.KindQrCode,
		Score:        score(bandAnswer, text, text),
		Image:        qr.Bytes,
	}, nil
}

// Rehydrate rebuilds a record from its identity. Answers and plain search
// results come straight from the identity; definitions and abstracts are
// re-fetched and QR codes re-extracted so their content is current.
func (p *Plugin) Rehydrate(ctx context.Context, id models.Identity) (*models.ResultRecord, error) {
	ctx = logs.WithNewLogID(ctx)
	base := id.Record()

	switch id.Kind {
	case models.KindDefinition, models.KindAbstract:
		api := p.fetcher.Fetch(ctx, p.urls.Build(id.SearchedText, false))
		if api == nil {
			return nil, nil
		}
		rec, ok := NewFactory(api, id.SearchedText, p.urls).InstantAnswer(id.Kind)
		if !ok {
			logs.CtxDebug(ctx, "%s for %q is gone", id.Kind, id.SearchedText)
			return nil, nil
		}
		return &rec, nil

	case models.KindQrCode:
		rec, err := p.searchQR(ctx, id.SearchedText)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			return &base, nil
		}
		return rec, nil

	default:
		return &base, nil
	}
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
