package duckduckgo

import (
	"iter"
	"strings"

	"ddgplugin/models"
)

const (
	labelAnswer     = "Answer"
	labelDefinition = "Define"
	labelAbstract   = "Abstract"
	labelLinks      = "Links"
	labelRelated    = "Related"
	labelQR         = "QR"
)

// Factory turns one API response into result records
type Factory struct {
	api          *APIResult
	searchedText string
	urls         URLBuilder
}

func NewFactory(api *APIResult, searchedText string, urls URLBuilder) *Factory {
	if api == nil {
		api = &APIResult{}
	}
	return &Factory{api: api, searchedText: searchedText, urls: urls}
}

// InstantAnswer derives the Answer, Definition or Abstract record. It reports
// false for any other kind and when the facet is blank.
func (f *Factory) InstantAnswer(kind models.ResultKind) (models.ResultRecord, bool) {
	switch kind {
	case models.KindAnswer:
		label := strings.TrimSpace(f.api.AnswerType.String())
		if label == "" {
			label = labelAnswer
		}
		return f.record(kind, f.api.Answer.String(), label, "", bandAnswer)
	case models.KindDefinition:
		return f.record(kind, f.api.Definition.String(), labelDefinition, f.api.DefinitionURL.String(), bandDefinition)
	case models.KindAbstract:
		return f.record(kind, f.api.AbstractText.String(), labelAbstract, f.api.AbstractURL.String(), bandAbstract)
	}
	return models.ResultRecord{}, false
}

// RelatedTopics yields top-level topics labelled "Related", each followed by
// its sub-topics labelled with the group name.
func (f *Factory) RelatedTopics() iter.Seq[models.ResultRecord] {
	return func(yield func(models.ResultRecord) bool) {
		for _, topic := range f.api.RelatedTopics {
			if topic == nil {
				continue
			}
			if rec, ok := f.record(models.KindSearchResult, topic.Text.String(), labelRelated, topic.FirstURL.String(), bandRelated); ok {
				if !yield(rec) {
					return
				}
			}

			group := strings.TrimSpace(topic.Name.String())
			if group == "" {
				group = labelRelated
			}
			for _, sub := range topic.Topics {
				if sub == nil {
					continue
				}
				rec, ok := f.record(models.KindSearchResult, sub.Text.String(), group, sub.FirstURL.String(), bandSubTopic)
				if !ok {
					continue
				}
				if !yield(rec) {
					return
				}
			}
		}
	}
}

// ExternalLinks yields the response's Results entries labelled "Links"
func (f *Factory) ExternalLinks() iter.Seq[models.ResultRecord] {
	return func(yield func(models.ResultRecord) bool) {
		for _, link := range f.api.Results {
			if link == nil {
				continue
			}
			rec, ok := f.record(models.KindSearchResult, link.Text.String(), labelLinks, link.FirstURL.String(), bandLinks)
			if !ok {
				continue
			}
			if !yield(rec) {
				return
			}
		}
	}
}

// All yields every record in display order: answer, definition, abstract,
// links, then related topics.
func (f *Factory) All() iter.Seq[models.ResultRecord] {
	return func(yield func(models.ResultRecord) bool) {
		for _, kind := range []models.ResultKind{models.KindAnswer, models.KindDefinition, models.KindAbstract} {
			if rec, ok := f.InstantAnswer(kind); ok {
				if !yield(rec) {
					return
				}
			}
		}
		for rec := range f.ExternalLinks() {
			if !yield(rec) {
				return
			}
		}
		for rec := range f.RelatedTopics() {
			if !yield(rec) {
				return
			}
		}
	}
}

func (f *Factory) record(kind models.ResultKind, info, label, sourceURL string, band float64) (models.ResultRecord, bool) {
	if strings.TrimSpace(info) == "" {
		return models.ResultRecord{}, false
	}
	// Answers open the web search through the host's fallback instead
	if sourceURL == "" && kind != models.KindAnswer {
		sourceURL = f.urls.Web(f.searchedText)
	}
	return models.ResultRecord{
		Info:         info,
		Label:        label,
		SourceURL:    sourceURL,
		SearchedText: f.searchedText,
		Kind:         kind,
		Score:        score(band, info, f.searchedText),
	}, true
}
