package duckduckgo

import (
	"encoding/base64"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ddgplugin/models"
	"ddgplugin/search"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		tag    string
		action search.Action
		out    string
	}{
		{"untagged", "golang", "", search.ActionNormal, "golang"},
		{"search tag", "golang", "duck", search.ActionNormal, "golang"},
		{"qr tag", "https://go.dev", "qrcode", search.ActionQrCode, "https://go.dev"},
		{"unknown tag", "golang", "steam", search.ActionReject, ""},
		{"tags are case sensitive", "golang", "Duck", search.ActionReject, ""},
		{"trims text", "  go lang \t", "", search.ActionNormal, "go lang"},
		{"trims tag", "golang", " qrcode ", search.ActionQrCode, "golang"},
		{"empty text", "", "", search.ActionReject, ""},
		{"whitespace text", "  \t", "duck", search.ActionReject, ""},
		{"whitespace text with qr tag", "   ", "qrcode", search.ActionReject, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			act, out := Validate(tt.text, tt.tag)
			assert.Equal(t, tt.action, act)
			assert.Equal(t, tt.out, out)

			again, againOut := Validate(out, tt.tag)
			if act != search.ActionReject {
				assert.Equal(t, act, again, "validate must be idempotent")
				assert.Equal(t, out, againOut)
			}
		})
	}
}

func TestValidator_CustomTags(t *testing.T) {
	v := Validator{SearchTag: "ddg", QRTag: "qr"}

	act, _ := v.Validate("x", "ddg")
	assert.Equal(t, search.ActionNormal, act)
	act, _ = v.Validate("x", "qr")
	assert.Equal(t, search.ActionQrCode, act)
	act, _ = v.Validate("x", "duck")
	assert.Equal(t, search.ActionReject, act)
}

func TestURLBuilder(t *testing.T) {
	var b URLBuilder

	for _, text := range []string{"golang", "a b&c", "ünïcode?", "100% sure"} {
		normal := b.Build(text, false)
		qr := b.Build(text, true)

		assert.Contains(t, normal, "no_html=1")
		assert.True(t, strings.HasPrefix(normal, DefaultAPIBase+"?q="))
		assert.NotContains(t, qr, "no_html=1")
		assert.Contains(t, qr, "qrcode+")
		assert.Contains(t, qr, "format=json")
	}

	assert.Equal(t, "https://api.duckduckgo.com/?q=a+b%26c&format=json&no_html=1", b.Build("a b&c", false))
	assert.Equal(t, "https://api.duckduckgo.com/?q=qrcode+a+b%26c&format=json", b.Build("a b&c", true))
	assert.Equal(t, "https://duckduckgo.com/?q=a+b%26c", b.Web("a b&c"))

	custom := URLBuilder{APIBase: "http://127.0.0.1:9/", SiteBase: "http://site/"}
	assert.Equal(t, "http://127.0.0.1:9/?q=x&format=json&no_html=1", custom.Build("x", false))
	assert.Equal(t, "http://site/?q=x", custom.Web("x"))
}

func TestExtractQR(t *testing.T) {
	want, err := base64.StdEncoding.DecodeString("AAAA")
	require.NoError(t, err)

	qr, err := ExtractQR(&APIResult{
		AnswerType: "qrcode",
		Answer:     `<div><img src="data:image/png;base64,AAAA"></div>`,
	})
	require.NoError(t, err)
	require.NotNil(t, qr)
	assert.Equal(t, want, qr.Bytes)
}

func TestExtractQR_Cases(t *testing.T) {
	t.Run("not a qr answer", func(t *testing.T) {
		qr, err := ExtractQR(&APIResult{AnswerType: "calc", Answer: `<img src="data:image/png;base64,AAAA">`})
		assert.NoError(t, err)
		assert.Nil(t, qr)

		qr, err = ExtractQR(&APIResult{AnswerType: "qrcode"})
		assert.NoError(t, err)
		assert.Nil(t, qr)

		qr, err = ExtractQR(nil)
		assert.NoError(t, err)
		assert.Nil(t, qr)
	})

	t.Run("no img element", func(t *testing.T) {
		_, err := ExtractQR(&APIResult{AnswerType: "qrcode", Answer: "<p>no picture</p>"})
		assert.ErrorIs(t, err, ErrNoQRImage)
	})

	t.Run("img without attributes", func(t *testing.T) {
		qr, err := ExtractQR(&APIResult{AnswerType: "qrcode", Answer: "<img>"})
		require.NoError(t, err)
		require.NotNil(t, qr)
		assert.Empty(t, qr.Bytes)
	})

	t.Run("bad payload", func(t *testing.T) {
		_, err := ExtractQR(&APIResult{AnswerType: "qrcode", Answer: `<img src="data:image/png;base64,@@not base64@@">`})
		assert.ErrorIs(t, err, ErrBadQRPayload)
	})

	t.Run("first attribute wins", func(t *testing.T) {
		qr, err := ExtractQR(&APIResult{AnswerType: "qrcode", Answer: `<img src="data:x,AQID" alt="data:y,BAUG">`})
		require.NoError(t, err)
		assert.Equal(t, []byte{1, 2, 3}, qr.Bytes)
	})
}

func TestFactory_AnswerOnly(t *testing.T) {
	f := NewFactory(&APIResult{Answer: "42", AnswerType: "Answer"}, "6*7", URLBuilder{})

	records := slices.Collect(f.All())
	require.Len(t, records, 1)
	assert.Equal(t, models.KindAnswer, records[0].Kind)
	assert.Equal(t, "42", records[0].Info)
	assert.Equal(t, "Answer", records[0].Label)
	assert.Empty(t, records[0].SourceURL)
	assert.Equal(t, "6*7", records[0].SearchedText)
}

func TestFactory_AnswerLabel(t *testing.T) {
	rec, ok := NewFactory(&APIResult{Answer: "42"}, "q", URLBuilder{}).InstantAnswer(models.KindAnswer)
	require.True(t, ok)
	assert.Equal(t, "Answer", rec.Label)

	rec, ok = NewFactory(&APIResult{Answer: "42", AnswerType: "calc"}, "q", URLBuilder{}).InstantAnswer(models.KindAnswer)
	require.True(t, ok)
	assert.Equal(t, "calc", rec.Label)

	_, ok = NewFactory(&APIResult{}, "q", URLBuilder{}).InstantAnswer(models.KindSearchResult)
	assert.False(t, ok)
}

func TestFactory_RelatedTopicOrder(t *testing.T) {
	api := &APIResult{RelatedTopics: []*RelatedTopic{
		{Text: "Topic A", Topics: []*RelatedTopic{{Text: "sub1"}, nil, {Text: "sub2"}}},
	}}

	records := slices.Collect(NewFactory(api, "topic", URLBuilder{}).All())
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Topic A", "sub1", "sub2"}, infos(records))
	assert.Equal(t, []string{"Related", "Related", "Related"}, labels(records))
	for _, rec := range records {
		assert.Equal(t, models.KindSearchResult, rec.Kind)
		assert.Equal(t, "https://duckduckgo.com/?q=topic", rec.SourceURL)
	}
}

func TestFactory_NamedGroups(t *testing.T) {
	api := &APIResult{RelatedTopics: []*RelatedTopic{
		{Text: "Go (programming language)", FirstURL: "https://duckduckgo.com/Go"},
		nil,
		{Name: "Games", Topics: []*RelatedTopic{
			{Text: "Go (game)", FirstURL: "https://duckduckgo.com/Go_game"},
			{Text: "  "},
		}},
	}}

	records := slices.Collect(NewFactory(api, "go", URLBuilder{}).RelatedTopics())
	require.Len(t, records, 2)
	assert.Equal(t, []string{"Related", "Games"}, labels(records))
	assert.Equal(t, "https://duckduckgo.com/Go_game", records[1].SourceURL)
}

func TestFactory_Empty(t *testing.T) {
	assert.Empty(t, slices.Collect(NewFactory(&APIResult{}, "x", URLBuilder{}).All()))
	assert.Empty(t, slices.Collect(NewFactory(nil, "x", URLBuilder{}).All()))

	blank := &APIResult{
		Answer:        "  ",
		AbstractURL:   "https://example.com",
		RelatedTopics: []*RelatedTopic{nil, {FirstURL: "https://example.com"}},
		Results:       []*RelatedTopic{{Text: ""}},
	}
	assert.Empty(t, slices.Collect(NewFactory(blank, "x", URLBuilder{}).All()))
}

func TestFactory_OrderAndScore(t *testing.T) {
	api := &APIResult{
		Answer:        "unrelated answer",
		Definition:    "golang: a language",
		DefinitionURL: "https://dict.example/golang",
		AbstractText:  "Go is a language",
		Results:       []*RelatedTopic{{Text: "Official site", FirstURL: "https://go.dev"}},
		RelatedTopics: []*RelatedTopic{
			{Text: "golang docs"},
			{Name: "Tools", Topics: []*RelatedTopic{{Text: "golang vet"}}},
		},
	}

	records := slices.Collect(NewFactory(api, "golang", URLBuilder{}).All())
	require.Len(t, records, 6)
	assert.Equal(t, []string{"Answer", "Define", "Abstract", "Links", "Related", "Tools"}, labels(records))
	assert.Equal(t, "https://dict.example/golang", records[1].SourceURL)
	assert.Equal(t, "https://duckduckgo.com/?q=golang", records[2].SourceURL)
	assert.Empty(t, records[0].SourceURL)

	for i := 1; i < 5; i++ {
		assert.Greater(t, records[i-1].Score, records[i].Score, "%s should outrank %s", records[i-1].Label, records[i].Label)
	}
	assert.GreaterOrEqual(t, records[4].Score, records[5].Score)
}

func TestFactory_StopsEarly(t *testing.T) {
	api := &APIResult{Answer: "a", Definition: "b", AbstractText: "c"}
	n := 0
	for range NewFactory(api, "x", URLBuilder{}).All() {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, similarity("The Go Programming Language", "go programming"))
	assert.Equal(t, 0.5, similarity("programming in rust", "go programming"))
	assert.Equal(t, 0.0, similarity("anything", ""))
	assert.Equal(t, 0.0, similarity("", "golang"))
	assert.InDelta(t, bandAnswer+similarityWeight, score(bandAnswer, "x", "x"), 1e-9)
}

func infos(records []models.ResultRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Info
	}
	return out
}

func labels(records []models.ResultRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Label
	}
	return out
}
