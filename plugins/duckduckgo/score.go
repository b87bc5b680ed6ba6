package duckduckgo

import (
	"strings"
	"unicode"
)

// Score bands, highest first. Bands are wider than the similarity bonus so
// the facet order never changes with the text.
const (
	bandAnswer     = 60
	bandDefinition = 50
	bandAbstract   = 40
	bandLinks      = 30
	bandRelated    = 20
	bandSubTopic   = 10

	similarityWeight = 9
)

func score(band float64, info, searched string) float64 {
	return band + similarityWeight*similarity(info, searched)
}

// similarity is 1 when info contains the whole query, otherwise the share of
// query words (longer than two letters) that appear in info.
func similarity(info, searched string) float64 {
	info = strings.ToLower(info)
	searched = strings.ToLower(strings.TrimSpace(searched))
	if searched == "" {
		return 0
	}
	if strings.Contains(info, searched) {
		return 1
	}
	words := strings.FieldsFunc(searched, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	if len(words) == 0 {
		return 0
	}
	matches := 0
	for _, w := range words {
		if len([]rune(w)) > 2 && strings.Contains(info, w) {
			matches++
		}
	}
	return float64(matches) / float64(len(words))
}
