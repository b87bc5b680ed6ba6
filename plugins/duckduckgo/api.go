package duckduckgo

import "github.com/bytedance/sonic"

// sonicStd matches object keys case-insensitively like encoding/json
var sonicStd = sonic.ConfigStd

// APIResult is the part of the instant answer response the plugin reads.
// Keys are matched case-insensitively.
type APIResult struct {
	AbstractText  Text            `json:"AbstractText"`
	AbstractURL   Text            `json:"AbstractURL"`
	Answer        Text            `json:"Answer"`
	AnswerType    Text            `json:"AnswerType"`
	Definition    Text            `json:"Definition"`
	DefinitionURL Text            `json:"DefinitionURL"`
	RelatedTopics []*RelatedTopic `json:"RelatedTopics"`
	Results       []*RelatedTopic `json:"Results"`
}

// RelatedTopic is either a leaf link or a named group of leaf links
type RelatedTopic struct {
	FirstURL Text            `json:"FirstURL"`
	Text     Text            `json:"Text"`
	Name     Text            `json:"Name"`
	Topics   []*RelatedTopic `json:"Topics"`
}

// Text is a string field that tolerates the odd non-string value the API
// sends (Answer is sometimes an object). Numbers keep their literal form,
// anything else decodes as empty.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	if len(b) == 0 {
		*t = ""
		return nil
	}
	switch c := b[0]; {
	case c == '"':
		var s string
		if err := sonic.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
	case c == '-' || (c >= '0' && c <= '9'):
		*t = Text(b)
	default:
		*t = ""
	}
	return nil
}

func (t Text) String() string { return string(t) }
