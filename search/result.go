package search

import (
	"strings"

	"ddgplugin/action"
)

// Query is what the launcher hands a plugin for every keystroke batch
type Query struct {
	Text string
	Tag  string // Empty when the user did not pick a tag
}

// ParseQuery splits launcher input of the form "!tag rest of text".
// Input without a leading '!' is untagged.
func ParseQuery(input string) Query {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "!") {
		return Query{Text: input}
	}
	tag, text, _ := strings.Cut(input[1:], " ")
	return Query{Text: strings.TrimSpace(text), Tag: strings.TrimSpace(tag)}
}

// Action is the validator's decision for a query
type Action int

const (
	ActionReject Action = iota
	ActionNormal
	ActionQrCode
)

func (a Action) String() string {
	switch a {
	case ActionNormal:
		return "normal"
	case ActionQrCode:
		return "qrcode"
	default:
		return "reject"
	}
}

// Tag is a search tag a plugin answers to
type Tag struct {
	Name        string
	Description string
	IconGlyph   string
}

// PluginInfo is the metadata the launcher shows for a plugin
type PluginInfo struct {
	Name                string
	Description         string
	IconGlyph           string
	Tags                []Tag
	Operations          action.OperationSet
	MinimumSearchLength int
	SearchTagOnly       bool // Plugin only runs when one of its tags is selected
}

// HasTag reports whether the plugin declared the tag
func (i PluginInfo) HasTag(name string) bool {
	for _, t := range i.Tags {
		if t.Name == name {
			return true
		}
	}
	return false
}
