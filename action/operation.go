package action

import (
	"slices"

	"ddgplugin/models"
)

// Operation is something the user can do with a selected result
type Operation int

const (
	OpenURL Operation = iota
	CopyURL
	CopyContents
	SaveImage
)

type operationInfo struct {
	name        string
	description string
	iconGlyph   string
}

var operationInfos = map[Operation]operationInfo{
	OpenURL:      {"Open URL", "Opens the URL. If URL is not available, Opens in DuckDuckGo.", "\uE8A7"},
	CopyURL:      {"Copy URL", "Copies the URL to Clipboard.", "\uE8C8"},
	CopyContents: {"Copy Contents", "Copies the Content of the Result", "\uE8C8"},
	SaveImage:    {"Save Image", "Stores the Image using Save File Dialog.", "\uE74E"},
}

func (o Operation) Name() string        { return operationInfos[o].name }
func (o Operation) Description() string { return operationInfos[o].description }
func (o Operation) IconGlyph() string   { return operationInfos[o].iconGlyph }
func (o Operation) String() string      { return o.Name() }

// OperationSet is an immutable, ordered set of operations
type OperationSet struct {
	ops []Operation
}

func NewOperationSet(ops ...Operation) OperationSet {
	return OperationSet{ops: slices.Clone(ops)}
}

func (s OperationSet) Contains(op Operation) bool {
	return slices.Contains(s.ops, op)
}

// List returns a copy of the operations in menu order
func (s OperationSet) List() []Operation {
	return slices.Clone(s.ops)
}

func (s OperationSet) Len() int { return len(s.ops) }

var (
	// DuckOperations apply to every text result
	DuckOperations = NewOperationSet(OpenURL, CopyURL, CopyContents)
	// QROperations apply to QR code results
	QROperations = NewOperationSet(SaveImage)
	// AllOperations is what the plugin advertises to the launcher
	AllOperations = NewOperationSet(OpenURL, CopyURL, SaveImage, CopyContents)
)

// OperationsFor returns the operations a record of the given kind supports
func OperationsFor(kind models.ResultKind) OperationSet {
	if kind == models.KindQrCode {
		return QROperations
	}
	return DuckOperations
}
