package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"ddgplugin/models"
)

var kindColors = map[models.ResultKind]color.Color{
	models.KindAnswer:       color.NRGBA{R: 0xde, G: 0x58, B: 0x33, A: 0xff},
	models.KindDefinition:   color.NRGBA{R: 0x2e, G: 0x7d, B: 0x32, A: 0xff},
	models.KindAbstract:     color.NRGBA{R: 0x15, G: 0x65, B: 0xc0, A: 0xff},
	models.KindQrCode:       color.NRGBA{R: 0x37, G: 0x47, B: 0x4f, A: 0xff},
	models.KindSearchResult: color.NRGBA{R: 0x6d, G: 0x4c, B: 0x41, A: 0xff},
}

// KindBadge shows a result label on a background coloured by result kind
type KindBadge struct {
	widget.BaseWidget
	text      string
	bgColor   color.Color
	textColor color.Color
	textObj   *canvas.Text
	bgRect    *canvas.Rectangle
	container *fyne.Container
}

// NewKindBadge creates an empty badge
func NewKindBadge() *KindBadge {
	b := &KindBadge{
		text:      "Result",
		bgColor:   kindColors[models.KindSearchResult],
		textColor: color.White,
	}
	b.ExtendBaseWidget(b)
	return b
}

// SetKind updates the badge for a record
func (b *KindBadge) SetKind(kind models.ResultKind, label string) {
	b.text = " " + label + " "
	if c, ok := kindColors[kind]; ok {
		b.bgColor = c
	}
	b.Refresh()
}

// CreateRenderer implements fyne.Widget
func (b *KindBadge) CreateRenderer() fyne.WidgetRenderer {
	b.textObj = canvas.NewText(b.text, b.textColor)
	b.textObj.TextStyle = fyne.TextStyle{Bold: true}
	b.textObj.Alignment = fyne.TextAlignCenter

	b.bgRect = canvas.NewRectangle(b.bgColor)
	b.bgRect.CornerRadius = 4

	b.container = container.NewStack(b.bgRect, b.textObj)

	return &kindBadgeRenderer{
		badge:     b,
		container: b.container,
		bgRect:    b.bgRect,
		textObj:   b.textObj,
	}
}

type kindBadgeRenderer struct {
	badge     *KindBadge
	container *fyne.Container
	bgRect    *canvas.Rectangle
	textObj   *canvas.Text
}

func (r *kindBadgeRenderer) MinSize() fyne.Size {
	size := r.container.MinSize()
	return fyne.NewSize(fyne.Max(size.Width, 80), size.Height)
}

func (r *kindBadgeRenderer) Layout(size fyne.Size) {
	r.container.Resize(size)
}

func (r *kindBadgeRenderer) Refresh() {
	r.textObj.Text = r.badge.text
	r.textObj.Color = r.badge.textColor
	r.bgRect.FillColor = r.badge.bgColor
	r.textObj.Refresh()
	r.bgRect.Refresh()
}

func (r *kindBadgeRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.container}
}

func (r *kindBadgeRenderer) Destroy() {}
