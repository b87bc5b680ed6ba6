package ui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"ddgplugin/action"
	"ddgplugin/logs"
	"ddgplugin/models"
	"ddgplugin/search"
	"ddgplugin/storage"
)

const (
	searchDelay   = 300 * time.Millisecond
	previewEdge   = 256
	untaggedLabel = "(any)"
)

// Options carries what the window needs from the launcher
type Options struct {
	Manager  *search.Manager
	Storage  *storage.Manager
	Settings *models.Settings
	// Dispatcher builds the operation dispatcher around the window clipboard
	Dispatcher func(action.Clipboard) *action.Dispatcher
}

// listEntry is a shown result together with the plugin that produced it
type listEntry struct {
	plugin string
	record models.ResultRecord
}

// MainWindow is the launcher search window
type MainWindow struct {
	app        fyne.App
	window     fyne.Window
	manager    *search.Manager
	storage    *storage.Manager
	settings   *models.Settings
	dispatcher *action.Dispatcher

	entry     *widget.Entry
	tagSelect *widget.Select
	status    *widget.Label
	list      *widget.List
	badge     *KindBadge
	info      *widget.Label
	sourceURL *widget.Hyperlink
	preview   *canvas.Image
	opButtons map[action.Operation]*widget.Button
	pinButton *widget.Button

	mu           sync.Mutex // Guards entries, pins, selected and the search state below
	entries      []listEntry
	pins         []storage.Pin
	pinned       []listEntry
	selected     int
	generation   int
	cancelSearch context.CancelFunc
	searchTimer  *time.Timer
}

// windowClipboard sends copied text to the system clipboard through fyne
type windowClipboard struct {
	window fyne.Window
}

func (c *windowClipboard) SetText(text string) error {
	c.window.Clipboard().SetContent(text)
	return nil
}

// NewMainWindow creates a new main window
func NewMainWindow(opts Options) *MainWindow {
	myApp := app.New()
	myApp.SetIcon(theme.SearchIcon())

	window := myApp.NewWindow("DuckDuckGo Instant Answers")
	window.Resize(fyne.NewSize(900, 600))

	mw := &MainWindow{
		app:       myApp,
		window:    window,
		manager:   opts.Manager,
		storage:   opts.Storage,
		settings:  opts.Settings,
		selected:  -1,
		opButtons: make(map[action.Operation]*widget.Button),
	}
	if mw.settings == nil {
		mw.settings = models.DefaultSettings()
	}
	if opts.Dispatcher != nil {
		mw.dispatcher = opts.Dispatcher(&windowClipboard{window: window})
	}

	mw.setupUI()
	return mw
}

// ShowAndRun shows the window and blocks until it is closed
func (mw *MainWindow) ShowAndRun(ctx context.Context) {
	go mw.restorePins(ctx)
	mw.window.SetOnClosed(func() {
		mw.mu.Lock()
		if mw.cancelSearch != nil {
			mw.cancelSearch()
		}
		mw.mu.Unlock()
	})
	mw.window.ShowAndRun()
}

func (mw *MainWindow) setupUI() {
	mw.entry = widget.NewEntry()
	mw.entry.SetPlaceHolder("Search DuckDuckGo, or !qrcode <text>")
	mw.entry.OnChanged = func(string) { mw.scheduleSearch() }
	mw.entry.OnSubmitted = func(string) { mw.runSearch() }

	tags := []string{untaggedLabel}
	if mw.manager != nil {
		for _, p := range mw.manager.Plugins() {
			for _, t := range p.Info().Tags {
				tags = append(tags, t.Name)
			}
		}
	}
	mw.tagSelect = widget.NewSelect(tags, nil)
	mw.tagSelect.SetSelectedIndex(0)
	mw.tagSelect.OnChanged = func(string) { mw.runSearch() }

	mw.status = widget.NewLabel("")

	mw.list = widget.NewList(
		func() int {
			mw.mu.Lock()
			defer mw.mu.Unlock()
			return len(mw.entries)
		},
		func() fyne.CanvasObject {
			badge := NewKindBadge()
			text := widget.NewLabel("Result")
			text.Truncation = fyne.TextTruncateEllipsis
			pin := widget.NewIcon(nil)
			return container.NewBorder(nil, nil, badge, pin, text)
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			mw.mu.Lock()
			if id >= len(mw.entries) {
				mw.mu.Unlock()
				return
			}
			rec := mw.entries[id].record
			mw.mu.Unlock()

			row := obj.(*fyne.Container)
			for _, o := range row.Objects {
				switch w := o.(type) {
				case *KindBadge:
					w.SetKind(rec.Kind, rec.Label)
				case *widget.Label:
					w.SetText(rec.Info)
				case *widget.Icon:
					if rec.IsPinned {
						w.SetResource(theme.ConfirmIcon())
					} else {
						w.SetResource(nil)
					}
				}
			}
		},
	)
	mw.list.OnSelected = mw.selectEntry
	mw.list.OnUnselected = func(widget.ListItemID) { mw.selectEntry(-1) }

	mw.badge = NewKindBadge()
	mw.info = widget.NewLabel("")
	mw.info.Wrapping = fyne.TextWrapWord
	mw.sourceURL = widget.NewHyperlink("", nil)
	mw.preview = canvas.NewImageFromResource(nil)
	mw.preview.FillMode = canvas.ImageFillContain
	mw.preview.ScaleMode = canvas.ImageScalePixels
	mw.preview.SetMinSize(fyne.NewSize(previewEdge, previewEdge))
	mw.preview.Hide()

	buttons := container.NewHBox()
	for _, op := range action.AllOperations.List() {
		btn := widget.NewButtonWithIcon(op.Name(), operationIcon(op), func() { mw.runOperation(op) })
		btn.Disable()
		mw.opButtons[op] = btn
		buttons.Add(btn)
	}
	mw.pinButton = widget.NewButtonWithIcon("Pin", theme.ContentAddIcon(), mw.togglePin)
	mw.pinButton.Disable()
	buttons.Add(mw.pinButton)

	details := container.NewVBox(
		container.NewHBox(mw.badge),
		mw.info,
		mw.sourceURL,
		container.NewCenter(mw.preview),
		buttons,
	)

	top := container.NewBorder(nil, nil, nil, mw.tagSelect, mw.entry)
	split := container.NewHSplit(mw.list, container.NewVScroll(details))
	split.Offset = 0.45

	mw.window.SetContent(container.NewBorder(top, mw.status, nil, nil, split))
	mw.window.Canvas().Focus(mw.entry)
}

func operationIcon(op action.Operation) fyne.Resource {
	switch op {
	case action.OpenURL:
		return theme.ComputerIcon()
	case action.CopyURL, action.CopyContents:
		return theme.ContentCopyIcon()
	case action.SaveImage:
		return theme.DocumentSaveIcon()
	}
	return nil
}

// scheduleSearch debounces typing so only the settled query hits the API
func (mw *MainWindow) scheduleSearch() {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	if mw.searchTimer != nil {
		mw.searchTimer.Stop()
	}
	mw.searchTimer = time.AfterFunc(searchDelay, mw.runSearch)
}

// query combines the entry text with the tag picker; an inline "!tag" wins
func (mw *MainWindow) query() search.Query {
	q := search.ParseQuery(mw.entry.Text)
	if q.Tag == "" {
		if tag := mw.tagSelect.Selected; tag != untaggedLabel {
			q.Tag = tag
		}
	}
	return q
}

// runSearch cancels the running query and streams a new one into the list
func (mw *MainWindow) runSearch() {
	if mw.manager == nil {
		return
	}
	q := mw.query()

	mw.mu.Lock()
	if mw.cancelSearch != nil {
		mw.cancelSearch()
	}
	ctx, cancel := context.WithCancel(context.Background())
	mw.cancelSearch = cancel
	mw.generation++
	gen := mw.generation
	mw.mu.Unlock()

	if strings.TrimSpace(q.Text) == "" {
		cancel()
		mw.showPinned()
		return
	}

	pluginName := ""
	if p, err := mw.manager.Resolve(q.Tag); err == nil {
		pluginName = p.Info().Name
	}

	mw.setEntries(nil)
	mw.status.SetText(fmt.Sprintf("Searching '%s'...", q.Text))

	go func() {
		defer cancel()
		count := 0
		for rec, err := range mw.manager.Search(ctx, q) {
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					logs.Error("search %q failed: %v", q.Text, err)
					mw.status.SetText(fmt.Sprintf("Error: %v", err))
				}
				return
			}
			if !mw.addEntry(gen, listEntry{plugin: pluginName, record: rec}) {
				return
			}
			count++
		}
		if ctx.Err() == nil {
			mw.status.SetText(fmt.Sprintf("%d results for '%s'", count, q.Text))
		}
	}()
}

// addEntry inserts rec keeping the list ordered by score. It returns false
// once a newer search has started.
func (mw *MainWindow) addEntry(gen int, e listEntry) bool {
	mw.mu.Lock()
	if gen != mw.generation {
		mw.mu.Unlock()
		return false
	}
	e.record.IsPinned = mw.pinIndexLocked(e.plugin, e.record) >= 0
	at := slices.IndexFunc(mw.entries, func(x listEntry) bool { return x.record.Score < e.record.Score })
	if at < 0 {
		at = len(mw.entries)
	}
	mw.entries = slices.Insert(mw.entries, at, e)
	mw.mu.Unlock()

	mw.list.Refresh()
	return true
}

func (mw *MainWindow) setEntries(entries []listEntry) {
	mw.mu.Lock()
	mw.entries = entries
	mw.selected = -1
	mw.mu.Unlock()
	mw.list.UnselectAll()
	mw.list.Refresh()
	mw.selectEntry(-1)
}

func (mw *MainWindow) selectedEntry() (listEntry, bool) {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	if mw.selected < 0 || mw.selected >= len(mw.entries) {
		return listEntry{}, false
	}
	return mw.entries[mw.selected], true
}

func (mw *MainWindow) selectEntry(id widget.ListItemID) {
	mw.mu.Lock()
	mw.selected = id
	mw.mu.Unlock()

	e, ok := mw.selectedEntry()
	if !ok {
		mw.badge.Hide()
		mw.info.SetText("")
		mw.sourceURL.SetText("")
		mw.preview.Hide()
		for _, btn := range mw.opButtons {
			btn.Disable()
		}
		mw.pinButton.Disable()
		return
	}

	rec := e.record
	mw.badge.SetKind(rec.Kind, rec.Label)
	mw.badge.Show()
	mw.info.SetText(rec.Info)
	mw.sourceURL.SetText(rec.SourceURL)
	_ = mw.sourceURL.SetURLFromString(rec.SourceURL)

	mw.preview.Hide()
	if rec.HasImage() {
		if img, _, err := storage.DecodeImage(rec.Image); err == nil {
			mw.preview.Image = storage.Upscale(img, previewEdge)
			mw.preview.Refresh()
			mw.preview.Show()
		} else {
			logs.Warn("cannot preview QR image: %v", err)
		}
	}

	allowed := action.OperationsFor(rec.Kind)
	for op, btn := range mw.opButtons {
		if allowed.Contains(op) {
			btn.Enable()
		} else {
			btn.Disable()
		}
	}
	if rec.IsPinned {
		mw.pinButton.SetText("Unpin")
		mw.pinButton.SetIcon(theme.ContentRemoveIcon())
	} else {
		mw.pinButton.SetText("Pin")
		mw.pinButton.SetIcon(theme.ContentAddIcon())
	}
	mw.pinButton.Enable()
}

func (mw *MainWindow) runOperation(op action.Operation) {
	e, ok := mw.selectedEntry()
	if !ok || mw.dispatcher == nil {
		return
	}
	go func() {
		if err := mw.dispatcher.Handle(context.Background(), op, &e.record); err != nil {
			dialog.ShowError(err, mw.window)
			return
		}
		mw.status.SetText(fmt.Sprintf("%s: done", op.Name()))
	}()
}

func (mw *MainWindow) togglePin() {
	e, ok := mw.selectedEntry()
	if !ok {
		return
	}

	mw.mu.Lock()
	if i := mw.pinIndexLocked(e.plugin, e.record); i >= 0 {
		mw.pins = slices.Delete(mw.pins, i, i+1)
		mw.pinned = slices.DeleteFunc(mw.pinned, func(p listEntry) bool { return sameResult(p, e) })
		e.record.IsPinned = false
	} else {
		token, err := e.record.Identity().Encode()
		if err != nil {
			mw.mu.Unlock()
			dialog.ShowError(err, mw.window)
			return
		}
		mw.pins = append(mw.pins, storage.Pin{Plugin: e.plugin, Token: token})
		e.record.IsPinned = true
		mw.pinned = append(mw.pinned, e)
	}
	for i := range mw.entries {
		if sameResult(mw.entries[i], e) {
			mw.entries[i].record.IsPinned = e.record.IsPinned
		}
	}
	pins := slices.Clone(mw.pins)
	selected := mw.selected
	mw.mu.Unlock()

	if err := mw.storage.SavePins(pins); err != nil {
		dialog.ShowError(err, mw.window)
	}
	mw.list.Refresh()
	mw.selectEntry(selected)
}

// restorePins loads stored pins and rehydrates them for the empty-query view
func (mw *MainWindow) restorePins(ctx context.Context) {
	if mw.storage == nil || mw.manager == nil {
		return
	}
	pins, err := mw.storage.LoadPins()
	if err != nil {
		logs.Warn("loading pins failed: %v", err)
		return
	}

	var restored []listEntry
	for _, p := range pins {
		id, err := models.DecodeIdentity(p.Token)
		if err != nil {
			logs.Warn("skipping unreadable pin: %v", err)
			continue
		}
		rec, err := mw.manager.Rehydrate(ctx, p.Plugin, id)
		if err != nil || rec == nil {
			logs.Warn("pinned result %q not restored: %v", id.Info, err)
			continue
		}
		rec.IsPinned = true
		restored = append(restored, listEntry{plugin: p.Plugin, record: *rec})
	}

	mw.mu.Lock()
	mw.pins = pins
	mw.pinned = restored
	mw.mu.Unlock()

	if strings.TrimSpace(mw.entry.Text) == "" {
		mw.showPinned()
	}
}

func (mw *MainWindow) showPinned() {
	mw.mu.Lock()
	pinned := slices.Clone(mw.pinned)
	mw.mu.Unlock()

	mw.setEntries(pinned)
	if len(pinned) > 0 {
		mw.status.SetText(fmt.Sprintf("%d pinned results", len(pinned)))
	} else {
		mw.status.SetText("")
	}
}

func (mw *MainWindow) pinIndexLocked(plugin string, rec models.ResultRecord) int {
	for i, p := range mw.pins {
		if p.Plugin != plugin {
			continue
		}
		id, err := models.DecodeIdentity(p.Token)
		if err != nil {
			continue
		}
		if id.SearchedText == rec.SearchedText && id.Kind == rec.Kind && id.Info == rec.Info {
			return i
		}
	}
	return -1
}

func sameResult(a, b listEntry) bool {
	return a.plugin == b.plugin &&
		a.record.SearchedText == b.record.SearchedText &&
		a.record.Kind == b.record.Kind &&
		a.record.Info == b.record.Info
}
