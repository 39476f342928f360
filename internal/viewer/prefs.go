package viewer

import (
	"encoding/json"
	"fmt"

	"github.com/starford/mdview/internal/apperr"
	"github.com/starford/mdview/internal/blocking"
	"github.com/starford/mdview/internal/models"
	"github.com/starford/mdview/internal/settings"
	"github.com/starford/mdview/internal/sse"
	"github.com/starford/mdview/internal/toc"
)

// AppSettings returns the application settings.
func (v *Viewer) AppSettings() settings.AppValues {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.deps.App.Values()
}

// PatchAppSettings applies a partial update to the application settings and
// re-renders the current document.
func (v *Viewer) PatchAppSettings(raw map[string]json.RawMessage) (settings.AppValues, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	before := v.deps.App.Values()
	if err := v.deps.App.Patch(raw); err != nil {
		return before, err
	}
	after := v.deps.App.Values()
	v.afterAppChange(before, after)
	return after, nil
}

// SetTheme sets the application theme.
func (v *Viewer) SetTheme(theme string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	before := v.deps.App.Values()
	if err := v.deps.App.SetTheme(theme); err != nil {
		return err
	}
	v.afterAppChange(before, v.deps.App.Values())
	return nil
}

func (v *Viewer) afterAppChange(before, after settings.AppValues) {
	v.deps.Publisher.Publish(sse.EventSettingsChanged, after)
	if before.FileHistorySize != after.FileHistorySize {
		v.deps.History.UpdateSize()
		v.deps.Publisher.Publish(sse.EventHistoryChanged, v.deps.History.Files())
	}
	v.reload(nil)
}

// DocumentSettings returns the settings of the current document.
func (v *Viewer) DocumentSettings() (string, settings.DocValues, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	path, err := v.currentPath()
	if err != nil {
		return "", settings.DocValues{}, err
	}
	return path, v.deps.Docs.For(path), nil
}

// SetEncoding pins the encoding of the current document, or returns it to
// auto-detection when encoding is nil, and reloads it.
func (v *Viewer) SetEncoding(encoding *string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	path, err := v.currentPath()
	if err != nil {
		return err
	}
	if encoding == nil {
		err = v.deps.Docs.ClearEncoding(path)
	} else {
		err = v.deps.Docs.PinEncoding(path, *encoding)
	}
	if err != nil {
		return err
	}
	v.reload(nil)
	return nil
}

// SetRenderAsMd forces the current document to render as Markdown.
func (v *Viewer) SetRenderAsMd(enabled bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	path, err := v.currentPath()
	if err != nil {
		return err
	}
	if err := v.deps.Docs.SetRenderAsMd(path, enabled); err != nil {
		return err
	}
	v.reload(nil)
	return nil
}

// History returns the recently opened files, most recent first.
func (v *Viewer) History() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.deps.History.Files()
}

// ClearHistory empties the history, keeping the current document.
func (v *Viewer) ClearHistory() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	cur, _ := v.currentPath()
	v.deps.History.Clear(cur)
	files := v.deps.History.Files()
	v.deps.Publisher.Publish(sse.EventHistoryChanged, files)
	return files
}

// BlockingState describes remote content for the current document.
type BlockingState struct {
	Blocked   []string           `json:"blocked"`
	Unblocked []string           `json:"unblocked"`
	Contents  []blocking.Content `json:"contents"`
}

// Blocking returns the remote content state.
func (v *Viewer) Blocking() BlockingState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.blockingState()
}

func (v *Viewer) blockingState() BlockingState {
	st := BlockingState{Blocked: []string{}, Unblocked: []string{}, Contents: v.deps.Blocking.Contents()}
	if path, err := v.currentPath(); err == nil {
		st.Blocked = v.deps.Blocking.Blocked(path)
		st.Unblocked = v.deps.Blocking.Unblocked(path)
	}
	return st
}

// Unblock allows url and reloads the current document.
func (v *Viewer) Unblock(url string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.deps.Blocking.Unblock(url); err != nil {
		return err
	}
	if path, err := v.currentPath(); err == nil {
		v.deps.Blocking.Remember(path)
	}
	v.reload(nil)
	return nil
}

// UnblockAll allows every known remote resource.
func (v *Viewer) UnblockAll() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	n := v.deps.Blocking.UnblockAll()
	if path, err := v.currentPath(); err == nil {
		v.deps.Blocking.Remember(path)
	}
	if n > 0 {
		v.reload(nil)
	}
	return n
}

// TocState describes the table of contents of the current document.
type TocState struct {
	Visible          bool        `json:"visible"`
	DocumentOverride bool        `json:"documentOverride"`
	Width            int         `json:"width"`
	Entries          []toc.Entry `json:"entries"`
}

// Toc returns the table of contents state.
func (v *Viewer) Toc() TocState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.tocState()
}

func (v *Viewer) tocState() TocState {
	t := v.deps.Toc
	return TocState{
		Visible:          t.Visible(),
		DocumentOverride: t.DocumentOverride(),
		Width:            t.Width(),
		Entries:          t.Entries(),
	}
}

// SetTocVisible shows or hides the table of contents globally or for the
// current document only.
func (v *Viewer) SetTocVisible(visible, documentOnly bool) (TocState, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.deps.Toc.SetVisible(visible, documentOnly); err != nil {
		return v.tocState(), err
	}
	st := v.tocState()
	v.deps.Publisher.Publish(sse.EventTocChanged, st)
	return st, nil
}

// SetTocCollapsed collapses or expands a table of contents entry.
func (v *Viewer) SetTocCollapsed(id string, collapsed bool) (TocState, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.deps.Toc.SetCollapsed(id, collapsed); err != nil {
		return v.tocState(), err
	}
	st := v.tocState()
	v.deps.Publisher.Publish(sse.EventTocChanged, st)
	return st, nil
}

// Bounds returns the window bounds of the current document.
func (v *Viewer) Bounds() models.Bounds {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.deps.Window.Bounds()
}

// SetBounds records a window move or resize.
func (v *Viewer) SetBounds(b models.Bounds) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.deps.Window.SetBounds(b); err != nil {
		return err
	}
	v.deps.Publisher.Publish(sse.EventWindowBounds, b)
	return nil
}

func (v *Viewer) currentPath() (string, error) {
	cur, ok := v.deps.Engine.Current()
	if !ok {
		return "", fmt.Errorf("viewer: %w", apperr.ErrNoDocument)
	}
	return cur.FilePath, nil
}
