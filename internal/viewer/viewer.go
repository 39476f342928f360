// Package viewer is the single entry point for everything that changes what
// is on screen: file opens, link clicks, history moves, settings edits and
// file watcher ticks. Each call runs to completion under one lock, so the
// navigation engine and settings views never see concurrent access.
package viewer

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/starford/mdview/internal/apperr"
	"github.com/starford/mdview/internal/blocking"
	"github.com/starford/mdview/internal/checksum"
	"github.com/starford/mdview/internal/navigation"
	"github.com/starford/mdview/internal/sse"
	"github.com/starford/mdview/internal/toc"
	"github.com/starford/mdview/internal/window"
)

// Viewer coordinates navigation, rendering and per-document state.
type Viewer struct {
	mu     sync.Mutex
	deps   Deps
	logger *slog.Logger

	page *Page
}

// New wires the observers and the open listener into deps.Engine.
func New(deps Deps) (*Viewer, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Publisher == nil {
		deps.Publisher = nopPublisher{}
	}
	v := &Viewer{deps: deps, logger: deps.Logger}

	observers := []struct {
		id string
		fn navigation.ObserverFunc
	}{
		{toc.ObserverID, deps.Toc.Observer()},
		{blocking.ObserverID, deps.Blocking.Observer()},
		{window.ObserverID, deps.Window.Observer()},
	}
	for _, o := range observers {
		if err := deps.Engine.Register(o.id, o.fn); err != nil {
			return nil, fmt.Errorf("viewer: %w", err)
		}
	}
	deps.Engine.OnOpen(v.onOpen)

	if removed := deps.Docs.Prune(deps.Retention); len(removed) > 0 {
		v.logger.Info("viewer: pruned document settings", slog.Int("count", len(removed)))
	}
	deps.Publisher.Publish(sse.EventThemeChanged, map[string]string{"theme": deps.App.Theme()})
	return v, nil
}

// Open navigates to the document at path.
func (v *Viewer) Open(path string, opts ...navigation.GoOption) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.open(path, opts...)
}

func (v *Viewer) open(path string, opts ...navigation.GoOption) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("%w: path is required", apperr.ErrInvalidArgument)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInvalidArgument, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("viewer: open %s: %w", abs, apperr.ErrNotFound)
		}
		return fmt.Errorf("viewer: open %s: %w", abs, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", apperr.ErrInvalidArgument, abs)
	}
	return v.deps.Engine.Go(abs, opts...)
}

// Follow resolves href against the current document and opens it. Bare
// fragments scroll within the current document.
func (v *Viewer) Follow(href string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil || href == "" {
		return fmt.Errorf("%w: bad link %q", apperr.ErrInvalidArgument, href)
	}
	switch u.Scheme {
	case "", "file":
	default:
		return fmt.Errorf("%w: %s links are opened externally", apperr.ErrInvalidArgument, u.Scheme)
	}

	cur, ok := v.deps.Engine.Current()
	target := u.Path
	switch {
	case target == "":
		if !ok {
			return apperr.ErrNoDocument
		}
		target = cur.FilePath
	case !filepath.IsAbs(target):
		if !ok {
			return apperr.ErrNoDocument
		}
		target = filepath.Join(filepath.Dir(cur.FilePath), filepath.FromSlash(target))
	}
	var opts []navigation.GoOption
	if u.Fragment != "" {
		opts = append(opts, navigation.WithTarget(u.Fragment))
	}
	return v.open(target, opts...)
}

// Back moves one step back in history.
func (v *Viewer) Back() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.deps.Engine.Back()
}

// Forward moves one step forward in history.
func (v *Viewer) Forward() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.deps.Engine.Forward()
}

// Reload re-reads the current document. A nil scroll keeps the last
// reported position.
func (v *Viewer) Reload(scroll *float64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.reload(scroll)
}

func (v *Viewer) reload(scroll *float64) bool {
	if scroll != nil {
		return v.deps.Engine.ReloadCurrent(navigation.WithScrollPosition(*scroll))
	}
	return v.deps.Engine.ReloadCurrent()
}

// ReloadIfChanged reloads when path is the current document and its content
// differs from what is on screen. It is the file watcher callback.
func (v *Viewer) ReloadIfChanged(path string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.page == nil || v.page.FilePath != path {
		return false
	}
	sum, err := checksum.File(path)
	if err == nil && sum == v.page.Checksum {
		return false
	}
	if !v.reload(nil) {
		return false
	}
	v.deps.Publisher.Publish(sse.EventDocumentChanged, map[string]string{"filePath": path})
	return true
}

// SetScroll records the scroll offset of the current document.
func (v *Viewer) SetScroll(position float64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.deps.Engine.SetScrollPosition(position) {
		return apperr.ErrNoDocument
	}
	if v.page != nil {
		v.page.ScrollPosition = position
	}
	return nil
}

// LocationState describes the navigation state.
type LocationState struct {
	FilePath       string            `json:"filePath,omitempty"`
	InternalTarget string            `json:"internalTarget,omitempty"`
	ScrollPosition float64           `json:"scrollPosition"`
	CanGoBack      bool              `json:"canGoBack"`
	CanGoForward   bool              `json:"canGoForward"`
	Stacks         navigation.Stacks `json:"stacks"`
}

// Location returns the navigation state.
func (v *Viewer) Location() LocationState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.location()
}

// CurrentFile returns the path of the document on screen, or "".
func (v *Viewer) CurrentFile() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if cur, ok := v.deps.Engine.Current(); ok {
		return cur.FilePath
	}
	return ""
}

func (v *Viewer) location() LocationState {
	e := v.deps.Engine
	st := LocationState{
		CanGoBack:    e.CanGoBack(),
		CanGoForward: e.CanGoForward(),
		Stacks:       e.Stacks(),
	}
	if cur, ok := e.Current(); ok {
		st.FilePath = cur.FilePath
		st.InternalTarget = cur.InternalTarget
		st.ScrollPosition = cur.ScrollPosition
	}
	return st
}

// Page returns the rendered current document.
func (v *Viewer) Page() (Page, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.page == nil {
		return Page{}, apperr.ErrNoDocument
	}
	return *v.page, nil
}

// onOpen runs inside an engine transition, so v.mu is already held.
func (v *Viewer) onOpen(ev navigation.OpenEvent) {
	if ev.Cause != navigation.CauseReload {
		v.deps.History.Add(ev.FilePath)
		if err := v.deps.Docs.Touch(ev.FilePath); err != nil {
			v.logger.Warn("viewer: touch failed", slog.String("path", ev.FilePath), slog.String("error", err.Error()))
		}
		if v.deps.Watcher != nil {
			v.deps.Watcher.Track(ev.FilePath)
		}
	}

	v.page = v.buildPage(ev)
	v.deps.Toc.SetHeadings(v.page.Headings)

	p := v.deps.Publisher
	p.Publish(sse.EventLocationOpen, locationEvent{
		FilePath:       ev.FilePath,
		InternalTarget: ev.InternalTarget,
		Encoding:       ev.Encoding,
		ScrollPosition: ev.ScrollPosition,
		Cause:          ev.Cause,
		CanGoBack:      v.deps.Engine.CanGoBack(),
		CanGoForward:   v.deps.Engine.CanGoForward(),
	})
	if ev.Cause != navigation.CauseReload {
		p.Publish(sse.EventHistoryChanged, v.deps.History.Files())
		p.Publish(sse.EventWindowBounds, v.deps.Window.Bounds())
	}
	p.Publish(sse.EventTocChanged, v.tocState())
	p.Publish(sse.EventBlockingChanged, v.blockingState())
}

type locationEvent struct {
	FilePath       string           `json:"filePath"`
	InternalTarget string           `json:"internalTarget"`
	Encoding       string           `json:"encoding"`
	ScrollPosition float64          `json:"scrollPosition"`
	Cause          navigation.Cause `json:"cause"`
	CanGoBack      bool             `json:"canGoBack"`
	CanGoForward   bool             `json:"canGoForward"`
}
