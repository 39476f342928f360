// Package toc holds the table of contents state of the current document.
//
// Visibility is global (application setting show-toc) unless the document
// carries an override. Collapsed entries are remembered per document.
package toc

import (
	"fmt"
	"slices"

	"github.com/starford/mdview/internal/apperr"
	"github.com/starford/mdview/internal/models"
	"github.com/starford/mdview/internal/navigation"
	"github.com/starford/mdview/internal/settings"
)

// ObserverID is the id the table of contents observer registers under.
const ObserverID = "toc"

// AppSettings is the subset of application settings the table of contents
// reads and writes.
type AppSettings interface {
	ShowToc() bool
	SetShowToc(show bool) error
	TocWidth() int
}

// DocSettings is the subset of document settings the table of contents
// reads and writes.
type DocSettings interface {
	For(path string) settings.DocValues
	Update(path string, fn func(*settings.DocValues)) error
}

// Entry is one heading with its collapsed flag.
type Entry struct {
	models.Heading
	Collapsed bool `json:"collapsed"`
}

type snapshot struct {
	Override  bool
	Visible   bool
	Collapsed []string
}

// State is the table of contents of the current document.
type State struct {
	app  AppSettings
	docs DocSettings

	path      string
	override  bool
	visible   bool
	collapsed []string
	headings  []models.Heading
}

// New creates an empty State.
func New(app AppSettings, docs DocSettings) *State {
	return &State{app: app, docs: docs}
}

// Observer returns the navigation observer that records the table of
// contents state on the document being left and restores it on the
// document being entered.
func (s *State) Observer() navigation.ObserverFunc {
	return func(h navigation.Handshake) navigation.Snapshot {
		var out navigation.Snapshot
		if h.From != "" && s.path == h.From {
			out = s.snapshot()
		}

		if snap, ok := h.State.(snapshot); ok {
			s.restore(h.To, snap)
		} else {
			v := s.docs.For(h.To)
			s.restore(h.To, snapshot{
				Override:  v.ShowTocOverride,
				Visible:   v.ShowToc,
				Collapsed: v.CollapsedTocEntries,
			})
		}
		s.headings = nil
		return out
	}
}

func (s *State) snapshot() snapshot {
	return snapshot{Override: s.override, Visible: s.visible, Collapsed: slices.Clone(s.collapsed)}
}

func (s *State) restore(path string, snap snapshot) {
	s.path = path
	s.override = snap.Override
	s.visible = snap.Visible
	s.collapsed = slices.Clone(snap.Collapsed)
}

func (s *State) persist() error {
	if s.path == "" {
		return nil
	}
	override, visible, collapsed := s.override, s.visible, slices.Clone(s.collapsed)
	if collapsed == nil {
		collapsed = []string{}
	}
	if err := s.docs.Update(s.path, func(v *settings.DocValues) {
		v.ShowTocOverride = override
		v.ShowToc = visible
		v.CollapsedTocEntries = collapsed
	}); err != nil {
		return fmt.Errorf("toc: persist: %w", err)
	}
	return nil
}

// Path returns the document the state belongs to.
func (s *State) Path() string { return s.path }

// Visible reports whether the table of contents is shown.
func (s *State) Visible() bool {
	if s.override {
		return s.visible
	}
	return s.app.ShowToc()
}

// DocumentOverride reports whether the current document overrides the
// global visibility.
func (s *State) DocumentOverride() bool { return s.override }

// Width returns the configured width in pixels.
func (s *State) Width() int { return s.app.TocWidth() }

// SetVisible shows or hides the table of contents. With documentOnly the
// choice applies to the current document only; otherwise it becomes the
// global default and any document override is dropped.
func (s *State) SetVisible(visible, documentOnly bool) error {
	if s.path == "" {
		return apperr.ErrNoDocument
	}
	if documentOnly {
		s.override = true
		s.visible = visible
		return s.persist()
	}
	if err := s.app.SetShowToc(visible); err != nil {
		return fmt.Errorf("toc: set global visibility: %w", err)
	}
	s.override = false
	s.visible = visible
	return s.persist()
}

// SetHeadings replaces the headings of the current document. Collapsed ids
// without a matching heading are kept.
func (s *State) SetHeadings(headings []models.Heading) {
	s.headings = slices.Clone(headings)
}

// SetCollapsed collapses or expands the entry with the given heading id.
func (s *State) SetCollapsed(id string, collapsed bool) error {
	if s.path == "" {
		return apperr.ErrNoDocument
	}
	if id == "" {
		return fmt.Errorf("%w: heading id is empty", apperr.ErrInvalidArgument)
	}
	i := slices.Index(s.collapsed, id)
	switch {
	case collapsed && i < 0:
		s.collapsed = append(s.collapsed, id)
	case !collapsed && i >= 0:
		s.collapsed = slices.Delete(s.collapsed, i, i+1)
	default:
		return nil
	}
	return s.persist()
}

// Entries returns the headings of the current document.
func (s *State) Entries() []Entry {
	out := make([]Entry, len(s.headings))
	for i, h := range s.headings {
		out[i] = Entry{Heading: h, Collapsed: slices.Contains(s.collapsed, h.ID)}
	}
	return out
}
