// Package window tracks the geometry of the viewer window per document.
package window

import (
	"fmt"

	"github.com/starford/mdview/internal/apperr"
	"github.com/starford/mdview/internal/models"
	"github.com/starford/mdview/internal/navigation"
)

// ObserverID is the id the window observer registers under.
const ObserverID = "window"

// PositionStore reads and writes per-document window bounds.
type PositionStore interface {
	WindowPosition(path string) models.Bounds
	SetWindowPosition(path string, b models.Bounds) error
}

// Tracker holds the bounds of the window showing the current document.
type Tracker struct {
	docs   PositionStore
	path   string
	bounds models.Bounds
}

// New creates a Tracker.
func New(docs PositionStore) *Tracker {
	return &Tracker{docs: docs}
}

// Observer returns the navigation observer that records bounds on the
// document being left and restores them on the document being entered.
func (t *Tracker) Observer() navigation.ObserverFunc {
	return func(h navigation.Handshake) navigation.Snapshot {
		var out navigation.Snapshot
		if h.From != "" && !t.bounds.IsZero() {
			out = t.bounds
		}
		if b, ok := h.State.(models.Bounds); ok && !b.IsZero() {
			t.bounds = b
		} else {
			t.bounds = t.docs.WindowPosition(h.To)
		}
		t.path = h.To
		return out
	}
}

// Bounds returns the current window bounds.
func (t *Tracker) Bounds() models.Bounds { return t.bounds }

// SetBounds records a window move or resize for the current document.
func (t *Tracker) SetBounds(b models.Bounds) error {
	if t.path == "" {
		return apperr.ErrNoDocument
	}
	if err := t.docs.SetWindowPosition(t.path, b); err != nil {
		return fmt.Errorf("window: %w", err)
	}
	t.bounds = b
	return nil
}
