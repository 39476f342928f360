package navigation

import "maps"

// Snapshot is an opaque value an observer records on a location.
type Snapshot = any

// Location is one entry of the history: a document, an optional anchor inside
// it and the last known scroll offset.
type Location struct {
	FilePath       string
	InternalTarget string
	ScrollPosition float64

	observerState map[string]Snapshot
}

func newLocation(path, target string) *Location {
	return &Location{
		FilePath:       path,
		InternalTarget: target,
		observerState:  make(map[string]Snapshot),
	}
}

// Snapshot returns the value observer id recorded when this location was left.
func (l Location) Snapshot(id string) (Snapshot, bool) {
	s, ok := l.observerState[id]
	return s, ok
}

func (l *Location) clone() Location {
	c := *l
	c.observerState = maps.Clone(l.observerState)
	return c
}

// Handshake is passed to an observer on every transition.
type Handshake struct {
	// ID is the observer's registration id.
	ID string
	// From is the path being left; empty on the first navigation.
	From string
	// To is the path being entered.
	To string
	// State is what this observer recorded on the entered location, or nil.
	State Snapshot
}

// ObserverFunc restores state from h.State and returns the snapshot to record
// on the location being left.
type ObserverFunc func(h Handshake) Snapshot

// Cause identifies what produced an OpenEvent.
type Cause string

// Causes.
const (
	CauseGo      Cause = "go"
	CauseBack    Cause = "back"
	CauseForward Cause = "forward"
	CauseReload  Cause = "reload"
)

// OpenEvent asks the window layer to show a location.
type OpenEvent struct {
	FilePath       string  `json:"filePath"`
	InternalTarget string  `json:"internalTarget"`
	Encoding       string  `json:"encoding"`
	ScrollPosition float64 `json:"scrollPosition"`
	Cause          Cause   `json:"cause"`
}

// Listener receives every OpenEvent.
type Listener func(OpenEvent)

// EncodingStore looks up and pins per-document encodings.
type EncodingStore interface {
	Encoding(path string) string
	PinEncoding(path, encoding string) error
}

// Stacks is a read-only copy of the history.
type Stacks struct {
	Back    []string `json:"back"`
	Current string   `json:"current"`
	Forward []string `json:"forward"`
}
