package navigation

import (
	"fmt"
	"log/slog"

	"github.com/starford/mdview/internal/apperr"
)

type observer struct {
	id string
	fn ObserverFunc
}

// Engine is the history state machine.
type Engine struct {
	current *Location
	back    []*Location
	forward []*Location

	observers []observer
	ids       map[string]struct{}
	listeners []Listener

	encodings EncodingStore
	logger    *slog.Logger
}

// New creates an empty engine. encodings may be nil, in which case every
// document is reported as auto-detected and WithEncoding is rejected.
func New(encodings EncodingStore, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		ids:       make(map[string]struct{}),
		encodings: encodings,
		logger:    logger,
	}
}

// Register adds an observer. Ids are unique for the life of the engine.
func (e *Engine) Register(id string, fn ObserverFunc) error {
	if id == "" || fn == nil {
		return fmt.Errorf("%w: observer id and func are required", apperr.ErrInvalidArgument)
	}
	if _, ok := e.ids[id]; ok {
		return fmt.Errorf("navigation: observer %q: %w", id, apperr.ErrAlreadyRegistered)
	}
	if e.current != nil {
		e.logger.Warn("navigation: observer registered after first navigation", slog.String("id", id))
	}
	e.ids[id] = struct{}{}
	e.observers = append(e.observers, observer{id: id, fn: fn})
	return nil
}

// OnOpen adds a listener for open events.
func (e *Engine) OnOpen(l Listener) {
	if l != nil {
		e.listeners = append(e.listeners, l)
	}
}

// Go opens path as a new history entry. The forward stack is always cleared.
func (e *Engine) Go(path string, opts ...GoOption) error {
	if path == "" {
		return fmt.Errorf("%w: file path is empty", apperr.ErrInvalidArgument)
	}
	var o goOptions
	for _, opt := range opts {
		opt(&o)
	}

	if o.encoding != "" {
		if e.encodings == nil {
			return fmt.Errorf("%w: encodings are not configurable", apperr.ErrInvalidArgument)
		}
		if err := e.encodings.PinEncoding(path, o.encoding); err != nil {
			return fmt.Errorf("navigation: pin encoding: %w", err)
		}
	}

	old := e.current
	if old != nil {
		e.back = append(e.back, old)
	}
	clear(e.forward)
	e.forward = e.forward[:0]

	next := newLocation(path, o.target)
	e.current = next

	e.dispatch(old, next)
	e.emit(next, CauseGo)
	return nil
}

// Back moves to the previous location. It reports false and does nothing
// when there is none.
func (e *Engine) Back() bool {
	return e.step(&e.back, &e.forward, CauseBack)
}

// Forward moves to the next location. It reports false and does nothing
// when there is none.
func (e *Engine) Forward() bool {
	return e.step(&e.forward, &e.back, CauseForward)
}

func (e *Engine) step(from, to *[]*Location, cause Cause) bool {
	if len(*from) == 0 || e.current == nil {
		return false
	}
	old := e.current
	*to = append(*to, old)

	n := len(*from) - 1
	next := (*from)[n]
	(*from)[n] = nil
	*from = (*from)[:n]
	e.current = next

	e.dispatch(old, next)
	e.emit(next, cause)
	return true
}

// ReloadCurrent re-emits the current location without touching the stacks.
func (e *Engine) ReloadCurrent(opts ...ReloadOption) bool {
	if e.current == nil {
		return false
	}
	var o reloadOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.hasScroll {
		e.current.ScrollPosition = o.scroll
	}
	e.emit(e.current, CauseReload)
	return true
}

// SetScrollPosition records the scroll offset of the current location.
func (e *Engine) SetScrollPosition(p float64) bool {
	if e.current == nil {
		return false
	}
	e.current.ScrollPosition = p
	return true
}

// Current returns a copy of the current location.
func (e *Engine) Current() (Location, bool) {
	if e.current == nil {
		return Location{}, false
	}
	return e.current.clone(), true
}

// CanGoBack reports whether Back would move.
func (e *Engine) CanGoBack() bool { return len(e.back) > 0 }

// CanGoForward reports whether Forward would move.
func (e *Engine) CanGoForward() bool { return len(e.forward) > 0 }

// Stacks returns the paths of the history, oldest first on both stacks.
func (e *Engine) Stacks() Stacks {
	s := Stacks{Back: paths(e.back), Forward: paths(e.forward)}
	if e.current != nil {
		s.Current = e.current.FilePath
	}
	return s
}

func paths(locs []*Location) []string {
	out := make([]string, len(locs))
	for i, l := range locs {
		out[i] = l.FilePath
	}
	return out
}

func (e *Engine) dispatch(outgoing, incoming *Location) {
	from := ""
	if outgoing != nil {
		from = outgoing.FilePath
	}
	for _, o := range e.observers {
		snap := o.fn(Handshake{
			ID:    o.id,
			From:  from,
			To:    incoming.FilePath,
			State: incoming.observerState[o.id],
		})
		if outgoing != nil {
			outgoing.observerState[o.id] = snap
		}
	}
}

func (e *Engine) emit(loc *Location, cause Cause) {
	ev := OpenEvent{
		FilePath:       loc.FilePath,
		InternalTarget: loc.InternalTarget,
		ScrollPosition: loc.ScrollPosition,
		Cause:          cause,
	}
	if e.encodings != nil {
		ev.Encoding = e.encodings.Encoding(loc.FilePath)
	}
	e.logger.Debug("navigation: open",
		slog.String("path", ev.FilePath),
		slog.String("cause", string(cause)))
	for _, l := range e.listeners {
		l(ev)
	}
}
