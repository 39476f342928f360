// Package blocking tracks remote content referenced by documents and whether
// the user has allowed it to load.
//
// New URLs start blocked. Allow decisions are remembered per document through
// the navigation observer returned by Registry.Observer.
package blocking

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/starford/mdview/internal/apperr"
	"github.com/starford/mdview/internal/navigation"
	"github.com/starford/mdview/internal/storage"
)

const (
	// File is the registry file name.
	File = "content-blocking.json"
	// Version is the current registry schema version.
	Version = 1
	// ObserverID is the id the registry observer registers under.
	ObserverID = "content-blocking"

	contentsKey = "contents"
	allowedKey  = "allowed"
)

// Content is one remote resource.
type Content struct {
	URL       string   `json:"url"`
	IsBlocked bool     `json:"isBlocked"`
	Documents []string `json:"documents"`
}

// Registry is the set of known remote resources.
type Registry struct {
	store    *storage.Store
	contents []*Content
	index    map[string]*Content
	// allowed is the last recorded allow list per document.
	allowed map[string][]string
	logger  *slog.Logger
}

// Open loads content-blocking.json from dir.
func Open(dir string, logger *slog.Logger) (*Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	store, err := storage.Open(dir, File, Version, logger)
	if err != nil {
		return nil, fmt.Errorf("blocking: open: %w", err)
	}
	return New(store, logger), nil
}

// New wraps an opened store.
func New(store *storage.Store, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		store:   store,
		index:   make(map[string]*Content),
		allowed: storage.Get(store, allowedKey, map[string][]string{}),
		logger:  logger,
	}
	if r.allowed == nil {
		r.allowed = map[string][]string{}
	}
	for _, c := range storage.Get(store, contentsKey, []Content{}) {
		if c.URL == "" || r.index[c.URL] != nil {
			continue
		}
		if c.Documents == nil {
			c.Documents = []string{}
		}
		r.contents = append(r.contents, &c)
		r.index[c.URL] = &c
	}
	return r
}

// Register records that doc references url and reports whether url is
// blocked. Unknown URLs start blocked.
func (r *Registry) Register(url, doc string) bool {
	c, ok := r.index[url]
	if !ok {
		c = &Content{URL: url, IsBlocked: true, Documents: []string{}}
		r.contents = append(r.contents, c)
		r.index[url] = c
		r.logger.Info("blocking: new remote content", slog.String("url", url))
	} else if doc == "" || slices.Contains(c.Documents, doc) {
		return c.IsBlocked
	}
	if doc != "" {
		c.Documents = append(c.Documents, doc)
	}
	r.save()
	return c.IsBlocked
}

// IsBlocked reports whether url is blocked. Unknown URLs are blocked.
func (r *Registry) IsBlocked(url string) bool {
	c, ok := r.index[url]
	return !ok || c.IsBlocked
}

// Unblock allows url to load.
func (r *Registry) Unblock(url string) error {
	c, ok := r.index[url]
	if !ok {
		return fmt.Errorf("blocking: %q: %w", url, apperr.ErrNotFound)
	}
	if c.IsBlocked {
		c.IsBlocked = false
		r.save()
	}
	return nil
}

// Allow unblocks every known URL in urls and returns how many changed.
func (r *Registry) Allow(urls []string) int {
	n := 0
	for _, u := range urls {
		if c, ok := r.index[u]; ok && c.IsBlocked {
			c.IsBlocked = false
			n++
		}
	}
	if n > 0 {
		r.save()
	}
	return n
}

// UnblockAll allows every known URL.
func (r *Registry) UnblockAll() int {
	n := 0
	for _, c := range r.contents {
		if c.IsBlocked {
			c.IsBlocked = false
			n++
		}
	}
	if n > 0 {
		r.save()
	}
	return n
}

// Blocked returns the blocked URLs referenced by doc.
func (r *Registry) Blocked(doc string) []string {
	return r.filter(doc, true)
}

// Unblocked returns the allowed URLs referenced by doc.
func (r *Registry) Unblocked(doc string) []string {
	return r.filter(doc, false)
}

func (r *Registry) filter(doc string, blocked bool) []string {
	out := []string{}
	for _, c := range r.contents {
		if c.IsBlocked == blocked && slices.Contains(c.Documents, doc) {
			out = append(out, c.URL)
		}
	}
	return out
}

// Contents returns a copy of every known resource.
func (r *Registry) Contents() []Content {
	out := make([]Content, len(r.contents))
	for i, c := range r.contents {
		out[i] = Content{URL: c.URL, IsBlocked: c.IsBlocked, Documents: slices.Clone(c.Documents)}
	}
	return out
}

// Observer returns the navigation observer that remembers allowed URLs per
// document. Leaving a document records the URLs it had unblocked; entering a
// document blocks everything except what it recorded. Without a history
// snapshot (a fresh Go, an anchor jump, a restart) the allow list last
// recorded for the entered document is used.
func (r *Registry) Observer() navigation.ObserverFunc {
	return func(h navigation.Handshake) navigation.Snapshot {
		var leaving []string
		if h.From != "" {
			leaving = r.Unblocked(h.From)
			r.remember(h.From, leaving)
		}
		allowed, ok := h.State.([]string)
		if !ok {
			allowed = r.allowed[h.To]
		}
		r.restore(allowed)
		return leaving
	}
}

// Remember records the URLs doc currently has unblocked, so they are allowed
// again the next time doc is entered.
func (r *Registry) Remember(doc string) {
	if doc != "" {
		r.remember(doc, r.Unblocked(doc))
	}
}

// Allowed returns the allow list last recorded for doc.
func (r *Registry) Allowed(doc string) []string {
	return slices.Clone(r.allowed[doc])
}

func (r *Registry) remember(doc string, urls []string) {
	if slices.Equal(r.allowed[doc], urls) {
		return
	}
	if len(urls) == 0 {
		if _, ok := r.allowed[doc]; !ok {
			return
		}
		delete(r.allowed, doc)
	} else {
		r.allowed[doc] = slices.Clone(urls)
	}
	r.store.Set(allowedKey, r.allowed)
}

func (r *Registry) restore(allowed []string) {
	dirty := false
	for _, c := range r.contents {
		want := !slices.Contains(allowed, c.URL)
		if c.IsBlocked != want {
			c.IsBlocked = want
			dirty = true
		}
	}
	if dirty {
		r.save()
	}
}

func (r *Registry) save() {
	r.store.Set(contentsKey, r.Contents())
}
