// Package filehistory keeps the most-recently-opened documents list.
package filehistory

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/starford/mdview/internal/storage"
)

const (
	// File is the history file name.
	File = "file-history.json"
	// Version is the current history schema version.
	Version = 1

	filesKey = "files"
)

// SizeSource supplies the configured history size. It is read on every
// mutation so a shrunk setting takes effect on the next Add.
type SizeSource interface {
	FileHistorySize() int
}

// History is an ordered, duplicate-free list of paths, most recent first.
type History struct {
	store  *storage.Store
	size   SizeSource
	files  []string
	logger *slog.Logger
}

// Open loads file-history.json from dir.
func Open(dir string, size SizeSource, logger *slog.Logger) (*History, error) {
	if logger == nil {
		logger = slog.Default()
	}
	store, err := storage.Open(dir, File, Version, logger)
	if err != nil {
		return nil, fmt.Errorf("filehistory: open: %w", err)
	}
	return New(store, size, logger), nil
}

// New wraps an opened store.
func New(store *storage.Store, size SizeSource, logger *slog.Logger) *History {
	if logger == nil {
		logger = slog.Default()
	}
	files := storage.Get(store, filesKey, []string{})
	h := &History{store: store, size: size, logger: logger}
	for _, f := range files {
		if f != "" && !slices.Contains(h.files, f) {
			h.files = append(h.files, f)
		}
	}
	return h
}

// Files returns the history, most recent first.
func (h *History) Files() []string {
	return slices.Clone(h.files)
}

// Add moves path to the front and trims to the configured size.
func (h *History) Add(path string) {
	if path == "" {
		return
	}
	files := make([]string, 0, len(h.files)+1)
	files = append(files, path)
	for _, f := range h.files {
		if f != path {
			files = append(files, f)
		}
	}
	h.save(h.truncate(files))
}

// UpdateSize trims the history to the configured size without adding.
func (h *History) UpdateSize() {
	h.save(h.truncate(slices.Clone(h.files)))
}

// Clear empties the history, keeping only current when it is not empty.
func (h *History) Clear(current string) {
	h.save([]string{})
	if current != "" {
		h.Add(current)
	}
}

// Remove drops path from the history.
func (h *History) Remove(path string) bool {
	i := slices.Index(h.files, path)
	if i < 0 {
		return false
	}
	h.save(slices.Delete(slices.Clone(h.files), i, i+1))
	return true
}

func (h *History) truncate(files []string) []string {
	limit := len(files)
	if h.size != nil {
		limit = max(0, h.size.FileHistorySize())
	}
	if len(files) > limit {
		files = files[:limit]
	}
	return files
}

func (h *History) save(files []string) {
	if slices.Equal(files, h.files) && h.store.Has(filesKey) {
		return
	}
	h.files = files
	h.store.Set(filesKey, files)
	h.logger.Debug("filehistory: updated", slog.Int("count", len(files)))
}
