// Package storage provides versioned, JSON-file-backed key/value stores.
//
// One Store maps to one file inside the settings directory. Every mutation
// rewrites the whole file; the files are a few kilobytes and writes are
// user-driven. Read and write failures never reach the caller: a malformed
// file loads as an empty store and a failed write leaves the in-memory data
// authoritative for the rest of the session.
package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// VersionKey is the reserved key holding the schema version.
const VersionKey = "version"

// Store is a JSON object persisted to a single file.
type Store struct {
	mu            sync.RWMutex
	path          string
	version       int
	actualVersion int
	data          map[string]json.RawMessage
	logger        *slog.Logger
}

// Open loads dir/file, creating dir when missing. A missing file yields an
// empty store; a malformed one is logged and treated as empty. The version
// found on disk is kept as ActualVersion and the store is stamped with
// currentVersion.
func Open(dir, file string, currentVersion int, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create dir: %w", err)
	}

	s := &Store{
		path:    filepath.Join(abs, file),
		version: currentVersion,
		data:    make(map[string]json.RawMessage),
		logger:  logger,
	}
	s.load()

	if s.actualVersion != currentVersion {
		s.data[VersionKey] = mustMarshal(currentVersion)
		s.flush()
	}
	return s, nil
}

func (s *Store) load() {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("storage: read failed",
				slog.String("path", s.path),
				slog.String("error", err.Error()))
		}
		return
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return
	}

	var data map[string]json.RawMessage
	if err := json.Unmarshal(raw, &data); err != nil || data == nil {
		msg := "not a JSON object"
		if err != nil {
			msg = err.Error()
		}
		s.logger.Warn("storage: corrupt file, starting empty",
			slog.String("path", s.path),
			slog.String("error", msg))
		return
	}
	s.data = data

	if v, ok := data[VersionKey]; ok {
		var version int
		if err := json.Unmarshal(v, &version); err == nil {
			s.actualVersion = version
		}
	}
}

// Path returns the absolute path of the backing file.
func (s *Store) Path() string { return s.path }

// Version returns the version the store was opened with.
func (s *Store) Version() int { return s.version }

// ActualVersion returns the version found on disk at open time (0 when absent).
func (s *Store) ActualVersion() int { return s.actualVersion }

// Has reports whether key is present.
func (s *Store) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[key]
	return ok
}

// Raw returns the stored JSON for key.
func (s *Store) Raw(key string) (json.RawMessage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

// Keys returns every key except the version stamp, sorted.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		if k == VersionKey {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Decode unmarshals the whole store into target. Fields of target that have
// no stored key keep their current values, so callers pre-fill defaults.
func (s *Store) Decode(target any) error {
	s.mu.RLock()
	raw, err := json.Marshal(s.data)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("storage: encode %s: %w", s.path, err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("storage: decode %s: %w", s.path, err)
	}
	return nil
}

// Get returns the value stored under key, or def when the key is absent or
// does not decode into T.
func Get[T any](s *Store, key string, def T) T {
	raw, ok := s.Raw(key)
	if !ok {
		return def
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		s.logger.Warn("storage: decode value failed",
			slog.String("path", s.path),
			slog.String("key", key),
			slog.String("error", err.Error()))
		return def
	}
	return v
}

// Set stores value under key and rewrites the file.
func (s *Store) Set(key string, value any) {
	s.SetMany(map[string]any{key: value})
}

// SetMany stores every entry and rewrites the file once.
func (s *Store) SetMany(values map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := false
	for key, value := range values {
		if key == VersionKey {
			continue
		}
		raw, err := json.Marshal(value)
		if err != nil {
			s.logger.Error("storage: encode value failed",
				slog.String("path", s.path),
				slog.String("key", key),
				slog.String("error", err.Error()))
			continue
		}
		s.data[key] = raw
		changed = true
	}
	if changed {
		s.flush()
	}
}

// Delete removes keys and rewrites the file when anything was removed.
func (s *Store) Delete(keys ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := false
	for _, key := range keys {
		if key == VersionKey {
			continue
		}
		if _, ok := s.data[key]; ok {
			delete(s.data, key)
			changed = true
		}
	}
	if changed {
		s.flush()
	}
}

func (s *Store) flush() {
	s.data[VersionKey] = mustMarshal(s.version)
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		s.logger.Error("storage: encode failed",
			slog.String("path", s.path),
			slog.String("error", err.Error()))
		return
	}
	raw = append(raw, '\n')
	if err := writeFileAtomic(s.path, raw); err != nil {
		s.logger.Warn("storage: write failed, change kept in memory only",
			slog.String("path", s.path),
			slog.String("error", err.Error()))
	}
}

func mustMarshal(v int) json.RawMessage {
	raw, _ := json.Marshal(v)
	return raw
}
