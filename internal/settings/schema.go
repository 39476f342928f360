package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/mdview/internal/apperr"
)

// fields returns the JSON encoding of v split by top-level key.
func fields(v any) map[string]json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

// decodeLenient copies every entry of data into target one key at a time, so
// a single malformed value does not discard the others.
func decodeLenient(data map[string]json.RawMessage, target any, logger *slog.Logger) {
	for key, raw := range data {
		one, err := json.Marshal(map[string]json.RawMessage{key: raw})
		if err != nil {
			continue
		}
		if err := json.Unmarshal(one, target); err != nil {
			logger.Warn("settings: ignoring malformed value",
				slog.String("key", key),
				slog.String("error", err.Error()))
		}
	}
}

// sanitize resets every field that fails validation back to its default.
func sanitize[T any](v *T, def T, validate func(*T) error, logger *slog.Logger) {
	err := validate(v)
	if err == nil {
		return
	}
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		*v = def
		return
	}
	defaults := fields(def)
	reset := make(map[string]json.RawMessage, len(verrs))
	for key := range verrs {
		if raw, ok := defaults[key]; ok {
			reset[key] = raw
		}
	}
	logger.Warn("settings: stored values failed validation, using defaults",
		slog.String("keys", fmt.Sprint(sortedKeys(reset))))
	decodeLenient(reset, v, logger)
}

// applyPatch overlays raw onto current. Keys outside the schema of T are
// rejected.
func applyPatch[T any](current T, raw map[string]json.RawMessage) (T, error) {
	known := fields(current)
	for key := range raw {
		if _, ok := known[key]; !ok {
			return current, fmt.Errorf("%w: unknown setting %q", apperr.ErrInvalidArgument, key)
		}
	}
	next := current
	one, err := json.Marshal(raw)
	if err != nil {
		return current, fmt.Errorf("%w: %v", apperr.ErrInvalidArgument, err)
	}
	if err := json.Unmarshal(one, &next); err != nil {
		return current, fmt.Errorf("%w: %v", apperr.ErrInvalidArgument, err)
	}
	return next, nil
}

// changed returns the keys of next whose encoding differs from prev.
func changed(prev, next any) map[string]any {
	before := fields(prev)
	out := make(map[string]any)
	for key, raw := range fields(next) {
		if !bytes.Equal(before[key], raw) {
			out[key] = raw
		}
	}
	return out
}

func invalid(err error) error {
	return fmt.Errorf("%w: %v", apperr.ErrInvalidArgument, err)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
