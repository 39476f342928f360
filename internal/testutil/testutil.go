// Package testutil provides shared test helpers for setting up viewers and
// document trees.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/mdview/internal/settings"
	"github.com/starford/mdview/internal/viewer"
)

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// WriteDoc writes content to dir/name, creating parent directories, and
// returns the absolute path.
func WriteDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		t.Fatal(err)
	}
	return abs
}

// NewViewer creates a viewer backed by a temporary settings directory.
// pub may be nil.
func NewViewer(t *testing.T, pub viewer.Publisher) *viewer.Viewer {
	t.Helper()
	deps, err := viewer.Build(t.TempDir(), settings.StaticDisplay{Width: 1920, Height: 1080}, pub, Logger())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	v, err := viewer.New(deps)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return v
}
