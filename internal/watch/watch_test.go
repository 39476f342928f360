package watch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

type recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *recorder) add(p string) {
	r.mu.Lock()
	r.paths = append(r.paths, p)
	r.mu.Unlock()
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.paths)
}

func (r *recorder) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.paths) == 0 {
		return ""
	}
	return r.paths[len(r.paths)-1]
}

func start(t *testing.T, w *Watcher) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestWatcher_ReportsChangesToTrackedFile(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "a.md")
	other := filepath.Join(dir, "b.md")
	for _, p := range []string{doc, other} {
		if err := os.WriteFile(p, []byte("# start"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	rec := &recorder{}
	w := New(20*time.Millisecond, testLogger(), rec.add)
	w.Track(doc)
	start(t, w)

	// Give the watcher a moment to register the directory.
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(other, []byte("# other"), 0o644); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(doc, []byte("# changed"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	eventually(t, func() bool { return rec.count() >= 1 })
	if rec.last() != doc {
		t.Errorf("callback path = %q, want %q", rec.last(), doc)
	}
}

func TestWatcher_Retarget(t *testing.T) {
	dirA, dirB := t.TempDir(), t.TempDir()
	a := filepath.Join(dirA, "a.md")
	b := filepath.Join(dirB, "b.md")
	for _, p := range []string{a, b} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	rec := &recorder{}
	w := New(20*time.Millisecond, testLogger(), rec.add)
	start(t, w)
	w.Track(a)
	time.Sleep(100 * time.Millisecond)
	w.Track(b)
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(b, []byte("y"), 0o644); err != nil {
		t.Fatal(err)
	}
	eventually(t, func() bool { return rec.last() == b })
	if w.Target() != b {
		t.Errorf("Target = %q", w.Target())
	}
}
