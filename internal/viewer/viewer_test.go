package viewer

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/starford/mdview/internal/apperr"
	"github.com/starford/mdview/internal/models"
	"github.com/starford/mdview/internal/settings"
	"github.com/starford/mdview/internal/sse"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingPublisher) Publish(eventType string, _ any) {
	r.mu.Lock()
	r.events = append(r.events, eventType)
	r.mu.Unlock()
}

func (r *recordingPublisher) count(eventType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e == eventType {
			n++
		}
	}
	return n
}

type env struct {
	v    *Viewer
	deps Deps
	pub  *recordingPublisher
	docs string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	pub := &recordingPublisher{}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	deps, err := Build(t.TempDir(), settings.StaticDisplay{Width: 1920, Height: 1080}, pub, logger)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	v, err := New(deps)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &env{v: v, deps: deps, pub: pub, docs: t.TempDir()}
}

func (e *env) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.docs, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func (e *env) page(t *testing.T) Page {
	t.Helper()
	p, err := e.v.Page()
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	return p
}

func TestOpen_Errors(t *testing.T) {
	e := newEnv(t)
	if err := e.v.Open(filepath.Join(e.docs, "missing.md")); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing file err = %v", err)
	}
	if err := e.v.Open(e.docs); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Errorf("directory err = %v", err)
	}
	if err := e.v.Open(""); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Errorf("empty path err = %v", err)
	}
	if _, err := e.v.Page(); !errors.Is(err, apperr.ErrNoDocument) {
		t.Errorf("Page without document err = %v", err)
	}
}

func TestScenario_HistoryAndNavigation(t *testing.T) {
	e := newEnv(t)
	a := e.write(t, "a.md", "# A\n")
	b := e.write(t, "b.md", "# B\n")
	c := e.write(t, "c.md", "# C\n")

	if err := e.v.Open(a); err != nil {
		t.Fatal(err)
	}
	if e.v.Location().CanGoBack {
		t.Error("CanGoBack after first open")
	}
	if err := e.v.Open(b); err != nil {
		t.Fatal(err)
	}
	loc := e.v.Location()
	if !loc.CanGoBack || loc.CanGoForward {
		t.Errorf("after b: %+v", loc)
	}
	if !e.v.Back() {
		t.Fatal("Back failed")
	}
	if loc := e.v.Location(); loc.FilePath != a || !loc.CanGoForward {
		t.Errorf("after back: %+v", loc)
	}
	if got := e.page(t).Title; got != "A" {
		t.Errorf("page title = %q", got)
	}
	if err := e.v.Open(c); err != nil {
		t.Fatal(err)
	}
	if e.v.Location().CanGoForward {
		t.Error("open must clear forward history")
	}

	if got := e.v.History(); !slices.Equal(got, []string{c, a, b}) {
		t.Errorf("History = %v", got)
	}
	if got := e.v.ClearHistory(); !slices.Equal(got, []string{c}) {
		t.Errorf("ClearHistory = %v", got)
	}
	if e.pub.count(sse.EventLocationOpen) != 4 {
		t.Errorf("location.open events = %d, want 4", e.pub.count(sse.EventLocationOpen))
	}
}

func TestFollow(t *testing.T) {
	e := newEnv(t)
	a := e.write(t, "a.md", "# A\n\n[guide](sub/guide.md#setup)\n")
	guide := e.write(t, "sub/guide.md", "# Guide\n\n## Setup\n")

	if err := e.v.Follow("other.md"); !errors.Is(err, apperr.ErrNoDocument) {
		t.Errorf("Follow without document err = %v", err)
	}
	if err := e.v.Open(a); err != nil {
		t.Fatal(err)
	}
	if err := e.v.Follow("sub/guide.md#setup"); err != nil {
		t.Fatalf("Follow: %v", err)
	}
	loc := e.v.Location()
	if loc.FilePath != guide || loc.InternalTarget != "setup" {
		t.Errorf("Location = %+v", loc)
	}

	if err := e.v.Follow("#guide"); err != nil {
		t.Fatalf("Follow fragment: %v", err)
	}
	if loc := e.v.Location(); loc.FilePath != guide || loc.InternalTarget != "guide" {
		t.Errorf("Location after fragment = %+v", loc)
	}

	if err := e.v.Follow("https://example.com/"); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Errorf("external link err = %v", err)
	}
	if err := e.v.Follow("../nope.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing link err = %v", err)
	}
}

func TestPage_PlainTextAndRenderAsMd(t *testing.T) {
	e := newEnv(t)
	txt := e.write(t, "notes.txt", "# not a heading\n")
	if err := e.v.Open(txt); err != nil {
		t.Fatal(err)
	}
	p := e.page(t)
	if p.Markdown || !strings.Contains(p.HTML, "<pre") {
		t.Errorf("plain text page = %+v", p)
	}

	if err := e.v.SetRenderAsMd(true); err != nil {
		t.Fatal(err)
	}
	p = e.page(t)
	if !p.Markdown || !strings.Contains(p.HTML, "<h1") {
		t.Errorf("render-as-md page = %+v", p)
	}
	if _, doc, err := e.v.DocumentSettings(); err != nil || !doc.RenderAsMd {
		t.Errorf("DocumentSettings = %+v, %v", doc, err)
	}
}

func TestSetEncoding(t *testing.T) {
	e := newEnv(t)
	path := filepath.Join(e.docs, "latin.md")
	if err := os.WriteFile(path, []byte("caf\xe9\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := e.v.Open(path); err != nil {
		t.Fatal(err)
	}

	enc := "latin1"
	if err := e.v.SetEncoding(&enc); err != nil {
		t.Fatalf("SetEncoding: %v", err)
	}
	p := e.page(t)
	if p.Encoding != "windows-1252" || !strings.Contains(p.HTML, "café") {
		t.Errorf("page = %+v", p)
	}

	bad := "klingon"
	if err := e.v.SetEncoding(&bad); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Errorf("bad encoding err = %v", err)
	}
	if err := e.v.SetEncoding(nil); err != nil {
		t.Fatal(err)
	}
	if p := e.page(t); p.Encoding != "" {
		t.Errorf("encoding after clear = %q", p.Encoding)
	}
}

func TestReloadIfChanged(t *testing.T) {
	e := newEnv(t)
	a := e.write(t, "a.md", "# One\n")
	other := e.write(t, "b.md", "# B\n")
	if err := e.v.Open(a); err != nil {
		t.Fatal(err)
	}

	if e.v.ReloadIfChanged(a) {
		t.Error("unchanged file reloaded")
	}
	if e.v.ReloadIfChanged(other) {
		t.Error("non-current file reloaded")
	}
	e.write(t, "a.md", "# Two\n")
	if !e.v.ReloadIfChanged(a) {
		t.Fatal("changed file not reloaded")
	}
	if got := e.page(t).Title; got != "Two" {
		t.Errorf("title = %q", got)
	}
	if e.pub.count(sse.EventDocumentChanged) != 1 {
		t.Error("document.changed not published")
	}
	if got := e.v.History(); len(got) != 1 {
		t.Errorf("reload touched history: %v", got)
	}
}

func TestScrollSurvivesBackForward(t *testing.T) {
	e := newEnv(t)
	a := e.write(t, "a.md", "# A\n")
	b := e.write(t, "b.md", "# B\n")

	if err := e.v.SetScroll(10); !errors.Is(err, apperr.ErrNoDocument) {
		t.Errorf("SetScroll without document err = %v", err)
	}
	if err := e.v.Open(a); err != nil {
		t.Fatal(err)
	}
	if err := e.v.SetScroll(300); err != nil {
		t.Fatal(err)
	}
	if err := e.v.Open(b); err != nil {
		t.Fatal(err)
	}
	e.v.Back()
	if got := e.page(t).ScrollPosition; got != 300 {
		t.Errorf("scroll = %v, want 300", got)
	}
}

func TestBlocking(t *testing.T) {
	e := newEnv(t)
	const img = "https://cdn.example/pic.png"
	a := e.write(t, "a.md", "![pic]("+img+")\n")
	b := e.write(t, "b.md", "# B\n")

	if err := e.v.Open(a); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(e.page(t).HTML, `src="`+img+`"`) {
		t.Error("remote image loads before unblock")
	}
	if st := e.v.Blocking(); !slices.Equal(st.Blocked, []string{img}) {
		t.Errorf("Blocking = %+v", st)
	}

	if err := e.v.Unblock(img); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(e.page(t).HTML, `src="`+img+`"`) {
		t.Error("remote image blocked after unblock")
	}
	if err := e.v.Unblock("https://unknown.example/"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown url err = %v", err)
	}

	if err := e.v.Open(b); err != nil {
		t.Fatal(err)
	}
	e.v.Back()
	if !strings.Contains(e.page(t).HTML, `src="`+img+`"`) {
		t.Error("allowed image not restored on back")
	}
}

func TestBlocking_AllowSurvivesAnchorJump(t *testing.T) {
	e := newEnv(t)
	const img = "https://cdn.example/pic.png"
	a := e.write(t, "a.md", "![pic]("+img+")\n\n## Sec\n")

	if err := e.v.Open(a); err != nil {
		t.Fatal(err)
	}
	if err := e.v.Unblock(img); err != nil {
		t.Fatal(err)
	}
	if err := e.v.Follow("#sec"); err != nil {
		t.Fatal(err)
	}
	if got := e.v.Location().FilePath; got != a {
		t.Fatalf("current = %q, want %q", got, a)
	}
	if st := e.v.Blocking(); len(st.Blocked) != 0 || !slices.Equal(st.Unblocked, []string{img}) {
		t.Errorf("after anchor jump = %+v", st)
	}
}

func TestBlocking_AllowSurvivesRevisit(t *testing.T) {
	e := newEnv(t)
	const img = "https://cdn.example/pic.png"
	a := e.write(t, "a.md", "![pic]("+img+")\n")
	b := e.write(t, "b.md", "# B\n")

	for _, step := range []func() error{
		func() error { return e.v.Open(a) },
		func() error { return e.v.Unblock(img) },
		func() error { return e.v.Open(b) },
	} {
		if err := step(); err != nil {
			t.Fatal(err)
		}
	}
	if st := e.v.Blocking(); len(st.Unblocked) != 0 {
		t.Errorf("b.md inherited allowed content: %+v", st)
	}

	if err := e.v.Open(a); err != nil {
		t.Fatal(err)
	}
	if st := e.v.Blocking(); len(st.Blocked) != 0 {
		t.Errorf("reopened a.md = %+v, want img allowed", st)
	}
	if !strings.Contains(e.page(t).HTML, `src="`+img+`"`) {
		t.Error("allowed image blocked after reopening")
	}
}

func TestBlocking_AllowSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	docs := t.TempDir()
	const img = "https://cdn.example/pic.png"
	a := filepath.Join(docs, "a.md")
	if err := os.WriteFile(a, []byte("![pic]("+img+")\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	start := func() *Viewer {
		logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
		deps, err := Build(dir, settings.StaticDisplay{Width: 1920, Height: 1080}, nil, logger)
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		v, err := New(deps)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		return v
	}

	v := start()
	if err := v.Open(a); err != nil {
		t.Fatal(err)
	}
	if err := v.Unblock(img); err != nil {
		t.Fatal(err)
	}

	v = start()
	if err := v.Open(a); err != nil {
		t.Fatal(err)
	}
	if st := v.Blocking(); len(st.Blocked) != 0 {
		t.Errorf("after restart = %+v, want img allowed", st)
	}
}

func TestAppSettings(t *testing.T) {
	e := newEnv(t)
	for _, name := range []string{"a.md", "b.md", "c.md"} {
		if err := e.v.Open(e.write(t, name, "# "+name+"\n")); err != nil {
			t.Fatal(err)
		}
	}

	got, err := e.v.PatchAppSettings(map[string]json.RawMessage{"file-history-size": json.RawMessage(`2`)})
	if err != nil {
		t.Fatalf("PatchAppSettings: %v", err)
	}
	if got.FileHistorySize != 2 || len(e.v.History()) != 2 {
		t.Errorf("history size = %d, history = %v", got.FileHistorySize, e.v.History())
	}

	before := e.pub.count(sse.EventThemeChanged)
	if err := e.v.SetTheme("dark"); err != nil {
		t.Fatal(err)
	}
	if e.pub.count(sse.EventThemeChanged) != before+1 {
		t.Error("theme.changed not published")
	}
	if err := e.v.SetTheme("neon"); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Errorf("neon err = %v", err)
	}
	if e.v.AppSettings().Theme != "dark" {
		t.Error("rejected theme applied")
	}
}

func TestTocAndWindow(t *testing.T) {
	e := newEnv(t)
	a := e.write(t, "a.md", "# Intro\n\n## Usage\n")
	if _, err := e.v.SetTocVisible(true, true); !errors.Is(err, apperr.ErrNoDocument) {
		t.Errorf("SetTocVisible without document err = %v", err)
	}
	if err := e.v.Open(a); err != nil {
		t.Fatal(err)
	}

	st, err := e.v.SetTocVisible(true, true)
	if err != nil {
		t.Fatal(err)
	}
	if !st.Visible || !st.DocumentOverride || len(st.Entries) != 2 {
		t.Errorf("TocState = %+v", st)
	}
	st, err = e.v.SetTocCollapsed("usage", true)
	if err != nil {
		t.Fatal(err)
	}
	if !st.Entries[1].Collapsed {
		t.Errorf("entries = %+v", st.Entries)
	}

	b := models.Bounds{X: 1, Y: 2, Width: 640, Height: 480}
	if err := e.v.SetBounds(b); err != nil {
		t.Fatal(err)
	}
	if e.v.Bounds() != b {
		t.Errorf("Bounds = %+v", e.v.Bounds())
	}
}
