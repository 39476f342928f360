package render

import (
	"io"
	"log/slog"
	"slices"
	"strings"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

type fakeBlocker struct {
	allowed map[string]bool
	seen    []string
}

func (f *fakeBlocker) Register(url, doc string) bool {
	f.seen = append(f.seen, url+"@"+doc)
	return !f.allowed[url]
}

func render(t *testing.T, r *Renderer, src string, opts Options) *Result {
	t.Helper()
	res, err := r.Render(Document{Path: "/docs/a.md", Source: []byte(src), Markdown: true}, opts)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	return res
}

func TestRender_HeadingsAndTitle(t *testing.T) {
	r := New(nil, testLogger())
	res := render(t, r, "# Intro\n\nText\n\n## Getting *started*\n", Options{})

	if res.Title != "Intro" {
		t.Errorf("Title = %q", res.Title)
	}
	if len(res.Headings) != 2 {
		t.Fatalf("Headings = %+v", res.Headings)
	}
	if h := res.Headings[0]; h.ID != "intro" || h.Level != 1 || h.Text != "Intro" {
		t.Errorf("first heading = %+v", h)
	}
	if h := res.Headings[1]; h.ID != "getting-started" || h.Level != 2 || h.Text != "Getting started" {
		t.Errorf("second heading = %+v", h)
	}
	if !strings.Contains(res.HTML, `<h1 id="intro">Intro</h1>`) {
		t.Errorf("HTML = %s", res.HTML)
	}
}

func TestRender_RawHTMLOmitted(t *testing.T) {
	r := New(nil, testLogger())
	res := render(t, r, "<script>alert(1)</script>\n\nok\n", Options{})
	if strings.Contains(res.HTML, "<script>") {
		t.Errorf("raw HTML rendered: %s", res.HTML)
	}
}

func TestRender_LineBreaks(t *testing.T) {
	r := New(nil, testLogger())
	src := "one\ntwo\n"
	if got := render(t, r, src, Options{}).HTML; strings.Contains(got, "<br") {
		t.Errorf("unexpected hard break: %s", got)
	}
	if got := render(t, r, src, Options{LineBreaks: true}).HTML; !strings.Contains(got, "<br") {
		t.Errorf("missing hard break: %s", got)
	}
}

func TestRender_Typography(t *testing.T) {
	r := New(nil, testLogger())
	if got := render(t, r, "wait...\n", Options{Typography: true}).HTML; !strings.Contains(got, "&hellip;") {
		t.Errorf("typographer not applied: %s", got)
	}
	if got := render(t, r, "wait...\n", Options{}).HTML; !strings.Contains(got, "wait...") {
		t.Errorf("typographer applied while disabled: %s", got)
	}
}

func TestRender_Emoji(t *testing.T) {
	r := New(nil, testLogger())
	if got := render(t, r, "hi :smile:\n", Options{Emojis: true}).HTML; strings.Contains(got, ":smile:") {
		t.Errorf("emoji not replaced: %s", got)
	}
	if got := render(t, r, "hi :smile:\n", Options{}).HTML; !strings.Contains(got, ":smile:") {
		t.Errorf("emoji replaced while disabled: %s", got)
	}
}

func TestRender_Metadata(t *testing.T) {
	r := New(nil, testLogger())
	src := "---\ntitle: Doc <1>\n---\n# Body\n"

	shown := render(t, r, src, Options{})
	if !strings.Contains(shown.HTML, `<table class="metadata">`) ||
		!strings.Contains(shown.HTML, "Doc &lt;1&gt;") {
		t.Errorf("metadata missing or unescaped: %s", shown.HTML)
	}
	if shown.Title != "Doc <1>" {
		t.Errorf("Title = %q", shown.Title)
	}

	hidden := render(t, r, src, Options{HideMetadata: true})
	if strings.Contains(hidden.HTML, "metadata") || strings.Contains(hidden.HTML, "title:") {
		t.Errorf("metadata shown while hidden: %s", hidden.HTML)
	}
}

func TestRender_RemoteImagesBlocked(t *testing.T) {
	b := &fakeBlocker{allowed: map[string]bool{"https://ok.example/y.png": true}}
	r := New(b, testLogger())
	src := "![x](https://cdn.example/x.png)\n\n![y](https://ok.example/y.png)\n"

	res := render(t, r, src, Options{})
	want := []string{"https://cdn.example/x.png", "https://ok.example/y.png"}
	if !slices.Equal(res.RemoteImages, want) {
		t.Errorf("RemoteImages = %v", res.RemoteImages)
	}
	if strings.Contains(res.HTML, `src="https://cdn.example/x.png"`) {
		t.Errorf("blocked image still loads: %s", res.HTML)
	}
	if !strings.Contains(res.HTML, `data-blocked-src="https://cdn.example/x.png"`) {
		t.Errorf("blocked image not marked: %s", res.HTML)
	}
	if !strings.Contains(res.HTML, `src="https://ok.example/y.png"`) {
		t.Errorf("allowed image missing: %s", res.HTML)
	}
	if !slices.Contains(b.seen, "https://cdn.example/x.png@/docs/a.md") {
		t.Errorf("blocker saw %v", b.seen)
	}
}

func TestRender_RelativeImagesUseAssets(t *testing.T) {
	r := New(nil, testLogger())
	res := render(t, r, "![a](img/a.png)\n\n![b](../b.png)\n\n![c](data:image/png;base64,AA==)\n", Options{})
	if !strings.Contains(res.HTML, `src="/assets/img/a.png"`) {
		t.Errorf("relative image not rewritten: %s", res.HTML)
	}
	if strings.Contains(res.HTML, "/assets/../") {
		t.Errorf("parent path rewritten: %s", res.HTML)
	}
	if len(res.RemoteImages) != 0 {
		t.Errorf("RemoteImages = %v", res.RemoteImages)
	}
}

func TestRender_PlainText(t *testing.T) {
	r := New(nil, testLogger())
	res, err := r.Render(Document{Path: "/docs/a.txt", Source: []byte("# not <b>md</b>"), Markdown: false}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.HTML != "<pre class=\"plain-text\"># not &lt;b&gt;md&lt;/b&gt;</pre>\n" {
		t.Errorf("HTML = %q", res.HTML)
	}
	if len(res.Headings) != 0 {
		t.Errorf("Headings = %v", res.Headings)
	}
}

func TestRender_CodeHighlighting(t *testing.T) {
	r := New(nil, testLogger())
	src := "```go\nfunc main() {}\n```\n"
	light := render(t, r, src, Options{}).HTML
	dark := render(t, r, src, Options{Dark: true}).HTML
	if !strings.Contains(light, "<pre") || light == dark {
		t.Errorf("highlight style does not follow theme:\nlight=%s\ndark=%s", light, dark)
	}
}

func TestRender_CodeBlocksWrapLongLines(t *testing.T) {
	r := New(nil, testLogger())
	src := "```go\nfunc main() {\n\treturn\n}\n```\n"
	out := render(t, r, src, Options{}).HTML
	if !strings.Contains(out, "pre-wrap") {
		t.Errorf("code block does not wrap long lines: %s", out)
	}
	if !strings.Contains(out, "tab-size") {
		t.Errorf("code block tab width not set: %s", out)
	}
}
