package viewer

import (
	"log/slog"
	"os"

	"github.com/starford/mdview/internal/checksum"
	"github.com/starford/mdview/internal/models"
	"github.com/starford/mdview/internal/navigation"
	"github.com/starford/mdview/internal/render"
	"github.com/starford/mdview/internal/settings"
	"github.com/starford/mdview/internal/textenc"
)

// Page is the rendered current document.
type Page struct {
	FilePath       string           `json:"filePath"`
	InternalTarget string           `json:"internalTarget,omitempty"`
	Encoding       string           `json:"encoding"`
	ScrollPosition float64          `json:"scrollPosition"`
	Cause          navigation.Cause `json:"cause"`
	Title          string           `json:"title"`
	HTML           string           `json:"html"`
	Headings       []models.Heading `json:"headings"`
	RemoteImages   []string         `json:"remoteImages"`
	Markdown       bool             `json:"markdown"`
	Checksum       string           `json:"checksum"`
	// Error is set when the document could not be read.
	Error string `json:"error,omitempty"`
}

func (v *Viewer) buildPage(ev navigation.OpenEvent) *Page {
	page := &Page{
		FilePath:       ev.FilePath,
		InternalTarget: ev.InternalTarget,
		Encoding:       ev.Encoding,
		ScrollPosition: ev.ScrollPosition,
		Cause:          ev.Cause,
		Headings:       []models.Heading{},
		RemoteImages:   []string{},
	}

	raw, err := os.ReadFile(ev.FilePath)
	if err != nil {
		v.logger.Warn("viewer: read failed", slog.String("path", ev.FilePath), slog.String("error", err.Error()))
		page.Error = err.Error()
		return page
	}
	page.Checksum = checksum.Sum(raw)

	text, err := textenc.Decode(raw, ev.Encoding)
	if err != nil {
		v.logger.Warn("viewer: decode failed, falling back to utf-8",
			slog.String("path", ev.FilePath),
			slog.String("encoding", ev.Encoding),
			slog.String("error", err.Error()))
		text, _ = textenc.Decode(raw, textenc.UTF8)
	}

	app := v.deps.App.Values()
	page.Markdown = v.deps.App.IsMarkdownFile(ev.FilePath) || v.deps.Docs.For(ev.FilePath).RenderAsMd
	res, err := v.deps.Renderer.Render(render.Document{
		Path:     ev.FilePath,
		Source:   text,
		Markdown: page.Markdown,
	}, render.Options{
		LineBreaks:   app.LineBreaksEnabled,
		Typography:   app.TypographyEnabled,
		Emojis:       app.EmojisEnabled,
		HideMetadata: app.HideMetadata,
		Dark:         app.Theme == settings.ThemeDark,
	})
	if err != nil {
		v.logger.Error("viewer: render failed", slog.String("path", ev.FilePath), slog.String("error", err.Error()))
		page.Error = err.Error()
		return page
	}
	page.Title = res.Title
	page.HTML = res.HTML
	page.Headings = res.Headings
	page.RemoteImages = res.RemoteImages
	return page
}
