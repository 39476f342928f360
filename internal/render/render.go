// Package render turns document text into safe HTML using goldmark.
package render

import (
	"bytes"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"sync"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	goldmarkparser "github.com/yuin/goldmark/parser"
	goldmarkrenderer "github.com/yuin/goldmark/renderer"
	ghtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/starford/mdview/internal/models"
	"github.com/starford/mdview/internal/parser"
)

// Options selects the Markdown features enabled for a render.
type Options struct {
	LineBreaks   bool
	Typography   bool
	Emojis       bool
	HideMetadata bool
	// Dark selects the dark code highlighting style.
	Dark bool
}

// Document is the input of a render.
type Document struct {
	// Path is the absolute path of the document.
	Path string
	// Source is the document text, already decoded to UTF-8.
	Source []byte
	// Markdown is false for files shown as plain text.
	Markdown bool
}

// Result is a rendered document.
type Result struct {
	HTML         string           `json:"html"`
	Title        string           `json:"title"`
	Headings     []models.Heading `json:"headings"`
	RemoteImages []string         `json:"remoteImages"`
}

// Blocker decides whether remote content may load.
type Blocker interface {
	Register(url, doc string) bool
}

// Renderer caches one goldmark instance per option set.
type Renderer struct {
	blocker Blocker
	logger  *slog.Logger

	mu       sync.Mutex
	converts map[Options]goldmark.Markdown
}

// New creates a Renderer. blocker may be nil, in which case remote images
// load unconditionally.
func New(blocker Blocker, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		blocker:  blocker,
		logger:   logger,
		converts: make(map[Options]goldmark.Markdown),
	}
}

// Render converts doc to HTML.
func (r *Renderer) Render(doc Document, opts Options) (*Result, error) {
	if !doc.Markdown {
		return &Result{
			HTML:         "<pre class=\"plain-text\">" + html.EscapeString(string(doc.Source)) + "</pre>\n",
			Headings:     []models.Heading{},
			RemoteImages: []string{},
		}, nil
	}

	parsed := parser.Parse(doc.Source)
	body := []byte(parsed.Body)

	md := r.markdown(opts)
	ctx := newContext(doc.Path, r.blocker)
	root := md.Parser().Parse(text.NewReader(body), goldmarkparser.WithContext(ctx))

	var buf bytes.Buffer
	if !opts.HideMetadata {
		writeMetadata(&buf, parsed.Fields)
	}
	if err := md.Renderer().Render(&buf, body, root); err != nil {
		return nil, fmt.Errorf("render: %s: %w", doc.Path, err)
	}

	res := &Result{
		HTML:         buf.String(),
		Title:        parsed.Title,
		Headings:     collectHeadings(root, body),
		RemoteImages: remoteImages(ctx),
	}
	r.logger.Debug("render: done",
		slog.String("path", doc.Path),
		slog.Int("headings", len(res.Headings)),
		slog.Int("remote_images", len(res.RemoteImages)))
	return res, nil
}

func (r *Renderer) markdown(opts Options) goldmark.Markdown {
	r.mu.Lock()
	defer r.mu.Unlock()
	if md, ok := r.converts[opts]; ok {
		return md
	}

	style := "github"
	if opts.Dark {
		style = "monokai"
	}
	exts := []goldmark.Extender{
		extension.GFM,
		highlighting.NewHighlighting(
			highlighting.WithStyle(style),
			highlighting.WithFormatOptions(
				chromahtml.TabWidth(4),
				chromahtml.WrapLongLines(true),
			),
		),
	}
	if opts.Typography {
		exts = append(exts, extension.Typographer)
	}
	if opts.Emojis {
		exts = append(exts, emoji.Emoji)
	}
	var rendererOpts []goldmarkrenderer.Option
	if opts.LineBreaks {
		rendererOpts = append(rendererOpts, ghtml.WithHardWraps())
	}

	md := goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(
			goldmarkparser.WithAutoHeadingID(),
			goldmarkparser.WithASTTransformers(util.Prioritized(imageTransformer{}, 100)),
		),
		goldmark.WithRendererOptions(rendererOpts...),
	)
	r.converts[opts] = md
	return md
}

func collectHeadings(root ast.Node, source []byte) []models.Heading {
	out := []models.Heading{}
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		var id string
		if v, ok := h.AttributeString("id"); ok {
			if b, ok := v.([]byte); ok {
				id = string(b)
			}
		}
		out = append(out, models.Heading{ID: id, Level: h.Level, Text: plainText(h, source)})
		return ast.WalkSkipChildren, nil
	})
	return out
}

func plainText(n ast.Node, source []byte) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(t.Value)
		default:
			sb.WriteString(plainText(c, source))
		}
	}
	return sb.String()
}

func writeMetadata(buf *bytes.Buffer, fields []parser.Field) {
	if len(fields) == 0 {
		return
	}
	buf.WriteString("<table class=\"metadata\">\n<tbody>\n")
	for _, f := range fields {
		fmt.Fprintf(buf, "<tr><th>%s</th><td>%s</td></tr>\n",
			html.EscapeString(f.Key), html.EscapeString(f.Value))
	}
	buf.WriteString("</tbody>\n</table>\n")
}
