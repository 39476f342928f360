package render

import (
	"net/url"
	"path"
	"strings"

	"github.com/yuin/goldmark/ast"
	goldmarkparser "github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// AssetPrefix is the URL prefix under which files next to the current
// document are served.
const AssetPrefix = "/assets/"

var imageStateKey = goldmarkparser.NewContextKey()

type imageState struct {
	doc     string
	blocker Blocker
	remote  []string
}

func newContext(doc string, blocker Blocker) goldmarkparser.Context {
	ctx := goldmarkparser.NewContext()
	ctx.Set(imageStateKey, &imageState{doc: doc, blocker: blocker})
	return ctx
}

func remoteImages(ctx goldmarkparser.Context) []string {
	st, ok := ctx.Get(imageStateKey).(*imageState)
	if !ok || st.remote == nil {
		return []string{}
	}
	return st.remote
}

// imageTransformer rewrites image destinations: remote images are
// registered with the blocker and neutralised while blocked, relative images
// are served from AssetPrefix.
type imageTransformer struct{}

func (imageTransformer) Transform(doc *ast.Document, _ text.Reader, pc goldmarkparser.Context) {
	st, ok := pc.Get(imageStateKey).(*imageState)
	if !ok {
		return
	}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		img, ok := n.(*ast.Image)
		if !ok {
			return ast.WalkContinue, nil
		}
		st.rewrite(img)
		return ast.WalkContinue, nil
	})
}

func (st *imageState) rewrite(img *ast.Image) {
	dest := string(img.Destination)
	u, err := url.Parse(dest)
	if err != nil || dest == "" {
		return
	}
	switch {
	case u.Scheme == "http" || u.Scheme == "https":
		st.remote = append(st.remote, dest)
		if st.blocker != nil && st.blocker.Register(dest, st.doc) {
			img.Destination = nil
			img.SetAttributeString("data-blocked-src", []byte(dest))
			img.SetAttributeString("class", []byte("blocked"))
		}
	case u.Scheme == "" && u.Host == "" && !strings.HasPrefix(u.Path, "/") && u.Path != "":
		rel := path.Clean(u.Path)
		if rel == ".." || strings.HasPrefix(rel, "../") {
			return
		}
		out := url.URL{Path: AssetPrefix + rel, RawQuery: u.RawQuery, Fragment: u.Fragment}
		img.Destination = []byte(out.String())
	}
}
