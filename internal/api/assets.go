package api

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
)

// DocumentRoot reports the file currently on screen.
type DocumentRoot interface {
	CurrentFile() string
}

// AssetHandler serves files that sit next to the current document, such as
// relative images rewritten by the renderer.
type AssetHandler struct {
	root DocumentRoot
}

// NewAssetHandler creates a handler rooted at the current document's directory.
func NewAssetHandler(root DocumentRoot) *AssetHandler {
	return &AssetHandler{root: root}
}

// safePath validates that name stays inside base and returns the absolute path.
func safePath(base, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("asset name is required")
	}
	cleaned := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid asset path: %s", name)
	}
	abs := filepath.Join(base, cleaned)
	// Double-check the resolved path is under the document directory.
	if !strings.HasPrefix(abs, base+string(os.PathSeparator)) {
		return "", fmt.Errorf("path escapes document directory")
	}
	return abs, nil
}

// ServeFile handles GET /assets/*.
func (h *AssetHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	current := h.root.CurrentFile()
	if current == "" {
		http.NotFound(w, r)
		return
	}
	name, err := url.PathUnescape(strings.TrimPrefix(chi.URLParam(r, "*"), "/"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	abs, err := safePath(filepath.Dir(current), name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	info, statErr := os.Stat(abs)
	if statErr != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, abs)
}
