package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/mdview/internal/viewer"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(v *viewer.Viewer, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(v)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))
	r.Use(RequireJSON)

	r.Get("/location", h.Location)
	r.Get("/page", h.Page)

	// Navigation.
	r.Route("/nav", func(r chi.Router) {
		r.Post("/open", h.Open)
		r.Post("/follow", h.Follow)
		r.Post("/back", h.Back)
		r.Post("/forward", h.Forward)
		r.Post("/reload", h.Reload)
		r.Put("/scroll", h.Scroll)
	})

	// Settings.
	r.Get("/settings/app", h.AppSettings)
	r.Patch("/settings/app", h.PatchAppSettings)
	r.Get("/settings/document", h.DocumentSettings)
	r.Put("/settings/document/encoding", h.SetEncoding)
	r.Put("/settings/document/render-as-md", h.SetRenderAsMd)

	// File history.
	r.Get("/history", h.History)
	r.Delete("/history", h.ClearHistory)

	// Remote content.
	r.Get("/blocking", h.Blocking)
	r.Post("/blocking/unblock", h.Unblock)
	r.Post("/blocking/unblock-all", h.UnblockAll)

	// Table of contents.
	r.Get("/toc", h.Toc)
	r.Put("/toc/visibility", h.SetTocVisibility)
	r.Put("/toc/collapsed", h.SetTocCollapsed)

	// Window.
	r.Get("/window", h.Window)
	r.Put("/window", h.SetWindow)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
