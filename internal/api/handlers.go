package api

import (
	"net/http"

	"github.com/starford/mdview/internal/navigation"
	"github.com/starford/mdview/internal/viewer"
)

// Handler holds API route handlers.
type Handler struct {
	v *viewer.Viewer
}

// NewHandler creates a new Handler.
func NewHandler(v *viewer.Viewer) *Handler {
	return &Handler{v: v}
}

// Location handles GET /api/location.
//
//	@Summary		Current location and history stacks
//	@Tags			navigation
//	@Produce		json
//	@Success		200	{object}	viewer.LocationState
//	@Security		BearerAuth
//	@Router			/location [get]
func (h *Handler) Location(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.v.Location())
}

// Page handles GET /api/page.
//
//	@Summary		Rendered current document
//	@Tags			navigation
//	@Produce		json
//	@Success		200	{object}	viewer.Page
//	@Failure		409	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/page [get]
func (h *Handler) Page(w http.ResponseWriter, _ *http.Request) {
	p, err := h.v.Page()
	if err != nil {
		writeError(w, "page", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Open handles POST /api/nav/open.
//
//	@Summary		Open a document
//	@Tags			navigation
//	@Accept			json
//	@Produce		json
//	@Param			body	body		OpenRequest	true	"Document to open"
//	@Success		200		{object}	viewer.LocationState
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/nav/open [post]
func (h *Handler) Open(w http.ResponseWriter, r *http.Request) {
	var req OpenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "open", err)
		return
	}
	var opts []navigation.GoOption
	if req.Target != "" {
		opts = append(opts, navigation.WithTarget(req.Target))
	}
	if req.Encoding != "" {
		opts = append(opts, navigation.WithEncoding(req.Encoding))
	}
	if err := h.v.Open(req.Path, opts...); err != nil {
		writeError(w, "open", err)
		return
	}
	writeJSON(w, http.StatusOK, h.v.Location())
}

// Follow handles POST /api/nav/follow.
//
//	@Summary		Follow a link from the current document
//	@Tags			navigation
//	@Accept			json
//	@Produce		json
//	@Param			body	body		FollowRequest	true	"Link"
//	@Success		200		{object}	viewer.LocationState
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/nav/follow [post]
func (h *Handler) Follow(w http.ResponseWriter, r *http.Request) {
	var req FollowRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "follow", err)
		return
	}
	if err := h.v.Follow(req.Href); err != nil {
		writeError(w, "follow", err)
		return
	}
	writeJSON(w, http.StatusOK, h.v.Location())
}

// Back handles POST /api/nav/back.
//
//	@Summary		Go back in history
//	@Tags			navigation
//	@Produce		json
//	@Success		200	{object}	NavResponse
//	@Security		BearerAuth
//	@Router			/nav/back [post]
func (h *Handler) Back(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, NavResponse{Moved: h.v.Back()})
}

// Forward handles POST /api/nav/forward.
//
//	@Summary		Go forward in history
//	@Tags			navigation
//	@Produce		json
//	@Success		200	{object}	NavResponse
//	@Security		BearerAuth
//	@Router			/nav/forward [post]
func (h *Handler) Forward(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, NavResponse{Moved: h.v.Forward()})
}

// Reload handles POST /api/nav/reload. The body is optional.
//
//	@Summary		Reload the current document
//	@Tags			navigation
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ReloadRequest	false	"Scroll position to restore"
//	@Success		200		{object}	NavResponse
//	@Security		BearerAuth
//	@Router			/nav/reload [post]
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	var req ReloadRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, "reload", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, NavResponse{Moved: h.v.Reload(req.ScrollPosition)})
}

// Scroll handles PUT /api/nav/scroll.
//
//	@Summary		Report the scroll offset of the current document
//	@Tags			navigation
//	@Accept			json
//	@Param			body	body	ScrollRequest	true	"Scroll offset"
//	@Success		204
//	@Failure		409	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/nav/scroll [put]
func (h *Handler) Scroll(w http.ResponseWriter, r *http.Request) {
	var req ScrollRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "scroll", err)
		return
	}
	if err := h.v.SetScroll(req.Position); err != nil {
		writeError(w, "scroll", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
