package api

import (
	"net/http"

	"github.com/starford/mdview/internal/models"
)

// AppSettings handles GET /api/settings/app.
//
//	@Summary		Application settings
//	@Tags			settings
//	@Produce		json
//	@Success		200	{object}	settings.AppValues
//	@Security		BearerAuth
//	@Router			/settings/app [get]
func (h *Handler) AppSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.v.AppSettings())
}

// PatchAppSettings handles PATCH /api/settings/app.
//
//	@Summary		Update application settings
//	@Description	Keys are setting names such as "theme" or "zoom". Unknown keys and invalid values are rejected and nothing is stored.
//	@Tags			settings
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	settings.AppValues
//	@Failure		400	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/settings/app [patch]
func (h *Handler) PatchAppSettings(w http.ResponseWriter, r *http.Request) {
	var patch SettingsPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, "patch settings", err)
		return
	}
	values, err := h.v.PatchAppSettings(patch)
	if err != nil {
		writeError(w, "patch settings", err)
		return
	}
	writeJSON(w, http.StatusOK, values)
}

// DocumentSettings handles GET /api/settings/document.
//
//	@Summary		Settings of the current document
//	@Tags			settings
//	@Produce		json
//	@Success		200	{object}	DocumentSettingsResponse
//	@Failure		409	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/settings/document [get]
func (h *Handler) DocumentSettings(w http.ResponseWriter, _ *http.Request) {
	path, values, err := h.v.DocumentSettings()
	if err != nil {
		writeError(w, "document settings", err)
		return
	}
	writeJSON(w, http.StatusOK, DocumentSettingsResponse{Path: path, Settings: values})
}

// SetEncoding handles PUT /api/settings/document/encoding.
//
//	@Summary		Pin or clear the encoding of the current document
//	@Tags			settings
//	@Accept			json
//	@Param			body	body	EncodingRequest	true	"Encoding label, null to clear"
//	@Success		204
//	@Failure		400	{object}	errResponse
//	@Failure		409	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/settings/document/encoding [put]
func (h *Handler) SetEncoding(w http.ResponseWriter, r *http.Request) {
	var req EncodingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "set encoding", err)
		return
	}
	if err := h.v.SetEncoding(req.Encoding); err != nil {
		writeError(w, "set encoding", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetRenderAsMd handles PUT /api/settings/document/render-as-md.
//
//	@Summary		Force Markdown rendering for the current document
//	@Tags			settings
//	@Accept			json
//	@Param			body	body	RenderAsMdRequest	true	"Toggle"
//	@Success		204
//	@Failure		409	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/settings/document/render-as-md [put]
func (h *Handler) SetRenderAsMd(w http.ResponseWriter, r *http.Request) {
	var req RenderAsMdRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "render as markdown", err)
		return
	}
	if err := h.v.SetRenderAsMd(req.Enabled); err != nil {
		writeError(w, "render as markdown", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// History handles GET /api/history.
//
//	@Summary		Recently opened files, most recent first
//	@Tags			history
//	@Produce		json
//	@Success		200	{object}	HistoryResponse
//	@Security		BearerAuth
//	@Router			/history [get]
func (h *Handler) History(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HistoryResponse{Files: h.v.History()})
}

// ClearHistory handles DELETE /api/history. The current file is kept.
//
//	@Summary		Clear the file history
//	@Tags			history
//	@Produce		json
//	@Success		200	{object}	HistoryResponse
//	@Security		BearerAuth
//	@Router			/history [delete]
func (h *Handler) ClearHistory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HistoryResponse{Files: h.v.ClearHistory()})
}

// Blocking handles GET /api/blocking.
//
//	@Summary		Remote content state of the current document
//	@Tags			blocking
//	@Produce		json
//	@Success		200	{object}	viewer.BlockingState
//	@Security		BearerAuth
//	@Router			/blocking [get]
func (h *Handler) Blocking(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.v.Blocking())
}

// Unblock handles POST /api/blocking/unblock.
//
//	@Summary		Allow one remote URL
//	@Tags			blocking
//	@Accept			json
//	@Produce		json
//	@Param			body	body		UnblockRequest	true	"URL"
//	@Success		200		{object}	viewer.BlockingState
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/blocking/unblock [post]
func (h *Handler) Unblock(w http.ResponseWriter, r *http.Request) {
	var req UnblockRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "unblock", err)
		return
	}
	if err := h.v.Unblock(req.URL); err != nil {
		writeError(w, "unblock", err)
		return
	}
	writeJSON(w, http.StatusOK, h.v.Blocking())
}

// UnblockAll handles POST /api/blocking/unblock-all.
//
//	@Summary		Allow every blocked URL
//	@Tags			blocking
//	@Produce		json
//	@Success		200	{object}	UnblockAllResponse
//	@Security		BearerAuth
//	@Router			/blocking/unblock-all [post]
func (h *Handler) UnblockAll(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, UnblockAllResponse{Unblocked: h.v.UnblockAll()})
}

// Toc handles GET /api/toc.
//
//	@Summary		Table of contents of the current document
//	@Tags			toc
//	@Produce		json
//	@Success		200	{object}	viewer.TocState
//	@Security		BearerAuth
//	@Router			/toc [get]
func (h *Handler) Toc(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.v.Toc())
}

// SetTocVisibility handles PUT /api/toc/visibility.
//
//	@Summary		Show or hide the table of contents
//	@Description	With documentOnly the choice is stored for the current document only.
//	@Tags			toc
//	@Accept			json
//	@Produce		json
//	@Param			body	body		TocVisibilityRequest	true	"Visibility"
//	@Success		200		{object}	viewer.TocState
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/toc/visibility [put]
func (h *Handler) SetTocVisibility(w http.ResponseWriter, r *http.Request) {
	var req TocVisibilityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "toc visibility", err)
		return
	}
	st, err := h.v.SetTocVisible(req.Visible, req.DocumentOnly)
	if err != nil {
		writeError(w, "toc visibility", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// SetTocCollapsed handles PUT /api/toc/collapsed.
//
//	@Summary		Collapse or expand a table of contents entry
//	@Tags			toc
//	@Accept			json
//	@Produce		json
//	@Param			body	body		TocCollapsedRequest	true	"Entry"
//	@Success		200		{object}	viewer.TocState
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/toc/collapsed [put]
func (h *Handler) SetTocCollapsed(w http.ResponseWriter, r *http.Request) {
	var req TocCollapsedRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "toc collapsed", err)
		return
	}
	st, err := h.v.SetTocCollapsed(req.ID, req.Collapsed)
	if err != nil {
		writeError(w, "toc collapsed", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Window handles GET /api/window.
//
//	@Summary		Window bounds for the current document
//	@Tags			window
//	@Produce		json
//	@Success		200	{object}	models.Bounds
//	@Security		BearerAuth
//	@Router			/window [get]
func (h *Handler) Window(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.v.Bounds())
}

// SetWindow handles PUT /api/window.
//
//	@Summary		Record a window move or resize
//	@Tags			window
//	@Accept			json
//	@Param			body	body	models.Bounds	true	"Bounds"
//	@Success		204
//	@Failure		400	{object}	errResponse
//	@Failure		409	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/window [put]
func (h *Handler) SetWindow(w http.ResponseWriter, r *http.Request) {
	var b models.Bounds
	if err := decodeJSON(w, r, &b); err != nil {
		writeError(w, "set window", err)
		return
	}
	if err := h.v.SetBounds(b); err != nil {
		writeError(w, "set window", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
