package api

import (
	"encoding/json"

	"github.com/starford/mdview/internal/settings"
)

// OpenRequest is the request body for opening a document.
type OpenRequest struct {
	Path     string `json:"path" example:"/home/me/notes/readme.md" validate:"required"`
	Target   string `json:"target,omitempty" example:"installation"`
	Encoding string `json:"encoding,omitempty" example:"windows-1252"`
}

// FollowRequest is the request body for following a link.
type FollowRequest struct {
	Href string `json:"href" example:"guide.md#setup" validate:"required"`
}

// ReloadRequest is the request body for reloading the current document.
type ReloadRequest struct {
	ScrollPosition *float64 `json:"scrollPosition,omitempty" example:"120"`
}

// ScrollRequest reports the scroll offset of the current document.
type ScrollRequest struct {
	Position float64 `json:"position" example:"120"`
}

// NavResponse reports whether a back/forward move happened.
type NavResponse struct {
	Moved bool `json:"moved"`
}

// EncodingRequest pins or clears the document encoding. Null clears.
type EncodingRequest struct {
	Encoding *string `json:"encoding" example:"shift_jis"`
}

// RenderAsMdRequest toggles forced Markdown rendering.
type RenderAsMdRequest struct {
	Enabled bool `json:"enabled"`
}

// DocumentSettingsResponse is the settings of the current document.
type DocumentSettingsResponse struct {
	Path     string             `json:"path"`
	Settings settings.DocValues `json:"settings"`
}

// HistoryResponse lists recent files, most recent first.
type HistoryResponse struct {
	Files []string `json:"files"`
}

// UnblockRequest allows a single remote URL.
type UnblockRequest struct {
	URL string `json:"url" example:"https://example.com/image.png" validate:"required"`
}

// UnblockAllResponse reports how many URLs were allowed.
type UnblockAllResponse struct {
	Unblocked int `json:"unblocked"`
}

// TocVisibilityRequest shows or hides the table of contents.
type TocVisibilityRequest struct {
	Visible      bool `json:"visible"`
	DocumentOnly bool `json:"documentOnly"`
}

// TocCollapsedRequest collapses or expands an entry.
type TocCollapsedRequest struct {
	ID        string `json:"id" example:"installation" validate:"required"`
	Collapsed bool   `json:"collapsed"`
}

// SettingsPatch is a partial application settings update keyed by setting name.
type SettingsPatch = map[string]json.RawMessage
