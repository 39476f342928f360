// Package settings exposes typed, validated views over the application and
// per-document settings files. Reads never fail: missing or invalid stored
// values fall back to defaults. Writes are validated first and rejected with
// apperr.ErrInvalidArgument without touching the store.
package settings

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/mdview/internal/storage"
)

const (
	// AppFile is the application settings file name.
	AppFile = "app-settings.json"
	// AppVersion is the current application settings schema version.
	AppVersion = 1
)

// Themes.
const (
	ThemeSystem = "system"
	ThemeLight  = "light"
	ThemeDark   = "dark"
)

// Drag and drop behaviours.
const (
	DragDropAsk       = "ask"
	DragDropNavigate  = "navigate"
	DragDropNewWindow = "new-window"
)

// AppValues is the typed view of app-settings.json.
type AppValues struct {
	Theme             string   `json:"theme"`
	Zoom              float64  `json:"zoom"`
	LineBreaksEnabled bool     `json:"line-breaks-enabled"`
	TypographyEnabled bool     `json:"typography-enabled"`
	EmojisEnabled     bool     `json:"emojis-enabled"`
	MdFileTypes       []string `json:"md-file-types"`
	ShowToc           bool     `json:"show-toc"`
	TocWidth          int      `json:"toc-width"`
	HideMetadata      bool     `json:"hide-metadata"`
	DragDropBehavior  string   `json:"drag-drop-behavior"`
	FileHistorySize   int      `json:"file-history-size"`
}

// DefaultAppValues returns the application defaults.
func DefaultAppValues() AppValues {
	return AppValues{
		Theme:             ThemeSystem,
		Zoom:              1.0,
		LineBreaksEnabled: false,
		TypographyEnabled: true,
		EmojisEnabled:     true,
		MdFileTypes:       []string{"md", "markdown", "mdown", "mkd", "mkdn"},
		ShowToc:           false,
		TocWidth:          250,
		HideMetadata:      false,
		DragDropBehavior:  DragDropAsk,
		FileHistorySize:   5,
	}
}

// Validate validates the application settings.
func (v *AppValues) Validate() error {
	return validation.ValidateStruct(v,
		validation.Field(&v.Theme, validation.Required, validation.In(ThemeSystem, ThemeLight, ThemeDark)),
		validation.Field(&v.Zoom, validation.Required, validation.Min(0.3), validation.Max(3.0)),
		validation.Field(&v.MdFileTypes, validation.Each(validation.Required)),
		validation.Field(&v.TocWidth, validation.Min(0), validation.Max(2000)),
		validation.Field(&v.DragDropBehavior, validation.Required, validation.In(DragDropAsk, DragDropNavigate, DragDropNewWindow)),
		validation.Field(&v.FileHistorySize, validation.Min(0), validation.Max(100)),
	)
}

// NativeTheme is told about theme changes so the window chrome can follow.
type NativeTheme interface {
	SetNativeTheme(theme string)
}

// NativeThemeFunc adapts a function to NativeTheme.
type NativeThemeFunc func(theme string)

// SetNativeTheme calls f(theme).
func (f NativeThemeFunc) SetNativeTheme(theme string) { f(theme) }

// ApplicationSettings is the validated accessor for application-wide settings.
type ApplicationSettings struct {
	store  *storage.Store
	native NativeTheme
	logger *slog.Logger
}

// OpenApplication opens app-settings.json in dir and runs pending migrations.
func OpenApplication(dir string, native NativeTheme, logger *slog.Logger) (*ApplicationSettings, error) {
	if logger == nil {
		logger = slog.Default()
	}
	store, err := storage.Open(dir, AppFile, AppVersion, logger)
	if err != nil {
		return nil, fmt.Errorf("settings: open application store: %w", err)
	}
	return NewApplication(store, native, logger), nil
}

// NewApplication wraps an opened store. Pending migrations run once.
func NewApplication(store *storage.Store, native NativeTheme, logger *slog.Logger) *ApplicationSettings {
	if logger == nil {
		logger = slog.Default()
	}
	if err := Migrate(store, appMigrations, logger); err != nil {
		logger.Warn("settings: application migration failed", slog.String("error", err.Error()))
	}
	return &ApplicationSettings{store: store, native: native, logger: logger}
}

// Values returns the current settings, defaults filled in for missing or
// invalid stored values.
func (a *ApplicationSettings) Values() AppValues {
	def := DefaultAppValues()
	v := DefaultAppValues()
	data := make(map[string]json.RawMessage)
	for _, key := range a.store.Keys() {
		if raw, ok := a.store.Raw(key); ok {
			data[key] = raw
		}
	}
	decodeLenient(data, &v, a.logger)
	sanitize(&v, def, (*AppValues).Validate, a.logger)
	return v
}

// Patch applies a partial update keyed by setting name.
func (a *ApplicationSettings) Patch(raw map[string]json.RawMessage) error {
	prev := a.Values()
	next, err := applyPatch(a.Values(), raw)
	if err != nil {
		return err
	}
	return a.commit(prev, next)
}

// Update applies fn to a copy of the settings and persists it when valid.
func (a *ApplicationSettings) Update(fn func(*AppValues)) error {
	prev := a.Values()
	next := a.Values()
	fn(&next)
	return a.commit(prev, next)
}

func (a *ApplicationSettings) commit(prev, next AppValues) error {
	next.MdFileTypes = normalizeFileTypes(next.MdFileTypes)
	if err := next.Validate(); err != nil {
		return invalid(err)
	}
	diff := changed(prev, next)
	if len(diff) == 0 {
		return nil
	}
	if next.Theme != prev.Theme && a.native != nil {
		a.native.SetNativeTheme(next.Theme)
	}
	a.store.SetMany(diff)
	return nil
}

// Theme returns the configured theme.
func (a *ApplicationSettings) Theme() string { return a.Values().Theme }

// SetTheme sets the theme; only system, light and dark are accepted.
func (a *ApplicationSettings) SetTheme(theme string) error {
	return a.Update(func(v *AppValues) { v.Theme = theme })
}

// Zoom returns the zoom factor.
func (a *ApplicationSettings) Zoom() float64 { return a.Values().Zoom }

// SetZoom sets the zoom factor.
func (a *ApplicationSettings) SetZoom(zoom float64) error {
	return a.Update(func(v *AppValues) { v.Zoom = zoom })
}

// ShowToc reports whether the table of contents is shown by default.
func (a *ApplicationSettings) ShowToc() bool { return a.Values().ShowToc }

// SetShowToc sets the global table of contents visibility.
func (a *ApplicationSettings) SetShowToc(show bool) error {
	return a.Update(func(v *AppValues) { v.ShowToc = show })
}

// TocWidth returns the table of contents width in pixels.
func (a *ApplicationSettings) TocWidth() int { return a.Values().TocWidth }

// FileHistorySize returns the number of recent files to keep.
func (a *ApplicationSettings) FileHistorySize() int { return a.Values().FileHistorySize }

// SetFileHistorySize sets the number of recent files to keep.
func (a *ApplicationSettings) SetFileHistorySize(size int) error {
	return a.Update(func(v *AppValues) { v.FileHistorySize = size })
}

// IsMarkdownFile reports whether path has one of the configured extensions.
func (a *ApplicationSettings) IsMarkdownFile(path string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		return false
	}
	return slices.Contains(a.Values().MdFileTypes, ext)
}

func normalizeFileTypes(types []string) []string {
	out := make([]string, 0, len(types))
	for _, t := range types {
		t = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(t), "."))
		if t == "" || slices.Contains(out, t) {
			continue
		}
		out = append(out, t)
	}
	return out
}
