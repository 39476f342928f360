package settings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/mdview/internal/apperr"
	"github.com/starford/mdview/internal/models"
	"github.com/starford/mdview/internal/storage"
	"github.com/starford/mdview/internal/textenc"
)

const (
	// DocFile is the per-document settings file name.
	DocFile = "doc-settings.json"
	// DocVersion is the current per-document settings schema version.
	DocVersion = 1
)

// DocValues holds the settings of a single document.
type DocValues struct {
	// Encoding is nil when the document is auto-detected.
	Encoding            *string        `json:"encoding"`
	RenderAsMd          bool           `json:"render-as-md"`
	WindowPosition      *models.Bounds `json:"window-position,omitempty"`
	ShowTocOverride     bool           `json:"show-toc-override"`
	ShowToc             bool           `json:"show-toc"`
	CollapsedTocEntries []string       `json:"collapsed-toc-entries"`
	LastOpened          int64          `json:"last-opened,omitempty"`
}

// DefaultDocValues returns the settings of a document that was never touched.
func DefaultDocValues() DocValues {
	return DocValues{CollapsedTocEntries: []string{}}
}

// Validate validates the document settings.
func (v *DocValues) Validate() error {
	return validation.ValidateStruct(v,
		validation.Field(&v.Encoding, validation.By(validEncoding)),
		validation.Field(&v.WindowPosition, validation.By(validBounds)),
		validation.Field(&v.CollapsedTocEntries, validation.Each(validation.Required)),
		validation.Field(&v.LastOpened, validation.Min(int64(0))),
	)
}

func validEncoding(value any) error {
	enc, ok := value.(*string)
	if !ok || enc == nil {
		return nil
	}
	return textenc.Validate(*enc)
}

func validBounds(value any) error {
	b, ok := value.(*models.Bounds)
	if !ok || b == nil {
		return nil
	}
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", b.Width, b.Height)
	}
	return nil
}

// DocumentSettings stores DocValues keyed by absolute document path in a
// single shared file. Records are created on first write.
type DocumentSettings struct {
	store   *storage.Store
	display Display
	logger  *slog.Logger
	now     func() time.Time
}

// OpenDocument opens doc-settings.json in dir.
func OpenDocument(dir string, display Display, logger *slog.Logger) (*DocumentSettings, error) {
	if logger == nil {
		logger = slog.Default()
	}
	store, err := storage.Open(dir, DocFile, DocVersion, logger)
	if err != nil {
		return nil, fmt.Errorf("settings: open document store: %w", err)
	}
	return NewDocument(store, display, logger), nil
}

// NewDocument wraps an opened store.
func NewDocument(store *storage.Store, display Display, logger *slog.Logger) *DocumentSettings {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentSettings{store: store, display: display, logger: logger, now: time.Now}
}

// For returns the settings of path. Unknown documents get defaults; nothing
// is written.
func (d *DocumentSettings) For(path string) DocValues {
	v := DefaultDocValues()
	raw, ok := d.store.Raw(path)
	if !ok {
		return v
	}
	var data map[string]json.RawMessage
	if err := json.Unmarshal(raw, &data); err != nil {
		d.logger.Warn("settings: malformed document record",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return v
	}
	decodeLenient(data, &v, d.logger)
	sanitize(&v, DefaultDocValues(), (*DocValues).Validate, d.logger)
	if v.CollapsedTocEntries == nil {
		v.CollapsedTocEntries = []string{}
	}
	return v
}

// Update applies fn to the settings of path and persists the result when it
// is valid and differs from what is stored.
func (d *DocumentSettings) Update(path string, fn func(*DocValues)) error {
	if path == "" || !filepath.IsAbs(path) {
		return fmt.Errorf("%w: document path must be absolute: %q", apperr.ErrInvalidArgument, path)
	}
	prev := d.For(path)
	next := d.For(path)
	fn(&next)
	if err := next.Validate(); err != nil {
		return invalid(err)
	}

	before, _ := json.Marshal(prev)
	after, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("settings: encode document record: %w", err)
	}
	if d.store.Has(path) && bytes.Equal(before, after) {
		return nil
	}
	d.store.Set(path, json.RawMessage(after))
	return nil
}

// Encoding returns the pinned encoding of path, or "" when auto-detected.
func (d *DocumentSettings) Encoding(path string) string {
	if enc := d.For(path).Encoding; enc != nil {
		return *enc
	}
	return ""
}

// PinEncoding stores the canonical name of enc for path.
func (d *DocumentSettings) PinEncoding(path, enc string) error {
	name, err := textenc.Canonical(enc)
	if err != nil {
		return err
	}
	return d.Update(path, func(v *DocValues) { v.Encoding = &name })
}

// ClearEncoding returns path to auto-detection.
func (d *DocumentSettings) ClearEncoding(path string) error {
	return d.Update(path, func(v *DocValues) { v.Encoding = nil })
}

// SetRenderAsMd forces path to be rendered as Markdown regardless of extension.
func (d *DocumentSettings) SetRenderAsMd(path string, enabled bool) error {
	return d.Update(path, func(v *DocValues) { v.RenderAsMd = enabled })
}

// WindowPosition returns the stored bounds of path or a default window
// centred on the primary display.
func (d *DocumentSettings) WindowPosition(path string) models.Bounds {
	if b := d.For(path).WindowPosition; b != nil {
		return *b
	}
	return CenteredBounds(d.display)
}

// SetWindowPosition stores the window bounds of path.
func (d *DocumentSettings) SetWindowPosition(path string, b models.Bounds) error {
	return d.Update(path, func(v *DocValues) { v.WindowPosition = &b })
}

// Touch records that path was opened now.
func (d *DocumentSettings) Touch(path string) error {
	ts := d.now().Unix()
	return d.Update(path, func(v *DocValues) { v.LastOpened = ts })
}

// Paths returns every document with a stored record, sorted.
func (d *DocumentSettings) Paths() []string {
	return d.store.Keys()
}
