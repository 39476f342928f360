package settings

import "github.com/starford/mdview/internal/models"

// Default window size used when a document has no stored position.
const (
	DefaultWindowWidth  = 1024
	DefaultWindowHeight = 768
)

// Display reports the size of the primary display.
type Display interface {
	PrimarySize() (width, height int)
}

// StaticDisplay is a Display with a fixed size, taken from configuration.
type StaticDisplay struct {
	Width  int
	Height int
}

// PrimarySize implements Display.
func (d StaticDisplay) PrimarySize() (int, int) { return d.Width, d.Height }

// CenteredBounds returns a default-sized window centred on the display.
func CenteredBounds(d Display) models.Bounds {
	b := models.Bounds{Width: DefaultWindowWidth, Height: DefaultWindowHeight}
	if d == nil {
		return b
	}
	w, h := d.PrimarySize()
	b.X = max(0, (w-b.Width)/2)
	b.Y = max(0, (h-b.Height)/2)
	return b
}
