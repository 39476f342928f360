// Package models defines value types shared between mdview packages.
package models

// Bounds is a window rectangle in screen coordinates.
type Bounds struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// IsZero reports whether b carries no geometry.
func (b Bounds) IsZero() bool {
	return b.Width == 0 && b.Height == 0
}

// Heading is a document heading as produced by the renderer.
type Heading struct {
	ID    string `json:"id"`
	Level int    `json:"level"`
	Text  string `json:"text"`
}
