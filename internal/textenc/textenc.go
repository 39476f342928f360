// Package textenc resolves and applies user-pinned document encodings.
//
// Names follow the WHATWG Encoding Standard labels ("utf-8", "windows-1252",
// "shift_jis", ...). Detection is out of scope: an unpinned document is read
// as UTF-8.
package textenc

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/htmlindex"

	"github.com/starford/mdview/internal/apperr"
)

const UTF8 = "utf-8"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Canonical returns the canonical name for an encoding label.
func Canonical(label string) (string, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", fmt.Errorf("%w: encoding is empty", apperr.ErrInvalidArgument)
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return "", fmt.Errorf("%w: unknown encoding %q", apperr.ErrInvalidArgument, label)
	}
	name, err := htmlindex.Name(enc)
	if err != nil {
		return "", fmt.Errorf("%w: unnamed encoding %q", apperr.ErrInvalidArgument, label)
	}
	return name, nil
}

// Validate reports whether label names a known encoding.
func Validate(label string) error {
	_, err := Canonical(label)
	return err
}

// Decode converts src to UTF-8. An empty label means UTF-8 with an optional BOM.
func Decode(src []byte, label string) ([]byte, error) {
	if strings.TrimSpace(label) == "" || strings.EqualFold(strings.TrimSpace(label), UTF8) {
		return bytes.TrimPrefix(src, utf8BOM), nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown encoding %q", apperr.ErrInvalidArgument, label)
	}
	out, err := enc.NewDecoder().Bytes(src)
	if err != nil {
		return nil, fmt.Errorf("textenc: decode %s: %w", label, err)
	}
	return out, nil
}
