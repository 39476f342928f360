package window

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/starford/mdview/internal/apperr"
	"github.com/starford/mdview/internal/models"
	"github.com/starford/mdview/internal/navigation"
	"github.com/starford/mdview/internal/settings"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestTracker(t *testing.T) {
	docs, err := settings.OpenDocument(t.TempDir(), settings.StaticDisplay{Width: 1920, Height: 1080}, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	tr := New(docs)
	e := navigation.New(docs, testLogger())
	if err := e.Register(ObserverID, tr.Observer()); err != nil {
		t.Fatal(err)
	}

	if err := tr.SetBounds(models.Bounds{Width: 10, Height: 10}); !errors.Is(err, apperr.ErrNoDocument) {
		t.Fatalf("SetBounds without document err = %v", err)
	}

	if err := e.Go("/docs/a.md"); err != nil {
		t.Fatal(err)
	}
	centred := settings.CenteredBounds(settings.StaticDisplay{Width: 1920, Height: 1080})
	if tr.Bounds() != centred {
		t.Errorf("Bounds = %+v, want %+v", tr.Bounds(), centred)
	}

	moved := models.Bounds{X: 5, Y: 6, Width: 700, Height: 500}
	if err := tr.SetBounds(moved); err != nil {
		t.Fatal(err)
	}
	if err := e.Go("/docs/b.md"); err != nil {
		t.Fatal(err)
	}
	if tr.Bounds() != centred {
		t.Errorf("b.md Bounds = %+v, want default", tr.Bounds())
	}

	e.Back()
	if tr.Bounds() != moved {
		t.Errorf("Bounds after back = %+v, want %+v", tr.Bounds(), moved)
	}
	if docs.WindowPosition("/docs/a.md") != moved {
		t.Error("bounds not persisted")
	}

	if err := tr.SetBounds(models.Bounds{Width: -1, Height: 5}); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Errorf("invalid bounds err = %v", err)
	}
	if tr.Bounds() != moved {
		t.Error("rejected bounds applied")
	}
}
