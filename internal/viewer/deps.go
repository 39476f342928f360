package viewer

import (
	"fmt"
	"log/slog"

	"github.com/starford/mdview/internal/blocking"
	"github.com/starford/mdview/internal/filehistory"
	"github.com/starford/mdview/internal/navigation"
	"github.com/starford/mdview/internal/render"
	"github.com/starford/mdview/internal/settings"
	"github.com/starford/mdview/internal/sse"
	"github.com/starford/mdview/internal/toc"
	"github.com/starford/mdview/internal/window"
)

// Publisher pushes events to the window layer.
type Publisher interface {
	Publish(eventType string, data any)
}

// Tracker follows the file currently on screen.
type Tracker interface {
	Track(path string)
}

// Deps is the set of per-process singletons the viewer coordinates.
type Deps struct {
	App       *settings.ApplicationSettings
	Docs      *settings.DocumentSettings
	History   *filehistory.History
	Blocking  *blocking.Registry
	Engine    *navigation.Engine
	Toc       *toc.State
	Window    *window.Tracker
	Renderer  *render.Renderer
	Publisher Publisher
	Watcher   Tracker
	Retention settings.RetentionPolicy
	Logger    *slog.Logger
}

// Build opens every store in dir and assembles Deps. Theme changes are
// pushed to publisher before they are persisted.
func Build(dir string, display settings.Display, publisher Publisher, logger *slog.Logger) (Deps, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if publisher == nil {
		publisher = nopPublisher{}
	}

	native := settings.NativeThemeFunc(func(theme string) {
		publisher.Publish(sse.EventThemeChanged, map[string]string{"theme": theme})
	})
	app, err := settings.OpenApplication(dir, native, logger)
	if err != nil {
		return Deps{}, fmt.Errorf("viewer: %w", err)
	}
	docs, err := settings.OpenDocument(dir, display, logger)
	if err != nil {
		return Deps{}, fmt.Errorf("viewer: %w", err)
	}
	history, err := filehistory.Open(dir, app, logger)
	if err != nil {
		return Deps{}, fmt.Errorf("viewer: %w", err)
	}
	registry, err := blocking.Open(dir, logger)
	if err != nil {
		return Deps{}, fmt.Errorf("viewer: %w", err)
	}

	return Deps{
		App:       app,
		Docs:      docs,
		History:   history,
		Blocking:  registry,
		Engine:    navigation.New(docs, logger),
		Toc:       toc.New(app, docs),
		Window:    window.New(docs),
		Renderer:  render.New(registry, logger),
		Publisher: publisher,
		Logger:    logger,
	}, nil
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, any) {}
