package settings

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/starford/mdview/internal/storage"
)

// Migration upgrades a store written by an older schema version.
type Migration struct {
	Version int
	Name    string
	Apply   func(*storage.Store) error
}

// Migrate runs, in ascending order, every migration whose version lies in
// (store.ActualVersion(), store.Version()].
func Migrate(store *storage.Store, migrations []Migration, logger *slog.Logger) error {
	pending := make([]Migration, 0, len(migrations))
	for _, m := range migrations {
		if m.Version > store.ActualVersion() && m.Version <= store.Version() {
			pending = append(pending, m)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool { return pending[i].Version < pending[j].Version })

	for _, m := range pending {
		if err := m.Apply(store); err != nil {
			return fmt.Errorf("settings: migration %d (%s): %w", m.Version, m.Name, err)
		}
		logger.Info("settings: migration applied",
			slog.String("file", store.Path()),
			slog.Int("version", m.Version),
			slog.String("name", m.Name))
	}
	return nil
}

var appMigrations = []Migration{
	{Version: 1, Name: "normalize md-file-types", Apply: normalizeStoredFileTypes},
}

func normalizeStoredFileTypes(store *storage.Store) error {
	raw, ok := store.Raw("md-file-types")
	if !ok {
		return nil
	}
	var types []string
	if err := json.Unmarshal(raw, &types); err != nil {
		store.Delete("md-file-types")
		return nil
	}
	store.Set("md-file-types", normalizeFileTypes(types))
	return nil
}
