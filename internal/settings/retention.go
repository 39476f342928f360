package settings

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"sort"
)

// RetentionPolicy bounds the number of stored document records. The zero
// value keeps everything.
type RetentionPolicy struct {
	// MaxDocuments keeps only the most recently opened records; 0 disables.
	MaxDocuments int
	// PruneMissing drops records whose file no longer exists.
	PruneMissing bool
}

// IsZero reports whether the policy keeps every record.
func (p RetentionPolicy) IsZero() bool {
	return p.MaxDocuments <= 0 && !p.PruneMissing
}

// Prune removes records according to policy and returns the removed paths.
func (d *DocumentSettings) Prune(policy RetentionPolicy) []string {
	if policy.IsZero() {
		return nil
	}

	type record struct {
		path       string
		lastOpened int64
	}
	var (
		keep    []record
		removed []string
	)
	for _, path := range d.Paths() {
		if policy.PruneMissing {
			if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
				removed = append(removed, path)
				continue
			}
		}
		keep = append(keep, record{path: path, lastOpened: d.For(path).LastOpened})
	}

	if policy.MaxDocuments > 0 && len(keep) > policy.MaxDocuments {
		sort.SliceStable(keep, func(i, j int) bool {
			if keep[i].lastOpened != keep[j].lastOpened {
				return keep[i].lastOpened > keep[j].lastOpened
			}
			return keep[i].path < keep[j].path
		})
		for _, r := range keep[policy.MaxDocuments:] {
			removed = append(removed, r.path)
		}
	}

	if len(removed) == 0 {
		return nil
	}
	sort.Strings(removed)
	d.store.Delete(removed...)
	d.logger.Info("settings: pruned document records", slog.Int("count", len(removed)))
	return removed
}
