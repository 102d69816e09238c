// Package settings loads and saves the per-app permission override record
// (settings/<slug>.toml), the "Materialized" state's optional companion to
// an app's manifest-declared default permissions (spec.md §3).
package settings

import (
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/voidbox/voidbox/internal/pkg/paths"
	"github.com/voidbox/voidbox/internal/pkg/permissions"
)

// Load returns an app's override record, or nil if it has never been
// customized (no settings/<slug>.toml on disk).
func Load(slug string) (*permissions.Record, error) {
	content, err := os.ReadFile(paths.SettingsPath(slug))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec permissions.Record
	if err := toml.Unmarshal(content, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Save persists an app's permission overrides.
func Save(slug string, rec permissions.Record) error {
	content, err := toml.Marshal(rec)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(paths.SettingsDir(), 0o755); err != nil {
		return err
	}
	return os.WriteFile(paths.SettingsPath(slug), content, 0o644)
}
