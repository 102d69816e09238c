// Package installdb manages installed.json, the flat JSON array of
// InstalledApp records that is voidbox's source of truth for "what is
// installed", and apps/<slug>/base.json, the per-app descriptor recording
// which base image (and optional shared deps layer) a rootfs belongs to.
package installdb

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/voidbox/voidbox/internal/pkg/manifest"
	"github.com/voidbox/voidbox/internal/pkg/paths"
)

// writeAtomic writes content to a temp file beside path, then renames it
// into place, so a reader never observes a partially written file.
func writeAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// Load reads every InstalledApp record, returning an empty slice (not an
// error) if installed.json does not exist yet.
func Load() ([]manifest.InstalledApp, error) {
	content, err := os.ReadFile(paths.DatabasePath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var apps []manifest.InstalledApp
	if err := json.Unmarshal(content, &apps); err != nil {
		return nil, fmt.Errorf("parse %s: %w", paths.DatabasePath(), err)
	}
	return apps, nil
}

// save writes the whole apps slice to installed.json atomically.
func save(apps []manifest.InstalledApp) error {
	content, err := json.MarshalIndent(apps, "", "  ")
	if err != nil {
		return err
	}
	return writeAtomic(paths.DatabasePath(), content)
}

// Find returns the InstalledApp record for name, or (nil, false).
func Find(name string) (*manifest.InstalledApp, bool, error) {
	apps, err := Load()
	if err != nil {
		return nil, false, err
	}
	for i := range apps {
		if apps[i].Name == name {
			return &apps[i], true, nil
		}
	}
	return nil, false, nil
}

// Upsert replaces any existing record for app.Name and appends app,
// stamping InstalledDate if it is empty.
func Upsert(app manifest.InstalledApp) error {
	apps, err := Load()
	if err != nil {
		return err
	}
	filtered := apps[:0]
	for _, a := range apps {
		if a.Name != app.Name {
			filtered = append(filtered, a)
		}
	}
	if app.InstalledDate == "" {
		app.InstalledDate = time.Now().Format("2006-01-02 15:04:05")
	}
	filtered = append(filtered, app)
	return save(filtered)
}

// Remove deletes name's record, if present. It is not an error for name to
// be absent.
func Remove(name string) error {
	apps, err := Load()
	if err != nil {
		return err
	}
	filtered := apps[:0]
	for _, a := range apps {
		if a.Name != name {
			filtered = append(filtered, a)
		}
	}
	return save(filtered)
}
