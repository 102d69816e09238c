package installdb

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/voidbox/voidbox/internal/pkg/paths"
)

// BaseInfo is the apps/<slug>/base.json descriptor: which base image (and
// optional shared deps layer) an app's rootfs was built from.
type BaseInfo struct {
	Distro  string `json:"distro"`
	Arch    string `json:"arch"`
	Version string `json:"version"`
	DepsID  string `json:"deps_id,omitempty"`
}

// WriteBaseInfo writes slug's base.json atomically.
func WriteBaseInfo(slug string, info BaseInfo) error {
	content, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	return writeAtomic(paths.AppBaseInfoPath(slug), content)
}

// ReadBaseInfo reads slug's base.json, returning (nil, nil) if it does not
// exist (legacy rootfs or not-yet-materialized app).
func ReadBaseInfo(slug string) (*BaseInfo, error) {
	content, err := os.ReadFile(paths.AppBaseInfoPath(slug))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var info BaseInfo
	if err := json.Unmarshal(content, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// ErrGCAborted is returned when PruneDepsLayer cannot conservatively
// determine whether depsID is still referenced, because some other app's
// base.json could not be read.
var ErrGCAborted = errors.New("installdb: cannot verify deps layer is unreferenced, some base.json is unreadable")

// PruneDepsLayer removes deps/<depsID> if no surviving app (other than
// removedSlug, which has already been uninstalled) references it. It scans
// every apps/*/base.json; an unreadable base.json aborts the scan
// conservatively rather than risk deleting a layer still in use.
func PruneDepsLayer(depsID, removedSlug string) error {
	entries, err := os.ReadDir(paths.AppsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return removeDepsLayer(depsID)
		}
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == removedSlug {
			continue
		}
		info, err := ReadBaseInfo(entry.Name())
		if err != nil {
			return ErrGCAborted
		}
		if info != nil && info.DepsID == depsID {
			return nil
		}
	}

	return removeDepsLayer(depsID)
}

func removeDepsLayer(depsID string) error {
	dir := paths.DepsLayerDir(depsID)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}
	return os.RemoveAll(dir)
}
