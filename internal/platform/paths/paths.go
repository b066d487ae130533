// Package paths resolves the on-disk layout described in spec.md §6:
// sounds, snapshots, videos, and a rebuildable thumbnail cache, all
// rooted under one data directory.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const DefaultDataRoot = "/var/lib/foe-be-gone"

// ResolveDataRoot returns the absolute path to the data directory, honoring
// FOE_DATA_ROOT when set.
func ResolveDataRoot() string {
	root := os.Getenv("FOE_DATA_ROOT")
	if root == "" {
		root = DefaultDataRoot
	}
	return root
}

// ResolveConfigPath returns the absolute path to the default configuration file.
func ResolveConfigPath(customPath string) string {
	if customPath != "" {
		return customPath
	}
	return filepath.Join(ResolveDataRoot(), "config", "default.yaml")
}

// SoundsDir, SnapshotsDir, VideosDir, and CacheDir return the well-known
// subdirectories named in spec.md §6 under the given data root.
func SoundsDir(dataRoot string) string    { return filepath.Join(dataRoot, "sounds") }
func SnapshotsDir(dataRoot string) string { return filepath.Join(dataRoot, "snapshots") }
func VideosDir(dataRoot string) string    { return filepath.Join(dataRoot, "videos") }
func CacheDir(dataRoot string) string     { return filepath.Join(dataRoot, "cache") }
func ThumbnailsDir(dataRoot string) string {
	return filepath.Join(CacheDir(dataRoot), "thumbnails")
}

// EnsureDirs creates the standard data subdirectories if they don't exist.
func EnsureDirs(dataRoot string) error {
	subdirs := []string{
		filepath.Join(dataRoot, "config"),
		filepath.Join(dataRoot, "logs"),
		SoundsDir(dataRoot),
		SnapshotsDir(dataRoot),
		VideosDir(dataRoot),
		ThumbnailsDir(dataRoot),
	}

	for _, path := range subdirs {
		if err := os.MkdirAll(path, 0o750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", path, err)
		}
	}
	return nil
}

// SafeJoin joins path elements under base and rejects traversal outside it.
func SafeJoin(base string, elements ...string) (string, error) {
	for _, el := range elements {
		if filepath.IsAbs(el) {
			return "", fmt.Errorf("path traversal attempt detected: absolute path not allowed in elements: %s", el)
		}
	}
	joined := filepath.Join(append([]string{base}, elements...)...)

	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", err
	}

	absJoined, err := filepath.Abs(joined)
	if err != nil {
		return "", err
	}

	if !strings.HasPrefix(absJoined, absBase) {
		return "", fmt.Errorf("path traversal attempt detected: %s is outside %s", absJoined, absBase)
	}

	return absJoined, nil
}
