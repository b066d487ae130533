package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveDataRoot(t *testing.T) {
	os.Unsetenv("FOE_DATA_ROOT")
	assert.Equal(t, DefaultDataRoot, ResolveDataRoot())

	os.Setenv("FOE_DATA_ROOT", "/custom/data")
	defer os.Unsetenv("FOE_DATA_ROOT")
	assert.Equal(t, "/custom/data", ResolveDataRoot())
}

func TestWellKnownSubdirs(t *testing.T) {
	root := "/data"
	assert.Equal(t, "/data/sounds", SoundsDir(root))
	assert.Equal(t, "/data/snapshots", SnapshotsDir(root))
	assert.Equal(t, "/data/videos", VideosDir(root))
	assert.Equal(t, "/data/cache/thumbnails", ThumbnailsDir(root))
}

func TestSafeJoin(t *testing.T) {
	base := "/data"

	cases := []struct {
		name     string
		elements []string
		valid    bool
	}{
		{"normal", []string{"sounds", "rats", "alarm.wav"}, true},
		{"parent", []string{"..", "other"}, false},
		{"nested_parent", []string{"sounds", "..", "..", "secrets"}, false},
		{"absolute", []string{"/etc/passwd"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := SafeJoin(base, tc.elements...)
			if tc.valid {
				assert.NoError(t, err)
				assert.Contains(t, res, base)
			} else if assert.Error(t, err) {
				assert.Contains(t, err.Error(), "traversal")
			}
		})
	}
}

func TestEnsureDirs(t *testing.T) {
	tmpRoot := filepath.Join(os.TempDir(), "foe_test_data")
	defer os.RemoveAll(tmpRoot)

	err := EnsureDirs(tmpRoot)
	assert.NoError(t, err)

	subdirs := []string{"config", "logs", "sounds", "snapshots", "videos", filepath.Join("cache", "thumbnails")}
	for _, sub := range subdirs {
		_, err := os.Stat(filepath.Join(tmpRoot, sub))
		assert.NoError(t, err, "subdirectory %s should exist", sub)
	}
}
