package deterrent

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestAvailableSounds_ExcludesCrdownloadAndNonAudioFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/sounds/rats/rat_a.wav", []byte("x"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/sounds/rats/rat_b.mp3", []byte("x"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/sounds/rats/partial.mp3.crdownload", []byte("x"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/sounds/rats/notes.txt", []byte("x"), 0o644))

	p := &Player{fs: fs, soundsDir: "/sounds", log: zerolog.Nop(), cache: make(map[string][]string)}
	files, err := p.AvailableSounds("rats")
	require.NoError(t, err)
	require.Len(t, files, 2)
}

func TestAvailableSounds_MissingPestDirReturnsEmptyNotError(t *testing.T) {
	fs := afero.NewMemMapFs()
	p := &Player{fs: fs, soundsDir: "/sounds", log: zerolog.Nop(), cache: make(map[string][]string)}
	files, err := p.AvailableSounds("cats")
	require.NoError(t, err)
	require.Nil(t, files)
}

func TestAvailableSounds_CachesUntilCacheCleared(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/sounds/crows/crow_a.mp3", []byte("x"), 0o644))

	p := &Player{fs: fs, soundsDir: "/sounds", log: zerolog.Nop(), cache: make(map[string][]string)}
	first, err := p.AvailableSounds("crows")
	require.NoError(t, err)
	require.Len(t, first, 1)

	require.NoError(t, afero.WriteFile(fs, "/sounds/crows/crow_b.mp3", []byte("x"), 0o644))
	second, err := p.AvailableSounds("crows")
	require.NoError(t, err)
	require.Len(t, second, 1, "cached result should not see the new file until invalidated")

	p.mu.Lock()
	delete(p.cache, "crows")
	p.mu.Unlock()

	third, err := p.AvailableSounds("crows")
	require.NoError(t, err)
	require.Len(t, third, 2)
}
