package capture

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestSweep_DeletesOnlyFilesOlderThanRetention(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/videos/old.mp4", []byte("x"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/videos/new.mp4", []byte("x"), 0o644))

	old, err := fs.Stat("/videos/old.mp4")
	require.NoError(t, err)
	require.NoError(t, fs.Chtimes("/videos/old.mp4", old.ModTime(), time.Now().AddDate(0, 0, -30)))

	s := NewSweeper(fs, "/videos", func(context.Context) int { return 7 }, zerolog.Nop())
	s.sweep(context.Background())

	_, err = fs.Stat("/videos/old.mp4")
	require.Error(t, err, "old file should have been removed")
	_, err = fs.Stat("/videos/new.mp4")
	require.NoError(t, err, "recent file should survive the sweep")
}
