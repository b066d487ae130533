package capture

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestCapture_EmptyRTSPURLSkipsSilently(t *testing.T) {
	v := NewVideoCapturer(afero.NewMemMapFs(), "/videos", "ffmpeg", zerolog.Nop())
	path, err := v.Capture(context.Background(), "cam-1", nil, "", 15*time.Second)
	require.NoError(t, err)
	require.Empty(t, path)
}

func TestCapture_MissingTranscoderSkipsSilently(t *testing.T) {
	v := NewVideoCapturer(afero.NewMemMapFs(), "/videos", "ffmpeg-binary-that-does-not-exist-anywhere", zerolog.Nop())
	path, err := v.Capture(context.Background(), "cam-1", nil, "rtsp://10.0.0.5/stream1", 15*time.Second)
	require.NoError(t, err)
	require.Empty(t, path)
}
