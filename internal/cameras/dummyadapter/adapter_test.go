package dummyadapter

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/technosupport/foe-be-gone/internal/cameras"
)

func cfgOf(t *testing.T, imagePath string) cameras.Config {
	t.Helper()
	raw, err := json.Marshal(config{ImagePath: imagePath})
	require.NoError(t, err)
	return cameras.Config{IntegrationID: "test", Raw: raw}
}

func TestListDevices_ReportsSingleCamera(t *testing.T) {
	a, err := New(cfgOf(t, ""))
	require.NoError(t, err)

	devices, err := a.ListDevices(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 1)
	require.True(t, devices[0].HasSpeaker)
}

func TestGetSnapshot_ReadsConfiguredImage(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "snap-*.jpg")
	require.NoError(t, err)
	_, err = f.Write([]byte("fake-jpeg-bytes"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	a, err := New(cfgOf(t, f.Name()))
	require.NoError(t, err)

	dev, err := a.(*Adapter).Device(context.Background(), "dummy-cam-1")
	require.NoError(t, err)

	data, err := dev.GetSnapshot(context.Background())
	require.NoError(t, err)
	require.Equal(t, []byte("fake-jpeg-bytes"), data)
}

func TestPlaySoundFile_AlwaysSucceeds(t *testing.T) {
	a, err := New(cfgOf(t, ""))
	require.NoError(t, err)
	dev, err := a.(*Adapter).Device(context.Background(), "dummy-cam-1")
	require.NoError(t, err)

	ok, err := dev.PlaySoundFile(context.Background(), "/tmp/whatever.wav", 0)
	require.NoError(t, err)
	require.True(t, ok)
}
