package cameras_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/technosupport/foe-be-gone/internal/cameras"
)

func TestGetAdapter_FallsBackToRTSPForUnknownKind(t *testing.T) {
	cameras.Register("rtsp", func(cfg cameras.Config) (cameras.Adapter, error) {
		return stubAdapter{}, nil
	})

	a, err := cameras.GetAdapter("some-unknown-vendor", cameras.Config{})
	require.NoError(t, err)
	require.Equal(t, "stub-rtsp", a.Kind())
}

func TestGetAdapter_IsCaseInsensitive(t *testing.T) {
	cameras.Register("DUMMY", func(cfg cameras.Config) (cameras.Adapter, error) {
		return stubAdapter{kind: "dummy-registered"}, nil
	})

	a, err := cameras.GetAdapter("dummy", cameras.Config{})
	require.NoError(t, err)
	require.Equal(t, "dummy-registered", a.Kind())
}

type stubAdapter struct {
	kind string
}

func (s stubAdapter) Kind() string {
	if s.kind == "" {
		return "stub-rtsp"
	}
	return s.kind
}
func (s stubAdapter) TestConnection(ctx context.Context) (bool, error) {
	return true, nil
}

func (s stubAdapter) ListDevices(ctx context.Context) ([]cameras.DeviceInfo, error) {
	return nil, nil
}

func (s stubAdapter) Device(ctx context.Context, providerID string) (cameras.Device, error) {
	return nil, nil
}
