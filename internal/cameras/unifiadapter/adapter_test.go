package unifiadapter

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/technosupport/foe-be-gone/internal/cameras"
)

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	a, err := New(cameras.Config{Raw: []byte(`{"host":"https://nvr.local","api_key":"secret"}`)})
	require.NoError(t, err)
	ad := a.(*Adapter)
	httpmock.ActivateNonDefault(ad.client)
	t.Cleanup(httpmock.DeactivateAndReset)
	return ad
}

func TestNew_RequiresHost(t *testing.T) {
	_, err := New(cameras.Config{Raw: []byte(`{"api_key":"secret"}`)})
	assert.Error(t, err)
}

func TestListDevices_ParsesProtectResponse(t *testing.T) {
	a := newTestAdapter(t)
	httpmock.RegisterResponder(http.MethodGet, "https://nvr.local/proxy/protect/integration/v1/cameras",
		httpmock.NewJsonResponderOrPanic(http.StatusOK, []unifiCamera{
			{ID: "cam-1", Name: "Backyard", Model: "G4", IsConnected: true},
		}))

	devices, err := a.ListDevices(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "cam-1", devices[0].ProviderID)
	assert.True(t, devices[0].Online)
	assert.False(t, devices[0].HasSpeaker)
}

func TestListDevices_NonOKStatus(t *testing.T) {
	a := newTestAdapter(t)
	httpmock.RegisterResponder(http.MethodGet, "https://nvr.local/proxy/protect/integration/v1/cameras",
		httpmock.NewStringResponder(http.StatusUnauthorized, "unauthorized"))

	_, err := a.ListDevices(context.Background())
	assert.Error(t, err)
}

func TestDevice_GetSnapshot(t *testing.T) {
	a := newTestAdapter(t)
	httpmock.RegisterResponder(http.MethodGet, "https://nvr.local/proxy/protect/integration/v1/cameras/cam-1/snapshot",
		httpmock.NewBytesResponder(http.StatusOK, []byte("jpegbytes")))

	dev, err := a.Device(context.Background(), "cam-1")
	require.NoError(t, err)
	data, err := dev.GetSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("jpegbytes"), data)
}

func TestDevice_PlaySoundFile_NotImplemented(t *testing.T) {
	a := newTestAdapter(t)
	dev, err := a.Device(context.Background(), "cam-1")
	require.NoError(t, err)

	ok, err := dev.PlaySoundFile(context.Background(), "/sounds/hawk.wav", 3*time.Second)
	assert.False(t, ok)
	assert.Error(t, err)
}
