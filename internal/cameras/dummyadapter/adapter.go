// Package dummyadapter simulates a surveillance system with a single
// camera, grounded on original_source's app/integrations/dummy_surveillance,
// used for tests and local development.
package dummyadapter

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/technosupport/foe-be-gone/internal/cameras"
)

func init() {
	cameras.Register("dummy", New)
}

type config struct {
	ImagePath string `json:"image_path"`
}

type Adapter struct {
	mu   sync.RWMutex
	cfg  config
	path string
}

func New(c cameras.Config) (cameras.Adapter, error) {
	var cfg config
	if len(c.Raw) > 0 {
		_ = json.Unmarshal(c.Raw, &cfg)
	}
	return &Adapter{cfg: cfg, path: cfg.ImagePath}, nil
}

func (a *Adapter) Kind() string { return "dummy" }

func (a *Adapter) TestConnection(ctx context.Context) (bool, error) {
	return true, nil
}

func (a *Adapter) ListDevices(ctx context.Context) ([]cameras.DeviceInfo, error) {
	return []cameras.DeviceInfo{{
		ProviderID: "dummy-cam-1",
		Name:       "Dummy Camera",
		Model:      "simulated",
		Online:     true,
		HasSpeaker: true,
	}}, nil
}

func (a *Adapter) Device(ctx context.Context, providerID string) (cameras.Device, error) {
	return &device{adapter: a}, nil
}

// SetCurrentImage lets tests/dev scenarios swap the served snapshot.
func (a *Adapter) SetCurrentImage(path string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.path = path
}

type device struct {
	adapter *Adapter
}

func (d *device) GetSnapshot(ctx context.Context) ([]byte, error) {
	d.adapter.mu.RLock()
	path := d.adapter.path
	d.adapter.mu.RUnlock()

	if path == "" {
		return nil, nil
	}
	return os.ReadFile(path)
}

func (d *device) PlaySoundFile(ctx context.Context, path string, maxDuration time.Duration) (bool, error) {
	// Simulated talkback: always succeeds, matches the source's
	// dummy integration which has no real speaker hardware to fail on.
	return true, nil
}

func (d *device) TestTalkback(ctx context.Context) (bool, error) {
	return true, nil
}
