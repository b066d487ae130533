// Package cameras is the Camera Registry (C3): resolves active cameras and
// wraps per-Integration adapters behind a small capability interface, mirror
// of the teacher's internal/nvr/adapters shape.
package cameras

import (
	"context"
	"time"
)

// DeviceInfo describes one camera as reported by its integration.
type DeviceInfo struct {
	ProviderID   string
	Name         string
	Model        string
	Online       bool
	HasSpeaker   bool
	RTSPTemplate string
}

// Device is the per-camera capability surface an Adapter hands back.
type Device interface {
	GetSnapshot(ctx context.Context) ([]byte, error)
	// PlaySoundFile plays path on the device's speaker, hard-capped at
	// maxDuration. Returns false if the device has no playback capability.
	PlaySoundFile(ctx context.Context, path string, maxDuration time.Duration) (bool, error)
	TestTalkback(ctx context.Context) (bool, error)
}

// Adapter is implemented once per integration kind (dummy, rtsp, unifi).
type Adapter interface {
	TestConnection(ctx context.Context) (bool, error)
	ListDevices(ctx context.Context) ([]DeviceInfo, error)
	Device(ctx context.Context, providerID string) (Device, error)
	Kind() string
}

// Config is what an Adapter factory needs to construct itself: the
// integration's ID and its opaque config blob. Adapters that talk HTTP
// build their own client.
type Config struct {
	IntegrationID string
	Raw           []byte // opaque JSON config, provider-specific
}

// Factory constructs an Adapter for one integration.
type Factory func(cfg Config) (Adapter, error)
