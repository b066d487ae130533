// Package unifiadapter is a partial UniFi Protect adapter stub: it
// implements device listing and snapshot capture against the Protect
// API but has no talkback support in this cut, matching the spec's
// explicit partial-coverage note for this vendor.
package unifiadapter

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/technosupport/foe-be-gone/internal/cameras"
)

func init() {
	cameras.Register("unifi", New)
}

type config struct {
	Host     string `json:"host"`
	APIKey   string `json:"api_key"`
	Insecure bool   `json:"insecure"`
}

type Adapter struct {
	cfg    config
	client *http.Client
}

func New(c cameras.Config) (cameras.Adapter, error) {
	var cfg config
	if len(c.Raw) > 0 {
		if err := json.Unmarshal(c.Raw, &cfg); err != nil {
			return nil, fmt.Errorf("unifiadapter: decode config: %w", err)
		}
	}
	if cfg.Host == "" {
		return nil, errors.New("unifiadapter: host is required")
	}
	return &Adapter{
		cfg: cfg,
		client: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.Insecure}, //nolint:gosec // operator-opted-in self-signed Protect controllers
			},
		},
	}, nil
}

func (a *Adapter) Kind() string { return "unifi" }

func (a *Adapter) TestConnection(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.Host+"/proxy/protect/integration/v1/meta/info", nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("X-API-KEY", a.cfg.APIKey)
	resp, err := a.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK, nil
}

type unifiCamera struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Model     string `json:"modelKey"`
	IsConnected bool `json:"isConnected"`
}

// ListDevices enumerates Protect cameras. Speaker capability is not yet
// probed (HasSpeaker is always false) — talkback is unimplemented.
func (a *Adapter) ListDevices(ctx context.Context) ([]cameras.DeviceInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.Host+"/proxy/protect/integration/v1/cameras", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-KEY", a.cfg.APIKey)
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unifiadapter: list cameras: status %d: %s", resp.StatusCode, string(body))
	}

	var raw []unifiCamera
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("unifiadapter: decode cameras: %w", err)
	}

	out := make([]cameras.DeviceInfo, 0, len(raw))
	for _, c := range raw {
		out = append(out, cameras.DeviceInfo{
			ProviderID: c.ID,
			Name:       c.Name,
			Model:      c.Model,
			Online:     c.IsConnected,
			HasSpeaker: false,
		})
	}
	return out, nil
}

func (a *Adapter) Device(ctx context.Context, providerID string) (cameras.Device, error) {
	return &device{adapter: a, providerID: providerID}, nil
}

type device struct {
	adapter    *Adapter
	providerID string
}

func (d *device) GetSnapshot(ctx context.Context) ([]byte, error) {
	url := fmt.Sprintf("%s/proxy/protect/integration/v1/cameras/%s/snapshot", d.adapter.cfg.Host, d.providerID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-KEY", d.adapter.cfg.APIKey)
	resp, err := d.adapter.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unifiadapter: snapshot: status %d: %s", resp.StatusCode, string(body))
	}
	return io.ReadAll(resp.Body)
}

// PlaySoundFile: talkback over Protect's two-way audio API is not
// implemented in this cut.
func (d *device) PlaySoundFile(ctx context.Context, path string, maxDuration time.Duration) (bool, error) {
	return false, errors.New("unifiadapter: talkback not implemented")
}

func (d *device) TestTalkback(ctx context.Context) (bool, error) {
	return false, nil
}
