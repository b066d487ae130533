// Package rtspadapter is the generic RTSP-template fallback adapter,
// grounded on the teacher's internal/nvr/adapters/rtsp: unknown camera
// vendors get a deterministic, sanitized stream URL built from a
// channel template rather than an error.
package rtspadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/technosupport/foe-be-gone/internal/cameras"
)

func init() {
	cameras.Register("rtsp", New)
}

const defaultTemplate = "rtsp://{ip}:{port}/Streaming/Channels/{channel}01"

type config struct {
	IP           string `json:"ip"`
	Port         int    `json:"port"`
	Channel      string `json:"channel"`
	URLTemplate  string `json:"url_template"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	FFmpegBinary string `json:"ffmpeg_binary"`
}

type Adapter struct {
	cfg config
}

func New(c cameras.Config) (cameras.Adapter, error) {
	var cfg config
	if len(c.Raw) > 0 {
		if err := json.Unmarshal(c.Raw, &cfg); err != nil {
			return nil, fmt.Errorf("rtspadapter: decode config: %w", err)
		}
	}
	if cfg.URLTemplate == "" {
		cfg.URLTemplate = defaultTemplate
	}
	if cfg.Channel == "" {
		cfg.Channel = "1"
	}
	if cfg.Port == 0 {
		cfg.Port = 554
	}
	if cfg.FFmpegBinary == "" {
		cfg.FFmpegBinary = "ffmpeg"
	}
	return &Adapter{cfg: cfg}, nil
}

func (a *Adapter) Kind() string { return "rtsp" }

func (a *Adapter) TestConnection(ctx context.Context) (bool, error) {
	if a.cfg.IP == "" {
		return false, errors.New("rtspadapter: no camera IP configured")
	}
	return true, nil
}

func (a *Adapter) ListDevices(ctx context.Context) ([]cameras.DeviceInfo, error) {
	return []cameras.DeviceInfo{{
		ProviderID:   a.cfg.Channel,
		Name:         "RTSP Camera " + a.cfg.IP,
		Model:        "generic rtsp",
		Online:       true,
		HasSpeaker:   false,
		RTSPTemplate: cameras.SanitizeRTSPURL(a.streamURL(a.cfg.Channel)),
	}}, nil
}

func (a *Adapter) Device(ctx context.Context, providerID string) (cameras.Device, error) {
	if !isAlphanumeric(providerID) {
		return nil, errors.New("rtspadapter: invalid channel reference")
	}
	return &device{adapter: a, channel: providerID}, nil
}

// streamURL substitutes {ip}, {port}, {channel} into the configured
// template, then injects credentials for actual stream use — only the
// sanitized form is ever surfaced back through ListDevices/logging.
func (a *Adapter) streamURL(channel string) string {
	url := a.cfg.URLTemplate
	url = strings.ReplaceAll(url, "{ip}", a.cfg.IP)
	url = strings.ReplaceAll(url, "{port}", fmt.Sprintf("%d", a.cfg.Port))
	url = strings.ReplaceAll(url, "{channel}", channel)
	return url
}

func (a *Adapter) authenticatedURL(channel string) string {
	url := a.streamURL(channel)
	if a.cfg.Username == "" {
		return url
	}
	creds := a.cfg.Username
	if a.cfg.Password != "" {
		creds += ":" + a.cfg.Password
	}
	for _, scheme := range []string{"rtsp://", "rtsps://"} {
		if strings.HasPrefix(url, scheme) {
			return scheme + creds + "@" + strings.TrimPrefix(url, scheme)
		}
	}
	return url
}

func isAlphanumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

type device struct {
	adapter *Adapter
	channel string
}

// GetSnapshot shells out to ffmpeg to grab a single frame from the RTSP
// stream as a JPEG, the same one-shot-frame approach the media plane
// uses for thumbnailing live feeds.
func (d *device) GetSnapshot(ctx context.Context) ([]byte, error) {
	url := d.adapter.authenticatedURL(d.channel)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, d.adapter.cfg.FFmpegBinary,
		"-y",
		"-rtsp_transport", "tcp",
		"-i", url,
		"-frames:v", "1",
		"-f", "image2",
		"-",
	)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("rtspadapter: ffmpeg snapshot failed: %w: %s", err, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, errors.New("rtspadapter: ffmpeg produced no frame data")
	}
	return stdout.Bytes(), nil
}

// PlaySoundFile: the generic RTSP fallback has no talkback channel.
func (d *device) PlaySoundFile(ctx context.Context, path string, maxDuration time.Duration) (bool, error) {
	return false, nil
}

func (d *device) TestTalkback(ctx context.Context) (bool, error) {
	return false, nil
}
