package capture

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// VideoCapturer shells out to ffmpeg to record a fixed-duration clip
// from an RTSP URL without re-encoding, grounded on original_source's
// video_capture.py subprocess shape.
type VideoCapturer struct {
	fs           afero.Fs
	videosDir    string
	ffmpegBinary string
	log          zerolog.Logger
}

func NewVideoCapturer(fs afero.Fs, videosDir, ffmpegBinary string, log zerolog.Logger) *VideoCapturer {
	if ffmpegBinary == "" {
		ffmpegBinary = "ffmpeg"
	}
	return &VideoCapturer{fs: fs, videosDir: videosDir, ffmpegBinary: ffmpegBinary, log: log.With().Str("component", "video_capture").Logger()}
}

// Available reports whether the transcoder binary can be found — video
// capture is silently skipped when it cannot, per spec.md §4.4.
func (v *VideoCapturer) Available() bool {
	_, err := exec.LookPath(v.ffmpegBinary)
	return err == nil
}

// Capture records duration seconds from rtspURL into a new MP4 under
// videosDir, hard-killed at duration+10s. Returns ("", nil) — not an
// error — on a hard-timeout kill, matching "result is null" in spec.md.
func (v *VideoCapturer) Capture(ctx context.Context, cameraID string, detectionID *uuid.UUID, rtspURL string, duration time.Duration) (string, error) {
	if rtspURL == "" {
		return "", nil
	}
	if !v.Available() {
		v.log.Warn().Msg("ffmpeg binary not found, skipping video capture")
		return "", nil
	}

	name := filename(cameraID, detectionID)
	path := filepath.Join(v.videosDir, name)
	if err := v.fs.MkdirAll(v.videosDir, 0o755); err != nil {
		return "", fmt.Errorf("capture: mkdir videos dir: %w", err)
	}

	osPath, err := toOSPath(v.fs, path)
	if err != nil {
		return "", err
	}

	hardTimeout := duration + 10*time.Second
	timeoutCtx, cancel := context.WithTimeout(ctx, hardTimeout)
	defer cancel()

	cmd := exec.CommandContext(timeoutCtx, v.ffmpegBinary,
		"-y",
		"-rtsp_transport", "tcp",
		"-i", rtspURL,
		"-t", fmt.Sprintf("%d", int(duration.Seconds())),
		"-c:v", "copy",
		"-c:a", "copy",
		osPath,
	)

	err = cmd.Run()
	if timeoutCtx.Err() != nil {
		return "", nil // hard timeout: killed, result is null
	}
	if err != nil {
		return "", fmt.Errorf("capture: ffmpeg video capture failed: %w", err)
	}
	return path, nil
}

func filename(cameraID string, detectionID *uuid.UUID) string {
	det := ""
	if detectionID != nil {
		det = "_" + detectionID.String()
	}
	return fmt.Sprintf("%s_%s%s_%s.mp4", cameraID, time.Now().Format("20060102_150405"), det, randomSuffix())
}

func randomSuffix() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// toOSPath resolves path against an afero OsFs to a real filesystem path
// for handing to ffmpeg, which cannot write through the afero abstraction.
// Non-OsFs backends (tests) are rejected since ffmpeg cannot target them.
func toOSPath(fs afero.Fs, path string) (string, error) {
	if _, ok := fs.(*afero.OsFs); ok {
		return path, nil
	}
	return "", errors.New("capture: video capture requires an OS-backed filesystem")
}
