// Package capture is Snapshot & Video Capture (C4): rate-limited
// snapshot retrieval with HTTP-429-aware backoff, and ffmpeg-driven
// video capture with a retention sweeper. Grounded on the teacher's
// internal/nvr/scheduler.go ticker pattern for the sweeper and on
// original_source's video_capture.py for the subprocess shape.
package capture

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/technosupport/foe-be-gone/internal/diagnostics"
	"github.com/technosupport/foe-be-gone/internal/ratelimit"
	"github.com/technosupport/foe-be-gone/internal/store"
)

// SnapshotSource is satisfied by cameras.Registry.CaptureSnapshot.
type SnapshotSource interface {
	CaptureSnapshot(ctx context.Context, in *store.Integration, cam *store.Camera) ([]byte, error)
}

// HTTPStatusError lets the caller distinguish a 429 from other failures
// without capture depending on net/http response types directly.
type HTTPStatusError struct {
	StatusCode int
	Err        error
}

func (e *HTTPStatusError) Error() string { return e.Err.Error() }
func (e *HTTPStatusError) Unwrap() error { return e.Err }

type Snapshotter struct {
	source  SnapshotSource
	limiter *ratelimit.Limiter
	diag    *diagnostics.Tracker
	log     zerolog.Logger
}

func NewSnapshotter(source SnapshotSource, limiter *ratelimit.Limiter, diag *diagnostics.Tracker, log zerolog.Logger) *Snapshotter {
	return &Snapshotter{source: source, limiter: limiter, diag: diag, log: log.With().Str("component", "capture").Logger()}
}

// Fetch rate-limits on the owning Integration, then retries per
// spec.md §4.4: HTTP 429 → exponential backoff 2·2^n seconds up to 3
// attempts; any other error → one linear-delay retry; all other
// outcomes surface the failure and are recorded into C11.
func (s *Snapshotter) Fetch(ctx context.Context, in *store.Integration, cam *store.Camera) ([]byte, error) {
	if err := s.limiter.Acquire(ctx, in.ID.String()); err != nil {
		return nil, err
	}

	data, err := s.source.CaptureSnapshot(ctx, in, cam)
	if err == nil {
		return data, nil
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusTooManyRequests {
		return s.retryWithBackoff(ctx, in, cam)
	}

	return s.retryLinear(ctx, in, cam, err)
}

func (s *Snapshotter) retryWithBackoff(ctx context.Context, in *store.Integration, cam *store.Camera) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		delay := time.Duration(2*(1<<uint(attempt))) * time.Second
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}

		data, err := s.source.CaptureSnapshot(ctx, in, cam)
		if err == nil {
			return data, nil
		}
		lastErr = err
	}
	s.diag.Record(cam.ID.String(), "snapshot_error", lastErr.Error())
	return nil, lastErr
}

func (s *Snapshotter) retryLinear(ctx context.Context, in *store.Integration, cam *store.Camera, firstErr error) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(2 * time.Second):
	}

	data, err := s.source.CaptureSnapshot(ctx, in, cam)
	if err == nil {
		return data, nil
	}
	s.diag.Record(cam.ID.String(), "snapshot_error", err.Error())
	return nil, err
}
