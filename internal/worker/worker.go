// Package worker is the Detection Worker (C9): the tick scheduler and
// the 11-step per-camera response protocol, grounded on spec.md §4.9.
// Per-tick fan-out uses golang.org/x/sync/errgroup so one bad camera's
// panic cannot stall or crash the tick, and the errgroup.Wait barrier
// at tick end enforces that no camera's next-tick work starts before
// its current-tick subtask joins.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/technosupport/foe-be-gone/internal/capture"
	"github.com/technosupport/foe-be-gone/internal/detection"
	"github.com/technosupport/foe-be-gone/internal/detector"
	"github.com/technosupport/foe-be-gone/internal/deterrent"
	"github.com/technosupport/foe-be-gone/internal/effectiveness"
	"github.com/technosupport/foe-be-gone/internal/eventjournal"
	"github.com/technosupport/foe-be-gone/internal/metrics"
	"github.com/technosupport/foe-be-gone/internal/settings"
	"github.com/technosupport/foe-be-gone/internal/store"
)

const playbackMaxDuration = 10 * time.Second

type CameraRegistry interface {
	ActiveCameras(ctx context.Context) ([]*store.Camera, error)
	PlaySoundOnCamera(ctx context.Context, in *store.Integration, cam *store.Camera, soundPath string, maxDuration time.Duration) (bool, error)
	Cleanup()
}

type IntegrationRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*store.Integration, error)
}

type DetectionRepo interface {
	UpdateVideoAndSounds(ctx context.Context, id uuid.UUID, videoPath *string, playedSounds []string) error
}

type FoeRepo interface {
	ListByDetection(ctx context.Context, detectionID uuid.UUID) ([]store.Foe, error)
}

type DeterrentActionRepo interface {
	Create(ctx context.Context, a *store.DeterrentAction) error
}

// EventPublisher announces detection and deterrence events to the Web UI
// boundary. Optional: a nil publisher is a silent no-op.
type EventPublisher interface {
	Publish(event any) error
}

// EventJournal appends a durable audit-trail entry for a detection,
// deterrent action, or effectiveness run. Optional: a nil journal is a
// silent no-op, satisfied by *eventjournal.Service.
type EventJournal interface {
	WriteEvent(ctx context.Context, evt eventjournal.Event) error
}

// Worker runs the scheduler loop and wires every other component's call
// for the per-camera response protocol.
type Worker struct {
	registry     CameraRegistry
	integrations IntegrationRepo
	snapshotter  *capture.Snapshotter
	pipeline     *detection.Pipeline
	videoCap     *capture.VideoCapturer
	player       *deterrent.Player
	selector     *deterrent.Selector
	tracker      *effectiveness.Tracker
	detections   DetectionRepo
	foes         FoeRepo
	actions      DeterrentActionRepo
	det          detector.Detector
	settings     *settings.Accessor
	events       EventPublisher
	journal      EventJournal
	log          zerolog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

type Dependencies struct {
	Registry     CameraRegistry
	Integrations IntegrationRepo
	Snapshotter  *capture.Snapshotter
	Pipeline     *detection.Pipeline
	VideoCap     *capture.VideoCapturer
	Player       *deterrent.Player
	Selector     *deterrent.Selector
	Tracker      *effectiveness.Tracker
	Detections   DetectionRepo
	Foes         FoeRepo
	Actions      DeterrentActionRepo
	Detector     detector.Detector
	Settings     *settings.Accessor
	Events       EventPublisher
	Journal      EventJournal
	Log          zerolog.Logger
}

func New(d Dependencies) *Worker {
	return &Worker{
		registry:     d.Registry,
		integrations: d.Integrations,
		snapshotter:  d.Snapshotter,
		pipeline:     d.Pipeline,
		videoCap:     d.VideoCap,
		player:       d.Player,
		selector:     d.Selector,
		tracker:      d.Tracker,
		detections:   d.Detections,
		foes:         d.Foes,
		actions:      d.Actions,
		det:          d.Detector,
		settings:     d.Settings,
		events:       d.Events,
		journal:      d.Journal,
		log:          d.Log.With().Str("component", "worker").Logger(),
	}
}

// Start spawns the background tick loop and returns immediately. Calling
// Start twice is a no-op.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	w.running = true
	metrics.SetWorkerUp(true)

	go func() {
		defer close(w.done)
		w.loop(loopCtx)
	}()
}

// Stop clears the running flag, cancels the loop, waits up to 5s, and
// cleans up the camera registry.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	cancel := w.cancel
	done := w.done
	w.mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
	}
	w.registry.Cleanup()
	metrics.SetWorkerUp(false)
}

func (w *Worker) loop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		w.tick(ctx)

		interval := w.settings.DetectionInterval(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

func (w *Worker) tick(ctx context.Context) {
	start := time.Now()
	defer func() { metrics.TickDurationSeconds.Observe(time.Since(start).Seconds()) }()

	cams, err := w.registry.ActiveCameras(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("failed to list active cameras")
		sentry.CaptureException(err)
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, cam := range cams {
		cam := cam
		g.Go(func() error {
			w.runSubtaskSafely(gctx, cam)
			return nil
		})
	}
	_ = g.Wait()
}

// runSubtaskSafely recovers any panic inside the per-camera subtask so
// one bad camera cannot stall or crash the tick.
func (w *Worker) runSubtaskSafely(ctx context.Context, cam *store.Camera) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("worker: panic in camera subtask: %v", r)
			w.log.Error().Err(err).Str("camera_id", cam.ID.String()).Msg("recovered panic")
			sentry.CaptureException(err)
		}
	}()

	if err := w.respond(ctx, cam); err != nil {
		w.log.Error().Err(err).Str("camera_id", cam.ID.String()).Msg("camera subtask failed")
		sentry.CaptureException(err)
	}
}
