package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/technosupport/foe-be-gone/internal/detection"
	"github.com/technosupport/foe-be-gone/internal/detector"
	"github.com/technosupport/foe-be-gone/internal/effectiveness"
	"github.com/technosupport/foe-be-gone/internal/eventbus"
	"github.com/technosupport/foe-be-gone/internal/eventjournal"
	"github.com/technosupport/foe-be-gone/internal/metrics"
	"github.com/technosupport/foe-be-gone/internal/store"
)

// respond implements the per-camera response protocol, spec.md §4.9.
func (w *Worker) respond(ctx context.Context, cam *store.Camera) error {
	in, err := w.integrations.GetByID(ctx, cam.IntegrationID)
	if err != nil {
		return fmt.Errorf("worker: resolve integration: %w", err)
	}

	// 1. Fetch snapshot via C3 (rate-limited, retried).
	snapshotBytes, err := w.snapshotter.Fetch(ctx, in, cam)
	if err != nil {
		return fmt.Errorf("worker: fetch snapshot: %w", err)
	}
	if len(snapshotBytes) == 0 {
		return nil
	}

	// 2. Run C5 detection pipeline.
	d, err := w.pipeline.Process(ctx, cam, snapshotBytes)
	if err != nil {
		return fmt.Errorf("worker: detection pipeline: %w", err)
	}
	// 3. If no Detection created -> return.
	if d == nil {
		return nil
	}
	metrics.RecordDetection(string(d.Status))
	metrics.RecordAICost(d.AICostUSD)

	// 4. Record detection id D. Snapshot the set of Foes S0 (fresh read).
	foesBefore, err := w.foes.ListByDetection(ctx, d.ID)
	if err != nil {
		return fmt.Errorf("worker: list foes before: %w", err)
	}

	for _, f := range foesBefore {
		metrics.RecordFoe(string(f.Kind))
	}
	w.publishDetection(d, foesBefore)
	w.journalDetection(ctx, d)

	// 5. K = primary_foe_type(D). If null or UNKNOWN -> return.
	primary := detection.PrimaryFoeType(foesBefore)
	if primary == "" || primary == store.FoeUnknown {
		return nil
	}

	// 6. If camera supports RTSP and transcoder is available: start
	// video capture in parallel (non-blocking).
	var videoResult <-chan videoOutcome
	if cam.Capabilities.RTSPTemplate != "" && w.videoCap.Available() {
		videoResult = w.startVideoCapture(ctx, cam, &d.ID)
	}

	var playedMethod string
	var playedSound string

	// 7. candidates = C8.available_sounds(K). If empty -> skip to 11.
	candidates, err := w.player.AvailableSounds(string(primary))
	if err != nil {
		return fmt.Errorf("worker: available sounds: %w", err)
	}

	if len(candidates) > 0 {
		// 8. F = C7.select(K, candidates).
		sound, ok := w.selector.Select(ctx, primary, candidates)
		if ok {
			playedSound = sound

			// 9. Attempt play_on_camera; on failure attempt play_local.
			camOK, err := w.registry.PlaySoundOnCamera(ctx, in, cam, sound, playbackMaxDuration)
			if err == nil && camOK {
				playedMethod = string(store.MethodCamera)
			} else {
				localOK, lerr := w.player.PlayLocal(ctx, sound, playbackMaxDuration)
				if lerr == nil && localOK {
					playedMethod = string(store.MethodLocal)
				}
			}

			action := &store.DeterrentAction{
				DetectionID: d.ID,
				Action:      "play_sound",
				TriggeredAt: time.Now(),
				Success:     playedMethod != "",
			}
			if err := w.actions.Create(ctx, action); err != nil {
				return fmt.Errorf("worker: record deterrent action: %w", err)
			}
			metrics.RecordDeterrentAction(string(primary), playedMethod, playedMethod != "")
			w.publishDeterrence(d, cam, playedSound, playedMethod)
			w.journalDeterrentAction(ctx, d, action)
		}

		// 10. If played:
		if playedMethod != "" {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(playbackMaxDuration):
			}

			followUpBytes, err := w.snapshotter.Fetch(ctx, in, cam)
			if err != nil || len(followUpBytes) == 0 {
				w.log.Warn().Str("camera_id", cam.ID.String()).Msg("follow-up snapshot unavailable, skipping effectiveness recording")
			} else {
				followUpPath, perr := w.pipeline.PersistFollowUp(cam, followUpBytes)
				if perr != nil {
					w.log.Warn().Err(perr).Msg("failed to persist follow-up snapshot")
				}

				result, derr := w.det.Detect(ctx, followUpBytes)
				if derr != nil || result.Failed {
					w.log.Warn().Err(derr).Msg("follow-up detector call failed, skipping effectiveness recording")
				} else {
					confBefore := confidences(foesBefore)
					confAfter := confidencesFromResult(result)

					var fp *string
					if followUpPath != "" {
						fp = &followUpPath
					}
					if err := w.tracker.RecordEffectiveness(ctx, d.ID, primary, playedSound, store.PlaybackMethod(playedMethod), confBefore, confAfter, fp, int(playbackMaxDuration.Seconds())); err != nil {
						w.log.Error().Err(err).Msg("failed to record effectiveness")
					} else {
						result, score := effectiveness.Outcome(confBefore, confAfter)
						metrics.RecordEffectiveness(string(primary), score)
						w.journalEffectivenessRun(ctx, d, string(result))
					}
				}
			}
		}
	}

	// 11. If video capture was started, await it.
	if videoResult != nil {
		select {
		case outcome := <-videoResult:
			if outcome.err != nil {
				w.log.Warn().Err(outcome.err).Msg("video capture failed")
			} else if outcome.path != "" {
				var vp *string
				if outcome.path != "" {
					vp = &outcome.path
				}
				sounds := []string{}
				if playedSound != "" {
					sounds = []string{playedSound}
				}
				if err := w.detections.UpdateVideoAndSounds(ctx, d.ID, vp, sounds); err != nil {
					w.log.Error().Err(err).Msg("failed to update detection with video path")
				}
			}
		case <-ctx.Done():
		}
	}

	return nil
}

type videoOutcome struct {
	path string
	err  error
}

func (w *Worker) startVideoCapture(ctx context.Context, cam *store.Camera, detectionID *uuid.UUID) <-chan videoOutcome {
	ch := make(chan videoOutcome, 1)
	go func() {
		path, err := w.videoCap.Capture(ctx, cam.ID.String(), detectionID, cam.Capabilities.RTSPTemplate, 15*time.Second)
		ch <- videoOutcome{path: path, err: err}
	}()
	return ch
}

func confidences(foes []store.Foe) []float64 {
	out := make([]float64, len(foes))
	for i, f := range foes {
		out[i] = f.Confidence
	}
	return out
}

func confidencesFromResult(r detector.Result) []float64 {
	out := make([]float64, len(r.Foes))
	for i, f := range r.Foes {
		out[i] = f.Confidence
	}
	return out
}

func (w *Worker) publishDetection(d *store.Detection, foes []store.Foe) {
	if w.events == nil {
		return
	}
	kinds := make([]string, 0, len(foes))
	for _, f := range foes {
		kinds = append(kinds, string(f.Kind))
	}
	evt := eventbus.DetectionEvent{
		DetectionID: d.ID,
		CameraID:    d.CameraID,
		Status:      string(d.Status),
		FoeKinds:    kinds,
		SceneDesc:   d.SceneDesc,
		OccurredAt:  d.CreatedAt,
	}
	if err := w.events.Publish(evt); err != nil {
		w.log.Warn().Err(err).Str("detection_id", d.ID.String()).Msg("failed to publish detection event")
	}
}

func (w *Worker) publishDeterrence(d *store.Detection, cam *store.Camera, sound, method string) {
	if w.events == nil {
		return
	}
	evt := eventbus.DeterrenceEvent{
		DetectionID: d.ID,
		CameraID:    cam.ID,
		Sound:       sound,
		Method:      method,
		Success:     method != "",
		OccurredAt:  time.Now(),
	}
	if err := w.events.Publish(evt); err != nil {
		w.log.Warn().Err(err).Str("detection_id", d.ID.String()).Msg("failed to publish deterrence event")
	}
}

func (w *Worker) journalDetection(ctx context.Context, d *store.Detection) {
	if w.journal == nil {
		return
	}
	evt := eventjournal.Event{
		CameraID:    d.CameraID,
		DetectionID: &d.ID,
		Kind:        eventjournal.KindDetection,
		Result:      string(d.Status),
		CreatedAt:   d.CreatedAt,
	}
	if err := w.journal.WriteEvent(ctx, evt); err != nil {
		w.log.Warn().Err(err).Str("detection_id", d.ID.String()).Msg("failed to journal detection event")
	}
}

func (w *Worker) journalDeterrentAction(ctx context.Context, d *store.Detection, a *store.DeterrentAction) {
	if w.journal == nil {
		return
	}
	result := "failed"
	if a.Success {
		result = "played"
	}
	evt := eventjournal.Event{
		CameraID:    d.CameraID,
		DetectionID: &d.ID,
		Kind:        eventjournal.KindDeterrentAction,
		Result:      result,
		CreatedAt:   a.TriggeredAt,
	}
	if err := w.journal.WriteEvent(ctx, evt); err != nil {
		w.log.Warn().Err(err).Str("detection_id", d.ID.String()).Msg("failed to journal deterrent action event")
	}
}

func (w *Worker) journalEffectivenessRun(ctx context.Context, d *store.Detection, result string) {
	if w.journal == nil {
		return
	}
	evt := eventjournal.Event{
		CameraID:    d.CameraID,
		DetectionID: &d.ID,
		Kind:        eventjournal.KindEffectivenessRun,
		Result:      result,
		CreatedAt:   time.Now(),
	}
	if err := w.journal.WriteEvent(ctx, evt); err != nil {
		w.log.Warn().Err(err).Str("detection_id", d.ID.String()).Msg("failed to journal effectiveness run")
	}
}
