// Package detection is the Detection Pipeline (C5): change-gate a
// snapshot against the camera's last known hash, persist it, run the
// configured foe detector, and write a Detection record. Grounded on
// the teacher's internal/data repository-call style for the
// persistence half and on visualhash for the perceptual-hash half.
package detection

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/technosupport/foe-be-gone/internal/detector"
	"github.com/technosupport/foe-be-gone/internal/settings"
	"github.com/technosupport/foe-be-gone/internal/store"
	"github.com/technosupport/foe-be-gone/internal/visualhash"
)

// Snapshot capture levels, spec.md §4.5.
const (
	LevelFoeIdentified   = 0
	LevelObjectRecognized = 1
	LevelAllSnapshots    = 2
)

type DetectionRepo interface {
	Create(ctx context.Context, d *store.Detection) error
}

type FoeRepo interface {
	CreateBatch(ctx context.Context, foes []store.Foe) error
}

type Pipeline struct {
	fs            afero.Fs
	hashes        *HashStore
	detector      detector.Detector
	settings      *settings.Accessor
	detections    DetectionRepo
	foes          FoeRepo
	snapshotsDir  string
	log           zerolog.Logger
}

func NewPipeline(fs afero.Fs, hashes *HashStore, det detector.Detector, acc *settings.Accessor, detections DetectionRepo, foes FoeRepo, snapshotsDir string, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		fs:           fs,
		hashes:       hashes,
		detector:     det,
		settings:     acc,
		detections:   detections,
		foes:         foes,
		snapshotsDir: snapshotsDir,
		log:          log.With().Str("component", "detection").Logger(),
	}
}

// Process runs the full C5 contract for one camera's snapshot bytes.
// Returns (nil, nil) on no-change or on a decision not to persist.
func (p *Pipeline) Process(ctx context.Context, cam *store.Camera, snapshotBytes []byte) (*store.Detection, error) {
	hash, ok := visualhash.Hash(snapshotBytes, visualhash.AverageHash)
	if !ok {
		return nil, fmt.Errorf("detection: malformed snapshot for camera %s", cam.ID)
	}

	changeThreshold := p.settings.ChangeThreshold(ctx)
	if last, found, err := p.hashes.Get(ctx, cam.ID.String()); err == nil && found {
		if visualhash.HammingDistance(hash, last) < changeThreshold {
			return nil, nil // no-change
		}
	}

	snapshotPath, err := p.persistSnapshot(cam, snapshotBytes)
	if err != nil {
		return nil, fmt.Errorf("detection: persist snapshot: %w", err)
	}

	if err := p.hashes.Set(ctx, cam.ID.String(), hash); err != nil {
		p.log.Warn().Err(err).Str("camera_id", cam.ID.String()).Msg("failed to persist last_image_hash")
	}

	result, err := p.detector.Detect(ctx, snapshotBytes)
	if err != nil || result.Failed {
		detail := result.FailureDetail
		if err != nil {
			detail = err.Error()
		}
		d := &store.Detection{
			ID:           uuid.New(),
			CameraID:     cam.ID,
			CreatedAt:    time.Now(),
			SnapshotPath: snapshotPath,
			Status:       store.DetectionFailed,
			VisualHash:   &hash,
			ErrorDetail:  detail,
		}
		if cerr := p.detections.Create(ctx, d); cerr != nil {
			return nil, cerr
		}
		return d, nil
	}

	level := p.settings.SnapshotCaptureLevel(ctx)
	hasNonUnknownFoe := false
	for _, f := range result.Foes {
		if store.NormalizeFoeKind(f.Kind) != store.FoeUnknown {
			hasNonUnknownFoe = true
			break
		}
	}

	shouldPersist := false
	switch level {
	case LevelFoeIdentified:
		shouldPersist = hasNonUnknownFoe
	case LevelObjectRecognized:
		shouldPersist = result.FoesDetected
	case LevelAllSnapshots:
		shouldPersist = true
	}

	if !shouldPersist {
		if rmErr := p.fs.Remove(snapshotPath); rmErr != nil {
			p.log.Warn().Err(rmErr).Str("path", snapshotPath).Msg("failed to remove undesired snapshot")
		}
		return nil, nil
	}

	blob, err := marshalDetectorBlob(result)
	if err != nil {
		return nil, err
	}

	d := &store.Detection{
		ID:           uuid.New(),
		CameraID:     cam.ID,
		CreatedAt:    time.Now(),
		SnapshotPath: snapshotPath,
		Status:       store.DetectionProcessed,
		VisualHash:   &hash,
		DetectorBlob: blob,
		AICostUSD:    result.CostUSD,
		SceneDesc:    result.SceneDesc,
	}
	if err := p.detections.Create(ctx, d); err != nil {
		return nil, err
	}

	foes := make([]store.Foe, 0, len(result.Foes))
	for _, f := range result.Foes {
		foes = append(foes, store.Foe{
			ID:          uuid.New(),
			DetectionID: d.ID,
			Kind:        store.NormalizeFoeKind(f.Kind),
			Confidence:  f.Confidence,
			BBox:        f.BBox,
		})
	}
	if len(foes) > 0 {
		if err := p.foes.CreateBatch(ctx, foes); err != nil {
			return nil, err
		}
	}

	return d, nil
}

func (p *Pipeline) persistSnapshot(cam *store.Camera, data []byte) (string, error) {
	name := fmt.Sprintf("%s_%s_%s.jpg", cam.ID.String(), time.Now().Format("20060102_150405"), randomSuffix())
	path := filepath.Join(p.snapshotsDir, name)
	if err := p.fs.MkdirAll(p.snapshotsDir, 0o755); err != nil {
		return "", err
	}
	if err := afero.WriteFile(p.fs, path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func randomSuffix() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func marshalDetectorBlob(r detector.Result) ([]byte, error) {
	return json.Marshal(r)
}

// PersistFollowUp writes a post-deterrence snapshot to disk using the
// same naming scheme as the primary snapshot path, for step 10c of the
// worker's response protocol.
func (p *Pipeline) PersistFollowUp(cam *store.Camera, data []byte) (string, error) {
	return p.persistSnapshot(cam, data)
}

// PrimaryFoeType returns the kind of the Foe with maximum confidence, or
// "" if none — spec.md §4.5.
func PrimaryFoeType(foes []store.Foe) store.FoeKind {
	if len(foes) == 0 {
		return ""
	}
	best := foes[0]
	for _, f := range foes[1:] {
		if f.Confidence > best.Confidence {
			best = f
		}
	}
	return best.Kind
}
