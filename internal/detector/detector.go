// Package detector defines the foe detection contract (a scripted local
// stub lives in the fixturedetector subpackage), grounded on original_source's
// app/services/ai_detector.py DetectionResult/DetectedFoe schema. The
// cloud/vision backends themselves are out of scope (spec.md §8
// Non-goals); the core only knows this interface.
package detector

import (
	"context"

	"github.com/technosupport/foe-be-gone/internal/store"
)

// DetectedFoe is one bounding-box-level observation from a detector call.
type DetectedFoe struct {
	Kind        string // raw string, normalized downstream via store.NormalizeFoeKind
	Confidence  float64
	BBox        store.BBox
	Description string
}

// Result is the structured output of a single detect call.
type Result struct {
	FoesDetected    bool
	Foes            []DetectedFoe
	SceneDesc       string
	CostUSD         float64 // 0 when the backend does not report cost
	Failed          bool
	FailureDetail   string
}

// Detector is the pluggable foe-detection contract. Implementations may
// be local (always-empty, fixture-driven) or remote (vision API); the
// pipeline only depends on this interface.
type Detector interface {
	Detect(ctx context.Context, imageData []byte) (Result, error)
}
