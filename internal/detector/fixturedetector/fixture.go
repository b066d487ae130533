// Package fixturedetector is a scripted detector.Detector used by tests
// and local development: it returns a queue of canned results, looping
// the last one once the queue is drained. Grounded on
// original_source's dummy_surveillance.py pairing (a fake camera feeds
// a fake detector) since neither of the pack's real detector backends
// (OpenAI vision, YOLO) belong in this spec's scope.
package fixturedetector

import (
	"context"
	"sync"

	"github.com/technosupport/foe-be-gone/internal/detector"
)

type Detector struct {
	mu     sync.Mutex
	queue  []detector.Result
	cursor int
}

// New builds a fixture detector that replays results in order, then
// repeats the final entry for every subsequent call.
func New(results ...detector.Result) *Detector {
	return &Detector{queue: results}
}

// AlwaysEmpty returns a fixture detector that never detects a foe.
func AlwaysEmpty() *Detector {
	return New(detector.Result{FoesDetected: false, SceneDesc: "empty scene"})
}

func (d *Detector) Detect(ctx context.Context, imageData []byte) (detector.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.queue) == 0 {
		return detector.Result{FoesDetected: false}, nil
	}
	idx := d.cursor
	if idx >= len(d.queue) {
		idx = len(d.queue) - 1
	} else {
		d.cursor++
	}
	return d.queue[idx], nil
}
