// Package diagnostics is the Camera Diagnostics component (C11): a bounded
// per-camera error ring buffer and health rollup, grounded on the teacher's
// sync.Map-based per-camera state in internal/nvr/monitor.go, simplified to
// the in-process-only ring buffer the spec calls for (no DB-backed health
// table — diagnostics are operational, not an audited record).
package diagnostics

import (
	"strings"
	"sync"
	"time"
)

const ringCapacity = 100

type Entry struct {
	Timestamp time.Time
	Kind      string
	Detail    string
}

type ring struct {
	mu      sync.Mutex
	entries []Entry // oldest first, bounded to ringCapacity
}

func (r *ring) push(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	if len(r.entries) > ringCapacity {
		r.entries = r.entries[len(r.entries)-ringCapacity:]
	}
}

func (r *ring) snapshot() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Tracker owns one ring buffer per camera.
type Tracker struct {
	mu    sync.RWMutex
	rings map[string]*ring
}

func NewTracker() *Tracker {
	return &Tracker{rings: make(map[string]*ring)}
}

// Record appends an error-kind entry for a camera.
func (t *Tracker) Record(cameraID, kind, detail string) {
	t.mu.Lock()
	r, ok := t.rings[cameraID]
	if !ok {
		r = &ring{}
		t.rings[cameraID] = r
	}
	t.mu.Unlock()

	r.push(Entry{Timestamp: time.Now(), Kind: kind, Detail: detail})
}

type HealthStatus struct {
	CameraID    string
	Healthy     bool
	RecentCount int
}

// HealthStatus rolls up per-camera recent-error counts over the last 5
// minutes; a camera is healthy iff that count is zero.
func (t *Tracker) HealthStatus() []HealthStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()

	cutoff := time.Now().Add(-5 * time.Minute)
	out := make([]HealthStatus, 0, len(t.rings))
	for camID, r := range t.rings {
		count := 0
		for _, e := range r.snapshot() {
			if e.Timestamp.After(cutoff) {
				count++
			}
		}
		out = append(out, HealthStatus{CameraID: camID, Healthy: count == 0, RecentCount: count})
	}
	return out
}

// SuggestFixes performs rule matching over the last ten records for camera:
//   - three-in-a-row of kind "HTTP 500" -> camera likely offline
//   - any record containing "timeout" -> advise checking the network path
//   - any record of kind "HTTP 401"/"HTTP 403" -> advise re-authentication
func (t *Tracker) SuggestFixes(cameraID string) []string {
	t.mu.RLock()
	r, ok := t.rings[cameraID]
	t.mu.RUnlock()
	if !ok {
		return nil
	}

	entries := r.snapshot()
	if len(entries) > 10 {
		entries = entries[len(entries)-10:]
	}

	var fixes []string
	seen := make(map[string]bool)
	add := func(msg string) {
		if !seen[msg] {
			seen[msg] = true
			fixes = append(fixes, msg)
		}
	}

	run500 := 0
	for _, e := range entries {
		if e.Kind == "HTTP 500" {
			run500++
			if run500 >= 3 {
				add("camera appears offline (three consecutive HTTP 500 responses)")
			}
		} else {
			run500 = 0
		}

		if strings.Contains(strings.ToLower(e.Detail), "timeout") || strings.Contains(strings.ToLower(e.Kind), "timeout") {
			add("check the network path to this camera (timeout observed)")
		}

		if e.Kind == "HTTP 401" || e.Kind == "HTTP 403" {
			add("re-authenticate this camera's integration credentials")
		}
	}

	return fixes
}
