package diagnostics

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHealthStatus_UnhealthyWithRecentError(t *testing.T) {
	tr := NewTracker()
	tr.Record("cam-1", "HTTP 500", "boom")

	statuses := tr.HealthStatus()
	require.Len(t, statuses, 1)
	require.False(t, statuses[0].Healthy)
	require.Equal(t, 1, statuses[0].RecentCount)
}

func TestSuggestFixes_ThreeConsecutive500sSuggestsOffline(t *testing.T) {
	tr := NewTracker()
	for i := 0; i < 3; i++ {
		tr.Record("cam-x", "HTTP 500", "server error")
	}
	fixes := tr.SuggestFixes("cam-x")
	require.Contains(t, fixes, "camera appears offline (three consecutive HTTP 500 responses)")
}

func TestSuggestFixes_TimeoutSubstringSuggestsNetworkCheck(t *testing.T) {
	tr := NewTracker()
	tr.Record("cam-y", "snapshot_error", "read timeout after 30s")
	fixes := tr.SuggestFixes("cam-y")
	require.Contains(t, fixes, "check the network path to this camera (timeout observed)")
}

func TestSuggestFixes_401SuggestsReauth(t *testing.T) {
	tr := NewTracker()
	tr.Record("cam-z", "HTTP 401", "unauthorized")
	fixes := tr.SuggestFixes("cam-z")
	require.Contains(t, fixes, "re-authenticate this camera's integration credentials")
}

func TestRecord_BoundsRingToCapacity(t *testing.T) {
	tr := NewTracker()
	for i := 0; i < ringCapacity+20; i++ {
		tr.Record("cam-full", "noise", "x")
	}
	r := tr.rings["cam-full"]
	require.Len(t, r.snapshot(), ringCapacity)
}
