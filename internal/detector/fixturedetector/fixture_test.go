package fixturedetector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/technosupport/foe-be-gone/internal/detector"
)

func TestDetect_ReplaysQueueThenRepeatsLast(t *testing.T) {
	d := New(
		detector.Result{FoesDetected: true, Foes: []detector.DetectedFoe{{Kind: "rats", Confidence: 0.9}}},
		detector.Result{FoesDetected: false},
	)

	r1, err := d.Detect(context.Background(), nil)
	require.NoError(t, err)
	require.True(t, r1.FoesDetected)

	r2, err := d.Detect(context.Background(), nil)
	require.NoError(t, err)
	require.False(t, r2.FoesDetected)

	r3, err := d.Detect(context.Background(), nil)
	require.NoError(t, err)
	require.False(t, r3.FoesDetected, "should repeat last queued result once drained")
}

func TestAlwaysEmpty_NeverDetectsFoes(t *testing.T) {
	d := AlwaysEmpty()
	for i := 0; i < 3; i++ {
		r, err := d.Detect(context.Background(), []byte("frame"))
		require.NoError(t, err)
		require.False(t, r.FoesDetected)
	}
}
