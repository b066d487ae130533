package deterrent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/technosupport/foe-be-gone/internal/store"
)

type fakeBestLookup struct {
	sound string
	ok    bool
}

func (f fakeBestLookup) BestSoundFor(ctx context.Context, pest store.FoeKind, hour *int) (string, bool, error) {
	return f.sound, f.ok, nil
}

type fakeLeastTestedLookup struct {
	sound string
	ok    bool
}

func (f fakeLeastTestedLookup) LeastTestedSound(ctx context.Context, pest store.FoeKind, candidates []string) (string, bool, error) {
	return f.sound, f.ok, nil
}

func TestSelect_NoCandidatesReturnsFalse(t *testing.T) {
	s := NewSelector(fakeBestLookup{}, fakeLeastTestedLookup{}, func(context.Context) float64 { return 0.5 }, func() int { return 12 })
	_, ok := s.Select(context.Background(), store.FoeRats, nil)
	require.False(t, ok)
}

func TestSelect_ExploitReturnsBestSoundWhenInCandidates(t *testing.T) {
	s := NewSelector(fakeBestLookup{sound: "rat_a.wav", ok: true}, fakeLeastTestedLookup{}, func(context.Context) float64 { return 1.0 }, func() int { return 12 })
	sound, ok := s.Select(context.Background(), store.FoeRats, []string{"rat_a.wav", "rat_b.wav"})
	require.True(t, ok)
	require.Equal(t, "rat_a.wav", sound)
}

func TestSelect_ExploreReturnsLeastTested(t *testing.T) {
	s := NewSelector(fakeBestLookup{}, fakeLeastTestedLookup{sound: "rat_b.wav", ok: true}, func(context.Context) float64 { return 0.0 }, func() int { return 12 })
	sound, ok := s.Select(context.Background(), store.FoeRats, []string{"rat_a.wav", "rat_b.wav"})
	require.True(t, ok)
	require.Equal(t, "rat_b.wav", sound)
}

func TestSelect_FallsBackToUniformRandomWhenBestNotInCandidates(t *testing.T) {
	s := NewSelector(fakeBestLookup{sound: "not_a_candidate.wav", ok: true}, fakeLeastTestedLookup{}, func(context.Context) float64 { return 1.0 }, func() int { return 12 })
	sound, ok := s.Select(context.Background(), store.FoeRats, []string{"rat_a.wav", "rat_b.wav"})
	require.True(t, ok)
	require.Contains(t, []string{"rat_a.wav", "rat_b.wav"}, sound)
}
