package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	values map[string]string
	calls  int
}

func (f *fakeRepo) Get(ctx context.Context, key string) (string, bool, error) {
	f.calls++
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *fakeRepo) Set(ctx context.Context, key, value string) error {
	f.values[key] = value
	return nil
}

func TestInt_ClampsToRange(t *testing.T) {
	repo := &fakeRepo{values: map[string]string{KeyDetectionInterval: "99"}}
	a := New(repo)

	got := a.Int(context.Background(), KeyDetectionInterval, 1, 30)
	require.Equal(t, 30, got)
}

func TestInt_FallsBackToDefaultOnMissing(t *testing.T) {
	repo := &fakeRepo{values: map[string]string{}}
	a := New(repo)

	got := a.Int(context.Background(), KeySnapshotCaptureLevel, 0, 2)
	require.Equal(t, 1, got)
}

func TestRaw_CachesWithinTTL(t *testing.T) {
	repo := &fakeRepo{values: map[string]string{KeyUserLanguage: "fr"}}
	a := New(repo)

	require.Equal(t, "fr", a.String(context.Background(), KeyUserLanguage))
	require.Equal(t, "fr", a.String(context.Background(), KeyUserLanguage))
	require.Equal(t, 1, repo.calls)

	a.Invalidate(KeyUserLanguage)
	require.Equal(t, "fr", a.String(context.Background(), KeyUserLanguage))
	require.Equal(t, 2, repo.calls)
}

func TestConfidenceThreshold_PerSpeciesOverride(t *testing.T) {
	repo := &fakeRepo{values: map[string]string{
		"confidence_threshold.crows": "0.8",
	}}
	a := New(repo)

	require.Equal(t, 0.8, a.ConfidenceThreshold(context.Background(), "crows"))
	require.Equal(t, 0.5, a.ConfidenceThreshold(context.Background(), "rats"))
}
