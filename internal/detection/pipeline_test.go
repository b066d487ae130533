package detection

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/technosupport/foe-be-gone/internal/detector"
	"github.com/technosupport/foe-be-gone/internal/detector/fixturedetector"
	"github.com/technosupport/foe-be-gone/internal/settings"
	"github.com/technosupport/foe-be-gone/internal/store"
)

func solidImage(t *testing.T, c color.Gray) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.SetGray(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type fakeSettingsRepo struct {
	values map[string]string
}

func (f *fakeSettingsRepo) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok := f.values[key]
	return v, ok, nil
}
func (f *fakeSettingsRepo) Set(ctx context.Context, key, value string) error {
	f.values[key] = value
	return nil
}

type fakeDetectionRepo struct {
	created []*store.Detection
}

func (f *fakeDetectionRepo) Create(ctx context.Context, d *store.Detection) error {
	f.created = append(f.created, d)
	return nil
}

type fakeFoeRepo struct {
	created []store.Foe
}

func (f *fakeFoeRepo) CreateBatch(ctx context.Context, foes []store.Foe) error {
	f.created = append(f.created, foes...)
	return nil
}

func newTestPipeline(t *testing.T, det detector.Detector, captureLevel string) (*Pipeline, *fakeDetectionRepo, *fakeFoeRepo) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	hs := NewHashStore(client)

	repo := &fakeSettingsRepo{values: map[string]string{
		settings.KeySnapshotCaptureLevel: captureLevel,
		settings.KeyChangeThreshold:      "10",
	}}
	acc := settings.New(repo)

	detections := &fakeDetectionRepo{}
	foes := &fakeFoeRepo{}

	p := NewPipeline(afero.NewMemMapFs(), hs, det, acc, detections, foes, "/data/snapshots", zerolog.Nop())
	return p, detections, foes
}

func TestProcess_NoChangeReturnsNil(t *testing.T) {
	p, detections, _ := newTestPipeline(t, fixturedetector.AlwaysEmpty(), "2")
	cam := &store.Camera{ID: uuid.New()}

	img := solidImage(t, color.Gray{Y: 128})
	d1, err := p.Process(context.Background(), cam, img)
	require.NoError(t, err)
	require.NotNil(t, d1)

	d2, err := p.Process(context.Background(), cam, img)
	require.NoError(t, err)
	require.Nil(t, d2, "identical snapshot should no-change gate")
	require.Len(t, detections.created, 1)
}

func TestProcess_Level0SkipsEmptyScene(t *testing.T) {
	p, detections, _ := newTestPipeline(t, fixturedetector.AlwaysEmpty(), "0")
	cam := &store.Camera{ID: uuid.New()}

	img := solidImage(t, color.Gray{Y: 50})
	d, err := p.Process(context.Background(), cam, img)
	require.NoError(t, err)
	require.Nil(t, d)
	require.Empty(t, detections.created)
}

func TestProcess_PersistsDetectionAndFoesWhenFoeFound(t *testing.T) {
	fx := fixturedetector.New(detector.Result{
		FoesDetected: true,
		Foes: []detector.DetectedFoe{
			{Kind: "rats", Confidence: 0.9},
		},
	})
	p, detections, foes := newTestPipeline(t, fx, "0")
	cam := &store.Camera{ID: uuid.New()}

	img := solidImage(t, color.Gray{Y: 200})
	d, err := p.Process(context.Background(), cam, img)
	require.NoError(t, err)
	require.NotNil(t, d)
	require.Equal(t, store.DetectionProcessed, d.Status)
	require.Len(t, detections.created, 1)
	require.Len(t, foes.created, 1)
	require.Equal(t, store.FoeRats, foes.created[0].Kind)
}
