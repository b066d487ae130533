package worker

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/technosupport/foe-be-gone/internal/eventjournal"
	"github.com/technosupport/foe-be-gone/internal/store"
)

type fakeIntegrations struct{}

func (fakeIntegrations) GetByID(ctx context.Context, id uuid.UUID) (*store.Integration, error) {
	return &store.Integration{ID: id, Kind: "dummy"}, nil
}

// runSubtaskSafely must recover a panic in the per-camera subtask (here,
// a nil *capture.Snapshotter field) rather than crash the whole worker.
func TestRunSubtaskSafely_RecoversPanic(t *testing.T) {
	w := &Worker{
		integrations: fakeIntegrations{},
		log:          zerolog.Nop(),
	}
	cam := &store.Camera{ID: uuid.New(), IntegrationID: uuid.New()}

	assert.NotPanics(t, func() {
		w.runSubtaskSafely(context.Background(), cam)
	})
}

type fakePublisher struct {
	events []any
}

func (f *fakePublisher) Publish(event any) error {
	f.events = append(f.events, event)
	return nil
}

func TestPublishDetection_NilEventsIsNoOp(t *testing.T) {
	w := &Worker{log: zerolog.Nop()}
	d := &store.Detection{ID: uuid.New(), CameraID: uuid.New(), Status: store.DetectionProcessed}

	assert.NotPanics(t, func() {
		w.publishDetection(d, nil)
	})
}

func TestPublishDetection_PublishesWithFoeKinds(t *testing.T) {
	pub := &fakePublisher{}
	w := &Worker{events: pub, log: zerolog.Nop()}
	d := &store.Detection{ID: uuid.New(), CameraID: uuid.New(), Status: store.DetectionProcessed, CreatedAt: time.Now()}
	foes := []store.Foe{{Kind: store.FoeRats}, {Kind: store.FoeCrows}}

	w.publishDetection(d, foes)

	require.Len(t, pub.events, 1)
}

type fakeJournal struct {
	written []eventjournal.Event
}

func (f *fakeJournal) WriteEvent(ctx context.Context, evt eventjournal.Event) error {
	f.written = append(f.written, evt)
	return nil
}

func TestJournalDetection_NilJournalIsNoOp(t *testing.T) {
	w := &Worker{log: zerolog.Nop()}
	d := &store.Detection{ID: uuid.New(), CameraID: uuid.New(), Status: store.DetectionProcessed}

	assert.NotPanics(t, func() {
		w.journalDetection(context.Background(), d)
	})
}

func TestJournalDetection_WritesDetectionKind(t *testing.T) {
	fj := &fakeJournal{}
	w := &Worker{journal: fj, log: zerolog.Nop()}
	d := &store.Detection{ID: uuid.New(), CameraID: uuid.New(), Status: store.DetectionDeterred, CreatedAt: time.Now()}

	w.journalDetection(context.Background(), d)

	require.Len(t, fj.written, 1)
	assert.Equal(t, eventjournal.KindDetection, fj.written[0].Kind)
	assert.Equal(t, string(store.DetectionDeterred), fj.written[0].Result)
	assert.Equal(t, &d.ID, fj.written[0].DetectionID)
}

func TestJournalDeterrentAction_RecordsSuccessAndFailure(t *testing.T) {
	fj := &fakeJournal{}
	w := &Worker{journal: fj, log: zerolog.Nop()}
	d := &store.Detection{ID: uuid.New(), CameraID: uuid.New()}

	w.journalDeterrentAction(context.Background(), d, &store.DeterrentAction{Success: true, TriggeredAt: time.Now()})
	w.journalDeterrentAction(context.Background(), d, &store.DeterrentAction{Success: false, TriggeredAt: time.Now()})

	require.Len(t, fj.written, 2)
	assert.Equal(t, "played", fj.written[0].Result)
	assert.Equal(t, "failed", fj.written[1].Result)
}
