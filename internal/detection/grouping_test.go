package detection

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/technosupport/foe-be-gone/internal/store"
)

func hashPtr(h string) *string { return &h }

func TestGroupDetections_OrdersGroupsByPrimaryTimestampDesc(t *testing.T) {
	older := &store.Detection{ID: uuid.New(), CreatedAt: time.Now().Add(-time.Hour), VisualHash: hashPtr("ff00ff00ff00ff00")}
	newer := &store.Detection{ID: uuid.New(), CreatedAt: time.Now(), VisualHash: hashPtr("0000000000000000")}

	groups := GroupDetections([]*store.Detection{older, newer}, map[string][]store.Foe{}, 8, 5)

	require.Len(t, groups, 2)
	require.Equal(t, newer.ID, groups[0].Primary.ID)
	require.Equal(t, older.ID, groups[1].Primary.ID)
}

func TestGroupDetections_UnhashedFormSingletons(t *testing.T) {
	d1 := &store.Detection{ID: uuid.New(), CreatedAt: time.Now()}
	d2 := &store.Detection{ID: uuid.New(), CreatedAt: time.Now().Add(-time.Minute)}

	groups := GroupDetections([]*store.Detection{d1, d2}, map[string][]store.Foe{}, 8, 5)
	require.Len(t, groups, 2)
	for _, g := range groups {
		require.Equal(t, 1, g.Size)
	}
}

func TestGroupDetections_PrimaryChosenByHighestScore(t *testing.T) {
	d1 := &store.Detection{ID: uuid.New(), CreatedAt: time.Now().Add(-time.Minute), VisualHash: hashPtr("0000000000000000")}
	d2 := &store.Detection{ID: uuid.New(), CreatedAt: time.Now(), VisualHash: hashPtr("0000000000000000")}

	foes := map[string][]store.Foe{
		d1.ID.String(): {{Confidence: 0.95}},
		d2.ID.String(): {{Confidence: 0.2}},
	}

	groups := GroupDetections([]*store.Detection{d1, d2}, foes, 8, 5)
	require.Len(t, groups, 1)
	require.Equal(t, d1.ID, groups[0].Primary.ID, "higher-confidence foe should win primary despite older timestamp")
}
