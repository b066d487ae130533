package detection

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// HashStore persists each camera's last_image_hash in Redis, grounded on
// the teacher's internal/ratelimit client usage, keyed lasthash:{camera_id}
// — a deliberate generalization beyond a single in-memory field so the
// change-gate survives process restarts and is shareable across workers.
type HashStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewHashStore(client *redis.Client) *HashStore {
	return &HashStore{client: client, ttl: 30 * 24 * time.Hour}
}

func (h *HashStore) key(cameraID string) string {
	return "lasthash:" + cameraID
}

// Get returns the remembered hash for a camera, or ("", false) if none.
func (h *HashStore) Get(ctx context.Context, cameraID string) (string, bool, error) {
	val, err := h.client.Get(ctx, h.key(cameraID)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Set remembers hash for cameraID with a long TTL (not permanent, so a
// camera retired for a month naturally re-baselines on its next snapshot).
func (h *HashStore) Set(ctx context.Context, cameraID, hash string) error {
	return h.client.Set(ctx, h.key(cameraID), hash, h.ttl).Err()
}
