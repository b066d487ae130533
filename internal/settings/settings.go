// Package settings wraps the DB-backed Setting table (store.SettingsRepo)
// with a typed accessor: parse on read, clamp to declared ranges, cache for
// one tick. Grounded on the teacher's "Dynamic configuration structure"
// redesign note: the source Setting table is a stringly-typed kv; this is
// the explicit typed accessor called for instead.
package settings

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	KeyDetectionInterval    = "detection_interval"
	KeySnapshotCaptureLevel = "snapshot_capture_level"
	KeyDeterrentsEnabled    = "deterrents_enabled"
	KeyConfidenceThreshold  = "confidence_threshold"
	KeyMaxImageSizeMB       = "max_image_size_mb"
	KeySnapshotRetentionDays = "snapshot_retention_days"
	KeyTimezone             = "timezone"
	KeyUserLanguage         = "user_language"

	// Additive keys (SPEC_FULL §6 / §9 Open Questions).
	KeyDeterrentEpsilon     = "deterrent_epsilon"
	KeyChangeThreshold      = "change_threshold"
	KeySimilarityThreshold  = "similarity_threshold"
)

var defaults = map[string]string{
	KeyDetectionInterval:     "10",
	KeySnapshotCaptureLevel:  "1",
	KeyDeterrentsEnabled:     "true",
	KeyConfidenceThreshold:   "0.5",
	KeyMaxImageSizeMB:        "10",
	KeySnapshotRetentionDays: "7",
	KeyTimezone:              "UTC",
	KeyUserLanguage:          "en",
	KeyDeterrentEpsilon:      "0.5",
	KeyChangeThreshold:       "10",
	KeySimilarityThreshold:   "8",
}

// Repo is the persistence dependency, satisfied by store.SettingsRepo.
type Repo interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Accessor reads Settings with one-tick caching and range clamping.
type Accessor struct {
	repo  Repo
	cache *cache.Cache
	// ttl is "one tick" — the detection interval. Since the interval
	// itself is a setting, we default the cache TTL conservatively and
	// let callers invalidate explicitly after a tick if they change it.
	ttl time.Duration
}

func New(repo Repo) *Accessor {
	return &Accessor{
		repo:  repo,
		cache: cache.New(30*time.Second, time.Minute),
		ttl:   30 * time.Second,
	}
}

func (a *Accessor) raw(ctx context.Context, key string) string {
	if v, ok := a.cache.Get(key); ok {
		return v.(string)
	}
	val, found, err := a.repo.Get(ctx, key)
	if err != nil || !found {
		val = defaults[key]
	}
	a.cache.Set(key, val, a.ttl)
	return val
}

// Invalidate drops the cached value for key, forcing a re-read on next access.
func (a *Accessor) Invalidate(key string) { a.cache.Delete(key) }

func (a *Accessor) Int(ctx context.Context, key string, min, max int) int {
	n, err := strconv.Atoi(a.raw(ctx, key))
	if err != nil {
		n, _ = strconv.Atoi(defaults[key])
	}
	if n < min {
		n = min
	}
	if n > max {
		n = max
	}
	return n
}

func (a *Accessor) Float(ctx context.Context, key string, min, max float64) float64 {
	f, err := strconv.ParseFloat(a.raw(ctx, key), 64)
	if err != nil {
		f, _ = strconv.ParseFloat(defaults[key], 64)
	}
	if f < min {
		f = min
	}
	if f > max {
		f = max
	}
	return f
}

func (a *Accessor) Bool(ctx context.Context, key string) bool {
	v, err := strconv.ParseBool(a.raw(ctx, key))
	if err != nil {
		v, _ = strconv.ParseBool(defaults[key])
	}
	return v
}

func (a *Accessor) String(ctx context.Context, key string) string {
	return a.raw(ctx, key)
}

// ConfidenceThreshold applies the per-species override if set
// (`confidence_threshold.<kind>`), falling back to the flat setting.
func (a *Accessor) ConfidenceThreshold(ctx context.Context, kind string) float64 {
	overrideKey := KeyConfidenceThreshold + "." + strings.ToLower(kind)
	if val, found, err := a.repo.Get(ctx, overrideKey); err == nil && found {
		if f, err := strconv.ParseFloat(val, 64); err == nil && f >= 0.1 && f <= 1.0 {
			return f
		}
	}
	return a.Float(ctx, KeyConfidenceThreshold, 0.1, 1.0)
}

func (a *Accessor) DetectionInterval(ctx context.Context) time.Duration {
	return time.Duration(a.Int(ctx, KeyDetectionInterval, 1, 30)) * time.Second
}

func (a *Accessor) SnapshotCaptureLevel(ctx context.Context) int {
	return a.Int(ctx, KeySnapshotCaptureLevel, 0, 2)
}

func (a *Accessor) DeterrentEpsilon(ctx context.Context) float64 {
	return a.Float(ctx, KeyDeterrentEpsilon, 0, 1)
}

func (a *Accessor) ChangeThreshold(ctx context.Context) int {
	return a.Int(ctx, KeyChangeThreshold, 0, 64)
}

func (a *Accessor) SimilarityThreshold(ctx context.Context) int {
	return a.Int(ctx, KeySimilarityThreshold, 0, 64)
}

func (a *Accessor) SnapshotRetentionDays(ctx context.Context) int {
	return a.Int(ctx, KeySnapshotRetentionDays, 1, 365)
}
