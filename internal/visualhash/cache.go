package visualhash

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// ThumbnailCache memoizes computed hashes by content hash, avoiding
// recomputation for bytes already seen (e.g. reprocessed snapshots),
// before the caller writes the thumbnail through to <cache_dir>/thumbnails/.
type ThumbnailCache struct {
	cache *lru.Cache[string, string]
}

func NewThumbnailCache(maxEntries int) *ThumbnailCache {
	c, _ := lru.New[string, string](maxEntries)
	return &ThumbnailCache{cache: c}
}

func (t *ThumbnailCache) Get(contentMD5Hex string) (string, bool) {
	return t.cache.Get(contentMD5Hex)
}

func (t *ThumbnailCache) Put(contentMD5Hex, hash string) {
	t.cache.Add(contentMD5Hex, hash)
}
