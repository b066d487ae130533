package detection

import (
	"sort"
	"time"

	"github.com/technosupport/foe-be-gone/internal/store"
	"github.com/technosupport/foe-be-gone/internal/visualhash"
)

// DetectionGroup is a cluster of Detections sharing a similar visual hash.
type DetectionGroup struct {
	Primary          *store.Detection
	Members          []*store.Detection // sorted desc by CreatedAt
	Size             int
	RepresentativeHash string
}

// GroupDetections implements C10: partition into hashed/unhashed, bucket
// and merge similar hashes non-transitively (visualhash.GroupHashes), then
// pick a primary per group by score and order groups by primary timestamp
// descending.
func GroupDetections(detections []*store.Detection, foesByDetection map[string][]store.Foe, threshold, maxGroupSize int) []DetectionGroup {
	var hashed []*store.Detection
	var unhashed []*store.Detection
	for _, d := range detections {
		if d.VisualHash != nil && *d.VisualHash != "" {
			hashed = append(hashed, d)
		} else {
			unhashed = append(unhashed, d)
		}
	}

	hashes := make([]string, len(hashed))
	for i, d := range hashed {
		hashes[i] = *d.VisualHash
	}
	buckets := visualhash.GroupHashes(hashes, threshold, maxGroupSize)

	groups := make([]DetectionGroup, 0, len(buckets)+len(unhashed))
	for _, bucket := range buckets {
		members := make([]*store.Detection, len(bucket))
		for i, idx := range bucket {
			members[i] = hashed[idx]
		}
		groups = append(groups, buildGroup(members, foesByDetection))
	}
	for _, d := range unhashed {
		groups = append(groups, buildGroup([]*store.Detection{d}, foesByDetection))
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Primary.CreatedAt.After(groups[j].Primary.CreatedAt)
	})

	return groups
}

func buildGroup(members []*store.Detection, foesByDetection map[string][]store.Foe) DetectionGroup {
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].CreatedAt.After(members[j].CreatedAt)
	})

	primary := members[0]
	bestScore := detectionScore(primary, foesByDetection[primary.ID.String()])
	for _, m := range members[1:] {
		s := detectionScore(m, foesByDetection[m.ID.String()])
		if s > bestScore {
			bestScore = s
			primary = m
		}
	}

	hash := ""
	if primary.VisualHash != nil {
		hash = *primary.VisualHash
	}

	return DetectionGroup{
		Primary:            primary,
		Members:            members,
		Size:               len(members),
		RepresentativeHash: hash,
	}
}

// detectionScore = 100*max(confidence) + 10*|foes| + timestamp/1e6,
// spec.md §4.10 — ties broken by the timestamp term since it is additive.
func detectionScore(d *store.Detection, foes []store.Foe) float64 {
	var maxConf float64
	for _, f := range foes {
		if f.Confidence > maxConf {
			maxConf = f.Confidence
		}
	}
	ts := float64(d.CreatedAt.UnixNano()) / float64(time.Second) / 1e6
	return 100*maxConf + 10*float64(len(foes)) + ts
}
