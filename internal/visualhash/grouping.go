package visualhash

// GroupHashes partitions hash indices into buckets such that every member is
// similar (within threshold) to at least one other member of its bucket.
// Buckets are built by exact-hash bucketing, then merged with other buckets
// whose representative hash is similar, in first-seen-wins order — NOT a
// transitive closure (spec.md §9 design note, preserved deliberately: the
// source's A~B, B~C does not imply C joins A's group, because clusters can
// drift gradually past the threshold).
//
// maxGroupSize bounds how large a merged bucket may grow; a candidate merge
// that would exceed it is skipped, leaving the donor bucket standing alone.
func GroupHashes(hashes []string, threshold, maxGroupSize int) [][]int {
	// Exact-hash bucketing, preserving first-seen order of distinct hashes.
	order := make([]string, 0, len(hashes))
	buckets := make(map[string][]int)
	for i, h := range hashes {
		if _, ok := buckets[h]; !ok {
			order = append(order, h)
		}
		buckets[h] = append(buckets[h], i)
	}

	merged := make([]bool, len(order))
	var groups [][]int

	for i, h := range order {
		if merged[i] {
			continue
		}
		group := append([]int{}, buckets[h]...)
		merged[i] = true

		for j := i + 1; j < len(order); j++ {
			if merged[j] {
				continue
			}
			other := order[j]
			if !Similar(h, other, threshold) {
				continue
			}
			if len(group)+len(buckets[other]) > maxGroupSize {
				continue
			}
			group = append(group, buckets[other]...)
			merged[j] = true
		}

		groups = append(groups, group)
	}

	return groups
}
