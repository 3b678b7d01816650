package region

import "sort"

const (
	// MinConfidence filters noise detections before clustering.
	MinConfidence = 0.3
	// OverlapThreshold is the overlap ratio above which two detections are
	// treated as the same span seen by different engines.
	OverlapThreshold = 0.7
)

// Fuse merges per-engine detection lists into one deduplicated list. Regions
// connected through pairwise overlap above the threshold form one cluster and
// only the highest-confidence member survives, so no two output regions
// overlap above the threshold. A single-engine input skips clustering
// entirely; empty input is a valid "nothing recognized" result.
func Fuse(lists ...[]TextRegion) []TextRegion {
	nonEmpty := 0
	total := 0
	for _, l := range lists {
		if len(l) > 0 {
			nonEmpty++
		}
		total += len(l)
	}
	if total == 0 {
		return []TextRegion{}
	}

	if nonEmpty == 1 {
		for _, l := range lists {
			if len(l) > 0 {
				return filterConfidence(l)
			}
		}
	}

	all := make([]TextRegion, 0, total)
	for _, l := range lists {
		all = append(all, filterConfidence(l)...)
	}
	if len(all) == 0 {
		return []TextRegion{}
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Box.Y1 != all[j].Box.Y1 {
			return all[i].Box.Y1 < all[j].Box.Y1
		}
		return all[i].Box.X1 < all[j].Box.X1
	})

	assigned := make([]bool, len(all))
	out := make([]TextRegion, 0, len(all))
	for i := range all {
		if assigned[i] {
			continue
		}
		assigned[i] = true
		// Grow the cluster to its connected component: a candidate joins when
		// it overlaps ANY member, not just the seed. Comparing against the
		// seed alone would let a region that fully overlaps an absorbed
		// member escape as its own output.
		cluster := []int{i}
		best := all[i]
		for k := 0; k < len(cluster); k++ {
			for j := i + 1; j < len(all); j++ {
				if assigned[j] {
					continue
				}
				if all[cluster[k]].Box.OverlapRatio(all[j].Box) > OverlapThreshold {
					assigned[j] = true
					cluster = append(cluster, j)
					if all[j].Confidence > best.Confidence {
						best = all[j]
					}
				}
			}
		}
		out = append(out, best)
	}
	return out
}

func filterConfidence(l []TextRegion) []TextRegion {
	out := make([]TextRegion, 0, len(l))
	for _, r := range l {
		if r.Confidence >= MinConfidence {
			out = append(out, r)
		}
	}
	return out
}
