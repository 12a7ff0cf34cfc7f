package vision

import (
	"sort"

	"gate-access-service/internal/domain/access"
)

const (
	DefaultConfidenceThreshold = 0.3
	DefaultIoUThreshold        = 0.5
)

// Reduce filters regions below confThreshold and applies greedy
// non-maximum suppression: regions are visited in descending confidence
// order and a region is dropped when its IoU with an already kept region
// exceeds iouThreshold.
func Reduce(regions []access.Region, confThreshold, iouThreshold float64) []access.Region {
	candidates := make([]access.Region, 0, len(regions))
	for _, r := range regions {
		if r.Confidence >= confThreshold {
			candidates = append(candidates, r)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})

	kept := make([]access.Region, 0, len(candidates))
	for _, c := range candidates {
		overlaps := false
		for _, k := range kept {
			if IoU(c.Box, k.Box) > iouThreshold {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, c)
		}
	}
	return kept
}

// IoU returns the intersection-over-union of two boxes, 0 when either is degenerate.
func IoU(a, b access.Box) float64 {
	ix1 := max(a.X1, b.X1)
	iy1 := max(a.Y1, b.Y1)
	ix2 := min(a.X2, b.X2)
	iy2 := min(a.Y2, b.Y2)

	iw := ix2 - ix1
	ih := iy2 - iy1
	if iw <= 0 || ih <= 0 {
		return 0
	}

	inter := iw * ih
	union := area(a) + area(b) - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

func area(b access.Box) float64 {
	w := b.X2 - b.X1
	h := b.Y2 - b.Y1
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}
