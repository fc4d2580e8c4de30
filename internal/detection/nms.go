package detection

import (
	"sort"

	flatbush "github.com/bmharper/flatbush-go"

	"go-raster-detect/pkg/models"
)

// DefaultIoUThreshold is used when callers pass no explicit threshold.
const DefaultIoUThreshold = 0.5

// IoU returns the intersection-over-union of two axis-aligned boxes.
// Pairs with a zero-area union yield 0.
func IoU(a, b models.Box) float64 {
	ix1 := max(a.X1, b.X1)
	iy1 := max(a.Y1, b.Y1)
	ix2 := min(a.X2, b.X2)
	iy2 := min(a.Y2, b.Y2)

	inter := max(0, ix2-ix1) * max(0, iy2-iy1)
	union := a.Area() + b.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// SuppressByClass deduplicates detections label by label with greedy
// non-maximum suppression: candidates are visited by descending
// confidence, and every still-alive lower-ranked box of the same label
// whose IoU with the kept box exceeds the threshold is suppressed.
// Ranking ties on confidence break to the larger box, then to the lower
// input index, so the output is deterministic regardless of sort
// internals. Suppression is tracked in an alive array over stable
// indices; nothing is mutated mid-scan.
//
// Detections without a box are not subject to suppression and pass
// through untouched. Output order follows input order.
func SuppressByClass(dets []models.RawDetection, iouThreshold float64) []models.FinalDetection {
	if iouThreshold <= 0 || iouThreshold >= 1 {
		iouThreshold = DefaultIoUThreshold
	}

	// Group boxed detections per label; each label is suppressed
	// independently.
	byLabel := make(map[string][]int)
	for i, d := range dets {
		if d.Box != nil {
			byLabel[d.Label] = append(byLabel[d.Label], i)
		}
	}

	kept := make([]bool, len(dets))
	for _, indices := range byLabel {
		for _, i := range suppress(dets, indices, iouThreshold) {
			kept[i] = true
		}
	}

	out := make([]models.FinalDetection, 0, len(dets))
	for i, d := range dets {
		if d.Box == nil || kept[i] {
			out = append(out, models.FinalDetection{
				Label:      d.Label,
				Confidence: d.Confidence,
				Box:        d.Box,
			})
		}
	}
	return out
}

// suppress runs greedy NMS over one label's candidate indices and
// returns the surviving ones. A spatial index answers the "which boxes
// overlap this one at all" query so dense scenes stay cheap.
func suppress(dets []models.RawDetection, indices []int, iouThreshold float64) []int {
	if len(indices) == 1 {
		return indices
	}

	order := make([]int, len(indices))
	copy(order, indices)
	sort.SliceStable(order, func(a, b int) bool {
		da, db := dets[order[a]], dets[order[b]]
		if da.Confidence != db.Confidence {
			return da.Confidence > db.Confidence
		}
		if aa, ab := da.Box.Area(), db.Box.Area(); aa != ab {
			return aa > ab
		}
		return order[a] < order[b]
	})

	fb := flatbush.NewFlatbush64()
	fb.Reserve(len(order))
	for _, i := range order {
		b := dets[i].Box
		fb.Add(b.X1, b.Y1, b.X2, b.Y2)
	}
	fb.Finish()

	alive := make([]bool, len(order))
	for i := range alive {
		alive[i] = true
	}

	var keep []int
	var nearby []int
	for rank, i := range order {
		if !alive[rank] {
			continue
		}
		keep = append(keep, i)

		box := dets[i].Box
		nearby = fb.SearchFast(box.X1, box.Y1, box.X2, box.Y2, nearby)
		for _, other := range nearby {
			if other <= rank || !alive[other] {
				continue
			}
			if IoU(*box, *dets[order[other]].Box) > iouThreshold {
				alive[other] = false
			}
		}
	}
	return keep
}
