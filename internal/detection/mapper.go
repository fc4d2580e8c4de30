package detection

import (
	"fmt"

	apperrors "go-raster-detect/internal/errors"
	"go-raster-detect/internal/tiling"
	"go-raster-detect/pkg/models"
)

// ToGlobal translates a chip-local detection into the original image's
// coordinate frame by offsetting the box with the chip origin and
// clamping it to the image bounds. Detections without a box pass through
// unmodified. Pure per-detection transform, no cross-detection state.
func ToGlobal(det models.RawDetection, placement tiling.Placement, width, height int) models.RawDetection {
	if det.Box == nil {
		return det
	}
	x0 := float64(placement.X0)
	y0 := float64(placement.Y0)
	box := models.Box{
		X1: clamp(det.Box.X1+x0, 0, float64(width)),
		Y1: clamp(det.Box.Y1+y0, 0, float64(height)),
		X2: clamp(det.Box.X2+x0, 0, float64(width)),
		Y2: clamp(det.Box.Y2+y0, 0, float64(height)),
	}
	det.Box = &box
	return det
}

// MapToGlobal applies ToGlobal to every raw detection, resolving each
// chip index against the placement list. An out-of-range chip index is
// an internal invariant violation.
func MapToGlobal(dets []models.RawDetection, placements []tiling.Placement, width, height int) ([]models.RawDetection, error) {
	mapped := make([]models.RawDetection, 0, len(dets))
	for _, det := range dets {
		if det.ChipIndex < 0 || det.ChipIndex >= len(placements) {
			return nil, apperrors.NewAggregationError(
				fmt.Sprintf("detection references chip %d but only %d chips exist",
					det.ChipIndex, len(placements)), nil)
		}
		mapped = append(mapped, ToGlobal(det, placements[det.ChipIndex], width, height))
	}
	return mapped, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
