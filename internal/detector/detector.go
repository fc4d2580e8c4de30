package detector

import (
	"context"
	"image"

	"go-raster-detect/pkg/models"
)

// Detector is the black-box contract for per-chip object detection. The
// chip is an 8-bit RGB image; implementations return every detection at
// or above the confidence threshold, with boxes in chip-local pixel
// coordinates. Detections may omit the box when the backing model
// produces no localization.
//
// The pipeline calls Detect concurrently from its worker pool, so
// implementations must be safe for concurrent use.
type Detector interface {
	Detect(ctx context.Context, chip image.Image, confidenceThreshold float64) ([]models.RawDetection, error)
}
