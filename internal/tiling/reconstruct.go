package tiling

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/disintegration/imaging"

	apperrors "go-raster-detect/internal/errors"
)

// Reconstruct reassembles the original-size image by pasting every chip
// at its placement origin into a padded canvas and cropping away the
// right/bottom padding. Applied directly to Split's output it reproduces
// the normalized image exactly; it exists so callers can annotate the
// full-size image without holding on to the pre-tiling copy.
func Reconstruct(ts *TileSet) (*image.NRGBA, error) {
	if len(ts.Chips) != len(ts.Placements) {
		return nil, apperrors.NewAggregationError(
			fmt.Sprintf("chip/placement count mismatch (%d chips, %d placements)",
				len(ts.Chips), len(ts.Placements)), nil)
	}
	if want := ts.Grid.NX * ts.Grid.NY; len(ts.Chips) != want {
		return nil, apperrors.NewAggregationError(
			fmt.Sprintf("expected %d chips for a %dx%d grid, got %d",
				want, ts.Grid.NX, ts.Grid.NY, len(ts.Chips)), nil)
	}

	canvas := image.NewNRGBA(image.Rect(0, 0, ts.Grid.PaddedW, ts.Grid.PaddedH))
	for i, chip := range ts.Chips {
		p := ts.Placements[i]
		b := chip.Bounds()
		// Chip regions never overlap, every write lands in its own cell.
		draw.Draw(canvas, image.Rect(p.X0, p.Y0, p.X0+b.Dx(), p.Y0+b.Dy()), chip, b.Min, draw.Src)
	}

	return imaging.Crop(canvas, image.Rect(0, 0, ts.Grid.Width, ts.Grid.Height)), nil
}
