package tiling

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/disintegration/imaging"

	apperrors "go-raster-detect/internal/errors"
)

// Grid describes how an image was split into equal-size chips.
type Grid struct {
	NX      int `json:"nx"`
	NY      int `json:"ny"`
	TileW   int `json:"tile_w"`
	TileH   int `json:"tile_h"`
	PaddedW int `json:"padded_w"`
	PaddedH int `json:"padded_h"`
	Width   int `json:"width"`
	Height  int `json:"height"`
}

// Placement is a chip's bounding rectangle in original image pixel
// coordinates, clipped to the image bounds. Only chips in the last grid
// row or column can be smaller than the tile size.
type Placement struct {
	X0 int `json:"x0"`
	Y0 int `json:"y0"`
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
}

// TileSet is the output of Split: equal-size chips in row-major order
// and the placement of each in the original image.
type TileSet struct {
	Grid       Grid
	Chips      []*image.NRGBA
	Placements []Placement
}

// Split decomposes a normalized image into a grid of equal-size chips no
// larger than maxSideSize per side. The image is padded with zeros on
// the right and bottom so every chip has the full tile shape; padding is
// never added on the top or left, which keeps the inverse mapping in
// Reconstruct trivial. Chips are emitted row by row (iy outer, ix
// inner); the resulting slice index is the chip index that detections
// are keyed on.
func Split(img *image.NRGBA, maxSideSize int) (*TileSet, error) {
	if maxSideSize <= 0 {
		return nil, apperrors.NewInvalidArgumentError(
			fmt.Sprintf("max side size must be positive (got %d)", maxSideSize), nil).
			WithStage(apperrors.StageTile)
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return nil, apperrors.NewInvalidArgumentError("cannot tile an empty image", nil).
			WithStage(apperrors.StageTile)
	}

	grid := computeGrid(w, h, maxSideSize)

	padded := image.NewNRGBA(image.Rect(0, 0, grid.PaddedW, grid.PaddedH))
	draw.Draw(padded, image.Rect(0, 0, w, h), img, bounds.Min, draw.Src)

	chips := make([]*image.NRGBA, 0, grid.NX*grid.NY)
	placements := make([]Placement, 0, grid.NX*grid.NY)
	for iy := 0; iy < grid.NY; iy++ {
		for ix := 0; ix < grid.NX; ix++ {
			x0 := ix * grid.TileW
			y0 := iy * grid.TileH
			chip := imaging.Crop(padded, image.Rect(x0, y0, x0+grid.TileW, y0+grid.TileH))
			chips = append(chips, chip)
			placements = append(placements, Placement{
				X0: x0,
				Y0: y0,
				X1: min(x0+grid.TileW, w),
				Y1: min(y0+grid.TileH, h),
			})
		}
	}

	return &TileSet{Grid: grid, Chips: chips, Placements: placements}, nil
}

func computeGrid(w, h, maxSideSize int) Grid {
	nx := 1
	if w > maxSideSize {
		nx = ceilDiv(w, maxSideSize)
	}
	ny := 1
	if h > maxSideSize {
		ny = ceilDiv(h, maxSideSize)
	}

	tileW := min(ceilDiv(w, nx), maxSideSize)
	tileH := min(ceilDiv(h, ny), maxSideSize)

	return Grid{
		NX:      nx,
		NY:      ny,
		TileW:   tileW,
		TileH:   tileH,
		PaddedW: tileW * nx,
		PaddedH: tileH * ny,
		Width:   w,
		Height:  h,
	}
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
