package raster

import (
	"fmt"
	"image"

	apperrors "go-raster-detect/internal/errors"
)

// Raster is a decoded raster as float64 samples in channel-last order
// (row, column, band). Bit depth is preserved from the source; the
// normalizer rescales to 8-bit.
type Raster struct {
	Height int
	Width  int
	Bands  int
	// Samples has Height*Width*Bands entries, band fastest.
	Samples []float64
}

// New allocates a zero-filled raster.
func New(height, width, bands int) *Raster {
	return &Raster{
		Height:  height,
		Width:   width,
		Bands:   bands,
		Samples: make([]float64, height*width*bands),
	}
}

// At returns the sample at row y, column x, band b.
func (r *Raster) At(y, x, b int) float64 {
	return r.Samples[(y*r.Width+x)*r.Bands+b]
}

// Set stores the sample at row y, column x, band b.
func (r *Raster) Set(y, x, b int, v float64) {
	r.Samples[(y*r.Width+x)*r.Bands+b] = v
}

// FromSamples builds a Raster from a flat sample array with the declared
// axis lengths. Geospatial readers commonly emit channel-first (band,
// row, column) arrays; when the trailing axis is not a supported band
// count ({1,3,4}) but the leading one is a plausible one, the data is
// transposed to channel-last.
func FromSamples(samples []float64, d0, d1, d2 int) (*Raster, error) {
	if d0 <= 0 || d1 <= 0 || d2 <= 0 {
		return nil, apperrors.NewInvalidArgumentError(
			fmt.Sprintf("raster axes must be positive (got %dx%dx%d)", d0, d1, d2), nil)
	}
	if len(samples) != d0*d1*d2 {
		return nil, apperrors.NewInvalidArgumentError(
			fmt.Sprintf("sample count %d does not match %dx%dx%d", len(samples), d0, d1, d2), nil)
	}

	if !supportedBandCount(d2) && plausibleBandCount(d0) {
		// Channel-first layout: transpose (band, row, col) -> (row, col, band).
		bands, height, width := d0, d1, d2
		r := New(height, width, bands)
		for b := 0; b < bands; b++ {
			plane := samples[b*height*width:]
			for y := 0; y < height; y++ {
				row := plane[y*width:]
				for x := 0; x < width; x++ {
					r.Set(y, x, b, row[x])
				}
			}
		}
		return r, nil
	}

	r := &Raster{Height: d0, Width: d1, Bands: d2}
	r.Samples = make([]float64, len(samples))
	copy(r.Samples, samples)
	return r, nil
}

// supportedBandCount reports whether n is a band count the normalizer
// accepts. A trailing axis outside this set cannot be a valid
// channel-last layout, so it marks the array as channel-first.
func supportedBandCount(n int) bool {
	return n == 1 || n == 3 || n == 4
}

// plausibleBandCount is the looser leading-axis check: 2-band sources
// exist (they are rejected later by the normalizer, not here).
func plausibleBandCount(n int) bool {
	return n >= 1 && n <= 4
}

// FromImage converts a decoded image into a Raster. Gray sources become
// single-band, paletted/alpha sources keep four bands (the normalizer
// drops the fourth), everything else is three-band RGB. 16-bit sample
// depth is preserved.
func FromImage(img image.Image) *Raster {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	switch src := img.(type) {
	case *image.Gray:
		r := New(h, w, 1)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r.Set(y, x, 0, float64(src.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y))
			}
		}
		return r
	case *image.Gray16:
		r := New(h, w, 1)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r.Set(y, x, 0, float64(src.Gray16At(bounds.Min.X+x, bounds.Min.Y+y).Y))
			}
		}
		return r
	case *image.NRGBA64, *image.RGBA64:
		r := New(h, w, 4)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				cr, cg, cb, ca := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
				r.Set(y, x, 0, float64(cr))
				r.Set(y, x, 1, float64(cg))
				r.Set(y, x, 2, float64(cb))
				r.Set(y, x, 3, float64(ca))
			}
		}
		return r
	case *image.NRGBA, *image.RGBA, *image.Paletted:
		r := New(h, w, 4)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				cr, cg, cb, ca := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
				r.Set(y, x, 0, float64(cr>>8))
				r.Set(y, x, 1, float64(cg>>8))
				r.Set(y, x, 2, float64(cb>>8))
				r.Set(y, x, 3, float64(ca>>8))
			}
		}
		return r
	default:
		r := New(h, w, 3)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				cr, cg, cb, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
				r.Set(y, x, 0, float64(cr>>8))
				r.Set(y, x, 1, float64(cg>>8))
				r.Set(y, x, 2, float64(cb>>8))
			}
		}
		return r
	}
}
