package raster

import (
	"fmt"
	"image"
	"math"

	apperrors "go-raster-detect/internal/errors"
)

// Normalize converts a raster of arbitrary band count and bit depth into
// an 8-bit RGB image. Single-band rasters are rescaled and replicated to
// gray RGB; three- and four-band rasters use the first three bands, each
// rescaled independently because multi-band sources (16-bit reflectance
// bands in particular) carry different dynamic ranges per band. Any other
// band count is rejected.
func Normalize(r *Raster) (*image.NRGBA, error) {
	if r == nil || r.Height <= 0 || r.Width <= 0 {
		return nil, apperrors.NewInvalidArgumentError("empty raster", nil)
	}

	switch r.Bands {
	case 1:
		mn, mx := channelRange(r, 0)
		out := image.NewNRGBA(image.Rect(0, 0, r.Width, r.Height))
		for y := 0; y < r.Height; y++ {
			for x := 0; x < r.Width; x++ {
				v := rescale(r.At(y, x, 0), mn, mx)
				i := out.PixOffset(x, y)
				out.Pix[i] = v
				out.Pix[i+1] = v
				out.Pix[i+2] = v
				out.Pix[i+3] = 0xff
			}
		}
		return out, nil
	case 3, 4:
		// The fourth band (alpha or auxiliary) is dropped entirely.
		var mins, maxs [3]float64
		for c := 0; c < 3; c++ {
			mins[c], maxs[c] = channelRange(r, c)
		}
		out := image.NewNRGBA(image.Rect(0, 0, r.Width, r.Height))
		for y := 0; y < r.Height; y++ {
			for x := 0; x < r.Width; x++ {
				i := out.PixOffset(x, y)
				for c := 0; c < 3; c++ {
					out.Pix[i+c] = rescale(r.At(y, x, c), mins[c], maxs[c])
				}
				out.Pix[i+3] = 0xff
			}
		}
		return out, nil
	default:
		return nil, apperrors.NewUnsupportedRasterError(
			fmt.Sprintf("unsupported band count %d (want 1, 3 or 4)", r.Bands), nil)
	}
}

// channelRange returns the min and max over the channel's finite samples.
// NaN and infinite values are excluded. A channel with no finite samples
// reports an empty range and rescales to zero.
func channelRange(r *Raster, band int) (float64, float64) {
	mn := math.Inf(1)
	mx := math.Inf(-1)
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			v := r.At(y, x, band)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			if v < mn {
				mn = v
			}
			if v > mx {
				mx = v
			}
		}
	}
	return mn, mx
}

// rescale maps v linearly from [mn,mx] to [0,255]. A constant channel
// (mx == mn) rescales to zero, which also covers the all-NaN case.
func rescale(v, mn, mx float64) uint8 {
	if !(mx > mn) {
		return 0
	}
	if math.IsNaN(v) {
		return 0
	}
	scaled := (v - mn) / (mx - mn) * 255.0
	if scaled < 0 {
		scaled = 0
	} else if scaled > 255 {
		scaled = 255
	}
	return uint8(math.Round(scaled))
}
