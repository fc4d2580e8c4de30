package raster

import (
	"math"
	"testing"

	apperrors "go-raster-detect/internal/errors"
)

func constantRaster(h, w, bands int, value float64) *Raster {
	r := New(h, w, bands)
	for i := range r.Samples {
		r.Samples[i] = value
	}
	return r
}

func TestNormalize_ConstantSingleBand(t *testing.T) {
	// A constant channel has max == min and must rescale to all-zero
	// without dividing by zero.
	r := constantRaster(4, 5, 1, 42)

	img, err := Normalize(r)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	for y := 0; y < 4; y++ {
		for x := 0; x < 5; x++ {
			i := img.PixOffset(x, y)
			if img.Pix[i] != 0 || img.Pix[i+1] != 0 || img.Pix[i+2] != 0 {
				t.Fatalf("pixel (%d,%d) = %v, want black", x, y, img.Pix[i:i+3])
			}
			if img.Pix[i+3] != 0xff {
				t.Fatalf("pixel (%d,%d) alpha = %d, want opaque", x, y, img.Pix[i+3])
			}
		}
	}
}

func TestNormalize_SingleBandGrayRGB(t *testing.T) {
	r := New(1, 3, 1)
	r.Set(0, 0, 0, 100)
	r.Set(0, 1, 0, 150)
	r.Set(0, 2, 0, 200)

	img, err := Normalize(r)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	want := []uint8{0, 128, 255}
	for x, w := range want {
		i := img.PixOffset(x, 0)
		if img.Pix[i] != w || img.Pix[i+1] != w || img.Pix[i+2] != w {
			t.Errorf("pixel %d = %v, want gray %d replicated", x, img.Pix[i:i+3], w)
		}
	}
}

func TestNormalize_PerChannelIndependentRescale(t *testing.T) {
	// Channels with wildly different dynamic ranges (16-bit reflectance
	// style) must each use their own min/max.
	r := New(1, 2, 3)
	// channel 0: range 0..65535
	r.Set(0, 0, 0, 0)
	r.Set(0, 1, 0, 65535)
	// channel 1: range 10..20
	r.Set(0, 0, 1, 10)
	r.Set(0, 1, 1, 20)
	// channel 2: constant
	r.Set(0, 0, 2, 7)
	r.Set(0, 1, 2, 7)

	img, err := Normalize(r)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	p0 := img.Pix[img.PixOffset(0, 0) : img.PixOffset(0, 0)+3]
	p1 := img.Pix[img.PixOffset(1, 0) : img.PixOffset(1, 0)+3]
	if p0[0] != 0 || p1[0] != 255 {
		t.Errorf("channel 0 = (%d,%d), want (0,255)", p0[0], p1[0])
	}
	if p0[1] != 0 || p1[1] != 255 {
		t.Errorf("channel 1 = (%d,%d), want (0,255)", p0[1], p1[1])
	}
	if p0[2] != 0 || p1[2] != 0 {
		t.Errorf("constant channel 2 = (%d,%d), want (0,0)", p0[2], p1[2])
	}
}

func TestNormalize_FourthBandIgnored(t *testing.T) {
	rgb := New(2, 2, 3)
	rgba := New(2, 2, 4)
	values := []float64{10, 20, 30, 40}
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			v := values[y*2+x]
			for c := 0; c < 3; c++ {
				rgb.Set(y, x, c, v+float64(c))
				rgba.Set(y, x, c, v+float64(c))
			}
			rgba.Set(y, x, 3, 999) // junk alpha band
		}
	}

	imgRGB, err := Normalize(rgb)
	if err != nil {
		t.Fatalf("Normalize(rgb) failed: %v", err)
	}
	imgRGBA, err := Normalize(rgba)
	if err != nil {
		t.Fatalf("Normalize(rgba) failed: %v", err)
	}

	for i := range imgRGB.Pix {
		if imgRGB.Pix[i] != imgRGBA.Pix[i] {
			t.Fatalf("pixel byte %d differs: rgb=%d rgba=%d", i, imgRGB.Pix[i], imgRGBA.Pix[i])
		}
	}
}

func TestNormalize_NaNExcludedFromRange(t *testing.T) {
	r := New(1, 3, 1)
	r.Set(0, 0, 0, math.NaN())
	r.Set(0, 1, 0, 0)
	r.Set(0, 2, 0, 10)

	img, err := Normalize(r)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	// NaN pixel maps to zero, the finite ones span the full range.
	if got := img.Pix[img.PixOffset(0, 0)]; got != 0 {
		t.Errorf("NaN pixel = %d, want 0", got)
	}
	if got := img.Pix[img.PixOffset(1, 0)]; got != 0 {
		t.Errorf("min pixel = %d, want 0", got)
	}
	if got := img.Pix[img.PixOffset(2, 0)]; got != 255 {
		t.Errorf("max pixel = %d, want 255", got)
	}
}

func TestNormalize_UnsupportedBandCount(t *testing.T) {
	for _, bands := range []int{2, 5, 7} {
		_, err := Normalize(constantRaster(2, 2, bands, 1))
		if err == nil {
			t.Errorf("bands=%d: expected error", bands)
			continue
		}
		if !apperrors.IsType(err, apperrors.ErrorTypeUnsupportedRaster) {
			t.Errorf("bands=%d: error type = %v, want unsupported_raster", bands, err)
		}
	}
}

func TestFromSamples_ChannelFirstTranspose(t *testing.T) {
	// 2 bands x 2 rows x 5 cols in channel-first order. The trailing
	// axis (5) is not a supported band count while the leading axis is
	// plausible, which triggers the transpose.
	samples := make([]float64, 2*2*5)
	for b := 0; b < 2; b++ {
		for y := 0; y < 2; y++ {
			for x := 0; x < 5; x++ {
				samples[(b*2+y)*5+x] = float64(b*100 + y*10 + x)
			}
		}
	}

	r, err := FromSamples(samples, 2, 2, 5)
	if err != nil {
		t.Fatalf("FromSamples failed: %v", err)
	}
	if r.Height != 2 || r.Width != 5 || r.Bands != 2 {
		t.Fatalf("got %dx%dx%d, want 2x5x2 channel-last", r.Height, r.Width, r.Bands)
	}
	if got := r.At(1, 3, 1); got != 113 {
		t.Errorf("At(1,3,1) = %g, want 113", got)
	}
}

func TestFromSamples_NarrowChannelFirstRGB(t *testing.T) {
	// 3 bands x 5 rows x 2 cols. The trailing axis (2) is between 1 and
	// 4 but is not a band count the normalizer accepts, so the array
	// must still be treated as channel-first; kept as-is it would be a
	// 2-band raster that normalization rejects.
	samples := make([]float64, 3*5*2)
	for b := 0; b < 3; b++ {
		for y := 0; y < 5; y++ {
			for x := 0; x < 2; x++ {
				samples[(b*5+y)*2+x] = float64(b*100 + y*10 + x)
			}
		}
	}

	r, err := FromSamples(samples, 3, 5, 2)
	if err != nil {
		t.Fatalf("FromSamples failed: %v", err)
	}
	if r.Height != 5 || r.Width != 2 || r.Bands != 3 {
		t.Fatalf("got %dx%dx%d, want 5x2x3 channel-last", r.Height, r.Width, r.Bands)
	}
	if got := r.At(4, 1, 2); got != 241 {
		t.Errorf("At(4,1,2) = %g, want 241", got)
	}

	if _, err := Normalize(r); err != nil {
		t.Fatalf("Normalize rejected transposed RGB raster: %v", err)
	}
}

func TestFromSamples_ChannelLastKept(t *testing.T) {
	samples := []float64{1, 2, 3, 4, 5, 6}
	r, err := FromSamples(samples, 1, 2, 3)
	if err != nil {
		t.Fatalf("FromSamples failed: %v", err)
	}
	if r.Height != 1 || r.Width != 2 || r.Bands != 3 {
		t.Fatalf("got %dx%dx%d, want 1x2x3", r.Height, r.Width, r.Bands)
	}
	if got := r.At(0, 1, 2); got != 6 {
		t.Errorf("At(0,1,2) = %g, want 6", got)
	}
}

func TestFromSamples_LengthMismatch(t *testing.T) {
	_, err := FromSamples([]float64{1, 2, 3}, 2, 2, 1)
	if err == nil {
		t.Fatal("expected error for sample count mismatch")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeInvalidArgument) {
		t.Errorf("error type = %v, want invalid_argument", err)
	}
}
