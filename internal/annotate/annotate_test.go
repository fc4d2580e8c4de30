package annotate

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"go-raster-detect/pkg/models"
)

func grayImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 128, G: 128, B: 128, A: 255})
		}
	}
	return img
}

func TestDraw_BoxOutline(t *testing.T) {
	src := grayImage(100, 100)
	dets := []models.FinalDetection{
		{Label: "ship", Confidence: 0.9, Box: &models.Box{X1: 20, Y1: 30, X2: 60, Y2: 70}},
	}

	out := Draw(src, dets)

	if out.Bounds() != src.Bounds() {
		t.Fatalf("annotated bounds = %v, want %v", out.Bounds(), src.Bounds())
	}
	// Source is untouched.
	if src.NRGBAAt(20, 30) != (color.NRGBA{R: 128, G: 128, B: 128, A: 255}) {
		t.Error("Draw modified the source image")
	}
	// Box edges turn red.
	if got := out.NRGBAAt(40, 30); got.R != 255 || got.G != 0 {
		t.Errorf("top edge pixel = %+v, want red", got)
	}
	if got := out.NRGBAAt(20, 50); got.R != 255 || got.G != 0 {
		t.Errorf("left edge pixel = %+v, want red", got)
	}
	// Interior stays gray.
	if got := out.NRGBAAt(40, 50); got.R != 128 {
		t.Errorf("interior pixel = %+v, want untouched", got)
	}
}

func TestDraw_BoxlessDetectionSkipped(t *testing.T) {
	src := grayImage(50, 50)
	out := Draw(src, []models.FinalDetection{{Label: "ship", Confidence: 0.9}})

	for i, p := range out.Pix {
		if p != src.Pix[i] {
			t.Fatal("box-less detection changed pixels")
		}
	}
}

func TestDraw_BoxAtImageEdge(t *testing.T) {
	src := grayImage(50, 50)
	dets := []models.FinalDetection{
		{Label: "plane", Confidence: 0.5, Box: &models.Box{X1: 0, Y1: 0, X2: 49, Y2: 49}},
	}

	// Outline and label clamp to the image; this must not panic.
	out := Draw(src, dets)
	if got := out.NRGBAAt(0, 25); got.R != 255 {
		t.Errorf("edge pixel = %+v, want red", got)
	}
}

func TestEncodePNGBase64_RoundTrip(t *testing.T) {
	src := grayImage(10, 10)

	encoded, err := EncodePNGBase64(src)
	if err != nil {
		t.Fatalf("EncodePNGBase64 failed: %v", err)
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		t.Fatalf("result is not valid base64: %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("result is not a PNG: %v", err)
	}
	if decoded.Bounds().Dx() != 10 || decoded.Bounds().Dy() != 10 {
		t.Errorf("decoded size = %v, want 10x10", decoded.Bounds())
	}
}
