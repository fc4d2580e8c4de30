package annotate

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"go-raster-detect/pkg/models"
)

var (
	boxColor    = color.NRGBA{R: 255, A: 255}
	labelColor  = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	labelBg     = color.NRGBA{R: 255, A: 255}
	boxOutlineW = 3
)

// Draw renders every boxed detection onto a copy of the image: a red
// rectangle outline plus a "label confidence" tag on a filled background
// above the box's top-left corner. Box-less detections are skipped, they
// have nothing to draw.
func Draw(img image.Image, dets []models.FinalDetection) *image.NRGBA {
	out := imaging.Clone(img)
	bounds := out.Bounds()

	for _, d := range dets {
		if d.Box == nil {
			continue
		}
		x1, y1 := int(d.Box.X1), int(d.Box.Y1)
		x2, y2 := int(d.Box.X2), int(d.Box.Y2)
		drawRect(out, x1, y1, x2, y2)

		label := fmt.Sprintf("%s %.2f", d.Label, d.Confidence)
		drawLabel(out, bounds, x1, y1, label)
	}
	return out
}

// EncodePNGBase64 PNG-encodes the image and returns it base64 encoded
// for embedding in a JSON response.
func EncodePNGBase64(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return "", fmt.Errorf("failed to encode annotated image: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func drawRect(img *image.NRGBA, x1, y1, x2, y2 int) {
	for t := 0; t < boxOutlineW; t++ {
		drawHLine(img, x1-t, x2+t, y1-t)
		drawHLine(img, x1-t, x2+t, y2+t)
		drawVLine(img, x1-t, y1-t, y2+t)
		drawVLine(img, x2+t, y1-t, y2+t)
	}
}

func drawHLine(img *image.NRGBA, x1, x2, y int) {
	b := img.Bounds()
	if y < b.Min.Y || y >= b.Max.Y {
		return
	}
	for x := max(x1, b.Min.X); x <= min(x2, b.Max.X-1); x++ {
		img.SetNRGBA(x, y, boxColor)
	}
}

func drawVLine(img *image.NRGBA, x, y1, y2 int) {
	b := img.Bounds()
	if x < b.Min.X || x >= b.Max.X {
		return
	}
	for y := max(y1, b.Min.Y); y <= min(y2, b.Max.Y-1); y++ {
		img.SetNRGBA(x, y, boxColor)
	}
}

func drawLabel(img *image.NRGBA, bounds image.Rectangle, x, y int, label string) {
	face := basicfont.Face7x13
	textW := font.MeasureString(face, label).Ceil()
	textH := face.Metrics().Height.Ceil()

	// Place the tag above the box; fall back to inside the box at the
	// top of the image.
	bgTop := y - textH - 4
	if bgTop < bounds.Min.Y {
		bgTop = y
	}
	bg := image.Rect(x, bgTop, x+textW+4, bgTop+textH+4).Intersect(bounds)
	draw.Draw(img, bg, image.NewUniform(labelBg), image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(labelColor),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.I(x + 2),
			Y: fixed.I(bgTop + textH),
		},
	}
	drawer.DrawString(label)
}
