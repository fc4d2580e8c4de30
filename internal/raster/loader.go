package raster

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/tiff"

	apperrors "go-raster-detect/internal/errors"
)

// Decode parses encoded image bytes into a Raster. TIFF is handled via
// the x/image decoder, which covers the 8- and 16-bit gray and RGB
// variants that aerial sources commonly ship; PNG, JPEG and GIF come
// from the standard library decoders.
func Decode(data []byte) (*Raster, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewUnsupportedRasterError("failed to decode image data", err)
	}
	r := FromImage(img)
	if r.Bands < 1 || r.Bands > 4 {
		return nil, apperrors.NewUnsupportedRasterError(
			"decoded "+format+" image has an unsupported band layout", nil)
	}
	return r, nil
}
