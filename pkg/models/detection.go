package models

// Box is an axis-aligned rectangle in pixel coordinates, x1/y1 top-left
// and x2/y2 bottom-right.
type Box struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Width returns the box width.
func (b Box) Width() float64 {
	return b.X2 - b.X1
}

// Height returns the box height.
func (b Box) Height() float64 {
	return b.Y2 - b.Y1
}

// Area returns the box area. Degenerate boxes have zero area.
func (b Box) Area() float64 {
	w := b.Width()
	h := b.Height()
	if w < 0 || h < 0 {
		return 0
	}
	return w * h
}

// RawDetection is a single detector result. The box is optional because
// some detector outputs carry no localization; box-less detections skip
// coordinate mapping and suppression entirely. Coordinates are chip-local
// until the mapper translates them into the original image frame.
type RawDetection struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Box        *Box    `json:"box,omitempty"`
	ChipIndex  int     `json:"chip_index"`
}

// FinalDetection is a detection that survived class-wise suppression,
// reduced to what callers consume.
type FinalDetection struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Box        *Box    `json:"box,omitempty"`
}
