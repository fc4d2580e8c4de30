package detector

import (
	"math"
	"testing"
)

// synthTensor builds a (4+nc) x numPreds head tensor with every score
// zeroed. Predictions are written into it column by column.
func synthTensor(numPreds, numClasses int) []float32 {
	return make([]float32, (4+numClasses)*numPreds)
}

func setPrediction(preds []float32, numPreds, col int, cx, cy, w, h float32, scores []float32) {
	preds[col] = cx
	preds[numPreds+col] = cy
	preds[2*numPreds+col] = w
	preds[3*numPreds+col] = h
	for c, s := range scores {
		preds[(4+c)*numPreds+col] = s
	}
}

func TestDecodePredictions(t *testing.T) {
	labels := []string{"ship", "plane"}
	numPreds := 16
	preds := synthTensor(numPreds, len(labels))

	// A confident centered ship, a confident plane, and a
	// sub-threshold prediction that must be dropped.
	setPrediction(preds, numPreds, 0, 0.5, 0.5, 0.25, 0.25, []float32{0.9, 0.1})
	setPrediction(preds, numPreds, 3, 0.25, 0.25, 0.1, 0.1, []float32{0.2, 0.8})
	setPrediction(preds, numPreds, 7, 0.5, 0.5, 0.5, 0.5, []float32{0.1, 0.05})

	out := decodePredictions(preds, numPreds, labels, 0.5, 320, 320, 640)
	if len(out) != 2 {
		t.Fatalf("got %d detections, want 2", len(out))
	}

	ship := out[0]
	if ship.Label != "ship" || math.Abs(ship.Confidence-0.9) > 1e-6 {
		t.Errorf("first detection = %s/%g, want ship/0.9", ship.Label, ship.Confidence)
	}
	// Chip is 320x320 against a 640 input: everything halves. Center
	// (0.5,0.5) with size 0.25 becomes (120,120)-(200,200).
	if b := ship.Box; math.Abs(b.X1-120) > 1e-6 || math.Abs(b.Y1-120) > 1e-6 ||
		math.Abs(b.X2-200) > 1e-6 || math.Abs(b.Y2-200) > 1e-6 {
		t.Errorf("ship box = %+v, want (120,120)-(200,200)", *b)
	}

	plane := out[1]
	if plane.Label != "plane" {
		t.Errorf("second detection label = %s, want plane", plane.Label)
	}
}

func TestDecodePredictions_ClampsToChip(t *testing.T) {
	labels := []string{"ship"}
	numPreds := 4
	preds := synthTensor(numPreds, len(labels))

	// Box center near the edge, size spilling past it.
	setPrediction(preds, numPreds, 1, 0.99, 0.01, 0.2, 0.2, []float32{0.7})

	out := decodePredictions(preds, numPreds, labels, 0.5, 640, 640, 640)
	if len(out) != 1 {
		t.Fatalf("got %d detections, want 1", len(out))
	}
	b := out[0].Box
	if b.X2 > 640 || b.Y1 < 0 {
		t.Errorf("box %+v not clamped to chip bounds", *b)
	}
}

func TestDecodePredictions_AllBelowThreshold(t *testing.T) {
	labels := []string{"ship"}
	preds := synthTensor(8, len(labels))
	setPrediction(preds, 8, 0, 0.5, 0.5, 0.1, 0.1, []float32{0.3})

	if out := decodePredictions(preds, 8, labels, 0.5, 640, 640, 640); len(out) != 0 {
		t.Errorf("got %d detections, want 0", len(out))
	}
}
