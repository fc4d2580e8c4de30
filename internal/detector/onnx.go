package detector

import (
	"context"
	"fmt"
	"image"
	"runtime"
	"sync"

	"github.com/disintegration/imaging"
	ort "github.com/yalue/onnxruntime_go"

	"go-raster-detect/pkg/models"
)

const (
	// DefaultInputSize is the tensor side length of common YOLO exports.
	DefaultInputSize = 640
	// defaultPredictions is the anchor-free prediction count of a
	// 640x640 YOLOv8/v11 head.
	defaultPredictions = 8400
)

// InitRuntime points the ONNX runtime at its shared library and brings
// the environment up. Call once at process start, before any session is
// created. An empty libraryPath leaves the library resolution to the
// platform defaults.
func InitRuntime(libraryPath string) error {
	if libraryPath != "" {
		ort.SetSharedLibraryPath(libraryPath)
	}
	return ort.InitializeEnvironment()
}

// DestroyRuntime tears the ONNX environment down.
func DestroyRuntime() error {
	return ort.DestroyEnvironment()
}

// ModelSession is an explicitly-scoped handle to one loaded ONNX model.
// The caller constructs it, hands it to the pipeline, and destroys it
// when done; there is no process-wide model registry. Sessions reuse
// their tensors across calls and are therefore serialized internally.
type ModelSession struct {
	session   *ort.AdvancedSession
	input     *ort.Tensor[float32]
	output    *ort.Tensor[float32]
	labels    []string
	inputSize int
	numPreds  int

	mu sync.Mutex
}

var _ Detector = (*ModelSession)(nil)

// NewModelSession loads a YOLO-style ONNX model. labels maps class index
// to label string; its length fixes the expected output tensor shape
// (1, 4+len(labels), 8400).
func NewModelSession(modelPath string, labels []string) (*ModelSession, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("model labels must not be empty")
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("error creating session options: %w", err)
	}
	defer options.Destroy()

	options.SetIntraOpNumThreads(runtime.NumCPU())
	options.SetInterOpNumThreads(runtime.NumCPU())

	inputShape := ort.NewShape(1, 3, DefaultInputSize, DefaultInputSize)
	outputShape := ort.NewShape(1, int64(4+len(labels)), defaultPredictions)

	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, fmt.Errorf("error creating input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("error creating output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{"images"},
		[]string{"output0"},
		[]ort.ArbitraryTensor{inputTensor},
		[]ort.ArbitraryTensor{outputTensor},
		options,
	)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("error creating session: %w", err)
	}

	return &ModelSession{
		session:   session,
		input:     inputTensor,
		output:    outputTensor,
		labels:    labels,
		inputSize: DefaultInputSize,
		numPreds:  defaultPredictions,
	}, nil
}

// Destroy releases the session and its tensors.
func (m *ModelSession) Destroy() {
	if m.session != nil {
		m.session.Destroy()
	}
	if m.input != nil {
		m.input.Destroy()
	}
	if m.output != nil {
		m.output.Destroy()
	}
}

// Detect runs one chip through the model and decodes the raw head
// output into chip-local detections.
func (m *ModelSession) Detect(ctx context.Context, chip image.Image, confidenceThreshold float64) ([]models.RawDetection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	resized := imaging.Resize(chip, m.inputSize, m.inputSize, imaging.Lanczos)
	m.prepareInput(resized)

	if err := m.session.Run(); err != nil {
		return nil, fmt.Errorf("model inference: %w", err)
	}

	bounds := chip.Bounds()
	return decodePredictions(m.output.GetData(), m.numPreds, m.labels,
		confidenceThreshold, bounds.Dx(), bounds.Dy(), m.inputSize), nil
}

// prepareInput fills the input tensor in CHW order with [0,1] floats.
func (m *ModelSession) prepareInput(pic *image.NRGBA) {
	data := m.input.GetData()
	channelSize := m.inputSize * m.inputSize

	for y := 0; y < m.inputSize; y++ {
		for x := 0; x < m.inputSize; x++ {
			i := y*m.inputSize + x
			p := pic.PixOffset(x, y)
			data[i] = float32(pic.Pix[p]) / 255.0
			data[channelSize+i] = float32(pic.Pix[p+1]) / 255.0
			data[channelSize*2+i] = float32(pic.Pix[p+2]) / 255.0
		}
	}
}

// decodePredictions converts a YOLO head tensor into detections scaled
// to the chip's pixel frame. The tensor is laid out as (4+numClasses)
// rows of numPreds columns: cx, cy, w, h, then one score row per class,
// all normalized to the model input frame.
func decodePredictions(preds []float32, numPreds int, labels []string, confidenceThreshold float64, chipW, chipH, inputSize int) []models.RawDetection {
	scaleX := float64(chipW) / float64(inputSize)
	scaleY := float64(chipH) / float64(inputSize)

	var out []models.RawDetection
	for i := 0; i < numPreds; i++ {
		best := -1
		var bestScore float32
		for c := 0; c < len(labels); c++ {
			if score := preds[(4+c)*numPreds+i]; score > bestScore {
				bestScore = score
				best = c
			}
		}
		if best < 0 || float64(bestScore) < confidenceThreshold {
			continue
		}

		cx := float64(preds[i]) * float64(inputSize)
		cy := float64(preds[numPreds+i]) * float64(inputSize)
		w := float64(preds[2*numPreds+i]) * float64(inputSize)
		h := float64(preds[3*numPreds+i]) * float64(inputSize)

		box := models.Box{
			X1: clampf((cx-w/2)*scaleX, 0, float64(chipW)),
			Y1: clampf((cy-h/2)*scaleY, 0, float64(chipH)),
			X2: clampf((cx+w/2)*scaleX, 0, float64(chipW)),
			Y2: clampf((cy+h/2)*scaleY, 0, float64(chipH)),
		}
		out = append(out, models.RawDetection{
			Label:      labels[best],
			Confidence: float64(bestScore),
			Box:        &box,
		})
	}
	return out
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
