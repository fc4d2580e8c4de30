package pipeline

import (
	"context"
	"errors"
	"image"
	"time"

	"go-raster-detect/internal/detection"
	"go-raster-detect/internal/detector"
	apperrors "go-raster-detect/internal/errors"
	"go-raster-detect/internal/observer"
	"go-raster-detect/internal/raster"
	"go-raster-detect/internal/tiling"
	"go-raster-detect/pkg/models"
)

// Options configures one Process invocation.
type Options struct {
	// MaxSideSize caps each chip side in pixels; must be positive.
	MaxSideSize int
	// ConfidenceThreshold is passed through to the detector.
	ConfidenceThreshold float64
	// IoUThreshold drives class-wise suppression; zero means default.
	IoUThreshold float64
	// DownsampleFactor is not supported. The upstream system accepted
	// the parameter at one call site but never implemented it; a
	// non-zero value is rejected rather than silently ignored.
	DownsampleFactor int
}

// Result is the full output of one pipeline run. Chips and placements
// are kept so callers can reconstruct and annotate the full image.
type Result struct {
	Detections []models.FinalDetection
	TileSet    *tiling.TileSet
	Width      int
	Height     int
}

// Pipeline runs normalize, tile, detect and aggregate strictly in that
// order over a caller-supplied detector handle. Chip inference fans out
// over a bounded worker pool, but aggregation never starts before every
// chip has returned: suppression has to see the complete global
// detection set to catch cross-chip duplicates.
type Pipeline struct {
	det     detector.Detector
	events  observer.Subject
	workers int
}

// New creates a pipeline around the given detector. The detector is an
// explicit handle owned by the caller; the pipeline never caches or
// shares model state behind the scenes.
func New(det detector.Detector, events observer.Subject, workers int) *Pipeline {
	if events == nil {
		events = observer.NewEventPublisher()
	}
	return &Pipeline{det: det, events: events, workers: workers}
}

// Process runs the full pipeline over one raster and returns the
// de-duplicated, globally-coordinated detection set. Any stage failure
// aborts the run; there is no partial result.
func (p *Pipeline) Process(ctx context.Context, r *raster.Raster, opts Options) (*Result, error) {
	if opts.DownsampleFactor != 0 {
		return nil, apperrors.NewInvalidArgumentError("downsample_factor is not supported", nil).
			WithStage(apperrors.StageTile)
	}

	normalized, width, height, err := p.normalize(ctx, r)
	if err != nil {
		return nil, err
	}

	ts, err := p.tile(ctx, normalized, opts.MaxSideSize)
	if err != nil {
		return nil, err
	}

	raw, err := p.detect(ctx, ts, opts.ConfidenceThreshold)
	if err != nil {
		return nil, err
	}

	final, err := p.aggregate(ctx, raw, ts, opts.IoUThreshold)
	if err != nil {
		return nil, err
	}

	return &Result{
		Detections: final,
		TileSet:    ts,
		Width:      width,
		Height:     height,
	}, nil
}

// Reconstruct reassembles the full-size normalized image from a
// previous run's chips, for downstream annotation.
func (p *Pipeline) Reconstruct(res *Result) (*image.NRGBA, error) {
	return tiling.Reconstruct(res.TileSet)
}

func (p *Pipeline) normalize(ctx context.Context, r *raster.Raster) (*image.NRGBA, int, int, error) {
	start := time.Now()
	img, err := raster.Normalize(r)
	if err != nil {
		p.fail(ctx, observer.StageNormalized, start, err)
		return nil, 0, 0, err
	}
	p.done(ctx, observer.StageEvent{EventType: observer.StageNormalized, Duration: time.Since(start)})
	return img, img.Bounds().Dx(), img.Bounds().Dy(), nil
}

func (p *Pipeline) tile(ctx context.Context, img *image.NRGBA, maxSideSize int) (*tiling.TileSet, error) {
	start := time.Now()
	ts, err := tiling.Split(img, maxSideSize)
	if err != nil {
		p.fail(ctx, observer.StageTiled, start, err)
		return nil, err
	}
	p.done(ctx, observer.StageEvent{
		EventType: observer.StageTiled,
		Duration:  time.Since(start),
		ChipCount: len(ts.Chips),
	})
	return ts, nil
}

// detect runs the detector over every chip. Chip order is fixed at
// tiling time, so completion order does not matter; results land in a
// per-chip slot and are flattened in chip order after the barrier.
func (p *Pipeline) detect(ctx context.Context, ts *tiling.TileSet, confidenceThreshold float64) ([]models.RawDetection, error) {
	start := time.Now()

	perChip := make([][]models.RawDetection, len(ts.Chips))
	chipErrs := make([]error, len(ts.Chips))

	pool := newWorkerPool(p.workers)
	pool.start()
	for i, chip := range ts.Chips {
		i, chip := i, chip
		pool.submit(func() {
			dets, err := p.det.Detect(ctx, chip, confidenceThreshold)
			if err != nil {
				chipErrs[i] = err
				return
			}
			for d := range dets {
				dets[d].ChipIndex = i
			}
			perChip[i] = dets
		})
	}
	pool.wait()
	pool.close()

	// First failing chip (in chip order, for determinism) aborts the
	// run; partial aggregation over the surviving chips would produce
	// an incomplete detection set.
	for i, err := range chipErrs {
		if err != nil {
			wrapped := apperrors.NewDetectorError(i, err)
			p.fail(ctx, observer.StageDetected, start, wrapped)
			return nil, wrapped
		}
	}

	var all []models.RawDetection
	for _, dets := range perChip {
		all = append(all, dets...)
	}
	p.done(ctx, observer.StageEvent{
		EventType: observer.StageDetected,
		Duration:  time.Since(start),
		ChipCount: len(ts.Chips),
	})
	return all, nil
}

func (p *Pipeline) aggregate(ctx context.Context, raw []models.RawDetection, ts *tiling.TileSet, iouThreshold float64) ([]models.FinalDetection, error) {
	start := time.Now()

	mapped, err := detection.MapToGlobal(raw, ts.Placements, ts.Grid.Width, ts.Grid.Height)
	if err != nil {
		p.fail(ctx, observer.StageAggregated, start, err)
		return nil, err
	}
	final := detection.SuppressByClass(mapped, iouThreshold)

	p.done(ctx, observer.StageEvent{
		EventType: observer.StageAggregated,
		Duration:  time.Since(start),
	})
	return final, nil
}

func (p *Pipeline) done(ctx context.Context, event observer.StageEvent) {
	event.Timestamp = time.Now()
	event.Success = true
	p.events.NotifyObservers(ctx, event)
}

func (p *Pipeline) fail(ctx context.Context, stage observer.EventType, start time.Time, err error) {
	event := observer.StageEvent{
		EventType: observer.PipelineFailed,
		Timestamp: time.Now(),
		Duration:  time.Since(start),
		Success:   false,
		Error:     string(stage) + ": " + err.Error(),
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		event.ChipIndex = appErr.ChipIndex
	}
	p.events.NotifyObservers(ctx, event)
}
