package service

import (
	"context"
	"time"

	"go-raster-detect/internal/annotate"
	"go-raster-detect/internal/config"
	apperrors "go-raster-detect/internal/errors"
	"go-raster-detect/internal/pipeline"
	"go-raster-detect/internal/repository"
	"go-raster-detect/pkg/models"
)

// DetectionService defines the interface for running detection over a
// remote raster
type DetectionService interface {
	// Detect fetches a raster and runs the full detection pipeline
	Detect(ctx context.Context, request models.DetectionRequest) (*models.DetectionResponse, error)

	// ValidateRasterURL validates if the provided URL is acceptable
	ValidateRasterURL(rasterURL string) error
}

type detectionService struct {
	rasterRepo repository.RasterRepository
	pipe       *pipeline.Pipeline
	cfg        *config.Config
}

// NewDetectionService creates a new detection service
func NewDetectionService(rasterRepo repository.RasterRepository, pipe *pipeline.Pipeline, cfg *config.Config) DetectionService {
	return &detectionService{
		rasterRepo: rasterRepo,
		pipe:       pipe,
		cfg:        cfg,
	}
}

// Detect fetches the raster at request.URL and runs normalize, tile,
// detect and aggregate over it. Request thresholds override the
// configured defaults; the tile size ceiling is clamped to the
// configured maximum.
func (s *detectionService) Detect(ctx context.Context, request models.DetectionRequest) (*models.DetectionResponse, error) {
	startTime := time.Now()

	if err := s.ValidateRasterURL(request.URL); err != nil {
		return nil, err
	}

	r, err := s.rasterRepo.FetchRaster(ctx, request.URL)
	if err != nil {
		return nil, err
	}

	res, err := s.pipe.Process(ctx, r, s.buildOptions(request))
	if err != nil {
		return nil, err
	}

	response := &models.DetectionResponse{
		ImageURL:          request.URL,
		ImageWidth:        res.Width,
		ImageHeight:       res.Height,
		ChipCount:         len(res.TileSet.Chips),
		Detections:        res.Detections,
		ProcessingTimeSec: time.Since(startTime).Seconds(),
	}

	if request.Annotate {
		img, err := s.pipe.Reconstruct(res)
		if err != nil {
			return nil, err
		}
		encoded, err := annotate.EncodePNGBase64(annotate.Draw(img, res.Detections))
		if err != nil {
			return nil, apperrors.NewInternalError("failed to encode annotated image", err)
		}
		response.AnnotatedImage = encoded
	}

	return response, nil
}

// ValidateRasterURL validates the raster URL
func (s *detectionService) ValidateRasterURL(rasterURL string) error {
	return s.rasterRepo.ValidateRasterURL(rasterURL)
}

func (s *detectionService) buildOptions(request models.DetectionRequest) pipeline.Options {
	opts := pipeline.Options{
		MaxSideSize:         s.cfg.MaxSideSize,
		ConfidenceThreshold: s.cfg.ConfidenceThreshold,
		IoUThreshold:        s.cfg.IoUThreshold,
		DownsampleFactor:    request.DownsampleFactor,
	}
	if request.MaxSideSize > 0 && request.MaxSideSize < opts.MaxSideSize {
		opts.MaxSideSize = request.MaxSideSize
	}
	if request.ConfidenceThreshold != nil {
		opts.ConfidenceThreshold = *request.ConfidenceThreshold
	}
	if request.IoUThreshold != nil {
		opts.IoUThreshold = *request.IoUThreshold
	}
	return opts
}
