package container

import (
	"fmt"
	"net/http"

	"go-raster-detect/internal/config"
	"go-raster-detect/internal/detector"
	"go-raster-detect/internal/observer"
	"go-raster-detect/internal/pipeline"
	"go-raster-detect/internal/repository"
	"go-raster-detect/internal/service"
	"go-raster-detect/internal/storage"
	"go-raster-detect/internal/transport"
	"go-raster-detect/pkg/validation"

	"github.com/sirupsen/logrus"
)

// Container holds all application dependencies
type Container struct {
	config           *config.Config
	rasterFetcher    storage.RasterFetcher
	blobStorage      storage.BlobStorage
	rasterRepository repository.RasterRepository
	modelSession     *detector.ModelSession
	pipe             *pipeline.Pipeline
	detectionService service.DetectionService
	handler          http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("MODEL_PATH must be set")
	}

	rasterFetcher := storage.NewHTTPRasterFetcher(cfg.FetchTimeout)

	var blobStorage storage.BlobStorage
	if cfg.AzureStorageAccount != "" && cfg.AzureStorageKey != "" {
		var err error
		blobStorage, err = storage.NewAzureStorage(cfg.AzureStorageAccount, cfg.AzureStorageKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create blob storage: %w", err)
		}
	}

	rasterRepository := repository.NewHTTPRasterRepository(
		rasterFetcher, blobStorage, validation.NewURLValidator())

	modelSession, err := detector.NewModelSession(cfg.ModelPath, cfg.ModelLabels)
	if err != nil {
		return nil, fmt.Errorf("failed to load detector model: %w", err)
	}

	events := observer.NewEventPublisher()
	events.Subscribe(observer.NewLoggingObserver(logrus.StandardLogger()))

	pipe := pipeline.New(modelSession, events, cfg.DetectWorkers)
	detectionService := service.NewDetectionService(rasterRepository, pipe, cfg)
	handler := transport.NewHandler(detectionService, cfg)

	return &Container{
		config:           cfg,
		rasterFetcher:    rasterFetcher,
		blobStorage:      blobStorage,
		rasterRepository: rasterRepository,
		modelSession:     modelSession,
		pipe:             pipe,
		detectionService: detectionService,
		handler:          handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Close releases the detector session.
func (c *Container) Close() {
	if c.modelSession != nil {
		c.modelSession.Destroy()
	}
}
