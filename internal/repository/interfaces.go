package repository

import (
	"context"

	"go-raster-detect/internal/raster"
)

// RasterRepository defines the interface for raster data access
type RasterRepository interface {
	// FetchRaster retrieves and decodes a raster from a URL
	FetchRaster(ctx context.Context, rasterURL string) (*raster.Raster, error)

	// ValidateRasterURL validates if the provided URL is acceptable
	ValidateRasterURL(rasterURL string) error
}
