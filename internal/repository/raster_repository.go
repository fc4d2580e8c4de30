package repository

import (
	"context"
	"errors"
	"net/url"
	"strings"

	apperrors "go-raster-detect/internal/errors"
	"go-raster-detect/internal/raster"
	"go-raster-detect/internal/storage"
	"go-raster-detect/pkg/validation"
)

// HTTPRasterRepository implements RasterRepository over HTTP storage,
// with an optional blob-storage source for Azure URLs.
type HTTPRasterRepository struct {
	fetcher   storage.RasterFetcher
	blobs     storage.BlobStorage
	validator *validation.URLValidator
}

// NewHTTPRasterRepository creates a new HTTP-based raster repository.
// blobs may be nil when no blob storage account is configured.
func NewHTTPRasterRepository(fetcher storage.RasterFetcher, blobs storage.BlobStorage, validator *validation.URLValidator) RasterRepository {
	if validator == nil {
		validator = validation.NewURLValidator()
	}
	return &HTTPRasterRepository{
		fetcher:   fetcher,
		blobs:     blobs,
		validator: validator,
	}
}

// FetchRaster retrieves a raster from a URL. Azure blob URLs go through
// the blob client when one is configured; everything else goes over
// plain HTTP.
func (r *HTTPRasterRepository) FetchRaster(ctx context.Context, rasterURL string) (*raster.Raster, error) {
	if r.blobs != nil && isBlobURL(rasterURL) {
		return r.blobs.GetRaster(ctx, rasterURL)
	}
	return r.fetcher.FetchRaster(ctx, rasterURL)
}

// ValidateRasterURL validates if the provided URL is acceptable. The
// returned error carries ErrInvalidRasterURL so callers can match it
// with errors.Is.
func (r *HTTPRasterRepository) ValidateRasterURL(rasterURL string) error {
	if err := r.validator.ValidateRasterURL(rasterURL); err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Cause == nil {
			appErr.Cause = ErrInvalidRasterURL
		}
		return err
	}
	return nil
}

func isBlobURL(rasterURL string) bool {
	u, err := url.Parse(rasterURL)
	if err != nil {
		return false
	}
	return strings.HasSuffix(u.Host, ".blob.core.windows.net")
}
