package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	apperrors "go-raster-detect/internal/errors"
	"go-raster-detect/internal/raster"
)

// BlobStorage retrieves rasters from blob storage.
type BlobStorage interface {
	GetRaster(ctx context.Context, blobURL string) (*raster.Raster, error)
}

type azureStorage struct {
	client *azblob.Client
}

// NewAzureStorage creates a blob-backed raster source using shared key
// credentials.
func NewAzureStorage(accountName string, accountKey string) (BlobStorage, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, err
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, err
	}

	return &azureStorage{client: client}, nil
}

// GetRaster downloads and decodes a blob. The URL path names the
// container; the blob itself comes from the "blob" query parameter.
func (s *azureStorage) GetRaster(ctx context.Context, blobURL string) (*raster.Raster, error) {
	parsedURL, err := url.Parse(blobURL)
	if err != nil {
		return nil, apperrors.NewInvalidArgumentError("invalid blob URL", err)
	}
	if len(parsedURL.Path) < 2 {
		return nil, apperrors.NewInvalidArgumentError("blob URL has no container path", nil)
	}

	containerName := parsedURL.Path[1:]
	blobName := parsedURL.Query().Get("blob")

	downloadResponse, err := s.client.DownloadStream(ctx, containerName, blobName, nil)
	if err != nil {
		return nil, apperrors.NewNetworkError("blob download failed", err)
	}

	retryReader := downloadResponse.Body
	defer retryReader.Close()

	data, err := io.ReadAll(retryReader)
	if err != nil {
		return nil, apperrors.NewNetworkError("failed to read blob stream", err)
	}
	return raster.Decode(data)
}
