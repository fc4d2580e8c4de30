package storage

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "go-raster-detect/internal/errors"
	"go-raster-detect/internal/raster"
)

// RasterFetcher retrieves a raster from a URL.
type RasterFetcher interface {
	FetchRaster(ctx context.Context, rasterURL string) (*raster.Raster, error)
}

// HTTPRasterFetcher implements RasterFetcher over plain HTTP(S).
type HTTPRasterFetcher struct {
	client *http.Client
}

// NewHTTPRasterFetcher creates an HTTP raster fetcher. The transport is
// tuned for one large download per request rather than many small ones.
func NewHTTPRasterFetcher(timeout time.Duration) RasterFetcher {
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		DisableCompression:     false,
		MaxResponseHeaderBytes: 4096,

		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: true,
		},
	}

	return &HTTPRasterFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,

			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
	}
}

// FetchRaster downloads and decodes the raster at the given URL. Up to
// three attempts are made; 4xx responses fail immediately while network
// errors and 5xx responses retry with a linear backoff.
func (h *HTTPRasterFetcher) FetchRaster(ctx context.Context, rasterURL string) (*raster.Raster, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", rasterURL, nil)
	if err != nil {
		return nil, apperrors.NewInvalidArgumentError("invalid raster URL", err)
	}

	req.Header.Set("Accept", "image/tiff, image/png, image/jpeg, */*")
	req.Header.Set("User-Agent", "Go-Raster-Detect/1.0")
	req.Header.Set("Accept-Encoding", "gzip, deflate")

	data, err := h.fetchWithRetry(req)
	if err != nil {
		return nil, err
	}
	return raster.Decode(data)
}

func (h *HTTPRasterFetcher) fetchWithRetry(req *http.Request) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < 3; attempt++ {
		resp, err := h.client.Do(req)
		if err != nil {
			lastErr = err
		} else {
			switch {
			case resp.StatusCode == http.StatusOK:
				data, readErr := io.ReadAll(resp.Body)
				resp.Body.Close()
				if readErr != nil {
					lastErr = readErr
					break
				}
				return data, nil
			case resp.StatusCode >= 400 && resp.StatusCode < 500:
				// Client errors will not succeed on retry.
				resp.Body.Close()
				return nil, apperrors.NewNetworkError(
					fmt.Sprintf("failed to fetch raster: status code %d", resp.StatusCode), nil)
			default:
				resp.Body.Close()
				lastErr = fmt.Errorf("server error: status code %d", resp.StatusCode)
			}
		}

		if attempt < 2 {
			time.Sleep(time.Duration(attempt+1) * time.Second)
		}
	}

	return nil, apperrors.NewNetworkError("failed to fetch raster after 3 attempts", lastErr)
}
