package bundle

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/hpungsan/nesta/internal/errors"
)

// Defaults for HTTPFetcher.
const (
	DefaultTimeout      = 15 * time.Second
	DefaultMaxRedirects = 3

	// maxCatalogBytes bounds a catalog document read into memory
	maxCatalogBytes = 8 << 20
)

// Fetcher retrieves remote documents and archives.
type Fetcher interface {
	// Get returns the response body for a 200 response. Any other status is a
	// network error. The caller closes the body.
	Get(ctx context.Context, url string) (io.ReadCloser, error)
}

// HTTPFetcher is a Fetcher over net/http with a timeout and a redirect limit.
type HTTPFetcher struct {
	Client *http.Client
}

// NewHTTPFetcher builds a fetcher. Zero values select the defaults.
func NewHTTPFetcher(timeout time.Duration, maxRedirects int) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxRedirects <= 0 {
		maxRedirects = DefaultMaxRedirects
	}
	return &HTTPFetcher{
		Client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) > maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
	}
}

// Get implements Fetcher.
func (f *HTTPFetcher) Get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.NewNetwork(url, 0, err)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, errors.NewNetwork(url, 0, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.NewNetwork(url, resp.StatusCode, nil)
	}
	return resp.Body, nil
}

// FetchBytes reads a whole response body, up to a fixed limit.
func FetchBytes(ctx context.Context, f Fetcher, url string) ([]byte, error) {
	body, err := f.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, maxCatalogBytes+1))
	if err != nil {
		return nil, errors.NewNetwork(url, 0, err)
	}
	if len(data) > maxCatalogBytes {
		return nil, errors.NewNetwork(url, 0, fmt.Errorf("response exceeds %d bytes", maxCatalogBytes))
	}
	return data, nil
}

// Download streams url into a new temporary file and returns its path. The
// caller removes the file.
func Download(ctx context.Context, f Fetcher, url string) (string, error) {
	body, err := f.Get(ctx, url)
	if err != nil {
		return "", err
	}
	defer body.Close()

	tmp, err := os.CreateTemp("", "nesta-download-*")
	if err != nil {
		return "", errors.NewFilesystem("create temp file", os.TempDir(), err)
	}
	path := tmp.Name()

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		os.Remove(path)
		return "", errors.NewNetwork(url, 0, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(path)
		return "", errors.NewFilesystem("write", path, err)
	}
	return path, nil
}
