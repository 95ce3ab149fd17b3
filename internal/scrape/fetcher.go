package scrape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"docforge/internal/domain"
)

const userAgent = "Mozilla/5.0 (compatible; DocumentationBot/1.0)"

// maxPageBytes caps how much of a source page we will read. Pages larger
// than this are truncated, not rejected.
const maxPageBytes = 10 << 20

// Fetcher retrieves raw page markup with a hard time bound. It never
// retries; a failed fetch aborts the ingest entirely.
type Fetcher struct {
	client *http.Client
	logger *slog.Logger
}

// NewFetcher creates a fetcher with the given round-trip timeout.
func NewFetcher(timeout time.Duration, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Fetch retrieves the page at url. All failures are *domain.FetchError
// classified as timeout, network, or http_status.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &domain.FetchError{Kind: domain.FetchErrNetwork, URL: url, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		kind := domain.FetchErrNetwork
		if isTimeout(err) {
			kind = domain.FetchErrTimeout
		}
		f.logger.Warn("fetch failed", "url", url, "kind", string(kind), "error", err)
		return "", &domain.FetchError{Kind: kind, URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		f.logger.Warn("fetch returned non-success status", "url", url, "status", resp.StatusCode)
		return "", &domain.FetchError{
			Kind:   domain.FetchErrHTTPStatus,
			URL:    url,
			Status: resp.StatusCode,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		kind := domain.FetchErrNetwork
		if isTimeout(err) {
			kind = domain.FetchErrTimeout
		}
		return "", &domain.FetchError{Kind: kind, URL: url, Err: fmt.Errorf("read body: %w", err)}
	}

	return string(body), nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
