package ingest

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rewired-gh/quakelens/internal/logger"
	"github.com/rewired-gh/quakelens/internal/models"
)

// HTTPClientConfig holds the transport settings of an HTTPSource.
type HTTPClientConfig struct {
	MaxRetries     int
	RetryDelayBase time.Duration
	MaxIdleConns   int
}

// HTTPSource fetches one CSV export per year from a web server, using the
// same file naming as CSVSource.
type HTTPSource struct {
	baseURL        string
	httpClient     *http.Client
	years          []int
	maxRetries     int
	retryDelayBase time.Duration
}

// NewHTTPSource creates a source reading baseURL/<DefaultFileName(year)>.
func NewHTTPSource(baseURL string, years []int, timeout time.Duration, cfg HTTPClientConfig) *HTTPSource {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelayBase <= 0 {
		cfg.RetryDelayBase = time.Second
	}
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = maxConcurrentYears
	}

	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConns,
		IdleConnTimeout:     90 * time.Second,
	}

	return &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		years:          append([]int(nil), years...),
		maxRetries:     cfg.MaxRetries,
		retryDelayBase: cfg.RetryDelayBase,
	}
}

// Years returns the configured years.
func (s *HTTPSource) Years() []int {
	return append([]int(nil), s.years...)
}

// URL returns the address backing a year.
func (s *HTTPSource) URL(year int) string {
	return s.baseURL + "/" + DefaultFileName(year)
}

// LoadYear downloads and parses the export for year. A 404 means the year
// has no data.
func (s *HTTPSource) LoadYear(ctx context.Context, year int) ([]models.Event, error) {
	url := s.URL(year)

	resp, err := s.doRequest(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %d (%s)", ErrNoSourceForYear, year, url)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("failed to fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	events, err := ReadCSV(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", url, err)
	}
	return events, nil
}

// doRequest performs a GET with retries on transport errors and 5xx
// responses, backing off linearly.
func (s *HTTPSource) doRequest(ctx context.Context, url string) (*http.Response, error) {
	var lastErr error

	for i := 0; i < s.maxRetries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.retryDelayBase * time.Duration(i)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "text/csv")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			logger.Warn("Fetching %s failed (attempt %d/%d): %v", url, i+1, s.maxRetries, err)
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			logger.Warn("Fetching %s failed (attempt %d/%d): %v", url, i+1, s.maxRetries, lastErr)
			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
