package openfoodfacts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/foodlens/backend/internal/domain"
	"github.com/foodlens/backend/internal/infrastructure/metrics"
)

const (
	searchPath   = "/cgi/search.pl"
	maxAttempts  = 3
	maxBodyBytes = 32 << 20
	maxLogBytes  = 512
)

var _ domain.ProductSource = (*Client)(nil)

// Client handles communication with the Open Food Facts search API
type Client struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	rateLimiter *rate.Limiter
	backoff     func(attempt int) time.Duration
	logger      *zap.Logger
}

// NewClient creates a new Open Food Facts client. rps bounds the request
// rate; the upstream asks clients to stay well under one search per second.
func NewClient(baseURL, userAgent string, rps float64, timeout time.Duration, logger *zap.Logger) *Client {
	if rps <= 0 {
		rps = 2
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:     baseURL,
		userAgent:   userAgent,
		rateLimiter: rate.NewLimiter(rate.Limit(rps), 1),
		backoff:     exponentialBackoff,
		logger:      logger.Named("openfoodfacts"),
	}
}

// exponentialBackoff returns the wait before retrying after the given attempt
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

// doRequest executes an HTTP GET request with proper headers
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	metrics.UpstreamRequests.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	return resp, nil
}

// FetchPage returns one page of search results as raw payloads.
// An empty slice means the source has no more products.
func (c *Client) FetchPage(ctx context.Context, page, pageSize int) ([]domain.RawPayload, error) {
	if page < 1 || pageSize < 1 {
		return nil, fmt.Errorf("%w: page %d, page size %d", domain.ErrInvalidRequest, page, pageSize)
	}

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, searchPath, searchParams(page, pageSize).Encode())
	log := c.logger.With(zap.Int("page", page), zap.Int("page_size", pageSize))

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, c.backoff(attempt-1)); err != nil {
				return nil, err
			}
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		resp, err := c.doRequest(ctx, reqURL)
		if err != nil {
			log.Warn("request failed", zap.Int("attempt", attempt), zap.Error(err))
			lastErr = err
			continue
		}

		body, err := readLimitedBody(resp.Body, maxBodyBytes)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("%w: read body: %v", domain.ErrSourceUnavailable, err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			log.Warn("unexpected status",
				zap.Int("attempt", attempt),
				zap.Int("status", resp.StatusCode),
				zap.ByteString("body", body[:min(len(body), maxLogBytes)]),
			)
			if resp.StatusCode == http.StatusNotFound {
				return nil, domain.ErrSourceNotFound
			}
			lastErr = fmt.Errorf("%w: status %d", domain.ErrSourceUnavailable, resp.StatusCode)
			if !retryable(resp.StatusCode) {
				return nil, lastErr
			}
			continue
		}

		products, err := decodeSearchResponse(body)
		if err != nil {
			return nil, err
		}

		log.Debug("page fetched", zap.Int("products", len(products)))
		return products, nil
	}

	log.Error("all retries failed", zap.Error(lastErr))
	return nil, lastErr
}

// retryable reports whether a non-200 status is worth another attempt
func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// readLimitedBody reads at most limit bytes from r
func readLimitedBody(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}
