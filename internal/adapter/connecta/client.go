package connecta

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/connecta/gig-scraper/internal/entity"
	"github.com/connecta/gig-scraper/internal/repository"
	"github.com/connecta/gig-scraper/pkg/metrics"
)

const (
	apiKeyHeader = "X-API-Key"
	// listLimit overrides the backend's default page size of 50 so a source
	// listing is never silently truncated.
	listLimit = 10000
)

// envelope is the response shape of every external-gigs endpoint.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

// statusError carries a non-2xx backend response.
type statusError struct {
	Status int
	Body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Body)
}

// Client talks to the Connecta backend's /external-gigs API. Public methods
// never return transport failures; they log them and report false or empty.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

var _ repository.GigRepository = (*Client)(nil)

// NewClient builds a client for apiURL. rps <= 0 disables rate limiting.
func NewClient(apiURL, apiKey string, timeout time.Duration, rps float64, logger *zap.Logger) *Client {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &Client{
		baseURL: strings.TrimRight(apiURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
}

// CreateOrUpdate upserts gig by (source, external_id).
func (c *Client) CreateOrUpdate(ctx context.Context, gig entity.Gig) bool {
	env, err := c.do(ctx, http.MethodPost, "/external-gigs", gig)
	if err != nil {
		c.logger.Error("error creating/updating gig",
			zap.String("source", gig.Source), zap.String("external_id", gig.ExternalID), zap.Error(err))
		return false
	}
	if !env.Success {
		c.logger.Warn("backend refused gig", zap.String("source", gig.Source),
			zap.String("external_id", gig.ExternalID), zap.String("message", env.Message))
		return false
	}
	c.logger.Debug("created/updated gig", zap.String("source", gig.Source), zap.String("title", gig.Title))
	return true
}

// Delete removes a gig. A 404 means it is already gone and counts as success.
func (c *Client) Delete(ctx context.Context, source, externalID string) bool {
	path := "/external-gigs/" + url.PathEscape(source) + "/" + url.PathEscape(externalID)
	env, err := c.do(ctx, http.MethodDelete, path, nil)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && se.Status == http.StatusNotFound {
			c.logger.Debug("gig already deleted", zap.String("source", source), zap.String("external_id", externalID))
			return true
		}
		c.logger.Error("error deleting gig", zap.String("source", source), zap.String("external_id", externalID), zap.Error(err))
		return false
	}
	if env.Success {
		c.logger.Info("deleted gig", zap.String("source", source), zap.String("external_id", externalID))
	}
	return env.Success
}

// ListBySource returns the stored gigs of source, or none when the backend
// cannot be read.
func (c *Client) ListBySource(ctx context.Context, source string) []entity.ExternalGig {
	q := url.Values{}
	q.Set("source", source)
	q.Set("limit", strconv.Itoa(listLimit))
	gigs, err := c.list(ctx, q)
	if err != nil {
		c.logger.Error("error fetching external gigs", zap.String("source", source), zap.Error(err))
		return []entity.ExternalGig{}
	}
	return gigs
}

// ListAll returns up to limit gigs across every source.
func (c *Client) ListAll(ctx context.Context, limit int) ([]entity.ExternalGig, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	return c.list(ctx, q)
}

func (c *Client) list(ctx context.Context, q url.Values) ([]entity.ExternalGig, error) {
	env, err := c.do(ctx, http.MethodGet, "/external-gigs?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, fmt.Errorf("%w: %s", repository.ErrBackendUnavailable, env.Message)
	}
	gigs := []entity.ExternalGig{}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return gigs, nil
	}
	if err := json.Unmarshal(env.Data, &gigs); err != nil {
		return nil, fmt.Errorf("decode external gigs: %w", err)
	}
	return gigs, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (envelope, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return envelope{}, err
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return envelope{}, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return envelope{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.BackendRequestsTotal.WithLabelValues(method, "error").Inc()
		return envelope{}, fmt.Errorf("%w: %w", repository.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()
	metrics.BackendRequestsTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return envelope{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return envelope{}, &statusError{Status: resp.StatusCode, Body: truncate(string(raw), 512)}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return envelope{}, fmt.Errorf("decode response: %w", err)
	}
	return env, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
