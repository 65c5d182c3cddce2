package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/nntexpressinc/safetybot/internal/domain"
)

const (
	speedingPath    = "/v1/speeding_events"
	performancePath = "/v2/driver_performance_events"
)

// Client fetches raw safety events from the fleet-telematics API, one
// category at a time, with bounded retries per page.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	perPage     int
	maxPages    int
	maxAttempts int
	backoffBase time.Duration
	logger      *slog.Logger
}

func NewClient(baseURL, apiKey string, perPage, maxPages int, logger *slog.Logger) *Client {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &Client{
		httpClient:  &http.Client{Timeout: 45 * time.Second, Transport: tr},
		baseURL:     baseURL,
		apiKey:      apiKey,
		perPage:     perPage,
		maxPages:    maxPages,
		maxAttempts: 3,
		backoffBase: time.Second,
		logger:      logger,
	}
}

type pagination struct {
	PerPage int `json:"per_page"`
	PageNo  int `json:"page_no"`
	Total   int `json:"total"`
}

func (p pagination) hasMore() bool {
	return p.PerPage > 0 && p.PageNo*p.PerPage < p.Total
}

type speedingEnvelope struct {
	Events []struct {
		Event domain.RawEvent `json:"speeding_event"`
	} `json:"speeding_events"`
	Pagination pagination `json:"pagination"`
}

type performanceEnvelope struct {
	Events []struct {
		Event domain.RawEvent `json:"driver_performance_event"`
	} `json:"driver_performance_events"`
	Pagination pagination `json:"pagination"`
}

// Fetch returns one page of raw events for a category and whether the API
// has more pages. Up to maxAttempts attempts per page with doubling
// backoff; a *PermanentError aborts the retry loop immediately.
func (c *Client) Fetch(ctx context.Context, category domain.Category, page int) ([]domain.RawEvent, bool, error) {
	var lastErr error
	delay := c.backoffBase

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, false, &TransientError{Err: ctx.Err()}
			}
			delay *= 2
		}

		events, more, err := c.fetchOnce(ctx, category, page)
		if err == nil {
			return events, more, nil
		}
		lastErr = err

		var perm *PermanentError
		if errors.As(err, &perm) {
			return nil, false, err
		}

		c.logger.Warn("fetch attempt failed",
			"category", category,
			"page", page,
			"attempt", attempt,
			"error", err,
		)
	}

	return nil, false, lastErr
}

// FetchAll pages through a category until the API signals no more pages or
// the configured page cap is reached.
func (c *Client) FetchAll(ctx context.Context, category domain.Category) ([]domain.RawEvent, error) {
	var all []domain.RawEvent

	for page := 1; page <= c.maxPages; page++ {
		events, more, err := c.Fetch(ctx, category, page)
		if err != nil {
			return nil, err
		}
		all = append(all, events...)
		if !more {
			break
		}
	}

	c.logger.Info("fetched events", "category", category, "count", len(all))
	return all, nil
}

func (c *Client) fetchOnce(ctx context.Context, category domain.Category, page int) ([]domain.RawEvent, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(category, page), nil)
	if err != nil {
		return nil, false, &PermanentError{Err: err}
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("User-Agent", "safetybot/2.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, &TransientError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, false, &TransientError{Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, false, &TransientError{Err: fmt.Errorf("status %d from %s", resp.StatusCode, req.URL.Path)}
	default:
		return nil, false, &PermanentError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("status %d from %s", resp.StatusCode, req.URL.Path),
		}
	}

	if category.IsPerformance() {
		var env performanceEnvelope
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, false, &TransientError{Err: fmt.Errorf("decoding response: %w", err)}
		}
		events := make([]domain.RawEvent, 0, len(env.Events))
		for _, wrapped := range env.Events {
			events = append(events, wrapped.Event)
		}
		return events, env.Pagination.hasMore(), nil
	}

	var env speedingEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, false, &TransientError{Err: fmt.Errorf("decoding response: %w", err)}
	}
	events := make([]domain.RawEvent, 0, len(env.Events))
	for _, wrapped := range env.Events {
		events = append(events, wrapped.Event)
	}
	return events, env.Pagination.hasMore(), nil
}

func (c *Client) endpoint(category domain.Category, page int) string {
	q := url.Values{}
	q.Set("per_page", strconv.Itoa(c.perPage))
	q.Set("page_no", strconv.Itoa(page))

	path := speedingPath
	if category.IsPerformance() {
		path = performancePath
		q.Set("event_types", string(category))
		q.Set("media_required", "true")
	}

	return c.baseURL + path + "?" + q.Encode()
}
