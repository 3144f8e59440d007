package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"feedjournal/pkg/config"
	errs "feedjournal/pkg/errors"
	"feedjournal/pkg/logger"
	"feedjournal/pkg/ratelimit"
)

// Client fetches timeline pages from the feed API
type Client struct {
	httpClient   *http.Client
	headers      map[string]string
	baseURL      string
	timelinePath string
	pacer        ratelimit.Limiter
	logger       logger.Logger
}

// NewClient creates a feed API client from the feed configuration.
// A nil pacer disables request pacing.
func NewClient(cfg *config.FeedConfig, pacer ratelimit.Limiter, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if pacer == nil {
		pacer = ratelimit.NewPacer(0)
	}

	headers := map[string]string{
		"Accept":     "application/json",
		"User-Agent": cfg.UserAgent,
	}
	if cfg.Token != "" {
		headers["Authorization"] = "Bearer " + cfg.Token
	}

	return &Client{
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		headers:      headers,
		baseURL:      cfg.BaseURL,
		timelinePath: cfg.TimelinePath,
		pacer:        pacer,
		logger:       log,
	}
}

// FetchPage fetches one page of the handle's timeline. An empty page means
// there is no more data. A rate-limit signal is returned as
// *errors.RateLimitError; every other failure as *errors.Error.
func (c *Client) FetchPage(ctx context.Context, handle string, page int) (Page, error) {
	if err := c.pacer.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for request slot: %w", err)
	}

	url := TimelineURL(c.baseURL, c.timelinePath, handle, page)

	var posts Page
	if err := c.getJSON(ctx, url, &posts); err != nil {
		return nil, err
	}

	c.logger.DebugWithFields("fetched timeline page", map[string]interface{}{
		"handle": handle,
		"page":   page,
		"posts":  len(posts),
	})
	return posts, nil
}

// getJSON performs a GET request and decodes the JSON response
func (c *Client) getJSON(ctx context.Context, url string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &errs.Error{
			Type:    errs.ErrorTypeUnknown,
			Message: "failed to create request",
			Err:     err,
		}
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"url":      url,
			"error":    err.Error(),
			"duration": time.Since(start),
		})
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: "network error",
			Err:     err,
		}
	}
	defer resp.Body.Close()

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"url":      url,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	})

	if err := c.checkResponseStatus(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: "failed to read response body",
			Code:    resp.StatusCode,
			Err:     err,
		}
	}

	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: "failed to parse JSON",
			Code:    resp.StatusCode,
			Err:     err,
		}
	}

	return nil
}

// checkResponseStatus turns error statuses into typed errors. Rate-limit
// signals take precedence over the status class.
func (c *Client) checkResponseStatus(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	if rl := errs.RateLimitFromResponse(resp); rl != nil {
		c.logger.WarnWithFields("rate limit exceeded", map[string]interface{}{
			"status":    resp.StatusCode,
			"limit":     rl.Limit,
			"remaining": rl.Remaining,
			"reset":     rl.Reset,
		})
		return rl
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	c.logger.ErrorWithFields("feed API error", map[string]interface{}{
		"status": resp.StatusCode,
		"body":   string(body),
	})

	return &errs.Error{
		Type:    errs.TypeForStatus(resp.StatusCode),
		Message: fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
		Code:    resp.StatusCode,
	}
}
