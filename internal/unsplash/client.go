// Package unsplash fetches a random photo for a search query from the
// Unsplash API.
//
// The client talks to GET /photos/random?query=...&client_id=... and
// returns the regular-size photo URL. Failures of any kind surface as
// ErrNoImage so callers can degrade to a plain apology instead of
// breaking the conversation.
package unsplash

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/AdityaGirish/Chatbot101/internal/log"
)

// ErrNoImage indicates no image could be produced for the query, for
// whatever reason: API error, rate limit, missing key, or an empty or
// unexpected response body.
var ErrNoImage = errors.New("no image found")

// DefaultTimeout bounds one API call when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// unsplash allows 50 requests per hour on the demo tier.
const requestsPerHour = 50

// Photo is one image result.
type Photo struct {
	URL         string
	Description string
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the Unsplash API root, e.g. https://api.unsplash.com.
	BaseURL string

	// AccessKey authenticates requests. An empty key makes every
	// Search return ErrNoImage rather than failing at startup.
	AccessKey string

	// Timeout bounds one API call. Defaults to DefaultTimeout.
	Timeout time.Duration

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client

	// Logger for client operations. Required.
	Logger log.Logger
}

func (c *Config) validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	return nil
}

// Client is an Unsplash API client.
type Client struct {
	baseURL   string
	accessKey string
	http      *http.Client
	limiter   *rate.Limiter
	logger    log.Logger
}

// New creates a Client.
func New(cfg Config) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:   cfg.BaseURL,
		accessKey: cfg.AccessKey,
		http:      hc,
		limiter:   rate.NewLimiter(rate.Every(time.Hour/requestsPerHour), requestsPerHour),
		logger:    cfg.Logger.With("component", "unsplash"),
	}, nil
}

// Search returns a random photo matching the query, or ErrNoImage when
// nothing usable comes back. The local rate limiter fails closed: once
// the hourly budget is spent, Search returns ErrNoImage without
// touching the network.
func (c *Client) Search(ctx context.Context, query string) (Photo, error) {
	if c.accessKey == "" {
		c.logger.Debug("image search skipped, no access key configured")
		return Photo{}, ErrNoImage
	}
	if !c.limiter.Allow() {
		c.logger.Warn("image search rate limited", "query", query)
		return Photo{}, fmt.Errorf("%w: rate limited", ErrNoImage)
	}

	u := fmt.Sprintf("%s/photos/random?query=%s&client_id=%s",
		c.baseURL, url.QueryEscape(query), url.QueryEscape(c.accessKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Photo{}, fmt.Errorf("%w: %v", ErrNoImage, err)
	}
	req.Header.Set("Accept-Version", "v1")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("image search request failed", "query", query, "error", err)
		return Photo{}, fmt.Errorf("%w: %v", ErrNoImage, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("image search rejected", "query", query, "status", resp.StatusCode)
		return Photo{}, fmt.Errorf("%w: status %d", ErrNoImage, resp.StatusCode)
	}

	var body struct {
		URLs struct {
			Regular string `json:"regular"`
		} `json:"urls"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Photo{}, fmt.Errorf("%w: decoding response: %v", ErrNoImage, err)
	}
	if body.URLs.Regular == "" {
		return Photo{}, fmt.Errorf("%w: empty photo URL", ErrNoImage)
	}

	c.logger.Debug("image found", "query", query)
	return Photo{URL: body.URLs.Regular, Description: body.Description}, nil
}

// Fetch downloads the photo bytes at the given URL.
func (c *Client) Fetch(ctx context.Context, photoURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, photoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoImage, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoImage, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", ErrNoImage, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading image: %v", ErrNoImage, err)
	}
	return data, nil
}
