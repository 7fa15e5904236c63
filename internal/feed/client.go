// Package feed talks to the Adafruit IO REST API. Each feed is a named
// numeric time-series channel; SysMon pushes one timestamped value per
// metric per upload cycle.
package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/f451labs/sysmon/internal/errors"
	"github.com/f451labs/sysmon/internal/logger"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://io.adafruit.com"

// Adafruit IO allows 30 data-point writes per minute on the free tier.
// The client-side limiter smooths bursts so the server-side throttle is
// the exception, not the norm.
const (
	requestsPerMinute = 30
	limiterBurst      = 5
)

// Config holds the static configuration for a feed client.
type Config struct {
	BaseURL  string // empty means the public Adafruit IO endpoint
	Username string // AIO_ID
	Key      string // AIO_KEY
}

// Dependencies allow test overrides for HTTP client, clock, and logging.
type Dependencies struct {
	HTTPClient *http.Client
	Now        func() time.Time
	Logger     logger.Logger
	Limiter    *rate.Limiter
}

// Client publishes readings to Adafruit IO feeds and validates feed keys
// at startup.
type Client struct {
	httpClient *http.Client
	baseURL    string
	username   string
	key        string
	limiter    *rate.Limiter
	now        func() time.Time
	logger     logger.Logger
	sessionID  string
}

// NewClient builds a feed client from configuration and dependencies.
func NewClient(cfg Config, deps Dependencies) (*Client, error) {
	if cfg.Username == "" {
		return nil, fmt.Errorf("AIO username is required")
	}
	if cfg.Key == "" {
		return nil, fmt.Errorf("AIO key is required")
	}
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := deps.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	log := deps.Logger
	if log == nil {
		log = logger.Noop()
	}
	limiter := deps.Limiter
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Limit(requestsPerMinute)/60.0, limiterBurst)
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		username:   cfg.Username,
		key:        cfg.Key,
		limiter:    limiter,
		now:        now,
		logger:     log,
		sessionID:  uuid.NewString(),
	}, nil
}

// SessionID identifies this agent run; it is attached to every data point
// and to log lines so feed values can be correlated with a device session.
func (c *Client) SessionID() string {
	return c.sessionID
}

func (c *Client) feedURL(feedKey string) string {
	return fmt.Sprintf("%s/api/v2/%s/feeds/%s",
		c.baseURL, url.PathEscape(c.username), url.PathEscape(feedKey))
}

// Validate checks that a feed exists and is reachable with the configured
// credentials. A missing feed or bad key is a FEED error; the caller
// decides whether that is fatal based on the upload mode.
func (c *Client) Validate(ctx context.Context, feedKey string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL(feedKey), nil)
	if err != nil {
		return apperrors.WrapWithCode(err, apperrors.ErrFeed,
			"Could not build feed lookup request", "")
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.WrapWithCode(err, apperrors.ErrFeed,
			fmt.Sprintf("Feed %q is unreachable", feedKey),
			"Check the network connection and io.adafruit.com status")
	}
	defer drain(resp)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return apperrors.New(apperrors.ErrFeed,
			fmt.Sprintf("Feed %q does not exist", feedKey),
			"Create the feed on Adafruit IO or fix the feed key in settings.toml")
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return apperrors.New(apperrors.ErrFeed,
			fmt.Sprintf("Not authorized for feed %q", feedKey),
			"Check AIO_ID and AIO_KEY in settings.toml")
	default:
		return apperrors.New(apperrors.ErrFeed,
			fmt.Sprintf("Feed %q lookup failed: %s", feedKey, resp.Status), "")
	}
}

// dataPoint is the Adafruit IO create-data payload.
type dataPoint struct {
	Value     string `json:"value"`
	CreatedAt string `json:"created_at"`
}

// SendValue publishes one timestamped value to a feed. A 429 response is
// returned as a THROTTLE error so the scheduler can apply its penalty;
// any other failure is an UPLOAD error and is retried next cycle.
func (c *Client) SendValue(ctx context.Context, feedKey string, value float64, ts time.Time) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return apperrors.WrapWithCode(err, apperrors.ErrUpload,
			"Rate limiter interrupted", "")
	}

	payload, err := json.Marshal(dataPoint{
		Value:     strconv.FormatFloat(value, 'f', -1, 64),
		CreatedAt: ts.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return apperrors.WrapWithCode(err, apperrors.ErrUpload,
			"Could not encode data point", "")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.feedURL(feedKey)+"/data", bytes.NewReader(payload))
	if err != nil {
		return apperrors.WrapWithCode(err, apperrors.ErrUpload,
			"Could not build upload request", "")
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.WrapWithCode(err, apperrors.ErrUpload,
			fmt.Sprintf("Upload to feed %q failed", feedKey),
			"Check the network connection")
	}
	defer drain(resp)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		c.logger.Debug("feed %s <- %s", feedKey, payload)
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return apperrors.New(apperrors.ErrThrottle,
			"Adafruit IO rate limit exceeded",
			"The scheduler will back off and retry")
	default:
		return apperrors.New(apperrors.ErrUpload,
			fmt.Sprintf("Upload to feed %q failed: %s", feedKey, resp.Status), "")
	}
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("X-AIO-Key", c.key)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "sysmon/"+c.sessionID[:8])
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
