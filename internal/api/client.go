package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultStrikesPath is the active-strike endpoint relative to the base URL.
const DefaultStrikesPath = "/api/active-strike-oi/getselectedactivestrikeivalldata"

// DefaultExpiredMessage is the msg the API returns once the session cookie has expired.
const DefaultExpiredMessage = "!! Cookie has expired. Please login again."

// Client provides access to the active-strike REST API.
type Client struct {
	baseURL        string
	strikesPath    string
	expiredMessage string
	userAgent      string
	timeout        time.Duration
	httpClient     *http.Client
	logger         *slog.Logger

	maxRetries   int
	retryBackoff time.Duration

	http *resty.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new REST API client.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:        baseURL,
		strikesPath:    DefaultStrikesPath,
		expiredMessage: DefaultExpiredMessage,
		timeout:        30 * time.Second,
		logger:         slog.Default(),
		maxRetries:     0,
		retryBackoff:   time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient != nil {
		c.http = resty.NewWithClient(c.httpClient)
	} else {
		c.http = resty.New()
	}

	c.http.
		SetBaseURL(baseURL).
		SetTimeout(c.timeout).
		SetHeader("Accept", "application/json").
		SetLogger(restyLogger{c.logger}).
		SetRetryCount(c.maxRetries).
		SetRetryWaitTime(c.retryBackoff).
		SetRetryMaxWaitTime(8 * c.retryBackoff).
		AddRetryCondition(retryOnServerError)

	if c.userAgent != "" {
		c.http.SetHeader("User-Agent", c.userAgent)
	}

	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithRetries sets the retry configuration for 5xx/429 responses.
func WithRetries(max int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = max
		c.retryBackoff = backoff
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithStrikesPath overrides the active-strike endpoint path.
func WithStrikesPath(path string) ClientOption {
	return func(c *Client) {
		if path != "" {
			c.strikesPath = path
		}
	}
}

// WithExpiredMessage overrides the msg that signals an expired session.
func WithExpiredMessage(msg string) ClientOption {
	return func(c *Client) {
		if msg != "" {
			c.expiredMessage = msg
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

func retryOnServerError(res *resty.Response, err error) bool {
	if err != nil || res == nil {
		return false
	}
	return (&APIError{StatusCode: res.StatusCode()}).IsRetryable()
}

// restyLogger routes resty's internal logging into slog.
type restyLogger struct {
	logger *slog.Logger
}

var _ resty.Logger = restyLogger{}

func (l restyLogger) Errorf(format string, v ...any) {
	l.logger.Error("resty", "msg", fmt.Sprintf(format, v...))
}

func (l restyLogger) Warnf(format string, v ...any) {
	l.logger.Warn("resty", "msg", fmt.Sprintf(format, v...))
}

func (l restyLogger) Debugf(format string, v ...any) {
	l.logger.Debug("resty", "msg", fmt.Sprintf(format, v...))
}
