package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/rickgao/active-strike/internal/auth"
)

var tracer = otel.Tracer("internal/browser")

// ErrNoCookies is returned when the browser holds no cookies for the
// dashboard after the wait window.
var ErrNoCookies = errors.New("no cookies found in browser session")

// TokenStatus is the outcome of reading the token from local storage.
type TokenStatus int

const (
	TokenFound TokenStatus = iota
	TokenMissing
	TokenFailed
)

func (s TokenStatus) String() string {
	switch s {
	case TokenFound:
		return "found"
	case TokenMissing:
		return "no token found"
	case TokenFailed:
		return "extraction failed"
	default:
		return fmt.Sprintf("TokenStatus(%d)", int(s))
	}
}

// TokenResult is the token read from the browser.
type TokenResult struct {
	Status TokenStatus
	Value  string // set when Status is TokenFound
	Err    error  // set when Status is TokenFailed
}

// CaptureResult summarises one capture.
type CaptureResult struct {
	Cookies int
	Token   TokenResult
}

// Complete reports whether the capture produced a usable session.
func (r CaptureResult) Complete() bool {
	return r.Cookies > 0 && r.Token.Status == TokenFound
}

// CredentialSaver persists captured credentials.
type CredentialSaver interface {
	Save(cookies []auth.Cookie, token string) error
}

// Config holds capture settings.
type Config struct {
	DashboardURL      string
	CookieURLs        []string // origins whose cookies are collected
	TokenKey          string
	Asset             string // shown in the operator instructions
	Wait              time.Duration
	CloseAfterCapture bool
}

// DefaultConfig returns the capture defaults.
func DefaultConfig() Config {
	return Config{
		TokenKey: "token",
		Wait:     60 * time.Second,
	}
}

// Capturer drives an interactive login and stores the resulting session.
type Capturer struct {
	cfg    Config
	launch Launcher
	store  CredentialSaver
	logger *slog.Logger
	wait   func(ctx context.Context, d time.Duration) error

	mu      sync.Mutex
	session Browser
}

// CapturerOption configures a Capturer.
type CapturerOption func(*Capturer)

// WithWaitFunc replaces the blocking wait used for the login window.
func WithWaitFunc(fn func(ctx context.Context, d time.Duration) error) CapturerOption {
	return func(c *Capturer) {
		if fn != nil {
			c.wait = fn
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) CapturerOption {
	return func(c *Capturer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCapturer creates a Capturer.
func NewCapturer(cfg Config, launch Launcher, store CredentialSaver, opts ...CapturerOption) *Capturer {
	if cfg.TokenKey == "" {
		cfg.TokenKey = "token"
	}
	c := &Capturer{
		cfg:    cfg,
		launch: launch,
		store:  store,
		logger: slog.Default(),
		wait:   sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Capture opens (or reuses) the browser session, waits for the operator to
// log in, then reads and saves cookies and token.
//
// A missing or unreadable token is not an error: the cookies are still saved
// and the result reports the token status.
func (c *Capturer) Capture(ctx context.Context) (CaptureResult, error) {
	ctx, span := tracer.Start(ctx, "capturer:Capture")
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	result, err := c.capture(ctx)
	if err != nil {
		c.releaseLocked()
		span.RecordError(err)
		span.SetStatus(codes.Error, "capture failed")
		return result, err
	}

	span.SetAttributes(
		attribute.Int("capture.cookies", result.Cookies),
		attribute.String("capture.token", result.Token.Status.String()),
	)

	if c.cfg.CloseAfterCapture {
		c.releaseLocked()
	}
	return result, nil
}

func (c *Capturer) capture(ctx context.Context) (CaptureResult, error) {
	var result CaptureResult

	sess, err := c.sessionLocked(ctx)
	if err != nil {
		return result, err
	}

	if err := sess.Navigate(ctx, c.cfg.DashboardURL); err != nil {
		return result, fmt.Errorf("navigate to dashboard: %w", err)
	}

	c.logger.Info("log in to the dashboard in the opened browser window",
		"url", c.cfg.DashboardURL,
		"asset", c.cfg.Asset,
		"wait", c.cfg.Wait,
	)
	c.logger.Info("after logging in, select the instrument so the page stores its token",
		"asset", c.cfg.Asset,
	)

	if err := c.wait(ctx, c.cfg.Wait); err != nil {
		return result, fmt.Errorf("login wait: %w", err)
	}

	urls := c.cfg.CookieURLs
	if len(urls) == 0 {
		urls = []string{c.cfg.DashboardURL}
	}
	cookies, err := sess.Cookies(ctx, urls...)
	if err != nil {
		return result, fmt.Errorf("read cookies: %w", err)
	}
	if len(cookies) == 0 {
		return result, ErrNoCookies
	}
	result.Cookies = len(cookies)

	result.Token = c.readToken(ctx, sess)
	switch result.Token.Status {
	case TokenFound:
		c.logger.Info("token captured", "key", c.cfg.TokenKey)
	case TokenMissing:
		c.logger.Warn("no token found in local storage", "key", c.cfg.TokenKey)
	case TokenFailed:
		c.logger.Warn("token extraction failed", "key", c.cfg.TokenKey, "error", result.Token.Err)
	}

	if err := c.store.Save(cookies, result.Token.Value); err != nil {
		return result, fmt.Errorf("save credentials: %w", err)
	}

	c.logger.Info("session captured",
		"cookies", result.Cookies,
		"token", result.Token.Status.String(),
	)
	return result, nil
}

func (c *Capturer) readToken(ctx context.Context, sess Browser) TokenResult {
	value, err := sess.LocalStorageItem(ctx, c.cfg.TokenKey)
	switch {
	case err != nil:
		return TokenResult{Status: TokenFailed, Err: err}
	case value == nil || *value == "":
		return TokenResult{Status: TokenMissing}
	default:
		return TokenResult{Status: TokenFound, Value: *value}
	}
}

func (c *Capturer) sessionLocked(ctx context.Context) (Browser, error) {
	if c.session != nil {
		return c.session, nil
	}
	sess, err := c.launch(ctx)
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	c.session = sess
	c.logger.Debug("browser session opened")
	return sess, nil
}

func (c *Capturer) releaseLocked() {
	if c.session == nil {
		return
	}
	if err := c.session.Close(); err != nil {
		c.logger.Warn("close browser session", "error", err)
	}
	c.session = nil
	c.logger.Debug("browser session closed")
}

// Close releases the browser session if one is open.
func (c *Capturer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.releaseLocked()
	return nil
}

// sleep blocks for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
