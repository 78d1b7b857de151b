package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/active-strike/internal/api"
	"github.com/rickgao/active-strike/internal/browser"
	"github.com/rickgao/active-strike/internal/model"
	"github.com/rickgao/active-strike/internal/writer"
)

var (
	// ErrNotAuthenticated is returned by FetchOnce when the token or the
	// cookies are missing. No request is made.
	ErrNotAuthenticated = errors.New("not authenticated: token or cookies missing")

	// ErrCaptureExhausted is returned once session capture has failed too
	// many times in a row.
	ErrCaptureExhausted = errors.New("session capture failed too many times")
)

// Fetcher retrieves raw strike records.
type Fetcher interface {
	GetActiveStrikes(ctx context.Context, creds model.Credentials, req api.StrikesRequest) (*api.StrikesResponse, error)
}

// CredentialStore holds the captured session.
type CredentialStore interface {
	Exists() bool
	Load() model.Credentials
	Clear() error
}

// Capturer runs an interactive session capture.
type Capturer interface {
	Capture(ctx context.Context) (browser.CaptureResult, error)
}

// RecordWriter stores fetched records.
type RecordWriter interface {
	Write(ctx context.Context, day string, raw []api.RawStrikeRecord) (writer.WriteResult, error)
}

// Config holds poller configuration.
type Config struct {
	Asset              string         // stSelectedAsset
	Mode               string         // stSelectedModeOfData
	Location           *time.Location // zone used to compute today's date
	Interval           time.Duration  // wait between fetches (default: 5m)
	FetchTimeout       time.Duration  // per-fetch timeout, 0 for none
	MaxCaptureAttempts int            // startup capture attempts (default: 3)
	MaxReauthFailures  int            // consecutive failed re-captures while polling (default: 3)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Asset:              "NIFTY",
		Mode:               "live",
		Location:           time.Local,
		Interval:           5 * time.Minute,
		FetchTimeout:       45 * time.Second,
		MaxCaptureAttempts: 3,
		MaxReauthFailures:  3,
	}
}

// Poller runs the fetch/write loop.
type Poller struct {
	cfg      Config
	fetcher  Fetcher
	creds    CredentialStore
	capturer Capturer
	writer   RecordWriter
	logger   *slog.Logger
	now      func() time.Time

	mu             sync.Mutex
	status         Status
	reauthFailures int
}

// Option configures a Poller.
type Option func(*Poller)

// WithClock sets the clock used to compute the trading day.
func WithClock(now func() time.Time) Option {
	return func(p *Poller) {
		if now != nil {
			p.now = now
		}
	}
}

// New creates a new Poller.
func New(cfg Config, fetcher Fetcher, creds CredentialStore, capturer Capturer, w RecordWriter, logger *slog.Logger, opts ...Option) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.Location == nil {
		cfg.Location = def.Location
	}
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.MaxCaptureAttempts <= 0 {
		cfg.MaxCaptureAttempts = def.MaxCaptureAttempts
	}
	if cfg.MaxReauthFailures <= 0 {
		cfg.MaxReauthFailures = def.MaxReauthFailures
	}

	p := &Poller{
		cfg:      cfg,
		fetcher:  fetcher,
		creds:    creds,
		capturer: capturer,
		writer:   w,
		logger:   logger,
		now:      time.Now,
		status:   Status{State: StateUnauthenticated},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Today returns the trading day in the configured zone.
func (p *Poller) Today() string {
	return p.now().In(p.cfg.Location).Format(model.DateLayout)
}

// EnsureAuthenticated runs session capture until both credential files hold
// a usable session, up to MaxCaptureAttempts times.
func (p *Poller) EnsureAuthenticated(ctx context.Context) error {
	if p.creds.Exists() && p.creds.Load().Valid() {
		p.setState(StatePolling)
		return nil
	}

	p.setState(StateUnauthenticated)
	p.logger.Info("no stored session, starting browser capture")

	for attempt := 1; attempt <= p.cfg.MaxCaptureAttempts; attempt++ {
		err := p.captureOnce(ctx)
		if err == nil {
			p.setState(StatePolling)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.logger.Warn("session capture failed",
			"attempt", attempt,
			"max_attempts", p.cfg.MaxCaptureAttempts,
			"error", err,
		)
	}

	return fmt.Errorf("%w: %d attempts", ErrCaptureExhausted, p.cfg.MaxCaptureAttempts)
}

// captureOnce runs one capture and checks that it left a usable session.
func (p *Poller) captureOnce(ctx context.Context) error {
	res, err := p.capturer.Capture(ctx)
	if err != nil {
		return err
	}
	if !p.creds.Load().Valid() {
		return fmt.Errorf("capture incomplete: %d cookies, token %s", res.Cookies, res.Token.Status)
	}
	return nil
}

// FetchOnce performs one collection cycle for today.
//
// On an expired session the credentials are cleared and re-captured, and the
// fetch is retried once.
func (p *Poller) FetchOnce(ctx context.Context) error {
	cycleID := uuid.NewString()
	logger := p.logger.With("cycle_id", cycleID)
	start := time.Now()
	day := p.Today()

	res, err := p.fetchOnce(ctx, logger, day)
	p.recordCycle(cycleID, start, res, err)

	if err != nil {
		return err
	}

	logger.Info("fetch cycle complete",
		"date", day,
		"selected", res.Selected,
		"total_rows", res.TotalRows,
		"duration", time.Since(start),
	)
	return nil
}

func (p *Poller) fetchOnce(ctx context.Context, logger *slog.Logger, day string) (writer.WriteResult, error) {
	creds := p.creds.Load()
	if !creds.Valid() {
		logger.Warn("skipping fetch, session incomplete",
			"has_token", creds.Token != "",
			"cookies", len(creds.Cookies),
		)
		return writer.WriteResult{}, ErrNotAuthenticated
	}

	req := api.StrikesRequest{
		Asset: p.cfg.Asset,
		Date:  day,
		Mode:  p.cfg.Mode,
	}

	var resp *api.StrikesResponse
	for retried := false; ; retried = true {
		var err error
		resp, err = p.fetch(ctx, creds, req)
		if err == nil {
			break
		}
		if !errors.Is(err, api.ErrSessionExpired) || retried {
			return writer.WriteResult{}, err
		}

		logger.Warn("session expired, re-authenticating")
		if err := p.reauthenticate(ctx); err != nil {
			return writer.WriteResult{}, err
		}
		creds = p.creds.Load()
		logger.Info("session re-captured, retrying fetch")
	}

	return p.writer.Write(ctx, day, resp.Data)
}

func (p *Poller) fetch(ctx context.Context, creds model.Credentials, req api.StrikesRequest) (*api.StrikesResponse, error) {
	if p.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.FetchTimeout)
		defer cancel()
	}
	return p.fetcher.GetActiveStrikes(ctx, creds, req)
}

// reauthenticate clears the stored session and captures a new one. Failures
// are counted; reaching MaxReauthFailures yields ErrCaptureExhausted.
func (p *Poller) reauthenticate(ctx context.Context) error {
	p.setState(StateUnauthenticated)

	if err := p.creds.Clear(); err != nil {
		p.logger.Warn("clear credentials", "error", err)
	}

	err := p.captureOnce(ctx)
	if err == nil {
		p.mu.Lock()
		p.reauthFailures = 0
		p.status.State = StatePolling
		p.status.Reauths++
		p.mu.Unlock()
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	p.mu.Lock()
	p.reauthFailures++
	failures := p.reauthFailures
	p.status.ReauthFailures = failures
	p.mu.Unlock()

	if failures >= p.cfg.MaxReauthFailures {
		return fmt.Errorf("%w: %d consecutive re-authentication failures: %v", ErrCaptureExhausted, failures, err)
	}
	return fmt.Errorf("re-authenticate: %w", err)
}

// Run authenticates, then fetches every Interval until ctx is cancelled.
// It returns nil on cancellation and ErrCaptureExhausted when capture keeps
// failing.
func (p *Poller) Run(ctx context.Context) error {
	if err := p.EnsureAuthenticated(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	p.logger.Info("poller running",
		"asset", p.cfg.Asset,
		"interval", p.cfg.Interval,
	)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		if err := p.cycle(ctx); err != nil {
			return err
		}

		p.logger.Info("waiting for next fetch", "interval", p.cfg.Interval)
		timer.Reset(p.cfg.Interval)
	}
}

// cycle runs FetchOnce and decides whether the loop can continue.
func (p *Poller) cycle(ctx context.Context) error {
	err := p.FetchOnce(ctx)
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return nil
	case errors.Is(err, ErrCaptureExhausted):
		p.logger.Error("giving up on session capture", "error", err)
		return err
	case errors.Is(err, ErrNotAuthenticated):
		// The session went missing between cycles; recover it for the next one.
		if err := p.reauthenticate(ctx); err != nil {
			if errors.Is(err, ErrCaptureExhausted) {
				p.logger.Error("giving up on session capture", "error", err)
				return err
			}
			p.logger.Warn("re-authentication failed", "error", err)
		}
		return nil
	}

	var unexpected *api.UnexpectedResponseError
	if errors.As(err, &unexpected) {
		p.logger.Warn("unexpected api response",
			"http_status", unexpected.StatusCode,
			"status", unexpected.Status,
			"msg", unexpected.Msg,
		)
		return nil
	}

	p.logger.Warn("fetch failed", "error", err)
	return nil
}
