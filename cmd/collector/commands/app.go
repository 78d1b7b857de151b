package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/active-strike/internal/api"
	"github.com/rickgao/active-strike/internal/auth"
	"github.com/rickgao/active-strike/internal/browser"
	"github.com/rickgao/active-strike/internal/config"
	"github.com/rickgao/active-strike/internal/database"
	"github.com/rickgao/active-strike/internal/poller"
	"github.com/rickgao/active-strike/internal/store"
	"github.com/rickgao/active-strike/internal/writer"
)

// app wires the collector components from config.
type app struct {
	cfg      *config.CollectorConfig
	logger   *slog.Logger
	location *time.Location

	creds    *auth.Store
	client   *api.Client
	capturer *browser.Capturer
	table    store.Store
	writer   *writer.StrikeWriter
	poller   *poller.Poller
	pool     *pgxpool.Pool
}

func newApp(ctx context.Context, cfg *config.CollectorConfig, logger *slog.Logger) (*app, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, location: loc}

	a.creds = auth.NewStore(cfg.Credentials.CookiesFile, cfg.Credentials.TokenFile, logger)

	a.client = api.NewClient(
		cfg.API.BaseURL,
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout),
		api.WithRetries(cfg.API.MaxRetries, cfg.API.RetryBackoff),
		api.WithStrikesPath(cfg.API.StrikesPath),
		api.WithExpiredMessage(cfg.API.ExpiredMessage),
		api.WithUserAgent(cfg.API.UserAgent),
	)

	a.capturer = browser.NewCapturer(
		browser.Config{
			DashboardURL:      cfg.Dashboard.URL,
			CookieURLs:        cookieURLs(cfg.Dashboard.URL, cfg.API.BaseURL),
			TokenKey:          cfg.Capture.TokenKey,
			Asset:             cfg.Market.Asset,
			Wait:              cfg.Capture.Wait,
			CloseAfterCapture: cfg.Capture.CloseAfterCapture,
		},
		browser.NewChromeLauncher(browser.ChromeOptions{
			Headless:    cfg.Capture.Headless,
			ExecPath:    cfg.Capture.ChromePath,
			UserDataDir: cfg.Capture.UserDataDir,
		}),
		a.creds,
		browser.WithLogger(logger),
	)

	a.table, err = store.New(cfg.Storage.Format, cfg.Storage.Path)
	if err != nil {
		return nil, err
	}

	clock := func() time.Time { return time.Now().In(loc) }
	writerOpts := []writer.Option{writer.WithClock(clock)}

	if cfg.Database.Enabled {
		pg := cfg.Database.Postgres
		logger.Info("connecting to database",
			"host", pg.Host,
			"port", pg.Port,
			"database", pg.Name,
		)
		a.pool, err = database.Connect(ctx, pg)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		mirror := writer.NewPostgresMirror(a.pool, cfg.Market.Asset, logger)
		if err := mirror.EnsureSchema(ctx); err != nil {
			a.pool.Close()
			return nil, err
		}
		writerOpts = append(writerOpts, writer.WithMirror(mirror))
		logger.Info("database connected")
	}

	a.writer = writer.NewStrikeWriter(
		writer.Config{PrunePreviousDays: cfg.Storage.PrunePreviousDays},
		a.table,
		logger,
		writerOpts...,
	)

	a.poller = poller.New(
		poller.Config{
			Asset:              cfg.Market.Asset,
			Mode:               cfg.Market.Mode,
			Location:           loc,
			Interval:           cfg.Poller.Interval,
			FetchTimeout:       cfg.Poller.FetchTimeout,
			MaxCaptureAttempts: cfg.Capture.MaxAttempts,
			MaxReauthFailures:  cfg.Poller.MaxReauthFailures,
		},
		a.client,
		a.creds,
		a.capturer,
		a.writer,
		logger,
	)

	return a, nil
}

func (a *app) close() {
	if err := a.capturer.Close(); err != nil {
		a.logger.Warn("close browser", "error", err)
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

// cookieURLs returns the distinct origins of the given URLs.
func cookieURLs(urls ...string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, raw := range urls {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			continue
		}
		origin := u.Scheme + "://" + u.Host
		if !seen[origin] {
			seen[origin] = true
			out = append(out, origin)
		}
	}
	return out
}
