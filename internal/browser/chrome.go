package browser

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/rickgao/active-strike/internal/auth"
)

// ChromeOptions configures the Chrome process.
type ChromeOptions struct {
	Headless    bool
	ExecPath    string // empty uses the first Chrome found on PATH
	UserDataDir string // empty uses a throwaway profile
}

// NewChromeLauncher returns a Launcher backed by a local Chrome over the
// DevTools protocol.
func NewChromeLauncher(opts ChromeOptions) Launcher {
	return func(ctx context.Context) (Browser, error) {
		sess, err := startChrome(opts)
		if err != nil {
			return nil, err
		}
		return sess, nil
	}
}

type chromeSession struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
}

func startChrome(opts ChromeOptions) (*chromeSession, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("start-maximized", true),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.UserDataDir != "" {
		allocOpts = append(allocOpts, chromedp.UserDataDir(opts.UserDataDir))
	}

	// The session outlives any single capture call, so it hangs off Background.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	// An empty Run starts the browser.
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("start chrome: %w", err)
	}

	return &chromeSession{ctx: ctx, cancel: cancel, allocCancel: allocCancel}, nil
}

// run executes actions on the session, aborting when the caller's ctx ends.
func (s *chromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	return s.run(ctx, chromedp.Navigate(url))
}

func (s *chromeSession) Cookies(ctx context.Context, urls ...string) ([]auth.Cookie, error) {
	var raw []*network.Cookie
	err := s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		raw, err = network.GetCookies().WithUrls(urls).Do(ctx)
		return err
	}))
	if err != nil {
		return nil, err
	}

	cookies := make([]auth.Cookie, 0, len(raw))
	for _, c := range raw {
		expiry := c.Expires
		if c.Session || expiry < 0 {
			expiry = 0
		}
		cookies = append(cookies, auth.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expiry:   expiry,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
		})
	}
	return cookies, nil
}

func (s *chromeSession) LocalStorageItem(ctx context.Context, key string) (*string, error) {
	quoted, err := json.Marshal(key)
	if err != nil {
		return nil, err
	}

	// JSON.stringify keeps null distinguishable from an empty string.
	var encoded string
	expr := fmt.Sprintf("JSON.stringify(window.localStorage.getItem(%s))", quoted)
	if err := s.run(ctx, chromedp.Evaluate(expr, &encoded)); err != nil {
		return nil, err
	}

	var value *string
	if err := json.Unmarshal([]byte(encoded), &value); err != nil {
		return nil, fmt.Errorf("decode local storage value: %w", err)
	}
	return value, nil
}

func (s *chromeSession) Close() error {
	s.cancel()
	s.allocCancel()
	return nil
}
