package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/active-strike/internal/auth"
)

type fakeBrowser struct {
	navigated   []string
	cookieURLs  []string
	cookies     []auth.Cookie
	cookiesErr  error
	navigateErr error
	token       *string
	tokenErr    error
	closed      int
}

func (b *fakeBrowser) Navigate(_ context.Context, url string) error {
	b.navigated = append(b.navigated, url)
	return b.navigateErr
}

func (b *fakeBrowser) Cookies(_ context.Context, urls ...string) ([]auth.Cookie, error) {
	b.cookieURLs = urls
	return b.cookies, b.cookiesErr
}

func (b *fakeBrowser) LocalStorageItem(_ context.Context, key string) (*string, error) {
	return b.token, b.tokenErr
}

func (b *fakeBrowser) Close() error {
	b.closed++
	return nil
}

type savedCreds struct {
	cookies []auth.Cookie
	token   string
	calls   int
	err     error
}

func (s *savedCreds) Save(cookies []auth.Cookie, token string) error {
	s.calls++
	s.cookies = cookies
	s.token = token
	return s.err
}

func strPtr(s string) *string { return &s }

func newTestCapturer(t *testing.T, cfg Config, b *fakeBrowser, store *savedCreds) (*Capturer, *int) {
	t.Helper()
	launches := 0
	launch := func(context.Context) (Browser, error) {
		launches++
		return b, nil
	}
	noWait := func(ctx context.Context, d time.Duration) error { return ctx.Err() }
	return NewCapturer(cfg, launch, store, WithWaitFunc(noWait)), &launches
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.DashboardURL = "https://dash.example.com/active-strikes"
	cfg.CookieURLs = []string{"https://dash.example.com", "https://api.example.com"}
	cfg.Asset = "NIFTY"
	return cfg
}

func TestCapture_Success(t *testing.T) {
	b := &fakeBrowser{
		cookies: []auth.Cookie{{Name: "sid", Value: "abc"}, {Name: "_ga", Value: "GA1"}},
		token:   strPtr("tok-123"),
	}
	store := &savedCreds{}
	c, launches := newTestCapturer(t, testConfig(), b, store)

	res, err := c.Capture(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Cookies)
	assert.Equal(t, TokenFound, res.Token.Status)
	assert.True(t, res.Complete())
	assert.Equal(t, []string{"https://dash.example.com/active-strikes"}, b.navigated)
	assert.Equal(t, []string{"https://dash.example.com", "https://api.example.com"}, b.cookieURLs)
	assert.Equal(t, 1, store.calls)
	assert.Equal(t, "tok-123", store.token)
	assert.Len(t, store.cookies, 2)
	assert.Equal(t, 1, *launches)
	assert.Zero(t, b.closed, "session stays open by default")

	require.NoError(t, c.Close())
	assert.Equal(t, 1, b.closed)
}

func TestCapture_ReusesSession(t *testing.T) {
	b := &fakeBrowser{
		cookies: []auth.Cookie{{Name: "sid", Value: "abc"}},
		token:   strPtr("tok"),
	}
	c, launches := newTestCapturer(t, testConfig(), b, &savedCreds{})

	_, err := c.Capture(context.Background())
	require.NoError(t, err)
	_, err = c.Capture(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, *launches)
	assert.Len(t, b.navigated, 2)
}

func TestCapture_CloseAfterCapture(t *testing.T) {
	cfg := testConfig()
	cfg.CloseAfterCapture = true
	b := &fakeBrowser{
		cookies: []auth.Cookie{{Name: "sid", Value: "abc"}},
		token:   strPtr("tok"),
	}
	c, launches := newTestCapturer(t, cfg, b, &savedCreds{})

	_, err := c.Capture(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, b.closed)

	_, err = c.Capture(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, *launches)
	assert.Equal(t, 2, b.closed)
}

func TestCapture_TokenOutcomes(t *testing.T) {
	tests := []struct {
		name     string
		token    *string
		tokenErr error
		want     TokenStatus
	}{
		{"missing", nil, nil, TokenMissing},
		{"empty", strPtr(""), nil, TokenMissing},
		{"failed", nil, errors.New("evaluate: boom"), TokenFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &fakeBrowser{
				cookies:  []auth.Cookie{{Name: "sid", Value: "abc"}},
				token:    tt.token,
				tokenErr: tt.tokenErr,
			}
			store := &savedCreds{}
			c, _ := newTestCapturer(t, testConfig(), b, store)

			res, err := c.Capture(context.Background())
			require.NoError(t, err, "token problems are not fatal")

			assert.Equal(t, tt.want, res.Token.Status)
			assert.False(t, res.Complete())
			assert.Equal(t, 1, store.calls, "cookies are still saved")
			assert.Empty(t, store.token)
			if tt.want == TokenFailed {
				assert.Error(t, res.Token.Err)
			}
		})
	}
}

func TestCapture_NoCookies(t *testing.T) {
	b := &fakeBrowser{token: strPtr("tok")}
	store := &savedCreds{}
	c, _ := newTestCapturer(t, testConfig(), b, store)

	_, err := c.Capture(context.Background())
	require.ErrorIs(t, err, ErrNoCookies)
	assert.Zero(t, store.calls)
	assert.Equal(t, 1, b.closed, "failed session is released")
}

func TestCapture_ErrorPathsReleaseSession(t *testing.T) {
	tests := []struct {
		name    string
		browser *fakeBrowser
		store   *savedCreds
	}{
		{
			name:    "navigate",
			browser: &fakeBrowser{navigateErr: errors.New("net::ERR_NAME_NOT_RESOLVED")},
			store:   &savedCreds{},
		},
		{
			name:    "cookies",
			browser: &fakeBrowser{cookiesErr: errors.New("target closed")},
			store:   &savedCreds{},
		},
		{
			name: "save",
			browser: &fakeBrowser{
				cookies: []auth.Cookie{{Name: "sid", Value: "abc"}},
				token:   strPtr("tok"),
			},
			store: &savedCreds{err: errors.New("disk full")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, launches := newTestCapturer(t, testConfig(), tt.browser, tt.store)

			_, err := c.Capture(context.Background())
			require.Error(t, err)
			assert.Equal(t, 1, tt.browser.closed)

			// The next attempt launches a fresh session.
			_, _ = c.Capture(context.Background())
			assert.Equal(t, 2, *launches)
		})
	}
}

func TestCapture_LaunchFailure(t *testing.T) {
	launch := func(context.Context) (Browser, error) {
		return nil, errors.New("chrome not found")
	}
	c := NewCapturer(testConfig(), launch, &savedCreds{})

	_, err := c.Capture(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "launch browser")
	assert.NoError(t, c.Close())
}

func TestCapture_ContextCancelledDuringWait(t *testing.T) {
	b := &fakeBrowser{
		cookies: []auth.Cookie{{Name: "sid", Value: "abc"}},
		token:   strPtr("tok"),
	}
	store := &savedCreds{}
	cfg := testConfig()
	cfg.Wait = time.Hour
	c := NewCapturer(cfg, func(context.Context) (Browser, error) { return b, nil }, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Capture(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, store.calls)
	assert.Equal(t, 1, b.closed)
}

func TestCapture_DefaultCookieURL(t *testing.T) {
	cfg := testConfig()
	cfg.CookieURLs = nil
	b := &fakeBrowser{
		cookies: []auth.Cookie{{Name: "sid", Value: "abc"}},
		token:   strPtr("tok"),
	}
	c, _ := newTestCapturer(t, cfg, b, &savedCreds{})

	_, err := c.Capture(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{cfg.DashboardURL}, b.cookieURLs)
}

func TestTokenStatus_String(t *testing.T) {
	assert.Equal(t, "found", TokenFound.String())
	assert.Equal(t, "no token found", TokenMissing.String())
	assert.Equal(t, "extraction failed", TokenFailed.String())
	assert.Equal(t, "TokenStatus(9)", TokenStatus(9).String())
}

func TestSleep(t *testing.T) {
	require.NoError(t, sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleep(ctx, time.Hour), context.Canceled)
}
