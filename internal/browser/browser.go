package browser

import (
	"context"

	"github.com/rickgao/active-strike/internal/auth"
)

// Browser is one live browser session.
type Browser interface {
	// Navigate loads url in the session's tab.
	Navigate(ctx context.Context, url string) error

	// Cookies returns every cookie that applies to the given URLs.
	Cookies(ctx context.Context, urls ...string) ([]auth.Cookie, error)

	// LocalStorageItem returns the local-storage value for key on the
	// current page, nil when the key is not set.
	LocalStorageItem(ctx context.Context, key string) (*string, error)

	// Close releases the session and the browser process behind it.
	Close() error
}

// Launcher starts a new browser session.
type Launcher func(ctx context.Context) (Browser, error)
