package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultDashboardURL      = "https://www.oipulse.com/app/options-analysis/active-strikes-iv"
	DefaultAPIBaseURL        = "https://api.oipulse.com"
	DefaultStrikesPath       = "/api/active-strike-oi/getselectedactivestrikeivalldata"
	DefaultAPITimeout        = 30 * time.Second
	DefaultRetryBackoff      = time.Second
	DefaultExpiredMessage    = "!! Cookie has expired. Please login again."
	DefaultUserAgent         = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
	DefaultAsset             = "NIFTY"
	DefaultMode              = "live"
	DefaultTimezone          = "Local"
	DefaultCaptureWait       = 60 * time.Second
	DefaultCaptureAttempts   = 3
	DefaultTokenKey          = "token"
	DefaultCookiesFile       = "cookies.json"
	DefaultTokenFile         = "token.json"
	DefaultStoragePath       = "live_data.csv"
	DefaultStorageFormat     = "csv"
	DefaultPollInterval      = 5 * time.Minute
	DefaultMaxReauthFailures = 3
	DefaultFetchTimeout      = 45 * time.Second
	DefaultDBPort            = 5432
	DefaultDBSSLMode         = "prefer"
	DefaultMaxConns          = 4
	DefaultMinConns          = 1
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "text"
)

func (c *CollectorConfig) applyDefaults() {
	if c.Dashboard.URL == "" {
		c.Dashboard.URL = DefaultDashboardURL
	}

	// API defaults
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultAPIBaseURL
	}
	if c.API.StrikesPath == "" {
		c.API.StrikesPath = DefaultStrikesPath
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.RetryBackoff == 0 {
		c.API.RetryBackoff = DefaultRetryBackoff
	}
	if c.API.ExpiredMessage == "" {
		c.API.ExpiredMessage = DefaultExpiredMessage
	}
	if c.API.UserAgent == "" {
		c.API.UserAgent = DefaultUserAgent
	}

	// Market defaults
	if c.Market.Asset == "" {
		c.Market.Asset = DefaultAsset
	}
	if c.Market.Mode == "" {
		c.Market.Mode = DefaultMode
	}
	if c.Market.Timezone == "" {
		c.Market.Timezone = DefaultTimezone
	}

	// Capture defaults
	if c.Capture.Wait == 0 {
		c.Capture.Wait = DefaultCaptureWait
	}
	if c.Capture.MaxAttempts == 0 {
		c.Capture.MaxAttempts = DefaultCaptureAttempts
	}
	if c.Capture.TokenKey == "" {
		c.Capture.TokenKey = DefaultTokenKey
	}

	if c.Credentials.CookiesFile == "" {
		c.Credentials.CookiesFile = DefaultCookiesFile
	}
	if c.Credentials.TokenFile == "" {
		c.Credentials.TokenFile = DefaultTokenFile
	}

	if c.Storage.Path == "" {
		c.Storage.Path = DefaultStoragePath
	}
	if c.Storage.Format == "" {
		c.Storage.Format = DefaultStorageFormat
	}

	// Poller defaults
	if c.Poller.Interval == 0 {
		c.Poller.Interval = DefaultPollInterval
	}
	if c.Poller.MaxReauthFailures == 0 {
		c.Poller.MaxReauthFailures = DefaultMaxReauthFailures
	}
	if c.Poller.FetchTimeout == 0 {
		c.Poller.FetchTimeout = DefaultFetchTimeout
	}

	// Database defaults
	if c.Database.Enabled {
		applyDBDefaults(&c.Database.Postgres)
	}

	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
