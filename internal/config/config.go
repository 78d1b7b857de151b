package config

import "time"

// CollectorConfig is the root configuration for a collector instance.
type CollectorConfig struct {
	Dashboard   DashboardConfig   `yaml:"dashboard"`
	API         APIConfig         `yaml:"api"`
	Market      MarketConfig      `yaml:"market"`
	Capture     CaptureConfig     `yaml:"capture"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Storage     StorageConfig     `yaml:"storage"`
	Poller      PollerConfig      `yaml:"poller"`
	Database    DatabaseConfig    `yaml:"database"`
	Health      HealthConfig      `yaml:"health"`
	Log         LogConfig         `yaml:"log"`
}

// DashboardConfig holds the page opened for interactive login.
type DashboardConfig struct {
	URL string `yaml:"url"`
}

// APIConfig holds active-strike API settings.
type APIConfig struct {
	BaseURL        string        `yaml:"base_url"`
	StrikesPath    string        `yaml:"strikes_path"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxRetries     int           `yaml:"max_retries"`
	RetryBackoff   time.Duration `yaml:"retry_backoff"`
	ExpiredMessage string        `yaml:"expired_message"` // msg value signalling an expired session
	UserAgent      string        `yaml:"user_agent"`
}

// MarketConfig selects the instrument and trading day.
type MarketConfig struct {
	Asset    string `yaml:"asset"`    // stSelectedAsset (e.g. NIFTY)
	Mode     string `yaml:"mode"`     // stSelectedModeOfData
	Timezone string `yaml:"timezone"` // IANA name or "Local"
}

// CaptureConfig holds browser capture settings.
type CaptureConfig struct {
	Wait              time.Duration `yaml:"wait"`
	MaxAttempts       int           `yaml:"max_attempts"`
	TokenKey          string        `yaml:"token_key"`
	Headless          bool          `yaml:"headless"`
	CloseAfterCapture bool          `yaml:"close_after_capture"`
	ChromePath        string        `yaml:"chrome_path"`
	UserDataDir       string        `yaml:"user_data_dir"`
}

// CredentialsConfig holds the credential file locations.
type CredentialsConfig struct {
	CookiesFile string `yaml:"cookies_file"`
	TokenFile   string `yaml:"token_file"`
}

// StorageConfig holds the persisted table settings.
type StorageConfig struct {
	Path              string `yaml:"path"`
	Format            string `yaml:"format"` // csv | parquet
	PrunePreviousDays bool   `yaml:"prune_previous_days"`
}

// PollerConfig holds polling loop settings.
type PollerConfig struct {
	Interval          time.Duration `yaml:"interval"`
	MaxReauthFailures int           `yaml:"max_reauth_failures"`
	FetchTimeout      time.Duration `yaml:"fetch_timeout"`
}

// DatabaseConfig holds the optional TimescaleDB mirror.
type DatabaseConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Postgres DBConfig `yaml:"postgres"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// HealthConfig holds the health endpoint settings. Port 0 disables it.
type HealthConfig struct {
	Port int `yaml:"port"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}
