package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Validate checks that all required fields are set and values are valid.
func (c *CollectorConfig) Validate() error {
	if _, err := url.ParseRequestURI(c.Dashboard.URL); err != nil {
		return fmt.Errorf("dashboard.url is invalid: %q", c.Dashboard.URL)
	}
	if _, err := url.ParseRequestURI(c.API.BaseURL); err != nil {
		return fmt.Errorf("api.base_url is invalid: %q", c.API.BaseURL)
	}
	if !strings.HasPrefix(c.API.StrikesPath, "/") {
		return errors.New("api.strikes_path must start with /")
	}
	if c.API.MaxRetries < 0 {
		return errors.New("api.max_retries must be >= 0")
	}

	if c.Market.Asset == "" {
		return errors.New("market.asset is required")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("market.timezone %q: %w", c.Market.Timezone, err)
	}

	if c.Capture.MaxAttempts < 1 {
		return errors.New("capture.max_attempts must be >= 1")
	}
	if c.Capture.Wait < 0 {
		return errors.New("capture.wait must be >= 0")
	}

	if c.Credentials.CookiesFile == c.Credentials.TokenFile {
		return errors.New("credentials.cookies_file and credentials.token_file must differ")
	}

	switch strings.ToLower(c.Storage.Format) {
	case "csv", "parquet":
	default:
		return fmt.Errorf("storage.format must be csv or parquet, got %q", c.Storage.Format)
	}

	if c.Poller.Interval < time.Second {
		return fmt.Errorf("poller.interval must be >= 1s, got %v", c.Poller.Interval)
	}
	if c.Poller.MaxReauthFailures < 1 {
		return errors.New("poller.max_reauth_failures must be >= 1")
	}

	if c.Database.Enabled {
		if err := c.Database.Postgres.validate("database.postgres"); err != nil {
			return err
		}
	}

	if c.Health.Port < 0 || c.Health.Port > 65535 {
		return fmt.Errorf("health.port must be between 0 and 65535, got %d", c.Health.Port)
	}

	return nil
}

// Location resolves the market timezone used to decide "today".
func (c *CollectorConfig) Location() (*time.Location, error) {
	if c.Market.Timezone == "" || strings.EqualFold(c.Market.Timezone, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(c.Market.Timezone)
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
