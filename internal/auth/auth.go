// Package auth persists the dashboard session captured from the browser.
//
// Two independent files make up a session:
//   - cookies file: JSON array of cookie objects (at least name/value)
//   - token file: {"token": "<bearer token>"}
//
// Loading never fails: missing or malformed files read as empty.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"

	"github.com/rickgao/active-strike/internal/model"
)

// Cookie is a browser cookie as persisted in the cookies file.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain,omitempty"`
	Path     string  `json:"path,omitempty"`
	Expiry   float64 `json:"expiry,omitempty"` // Seconds since epoch, 0 for session cookies
	HTTPOnly bool    `json:"httpOnly,omitempty"`
	Secure   bool    `json:"secure,omitempty"`
}

type tokenFile struct {
	Token string `json:"token"`
}

// Store reads and writes the credential files.
type Store struct {
	cookiesPath string
	tokenPath   string
	logger      *slog.Logger
}

// NewStore creates a Store for the given file paths.
func NewStore(cookiesPath, tokenPath string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		cookiesPath: cookiesPath,
		tokenPath:   tokenPath,
		logger:      logger,
	}
}

// Exists reports whether both credential files are present.
func (s *Store) Exists() bool {
	return fileExists(s.cookiesPath) && fileExists(s.tokenPath)
}

// Load reads both files. Missing or malformed files yield empty values.
func (s *Store) Load() model.Credentials {
	return model.Credentials{
		Cookies: s.loadCookies(),
		Token:   s.loadToken(),
	}
}

func (s *Store) loadCookies() map[string]string {
	cookies := map[string]string{}

	data, err := os.ReadFile(s.cookiesPath)
	if errors.Is(err, fs.ErrNotExist) {
		return cookies
	}
	if err != nil {
		s.logger.Warn("failed to read cookies", "path", s.cookiesPath, "err", err)
		return cookies
	}

	var list []Cookie
	if err := json.Unmarshal(data, &list); err != nil {
		s.logger.Warn("failed to load cookies", "path", s.cookiesPath, "err", err)
		return cookies
	}

	for _, c := range list {
		if c.Name == "" {
			continue
		}
		cookies[c.Name] = c.Value
	}
	return cookies
}

func (s *Store) loadToken() string {
	data, err := os.ReadFile(s.tokenPath)
	if errors.Is(err, fs.ErrNotExist) {
		return ""
	}
	if err != nil {
		s.logger.Warn("failed to read token", "path", s.tokenPath, "err", err)
		return ""
	}

	var tf tokenFile
	if err := json.Unmarshal(data, &tf); err != nil {
		s.logger.Warn("failed to load token", "path", s.tokenPath, "err", err)
		return ""
	}
	return tf.Token
}

// Save overwrites both files. An empty token removes the token file.
func (s *Store) Save(cookies []Cookie, token string) error {
	if cookies == nil {
		cookies = []Cookie{}
	}
	data, err := json.Marshal(cookies)
	if err != nil {
		return fmt.Errorf("marshal cookies: %w", err)
	}
	if err := writeFile(s.cookiesPath, data); err != nil {
		return fmt.Errorf("write cookies: %w", err)
	}
	s.logger.Info("cookies saved", "path", s.cookiesPath, "count", len(cookies))

	if token == "" {
		if err := removeIfExists(s.tokenPath); err != nil {
			return fmt.Errorf("remove stale token: %w", err)
		}
		return nil
	}

	data, err = json.Marshal(tokenFile{Token: token})
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}
	if err := writeFile(s.tokenPath, data); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	s.logger.Info("token saved", "path", s.tokenPath)

	return nil
}

// Clear deletes both files. Files that are already gone are ignored.
func (s *Store) Clear() error {
	if err := removeIfExists(s.cookiesPath); err != nil {
		return fmt.Errorf("remove cookies: %w", err)
	}
	if err := removeIfExists(s.tokenPath); err != nil {
		return fmt.Errorf("remove token: %w", err)
	}
	s.logger.Info("credentials cleared")
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// writeFile atomically replaces path with data. New files are owner-only.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return renameio.WriteFile(path, data, 0o600)
}
