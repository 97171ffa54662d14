// Package credentials keeps the client-side session state: the API token,
// the CSRF token and the preferred UI language.
package credentials

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultLang is used when no language has been chosen.
const DefaultLang = "en"

// Store is a YAML-backed credential file. The zero value is usable and
// behaves like an empty file that is never saved.
type Store struct {
	mu   sync.RWMutex
	path string
	data storeData

	// env overrides, never persisted
	authOverride string
	csrfOverride string
}

type storeData struct {
	AuthToken string `yaml:"auth_token,omitempty"`
	CSRFToken string `yaml:"csrf_token,omitempty"`
	Lang      string `yaml:"lang,omitempty"`
}

// Load reads the credential file at path. A missing file yields an empty store.
func Load(path string) (*Store, error) {
	s := &Store{path: path}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	if err := yaml.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("parse credentials %s: %w", path, err)
	}
	return s, nil
}

// WithOverrides returns s with tokens that take precedence over the file.
// Empty values leave the stored token in effect.
func (s *Store) WithOverrides(authToken, csrfToken string) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authOverride = authToken
	s.csrfOverride = csrfToken
	return s
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// AuthToken returns the bearer token sent as "Authorization: Token <t>".
func (s *Store) AuthToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.authOverride != "" {
		return s.authOverride
	}
	return s.data.AuthToken
}

// CSRFToken returns the token sent as X-CSRFToken on state-changing calls.
func (s *Store) CSRFToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.csrfOverride != "" {
		return s.csrfOverride
	}
	return s.data.CSRFToken
}

// Lang returns the stored language code, or DefaultLang.
func (s *Store) Lang() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data.Lang == "" {
		return DefaultLang
	}
	return s.data.Lang
}

func (s *Store) SetAuthToken(token string) {
	s.mu.Lock()
	s.data.AuthToken = strings.TrimSpace(token)
	s.mu.Unlock()
}

// ClearAuthToken forgets the stored token and any override.
func (s *Store) ClearAuthToken() {
	s.mu.Lock()
	s.data.AuthToken = ""
	s.authOverride = ""
	s.mu.Unlock()
}

func (s *Store) SetCSRFToken(token string) {
	s.mu.Lock()
	s.data.CSRFToken = strings.TrimSpace(token)
	s.mu.Unlock()
}

func (s *Store) SetLang(lang string) {
	s.mu.Lock()
	s.data.Lang = strings.ToLower(strings.TrimSpace(lang))
	s.mu.Unlock()
}

// Save writes the store back to its file with owner-only permissions.
func (s *Store) Save() error {
	if s.path == "" {
		return errors.New("credentials store has no file path")
	}

	s.mu.RLock()
	raw, err := yaml.Marshal(s.data)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

// CookieValue extracts a named cookie from a raw Cookie header
// ("a=1; csrftoken=xyz"). Values are URL-decoded. Returns "" if absent.
func CookieValue(header, name string) string {
	if header == "" || name == "" {
		return ""
	}
	for _, part := range strings.Split(header, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || k != name {
			continue
		}
		if decoded, err := url.PathUnescape(v); err == nil {
			return decoded
		}
		return v
	}
	return ""
}
