// Package session stores the CLI login session for devkitd client commands.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// configDirName is the directory under XDG_CONFIG_HOME holding the session file.
	configDirName = "devkit"
	// fileName is the name of the session file.
	fileName = "session.json"
	// filePermissions for the session file (read/write for owner only).
	filePermissions = 0600
	// dirPermissions for the config directory.
	dirPermissions = 0700
)

// ErrNotLoggedIn indicates no valid session exists.
var ErrNotLoggedIn = errors.New("not logged in - run 'devkitd login' first")

// Session holds the connection and tokens for a devkit daemon.
type Session struct {
	ServerURL    string    `json:"server_url"`
	Username     string    `json:"username,omitempty"`
	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
}

// IsExpired returns true if the access token has expired.
// A session within 60 seconds of expiry counts as expired so callers
// refresh before the server rejects the token.
func (s *Session) IsExpired() bool {
	if s.ExpiresAt.IsZero() {
		return true
	}
	return time.Now().Add(60 * time.Second).After(s.ExpiresAt)
}

// HasRefreshToken returns true if a refresh token is available.
func (s *Session) HasRefreshToken() bool {
	return s.RefreshToken != ""
}

// Store manages session persistence on disk.
type Store struct {
	path string
}

// NewStore creates a session store at the default location.
func NewStore() (*Store, error) {
	path, err := sessionPath()
	if err != nil {
		return nil, err
	}
	return &Store{path: path}, nil
}

// NewStoreAt creates a session store backed by the given file path.
func NewStoreAt(path string) *Store {
	return &Store{path: path}
}

// sessionPath returns the path to the session file.
func sessionPath() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, configDirName, fileName), nil
}

// Load reads the current session from disk.
// Returns ErrNotLoggedIn if no session file exists.
func (s *Store) Load() (*Session, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotLoggedIn
		}
		return nil, err
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("corrupt session file %q: %w", s.path, err)
	}
	if sess.ServerURL == "" {
		return nil, ErrNotLoggedIn
	}
	return &sess, nil
}

// Save writes the session to disk with owner-only permissions.
func (s *Store) Save(sess *Session) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, filePermissions)
}

// UpdateTokens replaces the tokens of the stored session.
func (s *Store) UpdateTokens(accessToken, refreshToken string, expiresAt time.Time) error {
	sess, err := s.Load()
	if err != nil {
		return err
	}

	sess.AccessToken = accessToken
	sess.RefreshToken = refreshToken
	sess.ExpiresAt = expiresAt

	return s.Save(sess)
}

// Clear removes the session file (logout).
func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Path returns the session file path.
func (s *Store) Path() string {
	return s.path
}
