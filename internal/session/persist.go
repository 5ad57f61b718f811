package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// sessionFile is the on-disk session: a single stored username whose
// presence alone is treated as proof of authentication. No token or expiry
// is modeled, mirroring the remote contract. A hardened deployment would
// replace this with a real credential; see DESIGN.md.
type sessionFile struct {
	Username string `yaml:"username"`
}

// DefaultPath returns the session file location under the user config
// directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving config dir: %w", err)
	}
	return filepath.Join(dir, "pancrascan", "session.yaml"), nil
}

// Save persists the current identity so the session survives restarts. A
// guard with no authenticated session saves nothing.
func (g *Guard) Save(path string) error {
	if !g.session.Authenticated {
		return nil
	}
	data, err := yaml.Marshal(sessionFile{Username: g.session.Identity})
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating session dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	return nil
}

// Restore loads a persisted identity, if one exists. A missing file is not
// an error; the guard simply stays unauthenticated.
func (g *Guard) Restore(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading session: %w", err)
	}

	var f sessionFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("decoding session: %w", err)
	}
	if f.Username == "" {
		return nil
	}
	g.session = Session{Identity: f.Username, Authenticated: true}
	return nil
}

// Discard removes the persisted session file. A missing file is fine.
func Discard(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing session: %w", err)
	}
	return nil
}
