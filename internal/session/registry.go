// Package session enumerates and manages the persisted login sessions the
// supervisor rotates through.
//
// Registry state lives on disk, not in memory: every Scan re-reads the
// sessions directory so external cleanup (or another process removing a dir)
// is picked up on the next pass.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MaxSessions bounds how many credential bundles may be stored at once.
const MaxSessions = 10

// ErrCapacityExceeded indicates the registry already holds MaxSessions
// sessions.
var ErrCapacityExceeded = errors.New("session: registry at capacity")

// ErrAlreadyExists indicates a session with the requested name is stored.
var ErrAlreadyExists = errors.New("session: already exists")

// ErrNotFound indicates no stored session matches the requested name.
var ErrNotFound = errors.New("session: not found")

// Session identifies one stored credential bundle. The credential contents
// are opaque to numcheck; the messaging client reads and writes them.
type Session struct {
	Name     string
	Path     string
	Position int
}

// Registry scans and mutates the on-disk session store.
type Registry struct {
	root string
}

// NewRegistry creates a registry rooted at dir, creating it if needed.
func NewRegistry(dir string) (*Registry, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("session: registry directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create sessions directory: %w", err)
	}
	return &Registry{root: dir}, nil
}

// Root returns the directory backing the registry.
func (r *Registry) Root() string {
	return r.root
}

// Capacity returns the maximum number of sessions the registry admits.
func (r *Registry) Capacity() int {
	return MaxSessions
}

// Scan re-reads the session store and returns sessions in directory-listing
// order. Non-directory entries are ignored.
func (r *Registry) Scan() ([]Session, error) {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		return nil, fmt.Errorf("scan sessions: %w", err)
	}
	sessions := make([]Session, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		sessions = append(sessions, Session{
			Name:     entry.Name(),
			Path:     filepath.Join(r.root, entry.Name()),
			Position: len(sessions),
		})
	}
	return sessions, nil
}

// Admit creates storage for a new session. It fails with
// ErrCapacityExceeded once MaxSessions sessions exist and with
// ErrAlreadyExists when the name is taken.
func (r *Registry) Admit(name string) (Session, error) {
	if err := validateName(name); err != nil {
		return Session{}, err
	}

	existing, err := r.Scan()
	if err != nil {
		return Session{}, err
	}
	if len(existing) >= MaxSessions {
		return Session{}, ErrCapacityExceeded
	}

	path := filepath.Join(r.root, name)
	if _, err := os.Stat(path); err == nil {
		return Session{}, fmt.Errorf("%w: %s", ErrAlreadyExists, name)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return Session{}, fmt.Errorf("create session %s: %w", name, err)
	}
	return Session{Name: name, Path: path, Position: len(existing)}, nil
}

// Evict permanently deletes a session's credential storage.
func (r *Registry) Evict(s Session) error {
	if s.Path == "" || filepath.Dir(s.Path) != filepath.Clean(r.root) {
		return fmt.Errorf("session: refusing to evict path outside registry: %q", s.Path)
	}
	if err := os.RemoveAll(s.Path); err != nil {
		return fmt.Errorf("evict session %s: %w", s.Name, err)
	}
	return nil
}

// Find locates a stored session by name.
func (r *Registry) Find(name string) (Session, error) {
	sessions, err := r.Scan()
	if err != nil {
		return Session{}, err
	}
	for _, s := range sessions {
		if s.Name == name {
			return s, nil
		}
	}
	return Session{}, fmt.Errorf("%w: %s", ErrNotFound, name)
}

func validateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return errors.New("session: name required")
	}
	if trimmed != name || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("session: invalid name %q", name)
	}
	return nil
}
