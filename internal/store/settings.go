package store

import "sync"

// Settings holds runtime toggles the operator can flip without restarting.
type Settings struct {
	path string

	mu    sync.Mutex
	state settingsState
}

type settingsState struct {
	// Public opens verification commands to users outside the allowlist.
	Public bool `json:"public"`
	// Maintenance rejects all non-owner commands.
	Maintenance bool `json:"maintenance"`
}

// NewSettings loads settings from path, starting with defaults if absent.
func NewSettings(path string) (*Settings, error) {
	s := &Settings{path: path}
	if _, err := load(path, &s.state); err != nil {
		return nil, err
	}
	return s, nil
}

// Public reports whether public access is enabled.
func (s *Settings) Public() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Public
}

// SetPublic flips public access and persists.
func (s *Settings) SetPublic(on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Public = on
	return save(s.path, s.state)
}

// Maintenance reports whether maintenance mode is active.
func (s *Settings) Maintenance() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Maintenance
}

// SetMaintenance flips maintenance mode and persists.
func (s *Settings) SetMaintenance(on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Maintenance = on
	return save(s.path, s.state)
}
