package supervisor

// Status is a point-in-time snapshot of the supervisor for operator surfaces.
type Status struct {
	State         string   `json:"state"`
	ActiveSession string   `json:"active_session,omitempty"`
	SelfID        string   `json:"self_id,omitempty"`
	QRPending     bool     `json:"qr_pending"`
	Switching     bool     `json:"switching"`
	LastError     string   `json:"last_error,omitempty"`
	Sessions      []string `json:"sessions"`
	Capacity      int      `json:"capacity"`
}

// Status reports the current connection state and the stored session pool.
func (s *Supervisor) Status() Status {
	s.mu.Lock()
	st := Status{
		State:     s.state.String(),
		QRPending: s.qr != "",
		Switching: s.switching,
		Capacity:  s.registry.Capacity(),
	}
	if s.state != StateIdle {
		st.ActiveSession = s.current.Name
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	client := s.client
	open := s.state == StateOpen
	s.mu.Unlock()

	if open && client != nil {
		st.SelfID = client.SelfID()
	}

	sessions, err := s.registry.Scan()
	if err == nil {
		for _, sess := range sessions {
			st.Sessions = append(st.Sessions, sess.Name)
		}
	}
	return st
}
