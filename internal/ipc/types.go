package ipc

import "time"

// PingRequest checks daemon liveness.
type PingRequest struct{}

// PingResponse reports liveness and the daemon PID.
type PingResponse struct {
	PID int `json:"pid"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon and connection status.
type StatusResponse struct {
	Running       bool     `json:"running"`
	PID           int      `json:"pid"`
	LockPath      string   `json:"lock_path"`
	HistoryDBPath string   `json:"history_db_path"`
	State         string   `json:"state"`
	ActiveSession string   `json:"active_session,omitempty"`
	SelfID        string   `json:"self_id,omitempty"`
	QRPending     bool     `json:"qr_pending"`
	LastError     string   `json:"last_error,omitempty"`
	Sessions      []string `json:"sessions"`
	Capacity      int      `json:"capacity"`
	KnownUsers    int      `json:"known_users"`
	Public        bool     `json:"public"`
}

// SessionsRequest lists stored sessions.
type SessionsRequest struct{}

// SessionsResponse contains the stored session pool.
type SessionsResponse struct {
	Sessions []string `json:"sessions"`
	Active   string   `json:"active,omitempty"`
	Capacity int      `json:"capacity"`
}

// RemoveSessionRequest evicts one stored session by name.
type RemoveSessionRequest struct {
	Name string `json:"name"`
}

// RemoveSessionResponse acknowledges an eviction.
type RemoveSessionResponse struct {
	Removed bool `json:"removed"`
}

// PairRequest starts a pairing login for a phone identifier.
type PairRequest struct {
	Phone string `json:"phone"`
}

// PairResponse carries the dash-grouped pairing code.
type PairResponse struct {
	Code string `json:"code"`
}

// QRRequest fetches the pending QR login payload.
type QRRequest struct{}

// QRResponse carries the QR payload, empty when none is pending.
type QRResponse struct {
	Payload string `json:"payload"`
}

// VerifyRequest runs a verification job.
type VerifyRequest struct {
	Kind string   `json:"kind"`
	IDs  []string `json:"ids"`
}

// RangeRequest runs a range check over generated prefix+counter
// identifiers.
type RangeRequest struct {
	Prefix string `json:"prefix"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
}

// VerifyResult is the per-identifier outcome as shipped over IPC.
type VerifyResult struct {
	ID            string `json:"id"`
	Registered    bool   `json:"registered"`
	Confidence    int    `json:"confidence,omitempty"`
	Repetitive    bool   `json:"repetitive,omitempty"`
	Bio           string `json:"bio,omitempty"`
	BioYear       int    `json:"bio_year,omitempty"`
	Business      bool   `json:"business,omitempty"`
	BioConfidence int    `json:"bio_confidence,omitempty"`
	Err           string `json:"error,omitempty"`
}

// VerifyResponse summarizes a finished job.
type VerifyResponse struct {
	JobID        string         `json:"job_id"`
	Kind         string         `json:"kind"`
	Label        string         `json:"label,omitempty"`
	Total        int            `json:"total"`
	Registered   int            `json:"registered"`
	Unregistered int            `json:"unregistered"`
	Failed       int            `json:"failed"`
	RejectedRaw  []string       `json:"rejected_raw,omitempty"`
	ReportPath   string         `json:"report_path"`
	ReportText   string         `json:"report_text"`
	Results      []VerifyResult `json:"results"`
}

// AppealRequest sends one unblock appeal.
type AppealRequest struct {
	ID string `json:"id"`
}

// AppealResponse reports the sent appeal's subject line.
type AppealResponse struct {
	Subject string `json:"subject"`
}

// HistoryRequest lists recent jobs.
type HistoryRequest struct {
	Limit int `json:"limit"`
}

// HistoryJob is one recorded job as shipped over IPC.
type HistoryJob struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	RequestedBy  string    `json:"requested_by,omitempty"`
	Total        int       `json:"total"`
	Registered   int       `json:"registered"`
	Unregistered int       `json:"unregistered"`
	Failed       int       `json:"failed"`
	ReportPath   string    `json:"report_path,omitempty"`
	FinishedAt   time.Time `json:"finished_at"`
}

// HistoryResponse contains recent jobs, newest first.
type HistoryResponse struct {
	Jobs []HistoryJob `json:"jobs"`
}

// AccessRequest mutates or reads the access stores.
type AccessRequest struct {
	// Action is one of allow-add, allow-remove, allow-list, admin-add,
	// admin-remove, admin-list, premium-grant, premium-revoke,
	// premium-list, public-on, public-off, maintenance-on,
	// maintenance-off, limit-set.
	Action string `json:"action"`
	ID     string `json:"id,omitempty"`
	Days   int    `json:"days,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// AccessResponse lists store contents after the action.
type AccessResponse struct {
	IDs     []string `json:"ids,omitempty"`
	Expires []string `json:"expires,omitempty"`
}

// TemplateRequest mutates or reads the appeal template store.
type TemplateRequest struct {
	// Action is one of add, remove, activate, list.
	Action  string `json:"action"`
	ID      int    `json:"id,omitempty"`
	To      string `json:"to,omitempty"`
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body,omitempty"`
}

// TemplateInfo is one stored appeal template as shipped over IPC. The body
// is omitted from listings.
type TemplateInfo struct {
	ID      int    `json:"id"`
	To      string `json:"to,omitempty"`
	Subject string `json:"subject"`
	Active  bool   `json:"active"`
}

// TemplateResponse lists the template store after the action.
type TemplateResponse struct {
	Templates []TemplateInfo `json:"templates"`
}

// UserInfoRequest reads one user's activity record, or lists all known
// users when ID is empty.
type UserInfoRequest struct {
	ID string `json:"id,omitempty"`
}

// UserInfoResponse carries a user record or the known user identifiers.
type UserInfoResponse struct {
	Known     bool      `json:"known"`
	IDs       []string  `json:"ids,omitempty"`
	FirstSeen time.Time `json:"first_seen,omitempty"`
	LastSeen  time.Time `json:"last_seen,omitempty"`
	LastFix   time.Time `json:"last_fix,omitempty"`
	Jobs      int       `json:"jobs"`
	FixLimit  int       `json:"fix_limit"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
