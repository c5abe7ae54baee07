// Package messaging defines the boundary to the external messaging-network
// client library.
//
// numcheck does not implement the wire protocol; it consumes a client that
// can be dialed from a persisted session directory and that reports its
// connection lifecycle over an event channel. The supervisor owns the only
// live client; every other component sees at most the Lookuper capability.
package messaging

import (
	"context"
	"strings"
	"time"
)

// DisconnectReason classifies a connection close as reported by the client
// library. The classification is authoritative; numcheck never second-guesses
// it.
type DisconnectReason int

const (
	// ReasonTransient indicates a recoverable network drop; the same session
	// may be redialed.
	ReasonTransient DisconnectReason = iota
	// ReasonLoggedOut indicates the network permanently invalidated the
	// session's credentials.
	ReasonLoggedOut
)

func (r DisconnectReason) String() string {
	if r == ReasonLoggedOut {
		return "logged_out"
	}
	return "transient"
}

// EventKind enumerates connection lifecycle events.
type EventKind int

const (
	// EventQR carries a fresh QR login payload for an unauthenticated session.
	EventQR EventKind = iota
	// EventOpen signals a completed login handshake.
	EventOpen
	// EventClosed signals the connection dropped; Reason says whether the
	// session survives.
	EventClosed
)

// ConnEvent is one connection lifecycle notification.
type ConnEvent struct {
	Kind      EventKind
	QRPayload string
	Reason    DisconnectReason
	Err       error
}

// Profile carries the metadata fetched for a registered identifier.
type Profile struct {
	Bio      string
	BioSetAt *time.Time
}

// Lookuper is the capability handed to verification jobs. It is safe for
// concurrent use; the underlying client serializes requests.
type Lookuper interface {
	// ExistenceCheck reports whether id is registered on the network.
	ExistenceCheck(ctx context.Context, id string) (bool, error)
	// FetchProfile returns bio metadata for a registered id.
	FetchProfile(ctx context.Context, id string) (Profile, error)
	// FetchBusinessStatus reports whether id is a business account.
	FetchBusinessStatus(ctx context.Context, id string) (bool, error)
}

// Client is the live connection handle bound to one session.
type Client interface {
	Lookuper

	// RequestPairingCode asks the network for a pairing code that links the
	// given phone number to this session.
	RequestPairingCode(ctx context.Context, phone string) (string, error)
	// SelfID returns the account identifier once the connection is open.
	SelfID() string
	// Logout invalidates the session server-side.
	Logout(ctx context.Context) error
	// Close tears the connection down without touching credentials.
	Close() error
}

// Dialer opens a client from a persisted session directory. The returned
// channel emits lifecycle events until the client is closed; dialing itself
// fails only on local errors (unreadable credentials), while authentication
// failures surface as EventClosed with ReasonLoggedOut.
type Dialer interface {
	Dial(ctx context.Context, sessionDir string) (Client, <-chan ConnEvent, error)
}

// FormatPairingCode groups a raw pairing code into dash-separated blocks of
// four for display.
func FormatPairingCode(code string) string {
	code = strings.TrimSpace(code)
	if len(code) <= 4 {
		return code
	}
	var parts []string
	for len(code) > 4 {
		parts = append(parts, code[:4])
		code = code[4:]
	}
	parts = append(parts, code)
	return strings.Join(parts, "-")
}
