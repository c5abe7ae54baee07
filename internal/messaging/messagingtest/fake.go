// Package messagingtest provides deterministic fakes for the messaging
// client boundary.
package messagingtest

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"numcheck/internal/messaging"
)

// ErrLookup is returned for identifiers scripted to fail.
var ErrLookup = errors.New("messagingtest: scripted lookup failure")

// Account scripts the directory of one registered identifier.
type Account struct {
	Bio      string
	BioSetAt *time.Time
	Business bool
}

// Directory is a scriptable Lookuper backed by in-memory accounts.
type Directory struct {
	mu          sync.Mutex
	accounts    map[string]Account
	failing     map[string]struct{}
	profileFail map[string]struct{}
	calls       int
}

// NewDirectory builds an empty directory.
func NewDirectory() *Directory {
	return &Directory{
		accounts:    make(map[string]Account),
		failing:     make(map[string]struct{}),
		profileFail: make(map[string]struct{}),
	}
}

// Register adds a registered identifier with its profile.
func (d *Directory) Register(id string, acct Account) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.accounts[id] = acct
}

// FailLookups makes every lookup for id return ErrLookup.
func (d *Directory) FailLookups(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failing[id] = struct{}{}
}

// FailProfileLookups makes only FetchProfile fail for id; existence and
// business lookups keep working.
func (d *Directory) FailProfileLookups(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.profileFail[id] = struct{}{}
}

// Calls reports how many lookup calls the directory served.
func (d *Directory) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func (d *Directory) ExistenceCheck(_ context.Context, id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if _, ok := d.failing[id]; ok {
		return false, ErrLookup
	}
	_, ok := d.accounts[id]
	return ok, nil
}

func (d *Directory) FetchProfile(_ context.Context, id string) (messaging.Profile, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if _, ok := d.failing[id]; ok {
		return messaging.Profile{}, ErrLookup
	}
	if _, ok := d.profileFail[id]; ok {
		return messaging.Profile{}, ErrLookup
	}
	acct, ok := d.accounts[id]
	if !ok {
		return messaging.Profile{}, errors.New("messagingtest: not registered")
	}
	return messaging.Profile{Bio: acct.Bio, BioSetAt: acct.BioSetAt}, nil
}

func (d *Directory) FetchBusinessStatus(_ context.Context, id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if _, ok := d.failing[id]; ok {
		return false, ErrLookup
	}
	return d.accounts[id].Business, nil
}

// Client is a fake messaging.Client whose lifecycle the test controls.
type Client struct {
	*Directory

	mu        sync.Mutex
	self      string
	pairing   string
	closed    bool
	events    chan messaging.ConnEvent
	loggedOut bool
}

// SelfID implements messaging.Client.
func (c *Client) SelfID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.self
}

// RequestPairingCode returns the scripted pairing code.
func (c *Client) RequestPairingCode(context.Context, string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pairing == "" {
		return "", errors.New("messagingtest: no pairing code scripted")
	}
	return c.pairing, nil
}

// Logout marks the session invalidated.
func (c *Client) Logout(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loggedOut = true
	return nil
}

// Close shuts the event stream down.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.events)
	}
	return nil
}

// Closed reports whether Close was called.
func (c *Client) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Emit pushes a lifecycle event to the supervisor, if the client is open.
func (c *Client) Emit(ev messaging.ConnEvent) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	events := c.events
	c.mu.Unlock()
	events <- ev
}

// SessionScript controls how the dialer treats one session directory.
type SessionScript struct {
	// AuthFail makes the session emit a logged-out close instead of opening.
	AuthFail bool
	// SelfID reported once open.
	SelfID string
	// PairingCode returned by RequestPairingCode.
	PairingCode string
}

// Dialer is a fake messaging.Dialer scripted per session name.
type Dialer struct {
	Directory *Directory

	mu      sync.Mutex
	scripts map[string]SessionScript
	clients map[string]*Client
	dials   []string
}

// NewDialer builds a dialer over the given directory.
func NewDialer(dir *Directory) *Dialer {
	if dir == nil {
		dir = NewDirectory()
	}
	return &Dialer{
		Directory: dir,
		scripts:   make(map[string]SessionScript),
		clients:   make(map[string]*Client),
	}
}

// Script sets the behavior for a session name.
func (d *Dialer) Script(name string, script SessionScript) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scripts[name] = script
}

// Dials returns the session names dialed, in order.
func (d *Dialer) Dials() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.dials...)
}

// ClientFor returns the live fake client for a session name, if dialed.
func (d *Dialer) ClientFor(name string) *Client {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clients[name]
}

// Dial implements messaging.Dialer. Successful sessions emit EventOpen
// asynchronously; auth failures emit EventClosed with ReasonLoggedOut.
func (d *Dialer) Dial(_ context.Context, sessionDir string) (messaging.Client, <-chan messaging.ConnEvent, error) {
	name := filepath.Base(sessionDir)

	d.mu.Lock()
	script := d.scripts[name]
	d.dials = append(d.dials, name)
	client := &Client{
		Directory: d.Directory,
		self:      script.SelfID,
		pairing:   script.PairingCode,
		events:    make(chan messaging.ConnEvent, 8),
	}
	d.clients[name] = client
	d.mu.Unlock()

	if script.AuthFail {
		client.events <- messaging.ConnEvent{Kind: messaging.EventClosed, Reason: messaging.ReasonLoggedOut}
	} else {
		client.events <- messaging.ConnEvent{Kind: messaging.EventOpen}
	}
	return client, client.events, nil
}
