package store

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrDenied indicates the user may not use verification commands.
var ErrDenied = errors.New("store: access denied")

// ErrMaintenance indicates the agent is in maintenance mode.
var ErrMaintenance = errors.New("store: maintenance mode")

// CooldownError indicates the user must wait before the next command.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("store: cooling down for %s", e.Remaining.Round(time.Second))
}

// Gate decides whether a user may run verification commands. Precedence:
// the owner always may, maintenance mode blocks everyone else, then admins,
// premium holders and allowlisted users pass. With public access enabled any
// user passes. Cooldown applies to everyone except the owner, admins and
// premium holders.
type Gate struct {
	owner     string
	admins    *Roster
	allowlist *Roster
	premium   *Premium
	settings  *Settings
	cooldown  time.Duration

	mu      sync.Mutex
	lastUse map[string]time.Time
}

// NewGate wires a gate over the given stores.
func NewGate(owner string, admins, allowlist *Roster, premium *Premium, settings *Settings, cooldown time.Duration) *Gate {
	return &Gate{
		owner:     owner,
		admins:    admins,
		allowlist: allowlist,
		premium:   premium,
		settings:  settings,
		cooldown:  cooldown,
		lastUse:   make(map[string]time.Time),
	}
}

// IsOwner reports whether id is the configured owner.
func (g *Gate) IsOwner(id string) bool {
	return g.owner != "" && id == g.owner
}

// IsAdmin reports whether id is the owner or an admin.
func (g *Gate) IsAdmin(id string) bool {
	return g.IsOwner(id) || g.admins.Contains(id)
}

// Check decides whether id may run a verification command at now. A nil
// return marks the use for cooldown accounting.
func (g *Gate) Check(id string, now time.Time) error {
	if g.IsOwner(id) {
		return nil
	}
	if g.settings.Maintenance() {
		return ErrMaintenance
	}

	admin := g.admins.Contains(id)
	premium := g.premium.Active(id, now)
	allowed := admin || premium || g.allowlist.Contains(id) || g.settings.Public()
	if !allowed {
		return ErrDenied
	}
	if admin || premium {
		return nil
	}

	if g.cooldown > 0 {
		g.mu.Lock()
		defer g.mu.Unlock()
		if last, ok := g.lastUse[id]; ok {
			if wait := g.cooldown - now.Sub(last); wait > 0 {
				return &CooldownError{Remaining: wait}
			}
		}
		g.lastUse[id] = now
	}
	return nil
}
