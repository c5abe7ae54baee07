package store

import (
	"errors"
	"sort"
	"sync"
	"time"
)

// DefaultFixLimit is the appeal allowance given to a newly seen user.
const DefaultFixLimit = 10

// ErrFixLimitExhausted indicates a user has no appeal uses left.
var ErrFixLimitExhausted = errors.New("store: appeal limit exhausted")

// UserRecord accumulates activity for one user identifier.
type UserRecord struct {
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
	Jobs      int       `json:"jobs"`
	FixLimit  int       `json:"fix_limit"`
	LastFix   time.Time `json:"last_fix"`
}

// Users persists per-user activity records.
type Users struct {
	path string

	mu      sync.Mutex
	records map[string]UserRecord
}

// NewUsers loads user records from path, starting empty if absent.
func NewUsers(path string) (*Users, error) {
	records := map[string]UserRecord{}
	if _, err := load(path, &records); err != nil {
		return nil, err
	}
	return &Users{path: path, records: records}, nil
}

// record returns id's record, creating it with defaults on first contact.
// Callers hold u.mu.
func (u *Users) record(id string, now time.Time) UserRecord {
	rec, ok := u.records[id]
	if !ok {
		rec.FirstSeen = now
		rec.FixLimit = DefaultFixLimit
	}
	rec.LastSeen = now
	return rec
}

// Touch marks id active at now, creating the record on first contact.
func (u *Users) Touch(id string, now time.Time) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.records[id] = u.record(id, now)
	return save(u.path, u.records)
}

// RecordJob counts a completed job against id.
func (u *Users) RecordJob(id string, now time.Time) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	rec := u.record(id, now)
	rec.Jobs++
	u.records[id] = rec
	return save(u.path, u.records)
}

// ConsumeFix charges one appeal use against id and returns the remaining
// allowance.
func (u *Users) ConsumeFix(id string, now time.Time) (int, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	rec := u.record(id, now)
	if rec.FixLimit <= 0 {
		return 0, ErrFixLimitExhausted
	}
	rec.FixLimit--
	rec.LastFix = now
	u.records[id] = rec
	return rec.FixLimit, save(u.path, u.records)
}

// SetFixLimit replaces id's appeal allowance.
func (u *Users) SetFixLimit(id string, n int, now time.Time) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	rec := u.record(id, now)
	rec.FixLimit = n
	u.records[id] = rec
	return save(u.path, u.records)
}

// Get returns id's record, if present.
func (u *Users) Get(id string) (UserRecord, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	rec, ok := u.records[id]
	return rec, ok
}

// Count returns the number of known users.
func (u *Users) Count() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.records)
}

// IDs returns the known user identifiers, sorted.
func (u *Users) IDs() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]string, 0, len(u.records))
	for id := range u.records {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
