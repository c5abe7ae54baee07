package store

import (
	"sort"
	"sync"
	"time"
)

// Premium tracks time-limited premium grants per user identifier.
type Premium struct {
	path string

	mu     sync.Mutex
	expiry map[string]time.Time
}

// Grant is a premium entry as listed for operator surfaces.
type Grant struct {
	ID      string    `json:"id"`
	Expires time.Time `json:"expires"`
}

// NewPremium loads premium grants from path, starting empty if absent.
func NewPremium(path string) (*Premium, error) {
	expiry := map[string]time.Time{}
	if _, err := load(path, &expiry); err != nil {
		return nil, err
	}
	return &Premium{path: path, expiry: expiry}, nil
}

// Grant gives id premium until the given time and persists.
func (p *Premium) Grant(id string, until time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expiry[id] = until
	return save(p.path, p.expiry)
}

// Revoke removes id's grant and persists. Revoking an absent id is a no-op.
func (p *Premium) Revoke(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.expiry[id]; !ok {
		return nil
	}
	delete(p.expiry, id)
	return save(p.path, p.expiry)
}

// Active reports whether id holds an unexpired grant at now.
func (p *Premium) Active(id string, now time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	until, ok := p.expiry[id]
	return ok && now.Before(until)
}

// Sweep removes expired grants, persists if any were removed, and returns
// the removed identifiers.
func (p *Premium) Sweep(now time.Time) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var removed []string
	for id, until := range p.expiry {
		if !now.Before(until) {
			removed = append(removed, id)
			delete(p.expiry, id)
		}
	}
	if len(removed) == 0 {
		return nil, nil
	}
	sort.Strings(removed)
	return removed, save(p.path, p.expiry)
}

// List returns all grants sorted by identifier.
func (p *Premium) List() []Grant {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Grant, 0, len(p.expiry))
	for id, until := range p.expiry {
		out = append(out, Grant{ID: id, Expires: until})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
