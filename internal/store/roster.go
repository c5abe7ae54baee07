package store

import (
	"sort"
	"sync"
)

// Roster is a persistent set of user identifiers, used for the allowlist and
// the admin list.
type Roster struct {
	path string

	mu  sync.Mutex
	ids map[string]struct{}
}

// NewRoster loads a roster from path, starting empty if the file is absent.
func NewRoster(path string) (*Roster, error) {
	var stored []string
	if _, err := load(path, &stored); err != nil {
		return nil, err
	}
	ids := make(map[string]struct{}, len(stored))
	for _, id := range stored {
		ids[id] = struct{}{}
	}
	return &Roster{path: path, ids: ids}, nil
}

// Add inserts id and persists. Adding a present id is a no-op.
func (r *Roster) Add(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ids[id]; ok {
		return nil
	}
	r.ids[id] = struct{}{}
	return save(r.path, r.listLocked())
}

// Remove deletes id and persists. Removing an absent id is a no-op.
func (r *Roster) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ids[id]; !ok {
		return nil
	}
	delete(r.ids, id)
	return save(r.path, r.listLocked())
}

// Contains reports membership.
func (r *Roster) Contains(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.ids[id]
	return ok
}

// List returns the members in sorted order.
func (r *Roster) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listLocked()
}

func (r *Roster) listLocked() []string {
	out := make([]string, 0, len(r.ids))
	for id := range r.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
