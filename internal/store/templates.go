package store

import (
	"errors"
	"sync"
)

// ErrTemplateNotFound indicates the referenced template id does not exist.
var ErrTemplateNotFound = errors.New("store: template not found")

// Template is one stored appeal letter. Its body carries the identifier
// placeholder the appeal composer substitutes.
type Template struct {
	ID      int    `json:"id"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Templates persists appeal templates and the active selection. When no
// template is active, callers fall back to built-in letters.
type Templates struct {
	path string

	mu    sync.Mutex
	state templatesState
}

type templatesState struct {
	Templates []Template `json:"templates"`
	ActiveID  int        `json:"active_id"`
}

// NewTemplates loads templates from path, starting empty if absent.
func NewTemplates(path string) (*Templates, error) {
	t := &Templates{path: path}
	if _, err := load(path, &t.state); err != nil {
		return nil, err
	}
	return t, nil
}

// Add stores a new template and returns it with its assigned id.
func (t *Templates) Add(to, subject, body string) (Template, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := 1
	if n := len(t.state.Templates); n > 0 {
		id = t.state.Templates[n-1].ID + 1
	}
	tpl := Template{ID: id, To: to, Subject: subject, Body: body}
	t.state.Templates = append(t.state.Templates, tpl)
	if err := save(t.path, t.state); err != nil {
		return Template{}, err
	}
	return tpl, nil
}

// Remove deletes a template by id. Removing the active template clears the
// active selection.
func (t *Templates) Remove(id int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, tpl := range t.state.Templates {
		if tpl.ID != id {
			continue
		}
		t.state.Templates = append(t.state.Templates[:i], t.state.Templates[i+1:]...)
		if t.state.ActiveID == id {
			t.state.ActiveID = 0
		}
		return save(t.path, t.state)
	}
	return ErrTemplateNotFound
}

// SetActive selects the template appeals are rendered from.
func (t *Templates) SetActive(id int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, tpl := range t.state.Templates {
		if tpl.ID == id {
			t.state.ActiveID = id
			return save(t.path, t.state)
		}
	}
	return ErrTemplateNotFound
}

// Active returns the selected template, if one is set.
func (t *Templates) Active() (Template, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, tpl := range t.state.Templates {
		if tpl.ID == t.state.ActiveID {
			return tpl, true
		}
	}
	return Template{}, false
}

// List returns all templates in insertion order and the active id, zero when
// none is active.
func (t *Templates) List() ([]Template, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Template(nil), t.state.Templates...), t.state.ActiveID
}
