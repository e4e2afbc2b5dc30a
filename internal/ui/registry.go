package ui

import (
	"fmt"
	"sync"
)

// PanelKind names a kind of secondary view. At most one panel of each kind
// exists at a time.
type PanelKind string

const (
	PanelDetails PanelKind = "details"
	PanelCreate  PanelKind = "create"
	PanelEdit    PanelKind = "edit"
)

// Panel is a secondary view owned by a Registry.
type Panel interface {
	// Reveal brings an already open panel back to the user.
	Reveal()
	// Dispose releases whatever the panel holds. The Registry calls it once.
	Dispose()
}

// Registry maps each PanelKind to its single live Panel.
//
// SINGLETON BY KEY:
//
//	p, created, err := reg.Open(ui.PanelEdit, func() (ui.Panel, error) { return newEditPanel(s), nil })
//
// The first Open builds the panel. Later Opens of the same kind return the
// existing instance (after calling Reveal) until Close releases it.
type Registry struct {
	mu     sync.Mutex
	panels map[PanelKind]Panel
}

func NewRegistry() *Registry {
	return &Registry{panels: make(map[PanelKind]Panel)}
}

// Open returns the live panel of kind, revealing it, or builds one with
// create. created reports which happened.
func (r *Registry) Open(kind PanelKind, create func() (Panel, error)) (p Panel, created bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.panels[kind]; ok {
		p.Reveal()
		return p, false, nil
	}

	p, err = create()
	if err != nil {
		return nil, false, fmt.Errorf("ui: opening %s panel: %w", kind, err)
	}
	r.panels[kind] = p
	return p, true, nil
}

// Active returns the live panel of kind, if any.
func (r *Registry) Active(kind PanelKind) (Panel, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.panels[kind]
	return p, ok
}

// Close disposes the live panel of kind. Closing a kind with no panel is a
// no-op.
func (r *Registry) Close(kind PanelKind) {
	r.mu.Lock()
	p, ok := r.panels[kind]
	delete(r.panels, kind)
	r.mu.Unlock()

	if ok {
		p.Dispose()
	}
}

// CloseAll disposes every live panel.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	panels := r.panels
	r.panels = make(map[PanelKind]Panel)
	r.mu.Unlock()

	for _, p := range panels {
		p.Dispose()
	}
}
