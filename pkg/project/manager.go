package project

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/jlrickert/cli-toolkit/mylog"
	"github.com/jlrickert/cli-toolkit/toolkit"
)

// Manager owns the open projects of a process, keyed by project id. The map
// is guarded by mu; each Project guards its own registries.
type Manager struct {
	rt *toolkit.Runtime

	mu       sync.RWMutex
	projects map[string]*Project
	watchers map[string]*Watcher
}

// NewManager returns an empty manager that performs file I/O through rt.
func NewManager(rt *toolkit.Runtime) *Manager {
	return &Manager{
		rt:       rt,
		projects: make(map[string]*Project),
		watchers: make(map[string]*Watcher),
	}
}

// Runtime returns the runtime used for file I/O.
func (m *Manager) Runtime() *toolkit.Runtime { return m.rt }

// Create builds a new project and registers it. An id already in use fails
// with a ProjectExistsError before any file is read.
func (m *Manager) Create(ctx context.Context, cfg Config) (*Project, error) {
	cfg.Normalize()
	if m.has(cfg.ID) {
		return nil, NewProjectExistsError(cfg.ID)
	}
	p, err := Create(ctx, m.rt, cfg)
	if err != nil {
		return nil, err
	}
	if err := m.register(ctx, p); err != nil {
		_ = p.Close()
		return nil, err
	}
	return p, nil
}

// Load reopens a project from its project.yaml and registers it.
func (m *Manager) Load(ctx context.Context, path string) (*Project, error) {
	p, err := Open(ctx, m.rt, path)
	if err != nil {
		return nil, err
	}
	if err := m.register(ctx, p); err != nil {
		_ = p.Close()
		return nil, err
	}
	return p, nil
}

func (m *Manager) has(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.projects[id]
	return ok
}

func (m *Manager) register(ctx context.Context, p *Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[p.ID()]; ok {
		return NewProjectExistsError(p.ID())
	}
	if p.cfg.Watch {
		w, err := Watch(ctx, p)
		if err != nil {
			return err
		}
		m.watchers[p.ID()] = w
	}
	m.projects[p.ID()] = p
	mylog.LoggerFromContext(ctx).Info("project registered", "project", p.ID())
	return nil
}

// Get returns a registered project.
func (m *Manager) Get(id string) (*Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, NewProjectNotFoundError(id)
	}
	return p, nil
}

// List returns the registered project ids, sorted.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.projects))
	for id := range m.projects {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Close unregisters a project and releases its store and watcher.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	p, ok := m.projects[id]
	w := m.watchers[id]
	delete(m.projects, id)
	delete(m.watchers, id)
	m.mu.Unlock()

	if !ok {
		return NewProjectNotFoundError(id)
	}
	var errs []error
	if w != nil {
		errs = append(errs, w.Close())
	}
	errs = append(errs, p.Close())
	return errors.Join(errs...)
}

// CloseAll closes every registered project.
func (m *Manager) CloseAll() error {
	var errs []error
	for _, id := range m.List() {
		errs = append(errs, m.Close(id))
	}
	return errors.Join(errs...)
}
