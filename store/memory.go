package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process Repository, used when no database is configured.
type Memory struct {
	mu       sync.RWMutex
	projects map[string]Project
	now      func() time.Time
}

var _ Repository = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{projects: make(map[string]Project), now: time.Now}
}

func (m *Memory) Create(ctx context.Context, p Project) (Project, error) {
	if p.Status == "" {
		p.Status = StatusDraft
	}
	if err := p.Validate(); err != nil {
		return Project{}, err
	}
	now := m.now().UTC()
	p.ID = uuid.NewString()
	p.CreatedAt, p.UpdatedAt = now, now
	p.Customization = p.Customization.Normalize()
	m.mu.Lock()
	m.projects[p.ID] = p
	m.mu.Unlock()
	return p, nil
}

func (m *Memory) Get(ctx context.Context, id string) (Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.projects[id]
	if !ok {
		return Project{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return p, nil
}

// List returns projects newest first, filtered by status unless empty.
func (m *Memory) List(ctx context.Context, status Status) ([]Project, error) {
	m.mu.RLock()
	out := make([]Project, 0, len(m.projects))
	for _, p := range m.projects {
		if status == "" || p.Status == status {
			out = append(out, p)
		}
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) Update(ctx context.Context, id string, u Update) (Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return Project{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	p = u.Apply(p, m.now().UTC())
	if err := p.Validate(); err != nil {
		return Project{}, err
	}
	m.projects[id] = p
	return p, nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(m.projects, id)
	return nil
}

func (m *Memory) Stats(ctx context.Context) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var s Stats
	for _, p := range m.projects {
		s.add(p.Status, 1)
	}
	return s, nil
}
