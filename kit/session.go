package kit

import (
	"context"
	"sync"
)

// Session keeps one customization and the garment it is projected onto.
// Every change re-runs the applier; only a model type change reloads.
type Session struct {
	provider *Provider
	applier  *Applier

	// edit serializes changes so the last stored customization is also the
	// last one applied. mu only guards current.
	edit    sync.Mutex
	mu      sync.Mutex
	current Customization
}

func NewSession(provider *Provider, applier *Applier) *Session {
	return &Session{provider: provider, applier: applier}
}

// Set replaces the customization and applies it. The returned application
// settles once the pattern texture, if any, has been delivered.
func (s *Session) Set(ctx context.Context, c Customization) (Garment, *Application) {
	return s.Update(ctx, func(cur *Customization) { *cur = c })
}

// Update derives a new customization from the current one and applies it.
// Concurrent updates each see the result of the previous one.
func (s *Session) Update(ctx context.Context, fn func(*Customization)) (Garment, *Application) {
	s.edit.Lock()
	defer s.edit.Unlock()

	s.mu.Lock()
	c := s.current.Update(fn)
	s.current = c
	s.mu.Unlock()

	g := s.provider.Select(ctx, c.ModelType)
	return g, s.applier.Apply(ctx, g, c.Options())
}

// Customization returns the current snapshot.
func (s *Session) Customization() Customization {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}
