package kit

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	// DefaultModelType is loaded when no model type is selected.
	DefaultModelType = "home"
	// KitLoadTimeout bounds one shared fetch and decode of a kit asset.
	KitLoadTimeout = 30 * time.Second
)

// modelTypePattern matches model type identifiers such as "home" or "home_3".
var modelTypePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// KitPath returns the asset path of a kit model.
func KitPath(modelType string) string {
	return "kits/" + modelType + ".glb"
}

// Library decodes kit assets once and hands out independent instances.
// Templates are normalized on first load and never mutated afterwards.
type Library struct {
	source AssetSource

	mu        sync.RWMutex
	templates map[string]*Model
	sfg       *singleflight.Group
}

func NewLibrary(source AssetSource) *Library {
	return &Library{
		source:    source,
		templates: make(map[string]*Model),
		sfg:       new(singleflight.Group),
	}
}

// Instance returns a fresh copy of the normalized kit model.
func (l *Library) Instance(ctx context.Context, modelType string) (*Model, error) {
	t, err := l.template(ctx, modelType)
	if err != nil {
		return nil, err
	}
	return t.Copy(), nil
}

func (l *Library) template(ctx context.Context, modelType string) (*Model, error) {
	if !modelTypePattern.MatchString(modelType) {
		return nil, fmt.Errorf("invalid model type %q", modelType)
	}
	l.mu.RLock()
	t, ok := l.templates[modelType]
	l.mu.RUnlock()
	if ok {
		return t, nil
	}
	ch := l.sfg.DoChan(modelType, func() (any, error) {
		// Shared by every caller of this flight, so no single caller may cancel it.
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), KitLoadTimeout)
		defer cancel()
		data, err := l.source.Fetch(fetchCtx, KitPath(modelType))
		if err != nil {
			return nil, err
		}
		m, err := DecodeGLB(data)
		if err != nil {
			return nil, err
		}
		CenterAndScale(m)
		l.mu.Lock()
		l.templates[modelType] = m
		l.mu.Unlock()
		return m, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Model), nil
	}
}

// Provider resolves the garment for the selected model type. It moves to
// Loading only when the model type changes, and ends in Loaded or Fallback.
type Provider struct {
	library  *Library
	onStatus func(modelType string, status Status)

	mu        sync.Mutex
	modelType string
	status    Status
	garment   Garment
}

// NewProvider returns a provider. onStatus may be nil.
func NewProvider(library *Library, onStatus func(modelType string, status Status)) *Provider {
	return &Provider{library: library, onStatus: onStatus}
}

// Select returns the garment for modelType, loading it if the selection
// changed. A failed load yields the procedural fallback, never an error.
func (p *Provider) Select(ctx context.Context, modelType string) Garment {
	if modelType == "" {
		modelType = DefaultModelType
	}
	p.mu.Lock()
	if p.garment != nil && p.modelType == modelType {
		g := p.garment
		p.mu.Unlock()
		return g
	}
	p.modelType = modelType
	p.status = Loading
	p.garment = nil
	p.mu.Unlock()
	p.notify(modelType, Loading)

	var g Garment
	m, err := p.library.Instance(ctx, modelType)
	if err != nil {
		log.Printf("Warning: Kit %q failed to load, using fallback: %v", modelType, err)
		g = NewFallback(modelType)
	} else {
		g = &AssetGarment{model: m, modelType: modelType}
	}

	p.mu.Lock()
	if p.modelType != modelType {
		// Superseded by a newer selection while loading.
		p.mu.Unlock()
		return g
	}
	p.garment = g
	p.status = g.Status()
	p.mu.Unlock()
	p.notify(modelType, g.Status())
	return g
}

// Status returns the state of the current selection.
func (p *Provider) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Current returns the current garment or nil while loading.
func (p *Provider) Current() Garment {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.garment
}

func (p *Provider) notify(modelType string, s Status) {
	if p.onStatus != nil {
		p.onStatus(modelType, s)
	}
}
