package kit

import (
	"context"
	"log"

	"github.com/fogleman/fauxgl"
)

// Options are the customization fields the applier projects onto a model.
type Options struct {
	BaseColor    string
	Pattern      string
	PatternColor string
}

// Patterned reports whether a pattern texture should be requested.
func (o Options) Patterned() bool {
	return o.Pattern != "" && o.Pattern != Solid && o.PatternColor != ""
}

// Applier projects customization options onto the materials of a garment.
type Applier struct {
	textures TextureLoader
	surfaces SurfaceMatcher
}

// NewApplier returns an applier. A nil matcher selects DefaultSurfaces.
func NewApplier(textures TextureLoader, surfaces SurfaceMatcher) *Applier {
	if surfaces == nil {
		surfaces = DefaultSurfaces
	}
	return &Applier{textures: textures, surfaces: surfaces}
}

// Application tracks a single Apply call until its pattern is delivered.
type Application struct {
	done     chan struct{}
	surfaces int
	stale    bool
}

func newApplication(surfaces int) *Application {
	return &Application{done: make(chan struct{}), surfaces: surfaces}
}

// Done is closed once the application has fully settled.
func (a *Application) Done() <-chan struct{} {
	return a.done
}

// Wait blocks until the application settles or ctx ends.
func (a *Application) Wait(ctx context.Context) error {
	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Surfaces is the number of materials the application touched.
func (a *Application) Surfaces() int {
	return a.surfaces
}

// Stale reports whether the pattern delivery was discarded because a newer
// application superseded it. Only meaningful after Done is closed.
func (a *Application) Stale() bool {
	<-a.done
	return a.stale
}

// Apply clones the material of every customizable surface, sets its base
// color and either clears its map (solid) or requests the pattern texture.
// The color change is visible immediately; the pattern lands when the
// loader delivers it, unless a newer Apply on the same model came first.
func (a *Applier) Apply(ctx context.Context, g Garment, opts Options) *Application {
	m := g.Model()
	base := HexToRGB(opts.BaseColor).Color()
	patterned := opts.Patterned()

	m.mu.Lock()
	m.generation++
	gen := m.generation
	var targets []*Material
	m.Root.Walk(fauxgl.Identity(), func(n *Node, _ fauxgl.Matrix) {
		if n.Mesh == nil || !a.surfaces(n.Name) {
			return
		}
		var mat *Material
		if n.Material != nil {
			mat = n.Material.Clone()
		} else {
			mat = &Material{Name: n.Name}
		}
		mat.Color = base
		if !patterned {
			mat.Map = nil
		}
		mat.Version++
		n.Material = mat
		targets = append(targets, mat)
	})
	m.mu.Unlock()

	app := newApplication(len(targets))
	if !patterned || len(targets) == 0 {
		close(app.done)
		return app
	}

	a.textures.Load(ctx, opts.Pattern, opts.PatternColor, func(tex *PatternTexture) {
		defer close(app.done)
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.generation != gen {
			app.stale = true
			log.Printf("Discarding stale pattern %q for %s", opts.Pattern, g.ModelType())
			return
		}
		for _, mat := range targets {
			if tex == nil {
				mat.Map = nil
			} else {
				mat.Map = tex.handle()
			}
			mat.Version++
		}
	})
	return app
}
