package kit

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/fogleman/fauxgl"
	"github.com/nfnt/resize"
)

// View selects which part of the garment the camera frames.
type View string

const (
	ViewFull   View = "full"
	ViewShirt  View = "shirt"
	ViewShorts View = "shorts"
	ViewSocks  View = "socks"
)

// ErrUnknownView is returned by ParseView.
var ErrUnknownView = errors.New("unknown view")

// ParseView accepts "full", "shirt", "shorts" and "socks". Empty is full.
func ParseView(s string) (View, error) {
	switch v := View(s); v {
	case "":
		return ViewFull, nil
	case ViewFull, ViewShirt, ViewShorts, ViewSocks:
		return v, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownView, s)
}

// framing is the vertical focus (fraction of the garment height from the
// bottom) and the fraction of the height that must be in frame.
type framing struct {
	focus  float64
	extent float64
}

var viewFraming = map[View]framing{
	ViewFull:   {0.5, 1},
	ViewShirt:  {0.72, 0.55},
	ViewShorts: {0.4, 0.4},
	ViewSocks:  {0.12, 0.35},
}

// viewParts are the surfaces a view frames on its own when the garment has
// them, as the procedural fallback does.
var viewParts = map[View][]string{
	ViewShirt:  {SurfaceBody},
	ViewShorts: {SurfaceShorts},
	ViewSocks:  {SurfaceLeftSock, SurfaceRightSock},
}

var errNothingToRender = errors.New("garment has no meshes")

// Renderer rasterizes a garment into a square image.
type Renderer struct {
	Size         int // output pixels per side
	Supersample  int
	FovY         float64
	Near, Far    float64
	Light        fauxgl.Vector
	AmbientColor string
	DiffuseColor string
	GlossyColor  string
	GlossyPower  float64
	Background   fauxgl.Color
	// Surfaces selects the meshes the camera frames. Other meshes are drawn
	// but never move the camera.
	Surfaces SurfaceMatcher
}

// NewRenderer returns a renderer with the studio defaults.
func NewRenderer(size int) *Renderer {
	if size <= 0 {
		size = 512
	}
	return &Renderer{
		Size:         size,
		Supersample:  2,
		FovY:         50,
		Near:         0.1,
		Far:          1000,
		Light:        fauxgl.V(-1, 3, 1).Normalize(),
		AmbientColor: "#b0b0b0",
		DiffuseColor: "#808080",
		GlossyColor:  "#202020",
		GlossyPower:  32,
		Surfaces:     DefaultSurfaces,
	}
}

// frame picks the box the camera is aimed at. A view's own parts are
// framed whole; otherwise the view is a slice of the surfaces' box, and
// of every mesh only when no surface matches.
func (r *Renderer) frame(drawables []Drawable, view View, f framing) (fauxgl.Box, framing, bool) {
	if box, ok := boxOf(drawables, NameMatcher(viewParts[view]...)); ok {
		return box, framing{focus: 0.5, extent: 1}, true
	}
	surfaces := r.Surfaces
	if surfaces == nil {
		surfaces = DefaultSurfaces
	}
	if box, ok := boxOf(drawables, surfaces); ok {
		return box, f, true
	}
	box, ok := boxOf(drawables, func(string) bool { return true })
	return box, f, ok
}

func boxOf(drawables []Drawable, match SurfaceMatcher) (fauxgl.Box, bool) {
	var boxes []fauxgl.Box
	for _, d := range drawables {
		if len(d.Mesh.Triangles) > 0 && match(d.Name) {
			boxes = append(boxes, d.Mesh.BoundingBox())
		}
	}
	if len(boxes) == 0 {
		return fauxgl.Box{}, false
	}
	return fauxgl.BoxForBoxes(boxes), true
}

// Render draws the garment's current material state from the given view.
func (r *Renderer) Render(g Garment, view View) (image.Image, error) {
	drawables := g.Model().Flatten()
	if len(drawables) == 0 {
		return nil, errNothingToRender
	}
	f, ok := viewFraming[view]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownView, view)
	}

	box, f, ok := r.frame(drawables, view, f)
	if !ok {
		return nil, errNothingToRender
	}
	size := box.Max.Sub(box.Min)
	center := fauxgl.V(
		(box.Min.X+box.Max.X)/2,
		box.Min.Y+size.Y*f.focus,
		(box.Min.Z+box.Max.Z)/2,
	)
	extent := math.Max(size.X, size.Y*f.extent)
	dist := extent/2/math.Tan(r.FovY*math.Pi/360)*1.15 + size.Z/2
	eye := center.Add(fauxgl.V(0, extent*0.1, dist))
	up := fauxgl.V(0, 1, 0)
	matrix := fauxgl.LookAt(eye, center, up).Perspective(r.FovY, 1, r.Near, r.Far)

	px := r.Size * max(r.Supersample, 1)
	ctx := fauxgl.NewContext(px, px)
	ctx.ClearColorBufferWith(r.Background)
	for _, d := range drawables {
		shader := &GarmentShader{
			Matrix:         matrix,
			LightDirection: r.Light,
			CameraPosition: eye,
			AmbientColor:   fauxgl.HexColor(r.AmbientColor),
			DiffuseColor:   fauxgl.HexColor(r.DiffuseColor),
			GlossyColor:    fauxgl.HexColor(r.GlossyColor),
			GlossyPower:    r.GlossyPower,
			BaseColor:      d.Material.Color,
		}
		if d.Material.Map != nil && d.Material.Map.Image != nil {
			shader.Texture = newRepeatTexture(d.Material.Map)
		}
		ctx.Shader = shader
		ctx.DrawMesh(d.Mesh)
	}
	img := ctx.Image()
	if px != r.Size {
		img = resize.Resize(uint(r.Size), uint(r.Size), img, resize.Bilinear)
	}
	return img, nil
}
