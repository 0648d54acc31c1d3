package kit

import (
	"math"

	"github.com/fogleman/fauxgl"
)

// GarmentShader lights a surface with a diffuse and a glossy term. The
// pattern texture, when set, is composited over the base color by its
// alpha so transparent texels show the garment color.
type GarmentShader struct {
	Matrix         fauxgl.Matrix
	LightDirection fauxgl.Vector
	CameraPosition fauxgl.Vector
	AmbientColor   fauxgl.Color
	DiffuseColor   fauxgl.Color
	GlossyColor    fauxgl.Color
	GlossyPower    float64
	BaseColor      fauxgl.Color
	Texture        fauxgl.Texture
}

var _ fauxgl.Shader = (*GarmentShader)(nil)

func (s *GarmentShader) Vertex(v fauxgl.Vertex) fauxgl.Vertex {
	v.Output = s.Matrix.MulPositionW(v.Position)
	return v
}

func (s *GarmentShader) Fragment(v fauxgl.Vertex) fauxgl.Color {
	surface := s.surface(v.Texture.X, v.Texture.Y)
	n := v.Normal.Normalize()
	light := s.AmbientColor
	diffuse := math.Max(n.Dot(s.LightDirection), 0)
	light = light.Add(s.DiffuseColor.MulScalar(diffuse))
	c := surface.Mul(light)
	if diffuse > 0 && s.GlossyPower > 0 {
		view := s.CameraPosition.Sub(v.Position).Normalize()
		half := view.Add(s.LightDirection).Normalize()
		gloss := math.Pow(math.Max(n.Dot(half), 0), s.GlossyPower)
		c = c.Add(s.GlossyColor.MulScalar(gloss))
	}
	return fauxgl.Color{R: clamp01(c.R), G: clamp01(c.G), B: clamp01(c.B), A: 1}
}

// surface returns the unlit color at u, v.
func (s *GarmentShader) surface(u, v float64) fauxgl.Color {
	base := s.BaseColor
	if s.Texture == nil {
		return base
	}
	// Samples are alpha premultiplied.
	t := s.Texture.BilinearSample(u, v)
	return fauxgl.Color{
		R: base.R*(1-t.A) + t.R,
		G: base.G*(1-t.A) + t.G,
		B: base.B*(1-t.A) + t.B,
		A: 1,
	}
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
