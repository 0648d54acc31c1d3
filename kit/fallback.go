package kit

import (
	"math"

	"github.com/fogleman/fauxgl"
)

// FallbackLabel is the non-customizable bar marking a fallback model.
const FallbackLabel = "FallbackLabel"

type fallbackPart struct {
	name     string
	size     fauxgl.Vector
	position fauxgl.Vector
	color    string
}

var fallbackParts = []fallbackPart{
	{SurfaceBody, fauxgl.V(2, 2.5, 0.5), fauxgl.V(0, 0.5, 0), "#ffffff"},
	{SurfaceShorts, fauxgl.V(1.8, 1, 0.4), fauxgl.V(0, -1, 0), "#ffffff"},
	{SurfaceLeftSock, fauxgl.V(0.4, 1.5, 0.4), fauxgl.V(-0.5, -2.2, 0), "#ffffff"},
	{SurfaceRightSock, fauxgl.V(0.4, 1.5, 0.4), fauxgl.V(0.5, -2.2, 0), "#ffffff"},
	{FallbackLabel, fauxgl.V(3, 0.3, 0.1), fauxgl.V(0, 4, 0), "#666666"},
}

// NewFallback builds the procedural substitute garment: a shirt body,
// shorts and two socks carrying the standard surface names.
func NewFallback(modelType string) *FallbackGarment {
	root := NewNode("Fallback", nil, nil, fauxgl.Identity())
	for _, p := range fallbackParts {
		mat := &Material{Name: p.name, Color: fauxgl.HexColor(p.color)}
		root.AddChild(NewNode(p.name, newBoxMesh(p.size), mat, fauxgl.Translate(p.position)))
	}
	return &FallbackGarment{model: NewModel(root), modelType: modelType}
}

type boxFace struct {
	n, u, v fauxgl.Vector
}

// u x v == n for every face so triangles wind counter-clockwise outwards.
var boxFaces = []boxFace{
	{fauxgl.V(1, 0, 0), fauxgl.V(0, 0, -1), fauxgl.V(0, 1, 0)},
	{fauxgl.V(-1, 0, 0), fauxgl.V(0, 0, 1), fauxgl.V(0, 1, 0)},
	{fauxgl.V(0, 1, 0), fauxgl.V(1, 0, 0), fauxgl.V(0, 0, -1)},
	{fauxgl.V(0, -1, 0), fauxgl.V(1, 0, 0), fauxgl.V(0, 0, 1)},
	{fauxgl.V(0, 0, 1), fauxgl.V(1, 0, 0), fauxgl.V(0, 1, 0)},
	{fauxgl.V(0, 0, -1), fauxgl.V(-1, 0, 0), fauxgl.V(0, 1, 0)},
}

// newBoxMesh returns an origin centered box with per-face UVs, so pattern
// textures tile on the fallback the same way they do on a real asset.
func newBoxMesh(size fauxgl.Vector) *fauxgl.Mesh {
	half := func(d fauxgl.Vector) float64 {
		return (math.Abs(d.X)*size.X + math.Abs(d.Y)*size.Y + math.Abs(d.Z)*size.Z) / 2
	}
	var tris []*fauxgl.Triangle
	for _, f := range boxFaces {
		c := f.n.MulScalar(half(f.n))
		du := f.u.MulScalar(half(f.u))
		dv := f.v.MulScalar(half(f.v))
		vertex := func(su, sv float64) fauxgl.Vertex {
			return fauxgl.Vertex{
				Position: c.Add(du.MulScalar(su)).Add(dv.MulScalar(sv)),
				Normal:   f.n,
				Texture:  fauxgl.V((su+1)/2, (sv+1)/2, 0),
			}
		}
		p00, p10 := vertex(-1, -1), vertex(1, -1)
		p11, p01 := vertex(1, 1), vertex(-1, 1)
		tris = append(tris, fauxgl.NewTriangle(p00, p10, p11), fauxgl.NewTriangle(p00, p11, p01))
	}
	return fauxgl.NewTriangleMesh(tris)
}
