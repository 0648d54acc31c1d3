package kit

import (
	"sync"

	"github.com/fogleman/fauxgl"
)

// Material is the mutable surface state of a mesh node.
type Material struct {
	Name  string
	Color fauxgl.Color
	Map   *PatternTexture
	// Version is bumped every time the material must be re-uploaded.
	Version int
}

// Clone returns a shallow copy; the texture handle is immutable and shared.
func (m *Material) Clone() *Material {
	c := *m
	return &c
}

// Node represents a node in the garment's scene graph.
type Node struct {
	Name        string
	Mesh        *fauxgl.Mesh // nil for empty joints
	Material    *Material
	LocalMatrix fauxgl.Matrix // relative to the parent
	Children    []*Node
}

func NewNode(name string, mesh *fauxgl.Mesh, material *Material, matrix fauxgl.Matrix) *Node {
	return &Node{
		Name:        name,
		Mesh:        mesh,
		Material:    material,
		LocalMatrix: matrix,
		Children:    make([]*Node, 0),
	}
}

func (n *Node) AddChild(child *Node) {
	n.Children = append(n.Children, child)
}

// FindNodeByName recursively searches the tree for a node by its name.
func (n *Node) FindNodeByName(name string) *Node {
	if n.Name == name {
		return n
	}
	for _, child := range n.Children {
		if found := child.FindNodeByName(name); found != nil {
			return found
		}
	}
	return nil
}

// Walk visits n and its descendants depth first with their world matrix.
func (n *Node) Walk(parent fauxgl.Matrix, fn func(node *Node, world fauxgl.Matrix)) {
	world := parent.Mul(n.LocalMatrix)
	fn(n, world)
	for _, child := range n.Children {
		child.Walk(world, fn)
	}
}

// Copy deep copies the subtree, including meshes and materials.
func (n *Node) Copy() *Node {
	c := NewNode(n.Name, nil, nil, n.LocalMatrix)
	if n.Mesh != nil {
		c.Mesh = n.Mesh.Copy()
	}
	if n.Material != nil {
		c.Material = n.Material.Clone()
	}
	for _, child := range n.Children {
		c.AddChild(child.Copy())
	}
	return c
}

// Model is a renderable node tree plus the framing transform.
// Materials are guarded by the model lock because pattern deliveries
// arrive from loader goroutines.
type Model struct {
	Root      *Node
	Transform fauxgl.Matrix

	mu         sync.Mutex
	generation uint64
}

func NewModel(root *Node) *Model {
	return &Model{Root: root, Transform: fauxgl.Identity()}
}

// Copy returns an independent instance of the model.
func (m *Model) Copy() *Model {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &Model{Root: m.Root.Copy(), Transform: m.Transform}
}

// Material returns a copy of the named node's material, or nil.
func (m *Model) Material(name string) *Material {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := m.Root.FindNodeByName(name)
	if n == nil || n.Material == nil {
		return nil
	}
	return n.Material.Clone()
}

// Drawable is a flattened mesh in world space with its material state.
type Drawable struct {
	Name     string
	Mesh     *fauxgl.Mesh
	Material Material
}

// Flatten returns world space copies of every mesh node.
func (m *Model) Flatten() []Drawable {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Drawable
	m.Root.Walk(m.Transform, func(n *Node, world fauxgl.Matrix) {
		if n.Mesh == nil {
			return
		}
		mesh := n.Mesh.Copy()
		mesh.Transform(world)
		d := Drawable{Name: n.Name, Mesh: mesh}
		if n.Material != nil {
			d.Material = *n.Material
		} else {
			d.Material = Material{Color: fauxgl.HexColor("#808080")}
		}
		out = append(out, d)
	})
	return out
}

// BoundingBox returns the box of all meshes, optionally including the
// model transform.
func (m *Model) BoundingBox(transformed bool) fauxgl.Box {
	m.mu.Lock()
	defer m.mu.Unlock()
	start := fauxgl.Identity()
	if transformed {
		start = m.Transform
	}
	var boxes []fauxgl.Box
	m.Root.Walk(start, func(n *Node, world fauxgl.Matrix) {
		if n.Mesh == nil || len(n.Mesh.Triangles) == 0 {
			return
		}
		boxes = append(boxes, transformBox(n.Mesh.BoundingBox(), world))
	})
	if len(boxes) == 0 {
		return fauxgl.Box{}
	}
	return fauxgl.BoxForBoxes(boxes)
}

func transformBox(b fauxgl.Box, m fauxgl.Matrix) fauxgl.Box {
	lo, hi := b.Min, b.Max
	corners := []fauxgl.Vector{
		{X: lo.X, Y: lo.Y, Z: lo.Z}, {X: hi.X, Y: lo.Y, Z: lo.Z},
		{X: lo.X, Y: hi.Y, Z: lo.Z}, {X: hi.X, Y: hi.Y, Z: lo.Z},
		{X: lo.X, Y: lo.Y, Z: hi.Z}, {X: hi.X, Y: lo.Y, Z: hi.Z},
		{X: lo.X, Y: hi.Y, Z: hi.Z}, {X: hi.X, Y: hi.Y, Z: hi.Z},
	}
	p := m.MulPosition(corners[0])
	out := fauxgl.Box{Min: p, Max: p}
	for _, c := range corners[1:] {
		p = m.MulPosition(c)
		out.Min = out.Min.Min(p)
		out.Max = out.Max.Max(p)
	}
	return out
}

// Status is the load state of a garment.
type Status int

const (
	Loading Status = iota
	Loaded
	Fallback
)

func (s Status) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Fallback:
		return "fallback"
	}
	return "unknown"
}

// Garment is a renderable garment model. Both the loaded asset and the
// procedural fallback expose the same named surfaces.
type Garment interface {
	Model() *Model
	ModelType() string
	Status() Status
}

// AssetGarment is a garment decoded from an external kit asset.
type AssetGarment struct {
	model     *Model
	modelType string
}

func (g *AssetGarment) Model() *Model     { return g.model }
func (g *AssetGarment) ModelType() string { return g.modelType }
func (g *AssetGarment) Status() Status    { return Loaded }

// FallbackGarment is the procedural substitute built when an asset fails.
type FallbackGarment struct {
	model     *Model
	modelType string
}

func (g *FallbackGarment) Model() *Model     { return g.model }
func (g *FallbackGarment) ModelType() string { return g.modelType }
func (g *FallbackGarment) Status() Status    { return Fallback }
