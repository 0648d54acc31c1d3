package kit

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/fogleman/fauxgl"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

var errNoGeometry = errors.New("asset has no triangle geometry")

// DecodeGLB decodes a binary glTF kit asset into a node tree. Node names are
// kept; node transforms are baked into the vertices so every node of the
// result has an identity local matrix.
func DecodeGLB(data []byte) (*Model, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		return nil, fmt.Errorf("decode glb: %w", err)
	}
	d := &glbDecoder{doc: doc}
	root := NewNode("Scene", nil, nil, fauxgl.Identity())
	for _, idx := range d.sceneNodes() {
		child, err := d.node(idx, mgl64.Ident4(), 0)
		if err != nil {
			return nil, err
		}
		root.AddChild(child)
	}
	if d.triangles == 0 {
		return nil, errNoGeometry
	}
	return NewModel(root), nil
}

type glbDecoder struct {
	doc       *gltf.Document
	triangles int
}

const maxNodeDepth = 64

func (d *glbDecoder) sceneNodes() []int {
	if len(d.doc.Scenes) == 0 {
		nodes := make([]int, len(d.doc.Nodes))
		for i := range nodes {
			nodes[i] = i
		}
		return nodes
	}
	scene := 0
	if d.doc.Scene != nil && *d.doc.Scene < len(d.doc.Scenes) {
		scene = *d.doc.Scene
	}
	return d.doc.Scenes[scene].Nodes
}

func (d *glbDecoder) node(idx int, parent mgl64.Mat4, depth int) (*Node, error) {
	if idx < 0 || idx >= len(d.doc.Nodes) {
		return nil, fmt.Errorf("decode glb: node %d out of range", idx)
	}
	if depth > maxNodeDepth {
		return nil, fmt.Errorf("decode glb: node hierarchy deeper than %d", maxNodeDepth)
	}
	gn := d.doc.Nodes[idx]
	world := parent.Mul4(localMatrix(gn))
	n := NewNode(gn.Name, nil, nil, fauxgl.Identity())
	if gn.Mesh != nil {
		mesh, mat, err := d.mesh(*gn.Mesh, world)
		if err != nil {
			return nil, err
		}
		if mesh != nil {
			n.Mesh = mesh
			n.Material = mat
			n.Material.Name = gn.Name
		}
	}
	for _, c := range gn.Children {
		child, err := d.node(c, world, depth+1)
		if err != nil {
			return nil, err
		}
		n.AddChild(child)
	}
	return n, nil
}

func localMatrix(n *gltf.Node) mgl64.Mat4 {
	m := mgl64.Mat4(n.MatrixOrDefault())
	if m != mgl64.Ident4() {
		return m
	}
	t := n.TranslationOrDefault()
	r := n.RotationOrDefault()
	s := n.ScaleOrDefault()
	q := mgl64.Quat{W: r[3], V: mgl64.Vec3{r[0], r[1], r[2]}}.Normalize()
	return mgl64.Translate3D(t[0], t[1], t[2]).
		Mul4(q.Mat4()).
		Mul4(mgl64.Scale3D(s[0], s[1], s[2]))
}

func (d *glbDecoder) mesh(idx int, world mgl64.Mat4) (*fauxgl.Mesh, *Material, error) {
	if idx < 0 || idx >= len(d.doc.Meshes) {
		return nil, nil, fmt.Errorf("decode glb: mesh %d out of range", idx)
	}
	normalMatrix := world.Mat3().Inv().Transpose()
	mat := &Material{Color: fauxgl.HexColor("#ffffff")}
	var tris []*fauxgl.Triangle
	for i, p := range d.doc.Meshes[idx].Primitives {
		if p.Mode != gltf.PrimitiveTriangles {
			continue
		}
		if i == 0 && p.Material != nil {
			mat.Color = d.baseColor(*p.Material)
		}
		t, err := d.primitive(p, world, normalMatrix)
		if err != nil {
			return nil, nil, fmt.Errorf("decode glb: mesh %d: %w", idx, err)
		}
		tris = append(tris, t...)
	}
	if len(tris) == 0 {
		return nil, nil, nil
	}
	d.triangles += len(tris)
	return fauxgl.NewTriangleMesh(tris), mat, nil
}

func (d *glbDecoder) baseColor(idx int) fauxgl.Color {
	c := fauxgl.HexColor("#ffffff")
	if idx < 0 || idx >= len(d.doc.Materials) {
		return c
	}
	pbr := d.doc.Materials[idx].PBRMetallicRoughness
	if pbr == nil || pbr.BaseColorFactor == nil {
		return c
	}
	f := pbr.BaseColorFactor
	return fauxgl.Color{R: f[0], G: f[1], B: f[2], A: f[3]}
}

func (d *glbDecoder) accessor(idx int) (*gltf.Accessor, error) {
	if idx < 0 || idx >= len(d.doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", idx)
	}
	return d.doc.Accessors[idx], nil
}

func (d *glbDecoder) primitive(p *gltf.Primitive, world mgl64.Mat4, normalMatrix mgl64.Mat3) ([]*fauxgl.Triangle, error) {
	posIdx, ok := p.Attributes["POSITION"]
	if !ok {
		return nil, nil
	}
	acr, err := d.accessor(posIdx)
	if err != nil {
		return nil, err
	}
	positions, err := modeler.ReadPosition(d.doc, acr, nil)
	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}
	var normals [][3]float32
	if idx, ok := p.Attributes["NORMAL"]; ok {
		if acr, err := d.accessor(idx); err == nil {
			normals, _ = modeler.ReadNormal(d.doc, acr, nil)
		}
	}
	var uvs [][2]float32
	if idx, ok := p.Attributes["TEXCOORD_0"]; ok {
		if acr, err := d.accessor(idx); err == nil {
			uvs, _ = modeler.ReadTextureCoord(d.doc, acr, nil)
		}
	}
	var indices []uint32
	if p.Indices != nil {
		acr, err := d.accessor(*p.Indices)
		if err != nil {
			return nil, err
		}
		if indices, err = modeler.ReadIndices(d.doc, acr, nil); err != nil {
			return nil, fmt.Errorf("read indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	vertex := func(i uint32) (fauxgl.Vertex, error) {
		if int(i) >= len(positions) {
			return fauxgl.Vertex{}, fmt.Errorf("index %d out of range", i)
		}
		p := positions[i]
		w := world.Mul4x1(mgl64.Vec4{float64(p[0]), float64(p[1]), float64(p[2]), 1})
		v := fauxgl.Vertex{Position: fauxgl.V(w[0], w[1], w[2])}
		if int(i) < len(normals) {
			n := normals[i]
			wn := normalMatrix.Mul3x1(mgl64.Vec3{float64(n[0]), float64(n[1]), float64(n[2])})
			v.Normal = fauxgl.V(wn[0], wn[1], wn[2]).Normalize()
		}
		if int(i) < len(uvs) {
			// glTF puts the UV origin top-left, fauxgl samples bottom-left.
			v.Texture = fauxgl.V(float64(uvs[i][0]), 1-float64(uvs[i][1]), 0)
		}
		return v, nil
	}

	tris := make([]*fauxgl.Triangle, 0, len(indices)/3)
	for i := 0; i+2 < len(indices); i += 3 {
		var vs [3]fauxgl.Vertex
		for k := 0; k < 3; k++ {
			v, err := vertex(indices[i+k])
			if err != nil {
				return nil, err
			}
			vs[k] = v
		}
		if len(normals) == 0 {
			n := vs[1].Position.Sub(vs[0].Position).Cross(vs[2].Position.Sub(vs[0].Position)).Normalize()
			vs[0].Normal, vs[1].Normal, vs[2].Normal = n, n, n
		}
		tris = append(tris, fauxgl.NewTriangle(vs[0], vs[1], vs[2]))
	}
	return tris, nil
}
