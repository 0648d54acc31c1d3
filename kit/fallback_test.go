package kit

import (
	"testing"

	"github.com/fogleman/fauxgl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFallback(t *testing.T) {
	g := NewFallback("goalkeeper")
	assert.Equal(t, Fallback, g.Status())
	assert.Equal(t, "goalkeeper", g.ModelType())

	t.Run("should expose the standard surfaces", func(t *testing.T) {
		for _, name := range garmentSurfaces {
			assert.NotNil(t, g.Model().Root.FindNodeByName(name), name)
		}
	})
	t.Run("should place the parts where the garment expects them", func(t *testing.T) {
		body := g.Model().Root.FindNodeByName(SurfaceBody)
		require.NotNil(t, body)
		box := transformBox(body.Mesh.BoundingBox(), body.LocalMatrix)
		assertVector(t, fauxgl.V(-1, -0.75, -0.25), box.Min)
		assertVector(t, fauxgl.V(1, 1.75, 0.25), box.Max)

		sock := g.Model().Root.FindNodeByName(SurfaceLeftSock)
		box = transformBox(sock.Mesh.BoundingBox(), sock.LocalMatrix)
		assertVector(t, fauxgl.V(-0.7, -2.95, -0.2), box.Min)
	})
	t.Run("should paint the label grey", func(t *testing.T) {
		assert.Equal(t, fauxgl.HexColor("#666666"), g.Model().Material(FallbackLabel).Color)
	})
}

func TestBoxMeshFacesOutwards(t *testing.T) {
	mesh := newBoxMesh(fauxgl.V(1, 2, 3))
	require.Len(t, mesh.Triangles, 12)
	for _, tri := range mesh.Triangles {
		a, b, c := tri.V1.Position, tri.V2.Position, tri.V3.Position
		n := b.Sub(a).Cross(c.Sub(a))
		assert.Greater(t, n.Dot(tri.V1.Normal), 0.0)
		centroid := a.Add(b).Add(c).MulScalar(1.0 / 3)
		assert.Greater(t, centroid.Dot(tri.V1.Normal), 0.0)
	}
}
