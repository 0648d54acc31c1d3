package kit

import (
	"log"
	"math"

	"github.com/fogleman/fauxgl"
)

const (
	// TargetSize is the largest dimension of a normalized model.
	TargetSize = 2.5
	// VerticalOffset lifts a normalized model slightly above the origin.
	VerticalOffset = 0.2
)

// CenterAndScale frames the model: its largest dimension becomes
// TargetSize and its center moves to the origin plus VerticalOffset.
// The transform is derived from the untransformed geometry and replaces
// any previous one, so repeated calls give the same result.
func CenterAndScale(m *Model) {
	box := m.BoundingBox(false)
	size := box.Max.Sub(box.Min)
	maxDim := math.Max(size.X, math.Max(size.Y, size.Z))
	if maxDim <= 0 || math.IsNaN(maxDim) || math.IsInf(maxDim, 0) {
		log.Printf("Warning: Cannot normalize model with empty bounds %v", box)
		return
	}
	scale := TargetSize / maxDim
	center := box.Min.Add(box.Max).MulScalar(0.5)
	offset := fauxgl.V(-center.X*scale, -center.Y*scale+VerticalOffset, -center.Z*scale)

	m.mu.Lock()
	m.Transform = fauxgl.Scale(fauxgl.V(scale, scale, scale)).Translate(offset)
	m.mu.Unlock()
}
