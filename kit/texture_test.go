package kit

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

// stripesImage returns a 4x4 texture: rows 0 and 2 are near-black stripes,
// rows 1 and 3 are transparent, and the last column is bright white.
func stripesImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			switch {
			case x == 3:
				img.SetNRGBA(x, y, color.NRGBA{255, 255, 255, 255})
			case y%2 == 0:
				img.SetNRGBA(x, y, color.NRGBA{3, 5, 9, 200})
			default:
				img.SetNRGBA(x, y, color.NRGBA{0, 0, 0, 0})
			}
		}
	}
	return img
}

func TestRecolor(t *testing.T) {
	src := stripesImage()
	got := Recolor(src, RGB{0x11, 0x22, 0x33})

	t.Run("should paint near-black pixels and keep their alpha", func(t *testing.T) {
		assert.Equal(t, color.NRGBA{0x11, 0x22, 0x33, 200}, got.NRGBAAt(0, 0))
		assert.Equal(t, color.NRGBA{0x11, 0x22, 0x33, 200}, got.NRGBAAt(2, 2))
	})
	t.Run("should leave transparent pixels unchanged", func(t *testing.T) {
		assert.Equal(t, color.NRGBA{0, 0, 0, 0}, got.NRGBAAt(1, 1))
	})
	t.Run("should leave bright pixels unchanged", func(t *testing.T) {
		assert.Equal(t, color.NRGBA{255, 255, 255, 255}, got.NRGBAAt(3, 0))
	})
	t.Run("should not modify the source", func(t *testing.T) {
		assert.Equal(t, color.NRGBA{3, 5, 9, 200}, src.NRGBAAt(0, 0))
	})
	t.Run("should treat the threshold as exclusive", func(t *testing.T) {
		img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
		img.SetNRGBA(0, 0, color.NRGBA{9, 9, 9, 255})
		img.SetNRGBA(1, 0, color.NRGBA{10, 0, 0, 255})
		out := Recolor(img, RGB{255, 255, 255})
		assert.Equal(t, color.NRGBA{255, 255, 255, 255}, out.NRGBAAt(0, 0))
		assert.Equal(t, color.NRGBA{10, 0, 0, 255}, out.NRGBAAt(1, 0))
	})
}

func TestRepeatTexture(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{255, 0, 0, 255})
	img.SetNRGBA(1, 0, color.NRGBA{0, 255, 0, 255})
	img.SetNRGBA(0, 1, color.NRGBA{0, 0, 255, 255})
	img.SetNRGBA(1, 1, color.NRGBA{255, 255, 255, 255})
	tex := newRepeatTexture(&PatternTexture{Image: img, RepeatU: 2, RepeatV: 2})

	t.Run("should tile the image twice across the surface", func(t *testing.T) {
		a := tex.Sample(0.1, 0.9)
		b := tex.Sample(0.6, 0.9)
		assert.Equal(t, a, b)
	})
	t.Run("should wrap coordinates outside the unit square", func(t *testing.T) {
		assert.Equal(t, tex.Sample(0.1, 0.1), tex.Sample(1.1, 1.1))
		assert.Equal(t, tex.Sample(0.1, 0.1), tex.Sample(-0.9, -0.9))
	})
	t.Run("should default a zero repeat to one", func(t *testing.T) {
		r := newRepeatTexture(&PatternTexture{Image: img})
		assert.Equal(t, 1.0, r.repeatU)
		assert.Equal(t, 1.0, r.repeatV)
	})
}
