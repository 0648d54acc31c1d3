package kit

import (
	"image"
	"math"

	"github.com/fogleman/fauxgl"
)

const (
	// DarkThreshold is the exclusive upper bound on R, G and B for a pixel
	// to count as part of a pattern's paintable mask.
	DarkThreshold = 10
	// MaxTextureSize bounds the longest side of a pattern texture.
	MaxTextureSize = 512
)

// PatternTexture is a rasterized, optionally recolored pattern. Pixels are
// never modified after construction; each material holds its own handle.
type PatternTexture struct {
	Name    string
	Color   string // recolor applied, empty if used as-is
	Image   *image.NRGBA
	RepeatU float64
	RepeatV float64
}

// WithRepeat returns a copy of the handle sharing the pixel buffer.
func (t *PatternTexture) WithRepeat(u, v float64) *PatternTexture {
	c := *t
	c.RepeatU, c.RepeatV = u, v
	return &c
}

// handle returns a copy of t for a single material.
func (t *PatternTexture) handle() *PatternTexture {
	c := *t
	return &c
}

// Recolor paints every near-black, non-transparent pixel of src with c.
// Alpha and all other pixels are left untouched.
func Recolor(src image.Image, c RGB) *image.NRGBA {
	dst := toNRGBA(src)
	for i := 0; i+3 < len(dst.Pix); i += 4 {
		p := dst.Pix[i : i+4 : i+4]
		if p[0] < DarkThreshold && p[1] < DarkThreshold && p[2] < DarkThreshold && p[3] > 0 {
			p[0], p[1], p[2] = c.R, c.G, c.B
		}
	}
	return dst
}

// repeatTexture samples an image with wrap addressing on both axes.
type repeatTexture struct {
	width   int
	height  int
	image   *image.NRGBA
	repeatU float64
	repeatV float64
}

var _ fauxgl.Texture = (*repeatTexture)(nil)

func newRepeatTexture(t *PatternTexture) *repeatTexture {
	size := t.Image.Bounds().Size()
	u, v := t.RepeatU, t.RepeatV
	if u <= 0 {
		u = 1
	}
	if v <= 0 {
		v = 1
	}
	return &repeatTexture{size.X, size.Y, t.Image, u, v}
}

func (t *repeatTexture) wrap(u, v float64) (float64, float64) {
	u *= t.repeatU
	v = 1 - v*t.repeatV
	u -= math.Floor(u)
	v -= math.Floor(v)
	return u, v
}

func (t *repeatTexture) at(x, y int) fauxgl.Color {
	b := t.image.Bounds()
	return fauxgl.MakeColor(t.image.NRGBAAt(b.Min.X+x, b.Min.Y+y))
}

// Sample returns the nearest texel at u, v.
func (t *repeatTexture) Sample(u, v float64) fauxgl.Color {
	u, v = t.wrap(u, v)
	x := int(u * float64(t.width))
	y := int(v * float64(t.height))
	return t.at(x%t.width, y%t.height)
}

// BilinearSample interpolates between the four texels around u, v.
func (t *repeatTexture) BilinearSample(u, v float64) fauxgl.Color {
	u, v = t.wrap(u, v)
	x := u * float64(t.width-1)
	y := v * float64(t.height-1)
	x0 := int(x)
	y0 := int(y)
	x1 := (x0 + 1) % t.width
	y1 := (y0 + 1) % t.height
	x -= float64(x0)
	y -= float64(y0)
	c := fauxgl.Color{}
	c = c.Add(t.at(x0, y0).MulScalar((1 - x) * (1 - y)))
	c = c.Add(t.at(x1, y0).MulScalar(x * (1 - y)))
	c = c.Add(t.at(x0, y1).MulScalar((1 - x) * y))
	c = c.Add(t.at(x1, y1).MulScalar(x * y))
	return c
}
