package kit

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func textureFS(t *testing.T) fstest.MapFS {
	return fstest.MapFS{
		"textures/stripes.png": {Data: pngBytes(t, stripesImage())},
		"textures/broken.png":  {Data: []byte("not an image")},
	}
}

// loadSync runs Load and waits for its callback.
func loadSync(t *testing.T, l TextureLoader, pattern, color string) *PatternTexture {
	t.Helper()
	ch := make(chan *PatternTexture, 1)
	l.Load(context.Background(), pattern, color, func(tex *PatternTexture) { ch <- tex })
	select {
	case tex := <-ch:
		return tex
	case <-time.After(5 * time.Second):
		t.Fatal("texture callback not called")
		return nil
	}
}

func TestPatternLoader(t *testing.T) {
	loader := NewPatternLoader(FSSource{FS: textureFS(t)}, nil)

	t.Run("should resolve solid synchronously with no texture", func(t *testing.T) {
		called := false
		loader.Load(context.Background(), Solid, "#ffffff", func(tex *PatternTexture) {
			called = true
			assert.Nil(t, tex)
		})
		assert.True(t, called)
	})
	t.Run("should recolor the dark pixels of a pattern", func(t *testing.T) {
		tex := loadSync(t, loader, "stripes", "#FFFFFF")
		require.NotNil(t, tex)
		assert.Equal(t, "stripes", tex.Name)
		assert.Equal(t, "#ffffff", tex.Color)
		assert.Equal(t, 2.0, tex.RepeatU)
		assert.Equal(t, 2.0, tex.RepeatV)
		assert.Equal(t, color.NRGBA{255, 255, 255, 200}, tex.Image.NRGBAAt(0, 0))
		assert.Equal(t, color.NRGBA{0, 0, 0, 0}, tex.Image.NRGBAAt(0, 1))
	})
	t.Run("should use the texture as-is without a color", func(t *testing.T) {
		tex, err := loader.Fetch(context.Background(), "stripes", "")
		require.NoError(t, err)
		assert.Equal(t, "", tex.Color)
		assert.Equal(t, color.NRGBA{3, 5, 9, 200}, tex.Image.NRGBAAt(0, 0))
	})
	t.Run("should deliver nil when the asset is missing", func(t *testing.T) {
		assert.Nil(t, loadSync(t, loader, "diamonds", "#ff0000"))
	})
	t.Run("should deliver nil when the asset cannot be decoded", func(t *testing.T) {
		assert.Nil(t, loadSync(t, loader, "broken", "#ff0000"))
	})
	t.Run("should downscale large textures", func(t *testing.T) {
		big := image.NewNRGBA(image.Rect(0, 0, 1024, 256))
		fsys := fstest.MapFS{"textures/big.png": {Data: pngBytes(t, big)}}
		l := NewPatternLoader(FSSource{FS: fsys}, nil)
		tex, err := l.Fetch(context.Background(), "big", "#123456")
		require.NoError(t, err)
		assert.Equal(t, image.Pt(512, 128), tex.Image.Bounds().Size())
	})
	t.Run("should leave no mask color at the edges of a downscaled pattern", func(t *testing.T) {
		// given one-pixel black and white columns twice the size limit
		big := image.NewNRGBA(image.Rect(0, 0, 2*MaxTextureSize, 8))
		for y := 0; y < 8; y++ {
			for x := 0; x < 2*MaxTextureSize; x++ {
				c := color.NRGBA{255, 255, 255, 255}
				if x%2 == 0 {
					c = color.NRGBA{0, 0, 0, 255}
				}
				big.SetNRGBA(x, y, c)
			}
		}
		fsys := fstest.MapFS{"textures/big.png": {Data: pngBytes(t, big)}}
		l := NewPatternLoader(FSSource{FS: fsys}, nil)
		// when
		tex, err := l.Fetch(context.Background(), "big", "#ff0000")
		// then
		require.NoError(t, err)
		b := tex.Image.Bounds()
		require.Equal(t, MaxTextureSize, b.Dx())
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				p := tex.Image.NRGBAAt(x, y)
				require.Greater(t, p.R, uint8(250), "pixel %d,%d is %v", x, y, p)
				require.Equal(t, p.G, p.B, "pixel %d,%d is %v", x, y, p)
			}
		}
	})
}

func TestFSSource(t *testing.T) {
	t.Run("should fail on a cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := FSSource{FS: textureFS(t)}.Fetch(ctx, "textures/stripes.png")
		assert.ErrorIs(t, err, context.Canceled)
	})
}
