package kit

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp"
)

// TextureLoader delivers a pattern texture asynchronously.
// done receives nil for Solid and for any load failure.
type TextureLoader interface {
	Load(ctx context.Context, pattern, color string, done func(*PatternTexture))
}

// PatternLoader loads pattern images from an AssetSource.
type PatternLoader struct {
	source  AssetSource
	catalog Catalog
}

var _ TextureLoader = (*PatternLoader)(nil)

func NewPatternLoader(source AssetSource, catalog Catalog) *PatternLoader {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &PatternLoader{source: source, catalog: catalog}
}

// Load fetches the pattern in the background and calls done exactly once.
// Solid resolves immediately on the calling goroutine.
// In-flight loads are not cancelled by later calls.
func (l *PatternLoader) Load(ctx context.Context, pattern, color string, done func(*PatternTexture)) {
	if pattern == "" || pattern == Solid {
		done(nil)
		return
	}
	go func() {
		tex, err := l.Fetch(ctx, pattern, color)
		if err != nil {
			log.Printf("Warning: Failed to load pattern %q: %v", pattern, err)
			done(nil)
			return
		}
		done(tex)
	}()
}

// Fetch loads, bounds and optionally recolors a pattern texture.
// An empty color returns the texture as-is.
func (l *PatternLoader) Fetch(ctx context.Context, pattern, color string) (*PatternTexture, error) {
	p := l.catalog.Lookup(pattern)
	data, err := l.source.Fetch(ctx, p.Path())
	if err != nil {
		return nil, err
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", p.Path(), err)
	}
	// Recolor at full size so downscaling blends the new color, not the mask.
	if color != "" {
		img = Recolor(img, HexToRGB(color))
	}
	img = resize.Thumbnail(MaxTextureSize, MaxTextureSize, img, resize.Bilinear)

	tex := &PatternTexture{
		Name:    p.Name,
		Image:   toNRGBA(img),
		RepeatU: p.RepeatU,
		RepeatV: p.RepeatV,
	}
	if color != "" {
		tex.Color = normalizeHex(color)
	}
	return tex, nil
}

// toNRGBA returns a fresh non-premultiplied copy of img anchored at 0,0.
func toNRGBA(img image.Image) *image.NRGBA {
	return imaging.Clone(img)
}
