package kit

import (
	"context"
	"fmt"
	"io/fs"
)

// AssetSource fetches raw asset bytes by slash separated path,
// e.g. "textures/stripes.png" or "kits/home.glb".
type AssetSource interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// FSSource serves assets from a file system.
type FSSource struct {
	FS fs.FS
}

// Fetch reads name from the file system.
func (s FSSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(s.FS, name)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", name, err)
	}
	return data, nil
}
