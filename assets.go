package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/sync/singleflight"

	"kitrender/kit"
)

// maxAssetSize bounds a single downloaded kit or texture.
const maxAssetSize = 64 << 20

// DownloadTimeout bounds one shared asset download, retries included.
const DownloadTimeout = 30 * time.Second

// AssetCache is a thread-safe cache for kit models and pattern textures
// served from the CDN, to avoid redundant downloads.
type AssetCache struct {
	baseURL    string
	httpClient *retryablehttp.Client
	sfg        *singleflight.Group

	mu     sync.RWMutex
	assets map[string][]byte
}

var _ kit.AssetSource = (*AssetCache)(nil)

func NewAssetCache(baseURL string, client *retryablehttp.Client) *AssetCache {
	return &AssetCache{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		sfg:        new(singleflight.Group),
		assets:     make(map[string][]byte),
	}
}

// assetURL escapes each path segment, pattern names may contain spaces.
func (c *AssetCache) assetURL(name string) string {
	parts := strings.Split(strings.TrimPrefix(name, "/"), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return c.baseURL + "/" + strings.Join(parts, "/")
}

// Fetch returns the asset from the cache or downloads it. Concurrent
// requests for the same asset share one download. Failures are not cached.
func (c *AssetCache) Fetch(ctx context.Context, name string) ([]byte, error) {
	u := c.assetURL(name)
	c.mu.RLock()
	data, ok := c.assets[u]
	c.mu.RUnlock()
	if ok {
		return data, nil
	}
	ch := c.sfg.DoChan(u, func() (any, error) {
		// The download outlives any single waiter; each waiter honours its own ctx below.
		dlCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DownloadTimeout)
		defer cancel()
		data, err := c.download(dlCtx, u)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.assets[u] = data
		c.mu.Unlock()
		log.Printf("Cached asset %s (%s)", u, humanize.Bytes(uint64(len(data))))
		return data, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

func (c *AssetCache) download(ctx context.Context, u string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("asset inaccessible at %s: %w", u, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("asset inaccessible at %s: %s", u, resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", u, err)
	}
	if len(data) > maxAssetSize {
		return nil, fmt.Errorf("asset %s exceeds %s", u, humanize.Bytes(maxAssetSize))
	}
	return data, nil
}

// Len returns the number of cached assets.
func (c *AssetCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.assets)
}
