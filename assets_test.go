package main

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient() *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.RetryMax = 0
	c.Logger = nil
	return c
}

func TestAssetCache(t *testing.T) {
	client := newTestClient()
	httpmock.ActivateNonDefault(client.HTTPClient)
	defer httpmock.DeactivateAndReset()
	ctx := context.Background()

	t.Run("should download an asset once", func(t *testing.T) {
		// given
		httpmock.Reset()
		httpmock.ZeroCallCounters()
		httpmock.RegisterResponder(
			"GET",
			"https://cdn.example.com/kits/home.glb",
			httpmock.NewBytesResponder(http.StatusOK, []byte("glb")),
		)
		c := NewAssetCache("https://cdn.example.com/", client)
		// when
		first, err := c.Fetch(ctx, "kits/home.glb")
		require.NoError(t, err)
		second, err := c.Fetch(ctx, "kits/home.glb")
		require.NoError(t, err)
		// then
		assert.Equal(t, []byte("glb"), first)
		assert.Equal(t, first, second)
		assert.Equal(t, 1, httpmock.GetTotalCallCount())
		assert.Equal(t, 1, c.Len())
	})
	t.Run("should report missing assets and not cache them", func(t *testing.T) {
		httpmock.Reset()
		httpmock.ZeroCallCounters()
		httpmock.RegisterResponder(
			"GET",
			"https://cdn.example.com/textures/stripes.png",
			httpmock.NewStringResponder(http.StatusNotFound, "not found"),
		)
		c := NewAssetCache("https://cdn.example.com", client)
		_, err := c.Fetch(ctx, "textures/stripes.png")
		assert.Error(t, err)
		_, err = c.Fetch(ctx, "textures/stripes.png")
		assert.Error(t, err)
		assert.Equal(t, 2, httpmock.GetTotalCallCount())
		assert.Equal(t, 0, c.Len())
	})
}

func TestAssetCacheSharedDownloadSurvivesCancelledCaller(t *testing.T) {
	client := newTestClient()
	httpmock.ActivateNonDefault(client.HTTPClient)
	defer httpmock.DeactivateAndReset()

	entered := make(chan context.Context, 4)
	release := make(chan struct{})
	httpmock.RegisterResponder(
		"GET",
		"https://cdn.example.com/kits/away.glb",
		func(req *http.Request) (*http.Response, error) {
			entered <- req.Context()
			<-release
			if err := req.Context().Err(); err != nil {
				return nil, err
			}
			return httpmock.NewBytesResponse(http.StatusOK, []byte("glb")), nil
		},
	)
	c := NewAssetCache("https://cdn.example.com", client)

	// given a download started by a caller that later gives up
	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.Fetch(ctx, "kits/away.glb")
		firstErr <- err
	}()
	reqCtx := <-entered
	type result struct {
		data []byte
		err  error
	}
	second := make(chan result, 1)
	go func() {
		data, err := c.Fetch(context.Background(), "kits/away.glb")
		second <- result{data, err}
	}()
	time.Sleep(20 * time.Millisecond) // let the second caller join the download

	// when
	cancel()

	// then
	assert.ErrorIs(t, <-firstErr, context.Canceled)
	assert.NoError(t, reqCtx.Err())
	close(release)
	r := <-second
	require.NoError(t, r.err)
	assert.Equal(t, []byte("glb"), r.data)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestAssetURL(t *testing.T) {
	c := NewAssetCache("https://cdn.example.com/assets/", nil)
	assert.Equal(t, "https://cdn.example.com/assets/textures/diagonal%20lines.png", c.assetURL("textures/diagonal lines.png"))
	assert.Equal(t, "https://cdn.example.com/assets/kits/home.glb", c.assetURL("/kits/home.glb"))
}
