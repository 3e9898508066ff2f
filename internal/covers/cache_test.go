package covers

import (
	"bytes"
	"context"
	"image/color"
	"net/http"
	"net/http/httptest"
	"testing"

	"booktracker/internal/config"
	"booktracker/internal/testutil"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := imaging.New(width, height, color.NRGBA{R: 200, G: 120, B: 40, A: 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.JPEG))
	return buf.Bytes()
}

func TestIdentifier(t *testing.T) {
	t.Run("isbn wins", func(t *testing.T) {
		assert.Equal(t, "9780441013593", Identifier("9780441013593", "https://example.org/cover.jpg"))
	})

	t.Run("url hash ignores query string", func(t *testing.T) {
		a := Identifier("", "https://example.org/cover.jpg?token=abc")
		b := Identifier("", "https://example.org/cover.jpg?token=def")
		c := Identifier("", "https://example.org/cover.jpg")
		assert.Equal(t, a, b)
		assert.Equal(t, a, c)
		assert.Len(t, a, 12)
	})

	t.Run("different urls differ", func(t *testing.T) {
		assert.NotEqual(t,
			Identifier("", "https://example.org/one.jpg"),
			Identifier("", "https://example.org/two.jpg"))
	})
}

func TestGetCachedOrFetch(t *testing.T) {
	testutil.ResetConfig(t)
	env := testutil.NewTestEnv(t)
	payload := encodeJPEG(t, 80, 120)

	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	cache := New(Options{Dir: env.RootDir(), HTTPClient: server.Client()})
	ctx := context.Background()

	path := cache.GetCachedOrFetch(ctx, "9780000000001", server.URL+"/cover.jpg")
	require.NotEmpty(t, path)
	assert.True(t, env.FileExists("9780000000001.jpg"))
	assert.NotEmpty(t, env.ReadFile("9780000000001.jpg"))
	assert.Equal(t, 1, requests)

	// Second call is a pure cache hit.
	again := cache.GetCachedOrFetch(ctx, "9780000000001", server.URL+"/cover.jpg")
	assert.Equal(t, path, again)
	assert.Equal(t, 1, requests)
}

func TestGetCachedOrFetchUpdateCoversRedownloads(t *testing.T) {
	testutil.ResetConfig(t)
	env := testutil.NewTestEnv(t)
	payload := encodeJPEG(t, 80, 120)

	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	cache := New(Options{Dir: env.RootDir(), HTTPClient: server.Client()})
	ctx := context.Background()

	require.NotEmpty(t, cache.GetCachedOrFetch(ctx, "refresh", server.URL+"/cover.jpg"))
	require.Equal(t, 1, requests)

	config.SetUpdateCovers(true)

	path := cache.GetCachedOrFetch(ctx, "refresh", server.URL+"/cover.jpg")
	assert.NotEmpty(t, path)
	assert.Equal(t, 2, requests, "cached copy must be refreshed when UpdateCovers is set")
}

func TestGetCachedOrFetchFailedRefreshKeepsOldCopy(t *testing.T) {
	testutil.ResetConfig(t)
	env := testutil.NewTestEnv(t)
	payload := encodeJPEG(t, 80, 120)

	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests > 1 {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	cache := New(Options{Dir: env.RootDir(), HTTPClient: server.Client()})
	ctx := context.Background()

	first := cache.GetCachedOrFetch(ctx, "keep", server.URL+"/cover.jpg")
	require.NotEmpty(t, first)

	config.SetUpdateCovers(true)

	path := cache.GetCachedOrFetch(ctx, "keep", server.URL+"/cover.jpg")
	assert.Equal(t, first, path, "failed refresh falls back to the existing copy")
	assert.True(t, env.FileExists("keep.jpg"))
	assert.Equal(t, 2, requests)
}

func TestGetCachedOrFetchResizesWideImages(t *testing.T) {
	testutil.ResetConfig(t)
	env := testutil.NewTestEnv(t)
	payload := encodeJPEG(t, 400, 200)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	cache := New(Options{Dir: env.RootDir(), HTTPClient: server.Client(), MaxWidth: 100})

	path := cache.GetCachedOrFetch(context.Background(), "wide", server.URL+"/cover.jpg")
	require.NotEmpty(t, path)

	img, err := imaging.Open(path)
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy(), "aspect ratio preserved")
}

func TestGetCachedOrFetchZeroByteFileNotAHit(t *testing.T) {
	testutil.ResetConfig(t)
	env := testutil.NewTestEnv(t)
	payload := encodeJPEG(t, 10, 10)

	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	cache := New(Options{Dir: env.RootDir(), HTTPClient: server.Client()})

	// Simulate a truncated earlier download.
	env.WriteFile("stale.jpg", nil)

	path := cache.GetCachedOrFetch(context.Background(), "stale", server.URL+"/cover.jpg")
	require.NotEmpty(t, path)
	assert.Equal(t, 1, requests, "zero-byte entry must be re-fetched")
	assert.NotEmpty(t, env.ReadFile("stale.jpg"))
}

func TestGetCachedOrFetchFailuresLeaveNoEntry(t *testing.T) {
	testutil.ResetConfig(t)
	env := testutil.NewTestEnv(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing.jpg":
			http.NotFound(w, r)
		default:
			_, _ = w.Write([]byte("this is not an image"))
		}
	}))
	defer server.Close()

	cache := New(Options{Dir: env.RootDir(), HTTPClient: server.Client()})
	ctx := context.Background()

	assert.Empty(t, cache.GetCachedOrFetch(ctx, "missing", server.URL+"/missing.jpg"))
	assert.False(t, env.FileExists("missing.jpg"))

	assert.Empty(t, cache.GetCachedOrFetch(ctx, "garbage", server.URL+"/garbage.jpg"))
	assert.False(t, env.FileExists("garbage.jpg"))
}

func TestGetCachedOrFetchRejectsEmptyInputs(t *testing.T) {
	testutil.ResetConfig(t)
	env := testutil.NewTestEnv(t)

	cache := New(Options{Dir: env.RootDir()})
	assert.Empty(t, cache.GetCachedOrFetch(context.Background(), "", "https://example.org/x.jpg"))
	assert.Empty(t, cache.GetCachedOrFetch(context.Background(), "id", ""))
}
