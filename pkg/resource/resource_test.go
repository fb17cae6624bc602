package resource

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *mapCache) Get(url string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.data[url]
	return d, ok
}

func (m *mapCache) Save(url string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[url] = data
}

func TestHTTPFetcher(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		switch r.URL.Path {
		case "/ok":
			w.Write([]byte("payload"))
		case "/envelope":
			w.Write([]byte(`{"success":false,"error":"asset missing"}`))
		case "/gone":
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"success":false,"error":"not found"}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	cache := &mapCache{data: map[string][]byte{}}
	f := NewHTTPFetcher(5*time.Second, cache)
	ctx := context.Background()

	data, err := f.Fetch(ctx, srv.URL+"/ok")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	// second fetch is served from the cache
	_, err = f.Fetch(ctx, srv.URL+"/ok")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	_, err = f.Fetch(ctx, srv.URL+"/envelope")
	assert.ErrorIs(t, err, ErrFetch)
	assert.Contains(t, err.Error(), "asset missing")

	_, err = f.Fetch(ctx, srv.URL+"/gone")
	assert.ErrorIs(t, err, ErrFetch)
	assert.Contains(t, err.Error(), "404")

	_, err = f.Fetch(ctx, srv.URL+"/boom")
	assert.ErrorIs(t, err, ErrFetch)

	_, ok := cache.Get(srv.URL + "/gone")
	assert.False(t, ok)
}

func TestHTTPFetcherHonorsCancel(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewHTTPFetcher(time.Second, nil).Fetch(ctx, srv.URL)
	assert.ErrorIs(t, err, ErrFetch)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestBitmapDecoder(t *testing.T) {
	d := NewBitmapDecoder()

	img, err := d.Decode(pngBytes(t))
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())

	_, err = d.Decode(nil)
	assert.ErrorIs(t, err, ErrDecode)

	_, err = d.Decode([]byte("definitely not an image"))
	assert.ErrorIs(t, err, ErrDecode)
}

func TestModelCacheWritesAndOverwrites(t *testing.T) {
	c, err := NewModelCache(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	path, err := c.Write(ctx, "m1", 1, []byte("first"))
	require.NoError(t, err)
	assert.Equal(t, c.Path("m1"), path)

	path, err = c.Write(ctx, "m1", 2, bytes.Repeat([]byte("x"), chunkSize*2+10))
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, data, chunkSize*2+10)
}

func TestModelCacheRejectsStaleGeneration(t *testing.T) {
	c, err := NewModelCache(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = c.Write(ctx, "m1", 5, []byte("newer"))
	require.NoError(t, err)

	_, err = c.Write(ctx, "m1", 3, []byte("older"))
	assert.ErrorIs(t, err, ErrStaleWrite)

	data, err := os.ReadFile(c.Path("m1"))
	require.NoError(t, err)
	assert.Equal(t, "newer", string(data))

	// other ids are independent
	_, err = c.Write(ctx, "m2", 1, []byte("other"))
	assert.NoError(t, err)
}

func TestModelCacheStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	c, err := NewModelCache(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Write(ctx, "m1", 1, bytes.Repeat([]byte("x"), chunkSize*3))
	assert.ErrorIs(t, err, context.Canceled)

	_, statErr := os.Stat(c.Path("m1"))
	assert.True(t, os.IsNotExist(statErr))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "partial file is cleaned up")
}

func TestModelCachePathIsDistinctPerID(t *testing.T) {
	dir := t.TempDir()
	c, err := NewModelCache(dir)
	require.NoError(t, err)
	ctx := context.Background()

	assert.NotEqual(t, c.Path("a/b"), c.Path("a_b"))
	assert.Equal(t, dir, filepath.Dir(c.Path("../../etc/passwd")))

	pathA, err := c.Write(ctx, "scene/a", 1, []byte("AAAA"))
	require.NoError(t, err)
	pathB, err := c.Write(ctx, "scene_a", 2, []byte("BBBB"))
	require.NoError(t, err)
	assert.NotEqual(t, pathA, pathB)

	data, err := os.ReadFile(pathA)
	require.NoError(t, err)
	assert.Equal(t, "AAAA", string(data))
}
