package cache

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/gamehub/gamehub/internal/config"
	"github.com/gamehub/gamehub/pkg/gamehub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngineCache(t *testing.T, ttl time.Duration) *EngineCache {
	t.Helper()
	c, err := NewEngineCache(&config.CacheConfig{
		Type:       config.CacheTypeMemory,
		CatalogTTL: ttl,
		DetailTTL:  ttl,
	})
	require.NoError(t, err)
	return c
}

func TestPrefixedCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newTestEngineCache(t, time.Minute)

	list := gamehub.GameList{
		Count: 2,
		Next:  "next",
		Games: []gamehub.Game{{ID: "1", Title: "Portal", Platforms: []string{"PC"}}},
	}
	require.NoError(t, c.CatalogCache.Set(ctx, "1|portal", list))

	got, err := c.CatalogCache.Get(ctx, "1|portal")
	require.NoError(t, err)
	assert.Equal(t, list, got)

	_, err = c.CatalogCache.Get(ctx, "2|portal")
	assert.Error(t, err)

	require.NoError(t, c.CatalogCache.Delete(ctx, "1|portal"))
	_, err = c.CatalogCache.Get(ctx, "1|portal")
	assert.Error(t, err)
}

func TestPrefixedCache_Expiration(t *testing.T) {
	ctx := context.Background()
	c := newTestEngineCache(t, 20*time.Millisecond)

	require.NoError(t, c.DetailCache.Set(ctx, 42, gamehub.GameDetail{ID: 42, Name: "Doom"}))
	got, err := c.DetailCache.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "Doom", got.Name)

	time.Sleep(50 * time.Millisecond)
	_, err = c.DetailCache.Get(ctx, 42)
	assert.Error(t, err)
	assert.Equal(t, 1, c.DeleteExpired())
}

func TestEngineCache_ClearAllAndStats(t *testing.T) {
	ctx := context.Background()
	c := newTestEngineCache(t, 0)

	require.NoError(t, c.CatalogCache.Set(ctx, "a", gamehub.GameList{}))
	require.NoError(t, c.DetailCache.Set(ctx, "b", gamehub.GameDetail{ID: 1}))
	c.ClearAll(ctx)

	_, err := c.CatalogCache.Get(ctx, "a")
	assert.Error(t, err)
	_, err = c.DetailCache.Get(ctx, "b")
	assert.Error(t, err)

	stats := c.GetStats()
	require.Len(t, stats, 2)
	assert.Equal(t, "catalog", stats[0].CacheName)
	assert.Equal(t, config.CacheTypeMemory, c.CatalogCache.GetType())
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// serverHost returns the host name of a test server, so an image cache can be allowed to use it.
func serverHost(t *testing.T, server *httptest.Server) string {
	t.Helper()
	u, err := url.Parse(server.URL)
	require.NoError(t, err)
	return u.Hostname()
}

func TestImageCache_ServeImage(t *testing.T) {
	body := pngBytes(t, 680, 1000)
	var hits int
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(body)
	}))
	defer upstream.Close()

	ic := NewImageCache(t.TempDir(), []string{serverHost(t, upstream)})
	imageURL := upstream.URL + "/covers/portal.png"

	for range 2 {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, ProxyURL(imageURL), nil)
		require.NoError(t, ic.ServeImage(imageURL, rec, req))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

		img, err := png.Decode(rec.Body)
		require.NoError(t, err)
		assert.Equal(t, 340, img.Bounds().Dx())
		assert.Equal(t, 500, img.Bounds().Dy())
	}
	assert.Equal(t, 1, hits, "second request must be served from disk")
}

func TestImageCache_InvalidURL(t *testing.T) {
	ic := NewImageCache(t.TempDir(), []string{"media.rawg.io"})

	for _, u := range []string{"", "file:///etc/passwd", "/relative.jpg", "ftp://host/x.jpg"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/images/cache", nil)
		err := ic.ServeImage(u, rec, req)
		require.ErrorIs(t, err, ErrInvalidImageURL, u)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
}

func TestImageCache_RejectsNonImages(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer upstream.Close()

	ic := NewImageCache(t.TempDir(), []string{serverHost(t, upstream)})
	_, err := ic.GetCachedImagePath(context.Background(), upstream.URL+"/x.jpg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid content type")
}

func TestImageCache_RejectsHostsNotAllowed(t *testing.T) {
	var hits int
	internal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "image/png")
	}))
	defer internal.Close()

	ic := NewImageCache(t.TempDir(), []string{"media.rawg.io"})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/images/cache", nil)

	err := ic.ServeImage(internal.URL+"/admin/secret.png", rec, req)
	require.ErrorIs(t, err, ErrInvalidImageURL)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, hits)
}

func TestImageCache_RejectsRedirectsToOtherHosts(t *testing.T) {
	var hits int
	internal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer internal.Close()

	// 127.0.0.1 is allowed, the redirect target is addressed as localhost
	redirectTo := "http://localhost:" + strconv.Itoa(internal.Listener.Addr().(*net.TCPAddr).Port)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, redirectTo+"/secret.png", http.StatusFound)
	}))
	defer upstream.Close()

	ic := NewImageCache(t.TempDir(), []string{serverHost(t, upstream)})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/images/cache", nil)

	err := ic.ServeImage(upstream.URL+"/cover.png", rec, req)
	require.ErrorIs(t, err, ErrInvalidImageURL)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, hits)
}

func TestImageCache_RejectsOversizedImages(t *testing.T) {
	body := pngBytes(t, 680, 1000)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(body)
	}))
	defer upstream.Close()

	ic := NewImageCache(t.TempDir(), []string{serverHost(t, upstream)})
	ic.maxPixels = 680 * 999
	_, err := ic.GetCachedImagePath(context.Background(), upstream.URL+"/huge.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "680x1000 pixels")

	ic.maxPixels = maxImagePixels
	ic.maxBytes = int64(len(body) - 1)
	_, err = ic.GetCachedImagePath(context.Background(), upstream.URL+"/heavy.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "image too large")

	files, _, err := ic.Usage()
	require.NoError(t, err)
	assert.Zero(t, files)
}

func TestImageCache_CleanupOldImages(t *testing.T) {
	dir := t.TempDir()
	ic := NewImageCache(dir, nil)

	oldFile := filepath.Join(dir, "old.jpg")
	newFile := filepath.Join(dir, "new.jpg")
	require.NoError(t, os.WriteFile(oldFile, []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(newFile, []byte("x"), 0o600))
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(oldFile, past, past))

	removed, err := ic.CleanupOldImages(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NoFileExists(t, oldFile)
	assert.FileExists(t, newFile)
}

func TestImageCache_Usage(t *testing.T) {
	dir := t.TempDir()
	ic := NewImageCache(dir, nil)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("abc"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.png"), []byte("defgh"), 0o600))

	files, size, err := ic.Usage()
	require.NoError(t, err)
	assert.Equal(t, 2, files)
	assert.Equal(t, int64(8), size)

	files, size, err = NewImageCache(filepath.Join(dir, "missing"), nil).Usage()
	require.NoError(t, err)
	assert.Zero(t, files)
	assert.Zero(t, size)
}

func TestCalculateScaledDimensions(t *testing.T) {
	ic := &ImageCache{maxWidth: 340, maxHeight: 500}

	tests := []struct {
		w, h, wantW, wantH int
	}{
		{100, 100, 100, 100},
		{680, 1000, 340, 500},
		{1920, 1080, 340, 191},
		{340, 1000, 170, 500},
	}
	for _, tt := range tests {
		w, h := ic.calculateScaledDimensions(tt.w, tt.h)
		assert.Equal(t, tt.wantW, w)
		assert.Equal(t, tt.wantH, h)
	}
}

func TestProxyURL(t *testing.T) {
	assert.Empty(t, ProxyURL(""))
	assert.Equal(t, "/api/images/cache?url=https%3A%2F%2Fimg.test%2Fa.jpg%3Fw%3D1", ProxyURL("https://img.test/a.jpg?w=1"))
}
