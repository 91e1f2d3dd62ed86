package cache

import (
	"bytes"
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
)

// ErrInvalidImageURL is returned for cover URLs that are not absolute http(s) URLs
// on one of the allowed image hosts.
var ErrInvalidImageURL = errors.New("invalid image url")

// Limits for downloaded covers, checked before the image is decoded.
const (
	maxImageBytes  = 10 << 20
	maxImagePixels = 40_000_000
	maxRedirects   = 5
)

// ImageCache downloads cover images once, scales them down and serves them from disk.
type ImageCache struct {
	cacheDir  string
	client    *http.Client
	hosts     map[string]struct{}
	maxWidth  int
	maxHeight int
	quality   int
	maxBytes  int64
	maxPixels int
}

// NewImageCache creates a new image cache that scales covers to at most 340x500.
// Only images on one of hosts are downloaded.
func NewImageCache(cacheDir string, hosts []string) *ImageCache {
	return NewImageCacheWithOptions(cacheDir, hosts, 340, 500, 85)
}

// NewImageCacheWithOptions creates a new image cache with custom scaling options.
func NewImageCacheWithOptions(cacheDir string, hosts []string, maxWidth, maxHeight, quality int) *ImageCache {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		log.Errorf("Failed to create cache directory: %v", err)
	}

	ic := &ImageCache{
		cacheDir:  cacheDir,
		hosts:     make(map[string]struct{}, len(hosts)),
		maxWidth:  maxWidth,
		maxHeight: maxHeight,
		quality:   quality,
		maxBytes:  maxImageBytes,
		maxPixels: maxImagePixels,
	}
	for _, host := range hosts {
		ic.hosts[strings.ToLower(host)] = struct{}{}
	}
	ic.client = &http.Client{
		Timeout: 30 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			if !ic.allowedHost(req.URL) {
				return fmt.Errorf("%w: redirect to host %q", ErrInvalidImageURL, req.URL.Hostname())
			}
			return nil
		},
	}
	return ic
}

// ProxyURL returns the local URL that serves the cached version of the image.
func ProxyURL(imageURL string) string {
	if imageURL == "" {
		return ""
	}
	return "/api/images/cache?url=" + url.QueryEscape(imageURL)
}

func (ic *ImageCache) getCacheKey(imageURL string) string {
	hash := md5.Sum([]byte(imageURL))
	return fmt.Sprintf("%x", hash)
}

// getCacheFilePath returns the file path for a cached image, keeping jpg or png extensions.
func (ic *ImageCache) getCacheFilePath(u *url.URL) string {
	ext := ".jpg"
	if strings.EqualFold(path.Ext(u.Path), ".png") {
		ext = ".png"
	}
	return filepath.Join(ic.cacheDir, ic.getCacheKey(u.String())+ext)
}

func (ic *ImageCache) allowedHost(u *url.URL) bool {
	_, ok := ic.hosts[strings.ToLower(u.Hostname())]
	return ok
}

func (ic *ImageCache) parseImageURL(imageURL string) (*url.URL, error) {
	u, err := url.Parse(imageURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidImageURL, imageURL)
	}
	if !ic.allowedHost(u) {
		return nil, fmt.Errorf("%w: host %q is not allowed", ErrInvalidImageURL, u.Hostname())
	}
	return u, nil
}

// GetCachedImagePath returns the local path for an image, downloading it if necessary.
func (ic *ImageCache) GetCachedImagePath(ctx context.Context, imageURL string) (string, error) {
	u, err := ic.parseImageURL(imageURL)
	if err != nil {
		return "", err
	}

	cacheFilePath := ic.getCacheFilePath(u)
	if _, err := os.Stat(cacheFilePath); err == nil {
		log.Debugf("Using cached image: %s", cacheFilePath)
		return cacheFilePath, nil
	}

	log.Debugf("Downloading image from: %s", imageURL)
	return ic.downloadAndCache(ctx, u.String(), cacheFilePath)
}

func (ic *ImageCache) downloadAndCache(ctx context.Context, imageURL, cacheFilePath string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create image request: %w", err)
	}
	resp, err := ic.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download image: HTTP %d", resp.StatusCode)
	}
	if contentType := resp.Header.Get("Content-Type"); !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("invalid content type: %s", contentType)
	}

	if resp.ContentLength > ic.maxBytes {
		return "", fmt.Errorf("image too large: %d bytes", resp.ContentLength)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, ic.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to download image: %w", err)
	}
	if int64(len(data)) > ic.maxBytes {
		return "", fmt.Errorf("image too large: more than %d bytes", ic.maxBytes)
	}

	imgConfig, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}
	if imgConfig.Width*imgConfig.Height > ic.maxPixels {
		return "", fmt.Errorf("image too large: %dx%d pixels", imgConfig.Width, imgConfig.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	newWidth, newHeight := ic.calculateScaledDimensions(bounds.Dx(), bounds.Dy())
	if newWidth != bounds.Dx() || newHeight != bounds.Dy() {
		img = imaging.Resize(img, newWidth, newHeight, imaging.Lanczos)
		log.Debugf("Resized image from %dx%d to %dx%d for: %s", bounds.Dx(), bounds.Dy(), newWidth, newHeight, imageURL)
	}

	// write next to the target and rename so readers never see a partial file
	tempFile, err := os.CreateTemp(ic.cacheDir, "tmp_*"+filepath.Ext(cacheFilePath))
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tempFilePath := tempFile.Name()
	defer os.Remove(tempFilePath) //nolint:errcheck

	if err := ic.encode(img, tempFile, cacheFilePath); err != nil {
		tempFile.Close() //nolint:errcheck,gosec
		return "", fmt.Errorf("failed to save processed image: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return "", fmt.Errorf("failed to save processed image: %w", err)
	}
	if err := os.Rename(tempFilePath, cacheFilePath); err != nil {
		return "", fmt.Errorf("failed to move temp file: %w", err)
	}

	log.Infof("Cached image: %s -> %s", imageURL, cacheFilePath)
	return cacheFilePath, nil
}

func (ic *ImageCache) encode(img image.Image, f *os.File, filePath string) error {
	if strings.EqualFold(filepath.Ext(filePath), ".png") {
		return imaging.Encode(f, img, imaging.PNG, imaging.PNGCompressionLevel(6))
	}
	return imaging.Encode(f, img, imaging.JPEG, imaging.JPEGQuality(ic.quality))
}

// ServeImage serves a cached image or downloads it if not cached.
func (ic *ImageCache) ServeImage(imageURL string, w http.ResponseWriter, r *http.Request) error {
	cacheFilePath, err := ic.GetCachedImagePath(r.Context(), imageURL)
	if err != nil {
		if errors.Is(err, ErrInvalidImageURL) {
			http.Error(w, "Invalid image url", http.StatusBadRequest)
			return err
		}
		log.Errorf("Failed to get cached image: %v", err)
		http.Error(w, "Failed to get image", http.StatusBadGateway)
		return err
	}

	file, err := os.Open(cacheFilePath)
	if err != nil {
		log.Errorf("Failed to open cached image: %v", err)
		http.Error(w, "Failed to open image", http.StatusInternalServerError)
		return err
	}
	defer file.Close() //nolint:errcheck

	fileInfo, err := file.Stat()
	if err != nil {
		log.Errorf("Failed to get file info: %v", err)
		http.Error(w, "Failed to get file info", http.StatusInternalServerError)
		return err
	}

	if filepath.Ext(cacheFilePath) == ".png" {
		w.Header().Set("Content-Type", "image/png")
	} else {
		w.Header().Set("Content-Type", "image/jpeg")
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")

	// ServeContent answers If-Modified-Since on its own
	http.ServeContent(w, r, fileInfo.Name(), fileInfo.ModTime(), file)
	return nil
}

// CleanupOldImages removes cached images older than maxAge and returns how many were removed.
func (ic *ImageCache) CleanupOldImages(maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	var removed int

	err := filepath.WalkDir(ic.cacheDir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().Before(cutoff) {
			log.Debugf("Removing old cached image: %s", p)
			if err := os.Remove(p); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	return removed, err
}

// Usage returns the number of cached images and their total size in bytes.
func (ic *ImageCache) Usage() (int, int64, error) {
	var (
		files int
		size  int64
	)
	err := filepath.WalkDir(ic.cacheDir, func(_ string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		files++
		size += info.Size()
		return nil
	})
	return files, size, err
}

// calculateScaledDimensions fits the image into the max bounds keeping its aspect ratio.
func (ic *ImageCache) calculateScaledDimensions(width, height int) (int, int) {
	if width <= ic.maxWidth && height <= ic.maxHeight {
		return width, height
	}

	if width*ic.maxHeight > height*ic.maxWidth {
		return ic.maxWidth, max(1, height*ic.maxWidth/width)
	}
	return max(1, width*ic.maxHeight/height), ic.maxHeight
}
