package imaging

import (
	"bufio"
	"bytes"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// Asset is a decoded image file together with what is needed to write it
// back in the same format.
type Asset struct {
	// Path is the file the asset was read from.
	Path string

	// Format is the decoder name reported by image.Decode ("png", "webp", ...).
	Format string

	// Image is the decoded pixel data.
	Image image.Image

	// HasAlpha reports whether the file carries a per-pixel alpha channel.
	// See HasAlpha for the in-memory rule; PNG files are judged by their
	// header instead.
	HasAlpha bool
}

// Open reads and decodes the image at path.
//
// # Errors
//
//   - Returns an error wrapping os.ErrNotExist if the file does not exist
//   - Returns an error if the file is not a valid PNG, JPEG, GIF or WebP image
func Open(path string) (*Asset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open image")
	}
	defer f.Close()

	br := bufio.NewReader(f)
	// The PNG header is needed to tell a real alpha channel from a tRNS
	// color key; a short file simply yields a short slice.
	header, _ := br.Peek(pngHeaderLen)

	img, format, err := image.Decode(br)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode image %s", path)
	}

	hasAlpha := HasAlpha(img)
	if format == "png" {
		hasAlpha = pngHasAlphaChannel(header, img)
	}

	return &Asset{
		Path:     path,
		Format:   format,
		Image:    img,
		HasAlpha: hasAlpha,
	}, nil
}

// HasAlpha reports whether img uses a pixel layout with an alpha channel.
//
// Paletted images are treated as having no alpha channel even when their
// palette contains transparent entries; only true per-pixel alpha layouts
// qualify.
func HasAlpha(img image.Image) bool {
	switch img.(type) {
	case *image.NRGBA, *image.NRGBA64, *image.RGBA, *image.RGBA64,
		*image.NYCbCrA, *image.Alpha, *image.Alpha16:
		return true
	}
	return false
}

// PNG signature plus the IHDR chunk up to and including the color type.
const pngHeaderLen = 26

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// PNG color types that store a per-pixel alpha channel.
const (
	pngGrayAlpha = 4
	pngRGBA      = 6
)

// pngHasAlphaChannel reports whether a PNG stores a per-pixel alpha
// channel, judging by the IHDR color type.
//
// The decoder turns a truecolor or gray file with a tRNS color key into
// NRGBA, but such a file still has no alpha channel and is not cropped.
// When the header cannot be read the decoded layout decides, where
// RGBA/RGBA64 only ever come from opaque files.
func pngHasAlphaChannel(header []byte, img image.Image) bool {
	if len(header) >= pngHeaderLen && bytes.Equal(header[:8], pngSignature) &&
		string(header[12:16]) == "IHDR" {
		ct := header[25]
		return ct == pngGrayAlpha || ct == pngRGBA
	}
	switch img.(type) {
	case *image.RGBA, *image.RGBA64:
		return false
	}
	return HasAlpha(img)
}

// keepAlpha stops the PNG encoder from dropping the alpha channel of an
// image that happens to be fully opaque.
type keepAlpha struct {
	image.Image
}

func (keepAlpha) Opaque() bool { return false }

// Encode writes img to w in the named format. WebP output is lossless so
// that cropping never degrades pixels. PNG output keeps an alpha channel
// whenever img has one, even if every pixel is opaque, so a cropped
// sprite reads back the way it was written.
func Encode(w io.Writer, img image.Image, format string) error {
	format = strings.ToLower(format)
	if format == "webp" {
		return webp.Encode(w, img, &webp.Options{Lossless: true})
	}
	f, err := imaging.FormatFromExtension(format)
	if err != nil {
		return errors.Wrapf(err, "unsupported output format %q", format)
	}
	if f == imaging.PNG && HasAlpha(img) {
		img = keepAlpha{img}
	}
	return imaging.Encode(w, img, f)
}

// Save replaces the file at path with img encoded in format.
//
// The image is written to a temporary file in the same directory which is
// then renamed over path, so a failed encode leaves the original intact.
// The original file mode is preserved when the file already exists.
func Save(img image.Image, path, format string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if err := Encode(tmp, img, format); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "failed to encode %s", path)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to flush temp file")
	}
	if info, err := os.Stat(path); err == nil {
		if err := os.Chmod(tmpName, info.Mode().Perm()); err != nil {
			return errors.Wrap(err, "failed to copy file mode")
		}
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errors.Wrapf(err, "failed to replace %s", path)
	}
	return nil
}

// ImageCache provides thread-safe caching of decoded assets to avoid
// redundant disk reads.
//
// Assets are keyed by the exact path string passed to Load. Callers that
// overwrite a file must Evict its path so the next Load sees the new pixels.
type ImageCache struct {
	mu     sync.RWMutex
	assets map[string]*Asset
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		assets: make(map[string]*Asset),
	}
}

// Load retrieves an asset from the cache or opens it from disk if not cached.
func (c *ImageCache) Load(path string) (*Asset, error) {
	c.mu.RLock()
	if a, ok := c.assets[path]; ok {
		c.mu.RUnlock()
		return a, nil
	}
	c.mu.RUnlock()

	a, err := Open(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.assets[path] = a
	c.mu.Unlock()

	return a, nil
}

// Clear removes all assets from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.assets = make(map[string]*Asset)
	c.mu.Unlock()
}

// Evict removes a specific asset from the cache by its path.
//
// If the path is not in the cache, this method does nothing.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.assets, path)
	c.mu.Unlock()
}

// ImageInfo contains metadata about a sprite file.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the decoder that read the file: "png", "webp", "jpeg" or "gif".
	Format string `json:"format"`

	// ColorDepth indicates the bit depth per channel: "8-bit" or "16-bit".
	ColorDepth string `json:"color_depth"`

	// HasAlpha indicates whether the file carries per-pixel transparency.
	HasAlpha bool `json:"has_alpha"`

	// Bounds is the bounding box of the visible content, or nil when the
	// image is fully transparent or has no alpha channel.
	Bounds *BoundingBox `json:"bbox,omitempty"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads a sprite through cache and describes it.
//
// Parameters:
//   - cache: The image cache to use for loading. Must not be nil.
//   - path: Path to the image file.
//
// Returns:
//   - *ImageInfo: Metadata about the image, including its content bounds.
//   - error: Non-nil if the image cannot be loaded or the file cannot be stat'd.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	a, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to stat file")
	}

	colorDepth := "8-bit"
	switch a.Image.(type) {
	case *image.RGBA64, *image.NRGBA64, *image.Gray16, *image.Alpha16:
		colorDepth = "16-bit"
	}

	info := &ImageInfo{
		Width:         a.Image.Bounds().Dx(),
		Height:        a.Image.Bounds().Dy(),
		Format:        a.Format,
		ColorDepth:    colorDepth,
		HasAlpha:      a.HasAlpha,
		FileSizeBytes: stat.Size(),
	}
	if a.HasAlpha {
		if box, ok := AlphaBounds(a.Image); ok {
			info.Bounds = &box
		}
	}
	return info, nil
}
