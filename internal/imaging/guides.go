package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"strconv"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
)

// GuideStyle selects the colors used by DrawFrameGuides.
type GuideStyle struct {
	// FrameColor is the hex color ("#RRGGBB") of frame boundary lines.
	FrameColor string

	// BoxColor is the hex color of the unified bounding box outline.
	BoxColor string

	// Labels draws each frame's index in its top-left corner.
	Labels bool
}

// DefaultGuideStyle draws magenta frame boundaries and a cyan content box.
var DefaultGuideStyle = GuideStyle{
	FrameColor: "#FF00FF",
	BoxColor:   "#00FFFF",
	Labels:     true,
}

// GuidesResult contains a spritesheet rendered with frame guides.
type GuidesResult struct {
	Width       int          `json:"width"`
	Height      int          `json:"height"`
	Frames      int          `json:"frames"`
	FrameWidth  int          `json:"frame_width"`
	Box         *BoundingBox `json:"bbox,omitempty"`
	ImageBase64 string       `json:"image_base64"`
	MimeType    string       `json:"mime_type"`
}

// DrawFrameGuides returns a copy of img with the boundary of every frame
// drawn as a vertical line and the unified content box outlined inside each
// frame. When no frame has content only the boundaries are drawn.
func DrawFrameGuides(img image.Image, frames int, style GuideStyle) *image.NRGBA {
	out := imaging.Clone(img)
	if frames < 1 {
		return out
	}
	w, h := out.Bounds().Dx(), out.Bounds().Dy()
	frameW := w / frames

	frameColor := parseGuideColor(style.FrameColor, color.NRGBA{255, 0, 255, 255})
	boxColor := parseGuideColor(style.BoxColor, color.NRGBA{0, 255, 255, 255})

	box, hasBox := UnifiedBounds(img, frames)
	for i := 0; i < frames; i++ {
		x0 := i * frameW
		if hasBox {
			strokeRect(out, box.Rect().Add(image.Pt(x0, 0)), boxColor)
		}
		for y := 0; y < h; y++ {
			out.SetNRGBA(x0, y, frameColor)
		}
		if style.Labels {
			drawLabel(out, x0+2, 2, strconv.Itoa(i), color.NRGBA{255, 255, 255, 255}, color.NRGBA{0, 0, 0, 180})
		}
	}
	if frameW*frames < w {
		// Mark where the dropped remainder strip starts.
		for y := 0; y < h; y++ {
			out.SetNRGBA(frameW*frames, y, frameColor)
		}
	}
	return out
}

// FrameGuides renders DrawFrameGuides and encodes the result as PNG.
func FrameGuides(img image.Image, frames int, style GuideStyle) (*GuidesResult, error) {
	if frames < 1 {
		return nil, ErrFrameCount
	}
	out := DrawFrameGuides(img, frames, style)

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, errors.Wrap(err, "failed to encode image")
	}

	result := &GuidesResult{
		Width:       out.Bounds().Dx(),
		Height:      out.Bounds().Dy(),
		Frames:      frames,
		FrameWidth:  out.Bounds().Dx() / frames,
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}
	if box, ok := UnifiedBounds(img, frames); ok {
		result.Box = &box
	}
	return result, nil
}

// parseGuideColor parses "#RRGGBB" or "#RGB", falling back to def.
func parseGuideColor(hex string, def color.NRGBA) color.NRGBA {
	if hex == "" {
		return def
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return def
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

// strokeRect outlines r with a one pixel line, clipped to img.
func strokeRect(img *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		img.SetNRGBA(x, r.Min.Y, c)
		img.SetNRGBA(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.SetNRGBA(r.Min.X, y, c)
		img.SetNRGBA(r.Max.X-1, y, c)
	}
}

// drawLabel draws a simple digit label at the given position.
func drawLabel(img *image.NRGBA, x, y int, text string, fg, bg color.NRGBA) {
	// Simple 3x5 pixel font for digits
	glyphs := map[rune][]string{
		'0': {"111", "101", "101", "101", "111"},
		'1': {"010", "110", "010", "010", "111"},
		'2': {"111", "001", "111", "100", "111"},
		'3': {"111", "001", "111", "001", "111"},
		'4': {"101", "101", "111", "001", "001"},
		'5': {"111", "100", "111", "001", "111"},
		'6': {"111", "100", "111", "101", "111"},
		'7': {"111", "001", "001", "001", "001"},
		'8': {"111", "101", "111", "101", "111"},
		'9': {"111", "101", "111", "001", "111"},
	}

	bounds := img.Bounds()
	charWidth := 4
	labelWidth := len(text) * charWidth
	labelHeight := 6

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			px, py := x+dx, y+dy
			if image.Pt(px, py).In(bounds) {
				img.SetNRGBA(px, py, bg)
			}
		}
	}

	cx := x
	for _, ch := range text {
		glyph, ok := glyphs[ch]
		if !ok {
			cx += charWidth
			continue
		}
		for row, line := range glyph {
			for col, pixel := range line {
				if pixel == '1' && image.Pt(cx+col, y+row).In(bounds) {
					img.SetNRGBA(cx+col, y+row, fg)
				}
			}
		}
		cx += charWidth
	}
}
