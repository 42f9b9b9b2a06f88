package imaging

import (
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/clone"
	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// Skip reasons returned by the croppers. Callers should treat them as
// "leave the asset alone" rather than as failures.
var (
	ErrNoAlpha = errors.New("image has no alpha channel")
	ErrEmpty   = errors.New("image has no visible content")

	// ErrFrameCount is returned for a spritesheet frame count below one.
	ErrFrameCount = errors.New("frame count must be at least 1")
)

// SpriteCrop is the result of trimming a standalone sprite.
type SpriteCrop struct {
	Image   image.Image `json:"-"`
	Box     BoundingBox `json:"bbox"`
	OldSize Size        `json:"old_size"`
	NewSize Size        `json:"new_size"`
}

// CropSprite trims img to the bounding box of its non-transparent pixels.
//
// Returns ErrNoAlpha if img cannot carry per-pixel transparency and ErrEmpty
// if every pixel is fully transparent. The input image is not modified.
func CropSprite(img image.Image) (*SpriteCrop, error) {
	if !HasAlpha(img) {
		return nil, ErrNoAlpha
	}
	box, ok := AlphaBounds(img)
	if !ok {
		return nil, ErrEmpty
	}

	origin := img.Bounds().Min
	cropped := imaging.Crop(img, box.Rect().Add(origin))

	return &SpriteCrop{
		Image:   cropped,
		Box:     box,
		OldSize: SizeOf(img),
		NewSize: SizeOf(cropped),
	}, nil
}

// FrameBox is the local bounding box of one spritesheet frame.
type FrameBox struct {
	Index int         `json:"index"`
	Box   BoundingBox `json:"bbox"`
	Empty bool        `json:"empty"`
}

// FrameBounds splits img into frames equal-width, full-height frames laid out
// left to right and returns each frame's bounding box in frame-local
// coordinates.
//
// The frame width is width/frames; when the width is not a multiple of
// frames the rightmost remainder columns belong to no frame.
func FrameBounds(img image.Image, frames int) []FrameBox {
	if frames < 1 {
		return nil
	}
	sheet := clone.AsRGBA(img)
	b := sheet.Bounds()
	frameW := b.Dx() / frames

	out := make([]FrameBox, frames)
	for i := range out {
		r := image.Rect(b.Min.X+i*frameW, b.Min.Y, b.Min.X+(i+1)*frameW, b.Max.Y)
		box, ok := AlphaBounds(sheet.SubImage(r))
		out[i] = FrameBox{Index: i, Box: box, Empty: !ok}
	}
	return out
}

// UnifiedBounds returns the union of all non-empty frame boxes, in
// frame-local coordinates. ok is false when no frame has content.
func UnifiedBounds(img image.Image, frames int) (box BoundingBox, ok bool) {
	if frames < 1 {
		return BoundingBox{}, false
	}
	frameW := img.Bounds().Dx() / frames
	frameH := img.Bounds().Dy()

	// Start inverted so that an all-empty sheet stays degenerate.
	union := BoundingBox{X1: frameW, Y1: frameH, X2: 0, Y2: 0}
	for _, f := range FrameBounds(img, frames) {
		if f.Empty {
			continue
		}
		union = union.Union(f.Box)
	}
	if union.Empty() {
		return BoundingBox{}, false
	}
	return union, true
}

// SheetCrop is the result of trimming a spritesheet.
type SheetCrop struct {
	Image    image.Image `json:"-"`
	Frames   int         `json:"frames"`
	Box      BoundingBox `json:"bbox"`
	OldSize  Size        `json:"old_size"`
	NewSize  Size        `json:"new_size"`
	OldFrame Size        `json:"old_frame"`
	NewFrame Size        `json:"new_frame"`

	// Remainder is the number of columns on the right edge that did not fit
	// a whole frame and were dropped.
	Remainder int `json:"remainder"`
}

// CropSpritesheet trims every frame of a horizontal spritesheet to one
// shared bounding box and reassembles them, in order, into a new sheet.
//
// All frames keep identical dimensions so animation stepping by
// width/frames stays aligned. Frames without content still occupy a slot
// in the output. Returns ErrFrameCount, ErrNoAlpha or ErrEmpty without
// producing an image.
func CropSpritesheet(img image.Image, frames int) (*SheetCrop, error) {
	if frames < 1 {
		return nil, ErrFrameCount
	}
	if !HasAlpha(img) {
		return nil, ErrNoAlpha
	}

	box, ok := UnifiedBounds(img, frames)
	if !ok {
		return nil, ErrEmpty
	}

	b := img.Bounds()
	frameW := b.Dx() / frames
	newW, newH := box.Width(), box.Height()

	sheet := imaging.New(newW*frames, newH, color.NRGBA{})
	for i := 0; i < frames; i++ {
		src := image.Rect(i*frameW+box.X1, box.Y1, i*frameW+box.X2, box.Y2).Add(b.Min)
		sheet = imaging.Paste(sheet, imaging.Crop(img, src), image.Pt(i*newW, 0))
	}

	return &SheetCrop{
		Image:     sheet,
		Frames:    frames,
		Box:       box,
		OldSize:   SizeOf(img),
		NewSize:   SizeOf(sheet),
		OldFrame:  Size{Width: frameW, Height: b.Dy()},
		NewFrame:  Size{Width: newW, Height: newH},
		Remainder: b.Dx() - frameW*frames,
	}, nil
}
