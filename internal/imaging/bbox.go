package imaging

import (
	"fmt"
	"image"
)

// Size is a width/height pair in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// SizeOf returns the dimensions of img.
func SizeOf(img image.Image) Size {
	b := img.Bounds()
	return Size{Width: b.Dx(), Height: b.Dy()}
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// BoundingBox is a pixel rectangle relative to an image's own origin.
//
// (X1,Y1) is inclusive and (X2,Y2) is exclusive, matching image.Rectangle.
// A box returned by AlphaBounds always satisfies X1 < X2 and Y1 < Y2.
type BoundingBox struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Width returns the horizontal extent of the box.
func (b BoundingBox) Width() int { return b.X2 - b.X1 }

// Height returns the vertical extent of the box.
func (b BoundingBox) Height() int { return b.Y2 - b.Y1 }

// Size returns the box dimensions.
func (b BoundingBox) Size() Size { return Size{Width: b.Width(), Height: b.Height()} }

// Empty reports whether the box is degenerate on either axis.
func (b BoundingBox) Empty() bool {
	return b.X2 <= b.X1 || b.Y2 <= b.Y1
}

// Rect converts the box to an image.Rectangle in the same coordinates.
func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(b.X1, b.Y1, b.X2, b.Y2)
}

// Contains reports whether o lies entirely inside b.
func (b BoundingBox) Contains(o BoundingBox) bool {
	return o.X1 >= b.X1 && o.Y1 >= b.Y1 && o.X2 <= b.X2 && o.Y2 <= b.Y2
}

// Union returns the smallest box containing both b and o.
func (b BoundingBox) Union(o BoundingBox) BoundingBox {
	return BoundingBox{
		X1: min(b.X1, o.X1),
		Y1: min(b.Y1, o.Y1),
		X2: max(b.X2, o.X2),
		Y2: max(b.Y2, o.Y2),
	}
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", b.X1, b.Y1, b.X2, b.Y2)
}

// AlphaBounds returns the smallest box enclosing every pixel with non-zero
// alpha, in coordinates relative to img.Bounds().Min.
//
// The threshold is exact: a pixel with alpha 1/255 counts as content, so
// faint anti-aliased edges are kept. ok is false when the image has no such
// pixel (fully transparent or zero-sized).
func AlphaBounds(img image.Image) (box BoundingBox, ok bool) {
	b := img.Bounds()
	opaque := alphaProbe(img)

	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X, b.Min.Y
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if !opaque(x, y) {
				continue
			}
			if x < minX {
				minX = x
			}
			if x+1 > maxX {
				maxX = x + 1
			}
			if y < minY {
				minY = y
			}
			maxY = y + 1
		}
	}

	if maxX <= minX || maxY <= minY {
		return BoundingBox{}, false
	}
	return BoundingBox{
		X1: minX - b.Min.X,
		Y1: minY - b.Min.Y,
		X2: maxX - b.Min.X,
		Y2: maxY - b.Min.Y,
	}, true
}

// alphaProbe returns a predicate reporting whether the pixel at (x,y) has
// non-zero alpha. The common 8-bit layouts read Pix directly.
func alphaProbe(img image.Image) func(x, y int) bool {
	switch m := img.(type) {
	case *image.NRGBA:
		return func(x, y int) bool { return m.Pix[m.PixOffset(x, y)+3] != 0 }
	case *image.RGBA:
		return func(x, y int) bool { return m.Pix[m.PixOffset(x, y)+3] != 0 }
	case *image.Alpha:
		return func(x, y int) bool { return m.Pix[m.PixOffset(x, y)] != 0 }
	default:
		return func(x, y int) bool {
			_, _, _, a := img.At(x, y).RGBA()
			return a != 0
		}
	}
}
