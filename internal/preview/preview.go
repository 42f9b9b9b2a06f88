// Package preview renders cropped sprites on a terminal so a run can be
// inspected without opening an image viewer.
//
// Transparent areas are shown over a checkerboard, the way image editors
// show them, so the trimmed edges are visible. Several output modes are
// supported, from inline graphics protocols (kitty, iTerm2, sixel) down to
// plain ASCII for terminals without color.
package preview

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"strings"

	"github.com/BourgeoisBear/rasterm"
	"github.com/andybons/gogif"
	gc "github.com/gookit/color"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"golang.org/x/term"
)

// Mode selects how images are drawn.
type Mode string

const (
	ModeAuto     Mode = "auto"
	ModeGraphics Mode = "graphics"
	Mode24Bit    Mode = "24bit"
	Mode256      Mode = "256"
	ModeASCII    Mode = "ascii"
)

// ParseMode converts a flag value into a Mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeAuto, ModeGraphics, Mode24Bit, Mode256, ModeASCII:
		return m, nil
	case "":
		return ModeAuto, nil
	}
	return "", errors.Errorf("unknown preview mode %q (want auto, graphics, 24bit, 256 or ascii)", s)
}

// Checkerboard colors and cell size, in source pixels.
var (
	checkerLight = colorful.Color{R: 0.8, G: 0.8, B: 0.8}
	checkerDark  = colorful.Color{R: 0.6, G: 0.6, B: 0.6}
)

const checkerCell = 4

// Default text-mode limits used when the output is not a terminal.
const (
	defaultCols = 80
	defaultRows = 24
)

// Printer draws images to a writer.
type Printer struct {
	w    io.Writer
	mode Mode

	// MaxWidth and MaxHeight bound the drawn image, in pixels for graphics
	// modes and in character cells for text modes. Zero means derive from
	// the terminal size.
	MaxWidth  int
	MaxHeight int
}

// NewPrinter creates a Printer writing to w.
func NewPrinter(w io.Writer, mode Mode) *Printer {
	return &Printer{w: w, mode: mode}
}

// terminalFd returns the file descriptor behind w if it is a terminal.
func terminalFd(w io.Writer) (int, bool) {
	f, ok := w.(*os.File)
	if !ok {
		return 0, false
	}
	fd := int(f.Fd())
	return fd, term.IsTerminal(fd)
}

// resolveMode turns ModeAuto into a concrete mode for the current output.
func (p *Printer) resolveMode() Mode {
	if p.mode != ModeAuto {
		return p.mode
	}
	if _, ok := terminalFd(p.w); !ok {
		return ModeASCII
	}
	if rasterm.IsTermKitty() || rasterm.IsTermItermWez() {
		return ModeGraphics
	}
	switch strings.ToLower(os.Getenv("COLORTERM")) {
	case "truecolor", "24bit":
		return Mode24Bit
	}
	return Mode256
}

// textBounds returns the maximum image size in pixels for text modes. Each
// pixel takes two columns so that it looks roughly square.
func (p *Printer) textBounds() (int, int) {
	cols, rows := defaultCols, defaultRows
	if fd, ok := terminalFd(p.w); ok {
		if c, r, err := term.GetSize(fd); err == nil && c > 0 && r > 0 {
			cols, rows = c, r
		}
	}
	w, h := cols/2, rows-2
	if p.MaxWidth > 0 {
		w = p.MaxWidth
	}
	if p.MaxHeight > 0 {
		h = p.MaxHeight
	}
	return max(w, 1), max(h, 1)
}

// Print writes a title line followed by img.
func (p *Printer) Print(title string, img image.Image) error {
	size := img.Bounds().Size()
	if _, err := fmt.Fprintf(p.w, "%s (%dx%d)\n", title, size.X, size.Y); err != nil {
		return err
	}
	if size.X == 0 || size.Y == 0 {
		return nil
	}

	mode := p.resolveMode()
	if mode == ModeGraphics {
		err := p.printGraphics(img)
		if err != errNoGraphics {
			return err
		}
		mode = Mode24Bit
	}

	w, h := p.textBounds()
	small := Fit(img, w, h)
	switch mode {
	case ModeASCII:
		return printASCII(p.w, small)
	case Mode256:
		return printCells(p.w, Checkerboard(small, 1), cell256)
	default:
		return printCells(p.w, Checkerboard(small, 1), cellTrueColor)
	}
}

var errNoGraphics = errors.New("terminal has no inline graphics support")

// printGraphics draws img with the first graphics protocol the terminal
// understands.
func (p *Printer) printGraphics(img image.Image) error {
	if p.MaxWidth > 0 || p.MaxHeight > 0 {
		img = Fit(img, max(p.MaxWidth, 1<<16), max(p.MaxHeight, 1<<16))
	}
	flat := Checkerboard(img, checkerCell)

	var err error
	switch {
	case rasterm.IsTermKitty():
		err = rasterm.Settings{}.KittyWriteImage(p.w, flat)
	case rasterm.IsTermItermWez():
		err = rasterm.Settings{}.ItermWriteImage(p.w, flat)
	default:
		capable, cerr := rasterm.IsSixelCapable()
		if cerr != nil || !capable {
			return errNoGraphics
		}
		paletted := image.NewPaletted(flat.Bounds(), nil)
		quantizer := gogif.MedianCutQuantizer{NumColor: 64}
		quantizer.Quantize(paletted, flat.Bounds(), flat, image.Point{})
		err = rasterm.Settings{}.SixelWriteImage(p.w, paletted)
	}
	if err != nil {
		return errors.Wrap(err, "failed to write inline image")
	}
	_, err = fmt.Fprintln(p.w)
	return err
}

// Fit scales img down, preserving aspect ratio, so that it fits in
// maxW x maxH. Images that already fit are returned unchanged.
// Nearest-neighbor sampling keeps pixel art crisp.
func Fit(img image.Image, maxW, maxH int) image.Image {
	size := img.Bounds().Size()
	if size.X <= maxW && size.Y <= maxH {
		return img
	}
	return resize.Thumbnail(uint(maxW), uint(maxH), img, resize.NearestNeighbor)
}

// Checkerboard composites img over a light/dark checkerboard with cells of
// the given size and returns an opaque image of the same dimensions.
func Checkerboard(img image.Image, cell int) *image.NRGBA {
	if cell < 1 {
		cell = 1
	}
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			bg := checkerLight
			if (x/cell+y/cell)%2 == 1 {
				bg = checkerDark
			}
			out.Set(x, y, blend(bg, img.At(b.Min.X+x, b.Min.Y+y)))
		}
	}
	return out
}

// blend draws c over an opaque background.
func blend(bg colorful.Color, c color.Color) color.Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	switch n.A {
	case 0:
		return bg
	case 0xff:
		return color.NRGBA{n.R, n.G, n.B, 0xff}
	}
	fg := colorful.Color{R: float64(n.R) / 255, G: float64(n.G) / 255, B: float64(n.B) / 255}
	return bg.BlendRgb(fg, float64(n.A)/255).Clamped()
}

type cellFunc func(c color.NRGBA) string

// cellTrueColor paints one pixel with a 24-bit background escape.
func cellTrueColor(c color.NRGBA) string {
	return fmt.Sprintf("\x1b[48;2;%d;%d;%dm  ", c.R, c.G, c.B)
}

// cell256 paints one pixel with the nearest xterm 256-color background.
func cell256(c color.NRGBA) string {
	return gc.C256(xterm256(c), true).Sprint("  ")
}

// xterm256 maps c onto the 6x6x6 color cube of the xterm palette.
func xterm256(c color.NRGBA) uint8 {
	q := func(v uint8) uint8 { return uint8((int(v)*5 + 127) / 255) }
	return 16 + 36*q(c.R) + 6*q(c.G) + q(c.B)
}

func printCells(w io.Writer, img *image.NRGBA, cell cellFunc) error {
	var sb strings.Builder
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			sb.WriteString(cell(img.NRGBAAt(x, y)))
		}
		sb.WriteString("\x1b[0m\n")
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// printASCII draws img without escape sequences. Transparent pixels are
// blank and visible ones are shaded by lightness.
func printASCII(w io.Writer, img image.Image) error {
	var sb strings.Builder
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			sb.WriteString(shade(img.At(x, y)))
		}
		sb.WriteString("\n")
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func shade(c color.Color) string {
	col, ok := colorful.MakeColor(c)
	if !ok {
		return "  "
	}
	l, _, _ := col.Lab()
	switch {
	case l < 0.125:
		return ".."
	case l < 0.25:
		return "--"
	case l < 0.5:
		return "=="
	default:
		return "##"
	}
}
