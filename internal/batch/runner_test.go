package batch

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/sprite-crop/internal/imaging"
	"github.com/ironsheep/sprite-crop/internal/manifest"
)

var red = color.NRGBA{255, 0, 0, 255}

func fill(img *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("failed to write image: %v", err)
	}
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return data
}

// find returns the outcome for name or fails the test.
func find(t *testing.T, r *Report, name string) Outcome {
	t.Helper()
	o, ok := r.Find(name)
	if !ok {
		t.Fatalf("no outcome for %s", name)
	}
	return o
}

func openSize(t *testing.T, path string) imaging.Size {
	t.Helper()
	a, err := imaging.Open(path)
	if err != nil {
		t.Fatalf("Open(%s): %v", path, err)
	}
	return imaging.SizeOf(a.Image)
}

// setupSprites writes a small mixed set of assets and returns the directory
// and a manifest describing them.
func setupSprites(t *testing.T) (string, *manifest.Manifest) {
	t.Helper()
	dir := t.TempDir()

	single := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	fill(single, image.Rect(4, 4, 60, 60), red)
	writePNG(t, filepath.Join(dir, "single.png"), single)

	writePNG(t, filepath.Join(dir, "blank.png"), image.NewNRGBA(image.Rect(0, 0, 64, 64)))

	opaque := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for i := range opaque.Pix {
		opaque.Pix[i] = 0xff
	}
	writePNG(t, filepath.Join(dir, "opaque.png"), opaque)

	sheet := image.NewNRGBA(image.Rect(0, 0, 300, 100))
	fill(sheet, image.Rect(10, 20, 90, 80), red)
	fill(sheet, image.Rect(105, 10, 195, 90), red)
	writePNG(t, filepath.Join(dir, "sheet.png"), sheet)

	writePNG(t, filepath.Join(dir, "blank-sheet.png"), image.NewNRGBA(image.Rect(0, 0, 120, 30)))

	if err := os.WriteFile(filepath.Join(dir, "corrupt.png"), []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	m := &manifest.Manifest{
		Dir: dir,
		Sprites: []manifest.Entry{
			{Name: "single.png", Kind: manifest.KindSingle},
			{Name: "blank.png", Kind: manifest.KindSingle},
			{Name: "opaque.png", Kind: manifest.KindSingle},
			{Name: "missing.png", Kind: manifest.KindSingle},
			{Name: "corrupt.png", Kind: manifest.KindSingle},
			{Name: "sheet.png", Kind: manifest.KindSheet, Frames: 3},
			{Name: "blank-sheet.png", Kind: manifest.KindSheet, Frames: 4},
			{Name: "missing-sheet.png", Kind: manifest.KindSheet, Frames: 2},
		},
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return dir, m
}

func TestRun_Outcomes(t *testing.T) {
	dir, m := setupSprites(t)
	blankBefore := readFile(t, filepath.Join(dir, "blank.png"))
	opaqueBefore := readFile(t, filepath.Join(dir, "opaque.png"))
	blankSheetBefore := readFile(t, filepath.Join(dir, "blank-sheet.png"))

	report := NewRunner(Options{}).Run(m)
	if len(report.Outcomes) != len(m.Sprites) {
		t.Fatalf("got %d outcomes, want %d", len(report.Outcomes), len(m.Sprites))
	}
	if report.Dir != dir {
		t.Errorf("Dir: got %s, want %s", report.Dir, dir)
	}
	for i, o := range report.Outcomes {
		if o.Name != m.Sprites[i].Name {
			t.Errorf("outcome %d: got %s, want %s (manifest order)", i, o.Name, m.Sprites[i].Name)
		}
	}

	tests := []struct {
		name   string
		status Status
		reason SkipReason
	}{
		{"single.png", StatusCropped, ""},
		{"blank.png", StatusSkipped, ReasonEmpty},
		{"opaque.png", StatusSkipped, ReasonNoAlpha},
		{"missing.png", StatusSkipped, ReasonNotFound},
		{"corrupt.png", StatusFailed, ""},
		{"sheet.png", StatusCropped, ""},
		{"blank-sheet.png", StatusSkipped, ReasonEmpty},
		{"missing-sheet.png", StatusSkipped, ReasonNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := find(t, report, tt.name)
			if o.Status != tt.status || o.Reason != tt.reason {
				t.Errorf("got %s/%q, want %s/%q", o.Status, o.Reason, tt.status, tt.reason)
			}
		})
	}

	o := find(t, report, "single.png")
	if !o.Written {
		t.Error("single.png: cropped but not written")
	}
	if *o.NewSize != (imaging.Size{Width: 56, Height: 56}) {
		t.Errorf("single.png: new size %v, want 56x56", *o.NewSize)
	}
	if *o.Box != (imaging.BoundingBox{X1: 4, Y1: 4, X2: 60, Y2: 60}) {
		t.Errorf("single.png: bbox %v", *o.Box)
	}
	if got := openSize(t, filepath.Join(dir, "single.png")); got != (imaging.Size{Width: 56, Height: 56}) {
		t.Errorf("single.png on disk: %v, want 56x56", got)
	}

	o = find(t, report, "sheet.png")
	if o.Frames != 3 || *o.OldSize != (imaging.Size{Width: 300, Height: 100}) ||
		*o.NewSize != (imaging.Size{Width: 270, Height: 80}) ||
		*o.OldFrame != (imaging.Size{Width: 100, Height: 100}) ||
		*o.NewFrame != (imaging.Size{Width: 90, Height: 80}) {
		t.Errorf("sheet.png: got %s", o)
	}
	if got := openSize(t, filepath.Join(dir, "sheet.png")); got != (imaging.Size{Width: 270, Height: 80}) {
		t.Errorf("sheet.png on disk: %v, want 270x80", got)
	}

	if o := find(t, report, "corrupt.png"); o.Err == nil || o.Error == "" {
		t.Error("corrupt.png: failure should carry the error")
	}

	if !bytes.Equal(blankBefore, readFile(t, filepath.Join(dir, "blank.png"))) {
		t.Error("blank.png was modified")
	}
	if !bytes.Equal(opaqueBefore, readFile(t, filepath.Join(dir, "opaque.png"))) {
		t.Error("opaque.png was modified")
	}
	if !bytes.Equal(blankSheetBefore, readFile(t, filepath.Join(dir, "blank-sheet.png"))) {
		t.Error("blank-sheet.png was modified")
	}
	if _, err := os.Stat(filepath.Join(dir, "missing.png")); !os.IsNotExist(err) {
		t.Error("missing.png should still not exist")
	}

	cropped, skipped, failed := report.Counts()
	if cropped != 2 || skipped != 5 || failed != 1 {
		t.Errorf("counts: got %d/%d/%d, want 2/5/1", cropped, skipped, failed)
	}
	if !report.HasFailures() {
		t.Error("HasFailures should be true")
	}
}

func TestRun_SecondRunIsNoOp(t *testing.T) {
	// Both assets are trimmed to content with no transparent pixel left, so
	// the second run only passes if the alpha channel survived the save.
	_, m := setupSprites(t)
	NewRunner(Options{}).Run(m)

	report := NewRunner(Options{}).Run(m)
	for _, name := range []string{"single.png", "sheet.png"} {
		o := find(t, report, name)
		if o.Status != StatusCropped {
			t.Errorf("%s: second run got %s", name, o)
			continue
		}
		if *o.OldSize != *o.NewSize {
			t.Errorf("%s: second run shrank %v -> %v", name, *o.OldSize, *o.NewSize)
		}
	}
}

func TestRun_OpaqueSheetKeepsAlpha(t *testing.T) {
	dir := t.TempDir()
	sheet := image.NewNRGBA(image.Rect(0, 0, 40, 10))
	fill(sheet, image.Rect(2, 2, 18, 8), red)
	fill(sheet, image.Rect(22, 2, 38, 8), red)
	writePNG(t, filepath.Join(dir, "walk.png"), sheet)

	m := &manifest.Manifest{Dir: dir, Sprites: []manifest.Entry{{Name: "walk.png", Kind: manifest.KindSheet, Frames: 2}}}
	if o := NewRunner(Options{}).Run(m).Outcomes[0]; *o.NewSize != (imaging.Size{Width: 32, Height: 6}) {
		t.Fatalf("got %s", o)
	}

	a, err := imaging.Open(filepath.Join(dir, "walk.png"))
	if err != nil {
		t.Fatal(err)
	}
	if !a.HasAlpha {
		t.Errorf("cropped sheet lost its alpha channel (%T)", a.Image)
	}
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	dir, m := setupSprites(t)
	before := map[string][]byte{}
	for _, name := range []string{"single.png", "sheet.png"} {
		before[name] = readFile(t, filepath.Join(dir, name))
	}

	report := NewRunner(Options{DryRun: true}).Run(m)
	if !report.DryRun {
		t.Error("report should be marked dry run")
	}

	for name, data := range before {
		o := find(t, report, name)
		if o.Status != StatusCropped || o.Written {
			t.Errorf("%s: got status %s written=%v", name, o.Status, o.Written)
		}
		if !bytes.Equal(data, readFile(t, filepath.Join(dir, name))) {
			t.Errorf("%s changed during dry run", name)
		}
	}
}

func TestRun_PreviewHook(t *testing.T) {
	_, m := setupSprites(t)

	var seen []string
	preview := func(o Outcome, img image.Image) {
		seen = append(seen, o.Name)
		if got := imaging.SizeOf(img); got != *o.NewSize {
			t.Errorf("%s: preview image %v, outcome says %v", o.Name, got, *o.NewSize)
		}
	}
	NewRunner(Options{DryRun: true, Preview: preview}).Run(m)

	if strings.Join(seen, ",") != "single.png,sheet.png" {
		t.Errorf("preview calls: got %v", seen)
	}
}

func TestProcess_NotDivisibleSheet(t *testing.T) {
	dir := t.TempDir()
	sheet := image.NewNRGBA(image.Rect(0, 0, 305, 20))
	fill(sheet, image.Rect(10, 5, 20, 15), red)
	writePNG(t, filepath.Join(dir, "odd.png"), sheet)

	o := NewRunner(Options{}).Process(dir, manifest.Entry{Name: "odd.png", Kind: manifest.KindSheet, Frames: 3})
	if o.Status != StatusCropped {
		t.Fatalf("got %s", o)
	}
	if o.Remainder != 2 {
		t.Errorf("Remainder: got %d, want 2", o.Remainder)
	}
	if *o.NewSize != (imaging.Size{Width: 30, Height: 10}) {
		t.Errorf("NewSize: got %v, want 30x10", *o.NewSize)
	}
}

func TestOutcome_String(t *testing.T) {
	size := func(w, h int) *imaging.Size { return &imaging.Size{Width: w, Height: h} }

	tests := []struct {
		name string
		o    Outcome
		want string
	}{
		{
			"single cropped",
			Outcome{Name: "roach.png", Kind: manifest.KindSingle, Status: StatusCropped, Written: true,
				OldSize: size(64, 64), NewSize: size(56, 56), Box: &imaging.BoundingBox{X1: 4, Y1: 4, X2: 60, Y2: 60}},
			"roach.png: 64x64 -> 56x56 (bbox: (4,4)-(60,60))",
		},
		{
			"sheet cropped dry run",
			Outcome{Name: "spider.png", Kind: manifest.KindSheet, Status: StatusCropped,
				OldSize: size(300, 100), NewSize: size(270, 80), OldFrame: size(100, 100), NewFrame: size(90, 80)},
			"spider.png: 300x100 -> 270x80 (frame: 100x100 -> 90x80) [dry run]",
		},
		{"not found", Outcome{Name: "a.png", Status: StatusSkipped, Reason: ReasonNotFound}, "a.png: skipped, not found"},
		{"no alpha", Outcome{Name: "a.png", Status: StatusSkipped, Reason: ReasonNoAlpha}, "a.png: skipped, no alpha channel"},
		{"empty single", Outcome{Name: "a.png", Kind: manifest.KindSingle, Status: StatusSkipped, Reason: ReasonEmpty}, "a.png: skipped, fully transparent"},
		{"empty sheet", Outcome{Name: "a.png", Kind: manifest.KindSheet, Status: StatusSkipped, Reason: ReasonEmpty}, "a.png: skipped, no content found"},
		{"failed", Outcome{Name: "a.png", Status: StatusFailed, Error: "boom"}, "a.png: failed: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.o.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReport_Print(t *testing.T) {
	_, m := setupSprites(t)
	report := NewRunner(Options{}).Run(m)

	var buf bytes.Buffer
	if err := report.Print(&buf, false); err != nil {
		t.Fatalf("Print: %v", err)
	}
	out := buf.String()

	singles := strings.Index(out, "=== Cropping single sprites ===")
	sheets := strings.Index(out, "=== Cropping spritesheets ===")
	if singles == -1 || sheets == -1 || singles > sheets {
		t.Fatalf("section headers missing or out of order:\n%s", out)
	}

	for _, line := range []string{
		"  single.png: 64x64 -> 56x56 (bbox: (4,4)-(60,60))\n",
		"  sheet.png: 300x100 -> 270x80 (frame: 100x100 -> 90x80)\n",
		"  missing.png: skipped, not found\n",
		"  blank-sheet.png: skipped, no content found\n",
		"Done! 2 cropped, 5 skipped, 1 failed",
	} {
		if !strings.Contains(out, line) {
			t.Errorf("report missing %q:\n%s", line, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("escape codes written without colorize")
	}
}

func TestReport_PrintFollowsProcessingOrder(t *testing.T) {
	report := &Report{Outcomes: []Outcome{
		{Name: "a.png", Kind: manifest.KindSheet, Status: StatusSkipped, Reason: ReasonNotFound},
		{Name: "b.png", Kind: manifest.KindSingle, Status: StatusSkipped, Reason: ReasonNotFound},
		{Name: "c.png", Kind: manifest.KindSingle, Status: StatusSkipped, Reason: ReasonNotFound},
		{Name: "d.png", Kind: manifest.KindSheet, Status: StatusSkipped, Reason: ReasonNotFound},
	}}

	var buf bytes.Buffer
	if err := report.Print(&buf, false); err != nil {
		t.Fatalf("Print: %v", err)
	}

	want := strings.Join([]string{
		"=== Cropping spritesheets ===",
		"  a.png: skipped, not found",
		"",
		"=== Cropping single sprites ===",
		"  b.png: skipped, not found",
		"  c.png: skipped, not found",
		"",
		"=== Cropping spritesheets ===",
		"  d.png: skipped, not found",
		"",
		"Done! 0 cropped, 4 skipped, 0 failed",
		"",
	}, "\n")
	if got := buf.String(); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
	if report.HasFailures() {
		t.Error("skips are not failures")
	}
}

func TestReport_PrintDryRunSummary(t *testing.T) {
	report := &Report{DryRun: true}

	var buf bytes.Buffer
	if err := report.Print(&buf, false); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "\nDone! 0 cropped, 0 skipped, 0 failed (dry run, nothing written)\n" {
		t.Errorf("got %q", got)
	}
}
