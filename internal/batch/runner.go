// Package batch runs a manifest of sprites through the croppers and
// records a per-asset outcome.
//
// Processing is strictly sequential in manifest order: each asset is
// opened, cropped, saved and closed before the next one starts. Missing
// files, images without alpha and fully transparent images are skipped;
// decode and write errors mark only that asset as failed. A run never
// stops early.
package batch

import (
	"image"
	"os"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/ironsheep/sprite-crop/internal/imaging"
	"github.com/ironsheep/sprite-crop/internal/manifest"
)

// Options controls a Runner.
type Options struct {
	// DryRun computes every crop but never writes a file.
	DryRun bool

	// Preview, if set, is called with each cropped image before it is saved.
	Preview func(o Outcome, img image.Image)
}

// Runner processes manifest entries.
type Runner struct {
	opts Options
}

// NewRunner creates a Runner with the given options.
func NewRunner(opts Options) *Runner {
	return &Runner{opts: opts}
}

// Run processes every entry of m in order, reading files from
// m.ResolveDir().
func (r *Runner) Run(m *manifest.Manifest) *Report {
	dir := m.ResolveDir()
	glog.Infof("processing %d sprites from %s", len(m.Sprites), dir)

	report := &Report{Dir: dir, DryRun: r.opts.DryRun}
	for _, e := range m.Sprites {
		report.Outcomes = append(report.Outcomes, r.Process(dir, e))
	}
	return report
}

// Process handles a single entry located under dir.
func (r *Runner) Process(dir string, e manifest.Entry) Outcome {
	o := Outcome{Name: e.Name, Path: e.Path(dir), Kind: e.Kind}

	if _, err := os.Stat(o.Path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			glog.Warningf("%s: not found", o.Path)
			return skipped(o, ReasonNotFound)
		}
		glog.Errorf("%s: %v", o.Path, err)
		return failed(o, errors.Wrap(err, "stat"))
	}

	a, err := imaging.Open(o.Path)
	if err != nil {
		glog.Errorf("%s: %v", o.Path, err)
		return failed(o, err)
	}
	if !a.HasAlpha {
		glog.Warningf("%s: %s image %T has no alpha channel", o.Path, a.Format, a.Image)
		return skipped(o, ReasonNoAlpha)
	}

	var img image.Image
	switch e.Kind {
	case manifest.KindSheet:
		o.Frames = e.Frames
		res, err := imaging.CropSpritesheet(a.Image, e.Frames)
		if err != nil {
			return r.classify(o, err)
		}
		if res.Remainder > 0 {
			glog.Warningf("%s: width %d is not a multiple of %d frames, dropping %d columns",
				o.Path, res.OldSize.Width, e.Frames, res.Remainder)
		}
		if glog.V(1) {
			for _, f := range imaging.FrameBounds(a.Image, e.Frames) {
				glog.Infof("%s: frame %d bbox=%v empty=%v", o.Path, f.Index, f.Box, f.Empty)
			}
		}
		o.OldSize, o.NewSize = &res.OldSize, &res.NewSize
		o.OldFrame, o.NewFrame = &res.OldFrame, &res.NewFrame
		o.Box = &res.Box
		o.Remainder = res.Remainder
		img = res.Image
	default:
		res, err := imaging.CropSprite(a.Image)
		if err != nil {
			return r.classify(o, err)
		}
		o.OldSize, o.NewSize = &res.OldSize, &res.NewSize
		o.Box = &res.Box
		img = res.Image
	}
	o.Status = StatusCropped

	if r.opts.Preview != nil {
		r.opts.Preview(o, img)
	}

	if r.opts.DryRun {
		glog.Infof("%s: dry run, not writing %v", o.Path, o.NewSize)
		return o
	}
	if err := imaging.Save(img, o.Path, a.Format); err != nil {
		glog.Errorf("%s: %v", o.Path, err)
		return failed(o, err)
	}
	o.Written = true
	glog.Infof("%s: %v -> %v", o.Path, o.OldSize, o.NewSize)
	return o
}

// classify maps a cropper error to a skip or a failure.
func (r *Runner) classify(o Outcome, err error) Outcome {
	switch {
	case errors.Is(err, imaging.ErrNoAlpha):
		glog.Warningf("%s: no alpha channel", o.Path)
		return skipped(o, ReasonNoAlpha)
	case errors.Is(err, imaging.ErrEmpty):
		glog.Warningf("%s: no visible content", o.Path)
		return skipped(o, ReasonEmpty)
	}
	glog.Errorf("%s: %v", o.Path, err)
	return failed(o, err)
}
