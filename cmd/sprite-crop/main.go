package main

import (
	"flag"
	"fmt"
	"image"
	"os"

	"badc0de.net/pkg/flagutil/v1"
	"github.com/golang/glog"
	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/ironsheep/sprite-crop/internal/batch"
	"github.com/ironsheep/sprite-crop/internal/imaging"
	"github.com/ironsheep/sprite-crop/internal/manifest"
	"github.com/ironsheep/sprite-crop/internal/preview"
	"github.com/ironsheep/sprite-crop/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var (
	manifestPath = flag.String("manifest", "", "JSON or YAML manifest listing the sprites to crop; the built-in asset list is used when empty")
	spritesDir   = flag.String("sprites_dir", "", "sprites directory, overriding the one named in the manifest")
	dryRun       = flag.Bool("dry_run", false, "compute and report every crop without writing files")
	showPreview  = flag.Bool("preview", false, "print each cropped sprite to the terminal")
	previewMode  = flag.String("preview_mode", "auto", "preview renderer: auto, graphics, 24bit, 256 or ascii")
	colorMode    = flag.String("color", "auto", "report coloring: auto, always or never")
	strict       = flag.Bool("strict", false, "exit with status 1 if any sprite failed")
	dumpManifest = flag.String("dump_manifest", "", "write the effective manifest to this file (.json, .yaml or .yml) and exit")
)

func main() {
	serve := false
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("sprite-crop %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			usage()
			return
		case "serve":
			serve = true
			os.Args = append(os.Args[:1], os.Args[2:]...)
		}
	}

	flag.Usage = usage
	flagutil.Parse()
	flag.Set("logtostderr", "true")
	defer glog.Flush()

	if serve {
		// stdout belongs to the protocol; logs already go to stderr.
		glog.Infof("sprite-crop MCP server %s (built %s, commit %s)", Version, BuildTime, GitCommit)
		if err := server.New(Version).Run(); err != nil {
			glog.Exitf("Server error: %v", err)
		}
		return
	}

	code := run()
	glog.Flush()
	os.Exit(code)
}

func usage() {
	fmt.Fprintln(os.Stderr, "sprite-crop - trim transparent padding from sprites and spritesheets")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  sprite-crop [flags]          crop every sprite in the manifest, in place")
	fmt.Fprintln(os.Stderr, "  sprite-crop serve [flags]    run as an MCP server on stdin/stdout")
	fmt.Fprintln(os.Stderr, "  sprite-crop --version        print version information")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Flags:")
	flag.PrintDefaults()
}

// run performs a batch crop and returns the process exit status.
func run() int {
	m, err := loadManifest()
	if err != nil {
		glog.Errorf("%v", err)
		fmt.Fprintf(os.Stderr, "sprite-crop: %v\n", err)
		return 1
	}

	if *dumpManifest != "" {
		if err := m.SaveToFile(*dumpManifest); err != nil {
			fmt.Fprintf(os.Stderr, "sprite-crop: %v\n", err)
			return 1
		}
		fmt.Printf("Wrote manifest with %d sprites to %s\n", len(m.Sprites), *dumpManifest)
		return 0
	}

	colorize, err := colorEnabled(*colorMode, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sprite-crop: %v\n", err)
		return 1
	}

	opts := batch.Options{DryRun: *dryRun}
	if *showPreview {
		mode, err := preview.ParseMode(*previewMode)
		if err != nil {
			fmt.Fprintf(os.Stderr, "sprite-crop: %v\n", err)
			return 1
		}
		printer := preview.NewPrinter(os.Stdout, mode)
		opts.Preview = func(o batch.Outcome, img image.Image) {
			if o.Kind == manifest.KindSheet {
				style := imaging.DefaultGuideStyle
				style.Labels = false
				img = imaging.DrawFrameGuides(img, o.Frames, style)
			}
			if err := printer.Print(o.Name, img); err != nil {
				glog.Warningf("%s: preview failed: %v", o.Name, err)
			}
		}
	}

	report := batch.NewRunner(opts).Run(m)
	if err := report.Print(os.Stdout, colorize); err != nil {
		glog.Errorf("failed to print report: %v", err)
		return 1
	}

	if *strict && report.HasFailures() {
		return 1
	}
	return 0
}

// loadManifest returns the manifest named by -manifest, or the built-in
// one, with -sprites_dir applied.
func loadManifest() (*manifest.Manifest, error) {
	m := manifest.Default()
	if *manifestPath != "" {
		var err error
		if m, err = manifest.LoadFromFile(*manifestPath); err != nil {
			return nil, err
		}
	}
	if *spritesDir != "" {
		m.Dir = *spritesDir
	}
	return m, nil
}

// colorEnabled resolves the -color flag for output f.
func colorEnabled(mode string, f *os.File) (bool, error) {
	switch mode {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto", "":
		return term.IsTerminal(int(f.Fd())), nil
	}
	return false, errors.Errorf("invalid -color value %q (want auto, always or never)", mode)
}
