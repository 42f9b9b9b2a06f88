package batch

import (
	"fmt"
	"io"

	"github.com/gookit/color"

	"github.com/ironsheep/sprite-crop/internal/manifest"
)

// Report collects the outcomes of one run, in processing order.
type Report struct {
	Dir      string    `json:"dir"`
	DryRun   bool      `json:"dry_run"`
	Outcomes []Outcome `json:"outcomes"`
}

// Counts returns how many assets ended in each status.
func (r *Report) Counts() (cropped, skipped, failed int) {
	for _, o := range r.Outcomes {
		switch o.Status {
		case StatusCropped:
			cropped++
		case StatusSkipped:
			skipped++
		case StatusFailed:
			failed++
		}
	}
	return cropped, skipped, failed
}

// HasFailures reports whether any asset failed. Skips do not count.
func (r *Report) HasFailures() bool {
	_, _, failed := r.Counts()
	return failed > 0
}

// Find returns the outcome for the named entry.
func (r *Report) Find(name string) (Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.Name == name {
			return o, true
		}
	}
	return Outcome{}, false
}

// sectionTitles head each run of same-kind outcomes in the printed report.
var sectionTitles = map[manifest.Kind]string{
	manifest.KindSingle: "=== Cropping single sprites ===",
	manifest.KindSheet:  "=== Cropping spritesheets ===",
}

// Print writes the human readable report followed by a summary line.
//
// Outcomes are printed in processing order, which is manifest order. A
// section header is written whenever the kind changes, so a manifest that
// lists singles before sheets prints two sections and one that interleaves
// them prints a header per run. With colorize set, lines are highlighted
// using ANSI colors.
func (r *Report) Print(w io.Writer, colorize bool) error {
	paint := func(c color.Color, s string) string {
		if !colorize {
			return s
		}
		return c.Sprint(s)
	}

	var section manifest.Kind
	for i, o := range r.Outcomes {
		if i == 0 || o.Kind != section {
			if i > 0 {
				if _, err := fmt.Fprintln(w); err != nil {
					return err
				}
			}
			section = o.Kind
			title, ok := sectionTitles[o.Kind]
			if !ok {
				title = fmt.Sprintf("=== Cropping %s ===", o.Kind)
			}
			if _, err := fmt.Fprintln(w, paint(color.Bold, title)); err != nil {
				return err
			}
		}

		c := color.Green
		switch o.Status {
		case StatusSkipped:
			c = color.Yellow
		case StatusFailed:
			c = color.Red
		}
		if _, err := fmt.Fprintf(w, "  %s\n", paint(c, o.String())); err != nil {
			return err
		}
	}

	cropped, skipped, failed := r.Counts()
	summary := fmt.Sprintf("\nDone! %d cropped, %d skipped, %d failed", cropped, skipped, failed)
	if r.DryRun {
		summary += " (dry run, nothing written)"
	}
	_, err := fmt.Fprintln(w, summary)
	return err
}
