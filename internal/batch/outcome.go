package batch

import (
	"fmt"

	"github.com/ironsheep/sprite-crop/internal/imaging"
	"github.com/ironsheep/sprite-crop/internal/manifest"
)

// Status is the overall result for one asset.
type Status string

const (
	// StatusCropped means the asset was trimmed (and written unless dry run).
	StatusCropped Status = "cropped"

	// StatusSkipped means the asset was deliberately left untouched.
	StatusSkipped Status = "skipped"

	// StatusFailed means an I/O or decode error stopped processing of the
	// asset. The batch still continues with the next one.
	StatusFailed Status = "failed"
)

// SkipReason explains a StatusSkipped outcome.
type SkipReason string

const (
	ReasonNotFound SkipReason = "not found"
	ReasonNoAlpha  SkipReason = "no alpha channel"
	ReasonEmpty    SkipReason = "empty"
)

// Outcome records what happened to one manifest entry.
type Outcome struct {
	Name   string        `json:"name"`
	Path   string        `json:"path"`
	Kind   manifest.Kind `json:"kind"`
	Status Status        `json:"status"`
	Reason SkipReason    `json:"reason,omitempty"`

	OldSize *imaging.Size        `json:"old_size,omitempty"`
	NewSize *imaging.Size        `json:"new_size,omitempty"`
	Box     *imaging.BoundingBox `json:"bbox,omitempty"`

	// Sheet only.
	Frames    int           `json:"frames,omitempty"`
	OldFrame  *imaging.Size `json:"old_frame,omitempty"`
	NewFrame  *imaging.Size `json:"new_frame,omitempty"`
	Remainder int           `json:"remainder,omitempty"`

	// Written is false for cropped outcomes produced in dry-run mode.
	Written bool `json:"written"`

	Err   error  `json:"-"`
	Error string `json:"error,omitempty"`
}

func skipped(o Outcome, reason SkipReason) Outcome {
	o.Status = StatusSkipped
	o.Reason = reason
	return o
}

func failed(o Outcome, err error) Outcome {
	o.Status = StatusFailed
	o.Err = err
	o.Error = err.Error()
	return o
}

// String renders the outcome as one console line, without indentation.
func (o Outcome) String() string {
	switch o.Status {
	case StatusCropped:
		line := fmt.Sprintf("%s: %v -> %v", o.Name, o.OldSize, o.NewSize)
		if o.Kind == manifest.KindSheet {
			line += fmt.Sprintf(" (frame: %v -> %v)", o.OldFrame, o.NewFrame)
		} else {
			line += fmt.Sprintf(" (bbox: %v)", o.Box)
		}
		if !o.Written {
			line += " [dry run]"
		}
		return line
	case StatusSkipped:
		return fmt.Sprintf("%s: skipped, %s", o.Name, o.reasonText())
	case StatusFailed:
		return fmt.Sprintf("%s: failed: %s", o.Name, o.Error)
	}
	return o.Name + ": " + string(o.Status)
}

func (o Outcome) reasonText() string {
	if o.Reason != ReasonEmpty {
		return string(o.Reason)
	}
	if o.Kind == manifest.KindSheet {
		return "no content found"
	}
	return "fully transparent"
}
