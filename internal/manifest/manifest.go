// Package manifest describes which sprite files to trim and how.
//
// A manifest is a directory plus an ordered list of entries. Each entry is
// either a standalone sprite or a horizontal spritesheet with a fixed frame
// count. Manifests can be written as JSON or YAML:
//
//	dir: assets/sprites
//	sprites:
//	  - name: roach.png
//	    kind: single
//	  - name: spiderMoveSpreadsheet.png
//	    kind: sheet
//	    frames: 2
package manifest

import (
	"encoding/json"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Kind selects which cropper handles an entry.
type Kind string

const (
	// KindSingle trims a sprite to its own content.
	KindSingle Kind = "single"

	// KindSheet trims all frames of a spritesheet to one shared box.
	KindSheet Kind = "sheet"
)

// Entry is one sprite file to process.
type Entry struct {
	// Name is the file name relative to the manifest directory.
	Name string `json:"name" yaml:"name"`

	// Kind is "single" or "sheet". When omitted it is inferred from Frames.
	Kind Kind `json:"kind,omitempty" yaml:"kind,omitempty"`

	// Frames is the number of equal-width frames in a sheet.
	Frames int `json:"frames,omitempty" yaml:"frames,omitempty"`
}

// Manifest holds the list of sprites to process.
type Manifest struct {
	// Dir is the sprites directory. Relative paths are resolved by ResolveDir.
	Dir string `json:"dir" yaml:"dir"`

	// Sprites are processed in order.
	Sprites []Entry `json:"sprites" yaml:"sprites"`

	// source is the file the manifest was loaded from, if any.
	source string
}

// Default returns the manifest for the game's own sprite assets.
func Default() *Manifest {
	m := &Manifest{Dir: "assets/sprites"}
	for _, name := range []string{
		"dayCharacter.png",
		"deathPlayerPot.png",
		"roach.png",
		"dayWaterPot.png",
		"nightWaterPot.png",
		"mushroomDayUpDown.png",
		"nightShroom.png",
		"player-1.png",
		"flower.png",
		"flower-1.png",
		"newFlower.png",
	} {
		m.Sprites = append(m.Sprites, Entry{Name: name, Kind: KindSingle})
	}
	m.Sprites = append(m.Sprites,
		Entry{Name: "walkingDayCharAnimationSpreadsheet.png", Kind: KindSheet, Frames: 6},
		Entry{Name: "spiderMoveSpreadsheet.png", Kind: KindSheet, Frames: 2},
		Entry{Name: "flowerAnimationSpreadsheet.png", Kind: KindSheet, Frames: 6},
	)
	return m
}

// LoadFromFile reads a manifest from a JSON or YAML file. Files ending in
// .yaml or .yml are parsed as YAML, everything else as JSON. The result is
// validated before it is returned.
func LoadFromFile(filename string) (*Manifest, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read manifest file")
	}

	m, err := Parse(data, formatOf(filename))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse manifest file %s", filename)
	}
	m.source = filename

	if err := m.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid manifest %s", filename)
	}
	return m, nil
}

// Parse decodes a manifest in the given format ("json" or "yaml") and fills
// in inferred entry kinds. It does not validate.
func Parse(data []byte, format string) (*Manifest, error) {
	var m Manifest
	switch format {
	case "yaml":
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, err
		}
	case "json":
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, err
		}
	default:
		return nil, errors.Errorf("unknown manifest format %q", format)
	}

	for i := range m.Sprites {
		e := &m.Sprites[i]
		if e.Kind == "" {
			if e.Frames > 0 {
				e.Kind = KindSheet
			} else {
				e.Kind = KindSingle
			}
		}
	}
	return &m, nil
}

// SaveToFile writes the manifest as YAML or JSON depending on the file
// extension, creating the parent directory if needed.
func (m *Manifest) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "failed to create manifest directory")
	}

	var (
		data []byte
		err  error
	)
	if formatOf(filename) == "yaml" {
		data, err = yaml.Marshal(m)
	} else {
		data, err = json.MarshalIndent(m, "", "  ")
	}
	if err != nil {
		return errors.Wrap(err, "failed to marshal manifest")
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write manifest file")
	}
	return nil
}

// Validate checks entry names, kinds and frame counts.
func (m *Manifest) Validate() error {
	if len(m.Sprites) == 0 {
		return errors.New("sprites cannot be empty")
	}

	seen := make(map[string]bool, len(m.Sprites))
	for i, e := range m.Sprites {
		if e.Name == "" {
			return errors.Errorf("sprites[%d]: name is required", i)
		}
		clean := path.Clean(filepath.ToSlash(e.Name))
		if filepath.IsAbs(e.Name) || clean == ".." || strings.HasPrefix(clean, "../") {
			return errors.Errorf("sprites[%d]: name %q must stay inside the sprites directory", i, e.Name)
		}
		if seen[e.Name] {
			return errors.Errorf("sprites[%d]: duplicate entry %q", i, e.Name)
		}
		seen[e.Name] = true

		switch e.Kind {
		case KindSingle:
			if e.Frames > 1 {
				return errors.Errorf("sprites[%d]: %q is a single sprite but has frames=%d", i, e.Name, e.Frames)
			}
		case KindSheet:
			if e.Frames < 1 {
				return errors.Errorf("sprites[%d]: sheet %q needs frames >= 1", i, e.Name)
			}
		default:
			return errors.Errorf("sprites[%d]: unknown kind %q (use %q or %q)", i, e.Kind, KindSingle, KindSheet)
		}
	}
	return nil
}

// Path returns the location of e under dir.
func (e Entry) Path(dir string) string {
	return filepath.Join(dir, filepath.FromSlash(e.Name))
}

// ResolveDir locates the sprites directory.
//
// An absolute Dir is returned unchanged. A relative Dir is tried against
// the working directory, then next to the manifest file, then next to the
// running executable; the first that exists wins. If none exists Dir is
// returned as is and every entry will be reported as not found.
func (m *Manifest) ResolveDir() string {
	if filepath.IsAbs(m.Dir) {
		return m.Dir
	}

	candidates := []string{m.Dir}
	if m.source != "" {
		candidates = append(candidates, filepath.Join(filepath.Dir(m.source), m.Dir))
	}
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), m.Dir))
	}

	for _, dir := range candidates {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			glog.V(1).Infof("manifest.ResolveDir(%q)=%s", m.Dir, dir)
			return dir
		}
	}
	glog.Warningf("sprites directory %q not found", m.Dir)
	return m.Dir
}

// Source returns the file the manifest was loaded from, or "" for
// manifests built in code.
func (m *Manifest) Source() string {
	return m.source
}

func formatOf(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return "yaml"
	}
	return "json"
}
