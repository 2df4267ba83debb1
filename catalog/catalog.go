// Package catalog loads cue definitions from YAML
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lixenwraith/vi-cue/cue"
	"github.com/lixenwraith/vi-cue/gesture"
	"github.com/lixenwraith/vi-cue/sequencer"
)

//go:embed cues.yaml
var defaultCatalog []byte

var (
	ErrDuplicateCue = errors.New("duplicate cue")
	ErrNotFound     = errors.New("cue not found")
	ErrEmpty        = errors.New("catalog has no cues")
)

// Duration decodes Go duration strings ("800ms") or bare integer milliseconds
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: delay must be a scalar", value.Line)
	}
	s := strings.TrimSpace(value.Value)
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: invalid delay %q: %w", value.Line, s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration as a Go duration string
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

type fileStage struct {
	Name  string   `yaml:"name"`
	Delay Duration `yaml:"delay,omitempty"`
	Gated bool     `yaml:"gated,omitempty"`
}

type fileGesture struct {
	Name   string    `yaml:"name"`
	Axis   string    `yaml:"axis,omitempty"`
	Sticky *bool     `yaml:"sticky,omitempty"`
	Snap   []float64 `yaml:"snap,omitempty,flow"`
}

type fileCue struct {
	Name     string        `yaml:"name"`
	Gate     string        `yaml:"gate,omitempty"`
	Stages   []fileStage   `yaml:"stages"`
	Gestures []fileGesture `yaml:"gestures,omitempty"`
}

type file struct {
	Cues []fileCue `yaml:"cues"`
}

// Catalog is an immutable set of validated definitions
type Catalog struct {
	defs  map[string]cue.Definition
	order []string
}

// Load decodes and validates a catalog
func Load(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f file
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmpty
		}
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(f.Cues) == 0 {
		return nil, ErrEmpty
	}

	c := &Catalog{defs: make(map[string]cue.Definition, len(f.Cues))}
	for i, fc := range f.Cues {
		def, err := fc.definition()
		if err != nil {
			return nil, fmt.Errorf("cue %d %q: %w", i, fc.Name, err)
		}
		if err := def.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.defs[def.Name]; dup {
			return nil, fmt.Errorf("cue %q: %w", def.Name, ErrDuplicateCue)
		}
		c.defs[def.Name] = def
		c.order = append(c.order, def.Name)
	}
	return c, nil
}

// LoadFile loads a catalog from path
func LoadFile(path string) (*Catalog, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer fh.Close()

	c, err := Load(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Default returns the embedded catalog
func Default() *Catalog {
	c, err := Load(bytes.NewReader(defaultCatalog))
	if err != nil {
		panic(fmt.Sprintf("embedded catalog invalid: %v", err))
	}
	return c
}

// Names returns cue names in file order
func (c *Catalog) Names() []string {
	return append([]string(nil), c.order...)
}

// SortedNames returns cue names alphabetically
func (c *Catalog) SortedNames() []string {
	names := c.Names()
	sort.Strings(names)
	return names
}

// Lookup returns the named definition
func (c *Catalog) Lookup(name string) (cue.Definition, error) {
	def, ok := c.defs[name]
	if !ok {
		return cue.Definition{}, fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	return def, nil
}

// Definitions returns all definitions in file order
func (c *Catalog) Definitions() []cue.Definition {
	defs := make([]cue.Definition, 0, len(c.order))
	for _, n := range c.order {
		defs = append(defs, c.defs[n])
	}
	return defs
}

// Len returns the number of cues
func (c *Catalog) Len() int {
	return len(c.order)
}

// Encode writes definitions back in catalog format
func Encode(w io.Writer, defs []cue.Definition) error {
	f := file{Cues: make([]fileCue, 0, len(defs))}
	for _, d := range defs {
		f.Cues = append(f.Cues, fromDefinition(d))
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&f); err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	return enc.Close()
}

func (fc fileCue) definition() (cue.Definition, error) {
	gate, err := cue.ParseGate(fc.Gate)
	if err != nil {
		return cue.Definition{}, err
	}
	def := cue.Definition{Name: fc.Name, Gate: gate}
	for _, s := range fc.Stages {
		def.Plan.Stages = append(def.Plan.Stages, sequencer.StageSpec{
			Name:  sequencer.Stage(s.Name),
			Delay: time.Duration(s.Delay),
			Gated: s.Gated,
		})
	}
	for _, g := range fc.Gestures {
		axis, err := gesture.ParseAxis(g.Axis)
		if err != nil {
			return cue.Definition{}, fmt.Errorf("gesture %q: %w", g.Name, err)
		}
		def.Gestures = append(def.Gestures, cue.GestureSpec{
			Name:       g.Name,
			Axis:       axis,
			Sticky:     g.Sticky,
			SnapPoints: g.Snap,
		})
	}
	return def, nil
}

func fromDefinition(d cue.Definition) fileCue {
	fc := fileCue{Name: d.Name}
	if d.Gate != cue.GateAll {
		fc.Gate = d.Gate.String()
	}
	for _, s := range d.Plan.Stages {
		fc.Stages = append(fc.Stages, fileStage{Name: string(s.Name), Delay: Duration(s.Delay), Gated: s.Gated})
	}
	for _, g := range d.Gestures {
		fg := fileGesture{Name: g.Name, Sticky: g.Sticky, Snap: g.SnapPoints}
		if g.Axis != gesture.AxisX {
			fg.Axis = g.Axis.String()
		}
		fc.Gestures = append(fc.Gestures, fg)
	}
	return fc
}
