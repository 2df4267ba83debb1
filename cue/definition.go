package cue

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lixenwraith/vi-cue/gesture"
	"github.com/lixenwraith/vi-cue/sequencer"
)

var (
	ErrUnnamedCue     = errors.New("cue has no name")
	ErrNoGate         = errors.New("gestures declared but no gated stage")
	ErrNoGestures     = errors.New("gated stage declared but no gestures")
	ErrGestureName    = errors.New("invalid gesture name")
	ErrUnknownGate    = errors.New("unknown gate mode")
	ErrUnknownGesture = errors.New("unknown gesture")
	ErrSnapRange      = errors.New("snap point outside [0,1]")
)

// Gate decides which gesture completions release the interactive stage
type Gate uint8

const (
	GateAll Gate = iota // every gesture must complete
	GateAny             // first completion releases
)

// String returns the config name of the gate
func (g Gate) String() string {
	switch g {
	case GateAll:
		return "all"
	case GateAny:
		return "any"
	default:
		return "unknown"
	}
}

// ParseGate parses "all" or "any", empty defaults to all
func ParseGate(s string) (Gate, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return GateAll, nil
	case "any":
		return GateAny, nil
	default:
		return GateAll, fmt.Errorf("%q: %w", s, ErrUnknownGate)
	}
}

// GestureSpec configures one gesture surface of a cue
type GestureSpec struct {
	Name       string
	Axis       gesture.Axis
	Sticky     *bool // nil means sticky
	SnapPoints []float64
}

// IsSticky resolves the sticky default
func (g GestureSpec) IsSticky() bool {
	return g.Sticky == nil || *g.Sticky
}

// Definition is the data describing one cue's mechanics
type Definition struct {
	Name     string
	Plan     sequencer.Plan
	Gestures []GestureSpec
	Gate     Gate
}

// Validate checks the plan and that gestures and gates agree
func (d Definition) Validate() error {
	if d.Name == "" {
		return ErrUnnamedCue
	}
	if err := d.Plan.Validate(); err != nil {
		return fmt.Errorf("cue %q: %w", d.Name, err)
	}
	if d.Gate > GateAny {
		return fmt.Errorf("cue %q: %w", d.Name, ErrUnknownGate)
	}

	seen := make(map[string]bool, len(d.Gestures))
	for i, g := range d.Gestures {
		if g.Name == "" || seen[g.Name] {
			return fmt.Errorf("cue %q gesture %d %q: %w", d.Name, i, g.Name, ErrGestureName)
		}
		seen[g.Name] = true
		for _, sp := range g.SnapPoints {
			if !(sp >= 0 && sp <= 1) {
				return fmt.Errorf("cue %q gesture %q snap %v: %w", d.Name, g.Name, sp, ErrSnapRange)
			}
		}
	}

	gated := d.Plan.Gated()
	switch {
	case len(d.Gestures) > 0 && !gated:
		return fmt.Errorf("cue %q: %w", d.Name, ErrNoGate)
	case len(d.Gestures) == 0 && gated:
		return fmt.Errorf("cue %q: %w", d.Name, ErrNoGestures)
	}
	return nil
}

// GestureNames returns gesture names in declaration order
func (d Definition) GestureNames() []string {
	names := make([]string, len(d.Gestures))
	for i, g := range d.Gestures {
		names[i] = g.Name
	}
	return names
}

// Bool returns a pointer to b, for GestureSpec.Sticky literals
func Bool(b bool) *bool {
	return &b
}
