package gesture

import (
	"fmt"
	"strings"

	"github.com/lixenwraith/vi-cue/status"
)

const (
	// CompletionThreshold is the progress at or above which a session is complete
	CompletionThreshold = 0.95
	// SnapWindow is the distance within which progress is pulled onto a snap point
	SnapWindow = 0.08
)

// Axis selects which dimensions of the track map to progress
type Axis uint8

const (
	AxisX    Axis = iota // left edge 0, right edge 1
	AxisY                // bottom edge 0, top edge 1
	AxisBoth             // mean of the x and y mappings
)

// String returns the config name of the axis
func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisBoth:
		return "both"
	default:
		return "unknown"
	}
}

// ParseAxis parses "x", "y" or "both", empty defaults to x
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "x":
		return AxisX, nil
	case "y":
		return AxisY, nil
	case "both", "xy":
		return AxisBoth, nil
	default:
		return AxisX, fmt.Errorf("unknown axis %q", s)
	}
}

// Option configures an Engine
type Option func(*Engine)

// WithAxis sets the progress axis
func WithAxis(a Axis) Option {
	return func(e *Engine) { e.axis = a }
}

// WithSticky controls whether progress survives release, default true
func WithSticky(sticky bool) Option {
	return func(e *Engine) { e.sticky = sticky }
}

// WithSnapPoints sets preferred progress values, an empty list disables snapping
func WithSnapPoints(points ...float64) Option {
	return func(e *Engine) {
		e.snapPoints = append([]float64(nil), points...)
	}
}

// WithTrack measures progress against track instead of the handle
func WithTrack(track Surface) Option {
	return func(e *Engine) { e.track = track }
}

// OnThreshold is invoked after every move with the committed progress
func OnThreshold(fn func(progress float64)) Option {
	return func(e *Engine) { e.onThreshold = fn }
}

// OnComplete is invoked once per session when progress first reaches CompletionThreshold
func OnComplete(fn func()) Option {
	return func(e *Engine) { e.onComplete = fn }
}

// WithStatus publishes progress and completions to reg
func WithStatus(reg *status.Registry) Option {
	return func(e *Engine) { e.reg = reg }
}
