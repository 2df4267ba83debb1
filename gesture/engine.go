package gesture

import (
	"sync/atomic"

	"github.com/lixenwraith/vi-cue/status"
)

// State is the externally observable gesture record read by presentation
type State struct {
	Progress  float64 // normalized position in [0,1]
	RawX      float64 // last pointer x in host coordinates
	RawY      float64 // last pointer y in host coordinates
	Dragging  bool    // between Start and End
	Completed bool    // latched until Reset
}

// Session is the bookkeeping recorded by Start
type Session struct {
	Active        bool
	StartX        float64
	StartY        float64
	StartProgress float64
}

// session is the authoritative mutable cell handlers read
// State is only a projection committed after the handler decides
type session struct {
	Session
	completed bool
}

// Engine converts pointer events into a progress signal
type Engine struct {
	handle Surface
	track  Surface

	axis       Axis
	sticky     bool
	snapPoints []float64

	onThreshold func(progress float64)
	onComplete  func()

	sess  session
	state State

	reg          *status.Registry
	statProgress *status.Gauge
	statComplete *atomic.Int64
}

// New creates an engine measured against handle, or against the track given by WithTrack
func New(handle Surface, opts ...Option) *Engine {
	e := &Engine{
		handle: handle,
		axis:   AxisX,
		sticky: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.statProgress = e.reg.Gauge(status.GestureProgress)
	e.statComplete = e.reg.Counter(status.GesturesCompleted)
	return e
}

// State returns the current state projection
func (e *Engine) State() State {
	return e.state
}

// Progress returns the committed progress
func (e *Engine) Progress() float64 {
	return e.state.Progress
}

// Session returns the bookkeeping of the current or last session
func (e *Engine) Session() Session {
	return e.sess.Session
}

// Axis returns the configured axis
func (e *Engine) Axis() Axis {
	return e.axis
}

// Sticky reports whether progress survives release
func (e *Engine) Sticky() bool {
	return e.sticky
}

// Bounds returns the rectangle progress is currently measured against
// The handle stands in for the track when no track was supplied
func (e *Engine) Bounds() Rect {
	if e.track != nil {
		return measure(e.track)
	}
	return measure(e.handle)
}

// Start begins a drag session at (x, y)
// Progress is position-absolute so the anchor is bookkeeping only; a new Start overwrites it
func (e *Engine) Start(x, y float64) {
	e.sess.Session = Session{
		Active:        true,
		StartX:        x,
		StartY:        y,
		StartProgress: e.state.Progress,
	}
	e.state.Dragging = true
	e.state.RawX, e.state.RawY = x, y
}

// Move updates progress from (x, y), a no-op outside a session
func (e *Engine) Move(x, y float64) {
	if !e.sess.Active {
		return
	}

	p := clamp01(Snap(Normalize(e.Bounds(), e.axis, x, y), e.snapPoints))

	// Decide the completion edge before committing so state and callback agree
	justCompleted := !e.sess.completed && p >= CompletionThreshold
	if justCompleted {
		e.sess.completed = true
	}

	e.state = State{
		Progress:  p,
		RawX:      x,
		RawY:      y,
		Dragging:  true,
		Completed: e.sess.completed,
	}
	e.statProgress.Set(p)

	// Side effects run after the commit
	if justCompleted {
		e.statComplete.Add(1)
		if e.onComplete != nil {
			e.onComplete()
		}
	}
	if e.onThreshold != nil {
		e.onThreshold(p)
	}
}

// End closes the session, springing progress back to 0 unless sticky
// The completion latch is not affected
func (e *Engine) End() {
	e.sess.Active = false
	e.state.Dragging = false
	if !e.sticky {
		e.state.Progress = 0
		e.statProgress.Set(0)
	}
}

// Reset returns the engine to its initial state and re-arms OnComplete
func (e *Engine) Reset() {
	e.sess = session{}
	e.state = State{}
	e.statProgress.Set(0)
}
