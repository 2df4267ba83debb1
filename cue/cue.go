// Package cue runs one interactive cue: a stage sequencer plus the gestures that unlock it
//
// The sequencer walks the timed prefix on its own. While it is parked on a gated stage
// the cue's gestures are live; when the gate policy is satisfied by gesture completions the
// sequencer is released and walks the suffix to the terminal stage, which notifies the host.
//
// A Cue is confined to the goroutine its clock delivers on, normally a loop.Loop.
package cue

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lixenwraith/vi-cue/clock"
	"github.com/lixenwraith/vi-cue/gesture"
	"github.com/lixenwraith/vi-cue/sequencer"
	"github.com/lixenwraith/vi-cue/status"
)

// Option configures a Cue at mount
type Option func(*config)

type surfaces struct {
	handle gesture.Surface
	track  gesture.Surface
}

type config struct {
	surfaces   map[string]surfaces
	onFinished func()
	onStage    func(stage sequencer.Stage)
	onProgress func(gesture string, progress float64)
	logger     *zap.Logger
	reg        *status.Registry
}

// WithSurface binds the handle and optional track measured by the named gesture
func WithSurface(name string, handle, track gesture.Surface) Option {
	return func(c *config) {
		c.surfaces[name] = surfaces{handle: handle, track: track}
	}
}

// OnFinished is invoked once when the cue reaches its terminal stage
func OnFinished(fn func()) Option {
	return func(c *config) { c.onFinished = fn }
}

// OnStage is invoked on every stage entry
func OnStage(fn func(stage sequencer.Stage)) Option {
	return func(c *config) { c.onStage = fn }
}

// OnProgress is invoked after every accepted move
func OnProgress(fn func(gesture string, progress float64)) Option {
	return func(c *config) { c.onProgress = fn }
}

// WithLogger sets the logger, default is a no-op logger
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithStatus publishes cue, sequencer and gesture metrics to reg
func WithStatus(reg *status.Registry) Option {
	return func(c *config) { c.reg = reg }
}

// Cue is one mounted cue instance
type Cue struct {
	id  uuid.UUID
	def Definition

	seq      *sequencer.Sequencer
	gestures map[string]*gesture.Engine
	order    []string
	done     map[string]bool
	armed    map[string]int // gate generation each completion was recorded in
	gen      int            // incremented on every gate release

	disposed bool
	cfg      config
	logger   *zap.Logger

	statInteractive *atomic.Bool
	statDisposed    *atomic.Int64
}

// Mount validates def, builds its gestures and enters the initial stage
func Mount(def Definition, clk clock.Clock, opts ...Option) (*Cue, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	cfg := config{
		surfaces: make(map[string]surfaces),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	for name := range cfg.surfaces {
		if !contains(def.GestureNames(), name) {
			return nil, fmt.Errorf("cue %q surface %q: %w", def.Name, name, ErrUnknownGesture)
		}
	}

	c := &Cue{
		id:       uuid.New(),
		def:      def,
		gestures: make(map[string]*gesture.Engine, len(def.Gestures)),
		done:     make(map[string]bool, len(def.Gestures)),
		armed:    make(map[string]int, len(def.Gestures)),
		cfg:      cfg,
	}
	c.logger = cfg.logger.With(zap.String("cue", def.Name), zap.String("id", c.id.String()))
	c.statInteractive = cfg.reg.Flag(status.CueInteractive)
	c.statDisposed = cfg.reg.Counter(status.CuesDisposed)

	for _, spec := range def.Gestures {
		c.gestures[spec.Name] = c.newGesture(spec)
		c.order = append(c.order, spec.Name)
	}

	// Gestures exist before the sequencer so a stage callback can read them
	seq, err := sequencer.New(def.Plan, clk,
		sequencer.OnStage(c.stageEntered),
		sequencer.OnFinish(c.finished),
		sequencer.WithLogger(c.logger),
		sequencer.WithStatus(cfg.reg),
	)
	if err != nil {
		return nil, err
	}
	c.seq = seq
	cfg.reg.Counter(status.CuesMounted).Add(1)
	c.logger.Debug("cue mounted", zap.Int("gestures", len(c.order)))
	return c, nil
}

// newGesture builds the engine for spec, wiring completion into the gate
func (c *Cue) newGesture(spec GestureSpec) *gesture.Engine {
	name := spec.Name
	surf := c.cfg.surfaces[name]
	opts := []gesture.Option{
		gesture.WithAxis(spec.Axis),
		gesture.WithSticky(spec.IsSticky()),
		gesture.WithSnapPoints(spec.SnapPoints...),
		gesture.WithStatus(c.cfg.reg),
		gesture.OnComplete(func() { c.gestureCompleted(name) }),
	}
	if surf.track != nil {
		opts = append(opts, gesture.WithTrack(surf.track))
	}
	if c.cfg.onProgress != nil {
		opts = append(opts, gesture.OnThreshold(func(p float64) { c.cfg.onProgress(name, p) }))
	}
	return gesture.New(surf.handle, opts...)
}

// ID returns the instance id
func (c *Cue) ID() uuid.UUID {
	return c.id
}

// Definition returns the definition the cue was mounted with
func (c *Cue) Definition() Definition {
	return c.def
}

// Stage returns the current stage
func (c *Cue) Stage() sequencer.Stage {
	return c.seq.Stage()
}

// StageIndex returns the position of the current stage
func (c *Cue) StageIndex() int {
	return c.seq.Index()
}

// Interactive reports whether gestures currently accept input
func (c *Cue) Interactive() bool {
	return !c.disposed && c.seq.Interactive()
}

// Finished reports whether the terminal stage was reached
func (c *Cue) Finished() bool {
	return c.seq.Finished()
}

// Disposed reports whether Dispose was called
func (c *Cue) Disposed() bool {
	return c.disposed
}

// Gestures returns gesture names in declaration order
func (c *Cue) Gestures() []string {
	return append([]string(nil), c.order...)
}

// Gesture returns the state of the named gesture
func (c *Cue) Gesture(name string) (gesture.State, bool) {
	g, ok := c.gestures[name]
	if !ok {
		return gesture.State{}, false
	}
	return g.State(), true
}

// Progress returns the named gesture's progress, 0 when unknown
func (c *Cue) Progress(name string) float64 {
	if g, ok := c.gestures[name]; ok {
		return g.Progress()
	}
	return 0
}

// Bounds returns the rectangle the named gesture measures against
func (c *Cue) Bounds(name string) gesture.Rect {
	if g, ok := c.gestures[name]; ok {
		return g.Bounds()
	}
	return gesture.Rect{}
}

// Start routes a pointer press to the named gesture
// Returns false when the cue is not interactive or the gesture is unknown
func (c *Cue) Start(name string, x, y float64) bool {
	g, ok := c.live(name)
	if !ok {
		return false
	}
	// A latch left over from an earlier gate is cleared by the next press
	if g.State().Completed && c.armed[name] < c.gen {
		g.Reset()
	}
	g.Start(x, y)
	return true
}

// Move routes pointer motion to the named gesture
func (c *Cue) Move(name string, x, y float64) bool {
	g, ok := c.live(name)
	if ok {
		g.Move(x, y)
	}
	return ok
}

// End routes a pointer release to the named gesture
// Releases are delivered even after the gate opens so drags are never left dangling
func (c *Cue) End(name string) bool {
	if c.disposed {
		return false
	}
	g, ok := c.gestures[name]
	if ok {
		g.End()
	}
	return ok
}

// Hit returns the first gesture whose track contains (x, y)
func (c *Cue) Hit(x, y float64) (string, bool) {
	for _, name := range c.order {
		if c.gestures[name].Bounds().Contains(x, y) {
			return name, true
		}
	}
	return "", false
}

// Dispose cancels every pending stage transition and detaches gestures
// Safe to call repeatedly and from within cue callbacks
func (c *Cue) Dispose() {
	if c.disposed {
		return
	}
	c.disposed = true
	c.seq.Dispose()
	for _, g := range c.gestures {
		g.End()
	}
	c.statInteractive.Store(false)
	c.statDisposed.Add(1)
	c.logger.Debug("cue disposed", zap.String("stage", string(c.seq.Stage())))
}

// live returns the gesture if it may receive input now
func (c *Cue) live(name string) (*gesture.Engine, bool) {
	if !c.Interactive() {
		return nil, false
	}
	g, ok := c.gestures[name]
	return g, ok
}

func (c *Cue) stageEntered(index int, stage sequencer.Stage) {
	stages := c.def.Plan.Stages
	interactive := index+1 < len(stages) && stages[index+1].Gated
	c.statInteractive.Store(interactive)
	if interactive {
		c.logger.Debug("gestures live", zap.String("stage", string(stage)))
	}
	if c.cfg.onStage != nil {
		c.cfg.onStage(stage)
	}
}

// gestureCompleted records a completion and releases the gate when the policy is met
// Runs from the gesture's OnComplete, after its state commit
func (c *Cue) gestureCompleted(name string) {
	if c.disposed || c.done[name] {
		return
	}
	c.done[name] = true
	c.armed[name] = c.gen
	c.logger.Debug("gesture completed", zap.String("gesture", name))

	if !c.gateSatisfied() {
		return
	}
	// A later gate in the same plan needs fresh completions
	clear(c.done)
	c.gen++
	c.seq.Release()
}

func (c *Cue) gateSatisfied() bool {
	if c.def.Gate == GateAny {
		return len(c.done) > 0
	}
	return len(c.done) == len(c.gestures)
}

func (c *Cue) finished() {
	c.logger.Debug("cue finished")
	if c.cfg.onFinished != nil {
		c.cfg.onFinished()
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
