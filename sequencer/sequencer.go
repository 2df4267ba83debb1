// Package sequencer walks a cue through its ordered stages
//
// Transitions fire after a delay or, for gated stages, when Release is called by the
// gesture that unlocks them. Every armed timer is owned by the Sequencer and Dispose
// cancels all of them, so no stage and no finish notification is observed afterwards.
//
// A Sequencer is confined to the goroutine its clock delivers callbacks on.
package sequencer

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/lixenwraith/vi-cue/clock"
	"github.com/lixenwraith/vi-cue/status"
)

// Option configures a Sequencer
type Option func(*Sequencer)

// OnStage is invoked on every stage entry, including the initial stage
func OnStage(fn func(index int, stage Stage)) Option {
	return func(s *Sequencer) { s.onStage = fn }
}

// OnFinish is invoked once when the terminal stage is entered
func OnFinish(fn func()) Option {
	return func(s *Sequencer) { s.onFinish = fn }
}

// WithLogger sets the logger, default is a no-op logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Sequencer) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStatus publishes timer and stage metrics to reg
func WithStatus(reg *status.Registry) Option {
	return func(s *Sequencer) { s.reg = reg }
}

// pending is one armed transition
type pending struct {
	timer clock.Timer
	to    int
}

// Sequencer is a forward-only stage machine with owned timers
type Sequencer struct {
	plan  Plan
	clock clock.Clock

	index    int
	entered  time.Time
	pending  map[*pending]struct{}
	finished bool
	disposed bool

	onStage  func(index int, stage Stage)
	onFinish func()
	logger   *zap.Logger

	reg           *status.Registry
	statScheduled *atomic.Int64
	statCanceled  *atomic.Int64
	statFired     *atomic.Int64
	statFinished  *atomic.Int64
}

// New validates plan and enters its initial stage synchronously
func New(plan Plan, clk clock.Clock, opts ...Option) (*Sequencer, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	s := &Sequencer{
		plan:    Plan{Stages: append([]StageSpec(nil), plan.Stages...)},
		clock:   clk,
		pending: make(map[*pending]struct{}),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.statScheduled = s.reg.Counter(status.TimersScheduled)
	s.statCanceled = s.reg.Counter(status.TimersCanceled)
	s.statFired = s.reg.Counter(status.TimersFired)
	s.statFinished = s.reg.Counter(status.SequencesFinished)

	s.enter(0)
	return s, nil
}

// Stage returns the current stage
func (s *Sequencer) Stage() Stage {
	return s.plan.Stages[s.index].Name
}

// Index returns the position of the current stage
func (s *Sequencer) Index() int {
	return s.index
}

// Plan returns the plan being walked
func (s *Sequencer) Plan() Plan {
	return s.plan
}

// InStage returns time since the current stage was entered
func (s *Sequencer) InStage() time.Duration {
	return s.clock.Now().Sub(s.entered)
}

// Interactive reports whether the sequence is parked waiting on Release
func (s *Sequencer) Interactive() bool {
	if s.disposed {
		return false
	}
	next := s.index + 1
	return next < len(s.plan.Stages) && s.plan.Stages[next].Gated
}

// Finished reports whether the terminal stage was reached
func (s *Sequencer) Finished() bool {
	return s.finished
}

// Disposed reports whether Dispose was called
func (s *Sequencer) Disposed() bool {
	return s.disposed
}

// Pending returns the number of armed transitions
func (s *Sequencer) Pending() int {
	return len(s.pending)
}

// Release takes the gated transition out of the current stage
// Returns false when the sequence is not parked on a gate or has been disposed
func (s *Sequencer) Release() bool {
	if !s.Interactive() {
		return false
	}
	s.logger.Debug("gate released", zap.String("stage", string(s.Stage())))
	s.enter(s.index + 1)
	return true
}

// Dispose cancels every armed transition, later calls are no-ops
// After Dispose returns no stage or finish callback will run
func (s *Sequencer) Dispose() {
	if s.disposed {
		return
	}
	s.disposed = true
	for p := range s.pending {
		if p.timer.Stop() {
			s.statCanceled.Add(1)
		}
		delete(s.pending, p)
	}
	s.logger.Debug("sequence disposed",
		zap.String("stage", string(s.Stage())),
		zap.Bool("finished", s.finished))
}

// enter commits stage i, arms the next timed transition and then runs callbacks
func (s *Sequencer) enter(i int) {
	s.index = i
	s.entered = s.clock.Now()
	terminal := i == len(s.plan.Stages)-1
	if terminal {
		s.finished = true
	} else if next := s.plan.Stages[i+1]; !next.Gated {
		s.schedule(i+1, next.Delay)
	}

	stage := s.plan.Stages[i].Name
	s.reg.Label(status.CueStage).Store(string(stage))
	s.logger.Debug("stage entered", zap.Int("index", i), zap.String("stage", string(stage)))

	if s.onStage != nil {
		s.onStage(i, stage)
	}
	// A stage callback may dispose the sequence
	if terminal && !s.disposed {
		s.statFinished.Add(1)
		if s.onFinish != nil {
			s.onFinish()
		}
	}
}

// schedule arms the transition into stage to after d
func (s *Sequencer) schedule(to int, d time.Duration) {
	p := &pending{to: to}
	s.pending[p] = struct{}{}
	p.timer = s.clock.AfterFunc(d, func() { s.fire(p) })
	s.statScheduled.Add(1)
}

// fire runs an armed transition unless it was canceled
func (s *Sequencer) fire(p *pending) {
	if _, ok := s.pending[p]; !ok || s.disposed {
		return
	}
	delete(s.pending, p)
	s.statFired.Add(1)
	s.enter(p.to)
}
