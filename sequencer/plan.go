package sequencer

import (
	"errors"
	"fmt"
	"time"
)

// Stage names one point in a cue's narrative timeline
type Stage string

// Conventional stage names shared by most cues
const (
	StageArriving  Stage = "arriving"
	StageActive    Stage = "active"
	StageResolved  Stage = "resolved"
	StageResonant  Stage = "resonant"
	StageAfterglow Stage = "afterglow"
)

var (
	ErrEmptyPlan      = errors.New("plan has no stages")
	ErrUnnamedStage   = errors.New("stage has no name")
	ErrDuplicateStage = errors.New("duplicate stage")
	ErrNegativeDelay  = errors.New("negative delay")
	ErrGatedInitial   = errors.New("initial stage cannot be gated")
	ErrGatedDelay     = errors.New("gated stage cannot have a delay")
)

// StageSpec is the transition into a stage
// Delay counts from entry of the previous stage; a Gated stage is entered only via Release
type StageSpec struct {
	Name  Stage
	Delay time.Duration
	Gated bool
}

// Plan is the ordered stage list of one cue, first is initial, last is terminal
type Plan struct {
	Stages []StageSpec
}

// Validate checks the plan is a well-formed forward timeline
func (p Plan) Validate() error {
	if len(p.Stages) == 0 {
		return ErrEmptyPlan
	}
	seen := make(map[Stage]int, len(p.Stages))
	for i, s := range p.Stages {
		if s.Name == "" {
			return fmt.Errorf("stage %d: %w", i, ErrUnnamedStage)
		}
		if prev, ok := seen[s.Name]; ok {
			return fmt.Errorf("stage %q at %d and %d: %w", s.Name, prev, i, ErrDuplicateStage)
		}
		seen[s.Name] = i
		if s.Delay < 0 {
			return fmt.Errorf("stage %q: %w", s.Name, ErrNegativeDelay)
		}
		if s.Gated && s.Delay != 0 {
			return fmt.Errorf("stage %q: %w", s.Name, ErrGatedDelay)
		}
	}
	if p.Stages[0].Gated {
		return fmt.Errorf("stage %q: %w", p.Stages[0].Name, ErrGatedInitial)
	}
	return nil
}

// Names returns stage names in order
func (p Plan) Names() []Stage {
	names := make([]Stage, len(p.Stages))
	for i, s := range p.Stages {
		names[i] = s.Name
	}
	return names
}

// Index returns the position of name, or -1
func (p Plan) Index(name Stage) int {
	for i, s := range p.Stages {
		if s.Name == name {
			return i
		}
	}
	return -1
}

// Gated reports whether any transition waits on Release
func (p Plan) Gated() bool {
	for _, s := range p.Stages[min(1, len(p.Stages)):] {
		if s.Gated {
			return true
		}
	}
	return false
}

// Duration returns the sum of timed delays, excluding time spent waiting on gates
func (p Plan) Duration() time.Duration {
	var d time.Duration
	for _, s := range p.Stages[min(1, len(p.Stages)):] {
		if !s.Gated {
			d += s.Delay
		}
	}
	return d
}

// Standard builds the common five stage shape: a timed prefix to the interactive stage,
// a gated resolution, and a timed suffix ending in afterglow
func Standard(arrive, resonate, settle time.Duration) Plan {
	return Plan{Stages: []StageSpec{
		{Name: StageArriving},
		{Name: StageActive, Delay: arrive},
		{Name: StageResolved, Gated: true},
		{Name: StageResonant, Delay: resonate},
		{Name: StageAfterglow, Delay: settle},
	}}
}
