// Package status holds lock-free counters and gauges shared by the cue engines
package status

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Metric keys written by the engines
const (
	TimersScheduled   = "sequencer.timers.scheduled"
	TimersCanceled    = "sequencer.timers.canceled"
	TimersFired       = "sequencer.timers.fired"
	SequencesFinished = "sequencer.finished"
	GesturesCompleted = "gesture.completed"
	GestureProgress   = "gesture.progress"
	CuesMounted       = "cue.mounted"
	CuesDisposed      = "cue.disposed"
	CueStage          = "cue.stage"
	CueInteractive    = "cue.interactive"
)

// Registry is the metrics facade handed to engines through WithStatus options
// A nil *Registry is valid and hands out detached cells, so engines never branch on it
type Registry struct {
	counters table[atomic.Int64]
	gauges   table[Gauge]
	flags    table[atomic.Bool]
	labels   table[Label]
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Counter returns the int cell for key
func (r *Registry) Counter(key string) *atomic.Int64 {
	if r == nil {
		return new(atomic.Int64)
	}
	return r.counters.get(key)
}

// Gauge returns the float cell for key
func (r *Registry) Gauge(key string) *Gauge {
	if r == nil {
		return new(Gauge)
	}
	return r.gauges.get(key)
}

// Flag returns the bool cell for key
func (r *Registry) Flag(key string) *atomic.Bool {
	if r == nil {
		return new(atomic.Bool)
	}
	return r.flags.get(key)
}

// Label returns the string cell for key
func (r *Registry) Label(key string) *Label {
	if r == nil {
		return new(Label)
	}
	return r.labels.get(key)
}

// Summary renders every metric as "key=value" on one line: counters, gauges, flags, labels,
// each group in key order
func (r *Registry) Summary() string {
	if r == nil {
		return ""
	}
	var parts []string
	r.counters.each(func(key string, v *atomic.Int64) {
		parts = append(parts, fmt.Sprintf("%s=%d", key, v.Load()))
	})
	r.gauges.each(func(key string, v *Gauge) {
		parts = append(parts, fmt.Sprintf("%s=%.2f", key, v.Get()))
	})
	r.flags.each(func(key string, v *atomic.Bool) {
		parts = append(parts, fmt.Sprintf("%s=%t", key, v.Load()))
	})
	r.labels.each(func(key string, v *Label) {
		parts = append(parts, fmt.Sprintf("%s=%s", key, v.Load()))
	})
	return strings.Join(parts, " ")
}
