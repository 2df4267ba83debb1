package status

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryReturnsCachedCells(t *testing.T) {
	r := NewRegistry()

	require.Same(t, r.Gauge(GestureProgress), r.Gauge(GestureProgress))
	require.Same(t, r.Counter(TimersFired), r.Counter(TimersFired))
	require.Same(t, r.Flag(CueInteractive), r.Flag(CueInteractive))
	require.Same(t, r.Label(CueStage), r.Label(CueStage))
	assert.NotSame(t, r.Counter(TimersFired), r.Counter(TimersScheduled))
}

func TestRegistryConcurrentRegistration(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Counter(TimersFired).Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1600), r.Counter(TimersFired).Load())
	assert.Equal(t, "sequencer.timers.fired=1600", r.Summary())
}

func TestNilRegistryIsDetached(t *testing.T) {
	var r *Registry

	r.Counter(TimersScheduled).Add(3)
	r.Gauge(GestureProgress).Set(0.5)
	r.Flag(CueInteractive).Store(true)
	r.Label(CueStage).Store("active")

	assert.Equal(t, int64(0), r.Counter(TimersScheduled).Load())
	assert.Equal(t, 0.0, r.Gauge(GestureProgress).Get())
	assert.Empty(t, r.Summary())
}

func TestSummarySortedByTypeAndKey(t *testing.T) {
	r := NewRegistry()
	r.Label(CueStage).Store("afterglow")
	r.Flag(CueInteractive).Store(false)
	r.Counter(TimersScheduled).Store(2)
	r.Counter(TimersCanceled).Store(1)
	r.Gauge(GestureProgress).Set(0.5)

	assert.Equal(t,
		"sequencer.timers.canceled=1 sequencer.timers.scheduled=2 gesture.progress=0.50 cue.interactive=false cue.stage=afterglow",
		r.Summary())
}

func TestLabelTruncates(t *testing.T) {
	var l Label
	assert.Equal(t, "", l.Load())

	long := "abcdefghijklmnopqrstuvwxyz0123456789"
	l.Store(long)
	assert.Equal(t, long[:maxLabelLen], l.Load())
}
