package gesture

import (
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/vi-cue/status"
)

var floatOpt = cmpopts.EquateApprox(0, 1e-9)

func track(w, h float64) StaticSurface {
	return StaticSurface{Left: 0, Top: 0, Width: w, Height: h}
}

func TestNewEngineInitialState(t *testing.T) {
	e := New(track(200, 20))

	if diff := cmp.Diff(State{}, e.State()); diff != "" {
		t.Errorf("initial state mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, AxisX, e.Axis())
	assert.True(t, e.Sticky())
	assert.False(t, e.Session().Active)
}

// Horizontal drag across a 200px track completes once at 190px
func TestHorizontalDragCompletesOnce(t *testing.T) {
	completions := 0
	var thresholds []float64

	e := New(
		StaticSurface{Left: 10, Top: 0, Width: 20, Height: 20},
		WithTrack(StaticSurface{Left: 0, Top: 0, Width: 200, Height: 20}),
		OnComplete(func() { completions++ }),
		OnThreshold(func(p float64) { thresholds = append(thresholds, p) }),
	)

	e.Start(0, 10)
	assert.Equal(t, 0.0, e.Progress())
	assert.True(t, e.State().Dragging)

	e.Move(100, 10)
	assert.InDelta(t, 0.5, e.Progress(), 1e-9)
	assert.Equal(t, 0, completions)

	e.Move(190, 10)
	assert.InDelta(t, 0.95, e.Progress(), 1e-9)
	assert.Equal(t, 1, completions)
	assert.True(t, e.State().Completed)

	e.Move(200, 10)
	e.Move(50, 10)
	e.Move(199, 10)
	assert.Equal(t, 1, completions, "completion must not re-fire within a session")

	if diff := cmp.Diff([]float64{0.5, 0.95, 1, 0.25, 0.995}, thresholds, floatOpt); diff != "" {
		t.Errorf("threshold callbacks (-want +got):\n%s", diff)
	}
}

// Vertical non-sticky drag springs back but keeps the completion latch
func TestVerticalNonStickyRelease(t *testing.T) {
	e := New(track(20, 100), WithAxis(AxisY), WithSticky(false))

	e.Start(10, 100)
	e.Move(10, 0)
	require.True(t, e.State().Completed)

	e.Move(10, 20)
	assert.InDelta(t, 0.8, e.Progress(), 1e-9)

	e.End()
	want := State{Progress: 0, RawX: 10, RawY: 20, Dragging: false, Completed: true}
	if diff := cmp.Diff(want, e.State(), floatOpt); diff != "" {
		t.Errorf("state after release (-want +got):\n%s", diff)
	}
}

func TestStickyReleaseKeepsProgress(t *testing.T) {
	e := New(track(200, 20))

	e.Start(0, 0)
	e.Move(130, 0)
	before := e.Progress()
	e.End()

	assert.Equal(t, before, e.Progress())
	assert.False(t, e.State().Dragging)
}

func TestSnapPointsScenario(t *testing.T) {
	e := New(track(200, 20), WithSnapPoints(0, 0.5, 1))
	e.Start(0, 0)

	e.Move(92, 0) // raw 0.46
	assert.Equal(t, 0.5, e.Progress())

	e.Move(60, 0) // raw 0.30, outside every window
	assert.InDelta(t, 0.3, e.Progress(), 1e-9)
}

func TestSnapNearOneTriggersCompletion(t *testing.T) {
	completed := false
	e := New(track(100, 10), WithSnapPoints(1), OnComplete(func() { completed = true }))

	e.Start(0, 0)
	e.Move(93, 0) // raw 0.93 snaps to 1
	assert.Equal(t, 1.0, e.Progress())
	assert.True(t, completed)
}

func TestOutOfRangeSnapPointsKeepProgressInBounds(t *testing.T) {
	e := New(track(100, 10), WithSnapPoints(-0.05, 1.05))

	e.Start(0, 5)
	e.Move(100, 5)
	assert.Equal(t, 1.0, e.Progress())
	e.Move(0, 5)
	assert.Equal(t, 0.0, e.Progress())
}

func TestNaNVerticalMoveDoesNotComplete(t *testing.T) {
	completions := 0
	e := New(track(100, 100), WithAxis(AxisY), OnComplete(func() { completions++ }))

	e.Start(50, 100)
	e.Move(50, math.NaN())
	assert.Equal(t, 0.0, e.Progress())
	assert.Equal(t, 0, completions)
	assert.False(t, e.State().Completed)
}

func TestMoveWithoutSessionIsNoop(t *testing.T) {
	called := false
	e := New(track(200, 20), OnThreshold(func(float64) { called = true }))

	e.Move(100, 0)
	assert.Equal(t, 0.0, e.Progress())
	assert.False(t, called)

	e.Start(0, 0)
	e.End()
	e.Move(100, 0)
	assert.Equal(t, 0.0, e.Progress())
	assert.False(t, called)
}

func TestZeroSizedSurfaceYieldsZero(t *testing.T) {
	for _, axis := range []Axis{AxisX, AxisY, AxisBoth} {
		t.Run(axis.String(), func(t *testing.T) {
			e := New(track(0, 0), WithAxis(axis))
			e.Start(5, 5)
			e.Move(50, -50)
			assert.Equal(t, 0.0, e.Progress())
		})
	}
}

func TestNilSurfaceYieldsZero(t *testing.T) {
	e := New(nil)
	e.Start(1, 1)
	e.Move(1000, 1000)
	assert.Equal(t, 0.0, e.Progress())
}

func TestSurfaceRemeasuredOnMove(t *testing.T) {
	width := 100.0
	e := New(SurfaceFunc(func() Rect { return Rect{Width: width, Height: 10} }))

	e.Start(0, 0)
	e.Move(50, 0)
	assert.InDelta(t, 0.5, e.Progress(), 1e-9)

	width = 200
	e.Move(50, 0)
	assert.InDelta(t, 0.25, e.Progress(), 1e-9)
}

func TestRepeatedStartOverwritesSession(t *testing.T) {
	e := New(track(100, 10))

	e.Start(1, 1)
	e.End()
	e.Start(2, 2)
	e.Start(3, 3)
	assert.Equal(t, Session{Active: true, StartX: 3, StartY: 3}, e.Session())

	e.Move(40, 0)
	e.End()
	e.Start(70, 0)
	assert.InDelta(t, 0.4, e.Session().StartProgress, 1e-9)
}

func TestResetRearmsCompletion(t *testing.T) {
	completions := 0
	e := New(track(100, 10), OnComplete(func() { completions++ }))

	e.Start(0, 0)
	e.Move(100, 0)
	e.Reset()

	if diff := cmp.Diff(State{}, e.State()); diff != "" {
		t.Errorf("state after reset (-want +got):\n%s", diff)
	}
	e.Move(100, 0)
	assert.Equal(t, 1, completions, "move after reset has no session")

	e.Start(0, 0)
	e.Move(100, 0)
	assert.Equal(t, 2, completions)
}

func TestEndDoesNotClearLatch(t *testing.T) {
	completions := 0
	e := New(track(100, 10), WithSticky(false), OnComplete(func() { completions++ }))

	e.Start(0, 0)
	e.Move(100, 0)
	e.End()
	e.Start(0, 0)
	e.Move(100, 0)

	assert.Equal(t, 1, completions)
	assert.True(t, e.State().Completed)
}

func TestCompleteFiresBeforeThresholdWithCommittedState(t *testing.T) {
	var e *Engine
	var order []string
	var seenAtComplete State

	e = New(track(100, 10),
		OnComplete(func() {
			order = append(order, "complete")
			seenAtComplete = e.State()
		}),
		OnThreshold(func(float64) { order = append(order, "threshold") }),
	)

	e.Start(0, 0)
	e.Move(97, 0)

	assert.Equal(t, []string{"complete", "threshold"}, order)
	assert.True(t, seenAtComplete.Completed)
	assert.InDelta(t, 0.97, seenAtComplete.Progress, 1e-9)
}

func TestEngineStatus(t *testing.T) {
	reg := status.NewRegistry()
	e := New(track(100, 10), WithStatus(reg))

	e.Start(0, 0)
	e.Move(96, 0)
	e.Move(99, 0)

	assert.Equal(t, int64(1), reg.Counter(status.GesturesCompleted).Load())
	assert.InDelta(t, 0.99, reg.Gauge(status.GestureProgress).Get(), 1e-9)
}

// Progress stays within [0,1] and completion fires at most once for arbitrary input
func TestProgressBoundsAndSingleCompletionProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for _, axis := range []Axis{AxisX, AxisY, AxisBoth} {
		completions := 0
		e := New(StaticSurface{Left: 30, Top: 40, Width: 120, Height: 60},
			WithAxis(axis),
			WithSnapPoints(0, 0.25, 0.5, 0.75, 1),
			OnComplete(func() { completions++ }),
		)

		for i := 0; i < 2000; i++ {
			switch rng.Intn(10) {
			case 0:
				e.Start(rng.Float64()*1000-500, rng.Float64()*1000-500)
			case 1:
				e.End()
			default:
				e.Move(rng.Float64()*2000-1000, rng.Float64()*2000-1000)
			}
			p := e.Progress()
			require.GreaterOrEqual(t, p, 0.0, "axis %s", axis)
			require.LessOrEqual(t, p, 1.0, "axis %s", axis)
		}
		assert.LessOrEqual(t, completions, 1, "axis %s", axis)
	}
}
