// Package gesture normalizes pointer motion over a bounded surface into a progress value.
//
// An Engine maps absolute pointer coordinates onto a track rectangle and produces a
// progress in [0,1] along one axis (or the mean of both), with optional snapping to
// preferred values and optional spring-back on release. Completion is edge triggered:
// OnComplete fires the first time progress reaches CompletionThreshold within a session
// and never again until Reset.
//
// Engines are reactive and hold no goroutines or timers. They are not safe for concurrent
// use; drive each Engine from the goroutine that owns its cue. Callbacks must not call
// back into the Engine that invoked them.
package gesture
