// Package loop provides the host event loop that owns cue state
//
// Every pointer event, timer callback and render runs as a task on one goroutine,
// so engines built on it need no locks and observe events in delivery order.
package loop

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/lixenwraith/vi-cue/clock"
)

// ErrStopped is returned when work is submitted to a stopped loop
var ErrStopped = errors.New("loop stopped")

// DefaultQueueSize bounds buffered tasks before Post blocks
const DefaultQueueSize = 256

// Loop serializes tasks onto a single goroutine
type Loop struct {
	tasks chan func()

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	running  atomic.Bool
	stopped  atomic.Bool

	// Live timers, stopped on shutdown so nothing outlives the loop
	timerMu sync.Mutex
	timers  map[*timer]struct{}

	time    *clock.TimeProvider
	logger  *zap.Logger
	onCrash func(r any)
}

// Option configures a Loop
type Option func(*Loop)

// WithLogger sets the logger, default is a no-op logger
func WithLogger(l *zap.Logger) Option {
	return func(lp *Loop) {
		if l != nil {
			lp.logger = l
		}
	}
}

// WithQueueSize sets the task buffer size
func WithQueueSize(n int) Option {
	return func(lp *Loop) {
		if n > 0 {
			lp.tasks = make(chan func(), n)
		}
	}
}

// WithCrashHandler receives values recovered from panicking tasks
// The loop keeps running after the handler returns
func WithCrashHandler(fn func(r any)) Option {
	return func(lp *Loop) {
		lp.onCrash = fn
	}
}

// New creates a loop, call Start to begin processing
func New(opts ...Option) *Loop {
	l := &Loop{
		tasks:  make(chan func(), DefaultQueueSize),
		stopCh: make(chan struct{}),
		timers: make(map[*timer]struct{}),
		time:   clock.NewTimeProvider(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start launches the loop goroutine, repeated calls are no-ops
func (l *Loop) Start() {
	if l.stopped.Load() {
		return
	}
	if l.running.CompareAndSwap(false, true) {
		l.wg.Add(1)
		go l.run()
	}
}

// Stop halts the loop and waits for the current task to finish
// Queued tasks are dropped and outstanding timers are stopped
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		l.stopped.Store(true)
		close(l.stopCh)
		l.wg.Wait()
		l.running.Store(false)

		l.timerMu.Lock()
		for t := range l.timers {
			t.stopped.Store(true)
			t.t.Stop()
		}
		clear(l.timers)
		l.timerMu.Unlock()

		l.logger.Debug("loop stopped")
	})
}

// Post queues fn to run on the loop goroutine
// Returns false if the loop has been stopped
func (l *Loop) Post(fn func()) bool {
	if l.stopped.Load() {
		return false
	}
	select {
	case l.tasks <- fn:
		return true
	case <-l.stopCh:
		return false
	}
}

// Call runs fn on the loop goroutine and waits for it to return
// Must not be called from the loop goroutine
func (l *Loop) Call(fn func()) error {
	done := make(chan struct{})
	if !l.Post(func() {
		defer close(done)
		fn()
	}) {
		return ErrStopped
	}
	select {
	case <-done:
		return nil
	case <-l.stopCh:
		// The task may have been dropped with the queue
		select {
		case <-done:
			return nil
		default:
			return ErrStopped
		}
	}
}

// Running reports whether the loop goroutine is active
func (l *Loop) Running() bool {
	return l.running.Load() && !l.stopped.Load()
}

// run drains the task queue until stopped
func (l *Loop) run() {
	defer l.wg.Done()
	l.logger.Debug("loop started")

	for {
		// Stop takes priority over queued work
		select {
		case <-l.stopCh:
			return
		default:
		}

		select {
		case <-l.stopCh:
			return
		case fn := <-l.tasks:
			l.exec(fn)
		}
	}
}

// exec runs one task with panic recovery
func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("task panicked",
				zap.String("panic", fmt.Sprint(r)),
				zap.ByteString("stack", debug.Stack()))
			if l.onCrash != nil {
				l.onCrash(r)
			}
		}
	}()
	fn()
}

// Now returns wall time
func (l *Loop) Now() time.Time {
	return l.time.Now()
}

// timer is a real timer whose callback is re-dispatched onto the loop
type timer struct {
	l       *Loop
	t       *time.Timer
	stopped atomic.Bool
}

// AfterFunc arms a timer that runs f on the loop goroutine after d
// A Stop issued on the loop goroutine before the callback is dequeued suppresses it
func (l *Loop) AfterFunc(d time.Duration, f func()) clock.Timer {
	t := &timer{l: l}
	if l.stopped.Load() {
		t.stopped.Store(true)
		return t
	}

	l.timerMu.Lock()
	l.timers[t] = struct{}{}
	t.t = time.AfterFunc(d, func() {
		l.Post(func() {
			if !t.stopped.CompareAndSwap(false, true) {
				return
			}
			l.forget(t)
			f()
		})
	})
	l.timerMu.Unlock()
	return t
}

// Stop cancels the timer
func (t *timer) Stop() bool {
	if !t.stopped.CompareAndSwap(false, true) {
		return false
	}
	if t.t != nil {
		t.t.Stop()
	}
	t.l.forget(t)
	return true
}

func (l *Loop) forget(t *timer) {
	l.timerMu.Lock()
	delete(l.timers, t)
	l.timerMu.Unlock()
}

// PendingTimers returns the number of armed timers
func (l *Loop) PendingTimers() int {
	l.timerMu.Lock()
	defer l.timerMu.Unlock()
	return len(l.timers)
}
