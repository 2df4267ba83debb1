package status

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
)

// Gauge is a float64 stored as its bit pattern, zero value reads 0.0
type Gauge struct {
	bits atomic.Uint64
}

func (g *Gauge) Set(val float64) {
	g.bits.Store(math.Float64bits(val))
}

func (g *Gauge) Get() float64 {
	return math.Float64frombits(g.bits.Load())
}

// maxLabelLen bounds stored labels; stage names fit comfortably
const maxLabelLen = 32

// Label holds a short string such as the current stage name
type Label struct {
	ptr atomic.Pointer[string]
}

// Store sets the label, truncating to maxLabelLen bytes
func (l *Label) Store(val string) {
	if len(val) > maxLabelLen {
		val = val[:maxLabelLen]
	}
	l.ptr.Store(&val)
}

func (l *Label) Load() string {
	if p := l.ptr.Load(); p != nil {
		return *p
	}
	return ""
}

// table maps keys to metric cells allocated on first use
// Cells never move, so engines cache the pointer at construction and write lock-free
type table[T any] struct {
	mu    sync.Mutex
	cells map[string]*T
}

func (t *table[T]) get(key string) *T {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cells == nil {
		t.cells = make(map[string]*T)
	}
	c, ok := t.cells[key]
	if !ok {
		c = new(T)
		t.cells[key] = c
	}
	return c
}

// each visits cells in key order
func (t *table[T]) each(fn func(key string, c *T)) {
	t.mu.Lock()
	keys := make([]string, 0, len(t.cells))
	for k := range t.cells {
		keys = append(keys, k)
	}
	cells := make([]*T, len(keys))
	sort.Strings(keys)
	for i, k := range keys {
		cells[i] = t.cells[k]
	}
	t.mu.Unlock()

	for i, k := range keys {
		fn(k, cells[i])
	}
}
