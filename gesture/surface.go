package gesture

import "fmt"

// Rect is a measured rectangle in host coordinates
type Rect struct {
	Left, Top     float64
	Width, Height float64
}

// Right returns the right edge
func (r Rect) Right() float64 { return r.Left + r.Width }

// Bottom returns the bottom edge
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// Empty reports whether the rectangle cannot be normalized against
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Contains reports whether (x, y) lies inside or on the rectangle
func (r Rect) Contains(x, y float64) bool {
	return x >= r.Left && x <= r.Right() && y >= r.Top && y <= r.Bottom()
}

func (r Rect) String() string {
	return fmt.Sprintf("(%.1f,%.1f %.1fx%.1f)", r.Left, r.Top, r.Width, r.Height)
}

// CircleRect approximates a circular surface by its bounding square
func CircleRect(cx, cy, radius float64) Rect {
	if radius < 0 {
		radius = 0
	}
	return Rect{Left: cx - radius, Top: cy - radius, Width: 2 * radius, Height: 2 * radius}
}

// Surface is anything that can report its current bounds
// Bounds is re-read on every move so layout changes between events are honored
type Surface interface {
	Bounds() Rect
}

// SurfaceFunc adapts a function to Surface
type SurfaceFunc func() Rect

// Bounds calls f
func (f SurfaceFunc) Bounds() Rect { return f() }

// StaticSurface is a fixed rectangle
type StaticSurface Rect

// Bounds returns the rectangle
func (s StaticSurface) Bounds() Rect { return Rect(s) }

// measure returns bounds of s, or an empty rect for a nil surface
func measure(s Surface) Rect {
	if s == nil {
		return Rect{}
	}
	return s.Bounds()
}
