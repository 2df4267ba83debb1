package gesture

import "math"

// Snap pulls p onto the nearest point when it lies within SnapWindow
// Only the single nearest point is considered; ties keep the earlier point
// Points outside [0,1] are ignored
func Snap(p float64, points []float64) float64 {
	nearest, best := p, math.Inf(1)
	for _, sp := range points {
		if !(sp >= 0 && sp <= 1) {
			continue
		}
		if d := math.Abs(p - sp); d < best {
			nearest, best = sp, d
		}
	}
	if best <= SnapWindow {
		return nearest
	}
	return p
}

// clamp01 bounds v to [0,1], NaN maps to 0
func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// Normalize maps (x, y) onto track along axis, clamped to [0,1]
// A track with no extent along a used dimension yields 0
func Normalize(track Rect, axis Axis, x, y float64) float64 {
	fx := func() float64 { return clamp01((x - track.Left) / track.Width) }
	// Inverted so moving up increases progress, before clamping so NaN stays 0
	fy := func() float64 { return clamp01(1 - (y-track.Top)/track.Height) }

	switch axis {
	case AxisY:
		if track.Height <= 0 {
			return 0
		}
		return fy()
	case AxisBoth:
		if track.Empty() {
			return 0
		}
		return clamp01((fx() + fy()) / 2)
	default:
		if track.Width <= 0 {
			return 0
		}
		return fx()
	}
}
