// Package geom holds the pure collision math: point-to-segment distance,
// trail-vs-point tests and the round start layout. No state, no errors.
package geom

import (
	"math"

	"github.com/zucenko/curveclash/model"
)

// DistPointToSegment is the projection-clamped distance from p to segment ab.
// A zero-length segment degenerates to plain point distance.
func DistPointToSegment(a, b, p model.Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	lengthSq := dx*dx + dy*dy
	if lengthSq == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lengthSq
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(p.X-(a.X+t*dx), p.Y-(a.Y+t*dy))
}

func SegmentHitsPoint(a, b, p model.Point, radius float64) bool {
	return DistPointToSegment(a, b, p) < radius
}

// TrailHitsPoint tests every consecutive segment of trail against p. Segments
// touching a gap point are skipped. A trail of fewer than two points never
// collides.
func TrailHitsPoint(trail []model.Point, p model.Point, radius float64) bool {
	for i := 1; i < len(trail); i++ {
		if trail[i-1].Gap || trail[i].Gap {
			continue
		}
		if SegmentHitsPoint(trail[i-1], trail[i], p, radius) {
			return true
		}
	}
	return false
}

// OutOfBounds reports whether p lies on or outside the arena edge.
func OutOfBounds(p model.Point, width, height float64) bool {
	return p.X <= 0 || p.X >= width || p.Y <= 0 || p.Y >= height
}

// Start is a spawn position with its initial heading.
type Start struct {
	X, Y, Angle float64
}

// StartPositions distributes n spawns evenly on a circle around the arena
// center, each heading pointed at the center.
func StartPositions(n int, centerX, centerY, radius float64) []Start {
	starts := make([]Start, 0, n)
	for i := 0; i < n; i++ {
		a := float64(i) / float64(n) * 2 * math.Pi
		x := centerX + radius*math.Cos(a)
		y := centerY + radius*math.Sin(a)
		starts = append(starts, Start{
			X:     x,
			Y:     y,
			Angle: math.Atan2(centerY-y, centerX-x),
		})
	}
	return starts
}
