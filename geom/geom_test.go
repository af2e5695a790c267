package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zucenko/curveclash/model"
)

const tolerance = 1e-9

func TestDistPointToSegment(t *testing.T) {
	a := model.Point{X: 0, Y: 0}
	b := model.Point{X: 10, Y: 0}

	t.Run("point on segment", func(t *testing.T) {
		assert.InDelta(t, 0, DistPointToSegment(a, b, model.Point{X: 5, Y: 0}), tolerance)
	})

	t.Run("perpendicular distance", func(t *testing.T) {
		assert.InDelta(t, 3, DistPointToSegment(a, b, model.Point{X: 5, Y: 3}), tolerance)
	})

	t.Run("clamped to endpoint", func(t *testing.T) {
		// beyond b, distance is to b itself
		assert.InDelta(t, 5, DistPointToSegment(a, b, model.Point{X: 14, Y: 3}), tolerance)
	})

	t.Run("symmetric under endpoint swap", func(t *testing.T) {
		points := []model.Point{
			{X: 5, Y: 3}, {X: -2, Y: -2}, {X: 12, Y: 1}, {X: 0, Y: 0},
		}
		for _, p := range points {
			assert.InDelta(t, DistPointToSegment(a, b, p), DistPointToSegment(b, a, p), tolerance)
		}
	})

	t.Run("degenerate segment equals point distance", func(t *testing.T) {
		p := model.Point{X: 3, Y: 4}
		assert.InDelta(t, 5, DistPointToSegment(a, a, p), tolerance)
	})
}

func TestSegmentHitsPoint(t *testing.T) {
	a := model.Point{X: 0, Y: 0}
	b := model.Point{X: 10, Y: 0}
	assert.True(t, SegmentHitsPoint(a, b, model.Point{X: 5, Y: 1}, 2))
	assert.False(t, SegmentHitsPoint(a, b, model.Point{X: 5, Y: 3}, 2))
	// strict inequality at the radius boundary
	assert.False(t, SegmentHitsPoint(a, b, model.Point{X: 5, Y: 2}, 2))
}

func TestTrailHitsPoint(t *testing.T) {
	trail := []model.Point{
		{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10},
	}

	t.Run("hit on any segment", func(t *testing.T) {
		assert.True(t, TrailHitsPoint(trail, model.Point{X: 10, Y: 5}, 1))
		assert.True(t, TrailHitsPoint(trail, model.Point{X: 5, Y: 0.5}, 1))
	})

	t.Run("miss", func(t *testing.T) {
		assert.False(t, TrailHitsPoint(trail, model.Point{X: 5, Y: 5}, 1))
	})

	t.Run("segments touching a gap never hit", func(t *testing.T) {
		gapped := []model.Point{
			{X: 0, Y: 0}, {X: 10, Y: 0, Gap: true}, {X: 10, Y: 10},
		}
		// both segments touch the gap point, so even a point exactly on
		// the polyline reports no collision
		assert.False(t, TrailHitsPoint(gapped, model.Point{X: 5, Y: 0}, 1))
		assert.False(t, TrailHitsPoint(gapped, model.Point{X: 10, Y: 5}, 1))
	})

	t.Run("short trails never collide", func(t *testing.T) {
		assert.False(t, TrailHitsPoint(nil, model.Point{}, 1))
		assert.False(t, TrailHitsPoint([]model.Point{{X: 0, Y: 0}}, model.Point{X: 0, Y: 0}, 1))
	})
}

func TestOutOfBounds(t *testing.T) {
	assert.False(t, OutOfBounds(model.Point{X: 400, Y: 300}, 800, 600))
	assert.True(t, OutOfBounds(model.Point{X: -1, Y: 300}, 800, 600))
	assert.True(t, OutOfBounds(model.Point{X: 801, Y: 300}, 800, 600))
	assert.True(t, OutOfBounds(model.Point{X: 400, Y: 0}, 800, 600))
	assert.True(t, OutOfBounds(model.Point{X: 400, Y: 600}, 800, 600))
}

func TestStartPositions(t *testing.T) {
	const cx, cy, radius = 400.0, 300.0, 200.0
	for _, n := range []int{2, 3, 6} {
		starts := StartPositions(n, cx, cy, radius)
		assert.Len(t, starts, n)
		for i, s := range starts {
			// on the circle
			d := math.Hypot(s.X-cx, s.Y-cy)
			assert.InDelta(t, radius, d, tolerance)
			// heading at the center
			assert.InDelta(t, math.Atan2(cy-s.Y, cx-s.X), s.Angle, tolerance, "player %d of %d", i, n)
		}
		// evenly spaced: angular gap between neighbours is 2pi/n
		for i := 1; i < n; i++ {
			a0 := math.Atan2(starts[i-1].Y-cy, starts[i-1].X-cx)
			a1 := math.Atan2(starts[i].Y-cy, starts[i].X-cx)
			gap := math.Mod(a1-a0+4*math.Pi, 2*math.Pi)
			assert.InDelta(t, 2*math.Pi/float64(n), gap, tolerance)
		}
	}
}
