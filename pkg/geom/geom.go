// Package geom computes vertex lists for parametric 2D shapes in canvas
// space (origin top-left, Y increasing downward). Points are sdfx v2
// vectors so the results plug straight into sdf.Box2 bounds.
package geom

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
)

// RegularPolygon returns sides points evenly spaced on a circle of the
// given radius around center. The first point sits at rotation degrees
// from the positive X axis; successive points advance by 2π/sides with
// increasing angle, which traces clockwise on a Y-down canvas.
func RegularPolygon(center v2.Vec, radius float64, sides int, rotation float64) []v2.Vec {
	pts := make([]v2.Vec, 0, sides)
	start := sdf.DtoR(rotation)
	step := 2 * math.Pi / float64(sides)
	for i := 0; i < sides; i++ {
		a := start + step*float64(i)
		pts = append(pts, v2.Vec{
			X: center.X + radius*math.Cos(a),
			Y: center.Y + radius*math.Sin(a),
		})
	}
	return pts
}

// Star returns 2*points vertices alternating between outerRadius and
// innerRadius, starting with an outer vertex pointing up (-π/2) and
// advancing by π/points.
func Star(center v2.Vec, innerRadius, outerRadius float64, points int) []v2.Vec {
	n := points * 2
	pts := make([]v2.Vec, 0, n)
	step := math.Pi / float64(points)
	for i := 0; i < n; i++ {
		r := outerRadius
		if i%2 == 1 {
			r = innerRadius
		}
		a := -math.Pi/2 + step*float64(i)
		pts = append(pts, v2.Vec{
			X: center.X + r*math.Cos(a),
			Y: center.Y + r*math.Sin(a),
		})
	}
	return pts
}

// Bounds returns the axis-aligned bounding box of pts. The zero box is
// returned for an empty slice.
func Bounds(pts []v2.Vec) sdf.Box2 {
	if len(pts) == 0 {
		return sdf.Box2{}
	}
	lo, hi := pts[0], pts[0]
	for _, p := range pts[1:] {
		lo = lo.Min(p)
		hi = hi.Max(p)
	}
	return sdf.Box2{Min: lo, Max: hi}
}
