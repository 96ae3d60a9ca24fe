// Package vmath holds the small geometry and randomness helpers shared by simulations.
// Coordinates are percentages of the viewport, 0..100 on both axes.
package vmath

import "math"

// Point is a position in percent space
type Point struct {
	X, Y float64
}

// Center is the middle of the viewport
var Center = Point{X: 50, Y: 50}

// Dist returns the euclidean distance to q
func (p Point) Dist(q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// Lerp interpolates from p toward q; t is not clamped
func (p Point) Lerp(q Point, t float64) Point {
	return Point{X: p.X + (q.X-p.X)*t, Y: p.Y + (q.Y-p.Y)*t}
}

// Clamp limits both coordinates to [lo, hi]
func (p Point) Clamp(lo, hi float64) Point {
	return Point{X: Clamp(p.X, lo, hi), Y: Clamp(p.Y, lo, hi)}
}

// Orbit returns the point at angle on a circle of radius around p
func (p Point) Orbit(angle, radius float64) Point {
	return Point{X: p.X + math.Cos(angle)*radius, Y: p.Y + math.Sin(angle)*radius}
}

// Clamp limits v to [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
