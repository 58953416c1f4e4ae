// Package geometry holds the small amount of 2D math the dynamics
// core needs: vectors, isometries, and the ball shape used by the
// demo scenes.
package geometry

import "math"

type Vec2 struct {
	X, Y float64
}

func (v Vec2) Add(o Vec2) Vec2     { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2     { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }
func (v Vec2) Dot(o Vec2) float64  { return v.X*o.X + v.Y*o.Y }

func (v Vec2) Norm() float64        { return math.Sqrt(v.X*v.X + v.Y*v.Y) }
func (v Vec2) NormSquared() float64 { return v.X*v.X + v.Y*v.Y }

func (v Vec2) Normalize() Vec2 {
	n := v.Norm()
	if n == 0 {
		return Vec2{}
	}
	return Vec2{v.X / n, v.Y / n}
}

// Iso2 is a 2D isometry: a rotation followed by a translation.
type Iso2 struct {
	Translation Vec2
	Rotation    float64 // radians
}

// Apply transforms a point from local to world coordinates.
func (i Iso2) Apply(p Vec2) Vec2 {
	sin, cos := math.Sincos(i.Rotation)
	return Vec2{
		X: cos*p.X - sin*p.Y + i.Translation.X,
		Y: sin*p.X + cos*p.Y + i.Translation.Y,
	}
}

// Mul composes two isometries: the result maps a point through o,
// then through i.
func (i Iso2) Mul(o Iso2) Iso2 {
	return Iso2{
		Translation: i.Apply(o.Translation),
		Rotation:    i.Rotation + o.Rotation,
	}
}

// Ball is a circle shape centered on its collider's position.
type Ball struct {
	Radius float64
}
