package domain

import "math"

// Coords3D is a position in the 3D scene.
type Coords3D struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Coords2D is a position on a plane.
type Coords2D struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Distance is the Euclidean distance between two 3D positions.
func (c Coords3D) Distance(o Coords3D) float64 {
	dx, dy, dz := c.X-o.X, c.Y-o.Y, c.Z-o.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Distance is the Euclidean distance between two 2D positions.
func (c Coords2D) Distance(o Coords2D) float64 {
	return math.Hypot(c.X-o.X, c.Y-o.Y)
}

// Group is a cluster or class label.
type Group struct {
	Label string `json:"label" yaml:"label"`
	Index int    `json:"index" yaml:"index"`
}
