package hex

import "fmt"

// Axial represents axial coordinates (q, r) for pointy-top orientation.
type Axial struct {
	Q int `json:"q" yaml:"q"`
	R int `json:"r" yaml:"r"`
}

// Cube represents cube coordinates (x, y, z) with x+y+z=0.
type Cube struct {
	X int
	Y int
	Z int
}

// Directions for axial neighbors in pointy-top orientation.
var Directions = [6]Axial{
	{+1, 0}, {+1, -1}, {0, -1}, {-1, 0}, {-1, +1}, {0, +1},
}

// Add returns a+b in axial space.
func (a Axial) Add(b Axial) Axial { return Axial{a.Q + b.Q, a.R + b.R} }

// Mul scales an axial vector by k.
func (a Axial) Mul(k int) Axial { return Axial{a.Q * k, a.R * k} }

// Neighbor returns the adjacent cell in direction d (0..5).
func (a Axial) Neighbor(d int) Axial { return a.Add(Directions[((d%6)+6)%6]) }

// Neighbors returns the six adjacent cells in direction order.
func (a Axial) Neighbors() [6]Axial {
	var out [6]Axial
	for i, d := range Directions {
		out[i] = a.Add(d)
	}
	return out
}

// IsAdjacent reports whether b is one of a's six neighbors.
func (a Axial) IsAdjacent(b Axial) bool { return DistanceAxial(a, b) == 1 }

// String renders the coordinate as "(q,r)".
func (a Axial) String() string { return fmt.Sprintf("(%d,%d)", a.Q, a.R) }

// ToCube converts axial to cube.
func (a Axial) ToCube() Cube {
	x := a.Q
	z := a.R
	y := -x - z
	return Cube{X: x, Y: y, Z: z}
}

// ToAxial converts cube to axial.
func (c Cube) ToAxial() Axial { return Axial{Q: c.X, R: c.Z} }

// DistanceAxial returns hex distance between two axial coords.
func DistanceAxial(a, b Axial) int {
	return DistanceCube(a.ToCube(), b.ToCube())
}

// DistanceCube returns hex distance between two cube coords.
func DistanceCube(a, b Cube) int {
	dx := abs(a.X - b.X)
	dy := abs(a.Y - b.Y)
	dz := abs(a.Z - b.Z)
	if dx > dy && dx > dz {
		return dx
	}
	if dy > dz {
		return dy
	}
	return dz
}

// Less orders coordinates by q, then r. Used wherever iteration order must be stable.
func Less(a, b Axial) bool {
	if a.Q != b.Q {
		return a.Q < b.Q
	}
	return a.R < b.R
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
