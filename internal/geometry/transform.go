package geometry

import (
	"errors"
	"math"

	"github.com/golang/geo/r3"
)

// Transform is a 4x4 affine matrix acting on column vectors.
type Transform [4][4]float64

// Frame is an origin with three basis vectors.
type Frame struct {
	Origin  r3.Vector
	X, Y, Z r3.Vector
}

// WorldFrame returns the world axes placed at origin.
func WorldFrame(origin r3.Vector) Frame {
	return Frame{
		Origin: origin,
		X:      r3.Vector{X: 1},
		Y:      r3.Vector{Y: 1},
		Z:      r3.Vector{Z: 1},
	}
}

// Scale is a uniform scale about the world origin.
func Scale(f float64) Transform {
	return Transform{
		{f, 0, 0, 0},
		{0, f, 0, 0},
		{0, 0, f, 0},
		{0, 0, 0, 1},
	}
}

func Translation(v r3.Vector) Transform {
	return Transform{
		{1, 0, 0, v.X},
		{0, 1, 0, v.Y},
		{0, 0, 1, v.Z},
		{0, 0, 0, 1},
	}
}

// ChangeBasis returns the transform that moves geometry described in from
// so it has the same local coordinates in to.
func ChangeBasis(from, to Frame) (Transform, error) {
	inv, err := invert3([3]r3.Vector{from.X, from.Y, from.Z})
	if err != nil {
		return Transform{}, err
	}
	if _, err := invert3([3]r3.Vector{to.X, to.Y, to.Z}); err != nil {
		return Transform{}, err
	}

	// toward local coordinates of from
	local := Transform{
		{inv[0][0], inv[0][1], inv[0][2], 0},
		{inv[1][0], inv[1][1], inv[1][2], 0},
		{inv[2][0], inv[2][1], inv[2][2], 0},
		{0, 0, 0, 1},
	}.Mul(Translation(from.Origin.Mul(-1)))

	// back out through the axes of to
	world := Translation(to.Origin).Mul(Transform{
		{to.X.X, to.Y.X, to.Z.X, 0},
		{to.X.Y, to.Y.Y, to.Z.Y, 0},
		{to.X.Z, to.Y.Z, to.Z.Z, 0},
		{0, 0, 0, 1},
	})

	return world.Mul(local), nil
}

// Mul returns t·o, the transform that applies o first and then t.
func (t Transform) Mul(o Transform) Transform {
	var r Transform
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			for k := 0; k < 4; k++ {
				r[i][j] += t[i][k] * o[k][j]
			}
		}
	}
	return r
}

func (t Transform) Apply(p r3.Vector) r3.Vector {
	return r3.Vector{
		X: t[0][0]*p.X + t[0][1]*p.Y + t[0][2]*p.Z + t[0][3],
		Y: t[1][0]*p.X + t[1][1]*p.Y + t[1][2]*p.Z + t[1][3],
		Z: t[2][0]*p.X + t[2][1]*p.Y + t[2][2]*p.Z + t[2][3],
	}
}

var errSingularBasis = errors.New("basis vectors are linearly dependent")

// invert3 inverts the matrix whose columns are cols.
func invert3(cols [3]r3.Vector) ([3][3]float64, error) {
	a, b, c := cols[0], cols[1], cols[2]
	det := a.Dot(b.Cross(c))
	if math.Abs(det) < 1e-12 {
		return [3][3]float64{}, errSingularBasis
	}

	// rows of the inverse are the reciprocal basis
	r0 := b.Cross(c).Mul(1 / det)
	r1 := c.Cross(a).Mul(1 / det)
	r2 := a.Cross(b).Mul(1 / det)
	return [3][3]float64{
		{r0.X, r0.Y, r0.Z},
		{r1.X, r1.Y, r1.Z},
		{r2.X, r2.Y, r2.Z},
	}, nil
}
