// Package geometry holds the small set of planar-face operations the THERM
// reconciler needs: loop closing, planar face construction, bounding boxes
// and affine transforms. Vectors are golang/geo r3 vectors in double precision.
package geometry

import (
	"errors"
	"math"

	"github.com/golang/geo/r3"
)

var (
	ErrTooFewPoints = errors.New("loop needs at least 3 distinct points")
	ErrDegenerate   = errors.New("loop encloses no area")
	ErrNonPlanar    = errors.New("loop is not planar within tolerance")
)

// Kernel is the geometry capability the reconciler depends on.
type Kernel interface {
	// CloseLoop returns the points as a closed loop whose last point repeats the first.
	CloseLoop(points []r3.Vector) ([]r3.Vector, error)
	// Planarize builds a planar face bounded by a closed loop.
	Planarize(loop []r3.Vector) (*Face, error)
	// BoundingBox returns the world-aligned union box of the faces.
	BoundingBox(faces []*Face) Box
	// ApplyTransform transforms the face in place.
	ApplyTransform(face *Face, xf Transform)
}

// Face is a planar face bounded by a single closed loop.
type Face struct {
	Boundary []r3.Vector `json:"boundary"`
	Normal   r3.Vector   `json:"normal"`
}

// Vertices returns the boundary without the closing point.
func (f *Face) Vertices() []r3.Vector {
	if len(f.Boundary) == 0 {
		return nil
	}
	return f.Boundary[:len(f.Boundary)-1]
}

// Bound returns the world-aligned box of the face.
func (f *Face) Bound() Box {
	b := EmptyBox()
	for _, p := range f.Boundary {
		b = b.Extend(p)
	}
	return b
}

// Box is a world-aligned bounding box.
type Box struct {
	Min r3.Vector `json:"min"`
	Max r3.Vector `json:"max"`
}

// EmptyBox returns a box that any point extends.
func EmptyBox() Box {
	inf := math.Inf(1)
	return Box{
		Min: r3.Vector{X: inf, Y: inf, Z: inf},
		Max: r3.Vector{X: -inf, Y: -inf, Z: -inf},
	}
}

func (b Box) IsEmpty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

func (b Box) Extend(p r3.Vector) Box {
	return Box{
		Min: r3.Vector{X: math.Min(b.Min.X, p.X), Y: math.Min(b.Min.Y, p.Y), Z: math.Min(b.Min.Z, p.Z)},
		Max: r3.Vector{X: math.Max(b.Max.X, p.X), Y: math.Max(b.Max.Y, p.Y), Z: math.Max(b.Max.Z, p.Z)},
	}
}

func (b Box) Union(o Box) Box {
	if o.IsEmpty() {
		return b
	}
	return b.Extend(o.Min).Extend(o.Max)
}

// Intersects reports whether the boxes overlap, touching included.
func (b Box) Intersects(o Box) bool {
	if b.IsEmpty() || o.IsEmpty() {
		return false
	}
	return b.Min.X <= o.Max.X && o.Min.X <= b.Max.X &&
		b.Min.Y <= o.Max.Y && o.Min.Y <= b.Max.Y &&
		b.Min.Z <= o.Max.Z && o.Min.Z <= b.Max.Z
}
