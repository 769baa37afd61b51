package geometry

import (
	"github.com/golang/geo/r3"
)

var _ Kernel = (*PlanarKernel)(nil)

// PlanarKernel is the default Kernel. Tolerance is an absolute model distance.
type PlanarKernel struct {
	Tolerance float64
}

func NewPlanarKernel(tolerance float64) *PlanarKernel {
	return &PlanarKernel{Tolerance: tolerance}
}

// CloseLoop drops repeated consecutive points and a trailing copy of the
// first point, then appends the closing point.
func (k *PlanarKernel) CloseLoop(points []r3.Vector) ([]r3.Vector, error) {
	loop := make([]r3.Vector, 0, len(points)+1)
	for _, p := range points {
		if len(loop) > 0 && k.same(loop[len(loop)-1], p) {
			continue
		}
		loop = append(loop, p)
	}
	if len(loop) > 1 && k.same(loop[0], loop[len(loop)-1]) {
		loop = loop[:len(loop)-1]
	}
	if len(loop) < 3 {
		return nil, ErrTooFewPoints
	}
	return append(loop, loop[0]), nil
}

// Planarize fits a plane through the loop with Newell's method and checks
// every vertex against it.
func (k *PlanarKernel) Planarize(loop []r3.Vector) (*Face, error) {
	if len(loop) < 4 {
		return nil, ErrTooFewPoints
	}

	normal := newellNormal(loop)
	// |normal| is twice the enclosed area
	if normal.Norm()/2 <= k.Tolerance*k.Tolerance {
		return nil, ErrDegenerate
	}
	normal = normal.Normalize()

	centroid := r3.Vector{}
	vertices := loop[:len(loop)-1]
	for _, p := range vertices {
		centroid = centroid.Add(p)
	}
	centroid = centroid.Mul(1 / float64(len(vertices)))

	for _, p := range vertices {
		if d := p.Sub(centroid).Dot(normal); d > k.Tolerance || d < -k.Tolerance {
			return nil, ErrNonPlanar
		}
	}

	boundary := make([]r3.Vector, len(loop))
	copy(boundary, loop)
	return &Face{Boundary: boundary, Normal: normal}, nil
}

func (k *PlanarKernel) BoundingBox(faces []*Face) Box {
	box := EmptyBox()
	for _, f := range faces {
		box = box.Union(f.Bound())
	}
	return box
}

// ApplyTransform moves the boundary and recomputes the normal from it, which
// keeps the normal correct under reflections.
func (k *PlanarKernel) ApplyTransform(face *Face, xf Transform) {
	for i, p := range face.Boundary {
		face.Boundary[i] = xf.Apply(p)
	}
	if n := newellNormal(face.Boundary); n.Norm() > 0 {
		face.Normal = n.Normalize()
	}
}

func (k *PlanarKernel) same(a, b r3.Vector) bool {
	return a.Sub(b).Norm() <= k.Tolerance
}

// newellNormal expects a closed loop.
func newellNormal(loop []r3.Vector) r3.Vector {
	var n r3.Vector
	for i := 0; i+1 < len(loop); i++ {
		a, b := loop[i], loop[i+1]
		n.X += (a.Y - b.Y) * (a.Z + b.Z)
		n.Y += (a.Z - b.Z) * (a.X + b.X)
		n.Z += (a.X - b.X) * (a.Y + b.Y)
	}
	return n
}
