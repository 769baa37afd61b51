// Package reconcile turns scanned THERM polygons into planar faces in the
// scene's unit and coordinate frame.
package reconcile

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"thermlink/internal/geometry"
	"thermlink/internal/therm"

	"github.com/golang/geo/r3"
)

// FailurePolicy decides what happens when one polygon cannot become a face.
type FailurePolicy int

const (
	// Abort fails the whole run on the first bad polygon.
	Abort FailurePolicy = iota
	// Skip drops the polygon and reports an advisory.
	Skip
)

// ParseFailurePolicy accepts "abort" and "skip"; empty means Abort.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "abort":
		return Abort, nil
	case "skip":
		return Skip, nil
	}
	return Abort, fmt.Errorf("unknown failure policy %q", s)
}

func (p FailurePolicy) String() string {
	if p == Skip {
		return "skip"
	}
	return "abort"
}

// ErrNoFaces is returned when every polygon was skipped.
var ErrNoFaces = errors.New("no polygon could be converted to a face")

// PolygonError names the polygon, by input position, that failed to build.
type PolygonError struct {
	Index int
	ID    string
	Line  int
	Err   error
}

func (e *PolygonError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("polygon %d (ID %s, line %d): %v", e.Index, e.ID, e.Line, e.Err)
	}
	return fmt.Sprintf("polygon %d (line %d): %v", e.Index, e.Line, e.Err)
}

func (e *PolygonError) Unwrap() error {
	return e.Err
}

// Face is a reconciled polygon. Index is the polygon's position in the input.
type Face struct {
	Index    int    `json:"index"`
	ID       string `json:"id,omitempty"`
	Material string `json:"material,omitempty"`
	*geometry.Face
}

type Reconciler struct {
	Kernel geometry.Kernel
	Policy FailurePolicy
}

func New(kernel geometry.Kernel, policy FailurePolicy) *Reconciler {
	return &Reconciler{Kernel: kernel, Policy: policy}
}

// Reconcile builds one face per record, scales by factor and, when frame is
// set, re-bases the faces into it and moves their lower corner onto anchor.
// Each step runs over every face before the next one starts.
func (r *Reconciler) Reconcile(records []therm.PolygonRecord, factor float64, frame *therm.FrameDescriptor, anchor r3.Vector) ([]*Face, []therm.Advisory, error) {
	var advisories []therm.Advisory

	faces := make([]*Face, 0, len(records))
	for i, rec := range records {
		face, err := r.build(rec)
		if err != nil {
			perr := &PolygonError{Index: i, ID: rec.ID, Line: rec.Line, Err: err}
			if r.Policy == Abort {
				return nil, advisories, perr
			}
			log.Printf("Skipping %v", perr)
			advisories = append(advisories, therm.Advisory{
				Kind:    therm.AdvisoryPolygonSkipped,
				Line:    rec.Line,
				Message: perr.Error(),
			})
			continue
		}
		faces = append(faces, &Face{Index: i, ID: rec.ID, Material: rec.Material, Face: face})
	}
	if len(faces) == 0 && len(records) > 0 {
		return nil, advisories, ErrNoFaces
	}

	r.transformAll(faces, geometry.Scale(factor))

	if frame == nil {
		return faces, advisories, nil
	}

	basis, err := geometry.ChangeBasis(geometry.WorldFrame(frame.Origin), geometry.Frame{
		Origin: frame.Origin,
		X:      frame.XAxis.Normalize(),
		Y:      frame.YAxis.Normalize(),
		Z:      frame.ZAxis.Normalize(),
	})
	if err != nil {
		return nil, advisories, fmt.Errorf("header frame: %w", err)
	}
	r.transformAll(faces, basis)

	if len(faces) > 0 {
		box := r.Kernel.BoundingBox(geometryFaces(faces))
		r.transformAll(faces, geometry.Translation(anchor.Sub(box.Min)))
	}

	return faces, advisories, nil
}

func (r *Reconciler) build(rec therm.PolygonRecord) (*geometry.Face, error) {
	points := make([]r3.Vector, len(rec.Points))
	for i, p := range rec.Points {
		points[i] = r3.Vector{X: p.X, Y: p.Y}
	}

	loop, err := r.Kernel.CloseLoop(points)
	if err != nil {
		return nil, err
	}
	return r.Kernel.Planarize(loop)
}

func (r *Reconciler) transformAll(faces []*Face, xf geometry.Transform) {
	for _, f := range faces {
		r.Kernel.ApplyTransform(f.Face, xf)
	}
}

func geometryFaces(faces []*Face) []*geometry.Face {
	out := make([]*geometry.Face, len(faces))
	for i, f := range faces {
		out[i] = f.Face
	}
	return out
}
