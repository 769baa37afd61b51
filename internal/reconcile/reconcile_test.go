package reconcile

import (
	"errors"
	"math"
	"testing"

	"thermlink/internal/geometry"
	"thermlink/internal/therm"

	"github.com/golang/geo/r3"
)

const tol = 1e-6

func near(a, b r3.Vector) bool {
	return a.Sub(b).Norm() < tol
}

func triangle(id string, ox, oy float64) therm.PolygonRecord {
	return therm.PolygonRecord{
		ID: id,
		Points: []therm.RawPoint{
			{X: ox, Y: oy},
			{X: ox + 10, Y: oy},
			{X: ox + 10, Y: oy + 10},
		},
	}
}

func newReconciler(policy FailurePolicy) *Reconciler {
	return New(geometry.NewPlanarKernel(0.001), policy)
}

func TestReconcileTriangleExample(t *testing.T) {
	faces, advisories, err := newReconciler(Abort).Reconcile(
		[]therm.PolygonRecord{triangle("1", 0, 0)}, 1, nil, r3.Vector{})
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if len(advisories) != 0 {
		t.Errorf("unexpected advisories: %v", advisories)
	}
	if len(faces) != 1 {
		t.Fatalf("expected 1 face, got %d", len(faces))
	}

	want := []r3.Vector{{X: 0}, {X: 10}, {X: 10, Y: 10}, {X: 0}}
	got := faces[0].Boundary
	if len(got) != len(want) {
		t.Fatalf("boundary = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("boundary[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestReconcileNoFrameScalesExactly(t *testing.T) {
	records := []therm.PolygonRecord{triangle("1", 3, 7), triangle("2", -20, 4.5)}
	factor := 0.001

	faces, _, err := newReconciler(Abort).Reconcile(records, factor, nil, r3.Vector{X: 99})
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if len(faces) != len(records) {
		t.Fatalf("face count = %d, want %d", len(faces), len(records))
	}

	for i, f := range faces {
		if f.Index != i || f.ID != records[i].ID {
			t.Errorf("face %d out of order: index %d id %s", i, f.Index, f.ID)
		}
		for j, p := range f.Vertices() {
			raw := records[i].Points[j]
			want := r3.Vector{X: raw.X * factor, Y: raw.Y * factor}
			if p != want {
				t.Errorf("face %d vertex %d = %v, want %v", i, j, p, want)
			}
		}
	}
}

func TestReconcileWithFrameAnchorsMinCorner(t *testing.T) {
	frame := &therm.FrameDescriptor{
		Units:  "Meters",
		Origin: r3.Vector{X: 1, Y: 2, Z: 3},
		XAxis:  r3.Vector{Y: 2}, // normalized before use
		YAxis:  r3.Vector{Z: 1},
		ZAxis:  r3.Vector{X: 1},
	}
	records := []therm.PolygonRecord{triangle("1", 0, 0), triangle("2", 100, 50)}
	anchor := r3.Vector{X: -4, Y: 8, Z: 15}

	r := newReconciler(Abort)
	faces, _, err := r.Reconcile(records, 0.001, frame, anchor)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	all := make([]*geometry.Face, len(faces))
	for i, f := range faces {
		all[i] = f.Face
	}
	box := r.Kernel.BoundingBox(all)
	if !near(box.Min, anchor) {
		t.Errorf("min corner = %v, want %v", box.Min, anchor)
	}

	// THERM x runs along scene Y and THERM y along scene Z, so the faces
	// stand in the YZ plane.
	extent := box.Max.Sub(box.Min)
	if math.Abs(extent.X) > tol || math.Abs(extent.Y-0.110) > tol || math.Abs(extent.Z-0.060) > tol {
		t.Errorf("extent = %v", extent)
	}
	if !near(faces[0].Normal, r3.Vector{X: 1}) {
		t.Errorf("normal = %v, want +X", faces[0].Normal)
	}
}

func TestReconcileRejectsDependentFrame(t *testing.T) {
	frame := &therm.FrameDescriptor{
		XAxis: r3.Vector{X: 1},
		YAxis: r3.Vector{X: 2},
		ZAxis: r3.Vector{Z: 1},
	}

	faces, _, err := newReconciler(Abort).Reconcile([]therm.PolygonRecord{triangle("1", 0, 0)}, 1, frame, r3.Vector{})
	if err == nil {
		t.Fatalf("expected error, got %d faces", len(faces))
	}
	if faces != nil {
		t.Errorf("expected no faces, got %d", len(faces))
	}
}

func TestReconcileAnchorIdempotent(t *testing.T) {
	frame := &therm.FrameDescriptor{
		XAxis: r3.Vector{X: 0, Y: 1},
		YAxis: r3.Vector{X: -1},
		ZAxis: r3.Vector{Z: 1},
	}
	anchor := r3.Vector{X: 5, Y: 5, Z: 5}
	r := newReconciler(Abort)

	first, _, err := r.Reconcile([]therm.PolygonRecord{triangle("1", 0, 0)}, 1, frame, anchor)
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := r.Reconcile([]therm.PolygonRecord{triangle("1", 0, 0)}, 1, frame, anchor)
	if err != nil {
		t.Fatal(err)
	}
	for i := range first[0].Boundary {
		if !near(first[0].Boundary[i], second[0].Boundary[i]) {
			t.Errorf("vertex %d differs between runs", i)
		}
	}
	if box := first[0].Bound(); !near(box.Min, anchor) {
		t.Errorf("min corner = %v, want %v", box.Min, anchor)
	}
}

func TestReconcileFailurePolicy(t *testing.T) {
	bad := therm.PolygonRecord{ID: "7", Line: 42, Points: []therm.RawPoint{{X: 0}, {X: 1}}}
	records := []therm.PolygonRecord{triangle("1", 0, 0), bad, triangle("3", 20, 0)}

	t.Run("abort", func(t *testing.T) {
		faces, _, err := newReconciler(Abort).Reconcile(records, 1, nil, r3.Vector{})
		if faces != nil {
			t.Error("no faces should be returned on abort")
		}
		var perr *PolygonError
		if !errors.As(err, &perr) {
			t.Fatalf("expected *PolygonError, got %v", err)
		}
		if perr.Index != 1 || perr.ID != "7" || perr.Line != 42 {
			t.Errorf("error = %+v", perr)
		}
		if !errors.Is(err, geometry.ErrTooFewPoints) {
			t.Errorf("error should wrap ErrTooFewPoints: %v", err)
		}
	})

	t.Run("skip", func(t *testing.T) {
		faces, advisories, err := newReconciler(Skip).Reconcile(records, 1, nil, r3.Vector{})
		if err != nil {
			t.Fatalf("Reconcile failed: %v", err)
		}
		if len(faces) != 2 || faces[0].Index != 0 || faces[1].Index != 2 {
			t.Errorf("faces = %v", faces)
		}
		if len(advisories) != 1 || advisories[0].Kind != therm.AdvisoryPolygonSkipped || advisories[0].Line != 42 {
			t.Errorf("advisories = %v", advisories)
		}
	})

	t.Run("skip everything", func(t *testing.T) {
		_, advisories, err := newReconciler(Skip).Reconcile([]therm.PolygonRecord{bad}, 1, nil, r3.Vector{})
		if !errors.Is(err, ErrNoFaces) {
			t.Errorf("error = %v, want ErrNoFaces", err)
		}
		if len(advisories) != 1 {
			t.Errorf("advisories = %v", advisories)
		}
	})
}

func TestReconcileEmpty(t *testing.T) {
	faces, _, err := newReconciler(Abort).Reconcile(nil, 1, &therm.FrameDescriptor{
		XAxis: r3.Vector{X: 1}, YAxis: r3.Vector{Y: 1}, ZAxis: r3.Vector{Z: 1},
	}, r3.Vector{})
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if len(faces) != 0 {
		t.Errorf("expected no faces, got %d", len(faces))
	}
}

func TestParseFailurePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    FailurePolicy
		wantErr bool
	}{
		{"", Abort, false},
		{"abort", Abort, false},
		{" Skip ", Skip, false},
		{"retry", Abort, true},
	}
	for _, tt := range tests {
		got, err := ParseFailurePolicy(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFailurePolicy(%q) = %v, %v", tt.in, got, err)
		}
	}
}
