// Package importer runs a complete THERM import: query the scene, scan the
// file, reconcile the polygons into scene geometry.
package importer

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"thermlink/internal/geometry"
	"thermlink/internal/reconcile"
	"thermlink/internal/therm"
	"thermlink/internal/units"

	"github.com/golang/geo/r3"
)

// ErrNoResult is returned, with no result, when the input file does not exist.
var ErrNoResult = errors.New("no result")

const missingFileMessage = "cannot find the THERM XML file; check its location on your machine. " +
	"If it is not there, open THERM and export the .thmx model as XML before importing"

// Result is the output of one import.
type Result struct {
	Faces              []*reconcile.Face         `json:"faces"`
	BoundaryConditions []therm.BoundaryCondition `json:"boundary_conditions"`
	Polygons           []therm.PolygonRecord     `json:"polygons"`
	Frame              *therm.FrameDescriptor    `json:"frame,omitempty"`
	ConversionFactor   float64                   `json:"conversion_factor"`
	HeaderUnitFactor   float64                   `json:"header_unit_factor,omitempty"` // meters per header unit
	Anchor             *r3.Vector                `json:"anchor,omitempty"`
	Advisories         []therm.Advisory          `json:"advisories"`
}

type Importer struct {
	env    Environment
	policy reconcile.FailurePolicy
	// newKernel builds the geometry kernel for a given scene tolerance
	newKernel func(tolerance float64) geometry.Kernel
}

func New(env Environment, policy reconcile.FailurePolicy) *Importer {
	return &Importer{
		env:    env,
		policy: policy,
		newKernel: func(tolerance float64) geometry.Kernel {
			return geometry.NewPlanarKernel(tolerance)
		},
	}
}

// ImportFile imports the THERM XML file at path. A missing file yields
// ErrNoResult and a single advisory.
func (im *Importer) ImportFile(path string) (*Result, []therm.Advisory, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		advisory := therm.Advisory{Kind: therm.AdvisoryMissingFile, Message: missingFileMessage}
		log.Printf("Warning: %s (%s)", advisory.Message, path)
		return nil, []therm.Advisory{advisory}, ErrNoResult
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open THERM file: %w", err)
	}
	defer f.Close()

	log.Printf("Importing THERM file: %s", path)
	return im.Import(f)
}

// Import reads a THERM XML export from r.
func (im *Importer) Import(r io.Reader) (*Result, []therm.Advisory, error) {
	if im.env == nil {
		return nil, nil, errNoEnvironment
	}
	scene, err := im.env.Query()
	if err != nil {
		return nil, nil, fmt.Errorf("query scene: %w", err)
	}
	if err := scene.validate(); err != nil {
		return nil, nil, fmt.Errorf("query scene: %w", err)
	}

	doc, advisories, err := therm.Scan(r)
	logAdvisories(advisories)
	if err != nil {
		return nil, advisories, err
	}

	factor := units.ConversionFactor(scene.UnitFactor)

	var headerFactor float64
	if doc.Frame != nil {
		headerFactor, advisories = checkHeaderUnits(doc.Frame, scene, advisories)
	}

	// without a header frame the geometry stays at the world origin
	var anchor *r3.Vector
	var target r3.Vector
	if doc.Frame != nil {
		target = doc.Frame.Origin
		if scene.ReferenceOrigin != nil {
			target = *scene.ReferenceOrigin
		}
		anchor = &target
	}

	rec := reconcile.New(im.newKernel(scene.Tolerance), im.policy)
	faces, reconcileAdvisories, err := rec.Reconcile(doc.Polygons, factor, doc.Frame, target)
	advisories = append(advisories, reconcileAdvisories...)
	if err != nil {
		return nil, advisories, err
	}

	log.Printf("Imported %d THERM polygons as %d faces (conversion factor %g)", len(doc.Polygons), len(faces), factor)

	return &Result{
		Faces:              faces,
		BoundaryConditions: doc.BoundaryConditions,
		Polygons:           doc.Polygons,
		Frame:              doc.Frame,
		ConversionFactor:   factor,
		HeaderUnitFactor:   headerFactor,
		Anchor:             anchor,
		Advisories:         advisories,
	}, advisories, nil
}

// checkHeaderUnits resolves the RhinoUnits- token of the header. The header
// units are informational: geometry is always scaled into the scene's units.
func checkHeaderUnits(frame *therm.FrameDescriptor, scene Scene, advisories []therm.Advisory) (float64, []therm.Advisory) {
	f, err := units.Factor(frame.Units)
	if err != nil {
		advisory := therm.Advisory{
			Kind:    therm.AdvisoryUnknownUnits,
			Message: fmt.Sprintf("unrecognized unit system %q in the THERM header", frame.Units),
		}
		log.Printf("Warning: %s", advisory)
		return 0, append(advisories, advisory)
	}
	if f != scene.UnitFactor {
		log.Printf("THERM header was authored in %s, scene unit is %g m", frame.Units, scene.UnitFactor)
	}
	return f, advisories
}

func logAdvisories(advisories []therm.Advisory) {
	for _, a := range advisories {
		log.Printf("Warning: %s", a)
	}
}
