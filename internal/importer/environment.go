package importer

import (
	"errors"
	"fmt"

	"thermlink/internal/config"
	"thermlink/internal/units"

	"github.com/golang/geo/r3"
)

// Scene is what the host scene reports before an import.
type Scene struct {
	// UnitFactor is the length of one scene unit in meters.
	UnitFactor float64
	// Tolerance is the absolute model tolerance in scene units.
	Tolerance float64
	// ReferenceOrigin, when set, overrides the header origin as the point
	// re-anchored geometry is moved onto.
	ReferenceOrigin *r3.Vector
}

func (s Scene) validate() error {
	if !(s.UnitFactor > 0) {
		return fmt.Errorf("unit factor must be positive, got %v", s.UnitFactor)
	}
	if !(s.Tolerance > 0) {
		return fmt.Errorf("tolerance must be positive, got %v", s.Tolerance)
	}
	return nil
}

// Environment is queried once at the start of every import.
type Environment interface {
	Query() (Scene, error)
}

// StaticEnvironment always reports the same scene.
type StaticEnvironment Scene

func (e StaticEnvironment) Query() (Scene, error) {
	return Scene(e), nil
}

// ConfigEnvironment reads the scene from application config.
type ConfigEnvironment struct {
	Config config.Config
}

func (e ConfigEnvironment) Query() (Scene, error) {
	factor, err := units.Factor(e.Config.UnitSystem)
	if err != nil {
		return Scene{}, err
	}

	scene := Scene{UnitFactor: factor, Tolerance: e.Config.Tolerance}

	origin, ok, err := e.Config.Origin()
	if err != nil {
		return Scene{}, err
	}
	if ok {
		scene.ReferenceOrigin = &origin
	}
	return scene, nil
}

var errNoEnvironment = errors.New("no environment configured")
