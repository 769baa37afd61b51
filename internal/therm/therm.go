// Package therm reads THERM XML exports with a line-oriented marker scanner.
//
// Only a handful of markers carry meaning: the <Polygons> section, each
// <Polygon ID ...> block with its <Point index=...> children, and a single
// line <Notes>...</Notes> header that may describe the Rhino frame the
// geometry was exported from. Everything else in the file is ignored.
package therm

import (
	"github.com/golang/geo/r3"
	"github.com/paulmach/orb"
)

// RawPoint is a vertex as written by THERM, in millimeters. Z is always 0.
type RawPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PolygonRecord is one <Polygon> block. Point order is the loop winding.
type PolygonRecord struct {
	ID       string     `json:"id,omitempty"`
	Material string     `json:"material,omitempty"`
	Line     int        `json:"line"` // line of the opening tag
	Points   []RawPoint `json:"points"`
}

// Ring returns the record as a closed orb ring in THERM coordinates.
func (p PolygonRecord) Ring() orb.Ring {
	ring := make(orb.Ring, 0, len(p.Points)+1)
	for _, pt := range p.Points {
		ring = append(ring, orb.Point{pt.X, pt.Y})
	}
	if len(ring) > 0 && !ring.Closed() {
		ring = append(ring, ring[0])
	}
	return ring
}

// Polygon wraps Ring as a single-ring orb polygon.
func (p PolygonRecord) Polygon() orb.Polygon {
	return orb.Polygon{p.Ring()}
}

// FrameDescriptor is the Rhino frame recorded in the <Notes> header.
type FrameDescriptor struct {
	Units  string    `json:"units"`
	Origin r3.Vector `json:"origin"`
	XAxis  r3.Vector `json:"x_axis"`
	YAxis  r3.Vector `json:"y_axis"`
	ZAxis  r3.Vector `json:"z_axis"`
}

// BoundaryCondition is reserved for THERM boundary condition records.
// The scanner never produces any.
type BoundaryCondition struct {
	ID     string     `json:"id"`
	Type   string     `json:"type"`
	Points []RawPoint `json:"points"`
}

// Document is everything the scanner extracted from one file.
type Document struct {
	Polygons           []PolygonRecord     `json:"polygons"`
	Frame              *FrameDescriptor    `json:"frame,omitempty"`
	BoundaryConditions []BoundaryCondition `json:"boundary_conditions"`
}
