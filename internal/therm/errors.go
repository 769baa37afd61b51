package therm

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedPoint  = errors.New("malformed point")
	ErrUnclosedPolygon = errors.New("polygon is never closed")
	ErrNestedPolygon   = errors.New("polygon opened inside another polygon")
	ErrUnmatchedClose  = errors.New("polygon closed without being opened")
)

// ParseError is a fatal scan failure tied to a source line.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("therm: line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
