package therm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	polygonsOpen  = "<Polygons>"
	polygonsClose = "</Polygons>"
	polygonOpen   = "<Polygon ID"
	polygonClose  = "</Polygon>"
	pointMarker   = "<Point index="

	// Notes headers can carry long free text on one line.
	maxLineSize = 16 * 1024 * 1024
)

type scanner struct {
	line      int
	inSection bool
	inPolygon bool
	current   PolygonRecord

	polygons   []PolygonRecord
	frame      *FrameDescriptor
	advisories []Advisory
}

// Scan reads a THERM XML export from r in a single pass. On a fatal error no
// document is returned; advisories collected up to that point still are.
func Scan(r io.Reader) (*Document, []Advisory, error) {
	s := &scanner{}

	lines := bufio.NewScanner(r)
	lines.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for lines.Scan() {
		s.line++
		if err := s.feed(lines.Text()); err != nil {
			return nil, s.advisories, err
		}
	}
	if err := lines.Err(); err != nil {
		return nil, s.advisories, fmt.Errorf("therm: read: %w", err)
	}

	if s.inPolygon {
		return nil, s.advisories, &ParseError{Line: s.current.Line, Err: ErrUnclosedPolygon}
	}

	return &Document{
		Polygons:           s.polygons,
		Frame:              s.frame,
		BoundaryConditions: []BoundaryCondition{},
	}, s.advisories, nil
}

func (s *scanner) feed(line string) error {
	switch {
	case strings.Contains(line, polygonsOpen):
		s.inSection = true
	case strings.Contains(line, polygonsClose):
		if s.inPolygon {
			return &ParseError{Line: s.current.Line, Err: ErrUnclosedPolygon}
		}
		s.inSection = false
	case strings.Contains(line, notesOpen) && strings.Contains(line, notesClose):
		s.readHeader(line)
	}

	if !s.inSection {
		return nil
	}

	switch {
	case strings.Contains(line, polygonOpen):
		if s.inPolygon {
			return &ParseError{Line: s.line, Err: ErrNestedPolygon}
		}
		s.inPolygon = true
		s.current = PolygonRecord{
			ID:       attribute(line, "ID"),
			Material: attribute(line, "Material"),
			Line:     s.line,
		}
	case strings.Contains(line, polygonClose):
		if !s.inPolygon {
			return &ParseError{Line: s.line, Err: ErrUnmatchedClose}
		}
		s.inPolygon = false
		s.polygons = append(s.polygons, s.current)
		s.current = PolygonRecord{}
	case strings.Contains(line, pointMarker):
		if !s.inPolygon {
			return nil
		}
		pt, err := parsePoint(line)
		if err != nil {
			return &ParseError{Line: s.line, Err: fmt.Errorf("%w: %v", ErrMalformedPoint, err)}
		}
		s.current.Points = append(s.current.Points, pt)
	}
	return nil
}

func (s *scanner) readHeader(line string) {
	if s.frame != nil {
		s.advisories = append(s.advisories, Advisory{
			Kind:    AdvisoryDuplicateTransform,
			Line:    s.line,
			Message: "additional transformation header ignored; the first one is used",
		})
		return
	}

	frame, err := parseFrame(line)
	switch {
	case errors.Is(err, errNoTransform):
		s.advisories = append(s.advisories, Advisory{
			Kind:    AdvisoryMissingTransform,
			Line:    s.line,
			Message: "cannot find any transformation data in the header of the THERM file; geometry will be imported to the model origin",
		})
	case err != nil:
		s.advisories = append(s.advisories, Advisory{
			Kind:    AdvisoryMissingTransform,
			Line:    s.line,
			Message: fmt.Sprintf("unreadable transformation data in the THERM header (%v); geometry will be imported to the model origin", err),
		})
	default:
		s.frame = frame
	}
}

// parsePoint takes the value after the last x=" and y=" on the line. The
// last occurrence matters because index=" itself ends in x=".
func parsePoint(line string) (RawPoint, error) {
	x, err := lastNumber(line, `x="`)
	if err != nil {
		return RawPoint{}, err
	}
	y, err := lastNumber(line, `y="`)
	if err != nil {
		return RawPoint{}, err
	}
	return RawPoint{X: x, Y: y}, nil
}

func lastNumber(line, key string) (float64, error) {
	i := strings.LastIndex(line, key)
	if i < 0 {
		return 0, fmt.Errorf("no %s attribute", key)
	}
	rest := line[i+len(key):]
	end := strings.IndexByte(rest, '"')
	if end < 0 {
		return 0, fmt.Errorf("unterminated %s attribute", key)
	}
	return strconv.ParseFloat(strings.TrimSpace(rest[:end]), 64)
}

// attribute returns the quoted value of name on the line, or "".
func attribute(line, name string) string {
	key := " " + name + `="`
	i := strings.Index(line, key)
	if i < 0 {
		return ""
	}
	rest := line[i+len(key):]
	end := strings.IndexByte(rest, '"')
	if end < 0 {
		return ""
	}
	return rest[:end]
}
