package therm

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
)

const (
	notesOpen  = "<Notes>"
	notesClose = "</Notes>"

	unitsTag  = "RhinoUnits-"
	originTag = "RhinoOrigin-("
	xAxisTag  = "RhinoXAxis-("
	yAxisTag  = "RhinoYAxis-("
	zAxisTag  = "RhinoZAxis-("

	valueEnd = "),"
	lastEnd  = ")" + notesClose

	// smallest |X·(Y×Z)| of the unit axes accepted as a frame
	minAxisVolume = 1e-9
)

var errNoTransform = errors.New("transformation tags not found")

// parseFrame reads the Rhino frame from a single <Notes> line. All five tags
// must be present and in order; anything less yields errNoTransform.
func parseFrame(line string) (*FrameDescriptor, error) {
	tags := []string{unitsTag, originTag, xAxisTag, yAxisTag, zAxisTag}
	pos := make([]int, len(tags))
	for i, tag := range tags {
		p := strings.Index(line, tag)
		if p < 0 || (i > 0 && p < pos[i-1]) {
			return nil, errNoTransform
		}
		pos[i] = p
	}

	units := line[pos[0]+len(unitsTag) : pos[1]]
	if comma := strings.IndexByte(units, ','); comma >= 0 {
		units = units[:comma]
	}

	frame := &FrameDescriptor{Units: strings.TrimSpace(units)}
	targets := []*r3.Vector{&frame.Origin, &frame.XAxis, &frame.YAxis, &frame.ZAxis}
	for i, target := range targets {
		tag := tags[i+1]
		start := pos[i+1] + len(tag)

		var raw string
		if i == len(targets)-1 {
			end := strings.Index(line[start:], lastEnd)
			if end < 0 {
				return nil, fmt.Errorf("%s value is not followed by %q", tag, lastEnd)
			}
			raw = line[start : start+end]
		} else {
			end := strings.Index(line[start:pos[i+2]], valueEnd)
			if end < 0 {
				return nil, fmt.Errorf("%s value is not followed by %q", tag, valueEnd)
			}
			raw = line[start : start+end]
		}

		v, err := parseVector(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", strings.TrimSuffix(tag, "("), err)
		}
		*target = v
	}

	for name, axis := range map[string]r3.Vector{"x": frame.XAxis, "y": frame.YAxis, "z": frame.ZAxis} {
		if axis.Norm() == 0 {
			return nil, fmt.Errorf("%s axis has zero length", name)
		}
	}

	x, y, z := frame.XAxis.Normalize(), frame.YAxis.Normalize(), frame.ZAxis.Normalize()
	if math.Abs(x.Dot(y.Cross(z))) < minAxisVolume {
		return nil, errors.New("axes are linearly dependent")
	}

	return frame, nil
}

func parseVector(s string) (r3.Vector, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return r3.Vector{}, fmt.Errorf("want 3 components, got %d in %q", len(parts), s)
	}

	var c [3]float64
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return r3.Vector{}, err
		}
		c[i] = f
	}
	return r3.Vector{X: c[0], Y: c[1], Z: c[2]}, nil
}
