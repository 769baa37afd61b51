package therm

import "fmt"

// AdvisoryKind classifies a non-fatal condition.
type AdvisoryKind int

const (
	AdvisoryMissingFile AdvisoryKind = iota
	AdvisoryMissingTransform
	AdvisoryDuplicateTransform
	AdvisoryPolygonSkipped
	AdvisoryUnknownUnits
)

var advisoryKindNames = map[AdvisoryKind]string{
	AdvisoryMissingFile:        "missing_file",
	AdvisoryMissingTransform:   "missing_transform",
	AdvisoryDuplicateTransform: "duplicate_transform",
	AdvisoryPolygonSkipped:     "polygon_skipped",
	AdvisoryUnknownUnits:       "unknown_units",
}

func (k AdvisoryKind) String() string {
	if name, ok := advisoryKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("advisory(%d)", int(k))
}

// MarshalText renders the kind by name in JSON output.
func (k AdvisoryKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (k *AdvisoryKind) UnmarshalText(text []byte) error {
	for kind, name := range advisoryKindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown advisory kind %q", text)
}

// Advisory is a warning-level condition reported next to a usable result.
type Advisory struct {
	Kind    AdvisoryKind `json:"kind"`
	Line    int          `json:"line,omitempty"`
	Message string       `json:"message"`
}

func (a Advisory) String() string {
	if a.Line > 0 {
		return fmt.Sprintf("%s (line %d): %s", a.Kind, a.Line, a.Message)
	}
	return fmt.Sprintf("%s: %s", a.Kind, a.Message)
}
