package units

import (
	"math"
	"testing"
)

func TestFactor(t *testing.T) {
	tests := []struct {
		name    string
		want    float64
		wantErr bool
	}{
		{"mm", 0.001, false},
		{"Millimeters", 0.001, false},
		{" meters ", 1, false},
		{"Feet", 0.3048, false},
		{"inches", 0.0254, false},
		{"parsecs", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Factor(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Factor(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Factor(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestConversionFactor(t *testing.T) {
	tests := []struct {
		host float64
		want float64
	}{
		{0.001, 1},  // millimeter scene keeps THERM values
		{1, 0.001},  // meter scene
		{0.01, 0.1}, // centimeter scene
		{0.3048, 1 / 304.8},
	}

	for _, tt := range tests {
		got := ConversionFactor(tt.host)
		if math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("ConversionFactor(%v) = %v, want %v", tt.host, got, tt.want)
		}
	}
}
