package export

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"thermlink/internal/therm"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

var records = []therm.PolygonRecord{
	{ID: "1", Material: "Aluminum Alloy", Line: 6, Points: []therm.RawPoint{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}},
	{Line: 12, Points: []therm.RawPoint{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 2}, {X: 0, Y: 2}}},
}

func TestPolygonsGeoJSON(t *testing.T) {
	fc := PolygonsGeoJSON(records)
	if len(fc.Features) != 2 {
		t.Fatalf("expected 2 features, got %d", len(fc.Features))
	}

	first := fc.Features[0]
	polygon, ok := first.Geometry.(orb.Polygon)
	if !ok {
		t.Fatalf("geometry is %T, want orb.Polygon", first.Geometry)
	}
	if len(polygon[0]) != 4 || !polygon[0].Closed() {
		t.Errorf("ring = %v", polygon[0])
	}
	if first.Properties["material"] != "Aluminum Alloy" || first.Properties["id"] != "1" {
		t.Errorf("properties = %v", first.Properties)
	}
	if area := first.Properties["area_mm2"].(float64); math.Abs(area) != 50 {
		t.Errorf("area = %v, want 50", area)
	}

	second := fc.Features[1]
	if _, ok := second.Properties["id"]; ok {
		t.Error("empty id should be omitted")
	}
	if second.Properties["line"] != 12 {
		t.Errorf("line = %v", second.Properties["line"])
	}
}

func TestWritePolygonsGeoJSON(t *testing.T) {
	out := filepath.Join(t.TempDir(), "polygons.geojson")
	if err := WritePolygonsGeoJSON(records, out); err != nil {
		t.Fatalf("WritePolygonsGeoJSON failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		t.Fatalf("output is not GeoJSON: %v", err)
	}
	if len(fc.Features) != 2 {
		t.Errorf("expected 2 features, got %d", len(fc.Features))
	}
}
