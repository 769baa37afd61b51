// Package export writes THERM polygons as GeoJSON in THERM coordinates.
package export

import (
	"encoding/json"
	"log"
	"os"

	"thermlink/internal/therm"
	"thermlink/internal/util"

	"github.com/paulmach/orb/geojson"
)

// PolygonsGeoJSON builds a feature collection with one feature per polygon.
// Coordinates stay in THERM millimeters.
func PolygonsGeoJSON(records []therm.PolygonRecord) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for i, rec := range records {
		polygon := rec.Polygon()
		feature := geojson.NewFeature(polygon)

		feature.Properties["index"] = i
		feature.Properties["line"] = rec.Line
		if rec.ID != "" {
			feature.Properties["id"] = rec.ID
		}
		if rec.Material != "" {
			feature.Properties["material"] = rec.Material
		}
		feature.Properties["area_mm2"] = util.PolygonArea(polygon)

		fc.Append(feature)
	}

	return fc
}

// WritePolygonsGeoJSON writes PolygonsGeoJSON to outputFile.
func WritePolygonsGeoJSON(records []therm.PolygonRecord, outputFile string) error {
	log.Printf("Exporting %d polygons to GeoJSON file: %s", len(records), outputFile)

	jsonData, err := json.MarshalIndent(PolygonsGeoJSON(records), "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(outputFile, jsonData, 0644); err != nil {
		return err
	}

	log.Printf("Successfully exported polygons to %s", outputFile)
	return nil
}
