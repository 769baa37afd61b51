package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"thermlink/internal/config"
	"thermlink/internal/export"
	"thermlink/internal/importer"
	"thermlink/internal/reconcile"

	flag "github.com/spf13/pflag"
)

func main() {
	// Define command line flags; unset flags fall back to .env.<APP_ENV> and the environment
	flag.String("unit-system", "meters", "Unit system of the target scene (mm, cm, m, in, ft, ...)")
	flag.Float64("tolerance", 0.001, "Absolute model tolerance in scene units")
	flag.String("reference-origin", "", "Point x,y,z the imported geometry is anchored to (default: header origin)")
	flag.String("failure-policy", "abort", "What to do with polygons that cannot become faces: abort or skip")
	outputFile := flag.String("out", "", "Output JSON file (default: stdout)")
	geojsonFile := flag.String("geojson", "", "Also write the source polygons as GeoJSON to this file")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <file.xml>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	inputFile := flag.Arg(0)

	cfg, err := config.LoadConfig(flag.CommandLine)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	policy, err := reconcile.ParseFailurePolicy(cfg.FailurePolicy)
	if err != nil {
		log.Fatalf("Invalid failure policy: %v", err)
	}

	imp := importer.New(importer.ConfigEnvironment{Config: cfg}, policy)
	result, advisories, err := imp.ImportFile(inputFile)
	if errors.Is(err, importer.ErrNoResult) {
		for _, a := range advisories {
			fmt.Fprintln(os.Stderr, a.Message)
		}
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("Import of %s failed: %v", inputFile, err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode result: %v", err)
	}

	if *outputFile == "" {
		os.Stdout.Write(data)
		os.Stdout.Write([]byte("\n"))
	} else {
		if err := os.WriteFile(*outputFile, data, 0644); err != nil {
			log.Fatalf("Failed to write %s: %v", *outputFile, err)
		}
		log.Printf("Wrote %d faces to %s", len(result.Faces), *outputFile)
	}

	if *geojsonFile != "" {
		if err := export.WritePolygonsGeoJSON(result.Polygons, *geojsonFile); err != nil {
			log.Fatalf("Failed to write GeoJSON: %v", err)
		}
		log.Printf("Wrote %d polygons to %s", len(result.Polygons), *geojsonFile)
	}
}
