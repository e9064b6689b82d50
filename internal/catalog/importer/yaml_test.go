package importer

import (
	"testing"
	"time"
)

const catalogYAML = `
crops:
  - id: crop-tomato
    name: Tomato
    seasons:
      - id: season-spring
        name: Spring
        planting_start_month: 3
        stages:
          - id: st-1
            name: Germination
            order: 1
            duration_days: 10
            requirements:
              - id: r-1
                reading_type: SOIL_MOISTURE
                min: 55
                max: 75
                optimal_min: 60
                optimal_max: 70
          - id: st-2
            name: Vegetative
            order: 2
            duration_days: 30
  - id: crop-broken
    name: Broken
    seasons:
      - id: season-bad
        stages:
          - id: st-x
            name: OutOfOrder
            order: 5
            duration_days: 10
`

func TestParseCatalogYAML(t *testing.T) {
	crops, problems, err := ParseCatalogYAML([]byte(catalogYAML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	// The invalid crop is reported and skipped, the valid one survives.
	if len(problems) != 1 {
		t.Fatalf("expected 1 problem, got %d: %v", len(problems), problems)
	}
	if len(crops) != 1 {
		t.Fatalf("expected 1 crop, got %d", len(crops))
	}

	crop := crops[0]
	if crop.ID != "crop-tomato" {
		t.Fatalf("expected crop-tomato, got %s", crop.ID)
	}
	if len(crop.Seasons) != 1 || crop.Seasons[0].PlantingStartMonth != time.March {
		t.Fatalf("unexpected seasons: %+v", crop.Seasons)
	}
	stages := crop.Seasons[0].Stages
	if len(stages) != 2 {
		t.Fatalf("expected 2 stages, got %d", len(stages))
	}
	req := stages[0].RequirementFor("SOIL_MOISTURE")
	if req == nil || req.MinValue != 55 || req.OptimalMax != 70 {
		t.Fatalf("unexpected requirement: %+v", req)
	}
}

func TestParseCatalogYAML_BadDocument(t *testing.T) {
	if _, _, err := ParseCatalogYAML([]byte("crops: [")); err == nil {
		t.Fatal("expected yaml error")
	}
}
