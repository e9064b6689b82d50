package importer

import (
	"testing"

	masterdata "farmpulse/internal/masterdata/domain"
)

const masterdataYAML = `
farms:
  - id: farm-1
    name: Riverside
    code: RVS
zones:
  - id: zone-a
    farm_id: farm-1
    name: Greenhouse A
    area_sqm: 250
  - id: zone-broken
    name: No Farm
equipment:
  - id: eq-1
    zone_id: zone-a
    reading_type: SOIL_MOISTURE
    model: SM-100
  - id: eq-2
    zone_id: zone-a
    reading_type: TEMPERATURE
    status: Fault
reading_types:
  - code: SOIL_MOISTURE
    display_name: Soil Moisture
    unit: "%"
`

func TestParseMasterdataYAML(t *testing.T) {
	seed, problems, err := ParseMasterdataYAML([]byte(masterdataYAML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	// The zone without a farm is skipped; everything else loads.
	if len(problems) != 1 {
		t.Fatalf("expected 1 problem, got %d: %v", len(problems), problems)
	}
	if len(seed.Farms) != 1 || seed.Farms[0].ID != "farm-1" {
		t.Fatalf("unexpected farms: %+v", seed.Farms)
	}
	if len(seed.Zones) != 1 || seed.Zones[0].ID != "zone-a" {
		t.Fatalf("unexpected zones: %+v", seed.Zones)
	}
	if len(seed.Equipment) != 2 {
		t.Fatalf("expected 2 equipment units, got %d", len(seed.Equipment))
	}
	// Omitted status defaults to Active; explicit status survives.
	if seed.Equipment[0].Status != masterdata.EquipmentActive {
		t.Fatalf("expected default Active status, got %s", seed.Equipment[0].Status)
	}
	if seed.Equipment[1].Status != masterdata.EquipmentFault {
		t.Fatalf("expected Fault status, got %s", seed.Equipment[1].Status)
	}
	if len(seed.ReadingTypes) != 1 || seed.ReadingTypes[0].Code != "SOIL_MOISTURE" {
		t.Fatalf("unexpected reading types: %+v", seed.ReadingTypes)
	}
}

func TestParseMasterdataYAML_BadDocument(t *testing.T) {
	if _, _, err := ParseMasterdataYAML([]byte("zones: {")); err == nil {
		t.Fatal("expected yaml error")
	}
}
