package application

import (
	"context"
	"testing"
	"time"

	alertapp "farmpulse/internal/alerts/application"
	alerts "farmpulse/internal/alerts/domain"
	alertmemory "farmpulse/internal/alerts/infrastructure/memory"
	catalog "farmpulse/internal/catalog/domain"
	catalogmemory "farmpulse/internal/catalog/infrastructure/memory"
	cropstage "farmpulse/internal/cropstage/domain"
	cropstagememory "farmpulse/internal/cropstage/infrastructure/memory"
	masterdata "farmpulse/internal/masterdata/domain"
	mdmemory "farmpulse/internal/masterdata/infrastructure/memory"
	readings "farmpulse/internal/readings/domain"
	readingmemory "farmpulse/internal/readings/infrastructure/memory"
)

type engineFixture struct {
	store     *mdmemory.Store
	crops     *catalogmemory.CropRepository
	zoneCrops *cropstagememory.ZoneCropRepository
	readings  *readingmemory.ReadingRepository
	ledger    *alertapp.Ledger
	engine    *Engine
}

// asOf is 15 days after planting: five days into the Vegetative stage.
var (
	plantedAt = time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	asOf      = time.Date(2026, 4, 16, 8, 0, 0, 0, time.UTC)
)

func tomatoCrop() catalog.Crop {
	return catalog.Crop{
		ID:   "crop-tomato",
		Name: "Tomato",
		Seasons: []catalog.Season{
			{
				ID:                 "season-spring",
				CropID:             "crop-tomato",
				Name:               "Spring",
				PlantingStartMonth: time.March,
				Stages: []catalog.GrowthStage{
					{ID: "st-germ", SeasonID: "season-spring", Name: "Germination", Order: 1, DurationDays: 10,
						Requirements: []catalog.Requirement{
							{ID: "r-1", StageID: "st-germ", ReadingTypeCode: "SOIL_MOISTURE", MinValue: 55, MaxValue: 75, OptimalMin: 60, OptimalMax: 70},
						}},
					{ID: "st-veg", SeasonID: "season-spring", Name: "Vegetative", Order: 2, DurationDays: 30,
						Requirements: []catalog.Requirement{
							{ID: "r-2", StageID: "st-veg", ReadingTypeCode: "SOIL_MOISTURE", MinValue: 60, MaxValue: 80, OptimalMin: 65, OptimalMax: 75},
						}},
				},
			},
		},
	}
}

func newEngineFixture(t *testing.T, opts ...EngineOption) *engineFixture {
	t.Helper()

	store := mdmemory.NewStore()
	mustPut := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("seed masterdata: %v", err)
		}
	}
	mustPut(store.PutZone(masterdata.Zone{ID: "zone-a", FarmID: "farm-1", Name: "Greenhouse A"}))
	mustPut(store.PutReadingType(masterdata.ReadingType{Code: "SOIL_MOISTURE", DisplayName: "Soil Moisture", Unit: "%"}))
	mustPut(store.PutEquipment(masterdata.Equipment{
		ID: "eq-1", ZoneID: "zone-a", ReadingTypeCode: "SOIL_MOISTURE", Status: masterdata.EquipmentActive,
	}))

	crops := catalogmemory.NewCropRepository()
	if err := crops.Put(tomatoCrop()); err != nil {
		t.Fatalf("seed crop: %v", err)
	}

	zoneCrops := cropstagememory.NewZoneCropRepository()
	readingRepo := readingmemory.NewReadingRepository()

	ledger, err := alertapp.NewLedger(alertmemory.NewAlertRepository())
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}

	engine, err := NewEngine(store, store.Equipment(), store.ReadingTypes(),
		crops, zoneCrops, readingRepo, ledger, []string{"farm-1"}, opts...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	return &engineFixture{
		store:     store,
		crops:     crops,
		zoneCrops: zoneCrops,
		readings:  readingRepo,
		ledger:    ledger,
		engine:    engine,
	}
}

func (f *engineFixture) plantTomato(t *testing.T) {
	t.Helper()
	zc := &cropstage.ZoneCrop{
		ID:        "zc-1",
		ZoneID:    "zone-a",
		CropID:    "crop-tomato",
		PlantedAt: plantedAt,
		IsActive:  true,
	}
	if err := f.zoneCrops.Save(context.Background(), zc); err != nil {
		t.Fatalf("plant: %v", err)
	}
}

func (f *engineFixture) insertReading(t *testing.T, equipmentID string, value float64, at time.Time) {
	t.Helper()
	err := f.readings.Insert(context.Background(), []readings.SensorReading{
		{ID: "rd-" + equipmentID + at.Format("150405"), EquipmentID: equipmentID, Value: value, Timestamp: at},
	})
	if err != nil {
		t.Fatalf("insert reading: %v", err)
	}
}

func TestTick_RaisesOnBreach(t *testing.T) {
	f := newEngineFixture(t)
	f.plantTomato(t)
	f.insertReading(t, "eq-1", 50, asOf.Add(-time.Minute))

	summary, err := f.engine.Tick(context.Background(), asOf)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if summary.Evaluated != 1 || summary.AlertsRaised != 1 || summary.Skipped != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	open, err := f.ledger.ListByZone(context.Background(), "zone-a", alerts.FilterOpen)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(open) != 1 {
		t.Fatalf("expected one open alert, got %d", len(open))
	}
	alert := open[0]
	if alert.ThresholdType != alerts.ThresholdBelowMin {
		t.Fatalf("expected BelowMin, got %s", alert.ThresholdType)
	}
	// The Vegetative band applies 15 days in, not Germination's.
	if alert.StageName != "Vegetative" {
		t.Fatalf("expected stage Vegetative, got %s", alert.StageName)
	}
	if alert.Severity != alerts.SeverityCritical {
		t.Fatalf("overshoot 10 on width 20: expected Critical, got %s", alert.Severity)
	}
}

func TestTick_RepeatDoesNotDuplicate(t *testing.T) {
	f := newEngineFixture(t)
	f.plantTomato(t)
	f.insertReading(t, "eq-1", 50, asOf.Add(-time.Minute))

	if _, err := f.engine.Tick(context.Background(), asOf); err != nil {
		t.Fatalf("first tick: %v", err)
	}
	summary, err := f.engine.Tick(context.Background(), asOf.Add(5*time.Minute))
	if err != nil {
		t.Fatalf("second tick: %v", err)
	}
	if summary.Evaluated != 1 || summary.AlertsRaised != 0 {
		t.Fatalf("expected evaluated without a new alert, got %+v", summary)
	}

	open, err := f.ledger.ListByZone(context.Background(), "zone-a", alerts.FilterOpen)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(open) != 1 {
		t.Fatalf("expected exactly one open alert, got %d", len(open))
	}
}

func TestTick_InBandValueRaisesNothing(t *testing.T) {
	f := newEngineFixture(t)
	f.plantTomato(t)
	f.insertReading(t, "eq-1", 68, asOf.Add(-time.Minute))

	summary, err := f.engine.Tick(context.Background(), asOf)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if summary.Evaluated != 1 || summary.AlertsRaised != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestTick_UsesTimeDerivedStageNotCheckpoint(t *testing.T) {
	f := newEngineFixture(t)
	// Checkpoint pins the crop on Germination, but 15 days of elapsed
	// time put it in Vegetative; evaluation follows the elapsed time.
	zc := &cropstage.ZoneCrop{
		ID:             "zc-1",
		ZoneID:         "zone-a",
		CropID:         "crop-tomato",
		PlantedAt:      plantedAt,
		CurrentStageID: "st-germ",
		IsActive:       true,
	}
	if err := f.zoneCrops.Save(context.Background(), zc); err != nil {
		t.Fatalf("plant: %v", err)
	}
	// 58 breaches Vegetative (min 60) but sits inside Germination (55-75).
	f.insertReading(t, "eq-1", 58, asOf.Add(-time.Minute))

	summary, err := f.engine.Tick(context.Background(), asOf)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if summary.AlertsRaised != 1 {
		t.Fatalf("expected a raise against the time-derived stage, got %+v", summary)
	}
}

func TestTick_SkipReasons(t *testing.T) {
	t.Run("inactive equipment", func(t *testing.T) {
		f := newEngineFixture(t)
		f.plantTomato(t)
		if err := f.store.PutEquipment(masterdata.Equipment{
			ID: "eq-1", ZoneID: "zone-a", ReadingTypeCode: "SOIL_MOISTURE", Status: masterdata.EquipmentInactive,
		}); err != nil {
			t.Fatalf("put equipment: %v", err)
		}
		f.insertReading(t, "eq-1", 50, asOf.Add(-time.Minute))

		summary, err := f.engine.Tick(context.Background(), asOf)
		if err != nil {
			t.Fatalf("tick: %v", err)
		}
		if summary.Evaluated != 0 || summary.Skipped != 1 {
			t.Fatalf("unexpected summary: %+v", summary)
		}
	})

	t.Run("no active crop", func(t *testing.T) {
		f := newEngineFixture(t)
		f.insertReading(t, "eq-1", 50, asOf.Add(-time.Minute))

		summary, err := f.engine.Tick(context.Background(), asOf)
		if err != nil {
			t.Fatalf("tick: %v", err)
		}
		if summary.Evaluated != 0 || summary.Skipped != 1 || summary.AlertsRaised != 0 {
			t.Fatalf("unexpected summary: %+v", summary)
		}
	})

	t.Run("no reading", func(t *testing.T) {
		f := newEngineFixture(t)
		f.plantTomato(t)

		summary, err := f.engine.Tick(context.Background(), asOf)
		if err != nil {
			t.Fatalf("tick: %v", err)
		}
		if summary.Evaluated != 0 || summary.Skipped != 1 {
			t.Fatalf("unexpected summary: %+v", summary)
		}
	})

	t.Run("no requirement for reading type", func(t *testing.T) {
		f := newEngineFixture(t)
		f.plantTomato(t)
		if err := f.store.PutEquipment(masterdata.Equipment{
			ID: "eq-1", ZoneID: "zone-a", ReadingTypeCode: "TEMPERATURE", Status: masterdata.EquipmentActive,
		}); err != nil {
			t.Fatalf("put equipment: %v", err)
		}
		f.insertReading(t, "eq-1", 3, asOf.Add(-time.Minute))

		summary, err := f.engine.Tick(context.Background(), asOf)
		if err != nil {
			t.Fatalf("tick: %v", err)
		}
		if summary.Evaluated != 0 || summary.Skipped != 1 || summary.AlertsRaised != 0 {
			t.Fatalf("unexpected summary: %+v", summary)
		}
	})

	t.Run("stale reading", func(t *testing.T) {
		f := newEngineFixture(t, WithMaxReadingAge(time.Hour))
		f.plantTomato(t)
		f.insertReading(t, "eq-1", 50, asOf.Add(-2*time.Hour))

		summary, err := f.engine.Tick(context.Background(), asOf)
		if err != nil {
			t.Fatalf("tick: %v", err)
		}
		if summary.Evaluated != 0 || summary.Skipped != 1 {
			t.Fatalf("unexpected summary: %+v", summary)
		}
	})
}

func TestEvaluateEquipment(t *testing.T) {
	f := newEngineFixture(t)
	f.plantTomato(t)
	f.insertReading(t, "eq-1", 50, asOf.Add(-time.Minute))

	alert, err := f.engine.EvaluateEquipment(context.Background(), "eq-1", asOf)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if alert == nil {
		t.Fatal("expected an alert")
	}
	if alert.EquipmentID != "eq-1" || alert.ZoneID != "zone-a" {
		t.Fatalf("unexpected alert: %+v", alert)
	}

	// A second pass over the same breach dedups.
	again, err := f.engine.EvaluateEquipment(context.Background(), "eq-1", asOf)
	if err != nil {
		t.Fatalf("re-evaluate: %v", err)
	}
	if again != nil {
		t.Fatalf("expected dedup, got %+v", again)
	}
}

func TestEvaluateEquipment_UnknownUnit(t *testing.T) {
	f := newEngineFixture(t)

	if _, err := f.engine.EvaluateEquipment(context.Background(), "eq-missing", asOf); err == nil {
		t.Fatal("expected error for unknown equipment")
	}
}
