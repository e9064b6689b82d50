package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"farmpulse/internal/auth"
	catalog "farmpulse/internal/catalog/domain"
	catalogmemory "farmpulse/internal/catalog/infrastructure/memory"
	cropapp "farmpulse/internal/cropstage/application"
	cropstage "farmpulse/internal/cropstage/domain"
	cropstagememory "farmpulse/internal/cropstage/infrastructure/memory"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()

	crops := catalogmemory.NewCropRepository()
	err := crops.Put(catalog.Crop{
		ID:   "crop-tomato",
		Name: "Tomato",
		Seasons: []catalog.Season{
			{
				ID:                 "season-spring",
				CropID:             "crop-tomato",
				Name:               "Spring",
				PlantingStartMonth: time.March,
				Stages: []catalog.GrowthStage{
					{ID: "st-germ", SeasonID: "season-spring", Name: "Germination", Order: 1, DurationDays: 10},
					{ID: "st-veg", SeasonID: "season-spring", Name: "Vegetative", Order: 2, DurationDays: 30},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("seed crop: %v", err)
	}

	service, err := cropapp.NewProgressService(cropstagememory.NewZoneCropRepository(), crops, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	handler, err := NewHandler(service, nil)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return handler
}

type denyChecker struct {
	err error
}

func (c denyChecker) EnsureZoneFarm(_ context.Context, _, _ string) error { return c.err }

func do(handler *Handler, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	handler.ServeHTTP(rec, httptest.NewRequest(method, path, reader))
	return rec
}

func assignTestCrop(t *testing.T, handler *Handler) cropstage.ZoneCrop {
	t.Helper()
	rec := do(handler, http.MethodPost, "/api/v1/zones/zone-a/crop",
		`{"crop_id":"crop-tomato","planted_at":"2026-04-01T00:00:00Z"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var zc cropstage.ZoneCrop
	if err := json.Unmarshal(rec.Body.Bytes(), &zc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return zc
}

func TestAssignCropEndpoint(t *testing.T) {
	handler := newTestHandler(t)

	zc := assignTestCrop(t, handler)
	if zc.ZoneID != "zone-a" || zc.CropID != "crop-tomato" || !zc.IsActive {
		t.Fatalf("unexpected zone crop: %+v", zc)
	}
}

func TestAssignCropEndpoint_FarmMismatch(t *testing.T) {
	handler := newTestHandler(t)
	handler.farms = denyChecker{err: auth.ErrFarmMismatch}

	rec := do(handler, http.MethodPost, "/api/v1/zones/zone-a/crop",
		`{"crop_id":"crop-tomato","planted_at":"2026-04-01T00:00:00Z"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestAssignCropEndpoint_UnknownCrop(t *testing.T) {
	handler := newTestHandler(t)

	rec := do(handler, http.MethodPost, "/api/v1/zones/zone-a/crop", `{"crop_id":"crop-ghost"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestZoneProgressEndpoint(t *testing.T) {
	handler := newTestHandler(t)
	assignTestCrop(t, handler)

	rec := do(handler, http.MethodGet, "/api/v1/zones/zone-a/progress", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp progressResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.CropName != "Tomato" || resp.Stage == nil {
		t.Fatalf("unexpected progress: %+v", resp)
	}
}

func TestZoneProgressEndpoint_NoActiveCrop(t *testing.T) {
	handler := newTestHandler(t)

	rec := do(handler, http.MethodGet, "/api/v1/zones/zone-empty/progress", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestZoneCropsEndpoint_EmptyHistoryIsJSONArray(t *testing.T) {
	handler := newTestHandler(t)

	rec := do(handler, http.MethodGet, "/api/v1/zones/zone-empty/crops", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := rec.Body.String(); body != "[]\n" {
		t.Fatalf("expected empty array, got %q", body)
	}
}

func TestHarvestEndpoint(t *testing.T) {
	handler := newTestHandler(t)
	zc := assignTestCrop(t, handler)

	rec := do(handler, http.MethodPost, "/api/v1/zone-crops/"+zc.ID+"/harvest",
		`{"harvested_at":"2026-06-01T00:00:00Z","yield_kg":42.5}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var harvested cropstage.ZoneCrop
	if err := json.Unmarshal(rec.Body.Bytes(), &harvested); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if harvested.IsActive || harvested.YieldWeightKg != 42.5 {
		t.Fatalf("unexpected harvest: %+v", harvested)
	}
}

func TestStageCheckpointEndpoint(t *testing.T) {
	handler := newTestHandler(t)
	zc := assignTestCrop(t, handler)

	rec := do(handler, http.MethodPost, "/api/v1/zone-crops/"+zc.ID+"/stage", `{"stage_id":"st-veg"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(handler, http.MethodPost, "/api/v1/zone-crops/"+zc.ID+"/stage", `{"stage_id":"st-ghost"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown stage, got %d", rec.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	handler := newTestHandler(t)

	rec := do(handler, http.MethodGet, "/api/v1/zones/zone-a", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
