package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	alertapp "farmpulse/internal/alerts/application"
	alertmemory "farmpulse/internal/alerts/infrastructure/memory"
	catalogmemory "farmpulse/internal/catalog/infrastructure/memory"
	cropstagememory "farmpulse/internal/cropstage/infrastructure/memory"
	evalapp "farmpulse/internal/evaluation/application"
	mdmemory "farmpulse/internal/masterdata/infrastructure/memory"
	readingmemory "farmpulse/internal/readings/infrastructure/memory"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()

	store := mdmemory.NewStore()
	ledger, err := alertapp.NewLedger(alertmemory.NewAlertRepository())
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}
	engine, err := evalapp.NewEngine(store, store.Equipment(), store.ReadingTypes(),
		catalogmemory.NewCropRepository(), cropstagememory.NewZoneCropRepository(),
		readingmemory.NewReadingRepository(), ledger, []string{"farm-1"})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	scheduler, err := evalapp.NewScheduler(engine, time.Minute, nil)
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	handler, err := NewHandler(scheduler)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return handler
}

func TestManualRun(t *testing.T) {
	handler := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/evaluation/run", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var summary evalapp.TickSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if summary.Evaluated != 0 || summary.AlertsRaised != 0 {
		t.Fatalf("expected empty summary for empty farm, got %+v", summary)
	}
}

func TestManualRun_GetNotAllowed(t *testing.T) {
	handler := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/evaluation/run", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
