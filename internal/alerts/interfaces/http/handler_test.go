package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	alertapp "farmpulse/internal/alerts/application"
	alerts "farmpulse/internal/alerts/domain"
	alertmemory "farmpulse/internal/alerts/infrastructure/memory"
	"farmpulse/internal/audit"
	catalog "farmpulse/internal/catalog/domain"
	masterdata "farmpulse/internal/masterdata/domain"
)

type memoryAuditLog struct {
	entries []audit.Entry
}

func (l *memoryAuditLog) Log(_ context.Context, entry audit.Entry) error {
	l.entries = append(l.entries, entry)
	return nil
}

func newTestHandler(t *testing.T) (*Handler, *alertapp.Ledger, *memoryAuditLog) {
	t.Helper()
	ledger, err := alertapp.NewLedger(alertmemory.NewAlertRepository())
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}
	auditLog := &memoryAuditLog{}
	handler, err := NewHandler(ledger, auditLog)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return handler, ledger, auditLog
}

func raiseTestAlert(t *testing.T, ledger *alertapp.Ledger) *alerts.Alert {
	t.Helper()
	alert, err := ledger.RaiseIfNeeded(context.Background(), alertapp.RaiseContext{
		FarmID:      "farm-1",
		ZoneID:      "zone-a",
		EquipmentID: "eq-1",
		CropID:      "crop-tomato",
		CropName:    "Tomato",
		StageName:   "Vegetative",
		ReadingType: masterdata.ReadingType{Code: "SOIL_MOISTURE", DisplayName: "Soil Moisture", Unit: "%"},
		Requirement: catalog.Requirement{
			ReadingTypeCode: "SOIL_MOISTURE",
			MinValue:        55, MaxValue: 75, OptimalMin: 60, OptimalMax: 70,
		},
	}, alerts.Classification{Status: alerts.StatusBelowMin}, 50)
	if err != nil || alert == nil {
		t.Fatalf("raise: alert=%v err=%v", alert, err)
	}
	return alert
}

func TestHandleList(t *testing.T) {
	handler, ledger, _ := newTestHandler(t)
	raiseTestAlert(t, ledger)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/alerts?zone_id=zone-a&status=open", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var list []alerts.Alert
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 1 || list[0].ZoneID != "zone-a" {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestHandleList_RequiresScope(t *testing.T) {
	handler, _, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/alerts", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without farm_id or zone_id, got %d", rec.Code)
	}
}

func TestHandleList_RejectsUnknownStatus(t *testing.T) {
	handler, _, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/alerts?zone_id=zone-a&status=closed", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad status, got %d", rec.Code)
	}
}

func TestHandleList_EmptyResultIsJSONArray(t *testing.T) {
	handler, _, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/alerts?farm_id=farm-empty", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := rec.Body.String(); body != "[]\n" {
		t.Fatalf("expected empty array, got %q", body)
	}
}

func TestHandleCount(t *testing.T) {
	handler, ledger, _ := newTestHandler(t)
	raiseTestAlert(t, ledger)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/alerts/unacked-count?farm_id=farm-1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var count map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &count); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if count["unacknowledged"] != 1 {
		t.Fatalf("expected 1, got %+v", count)
	}
}

func TestHandleAcknowledge(t *testing.T) {
	handler, ledger, auditLog := newTestHandler(t)
	raised := raiseTestAlert(t, ledger)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/alerts/"+raised.ID+"/ack", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var acked alerts.Alert
	if err := json.Unmarshal(rec.Body.Bytes(), &acked); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !acked.IsAcknowledged || acked.AcknowledgedAt.IsZero() {
		t.Fatalf("expected acknowledged alert, got %+v", acked)
	}

	if len(auditLog.entries) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(auditLog.entries))
	}
	entry := auditLog.entries[0]
	if entry.Action != "alert.acknowledge" || entry.ResourceID != raised.ID || entry.FarmID != "farm-1" {
		t.Fatalf("unexpected audit entry: %+v", entry)
	}
}

func TestHandleAcknowledge_UnknownID(t *testing.T) {
	handler, _, auditLog := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/alerts/alert-missing/ack", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if len(auditLog.entries) != 0 {
		t.Fatalf("failed ack must not be audited, got %+v", auditLog.entries)
	}
}

func TestHandleAcknowledge_GetNotAllowed(t *testing.T) {
	handler, ledger, _ := newTestHandler(t)
	raised := raiseTestAlert(t, ledger)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/alerts/"+raised.ID+"/ack", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
