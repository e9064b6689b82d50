package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"farmpulse/internal/auth"
	catalog "farmpulse/internal/catalog/domain"
	cropapp "farmpulse/internal/cropstage/application"
	cropstage "farmpulse/internal/cropstage/domain"
)

// Handler exposes zone crop lifecycle and progress endpoints.
type Handler struct {
	service *cropapp.ProgressService
	farms   auth.ZoneFarmChecker
}

// NewHandler constructs a handler. farms may be nil to skip ownership
// checks (local mode, tests).
func NewHandler(service *cropapp.ProgressService, farms auth.ZoneFarmChecker) (*Handler, error) {
	if service == nil {
		return nil, errors.New("cropstage handler: nil service")
	}
	return &Handler{service: service, farms: farms}, nil
}

// ServeHTTP routes /api/v1/zones/{id}/... and /api/v1/zone-crops/{id}/...
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case strings.HasPrefix(r.URL.Path, "/api/v1/zones/"):
		h.handleZone(w, r)
	case strings.HasPrefix(r.URL.Path, "/api/v1/zone-crops/"):
		h.handleZoneCrop(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleZone(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/v1/zones/"), "/")
	if len(parts) != 2 || parts[0] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	zoneID, action := parts[0], parts[1]

	switch {
	case action == "progress" && r.Method == http.MethodGet:
		report, err := h.service.ZoneProgress(r.Context(), zoneID, time.Time{})
		if err != nil {
			h.writeError(w, err)
			return
		}
		writeJSON(w, toProgressResponse(report))
	case action == "crops" && r.Method == http.MethodGet:
		history, err := h.service.History(r.Context(), zoneID)
		if err != nil {
			h.writeError(w, err)
			return
		}
		if history == nil {
			history = []cropstage.ZoneCrop{}
		}
		writeJSON(w, history)
	case action == "crop" && r.Method == http.MethodPost:
		var body struct {
			CropID    string    `json:"crop_id"`
			PlantedAt time.Time `json:"planted_at"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}
		if err := h.checkZoneOwnership(r, zoneID); err != nil {
			h.writeOwnershipError(w, err)
			return
		}
		zc, err := h.service.AssignCrop(r.Context(), zoneID, body.CropID, body.PlantedAt)
		if err != nil {
			h.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, zc)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleZoneCrop(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/v1/zone-crops/"), "/")
	if len(parts) != 2 || parts[0] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	zoneCropID, action := parts[0], parts[1]

	switch {
	case action == "progress" && r.Method == http.MethodGet:
		report, err := h.service.Progress(r.Context(), zoneCropID, time.Time{})
		if err != nil {
			h.writeError(w, err)
			return
		}
		writeJSON(w, toProgressResponse(report))
	case action == "harvest" && r.Method == http.MethodPost:
		var body struct {
			HarvestedAt time.Time `json:"harvested_at"`
			YieldKg     float64   `json:"yield_kg"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}
		zc, err := h.service.Harvest(r.Context(), zoneCropID, body.HarvestedAt, body.YieldKg)
		if err != nil {
			h.writeError(w, err)
			return
		}
		writeJSON(w, zc)
	case action == "stage" && r.Method == http.MethodPost:
		var body struct {
			StageID string `json:"stage_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}
		zc, err := h.service.CheckpointStage(r.Context(), zoneCropID, body.StageID)
		if err != nil {
			h.writeError(w, err)
			return
		}
		writeJSON(w, zc)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

type progressResponse struct {
	ZoneCrop        cropstage.ZoneCrop   `json:"zone_crop"`
	CropName        string               `json:"crop_name"`
	Stage           *catalog.GrowthStage `json:"stage,omitempty"`
	NextStage       *catalog.GrowthStage `json:"next_stage,omitempty"`
	DayInStage      int                  `json:"day_in_stage"`
	ProgressPercent float64              `json:"progress_percent"`
	Overdue         bool                 `json:"overdue"`
}

func toProgressResponse(report *cropapp.ProgressReport) progressResponse {
	return progressResponse{
		ZoneCrop:        report.ZoneCrop,
		CropName:        report.Crop.Name,
		Stage:           report.Stage,
		NextStage:       report.NextStage,
		DayInStage:      report.DayInStage,
		ProgressPercent: report.ProgressPercent,
		Overdue:         report.Overdue,
	}
}

func (h *Handler) checkZoneOwnership(r *http.Request, zoneID string) error {
	if h.farms == nil {
		return nil
	}
	return h.farms.EnsureZoneFarm(r.Context(), auth.FarmIDFromContext(r.Context()), zoneID)
}

func (h *Handler) writeOwnershipError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrNotFound):
		http.Error(w, "zone not found", http.StatusNotFound)
	case errors.Is(err, auth.ErrFarmMismatch):
		http.Error(w, "zone belongs to another farm", http.StatusForbidden)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cropstage.ErrNotFound), errors.Is(err, catalog.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
}

func writeJSON(w http.ResponseWriter, value any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(value)
}
