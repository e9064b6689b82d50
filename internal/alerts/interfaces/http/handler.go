package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	alertapp "farmpulse/internal/alerts/application"
	alerts "farmpulse/internal/alerts/domain"
	"farmpulse/internal/audit"
	"farmpulse/internal/auth"
)

// Handler provides alert HTTP endpoints.
type Handler struct {
	ledger   *alertapp.Ledger
	auditLog audit.Logger
}

// NewHandler constructs a handler. auditLog may be nil.
func NewHandler(ledger *alertapp.Ledger, auditLog audit.Logger) (*Handler, error) {
	if ledger == nil {
		return nil, errors.New("alerts handler: nil ledger")
	}
	return &Handler{ledger: ledger, auditLog: auditLog}, nil
}

// ServeHTTP handles /api/v1/alerts and subroutes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/v1/alerts":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleList(w, r)
	case r.URL.Path == "/api/v1/alerts/unacked-count":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleCount(w, r)
	case strings.HasPrefix(r.URL.Path, "/api/v1/alerts/"):
		h.handleAction(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	farmID := r.URL.Query().Get("farm_id")
	zoneID := r.URL.Query().Get("zone_id")
	filter := r.URL.Query().Get("status")
	switch filter {
	case alerts.FilterAll, alerts.FilterOpen, alerts.FilterAcknowledged:
	default:
		http.Error(w, "status must be open or acknowledged", http.StatusBadRequest)
		return
	}

	var (
		list []alerts.Alert
		err  error
	)
	switch {
	case zoneID != "":
		list, err = h.ledger.ListByZone(r.Context(), zoneID, filter)
	case farmID != "":
		list, err = h.ledger.ListByFarm(r.Context(), farmID, filter)
	default:
		http.Error(w, "farm_id or zone_id is required", http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []alerts.Alert{}
	}
	writeJSON(w, list)
}

func (h *Handler) handleCount(w http.ResponseWriter, r *http.Request) {
	farmID := r.URL.Query().Get("farm_id")
	zoneID := r.URL.Query().Get("zone_id")

	var (
		count int
		err   error
	)
	switch {
	case zoneID != "":
		count, err = h.ledger.UnacknowledgedCountByZone(r.Context(), zoneID)
	case farmID != "":
		count, err = h.ledger.UnacknowledgedCountByFarm(r.Context(), farmID)
	default:
		http.Error(w, "farm_id or zone_id is required", http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]int{"unacknowledged": count})
}

func (h *Handler) handleAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/alerts/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[1] != "ack" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	alert, err := h.ledger.Acknowledge(r.Context(), parts[0])
	if err != nil {
		if errors.Is(err, alerts.ErrNotFound) {
			http.Error(w, "alert not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.audit(r, alert)
	writeJSON(w, alert)
}

func (h *Handler) audit(r *http.Request, alert *alerts.Alert) {
	if h.auditLog == nil || alert == nil {
		return
	}
	ctx := r.Context()
	_ = h.auditLog.Log(ctx, audit.Entry{
		FarmID:       alert.FarmID,
		Actor:        auth.SubjectFromContext(ctx),
		Role:         string(auth.RoleFromContext(ctx)),
		Action:       "alert.acknowledge",
		ResourceType: "alert",
		ResourceID:   alert.ID,
		IP:           r.RemoteAddr,
		UserAgent:    r.UserAgent(),
	})
}

func writeJSON(w http.ResponseWriter, value any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(value)
}
