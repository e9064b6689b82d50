package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	evalapp "farmpulse/internal/evaluation/application"
)

// Handler exposes the manual evaluation trigger.
type Handler struct {
	scheduler *evalapp.Scheduler
}

// NewHandler constructs a handler.
func NewHandler(scheduler *evalapp.Scheduler) (*Handler, error) {
	if scheduler == nil {
		return nil, errors.New("evaluation handler: nil scheduler")
	}
	return &Handler{scheduler: scheduler}, nil
}

// ServeHTTP handles POST /api/v1/evaluation/run.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	summary, err := h.scheduler.RunNow(r.Context(), time.Now().UTC())
	if err != nil {
		if errors.Is(err, evalapp.ErrTickInProgress) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(summary)
}
