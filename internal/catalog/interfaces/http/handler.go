package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	catalog "farmpulse/internal/catalog/domain"
)

// Handler exposes the crop catalog read API.
type Handler struct {
	crops catalog.CropRepository
}

// NewHandler constructs a handler.
func NewHandler(crops catalog.CropRepository) (*Handler, error) {
	if crops == nil {
		return nil, errors.New("catalog handler: nil crop repository")
	}
	return &Handler{crops: crops}, nil
}

// ServeHTTP handles GET /api/v1/crops and GET /api/v1/crops/{id}.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	switch {
	case r.URL.Path == "/api/v1/crops":
		list, err := h.crops.List(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if list == nil {
			list = []catalog.Crop{}
		}
		writeJSON(w, list)
	case strings.HasPrefix(r.URL.Path, "/api/v1/crops/"):
		id := strings.TrimPrefix(r.URL.Path, "/api/v1/crops/")
		crop, err := h.crops.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				http.Error(w, "crop not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, crop)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func writeJSON(w http.ResponseWriter, value any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(value)
}
