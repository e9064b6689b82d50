package ingest

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	masterdata "farmpulse/internal/masterdata/domain"
	"farmpulse/internal/observability/metrics"
	"farmpulse/internal/readings/application/events"
	readings "farmpulse/internal/readings/domain"
)

// Publisher publishes events to the in-process bus.
type Publisher interface {
	Publish(ctx context.Context, event any) error
}

// Handler accepts sensor reading batches over HTTP.
type Handler struct {
	repo      readings.ReadingRepository
	equipment masterdata.EquipmentRepository
	zones     masterdata.ZoneRepository
	publisher Publisher
	logger    *log.Logger
}

// NewHandler constructs an ingest handler.
func NewHandler(repo readings.ReadingRepository, equipment masterdata.EquipmentRepository, zones masterdata.ZoneRepository, publisher Publisher, logger *log.Logger) (*Handler, error) {
	if repo == nil {
		return nil, errors.New("ingest: nil reading repository")
	}
	if equipment == nil {
		return nil, errors.New("ingest: nil equipment repository")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{repo: repo, equipment: equipment, zones: zones, publisher: publisher, logger: logger}, nil
}

type ingestReading struct {
	EquipmentID string    `json:"equipment_id"`
	Value       float64   `json:"value"`
	Timestamp   time.Time `json:"timestamp"`
}

type ingestRequest struct {
	Readings []ingestReading `json:"readings"`
}

// ServeHTTP ingests a reading batch.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	result := metrics.IngestResultSuccess
	defer func() {
		metrics.ObserveIngest(result, time.Since(start))
	}()

	if r.Method != http.MethodPost {
		result = metrics.IngestResultError
		metrics.IncIngestError("method_not_allowed")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Printf("reading ingest: read body error: %v", err)
		result = metrics.IngestResultError
		metrics.IncIngestError("read_body")
		http.Error(w, "read body error", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var req ingestRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.logger.Printf("reading ingest: decode error: %v", err)
		result = metrics.IngestResultError
		metrics.IncIngestError("invalid_json")
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if len(req.Readings) == 0 {
		result = metrics.IngestResultError
		metrics.IncIngestError("empty_batch")
		http.Error(w, "empty batch", http.StatusBadRequest)
		return
	}

	batch := make([]readings.SensorReading, 0, len(req.Readings))
	units := make(map[string]*masterdata.Equipment, len(req.Readings))
	for _, item := range req.Readings {
		unit, ok := units[item.EquipmentID]
		if !ok {
			unit, err = h.equipment.Get(r.Context(), item.EquipmentID)
			if err != nil {
				if errors.Is(err, masterdata.ErrNotFound) {
					result = metrics.IngestResultError
					metrics.IncIngestError("unknown_equipment")
					http.Error(w, "unknown equipment "+item.EquipmentID, http.StatusNotFound)
					return
				}
				result = metrics.IngestResultError
				metrics.IncIngestError("equipment_lookup")
				http.Error(w, "equipment lookup error", http.StatusInternalServerError)
				return
			}
			units[item.EquipmentID] = unit
		}
		ts := item.Timestamp
		if ts.IsZero() {
			ts = time.Now().UTC()
		}
		batch = append(batch, readings.SensorReading{
			ID:          buildReadingID(item.EquipmentID, ts, item.Value),
			EquipmentID: item.EquipmentID,
			Value:       item.Value,
			Timestamp:   ts.UTC(),
		})
	}

	if err := h.repo.Insert(r.Context(), batch); err != nil {
		h.logger.Printf("reading ingest: insert error: %v", err)
		result = metrics.IngestResultError
		metrics.IncIngestError("insert_error")
		http.Error(w, "insert error", http.StatusInternalServerError)
		return
	}

	if h.publisher != nil {
		for _, reading := range batch {
			event := events.ReadingReceived{
				EventID:     "evt-" + reading.ID,
				FarmID:      h.farmOf(r.Context(), units[reading.EquipmentID]),
				EquipmentID: reading.EquipmentID,
				Value:       reading.Value,
				Timestamp:   reading.Timestamp,
				OccurredAt:  time.Now().UTC(),
			}
			if err := h.publisher.Publish(r.Context(), event); err != nil {
				h.logger.Printf("reading ingest: publish error: %v", err)
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]int{"accepted": len(batch)})
}

func (h *Handler) farmOf(ctx context.Context, unit *masterdata.Equipment) string {
	if unit == nil || h.zones == nil {
		return ""
	}
	zone, err := h.zones.Get(ctx, unit.ZoneID)
	if err != nil {
		return ""
	}
	return zone.FarmID
}

func buildReadingID(equipmentID string, ts time.Time, value float64) string {
	sum := sha1.Sum([]byte(equipmentID + "|" + ts.Format(time.RFC3339Nano) + "|" + strconv.FormatFloat(value, 'g', -1, 64)))
	return "rd-" + hex.EncodeToString(sum[:8])
}
