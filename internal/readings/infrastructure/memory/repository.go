package memory

import (
	"context"
	"sync"

	readings "farmpulse/internal/readings/domain"
)

// ReadingRepository is an in-memory reading store keeping the full
// history per equipment with O(1) latest lookup.
type ReadingRepository struct {
	mu     sync.RWMutex
	byUnit map[string][]readings.SensorReading
	latest map[string]readings.SensorReading
}

// NewReadingRepository constructs an empty repository.
func NewReadingRepository() *ReadingRepository {
	return &ReadingRepository{
		byUnit: make(map[string][]readings.SensorReading),
		latest: make(map[string]readings.SensorReading),
	}
}

// Insert appends a batch of readings.
func (r *ReadingRepository) Insert(ctx context.Context, batch []readings.SensorReading) error {
	_ = ctx
	for _, reading := range batch {
		if err := reading.Validate(); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, reading := range batch {
		r.byUnit[reading.EquipmentID] = append(r.byUnit[reading.EquipmentID], reading)
		current, ok := r.latest[reading.EquipmentID]
		if !ok || reading.Timestamp.After(current.Timestamp) {
			r.latest[reading.EquipmentID] = reading
		}
	}
	return nil
}

// LatestByEquipment returns the most recent reading for a unit.
func (r *ReadingRepository) LatestByEquipment(ctx context.Context, equipmentID string) (*readings.SensorReading, error) {
	_ = ctx
	r.mu.RLock()
	reading, ok := r.latest[equipmentID]
	r.mu.RUnlock()
	if !ok {
		return nil, readings.ErrNotFound
	}
	copy := reading
	return &copy, nil
}

// HistoryByEquipment returns stored readings for a unit, oldest first.
func (r *ReadingRepository) HistoryByEquipment(ctx context.Context, equipmentID string) ([]readings.SensorReading, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	history := r.byUnit[equipmentID]
	out := make([]readings.SensorReading, len(history))
	copy(out, history)
	return out, nil
}
