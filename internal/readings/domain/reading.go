package readings

import (
	"context"
	"errors"
	"time"
)

// SensorReading is one immutable measurement produced by an equipment
// unit.
type SensorReading struct {
	ID          string
	EquipmentID string
	Value       float64
	Timestamp   time.Time
}

// ErrNotFound indicates a missing reading.
var ErrNotFound = errors.New("readings: not found")

// Validate checks reading invariants.
func (r SensorReading) Validate() error {
	if r.ID == "" {
		return errors.New("reading: empty id")
	}
	if r.EquipmentID == "" {
		return errors.New("reading: empty equipment id")
	}
	if r.Timestamp.IsZero() {
		return errors.New("reading: zero timestamp")
	}
	return nil
}

// ReadingRepository persists sensor readings and answers latest-value
// queries for evaluation.
type ReadingRepository interface {
	Insert(ctx context.Context, batch []SensorReading) error
	LatestByEquipment(ctx context.Context, equipmentID string) (*SensorReading, error)
}
