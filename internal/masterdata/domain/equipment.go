package masterdata

import (
	"context"
	"errors"
	"time"
)

const (
	EquipmentActive   = "Active"
	EquipmentFault    = "Fault"
	EquipmentInactive = "Inactive"
)

// Equipment is a reading-producing sensor unit bound to a zone.
// Each unit produces exactly one reading type.
type Equipment struct {
	ID              string
	ZoneID          string
	ReadingTypeCode string
	SerialNumber    string
	Model           string
	Name            string
	Status          string
	LastReadingAt   time.Time
}

// Validate checks equipment invariants.
func (e Equipment) Validate() error {
	if e.ID == "" {
		return errors.New("equipment: empty id")
	}
	if e.ZoneID == "" {
		return errors.New("equipment: empty zone id")
	}
	if e.ReadingTypeCode == "" {
		return errors.New("equipment: empty reading type code")
	}
	switch e.Status {
	case EquipmentActive, EquipmentFault, EquipmentInactive:
	default:
		return errors.New("equipment: invalid status")
	}
	return nil
}

// IsActive reports whether the unit participates in evaluation.
func (e Equipment) IsActive() bool {
	return e.Status == EquipmentActive
}

// EquipmentRepository reads the equipment catalog.
type EquipmentRepository interface {
	Get(ctx context.Context, id string) (*Equipment, error)
	ListByZone(ctx context.Context, zoneID string) ([]Equipment, error)
	ListByFarm(ctx context.Context, farmID string) ([]Equipment, error)
}
