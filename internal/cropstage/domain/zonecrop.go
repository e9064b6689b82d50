package cropstage

import (
	"context"
	"errors"
	"time"
)

// ZoneCrop records a crop planted in a zone. At most one ZoneCrop per
// zone is active at any time; harvesting or replacement deactivates it,
// never deletes it.
type ZoneCrop struct {
	ID                string    `json:"id"`
	ZoneID            string    `json:"zone_id"`
	CropID            string    `json:"crop_id"`
	PlantedAt         time.Time `json:"planted_at"`
	ExpectedHarvestAt time.Time `json:"expected_harvest_at,omitempty"`
	// CurrentStageID is a manual checkpoint written when a user
	// explicitly advances a crop's stage. Evaluation never reads it;
	// the effective stage is always time-derived via ResolveStage.
	CurrentStageID  string    `json:"current_stage_id,omitempty"`
	IsActive        bool      `json:"is_active"`
	ActualHarvestAt time.Time `json:"actual_harvest_at,omitempty"`
	YieldWeightKg   float64   `json:"yield_weight_kg,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ErrNotFound indicates a missing zone crop record.
var ErrNotFound = errors.New("cropstage: zone crop not found")

// Validate checks zone crop invariants.
func (zc ZoneCrop) Validate() error {
	if zc.ID == "" {
		return errors.New("zone crop: empty id")
	}
	if zc.ZoneID == "" {
		return errors.New("zone crop: empty zone id")
	}
	if zc.CropID == "" {
		return errors.New("zone crop: empty crop id")
	}
	if zc.PlantedAt.IsZero() {
		return errors.New("zone crop: zero planted date")
	}
	return nil
}

// ZoneCropRepository persists zone crop records. ZoneCrop is one of the
// two entities requiring durable storage across restarts.
type ZoneCropRepository interface {
	Get(ctx context.Context, id string) (*ZoneCrop, error)
	ActiveByZone(ctx context.Context, zoneID string) (*ZoneCrop, error)
	ListByZone(ctx context.Context, zoneID string) ([]ZoneCrop, error)
	Save(ctx context.Context, zc *ZoneCrop) error
}
