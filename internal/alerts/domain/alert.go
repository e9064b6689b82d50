package alerts

import (
	"context"
	"errors"
	"time"
)

const (
	ThresholdBelowMin = "BelowMin"
	ThresholdAboveMax = "AboveMax"
)

const (
	SeverityCritical = "Critical"
	SeverityWarning  = "Warning"
	SeverityInfo     = "Info"
)

// Alert list filters.
const (
	FilterAll          = ""
	FilterOpen         = "open"
	FilterAcknowledged = "acknowledged"
)

// Alert is an advisory record raised when a reading breaches its stage
// requirement. The ledger is append-only: alerts are never deleted and
// IsAcknowledged is the only mutable field. The dedup key is
// (ZoneID, ReadingTypeCode); at most one alert per key may be open.
type Alert struct {
	ID              string    `json:"id"`
	FarmID          string    `json:"farm_id"`
	ZoneID          string    `json:"zone_id"`
	EquipmentID     string    `json:"equipment_id,omitempty"`
	CropID          string    `json:"crop_id,omitempty"`
	CropName        string    `json:"crop_name,omitempty"`
	StageName       string    `json:"stage_name,omitempty"`
	ReadingTypeCode string    `json:"reading_type_code"`
	ReadingTypeName string    `json:"reading_type_name,omitempty"`
	Value           float64   `json:"value"`
	ThresholdType   string    `json:"threshold_type"`
	Severity        string    `json:"severity"`
	Message         string    `json:"message"`
	CreatedAt       time.Time `json:"created_at"`
	IsAcknowledged  bool      `json:"is_acknowledged"`
	AcknowledgedAt  time.Time `json:"acknowledged_at,omitempty"`
}

// ErrNotFound indicates a missing alert record.
var ErrNotFound = errors.New("alerts: not found")

// ErrDuplicateOpen indicates an open alert already exists for the dedup
// key. Repositories return it from Create so the check-then-act raise
// stays atomic; callers treat it as "nothing to do", not a failure.
var ErrDuplicateOpen = errors.New("alerts: open alert exists for key")

// Validate checks alert invariants.
func (a Alert) Validate() error {
	if a.ID == "" {
		return errors.New("alert: empty id")
	}
	if a.ZoneID == "" {
		return errors.New("alert: empty zone id")
	}
	if a.ReadingTypeCode == "" {
		return errors.New("alert: empty reading type code")
	}
	switch a.ThresholdType {
	case ThresholdBelowMin, ThresholdAboveMax:
	default:
		return errors.New("alert: invalid threshold type")
	}
	return nil
}

// AlertRepository persists the alert ledger. Create must be atomic with
// respect to the open-alert uniqueness check for the dedup key.
type AlertRepository interface {
	Create(ctx context.Context, alert *Alert) error
	GetByID(ctx context.Context, id string) (*Alert, error)
	FindOpenByZoneAndType(ctx context.Context, zoneID, readingTypeCode string) (*Alert, error)
	MarkAcknowledged(ctx context.Context, id string, at time.Time) error
	ListByZone(ctx context.Context, zoneID, filter string) ([]Alert, error)
	ListByFarm(ctx context.Context, farmID, filter string) ([]Alert, error)
	CountOpenByZone(ctx context.Context, zoneID string) (int, error)
	CountOpenByFarm(ctx context.Context, farmID string) (int, error)
}
