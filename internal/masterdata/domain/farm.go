package masterdata

import (
	"context"
	"errors"
)

// Farm represents a managed farm.
type Farm struct {
	ID       string
	Name     string
	Code     string
	Location string
}

// Zone is a managed sub-area of a farm.
type Zone struct {
	ID       string
	FarmID   string
	Name     string
	AreaSqM  float64
	SoilType string
}

// Validate checks zone invariants.
func (z Zone) Validate() error {
	if z.ID == "" {
		return errors.New("zone: empty id")
	}
	if z.FarmID == "" {
		return errors.New("zone: empty farm id")
	}
	return nil
}

// ZoneRepository reads the zone catalog.
type ZoneRepository interface {
	Get(ctx context.Context, id string) (*Zone, error)
	ListByFarm(ctx context.Context, farmID string) ([]Zone, error)
}

// ErrNotFound indicates a missing masterdata record.
var ErrNotFound = errors.New("masterdata: not found")
