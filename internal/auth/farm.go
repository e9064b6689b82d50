package auth

import (
	"context"
	"errors"

	masterdata "farmpulse/internal/masterdata/domain"
)

var (
	// ErrFarmMismatch indicates the resource belongs to a different farm.
	ErrFarmMismatch = errors.New("farm mismatch")
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("resource not found")
)

// ZoneFarmChecker validates zone farm ownership.
type ZoneFarmChecker interface {
	EnsureZoneFarm(ctx context.Context, farmID, zoneID string) error
}

// ZoneChecker checks zone ownership using masterdata.
type ZoneChecker struct {
	zones masterdata.ZoneRepository
}

// NewZoneChecker constructs a ZoneChecker.
func NewZoneChecker(zones masterdata.ZoneRepository) *ZoneChecker {
	if zones == nil {
		return nil
	}
	return &ZoneChecker{zones: zones}
}

// EnsureZoneFarm verifies the zone belongs to the farm.
func (c *ZoneChecker) EnsureZoneFarm(ctx context.Context, farmID, zoneID string) error {
	if c == nil || c.zones == nil {
		return nil
	}
	if farmID == "" || zoneID == "" {
		return nil
	}
	zone, err := c.zones.Get(ctx, zoneID)
	if errors.Is(err, masterdata.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if zone.FarmID != farmID {
		return ErrFarmMismatch
	}
	return nil
}
