package application

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"time"

	catalog "farmpulse/internal/catalog/domain"
	cropstage "farmpulse/internal/cropstage/domain"
)

// Clock provides time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production clock.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// ProgressReport is the computed stage position for a zone crop,
// consumed by progress widgets.
type ProgressReport struct {
	ZoneCrop        cropstage.ZoneCrop
	Crop            catalog.Crop
	Stage           *catalog.GrowthStage
	NextStage       *catalog.GrowthStage
	DayInStage      int
	ProgressPercent float64
	Overdue         bool
}

// ProgressService answers stage progress queries and manages the zone
// crop lifecycle.
type ProgressService struct {
	zoneCrops cropstage.ZoneCropRepository
	crops     catalog.CropRepository
	clock     Clock
}

// NewProgressService constructs a ProgressService.
func NewProgressService(zoneCrops cropstage.ZoneCropRepository, crops catalog.CropRepository, clock Clock) (*ProgressService, error) {
	if zoneCrops == nil {
		return nil, errors.New("cropstage: nil zone crop repository")
	}
	if crops == nil {
		return nil, errors.New("cropstage: nil crop repository")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &ProgressService{zoneCrops: zoneCrops, crops: crops, clock: clock}, nil
}

// Progress resolves the time-derived stage of a zone crop at asOf.
// A zero asOf means "now".
func (s *ProgressService) Progress(ctx context.Context, zoneCropID string, asOf time.Time) (*ProgressReport, error) {
	if zoneCropID == "" {
		return nil, errors.New("cropstage: zone crop id required")
	}
	if asOf.IsZero() {
		asOf = s.clock.Now()
	}
	zc, err := s.zoneCrops.Get(ctx, zoneCropID)
	if err != nil {
		return nil, err
	}
	crop, err := s.crops.Get(ctx, zc.CropID)
	if err != nil {
		return nil, err
	}
	stages := crop.StagesForPlanting(zc.PlantedAt)
	progress := cropstage.ResolveStage(zc.PlantedAt, stages, asOf)

	report := &ProgressReport{
		ZoneCrop:        *zc,
		Crop:            *crop,
		Stage:           progress.Stage,
		DayInStage:      progress.DayInStage,
		ProgressPercent: progress.ProgressPercent,
		Overdue:         progress.Overdue,
	}
	if progress.Stage != nil {
		for i := range stages {
			if stages[i].Order == progress.Stage.Order+1 {
				report.NextStage = &stages[i]
				break
			}
		}
	}
	return report, nil
}

// ZoneProgress resolves progress for the zone's active crop.
func (s *ProgressService) ZoneProgress(ctx context.Context, zoneID string, asOf time.Time) (*ProgressReport, error) {
	if zoneID == "" {
		return nil, errors.New("cropstage: zone id required")
	}
	zc, err := s.zoneCrops.ActiveByZone(ctx, zoneID)
	if err != nil {
		return nil, err
	}
	return s.Progress(ctx, zc.ID, asOf)
}

// History lists the zone's past and present crops, newest planted first.
func (s *ProgressService) History(ctx context.Context, zoneID string) ([]cropstage.ZoneCrop, error) {
	if zoneID == "" {
		return nil, errors.New("cropstage: zone id required")
	}
	return s.zoneCrops.ListByZone(ctx, zoneID)
}

// AssignCrop plants a crop in a zone. The previous active zone crop, if
// any, is deactivated so the one-active-per-zone invariant holds.
func (s *ProgressService) AssignCrop(ctx context.Context, zoneID, cropID string, plantedAt time.Time) (*cropstage.ZoneCrop, error) {
	if zoneID == "" || cropID == "" {
		return nil, errors.New("cropstage: zone and crop ids required")
	}
	crop, err := s.crops.Get(ctx, cropID)
	if err != nil {
		return nil, err
	}
	if plantedAt.IsZero() {
		plantedAt = s.clock.Now()
	}
	plantedAt = plantedAt.UTC()

	previous, err := s.zoneCrops.ActiveByZone(ctx, zoneID)
	if err != nil && !errors.Is(err, cropstage.ErrNotFound) {
		return nil, err
	}
	now := s.clock.Now()
	if previous != nil {
		previous.IsActive = false
		previous.UpdatedAt = now
		if err := s.zoneCrops.Save(ctx, previous); err != nil {
			return nil, err
		}
	}

	zc := &cropstage.ZoneCrop{
		ID:        buildZoneCropID(zoneID, cropID, plantedAt),
		ZoneID:    zoneID,
		CropID:    cropID,
		PlantedAt: plantedAt,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if season := crop.SeasonForPlanting(plantedAt); season != nil {
		zc.ExpectedHarvestAt = plantedAt.AddDate(0, 0, season.TotalDurationDays())
	}
	if err := zc.Validate(); err != nil {
		return nil, err
	}
	if err := s.zoneCrops.Save(ctx, zc); err != nil {
		return nil, err
	}
	return zc, nil
}

// Harvest records the harvest and deactivates the zone crop.
func (s *ProgressService) Harvest(ctx context.Context, zoneCropID string, harvestedAt time.Time, yieldKg float64) (*cropstage.ZoneCrop, error) {
	zc, err := s.zoneCrops.Get(ctx, zoneCropID)
	if err != nil {
		return nil, err
	}
	if harvestedAt.IsZero() {
		harvestedAt = s.clock.Now()
	}
	zc.ActualHarvestAt = harvestedAt.UTC()
	zc.YieldWeightKg = yieldKg
	zc.IsActive = false
	zc.UpdatedAt = s.clock.Now()
	if err := s.zoneCrops.Save(ctx, zc); err != nil {
		return nil, err
	}
	return zc, nil
}

// CheckpointStage records a manual stage override on the zone crop.
// This is display metadata only; evaluation keeps using the computed
// stage.
func (s *ProgressService) CheckpointStage(ctx context.Context, zoneCropID, stageID string) (*cropstage.ZoneCrop, error) {
	if stageID == "" {
		return nil, errors.New("cropstage: stage id required")
	}
	zc, err := s.zoneCrops.Get(ctx, zoneCropID)
	if err != nil {
		return nil, err
	}
	crop, err := s.crops.Get(ctx, zc.CropID)
	if err != nil {
		return nil, err
	}
	if !stageExists(crop, stageID) {
		return nil, catalog.ErrNotFound
	}
	zc.CurrentStageID = stageID
	zc.UpdatedAt = s.clock.Now()
	if err := s.zoneCrops.Save(ctx, zc); err != nil {
		return nil, err
	}
	return zc, nil
}

func stageExists(crop *catalog.Crop, stageID string) bool {
	for _, season := range crop.Seasons {
		for _, stage := range season.Stages {
			if stage.ID == stageID {
				return true
			}
		}
	}
	return false
}

func buildZoneCropID(zoneID, cropID string, plantedAt time.Time) string {
	sum := sha1.Sum([]byte(zoneID + "|" + cropID + "|" + plantedAt.Format(time.RFC3339)))
	return "zc-" + hex.EncodeToString(sum[:8])
}
