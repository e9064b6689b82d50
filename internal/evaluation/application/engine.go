package application

import (
	"context"
	"errors"
	"log"
	"time"

	alertapp "farmpulse/internal/alerts/application"
	alerts "farmpulse/internal/alerts/domain"
	catalog "farmpulse/internal/catalog/domain"
	cropstage "farmpulse/internal/cropstage/domain"
	masterdata "farmpulse/internal/masterdata/domain"
	"farmpulse/internal/observability/metrics"
	readings "farmpulse/internal/readings/domain"
)

// Skip reasons reported per equipment unit.
const (
	SkipEquipmentInactive  = "equipment_inactive"
	SkipNoActiveCrop       = "no_active_crop"
	SkipCropNotFound       = "crop_not_found"
	SkipNoStages           = "no_stages"
	SkipNoRequirement      = "no_requirement"
	SkipInvalidRequirement = "invalid_requirement"
	SkipNoReading          = "no_reading"
	SkipStaleReading       = "stale_reading"
)

// TickSummary reports the outcome of one evaluation pass.
type TickSummary struct {
	Evaluated    int `json:"evaluated"`
	Skipped      int `json:"skipped"`
	AlertsRaised int `json:"alerts_raised"`
}

// Engine walks every equipment unit in scope, derives the current growth
// stage of the zone's active crop from elapsed time, classifies the
// unit's latest reading against the stage band and raises alerts through
// the ledger. A unit that cannot be evaluated is skipped with a reason;
// per-unit failures never abort the pass.
type Engine struct {
	zones         masterdata.ZoneRepository
	equipment     masterdata.EquipmentRepository
	readingTypes  masterdata.ReadingTypeRepository
	crops         catalog.CropRepository
	zoneCrops     cropstage.ZoneCropRepository
	readings      readings.ReadingRepository
	ledger        *alertapp.Ledger
	farmIDs       []string
	maxReadingAge time.Duration
	logger        *log.Logger
}

// EngineOption configures the engine.
type EngineOption func(*Engine)

// WithMaxReadingAge skips readings older than the given age. Zero means
// any latest reading is evaluated regardless of age.
func WithMaxReadingAge(age time.Duration) EngineOption {
	return func(e *Engine) {
		if age > 0 {
			e.maxReadingAge = age
		}
	}
}

// WithLogger assigns a logger.
func WithLogger(logger *log.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine constructs an evaluation engine scoped to the given farms.
func NewEngine(
	zones masterdata.ZoneRepository,
	equipment masterdata.EquipmentRepository,
	readingTypes masterdata.ReadingTypeRepository,
	crops catalog.CropRepository,
	zoneCrops cropstage.ZoneCropRepository,
	readingRepo readings.ReadingRepository,
	ledger *alertapp.Ledger,
	farmIDs []string,
	opts ...EngineOption,
) (*Engine, error) {
	if zones == nil {
		return nil, errors.New("evaluation engine: nil zone repository")
	}
	if equipment == nil {
		return nil, errors.New("evaluation engine: nil equipment repository")
	}
	if crops == nil {
		return nil, errors.New("evaluation engine: nil crop repository")
	}
	if zoneCrops == nil {
		return nil, errors.New("evaluation engine: nil zone crop repository")
	}
	if readingRepo == nil {
		return nil, errors.New("evaluation engine: nil reading repository")
	}
	if ledger == nil {
		return nil, errors.New("evaluation engine: nil ledger")
	}
	if len(farmIDs) == 0 {
		return nil, errors.New("evaluation engine: no farms in scope")
	}
	engine := &Engine{
		zones:        zones,
		equipment:    equipment,
		readingTypes: readingTypes,
		crops:        crops,
		zoneCrops:    zoneCrops,
		readings:     readingRepo,
		ledger:       ledger,
		farmIDs:      farmIDs,
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine, nil
}

// Tick evaluates every equipment unit of every farm in scope.
func (e *Engine) Tick(ctx context.Context, now time.Time) (TickSummary, error) {
	if e == nil {
		return TickSummary{}, errors.New("evaluation engine: nil")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	now = now.UTC()

	start := time.Now()
	defer func() {
		metrics.ObserveEvaluationTick(time.Since(start))
	}()

	var summary TickSummary
	for _, farmID := range e.farmIDs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		zones, err := e.zones.ListByFarm(ctx, farmID)
		if err != nil {
			e.logf("evaluation: list zones failed: farm=%s err=%v", farmID, err)
			continue
		}
		for _, zone := range zones {
			if err := ctx.Err(); err != nil {
				return summary, err
			}
			zoneSummary := e.evaluateZone(ctx, zone, now)
			summary.Evaluated += zoneSummary.Evaluated
			summary.Skipped += zoneSummary.Skipped
			summary.AlertsRaised += zoneSummary.AlertsRaised
		}
	}
	metrics.AddUnitsEvaluated(summary.Evaluated)
	return summary, nil
}

// EvaluateEquipment evaluates a single unit, typically in response to a
// freshly ingested reading. Units that cannot be evaluated are skipped
// silently; only infrastructure failures surface as errors.
func (e *Engine) EvaluateEquipment(ctx context.Context, equipmentID string, now time.Time) (*alerts.Alert, error) {
	if e == nil {
		return nil, errors.New("evaluation engine: nil")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	now = now.UTC()

	unit, err := e.equipment.Get(ctx, equipmentID)
	if err != nil {
		return nil, err
	}
	if !unit.IsActive() {
		e.skip(SkipEquipmentInactive)
		return nil, nil
	}
	zone, err := e.zones.Get(ctx, unit.ZoneID)
	if err != nil {
		return nil, err
	}
	zctx, skipReason, err := e.resolveZone(ctx, zone.ID, now)
	if err != nil {
		return nil, err
	}
	if skipReason != "" {
		e.skip(skipReason)
		return nil, nil
	}

	alert, skipReason, err := e.evaluateUnit(ctx, zone.FarmID, *unit, zctx, now)
	if err != nil {
		return nil, err
	}
	if skipReason != "" {
		e.skip(skipReason)
		return nil, nil
	}
	metrics.AddUnitsEvaluated(1)
	return alert, nil
}

// zoneContext is the resolved crop state shared by every unit in a zone.
type zoneContext struct {
	zoneCrop *cropstage.ZoneCrop
	crop     *catalog.Crop
	progress cropstage.StageProgress
}

func (e *Engine) evaluateZone(ctx context.Context, zone masterdata.Zone, now time.Time) TickSummary {
	var summary TickSummary

	units, err := e.equipment.ListByZone(ctx, zone.ID)
	if err != nil {
		e.logf("evaluation: list equipment failed: zone=%s err=%v", zone.ID, err)
		return summary
	}
	if len(units) == 0 {
		return summary
	}

	zctx, skipReason, err := e.resolveZone(ctx, zone.ID, now)
	if err != nil {
		e.logf("evaluation: resolve zone failed: zone=%s err=%v", zone.ID, err)
		return summary
	}

	for _, unit := range units {
		if !unit.IsActive() {
			e.skip(SkipEquipmentInactive)
			summary.Skipped++
			continue
		}
		if skipReason != "" {
			e.skip(skipReason)
			summary.Skipped++
			continue
		}
		alert, unitSkip, err := e.evaluateUnit(ctx, zone.FarmID, unit, zctx, now)
		if err != nil {
			e.logf("evaluation: unit failed: equipment=%s err=%v", unit.ID, err)
			summary.Skipped++
			continue
		}
		if unitSkip != "" {
			e.skip(unitSkip)
			summary.Skipped++
			continue
		}
		summary.Evaluated++
		if alert != nil {
			summary.AlertsRaised++
		}
	}
	return summary
}

// resolveZone loads the zone's active crop and derives the current
// stage. A non-empty skip reason means every unit in the zone skips.
func (e *Engine) resolveZone(ctx context.Context, zoneID string, now time.Time) (zoneContext, string, error) {
	zc, err := e.zoneCrops.ActiveByZone(ctx, zoneID)
	if errors.Is(err, cropstage.ErrNotFound) {
		return zoneContext{}, SkipNoActiveCrop, nil
	}
	if err != nil {
		return zoneContext{}, "", err
	}

	crop, err := e.crops.Get(ctx, zc.CropID)
	if errors.Is(err, catalog.ErrNotFound) {
		return zoneContext{}, SkipCropNotFound, nil
	}
	if err != nil {
		return zoneContext{}, "", err
	}

	stages := crop.StagesForPlanting(zc.PlantedAt)
	progress := cropstage.ResolveStage(zc.PlantedAt, stages, now)
	if progress.Stage == nil {
		return zoneContext{}, SkipNoStages, nil
	}
	return zoneContext{zoneCrop: zc, crop: crop, progress: progress}, "", nil
}

func (e *Engine) evaluateUnit(ctx context.Context, farmID string, unit masterdata.Equipment, zctx zoneContext, now time.Time) (*alerts.Alert, string, error) {
	latest, err := e.readings.LatestByEquipment(ctx, unit.ID)
	if errors.Is(err, readings.ErrNotFound) {
		return nil, SkipNoReading, nil
	}
	if err != nil {
		return nil, "", err
	}
	if e.maxReadingAge > 0 && now.Sub(latest.Timestamp) > e.maxReadingAge {
		return nil, SkipStaleReading, nil
	}

	req := zctx.progress.Stage.RequirementFor(unit.ReadingTypeCode)
	if req == nil {
		return nil, SkipNoRequirement, nil
	}
	if err := req.Validate(); err != nil {
		e.logf("evaluation: bad requirement: stage=%s type=%s err=%v", zctx.progress.Stage.ID, unit.ReadingTypeCode, err)
		return nil, SkipInvalidRequirement, nil
	}

	cls := alerts.Classify(latest.Value, req)
	if !cls.Breached() {
		return nil, "", nil
	}

	alert, err := e.ledger.RaiseIfNeeded(ctx, alertapp.RaiseContext{
		FarmID:      farmID,
		ZoneID:      unit.ZoneID,
		EquipmentID: unit.ID,
		CropID:      zctx.crop.ID,
		CropName:    zctx.crop.Name,
		StageName:   zctx.progress.Stage.Name,
		ReadingType: e.readingType(ctx, unit.ReadingTypeCode),
		Requirement: *req,
	}, cls, latest.Value)
	if err != nil {
		return nil, "", err
	}
	return alert, "", nil
}

func (e *Engine) readingType(ctx context.Context, code string) masterdata.ReadingType {
	if e.readingTypes != nil {
		if rt, err := e.readingTypes.GetByCode(ctx, code); err == nil {
			return *rt
		}
	}
	return masterdata.ReadingType{Code: code}
}

func (e *Engine) skip(reason string) {
	metrics.IncUnitSkipped(reason)
}

func (e *Engine) logf(format string, args ...any) {
	if e != nil && e.logger != nil {
		e.logger.Printf(format, args...)
	}
}
