package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	cropstage "farmpulse/internal/cropstage/domain"
)

// ZoneCropRepository is a Postgres repository for zone crops.
type ZoneCropRepository struct {
	db *sql.DB
}

// NewZoneCropRepository constructs a repository.
func NewZoneCropRepository(db *sql.DB) *ZoneCropRepository {
	return &ZoneCropRepository{db: db}
}

const zoneCropColumns = `
id, zone_id, crop_id, planted_at, expected_harvest_at, current_stage_id,
is_active, actual_harvest_at, yield_weight_kg, created_at, updated_at`

// Get fetches a zone crop by id.
func (r *ZoneCropRepository) Get(ctx context.Context, id string) (*cropstage.ZoneCrop, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("zone crop repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT `+zoneCropColumns+`
FROM zone_crops
WHERE id = $1`, id)
	return scanZoneCrop(row)
}

// ActiveByZone returns the zone's active crop.
func (r *ZoneCropRepository) ActiveByZone(ctx context.Context, zoneID string) (*cropstage.ZoneCrop, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("zone crop repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT `+zoneCropColumns+`
FROM zone_crops
WHERE zone_id = $1 AND is_active
ORDER BY planted_at DESC
LIMIT 1`, zoneID)
	return scanZoneCrop(row)
}

// ListByZone returns the zone's crop history, newest planting first.
func (r *ZoneCropRepository) ListByZone(ctx context.Context, zoneID string) ([]cropstage.ZoneCrop, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("zone crop repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT `+zoneCropColumns+`
FROM zone_crops
WHERE zone_id = $1
ORDER BY planted_at DESC`, zoneID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []cropstage.ZoneCrop
	for rows.Next() {
		zc, err := scanZoneCrop(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *zc)
	}
	return out, rows.Err()
}

// Save upserts a zone crop.
func (r *ZoneCropRepository) Save(ctx context.Context, zc *cropstage.ZoneCrop) error {
	if r == nil || r.db == nil {
		return errors.New("zone crop repo: nil db")
	}
	if zc == nil {
		return errors.New("zone crop repo: nil zone crop")
	}
	if err := zc.Validate(); err != nil {
		return err
	}
	if zc.CreatedAt.IsZero() {
		zc.CreatedAt = time.Now().UTC()
	}
	if zc.UpdatedAt.IsZero() {
		zc.UpdatedAt = zc.CreatedAt
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO zone_crops (`+zoneCropColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (id) DO UPDATE SET
	current_stage_id = EXCLUDED.current_stage_id,
	is_active = EXCLUDED.is_active,
	actual_harvest_at = EXCLUDED.actual_harvest_at,
	yield_weight_kg = EXCLUDED.yield_weight_kg,
	updated_at = EXCLUDED.updated_at`,
		zc.ID,
		zc.ZoneID,
		zc.CropID,
		zc.PlantedAt,
		nullableTime(zc.ExpectedHarvestAt),
		nullableString(zc.CurrentStageID),
		zc.IsActive,
		nullableTime(zc.ActualHarvestAt),
		zc.YieldWeightKg,
		zc.CreatedAt,
		zc.UpdatedAt,
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanZoneCrop(row rowScanner) (*cropstage.ZoneCrop, error) {
	var (
		zc                cropstage.ZoneCrop
		expectedHarvestAt sql.NullTime
		currentStageID    sql.NullString
		actualHarvestAt   sql.NullTime
	)
	err := row.Scan(
		&zc.ID,
		&zc.ZoneID,
		&zc.CropID,
		&zc.PlantedAt,
		&expectedHarvestAt,
		&currentStageID,
		&zc.IsActive,
		&actualHarvestAt,
		&zc.YieldWeightKg,
		&zc.CreatedAt,
		&zc.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cropstage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if expectedHarvestAt.Valid {
		zc.ExpectedHarvestAt = expectedHarvestAt.Time
	}
	if currentStageID.Valid {
		zc.CurrentStageID = currentStageID.String
	}
	if actualHarvestAt.Valid {
		zc.ActualHarvestAt = actualHarvestAt.Time
	}
	return &zc, nil
}

func nullableTime(value time.Time) sql.NullTime {
	if value.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: value, Valid: true}
}

func nullableString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
