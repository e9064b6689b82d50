package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	alerts "farmpulse/internal/alerts/domain"
)

// AlertRepository is a Postgres repository for the alert ledger.
// The schema carries a partial unique index on
// (zone_id, reading_type_code) WHERE NOT is_acknowledged, so Create is
// atomic with respect to the one-open-alert-per-key invariant.
type AlertRepository struct {
	db *sql.DB
}

// NewAlertRepository constructs a repository.
func NewAlertRepository(db *sql.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

const alertColumns = `
id, farm_id, zone_id, equipment_id, crop_id, crop_name, stage_name,
reading_type_code, reading_type_name, value, threshold_type, severity,
message, created_at, is_acknowledged, acknowledged_at`

// Create inserts a new alert. Returns ErrDuplicateOpen when the partial
// unique index rejects a second open alert for the key.
func (r *AlertRepository) Create(ctx context.Context, alert *alerts.Alert) error {
	if r == nil || r.db == nil {
		return errors.New("alert repo: nil db")
	}
	if alert == nil {
		return errors.New("alert repo: nil alert")
	}
	if err := alert.Validate(); err != nil {
		return err
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}
	result, err := r.db.ExecContext(ctx, `
INSERT INTO alerts (`+alertColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
ON CONFLICT DO NOTHING`,
		alert.ID,
		alert.FarmID,
		alert.ZoneID,
		nullableString(alert.EquipmentID),
		nullableString(alert.CropID),
		nullableString(alert.CropName),
		nullableString(alert.StageName),
		alert.ReadingTypeCode,
		nullableString(alert.ReadingTypeName),
		alert.Value,
		alert.ThresholdType,
		alert.Severity,
		alert.Message,
		alert.CreatedAt,
		alert.IsAcknowledged,
		nullableTime(alert.AcknowledgedAt),
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return alerts.ErrDuplicateOpen
	}
	return nil
}

// GetByID fetches an alert by id.
func (r *AlertRepository) GetByID(ctx context.Context, id string) (*alerts.Alert, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("alert repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT `+alertColumns+`
FROM alerts
WHERE id = $1`, id)
	return scanAlert(row)
}

// FindOpenByZoneAndType returns the unacknowledged alert for a dedup key.
func (r *AlertRepository) FindOpenByZoneAndType(ctx context.Context, zoneID, readingTypeCode string) (*alerts.Alert, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("alert repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT `+alertColumns+`
FROM alerts
WHERE zone_id = $1 AND reading_type_code = $2 AND NOT is_acknowledged
ORDER BY created_at DESC
LIMIT 1`, zoneID, readingTypeCode)
	return scanAlert(row)
}

// MarkAcknowledged flips the acknowledged flag.
func (r *AlertRepository) MarkAcknowledged(ctx context.Context, id string, at time.Time) error {
	if r == nil || r.db == nil {
		return errors.New("alert repo: nil db")
	}
	result, err := r.db.ExecContext(ctx, `
UPDATE alerts
SET is_acknowledged = TRUE, acknowledged_at = $1
WHERE id = $2`, at, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return alerts.ErrNotFound
	}
	return nil
}

// ListByZone returns the zone's alerts, newest first.
func (r *AlertRepository) ListByZone(ctx context.Context, zoneID, filter string) ([]alerts.Alert, error) {
	return r.listWhere(ctx, "zone_id", zoneID, filter)
}

// ListByFarm returns the farm's alerts, newest first.
func (r *AlertRepository) ListByFarm(ctx context.Context, farmID, filter string) ([]alerts.Alert, error) {
	return r.listWhere(ctx, "farm_id", farmID, filter)
}

// CountOpenByZone counts unacknowledged alerts in a zone.
func (r *AlertRepository) CountOpenByZone(ctx context.Context, zoneID string) (int, error) {
	return r.countOpenWhere(ctx, "zone_id", zoneID)
}

// CountOpenByFarm counts unacknowledged alerts in a farm.
func (r *AlertRepository) CountOpenByFarm(ctx context.Context, farmID string) (int, error) {
	return r.countOpenWhere(ctx, "farm_id", farmID)
}

func (r *AlertRepository) listWhere(ctx context.Context, column, value, filter string) ([]alerts.Alert, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("alert repo: nil db")
	}
	query := `
SELECT ` + alertColumns + `
FROM alerts
WHERE ` + column + ` = $1`
	switch filter {
	case alerts.FilterOpen:
		query += ` AND NOT is_acknowledged`
	case alerts.FilterAcknowledged:
		query += ` AND is_acknowledged`
	}
	query += `
ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, value)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []alerts.Alert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *alert)
	}
	return out, rows.Err()
}

func (r *AlertRepository) countOpenWhere(ctx context.Context, column, value string) (int, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("alert repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT COUNT(*)
FROM alerts
WHERE `+column+` = $1 AND NOT is_acknowledged`, value)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlert(row rowScanner) (*alerts.Alert, error) {
	var (
		alert           alerts.Alert
		equipmentID     sql.NullString
		cropID          sql.NullString
		cropName        sql.NullString
		stageName       sql.NullString
		readingTypeName sql.NullString
		acknowledgedAt  sql.NullTime
	)
	err := row.Scan(
		&alert.ID,
		&alert.FarmID,
		&alert.ZoneID,
		&equipmentID,
		&cropID,
		&cropName,
		&stageName,
		&alert.ReadingTypeCode,
		&readingTypeName,
		&alert.Value,
		&alert.ThresholdType,
		&alert.Severity,
		&alert.Message,
		&alert.CreatedAt,
		&alert.IsAcknowledged,
		&acknowledgedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, alerts.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	alert.EquipmentID = equipmentID.String
	alert.CropID = cropID.String
	alert.CropName = cropName.String
	alert.StageName = stageName.String
	alert.ReadingTypeName = readingTypeName.String
	if acknowledgedAt.Valid {
		alert.AcknowledgedAt = acknowledgedAt.Time
	}
	return &alert, nil
}

func nullableString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func nullableTime(value time.Time) sql.NullTime {
	if value.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: value, Valid: true}
}
