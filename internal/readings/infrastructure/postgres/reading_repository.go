package postgres

import (
	"context"
	"database/sql"
	"errors"

	readings "farmpulse/internal/readings/domain"
)

// ReadingRepository is a Postgres repository for sensor readings.
type ReadingRepository struct {
	db *sql.DB
}

// NewReadingRepository constructs a repository.
func NewReadingRepository(db *sql.DB) *ReadingRepository {
	return &ReadingRepository{db: db}
}

// Insert appends a batch of readings inside one transaction.
func (r *ReadingRepository) Insert(ctx context.Context, batch []readings.SensorReading) error {
	if r == nil || r.db == nil {
		return errors.New("reading repo: nil db")
	}
	if len(batch) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, reading := range batch {
		if err := reading.Validate(); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO sensor_readings (id, equipment_id, value, ts)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO NOTHING`,
			reading.ID, reading.EquipmentID, reading.Value, reading.Timestamp,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LatestByEquipment returns the most recent reading for a unit.
func (r *ReadingRepository) LatestByEquipment(ctx context.Context, equipmentID string) (*readings.SensorReading, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("reading repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, equipment_id, value, ts
FROM sensor_readings
WHERE equipment_id = $1
ORDER BY ts DESC
LIMIT 1`, equipmentID)

	var reading readings.SensorReading
	err := row.Scan(&reading.ID, &reading.EquipmentID, &reading.Value, &reading.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, readings.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &reading, nil
}
