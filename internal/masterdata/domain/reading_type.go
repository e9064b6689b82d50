package masterdata

import (
	"context"
	"errors"
)

// Well-known reading type codes.
const (
	ReadingSoilMoisture    = "SOIL_MOISTURE"
	ReadingSoilPH          = "SOIL_PH"
	ReadingTemperature     = "TEMPERATURE"
	ReadingAmbientHumidity = "AMBIENT_HUMIDITY"
	ReadingWaterUsage      = "WATER_USAGE"
)

// ReadingType describes one kind of sensor measurement.
type ReadingType struct {
	ID          string
	Code        string
	DisplayName string
	Unit        string
	Category    string
}

// Validate checks reading type invariants.
func (t ReadingType) Validate() error {
	if t.Code == "" {
		return errors.New("reading type: empty code")
	}
	if t.DisplayName == "" {
		return errors.New("reading type: empty display name")
	}
	return nil
}

// ReadingTypeRepository reads the reading type catalog.
type ReadingTypeRepository interface {
	GetByCode(ctx context.Context, code string) (*ReadingType, error)
	List(ctx context.Context) ([]ReadingType, error)
}
