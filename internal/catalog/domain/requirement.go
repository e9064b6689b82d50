package catalog

import (
	"errors"
	"fmt"
)

// Requirement is the tolerance band for one reading type at one growth
// stage. The absolute band [MinValue, MaxValue] bounds what is tolerable;
// the optimal band [OptimalMin, OptimalMax] is the narrower preferred
// range and must sit inside the absolute band.
type Requirement struct {
	ID              string  `json:"id"`
	StageID         string  `json:"stage_id"`
	ReadingTypeCode string  `json:"reading_type_code"`
	MinValue        float64 `json:"min_value"`
	MaxValue        float64 `json:"max_value"`
	OptimalMin      float64 `json:"optimal_min"`
	OptimalMax      float64 `json:"optimal_max"`
}

// Validate checks band ordering: min <= optimalMin <= optimalMax <= max.
func (r Requirement) Validate() error {
	if r.ReadingTypeCode == "" {
		return errors.New("requirement: empty reading type code")
	}
	if r.MinValue > r.OptimalMin || r.OptimalMin > r.OptimalMax || r.OptimalMax > r.MaxValue {
		return fmt.Errorf("requirement %s (%s): bands out of order min=%v optMin=%v optMax=%v max=%v",
			r.ID, r.ReadingTypeCode, r.MinValue, r.OptimalMin, r.OptimalMax, r.MaxValue)
	}
	return nil
}

// BandWidth is the width of the absolute band.
func (r Requirement) BandWidth() float64 {
	return r.MaxValue - r.MinValue
}
