package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Crop is a plantable crop with one or more growing seasons.
type Crop struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Seasons     []Season `json:"seasons,omitempty"`
}

// Season groups the ordered growth stages for one planting window.
type Season struct {
	ID                 string        `json:"id"`
	CropID             string        `json:"crop_id"`
	Name               string        `json:"name"`
	PlantingStartMonth time.Month    `json:"planting_start_month,omitempty"`
	ExpectedRangeDays  string        `json:"expected_range_days,omitempty"`
	Stages             []GrowthStage `json:"stages,omitempty"`
}

// GrowthStage is one ordered phase of a crop lifecycle.
type GrowthStage struct {
	ID           string        `json:"id"`
	SeasonID     string        `json:"season_id"`
	Name         string        `json:"name"`
	Order        int           `json:"order"`
	DurationDays int           `json:"duration_days"`
	Description  string        `json:"description,omitempty"`
	Requirements []Requirement `json:"requirements,omitempty"`
}

// ErrNotFound indicates a missing catalog record.
var ErrNotFound = errors.New("catalog: not found")

// Validate checks crop invariants including every season and stage.
func (c Crop) Validate() error {
	if c.ID == "" {
		return errors.New("crop: empty id")
	}
	if c.Name == "" {
		return errors.New("crop: empty name")
	}
	for _, season := range c.Seasons {
		if err := season.Validate(); err != nil {
			return fmt.Errorf("crop %s: %w", c.ID, err)
		}
	}
	return nil
}

// Validate checks season invariants. Stage order values must form a
// contiguous increasing sequence starting at 1.
func (s Season) Validate() error {
	if s.ID == "" {
		return errors.New("season: empty id")
	}
	if err := ValidateStages(s.Stages); err != nil {
		return fmt.Errorf("season %s: %w", s.ID, err)
	}
	return nil
}

// ValidateStages checks that stages are ordered 1..n with no gaps and
// that each stage is itself valid.
func ValidateStages(stages []GrowthStage) error {
	for i, stage := range stages {
		if err := stage.Validate(); err != nil {
			return err
		}
		if stage.Order != i+1 {
			return fmt.Errorf("stage %s: order %d, want %d (contiguous from 1)", stage.ID, stage.Order, i+1)
		}
	}
	return nil
}

// Validate checks stage invariants.
func (g GrowthStage) Validate() error {
	if g.ID == "" {
		return errors.New("stage: empty id")
	}
	if g.Order < 1 {
		return fmt.Errorf("stage %s: order must be >= 1", g.ID)
	}
	if g.DurationDays < 0 {
		return fmt.Errorf("stage %s: negative duration", g.ID)
	}
	seen := make(map[string]struct{}, len(g.Requirements))
	for _, req := range g.Requirements {
		if err := req.Validate(); err != nil {
			return fmt.Errorf("stage %s: %w", g.ID, err)
		}
		if _, dup := seen[req.ReadingTypeCode]; dup {
			return fmt.Errorf("stage %s: duplicate requirement for %s", g.ID, req.ReadingTypeCode)
		}
		seen[req.ReadingTypeCode] = struct{}{}
	}
	return nil
}

// RequirementFor returns the stage requirement for a reading type, or
// nil when the stage defines no band for that type.
func (g GrowthStage) RequirementFor(readingTypeCode string) *Requirement {
	for i := range g.Requirements {
		if g.Requirements[i].ReadingTypeCode == readingTypeCode {
			return &g.Requirements[i]
		}
	}
	return nil
}

// SeasonForPlanting picks the season whose planting window is closest at
// or before the planting month, wrapping around the year. Falls back to
// the first season when none declares a start month.
func (c Crop) SeasonForPlanting(plantedAt time.Time) *Season {
	if len(c.Seasons) == 0 {
		return nil
	}
	month := plantedAt.Month()
	best := -1
	bestDelta := 13
	for i, season := range c.Seasons {
		if season.PlantingStartMonth == 0 {
			continue
		}
		delta := int(month) - int(season.PlantingStartMonth)
		if delta < 0 {
			delta += 12
		}
		if delta < bestDelta {
			bestDelta = delta
			best = i
		}
	}
	if best < 0 {
		best = 0
	}
	return &c.Seasons[best]
}

// StagesForPlanting resolves the ordered stage list evaluation should
// walk for a crop planted at the given date.
func (c Crop) StagesForPlanting(plantedAt time.Time) []GrowthStage {
	season := c.SeasonForPlanting(plantedAt)
	if season == nil {
		return nil
	}
	return season.Stages
}

// TotalDurationDays sums stage durations for a season.
func (s Season) TotalDurationDays() int {
	total := 0
	for _, stage := range s.Stages {
		total += stage.DurationDays
	}
	return total
}

// CropRepository reads the crop catalog.
type CropRepository interface {
	Get(ctx context.Context, id string) (*Crop, error)
	List(ctx context.Context) ([]Crop, error)
}
