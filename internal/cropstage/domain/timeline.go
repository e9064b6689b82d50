package cropstage

import (
	"time"

	catalog "farmpulse/internal/catalog/domain"
)

// StageProgress is the time-derived position of a crop in its lifecycle.
type StageProgress struct {
	Stage           *catalog.GrowthStage
	DayInStage      int
	ProgressPercent float64
	// Overdue is set when elapsed time exceeds the total stage
	// durations; callers may surface it but it is not an error.
	Overdue bool
}

// ResolveStage maps a planting date and an ordered stage list to the
// current stage, day-in-stage and progress. It never fails: an empty
// stage list yields a nil Stage, a future planting date clamps elapsed
// time to zero, and elapsed time past the final stage returns the last
// stage at 100% with Overdue set.
func ResolveStage(plantedAt time.Time, stages []catalog.GrowthStage, asOf time.Time) StageProgress {
	if len(stages) == 0 {
		return StageProgress{}
	}

	elapsedDays := int(asOf.Sub(plantedAt).Hours() / 24)
	if elapsedDays < 0 {
		elapsedDays = 0
	}

	cumulative := 0
	for i := range stages {
		stage := &stages[i]
		if elapsedDays < cumulative+stage.DurationDays {
			dayInStage := elapsedDays - cumulative
			return StageProgress{
				Stage:           stage,
				DayInStage:      dayInStage,
				ProgressPercent: progressPercent(dayInStage, stage.DurationDays),
			}
		}
		cumulative += stage.DurationDays
	}

	last := &stages[len(stages)-1]
	return StageProgress{
		Stage:           last,
		DayInStage:      last.DurationDays,
		ProgressPercent: 100,
		Overdue:         true,
	}
}

func progressPercent(dayInStage, durationDays int) float64 {
	if durationDays == 0 {
		return 100
	}
	percent := 100 * float64(dayInStage) / float64(durationDays)
	if percent > 100 {
		return 100
	}
	return percent
}
