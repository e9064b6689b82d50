package alerts

import (
	catalog "farmpulse/internal/catalog/domain"
)

// BreachStatus classifies a reading against the absolute band.
type BreachStatus string

const (
	StatusOK       BreachStatus = "OK"
	StatusBelowMin BreachStatus = "BelowMin"
	StatusAboveMax BreachStatus = "AboveMax"
)

// Classification is the result of evaluating one reading against one
// stage requirement. Only the absolute band drives Status and alerting;
// WithinOptimal is informational.
type Classification struct {
	Status        BreachStatus
	WithinOptimal bool
}

// Breached reports whether the classification should raise an alert.
func (c Classification) Breached() bool {
	return c.Status != StatusOK
}

// ThresholdType maps the breach status to the alert threshold type.
func (c Classification) ThresholdType() string {
	switch c.Status {
	case StatusBelowMin:
		return ThresholdBelowMin
	case StatusAboveMax:
		return ThresholdAboveMax
	default:
		return ""
	}
}

// Classify evaluates a reading value against a stage requirement.
// A nil requirement means no band is defined for this reading type at
// this stage; absence of a rule is not a breach. Comparisons are
// inclusive at the band edges: value == MinValue or == MaxValue is OK.
func Classify(value float64, req *catalog.Requirement) Classification {
	if req == nil {
		return Classification{Status: StatusOK}
	}
	cls := Classification{
		Status:        StatusOK,
		WithinOptimal: value >= req.OptimalMin && value <= req.OptimalMax,
	}
	switch {
	case value < req.MinValue:
		cls.Status = StatusBelowMin
	case value > req.MaxValue:
		cls.Status = StatusAboveMax
	}
	return cls
}

// SeverityFor derives the display severity of a breach. A breach that
// overshoots the absolute band by at least a quarter of the band width
// is Critical, otherwise Warning. Non-breaches are Info.
func SeverityFor(value float64, req catalog.Requirement, status BreachStatus) string {
	var overshoot float64
	switch status {
	case StatusBelowMin:
		overshoot = req.MinValue - value
	case StatusAboveMax:
		overshoot = value - req.MaxValue
	default:
		return SeverityInfo
	}
	width := req.BandWidth()
	if width <= 0 || overshoot >= width/4 {
		return SeverityCritical
	}
	return SeverityWarning
}
