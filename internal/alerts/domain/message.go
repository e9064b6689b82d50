package alerts

import (
	"fmt"

	catalog "farmpulse/internal/catalog/domain"
)

// BuildMessage renders the human-readable alert message embedding the
// reading type display name, the breaching value and the configured
// band.
func BuildMessage(displayName, unit string, value float64, status BreachStatus, req catalog.Requirement) string {
	if displayName == "" {
		displayName = req.ReadingTypeCode
	}
	switch status {
	case StatusBelowMin:
		return fmt.Sprintf("%s %s is below the minimum %s (allowed %.1f - %.1f)",
			displayName, formatValue(value, unit), formatValue(req.MinValue, unit),
			req.MinValue, req.MaxValue)
	case StatusAboveMax:
		return fmt.Sprintf("%s %s is above the maximum %s (allowed %.1f - %.1f)",
			displayName, formatValue(value, unit), formatValue(req.MaxValue, unit),
			req.MinValue, req.MaxValue)
	default:
		return fmt.Sprintf("%s %s is within range", displayName, formatValue(value, unit))
	}
}

func formatValue(value float64, unit string) string {
	if unit == "" {
		return fmt.Sprintf("%.1f", value)
	}
	return fmt.Sprintf("%.1f %s", value, unit)
}
