package events

import "time"

// ReadingReceived is published after a sensor reading batch is stored.
// The evaluation module consumes it to evaluate the affected equipment
// without waiting for the next scheduled tick.
type ReadingReceived struct {
	EventID     string    `json:"event_id"`
	FarmID      string    `json:"farm_id"`
	EquipmentID string    `json:"equipment_id"`
	Value       float64   `json:"value"`
	Timestamp   time.Time `json:"timestamp"`
	OccurredAt  time.Time `json:"occurred_at"`
}
