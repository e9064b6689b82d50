package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	alerts "farmpulse/internal/alerts/domain"
)

// AlertRepository is an in-memory append-only alert ledger.
type AlertRepository struct {
	mu    sync.RWMutex
	byID  map[string]*alerts.Alert
	order []string
}

// NewAlertRepository constructs an empty repository.
func NewAlertRepository() *AlertRepository {
	return &AlertRepository{byID: make(map[string]*alerts.Alert)}
}

// Create appends an alert. Fails with ErrDuplicateOpen when an
// unacknowledged alert already exists for the (zone, reading type) key,
// keeping the uniqueness check and the insert atomic.
func (r *AlertRepository) Create(ctx context.Context, alert *alerts.Alert) error {
	_ = ctx
	if alert == nil {
		return alerts.ErrNotFound
	}
	if err := alert.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.order {
		existing := r.byID[id]
		if !existing.IsAcknowledged &&
			existing.ZoneID == alert.ZoneID &&
			existing.ReadingTypeCode == alert.ReadingTypeCode {
			return alerts.ErrDuplicateOpen
		}
	}
	copy := *alert
	r.byID[alert.ID] = &copy
	r.order = append(r.order, alert.ID)
	return nil
}

// GetByID fetches an alert by id.
func (r *AlertRepository) GetByID(ctx context.Context, id string) (*alerts.Alert, error) {
	_ = ctx
	r.mu.RLock()
	alert, ok := r.byID[id]
	r.mu.RUnlock()
	if !ok {
		return nil, alerts.ErrNotFound
	}
	copy := *alert
	return &copy, nil
}

// FindOpenByZoneAndType returns the unacknowledged alert for a dedup key.
func (r *AlertRepository) FindOpenByZoneAndType(ctx context.Context, zoneID, readingTypeCode string) (*alerts.Alert, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		alert := r.byID[id]
		if !alert.IsAcknowledged && alert.ZoneID == zoneID && alert.ReadingTypeCode == readingTypeCode {
			copy := *alert
			return &copy, nil
		}
	}
	return nil, alerts.ErrNotFound
}

// MarkAcknowledged flips the acknowledged flag.
func (r *AlertRepository) MarkAcknowledged(ctx context.Context, id string, at time.Time) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	alert, ok := r.byID[id]
	if !ok {
		return alerts.ErrNotFound
	}
	alert.IsAcknowledged = true
	alert.AcknowledgedAt = at
	return nil
}

// ListByZone returns the zone's alerts, newest first.
func (r *AlertRepository) ListByZone(ctx context.Context, zoneID, filter string) ([]alerts.Alert, error) {
	_ = ctx
	return r.list(func(a *alerts.Alert) bool { return a.ZoneID == zoneID }, filter), nil
}

// ListByFarm returns the farm's alerts, newest first.
func (r *AlertRepository) ListByFarm(ctx context.Context, farmID, filter string) ([]alerts.Alert, error) {
	_ = ctx
	return r.list(func(a *alerts.Alert) bool { return a.FarmID == farmID }, filter), nil
}

// CountOpenByZone counts unacknowledged alerts in a zone.
func (r *AlertRepository) CountOpenByZone(ctx context.Context, zoneID string) (int, error) {
	_ = ctx
	return r.countOpen(func(a *alerts.Alert) bool { return a.ZoneID == zoneID }), nil
}

// CountOpenByFarm counts unacknowledged alerts in a farm.
func (r *AlertRepository) CountOpenByFarm(ctx context.Context, farmID string) (int, error) {
	_ = ctx
	return r.countOpen(func(a *alerts.Alert) bool { return a.FarmID == farmID }), nil
}

func (r *AlertRepository) list(match func(*alerts.Alert) bool, filter string) []alerts.Alert {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []alerts.Alert
	for _, id := range r.order {
		alert := r.byID[id]
		if !match(alert) {
			continue
		}
		switch filter {
		case alerts.FilterOpen:
			if alert.IsAcknowledged {
				continue
			}
		case alerts.FilterAcknowledged:
			if !alert.IsAcknowledged {
				continue
			}
		}
		out = append(out, *alert)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *AlertRepository) countOpen(match func(*alerts.Alert) bool) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, alert := range r.byID {
		if match(alert) && !alert.IsAcknowledged {
			count++
		}
	}
	return count
}
