package application

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	alerts "farmpulse/internal/alerts/domain"
	catalog "farmpulse/internal/catalog/domain"
	masterdata "farmpulse/internal/masterdata/domain"
	"farmpulse/internal/observability/metrics"
)

// Notifier publishes alert lifecycle events.
type Notifier interface {
	Notify(ctx context.Context, event AlertEvent)
}

// AlertEvent represents a lifecycle update.
type AlertEvent struct {
	Type  string       `json:"type"`
	Alert alerts.Alert `json:"alert"`
}

// Clock provides time.
type Clock interface {
	Now() time.Time
}

// Ledger owns the set of alerts for a farm session. Raise and
// acknowledge are serialized through a single mutex so the
// at-most-one-open-alert-per-key check-then-act is atomic with respect
// to concurrent raises for the same key.
type Ledger struct {
	mu       sync.Mutex
	repo     alerts.AlertRepository
	notifier Notifier
	clock    Clock
}

// LedgerOption customizes the ledger.
type LedgerOption func(*Ledger)

// WithNotifier assigns a notifier.
func WithNotifier(notifier Notifier) LedgerOption {
	return func(l *Ledger) {
		l.notifier = notifier
	}
}

// WithClock assigns a clock.
func WithClock(clock Clock) LedgerOption {
	return func(l *Ledger) {
		l.clock = clock
	}
}

// NewLedger constructs an alert ledger.
func NewLedger(repo alerts.AlertRepository, opts ...LedgerOption) (*Ledger, error) {
	if repo == nil {
		return nil, errors.New("alerts: nil repository")
	}
	ledger := &Ledger{repo: repo, clock: systemClock{}}
	for _, opt := range opts {
		opt(ledger)
	}
	return ledger, nil
}

// RaiseContext carries the evaluation context an alert is raised from.
type RaiseContext struct {
	FarmID      string
	ZoneID      string
	EquipmentID string
	CropID      string
	CropName    string
	StageName   string
	ReadingType masterdata.ReadingType
	Requirement catalog.Requirement
}

// RaiseIfNeeded appends a new alert for a breach unless an
// unacknowledged alert already exists for the (zone, reading type)
// key. OK classifications and deduped breaches return (nil, nil).
// The existing open alert is left untouched: its value is not updated.
func (l *Ledger) RaiseIfNeeded(ctx context.Context, rc RaiseContext, cls alerts.Classification, value float64) (*alerts.Alert, error) {
	if l == nil {
		return nil, errors.New("alerts: nil ledger")
	}
	if !cls.Breached() {
		return nil, nil
	}
	if rc.ZoneID == "" || rc.ReadingType.Code == "" {
		return nil, errors.New("alerts: raise requires zone and reading type")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	open, err := l.repo.FindOpenByZoneAndType(ctx, rc.ZoneID, rc.ReadingType.Code)
	if err != nil && !errors.Is(err, alerts.ErrNotFound) {
		return nil, err
	}
	if open != nil {
		return nil, nil
	}

	now := l.clock.Now().UTC()
	alert := &alerts.Alert{
		ID:              buildAlertID(rc.ZoneID, rc.ReadingType.Code, now),
		FarmID:          rc.FarmID,
		ZoneID:          rc.ZoneID,
		EquipmentID:     rc.EquipmentID,
		CropID:          rc.CropID,
		CropName:        rc.CropName,
		StageName:       rc.StageName,
		ReadingTypeCode: rc.ReadingType.Code,
		ReadingTypeName: rc.ReadingType.DisplayName,
		Value:           value,
		ThresholdType:   cls.ThresholdType(),
		Severity:        alerts.SeverityFor(value, rc.Requirement, cls.Status),
		Message:         alerts.BuildMessage(rc.ReadingType.DisplayName, rc.ReadingType.Unit, value, cls.Status, rc.Requirement),
		CreatedAt:       now,
	}
	if err := l.repo.Create(ctx, alert); err != nil {
		if errors.Is(err, alerts.ErrDuplicateOpen) {
			// Lost a raise race; the other alert stands.
			return nil, nil
		}
		return nil, err
	}
	l.notify(ctx, "raised", *alert)
	return alert, nil
}

// Acknowledge flips the acknowledged flag. Unknown ids fail with
// ErrNotFound; acknowledging twice is a no-op returning the alert.
func (l *Ledger) Acknowledge(ctx context.Context, id string) (*alerts.Alert, error) {
	if l == nil {
		return nil, errors.New("alerts: nil ledger")
	}
	if id == "" {
		return nil, errors.New("alerts: alert id required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	alert, err := l.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if alert.IsAcknowledged {
		return alert, nil
	}
	ackedAt := l.clock.Now().UTC()
	if err := l.repo.MarkAcknowledged(ctx, alert.ID, ackedAt); err != nil {
		return nil, err
	}
	alert.IsAcknowledged = true
	alert.AcknowledgedAt = ackedAt
	l.notify(ctx, "acknowledged", *alert)
	return alert, nil
}

// ListByFarm returns the farm's alerts, optionally filtered.
func (l *Ledger) ListByFarm(ctx context.Context, farmID, filter string) ([]alerts.Alert, error) {
	if farmID == "" {
		return nil, errors.New("alerts: farm id required")
	}
	return l.repo.ListByFarm(ctx, farmID, filter)
}

// ListByZone returns the zone's alerts, optionally filtered.
func (l *Ledger) ListByZone(ctx context.Context, zoneID, filter string) ([]alerts.Alert, error) {
	if zoneID == "" {
		return nil, errors.New("alerts: zone id required")
	}
	return l.repo.ListByZone(ctx, zoneID, filter)
}

// UnacknowledgedCountByFarm is the open-alert badge projection.
func (l *Ledger) UnacknowledgedCountByFarm(ctx context.Context, farmID string) (int, error) {
	count, err := l.repo.CountOpenByFarm(ctx, farmID)
	if err != nil {
		return 0, err
	}
	metrics.SetOpenAlerts(farmID, count)
	return count, nil
}

// UnacknowledgedCountByZone is the per-zone open-alert projection.
func (l *Ledger) UnacknowledgedCountByZone(ctx context.Context, zoneID string) (int, error) {
	return l.repo.CountOpenByZone(ctx, zoneID)
}

func (l *Ledger) notify(ctx context.Context, eventType string, alert alerts.Alert) {
	metrics.IncAlertEvent(eventType)
	if l.notifier == nil {
		return
	}
	l.notifier.Notify(ctx, AlertEvent{Type: eventType, Alert: alert})
}

func buildAlertID(zoneID, readingTypeCode string, createdAt time.Time) string {
	sum := sha1.Sum([]byte(zoneID + "|" + readingTypeCode + "|" + createdAt.Format(time.RFC3339Nano)))
	return "alert-" + hex.EncodeToString(sum[:8])
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
