package notify

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	alertapp "farmpulse/internal/alerts/application"
	alerts "farmpulse/internal/alerts/domain"
	masterdata "farmpulse/internal/masterdata/domain"
)

// ZoneReader loads zone metadata for rendering.
type ZoneReader interface {
	Get(ctx context.Context, id string) (*masterdata.Zone, error)
}

// Clock provides time for cooldown tracking.
type Clock interface {
	Now() time.Time
}

type sendRecord struct {
	at   time.Time
	hash string
}

// Notifier renders alert lifecycle events and delivers them through a
// channel, suppressing repeats within the cooldown and dedupe windows.
type Notifier struct {
	zones        ZoneReader
	channel      Channel
	template     *Template
	clock        Clock
	mu           sync.Mutex
	sent         map[string]sendRecord
	cooldown     time.Duration
	dedupeWindow time.Duration
}

// Option configures the notifier.
type Option func(*Notifier)

// WithClock overrides the default clock.
func WithClock(clock Clock) Option {
	return func(n *Notifier) {
		if clock != nil {
			n.clock = clock
		}
	}
}

// WithCooldown sets a minimum interval between notifications for the same alert and event.
func WithCooldown(interval time.Duration) Option {
	return func(n *Notifier) {
		if interval > 0 {
			n.cooldown = interval
		}
	}
}

// WithDedupeWindow suppresses identical notifications within the window.
func WithDedupeWindow(window time.Duration) Option {
	return func(n *Notifier) {
		if window > 0 {
			n.dedupeWindow = window
		}
	}
}

// NewNotifier constructs an alert notifier.
func NewNotifier(zones ZoneReader, channel Channel, template *Template, opts ...Option) (*Notifier, error) {
	if channel == nil {
		return nil, errors.New("alert notifier: nil channel")
	}
	if template == nil {
		defaultTemplate, err := NewTemplate("")
		if err != nil {
			return nil, err
		}
		template = defaultTemplate
	}
	n := &Notifier{
		zones:    zones,
		channel:  channel,
		template: template,
		clock:    systemClock{},
		sent:     make(map[string]sendRecord),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Notify implements the ledger's Notifier.
func (n *Notifier) Notify(ctx context.Context, event alertapp.AlertEvent) {
	if n == nil || n.channel == nil {
		return
	}
	data := n.buildTemplateData(ctx, event.Type, event.Alert)
	content, err := n.template.Render(data)
	if err != nil {
		return
	}
	if !n.shouldSend(event.Alert.ID, event.Type, content) {
		return
	}
	if err := n.channel.Send(ctx, content); err != nil {
		return
	}
	n.markSent(event.Alert.ID, event.Type, content)
}

func (n *Notifier) buildTemplateData(ctx context.Context, eventType string, alert alerts.Alert) TemplateData {
	zoneName := alert.ZoneID
	if n.zones != nil {
		if zone, err := n.zones.Get(ctx, alert.ZoneID); err == nil && zone.Name != "" {
			zoneName = zone.Name
		}
	}
	readingType := alert.ReadingTypeName
	if readingType == "" {
		readingType = alert.ReadingTypeCode
	}
	return TemplateData{
		Zone:        zoneName,
		ZoneID:      alert.ZoneID,
		Crop:        alert.CropName,
		Stage:       alert.StageName,
		ReadingType: readingType,
		Value:       fmt.Sprintf("%.1f", alert.Value),
		Range:       rangeText(alert),
		Severity:    alert.Severity,
		Time:        alert.CreatedAt.UTC().Format(time.RFC3339),
		Message:     alert.Message,
		Event:       eventType,
		EventLabel:  eventLabel(eventType),
	}
}

func rangeText(alert alerts.Alert) string {
	switch alert.ThresholdType {
	case alerts.ThresholdBelowMin:
		return "below minimum"
	case alerts.ThresholdAboveMax:
		return "above maximum"
	default:
		return ""
	}
}

func eventLabel(event string) string {
	switch event {
	case "raised":
		return "Raised"
	case "acknowledged":
		return "Acknowledged"
	default:
		return event
	}
}

func (n *Notifier) shouldSend(alertID, eventType, content string) bool {
	if n == nil {
		return false
	}
	if n.cooldown <= 0 && n.dedupeWindow <= 0 {
		return true
	}
	key := notificationKey(alertID, eventType)
	now := n.clock.Now().UTC()
	hash := hashContent(content)

	n.mu.Lock()
	record, ok := n.sent[key]
	n.mu.Unlock()
	if !ok {
		return true
	}
	if n.cooldown > 0 && now.Sub(record.at) < n.cooldown {
		return false
	}
	if n.dedupeWindow > 0 && record.hash == hash && now.Sub(record.at) < n.dedupeWindow {
		return false
	}
	return true
}

func (n *Notifier) markSent(alertID, eventType, content string) {
	if n == nil {
		return
	}
	key := notificationKey(alertID, eventType)
	n.mu.Lock()
	n.sent[key] = sendRecord{
		at:   n.clock.Now().UTC(),
		hash: hashContent(content),
	}
	n.mu.Unlock()
}

func notificationKey(alertID, eventType string) string {
	return alertID + "|" + eventType
}

func hashContent(content string) string {
	sum := sha1.Sum([]byte(content))
	return hex.EncodeToString(sum[:8])
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
