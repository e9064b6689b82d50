package application

import (
	"context"
	"errors"
	"log"
	"time"

	"farmpulse/internal/eventbus"
	"farmpulse/internal/readings/application/events"
)

// Consumer reacts to ingested readings by evaluating the affected unit
// immediately instead of waiting for the next scheduled pass.
type Consumer struct {
	engine *Engine
	logger *log.Logger
}

// NewConsumer constructs a Consumer.
func NewConsumer(engine *Engine, logger *log.Logger) (*Consumer, error) {
	if engine == nil {
		return nil, errors.New("evaluation consumer: nil engine")
	}
	return &Consumer{engine: engine, logger: logger}, nil
}

// Register subscribes the consumer to reading events.
func (c *Consumer) Register(bus *eventbus.InMemoryBus) {
	if c == nil || bus == nil {
		return
	}
	bus.Subscribe(eventbus.EventTypeOf[events.ReadingReceived](), c.handle)
}

func (c *Consumer) handle(ctx context.Context, event any) error {
	var received events.ReadingReceived
	switch e := event.(type) {
	case events.ReadingReceived:
		received = e
	case *events.ReadingReceived:
		if e == nil {
			return nil
		}
		received = *e
	default:
		return nil
	}

	now := received.OccurredAt
	if now.IsZero() {
		now = time.Now().UTC()
	}
	alert, err := c.engine.EvaluateEquipment(ctx, received.EquipmentID, now)
	if err != nil {
		if c.logger != nil {
			c.logger.Printf("evaluation: reading event failed: equipment=%s err=%v", received.EquipmentID, err)
		}
		return err
	}
	if alert != nil && c.logger != nil {
		c.logger.Printf("evaluation: alert raised: id=%s zone=%s type=%s", alert.ID, alert.ZoneID, alert.ReadingTypeCode)
	}
	return nil
}
