package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"fulfillment-service/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher handles publishing fulfillment domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishBagCreated publishes BagCreated event
func (ep *EventPublisher) PublishBagCreated(ctx context.Context, event *models.BagCreatedEvent) error {
	key := fmt.Sprintf("bag-%s", event.BagID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishBagStatusChanged publishes BagStatusChanged event
func (ep *EventPublisher) PublishBagStatusChanged(ctx context.Context, event *models.BagStatusChangedEvent) error {
	key := fmt.Sprintf("bag-%s", event.BagID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishPickCompleted publishes PickCompleted event
func (ep *EventPublisher) PublishPickCompleted(ctx context.Context, event *models.PickCompletedEvent) error {
	key := fmt.Sprintf("bag-%s", event.BagID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishBatchStatusChanged publishes BatchStatusChanged event
func (ep *EventPublisher) PublishBatchStatusChanged(ctx context.Context, event *models.BatchStatusChangedEvent) error {
	key := fmt.Sprintf("batch-%s", event.BatchID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishLowStock publishes LowStock event
func (ep *EventPublisher) PublishLowStock(ctx context.Context, event *models.LowStockEvent) error {
	key := fmt.Sprintf("category-%s", event.CategoryID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PickCompletedHandler handles PickCompleted events
type PickCompletedHandler func(ctx context.Context, event *models.PickCompletedEvent) error

// BagStatusChangedHandler handles BagStatusChanged events
type BagStatusChangedHandler func(ctx context.Context, event *models.BagStatusChangedEvent) error

// BatchStatusChangedHandler handles BatchStatusChanged events
type BatchStatusChangedHandler func(ctx context.Context, event *models.BatchStatusChangedEvent) error

// EventHandler routes consumed messages to registered handlers by
// event type. Unregistered event types are skipped.
type EventHandler struct {
	pickCompletedHandler      PickCompletedHandler
	bagStatusChangedHandler   BagStatusChangedHandler
	batchStatusChangedHandler BatchStatusChangedHandler
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnPickCompleted registers a handler for PickCompleted events
func (eh *EventHandler) OnPickCompleted(handler PickCompletedHandler) {
	eh.pickCompletedHandler = handler
}

// OnBagStatusChanged registers a handler for BagStatusChanged events
func (eh *EventHandler) OnBagStatusChanged(handler BagStatusChangedHandler) {
	eh.bagStatusChangedHandler = handler
}

// OnBatchStatusChanged registers a handler for BatchStatusChanged events
func (eh *EventHandler) OnBatchStatusChanged(handler BatchStatusChangedHandler) {
	eh.batchStatusChangedHandler = handler
}

// HandleMessage dispatches a Kafka message to the matching handler
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var base models.BaseEvent
	if err := json.Unmarshal(msg.Value, &base); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	switch base.EventType {
	case models.EventTypePickCompleted:
		if eh.pickCompletedHandler == nil {
			return nil
		}
		var event models.PickCompletedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			return fmt.Errorf("failed to unmarshal PickCompleted event: %w", err)
		}
		return eh.pickCompletedHandler(ctx, &event)

	case models.EventTypeBagStatusChanged:
		if eh.bagStatusChangedHandler == nil {
			return nil
		}
		var event models.BagStatusChangedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			return fmt.Errorf("failed to unmarshal BagStatusChanged event: %w", err)
		}
		return eh.bagStatusChangedHandler(ctx, &event)

	case models.EventTypeBatchStatusChanged:
		if eh.batchStatusChangedHandler == nil {
			return nil
		}
		var event models.BatchStatusChangedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			return fmt.Errorf("failed to unmarshal BatchStatusChanged event: %w", err)
		}
		return eh.batchStatusChangedHandler(ctx, &event)

	default:
		log.Printf("Skipping event type: %s", base.EventType)
		return nil
	}
}
