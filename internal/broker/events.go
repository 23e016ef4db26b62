package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"demand-service/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishVoteInserted publishes a VoteInserted event, keyed by product so
// votes for one product stay ordered.
func (ep *EventPublisher) PublishVoteInserted(ctx context.Context, event *models.VoteInsertedEvent) error {
	key := fmt.Sprintf("product-%s", event.ProductID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishProductRequested publishes a ProductRequested event
func (ep *EventPublisher) PublishProductRequested(ctx context.Context, event *models.ProductRequestedEvent) error {
	key := fmt.Sprintf("product-%s", event.ProductID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// EventHandler routes incoming vote-topic events
type EventHandler struct {
	onVoteInserted     func(context.Context, *models.VoteInsertedEvent) error
	onProductRequested func(context.Context, *models.ProductRequestedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnVoteInserted registers a handler for VoteInserted events
func (eh *EventHandler) OnVoteInserted(handler func(context.Context, *models.VoteInsertedEvent) error) {
	eh.onVoteInserted = handler
}

// OnProductRequested registers a handler for ProductRequested events
func (eh *EventHandler) OnProductRequested(handler func(context.Context, *models.ProductRequestedEvent) error) {
	eh.onProductRequested = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	switch baseEvent.EventType {
	case models.EventTypeVoteInserted:
		if eh.onVoteInserted != nil {
			var event models.VoteInsertedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal VoteInserted event: %w", err)
			}
			return eh.onVoteInserted(ctx, &event)
		}

	case models.EventTypeProductRequested:
		if eh.onProductRequested != nil {
			var event models.ProductRequestedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal ProductRequested event: %w", err)
			}
			return eh.onProductRequested(ctx, &event)
		}

	default:
		log.Printf("Unhandled event type: %s", baseEvent.EventType)
	}

	return nil
}
