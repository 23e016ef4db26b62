package worker

import (
	"context"
	"log"

	"demand-service/internal/broker"
	"demand-service/internal/models"
	"demand-service/internal/service"
)

// VoteWorker consumes the vote topic and feeds every insert event into the
// session registry, so each connected session sees every new ledger row,
// including rows it created itself.
type VoteWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	registry     *service.SessionRegistry
}

// NewVoteWorker creates a new vote worker
func NewVoteWorker(consumer *broker.Consumer, registry *service.SessionRegistry) *VoteWorker {
	eventHandler := broker.NewEventHandler()

	eventHandler.OnVoteInserted(func(ctx context.Context, event *models.VoteInsertedEvent) error {
		registry.BroadcastVoteInserted(event.ProductID, event.VoterID)
		return nil
	})

	return &VoteWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
		registry:     registry,
	}
}

// Start starts the worker
func (w *VoteWorker) Start(ctx context.Context) error {
	log.Println("Starting vote worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *VoteWorker) Stop() error {
	log.Println("Stopping vote worker...")
	return w.consumer.Close()
}
