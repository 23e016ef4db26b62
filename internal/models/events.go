package models

import "time"

// Event types
const (
	EventTypeVoteInserted     = "VOTE_INSERTED"
	EventTypeProductRequested = "PRODUCT_REQUESTED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// VoteInsertedEvent is published after a vote row commits. It fans out to
// every connected session, including the one that cast the vote.
type VoteInsertedEvent struct {
	BaseEvent
	ProductID string `json:"product_id"`
	VoterID   string `json:"voter_id"`
}

// ProductRequestedEvent is published when a customer-requested product is
// added to the catalog.
type ProductRequestedEvent struct {
	BaseEvent
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	VoterID   string `json:"voter_id"`
}
