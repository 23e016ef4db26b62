package models

import "time"

// Product represents a catalog record, created once by the importer or by a
// customer request and immutable afterwards.
type Product struct {
	ID              string    `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	Category        string    `db:"category" json:"category"`
	Description     string    `db:"description" json:"description"`
	ImageURL        string    `db:"image_url" json:"image_url"`
	CostPrice       float64   `db:"cost_price" json:"cost_price"`
	RetailPrice     float64   `db:"retail_price" json:"retail_price"`
	PackQuantity    int       `db:"pack_quantity" json:"pack_quantity"`
	UnitSize        string    `db:"unit_size" json:"unit_size"`
	UnitDescription string    `db:"unit_description" json:"unit_description"`
	Barcode         string    `db:"barcode" json:"barcode"`
	SupplierCode    string    `db:"supplier_code" json:"supplier_code"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// Vote is one row of the vote ledger. The (product_id, voter_id) pair is
// unique in the store; that constraint is the authority on duplicates.
type Vote struct {
	ProductID string    `db:"product_id" json:"product_id"`
	VoterID   string    `db:"voter_id" json:"voter_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ProductView is the derived per-voter read model: a product joined with its
// aggregate vote count and whether the current voter already voted for it.
// Always recomputable from Product + Vote sets; cached, never authoritative.
type ProductView struct {
	Product
	VoteCount    int  `db:"vote_count" json:"vote_count"`
	UserHasVoted bool `db:"-" json:"user_has_voted"`
}

// Vote outcomes
const (
	VoteStatusAccepted     = "ACCEPTED"
	VoteStatusAlreadyVoted = "ALREADY_VOTED"
	VoteStatusFailed       = "FAILED"
)

// Product request outcomes
const (
	RequestStatusCreated = "CREATED"
	RequestStatusPartial = "CREATED_VOTE_FAILED"
	RequestStatusFailed  = "FAILED"
)

// Snapshot load orderings
const (
	OrderByName      = "name"
	OrderByVoteCount = "vote_count"
)

// CategoryAll is the wildcard category filter.
const CategoryAll = "All"
