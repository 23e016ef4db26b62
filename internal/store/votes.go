package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// voterIDChunk bounds the size of a single IN query when checking vote
// membership over a large id set.
const voterIDChunk = 1000

// InsertVote appends one row to the vote ledger. The unique constraint over
// (product_id, voter_id) is authoritative: a conflict returns
// ErrDuplicateVote, which callers treat as an expected outcome, not a failure.
func (s *Store) InsertVote(ctx context.Context, productID, voterID string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO product_votes (product_id, voter_id) VALUES ($1, $2)",
		productID, voterID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == pgUniqueViolation {
			return ErrDuplicateVote
		}
		return fmt.Errorf("failed to insert vote: %w", err)
	}
	return nil
}

// GetVotedProductIDs returns which of the given product ids this voter has
// already voted for. Large id sets are chunked into bounded IN queries.
func (s *Store) GetVotedProductIDs(ctx context.Context, voterID string, productIDs []string) (map[string]bool, error) {
	voted := make(map[string]bool)
	if len(productIDs) == 0 {
		return voted, nil
	}

	for start := 0; start < len(productIDs); start += voterIDChunk {
		end := start + voterIDChunk
		if end > len(productIDs) {
			end = len(productIDs)
		}

		query, args, err := sqlx.In(
			"SELECT product_id FROM product_votes WHERE voter_id = ? AND product_id IN (?)",
			voterID, productIDs[start:end])
		if err != nil {
			return nil, err
		}
		query = s.db.Rebind(query)

		var ids []string
		if err := s.db.SelectContext(ctx, &ids, query, args...); err != nil {
			return nil, fmt.Errorf("failed to load voter membership: %w", err)
		}
		for _, id := range ids {
			voted[id] = true
		}
	}

	return voted, nil
}

// GetVoteCount returns the ledger count for one product
func (s *Store) GetVoteCount(ctx context.Context, productID string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM product_votes WHERE product_id = $1", productID)
	return count, err
}
