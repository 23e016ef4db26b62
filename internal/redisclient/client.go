package redisclient

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

//go:embed scripts/record_vote.lua
var recordVoteScript string

// Client mirrors vote counts in Redis for cheap reads. It is a cache only:
// the Postgres unique constraint stays authoritative, this just keeps counter
// and membership keys in step with committed ledger rows.
type Client struct {
	rdb          *redis.Client
	recordScript *redis.Script
}

// NewClient creates a new Redis client with the vote script loaded
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{
		rdb:          rdb,
		recordScript: redis.NewScript(recordVoteScript),
	}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func voterKey(voterID string) string {
	return fmt.Sprintf("voted:%s", voterID)
}

func productKey(productID string) string {
	return fmt.Sprintf("votes:%s", productID)
}

// RecordVote marks a committed vote in the cache: voter membership SADD and
// product counter INCR happen atomically in one Lua script. Returns false if
// the voter was already a member (counter untouched).
func (c *Client) RecordVote(ctx context.Context, productID, voterID string) (bool, error) {
	keys := []string{voterKey(voterID), productKey(productID)}

	result, err := c.recordScript.Run(ctx, c.rdb, keys, productID).Result()
	if err != nil {
		return false, fmt.Errorf("record vote script failed: %w", err)
	}

	added, ok := result.(int64)
	if !ok {
		return false, fmt.Errorf("unexpected script result type")
	}

	return added == 1, nil
}

// HasVoted checks voter membership for a product
func (c *Client) HasVoted(ctx context.Context, productID, voterID string) (bool, error) {
	return c.rdb.SIsMember(ctx, voterKey(voterID), productID).Result()
}

// GetVoteCount retrieves the cached counter for a product
func (c *Client) GetVoteCount(ctx context.Context, productID string) (int, error) {
	return c.rdb.Get(ctx, productKey(productID)).Int()
}

// SyncVoteCounts seeds product counters in one pipeline
func (c *Client) SyncVoteCounts(ctx context.Context, counts map[string]int) error {
	pipe := c.rdb.Pipeline()
	for productID, count := range counts {
		pipe.Set(ctx, productKey(productID), count, 0)
	}

	_, err := pipe.Exec(ctx)
	return err
}
