package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"demand-service/internal/models"
	"demand-service/internal/store"
	"demand-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// VoteCache mirrors committed votes in a fast store. *redisclient.Client
// satisfies it. A nil cache is allowed; cache failures never affect outcomes.
type VoteCache interface {
	RecordVote(ctx context.Context, productID, voterID string) (bool, error)
}

// VotePublisher feeds the push channel. *broker.EventPublisher satisfies it.
type VotePublisher interface {
	PublishVoteInserted(ctx context.Context, event *models.VoteInsertedEvent) error
	PublishProductRequested(ctx context.Context, event *models.ProductRequestedEvent) error
}

const requestedImageURL = "https://images.unsplash.com/photo-1578662996442-48f60103fc96?w=200"

// VoteResult is the discriminated outcome of a vote attempt
type VoteResult struct {
	Status    string `json:"status"`
	ProductID string `json:"product_id"`
	VoteCount int    `json:"vote_count"`
	Reason    string `json:"reason,omitempty"`
}

// RequestResult is the discriminated outcome of a new-product request
type RequestResult struct {
	Status  string              `json:"status"`
	Product *models.ProductView `json:"product,omitempty"`
	Reason  string              `json:"reason,omitempty"`
}

// Coordinator owns one session's catalog snapshot and reconciles three vote
// paths into it: the local optimistic update, the direct insert response, and
// the asynchronous push stream. All snapshot mutation goes through its
// methods; the mutex serializes handler goroutines and the push worker, which
// are the session's only event sources.
type Coordinator struct {
	mu       sync.Mutex
	voterID  string
	snapshot map[string]models.ProductView

	loader    *Loader
	store     CatalogStore
	cache     VoteCache
	publisher VotePublisher
	logger    *zap.Logger
}

// NewCoordinator creates a coordinator for one voter
func NewCoordinator(voterID string, loader *Loader, st CatalogStore, cache VoteCache, publisher VotePublisher) *Coordinator {
	return &Coordinator{
		voterID:   voterID,
		snapshot:  make(map[string]models.ProductView),
		loader:    loader,
		store:     st,
		cache:     cache,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// VoterID returns the session's voter identity
func (c *Coordinator) VoterID() string {
	return c.voterID
}

// Initialize performs the full catalog load and voter tagging
func (c *Coordinator) Initialize(ctx context.Context) error {
	ctx, span := util.StartSpan(ctx, "Coordinator.Initialize")
	defer span.End()

	snapshot, err := c.loader.LoadSnapshot(ctx, c.voterID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.snapshot = snapshot
	c.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the current view map
func (c *Coordinator) Snapshot() map[string]models.ProductView {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]models.ProductView, len(c.snapshot))
	for id, view := range c.snapshot {
		out[id] = view
	}
	return out
}

// ProductView returns one product's current view
func (c *Coordinator) ProductView(productID string) (models.ProductView, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	view, ok := c.snapshot[productID]
	return view, ok
}

// Categories returns the distinct categories in the snapshot, sorted, with
// the wildcard first.
func (c *Coordinator) Categories() []string {
	c.mu.Lock()
	seen := make(map[string]bool, 32)
	for _, view := range c.snapshot {
		if view.Category != "" {
			seen[view.Category] = true
		}
	}
	c.mu.Unlock()

	cats := make([]string, 0, len(seen)+1)
	for cat := range seen {
		cats = append(cats, cat)
	}
	sort.Strings(cats)
	return append([]string{models.CategoryAll}, cats...)
}

// CastVote records the session voter's vote for a product. The snapshot is
// updated optimistically before the insert; the store's uniqueness constraint
// has the final word, and any non-success replays the exact inverse of the
// optimistic transition.
func (c *Coordinator) CastVote(ctx context.Context, productID string) VoteResult {
	ctx, span := util.StartSpan(ctx, "Coordinator.CastVote")
	defer span.End()

	c.mu.Lock()
	view, ok := c.snapshot[productID]
	if !ok {
		c.mu.Unlock()
		util.VotesFailedTotal.WithLabelValues("unknown_product").Inc()
		return VoteResult{Status: models.VoteStatusFailed, ProductID: productID, Reason: "unknown product"}
	}
	if view.UserHasVoted {
		// fast local rejection, mirrors the authoritative constraint
		count := view.VoteCount
		c.mu.Unlock()
		util.VotesDuplicateLocalTotal.Inc()
		return VoteResult{Status: models.VoteStatusAlreadyVoted, ProductID: productID, VoteCount: count}
	}

	view.VoteCount++
	view.UserHasVoted = true
	c.snapshot[productID] = view
	c.mu.Unlock()

	start := time.Now()
	err := c.store.InsertVote(ctx, productID, c.voterID)
	util.VoteInsertLatency.Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		util.VotesAcceptedTotal.Inc()
		c.logger.Info("Vote recorded",
			zap.String("product_id", productID),
			zap.String("voter_id", c.voterID))
		c.publishVote(ctx, productID)
		c.recordInCache(ctx, productID)
		return VoteResult{Status: models.VoteStatusAccepted, ProductID: productID, VoteCount: c.voteCount(productID)}

	case errors.Is(err, store.ErrDuplicateVote):
		count := c.revertOptimisticVote(productID)
		util.VotesDuplicateTotal.Inc()
		return VoteResult{Status: models.VoteStatusAlreadyVoted, ProductID: productID, VoteCount: count}

	default:
		count := c.revertOptimisticVote(productID)
		util.VotesFailedTotal.WithLabelValues("store_error").Inc()
		c.logger.Error("Vote insert failed",
			zap.String("product_id", productID),
			zap.Error(err))
		return VoteResult{Status: models.VoteStatusFailed, ProductID: productID, VoteCount: count, Reason: err.Error()}
	}
}

// revertOptimisticVote undoes the tentative transition: decrement floored at
// zero and clear the flag. The floor matters because foreign push events may
// have incremented the count while the insert was in flight.
func (c *Coordinator) revertOptimisticVote(productID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	view, ok := c.snapshot[productID]
	if !ok {
		return 0
	}
	if view.VoteCount > 0 {
		view.VoteCount--
	}
	view.UserHasVoted = false
	c.snapshot[productID] = view
	return view.VoteCount
}

// OnRemoteVoteInserted applies one push-channel event. Foreign votes increment
// the count; an event carrying the local voter id only converges the voted
// flag, never the count, because the direct-call path already owns the local
// increment. Breaking this asymmetry double-counts the session's own votes.
func (c *Coordinator) OnRemoteVoteInserted(productID, voterID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	view, ok := c.snapshot[productID]
	if !ok {
		c.logger.Debug("Vote event for product not in snapshot",
			zap.String("product_id", productID))
		return
	}

	if voterID == c.voterID {
		view.UserHasVoted = true
	} else {
		view.VoteCount++
	}
	c.snapshot[productID] = view
	util.RemoteVoteEventsTotal.Inc()
}

// RequestNewProduct adds a customer-requested product with an implicit first
// vote. The two writes are dependent, not atomic: a failed product insert
// aborts, a failed vote after a successful insert reports a distinct partial
// outcome and the product stays.
func (c *Coordinator) RequestNewProduct(ctx context.Context, name, category string) RequestResult {
	ctx, span := util.StartSpan(ctx, "Coordinator.RequestNewProduct")
	defer span.End()

	if name == "" {
		util.ProductRequestsFailedTotal.WithLabelValues("invalid_name").Inc()
		return RequestResult{Status: models.RequestStatusFailed, Reason: "product name is required"}
	}
	if category == "" {
		category = "Other"
	}

	product := &models.Product{
		ID:           uuid.NewString(),
		Name:         name,
		Category:     category,
		Description:  "Customer requested: " + name,
		ImageURL:     requestedImageURL,
		PackQuantity: 1,
	}

	if err := c.store.InsertProduct(ctx, product); err != nil {
		util.ProductRequestsFailedTotal.WithLabelValues("store_error").Inc()
		c.logger.Error("Product request insert failed",
			zap.String("name", name),
			zap.Error(err))
		return RequestResult{Status: models.RequestStatusFailed, Reason: err.Error()}
	}

	util.ProductsRequestedTotal.Inc()
	c.logger.Info("Product requested",
		zap.String("product_id", product.ID),
		zap.String("name", name),
		zap.String("category", category))
	c.publishProductRequested(ctx, product)

	view := models.ProductView{Product: *product}

	if err := c.store.InsertVote(ctx, product.ID, c.voterID); err != nil {
		// product exists without its first vote; the caller can retry the vote
		c.setView(view)
		util.ProductRequestsPartialTotal.Inc()
		c.logger.Warn("Implicit vote for requested product failed",
			zap.String("product_id", product.ID),
			zap.Error(err))
		return RequestResult{Status: models.RequestStatusPartial, Product: &view, Reason: err.Error()}
	}

	view.VoteCount = 1
	view.UserHasVoted = true
	c.setView(view)
	c.publishVote(ctx, product.ID)
	c.recordInCache(ctx, product.ID)

	return RequestResult{Status: models.RequestStatusCreated, Product: &view}
}

func (c *Coordinator) setView(view models.ProductView) {
	c.mu.Lock()
	c.snapshot[view.ID] = view
	c.mu.Unlock()
}

func (c *Coordinator) voteCount(productID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot[productID].VoteCount
}

func (c *Coordinator) publishVote(ctx context.Context, productID string) {
	if c.publisher == nil {
		return
	}
	event := &models.VoteInsertedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.NewString(),
			EventType: models.EventTypeVoteInserted,
			Timestamp: time.Now(),
		},
		ProductID: productID,
		VoterID:   c.voterID,
	}
	if err := c.publisher.PublishVoteInserted(ctx, event); err != nil {
		c.logger.Error("Failed to publish VoteInserted event", zap.Error(err))
	}
}

func (c *Coordinator) publishProductRequested(ctx context.Context, product *models.Product) {
	if c.publisher == nil {
		return
	}
	event := &models.ProductRequestedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.NewString(),
			EventType: models.EventTypeProductRequested,
			Timestamp: time.Now(),
		},
		ProductID: product.ID,
		Name:      product.Name,
		Category:  product.Category,
		VoterID:   c.voterID,
	}
	if err := c.publisher.PublishProductRequested(ctx, event); err != nil {
		c.logger.Error("Failed to publish ProductRequested event", zap.Error(err))
	}
}

func (c *Coordinator) recordInCache(ctx context.Context, productID string) {
	if c.cache == nil {
		return
	}
	if _, err := c.cache.RecordVote(ctx, productID, c.voterID); err != nil {
		c.logger.Warn("Failed to record vote in cache",
			zap.String("product_id", productID),
			zap.Error(err))
	}
}
