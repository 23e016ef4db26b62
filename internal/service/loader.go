package service

import (
	"context"
	"fmt"
	"time"

	"demand-service/internal/models"
	"demand-service/internal/util"

	"go.uber.org/zap"
)

// CatalogStore is the slice of the backing store the voting core consumes.
// *store.Store satisfies it; tests substitute scripted fakes.
type CatalogStore interface {
	GetProductViewPage(ctx context.Context, orderBy string, offset, limit int) ([]models.ProductView, error)
	GetVotedProductIDs(ctx context.Context, voterID string, productIDs []string) (map[string]bool, error)
	InsertProduct(ctx context.Context, p *models.Product) error
	InsertVote(ctx context.Context, productID, voterID string) error
}

// Loader pulls the entire catalog-with-votes read model out of the store in
// fixed-size chunks and assembles the per-voter snapshot.
type Loader struct {
	store     CatalogStore
	chunkSize int
	maxRows   int
	logger    *zap.Logger
}

// NewLoader creates a loader. Non-positive tuning values fall back to the
// defaults (1000-row chunks, 20000-row ceiling).
func NewLoader(store CatalogStore, chunkSize, maxRows int) *Loader {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if maxRows <= 0 {
		maxRows = 20000
	}
	return &Loader{
		store:     store,
		chunkSize: chunkSize,
		maxRows:   maxRows,
		logger:    util.GetLogger(),
	}
}

// LoadViews retrieves the whole read model in the requested ordering, paging
// until a short chunk signals exhaustion. The row ceiling bounds worst-case
// memory; hitting it stops the load early with a logged warning.
func (l *Loader) LoadViews(ctx context.Context, orderBy string) ([]models.ProductView, error) {
	var all []models.ProductView
	offset := 0

	for {
		page, err := l.store.GetProductViewPage(ctx, orderBy, offset, l.chunkSize)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog page at offset %d: %w", offset, err)
		}
		if len(page) == 0 {
			break
		}

		all = append(all, page...)
		util.CatalogRowsLoaded.Add(float64(len(page)))

		if len(all) >= l.maxRows {
			util.CatalogLoadTruncations.Inc()
			l.logger.Warn("Catalog load truncated at row ceiling",
				zap.Int("rows", len(all)),
				zap.Int("ceiling", l.maxRows))
			break
		}
		if len(page) < l.chunkSize {
			break
		}
		offset += l.chunkSize
	}

	return all, nil
}

// LoadSnapshot builds the initial per-voter snapshot: full name-ordered load,
// voter membership tagging, then dedupe by product id. Overlapping pages or
// store anomalies must never produce two entries for one id; the first
// occurrence wins, consistently.
func (l *Loader) LoadSnapshot(ctx context.Context, voterID string) (map[string]models.ProductView, error) {
	start := time.Now()
	defer func() {
		util.CatalogLoadLatency.Observe(time.Since(start).Seconds())
	}()

	views, err := l.LoadViews(ctx, models.OrderByName)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(views))
	for i := range views {
		ids = append(ids, views[i].ID)
	}

	voted, err := l.store.GetVotedProductIDs(ctx, voterID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load voter membership: %w", err)
	}

	snapshot := make(map[string]models.ProductView, len(views))
	duplicates := 0
	for i := range views {
		view := views[i]
		if _, seen := snapshot[view.ID]; seen {
			duplicates++
			continue
		}
		view.UserHasVoted = voted[view.ID]
		snapshot[view.ID] = view
	}

	if duplicates > 0 {
		util.CatalogDuplicateIDs.Add(float64(duplicates))
		l.logger.Warn("Dropped duplicate product ids during snapshot load",
			zap.Int("duplicates", duplicates),
			zap.Int("kept", len(snapshot)))
	}

	l.logger.Info("Catalog snapshot loaded",
		zap.String("voter_id", voterID),
		zap.Int("products", len(snapshot)))

	return snapshot, nil
}
