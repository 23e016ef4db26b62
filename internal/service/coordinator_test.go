package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"demand-service/internal/models"
	"demand-service/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu      sync.Mutex
	rows    []models.ProductView
	pageErr error

	voted map[string]bool

	insertVoteErr    error
	insertVoteHook   func()
	insertProductErr error

	pageCalls     int
	voteCalls     int
	productCalls  int
	insertedVotes []string
}

func (f *fakeStore) GetProductViewPage(ctx context.Context, orderBy string, offset, limit int) ([]models.ProductView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pageCalls++

	if f.pageErr != nil {
		return nil, f.pageErr
	}
	if offset >= len(f.rows) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.rows) {
		end = len(f.rows)
	}
	return f.rows[offset:end], nil
}

func (f *fakeStore) GetVotedProductIDs(ctx context.Context, voterID string, productIDs []string) (map[string]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(map[string]bool)
	for _, id := range productIDs {
		if f.voted[id] {
			out[id] = true
		}
	}
	return out, nil
}

func (f *fakeStore) InsertProduct(ctx context.Context, p *models.Product) error {
	f.mu.Lock()
	f.productCalls++
	err := f.insertProductErr
	f.mu.Unlock()
	return err
}

func (f *fakeStore) InsertVote(ctx context.Context, productID, voterID string) error {
	f.mu.Lock()
	f.voteCalls++
	f.insertedVotes = append(f.insertedVotes, productID)
	hook := f.insertVoteHook
	err := f.insertVoteErr
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	return err
}

type fakeCache struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeCache) RecordVote(ctx context.Context, productID, voterID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return true, nil
}

type fakePublisher struct {
	mu       sync.Mutex
	votes    []*models.VoteInsertedEvent
	requests []*models.ProductRequestedEvent
}

func (f *fakePublisher) PublishVoteInserted(ctx context.Context, event *models.VoteInsertedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.votes = append(f.votes, event)
	return nil
}

func (f *fakePublisher) PublishProductRequested(ctx context.Context, event *models.ProductRequestedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, event)
	return nil
}

func view(id, name, category string, votes int) models.ProductView {
	return models.ProductView{
		Product: models.Product{
			ID:          id,
			Name:        name,
			Category:    category,
			Description: name,
		},
		VoteCount: votes,
	}
}

func newTestCoordinator(t *testing.T, fs *fakeStore) *Coordinator {
	t.Helper()

	loader := NewLoader(fs, 1000, 20000)
	c := NewCoordinator("voter-1", loader, fs, &fakeCache{}, &fakePublisher{})
	require.NoError(t, c.Initialize(context.Background()))
	return c
}

func TestCastVoteAccepted(t *testing.T) {
	fs := &fakeStore{rows: []models.ProductView{view("p1", "Bananas", "Fresh Produce", 5)}}
	c := newTestCoordinator(t, fs)

	result := c.CastVote(context.Background(), "p1")

	assert.Equal(t, models.VoteStatusAccepted, result.Status)
	assert.Equal(t, 6, result.VoteCount)

	pv, ok := c.ProductView("p1")
	require.True(t, ok)
	assert.Equal(t, 6, pv.VoteCount)
	assert.True(t, pv.UserHasVoted)
	assert.Equal(t, 1, fs.voteCalls)
}

func TestCastVoteWithConcurrentForeignPush(t *testing.T) {
	fs := &fakeStore{rows: []models.ProductView{view("p1", "Bananas", "Fresh Produce", 5)}}
	c := newTestCoordinator(t, fs)

	// a different voter's push event lands while the insert is in flight;
	// both increments must land exactly once each
	fs.insertVoteHook = func() {
		c.OnRemoteVoteInserted("p1", "voter-2")
	}

	result := c.CastVote(context.Background(), "p1")

	assert.Equal(t, models.VoteStatusAccepted, result.Status)

	pv, _ := c.ProductView("p1")
	assert.Equal(t, 7, pv.VoteCount)
	assert.True(t, pv.UserHasVoted)
}

func TestCastVoteTwiceRejectsLocally(t *testing.T) {
	fs := &fakeStore{rows: []models.ProductView{view("p1", "Bananas", "Fresh Produce", 0)}}
	c := newTestCoordinator(t, fs)

	first := c.CastVote(context.Background(), "p1")
	require.Equal(t, models.VoteStatusAccepted, first.Status)

	second := c.CastVote(context.Background(), "p1")

	assert.Equal(t, models.VoteStatusAlreadyVoted, second.Status)
	assert.Equal(t, 1, second.VoteCount)
	assert.Equal(t, 1, fs.voteCalls, "second attempt must not hit the store")
}

func TestCastVoteDuplicateReverts(t *testing.T) {
	fs := &fakeStore{
		rows:          []models.ProductView{view("p1", "Bananas", "Fresh Produce", 3)},
		insertVoteErr: store.ErrDuplicateVote,
	}
	c := newTestCoordinator(t, fs)

	before, _ := c.ProductView("p1")
	result := c.CastVote(context.Background(), "p1")

	assert.Equal(t, models.VoteStatusAlreadyVoted, result.Status)

	after, _ := c.ProductView("p1")
	assert.Equal(t, before.VoteCount, after.VoteCount, "optimistic increment must be fully reverted")
	assert.Equal(t, before.UserHasVoted, after.UserHasVoted)
}

func TestCastVoteStoreFailureReverts(t *testing.T) {
	fs := &fakeStore{
		rows:          []models.ProductView{view("p1", "Bananas", "Fresh Produce", 3)},
		insertVoteErr: fmt.Errorf("connection refused"),
	}
	c := newTestCoordinator(t, fs)

	result := c.CastVote(context.Background(), "p1")

	assert.Equal(t, models.VoteStatusFailed, result.Status)
	assert.Contains(t, result.Reason, "connection refused")

	pv, _ := c.ProductView("p1")
	assert.Equal(t, 3, pv.VoteCount)
	assert.False(t, pv.UserHasVoted)
}

func TestCastVoteRevertFloorsAtZero(t *testing.T) {
	fs := &fakeStore{
		rows:          []models.ProductView{view("p1", "Bananas", "Fresh Produce", 0)},
		insertVoteErr: fmt.Errorf("store down"),
	}
	c := newTestCoordinator(t, fs)

	result := c.CastVote(context.Background(), "p1")

	assert.Equal(t, models.VoteStatusFailed, result.Status)
	pv, _ := c.ProductView("p1")
	assert.Equal(t, 0, pv.VoteCount)
}

func TestCastVoteUnknownProduct(t *testing.T) {
	fs := &fakeStore{}
	c := newTestCoordinator(t, fs)

	result := c.CastVote(context.Background(), "missing")

	assert.Equal(t, models.VoteStatusFailed, result.Status)
	assert.Equal(t, 0, fs.voteCalls)
}

func TestOnRemoteVoteOwnIDOnlySetsFlag(t *testing.T) {
	fs := &fakeStore{rows: []models.ProductView{view("p1", "Bananas", "Fresh Produce", 2)}}
	c := newTestCoordinator(t, fs)

	// the session's own insert confirmed through the push channel must not
	// increment again; the direct-call path owns the count
	c.OnRemoteVoteInserted("p1", c.VoterID())

	pv, _ := c.ProductView("p1")
	assert.Equal(t, 2, pv.VoteCount)
	assert.True(t, pv.UserHasVoted)
}

func TestOnRemoteVoteForeignIDIncrements(t *testing.T) {
	fs := &fakeStore{rows: []models.ProductView{view("p1", "Bananas", "Fresh Produce", 2)}}
	c := newTestCoordinator(t, fs)

	c.OnRemoteVoteInserted("p1", "voter-2")
	c.OnRemoteVoteInserted("p1", "voter-3")

	pv, _ := c.ProductView("p1")
	assert.Equal(t, 4, pv.VoteCount)
	assert.False(t, pv.UserHasVoted)
}

func TestInitializeTagsVoterMembership(t *testing.T) {
	fs := &fakeStore{
		rows: []models.ProductView{
			view("p1", "Bananas", "Fresh Produce", 2),
			view("p2", "Apples", "Fresh Produce", 1),
		},
		voted: map[string]bool{"p1": true},
	}
	c := newTestCoordinator(t, fs)

	p1, _ := c.ProductView("p1")
	p2, _ := c.ProductView("p2")
	assert.True(t, p1.UserHasVoted)
	assert.False(t, p2.UserHasVoted)
}

func TestRequestNewProductSuccess(t *testing.T) {
	fs := &fakeStore{}
	pub := &fakePublisher{}
	loader := NewLoader(fs, 1000, 20000)
	c := NewCoordinator("voter-1", loader, fs, &fakeCache{}, pub)
	require.NoError(t, c.Initialize(context.Background()))

	result := c.RequestNewProduct(context.Background(), "Oat Milk", "Fresh Dairy")

	require.Equal(t, models.RequestStatusCreated, result.Status)
	require.NotNil(t, result.Product)
	assert.NotEmpty(t, result.Product.ID)
	assert.Equal(t, "Oat Milk", result.Product.Name)
	assert.Equal(t, "Customer requested: Oat Milk", result.Product.Description)
	assert.Equal(t, 1, result.Product.VoteCount)
	assert.True(t, result.Product.UserHasVoted)

	pv, ok := c.ProductView(result.Product.ID)
	require.True(t, ok)
	assert.Equal(t, 1, pv.VoteCount)

	assert.Len(t, pub.requests, 1)
	assert.Len(t, pub.votes, 1)
}

func TestRequestNewProductVoteFailureIsPartial(t *testing.T) {
	fs := &fakeStore{insertVoteErr: fmt.Errorf("store unavailable")}
	c := newTestCoordinator(t, fs)

	result := c.RequestNewProduct(context.Background(), "Oat Milk", "Fresh Dairy")

	require.Equal(t, models.RequestStatusPartial, result.Status)
	require.NotNil(t, result.Product)

	// the product stays in the catalog, unvoted
	pv, ok := c.ProductView(result.Product.ID)
	require.True(t, ok)
	assert.Equal(t, 0, pv.VoteCount)
	assert.False(t, pv.UserHasVoted)

	// and the default landing view must not show it
	visible := NewViewBuilder(12).ComputeVisibleList(c.Snapshot(), "", models.CategoryAll)
	for _, v := range visible {
		assert.NotEqual(t, result.Product.ID, v.ID)
	}

	// but a matching search does, with zero votes
	matches := NewViewBuilder(12).ComputeVisibleList(c.Snapshot(), "oat milk", models.CategoryAll)
	require.Len(t, matches, 1)
	assert.Equal(t, 0, matches[0].VoteCount)
	assert.False(t, matches[0].UserHasVoted)
}

func TestRequestNewProductInsertFailureAborts(t *testing.T) {
	fs := &fakeStore{insertProductErr: fmt.Errorf("store unavailable")}
	c := newTestCoordinator(t, fs)

	result := c.RequestNewProduct(context.Background(), "Oat Milk", "Fresh Dairy")

	assert.Equal(t, models.RequestStatusFailed, result.Status)
	assert.Nil(t, result.Product)
	assert.Equal(t, 0, fs.voteCalls, "vote must not be attempted after a failed product insert")
}

func TestRequestNewProductEmptyName(t *testing.T) {
	fs := &fakeStore{}
	c := newTestCoordinator(t, fs)

	result := c.RequestNewProduct(context.Background(), "", "Fresh Dairy")

	assert.Equal(t, models.RequestStatusFailed, result.Status)
	assert.Equal(t, 0, fs.productCalls)
}

func TestCategories(t *testing.T) {
	fs := &fakeStore{
		rows: []models.ProductView{
			view("p1", "Bananas", "Fresh Produce", 0),
			view("p2", "Milk", "Fresh Dairy", 0),
			view("p3", "Apples", "Fresh Produce", 0),
		},
	}
	c := newTestCoordinator(t, fs)

	assert.Equal(t, []string{"All", "Fresh Dairy", "Fresh Produce"}, c.Categories())
}
