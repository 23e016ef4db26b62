package service

import (
	"context"
	"sync"
	"time"

	"demand-service/internal/models"
	"demand-service/internal/util"

	"go.uber.org/zap"
)

// Session holds one client's coordinator plus its browse state: current
// filters, the cached visible list and the search debouncer.
type Session struct {
	Coordinator *Coordinator

	mu         sync.Mutex
	views      ViewBuilder
	pageSize   int
	searchTerm string
	category   string
	page       int
	seeded     bool
	visible    []models.ProductView
	debouncer  *Debouncer

	initOnce sync.Once
	initErr  error
}

// NewSession creates an uninitialized session; the first GetOrCreate call on
// the registry performs the catalog load.
func NewSession(coordinator *Coordinator, views ViewBuilder, pageSize int, debounceDelay time.Duration) *Session {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &Session{
		Coordinator: coordinator,
		views:       views,
		pageSize:    pageSize,
		category:    models.CategoryAll,
		page:        1,
		debouncer:   NewDebouncer(debounceDelay),
	}
}

func (s *Session) ensureInitialized(ctx context.Context) error {
	s.initOnce.Do(func() {
		s.initErr = s.Coordinator.Initialize(ctx)
		if s.initErr == nil {
			s.Refresh()
		}
	})
	return s.initErr
}

// Refresh recomputes the visible list from the current snapshot and filters
func (s *Session) Refresh() {
	snapshot := s.Coordinator.Snapshot()

	s.mu.Lock()
	s.visible = s.views.ComputeVisibleList(snapshot, s.searchTerm, s.category)
	s.mu.Unlock()
}

// SetSearchTerm updates the search filter and resets to page 1. Recomputation
// is debounced so rapid keystrokes coalesce into one rebuild.
func (s *Session) SetSearchTerm(term string) {
	s.mu.Lock()
	if s.seeded && s.searchTerm == term {
		s.mu.Unlock()
		return
	}
	s.searchTerm = term
	s.page = 1
	s.seeded = true
	s.mu.Unlock()

	s.debouncer.Trigger(s.Refresh)
}

// SetCategory updates the category filter, resets to page 1 and recomputes
// immediately.
func (s *Session) SetCategory(category string) {
	if category == "" {
		category = models.CategoryAll
	}

	s.mu.Lock()
	if s.seeded && s.category == category {
		s.mu.Unlock()
		return
	}
	s.category = category
	s.page = 1
	s.seeded = true
	s.mu.Unlock()

	s.Refresh()
}

// Browse applies both filters synchronously and returns the requested page.
// The first call on a fresh session seeds the filter state and honors the
// requested page; after that, a changed search term or category throws the
// cursor back to page 1. Request/response consumers use this; interactive
// consumers feed keystrokes through SetSearchTerm instead.
func (s *Session) Browse(searchTerm, category string, page int) ([]models.ProductView, int) {
	if category == "" {
		category = models.CategoryAll
	}

	snapshot := s.Coordinator.Snapshot()

	s.mu.Lock()
	defer s.mu.Unlock()

	filterChanged := s.seeded && (s.searchTerm != searchTerm || s.category != category)
	s.searchTerm = searchTerm
	s.category = category
	s.seeded = true
	s.visible = s.views.ComputeVisibleList(snapshot, searchTerm, category)

	if filterChanged {
		s.page = 1
	} else if page >= 1 {
		s.page = page
	}

	return Paginate(s.visible, s.page, s.pageSize), len(s.visible)
}

// VisiblePage returns one page of the cached visible list
func (s *Session) VisiblePage(page int) []models.ProductView {
	s.mu.Lock()
	defer s.mu.Unlock()

	if page >= 1 {
		s.page = page
	}
	return Paginate(s.visible, s.page, s.pageSize)
}

// CurrentPage returns the session's page cursor
func (s *Session) CurrentPage() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// Close releases the session's timers
func (s *Session) Close() {
	s.debouncer.Stop()
}

// SessionRegistry tracks live sessions by voter id and fans push-channel
// events out to all of them, the originating session included.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	factory  func(voterID string) *Session
	logger   *zap.Logger
}

// NewSessionRegistry creates a registry with a session factory
func NewSessionRegistry(factory func(voterID string) *Session) *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*Session),
		factory:  factory,
		logger:   util.GetLogger(),
	}
}

// GetOrCreate returns the voter's session, creating and initializing it on
// first use. A failed initialization evicts the session so the next call can
// retry with a fresh load.
func (r *SessionRegistry) GetOrCreate(ctx context.Context, voterID string) (*Session, error) {
	r.mu.Lock()
	session, ok := r.sessions[voterID]
	if !ok {
		session = r.factory(voterID)
		r.sessions[voterID] = session
	}
	r.mu.Unlock()

	if err := session.ensureInitialized(ctx); err != nil {
		r.mu.Lock()
		if r.sessions[voterID] == session {
			delete(r.sessions, voterID)
		}
		r.mu.Unlock()
		return nil, err
	}
	return session, nil
}

// Get returns an existing session or nil
func (r *SessionRegistry) Get(voterID string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[voterID]
}

// Len returns the number of live sessions
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// BroadcastVoteInserted delivers one push-channel event to every session
func (r *SessionRegistry) BroadcastVoteInserted(productID, voterID string) {
	r.mu.RLock()
	targets := make([]*Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		targets = append(targets, session)
	}
	r.mu.RUnlock()

	for _, session := range targets {
		session.Coordinator.OnRemoteVoteInserted(productID, voterID)
		session.Refresh()
	}

	r.logger.Debug("Vote event broadcast",
		zap.String("product_id", productID),
		zap.Int("sessions", len(targets)))
}
