package service

import (
	"sort"
	"strings"
	"sync"
	"time"

	"demand-service/internal/models"
)

// ViewBuilder composes search, category filter and vote ranking into the
// exact list a consumer sees.
type ViewBuilder struct {
	popularCap int
}

// NewViewBuilder creates a view builder; a non-positive cap falls back to 12.
func NewViewBuilder(popularCap int) ViewBuilder {
	if popularCap <= 0 {
		popularCap = 12
	}
	return ViewBuilder{popularCap: popularCap}
}

// ComputeVisibleList derives the visible product list from a snapshot.
//
// With no search term and the wildcard category this is the landing view:
// only products that have at least one vote, ranked by count, capped. A
// zero-vote product stays invisible until a filter narrows the scope or it
// receives its first vote. Any other filter combination returns every match
// regardless of vote count, still vote-ranked, uncapped.
func (vb ViewBuilder) ComputeVisibleList(snapshot map[string]models.ProductView, searchTerm, category string) []models.ProductView {
	if searchTerm == "" && category == models.CategoryAll {
		popular := make([]models.ProductView, 0, len(snapshot))
		for _, view := range snapshot {
			if view.VoteCount > 0 {
				popular = append(popular, view)
			}
		}
		sortByVotes(popular)
		if len(popular) > vb.popularCap {
			popular = popular[:vb.popularCap]
		}
		return popular
	}

	needle := strings.ToLower(searchTerm)
	matches := make([]models.ProductView, 0, len(snapshot))
	for _, view := range snapshot {
		if needle != "" &&
			!strings.Contains(strings.ToLower(view.Name), needle) &&
			!strings.Contains(strings.ToLower(view.Description), needle) {
			continue
		}
		if category != models.CategoryAll && view.Category != category {
			continue
		}
		matches = append(matches, view)
	}
	sortByVotes(matches)
	return matches
}

// sortByVotes orders by vote count descending; name then id break ties so the
// ordering is total and stable across map iterations.
func sortByVotes(views []models.ProductView) {
	sort.Slice(views, func(i, j int) bool {
		if views[i].VoteCount != views[j].VoteCount {
			return views[i].VoteCount > views[j].VoteCount
		}
		if views[i].Name != views[j].Name {
			return views[i].Name < views[j].Name
		}
		return views[i].ID < views[j].ID
	})
}

// Paginate slices one 1-indexed page out of a list. An out-of-range page
// yields an empty slice, never an error.
func Paginate(list []models.ProductView, page, pageSize int) []models.ProductView {
	if page < 1 || pageSize < 1 {
		return []models.ProductView{}
	}
	start := (page - 1) * pageSize
	if start >= len(list) {
		return []models.ProductView{}
	}
	end := start + pageSize
	if end > len(list) {
		end = len(list)
	}
	return list[start:end]
}

// TotalPages returns how many pages a list spans
func TotalPages(listLen, pageSize int) int {
	if pageSize < 1 || listLen < 1 {
		return 0
	}
	return (listLen + pageSize - 1) / pageSize
}

// Debouncer coalesces rapid triggers into one callback after a quiet period.
// Search keystrokes drive it so the filtered view is not recomputed per key.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
}

// NewDebouncer creates a debouncer with the given quiet period
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Trigger schedules fn after the quiet period, replacing any pending call
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

// Stop cancels any pending call
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
