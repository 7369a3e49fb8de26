package client

import (
	"context"
	"errors"
	"sync"

	"github.com/hammad-gujjar/dacci-apparel-sub000/pkg/types"
)

// DefaultMediaLimit is the media page size when none is configured.
const DefaultMediaLimit = 18

// ErrPageInFlight is returned by LoadNext while another page request runs.
var ErrPageInFlight = errors.New("client: a media page request is already in flight")

// CursorPager accumulates pages of the media grid in order. Only one page
// request runs at a time. Its selection is independent of any table and
// survives page loads.
type CursorPager struct {
	api   API
	limit int

	mu        sync.Mutex
	view      types.DeleteView
	items     []types.Media
	next      int
	hasMore   bool
	inflight  bool
	selection map[string]struct{}
	// epoch increases on SetDeleteView; responses of an older epoch are dropped.
	epoch uint64
}

// NewCursorPager creates a pager over the active view. A non-positive limit
// uses DefaultMediaLimit.
func NewCursorPager(api API, limit int) *CursorPager {
	if limit <= 0 {
		limit = DefaultMediaLimit
	}
	return &CursorPager{
		api:       api,
		limit:     limit,
		view:      types.ViewActive,
		hasMore:   true,
		selection: map[string]struct{}{},
	}
}

// LoadNext fetches the next page and appends it. It returns the new items,
// or nil once the server reported no more pages.
func (p *CursorPager) LoadNext(ctx context.Context) ([]types.Media, error) {
	p.mu.Lock()
	if p.inflight {
		p.mu.Unlock()
		return nil, ErrPageInFlight
	}
	if !p.hasMore {
		p.mu.Unlock()
		return nil, nil
	}
	p.inflight = true
	params := types.MediaParams{Page: p.next, Limit: p.limit, View: p.view}
	epoch := p.epoch
	p.mu.Unlock()

	page, err := p.api.BrowseMedia(ctx, params)

	p.mu.Lock()
	defer p.mu.Unlock()
	if epoch != p.epoch {
		return nil, ErrSuperseded
	}
	p.inflight = false
	if err != nil {
		return nil, err
	}
	p.items = append(p.items, page.Items...)
	p.next++
	p.hasMore = page.HasMore
	return page.Items, nil
}

// Items returns every item loaded so far, in page order.
func (p *CursorPager) Items() []types.Media {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]types.Media, len(p.items))
	copy(out, p.items)
	return out
}

// HasMore reports whether another page may be loaded.
func (p *CursorPager) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasMore
}

// View returns the lifecycle view being browsed.
func (p *CursorPager) View() types.DeleteView {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.view
}

// SetDeleteView restarts paging on view v and clears the selection. A
// request still in flight for the previous view is discarded.
func (p *CursorPager) SetDeleteView(v types.DeleteView) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if v == "" {
		v = types.ViewActive
	}
	p.view = v
	p.items = nil
	p.next = 0
	p.hasMore = true
	p.inflight = false
	p.selection = map[string]struct{}{}
	p.epoch++
}

// Toggle flips the selection of id and reports whether it is now selected.
func (p *CursorPager) Toggle(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.selection[id]; ok {
		delete(p.selection, id)
		return false
	}
	p.selection[id] = struct{}{}
	return true
}

// Selected returns the selected ids in item order.
func (p *CursorPager) Selected() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, m := range p.items {
		if _, ok := p.selection[m.ID]; ok {
			out = append(out, m.ID)
		}
	}
	return out
}

// ClearSelection empties the selection.
func (p *CursorPager) ClearSelection() {
	p.mu.Lock()
	p.selection = map[string]struct{}{}
	p.mu.Unlock()
}
