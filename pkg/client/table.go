package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/domain"
	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/export"
	"github.com/hammad-gujjar/dacci-apparel-sub000/pkg/types"
)

const defaultPageSize = 10

var (
	// ErrSuperseded is returned by a read whose table state changed while it
	// was in flight. Its result was discarded.
	ErrSuperseded = errors.New("client: result superseded by a newer table state")
	// ErrNotOffered is returned for a transition the current view does not offer.
	ErrNotOffered = errors.New("client: transition not offered in the current view")
	// ErrNotConfirmed is returned when a permanent delete was not approved.
	ErrNotConfirmed = errors.New("client: permanent delete not confirmed")
	// ErrNoIDs is returned for a lifecycle action without ids.
	ErrNoIDs = errors.New("client: no ids given")
	// ErrSelectionNotLoaded is returned by an export whose selection holds an
	// id that was never displayed, so there is no row to write for it.
	ErrSelectionNotLoaded = errors.New("client: selected row was never loaded")
)

// ConfirmFunc approves a permanent delete of ids. Returning false cancels it.
type ConfirmFunc func(ctx context.Context, resource string, ids []string) bool

// TableState is the complete state of one table.
type TableState struct {
	Filters      []types.Filter
	GlobalFilter string
	Sorting      []types.Sort
	PageIndex    int
	PageSize     int
	Selection    map[string]struct{}
	View         types.DeleteView
}

// Params derives the list request of the state.
func (s TableState) Params() types.ListParams {
	size := s.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	view := s.View
	if view == "" {
		view = types.ViewActive
	}
	return types.ListParams{
		Start:        max(s.PageIndex, 0) * size,
		Size:         size,
		Filters:      s.Filters,
		GlobalFilter: s.GlobalFilter,
		Sorting:      s.Sorting,
		View:         view,
	}
}

// TableView is what a table shows: the current rows, the total, and whether
// a read is in flight. While loading, the previous rows stay visible.
type TableView struct {
	Rows    []types.Row
	Total   int64
	Loading bool
	Err     error
}

// TableController drives one resource table. It is safe for concurrent use.
type TableController struct {
	api      API
	resource string
	confirm  ConfirmFunc

	group singleflight.Group

	mu       sync.Mutex
	state    TableState
	rows     []types.Row
	total    int64
	err      error
	inflight int
	cache    map[string]*types.ListResult
	// picked holds the displayed row of every selected id, in selection
	// order, so an export does not depend on the current page.
	picked    map[string]types.Row
	pickOrder []string
	// epoch increases on every cache invalidation so reads started earlier
	// do not repopulate it.
	epoch uint64
}

// NewTableController creates a controller for resource on the active view.
// confirm may be nil, in which case permanent deletes are always refused.
func NewTableController(api API, resource string, confirm ConfirmFunc) *TableController {
	return &TableController{
		api:      api,
		resource: resource,
		confirm:  confirm,
		state: TableState{
			PageSize:  defaultPageSize,
			Selection: map[string]struct{}{},
			View:      types.ViewActive,
		},
		cache:  map[string]*types.ListResult{},
		picked: map[string]types.Row{},
	}
}

// State returns a copy of the table state.
func (c *TableController) State() TableState {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.Filters = slices.Clone(s.Filters)
	s.Sorting = slices.Clone(s.Sorting)
	s.Selection = make(map[string]struct{}, len(c.state.Selection))
	for id := range c.state.Selection {
		s.Selection[id] = struct{}{}
	}
	return s
}

// View returns what the table currently shows.
func (c *TableController) View() TableView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return TableView{Rows: c.rows, Total: c.total, Loading: c.inflight > 0, Err: c.err}
}

// SetFilters replaces the column filters.
func (c *TableController) SetFilters(filters []types.Filter) {
	c.mu.Lock()
	c.state.Filters = slices.Clone(filters)
	c.mu.Unlock()
}

// SetGlobalFilter replaces the global search text.
func (c *TableController) SetGlobalFilter(text string) {
	c.mu.Lock()
	c.state.GlobalFilter = text
	c.mu.Unlock()
}

// SetSorting replaces the ordered sort.
func (c *TableController) SetSorting(sorting []types.Sort) {
	c.mu.Lock()
	c.state.Sorting = slices.Clone(sorting)
	c.mu.Unlock()
}

// SetPagination sets the page index and size.
func (c *TableController) SetPagination(pageIndex, pageSize int) {
	c.mu.Lock()
	c.state.PageIndex = max(pageIndex, 0)
	if pageSize > 0 {
		c.state.PageSize = pageSize
	}
	c.mu.Unlock()
}

// SetDeleteView switches between the active and trash views. The selection
// is cleared and the page index reset.
func (c *TableController) SetDeleteView(v types.DeleteView) {
	c.mu.Lock()
	if v == "" {
		v = types.ViewActive
	}
	c.state.View = v
	c.state.PageIndex = 0
	c.clearSelectionLocked()
	c.mu.Unlock()
}

// Select adds ids to the selection. The displayed row of each id is kept
// for export; it stays valid after the page, filters or sort change.
func (c *TableController) Select(ids ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		if _, ok := c.state.Selection[id]; !ok {
			c.state.Selection[id] = struct{}{}
			c.pickOrder = append(c.pickOrder, id)
		}
	}
	c.pickDisplayedLocked()
}

// Deselect removes ids from the selection.
func (c *TableController) Deselect(ids ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		if _, ok := c.state.Selection[id]; !ok {
			continue
		}
		delete(c.state.Selection, id)
		delete(c.picked, id)
		c.pickOrder = slices.DeleteFunc(c.pickOrder, func(s string) bool { return s == id })
	}
}

// ClearSelection empties the selection.
func (c *TableController) ClearSelection() {
	c.mu.Lock()
	c.clearSelectionLocked()
	c.mu.Unlock()
}

func (c *TableController) clearSelectionLocked() {
	c.state.Selection = map[string]struct{}{}
	c.picked = map[string]types.Row{}
	c.pickOrder = nil
}

// pickDisplayedLocked records the displayed row of every selected id.
func (c *TableController) pickDisplayedLocked() {
	for _, r := range c.rows {
		id := r.ID()
		if _, ok := c.state.Selection[id]; ok {
			c.picked[id] = maps.Clone(r)
		}
	}
}

// Selected returns the selected ids in display order, followed by selected
// ids not on the current page in sorted order.
func (c *TableController) Selected() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedLocked()
}

func (c *TableController) selectedLocked() []string {
	out := make([]string, 0, len(c.state.Selection))
	seen := make(map[string]struct{}, len(c.state.Selection))
	for _, r := range c.rows {
		id := r.ID()
		if _, ok := c.state.Selection[id]; ok {
			out = append(out, id)
			seen[id] = struct{}{}
		}
	}
	var rest []string
	for id := range c.state.Selection {
		if _, ok := seen[id]; !ok {
			rest = append(rest, id)
		}
	}
	slices.Sort(rest)
	return append(out, rest...)
}

// Refresh reads the rows of the current state. Reads with the same key share
// one request and results are cached per key. If the state changes while the
// read is in flight its result is discarded and ErrSuperseded returned.
func (c *TableController) Refresh(ctx context.Context) error {
	c.mu.Lock()
	params := c.state.Params()
	key := params.Key(c.resource)
	if cached, ok := c.cache[key]; ok {
		c.rows, c.total, c.err = cached.Rows, cached.Total, nil
		c.pickDisplayedLocked()
		c.mu.Unlock()
		return nil
	}
	epoch := c.epoch
	c.inflight++
	c.mu.Unlock()

	v, err, _ := c.group.Do(key, func() (any, error) {
		return c.api.List(ctx, c.resource, params)
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight--

	if current := c.state.Params().Key(c.resource); current != key {
		return ErrSuperseded
	}
	if err != nil {
		c.err = err
		return err
	}
	result := v.(*types.ListResult)
	if epoch == c.epoch {
		c.cache[key] = result
	}
	c.rows, c.total, c.err = result.Rows, result.Total, nil
	c.pickDisplayedLocked()
	return nil
}

// Invalidate drops every cached result.
func (c *TableController) Invalidate() {
	c.mu.Lock()
	c.invalidateLocked()
	c.mu.Unlock()
}

func (c *TableController) invalidateLocked() {
	c.cache = map[string]*types.ListResult{}
	c.epoch++
}

// PerformLifecycleAction applies t to ids. The transition must be offered by
// the current view and a permanent delete must be confirmed. On success the
// selection is cleared, the cache invalidated and the table re-read; the
// server message is returned. On failure the state is unchanged and the
// error carries the server message.
func (c *TableController) PerformLifecycleAction(ctx context.Context, ids []string, t types.Transition) (string, error) {
	if len(ids) == 0 {
		return "", ErrNoIDs
	}
	c.mu.Lock()
	view := c.state.View
	c.mu.Unlock()

	if !domain.IsOffered(domain.DeleteView(view), domain.Transition(t)) {
		return "", fmt.Errorf("%w: %s from view %s", ErrNotOffered, t, view)
	}
	if t == types.PermanentDelete && (c.confirm == nil || !c.confirm(ctx, c.resource, ids)) {
		return "", ErrNotConfirmed
	}

	msg, err := c.api.Lifecycle(ctx, c.resource, ids, t)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.clearSelectionLocked()
	c.invalidateLocked()
	c.mu.Unlock()

	if err := c.Refresh(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
		return msg, fmt.Errorf("refreshing after %s: %w", t, err)
	}
	return msg, nil
}

// Export writes a CSV of the selected rows, as they were displayed and in
// selection order, when the selection is non-empty; otherwise of the full
// active snapshot. Nothing is written to w unless the whole document
// rendered.
func (c *TableController) Export(ctx context.Context, w io.Writer) error {
	job, err := c.exportJob()
	if err != nil {
		return err
	}
	data, err := job.Render(ctx)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// ExportFile is Export into a file at path, created only on success.
func (c *TableController) ExportFile(ctx context.Context, path string) error {
	job, err := c.exportJob()
	if err != nil {
		return err
	}
	return export.WriteFile(ctx, path, job)
}

func (c *TableController) exportJob() (export.Job, error) {
	c.mu.Lock()
	selection := make([]domain.Row, 0, len(c.pickOrder))
	for _, id := range c.pickOrder {
		r, ok := c.picked[id]
		if !ok {
			c.mu.Unlock()
			return export.Job{}, fmt.Errorf("%w: %s", ErrSelectionNotLoaded, id)
		}
		selection = append(selection, domain.Row(r))
	}
	c.mu.Unlock()

	return export.Job{
		Selection: selection,
		Fetch: func(ctx context.Context) ([]domain.Row, error) {
			rows, err := c.api.Export(ctx, c.resource)
			if err != nil {
				return nil, err
			}
			out := make([]domain.Row, len(rows))
			for i, r := range rows {
				out[i] = domain.Row(r)
			}
			return out, nil
		},
	}, nil
}
