package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/hammad-gujjar/dacci-apparel-sub000/pkg/types"
)

type lifecycleCall struct {
	resource string
	ids      []string
	tag      types.Transition
}

// fakeAPI is an in-memory API. listFn and browseFn, when set, replace the
// default responses.
type fakeAPI struct {
	mu sync.Mutex

	listFn     func(ctx context.Context, p types.ListParams) (*types.ListResult, error)
	listCalls  []types.ListParams
	lifecycle  []lifecycleCall
	lifeErr    error
	exportRows []types.Row
	exportErr  error
	exports    int
	browseFn   func(p types.MediaParams) (*types.MediaPage, error)
	browses    []types.MediaParams
}

func (f *fakeAPI) List(ctx context.Context, _ string, p types.ListParams) (*types.ListResult, error) {
	f.mu.Lock()
	f.listCalls = append(f.listCalls, p)
	fn := f.listFn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, p)
	}
	return &types.ListResult{Rows: pageRows(p.Start, p.Size), Total: 42}, nil
}

func (f *fakeAPI) Lifecycle(_ context.Context, resource string, ids []string, t types.Transition) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lifecycle = append(f.lifecycle, lifecycleCall{resource: resource, ids: ids, tag: t})
	if f.lifeErr != nil {
		return "", f.lifeErr
	}
	return "Data updated.", nil
}

func (f *fakeAPI) Export(context.Context, string) ([]types.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exports++
	return f.exportRows, f.exportErr
}

func (f *fakeAPI) BrowseMedia(_ context.Context, p types.MediaParams) (*types.MediaPage, error) {
	f.mu.Lock()
	f.browses = append(f.browses, p)
	fn := f.browseFn
	f.mu.Unlock()
	return fn(p)
}

func (f *fakeAPI) listCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listCalls)
}

func (f *fakeAPI) lifecycleCalls() []lifecycleCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]lifecycleCall(nil), f.lifecycle...)
}

func (f *fakeAPI) exportCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exports
}

// pageRows returns size rows with ids r<start>..r<start+size-1>.
func pageRows(start, size int) []types.Row {
	rows := make([]types.Row, size)
	for i := range rows {
		n := start + i
		rows[i] = types.Row{"id": fmt.Sprintf("r%03d", n), "name": fmt.Sprintf("Row %d", n), "mrp": float64(100 + n)}
	}
	return rows
}
