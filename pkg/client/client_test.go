package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammad-gujjar/dacci-apparel-sub000/pkg/types"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, cfg Config) *Client {
	t.Helper()
	c, err := New(cfg)
	require.NoError(t, err)
	return c
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("requires base url", func(t *testing.T) {
		t.Parallel()
		c, err := New(Config{})
		require.Error(t, err)
		assert.Nil(t, c)
		assert.Contains(t, err.Error(), "BaseURL is required")
	})

	t.Run("applies defaults", func(t *testing.T) {
		t.Parallel()
		c := newTestClient(t, Config{BaseURL: " http://example.invalid/ "})
		assert.Equal(t, "http://example.invalid", c.baseURL)
		assert.Equal(t, defaultTimeout, c.cfg.Timeout)
		assert.Equal(t, defaultTimeout, c.http.Timeout)
	})
}

func TestClient_List(t *testing.T) {
	t.Parallel()

	var (
		mu       sync.Mutex
		gotQuery map[string]string
		gotAuth  string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/products", r.URL.Path)
		mu.Lock()
		gotAuth = r.Header.Get("Authorization")
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		mu.Unlock()
		respondJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"code":    200,
			"data":    []map[string]any{{"id": "p1", "name": "Dino Tee", "mrp": 499}},
			"meta":    map[string]any{"totalRowCount": 4},
		})
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(t, Config{BaseURL: srv.URL, Token: "tok"})
	res, err := c.List(context.Background(), "products", types.ListParams{
		Start:        10,
		Size:         10,
		Filters:      []types.Filter{{ID: "category", Value: "kids"}},
		GlobalFilter: "tee",
		Sorting:      []types.Sort{{ID: "name", Desc: true}},
		View:         types.ViewActive,
	})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "10", gotQuery["start"])
	assert.Equal(t, "10", gotQuery["size"])
	assert.JSONEq(t, `[{"id":"category","value":"kids"}]`, gotQuery["filters"])
	assert.JSONEq(t, `[{"id":"name","desc":true}]`, gotQuery["sorting"])
	assert.Equal(t, "tee", gotQuery["globalFilter"])
	assert.Equal(t, "SD", gotQuery["deleteType"])

	require.Len(t, res.Rows, 1)
	assert.Equal(t, "p1", res.Rows[0].ID())
	assert.EqualValues(t, 499, res.Rows[0]["mrp"])
	assert.EqualValues(t, 4, res.Total)
}

func TestClient_Lifecycle_MethodPerTransition(t *testing.T) {
	t.Parallel()

	var (
		mu      sync.Mutex
		methods []string
		bodies  []types.LifecycleRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/media/delete", r.URL.Path)
		var body types.LifecycleRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		mu.Lock()
		methods = append(methods, r.Method)
		bodies = append(bodies, body)
		mu.Unlock()
		respondJSON(w, http.StatusOK, map[string]any{"success": true, "code": 200, "message": "Data moved to trash."})
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(t, Config{BaseURL: srv.URL})
	for _, tag := range []types.Transition{types.SoftDelete, types.Restore, types.PermanentDelete} {
		msg, err := c.Lifecycle(context.Background(), "media", []string{"m1"}, tag)
		require.NoError(t, err)
		assert.Equal(t, "Data moved to trash.", msg)
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{http.MethodPut, http.MethodPut, http.MethodDelete}, methods)
	assert.Equal(t, types.PermanentDelete, bodies[2].DeleteType)
	assert.Equal(t, []string{"m1"}, bodies[2].IDs)
}

func TestClient_ErrorEnvelope(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"code":    400,
			"message": "Only trashed records can be deleted permanently.",
		})
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(t, Config{BaseURL: srv.URL})
	_, err := c.Lifecycle(context.Background(), "products", []string{"p1"}, types.PermanentDelete)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Only trashed records can be deleted permanently.", apiErr.Message)
	assert.Equal(t, http.StatusBadRequest, StatusOf(err))
}

func TestClient_SuccessFalseOn200(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]any{"success": false, "message": "nope"})
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(t, Config{BaseURL: srv.URL})
	_, err := c.Export(context.Background(), "coupons")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
}

func TestClient_Export(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/coupons/export", r.URL.Path)
		respondJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    []map[string]any{{"id": "c1", "code": "WELCOME10"}, {"id": "c2", "code": "FEST"}},
		})
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(t, Config{BaseURL: srv.URL})
	rows, err := c.Export(context.Background(), "coupons")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "FEST", rows[1]["code"])
}

func TestClient_BrowseMedia(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/media/browse", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		assert.Equal(t, "18", r.URL.Query().Get("limit"))
		assert.Equal(t, "PD", r.URL.Query().Get("deleteType"))
		respondJSON(w, http.StatusOK, map[string]any{
			"items":   []map[string]any{{"id": "m1", "assetKey": "uploads/m1.png", "secureUrl": "https://cdn/m1.png"}},
			"hasMore": false,
		})
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(t, Config{BaseURL: srv.URL})
	page, err := c.BrowseMedia(context.Background(), types.MediaParams{Page: 1, Limit: 18, View: types.ViewTrashed})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "uploads/m1.png", page.Items[0].AssetKey)
	assert.False(t, page.HasMore)
}

func TestClient_TokenRefresh(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer fresh", r.Header.Get("Authorization"))
		respondJSON(w, http.StatusOK, map[string]any{"success": true, "data": []any{}})
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(t, Config{
		BaseURL:      srv.URL,
		TokenRefresh: func(context.Context) (string, error) { return "fresh", nil },
	})
	_, err := c.Export(context.Background(), "coupons")
	require.NoError(t, err)

	failing := newTestClient(t, Config{
		BaseURL:      srv.URL,
		TokenRefresh: func(context.Context) (string, error) { return "", io.ErrUnexpectedEOF },
	})
	_, err = failing.Export(context.Background(), "coupons")
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}
