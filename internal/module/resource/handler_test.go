package resource

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/domain"
	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/middleware"
	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/pkg"
)

// mockService records the last call and returns canned results.
type mockService struct {
	lastResource string
	lastQuery    domain.ListQuery
	lastIDs      []string
	lastTag      string
	lastMedia    domain.MediaPageRequest
	applied      int

	list     *domain.ListResult
	outcome  *Outcome
	snapshot *Snapshot
	page     *domain.MediaPage
	err      error
}

func (m *mockService) List(_ context.Context, _ domain.Caller, resource string, q domain.ListQuery) (*domain.ListResult, error) {
	m.lastResource, m.lastQuery = resource, q
	return m.list, m.err
}

func (m *mockService) Apply(_ context.Context, _ domain.Caller, resource string, ids []string, tag string) (*Outcome, error) {
	m.applied++
	m.lastResource, m.lastIDs, m.lastTag = resource, ids, tag
	return m.outcome, m.err
}

func (m *mockService) Export(_ context.Context, _ domain.Caller, resource string) (*Snapshot, error) {
	m.lastResource = resource
	return m.snapshot, m.err
}

func (m *mockService) BrowseMedia(_ context.Context, _ domain.Caller, req domain.MediaPageRequest) (*domain.MediaPage, error) {
	m.lastMedia = req
	return m.page, m.err
}

func setupAPIRouter(svc Service, caller domain.Caller) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(svc, pkg.ListLimits{})
	h.now = func() time.Time { return baseTime }
	api := r.Group("/api/v1", middleware.StaticCaller(caller))
	NewModule(h, DefaultRegistry()).RegisterRoutes(api)
	return r
}

func doJSON(r *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_List(t *testing.T) {
	svc := &mockService{list: &domain.ListResult{Rows: []domain.Row{{"id": "v1"}}, Total: 7}}
	r := setupAPIRouter(svc, admin)

	params := url.Values{
		"start":        {"10"},
		"size":         {"5"},
		"deleteType":   {"PD"},
		"globalFilter": {" red "},
		"filters":      {`[{"id":"product","value":"tee"}]`},
		"sorting":      {`[{"id":"mrp","desc":true}]`},
	}
	w := doJSON(r, http.MethodGet, "/api/v1/variants?"+params.Encode(), "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp pkg.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !resp.Success || resp.Meta == nil || resp.Meta.TotalRowCount != 7 {
		t.Errorf("unexpected envelope %+v", resp)
	}

	q := svc.lastQuery
	if svc.lastResource != Variants || q.Start != 10 || q.Size != 5 || q.View != domain.ViewTrashed || q.GlobalFilter != "red" {
		t.Errorf("unexpected query %+v for %s", q, svc.lastResource)
	}
	if len(q.Filters) != 1 || q.Filters[0].Column != "product" || q.Filters[0].Value != "tee" {
		t.Errorf("filters = %+v", q.Filters)
	}
	if len(q.Sorting) != 1 || q.Sorting[0].Column != "mrp" || !q.Sorting[0].Desc {
		t.Errorf("sorting = %+v", q.Sorting)
	}
}

func TestHandler_List_BadParams(t *testing.T) {
	svc := &mockService{}
	r := setupAPIRouter(svc, admin)

	w := doJSON(r, http.MethodGet, "/api/v1/products?filters=not-json", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestHandler_RequiresAdmin(t *testing.T) {
	svc := &mockService{}
	r := setupAPIRouter(svc, viewer)

	for _, tc := range []struct{ method, target, body string }{
		{http.MethodGet, "/api/v1/products", ""},
		{http.MethodPut, "/api/v1/products/delete", `{"ids":["p1"],"deleteType":"SD"}`},
		{http.MethodGet, "/api/v1/media/browse", ""},
	} {
		w := doJSON(r, tc.method, tc.target, tc.body)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401, got %d", tc.method, tc.target, w.Code)
		}
	}
	if svc.applied != 0 {
		t.Error("service reached by unauthorized caller")
	}
}

func TestHandler_Lifecycle(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		body     string
		wantCode int
		applied  bool
	}{
		{"soft delete via PUT", http.MethodPut, `{"ids":["c1","c2"],"deleteType":"SD"}`, http.StatusOK, true},
		{"restore via PUT", http.MethodPut, `{"ids":["c1"],"deleteType":"RSD"}`, http.StatusOK, true},
		{"permanent delete via DELETE", http.MethodDelete, `{"ids":["c1"],"deleteType":"PD"}`, http.StatusOK, true},
		{"PD rejected on PUT", http.MethodPut, `{"ids":["c1"],"deleteType":"PD"}`, http.StatusBadRequest, false},
		{"SD rejected on DELETE", http.MethodDelete, `{"ids":["c1"],"deleteType":"SD"}`, http.StatusBadRequest, false},
		{"unknown tag", http.MethodPut, `{"ids":["c1"],"deleteType":"ARCHIVE"}`, http.StatusBadRequest, false},
		{"empty ids", http.MethodPut, `{"ids":[],"deleteType":"SD"}`, http.StatusBadRequest, false},
		{"missing deleteType", http.MethodPut, `{"ids":["c1"]}`, http.StatusBadRequest, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockService{outcome: &Outcome{Message: "Data moved into trash.", Affected: 1}}
			r := setupAPIRouter(svc, admin)

			w := doJSON(r, tt.method, "/api/v1/categories/delete", tt.body)
			if w.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, w.Code, w.Body.String())
			}
			if (svc.applied == 1) != tt.applied {
				t.Errorf("applied = %d; want %v", svc.applied, tt.applied)
			}
			if tt.applied && svc.lastResource != Categories {
				t.Errorf("resource = %q", svc.lastResource)
			}
		})
	}
}

func TestHandler_Lifecycle_ServiceError(t *testing.T) {
	svc := &mockService{err: domain.NewAppError(domain.CodeDependencyFailure, "Failed to delete media from storage.", nil)}
	r := setupAPIRouter(svc, admin)

	w := doJSON(r, http.MethodDelete, "/api/v1/media/delete", `{"ids":["m1"],"deleteType":"PD"}`)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
	var resp pkg.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Success || resp.Message != "Failed to delete media from storage." {
		t.Errorf("unexpected envelope %+v", resp)
	}
}

func TestHandler_Export(t *testing.T) {
	svc := &mockService{snapshot: &Snapshot{
		Columns: []string{"id", "code"},
		Rows:    []domain.Row{{"id": "k1", "code": "SAVE10"}},
	}}
	r := setupAPIRouter(svc, admin)

	w := doJSON(r, http.MethodGet, "/api/v1/coupons/export", "")
	if w.Code != http.StatusOK {
		t.Fatalf("json export: expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"SAVE10"`) {
		t.Errorf("json export body = %s", w.Body.String())
	}

	w = doJSON(r, http.MethodGet, "/api/v1/coupons/export?format=csv", "")
	if w.Code != http.StatusOK {
		t.Fatalf("csv export: expected 200, got %d", w.Code)
	}
	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename="coupons-20260101-120000.csv"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	if w.Body.String() != "id,code\nk1,SAVE10\n" {
		t.Errorf("csv body = %q", w.Body.String())
	}

	w = doJSON(r, http.MethodGet, "/api/v1/coupons/export?format=xlsx", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown format: expected 400, got %d", w.Code)
	}
}

func TestHandler_BrowseMedia(t *testing.T) {
	svc := &mockService{page: &domain.MediaPage{
		Items:   []domain.Media{{BaseModel: domain.BaseModel{ID: "m1"}, SecureURL: "https://cdn/m1.png"}},
		HasMore: true,
	}}
	r := setupAPIRouter(svc, admin)

	w := doJSON(r, http.MethodGet, "/api/v1/media/browse?page=2&limit=6&deleteType=PD", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, enveloped := body["success"]; enveloped {
		t.Error("browse response must not be enveloped")
	}
	if body["hasMore"] != true {
		t.Errorf("hasMore = %v", body["hasMore"])
	}
	if items, ok := body["items"].([]any); !ok || len(items) != 1 {
		t.Errorf("items = %v", body["items"])
	}
	want := domain.MediaPageRequest{Page: 2, Limit: 6, View: domain.ViewTrashed}
	if svc.lastMedia != want {
		t.Errorf("request = %+v; want %+v", svc.lastMedia, want)
	}
}
