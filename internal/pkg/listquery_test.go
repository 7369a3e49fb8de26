package pkg

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/domain"
)

func newQueryContext(params url.Values) *gin.Context {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/?"+params.Encode(), nil)
	return c
}

func TestParseListQuery_Defaults(t *testing.T) {
	q, err := ParseListQuery(newQueryContext(url.Values{}), ListLimits{})
	if err != nil {
		t.Fatalf("ParseListQuery: %v", err)
	}
	want := domain.ListQuery{Start: 0, Size: DefaultPageSize, View: domain.ViewActive}
	if !reflect.DeepEqual(q, want) {
		t.Errorf("got %+v; want %+v", q, want)
	}
}

func TestParseListQuery_AllParams(t *testing.T) {
	params := url.Values{
		"start":        {"20"},
		"size":         {"25"},
		"filters":      {`[{"id":"product","value":"Kids"},{"id":"mrp","value":499},{"id":"color","value":""}]`},
		"globalFilter": {"  tee "},
		"sorting":      {`[{"id":"mrp","desc":true},{"id":"name","desc":false}]`},
		"deleteType":   {"PD"},
	}
	q, err := ParseListQuery(newQueryContext(params), ListLimits{})
	if err != nil {
		t.Fatalf("ParseListQuery: %v", err)
	}
	want := domain.ListQuery{
		Start: 20,
		Size:  25,
		Filters: []domain.ColumnFilter{
			{Column: "product", Value: "Kids"},
			{Column: "mrp", Value: "499"},
		},
		GlobalFilter: "tee",
		Sorting:      []domain.SortColumn{{Column: "mrp", Desc: true}, {Column: "name"}},
		View:         domain.ViewTrashed,
	}
	if !reflect.DeepEqual(q, want) {
		t.Errorf("got %+v\nwant %+v", q, want)
	}
}

func TestParseListQuery_Clamping(t *testing.T) {
	tests := []struct {
		name      string
		start     string
		size      string
		wantStart int
		wantSize  int
	}{
		{"size above max", "0", "5000", 0, MaxPageSize},
		{"zero size", "0", "0", 0, DefaultPageSize},
		{"negative size", "0", "-3", 0, DefaultPageSize},
		{"negative start", "-10", "10", 0, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := ParseListQuery(newQueryContext(url.Values{"start": {tt.start}, "size": {tt.size}}), ListLimits{})
			if err != nil {
				t.Fatalf("ParseListQuery: %v", err)
			}
			if q.Start != tt.wantStart || q.Size != tt.wantSize {
				t.Errorf("start/size = %d/%d; want %d/%d", q.Start, q.Size, tt.wantStart, tt.wantSize)
			}
		})
	}

	q, err := ParseListQuery(newQueryContext(url.Values{"size": {"80"}}), ListLimits{DefaultSize: 20, MaxSize: 50})
	if err != nil {
		t.Fatalf("ParseListQuery: %v", err)
	}
	if q.Size != 50 {
		t.Errorf("custom max not applied, size = %d", q.Size)
	}
}

func TestParseListQuery_Malformed(t *testing.T) {
	for name, params := range map[string]url.Values{
		"start not a number": {"start": {"abc"}},
		"filters not json":   {"filters": {"[{"}},
		"sorting not json":   {"sorting": {"nope"}},
		"object filter":      {"filters": {`[{"id":"mrp","value":{"min":1}}]`}},
		"unknown view":       {"deleteType": {"RSD"}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseListQuery(newQueryContext(params), ListLimits{})
			if !domain.IsInvalidOperation(err) {
				t.Errorf("expected invalid operation, got %v", err)
			}
		})
	}
}

func TestParseMediaPageRequest(t *testing.T) {
	req, err := ParseMediaPageRequest(newQueryContext(url.Values{}), 0)
	if err != nil {
		t.Fatalf("ParseMediaPageRequest: %v", err)
	}
	if req.Page != 0 || req.Limit != DefaultMediaLimit || req.View != domain.ViewActive {
		t.Errorf("unexpected defaults %+v", req)
	}

	req, err = ParseMediaPageRequest(newQueryContext(url.Values{"page": {"3"}, "limit": {"500"}, "deleteType": {"PD"}}), 50)
	if err != nil {
		t.Fatalf("ParseMediaPageRequest: %v", err)
	}
	if req.Page != 3 || req.Limit != 50 || req.View != domain.ViewTrashed {
		t.Errorf("unexpected request %+v", req)
	}

	if _, err := ParseMediaPageRequest(newQueryContext(url.Values{"limit": {"x"}}), 0); !domain.IsInvalidOperation(err) {
		t.Errorf("expected invalid operation, got %v", err)
	}
}
