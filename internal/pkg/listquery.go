package pkg

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/domain"
)

const (
	DefaultPageSize   = 10
	MaxPageSize       = 100
	DefaultMediaLimit = 18
)

// ListLimits bounds the page size a client may request.
type ListLimits struct {
	DefaultSize int
	MaxSize     int
}

func (l ListLimits) defaults() ListLimits {
	if l.DefaultSize <= 0 {
		l.DefaultSize = DefaultPageSize
	}
	if l.MaxSize <= 0 {
		l.MaxSize = MaxPageSize
	}
	if l.DefaultSize > l.MaxSize {
		l.DefaultSize = l.MaxSize
	}
	return l
}

type wireFilter struct {
	ID    string `json:"id"`
	Value any    `json:"value"`
}

type wireSort struct {
	ID   string `json:"id"`
	Desc bool   `json:"desc"`
}

// ParseListQuery extracts table state from the list query params: start,
// size, filters (JSON [{id, value}]), globalFilter, sorting (JSON
// [{id, desc}]) and deleteType. Size is clamped to limits; malformed JSON
// or numbers are rejected.
func ParseListQuery(c *gin.Context, limits ListLimits) (domain.ListQuery, error) {
	limits = limits.defaults()

	start, err := intParam(c, "start", 0)
	if err != nil {
		return domain.ListQuery{}, err
	}
	if start < 0 {
		start = 0
	}

	size, err := intParam(c, "size", limits.DefaultSize)
	if err != nil {
		return domain.ListQuery{}, err
	}
	if size < 1 {
		size = limits.DefaultSize
	}
	if size > limits.MaxSize {
		size = limits.MaxSize
	}

	view, err := domain.ParseDeleteView(c.Query("deleteType"))
	if err != nil {
		return domain.ListQuery{}, err
	}

	filters, err := parseFilters(c.Query("filters"))
	if err != nil {
		return domain.ListQuery{}, err
	}

	sorting, err := parseSorting(c.Query("sorting"))
	if err != nil {
		return domain.ListQuery{}, err
	}

	return domain.ListQuery{
		Start:        start,
		Size:         size,
		Filters:      filters,
		GlobalFilter: strings.TrimSpace(c.Query("globalFilter")),
		Sorting:      sorting,
		View:         view,
	}, nil
}

// ParseMediaPageRequest extracts the cursor pager params page, limit and deleteType.
func ParseMediaPageRequest(c *gin.Context, maxLimit int) (domain.MediaPageRequest, error) {
	if maxLimit <= 0 {
		maxLimit = MaxPageSize
	}
	page, err := intParam(c, "page", 0)
	if err != nil {
		return domain.MediaPageRequest{}, err
	}
	if page < 0 {
		page = 0
	}
	limit, err := intParam(c, "limit", DefaultMediaLimit)
	if err != nil {
		return domain.MediaPageRequest{}, err
	}
	if limit < 1 {
		limit = DefaultMediaLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	view, err := domain.ParseDeleteView(c.Query("deleteType"))
	if err != nil {
		return domain.MediaPageRequest{}, err
	}
	return domain.MediaPageRequest{Page: page, Limit: limit, View: view}, nil
}

func intParam(c *gin.Context, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badParam(name, err)
	}
	return v, nil
}

func parseFilters(raw string) ([]domain.ColumnFilter, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var wire []wireFilter
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return nil, badParam("filters", err)
	}
	filters := make([]domain.ColumnFilter, 0, len(wire))
	for _, f := range wire {
		value, ok, err := filterValue(f.Value)
		if err != nil {
			return nil, badParam("filters", fmt.Errorf("column %q: %w", f.ID, err))
		}
		if !ok {
			continue
		}
		filters = append(filters, domain.ColumnFilter{Column: f.ID, Value: value})
	}
	return filters, nil
}

// filterValue renders a scalar filter value as text. Null and empty values
// mean "no filter" and are dropped.
func filterValue(v any) (string, bool, error) {
	switch x := v.(type) {
	case nil:
		return "", false, nil
	case string:
		if strings.TrimSpace(x) == "" {
			return "", false, nil
		}
		return x, true, nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true, nil
	case bool:
		return strconv.FormatBool(x), true, nil
	default:
		return "", false, fmt.Errorf("unsupported filter value %v", v)
	}
}

func parseSorting(raw string) ([]domain.SortColumn, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var wire []wireSort
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return nil, badParam("sorting", err)
	}
	sorting := make([]domain.SortColumn, len(wire))
	for i, s := range wire {
		sorting[i] = domain.SortColumn{Column: s.ID, Desc: s.Desc}
	}
	return sorting, nil
}

func badParam(name string, err error) error {
	return domain.NewAppError(domain.CodeInvalidOperation, fmt.Sprintf("invalid %s parameter", name), err)
}
