// Package client provides a typed HTTP client for the back-office resource
// API, plus the table controller and media pager that drive it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hammad-gujjar/dacci-apparel-sub000/pkg/types"
)

const (
	defaultTimeout = 30 * time.Second
	apiPrefix      = "/api/v1"
	mediaBrowse    = apiPrefix + "/media/browse"
)

// API is the resource protocol as seen by the table controller and the
// media pager.
type API interface {
	List(ctx context.Context, resource string, p types.ListParams) (*types.ListResult, error)
	Lifecycle(ctx context.Context, resource string, ids []string, t types.Transition) (string, error)
	Export(ctx context.Context, resource string) ([]types.Row, error)
	BrowseMedia(ctx context.Context, p types.MediaParams) (*types.MediaPage, error)
}

// Config holds client configuration.
type Config struct {
	// BaseURL is the root URL of the back office (for example: http://localhost:8080).
	BaseURL string
	// Token is the bearer token used for API requests.
	Token string
	// TokenRefresh optionally resolves a token per request when Token is empty.
	TokenRefresh func(ctx context.Context) (string, error)
	// Timeout is the per-request timeout. Defaults to 30s.
	Timeout time.Duration
	// HTTPClient overrides the underlying client. Timeout is ignored when set.
	HTTPClient *http.Client
}

// APIError is a non-success response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}

// StatusOf returns the HTTP status of an *APIError in err's chain, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Client is the typed HTTP client. It implements API.
type Client struct {
	http    *http.Client
	baseURL string
	cfg     Config
}

var _ API = (*Client)(nil)

// New creates a new client.
func New(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("client: BaseURL is required")
	}
	cfg.BaseURL = baseURL
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{http: hc, baseURL: baseURL, cfg: cfg}, nil
}

// envelope is the server's JSON response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    *struct {
		TotalRowCount int64 `json:"totalRowCount"`
	} `json:"meta"`
}

// List fetches one page of a resource.
func (c *Client) List(ctx context.Context, resource string, p types.ListParams) (*types.ListResult, error) {
	q := url.Values{}
	q.Set("start", strconv.Itoa(p.Start))
	q.Set("size", strconv.Itoa(p.Size))
	if len(p.Filters) > 0 {
		b, err := json.Marshal(p.Filters)
		if err != nil {
			return nil, fmt.Errorf("encoding filters: %w", err)
		}
		q.Set("filters", string(b))
	}
	if p.GlobalFilter != "" {
		q.Set("globalFilter", p.GlobalFilter)
	}
	if len(p.Sorting) > 0 {
		b, err := json.Marshal(p.Sorting)
		if err != nil {
			return nil, fmt.Errorf("encoding sorting: %w", err)
		}
		q.Set("sorting", string(b))
	}
	if p.View != "" {
		q.Set("deleteType", string(p.View))
	}

	var env envelope
	if err := c.do(ctx, http.MethodGet, resourcePath(resource)+"?"+q.Encode(), nil, &env); err != nil {
		return nil, fmt.Errorf("listing %s: %w", resource, err)
	}
	result := &types.ListResult{Rows: []types.Row{}}
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &result.Rows); err != nil {
			return nil, fmt.Errorf("listing %s: decoding rows: %w", resource, err)
		}
	}
	if env.Meta != nil {
		result.Total = env.Meta.TotalRowCount
	}
	return result, nil
}

// Lifecycle applies t to ids and returns the server's confirmation message.
// SD and RSD are sent with PUT, PD with DELETE.
func (c *Client) Lifecycle(ctx context.Context, resource string, ids []string, t types.Transition) (string, error) {
	method := http.MethodPut
	if t == types.PermanentDelete {
		method = http.MethodDelete
	}
	var env envelope
	body := types.LifecycleRequest{IDs: ids, DeleteType: t}
	if err := c.do(ctx, method, resourcePath(resource)+"/delete", body, &env); err != nil {
		return "", fmt.Errorf("%s %s: %w", t, resource, err)
	}
	return env.Message, nil
}

// Export fetches the full active snapshot of a resource.
func (c *Client) Export(ctx context.Context, resource string) ([]types.Row, error) {
	var env envelope
	if err := c.do(ctx, http.MethodGet, resourcePath(resource)+"/export", nil, &env); err != nil {
		return nil, fmt.Errorf("exporting %s: %w", resource, err)
	}
	var rows []types.Row
	if err := json.Unmarshal(env.Data, &rows); err != nil {
		return nil, fmt.Errorf("exporting %s: decoding rows: %w", resource, err)
	}
	return rows, nil
}

// BrowseMedia fetches one page of the media grid.
func (c *Client) BrowseMedia(ctx context.Context, p types.MediaParams) (*types.MediaPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(p.Page))
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.View != "" {
		q.Set("deleteType", string(p.View))
	}

	var page types.MediaPage
	if err := c.do(ctx, http.MethodGet, mediaBrowse+"?"+q.Encode(), nil, &page); err != nil {
		return nil, fmt.Errorf("browsing media page %d: %w", p.Page, err)
	}
	if page.Items == nil {
		page.Items = []types.Media{}
	}
	return &page, nil
}

func resourcePath(resource string) string {
	return apiPrefix + "/" + url.PathEscape(resource)
}

// do sends one request and decodes a 2xx body into out. Non-2xx responses
// and envelopes with success=false become *APIError. There are no retries.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	token, err := c.token(ctx)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var env envelope
		if json.Unmarshal(raw, &env) == nil {
			apiErr.Message = env.Message
		}
		return apiErr
	}

	if env, ok := out.(*envelope); ok {
		if err := json.Unmarshal(raw, env); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
		if !env.Success {
			return &APIError{Status: resp.StatusCode, Message: env.Message}
		}
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (c *Client) token(ctx context.Context) (string, error) {
	if c.cfg.Token != "" || c.cfg.TokenRefresh == nil {
		return c.cfg.Token, nil
	}
	token, err := c.cfg.TokenRefresh(ctx)
	if err != nil {
		return "", fmt.Errorf("refreshing token: %w", err)
	}
	return token, nil
}
