// Package types holds the wire types of the back-office resource API shared
// by the Go client.
package types

import (
	"encoding/json"
	"time"
)

// DeleteView selects which lifecycle state a listing shows.
type DeleteView string

const (
	ViewActive  DeleteView = "SD"
	ViewTrashed DeleteView = "PD"
)

// Transition is a lifecycle transition tag.
type Transition string

const (
	SoftDelete      Transition = "SD"
	Restore         Transition = "RSD"
	PermanentDelete Transition = "PD"
)

// Row is one listed record keyed by column id.
type Row map[string]any

// ID returns the row's id column as a string, or "" when absent.
func (r Row) ID() string {
	id, _ := r["id"].(string)
	return id
}

// Filter is one column filter.
type Filter struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// Sort is one entry of an ordered sort.
type Sort struct {
	ID   string `json:"id"`
	Desc bool   `json:"desc"`
}

// ListParams are the query parameters of a list request.
type ListParams struct {
	Start        int        `json:"start"`
	Size         int        `json:"size"`
	Filters      []Filter   `json:"filters,omitempty"`
	GlobalFilter string     `json:"globalFilter,omitempty"`
	Sorting      []Sort     `json:"sorting,omitempty"`
	View         DeleteView `json:"deleteType"`
}

// Key identifies the result of p for resource. Equal parameters give equal
// keys.
func (p ListParams) Key(resource string) string {
	b, _ := json.Marshal(struct {
		Resource string `json:"r"`
		ListParams
	}{resource, p})
	return string(b)
}

// ListResult is one page of rows plus the total matching the same filters.
type ListResult struct {
	Rows  []Row `json:"data"`
	Total int64 `json:"totalRowCount"`
}

// LifecycleRequest is the body of PUT/DELETE /<resource>/delete.
type LifecycleRequest struct {
	IDs        []string   `json:"ids"`
	DeleteType Transition `json:"deleteType"`
}

// Media is one item of the media grid.
type Media struct {
	ID           string     `json:"id"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	DeletedAt    *time.Time `json:"deletedAt"`
	AssetKey     string     `json:"assetKey"`
	SecureURL    string     `json:"secureUrl"`
	ThumbnailURL string     `json:"thumbnailUrl"`
	Alt          string     `json:"alt"`
	Title        string     `json:"title"`
}

// MediaParams are the query parameters of a media browse request. Page is
// zero based.
type MediaParams struct {
	Page  int
	Limit int
	View  DeleteView
}

// MediaPage is one page of the media grid.
type MediaPage struct {
	Items   []Media `json:"items"`
	HasMore bool    `json:"hasMore"`
}
