package domain

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ColumnFilter is one {column, value} pair of a table's column filters.
type ColumnFilter struct {
	Column string
	Value  string
}

// Validate implements validation.Validatable.
func (f ColumnFilter) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Column, validation.Required),
	)
}

// SortColumn is one entry of a table's ordered sort.
type SortColumn struct {
	Column string
	Desc   bool
}

// Validate implements validation.Validatable.
func (s SortColumn) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Column, validation.Required),
	)
}

// ListQuery is the normalised table state a listing request carries.
// Size 0 is reserved for unbounded snapshot reads and is rejected by Validate.
type ListQuery struct {
	Start        int
	Size         int
	Filters      []ColumnFilter
	GlobalFilter string
	Sorting      []SortColumn
	View         DeleteView
}

// Validate checks the query shape. Column names are checked later against
// the resource descriptor.
func (q ListQuery) Validate() error {
	err := validation.ValidateStruct(&q,
		validation.Field(&q.Start, validation.Min(0)),
		validation.Field(&q.Size, validation.Required, validation.Min(1)),
		validation.Field(&q.Filters),
		validation.Field(&q.Sorting),
		validation.Field(&q.View, validation.Required, validation.In(ViewActive, ViewTrashed)),
	)
	if err != nil {
		return NewAppError(CodeInvalidOperation, err.Error(), err)
	}
	return nil
}

// Row is one projected record keyed by client column id.
type Row map[string]any

// ListResult is a page of rows plus the total matching the same predicate.
type ListResult struct {
	Rows  []Row
	Total int64
}

// MediaPageRequest is a request of the cursor-style media pager. Page is zero based.
type MediaPageRequest struct {
	Page  int
	Limit int
	View  DeleteView
}

// Validate checks the pager request shape.
func (r MediaPageRequest) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Page, validation.Min(0)),
		validation.Field(&r.Limit, validation.Required, validation.Min(1)),
		validation.Field(&r.View, validation.Required, validation.In(ViewActive, ViewTrashed)),
	)
	if err != nil {
		return NewAppError(CodeInvalidOperation, err.Error(), err)
	}
	return nil
}

// MediaPage is one page of the media pager.
type MediaPage struct {
	Items   []Media `json:"items"`
	HasMore bool    `json:"hasMore"`
}
