package model

import (
	"time"
)

// Base contains common fields for all models
type Base struct {
	ID        int64     `json:"id" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Pagination represents common pagination parameters
type Pagination struct {
	Page     int `json:"page" form:"page"`
	PageSize int `json:"page_size" form:"page_size"`
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 200
)

// Normalize clamps page and page size into their valid ranges.
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

func (p Pagination) Limit() int {
	return p.Normalize().PageSize
}

func (p Pagination) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.PageSize
}

// Page wraps a slice of results with its total count.
type Page[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// BulkResult reports the outcome of a bulk mutation. Failures never abort the batch.
type BulkResult struct {
	SuccessCount int          `json:"success_count"`
	FailedIDs    []BulkFailed `json:"failed_ids"`
}

type BulkFailed struct {
	ID     int64  `json:"id"`
	Reason string `json:"reason"`
}

func NewBulkResult() *BulkResult {
	return &BulkResult{FailedIDs: []BulkFailed{}}
}

// Fail records a failed id.
func (r *BulkResult) Fail(id int64, reason string) {
	r.FailedIDs = append(r.FailedIDs, BulkFailed{ID: id, Reason: reason})
}

// BulkIDsRequest is the body of every bulk endpoint.
type BulkIDsRequest struct {
	IDs []int64 `json:"ids" binding:"required,min=1,dive,required"`
}
