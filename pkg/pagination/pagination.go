// Copyright (c) 2026 Lumina. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package pagination provides shared types and helpers for paging through
// remote list endpoints.
//
// # Overview
//
// It standardizes how page-based navigation is encoded into query parameters
// and how the backend's paging metadata is interpreted by the client.
package pagination

import (
	"net/url"
	"strconv"
)

const (
	// DefaultPageSize is the number of items requested per page if not specified.
	DefaultPageSize = 20
	// MaxPageSize is the upper bound for items per page to avoid oversized responses.
	MaxPageSize = 100
	// DefaultPage is the starting page (1-indexed).
	DefaultPage = 1
)

// Params holds the page and page size sent to a list endpoint.
type Params struct {
	Page     int
	PageSize int
}

// Normalize clamps invalid, negative, or excessive values to
// [DefaultPage], [DefaultPageSize], or [MaxPageSize].
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.PageSize < 1 || p.PageSize > MaxPageSize {
		p.PageSize = DefaultPageSize
	}
	return p
}

// Encode writes the "page" and "page_size" query parameters into values.
func (p Params) Encode(values url.Values) {
	values.Set("page", strconv.Itoa(p.Page))
	values.Set("page_size", strconv.Itoa(p.PageSize))
}

// Meta is the paging metadata returned alongside a list response.
type Meta struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// HasMore reports whether pages beyond the current one remain.
func (m Meta) HasMore() bool {
	return m.Page < m.TotalPages
}

// NewMeta constructs paging metadata from a total item count.
//
// It automatically calculates TotalPages based on the total and page size.
func NewMeta(page, pageSize, total int) Meta {
	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}

	return Meta{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}
