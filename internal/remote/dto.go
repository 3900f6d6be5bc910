// Copyright (c) 2026 Lumina. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package remote

import (
	"net/url"
	"strconv"

	"github.com/taibuivan/lumina/pkg/pagination"
)

// # Wire Types

// ImageMetadata is one entry of the paginated metadata listing.
//
// Booleans are declaration flags: they tell the client whether an enrichment
// resource (caption, crop, tags) exists server-side without embedding it.
type ImageMetadata struct {
	ID             string `json:"id"`
	URL            string `json:"url,omitempty"`
	Filename       string `json:"filename"`
	Size           int64  `json:"size"`
	CreatedAt      string `json:"created_at"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	HasCaption     bool   `json:"has_caption"`
	HasCrop        bool   `json:"has_crop"`
	HasTags        bool   `json:"has_tags"`
	CollectionName string `json:"collection_name"`
	MimeType       string `json:"mime_type"`
}

// PageResult is the decoded response of the metadata listing endpoint.
type PageResult struct {
	Images []ImageMetadata
	Meta   pagination.Meta
}

// pageResponse matches the raw listing payload.
type pageResponse struct {
	Images     []ImageMetadata `json:"images"`
	Page       int             `json:"page"`
	TotalPages int             `json:"total_pages"`
	Total      int             `json:"total"`
	PageSize   int             `json:"page_size"`
}

// Facets are the filter dimension values offered by the backend.
type Facets struct {
	Actors []string `json:"actors"`
	Tags   []string `json:"tags"`
	Years  []string `json:"years"`
}

// NormalizedDeltas is a crop offset pair normalized to the [-1, 1] range.
type NormalizedDeltas struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CropInfo describes a stored crop: the square target size and its offset.
type CropInfo struct {
	TargetSize       int              `json:"targetSize"`
	NormalizedDeltas NormalizedDeltas `json:"normalizedDeltas"`
}

// CropResult is the decoded response of the crop lookup endpoint.
type CropResult struct {
	CropInfo CropInfo `json:"cropInfo"`
	ImageURL string   `json:"imageUrl"`
}

// WarmupResult reports how far the backend's cache warm-up got.
type WarmupResult struct {
	Page       int `json:"page"`
	TotalPages int `json:"total_pages"`
}

// HasMorePages reports whether pages beyond the warmed one remain.
func (w WarmupResult) HasMorePages() bool {
	return w.Page < w.TotalPages
}

// exportRequest is the body of the batch export endpoint.
type exportRequest struct {
	ImageIDs []string `json:"imageIds"`
}

// # Filtering

// Filter narrows the metadata listing. Zero-valued fields are omitted from
// the query; the boolean facets are tri-state (nil = not filtered).
type Filter struct {
	Actor      string
	Tag        string
	Year       string
	HasCaption *bool
	HasCrop    *bool
}

// IsZero reports whether no filter dimension is set.
func (f Filter) IsZero() bool {
	return f.Actor == "" && f.Tag == "" && f.Year == "" && f.HasCaption == nil && f.HasCrop == nil
}

// Encode writes the set filter dimensions into values.
func (f Filter) Encode(values url.Values) {
	if f.Actor != "" {
		values.Set("actor", f.Actor)
	}
	if f.Tag != "" {
		values.Set("tag", f.Tag)
	}
	if f.Year != "" {
		values.Set("year", f.Year)
	}
	if f.HasCaption != nil {
		values.Set("has_caption", strconv.FormatBool(*f.HasCaption))
	}
	if f.HasCrop != nil {
		values.Set("has_crop", strconv.FormatBool(*f.HasCrop))
	}
}
