// Copyright (c) 2026 Lumina. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package gallery

import (
	"github.com/taibuivan/lumina/internal/remote"
)

// # Orientation

// Orientation classifies an image for the row layout.
type Orientation string

const (
	// OrientationLandscape marks images wider than tall.
	OrientationLandscape Orientation = "landscape"
	// OrientationPortrait marks images taller than wide, including squares.
	OrientationPortrait Orientation = "portrait"
)

// # Record

// Record is the canonical per-image state entry held by the [Registry].
//
// It is a two-phase structure: the descriptive fields and the Has* flags are
// declared by the metadata listing, while Caption, CropInfo, CroppedURL, and
// CustomTags are enrichment data fetched lazily on demand. A nil Caption
// means "not yet fetched"; an empty loaded caption is stored as a pointer to
// the empty string.
//
// All mutation goes through the Registry; callers treat returned Records as
// read-only views.
type Record struct {
	ID             string
	URL            string
	Filename       string
	SizeBytes      int64
	CreatedAt      string
	Width          int
	Height         int
	CollectionName string
	MimeType       string

	// Declared flags from the metadata listing.
	HasCaption bool
	HasCrop    bool
	HasTags    bool

	// Enrichment data, fetched lazily.
	Caption    *string
	CropInfo   *remote.CropInfo
	CroppedURL string
	CustomTags []string

	// Selected is transient UI state. It is never sent to the backend and
	// survives metadata re-ingestion.
	Selected bool
}

// Orientation classifies the record by its aspect ratio. A ratio of exactly
// 1 counts as portrait.
func (r *Record) Orientation() Orientation {
	if r.Height > 0 && float64(r.Width)/float64(r.Height) > 1 {
		return OrientationLandscape
	}
	return OrientationPortrait
}

// NeedsCaptionEnrichment reports whether a caption fetch is required: the
// listing declared a caption and its text has not been loaded yet.
//
// Keeping this a pure predicate makes the fetch trigger testable without I/O.
func (r *Record) NeedsCaptionEnrichment() bool {
	return r.HasCaption && r.Caption == nil
}

// newRecord builds a Record from listing metadata. fallbackURL is used when
// the backend omitted the resolved image location.
func newRecord(meta remote.ImageMetadata, fallbackURL string) *Record {
	url := meta.URL
	if url == "" {
		url = fallbackURL
	}

	return &Record{
		ID:             meta.ID,
		URL:            url,
		Filename:       meta.Filename,
		SizeBytes:      meta.Size,
		CreatedAt:      meta.CreatedAt,
		Width:          meta.Width,
		Height:         meta.Height,
		CollectionName: meta.CollectionName,
		MimeType:       meta.MimeType,
		HasCaption:     meta.HasCaption,
		HasCrop:        meta.HasCrop,
		HasTags:        meta.HasTags,
	}
}

// mergeMetadata folds fresh listing metadata into an existing record.
//
// Selection state and already-fetched enrichment data are preserved: a
// re-ingested page must never reset what the user did or what was already
// loaded.
func (r *Record) mergeMetadata(meta remote.ImageMetadata, fallbackURL string) {
	if meta.URL != "" {
		r.URL = meta.URL
	} else if r.URL == "" {
		r.URL = fallbackURL
	}

	r.Filename = meta.Filename
	r.SizeBytes = meta.Size
	r.CreatedAt = meta.CreatedAt
	r.Width = meta.Width
	r.Height = meta.Height
	r.CollectionName = meta.CollectionName
	r.MimeType = meta.MimeType
	r.HasTags = r.HasTags || meta.HasTags

	// Declared flags only advance state that has not been enriched locally.
	if r.Caption == nil {
		r.HasCaption = meta.HasCaption
	}
	if r.CropInfo == nil {
		r.HasCrop = meta.HasCrop
	}
}
