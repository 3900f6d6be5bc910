// Copyright (c) 2026 Lumina. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package gallery

import (
	"context"
	"log/slog"

	"github.com/taibuivan/lumina/internal/platform/apperr"
	"github.com/taibuivan/lumina/internal/remote"
	"github.com/taibuivan/lumina/pkg/tagnorm"
)

// Annotation operations: caption, crop, and tag state of individual records.
// All of them route through the registry so record mutation stays in one place.

// # Captions

// Caption returns the caption text of id, fetching it lazily when the record
// declares one that has not been loaded yet. Unknown ids and records without
// a caption yield the empty string.
func (r *Registry) Caption(ctx context.Context, id string) string {
	record := r.Image(id)
	if record == nil {
		return ""
	}

	r.mu.Lock()
	loaded := record.Caption
	needs := record.NeedsCaptionEnrichment()
	r.mu.Unlock()

	if loaded != nil {
		return *loaded
	}
	if !needs {
		return ""
	}

	r.enrichCaption(ctx, record)

	r.mu.Lock()
	defer r.mu.Unlock()
	if record.Caption == nil {
		return ""
	}
	return *record.Caption
}

// SaveCaption stores a caption on the backend and mirrors it locally.
func (r *Registry) SaveCaption(ctx context.Context, id, caption string) error {
	record := r.Image(id)
	if record == nil {
		return apperr.Validation("Unknown image")
	}

	if err := r.backend.SaveCaption(ctx, id, caption); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	record.Caption = &caption
	record.HasCaption = caption != ""
	return nil
}

// GenerateCaption asks the backend for a one-shot generated caption. The
// result is returned to the caller for review; it is not stored until the
// caller decides to [Registry.SaveCaption] it.
func (r *Registry) GenerateCaption(ctx context.Context, id, prompt string) (string, error) {
	return r.backend.GenerateCaption(ctx, id, prompt)
}

// StreamCaption streams an incrementally generated caption for id. Callback
// semantics are those of the backend client: cumulative progress, final
// completion, abort on explicit error fragments.
func (r *Registry) StreamCaption(
	ctx context.Context,
	id string,
	prompt string,
	onProgress func(cumulative string),
	onComplete func(final string),
	onError func(err error),
) error {
	return r.backend.StreamCaption(ctx, id, prompt, onProgress, onComplete, onError)
}

// # Crops

// CropInfo returns the crop parameters of id, fetching them lazily the first
// time. Records without a declared crop yield nil without network work.
func (r *Registry) CropInfo(ctx context.Context, id string) *remote.CropInfo {
	record := r.Image(id)
	if record == nil {
		return nil
	}

	r.mu.Lock()
	cached := record.CropInfo
	hasCrop := record.HasCrop
	r.mu.Unlock()

	if cached != nil {
		return cached
	}
	if !hasCrop {
		return nil
	}

	r.enrichCrop(ctx, record)

	r.mu.Lock()
	defer r.mu.Unlock()
	return record.CropInfo
}

// CroppedImageURL returns the fetch location of the cropped rendition, or ""
// when the record has no crop.
func (r *Registry) CroppedImageURL(ctx context.Context, id string) string {
	record := r.Image(id)
	if record == nil {
		return ""
	}

	r.mu.Lock()
	cached := record.CroppedURL
	hasCrop := record.HasCrop
	r.mu.Unlock()

	if cached != "" {
		return cached
	}
	if !hasCrop {
		return ""
	}

	r.enrichCrop(ctx, record)

	r.mu.Lock()
	defer r.mu.Unlock()
	return record.CroppedURL
}

// enrichCrop loads crop parameters for record, degrading on failure.
func (r *Registry) enrichCrop(ctx context.Context, record *Record) {
	result, err := r.backend.FetchCrop(ctx, record.ID)

	r.mu.Lock()
	defer r.mu.Unlock()

	if err != nil {
		r.log.Warn("crop_enrichment_failed",
			slog.String("image_id", record.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	if result == nil {
		// Backend has no crop despite the declared flag.
		record.HasCrop = false
		return
	}

	info := result.CropInfo
	record.CropInfo = &info
	record.CroppedURL = r.backend.AbsoluteURL(result.ImageURL)
}

// ApplyCrop stores new crop parameters on the backend and mirrors them into
// the record on success.
func (r *Registry) ApplyCrop(ctx context.Context, id string, targetSize int, deltas remote.NormalizedDeltas) error {
	record := r.Image(id)
	if record == nil {
		return apperr.Validation("Unknown image")
	}

	if _, err := r.backend.ApplyCrop(ctx, id, targetSize, deltas); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	record.CropInfo = &remote.CropInfo{TargetSize: targetSize, NormalizedDeltas: deltas}
	record.HasCrop = true
	// The stored rendition changed; force a fresh lookup next time.
	record.CroppedURL = ""
	return nil
}

// # Custom Tags

// AddCustomTag normalizes and appends a custom tag to id. Tags are
// append-only; the local record is updated after the backend accepts it.
func (r *Registry) AddCustomTag(ctx context.Context, id, raw string) error {
	record := r.Image(id)
	if record == nil {
		return apperr.Validation("Unknown image")
	}

	tag := tagnorm.Normalize(raw)
	if tag == "" {
		return apperr.Validation("Tag must not be empty")
	}

	if err := r.backend.AddTag(ctx, id, tag); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	record.CustomTags = append(record.CustomTags, tag)
	record.HasTags = true
	return nil
}

// CustomTags returns a copy of the locally known custom tags of id.
func (r *Registry) CustomTags(id string) []string {
	record := r.Image(id)
	if record == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(record.CustomTags))
	copy(out, record.CustomTags)
	return out
}
