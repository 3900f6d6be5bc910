// Copyright (c) 2026 Lumina. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package gallery contains the client core of the Lumina image gallery: the
image [Registry], the pure row layout engine, and the [Controller] that
orchestrates paging against the remote backend.

# Architecture

  - Registry: the single per-session owner of image state. It holds the
    canonical record per image id, the display sequence, the active filter,
    selection, and the cached facet list. All mutation flows through it.
  - Layout: a pure function from an ordered record sequence to display rows.
  - Controller: event-driven orchestration of paging, warm-up, and export,
    wired to the rest of the application through the platform event bus.

The registry replaces the usual hidden singleton with an explicit object
constructed once at application start and passed by reference; it is
mutex-guarded so background warm-up and enrichment can run off the UI path.
*/
package gallery

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/taibuivan/lumina/internal/platform/apperr"
	"github.com/taibuivan/lumina/internal/remote"
	"github.com/taibuivan/lumina/pkg/pagination"
	"github.com/taibuivan/lumina/pkg/slice"
	"github.com/taibuivan/lumina/pkg/tagnorm"
)

// enrichmentConcurrency bounds the caption fetch fan-out for one page.
const enrichmentConcurrency = 8

// defaultWarmupPages is how many pages beyond the starting one a single
// warm-up pass covers.
const defaultWarmupPages = 3

// Backend is the slice of the remote client the gallery core depends on.
//
// *remote.Client satisfies it; tests may substitute a narrower fake.
type Backend interface {
	FetchPage(ctx context.Context, params pagination.Params, filter remote.Filter) (*remote.PageResult, error)
	FetchCaption(ctx context.Context, id string) (string, error)
	SaveCaption(ctx context.Context, id, caption string) error
	GenerateCaption(ctx context.Context, id, prompt string) (string, error)
	StreamCaption(ctx context.Context, id, prompt string, onProgress func(string), onComplete func(string), onError func(error)) error
	FetchCrop(ctx context.Context, id string) (*remote.CropResult, error)
	ApplyCrop(ctx context.Context, id string, targetSize int, deltas remote.NormalizedDeltas) ([]byte, error)
	AddTag(ctx context.Context, id, tag string) error
	FetchFacets(ctx context.Context) (*remote.Facets, error)
	WarmupPage(ctx context.Context, params pagination.Params, filter remote.Filter) (*remote.WarmupResult, error)
	ExportImages(ctx context.Context, ids []string) ([]byte, error)
	ImageURL(id string) string
	AbsoluteURL(path string) string
}

// Registry owns the canonical image state for one gallery session.
type Registry struct {
	backend Backend
	log     *slog.Logger

	pageSize    int
	warmupPages int

	mu               sync.Mutex
	records          map[string]*Record
	sequence         []string
	filter           remote.Filter
	warmupInProgress bool
	facets           *remote.Facets
}

// NewRegistry constructs an empty registry.
//
// pageSize is used for warm-up requests; warmupPages <= 0 falls back to the
// default of 3 pages per pass.
func NewRegistry(backend Backend, pageSize, warmupPages int, log *slog.Logger) *Registry {
	if warmupPages <= 0 {
		warmupPages = defaultWarmupPages
	}

	return &Registry{
		backend:     backend,
		log:         log,
		pageSize:    pageSize,
		warmupPages: warmupPages,
		records:     make(map[string]*Record),
	}
}

// # Ingestion

/*
Upsert merges one image's listing metadata into the registry.

If the id is already known, the fresh metadata is folded into the existing
record, preserving selection state and any enrichment data already fetched.
Otherwise a new record is created. A caption fetch is triggered only when the
merged record declares a caption whose text is not yet loaded; enrichment
failures degrade the record instead of propagating. The id is appended to the
display sequence if absent.
*/
func (r *Registry) Upsert(ctx context.Context, meta remote.ImageMetadata) *Record {
	record, needsCaption := r.merge(meta)

	if needsCaption {
		r.enrichCaption(ctx, record)
	}

	r.mu.Lock()
	r.appendToSequenceLocked(meta.ID)
	r.mu.Unlock()

	return record
}

/*
IngestPage merges one full metadata page into the registry.

Caption enrichment is fanned out concurrently across the page's images, and
every fetch settles before any id is appended to the display sequence, so a
rendered row never shows a half-annotated batch.
*/
func (r *Registry) IngestPage(ctx context.Context, metas []remote.ImageMetadata) []*Record {
	records := make([]*Record, len(metas))
	var pending []*Record

	for i, meta := range metas {
		record, needsCaption := r.merge(meta)
		records[i] = record
		if needsCaption {
			pending = append(pending, record)
		}
	}

	if len(pending) > 0 {
		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(enrichmentConcurrency)
		for _, record := range pending {
			record := record
			group.Go(func() error {
				r.enrichCaption(groupCtx, record)
				return nil
			})
		}
		// Enrichment never returns errors; Wait only joins the fan-out.
		_ = group.Wait()
	}

	r.mu.Lock()
	for _, meta := range metas {
		r.appendToSequenceLocked(meta.ID)
	}
	r.mu.Unlock()

	return records
}

// merge creates or updates the record for meta and reports whether caption
// enrichment is needed.
func (r *Registry) merge(meta remote.ImageMetadata) (*Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[meta.ID]
	if ok {
		record.mergeMetadata(meta, r.backend.ImageURL(meta.ID))
	} else {
		record = newRecord(meta, r.backend.ImageURL(meta.ID))
		r.records[meta.ID] = record
	}

	return record, record.NeedsCaptionEnrichment()
}

// enrichCaption loads the caption for record, degrading to an unset caption
// on failure. One bad image must not block the rest of its page.
func (r *Registry) enrichCaption(ctx context.Context, record *Record) {
	caption, err := r.backend.FetchCaption(ctx, record.ID)

	r.mu.Lock()
	defer r.mu.Unlock()

	if err != nil {
		r.log.Warn("caption_enrichment_failed",
			slog.String("image_id", record.ID),
			slog.String("error", err.Error()),
		)
		record.Caption = nil
		record.HasCaption = false
		return
	}

	record.Caption = &caption
	record.HasCaption = caption != ""
}

// appendToSequenceLocked adds id to the display sequence unless present.
func (r *Registry) appendToSequenceLocked(id string) {
	for _, existing := range r.sequence {
		if existing == id {
			return
		}
	}
	r.sequence = append(r.sequence, id)
}

// # Sequence & Navigation

// Image returns the record for id, or nil if unknown.
func (r *Registry) Image(id string) *Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.records[id]
}

// SetSequence replaces the display sequence with ids, silently dropping any
// id not present in the registry. The caller's order is preserved.
func (r *Registry) SetSequence(ids []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sequence = slice.Filter(ids, func(id string) bool {
		_, ok := r.records[id]
		return ok
	})
}

// Sequence returns a copy of the current display sequence.
func (r *Registry) Sequence() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.sequence))
	copy(out, r.sequence)
	return out
}

// SequenceRecords returns the records of the display sequence in order.
func (r *Registry) SequenceRecords() []*Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Record, 0, len(r.sequence))
	for _, id := range r.sequence {
		if record, ok := r.records[id]; ok {
			out = append(out, record)
		}
	}
	return out
}

// Len returns the display sequence length.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sequence)
}

// IndexOf returns the position of id in the display sequence, or -1.
func (r *Registry) IndexOf(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.indexOfLocked(id)
}

func (r *Registry) indexOfLocked(id string) int {
	for i, existing := range r.sequence {
		if existing == id {
			return i
		}
	}
	return -1
}

// Next returns the record following id in the display sequence. At the last
// position (or for an unknown id) it returns nil; there is no wraparound.
func (r *Registry) Next(id string) *Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	index := r.indexOfLocked(id)
	if index == -1 || index == len(r.sequence)-1 {
		return nil
	}
	return r.records[r.sequence[index+1]]
}

// Previous returns the record preceding id in the display sequence. At the
// first position (or for an unknown id) it returns nil; there is no wraparound.
func (r *Registry) Previous(id string) *Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	index := r.indexOfLocked(id)
	if index <= 0 {
		return nil
	}
	return r.records[r.sequence[index-1]]
}

// # Selection

// Select sets the transient selection flag of id. Unknown ids are ignored.
func (r *Registry) Select(id string, selected bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if record, ok := r.records[id]; ok {
		record.Selected = selected
	}
}

// Selected returns all currently selected records. Selection is independent
// of sequence membership: records cached from a previous filter count too.
func (r *Registry) Selected() []*Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*Record
	for _, id := range r.sequence {
		if record, ok := r.records[id]; ok && record.Selected {
			out = append(out, record)
		}
	}
	for id, record := range r.records {
		if record.Selected && r.indexOfLocked(id) == -1 {
			out = append(out, record)
		}
	}
	return out
}

// ClearSelection resets the selection flag of every record.
func (r *Registry) ClearSelection() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, record := range r.records {
		record.Selected = false
	}
}

// # Filtering

// SetFilter replaces the active filter, clears the display sequence (cached
// records are retained), and kicks off a background warm-up at page 1.
func (r *Registry) SetFilter(filter remote.Filter) {
	r.mu.Lock()
	r.filter = filter
	r.sequence = nil
	r.mu.Unlock()

	go r.Warmup(context.Background(), 1)
}

// ClearFilter removes the active filter and clears the display sequence.
func (r *Registry) ClearFilter() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.filter = remote.Filter{}
	r.sequence = nil
}

// Filter returns the active filter.
func (r *Registry) Filter() remote.Filter {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filter
}

// HasActiveFilter reports whether any filter dimension is set.
func (r *Registry) HasActiveFilter() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.filter.IsZero()
}

// # Cache Warm-up

/*
Warmup speculatively asks the backend to pre-populate its caches for the
pages following startPage under the current filter.

It is idempotent against re-entrancy: when a pass is already running, a new
call is a logged no-op rather than being queued. The pass covers up to
warmupPages pages sequentially and stops early when the backend reports no
further pages. Warm-up is advisory: every failure is swallowed after logging,
and the in-progress flag is cleared on all paths.
*/
func (r *Registry) Warmup(ctx context.Context, startPage int) {
	r.mu.Lock()
	if r.warmupInProgress {
		r.mu.Unlock()
		r.log.Debug("warmup_already_in_progress", slog.Int("start_page", startPage))
		return
	}
	r.warmupInProgress = true
	filter := r.filter
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.warmupInProgress = false
		r.mu.Unlock()
		r.log.Debug("warmup_finished", slog.Int("start_page", startPage))
	}()

	endPage := startPage + r.warmupPages
	for page := startPage; page < endPage; page++ {
		result, err := r.backend.WarmupPage(ctx, pagination.Params{Page: page, PageSize: r.pageSize}, filter)
		if err != nil {
			r.log.Warn("warmup_request_failed",
				slog.Int("page", page),
				slog.String("error", err.Error()),
			)
			return
		}
		if !result.HasMorePages() {
			break
		}
	}
}

// WarmupInProgress reports whether a warm-up pass is currently running.
func (r *Registry) WarmupInProgress() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.warmupInProgress
}

// # Export

// ExportBundle is a downloadable archive of exported images.
type ExportBundle struct {
	// Filename is the suggested download name, dated for uniqueness.
	Filename string
	// Data is the raw zip archive.
	Data []byte
}

/*
ExportSelected requests an archive bundling every selected image.

It fails with an EMPTY_SELECTION error before any network work when nothing
is selected, and with an EMPTY_EXPORT error when the backend returned a
zero-byte archive.
*/
func (r *Registry) ExportSelected(ctx context.Context) (*ExportBundle, error) {
	selected := r.Selected()
	if len(selected) == 0 {
		return nil, apperr.EmptySelection()
	}

	ids := slice.Map(selected, func(record *Record) string { return record.ID })

	r.log.Info("export_requested",
		slog.Int("image_count", len(ids)),
		slog.Any("image_ids", ids),
	)

	data, err := r.backend.ExportImages(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, apperr.EmptyExport()
	}

	return &ExportBundle{
		Filename: fmt.Sprintf("exported_images_%s.zip", time.Now().Format("2006-01-02")),
		Data:     data,
	}, nil
}

// # Facets

/*
AvailableTags returns the backend's tag facet values, fetched lazily and
cached for the session.

Uppercase-initial tags are hidden; see [tagnorm.FacetVisible]. A fetch
failure degrades to an empty list.
*/
func (r *Registry) AvailableTags(ctx context.Context) []string {
	facets := r.loadFacets(ctx)
	if facets == nil {
		return nil
	}
	return slice.Filter(facets.Tags, tagnorm.FacetVisible)
}

// Facets returns the full cached facet set (actors, tags, years), fetching
// it on first use. A fetch failure yields an empty facet set.
func (r *Registry) Facets(ctx context.Context) remote.Facets {
	facets := r.loadFacets(ctx)
	if facets == nil {
		return remote.Facets{}
	}
	return *facets
}

// RefreshAvailableTags invalidates the cached facets and refetches them.
func (r *Registry) RefreshAvailableTags(ctx context.Context) {
	r.mu.Lock()
	r.facets = nil
	r.mu.Unlock()

	r.AvailableTags(ctx)
}

// loadFacets returns the cached facets, fetching them once per session.
func (r *Registry) loadFacets(ctx context.Context) *remote.Facets {
	r.mu.Lock()
	cached := r.facets
	r.mu.Unlock()
	if cached != nil {
		return cached
	}

	facets, err := r.backend.FetchFacets(ctx)
	if err != nil {
		r.log.Warn("facet_fetch_failed", slog.String("error", err.Error()))
		return nil
	}

	r.mu.Lock()
	r.facets = facets
	r.mu.Unlock()
	return facets
}
