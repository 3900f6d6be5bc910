// Copyright (c) 2026 Lumina. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package gallery

import (
	"context"
	"log/slog"
	"sync"

	"github.com/taibuivan/lumina/internal/platform/bus"
	"github.com/taibuivan/lumina/internal/remote"
	"github.com/taibuivan/lumina/pkg/pagination"
	"github.com/taibuivan/lumina/pkg/slice"
)

// controllerSubscriber names the controller's bus subscription.
const controllerSubscriber = "gallery-controller"

/*
Controller orchestrates paging, warm-up, and export around the [Registry].

# Pagination Termination

More pages remain iff currentPage < totalPages as reported by the last
response. An empty image list also terminates pagination even when the
reported page count disagrees, as a defensive floor against backends whose
counts drift.

Page loads are serialized: concurrent LoadMore calls while one is in flight
are no-ops checked via a busy flag.
*/
type Controller struct {
	registry *Registry
	backend  Backend
	bus      *bus.Bus[Event]
	log      *slog.Logger
	pageSize int

	mu          sync.Mutex
	loading     bool
	exporting   bool
	currentPage int
	totalPages  int
	hasMore     bool
	rows        []Row
}

// NewController wires a controller to its registry, backend, and event bus.
func NewController(registry *Registry, backend Backend, eventBus *bus.Bus[Event], pageSize int, log *slog.Logger) *Controller {
	return &Controller{
		registry: registry,
		backend:  backend,
		bus:      eventBus,
		log:      log,
		pageSize: pageSize,
		hasMore:  true,
	}
}

// # Paging

// Start loads the first page and establishes the initial layout.
func (c *Controller) Start(ctx context.Context) error {
	_, err := c.loadPage(ctx, 1)
	return err
}

/*
LoadMore loads the next page if one remains.

Returns true when a page was loaded. A call while another load is in flight
or after pagination terminated returns false without error. On failure the
registry's sequence and the paging counters stay untouched so the user can
retry.
*/
func (c *Controller) LoadMore(ctx context.Context) (bool, error) {
	c.mu.Lock()
	if !c.hasMore {
		c.mu.Unlock()
		return false, nil
	}
	next := c.currentPage + 1
	c.mu.Unlock()

	return c.loadPage(ctx, next)
}

// loadPage fetches one page, ingests it, and advances the paging state.
func (c *Controller) loadPage(ctx context.Context, page int) (bool, error) {
	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		c.log.Debug("page_load_already_in_flight", slog.Int("page", page))
		return false, nil
	}
	c.loading = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.loading = false
		c.mu.Unlock()
	}()

	result, err := c.backend.FetchPage(ctx, pagination.Params{Page: page, PageSize: c.pageSize}, c.registry.Filter())
	if err != nil {
		c.log.Error("page_load_failed",
			slog.Int("page", page),
			slog.String("error", err.Error()),
		)
		c.bus.Publish(Event{Kind: EventLoadFailed, Page: page, Err: err})
		return false, err
	}

	// Defensive floor: an empty page ends pagination regardless of the
	// reported page count.
	if len(result.Images) == 0 {
		c.mu.Lock()
		c.hasMore = false
		c.mu.Unlock()
		return false, nil
	}

	c.registry.IngestPage(ctx, result.Images)
	rows := LayoutRows(c.registry.SequenceRecords())

	c.mu.Lock()
	c.currentPage = result.Meta.Page
	c.totalPages = result.Meta.TotalPages
	c.hasMore = result.Meta.HasMore()
	c.rows = rows
	c.mu.Unlock()

	c.log.Info("page_loaded",
		slog.Int("page", result.Meta.Page),
		slog.Int("total_pages", result.Meta.TotalPages),
		slog.Int("image_count", len(result.Images)),
	)

	// Speculative warm-up for the pages the user is likely to scroll into.
	go c.registry.Warmup(context.Background(), page+1)

	c.bus.Publish(Event{Kind: EventPageLoaded, Page: result.Meta.Page, Rows: rows})
	return true, nil
}

// HasMore reports whether pagination has terminated.
func (c *Controller) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasMore
}

// CurrentPage returns the last successfully loaded page number.
func (c *Controller) CurrentPage() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentPage
}

// Rows returns the current layout snapshot.
func (c *Controller) Rows() []Row {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Row, len(c.rows))
	copy(out, c.rows)
	return out
}

// # Filtering & Rendering

// ApplyFilter installs a new filter and reloads from page 1. The registry
// keeps previously cached records; only the viewing order resets.
func (c *Controller) ApplyFilter(ctx context.Context, filter remote.Filter) error {
	c.registry.SetFilter(filter)

	c.mu.Lock()
	c.currentPage = 0
	c.totalPages = 0
	c.hasMore = true
	c.rows = nil
	c.mu.Unlock()

	_, err := c.loadPage(ctx, 1)
	return err
}

// Rerender rebuilds the layout from the registry's current sequence, used
// after the detail view closes with possibly changed annotations.
func (c *Controller) Rerender() []Row {
	rows := LayoutRows(c.registry.SequenceRecords())

	c.mu.Lock()
	c.rows = rows
	c.mu.Unlock()

	c.bus.Publish(Event{Kind: EventRowsChanged, Rows: rows})
	return rows
}

// # Export

// Export bundles the selected images, publishing the outcome on the bus.
// The exporting flag is reset on failure so the user can retry immediately.
func (c *Controller) Export(ctx context.Context) (*ExportBundle, error) {
	c.mu.Lock()
	if c.exporting {
		c.mu.Unlock()
		return nil, nil
	}
	c.exporting = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.exporting = false
		c.mu.Unlock()
	}()

	bundle, err := c.registry.ExportSelected(ctx)
	if err != nil {
		c.log.Error("export_failed", slog.String("error", err.Error()))
		c.bus.Publish(Event{Kind: EventExportFailed, Err: err})
		return nil, err
	}

	c.bus.Publish(Event{Kind: EventExportReady, Bundle: bundle})
	return bundle, nil
}

// # Event Loop

/*
Run subscribes the controller to the event bus and dispatches UI signals
until ctx is cancelled.

Output events published by the controller itself (page_loaded, export_ready,
...) arrive on the same bus and are ignored here.
*/
func (c *Controller) Run(ctx context.Context) {
	events := c.bus.Subscribe(controllerSubscriber, 16)
	defer c.bus.Unsubscribe(controllerSubscriber)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			c.dispatch(ctx, event)
		}
	}
}

// dispatch handles one input signal. Load and export failures are already
// published on the bus by the inner calls; the errors are dropped here.
func (c *Controller) dispatch(ctx context.Context, event Event) {
	switch event.Kind {
	case EventScrollNearBottom:
		_, _ = c.LoadMore(ctx)
	case EventFilterChanged:
		_ = c.ApplyFilter(ctx, event.Filter)
	case EventSelectionToggled:
		c.registry.Select(event.ImageID, event.Selected)
	case EventExportRequested:
		_, _ = c.Export(ctx)
	case EventModalClosed:
		c.Rerender()
	}
}

// SelectedIDs returns the ids of the currently selected records, in sequence
// order where applicable.
func (c *Controller) SelectedIDs() []string {
	return slice.Map(c.registry.Selected(), func(record *Record) string { return record.ID })
}
