// Copyright (c) 2026 Lumina. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package gallery_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/lumina/internal/gallery"
	"github.com/taibuivan/lumina/internal/platform/apperr"
	"github.com/taibuivan/lumina/internal/platform/bus"
	"github.com/taibuivan/lumina/internal/remote"
	"github.com/taibuivan/lumina/internal/remote/remotetest"
	"github.com/taibuivan/lumina/pkg/pagination"
)

// fixtures builds n landscape images with distinct two-rune ids.
func fixtures(n int) []remote.ImageMetadata {
	images := make([]remote.ImageMetadata, 0, n)
	for i := 0; i < n; i++ {
		id := string(rune('a'+i%26)) + string(rune('0'+i/26))
		images = append(images, remotetest.Fixture(id, 800, 600))
	}
	return images
}

func newController(t *testing.T, pageSize int, images ...remote.ImageMetadata) (*gallery.Controller, *gallery.Registry, *remotetest.Server, *bus.Bus[gallery.Event]) {
	t.Helper()

	srv := remotetest.New(t, images...)
	log := newTestLogger()
	client := remote.NewClient(srv.URL(), 0, log)
	registry := gallery.NewRegistry(client, pageSize, 3, log)
	eventBus := bus.New[gallery.Event](log)
	t.Cleanup(eventBus.Close)

	return gallery.NewController(registry, client, eventBus, pageSize, log), registry, srv, eventBus
}

// collectEvents subscribes before the action under test and returns a
// receiver that waits for the next event of the wanted kind.
func collectEvents(t *testing.T, eventBus *bus.Bus[gallery.Event]) func(kind gallery.EventKind) gallery.Event {
	t.Helper()
	events := eventBus.Subscribe("test-observer", 32)
	t.Cleanup(func() { eventBus.Unsubscribe("test-observer") })

	return func(kind gallery.EventKind) gallery.Event {
		deadline := time.After(2 * time.Second)
		for {
			select {
			case event := <-events:
				if event.Kind == kind {
					return event
				}
			case <-deadline:
				t.Fatalf("timed out waiting for %s event", kind)
				return gallery.Event{}
			}
		}
	}
}

// # Paging

/*
TestController_Start loads the first page and lays it out.
*/
func TestController_Start(t *testing.T) {
	controller, registry, _, eventBus := newController(t, 4, fixtures(10)...)
	next := collectEvents(t, eventBus)

	require.NoError(t, controller.Start(context.Background()))

	assert.Equal(t, 1, controller.CurrentPage())
	assert.True(t, controller.HasMore())
	assert.Equal(t, 4, registry.Len())
	assert.NotEmpty(t, controller.Rows())

	event := next(gallery.EventPageLoaded)
	assert.Equal(t, 1, event.Page)
	assert.NotEmpty(t, event.Rows)
}

/*
TestController_LoadMore_WalksAllPages pages through the fixture set until
termination, then verifies further calls are no-ops.
*/
func TestController_LoadMore_WalksAllPages(t *testing.T) {
	controller, registry, _, _ := newController(t, 4, fixtures(10)...)
	ctx := context.Background()

	require.NoError(t, controller.Start(ctx))

	// Pages 2 and 3 (4 + 4 + 2 images).
	loaded, err := controller.LoadMore(ctx)
	require.NoError(t, err)
	assert.True(t, loaded)

	loaded, err = controller.LoadMore(ctx)
	require.NoError(t, err)
	assert.True(t, loaded)

	assert.Equal(t, 3, controller.CurrentPage())
	assert.False(t, controller.HasMore())
	assert.Equal(t, 10, registry.Len())

	// Terminated: no further requests, no error.
	loaded, err = controller.LoadMore(ctx)
	require.NoError(t, err)
	assert.False(t, loaded)
}

// gatedBackend wraps the real client and, once a gate is installed, holds
// every page fetch open until the gate is released.
type gatedBackend struct {
	gallery.Backend

	mu      sync.Mutex
	gate    chan struct{}
	fetches int
}

func (b *gatedBackend) FetchPage(ctx context.Context, params pagination.Params, filter remote.Filter) (*remote.PageResult, error) {
	b.mu.Lock()
	b.fetches++
	gate := b.gate
	b.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return b.Backend.FetchPage(ctx, params, filter)
}

func (b *gatedBackend) SetGate(gate chan struct{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gate = gate
}

func (b *gatedBackend) FetchCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fetches
}

/*
TestController_LoadMore_SerializedWhileInFlight races two LoadMore calls
against a page fetch held open: the second call must be a no-op rather than
a queued duplicate, so exactly one fetch reaches the backend.
*/
func TestController_LoadMore_SerializedWhileInFlight(t *testing.T) {
	srv := remotetest.New(t, fixtures(10)...)
	log := newTestLogger()
	client := remote.NewClient(srv.URL(), 0, log)
	registry := gallery.NewRegistry(client, 4, 3, log)
	eventBus := bus.New[gallery.Event](log)
	t.Cleanup(eventBus.Close)

	backend := &gatedBackend{Backend: client}
	controller := gallery.NewController(registry, backend, eventBus, 4, log)
	ctx := context.Background()

	require.NoError(t, controller.Start(ctx))
	require.Equal(t, 1, backend.FetchCount())

	// Hold the next page fetch open and race two LoadMore calls into it.
	gate := make(chan struct{})
	backend.SetGate(gate)

	type loadOutcome struct {
		loaded bool
		err    error
	}
	outcomes := make(chan loadOutcome, 2)
	for i := 0; i < 2; i++ {
		go func() {
			loaded, err := controller.LoadMore(ctx)
			outcomes <- loadOutcome{loaded: loaded, err: err}
		}()
	}

	// The gated call cannot finish yet, so the first outcome must be the
	// busy-flag no-op.
	first := <-outcomes
	require.NoError(t, first.err)
	assert.False(t, first.loaded)

	close(gate)

	second := <-outcomes
	require.NoError(t, second.err)
	assert.True(t, second.loaded)

	// Exactly one page-2 fetch reached the backend.
	assert.Equal(t, 2, backend.FetchCount())
	assert.Equal(t, 2, controller.CurrentPage())
	assert.Equal(t, 8, registry.Len())
}

/*
TestController_EmptyPageTerminates verifies the defensive pagination floor:
an empty image list ends paging even before counters say so.
*/
func TestController_EmptyPageTerminates(t *testing.T) {
	controller, registry, _, _ := newController(t, 4)

	require.NoError(t, controller.Start(context.Background()))

	assert.False(t, controller.HasMore())
	assert.Zero(t, controller.CurrentPage())
	assert.Zero(t, registry.Len())
	assert.Empty(t, controller.Rows())
}

/*
TestController_LoadFailureLeavesStateUntouched verifies a failed page load
publishes load_failed and keeps counters and sequence as they were.
*/
func TestController_LoadFailureLeavesStateUntouched(t *testing.T) {
	controller, registry, srv, eventBus := newController(t, 4, fixtures(10)...)
	next := collectEvents(t, eventBus)
	ctx := context.Background()

	require.NoError(t, controller.Start(ctx))
	require.Equal(t, 4, registry.Len())

	srv.FailListing = true

	loaded, err := controller.LoadMore(ctx)
	assert.False(t, loaded)
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeRequestFailed))

	event := next(gallery.EventLoadFailed)
	assert.Equal(t, 2, event.Page)
	assert.Error(t, event.Err)

	// State untouched: the user can retry.
	assert.Equal(t, 1, controller.CurrentPage())
	assert.True(t, controller.HasMore())
	assert.Equal(t, 4, registry.Len())

	srv.FailListing = false
	loaded, err = controller.LoadMore(ctx)
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Equal(t, 2, controller.CurrentPage())
}

// # Filtering & Rendering

/*
TestController_ApplyFilter reloads from page 1 under the new filter while
keeping previously cached records.
*/
func TestController_ApplyFilter(t *testing.T) {
	images := fixtures(6)
	for i := range images {
		if i%2 == 0 {
			images[i].CollectionName = "alice"
		} else {
			images[i].CollectionName = "bob"
		}
	}
	controller, registry, _, _ := newController(t, 4, images...)
	ctx := context.Background()

	require.NoError(t, controller.Start(ctx))
	require.Equal(t, 4, registry.Len())

	require.NoError(t, controller.ApplyFilter(ctx, remote.Filter{Actor: "alice"}))

	assert.Equal(t, 1, controller.CurrentPage())
	assert.False(t, controller.HasMore())
	assert.Equal(t, 3, registry.Len())
	for _, record := range registry.SequenceRecords() {
		assert.Equal(t, "alice", record.CollectionName)
	}

	// Records from before the filter stay cached outside the sequence.
	assert.NotNil(t, registry.Image("b0"))
}

/*
TestController_Rerender rebuilds rows from the current sequence and announces
them on the bus.
*/
func TestController_Rerender(t *testing.T) {
	controller, registry, _, eventBus := newController(t, 4, fixtures(4)...)
	next := collectEvents(t, eventBus)
	ctx := context.Background()

	require.NoError(t, controller.Start(ctx))

	// Shrink the sequence, as a detail-view session might.
	registry.SetSequence([]string{"a0", "b0"})
	rows := controller.Rerender()

	total := 0
	for _, row := range rows {
		total += len(row.Images)
	}
	assert.Equal(t, 2, total)
	assert.Equal(t, rows, controller.Rows())

	event := next(gallery.EventRowsChanged)
	assert.Equal(t, rows, event.Rows)
}

// # Export

/*
TestController_Export publishes export_ready with the bundle.
*/
func TestController_Export(t *testing.T) {
	controller, registry, srv, eventBus := newController(t, 4, fixtures(4)...)
	next := collectEvents(t, eventBus)
	ctx := context.Background()

	require.NoError(t, controller.Start(ctx))
	registry.Select("a0", true)
	registry.Select("c0", true)

	bundle, err := controller.Export(ctx)
	require.NoError(t, err)
	require.NotNil(t, bundle)
	assert.NotEmpty(t, bundle.Data)

	event := next(gallery.EventExportReady)
	assert.Equal(t, bundle, event.Bundle)

	require.Len(t, srv.ExportedIDs, 1)
	assert.ElementsMatch(t, []string{"a0", "c0"}, srv.ExportedIDs[0])
	assert.ElementsMatch(t, []string{"a0", "c0"}, controller.SelectedIDs())
}

/*
TestController_Export_EmptySelection publishes export_failed and surfaces
the empty-selection error.
*/
func TestController_Export_EmptySelection(t *testing.T) {
	controller, _, srv, eventBus := newController(t, 4, fixtures(4)...)
	next := collectEvents(t, eventBus)

	bundle, err := controller.Export(context.Background())

	assert.Nil(t, bundle)
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeEmptySelection))
	assert.Empty(t, srv.ExportedIDs)

	event := next(gallery.EventExportFailed)
	assert.True(t, apperr.IsCode(event.Err, apperr.CodeEmptySelection))
}

// # Event Loop

/*
TestController_Run_DispatchesSignals drives the controller purely through bus
events: scroll loads the next page, selection toggles, and export completes.
*/
func TestController_Run_DispatchesSignals(t *testing.T) {
	controller, registry, _, eventBus := newController(t, 4, fixtures(10)...)
	next := collectEvents(t, eventBus)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, controller.Start(ctx))
	// Consume the initial page_loaded so later waits see fresh events.
	next(gallery.EventPageLoaded)

	done := make(chan struct{})
	go func() {
		controller.Run(ctx)
		close(done)
	}()
	// Let the subscription land before publishing.
	time.Sleep(20 * time.Millisecond)

	// 1. Scroll loads page 2
	eventBus.Publish(gallery.Event{Kind: gallery.EventScrollNearBottom})
	event := next(gallery.EventPageLoaded)
	assert.Equal(t, 2, event.Page)

	// 2. Selection toggles through the bus
	eventBus.Publish(gallery.Event{Kind: gallery.EventSelectionToggled, ImageID: "a0", Selected: true})
	require.Eventually(t, func() bool {
		return len(registry.Selected()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// 3. Export round-trips
	eventBus.Publish(gallery.Event{Kind: gallery.EventExportRequested})
	ready := next(gallery.EventExportReady)
	require.NotNil(t, ready.Bundle)

	// 4. Modal close re-renders
	eventBus.Publish(gallery.Event{Kind: gallery.EventModalClosed})
	next(gallery.EventRowsChanged)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("controller loop did not stop on context cancellation")
	}
}

/*
TestController_Run_FilterChanged applies a filter arriving as a bus event.
*/
func TestController_Run_FilterChanged(t *testing.T) {
	images := fixtures(6)
	images[1].CollectionName = "alice"
	controller, registry, _, eventBus := newController(t, 4, images...)
	next := collectEvents(t, eventBus)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, controller.Start(ctx))
	next(gallery.EventPageLoaded)

	go controller.Run(ctx)
	time.Sleep(20 * time.Millisecond)

	eventBus.Publish(gallery.Event{Kind: gallery.EventFilterChanged, Filter: remote.Filter{Actor: "alice"}})

	event := next(gallery.EventPageLoaded)
	assert.Equal(t, 1, event.Page)
	require.Eventually(t, func() bool {
		return registry.Len() == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.True(t, registry.HasActiveFilter())
}
