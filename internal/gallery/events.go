// Copyright (c) 2026 Lumina. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package gallery

import (
	"github.com/taibuivan/lumina/internal/remote"
)

// # Events

// EventKind discriminates the payload of an [Event].
type EventKind string

const (
	// EventScrollNearBottom signals the viewport approaching the grid's end.
	EventScrollNearBottom EventKind = "scroll_near_bottom"
	// EventFilterChanged signals a new filter selection in the drawer.
	EventFilterChanged EventKind = "filter_changed"
	// EventSelectionToggled signals a per-image selection change.
	EventSelectionToggled EventKind = "selection_toggled"
	// EventExportRequested signals the export button.
	EventExportRequested EventKind = "export_requested"
	// EventModalClosed signals the detail view closing; annotations may have
	// changed while it was open, so the grid re-renders.
	EventModalClosed EventKind = "modal_closed"

	// EventPageLoaded reports a successful page load with the fresh layout.
	EventPageLoaded EventKind = "page_loaded"
	// EventLoadFailed reports a failed page load.
	EventLoadFailed EventKind = "load_failed"
	// EventRowsChanged reports a re-render without new data.
	EventRowsChanged EventKind = "rows_changed"
	// EventExportReady reports a completed export bundle.
	EventExportReady EventKind = "export_ready"
	// EventExportFailed reports a failed export.
	EventExportFailed EventKind = "export_failed"
)

// Event is the typed payload exchanged on the gallery bus. Only the fields
// relevant to the Kind are set.
type Event struct {
	Kind EventKind

	// FilterChanged
	Filter remote.Filter

	// SelectionToggled
	ImageID  string
	Selected bool

	// PageLoaded / RowsChanged
	Rows []Row
	Page int

	// ExportReady
	Bundle *ExportBundle

	// LoadFailed / ExportFailed
	Err error
}
