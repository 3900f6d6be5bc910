// Copyright (c) 2026 Lumina. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package gallery

import (
	"github.com/taibuivan/lumina/pkg/slice"
)

// Row capacity per orientation. The grid renders landscape rows two columns
// wide and portrait rows three columns wide.
const (
	LandscapeRowCapacity = 2
	PortraitRowCapacity  = 3
)

// Row is one display row of the gallery grid. Rows are rebuilt on every
// batch and never mutated in place.
type Row struct {
	Orientation Orientation
	Images      []*Record
}

/*
LayoutRows buckets an ordered image sequence into display rows.

The input is partitioned, preserving relative order, into a landscape stream
and a portrait stream; the landscape stream is laid out first. Orientation
blocks are deliberately segregated rather than interleaved because the grid's
column count differs per orientation.

The concatenated stream is walked, accumulating into the current row; the row
is closed when the next item's orientation differs or the row reaches its
capacity (2 landscape, 3 portrait). A trailing partial row is flushed.

The function is pure: no image is dropped or duplicated, and the same input
always yields the same rows.
*/
func LayoutRows(images []*Record) []Row {
	landscape, portrait := slice.Partition(images, func(r *Record) bool {
		return r.Orientation() == OrientationLandscape
	})

	var rows []Row
	var current []*Record
	var currentOrientation Orientation

	flush := func() {
		if len(current) > 0 {
			rows = append(rows, Row{Orientation: currentOrientation, Images: current})
			current = nil
		}
	}

	for _, img := range append(landscape, portrait...) {
		orientation := img.Orientation()

		if len(current) > 0 && currentOrientation != orientation {
			flush()
		}
		currentOrientation = orientation
		current = append(current, img)

		if (orientation == OrientationLandscape && len(current) == LandscapeRowCapacity) ||
			(orientation == OrientationPortrait && len(current) == PortraitRowCapacity) {
			flush()
		}
	}

	flush()
	return rows
}
