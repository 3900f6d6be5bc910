// Copyright (c) 2026 Lumina. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package gallery

import (
	"os"
	"path/filepath"

	"github.com/taibuivan/lumina/internal/platform/apperr"
)

// SaveBundle writes an export bundle into dir under its suggested filename,
// creating the directory if needed. It returns the full path written.
//
// An existing file of the same name is overwritten; the dated filename means
// that only happens for repeated exports on the same day.
func SaveBundle(dir string, bundle *ExportBundle) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", apperr.Internal(err)
	}

	path := filepath.Join(dir, bundle.Filename)
	if err := os.WriteFile(path, bundle.Data, 0o644); err != nil {
		return "", apperr.Internal(err)
	}
	return path, nil
}
