// Copyright (c) 2026 Lumina. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/lumina/internal/platform/apperr"
)

/*
TestRequestFailed verifies that transport failures carry status and endpoint.
*/
func TestRequestFailed(t *testing.T) {
	err := apperr.RequestFailed(502, "/images")

	assert.Equal(t, apperr.CodeRequestFailed, err.Code)
	assert.Equal(t, 502, err.Status)
	assert.Equal(t, "/images", err.Endpoint)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "/images")
}

/*
TestAs verifies extraction of an AppError through a wrapped chain.
*/
func TestAs(t *testing.T) {
	base := apperr.EmptySelection()
	wrapped := fmt.Errorf("export aborted: %w", base)

	ae := apperr.As(wrapped)
	require.NotNil(t, ae)
	assert.Equal(t, apperr.CodeEmptySelection, ae.Code)

	assert.Nil(t, apperr.As(errors.New("plain")))
	assert.False(t, apperr.IsAppError(nil))
}

/*
TestIsCode checks code matching across the taxonomy.
*/
func TestIsCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
		want bool
	}{
		{"empty_export", apperr.EmptyExport(), apperr.CodeEmptyExport, true},
		{"stream", apperr.Stream("bad fragment"), apperr.CodeStream, true},
		{"mismatch", apperr.EmptySelection(), apperr.CodeEmptyExport, false},
		{"plain_error", errors.New("nope"), apperr.CodeInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apperr.IsCode(tt.err, tt.code))
		})
	}
}

/*
TestIsNotFound distinguishes missing resources from other request failures.
*/
func TestIsNotFound(t *testing.T) {
	assert.True(t, apperr.IsNotFound(apperr.RequestFailed(404, "/images/a/caption")))
	assert.False(t, apperr.IsNotFound(apperr.RequestFailed(500, "/images/a/caption")))
	assert.False(t, apperr.IsNotFound(apperr.EmptyExport()))
}

/*
TestInternal_Unwrap verifies the cause chain survives wrapping.
*/
func TestInternal_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := apperr.Internal(cause)

	assert.True(t, errors.Is(err, cause))
}
