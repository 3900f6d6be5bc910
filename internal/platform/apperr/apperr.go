// Copyright (c) 2026 Lumina. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package apperr defines the centralized error handling framework for Lumina.

It provides a rich error type that bridges the gap between low-level transport
failures and the user-facing messages surfaced by the gallery shell.

Architecture:

  - AppError: A struct containing a machine-readable ErrorCode and user-friendly messages.
  - Transport: Request failures carry the HTTP status and endpoint that produced them.
  - Mapping: The shell decides presentation; this package only classifies.

Every error that leaves the registry or the remote client should be wrapped as
an [AppError] to ensure consistent handling by the caller.
*/
package apperr

import (
	"errors"
	"fmt"
)

// # Error Codes

const (
	// CodeRequestFailed marks a non-2xx response from the gallery backend.
	CodeRequestFailed = "REQUEST_FAILED"
	// CodeEmptySelection marks an export attempted with no images selected.
	CodeEmptySelection = "EMPTY_SELECTION"
	// CodeEmptyExport marks a zero-byte archive returned by the backend.
	CodeEmptyExport = "EMPTY_EXPORT"
	// CodeStream marks a malformed or explicit error payload in a caption stream.
	CodeStream = "STREAM_ERROR"
	// CodeValidation marks locally rejected input (e.g. a blank tag).
	CodeValidation = "VALIDATION_ERROR"
	// CodeInternal marks an unexpected client-side failure.
	CodeInternal = "INTERNAL_ERROR"
)

// AppError is the canonical error type for the Lumina client core.
//
// It carries a machine-readable code, a message safe to surface in the UI,
// and, for transport failures, the HTTP status and endpoint involved.
//
// The Cause field is for logging only and is never shown to the user.
type AppError struct {
	// Code is a machine-readable error identifier (e.g. "REQUEST_FAILED").
	Code string
	// Message is a human-readable description safe to surface in the UI.
	Message string
	// Status is the HTTP status code of a failed request, 0 otherwise.
	Status int
	// Endpoint is the backend path that produced a request failure.
	Endpoint string
	// Cause is the underlying error, used for logging only.
	Cause error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (status %d, endpoint %s)", e.Message, e.Status, e.Endpoint)
	}
	return e.Message
}

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// # Constructors

// RequestFailed creates a [AppError] for a non-2xx backend response.
func RequestFailed(status int, endpoint string) *AppError {
	return &AppError{
		Code:     CodeRequestFailed,
		Message:  "Request to gallery backend failed",
		Status:   status,
		Endpoint: endpoint,
	}
}

// EmptySelection creates the [AppError] returned when an export is requested
// with nothing selected.
func EmptySelection() *AppError {
	return &AppError{
		Code:    CodeEmptySelection,
		Message: "No images selected",
	}
}

// EmptyExport creates the [AppError] returned when the backend produced a
// zero-byte archive.
func EmptyExport() *AppError {
	return &AppError{
		Code:    CodeEmptyExport,
		Message: "Received empty archive from server",
	}
}

// Stream creates a [AppError] for a caption stream aborted by an error payload.
func Stream(msg string) *AppError {
	return &AppError{
		Code:    CodeStream,
		Message: msg,
	}
}

// Validation creates a [AppError] for input rejected before any request.
func Validation(msg string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: msg,
	}
}

// Internal creates a [AppError] wrapping an unexpected client-side error.
func Internal(cause error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "An unexpected error occurred",
		Cause:   cause,
	}
}

// # Helpers

// IsAppError reports whether err (or any error in its chain) is an [*AppError].
func IsAppError(err error) bool {
	var ae *AppError
	return errors.As(err, &ae)
}

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// IsCode reports whether err carries the given error code.
func IsCode(err error, code string) bool {
	ae := As(err)
	return ae != nil && ae.Code == code
}

// IsNotFound reports whether err is a request failure with a 404 status.
//
// Callers use this to distinguish "resource absent" (valid for captions and
// crops) from genuine failures.
func IsNotFound(err error) bool {
	ae := As(err)
	return ae != nil && ae.Code == CodeRequestFailed && ae.Status == 404
}
