// Copyright (c) 2026 Lumina. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package httpcall provides utilities for issuing requests to the gallery backend.

It abstracts away URL building, JSON encoding/decoding, correlation headers,
and the mapping of non-2xx responses into [apperr.AppError], ensuring
consistent error handling across every remote operation.

# Correlation

Every outbound request carries an X-Request-ID header. The value is taken from
the context when present (so one user action shares one ID across its fan-out)
and generated otherwise.
*/
package httpcall

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/taibuivan/lumina/internal/platform/apperr"
	"github.com/taibuivan/lumina/internal/platform/ctxutil"
)

// defaultTimeout bounds any single backend call.
const defaultTimeout = 30 * time.Second

// Caller issues HTTP requests against a single backend origin.
//
// It is stateless apart from its configuration and safe for concurrent use.
type Caller struct {
	base   string
	client *http.Client
	log    *slog.Logger
}

// New constructs a [Caller] for the given origin (e.g. "http://127.0.0.1:8000").
//
// A trailing slash on base is tolerated and stripped.
func New(base string, log *slog.Logger) *Caller {
	for len(base) > 0 && base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}

	return &Caller{
		base:   base,
		client: &http.Client{Timeout: defaultTimeout},
		log:    log,
	}
}

// Base returns the configured backend origin without a trailing slash.
func (c *Caller) Base() string {
	return c.base
}

// URL joins path and query onto the backend origin.
func (c *Caller) URL(path string, query url.Values) string {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// # JSON Calls

// GetJSON issues a GET request and decodes the JSON response body into target.
func (c *Caller) GetJSON(ctx context.Context, path string, query url.Values, target interface{}) error {
	body, err := c.do(ctx, http.MethodGet, path, query, nil, nil)
	if err != nil {
		return err
	}
	defer body.Close()

	if err := json.NewDecoder(body).Decode(target); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// PostJSON issues a POST request with a JSON body and, when target is
// non-nil, decodes the JSON response into it.
func (c *Caller) PostJSON(ctx context.Context, path string, query url.Values, payload interface{}, target interface{}) error {
	body, err := c.do(ctx, http.MethodPost, path, query, payload, nil)
	if err != nil {
		return err
	}
	defer body.Close()

	if target == nil {
		_, _ = io.Copy(io.Discard, body)
		return nil
	}

	if err := json.NewDecoder(body).Decode(target); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// # Binary Calls

// GetBytes issues a GET request and returns the raw response body.
//
// When noCache is set, cache-disabling headers are attached so intermediaries
// and the local HTTP cache are bypassed.
func (c *Caller) GetBytes(ctx context.Context, path string, query url.Values, noCache bool) ([]byte, error) {
	var headers http.Header
	if noCache {
		headers = http.Header{}
		headers.Set("Cache-Control", "no-cache, no-store, must-revalidate")
		headers.Set("Pragma", "no-cache")
	}

	body, err := c.do(ctx, http.MethodGet, path, query, nil, headers)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return data, nil
}

// PostBytes issues a POST request with a JSON body and returns the raw
// response body (used for crop previews and export archives).
func (c *Caller) PostBytes(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	body, err := c.do(ctx, http.MethodPost, path, nil, payload, nil)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return data, nil
}

// # Streaming Calls

// PostStream issues a POST request and hands the raw response body to the
// caller for incremental consumption. The caller owns closing it.
func (c *Caller) PostStream(ctx context.Context, path string, payload interface{}) (io.ReadCloser, error) {
	return c.do(ctx, http.MethodPost, path, nil, payload, nil)
}

// do builds and executes a single request, returning the response body on
// 2xx and an [apperr] request failure otherwise.
func (c *Caller) do(ctx context.Context, method, path string, query url.Values, payload interface{}, headers http.Header) (io.ReadCloser, error) {
	var bodyReader io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.URL(path, query), bodyReader)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	for key, values := range headers {
		for _, value := range values {
			request.Header.Add(key, value)
		}
	}

	if payload != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	request.Header.Set("X-Request-ID", requestID(ctx))

	started := time.Now()
	response, err := c.client.Do(request)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	c.log.Debug("backend_call",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", response.StatusCode),
		slog.Duration("elapsed", time.Since(started)),
	)

	if response.StatusCode < 200 || response.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, response.Body)
		_ = response.Body.Close()
		return nil, apperr.RequestFailed(response.StatusCode, path)
	}

	return response.Body, nil
}

// requestID returns the correlation ID carried by ctx, generating one if absent.
func requestID(ctx context.Context) string {
	if id := ctxutil.GetRequestID(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}
