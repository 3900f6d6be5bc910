// Copyright (c) 2026 Lumina. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package remote is the client for the gallery backend's REST API.

# Architecture

  - Every operation is a stateless request/response pair: parameters in,
    decoded payload out. No retries are performed; retry policy belongs to
    the caller.
  - Non-2xx responses surface as [apperr.AppError] values carrying the HTTP
    status and endpoint, with two documented exceptions: caption and crop
    lookups treat 404 as "resource absent", not as a failure.
  - Warm-up traffic is advisory and paced by a rate limiter so speculative
    prefetch never crowds out interactive requests.
*/
package remote

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/taibuivan/lumina/internal/platform/apperr"
	"github.com/taibuivan/lumina/internal/platform/httpcall"
	"github.com/taibuivan/lumina/pkg/pagination"
)

// warmupBurst allows a short initial burst before pacing kicks in.
const warmupBurst = 2

// Client issues requests against a single gallery backend.
//
// It is safe for concurrent use.
type Client struct {
	caller        *httpcall.Caller
	log           *slog.Logger
	warmupLimiter *rate.Limiter
}

// NewClient constructs a [Client] for the given backend origin.
//
// warmupRatePerSecond bounds the speculative cache warm-up traffic; values
// <= 0 disable pacing.
func NewClient(base string, warmupRatePerSecond float64, log *slog.Logger) *Client {
	limit := rate.Inf
	if warmupRatePerSecond > 0 {
		limit = rate.Limit(warmupRatePerSecond)
	}

	return &Client{
		caller:        httpcall.New(base, log),
		log:           log,
		warmupLimiter: rate.NewLimiter(limit, warmupBurst),
	}
}

// # URL Builders

// ImageURL returns the fetch location of the full image.
func (c *Client) ImageURL(id string) string {
	return c.caller.URL("/images/"+id, nil)
}

// PreviewURL returns the fetch location of a sized preview.
func (c *Client) PreviewURL(id string, targetSize int) string {
	return c.caller.URL(fmt.Sprintf("/images/%s/preview/%d", id, targetSize), nil)
}

// AbsoluteURL resolves a backend-relative path (as returned inside API
// payloads) against the configured origin.
func (c *Client) AbsoluteURL(path string) string {
	return c.caller.URL(path, nil)
}

// # Metadata Listing

/*
FetchPage retrieves one page of image metadata under the given filter.

Parameters:
  - ctx: context.Context
  - params: pagination.Params (normalized before the request)
  - filter: Filter (zero value lists everything)

Returns:
  - *PageResult: Decoded images plus paging metadata
  - error: Request failures
*/
func (c *Client) FetchPage(ctx context.Context, params pagination.Params, filter Filter) (*PageResult, error) {
	query := url.Values{}
	params.Normalize().Encode(query)
	filter.Encode(query)

	var response pageResponse
	if err := c.caller.GetJSON(ctx, "/images", query, &response); err != nil {
		return nil, err
	}

	return &PageResult{
		Images: response.Images,
		Meta: pagination.Meta{
			Page:       response.Page,
			PageSize:   response.PageSize,
			Total:      response.Total,
			TotalPages: response.TotalPages,
		},
	}, nil
}

// FetchImage retrieves the raw bytes of the full image.
func (c *Client) FetchImage(ctx context.Context, id string) ([]byte, error) {
	return c.caller.GetBytes(ctx, "/images/"+id, nil, false)
}

// # Facets

// FetchFacets retrieves the filter dimension values offered by the backend.
func (c *Client) FetchFacets(ctx context.Context) (*Facets, error) {
	var facets Facets
	if err := c.caller.GetJSON(ctx, "/filters", nil, &facets); err != nil {
		return nil, err
	}
	return &facets, nil
}

// # Cache Warm-up

/*
WarmupPage asks the backend to pre-populate its caches for one page.

The response carries no image data; it is used only for its side effect and
for the paging hint that tells the caller when to stop.
*/
func (c *Client) WarmupPage(ctx context.Context, params pagination.Params, filter Filter) (*WarmupResult, error) {
	if err := c.warmupLimiter.Wait(ctx); err != nil {
		return nil, apperr.Internal(err)
	}

	query := url.Values{}
	params.Normalize().Encode(query)
	filter.Encode(query)

	var result WarmupResult
	if err := c.caller.PostJSON(ctx, "/cache/warmup", query, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// # Export

/*
ExportImages requests a zip archive bundling the given images.

Returns:
  - []byte: Raw archive bytes (may be empty; the caller validates)
  - error: Request failures
*/
func (c *Client) ExportImages(ctx context.Context, ids []string) ([]byte, error) {
	started := time.Now()

	data, err := c.caller.PostBytes(ctx, "/api/export-images", exportRequest{
		ImageIDs: ids,
	})
	if err != nil {
		return nil, err
	}

	c.log.Info("export_archive_received",
		slog.Int("image_count", len(ids)),
		slog.Int("archive_bytes", len(data)),
		slog.Duration("elapsed", time.Since(started)),
	)

	return data, nil
}
