// Copyright (c) 2026 Lumina. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package remote

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/taibuivan/lumina/internal/platform/apperr"
)

// cropRequest is the body of the crop creation endpoint.
type cropRequest struct {
	ImageID          string           `json:"imageId"`
	TargetSize       int              `json:"targetSize"`
	NormalizedDeltas NormalizedDeltas `json:"normalizedDeltas"`
}

// # Crop Lookup & Application

/*
FetchCrop retrieves the stored crop parameters of an image.

A 404 is a valid outcome meaning no crop exists; it is reported as a nil
result rather than an error.
*/
func (c *Client) FetchCrop(ctx context.Context, id string) (*CropResult, error) {
	var result CropResult
	err := c.caller.GetJSON(ctx, "/images/"+id+"/crop", nil, &result)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

// ApplyCrop stores new crop parameters and returns the cropped image bytes.
func (c *Client) ApplyCrop(ctx context.Context, id string, targetSize int, deltas NormalizedDeltas) ([]byte, error) {
	return c.caller.PostBytes(ctx, "/images/"+id+"/crop", cropRequest{
		ImageID:          id,
		TargetSize:       targetSize,
		NormalizedDeltas: deltas,
	})
}

// FetchCroppedImage retrieves the current cropped rendition of an image.
//
// The request carries a timestamp query parameter and cache-disabled headers:
// a crop can be re-applied at any time and a stale cached rendition would
// show the previous crop.
func (c *Client) FetchCroppedImage(ctx context.Context, id string) ([]byte, error) {
	query := url.Values{}
	query.Set("t", strconv.FormatInt(time.Now().UnixMilli(), 10))

	return c.caller.GetBytes(ctx, "/images/"+id+"/cropped", query, true)
}
