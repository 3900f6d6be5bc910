// Copyright (c) 2026 Lumina. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package remote

import "context"

// tagRequest is the body of the custom tag endpoint.
type tagRequest struct {
	Tag string `json:"tag"`
}

// AddTag appends a custom tag to an image. Tags are append-only from the
// client's perspective; removal is not part of the API surface.
func (c *Client) AddTag(ctx context.Context, id, tag string) error {
	return c.caller.PostJSON(ctx, "/images/"+id+"/tags", nil, tagRequest{Tag: tag}, nil)
}
