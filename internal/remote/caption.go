// Copyright (c) 2026 Lumina. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package remote

import (
	"bufio"
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/taibuivan/lumina/internal/platform/apperr"
)

// captionPayload is the body of both the caption read and write endpoints.
type captionPayload struct {
	Caption string `json:"caption"`
}

// promptPayload is the optional body of the caption generation endpoints.
type promptPayload struct {
	Prompt string `json:"prompt,omitempty"`
}

// streamFragment is one decoded line of the caption stream.
type streamFragment struct {
	Chunk string `json:"chunk"`
	Error string `json:"error"`
}

// streamDataPrefix marks payload lines of the server-sent caption stream.
const streamDataPrefix = "data: "

// # Caption Lookup & Storage

/*
FetchCaption retrieves the stored caption of an image.

A 404 is a valid outcome: the backend has no caption resource for images
without one, so it is reported as an empty caption rather than an error.
*/
func (c *Client) FetchCaption(ctx context.Context, id string) (string, error) {
	var payload captionPayload
	err := c.caller.GetJSON(ctx, "/images/"+id+"/caption", nil, &payload)
	if err != nil {
		if apperr.IsNotFound(err) {
			return "", nil
		}
		return "", err
	}
	return payload.Caption, nil
}

// SaveCaption stores a caption for an image.
func (c *Client) SaveCaption(ctx context.Context, id, caption string) error {
	return c.caller.PostJSON(ctx, "/images/"+id+"/caption", nil, captionPayload{Caption: caption}, nil)
}

// # Caption Generation

// GenerateCaption asks the backend to produce a caption in one shot.
//
// prompt is optional; the backend falls back to its default prompt when empty.
func (c *Client) GenerateCaption(ctx context.Context, id, prompt string) (string, error) {
	var payload captionPayload
	err := c.caller.PostJSON(ctx, "/api/generate-caption/"+id, nil, promptPayload{Prompt: prompt}, &payload)
	if err != nil {
		return "", err
	}
	return payload.Caption, nil
}

/*
StreamCaption asks the backend to produce a caption incrementally.

The response is a server-sent stream of newline-delimited "data: " prefixed
JSON fragments. Each chunk is appended to a running caption:

  - onProgress is invoked with the cumulative text after every fragment.
  - onComplete is invoked with the final cumulative text when the stream ends.
  - onError is invoked when the backend emits an explicit error fragment; the
    stream is aborted at that point.

A malformed fragment is logged and skipped without aborting the stream.

The returned error covers only the initial request; stream-level outcomes are
delivered through the callbacks.
*/
func (c *Client) StreamCaption(
	ctx context.Context,
	id string,
	prompt string,
	onProgress func(cumulative string),
	onComplete func(final string),
	onError func(err error),
) error {
	body, err := c.caller.PostStream(ctx, "/api/stream-caption/"+id, promptPayload{Prompt: prompt})
	if err != nil {
		return err
	}
	defer body.Close()

	var caption strings.Builder
	scanner := bufio.NewScanner(body)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, streamDataPrefix) {
			continue
		}

		var fragment streamFragment
		if err := json.Unmarshal([]byte(line[len(streamDataPrefix):]), &fragment); err != nil {
			c.log.Warn("caption_stream_malformed_fragment",
				slog.String("image_id", id),
				slog.String("error", err.Error()),
			)
			continue
		}

		if fragment.Error != "" {
			onError(apperr.Stream(fragment.Error))
			return nil
		}

		caption.WriteString(fragment.Chunk)
		onProgress(caption.String())
	}

	if err := scanner.Err(); err != nil {
		onError(apperr.Internal(err))
		return nil
	}

	onComplete(caption.String())
	return nil
}
