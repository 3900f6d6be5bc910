// Copyright (c) 2026 Lumina. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package remote_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/lumina/internal/platform/apperr"
	"github.com/taibuivan/lumina/internal/remote"
	"github.com/taibuivan/lumina/internal/remote/remotetest"
)

/*
TestClient_FetchCaption verifies the happy path and the 404 special case:
an absent caption is a valid empty result, not an error.
*/
func TestClient_FetchCaption(t *testing.T) {
	captioned := remotetest.Fixture("captioned", 800, 600)
	captioned.HasCaption = true

	client, _ := newClient(t, captioned, remotetest.Fixture("plain", 800, 600))

	// 1. Stored caption
	caption, err := client.FetchCaption(context.Background(), "captioned")
	require.NoError(t, err)
	assert.Equal(t, "caption of captioned", caption)

	// 2. 404 → empty caption, no error
	caption, err = client.FetchCaption(context.Background(), "plain")
	require.NoError(t, err)
	assert.Empty(t, caption)
}

/*
TestClient_SaveCaption verifies the round trip through the write endpoint.
*/
func TestClient_SaveCaption(t *testing.T) {
	client, srv := newClient(t, remotetest.Fixture("a", 800, 600))

	require.NoError(t, client.SaveCaption(context.Background(), "a", "two dogs"))
	assert.Equal(t, "two dogs", srv.SavedCaption["a"])

	caption, err := client.FetchCaption(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "two dogs", caption)
}

/*
TestClient_GenerateCaption verifies one-shot generation decoding.
*/
func TestClient_GenerateCaption(t *testing.T) {
	client, _ := newClient(t, remotetest.Fixture("a", 800, 600))

	caption, err := client.GenerateCaption(context.Background(), "a", "")
	require.NoError(t, err)
	assert.Equal(t, "generated caption for a", caption)
}

/*
TestClient_StreamCaption verifies cumulative progress delivery and completion.
*/
func TestClient_StreamCaption(t *testing.T) {
	client, _ := newClient(t, remotetest.Fixture("a", 800, 600))

	var progress []string
	var final string

	err := client.StreamCaption(context.Background(), "a", "",
		func(cumulative string) { progress = append(progress, cumulative) },
		func(f string) { final = f },
		func(err error) { t.Fatalf("unexpected stream error: %v", err) },
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"a golden", "a golden retriever", "a golden retriever on a beach"}, progress)
	assert.Equal(t, "a golden retriever on a beach", final)
}

/*
TestClient_StreamCaption_MalformedFragment verifies that a malformed line is
skipped without aborting the stream.
*/
func TestClient_StreamCaption_MalformedFragment(t *testing.T) {
	client, srv := newClient(t, remotetest.Fixture("a", 800, 600))
	srv.StreamScript = []string{
		`data: {"chunk": "sunrise"}`,
		`data: {not json`,
		`data: {"chunk": " over hills"}`,
	}

	var final string
	err := client.StreamCaption(context.Background(), "a", "",
		func(string) {},
		func(f string) { final = f },
		func(err error) { t.Fatalf("unexpected stream error: %v", err) },
	)
	require.NoError(t, err)

	assert.Equal(t, "sunrise over hills", final)
}

/*
TestClient_StreamCaption_ErrorFragment verifies that an explicit error payload
aborts the stream and reaches the error callback.
*/
func TestClient_StreamCaption_ErrorFragment(t *testing.T) {
	client, srv := newClient(t, remotetest.Fixture("a", 800, 600))
	srv.StreamScript = []string{
		`data: {"chunk": "part"}`,
		`data: {"error": "model unavailable"}`,
		`data: {"chunk": "never delivered"}`,
	}

	var streamErr error
	completed := false

	err := client.StreamCaption(context.Background(), "a", "",
		func(string) {},
		func(string) { completed = true },
		func(err error) { streamErr = err },
	)
	require.NoError(t, err)

	require.Error(t, streamErr)
	assert.True(t, apperr.IsCode(streamErr, apperr.CodeStream))
	assert.Contains(t, streamErr.Error(), "model unavailable")
	assert.False(t, completed)
}

/*
TestClient_FetchCrop verifies crop lookup including the 404-as-nil contract.
*/
func TestClient_FetchCrop(t *testing.T) {
	cropped := remotetest.Fixture("cropped", 800, 600)
	cropped.HasCrop = true

	client, _ := newClient(t, cropped, remotetest.Fixture("plain", 800, 600))

	// 1. Existing crop
	result, err := client.FetchCrop(context.Background(), "cropped")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 512, result.CropInfo.TargetSize)
	assert.Equal(t, "/images/cropped/cropped", result.ImageURL)

	// 2. No crop → nil result, no error
	result, err = client.FetchCrop(context.Background(), "plain")
	require.NoError(t, err)
	assert.Nil(t, result)
}

/*
TestClient_ApplyCrop verifies that applying a crop stores the parameters and
returns rendition bytes.
*/
func TestClient_ApplyCrop(t *testing.T) {
	client, _ := newClient(t, remotetest.Fixture("a", 800, 600))

	deltas := remote.NormalizedDeltas{X: 0.25, Y: -0.5}
	data, err := client.ApplyCrop(context.Background(), "a", 768, deltas)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	stored, err := client.FetchCrop(context.Background(), "a")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 768, stored.CropInfo.TargetSize)
	assert.Equal(t, deltas, stored.CropInfo.NormalizedDeltas)
}

/*
TestClient_FetchCroppedImage verifies the cache-busted rendition fetch.
*/
func TestClient_FetchCroppedImage(t *testing.T) {
	client, _ := newClient(t, remotetest.Fixture("a", 800, 600))

	data, err := client.FetchCroppedImage(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("bytes-of-a"), data)
}
