// Copyright (c) 2026 Lumina. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package httpcall_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/lumina/internal/platform/apperr"
	"github.com/taibuivan/lumina/internal/platform/ctxutil"
	"github.com/taibuivan/lumina/internal/platform/httpcall"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

/*
TestCaller_GetJSON verifies decoding and query propagation.
*/
func TestCaller_GetJSON(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/items", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"value":"ok"}`))
	})
	server := httptest.NewServer(router)
	defer server.Close()

	caller := httpcall.New(server.URL+"/", newTestLogger())

	var out struct {
		Value string `json:"value"`
	}
	query := url.Values{}
	query.Set("page", "2")

	err := caller.GetJSON(context.Background(), "/items", query, &out)
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Value)
}

/*
TestCaller_RequestIDFromContext verifies that a correlation ID carried in the
context is reused instead of generating a fresh one per call.
*/
func TestCaller_RequestIDFromContext(t *testing.T) {
	var seen string
	router := chi.NewRouter()
	router.Get("/items", func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("X-Request-ID")
		_, _ = w.Write([]byte(`{}`))
	})
	server := httptest.NewServer(router)
	defer server.Close()

	caller := httpcall.New(server.URL, newTestLogger())
	ctx := ctxutil.WithRequestID(context.Background(), "corr-123")

	var out struct{}
	require.NoError(t, caller.GetJSON(ctx, "/items", nil, &out))
	assert.Equal(t, "corr-123", seen)
}

/*
TestCaller_NonSuccessStatus verifies the mapping to apperr with status and endpoint.
*/
func TestCaller_NonSuccessStatus(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	})
	server := httptest.NewServer(router)
	defer server.Close()

	caller := httpcall.New(server.URL, newTestLogger())

	var out struct{}
	err := caller.GetJSON(context.Background(), "/broken", nil, &out)
	require.Error(t, err)

	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, apperr.CodeRequestFailed, ae.Code)
	assert.Equal(t, http.StatusBadGateway, ae.Status)
	assert.Equal(t, "/broken", ae.Endpoint)
}

/*
TestCaller_PostJSON verifies body encoding and optional response decoding.
*/
func TestCaller_PostJSON(t *testing.T) {
	router := chi.NewRouter()
	router.Post("/echo", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"done":true}`))
	})
	server := httptest.NewServer(router)
	defer server.Close()

	caller := httpcall.New(server.URL, newTestLogger())

	// 1. With a decode target
	var out struct {
		Done bool `json:"done"`
	}
	require.NoError(t, caller.PostJSON(context.Background(), "/echo", nil, map[string]string{"k": "v"}, &out))
	assert.True(t, out.Done)

	// 2. Fire-and-forget (nil target)
	require.NoError(t, caller.PostJSON(context.Background(), "/echo", nil, map[string]string{"k": "v"}, nil))
}

/*
TestCaller_GetBytes_NoCache verifies cache-disabling headers are attached.
*/
func TestCaller_GetBytes_NoCache(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/raw", func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("Cache-Control"), "no-cache")
		_, _ = w.Write([]byte{0x1, 0x2, 0x3})
	})
	server := httptest.NewServer(router)
	defer server.Close()

	caller := httpcall.New(server.URL, newTestLogger())

	data, err := caller.GetBytes(context.Background(), "/raw", nil, true)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x1, 0x2, 0x3}, data)
}
