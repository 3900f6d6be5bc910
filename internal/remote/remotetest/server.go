// Copyright (c) 2026 Lumina. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package remotetest provides an in-process fake of the gallery backend.

# Usage

Tests construct a [Server] with fixture metadata, point a [remote.Client] at
its URL, and assert against the recorded traffic:

	srv := remotetest.New(t, remotetest.Fixture("a", 800, 600))
	client := remote.NewClient(srv.URL(), 0, logger)

The fake implements the full REST surface the client speaks: metadata paging
with filters, captions (including generation and streaming), crops, tags,
facets, cache warm-up, and batch export.
*/
package remotetest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/lumina/internal/remote"
	"github.com/taibuivan/lumina/pkg/convert"
	"github.com/taibuivan/lumina/pkg/pagination"
)

// Image is one fixture entry with its server-side annotation state.
type Image struct {
	Meta    remote.ImageMetadata
	Caption string
	Crop    *remote.CropResult
	Tags    []string
}

// Server is the running fake backend.
//
// Mutable knobs (FailListing, ExportEmpty, StreamScript) and recorded traffic
// are guarded by the embedded mutex; tests may adjust them between requests.
type Server struct {
	mu     sync.Mutex
	images []*Image
	byID   map[string]*Image
	facets remote.Facets
	server *httptest.Server

	// FailListing makes GET /images return 500 (page-load failure paths).
	FailListing bool
	// FailCaption makes caption lookups return 500 (degradation paths).
	FailCaption bool
	// ExportEmpty makes the export endpoint return a zero-byte archive.
	ExportEmpty bool
	// StreamScript, when set, is written verbatim (line by line) as the
	// caption stream body instead of the default chunked caption.
	StreamScript []string
	// WarmupGate, when set, blocks every warm-up request until a value is
	// received, letting tests hold a warm-up pass open deliberately.
	WarmupGate chan struct{}

	// Recorded traffic.
	ListCalls    int
	FacetCalls   int
	CaptionGets  map[string]int
	WarmupPages  []int
	ExportedIDs  [][]string
	SavedTags    map[string][]string
	SavedCaption map[string]string
}

// Fixture builds minimal image metadata for tests.
func Fixture(id string, width, height int) remote.ImageMetadata {
	return remote.ImageMetadata{
		ID:        id,
		Filename:  id + ".jpg",
		Size:      1024,
		CreatedAt: "2026-01-01T00:00:00Z",
		Width:     width,
		Height:    height,
		MimeType:  "image/jpeg",
	}
}

// New starts a fake backend seeded with the given metadata. It is shut down
// automatically when the test finishes.
func New(t *testing.T, images ...remote.ImageMetadata) *Server {
	t.Helper()

	s := &Server{
		byID:         make(map[string]*Image),
		CaptionGets:  make(map[string]int),
		SavedTags:    make(map[string][]string),
		SavedCaption: make(map[string]string),
		facets: remote.Facets{
			Actors: []string{"alice", "bob"},
			Tags:   []string{"beach", "Sunset", "portrait", "Berlin"},
			Years:  []string{"2024", "2025"},
		},
	}
	for _, meta := range images {
		s.Add(meta)
	}

	s.server = httptest.NewServer(s.routes())
	t.Cleanup(s.server.Close)
	return s
}

// URL returns the fake backend's origin.
func (s *Server) URL() string { return s.server.URL }

// Add seeds one more image; captions and crops are attached when the
// metadata declares them.
func (s *Server) Add(meta remote.ImageMetadata) {
	s.mu.Lock()
	defer s.mu.Unlock()

	img := &Image{Meta: meta}
	if meta.HasCaption {
		img.Caption = "caption of " + meta.ID
	}
	if meta.HasCrop {
		img.Crop = &remote.CropResult{
			CropInfo: remote.CropInfo{TargetSize: 512},
			ImageURL: "/images/" + meta.ID + "/cropped",
		}
	}
	s.images = append(s.images, img)
	s.byID[meta.ID] = img
}

// WarmupPagesSnapshot returns a copy of the warmed page numbers recorded so
// far. Safe to call while background warm-up traffic is in flight.
func (s *Server) WarmupPagesSnapshot() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, len(s.WarmupPages))
	copy(out, s.WarmupPages)
	return out
}

// CaptionGetCount returns how many caption lookups id received.
func (s *Server) CaptionGetCount(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.CaptionGets[id]
}

// FacetCallCount returns how many facet listings were served.
func (s *Server) FacetCallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.FacetCalls
}

// SetFacets replaces the served facet values.
func (s *Server) SetFacets(facets remote.Facets) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.facets = facets
}

// routes wires the REST surface onto a chi router.
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/images", s.listImages)
	r.Get("/images/{id}", s.imageBytes)
	r.Get("/images/{id}/preview/{size}", s.imageBytes)
	r.Get("/images/{id}/caption", s.getCaption)
	r.Post("/images/{id}/caption", s.saveCaption)
	r.Get("/images/{id}/crop", s.getCrop)
	r.Post("/images/{id}/crop", s.applyCrop)
	r.Get("/images/{id}/cropped", s.imageBytes)
	r.Post("/images/{id}/tags", s.addTag)
	r.Get("/filters", s.getFacets)
	r.Post("/cache/warmup", s.warmup)
	r.Post("/api/generate-caption/{id}", s.generateCaption)
	r.Post("/api/stream-caption/{id}", s.streamCaption)
	r.Post("/api/export-images", s.export)

	return r
}

// # Listing

func (s *Server) listImages(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ListCalls++
	if s.FailListing {
		http.Error(w, "listing unavailable", http.StatusInternalServerError)
		return
	}

	filtered := s.filteredLocked(r)

	page := convert.ToIntD(r.URL.Query().Get("page"), pagination.DefaultPage)
	pageSize := convert.ToIntD(r.URL.Query().Get("page_size"), pagination.DefaultPageSize)

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(filtered) {
		start = len(filtered)
	}
	if end > len(filtered) {
		end = len(filtered)
	}

	metas := make([]remote.ImageMetadata, 0, end-start)
	for _, img := range filtered[start:end] {
		metas = append(metas, img.Meta)
	}

	meta := pagination.NewMeta(page, pageSize, len(filtered))
	writeJSON(w, map[string]interface{}{
		"images":      metas,
		"page":        meta.Page,
		"page_size":   meta.PageSize,
		"total":       meta.Total,
		"total_pages": meta.TotalPages,
	})
}

// filteredLocked applies the listing query filters to the fixture set.
func (s *Server) filteredLocked(r *http.Request) []*Image {
	query := r.URL.Query()
	actor := query.Get("actor")
	tag := query.Get("tag")
	year := query.Get("year")
	hasCaption := query.Get("has_caption")
	hasCrop := query.Get("has_crop")

	var result []*Image
	for _, img := range s.images {
		if actor != "" && img.Meta.CollectionName != actor {
			continue
		}
		if tag != "" && !contains(img.Tags, tag) {
			continue
		}
		if year != "" && !strings.HasPrefix(img.Meta.CreatedAt, year) {
			continue
		}
		if hasCaption != "" && img.Meta.HasCaption != convert.ToBool(hasCaption) {
			continue
		}
		if hasCrop != "" && img.Meta.HasCrop != convert.ToBool(hasCrop) {
			continue
		}
		result = append(result, img)
	}
	return result
}

// # Annotations

func (s *Server) getCaption(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := chi.URLParam(r, "id")
	s.CaptionGets[id]++

	if s.FailCaption {
		http.Error(w, "caption store unavailable", http.StatusInternalServerError)
		return
	}

	img, ok := s.byID[id]
	if !ok || img.Caption == "" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, map[string]string{"caption": img.Caption})
}

func (s *Server) saveCaption(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := chi.URLParam(r, "id")
	img, ok := s.byID[id]
	if !ok {
		http.NotFound(w, r)
		return
	}

	var payload struct {
		Caption string `json:"caption"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "bad body", http.StatusBadRequest)
		return
	}

	img.Caption = payload.Caption
	img.Meta.HasCaption = payload.Caption != ""
	s.SavedCaption[id] = payload.Caption
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) generateCaption(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	writeJSON(w, map[string]string{"caption": "generated caption for " + id})
}

func (s *Server) streamCaption(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	script := s.StreamScript
	s.mu.Unlock()

	if script == nil {
		script = []string{
			`data: {"chunk": "a golden"}`,
			`data: {"chunk": " retriever"}`,
			`data: {"chunk": " on a beach"}`,
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	for _, line := range script {
		_, _ = fmt.Fprintln(w, line)
	}
}

func (s *Server) getCrop(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	img, ok := s.byID[chi.URLParam(r, "id")]
	if !ok || img.Crop == nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, img.Crop)
}

func (s *Server) applyCrop(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := chi.URLParam(r, "id")
	img, ok := s.byID[id]
	if !ok {
		http.NotFound(w, r)
		return
	}

	var payload struct {
		TargetSize       int                     `json:"targetSize"`
		NormalizedDeltas remote.NormalizedDeltas `json:"normalizedDeltas"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "bad body", http.StatusBadRequest)
		return
	}

	img.Crop = &remote.CropResult{
		CropInfo: remote.CropInfo{
			TargetSize:       payload.TargetSize,
			NormalizedDeltas: payload.NormalizedDeltas,
		},
		ImageURL: "/images/" + id + "/cropped",
	}
	img.Meta.HasCrop = true
	_, _ = w.Write([]byte("cropped-bytes-" + id))
}

func (s *Server) addTag(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := chi.URLParam(r, "id")
	img, ok := s.byID[id]
	if !ok {
		http.NotFound(w, r)
		return
	}

	var payload struct {
		Tag string `json:"tag"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "bad body", http.StatusBadRequest)
		return
	}

	img.Tags = append(img.Tags, payload.Tag)
	img.Meta.HasTags = true
	s.SavedTags[id] = append(s.SavedTags[id], payload.Tag)
	w.WriteHeader(http.StatusNoContent)
}

// # Facets, Warm-up, Export

func (s *Server) getFacets(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FacetCalls++
	writeJSON(w, s.facets)
}

func (s *Server) warmup(w http.ResponseWriter, r *http.Request) {
	page := convert.ToIntD(r.URL.Query().Get("page"), pagination.DefaultPage)
	pageSize := convert.ToIntD(r.URL.Query().Get("page_size"), pagination.DefaultPageSize)

	s.mu.Lock()
	s.WarmupPages = append(s.WarmupPages, page)
	gate := s.WarmupGate
	total := len(s.images)
	s.mu.Unlock()

	// Held outside the lock so other endpoints stay reachable.
	if gate != nil {
		<-gate
	}

	meta := pagination.NewMeta(page, pageSize, total)
	writeJSON(w, map[string]int{"page": meta.Page, "total_pages": meta.TotalPages})
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var payload struct {
		ImageIDs []string `json:"imageIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "bad body", http.StatusBadRequest)
		return
	}
	s.ExportedIDs = append(s.ExportedIDs, payload.ImageIDs)

	if s.ExportEmpty {
		w.WriteHeader(http.StatusOK)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	_, _ = w.Write([]byte("PK\x03\x04" + strings.Join(payload.ImageIDs, ",")))
}

func (s *Server) imageBytes(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	_, ok := s.byID[id]
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	_, _ = w.Write([]byte("bytes-of-" + id))
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(payload)
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
