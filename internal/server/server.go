// Package server exposes the local cache and search index over HTTP for
// frontends: /api/search runs index queries, /api/entities/{kind} lists
// synced entities of one kind.
package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/rs/cors"

	"github.com/fwxs/mitre-cli/internal/index"
	"github.com/fwxs/mitre-cli/internal/store"
)

const defaultSearchSize = 10

// Server serves the read-only API over an opened store and index.
type Server struct {
	store *store.Store
	index bleve.Index
}

// New returns a Server. Either collaborator may be nil; the endpoints
// needing it then answer 503.
func New(st *store.Store, idx bleve.Index) *Server {
	return &Server{store: st, index: idx}
}

// Handler builds the route table wrapped with permissive CORS, matching
// what browser frontends need.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/search", s.handleSearch)
	mux.HandleFunc("/api/entities/", s.handleEntities)
	return cors.Default().Handler(mux)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.index == nil {
		http.Error(w, "search index not available", http.StatusServiceUnavailable)
		return
	}
	queryStr := r.URL.Query().Get("query")
	if queryStr == "" {
		http.Error(w, "query parameter 'query' is required", http.StatusBadRequest)
		return
	}
	size := defaultSearchSize
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "query parameter 'size' must be a positive integer", http.StatusBadRequest)
			return
		}
		size = n
	}

	hits, err := index.Search(s.index, queryStr, size)
	if err != nil {
		log.Printf("search %q failed: %v", queryStr, err)
		http.Error(w, "search failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, hits)
}

func (s *Server) handleEntities(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "entity store not available", http.StatusServiceUnavailable)
		return
	}
	kind := strings.TrimPrefix(r.URL.Path, "/api/entities/")
	if !validKind(kind) {
		http.Error(w, "unknown entity kind", http.StatusNotFound)
		return
	}

	// Synced snapshots are keyed "<kind>" or "<kind>/<domain>", each value
	// a JSON array; the kinds split by domain are concatenated here.
	entities := []json.RawMessage{}
	err := s.store.Each(store.ListBucket, func(key string, value []byte) error {
		if key != kind && !strings.HasPrefix(key, kind+"/") {
			return nil
		}
		var rows []json.RawMessage
		if err := json.Unmarshal(append([]byte(nil), value...), &rows); err != nil {
			return fmt.Errorf("decoding snapshot %s: %w", key, err)
		}
		entities = append(entities, rows...)
		return nil
	})
	if err != nil {
		log.Printf("listing %s failed: %v", kind, err)
		http.Error(w, "listing failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, entities)
}

func validKind(kind string) bool {
	for _, bucket := range store.Buckets {
		if kind == bucket && kind != store.ListBucket {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encoding response: %v", err)
	}
}
