package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/fwxs/mitre-cli/internal/index"
	"github.com/fwxs/mitre-cli/internal/store"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()

	st, err := store.Open(filepath.Join(dir, "attck.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	// Seeded the way `attck sync` writes: list snapshots keyed by kind, or
	// kind/domain for the domain-split kinds.
	err = st.Put(store.ListBucket, "techniques/enterprise",
		[]map[string]string{{"id": "T1003", "name": "OS Credential Dumping"}})
	if err != nil {
		t.Fatal(err)
	}
	err = st.Put(store.ListBucket, "techniques/mobile",
		[]map[string]string{{"id": "T1406", "name": "Obfuscated Files or Information"}})
	if err != nil {
		t.Fatal(err)
	}
	err = st.Put(store.ListBucket, "datasources",
		[]map[string]string{{"id": "DS0009", "name": "Process"}})
	if err != nil {
		t.Fatal(err)
	}

	idx, err := index.Open(filepath.Join(dir, "attck.bleve"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { idx.Close() })
	err = index.IndexDocuments(idx, []index.Document{
		{ID: "T1003", Kind: "technique", Name: "OS Credential Dumping",
			Description: "Adversaries may dump credentials."},
	})
	if err != nil {
		t.Fatal(err)
	}

	return New(st, idx)
}

func get(t *testing.T, handler http.Handler, url string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	return rec
}

func TestSearchEndpoint(t *testing.T) {
	handler := testServer(t).Handler()

	rec := get(t, handler, "/api/search?query=credential")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var hits []index.Hit
	if err := json.Unmarshal(rec.Body.Bytes(), &hits); err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].ID != "T1003" {
		t.Errorf("hits = %+v", hits)
	}
}

func TestSearchEndpointMissingQuery(t *testing.T) {
	handler := testServer(t).Handler()
	if rec := get(t, handler, "/api/search"); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSearchEndpointBadSize(t *testing.T) {
	handler := testServer(t).Handler()
	if rec := get(t, handler, "/api/search?query=x&size=0"); rec.Code != http.StatusBadRequest {
		t.Errorf("size=0 status = %d, want 400", rec.Code)
	}
	if rec := get(t, handler, "/api/search?query=x&size=abc"); rec.Code != http.StatusBadRequest {
		t.Errorf("size=abc status = %d, want 400", rec.Code)
	}
}

func TestSearchEndpointNoIndex(t *testing.T) {
	handler := New(nil, nil).Handler()
	if rec := get(t, handler, "/api/search?query=x"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestEntitiesEndpoint(t *testing.T) {
	handler := testServer(t).Handler()

	rec := get(t, handler, "/api/entities/techniques")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var entities []map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &entities); err != nil {
		t.Fatal(err)
	}
	// Both per-domain snapshots of the kind are served, concatenated.
	if len(entities) != 2 {
		t.Fatalf("entities = %+v, want both domains' records", entities)
	}
	if entities[0]["id"] != "T1003" || entities[1]["id"] != "T1406" {
		t.Errorf("entities = %+v", entities)
	}
}

func TestEntitiesEndpointUnsplitKind(t *testing.T) {
	handler := testServer(t).Handler()

	rec := get(t, handler, "/api/entities/datasources")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var entities []map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &entities); err != nil {
		t.Fatal(err)
	}
	if len(entities) != 1 || entities[0]["id"] != "DS0009" {
		t.Errorf("entities = %+v", entities)
	}
}

func TestEntitiesEndpointEmptyKind(t *testing.T) {
	handler := testServer(t).Handler()

	rec := get(t, handler, "/api/entities/groups")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := rec.Body.String(); body != "[]\n" {
		t.Errorf("body = %q, want an empty JSON array", body)
	}
}

func TestEntitiesEndpointUnknownKind(t *testing.T) {
	handler := testServer(t).Handler()
	if rec := get(t, handler, "/api/entities/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown kind status = %d, want 404", rec.Code)
	}
	// The snapshot bucket is internal, not an entity kind.
	if rec := get(t, handler, "/api/entities/lists"); rec.Code != http.StatusNotFound {
		t.Errorf("lists status = %d, want 404", rec.Code)
	}
}

func TestEntitiesEndpointNoStore(t *testing.T) {
	handler := New(nil, nil).Handler()
	if rec := get(t, handler, "/api/entities/techniques"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestCORSHeaders(t *testing.T) {
	handler := testServer(t).Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/search?query=credential", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}
