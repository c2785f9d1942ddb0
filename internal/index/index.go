// Package index maintains the Bleve full-text index over synced
// entities and answers search queries against it.
package index

import (
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
)

// Document is the flattened shape every entity kind is indexed as.
type Document struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	Domain      string `json:"domain,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

// Hit is one search result.
type Hit struct {
	ID    string  `json:"id"`
	Kind  string  `json:"kind"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

const docType = "entity"

// NewMapping builds the index mapping: keyword fields for the filterable
// attributes, text fields for the searchable prose.
func NewMapping() mapping.IndexMapping {
	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	textFieldMapping := bleve.NewTextFieldMapping()

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("id", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("kind", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("domain", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("name", textFieldMapping)
	docMapping.AddFieldMappingsAt("description", textFieldMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.AddDocumentMapping(docType, docMapping)
	return indexMapping
}

// Open opens the index at path, creating it with the entity mapping when
// it does not exist yet.
func Open(path string) (bleve.Index, error) {
	if _, err := os.Stat(path); err == nil {
		idx, err := bleve.Open(path)
		if err != nil {
			return nil, fmt.Errorf("index: opening %q: %w", path, err)
		}
		return idx, nil
	}
	idx, err := bleve.New(path, NewMapping())
	if err != nil {
		return nil, fmt.Errorf("index: creating %q: %w", path, err)
	}
	return idx, nil
}

// Rebuild replaces the index at path with one holding exactly docs.
// Indexing into an existing index would only upsert, leaving entities
// removed upstream behind as stale hits.
func Rebuild(path string, docs []Document) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("index: removing %q: %w", path, err)
	}
	idx, err := Open(path)
	if err != nil {
		return err
	}
	defer idx.Close()
	return IndexDocuments(idx, docs)
}

// IndexDocuments adds docs in batches. Documents are keyed kind/id so the
// same entity id appearing in two kinds cannot clobber itself.
func IndexDocuments(idx bleve.Index, docs []Document) error {
	batch := idx.NewBatch()
	for _, doc := range docs {
		doc.Type = docType
		if err := batch.Index(doc.Kind+"/"+doc.ID, doc); err != nil {
			return fmt.Errorf("index: batching %s/%s: %w", doc.Kind, doc.ID, err)
		}
		if batch.Size() >= 100 {
			if err := idx.Batch(batch); err != nil {
				return fmt.Errorf("index: flushing batch: %w", err)
			}
			batch = idx.NewBatch()
		}
	}
	if batch.Size() > 0 {
		if err := idx.Batch(batch); err != nil {
			return fmt.Errorf("index: flushing final batch: %w", err)
		}
	}
	return nil
}

// Search runs a match query and unpacks the stored fields of each hit.
func Search(idx bleve.Index, queryStr string, size int) ([]Hit, error) {
	query := bleve.NewMatchQuery(queryStr)
	request := bleve.NewSearchRequest(query)
	request.Fields = []string{"id", "kind", "name"}
	request.Size = size

	result, err := idx.Search(request)
	if err != nil {
		return nil, fmt.Errorf("index: searching %q: %w", queryStr, err)
	}

	hits := make([]Hit, 0, len(result.Hits))
	for _, hit := range result.Hits {
		hits = append(hits, Hit{
			ID:    fieldString(hit.Fields, "id"),
			Kind:  fieldString(hit.Fields, "kind"),
			Name:  fieldString(hit.Fields, "name"),
			Score: hit.Score,
		})
	}
	return hits, nil
}

func fieldString(fields map[string]interface{}, name string) string {
	switch v := fields[name].(type) {
	case string:
		return v
	case []interface{}:
		if len(v) > 0 {
			if s, ok := v[0].(string); ok {
				return s
			}
		}
	}
	return ""
}
