package memory

import (
	"Vybe_AI/internal/database/milvus"
	"Vybe_AI/internal/embedding"
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// MilvusStore implements Store on top of a Milvus collection, using an
// embedding model to vectorize content.
type MilvusStore struct {
	db       *milvus.MilvusClient
	embedder embedding.Embedding
	dim      int
}

// NewMilvusStore creates a MilvusStore. ensureCollections lists collections
// that must exist before first use.
func NewMilvusStore(ctx context.Context, db *milvus.MilvusClient, embedder embedding.Embedding, dim int, ensureCollections ...string) (*MilvusStore, error) {
	s := &MilvusStore{db: db, embedder: embedder, dim: dim}
	for _, coll := range ensureCollections {
		if err := db.EnsureCollection(ctx, coll, dim); err != nil {
			return nil, fmt.Errorf("failed to ensure collection %s: %w", coll, err)
		}
	}
	return s, nil
}

// Ingest embeds the document content and inserts it with a generated ID.
func (s *MilvusStore) Ingest(ctx context.Context, collection string, doc Document) error {
	vector, err := s.embedder.Embed(ctx, doc.Content)
	if err != nil {
		return fmt.Errorf("failed to embed content: %w", err)
	}

	metadata := "{}"
	if doc.Metadata != nil {
		data, err := json.Marshal(doc.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
		metadata = string(data)
	}

	return s.db.Insert(ctx, collection, uuid.New().String(), doc.Content, metadata, vector)
}

// Query embeds the query text and runs a vector similarity search.
func (s *MilvusStore) Query(ctx context.Context, collection, query string, topK int) ([]Document, error) {
	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := s.db.Search(ctx, collection, topK, vector)
	if err != nil {
		return nil, err
	}

	var docs []Document
	for _, result := range results {
		contentCol := result.Fields.GetColumn("content")
		metadataCol := result.Fields.GetColumn("metadata")
		if contentCol == nil {
			continue
		}
		for i := 0; i < result.ResultCount; i++ {
			content, err := contentCol.GetAsString(i)
			if err != nil {
				continue
			}
			doc := Document{Content: content}
			if metadataCol != nil {
				if raw, err := metadataCol.GetAsString(i); err == nil && raw != "" {
					var meta map[string]string
					if json.Unmarshal([]byte(raw), &meta) == nil {
						doc.Metadata = meta
					}
				}
			}
			if i < len(result.Scores) {
				doc.Distance = result.Scores[i]
			}
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// Stats reports the row count of the collection.
func (s *MilvusStore) Stats(ctx context.Context, collection string) (*Stats, error) {
	count, err := s.db.RowCount(ctx, collection)
	if err != nil {
		return nil, err
	}
	return &Stats{Collection: collection, Count: count}, nil
}
