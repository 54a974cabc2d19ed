package memory

import "context"

// Document is one memory entry returned from or written to the store.
type Document struct {
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Distance float32           `json:"distance,omitempty"`
}

// Stats describes the state of one memory collection.
type Stats struct {
	Collection string `json:"collection"`
	Count      int64  `json:"count"`
}

// Store is the long-term memory backing agents. Implementations embed the
// content and store/search it in a vector collection.
type Store interface {
	// Ingest writes one document into the collection.
	Ingest(ctx context.Context, collection string, doc Document) error

	// Query returns the topK documents most similar to the query text.
	Query(ctx context.Context, collection, query string, topK int) ([]Document, error)

	// Stats reports the number of stored documents in the collection.
	Stats(ctx context.Context, collection string) (*Stats, error)
}
