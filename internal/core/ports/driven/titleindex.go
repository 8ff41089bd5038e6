package driven

import (
	"context"

	"github.com/corvidae-labs/archivist/internal/core/domain"
)

// TitleIndex provides boolean term queries over the persisted title index.
// Backed by SQLite FTS5 with BM25 ranking.
//
// An absent or unbuilt index is not a fatal condition: implementations
// return domain.ErrIndexUnavailable and callers degrade to the suggestion
// source alone.
type TitleIndex interface {
	// Query runs an OR-joined term query and returns matching records
	// ranked by lexical relevance. Ties break by shorter title, then
	// lexical order.
	Query(ctx context.Context, tokens []string, limit int) ([]domain.TitleRecord, error)

	// Close releases resources.
	Close() error
}
