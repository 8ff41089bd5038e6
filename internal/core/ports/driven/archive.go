package driven

import (
	"context"

	"github.com/corvidae-labs/archivist/internal/core/domain"
)

// ArchiveReader fetches raw document content from the corpus.
// Read-only; returns domain.ErrNotFound for invalid paths.
type ArchiveReader interface {
	// Fetch returns the raw HTML/text content of the document at path.
	Fetch(ctx context.Context, path string) ([]byte, error)

	// Title returns the display title for path, falling back to the
	// path itself when no better title is known.
	Title(ctx context.Context, path string) string
}

// FullTextSearcher performs lexical search over full corpus content,
// independently of the title index. Used by the fallback recall passes.
type FullTextSearcher interface {
	// Search returns up to limit document refs matching the query,
	// in relevance order.
	Search(ctx context.Context, query string, limit int) ([]domain.DocumentRef, error)
}

// Suggester performs prefix-based title suggestion.
type Suggester interface {
	// Suggest returns up to limit document refs whose titles start
	// with prefix.
	Suggest(ctx context.Context, prefix string, limit int) ([]domain.DocumentRef, error)
}
