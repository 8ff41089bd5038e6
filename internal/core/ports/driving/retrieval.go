package driving

import (
	"context"

	"github.com/corvidae-labs/archivist/internal/core/domain"
)

// RetrievalService resolves a natural-language question into a ranked,
// citation-numbered context set.
type RetrievalService interface {
	// Retrieve runs the full candidate → rerank → fallback pipeline.
	// Weak or absent evidence is a normal outcome (ExitInsufficient),
	// never an error.
	Retrieve(ctx context.Context, query string, opts domain.RetrievalOptions) (*domain.RetrievalResult, error)

	// RetrieveInPath ranks the chunks of a single named page against
	// the query, bypassing candidate discovery.
	RetrieveInPath(ctx context.Context, path, query string, topK int) (*domain.RetrievalResult, error)
}

// AnswerSink receives the two phases of an answer: the citation list
// first, then the generated token stream.
type AnswerSink interface {
	// Citations delivers the retrieval result before generation starts.
	Citations(result *domain.RetrievalResult) error

	// Token delivers one generated token fragment.
	Token(token string) error
}

// AnswerService retrieves context for a question and streams a grounded,
// citation-backed answer into the sink.
type AnswerService interface {
	Ask(ctx context.Context, query string, opts domain.RetrievalOptions, sink AnswerSink) error
}

// IndexBuilder performs the one-time batch build of the persisted
// title and page indexes.
type IndexBuilder interface {
	// Build indexes the corpus, reporting progress as (fraction, message).
	// Returns the number of titles indexed.
	Build(ctx context.Context, progress func(frac float64, msg string)) (int, error)
}
