package services

import (
	"context"
	"sort"
	"sync"

	"github.com/corvidae-labs/archivist/internal/core/domain"
	"github.com/corvidae-labs/archivist/internal/core/ports/driven"
	"github.com/corvidae-labs/archivist/internal/logger"
)

// SectionReranker embeds chunks and ranks them against the query
// vector, assigning citation ids in final rank order starting at 1.
type SectionReranker struct {
	embedder    driven.EmbeddingService
	parallelism int
}

// NewSectionReranker creates a section reranker. parallelism caps
// concurrent per-chunk embedding calls within one query.
func NewSectionReranker(embedder driven.EmbeddingService, parallelism int) *SectionReranker {
	if parallelism <= 0 {
		parallelism = 4
	}
	return &SectionReranker{embedder: embedder, parallelism: parallelism}
}

// Rerank scores every chunk and returns them ordered by descending
// score, ties keeping the original chunk order. Chunks whose embedding
// fails are dropped; if every chunk fails the stage propagates
// domain.ErrInsufficientEvidence.
//
// Callers enforce the global chunk cap before ranking by assembling
// chunks in page-priority order and truncating, so lower-priority
// pages lose chunks first.
func (r *SectionReranker) Rerank(
	ctx context.Context, queryVec domain.Vector, chunks []domain.Chunk,
) ([]domain.RankedChunk, error) {
	if r.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	scores := make([]*float64, len(chunks))
	sem := make(chan struct{}, r.parallelism)
	var wg sync.WaitGroup

	for i := range chunks {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			vec, err := r.embedder.Embed(ctx, chunks[i].Text)
			if err != nil {
				logger.Debug("Section rerank: dropping chunk %d (%s): %v",
					i, chunks[i].ParentPath, err)
				return
			}
			s := domain.Cosine(queryVec, vec)
			scores[i] = &s
		}(i)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ranked := make([]domain.RankedChunk, 0, len(chunks))
	for i, s := range scores {
		if s == nil {
			continue
		}
		ranked = append(ranked, domain.RankedChunk{Chunk: chunks[i], Score: *s})
	}
	if len(ranked) == 0 {
		return nil, domain.ErrInsufficientEvidence
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	for i := range ranked {
		ranked[i].CitationID = i + 1
	}
	return ranked, nil
}
