package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/corvidae-labs/archivist/internal/core/domain"
	"github.com/corvidae-labs/archivist/internal/core/ports/driven"
	"github.com/corvidae-labs/archivist/internal/logger"
)

// ScoredPage is a candidate document with its page-level relevance score.
type ScoredPage struct {
	// Ref identifies the candidate document.
	Ref domain.DocumentRef

	// Score is the cosine similarity between the query vector and the
	// document's summary vector.
	Score float64
}

// PageReranker scores candidates by cosine similarity between the query
// vector and each candidate's summary vector (embedding of title plus
// lead paragraph), populating the lead cache on miss.
//
// Reranking never mutates the title index; the lead cache is its only
// side effect.
type PageReranker struct {
	embedder    driven.EmbeddingService
	archive     driven.ArchiveReader
	cache       driven.LeadCache
	chunker     *SectionChunker
	parallelism int
}

// NewPageReranker creates a page reranker. parallelism caps concurrent
// per-candidate embedding calls within one query.
func NewPageReranker(
	embedder driven.EmbeddingService,
	archive driven.ArchiveReader,
	cache driven.LeadCache,
	chunker *SectionChunker,
	parallelism int,
) *PageReranker {
	if parallelism <= 0 {
		parallelism = 4
	}
	return &PageReranker{
		embedder:    embedder,
		archive:     archive,
		cache:       cache,
		chunker:     chunker,
		parallelism: parallelism,
	}
}

// Rerank returns the topP candidates ordered by descending score.
// Ties keep the original candidate order. Candidates whose content
// fetch or embedding fails are dropped, never aborting the query.
func (r *PageReranker) Rerank(
	ctx context.Context, queryVec domain.Vector, candidates []domain.DocumentRef, topP int,
) ([]ScoredPage, error) {
	if r.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if r.archive == nil {
		return nil, nil
	}
	if topP <= 0 {
		topP = 1
	}

	// Fan out per candidate, bounded by the parallelism cap.
	// Results land at their candidate index so ties stay stable.
	scored := make([]*ScoredPage, len(candidates))
	sem := make(chan struct{}, r.parallelism)
	var wg sync.WaitGroup

	for i, ref := range candidates {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		wg.Add(1)
		go func(i int, ref domain.DocumentRef) {
			defer wg.Done()
			defer func() { <-sem }()
			vec, err := r.summaryVector(ctx, ref)
			if err != nil {
				logger.Debug("Page rerank: dropping %s: %v", ref.Path, err)
				return
			}
			scored[i] = &ScoredPage{Ref: ref, Score: domain.Cosine(queryVec, vec)}
		}(i, ref)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pages := make([]ScoredPage, 0, len(candidates))
	for _, sp := range scored {
		if sp != nil {
			pages = append(pages, *sp)
		}
	}

	sort.SliceStable(pages, func(i, j int) bool {
		return pages[i].Score > pages[j].Score
	})

	if len(pages) > topP {
		pages = pages[:topP]
	}
	for _, p := range pages {
		logger.Debug("Page rerank: %s score=%.3f", p.Ref.Path, p.Score)
	}
	return pages, nil
}

// summaryVector returns the cached summary vector for a candidate,
// deriving and caching it on miss.
func (r *PageReranker) summaryVector(ctx context.Context, ref domain.DocumentRef) (domain.Vector, error) {
	if r.cache != nil {
		if vec, ok := r.cache.Get(ref.Path); ok {
			return vec, nil
		}
	}

	content, err := r.archive.Fetch(ctx, ref.Path)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ref.Path, err)
	}

	lead := r.leadText(content, ref.Path)
	if lead == "" {
		return nil, fmt.Errorf("no lead paragraph: %w", domain.ErrInsufficientEvidence)
	}

	title := ref.Title
	if title == "" {
		title = ref.Path
	}
	// Title plus lead gives a strong page-level signal.
	vec, err := r.embedder.Embed(ctx, title+". "+lead)
	if err != nil {
		return nil, fmt.Errorf("embed lead: %w", err)
	}

	if r.cache != nil {
		r.cache.Put(ref.Path, vec)
	}
	return vec, nil
}

// leadText extracts the lead section text from raw page content.
func (r *PageReranker) leadText(content []byte, path string) string {
	sections := r.chunker.Sections(content, path)
	if len(sections) == 0 || sections[0].Label != LeadLabel {
		return ""
	}
	return sections[0].Text
}
