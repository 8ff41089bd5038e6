package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/corvidae-labs/archivist/internal/core/domain"
	"github.com/corvidae-labs/archivist/internal/core/ports/driven"
	"github.com/corvidae-labs/archivist/internal/logger"
)

// CandidateGenerator produces deduplicated, ordered candidate documents
// for a query by combining title-index term queries with prefix
// suggestions. Both sources are queried in parallel; title-index
// results take priority in the merged order.
type CandidateGenerator struct {
	titles   driven.TitleIndex
	suggest  driven.Suggester
	cache    driven.CandidateCache
	suggestN int
}

// NewCandidateGenerator creates a candidate generator.
// Any of titles, suggest and cache may be nil; a missing source simply
// contributes no candidates.
func NewCandidateGenerator(
	titles driven.TitleIndex,
	suggest driven.Suggester,
	cache driven.CandidateCache,
	suggestionLimit int,
) *CandidateGenerator {
	if suggestionLimit <= 0 {
		suggestionLimit = 20
	}
	return &CandidateGenerator{
		titles:   titles,
		suggest:  suggest,
		cache:    cache,
		suggestN: suggestionLimit,
	}
}

// Generate returns up to limit candidates for the query.
// An empty result is a valid, non-error outcome: the orchestrator
// proceeds straight to full-text fallback.
func (g *CandidateGenerator) Generate(ctx context.Context, query string, limit int) ([]domain.DocumentRef, error) {
	if limit <= 0 {
		return nil, domain.ErrInvalidInput
	}

	norm := NormaliseQuery(query)
	if g.cache != nil {
		if refs, ok := g.cache.Get(norm); ok {
			logger.Debug("Candidates: cache hit for %q (%d refs)", norm, len(refs))
			return truncateRefs(refs, limit), nil
		}
	}

	tokens := Tokenize(query)
	logger.Debug("Candidates: tokens=%v", tokens)

	var titleRefs, suggestRefs []domain.DocumentRef
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		titleRefs = g.fromTitleIndex(ctx, tokens, limit)
	}()

	go func() {
		defer wg.Done()
		suggestRefs = g.fromSuggestions(ctx, tokens)
	}()

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Merge preserving first-seen order, title index first. The cache
	// holds the full merged list so later calls with a larger limit
	// are not served a shorter entry.
	merged := make([]domain.DocumentRef, 0, len(titleRefs)+len(suggestRefs))
	seen := make(map[string]struct{})
	for _, ref := range append(titleRefs, suggestRefs...) {
		if _, dup := seen[ref.Path]; dup {
			continue
		}
		seen[ref.Path] = struct{}{}
		merged = append(merged, ref)
	}

	if g.cache != nil {
		g.cache.Put(norm, merged)
	}
	logger.Info("Candidates for %q: %d (title=%d, suggest=%d)",
		strings.TrimSpace(query), len(merged), len(titleRefs), len(suggestRefs))
	return truncateRefs(merged, limit), nil
}

// fromTitleIndex runs the OR-joined term query. An unavailable index is
// a degradation signal, not an error.
func (g *CandidateGenerator) fromTitleIndex(ctx context.Context, tokens []string, limit int) []domain.DocumentRef {
	if g.titles == nil || len(tokens) == 0 {
		return nil
	}
	records, err := g.titles.Query(ctx, tokens, limit)
	if err != nil {
		if errors.Is(err, domain.ErrIndexUnavailable) {
			logger.Warn("Candidates: title index unavailable, using suggestions only")
		} else {
			logger.Warn("Candidates: title query failed: %v", err)
		}
		return nil
	}
	refs := make([]domain.DocumentRef, 0, len(records))
	for _, rec := range records {
		refs = append(refs, domain.DocumentRef{Path: rec.Path, Title: rec.Title})
	}
	logger.Debug("Candidates: %d from title index", len(refs))
	return refs
}

// fromSuggestions queries the prefix-suggestion source for each
// candidate prefix until the suggestion budget is filled.
func (g *CandidateGenerator) fromSuggestions(ctx context.Context, tokens []string) []domain.DocumentRef {
	if g.suggest == nil {
		return nil
	}
	var refs []domain.DocumentRef
	for _, prefix := range PrefixCandidates(tokens) {
		if len(refs) >= g.suggestN {
			break
		}
		got, err := g.suggest.Suggest(ctx, prefix, g.suggestN-len(refs))
		if err != nil {
			if ctx.Err() != nil {
				return refs
			}
			logger.Debug("Candidates: suggest %q failed: %v", prefix, err)
			continue
		}
		refs = append(refs, got...)
	}
	logger.Debug("Candidates: %d from suggestions", len(refs))
	return refs
}

func truncateRefs(refs []domain.DocumentRef, limit int) []domain.DocumentRef {
	if len(refs) > limit {
		return refs[:limit]
	}
	return refs
}
