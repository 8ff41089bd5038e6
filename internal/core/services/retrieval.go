package services

import (
	"context"
	"errors"

	"github.com/corvidae-labs/archivist/internal/core/domain"
	"github.com/corvidae-labs/archivist/internal/core/ports/driven"
	"github.com/corvidae-labs/archivist/internal/core/ports/driving"
	"github.com/corvidae-labs/archivist/internal/logger"
)

// Ensure RetrievalOrchestrator implements the interface.
var _ driving.RetrievalService = (*RetrievalOrchestrator)(nil)

// stage names a state of the retrieval state machine.
type stage string

const (
	stageTitleFirst stage = "title_first"
	stageFullText   stage = "fulltext_fallback"
	stageSecondPass stage = "second_pass_widen"
	stageDone       stage = "done"
)

// RetrievalOrchestrator sequences candidate generation, page reranking,
// chunking and section reranking into a single query resolution:
//
//	TitleFirst → (EarlyExit | FullTextFallback) → (SecondPassWiden | Done)
//
// The orchestrator never fails for retrieval-quality reasons; weak or
// absent evidence is reported as ExitInsufficient.
type RetrievalOrchestrator struct {
	candidates *CandidateGenerator
	pages      *PageReranker
	chunker    *SectionChunker
	sections   *SectionReranker
	fulltext   driven.FullTextSearcher
	archive    driven.ArchiveReader
	embedder   driven.EmbeddingService
	cfg        domain.RetrievalConfig
}

// NewRetrievalOrchestrator wires the pipeline stages together.
func NewRetrievalOrchestrator(
	candidates *CandidateGenerator,
	pages *PageReranker,
	chunker *SectionChunker,
	sections *SectionReranker,
	fulltext driven.FullTextSearcher,
	archive driven.ArchiveReader,
	embedder driven.EmbeddingService,
	cfg domain.RetrievalConfig,
) *RetrievalOrchestrator {
	return &RetrievalOrchestrator{
		candidates: candidates,
		pages:      pages,
		chunker:    chunker,
		sections:   sections,
		fulltext:   fulltext,
		archive:    archive,
		embedder:   embedder,
		cfg:        cfg.Normalise(),
	}
}

// Retrieve resolves a query into a ranked, citation-numbered context set.
func (o *RetrievalOrchestrator) Retrieve(
	ctx context.Context, query string, opts domain.RetrievalOptions,
) (*domain.RetrievalResult, error) {
	logger.Section("Retrieval")
	logger.Debug("Query: %q", query)

	if opts.TopPages <= 0 {
		opts.TopPages = o.cfg.TopPages
	}
	if opts.TopK <= 0 {
		opts.TopK = o.cfg.TopK
	}

	if o.embedder == nil {
		logger.Warn("Retrieval degraded: no embedding service")
		return &domain.RetrievalResult{ExitReason: domain.ExitInsufficient}, nil
	}

	queryVec, err := o.embedder.Embed(ctx, query)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn("Query embedding failed: %v", err)
		return &domain.RetrievalResult{ExitReason: domain.ExitInsufficient}, nil
	}

	var ranked []domain.RankedChunk
	exit := domain.ExitInsufficient
	state := stageTitleFirst

	for state != stageDone {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		switch state {
		case stageTitleFirst:
			ranked = o.titleFirstPass(ctx, queryVec, query, opts.TopPages)
			if best := bestScore(ranked); best >= o.cfg.TitleSimExit {
				logger.Info("Early exit: title pass best=%.3f >= %.2f", best, o.cfg.TitleSimExit)
				exit = domain.ExitTitleEarly
				state = stageDone
			} else {
				logger.Info("Fallback: title pass best=%.3f < %.2f, using full-text",
					best, o.cfg.TitleSimExit)
				state = stageFullText
			}

		case stageFullText:
			ranked = o.fullTextPass(ctx, queryVec, query,
				o.cfg.MaxArticles, o.cfg.RecallLimit, o.cfg.MaxChunks)
			exit = domain.ExitFullText
			if best := bestScore(ranked); o.cfg.SecondPassEnable && best < o.cfg.SimThreshold {
				logger.Info("Second pass: widening recall (best=%.3f < %.2f)",
					best, o.cfg.SimThreshold)
				state = stageSecondPass
			} else {
				state = stageDone
			}

		case stageSecondPass:
			// Runs exactly once even when the widened pass is still weak.
			articles := int(float64(o.cfg.MaxArticles) * o.cfg.SecondPassFactor)
			recall := int(float64(o.cfg.RecallLimit) * o.cfg.SecondPassFactor)
			chunks := int(float64(o.cfg.MaxChunks) * o.cfg.SecondPassFactor)
			ranked = o.fullTextPass(ctx, queryVec, query, articles, recall, chunks)
			exit = domain.ExitSecondPass
			state = stageDone
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(ranked) == 0 {
		logger.Info("Retrieval exhausted: no evidence found")
		return &domain.RetrievalResult{ExitReason: domain.ExitInsufficient}, nil
	}
	return &domain.RetrievalResult{
		Citations:  renumber(ranked, opts.TopK),
		ExitReason: exit,
	}, nil
}

// RetrieveInPath ranks the chunks of a single named page, bypassing
// candidate discovery.
func (o *RetrievalOrchestrator) RetrieveInPath(
	ctx context.Context, path, query string, topK int,
) (*domain.RetrievalResult, error) {
	if topK <= 0 {
		topK = o.cfg.TopK
	}
	if o.embedder == nil || o.archive == nil {
		return &domain.RetrievalResult{ExitReason: domain.ExitInsufficient}, nil
	}

	content, err := o.archive.Fetch(ctx, path)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.RetrievalResult{ExitReason: domain.ExitInsufficient}, nil
		}
		return nil, err
	}

	queryVec, err := o.embedder.Embed(ctx, query)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn("Query embedding failed: %v", err)
		return &domain.RetrievalResult{ExitReason: domain.ExitInsufficient}, nil
	}

	chunks := o.chunker.ChunkDocument(content, path, o.archive.Title(ctx, path))
	if len(chunks) > o.cfg.MaxChunks {
		chunks = chunks[:o.cfg.MaxChunks]
	}
	ranked, err := o.sections.Rerank(ctx, queryVec, chunks)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn("Page rank %s failed: %v", path, err)
		return &domain.RetrievalResult{ExitReason: domain.ExitInsufficient}, nil
	}
	if len(ranked) == 0 {
		return &domain.RetrievalResult{ExitReason: domain.ExitInsufficient}, nil
	}
	return &domain.RetrievalResult{
		Citations:  renumber(ranked, topK),
		ExitReason: domain.ExitFullText,
	}, nil
}

// titleFirstPass runs candidate generation, page reranking and section
// reranking over the top pages. Failures degrade to an empty result.
func (o *RetrievalOrchestrator) titleFirstPass(
	ctx context.Context, queryVec domain.Vector, query string, topPages int,
) []domain.RankedChunk {
	candidates, err := o.candidates.Generate(ctx, query, 2*o.cfg.SuggestionLimit)
	if err != nil || len(candidates) == 0 {
		if err != nil && ctx.Err() == nil {
			logger.Warn("Title pass: candidate generation failed: %v", err)
		}
		return nil
	}

	pages, err := o.pages.Rerank(ctx, queryVec, candidates, topPages)
	if err != nil || len(pages) == 0 {
		if err != nil && ctx.Err() == nil {
			logger.Warn("Title pass: page rerank failed: %v", err)
		}
		return nil
	}

	refs := make([]domain.DocumentRef, len(pages))
	for i, p := range pages {
		refs[i] = p.Ref
	}
	return o.rankPages(ctx, queryVec, refs, o.cfg.MaxChunks)
}

// fullTextPass performs broad lexical recall against the corpus and
// reranks the union of the recalled pages' chunks.
func (o *RetrievalOrchestrator) fullTextPass(
	ctx context.Context, queryVec domain.Vector, query string, maxArticles, recallLimit, maxChunks int,
) []domain.RankedChunk {
	if o.fulltext == nil {
		logger.Warn("Full-text pass: no full-text searcher configured")
		return nil
	}

	refs, err := o.fulltext.Search(ctx, query, recallLimit)
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn("Full-text pass: search failed: %v", err)
		}
		return nil
	}
	if len(refs) > maxArticles {
		refs = refs[:maxArticles]
	}
	logger.Debug("Full-text pass: %d pages recalled", len(refs))

	return o.rankPages(ctx, queryVec, refs, maxChunks)
}

// rankPages chunks the given pages in priority order, applies the
// global chunk cap (lower-priority pages truncated first) and reranks.
func (o *RetrievalOrchestrator) rankPages(
	ctx context.Context, queryVec domain.Vector, refs []domain.DocumentRef, maxChunks int,
) []domain.RankedChunk {
	if o.archive == nil {
		logger.Warn("Chunk assembly: no archive reader configured")
		return nil
	}

	var chunks []domain.Chunk
	for _, ref := range refs {
		if len(chunks) >= maxChunks {
			break
		}
		content, err := o.archive.Fetch(ctx, ref.Path)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Debug("Dropping %s: %v", ref.Path, err)
			continue
		}
		title := ref.Title
		if title == "" {
			title = o.archive.Title(ctx, ref.Path)
		}
		pageChunks := o.chunker.ChunkDocument(content, ref.Path, title)
		if remaining := maxChunks - len(chunks); len(pageChunks) > remaining {
			pageChunks = pageChunks[:remaining]
		}
		chunks = append(chunks, pageChunks...)
	}
	logger.Debug("Ranking %d chunks from %d pages", len(chunks), len(refs))

	ranked, err := o.sections.Rerank(ctx, queryVec, chunks)
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn("Section rerank failed: %v", err)
		}
		return nil
	}
	return ranked
}

// renumber truncates to topK and restores contiguous citation ids.
func renumber(ranked []domain.RankedChunk, topK int) []domain.RankedChunk {
	if len(ranked) > topK {
		ranked = ranked[:topK]
	}
	out := make([]domain.RankedChunk, len(ranked))
	copy(out, ranked)
	for i := range out {
		out[i].CitationID = i + 1
	}
	return out
}

// bestScore returns the top score of a ranked list, 0 when empty.
func bestScore(ranked []domain.RankedChunk) float64 {
	if len(ranked) == 0 {
		return 0
	}
	return ranked[0].Score
}
