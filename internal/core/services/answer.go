package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/corvidae-labs/archivist/internal/core/domain"
	"github.com/corvidae-labs/archivist/internal/core/ports/driven"
	"github.com/corvidae-labs/archivist/internal/core/ports/driving"
	"github.com/corvidae-labs/archivist/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.AnswerService = (*AnswerService)(nil)

// systemPrompt instructs the model to stay grounded in the supplied
// context and to mark uncited answers explicitly.
const systemPrompt = "You are an offline assistant. Prefer to answer strictly from the provided CONTEXT. " +
	"Use [1][2]-style citation markers that map to the CONTEXT list. Keep answers concise. " +
	"If the CONTEXT lacks the information to answer the question, provide a concise best-effort explanation " +
	"clearly prefixed with 'General (no local cite): ' and do not fabricate citations."

// snippetTokens is the display length of a citation snippet.
const snippetTokens = 60

// AnswerService retrieves context for a question and streams a
// grounded answer. Citations are delivered to the sink before the
// first generated token.
type AnswerService struct {
	retriever driving.RetrievalService
	llm       driven.LLMService

	// maxContextTokens bounds the packed context, estimated by words.
	maxContextTokens int
}

// NewAnswerService creates an answer service. llm may be nil, in which
// case Ask fails with domain.ErrLLMUnavailable.
func NewAnswerService(retriever driving.RetrievalService, llm driven.LLMService, maxContextTokens int) *AnswerService {
	if maxContextTokens <= 0 {
		maxContextTokens = 2700
	}
	return &AnswerService{
		retriever:        retriever,
		llm:              llm,
		maxContextTokens: maxContextTokens,
	}
}

// Ask resolves the query, streams the citation list, then streams the
// generated answer tokens.
func (s *AnswerService) Ask(
	ctx context.Context, query string, opts domain.RetrievalOptions, sink driving.AnswerSink,
) error {
	if s.llm == nil {
		return domain.ErrLLMUnavailable
	}

	result, err := s.retriever.Retrieve(ctx, query, opts)
	if err != nil {
		return fmt.Errorf("retrieve: %w", err)
	}

	contextText, packed := s.packContext(result.Citations)
	delivered := &domain.RetrievalResult{Citations: packed, ExitReason: result.ExitReason}

	// Citations go out before generation starts so clients can render
	// references while tokens stream.
	if err := sink.Citations(delivered); err != nil {
		return fmt.Errorf("deliver citations: %w", err)
	}

	prompt := s.buildPrompt(query, contextText)
	logger.Debug("Answer: exit=%s, citations=%d, prompt tokens≈%d",
		result.ExitReason, len(packed), EstimateTokens(prompt))

	if err := s.llm.Stream(ctx, systemPrompt, prompt, sink.Token); err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	return nil
}

// packContext assembles "[n] Title — Section — snippet" lines up to the
// context token budget. Returns the packed text and the citations that
// made it in; the packed set is always a prefix of the ranked list so
// citation ids stay contiguous.
func (s *AnswerService) packContext(citations []domain.RankedChunk) (string, []domain.RankedChunk) {
	var b strings.Builder
	var packed []domain.RankedChunk
	used := 0
	for _, c := range citations {
		segment := fmt.Sprintf("[%d] %s — %s — %s\n",
			c.CitationID, c.Chunk.ParentTitle, c.Chunk.SectionLabel, c.Chunk.Snippet(snippetTokens))
		t := EstimateTokens(segment)
		if used+t > s.maxContextTokens {
			break
		}
		used += t
		b.WriteString(segment)
		packed = append(packed, c)
	}
	return b.String(), packed
}

// buildPrompt assembles the user prompt for generation.
func (s *AnswerService) buildPrompt(query, contextText string) string {
	if contextText == "" {
		return "No CONTEXT is available for this question.\n\nQUESTION: " + query
	}
	return "CONTEXT:\n" + contextText + "\nQUESTION: " + query
}
