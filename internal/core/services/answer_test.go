package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvidae-labs/archivist/internal/core/domain"
)

// recordingSink captures the order of sink events.
type recordingSink struct {
	result *domain.RetrievalResult
	tokens []string
	events []string
}

func (s *recordingSink) Citations(result *domain.RetrievalResult) error {
	s.result = result
	s.events = append(s.events, "citations")
	return nil
}

func (s *recordingSink) Token(tok string) error {
	s.tokens = append(s.tokens, tok)
	s.events = append(s.events, "token")
	return nil
}

// stubRetriever returns a canned result.
type stubRetriever struct {
	result *domain.RetrievalResult
}

func (s *stubRetriever) Retrieve(context.Context, string, domain.RetrievalOptions) (*domain.RetrievalResult, error) {
	return s.result, nil
}

func (s *stubRetriever) RetrieveInPath(context.Context, string, string, int) (*domain.RetrievalResult, error) {
	return s.result, nil
}

func rankedFixture(n int) []domain.RankedChunk {
	out := make([]domain.RankedChunk, n)
	for i := range out {
		out[i] = domain.RankedChunk{
			Chunk: domain.Chunk{
				SectionLabel: "Lead",
				Text:         "some chunk text about sunsets and scattering",
				ParentPath:   "/Sunset",
				ParentTitle:  "Sunset",
			},
			Score:      1 - float64(i)*0.1,
			CitationID: i + 1,
		}
	}
	return out
}

func TestAsk_CitationsBeforeTokens(t *testing.T) {
	retriever := &stubRetriever{result: &domain.RetrievalResult{
		Citations:  rankedFixture(2),
		ExitReason: domain.ExitTitleEarly,
	}}
	llm := &mockLLM{tokens: []string{"The", " sky", " is orange."}}
	sink := &recordingSink{}

	svc := NewAnswerService(retriever, llm, 0)
	err := svc.Ask(context.Background(), "why orange", domain.RetrievalOptions{}, sink)

	require.NoError(t, err)
	require.NotEmpty(t, sink.events)
	assert.Equal(t, "citations", sink.events[0])
	assert.Equal(t, []string{"The", " sky", " is orange."}, sink.tokens)
	require.NotNil(t, sink.result)
	assert.Len(t, sink.result.Citations, 2)
	assert.Equal(t, domain.ExitTitleEarly, sink.result.ExitReason)

	assert.Contains(t, llm.prompt, "CONTEXT:")
	assert.Contains(t, llm.prompt, "[1] Sunset — Lead")
	assert.Contains(t, llm.prompt, "QUESTION: why orange")
	assert.Contains(t, llm.system, "do not fabricate citations")
}

func TestAsk_ContextBudgetKeepsPrefix(t *testing.T) {
	retriever := &stubRetriever{result: &domain.RetrievalResult{
		Citations:  rankedFixture(10),
		ExitReason: domain.ExitFullText,
	}}
	sink := &recordingSink{}

	// Each packed line is 12 estimated tokens; a budget of 25 fits two.
	svc := NewAnswerService(retriever, &mockLLM{}, 25)
	err := svc.Ask(context.Background(), "q", domain.RetrievalOptions{}, sink)

	require.NoError(t, err)
	require.NotNil(t, sink.result)
	assert.Len(t, sink.result.Citations, 2)
	// Packed citations are a prefix, ids stay contiguous.
	for i, c := range sink.result.Citations {
		assert.Equal(t, i+1, c.CitationID)
	}
}

func TestAsk_InsufficientEvidenceStillAnswers(t *testing.T) {
	retriever := &stubRetriever{result: &domain.RetrievalResult{ExitReason: domain.ExitInsufficient}}
	llm := &mockLLM{tokens: []string{"General (no local cite): best effort."}}
	sink := &recordingSink{}

	svc := NewAnswerService(retriever, llm, 0)
	err := svc.Ask(context.Background(), "unknown topic", domain.RetrievalOptions{}, sink)

	require.NoError(t, err)
	assert.Empty(t, sink.result.Citations)
	assert.Contains(t, llm.prompt, "No CONTEXT is available")
	assert.True(t, strings.HasPrefix(sink.tokens[0], "General (no local cite):"))
}

func TestAsk_NoLLM(t *testing.T) {
	svc := NewAnswerService(&stubRetriever{}, nil, 0)
	err := svc.Ask(context.Background(), "q", domain.RetrievalOptions{}, &recordingSink{})
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}
