package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvidae-labs/archivist/internal/core/domain"
)

func TestGenerate_TitleIndexTakesPriority(t *testing.T) {
	titles := &mockTitleIndex{records: []domain.TitleRecord{
		{Title: "Sunset", Path: "/Sunset"},
		{Title: "Sunrise", Path: "/Sunrise"},
	}}
	suggest := &mockSuggester{refs: []domain.DocumentRef{
		{Path: "/Sunset", Title: "Sunset"}, // duplicate of a title hit
		{Path: "/Sky", Title: "Sky"},
	}}

	g := NewCandidateGenerator(titles, suggest, nil, 20)
	refs, err := g.Generate(context.Background(), "why is the sky orange at sunset", 10)

	require.NoError(t, err)
	require.Len(t, refs, 3)
	assert.Equal(t, "/Sunset", refs[0].Path)
	assert.Equal(t, "/Sunrise", refs[1].Path)
	assert.Equal(t, "/Sky", refs[2].Path)
}

func TestGenerate_TruncatesToLimit(t *testing.T) {
	titles := &mockTitleIndex{records: []domain.TitleRecord{
		{Title: "A", Path: "/A"},
		{Title: "B", Path: "/B"},
		{Title: "C", Path: "/C"},
	}}

	g := NewCandidateGenerator(titles, nil, nil, 20)
	refs, err := g.Generate(context.Background(), "alpha beta", 2)

	require.NoError(t, err)
	assert.Len(t, refs, 2)
}

func TestGenerate_BothSourcesEmpty(t *testing.T) {
	g := NewCandidateGenerator(
		&mockTitleIndex{},
		&mockSuggester{},
		nil, 20,
	)
	refs, err := g.Generate(context.Background(), "completely unknown topic", 10)

	// Empty is a valid, non-error outcome.
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestGenerate_IndexUnavailableDegradesToSuggestions(t *testing.T) {
	titles := &mockTitleIndex{queryErr: domain.ErrIndexUnavailable}
	suggest := &mockSuggester{refs: []domain.DocumentRef{{Path: "/Sky", Title: "Sky"}}}

	g := NewCandidateGenerator(titles, suggest, nil, 20)
	refs, err := g.Generate(context.Background(), "sky colour", 10)

	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "/Sky", refs[0].Path)
}

func TestGenerate_MemoisesPerNormalisedQuery(t *testing.T) {
	titles := &mockTitleIndex{records: []domain.TitleRecord{{Title: "Sunset", Path: "/Sunset"}}}
	cache := newMockCandidateCache()

	g := NewCandidateGenerator(titles, nil, cache, 20)

	_, err := g.Generate(context.Background(), "Sunset colours", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, titles.calls)

	// Same query modulo case and whitespace hits the cache.
	_, err = g.Generate(context.Background(), "  sunset   COLOURS ", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, titles.calls)
}

func TestGenerate_CacheHoldsFullListAcrossLimits(t *testing.T) {
	titles := &mockTitleIndex{}
	suggest := &mockSuggester{refs: []domain.DocumentRef{
		{Path: "/A", Title: "A"},
		{Path: "/B", Title: "B"},
		{Path: "/C", Title: "C"},
	}}
	cache := newMockCandidateCache()

	g := NewCandidateGenerator(titles, suggest, cache, 20)

	refs, err := g.Generate(context.Background(), "alpha beta", 1)
	require.NoError(t, err)
	require.Len(t, refs, 1)

	// A later call with a wider limit is served the full cached list,
	// not the first caller's truncation.
	refs, err = g.Generate(context.Background(), "alpha beta", 3)
	require.NoError(t, err)
	assert.Equal(t, 1, titles.calls)
	require.Len(t, refs, 3)
	assert.Equal(t, "/C", refs[2].Path)
}

func TestGenerate_InvalidLimit(t *testing.T) {
	g := NewCandidateGenerator(&mockTitleIndex{}, nil, nil, 20)
	_, err := g.Generate(context.Background(), "anything", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
