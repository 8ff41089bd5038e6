package services

import (
	"context"
	"strings"
	"sync"

	"github.com/corvidae-labs/archivist/internal/core/domain"
	"github.com/corvidae-labs/archivist/internal/core/ports/driven"
)

// --- Mock implementations shared by the service tests ---

// mockTitleIndex implements driven.TitleIndex.
type mockTitleIndex struct {
	records  []domain.TitleRecord
	queryErr error
	calls    int
}

func (m *mockTitleIndex) Query(_ context.Context, _ []string, limit int) ([]domain.TitleRecord, error) {
	m.calls++
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	if limit < len(m.records) {
		return m.records[:limit], nil
	}
	return m.records, nil
}

func (m *mockTitleIndex) Close() error { return nil }

// mockSuggester implements driven.Suggester.
type mockSuggester struct {
	refs       []domain.DocumentRef
	suggestErr error
}

func (m *mockSuggester) Suggest(_ context.Context, _ string, limit int) ([]domain.DocumentRef, error) {
	if m.suggestErr != nil {
		return nil, m.suggestErr
	}
	if limit < len(m.refs) {
		return m.refs[:limit], nil
	}
	return m.refs, nil
}

// mockFullText implements driven.FullTextSearcher.
type mockFullText struct {
	refs      []domain.DocumentRef
	searchErr error
	calls     int
	limits    []int
}

func (m *mockFullText) Search(_ context.Context, _ string, limit int) ([]domain.DocumentRef, error) {
	m.calls++
	m.limits = append(m.limits, limit)
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if limit < len(m.refs) {
		return m.refs[:limit], nil
	}
	return m.refs, nil
}

// mockArchive implements driven.ArchiveReader over an in-memory corpus.
type mockArchive struct {
	pages  map[string]string // path -> content
	titles map[string]string // path -> title
	broken map[string]error  // path -> fetch error
}

func (m *mockArchive) Fetch(_ context.Context, path string) ([]byte, error) {
	if err, ok := m.broken[path]; ok {
		return nil, err
	}
	content, ok := m.pages[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return []byte(content), nil
}

func (m *mockArchive) Title(_ context.Context, path string) string {
	if t, ok := m.titles[path]; ok {
		return t
	}
	return path
}

// mockEmbedder implements driven.EmbeddingService with a pluggable
// deterministic embedding function.
type mockEmbedder struct {
	mu    sync.Mutex
	fn    func(text string) (domain.Vector, error)
	calls []string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.Vector, error) {
	m.mu.Lock()
	m.calls = append(m.calls, text)
	m.mu.Unlock()
	return m.fn(text)
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([]domain.Vector, error) {
	out := make([]domain.Vector, len(texts))
	for i, t := range texts {
		vec, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int              { return 3 }
func (m *mockEmbedder) ModelName() string            { return "mock-embed" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

func (m *mockEmbedder) embedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// keywordEmbedder embeds text as presence indicators over a fixed
// vocabulary, so cosine similarity is fully predictable in tests.
func keywordEmbedder(vocab ...string) *mockEmbedder {
	return &mockEmbedder{fn: func(text string) (domain.Vector, error) {
		lower := strings.ToLower(text)
		vec := make(domain.Vector, len(vocab))
		for i, word := range vocab {
			if strings.Contains(lower, word) {
				vec[i] = 1
			}
		}
		return vec, nil
	}}
}

// mockLeadCache implements driven.LeadCache without eviction.
type mockLeadCache struct {
	mu   sync.Mutex
	data map[string]domain.Vector
	hits uint64
	miss uint64
}

func newMockLeadCache() *mockLeadCache {
	return &mockLeadCache{data: make(map[string]domain.Vector)}
}

func (c *mockLeadCache) Get(path string) (domain.Vector, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	vec, ok := c.data[path]
	if ok {
		c.hits++
	} else {
		c.miss++
	}
	return vec, ok
}

func (c *mockLeadCache) Put(path string, vec domain.Vector) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[path] = vec
}

func (c *mockLeadCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

func (c *mockLeadCache) Stats() driven.CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return driven.CacheStats{Hits: c.hits, Misses: c.miss}
}

// mockCandidateCache implements driven.CandidateCache without eviction.
type mockCandidateCache struct {
	mu   sync.Mutex
	data map[string][]domain.DocumentRef
}

func newMockCandidateCache() *mockCandidateCache {
	return &mockCandidateCache{data: make(map[string][]domain.DocumentRef)}
}

func (c *mockCandidateCache) Get(query string) ([]domain.DocumentRef, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	refs, ok := c.data[query]
	return refs, ok
}

func (c *mockCandidateCache) Put(query string, refs []domain.DocumentRef) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[query] = refs
}

func (c *mockCandidateCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

func (c *mockCandidateCache) Stats() driven.CacheStats { return driven.CacheStats{} }

// mockLLM implements driven.LLMService, emitting fixed tokens.
type mockLLM struct {
	tokens    []string
	streamErr error
	system    string
	prompt    string
}

func (m *mockLLM) Stream(_ context.Context, system, prompt string, onToken func(string) error) error {
	m.system = system
	m.prompt = prompt
	if m.streamErr != nil {
		return m.streamErr
	}
	for _, tok := range m.tokens {
		if err := onToken(tok); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockLLM) ModelName() string { return "mock-llm" }
func (m *mockLLM) Close() error      { return nil }
