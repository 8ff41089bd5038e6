package mcp

import (
	"context"

	"github.com/corvidae-labs/archivist/internal/core/domain"
)

// mockRetrievalService is a test double for driving.RetrievalService.
type mockRetrievalService struct {
	result    *domain.RetrievalResult
	err       error
	lastQuery string
	lastPath  string
	lastOpts  domain.RetrievalOptions
	lastTopK  int
}

func (m *mockRetrievalService) Retrieve(ctx context.Context, query string, opts domain.RetrievalOptions) (*domain.RetrievalResult, error) {
	m.lastQuery = query
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	if m.result == nil {
		return &domain.RetrievalResult{ExitReason: domain.ExitInsufficient}, nil
	}
	return m.result, nil
}

func (m *mockRetrievalService) RetrieveInPath(ctx context.Context, path, query string, topK int) (*domain.RetrievalResult, error) {
	m.lastPath = path
	m.lastQuery = query
	m.lastTopK = topK
	if m.err != nil {
		return nil, m.err
	}
	if m.result == nil {
		return &domain.RetrievalResult{ExitReason: domain.ExitInsufficient}, nil
	}
	return m.result, nil
}

// mockSuggester is a test double for driven.Suggester.
type mockSuggester struct {
	refs      []domain.DocumentRef
	err       error
	lastLimit int
}

func (m *mockSuggester) Suggest(ctx context.Context, prefix string, limit int) ([]domain.DocumentRef, error) {
	m.lastLimit = limit
	return m.refs, m.err
}

// mockArchive is a test double for driven.ArchiveReader.
type mockArchive struct {
	pages map[string]string
}

func (m *mockArchive) Fetch(ctx context.Context, path string) ([]byte, error) {
	content, ok := m.pages[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return []byte(content), nil
}

func (m *mockArchive) Title(ctx context.Context, path string) string {
	return path
}
