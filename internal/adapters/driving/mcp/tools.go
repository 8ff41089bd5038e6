package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/corvidae-labs/archivist/internal/core/domain"
)

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Query    string `json:"query" jsonschema:"the question to find supporting passages for"`
	TopPages int    `json:"top_pages,omitempty" jsonschema:"number of pages to keep after reranking (default 3)"`
	TopK     int    `json:"top_k,omitempty" jsonschema:"maximum number of citations to return (default 6)"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	ExitReason string           `json:"exit_reason"`
	Citations  []CitationOutput `json:"citations"`
	Count      int              `json:"count"`
}

// CitationOutput represents a single ranked passage.
type CitationOutput struct {
	ID      int     `json:"id"`
	Title   string  `json:"title"`
	Path    string  `json:"path"`
	Section string  `json:"section"`
	Text    string  `json:"text"`
	Score   float64 `json:"score"`
}

// PageSearchInput is the input schema for the search_page tool.
type PageSearchInput struct {
	Path  string `json:"path" jsonschema:"the corpus path of the page to search within"`
	Query string `json:"query" jsonschema:"the question to rank the page's passages against"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"maximum number of passages to return (default 6)"`
}

// SuggestInput is the input schema for the suggest_titles tool.
type SuggestInput struct {
	Prefix string `json:"prefix" jsonschema:"the title prefix to complete"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum number of suggestions (default 10)"`
}

// SuggestOutput is the output schema for the suggest_titles tool.
type SuggestOutput struct {
	Suggestions []SuggestionOutput `json:"suggestions"`
}

// SuggestionOutput represents a single title suggestion.
type SuggestionOutput struct {
	Title string `json:"title"`
	Path  string `json:"path"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Retrieve ranked, citation-numbered passages from the local corpus for a question",
	}, s.handleRetrieve)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_page",
		Description: "Rank the passages of one named page against a question",
	}, s.handlePageSearch)

	if s.ports.Suggest != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "suggest_titles",
			Description: "Complete a page title prefix against the corpus index",
		}, s.handleSuggest)
	}
}

// handleRetrieve handles the retrieve tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	opts := domain.RetrievalOptions{
		TopPages: input.TopPages,
		TopK:     input.TopK,
	}
	result, err := s.ports.Retrieval.Retrieve(ctx, input.Query, opts)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}
	return nil, toRetrieveOutput(result), nil
}

// handlePageSearch handles the search_page tool invocation.
func (s *Server) handlePageSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input PageSearchInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	result, err := s.ports.Retrieval.RetrieveInPath(ctx, input.Path, input.Query, input.TopK)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}
	return nil, toRetrieveOutput(result), nil
}

// handleSuggest handles the suggest_titles tool invocation.
func (s *Server) handleSuggest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SuggestInput,
) (*mcp.CallToolResult, SuggestOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}

	refs, err := s.ports.Suggest.Suggest(ctx, input.Prefix, limit)
	if err != nil {
		return nil, SuggestOutput{}, err
	}

	output := SuggestOutput{Suggestions: make([]SuggestionOutput, len(refs))}
	for i, ref := range refs {
		output.Suggestions[i] = SuggestionOutput{Title: ref.Title, Path: ref.Path}
	}
	return nil, output, nil
}

func toRetrieveOutput(result *domain.RetrievalResult) RetrieveOutput {
	output := RetrieveOutput{
		ExitReason: string(result.ExitReason),
		Citations:  make([]CitationOutput, len(result.Citations)),
		Count:      len(result.Citations),
	}
	for i, rc := range result.Citations {
		output.Citations[i] = CitationOutput{
			ID:      rc.CitationID,
			Title:   rc.Chunk.ParentTitle,
			Path:    rc.Chunk.ParentPath,
			Section: rc.Chunk.SectionLabel,
			Text:    rc.Chunk.Text,
			Score:   rc.Score,
		}
	}
	return output
}
