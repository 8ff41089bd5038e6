package domain

import "strings"

// DocumentRef identifies a corpus document proposed as a retrieval candidate.
// It is immutable and lives only for the query that produced it.
type DocumentRef struct {
	// Path is the unique archive path of the document.
	Path string

	// Title is the human-readable document title.
	Title string
}

// TitleRecord is a single row of the title index.
// Records are written once at index-build time and read-only afterwards.
type TitleRecord struct {
	// Title is the indexed document title.
	Title string

	// Path is the archive path the title maps to.
	Path string
}

// Section is a labeled, ordered slice of a document's prose.
// The lead section (text before the first heading) always has Order 0.
type Section struct {
	// Label is the heading text, or "Lead" for the lead section.
	Label string

	// Text is the whitespace-normalised section prose.
	Text string

	// Order is the position of the section within the document.
	Order int

	// ParentPath is the archive path of the owning document.
	ParentPath string
}

// Chunk is a windowed sub-range of a Section, the unit of ranking.
type Chunk struct {
	// SectionLabel is the label of the section this chunk came from.
	SectionLabel string

	// Text is the chunk text.
	Text string

	// StartOffset is the index of the first token of the window
	// within the section.
	StartOffset int

	// EndOffset is the index one past the last token of the window.
	EndOffset int

	// ParentPath is the archive path of the owning document.
	ParentPath string

	// ParentTitle is the title of the owning document.
	ParentTitle string
}

// Snippet returns the first n tokens of the chunk text for display.
func (c Chunk) Snippet(n int) string {
	return firstTokens(c.Text, n)
}

// firstTokens returns the first n whitespace-separated tokens of s.
func firstTokens(s string, n int) string {
	fields := strings.Fields(s)
	if len(fields) > n {
		fields = fields[:n]
	}
	return strings.Join(fields, " ")
}

// RankedChunk is a chunk scored against a query, with its citation ordinal.
type RankedChunk struct {
	// Chunk is the underlying chunk.
	Chunk Chunk

	// Score is the cosine similarity to the query vector, in [-1, 1].
	Score float64

	// CitationID is the 1-based ordinal assigned in rank order.
	// IDs are contiguous and unique within one RetrievalResult.
	CitationID int
}

// ExitReason records which pipeline stage produced a retrieval result.
type ExitReason string

const (
	// ExitTitleEarly means the title-first pass scored above the
	// early-exit threshold and fallback was skipped.
	ExitTitleEarly ExitReason = "title_early_exit"

	// ExitFullText means the full-text fallback pass produced the result.
	ExitFullText ExitReason = "fulltext"

	// ExitSecondPass means the widened second recall pass produced the result.
	ExitSecondPass ExitReason = "second_pass"

	// ExitInsufficient means no usable evidence was found in any pass.
	ExitInsufficient ExitReason = "insufficient"
)

// RetrievalResult is the immutable outcome of one query resolution.
type RetrievalResult struct {
	// Citations is the final ranked context set, citation ids 1..N.
	Citations []RankedChunk

	// ExitReason records the stage that terminated the pipeline.
	ExitReason ExitReason
}
