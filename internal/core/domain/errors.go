package domain

import "errors"

// Domain errors represent retrieval pipeline failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested document path does not exist
	// in the archive.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrIndexUnavailable indicates the title index is absent or unbuilt.
	// Candidate generation degrades to the suggestion source alone.
	ErrIndexUnavailable = errors.New("title index unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Semantic reranking is disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the generation service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrInsufficientEvidence indicates a whole pipeline stage produced
	// no usable chunks. The orchestrator reports this as a degraded exit
	// reason, never as a caller-visible error.
	ErrInsufficientEvidence = errors.New("insufficient evidence")
)
