// Package services implements the retrieval pipeline: candidate
// generation, page and section reranking, chunking, and the
// orchestrating state machine.
package services
