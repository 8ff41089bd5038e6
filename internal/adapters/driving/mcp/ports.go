package mcp

import (
	"github.com/corvidae-labs/archivist/internal/core/ports/driven"
	"github.com/corvidae-labs/archivist/internal/core/ports/driving"
)

// Ports aggregates all port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retrieval resolves questions into ranked citations.
	Retrieval driving.RetrievalService

	// Suggest performs title prefix lookups.
	Suggest driven.Suggester

	// Archive reads raw page content for the page resource.
	Archive driven.ArchiveReader
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	// Suggest and Archive are optional.
	return nil
}
