package driven

import "github.com/corvidae-labs/archivist/internal/core/domain"

// LeadCache maps document paths to precomputed summary vectors
// (the embedding of a document's title plus lead paragraph).
//
// The cache is the only state shared across concurrent queries.
// Implementations must bound capacity, evict least-recently-used
// entries, and serialize mutations so that concurrent get/put never
// loses entries mid-update.
type LeadCache interface {
	// Get returns the cached vector for path and promotes the entry.
	Get(path string) (domain.Vector, bool)

	// Put inserts or refreshes the vector for path, evicting the
	// least-recently-used entry under capacity pressure.
	Put(path string, vec domain.Vector)

	// Len returns the current entry count.
	Len() int

	// Stats returns hit/miss counters for tuning.
	Stats() CacheStats
}

// CandidateCache memoises candidate lists per normalised query.
// Same bounding and eviction discipline as LeadCache.
type CandidateCache interface {
	// Get returns the cached candidate list for the normalised query.
	Get(query string) ([]domain.DocumentRef, bool)

	// Put stores the candidate list for the normalised query.
	Put(query string, refs []domain.DocumentRef)

	// Len returns the current entry count.
	Len() int

	// Stats returns hit/miss counters for tuning.
	Stats() CacheStats
}

// CacheStats holds observable cache counters.
type CacheStats struct {
	// Hits is the number of successful lookups.
	Hits uint64

	// Misses is the number of failed lookups.
	Misses uint64

	// Evictions is the number of entries removed under capacity pressure.
	Evictions uint64
}
