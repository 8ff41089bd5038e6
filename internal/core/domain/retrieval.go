package domain

// RetrievalOptions configures a single query resolution.
type RetrievalOptions struct {
	// TopPages is the number of pages kept after page reranking.
	TopPages int

	// TopK is the maximum number of citations returned.
	TopK int
}

// RetrievalConfig holds the tuning knobs of the retrieval pipeline.
// Zero values are replaced by defaults via Normalise.
type RetrievalConfig struct {
	// MaxArticles bounds the pages fetched by the full-text fallback pass.
	MaxArticles int

	// MaxChunks is the global cap on chunks considered per query.
	MaxChunks int

	// RecallLimit bounds the paths recalled by full-text search.
	RecallLimit int

	// TopPages is the default number of pages kept after page reranking.
	TopPages int

	// TopK is the default number of citations returned.
	TopK int

	// SuggestionLimit bounds prefix-suggestion candidates.
	SuggestionLimit int

	// ChunkTokens is the token window size for section splitting.
	ChunkTokens int

	// ChunkOverlap is the token overlap between consecutive windows.
	ChunkOverlap int

	// TitleSimExit is the early-exit similarity threshold after the
	// title-first pass.
	TitleSimExit float64

	// SimThreshold is the weak-evidence threshold that triggers the
	// widened second pass.
	SimThreshold float64

	// SecondPassEnable toggles the widened second pass.
	SecondPassEnable bool

	// SecondPassFactor multiplies the recall caps for the second pass.
	SecondPassFactor float64

	// LeadCacheSize is the capacity of the lead-vector LRU cache.
	LeadCacheSize int

	// SuggestCacheSize is the capacity of the candidate-list LRU cache.
	SuggestCacheSize int

	// EmbedParallelism caps concurrent embedding calls within one query.
	EmbedParallelism int
}

// DefaultRetrievalConfig returns the stock pipeline tuning.
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		MaxArticles:      20,
		MaxChunks:        120,
		RecallLimit:      200,
		TopPages:         3,
		TopK:             6,
		SuggestionLimit:  20,
		ChunkTokens:      160,
		ChunkOverlap:     20,
		TitleSimExit:     0.28,
		SimThreshold:     0.22,
		SecondPassEnable: true,
		SecondPassFactor: 2.0,
		LeadCacheSize:    64,
		SuggestCacheSize: 128,
		EmbedParallelism: 4,
	}
}

// Normalise fills zero fields with defaults and clamps nonsense values.
func (c RetrievalConfig) Normalise() RetrievalConfig {
	d := DefaultRetrievalConfig()
	if c.MaxArticles <= 0 {
		c.MaxArticles = d.MaxArticles
	}
	if c.MaxChunks <= 0 {
		c.MaxChunks = d.MaxChunks
	}
	if c.RecallLimit <= 0 {
		c.RecallLimit = d.RecallLimit
	}
	if c.TopPages <= 0 {
		c.TopPages = d.TopPages
	}
	if c.TopK <= 0 {
		c.TopK = d.TopK
	}
	if c.SuggestionLimit <= 0 {
		c.SuggestionLimit = d.SuggestionLimit
	}
	if c.ChunkTokens <= 0 {
		c.ChunkTokens = d.ChunkTokens
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkTokens {
		c.ChunkOverlap = d.ChunkOverlap
	}
	if c.TitleSimExit <= 0 {
		c.TitleSimExit = d.TitleSimExit
	}
	if c.SimThreshold <= 0 {
		c.SimThreshold = d.SimThreshold
	}
	if c.SecondPassFactor < 1 {
		c.SecondPassFactor = d.SecondPassFactor
	}
	if c.LeadCacheSize <= 0 {
		c.LeadCacheSize = d.LeadCacheSize
	}
	if c.SuggestCacheSize <= 0 {
		c.SuggestCacheSize = d.SuggestCacheSize
	}
	if c.EmbedParallelism <= 0 {
		c.EmbedParallelism = d.EmbedParallelism
	}
	return c
}
