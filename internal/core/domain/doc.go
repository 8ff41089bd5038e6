// Package domain contains the core value types of the retrieval pipeline.
// Types here have no dependencies on adapters or external services.
package domain
