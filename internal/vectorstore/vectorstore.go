package vectorstore

import "context"

// Memory is one long-term conversation memory: a condensed line about a past
// exchange, scoped to the session it belongs to.
type Memory struct {
	ID        string
	SessionID string
	Content   string
	Score     float32
}

// MemoryStore is a technology-agnostic interface over the vector database
// used for long-term conversational memory.
type MemoryStore interface {
	// EnsureCollection creates the backing collection if it does not exist.
	EnsureCollection(ctx context.Context) error

	// Add stores one memory under its embedding vector.
	Add(ctx context.Context, mem Memory, vector []float32) error

	// Search returns the memories most similar to the query vector,
	// restricted to a single session.
	Search(ctx context.Context, vector []float32, sessionID string, limit int) ([]Memory, error)

	// Close releases any resources held by the store.
	Close() error
}
