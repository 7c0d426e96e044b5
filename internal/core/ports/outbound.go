package ports

import (
	"context"

	"github.com/kirillkom/graph-resolver/internal/core/domain"
)

// ExactSource answers case-insensitive full-name equality lookups against the
// store's name index. It receives an already-normalized name.
type ExactSource interface {
	LookupExact(ctx context.Context, normalizedName, tag, scope string) ([]domain.Node, error)
}

// FuzzySource returns a superset of approximate-match candidates from the
// store's full-text index. The query arrives already escaped for the backend's
// query syntax. Confidence is computed by the engine, not here.
type FuzzySource interface {
	SearchFuzzy(ctx context.Context, escapedQuery, tag, scope string, limit int) ([]domain.FuzzyHit, error)
}

// SemanticSource returns vector-index candidates with raw cosine similarity.
// Implementations report unavailability (missing index, embedder down) as an
// error wrapping domain.ErrSemanticUnavailable; the orchestrator degrades
// instead of failing.
type SemanticSource interface {
	SearchSemantic(ctx context.Context, normalizedQuery, scope string, limit int) ([]domain.SemanticHit, error)
}

// NodeWriter is the write side of the store, used only by the importer and
// the embedding worker. The resolution path is read-only.
type NodeWriter interface {
	UpsertNode(ctx context.Context, rec domain.NodeRecord) error
	NodeName(ctx context.Context, id string) (string, error)
	WriteEmbedding(ctx context.Context, id string, vector []float32) error
}

// GraphStore is the full store handle opened by bootstrap. One implementation
// per backend (neo4j, postgres); the handle owns its connections and must be
// closed explicitly.
type GraphStore interface {
	ExactSource
	FuzzySource
	SemanticSource
	NodeWriter

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Embedder builds a vector for a name or query string.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// NodeEventQueue publishes/consumes node-upserted events that drive the
// embedding worker.
type NodeEventQueue interface {
	PublishNodeUpserted(ctx context.Context, nodeID string) error
	SubscribeNodeUpserted(ctx context.Context, handler func(context.Context, string) error) error
}
