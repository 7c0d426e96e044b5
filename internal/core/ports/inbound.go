package ports

import (
	"context"

	"github.com/kirillkom/graph-resolver/internal/core/domain"
)

// EntityResolver is the inbound contract for name resolution. Resolve never
// returns an error: validation outcomes and source failures are represented
// in the result's Action and EmbeddingsAvailable fields.
type EntityResolver interface {
	Resolve(ctx context.Context, query domain.Query) domain.ResolutionResult
}

// NodeIndexer is the inbound contract for asynchronous embedding maintenance.
type NodeIndexer interface {
	IndexByID(ctx context.Context, nodeID string) error
}
