package usecase

import (
	"context"
	"fmt"

	"github.com/kirillkom/graph-resolver/internal/core/domain"
	"github.com/kirillkom/graph-resolver/internal/core/ports"
)

// IndexNodeUseCase keeps the semantic index fresh: it embeds a node's display
// name and writes the vector back to the store. Runs in the worker, driven by
// node-upserted events; the resolution path never calls it.
type IndexNodeUseCase struct {
	writer   ports.NodeWriter
	embedder ports.Embedder
}

func NewIndexNodeUseCase(writer ports.NodeWriter, embedder ports.Embedder) *IndexNodeUseCase {
	return &IndexNodeUseCase{
		writer:   writer,
		embedder: embedder,
	}
}

func (uc *IndexNodeUseCase) IndexByID(ctx context.Context, nodeID string) error {
	name, err := uc.writer.NodeName(ctx, nodeID)
	if err != nil {
		return fmt.Errorf("load node name: %w", err)
	}

	vector, err := uc.embedder.EmbedQuery(ctx, domain.NormalizeName(name))
	if err != nil {
		return fmt.Errorf("embed node name: %w", err)
	}

	if err := uc.writer.WriteEmbedding(ctx, nodeID, vector); err != nil {
		return fmt.Errorf("write embedding: %w", err)
	}
	return nil
}
