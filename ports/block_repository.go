package ports

import (
	"context"

	"gosdt/domain/block"
	"gosdt/domain/core"
)

// BlockRepository defines the interface for observation block storage
type BlockRepository interface {
	Save(ctx context.Context, b *block.Block) error
	Get(ctx context.Context, id core.BlockID) (*block.Block, error)
	// List returns blocks ordered by creation time, oldest first
	List(ctx context.Context, limit, offset int) ([]*block.Block, error)
	Delete(ctx context.Context, id core.BlockID) error
}
