// Package memory provides an in-process BlockRepository used when no database is configured.
package memory

import (
	"context"
	"sync"

	"gosdt/domain/block"
	"gosdt/domain/core"
	"gosdt/ports"
)

type blockRepository struct {
	mu     sync.RWMutex
	blocks map[core.BlockID]block.Block
	order  []core.BlockID
}

// NewBlockRepository creates an empty in-memory block repository
func NewBlockRepository() ports.BlockRepository {
	return &blockRepository{blocks: make(map[core.BlockID]block.Block)}
}

func (r *blockRepository) Save(ctx context.Context, b *block.Block) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.blocks[b.ID]; !exists {
		r.order = append(r.order, b.ID)
	}
	r.blocks[b.ID] = *b
	return nil
}

func (r *blockRepository) Get(ctx context.Context, id core.BlockID) (*block.Block, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.blocks[id]
	if !ok {
		return nil, core.NewNotFoundError("block", id.String())
	}
	return &b, nil
}

func (r *blockRepository) List(ctx context.Context, limit, offset int) ([]*block.Block, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	if offset < 0 {
		offset = 0
	}
	if offset >= len(r.order) {
		return []*block.Block{}, nil
	}
	end := len(r.order)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	out := make([]*block.Block, 0, end-offset)
	for _, id := range r.order[offset:end] {
		b := r.blocks[id]
		out = append(out, &b)
	}
	return out, nil
}

func (r *blockRepository) Delete(ctx context.Context, id core.BlockID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.blocks[id]; !ok {
		return core.NewNotFoundError("block", id.String())
	}
	delete(r.blocks, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}
