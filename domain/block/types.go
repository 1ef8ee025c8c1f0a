// Package block models a stored block of trials: a labelled set of counts.
package block

import (
	"strings"
	"time"

	"gosdt/domain/core"
	"gosdt/domain/sdt"
)

// Block is a labelled set of trial counts kept by a repository.
type Block struct {
	ID        core.BlockID `json:"id" db:"id"`
	Label     string       `json:"label" db:"label"`
	Counts    sdt.Counts   `json:"counts"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
}

// New validates the counts eagerly so that an invalid block is never stored.
func New(label string, counts sdt.Counts) (*Block, error) {
	if _, err := sdt.FromCounts(counts); err != nil {
		return nil, err
	}
	return &Block{
		ID:        core.NewBlockID(),
		Label:     strings.TrimSpace(label),
		Counts:    counts,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Record derives the signal detection statistics of the block.
func (b *Block) Record() (sdt.Record, error) {
	return sdt.FromCounts(b.Counts)
}
