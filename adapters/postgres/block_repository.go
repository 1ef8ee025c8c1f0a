package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gosdt/domain/block"
	"gosdt/domain/core"
	"gosdt/domain/sdt"
	apperrors "gosdt/internal/errors"
	"gosdt/ports"

	"github.com/cenkalti/backoff"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// blockRow mirrors one row of sdt_blocks
type blockRow struct {
	ID                string    `db:"id"`
	Label             string    `db:"label"`
	Hits              float64   `db:"hits"`
	Misses            float64   `db:"misses"`
	FalseAlarms       float64   `db:"false_alarms"`
	CorrectRejections float64   `db:"correct_rejections"`
	CreatedAt         time.Time `db:"created_at"`
}

func newBlockRow(b *block.Block) blockRow {
	return blockRow{
		ID:                b.ID.String(),
		Label:             b.Label,
		Hits:              b.Counts.Hits,
		Misses:            b.Counts.Misses,
		FalseAlarms:       b.Counts.FalseAlarms,
		CorrectRejections: b.Counts.CorrectRejections,
		CreatedAt:         b.CreatedAt,
	}
}

func (r blockRow) toBlock() *block.Block {
	return &block.Block{
		ID:    core.BlockID(r.ID),
		Label: r.Label,
		Counts: sdt.Counts{
			Hits:              r.Hits,
			Misses:            r.Misses,
			FalseAlarms:       r.FalseAlarms,
			CorrectRejections: r.CorrectRejections,
		},
		CreatedAt: r.CreatedAt,
	}
}

// blockRepository implements ports.BlockRepository on PostgreSQL
type blockRepository struct {
	db *sqlx.DB
}

// NewBlockRepository creates a new PostgreSQL block repository
func NewBlockRepository(db *sqlx.DB) ports.BlockRepository {
	return &blockRepository{db: db}
}

const blockColumns = `id, label, hits, misses, false_alarms, correct_rejections, created_at`

// Save inserts a block or replaces the counts and label of an existing one
func (r *blockRepository) Save(ctx context.Context, b *block.Block) error {
	query := `INSERT INTO sdt_blocks (` + blockColumns + `)
		VALUES (:id, :label, :hits, :misses, :false_alarms, :correct_rejections, :created_at)
		ON CONFLICT (id) DO UPDATE SET
			label = EXCLUDED.label,
			hits = EXCLUDED.hits,
			misses = EXCLUDED.misses,
			false_alarms = EXCLUDED.false_alarms,
			correct_rejections = EXCLUDED.correct_rejections`

	if _, err := r.db.NamedExecContext(ctx, query, newBlockRow(b)); err != nil {
		return apperrors.DatabaseError("failed to save block", err)
	}
	return nil
}

// Get retrieves a block by its ID
func (r *blockRepository) Get(ctx context.Context, id core.BlockID) (*block.Block, error) {
	var row blockRow
	err := r.db.GetContext(ctx, &row, `SELECT `+blockColumns+` FROM sdt_blocks WHERE id = $1`, id.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.NewNotFoundError("block", id.String())
		}
		return nil, apperrors.DatabaseError("failed to get block", err)
	}
	return row.toBlock(), nil
}

// List returns blocks oldest first; a non-positive limit means no limit
func (r *blockRepository) List(ctx context.Context, limit, offset int) ([]*block.Block, error) {
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + blockColumns + ` FROM sdt_blocks ORDER BY created_at, id OFFSET $1`
	args := []interface{}{offset}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	var rows []blockRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperrors.DatabaseError("failed to list blocks", err)
	}

	blocks := make([]*block.Block, 0, len(rows))
	for _, row := range rows {
		blocks = append(blocks, row.toBlock())
	}
	return blocks, nil
}

// Delete removes a block by its ID
func (r *blockRepository) Delete(ctx context.Context, id core.BlockID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sdt_blocks WHERE id = $1`, id.String())
	if err != nil {
		return apperrors.DatabaseError("failed to delete block", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.DatabaseError("failed to read affected rows", err)
	}
	if affected == 0 {
		return core.NewNotFoundError("block", id.String())
	}
	return nil
}

// Connect opens a PostgreSQL connection pool with the lib/pq driver and pings it.
// Failed attempts are retried with exponential backoff until ctx is done.
func Connect(ctx context.Context, url string) (*sqlx.DB, error) {
	var db *sqlx.DB
	connect := func() error {
		var err error
		db, err = sqlx.ConnectContext(ctx, "postgres", url)
		return err
	}
	if err := backoff.Retry(connect, backoff.WithContext(backoff.NewExponentialBackOff(), ctx)); err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}
