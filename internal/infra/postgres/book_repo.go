package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kislikjeka/wizmoney/internal/ledger"
)

// BookRepository stores one JSONB snapshot document per owner. It is the
// remote document store of the sync layer.
type BookRepository struct {
	pool *pgxpool.Pool
}

// NewBookRepository creates a new PostgreSQL book repository
func NewBookRepository(pool *pgxpool.Pool) *BookRepository {
	return &BookRepository{pool: pool}
}

// Save upserts the snapshot document of its owner. A snapshot older than
// the stored version is ignored so the document never moves backwards.
func (r *BookRepository) Save(ctx context.Context, snap ledger.Snapshot) error {
	if snap.Owner == "" {
		return fmt.Errorf("failed to save book: owner is required")
	}

	document, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal book: %w", err)
	}

	updatedAt := snap.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO books (user_id, document, digest, version, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET document = EXCLUDED.document,
			digest = EXCLUDED.digest,
			version = EXCLUDED.version,
			updated_at = EXCLUDED.updated_at
		WHERE books.version <= EXCLUDED.version
	`

	if _, err := r.pool.Exec(ctx, query, snap.Owner, document, snap.Digest(), int64(snap.Version), updatedAt); err != nil {
		return fmt.Errorf("failed to save book: %w", err)
	}
	return nil
}

// Load returns the stored snapshot of owner
func (r *BookRepository) Load(ctx context.Context, owner string) (ledger.Snapshot, error) {
	query := `SELECT document FROM books WHERE user_id = $1`

	var document []byte
	if err := r.pool.QueryRow(ctx, query, owner).Scan(&document); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ledger.Snapshot{}, ledger.ErrSnapshotNotFound
		}
		return ledger.Snapshot{}, fmt.Errorf("failed to load book: %w", err)
	}

	var snap ledger.Snapshot
	if err := json.Unmarshal(document, &snap); err != nil {
		return ledger.Snapshot{}, fmt.Errorf("failed to unmarshal book: %w", err)
	}
	snap.Owner = owner
	return snap, nil
}

var _ ledger.SnapshotStore = (*BookRepository)(nil)
