package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/pawmatch/internal/core/domain"
)

// FavoritesRepo implements ports.FavoritesBackend with pgx. Rows carry
// their position so insertion order survives a round trip.
type FavoritesRepo struct {
	db *DB
}

// NewFavoritesRepo creates a new FavoritesRepo.
func NewFavoritesRepo(db *DB) *FavoritesRepo {
	return &FavoritesRepo{db: db}
}

// Name identifies the backend.
func (r *FavoritesRepo) Name() string { return "postgres" }

// Load returns owner's favorites in insertion order.
func (r *FavoritesRepo) Load(ctx context.Context, owner string) ([]string, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT dog_id FROM favorites
		WHERE owner = $1
		ORDER BY position
	`, domain.NormalizeOwner(owner))
	if err != nil {
		return nil, fmt.Errorf("query favorites: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan favorites: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// Save replaces owner's favorites in one transaction.
func (r *FavoritesRepo) Save(ctx context.Context, owner string, ids []string) error {
	owner = domain.NormalizeOwner(owner)
	return pgx.BeginFunc(ctx, r.db.Pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM favorites WHERE owner = $1`, owner); err != nil {
			return fmt.Errorf("clear favorites: %w", err)
		}
		if len(ids) == 0 {
			return nil
		}

		batch := &pgx.Batch{}
		for i, id := range ids {
			batch.Queue(`
				INSERT INTO favorites (owner, dog_id, position)
				VALUES ($1, $2, $3)
				ON CONFLICT (owner, dog_id) DO NOTHING
			`, owner, id, i)
		}
		br := tx.SendBatch(ctx, batch)
		defer br.Close()
		for range ids {
			if _, err := br.Exec(); err != nil {
				return fmt.Errorf("batch exec: %w", err)
			}
		}
		return nil
	})
}
