package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/msomdec/swirl-rewards/internal/domain"
)

// FlavorRepository implements domain.FlavorRepository using SQLite.
type FlavorRepository struct {
	db *sql.DB
}

// NewFlavorRepository creates a new SQLite-backed FlavorRepository.
func NewFlavorRepository(db *DB) *FlavorRepository {
	return &FlavorRepository{db: db.SqlDB}
}

// List returns all flavors ordered by ID. Percentage is left zero; it is
// derived by the caller from the full tally.
func (r *FlavorRepository) List(ctx context.Context) ([]domain.Flavor, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, primary_color, secondary_color, image, votes FROM flavors ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list flavors: %w", err)
	}
	defer rows.Close()

	var flavors []domain.Flavor
	for rows.Next() {
		var f domain.Flavor
		if err := rows.Scan(&f.ID, &f.Name, &f.Colors[0], &f.Colors[1], &f.Image, &f.Votes); err != nil {
			return nil, fmt.Errorf("scan flavor: %w", err)
		}
		flavors = append(flavors, f)
	}
	return flavors, rows.Err()
}

func (r *FlavorRepository) IncrementVotes(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "UPDATE flavors SET votes = votes + 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("increment flavor votes: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Seed inserts the given flavors, leaving existing tallies untouched.
func (r *FlavorRepository) Seed(ctx context.Context, flavors []domain.Flavor) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, f := range flavors {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO flavors (id, name, primary_color, secondary_color, image, votes)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			f.ID, f.Name, f.Colors[0], f.Colors[1], f.Image, f.Votes,
		); err != nil {
			return fmt.Errorf("seed flavor %s: %w", f.ID, err)
		}
	}
	return tx.Commit()
}
