package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/msomdec/swirl-rewards/internal/domain"
)

// RewardRepository implements domain.RewardRepository using SQLite.
type RewardRepository struct {
	db *sql.DB
}

// NewRewardRepository creates a new SQLite-backed RewardRepository.
func NewRewardRepository(db *DB) *RewardRepository {
	return &RewardRepository{db: db.SqlDB}
}

func (r *RewardRepository) List(ctx context.Context) ([]domain.Reward, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, image, points_cost, category FROM rewards ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list rewards: %w", err)
	}
	defer rows.Close()

	var rewards []domain.Reward
	for rows.Next() {
		var rw domain.Reward
		if err := rows.Scan(&rw.ID, &rw.Name, &rw.Image, &rw.PointsCost, &rw.Category); err != nil {
			return nil, fmt.Errorf("scan reward: %w", err)
		}
		rewards = append(rewards, rw)
	}
	return rewards, rows.Err()
}

func (r *RewardRepository) GetByID(ctx context.Context, id string) (*domain.Reward, error) {
	rw := &domain.Reward{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, image, points_cost, category FROM rewards WHERE id = ?`, id,
	).Scan(&rw.ID, &rw.Name, &rw.Image, &rw.PointsCost, &rw.Category)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get reward by id: %w", err)
	}
	return rw, nil
}

func (r *RewardRepository) Create(ctx context.Context, reward *domain.Reward) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO rewards (id, name, image, points_cost, category, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		reward.ID, reward.Name, reward.Image, reward.PointsCost, reward.Category, time.Now().UTC(),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return domain.Fail(domain.ErrInvalidInput, "A reward with this ID already exists.")
		}
		return fmt.Errorf("insert reward: %w", err)
	}
	return nil
}

// Seed inserts the given rewards in order, skipping IDs already present.
func (r *RewardRepository) Seed(ctx context.Context, rewards []domain.Reward) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, rw := range rewards {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO rewards (id, name, image, points_cost, category, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			rw.ID, rw.Name, rw.Image, rw.PointsCost, rw.Category, now,
		); err != nil {
			return fmt.Errorf("seed reward %s: %w", rw.ID, err)
		}
	}
	return tx.Commit()
}
