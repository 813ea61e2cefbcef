package sqlite_test

import (
	"context"
	"errors"
	"testing"

	"github.com/msomdec/swirl-rewards/internal/domain"
)

func TestRewardRepository_SeedIsIdempotentAndOrdered(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := db.Rewards()

	seed := []domain.Reward{
		{ID: "2", Name: "Beach Towel", PointsCost: 1200, Category: "Merchandise"},
		{ID: "1", Name: "Lunchbox", PointsCost: 500, Category: "Merchandise"},
	}
	if err := repo.Seed(ctx, seed); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if err := repo.Seed(ctx, seed); err != nil {
		t.Fatalf("second Seed: %v", err)
	}

	rewards, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(rewards) != 2 {
		t.Fatalf("expected 2 rewards, got %d", len(rewards))
	}
	if rewards[0].ID != "2" || rewards[1].ID != "1" {
		t.Fatalf("expected insertion order [2 1], got [%s %s]", rewards[0].ID, rewards[1].ID)
	}
}

func TestRewardRepository_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := db.Rewards()

	rw := &domain.Reward{ID: "abc", Name: "Swirly Socks", Image: "socks.png", PointsCost: 300, Category: "Clothing"}
	if err := repo.Create(ctx, rw); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByID(ctx, "abc")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if *got != *rw {
		t.Fatalf("expected %+v, got %+v", *rw, *got)
	}

	if err := repo.Create(ctx, rw); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for duplicate id, got %v", err)
	}

	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
