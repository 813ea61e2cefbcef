package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/msomdec/swirl-rewards/internal/domain"
	"github.com/msomdec/swirl-rewards/internal/metrics"
)

// votedStorageKey marks a client that has already cast its flavor vote.
const votedStorageKey = "duo_flavor_vote"

// VoteService tallies the new-flavor vote. Each client votes at most once.
type VoteService struct {
	flavors domain.FlavorRepository

	// mu serializes the voted-check and the increment.
	mu sync.Mutex
}

// NewVoteService creates a new VoteService.
func NewVoteService(flavors domain.FlavorRepository) *VoteService {
	return &VoteService{flavors: flavors}
}

// SeedFlavors inserts the initial candidates that do not exist yet.
func (s *VoteService) SeedFlavors(ctx context.Context) error {
	if err := s.flavors.Seed(ctx, InitialFlavors); err != nil {
		return fmt.Errorf("seed flavors: %w", err)
	}
	return nil
}

// List returns all candidates with their share of the total vote.
func (s *VoteService) List(ctx context.Context) ([]domain.Flavor, error) {
	flavors, err := s.flavors.List(ctx)
	if err != nil {
		return nil, err
	}
	return withPercentages(flavors), nil
}

// HasVoted reports whether the client owning storage has voted.
func (s *VoteService) HasVoted(ctx context.Context, storage domain.LocalStorage) (bool, error) {
	_, err := storage.Get(ctx, votedStorageKey)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read vote marker: %w", err)
	}
	return true, nil
}

// Vote adds one vote for flavorID on behalf of the client owning storage and
// returns the updated standings.
func (s *VoteService) Vote(ctx context.Context, storage domain.LocalStorage, flavorID string) ([]domain.Flavor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	voted, err := s.HasVoted(ctx, storage)
	if err != nil {
		return nil, err
	}
	if voted {
		return nil, domain.Fail(domain.ErrAlreadyVoted, "You have already voted.")
	}

	// Marker first; it is removed again if the increment fails.
	if err := storage.Set(ctx, votedStorageKey, flavorID); err != nil {
		return nil, fmt.Errorf("record vote marker: %w", err)
	}
	if err := s.flavors.IncrementVotes(ctx, flavorID); err != nil {
		if delErr := storage.Delete(ctx, votedStorageKey); delErr != nil {
			slog.Error("roll back vote marker", "flavor_id", flavorID, "error", delErr)
		}
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Fail(domain.ErrNotFound, "Unknown flavor.")
		}
		return nil, fmt.Errorf("increment votes: %w", err)
	}
	metrics.FlavorVotes.WithLabelValues(flavorID).Inc()

	return s.List(ctx)
}

// withPercentages fills in each flavor's rounded share of the total.
func withPercentages(flavors []domain.Flavor) []domain.Flavor {
	total := 0
	for _, f := range flavors {
		total += f.Votes
	}
	for i := range flavors {
		if total == 0 {
			flavors[i].Percentage = 0
			continue
		}
		flavors[i].Percentage = int(math.Round(float64(flavors[i].Votes) / float64(total) * 100))
	}
	return flavors
}
